package main

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"github.com/zombor/stamp-extractor/internal/extraction"
	"github.com/zombor/stamp-extractor/internal/scanning"
	"github.com/zombor/stamp-extractor/internal/scanning/tesseract"
	"github.com/zombor/stamp-extractor/internal/stamp"
	"github.com/zombor/stamp-extractor/internal/vision"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	defaults := extraction.DefaultOptions()
	fs := ff.NewFlagSet("stamp-extractor")
	var (
		port          = fs.IntLong("port", 8000, "HTTP server port")
		searchDPI     = fs.Float64Long("search-dpi", defaults.SearchDPI, "Render resolution for region search and previews")
		ocrDPI        = fs.Float64Long("ocr-dpi", defaults.OCRDPI, "Effective resolution of region crops handed to OCR")
		engineType    = fs.StringLong("ocr-engine", "tesseract", "OCR engine: 'tesseract', 'gemini' or 'ollama'")
		ocrMode       = fs.StringLong("ocr-mode", defaults.Mode.String(), "Page segmentation: 'sparse' or 'block'")
		tessLang      = fs.StringLong("tesseract-lang", "eng", "Tesseract language(s), '+' separated")
		geminiKey     = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel   = fs.StringLong("gemini-model", "gemini-2.5-flash", "Google Gemini model name")
		ollamaURL     = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel   = fs.StringLong("ollama-model", "llava", "Ollama model name")
		workers       = fs.IntLong("workers", defaults.Workers, "Regions processed in parallel per page")
		pageTimeout   = fs.DurationLong("page-timeout", defaults.PageTimeout, "Processing deadline for one page (0 disables)")
		units         = fs.StringLong("units", string(defaults.Units), "Default box units: 'pixels' or 'normalized'")
		heuristics    = fs.StringLong("heuristics", "", "YAML file overriding detection and association heuristics")
		cachePath     = fs.StringLong("cache-db", "", "BoltDB file caching page results (optional)")
		debugDir      = fs.StringLong("debug-dir", "", "Directory for preprocessed region crops (optional)")
		authUser      = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass      = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		disableVision = fs.BoolLong("no-vision", "Skip contour and circle detection and search the layout window only")
		showVersion   = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("STAMP_EXTRACTOR"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	cfg, err := stamp.LoadConfig(*heuristics)
	if err != nil {
		slog.Error("Failed to load heuristics", "path", *heuristics, "error", err)
		os.Exit(1)
	}

	mode, ok := scanning.ParseMode(*ocrMode)
	if !ok {
		slog.Error("Invalid OCR mode", "mode", *ocrMode, "valid", "sparse or block")
		os.Exit(1)
	}
	defaultUnits, err := extraction.ParseUnits(*units)
	if err != nil {
		slog.Error("Invalid units", "error", err)
		os.Exit(1)
	}

	// Initialize OCR engine based on type
	var engine scanning.Engine
	switch *engineType {
	case "tesseract":
		slog.Info("Initializing Tesseract engine...", "lang", *tessLang)
		engine = tesseract.New(strings.Split(*tessLang, "+")...)
	case "gemini":
		// Get Gemini API key from flag or environment
		apiKey := *geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			slog.Error("Gemini API key is required. Set --gemini-key flag or GEMINI_API_KEY environment variable")
			os.Exit(1)
		}
		slog.Info("Initializing Gemini engine...", "model", *geminiModel)
		engine, err = scanning.NewGemini(apiKey, *geminiModel)
		if err != nil {
			slog.Error("Failed to initialize Gemini", "error", err)
			os.Exit(1)
		}
	case "ollama":
		slog.Info("Initializing Ollama engine...", "url", *ollamaURL, "model", *ollamaModel)
		engine, err = scanning.NewOllama(*ollamaURL, *ollamaModel)
		if err != nil {
			slog.Error("Failed to initialize Ollama", "error", err)
			os.Exit(1)
		}
	default:
		slog.Error("Invalid OCR engine", "type", *engineType, "valid", "tesseract, gemini or ollama")
		os.Exit(1)
	}
	defer engine.Close()

	deps := extraction.Deps{
		Engine:       engine,
		Preprocessor: vision.NewPreprocessor(),
	}
	if *disableVision {
		deps.Locator = stamp.NewLocator(cfg, nil, nil)
	} else {
		deps.Locator = stamp.NewLocator(cfg, vision.NewContourFinder(), vision.NewCircleFinder())
	}

	if *cachePath != "" {
		slog.Info("Initializing result cache...", "path", *cachePath)
		cache, err := extraction.NewBoltCache(*cachePath)
		if err != nil {
			slog.Error("Failed to initialize cache", "error", err)
			os.Exit(1)
		}
		defer cache.Close()
		deps.Cache = cache
	}

	if *debugDir != "" {
		store, err := extraction.NewLocalStorage(*debugDir)
		if err != nil {
			slog.Error("Failed to initialize debug storage", "error", err)
			os.Exit(1)
		}
		deps.Storage = store
	}

	service := extraction.NewService(cfg, deps, extraction.Options{
		SearchDPI:   *searchDPI,
		OCRDPI:      *ocrDPI,
		Workers:     *workers,
		PageTimeout: *pageTimeout,
		Mode:        mode,
		Units:       defaultUnits,
	})

	// Initialize server
	basicAuth := extraction.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := extraction.NewServer(service, basicAuth)

	// Start server in goroutine
	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr), "engine", engine.Name())
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}
