package scanning

import (
	"context"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// contentGenerator is the part of genai.GenerativeModel the engine uses
type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Gemini implements the Engine interface using Google Gemini
type Gemini struct {
	client  *genai.Client
	model   contentGenerator
	timeout time.Duration
}

// NewGemini creates a new Gemini Engine instance
func NewGemini(apiKey string, modelName string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0)

	return &Gemini{
		client:  client,
		model:   model,
		timeout: 30 * time.Second,
	}, nil
}

// Name returns the engine name
func (g *Gemini) Name() string {
	return "gemini"
}

// RecognizeText transcribes the text in img
func (g *Gemini) RecognizeText(ctx context.Context, img image.Image, mode Mode) (string, error) {
	text, err := g.generate(ctx, img, promptFor(mode))
	if err != nil {
		return "", err
	}
	return cleanResponse(text), nil
}

// RecognizeLines transcribes the text in img line by line with boxes
func (g *Gemini) RecognizeLines(ctx context.Context, img image.Image, mode Mode) ([]Line, error) {
	text, err := g.generate(ctx, img, linesPrompt)
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	lines, err := parseLinesJSON(text, b.Dx(), b.Dy())
	if err != nil {
		return nil, fmt.Errorf("parsing lines: %w", err)
	}
	return lines, nil
}

func (g *Gemini) generate(ctx context.Context, img image.Image, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	data, err := EncodePNG(img)
	if err != nil {
		return "", err
	}

	// genai.ImageData expects just the format suffix (e.g., "png"), not the full MIME type
	parts := []genai.Part{
		genai.ImageData("png", data),
		genai.Text(prompt),
	}

	resp, err := g.model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("generating content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no response from gemini")
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			responseText.WriteString(string(text))
		}
	}
	return responseText.String(), nil
}

// Close closes the Gemini client
func (g *Gemini) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}
