package extraction

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
)

// maxUploadSize bounds multipart uploads; large sheets are tens of MB
const maxUploadSize = int64(100 << 20)

// writeError writes a JSON error body
func writeError(w http.ResponseWriter, message string, code int) {
	writeJSON(w, code, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidPage), errors.Is(err, ErrUnreadableDocument):
		return http.StatusBadRequest
	case errors.Is(err, ErrPageTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// upload is a parsed multipart request
type upload struct {
	data        []byte
	contentType string
	filename    string
}

// readUpload parses the multipart form and reads the "file" part
func readUpload(r *http.Request) (*upload, error) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		if strings.Contains(err.Error(), "request body too large") {
			return nil, fmt.Errorf("file is too large, maximum size is %dMB", maxUploadSize>>20)
		}
		return nil, fmt.Errorf("error parsing form")
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("no file provided")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("error reading file")
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		switch strings.ToLower(filepath.Ext(header.Filename)) {
		case ".pdf":
			contentType = "application/pdf"
		case ".jpg", ".jpeg":
			contentType = "image/jpeg"
		case ".png":
			contentType = "image/png"
		case ".gif":
			contentType = "image/gif"
		case ".heic":
			contentType = "image/heic"
		case ".heif":
			contentType = "image/heif"
		default:
			contentType = "application/octet-stream"
		}
	}

	return &upload{
		data:        data,
		contentType: strings.ToLower(strings.TrimSpace(contentType)),
		filename:    header.Filename,
	}, nil
}

// formPage reads the zero-based "page" form field
func formPage(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.FormValue("page"))
	if raw == "" {
		return 0, fmt.Errorf("page is required")
	}
	page, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("page must be an integer")
	}
	return page, nil
}

// handleHealth reports liveness
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleGetInfo returns the page count of an upload
func (s *Server) handleGetInfo(w http.ResponseWriter, r *http.Request) {
	log := Logger(r.Context())
	up, err := readUpload(r)
	if err != nil {
		log.Error("Error reading upload", "error", err)
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	info, err := s.service.PageCount(up.data, up.contentType)
	if err != nil {
		log.Error("Error reading document", "filename", up.filename, "error", err)
		writeError(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// handleGetPageImage returns a low-resolution page preview
func (s *Server) handleGetPageImage(w http.ResponseWriter, r *http.Request) {
	log := Logger(r.Context())
	up, err := readUpload(r)
	if err != nil {
		log.Error("Error reading upload", "error", err)
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	page, err := formPage(r)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	preview, err := s.service.PagePreview(up.data, up.contentType, page)
	if err != nil {
		log.Error("Error rendering preview", "filename", up.filename, "page", page, "error", err)
		writeError(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

// handleExtractStamp runs extraction on one page
func (s *Server) handleExtractStamp(w http.ResponseWriter, r *http.Request) {
	log := Logger(r.Context())
	up, err := readUpload(r)
	if err != nil {
		log.Error("Error reading upload", "error", err)
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	page, err := formPage(r)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	var units Units
	if raw := r.FormValue("units"); raw != "" {
		if units, err = ParseUnits(raw); err != nil {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	rawText, _ := strconv.ParseBool(r.FormValue("raw_text"))

	result, err := s.service.ExtractPage(r.Context(), up.data, up.contentType, Request{
		Page:    page,
		Units:   units,
		RawText: rawText,
	})
	if err != nil {
		log.Error("Error extracting stamp", "filename", up.filename, "page", page, "error", err)
		writeError(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, result)
}
