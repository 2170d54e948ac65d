package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/profile-screener/internal/ai"
	"github.com/profile-screener/internal/score"
)

// ExtractHandler turns free-form text into a subject profile.
type ExtractHandler struct {
	Extractor ai.Extractor
	Log       *zap.Logger
}

// ExtractRequest is the body of POST /api/extract.
type ExtractRequest struct {
	Text string `json:"text"`
}

// ExtractResponse carries the extracted profile and the raw model answer.
type ExtractResponse struct {
	Profile score.SubjectProfile `json:"profile"`
	Raw     string               `json:"raw"`
}

// Extract parses profile text through the configured extractor.
func (h *ExtractHandler) Extract(w http.ResponseWriter, r *http.Request) {
	if h.Extractor == nil {
		http.Error(w, "Text extraction is not configured", http.StatusNotImplemented)
		return
	}

	var req ExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		http.Error(w, "Text is required", http.StatusBadRequest)
		return
	}

	ex, err := h.Extractor.Extract(r.Context(), req.Text)
	if err != nil {
		if errors.Is(err, score.ErrSubjectProfileInvalid) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.Log.Error("extraction failed", zap.Error(err))
		http.Error(w, "Extraction failed", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ExtractResponse{Profile: ex.Profile, Raw: ex.Raw})
}
