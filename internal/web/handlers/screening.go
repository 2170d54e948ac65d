package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/profile-screener/internal/ai"
	"github.com/profile-screener/internal/aggregate"
	"github.com/profile-screener/internal/schema"
	"github.com/profile-screener/internal/score"
	"github.com/profile-screener/internal/screen"
	"github.com/profile-screener/internal/source"
)

// ScreeningHandler serves schema detection and subject matching.
type ScreeningHandler struct {
	Engine     *screen.Engine
	Extractor  ai.Extractor
	Discoverer *source.Discoverer
	Timeout    time.Duration
	Log        *zap.Logger
}

// MatchRequest is the body of POST /api/match. The subject arrives either
// as a field map or as free text for the extractor.
type MatchRequest struct {
	Subject map[string]string   `json:"subject"`
	Text    string              `json:"text"`
	Sources []source.Descriptor `json:"sources"`
	Options *MatchOptions       `json:"options"`
}

// MatchOptions tunes a single match request.
type MatchOptions struct {
	Limit int `json:"limit"`
}

// MatchResponse carries the ranked groups plus a flat result list.
type MatchResponse struct {
	Results  []score.SimilarityResult `json:"results"`
	Groups   []aggregate.MatchGroup   `json:"groups"`
	Reports  []screen.SourceReport    `json:"source_reports"`
	Partial  bool                     `json:"partial"`
	Enriched score.SubjectProfile     `json:"enriched_profile,omitempty"`
}

// Match screens a subject profile against the selected sources.
func (h *ScreeningHandler) Match(w http.ResponseWriter, r *http.Request) {
	var req MatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	subject, status, err := h.subject(r.Context(), &req)
	if err != nil {
		http.Error(w, err.Error(), status)
		return
	}

	descs := req.Sources
	if len(descs) == 0 && h.Discoverer != nil {
		descs = h.Discoverer.Discover(r.Context())
	}
	if len(descs) == 0 {
		http.Error(w, "No sources to screen against", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}

	result, err := h.Engine.Match(ctx, subject, descs)
	if err != nil {
		if errors.Is(err, score.ErrSubjectProfileInvalid) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.Log.Error("match failed", zap.Error(err))
		http.Error(w, "Screening failed", http.StatusInternalServerError)
		return
	}

	groups := result.Groups
	if req.Options != nil && req.Options.Limit > 0 && req.Options.Limit < len(groups) {
		groups = groups[:req.Options.Limit]
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(MatchResponse{
		Results:  flattenGroups(groups),
		Groups:   groups,
		Reports:  result.Reports,
		Partial:  result.Partial,
		Enriched: result.Enriched,
	})
}

// subject resolves the profile from the request, consulting the extractor
// when only free text was supplied.
func (h *ScreeningHandler) subject(ctx context.Context, req *MatchRequest) (score.SubjectProfile, int, error) {
	if len(req.Subject) > 0 {
		p, err := score.ParseProfile(req.Subject)
		if err != nil {
			return nil, http.StatusBadRequest, err
		}
		return p, 0, nil
	}

	if strings.TrimSpace(req.Text) != "" {
		if h.Extractor == nil {
			return nil, http.StatusNotImplemented, errors.New("text extraction is not configured")
		}
		ex, err := h.Extractor.Extract(ctx, req.Text)
		if err != nil {
			if errors.Is(err, score.ErrSubjectProfileInvalid) {
				return nil, http.StatusBadRequest, err
			}
			h.Log.Error("extraction failed", zap.Error(err))
			return nil, http.StatusBadGateway, errors.New("extraction failed")
		}
		return ex.Profile, 0, nil
	}

	return nil, http.StatusBadRequest, errors.New("subject or text is required")
}

// SchemaRequest selects the sources to inspect.
type SchemaRequest struct {
	Sources []source.Descriptor `json:"sources"`
}

// SchemaReport is the detection outcome for one source.
type SchemaReport struct {
	Source  string         `json:"source"`
	Name    string         `json:"name,omitempty"`
	Mapping schema.Mapping `json:"mapping"`
	Err     string         `json:"error,omitempty"`
}

// SchemaResponse lists detection outcomes per source.
type SchemaResponse struct {
	Schemas []SchemaReport `json:"schemas"`
}

// DetectSchema reports the canonical field mapping of each selected
// source. Detection failures are reported per source, never as a request
// failure.
func (h *ScreeningHandler) DetectSchema(w http.ResponseWriter, r *http.Request) {
	var req SchemaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	descs := req.Sources
	if len(descs) == 0 && h.Discoverer != nil {
		descs = h.Discoverer.Discover(r.Context())
	}

	reports := make([]SchemaReport, 0, len(descs))
	for _, desc := range descs {
		rep := SchemaReport{Source: desc.Key(), Name: desc.Name}
		mapping, err := h.Engine.DetectSchema(r.Context(), desc)
		if err != nil {
			rep.Err = err.Error()
		} else {
			rep.Mapping = mapping
		}
		reports = append(reports, rep)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(SchemaResponse{Schemas: reports})
}

func flattenGroups(groups []aggregate.MatchGroup) []score.SimilarityResult {
	results := make([]score.SimilarityResult, 0, len(groups))
	for _, g := range groups {
		results = append(results, g.Members...)
	}
	return results
}
