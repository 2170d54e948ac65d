package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/profile-screener/internal/schema"
	"github.com/profile-screener/internal/source"
)

// SourcesHandler lists what the engine can screen against.
type SourcesHandler struct {
	Discoverer *source.Discoverer
}

// SourcesResponse lists the discovered sources.
type SourcesResponse struct {
	Sources []source.Descriptor `json:"sources"`
}

// ListSources returns every discovered source.
func (h *SourcesHandler) ListSources(w http.ResponseWriter, r *http.Request) {
	descs := []source.Descriptor{}
	if h.Discoverer != nil {
		descs = h.Discoverer.Discover(r.Context())
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(SourcesResponse{Sources: descs})
}

// FieldInfo describes one canonical field of the vocabulary.
type FieldInfo struct {
	Field    string   `json:"field"`
	Class    string   `json:"class"`
	Synonyms []string `json:"synonyms"`
}

// FieldsResponse lists the canonical vocabulary.
type FieldsResponse struct {
	Fields []FieldInfo `json:"fields"`
}

// ListFields returns the canonical field vocabulary, so clients know which
// subject keys the engine understands.
func ListFields(w http.ResponseWriter, r *http.Request) {
	defs := schema.Vocabulary()
	fields := make([]FieldInfo, 0, len(defs))
	for _, def := range defs {
		fields = append(fields, FieldInfo{
			Field:    string(def.Field),
			Class:    def.Class.String(),
			Synonyms: def.Synonyms,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(FieldsResponse{Fields: fields})
}

// Health reports liveness.
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
