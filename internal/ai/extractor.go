package ai

import (
	"context"

	"github.com/profile-screener/internal/score"
)

// Extraction is a subject profile pulled out of free-form text.
type Extraction struct {
	Profile score.SubjectProfile
	Raw     string
}

// Extractor turns an unstructured description of a person into a profile
// ready for screening.
type Extractor interface {
	Extract(ctx context.Context, text string) (*Extraction, error)
}
