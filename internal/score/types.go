package score

import (
	"errors"
	"fmt"

	"github.com/profile-screener/internal/normalize"
	"github.com/profile-screener/internal/schema"
	"github.com/profile-screener/internal/source"
)

// ErrSubjectProfileInvalid marks a screening request whose subject profile
// is empty or carries no usable canonical field. It is the only error that
// fails a whole request.
var ErrSubjectProfileInvalid = errors.New("subject profile invalid")

// SubjectProfile is the canonical-field view of the person being screened.
// It is produced externally and never mutated by the pipeline; enrichment
// writes to a copy.
type SubjectProfile map[schema.Field]string

// ParseProfile standardizes an externally produced field map against the
// canonical vocabulary. Synonym field names are resolved, unknown names and
// blank values are dropped. A profile with nothing usable left is invalid.
func ParseProfile(raw map[string]string) (SubjectProfile, error) {
	p := make(SubjectProfile, len(raw))
	for name, value := range raw {
		field, ok := schema.Canonicalize(name)
		if !ok || normalize.IsBlank(value) {
			continue
		}
		p[field] = value
	}
	if len(p) == 0 {
		return nil, fmt.Errorf("no canonical fields in profile: %w", ErrSubjectProfileInvalid)
	}
	return p, nil
}

// Validate reports whether the profile can drive a screening run.
func (p SubjectProfile) Validate() error {
	for _, v := range p {
		if !normalize.IsBlank(v) {
			return nil
		}
	}
	return ErrSubjectProfileInvalid
}

// Clone returns an independent copy of the profile.
func (p SubjectProfile) Clone() SubjectProfile {
	out := make(SubjectProfile, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// MatchType tags how strong a similarity result is.
type MatchType string

const (
	// MatchExact requires a high composite plus an exactly matched
	// identifier field.
	MatchExact MatchType = "exact"
	// MatchFuzzy is any composite at or above the floor threshold.
	MatchFuzzy MatchType = "fuzzy"
	// MatchPartial is below the floor; callers normally drop these.
	MatchPartial MatchType = "partial"
)

// SimilarityResult is the scored comparison of the subject against one
// candidate record.
type SimilarityResult struct {
	Candidate   source.NormalizedCandidate `json:"candidate"`
	FieldScores map[schema.Field]float64   `json:"field_scores"`
	Composite   float64                    `json:"composite"`
	Type        MatchType                  `json:"match_type"`
	Reasoning   string                     `json:"reasoning"`
}

// Weights assigns the relative importance of each canonical field in the
// composite score.
type Weights map[schema.Field]float64

// DefaultWeights returns the fixed field-weight table: identifiers
// dominate, then name, dob, the contact fields, and the biographical
// extras last.
func DefaultWeights() Weights {
	return Weights{
		schema.FieldID:          3.0,
		schema.FieldCustomerID:  3.0,
		schema.FieldBankID:      3.0,
		schema.FieldPassport:    3.0,
		schema.FieldSSN:         3.0,
		schema.FieldName:        2.0,
		schema.FieldDOB:         1.5,
		schema.FieldAddress:     1.0,
		schema.FieldPhone:       1.0,
		schema.FieldEmail:       1.0,
		schema.FieldNationality: 0.5,
		schema.FieldOccupation:  0.5,
		schema.FieldCompany:     0.5,
	}
}

// Thresholds holds the score cut-offs used across the pipeline.
type Thresholds struct {
	// Floor is the minimum composite for a result to be emitted.
	Floor float64 `mapstructure:"floor"`
	// Exact is the composite needed for the exact match tag.
	Exact float64 `mapstructure:"exact"`
	// Group is the pairwise composite needed to join two results from
	// different sources into one match group.
	Group float64 `mapstructure:"group"`
}

// DefaultThresholds returns the recommended cut-offs.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Floor: 0.5,
		Exact: 0.95,
		Group: 0.85,
	}
}
