package score

import (
	"fmt"
	"strings"

	"github.com/profile-screener/internal/schema"
	"github.com/profile-screener/internal/source"
)

// Scorer compares a subject profile against candidate records. Scoring is
// pure: no I/O, no logging, no shared mutable state, so one scorer is safe
// for concurrent use across source tasks.
type Scorer struct {
	weights    Weights
	thresholds Thresholds
}

// NewScorer creates a scorer with the default weights and thresholds.
func NewScorer() *Scorer {
	return NewScorerWithConfig(DefaultWeights(), DefaultThresholds())
}

// NewScorerWithConfig creates a scorer with custom weights and thresholds.
// A field missing from the weight table is excluded from the composite.
func NewScorerWithConfig(weights Weights, thresholds Thresholds) *Scorer {
	return &Scorer{
		weights:    weights,
		thresholds: thresholds,
	}
}

// Thresholds returns the scorer's cut-offs.
func (s *Scorer) Thresholds() Thresholds { return s.thresholds }

// Score compares the subject with one candidate. ok is false when no
// canonical field is present on both sides, in which case there is nothing
// to compare and no result is produced.
func (s *Scorer) Score(subject SubjectProfile, candidate source.NormalizedCandidate) (SimilarityResult, bool) {
	fieldScores, composite, identifierExact, ok := s.compare(subject, candidate.Fields)
	if !ok {
		return SimilarityResult{}, false
	}

	return SimilarityResult{
		Candidate:   candidate,
		FieldScores: fieldScores,
		Composite:   composite,
		Type:        s.matchType(composite, identifierExact),
		Reasoning:   reasoning(fieldScores, composite),
	}, true
}

// ScorePair compares two candidates under the same per-field policy. The
// aggregator uses it to decide whether results from different sources
// plausibly denote the same entity.
func (s *Scorer) ScorePair(a, b source.NormalizedCandidate) (float64, bool) {
	_, composite, _, ok := s.compare(a.Fields, b.Fields)
	return composite, ok
}

// compare scores the canonical fields present on both sides. The composite
// is the weighted mean over exactly those fields: absence is "cannot
// compare", it neither scores as a mismatch nor inflates the denominator.
func (s *Scorer) compare(left, right map[schema.Field]string) (map[schema.Field]float64, float64, bool, bool) {
	fieldScores := make(map[schema.Field]float64)
	var weightedSum, totalWeight float64
	identifierExact := false

	for _, def := range schema.Vocabulary() {
		lv, ok := left[def.Field]
		if !ok {
			continue
		}
		rv, ok := right[def.Field]
		if !ok {
			continue
		}

		sim := fieldSimilarity(def.Class, lv, rv)
		fieldScores[def.Field] = sim

		w := s.weights[def.Field]
		weightedSum += w * sim
		totalWeight += w

		if def.Class == schema.ClassIdentifier && sim == 1.0 {
			identifierExact = true
		}
	}

	if len(fieldScores) == 0 || totalWeight == 0 {
		return nil, 0, false, false
	}

	return fieldScores, clamp01(weightedSum / totalWeight), identifierExact, true
}

func (s *Scorer) matchType(composite float64, identifierExact bool) MatchType {
	switch {
	case composite >= s.thresholds.Exact && identifierExact:
		return MatchExact
	case composite >= s.thresholds.Floor:
		return MatchFuzzy
	default:
		return MatchPartial
	}
}

// reasoning renders the per-field contributions in vocabulary order.
func reasoning(fieldScores map[schema.Field]float64, composite float64) string {
	parts := make([]string, 0, len(fieldScores))
	for _, def := range schema.Vocabulary() {
		sim, ok := fieldScores[def.Field]
		if !ok {
			continue
		}
		parts = append(parts, describeField(def.Field, sim))
	}
	return fmt.Sprintf("composite %.2f: %s", composite, strings.Join(parts, "; "))
}

func describeField(field schema.Field, sim float64) string {
	switch {
	case sim >= 1.0:
		return fmt.Sprintf("%s matches exactly", field)
	case sim >= 0.8:
		return fmt.Sprintf("%s is a close match (%.2f)", field, sim)
	case sim > 0:
		return fmt.Sprintf("%s partially matches (%.2f)", field, sim)
	default:
		return fmt.Sprintf("%s differs", field)
	}
}
