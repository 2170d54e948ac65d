package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/profile-screener/internal/schema"
	"github.com/profile-screener/internal/source"
)

func candidate(key string, ordinal int, fields map[schema.Field]string) source.NormalizedCandidate {
	return source.NormalizedCandidate{Source: key, Ordinal: ordinal, Fields: fields}
}

func TestScoreExactIdentifierRow(t *testing.T) {
	s := NewScorer()
	subject := SubjectProfile{
		schema.FieldName:       "Rahul Mehra",
		schema.FieldCustomerID: "98231",
	}
	cand := candidate("crm", 0, map[schema.Field]string{
		schema.FieldName:       "Rahul Mehra",
		schema.FieldCustomerID: "98231",
	})

	r, ok := s.Score(subject, cand)
	require.True(t, ok)
	assert.Equal(t, 1.0, r.Composite)
	assert.Equal(t, MatchExact, r.Type)
	assert.Equal(t, 1.0, r.FieldScores[schema.FieldCustomerID])
	assert.Contains(t, r.Reasoning, "customer_id matches exactly")
}

func TestScoreSharedFieldsOnly(t *testing.T) {
	s := NewScorer()
	// Subject carries dob and address; the candidate has neither. Only name
	// is compared, and only name's weight enters the denominator.
	subject := SubjectProfile{
		schema.FieldName:    "Rahul Mehra",
		schema.FieldDOB:     "1990-02-10",
		schema.FieldAddress: "14 MG Road, Pune",
	}
	cand := candidate("csv", 4, map[schema.Field]string{
		schema.FieldName:  "Rahul Mehra",
		schema.FieldPhone: "5551234567",
	})

	r, ok := s.Score(subject, cand)
	require.True(t, ok)
	require.Len(t, r.FieldScores, 1)
	assert.Equal(t, 1.0, r.Composite)
	// 1.0 composite without an identifier match is still only fuzzy.
	assert.Equal(t, MatchFuzzy, r.Type)
}

func TestScoreAbsenceIsNotMismatch(t *testing.T) {
	s := NewScorer()
	subject := SubjectProfile{
		schema.FieldName: "Rahul Mehra",
		schema.FieldDOB:  "1990-02-10",
	}
	withDOB := candidate("a", 0, map[schema.Field]string{
		schema.FieldName: "Rahul Mehra",
		schema.FieldDOB:  "1991-03-11",
	})
	withoutDOB := candidate("a", 1, map[schema.Field]string{
		schema.FieldName: "Rahul Mehra",
	})

	mismatch, ok := s.Score(subject, withDOB)
	require.True(t, ok)
	absent, ok := s.Score(subject, withoutDOB)
	require.True(t, ok)

	// A wrong dob must score lower than a missing dob.
	assert.Less(t, mismatch.Composite, absent.Composite)
	assert.InDelta(t, 2.0/3.5, mismatch.Composite, 1e-9)
	assert.Equal(t, 1.0, absent.Composite)
}

func TestScoreNoSharedFields(t *testing.T) {
	s := NewScorer()
	subject := SubjectProfile{schema.FieldName: "Rahul Mehra"}
	cand := candidate("a", 0, map[schema.Field]string{
		schema.FieldPhone: "5551234567",
	})

	_, ok := s.Score(subject, cand)
	assert.False(t, ok)
}

func TestScoreIdentifierMismatchDragsComposite(t *testing.T) {
	s := NewScorer()
	subject := SubjectProfile{
		schema.FieldName:     "Rahul Mehra",
		schema.FieldPassport: "P1234567",
	}
	cand := candidate("a", 0, map[schema.Field]string{
		schema.FieldName:     "Rahul Mehra",
		schema.FieldPassport: "P7654321",
	})

	r, ok := s.Score(subject, cand)
	require.True(t, ok)
	// (2.0*1.0 + 3.0*0.0) / 5.0
	assert.InDelta(t, 0.4, r.Composite, 1e-9)
	assert.Equal(t, MatchPartial, r.Type)
}

func TestScoreBoundsAndDeterminism(t *testing.T) {
	s := NewScorer()
	subject := SubjectProfile{
		schema.FieldName:  "Rahul Mehra",
		schema.FieldDOB:   "1990-02-10",
		schema.FieldPhone: "+91 98765 43210",
	}
	cand := candidate("a", 0, map[schema.Field]string{
		schema.FieldName:  "Rahul Mehre",
		schema.FieldDOB:   "10/02/1990",
		schema.FieldPhone: "919876543210",
	})

	first, ok := s.Score(subject, cand)
	require.True(t, ok)
	assert.GreaterOrEqual(t, first.Composite, 0.0)
	assert.LessOrEqual(t, first.Composite, 1.0)

	for i := 0; i < 10; i++ {
		again, ok := s.Score(subject, cand)
		require.True(t, ok)
		assert.Equal(t, first.Composite, again.Composite)
		assert.Equal(t, first.Reasoning, again.Reasoning)
		assert.Equal(t, first.Type, again.Type)
	}
}

func TestScorePair(t *testing.T) {
	s := NewScorer()
	a := candidate("crm", 0, map[schema.Field]string{
		schema.FieldName: "Rahul Mehra",
		schema.FieldDOB:  "1990-02-10",
	})
	b := candidate("accounts", 2, map[schema.Field]string{
		schema.FieldName: "R. Mehra",
		schema.FieldDOB:  "10/02/1990",
	})
	c := candidate("other", 0, map[schema.Field]string{
		schema.FieldEmail: "rahul@example.com",
	})

	sim, ok := s.ScorePair(a, b)
	require.True(t, ok)
	assert.Greater(t, sim, 0.5)

	_, ok = s.ScorePair(a, c)
	assert.False(t, ok)
}

func TestScoreZeroWeightedFieldsProduceNoResult(t *testing.T) {
	s := NewScorerWithConfig(Weights{}, DefaultThresholds())
	subject := SubjectProfile{schema.FieldName: "Rahul Mehra"}
	cand := candidate("a", 0, map[schema.Field]string{
		schema.FieldName: "Rahul Mehra",
	})

	_, ok := s.Score(subject, cand)
	assert.False(t, ok)
}

func TestParseProfile(t *testing.T) {
	p, err := ParseProfile(map[string]string{
		"Full Name":  "Rahul Mehra",
		"birth_date": "1990-02-10",
		"shoe_size":  "44",
		"email":      "   ",
	})
	require.NoError(t, err)
	assert.Equal(t, SubjectProfile{
		schema.FieldName: "Rahul Mehra",
		schema.FieldDOB:  "1990-02-10",
	}, p)
}

func TestParseProfileInvalid(t *testing.T) {
	_, err := ParseProfile(map[string]string{})
	assert.ErrorIs(t, err, ErrSubjectProfileInvalid)

	_, err = ParseProfile(map[string]string{"unknown": "x", "name": "  "})
	assert.ErrorIs(t, err, ErrSubjectProfileInvalid)
}

func TestProfileClone(t *testing.T) {
	p := SubjectProfile{schema.FieldName: "Rahul Mehra"}
	c := p.Clone()
	c[schema.FieldName] = "Someone Else"
	c[schema.FieldDOB] = "1990-02-10"

	assert.Equal(t, "Rahul Mehra", p[schema.FieldName])
	_, ok := p[schema.FieldDOB]
	assert.False(t, ok)
}

func TestDefaultWeightsCoverVocabulary(t *testing.T) {
	w := DefaultWeights()
	for _, def := range schema.Vocabulary() {
		assert.Greater(t, w[def.Field], 0.0, "field %s has no weight", def.Field)
	}
	// Identifiers outweigh name, name outweighs dob, dob outweighs contact.
	assert.Greater(t, w[schema.FieldPassport], w[schema.FieldName])
	assert.Greater(t, w[schema.FieldName], w[schema.FieldDOB])
	assert.Greater(t, w[schema.FieldDOB], w[schema.FieldAddress])
}
