package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/profile-screener/internal/schema"
	"github.com/profile-screener/internal/score"
)

type stubGenerator struct {
	response   string
	err        error
	lastPrompt string
}

func (s *stubGenerator) GenerateContent(_ context.Context, prompt string) (string, error) {
	s.lastPrompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func TestExtractorParsesCleanResponse(t *testing.T) {
	stub := &stubGenerator{
		response: `{"name": "Rahul Mehra", "date_of_birth": "1989-04-12", "customer_id": 98231}`,
	}
	ex := NewExtractor(stub, nil)

	got, err := ex.Extract(context.Background(),
		"Rahul Mehra, born 12 April 1989, customer number 98231.")
	require.NoError(t, err)

	assert.Equal(t, "Rahul Mehra", got.Profile[schema.FieldName])
	assert.Equal(t, "1989-04-12", got.Profile[schema.FieldDOB])
	assert.Equal(t, "98231", got.Profile[schema.FieldCustomerID])
	assert.Equal(t, stub.response, got.Raw)

	assert.Contains(t, stub.lastPrompt, "customer number 98231")
	assert.Contains(t, stub.lastPrompt, "customer_id")
	assert.Contains(t, stub.lastPrompt, "passport")
}

func TestExtractorStripsCodeFences(t *testing.T) {
	stub := &stubGenerator{
		response: "```json\n{\"name\": \"Meera Nair\", \"phone\": \"+91 98 2030 4455\"}\n```",
	}
	ex := NewExtractor(stub, nil)

	got, err := ex.Extract(context.Background(), "Meera Nair, reachable on +91 98 2030 4455")
	require.NoError(t, err)
	assert.Equal(t, "Meera Nair", got.Profile[schema.FieldName])
	assert.Equal(t, "+91 98 2030 4455", got.Profile[schema.FieldPhone])
}

func TestExtractorDropsNonAnswers(t *testing.T) {
	stub := &stubGenerator{
		response: `{"name": "Meera Nair", "passport": "unknown", "email": null, "occupation": ""}`,
	}
	ex := NewExtractor(stub, nil)

	got, err := ex.Extract(context.Background(), "Meera Nair")
	require.NoError(t, err)
	assert.Len(t, got.Profile, 1)
	assert.Equal(t, "Meera Nair", got.Profile[schema.FieldName])
}

func TestExtractorRejectsUnusableResponses(t *testing.T) {
	tests := []struct {
		name     string
		response string
		wantErr  error
	}{
		{
			name:     "not json",
			response: "I could not find any attributes in the text.",
		},
		{
			name:     "no known fields",
			response: `{"favourite_colour": "blue"}`,
			wantErr:  score.ErrSubjectProfileInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex := NewExtractor(&stubGenerator{response: tt.response}, nil)
			_, err := ex.Extract(context.Background(), "some text")
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestExtractorPropagatesGeneratorError(t *testing.T) {
	boom := errors.New("quota exhausted")
	ex := NewExtractor(&stubGenerator{err: boom}, nil)

	_, err := ex.Extract(context.Background(), "some text")
	require.ErrorIs(t, err, boom)
}

func TestExtractorRequiresText(t *testing.T) {
	ex := NewExtractor(&stubGenerator{}, nil)

	_, err := ex.Extract(context.Background(), "   ")
	require.Error(t, err)
}

func TestNewGeneratorRequiresAPIKey(t *testing.T) {
	_, err := NewGenerator(context.Background(), "  ", "")
	require.Error(t, err)
}
