package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/profile-screener/internal/ai"
	"github.com/profile-screener/internal/logger"
	"github.com/profile-screener/internal/schema"
	"github.com/profile-screener/internal/score"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Extractor parses free-form profile text into canonical subject fields
// using a Gemini model.
type Extractor struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

//go:embed prompt.md
var promptTemplate string

const defaultMaxLogLength = 200

func NewExtractor(generator contentGenerator, log *zap.Logger) *Extractor {
	if log == nil {
		log = zap.NewNop()
	}

	return &Extractor{
		generator: generator,
		logger:    log,
		maxLogLen: defaultMaxLogLength,
	}
}

// Extract asks the model for a JSON object of canonical fields and parses
// it into a subject profile. Keys the vocabulary does not know are
// dropped; an answer with no usable field at all is an error.
func (e *Extractor) Extract(ctx context.Context, text string) (*ai.Extraction, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("profile text is required")
	}

	prompt := buildPrompt(text)

	e.logger.Debug("gemini extraction request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, e.maxLogLen)),
	)

	raw, err := e.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("gemini extraction response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", logger.TruncateForLog(raw, e.maxLogLen)),
	)

	fields, err := parseResponse(raw)
	if err != nil {
		return nil, err
	}

	profile, err := score.ParseProfile(fields)
	if err != nil {
		return nil, err
	}

	return &ai.Extraction{Profile: profile, Raw: raw}, nil
}

func buildPrompt(text string) string {
	defs := schema.Vocabulary()
	fields := make([]string, 0, len(defs))
	for _, def := range defs {
		fields = append(fields, string(def.Field))
	}

	prompt := strings.ReplaceAll(promptTemplate, "{{FIELDS}}", strings.Join(fields, ", "))
	return strings.ReplaceAll(prompt, "{{PROFILE_TEXT}}", text)
}

func parseResponse(raw string) (map[string]string, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse extraction response: %w", err)
	}

	fields := make(map[string]string, len(data))
	for key, value := range data {
		s := coerceString(value)
		if s == "" || isNonAnswer(s) {
			continue
		}
		fields[key] = s
	}
	return fields, nil
}

// extractJSON strips markdown code fences the model tends to wrap its
// answer in.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		// Arrays and objects have no place in a flat profile.
		return ""
	}
}

func isNonAnswer(s string) bool {
	switch strings.ToLower(s) {
	case "null", "none", "unknown", "n/a":
		return true
	}
	return false
}
