package schema

import (
	"strings"
	"unicode"

	"github.com/profile-screener/internal/normalize"
)

// Rule identifies the detection tier that resolved a canonical field.
type Rule string

const (
	RuleSynonym      Rule = "synonym"
	RuleTokenOverlap Rule = "token-overlap"
	RuleValueShape   Rule = "value-shape"
)

// shapeConfidence is the baseline confidence for value-shape detections.
const shapeConfidence = 0.5

// Detection records how one canonical field was resolved against a source.
type Detection struct {
	Native     string  `json:"native_field"`
	Confidence float64 `json:"confidence"`
	Rule       Rule    `json:"rule"`
}

// Mapping is one source's inferred schema: canonical field to native field.
// A canonical field absent from the mapping could not be resolved.
type Mapping map[Field]Detection

// Native returns the native field mapped to a canonical field.
func (m Mapping) Native(f Field) (string, bool) {
	d, ok := m[f]
	return d.Native, ok
}

// Detect infers a schema mapping from a source's native field names and an
// optional sample of values per native field. Rules run in tiers (exact
// synonym, then token overlap, then value shape) and the first rule to
// resolve a canonical field wins. A native field is claimed by at most one
// canonical field; contention is settled by rule tier, then by vocabulary
// order, then by native declaration order. A source where nothing is
// recognisable yields an empty mapping, never an error.
func Detect(fields []string, samples map[string][]string) Mapping {
	m := make(Mapping)
	claimed := make(map[string]bool, len(fields))

	// Tier 1: exact synonym equality with case and separators squashed,
	// so "Date Of Birth", "dateOfBirth" and "date_of_birth" all qualify.
	for _, def := range vocabulary {
		for _, native := range fields {
			if claimed[native] {
				continue
			}
			if matchesSynonym(native, def.Synonyms) {
				m[def.Field] = Detection{Native: native, Confidence: 1.0, Rule: RuleSynonym}
				claimed[native] = true
				break
			}
		}
	}

	// Tier 2: token overlap between the native name and the synonym table,
	// confidence scaled by the overlap ratio. Best ratio wins; earlier
	// declaration wins ties.
	for _, def := range vocabulary {
		if _, ok := m[def.Field]; ok {
			continue
		}
		best := ""
		ratio := 0.0
		for _, native := range fields {
			if claimed[native] {
				continue
			}
			if r := overlapRatio(native, def.Synonyms); r > ratio {
				best, ratio = native, r
			}
		}
		if best != "" {
			m[def.Field] = Detection{Native: best, Confidence: ratio, Rule: RuleTokenOverlap}
			claimed[best] = true
		}
	}

	// Tier 3: value shapes for the fields that have one. Every sampled
	// non-blank value must fit the shape.
	if len(samples) > 0 {
		for _, def := range vocabulary {
			if _, ok := m[def.Field]; ok {
				continue
			}
			shape, ok := shapes[def.Field]
			if !ok {
				continue
			}
			for _, native := range fields {
				if claimed[native] {
					continue
				}
				if shapeMatches(samples[native], shape) {
					m[def.Field] = Detection{Native: native, Confidence: shapeConfidence, Rule: RuleValueShape}
					claimed[native] = true
					break
				}
			}
		}
	}

	return m
}

func matchesSynonym(native string, synonyms []string) bool {
	key := squash(native)
	if key == "" {
		return false
	}
	for _, syn := range synonyms {
		if key == squash(syn) {
			return true
		}
	}
	return false
}

// overlapRatio returns the best Jaccard overlap between the native field's
// name tokens and any synonym's tokens.
func overlapRatio(native string, synonyms []string) float64 {
	tokens := headerTokens(native)
	best := 0.0
	for _, syn := range synonyms {
		if r := jaccard(tokens, headerTokens(syn)); r > best {
			best = r
		}
	}
	return best
}

func jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]bool, len(a))
	for _, t := range a {
		set[t] = true
	}
	union := len(set)
	overlap := 0
	seen := make(map[string]bool, len(b))
	for _, t := range b {
		if seen[t] {
			continue
		}
		seen[t] = true
		if set[t] {
			overlap++
		} else {
			union++
		}
	}
	return float64(overlap) / float64(union)
}

// headerTokens splits a native field name into lowercase tokens on
// separators and camelCase boundaries.
func headerTokens(name string) []string {
	var tokens []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			tokens = append(tokens, strings.ToLower(string(cur)))
			cur = cur[:0]
		}
	}
	runes := []rune(name)
	for i, r := range runes {
		switch {
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			flush()
		case unicode.IsUpper(r) && i > 0 && unicode.IsLower(runes[i-1]):
			flush()
			cur = append(cur, r)
		default:
			cur = append(cur, r)
		}
	}
	flush()
	return tokens
}

func squash(name string) string {
	return strings.Join(headerTokens(name), "_")
}

// shapes holds the value-shape predicates for the canonical fields whose
// values are recognisable without a header.
var shapes = map[Field]func(string) bool{
	FieldDOB:   looksLikeDate,
	FieldPhone: looksLikePhone,
	FieldEmail: looksLikeEmail,
}

func looksLikeDate(v string) bool {
	_, ok := normalize.ParseDate(v)
	return ok
}

func looksLikePhone(v string) bool {
	// Date-shaped values belong to dob even when dob is already mapped.
	if _, ok := normalize.ParseDate(v); ok {
		return false
	}
	d := normalize.Digits(v)
	if len(d) < 7 || len(d) > 15 {
		return false
	}
	// Digits must dominate the value once formatting is removed.
	return len(d)*2 >= len(strings.TrimSpace(v))
}

func looksLikeEmail(v string) bool {
	v = strings.TrimSpace(v)
	at := strings.Index(v, "@")
	if at <= 0 || at != strings.LastIndex(v, "@") {
		return false
	}
	host := v[at+1:]
	dot := strings.Index(host, ".")
	return dot > 0 && dot < len(host)-1
}

// shapeMatches reports whether every non-blank sampled value fits the
// shape. At least one non-blank value is required.
func shapeMatches(values []string, pred func(string) bool) bool {
	matched := false
	for _, v := range values {
		if normalize.IsBlank(v) {
			continue
		}
		if !pred(v) {
			return false
		}
		matched = true
	}
	return matched
}
