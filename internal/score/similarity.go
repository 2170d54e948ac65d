package score

import (
	"math"

	"github.com/profile-screener/internal/normalize"
	"github.com/profile-screener/internal/schema"
)

// fieldSimilarity compares two raw values under the policy of the field's
// class. Every result is in [0,1].
func fieldSimilarity(class schema.Class, a, b string) float64 {
	switch class {
	case schema.ClassDate:
		return dateSimilarity(a, b)
	case schema.ClassIdentifier:
		return identifierSimilarity(a, b)
	case schema.ClassPhone:
		return phoneSimilarity(a, b)
	default:
		return stringSimilarity(a, b)
	}
}

// stringSimilarity compares free-text values: 1.0 on exact normalized
// equality, otherwise the better of edit-distance similarity and token-set
// similarity. The two signals are never summed.
func stringSimilarity(a, b string) float64 {
	ca, ta := normalize.Canonical(a)
	cb, tb := normalize.Canonical(b)
	if ca == "" || cb == "" {
		return 0.0
	}
	if ca == cb {
		return 1.0
	}
	return math.Max(editSimilarity(ca, cb), tokenSimilarity(ta, tb))
}

// dateSimilarity is exact or nothing: a one-day difference is as wrong as a
// ten-year difference. Values that both parse compare as calendar dates;
// unparsable values fall back to exact normalized equality.
func dateSimilarity(a, b string) float64 {
	da, okA := normalize.ParseDate(a)
	db, okB := normalize.ParseDate(b)
	if okA && okB {
		if da.Equal(db) {
			return 1.0
		}
		return 0.0
	}
	ca, _ := normalize.Canonical(a)
	cb, _ := normalize.Canonical(b)
	if ca != "" && ca == cb {
		return 1.0
	}
	return 0.0
}

// identifierSimilarity never fuzzes: identifiers are authoritative.
func identifierSimilarity(a, b string) float64 {
	na := normalize.Identifier(a)
	nb := normalize.Identifier(b)
	if na != "" && na == nb {
		return 1.0
	}
	return 0.0
}

// phoneSimilarity compares digits only, dropping formatting punctuation.
func phoneSimilarity(a, b string) float64 {
	da := normalize.Digits(a)
	db := normalize.Digits(b)
	if da != "" && da == db {
		return 1.0
	}
	return 0.0
}

// editSimilarity converts Levenshtein distance into a similarity in [0,1].
func editSimilarity(s1, s2 string) float64 {
	if s1 == s2 {
		return 1.0
	}
	if s1 == "" || s2 == "" {
		return 0.0
	}

	r1 := []rune(s1)
	r2 := []rune(s2)
	distance := levenshteinDistance(r1, r2)
	maxLen := len(r1)
	if len(r2) > maxLen {
		maxLen = len(r2)
	}

	return 1.0 - float64(distance)/float64(maxLen)
}

// levenshteinDistance computes the edit distance between two rune slices.
func levenshteinDistance(r1, r2 []rune) int {
	len1, len2 := len(r1), len(r2)
	if len1 == 0 {
		return len2
	}
	if len2 == 0 {
		return len1
	}

	// Create matrix
	matrix := make([][]int, len1+1)
	for i := range matrix {
		matrix[i] = make([]int, len2+1)
		matrix[i][0] = i
	}
	for j := range matrix[0] {
		matrix[0][j] = j
	}

	// Fill matrix
	for i := 1; i <= len1; i++ {
		for j := 1; j <= len2; j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}

			matrix[i][j] = minInt(
				minInt(matrix[i-1][j]+1, matrix[i][j-1]+1), // min of deletion and insertion
				matrix[i-1][j-1]+cost,                      // substitution
			)
		}
	}

	return matrix[len1][len2]
}

// tokenSimilarity computes cosine similarity on token bags, so token order
// and duplication do not matter.
func tokenSimilarity(tokens1, tokens2 []string) float64 {
	if len(tokens1) == 0 || len(tokens2) == 0 {
		return 0.0
	}

	freq1 := make(map[string]int)
	freq2 := make(map[string]int)
	for _, token := range tokens1 {
		freq1[token]++
	}
	for _, token := range tokens2 {
		freq2[token]++
	}

	var dotProduct, norm1, norm2 float64
	for token, f := range freq1 {
		f1 := float64(f)
		f2 := float64(freq2[token])
		dotProduct += f1 * f2
		norm1 += f1 * f1
	}
	for _, f := range freq2 {
		norm2 += float64(f) * float64(f)
	}

	if norm1 == 0 || norm2 == 0 {
		return 0.0
	}

	return dotProduct / (math.Sqrt(norm1) * math.Sqrt(norm2))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
