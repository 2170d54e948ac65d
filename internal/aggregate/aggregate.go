package aggregate

import (
	"encoding/hex"
	"math"
	"sort"
	"strings"

	"github.com/go-crypt/x/blake2b"

	"github.com/profile-screener/internal/normalize"
	"github.com/profile-screener/internal/schema"
	"github.com/profile-screener/internal/score"
)

// MatchGroup is a set of similarity results believed to denote the same
// real-world entity across sources.
type MatchGroup struct {
	ID      string                   `json:"id"`
	Members []score.SimilarityResult `json:"members"`
	// Sources lists the distinct corroborating source keys, sorted.
	Sources []string `json:"sources"`
	// Confidence is the cross-reference confidence: monotonically
	// non-decreasing in the number of corroborating sources.
	Confidence float64 `json:"confidence"`
}

// Aggregator joins per-source similarity results into match groups.
type Aggregator struct {
	scorer *score.Scorer
}

// NewAggregator builds an aggregator that re-uses the screening scorer for
// candidate-vs-candidate comparisons.
func NewAggregator(scorer *score.Scorer) *Aggregator {
	return &Aggregator{scorer: scorer}
}

// Aggregate groups results into connected components. Two results from
// different sources join when they share an exactly matching identifier
// field, or when their candidates score at least the group threshold
// against each other under the regular field policy. Joins are transitive:
// A-B and B-C land A and C in one group even if A and C alone would not
// qualify. Results with no partner stay singleton groups.
func (a *Aggregator) Aggregate(results []score.SimilarityResult) []MatchGroup {
	if len(results) == 0 {
		return nil
	}

	uf := newUnionFind(len(results))

	// Rule (a): exact identifier joins, bucketed by field and value.
	type idKey struct {
		field schema.Field
		value string
	}
	buckets := make(map[idKey][]int)
	for i, r := range results {
		for _, f := range schema.Identifiers() {
			v, ok := r.Candidate.Get(f)
			if !ok {
				continue
			}
			nv := normalize.Identifier(v)
			if nv == "" {
				continue
			}
			k := idKey{field: f, value: nv}
			buckets[k] = append(buckets[k], i)
		}
	}
	for _, idxs := range buckets {
		for x := 0; x < len(idxs); x++ {
			for y := x + 1; y < len(idxs); y++ {
				i, j := idxs[x], idxs[y]
				if results[i].Candidate.Source == results[j].Candidate.Source {
					continue
				}
				uf.union(i, j)
			}
		}
	}

	// Rule (b): high pairwise similarity between the underlying candidates.
	groupThreshold := a.scorer.Thresholds().Group
	for i := 0; i < len(results); i++ {
		for j := i + 1; j < len(results); j++ {
			if results[i].Candidate.Source == results[j].Candidate.Source {
				continue
			}
			if uf.find(i) == uf.find(j) {
				continue
			}
			sim, ok := a.scorer.ScorePair(results[i].Candidate, results[j].Candidate)
			if ok && sim >= groupThreshold {
				uf.union(i, j)
			}
		}
	}

	// Collect components in first-seen order.
	comps := make(map[int][]int)
	var roots []int
	for i := range results {
		root := uf.find(i)
		if _, ok := comps[root]; !ok {
			roots = append(roots, root)
		}
		comps[root] = append(comps[root], i)
	}

	groups := make([]MatchGroup, 0, len(roots))
	for _, root := range roots {
		groups = append(groups, buildGroup(results, comps[root]))
	}
	return groups
}

func buildGroup(results []score.SimilarityResult, idxs []int) MatchGroup {
	members := make([]score.SimilarityResult, 0, len(idxs))
	keys := make([]string, 0, len(idxs))
	sourceSet := make(map[string]bool)
	var sum float64

	for _, i := range idxs {
		r := results[i]
		members = append(members, r)
		keys = append(keys, r.Candidate.Key())
		sourceSet[r.Candidate.Source] = true
		sum += r.Composite
	}

	sources := make([]string, 0, len(sourceSet))
	for s := range sourceSet {
		sources = append(sources, s)
	}
	sort.Strings(sources)

	// Member order must not depend on source task completion order.
	sort.Slice(members, func(i, j int) bool {
		return members[i].Candidate.Key() < members[j].Candidate.Key()
	})

	mean := sum / float64(len(members))

	return MatchGroup{
		ID:         groupID(keys),
		Members:    members,
		Sources:    sources,
		Confidence: confidence(mean, len(sources)),
	}
}

// confidence derives the cross-reference confidence from the mean member
// composite and the number of distinct corroborating sources. With the
// mean fixed, more sources never lower it; a singleton keeps its mean.
func confidence(mean float64, sources int) float64 {
	return 1.0 - math.Pow(1.0-mean, float64(sources))
}

// groupID derives a stable identifier from the member record keys, so the
// same members always hash to the same group no matter the join order.
func groupID(keys []string) string {
	sorted := make([]string, len(keys))
	copy(sorted, keys)
	sort.Strings(sorted)

	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(strings.Join(sorted, "\n")))
	return hex.EncodeToString(h.Sum(nil))
}
