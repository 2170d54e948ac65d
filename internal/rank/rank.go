package rank

import (
	"sort"

	"github.com/profile-screener/internal/aggregate"
)

// DefaultLimit caps ranked output when the caller does not choose a limit.
const DefaultLimit = 100

// Rank orders match groups for presentation: cross-reference confidence
// descending, distinct corroborating sources descending, then smallest
// member record key ascending. The final key makes the output independent
// of source task completion order. The input slice is left untouched;
// limit <= 0 falls back to DefaultLimit.
func Rank(groups []aggregate.MatchGroup, limit int) []aggregate.MatchGroup {
	ranked := make([]entry, len(groups))
	for i, g := range groups {
		ranked[i] = entry{group: g, anchor: anchorKey(g)}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.group.Confidence != b.group.Confidence {
			return a.group.Confidence > b.group.Confidence
		}
		if len(a.group.Sources) != len(b.group.Sources) {
			return len(a.group.Sources) > len(b.group.Sources)
		}
		return a.anchor < b.anchor
	})

	if limit <= 0 {
		limit = DefaultLimit
	}
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	out := make([]aggregate.MatchGroup, len(ranked))
	for i, e := range ranked {
		out[i] = e.group
	}
	return out
}

type entry struct {
	group  aggregate.MatchGroup
	anchor string
}

// anchorKey is the smallest member record key of a group. Record keys are
// assigned at retrieval, so equal-scoring groups keep a stable relative
// order across runs.
func anchorKey(g aggregate.MatchGroup) string {
	key := ""
	for _, m := range g.Members {
		k := m.Candidate.Key()
		if key == "" || k < key {
			key = k
		}
	}
	return key
}
