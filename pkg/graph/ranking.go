package graph

import "sort"

// RankingMode selects how candidates are ranked when a result must be
// truncated to the query's node cap.
type RankingMode string

const (
	// RankGlobal ranks by snapshot-wide degree from the adjacency index,
	// ignoring the current filters. Cheap: the degrees are precomputed.
	RankGlobal RankingMode = "global"
	// RankSubgraph ranks by degree within the filtered subgraph only.
	// Candidates untouched by any surviving edge are excluded outright.
	RankSubgraph RankingMode = "subgraph"
)

// Valid reports whether m is a known ranking mode.
func (m RankingMode) Valid() bool { return m == RankGlobal || m == RankSubgraph }

// rankGlobal returns the top max candidate ids by snapshot-wide degree,
// descending. The sort is stable, so ties keep candidate order.
func (s *Snapshot) rankGlobal(ids []string, max int) []string {
	ranked := make([]string, len(ids))
	copy(ranked, ids)
	sort.SliceStable(ranked, func(i, j int) bool {
		return s.Degree(ranked[i]) > s.Degree(ranked[j])
	})
	if len(ranked) > max {
		ranked = ranked[:max]
	}
	return ranked
}

// rankSubgraph returns the top max candidate ids by degree within the
// surviving edge set, descending, after dropping candidates those edges
// never touch. Same stable tie-break as rankGlobal.
func rankSubgraph(ids []string, edges []Edge, max int) []string {
	deg := make(map[string]int, len(ids))
	for i := range edges {
		deg[edges[i].Source]++
		deg[edges[i].Target]++
	}

	ranked := make([]string, 0, len(ids))
	for _, id := range ids {
		if deg[id] > 0 {
			ranked = append(ranked, id)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return deg[ranked[i]] > deg[ranked[j]]
	})
	if len(ranked) > max {
		ranked = ranked[:max]
	}
	return ranked
}
