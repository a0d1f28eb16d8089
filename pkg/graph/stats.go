package graph

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// DegreeStats summarizes the degree distribution of a snapshot. Useful for
// sizing default query caps and for the stats endpoint.
type DegreeStats struct {
	Nodes        int     `json:"nodes"`
	Edges        int     `json:"edges"`
	MeanDegree   float64 `json:"mean_degree"`
	MedianDegree float64 `json:"median_degree"`
	P90Degree    float64 `json:"p90_degree"`
	MaxDegree    int     `json:"max_degree"`
}

// Stats computes the snapshot's degree distribution from the adjacency
// index.
func (s *Snapshot) Stats() DegreeStats {
	st := DegreeStats{Nodes: len(s.nodes), Edges: len(s.edges)}
	if len(s.nodes) == 0 {
		return st
	}

	degrees := make([]float64, len(s.nodes))
	for i := range s.nodes {
		d := s.Degree(s.nodes[i].ID)
		degrees[i] = float64(d)
		if d > st.MaxDegree {
			st.MaxDegree = d
		}
	}
	sort.Float64s(degrees) // Quantile requires sorted input.

	st.MeanDegree = stat.Mean(degrees, nil)
	st.MedianDegree = stat.Quantile(0.5, stat.Empirical, degrees, nil)
	st.P90Degree = stat.Quantile(0.9, stat.Empirical, degrees, nil)
	return st
}
