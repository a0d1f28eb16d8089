package graph

import (
	"errors"
	"fmt"
)

// ErrInvalidQuery tags every query validation failure, so transport
// layers can map it to a client error instead of a server one.
var ErrInvalidQuery = errors.New("invalid query")

// Query describes one network-builder request. A Query is a plain value:
// build it, validate it, pass it to BuildNetwork. The engine never mutates
// it, and every call produces a fresh result.
type Query struct {
	// Terms are matched as case-insensitive substrings against the values
	// extracted for Fields. Both must be non-empty for search to run;
	// otherwise every node of the snapshot is a candidate.
	Terms  []string `json:"terms,omitempty"`
	Fields []string `json:"fields,omitempty"`

	// NodeTypes admits every type when empty.
	NodeTypes []NodeType `json:"node_types,omitempty"`
	// EdgeTypes admits no edges when empty. Asymmetric with NodeTypes on
	// purpose; callers rely on it.
	EdgeTypes []EdgeType `json:"edge_types,omitempty"`

	// Depth is the number of expansion hops from the seed set. Zero keeps
	// the seeds only.
	Depth int `json:"depth"`
	// MaxNeighborsPerNode caps the fan-out per node per hop. Zero means
	// unlimited.
	MaxNeighborsPerNode int `json:"max_neighbors_per_node,omitempty"`
	// MaxTotalNodes is the hard result cap; crossing it triggers
	// degree-ranked truncation. Must be positive.
	MaxTotalNodes int `json:"max_total_nodes"`
}

// Validate rejects malformed queries up front. Valid queries never fail
// inside the engine; they can at most produce an empty result.
func (q *Query) Validate() error {
	if q.MaxTotalNodes <= 0 {
		return fmt.Errorf("%w: max_total_nodes must be positive, got %d", ErrInvalidQuery, q.MaxTotalNodes)
	}
	if q.MaxNeighborsPerNode < 0 {
		return fmt.Errorf("%w: max_neighbors_per_node must not be negative, got %d", ErrInvalidQuery, q.MaxNeighborsPerNode)
	}
	if q.Depth < 0 {
		return fmt.Errorf("%w: depth must not be negative, got %d", ErrInvalidQuery, q.Depth)
	}
	for _, t := range q.NodeTypes {
		if !t.Valid() {
			return fmt.Errorf("%w: unknown node type %q", ErrInvalidQuery, t)
		}
	}
	for _, t := range q.EdgeTypes {
		if !t.Valid() {
			return fmt.Errorf("%w: unknown edge type %q", ErrInvalidQuery, t)
		}
	}
	return nil
}

// NetworkNode is a result node annotated with its degree in the result's
// own edge set.
type NetworkNode struct {
	Node
	Degree int `json:"degree"`
}

// FilteredGraph is the result of one BuildNetwork call: a connected,
// self-consistent subgraph. Edges reference nodes by bare id. Truncated
// reports whether the degree-ranked cap was applied; MatchedCount is the
// connected-and-type-filtered node count before truncation. The caller
// owns the result outright.
type FilteredGraph struct {
	Nodes        []NetworkNode `json:"nodes"`
	Edges        []Edge        `json:"edges"`
	Truncated    bool          `json:"truncated"`
	MatchedCount int           `json:"matched_count"`
}

func emptyGraph(matched int) *FilteredGraph {
	return &FilteredGraph{Nodes: []NetworkNode{}, Edges: []Edge{}, MatchedCount: matched}
}

// BuildNetwork runs the full query pipeline against the snapshot:
//
//  1. With terms and fields present, Search produces the seed set; no
//     seeds means an empty result. With Depth > 0 the seeds are expanded,
//     and expanded non-seed nodes must pass the node-type allow-list.
//  2. The seeds themselves are then re-filtered by node type; a search
//     whose every seed is filtered away short-circuits to an empty result
//     even if expansion found candidates.
//  3. Without search terms or fields, every snapshot node is a candidate.
//  4. Candidates are reduced to their connected, type-allowed core.
//  5. If more nodes survive than MaxTotalNodes, the ranking mode picks
//     which ones stay.
//  6. Edges are re-validated against the final node set and each node's
//     degree is recomputed from the final edges alone. Truncation can
//     therefore leave a high-degree node with no edges in the result;
//     it stays regardless.
//
// The only error source is validation; every degenerate input produces a
// valid, possibly empty FilteredGraph.
func (s *Snapshot) BuildNetwork(q Query, logic SearchLogic, mode RankingMode) (*FilteredGraph, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if !logic.Valid() {
		return nil, fmt.Errorf("%w: unknown search logic %q", ErrInvalidQuery, logic)
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: unknown ranking mode %q", ErrInvalidQuery, mode)
	}

	// 1-3. Candidate selection.
	var candidates []string
	if len(q.Terms) > 0 && len(q.Fields) > 0 {
		seeds := s.Search(q.Terms, q.Fields, logic)
		if len(seeds) == 0 {
			return emptyGraph(0), nil
		}

		seedSet := make(map[string]struct{}, len(seeds))
		for _, id := range seeds {
			seedSet[id] = struct{}{}
		}

		var extra []string
		if q.Depth > 0 {
			for _, id := range s.Expand(seeds, q.Depth, q.MaxNeighborsPerNode, q.EdgeTypes) {
				if _, isSeed := seedSet[id]; isSeed {
					continue
				}
				if n, ok := s.Node(id); ok && nodeTypeAllowed(n.Type, q.NodeTypes) {
					extra = append(extra, id)
				}
			}
		}

		keptSeeds := make([]string, 0, len(seeds))
		for _, id := range seeds {
			if n, ok := s.Node(id); ok && nodeTypeAllowed(n.Type, q.NodeTypes) {
				keptSeeds = append(keptSeeds, id)
			}
		}
		if len(keptSeeds) == 0 {
			// Raw search hit something, but nothing of an allowed type.
			return emptyGraph(0), nil
		}

		candidates = append(keptSeeds, extra...)
	} else {
		candidates = make([]string, len(s.nodes))
		for i := range s.nodes {
			candidates[i] = s.nodes[i].ID
		}
	}

	candSet := make(map[string]struct{}, len(candidates))
	for _, id := range candidates {
		candSet[id] = struct{}{}
	}

	// 4. Connectedness and type filtering.
	f := s.filterCandidates(candidates, candSet, q.NodeTypes, q.EdgeTypes)
	matched := len(f.nodeIDs)

	// 5. Degree-ranked truncation.
	kept := f.nodeIDs
	truncated := false
	if matched > q.MaxTotalNodes {
		truncated = true
		switch mode {
		case RankGlobal:
			kept = s.rankGlobal(f.nodeIDs, q.MaxTotalNodes)
		case RankSubgraph:
			kept = rankSubgraph(f.nodeIDs, f.edges, q.MaxTotalNodes)
		}
	}

	// 6. Assembly.
	keptSet := make(map[string]struct{}, len(kept))
	for _, id := range kept {
		keptSet[id] = struct{}{}
	}

	finalEdges := make([]Edge, 0, len(f.edges))
	degree := make(map[string]int, len(kept))
	for i := range f.edges {
		e := f.edges[i]
		if _, ok := keptSet[e.Source]; !ok {
			continue
		}
		if _, ok := keptSet[e.Target]; !ok {
			continue
		}
		finalEdges = append(finalEdges, e)
		degree[e.Source]++
		degree[e.Target]++
	}

	finalNodes := make([]NetworkNode, 0, len(kept))
	for _, id := range kept {
		n, ok := s.Node(id)
		if !ok {
			continue
		}
		finalNodes = append(finalNodes, NetworkNode{Node: *n, Degree: degree[id]})
	}

	return &FilteredGraph{
		Nodes:        finalNodes,
		Edges:        finalEdges,
		Truncated:    truncated,
		MatchedCount: matched,
	}, nil
}
