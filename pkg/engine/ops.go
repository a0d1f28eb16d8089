// This file implements the query methods of the Engine, wrapping the
// snapshot-level graph operations with lazy loading, input defaulting and
// metrics. Each method resolves its (title, year) snapshot first, so the
// first query against a pair pays the load cost and later ones run purely
// in memory.
package engine

import (
	"fmt"
	"time"

	"github.com/taxcodeanalysistool/multiyear-multititle-network-explorer/pkg/graph"
	"github.com/taxcodeanalysistool/multiyear-multititle-network-explorer/pkg/metrics"
)

// --- Network Building ---

// BuildNetwork runs the full filter pipeline against one snapshot.
//
// An empty logic defaults to OR matching, an empty mode to global degree
// ranking; anything else invalid is rejected by the query layer.
func (e *Engine) BuildNetwork(title, year string, q graph.Query, logic graph.SearchLogic, mode graph.RankingMode) (*graph.FilteredGraph, error) {
	snap, err := e.Snapshot(title, year)
	if err != nil {
		return nil, err
	}
	if logic == "" {
		logic = graph.LogicOR
	}
	if mode == "" {
		mode = graph.RankGlobal
	}

	start := time.Now()
	result, err := snap.BuildNetwork(q, logic, mode)
	if err != nil {
		return nil, err
	}

	metrics.QueriesTotal.WithLabelValues(title, year, string(mode)).Inc()
	metrics.QueryDuration.Observe(time.Since(start).Seconds())
	if result.Truncated {
		metrics.QueryTruncationsTotal.Inc()
	}
	return result, nil
}

// --- Node Search ---

// SearchNodes returns the nodes matching the terms, in snapshot order.
// The returned nodes are copies; mutating them does not touch the
// snapshot.
func (e *Engine) SearchNodes(title, year string, terms, fields []string, logic graph.SearchLogic) ([]graph.Node, error) {
	snap, err := e.Snapshot(title, year)
	if err != nil {
		return nil, err
	}
	if logic == "" {
		logic = graph.LogicOR
	}
	if !logic.Valid() {
		return nil, fmt.Errorf("%w: unknown search logic %q", graph.ErrInvalidQuery, logic)
	}

	return hydrate(snap, snap.Search(terms, fields, logic)), nil
}

// --- Expansion ---

// ExpandFromSeeds runs bounded breadth-first expansion and returns the
// reached nodes (seeds included) in discovery order. An empty edge-type
// list means no edge may be followed, so the result is the known seeds.
func (e *Engine) ExpandFromSeeds(title, year string, seeds []string, depth, maxNeighborsPerNode int, edgeTypes []graph.EdgeType) ([]graph.Node, error) {
	snap, err := e.Snapshot(title, year)
	if err != nil {
		return nil, err
	}
	if depth < 0 {
		return nil, fmt.Errorf("%w: depth must not be negative, got %d", graph.ErrInvalidQuery, depth)
	}
	if maxNeighborsPerNode < 0 {
		return nil, fmt.Errorf("%w: max_neighbors_per_node must not be negative, got %d", graph.ErrInvalidQuery, maxNeighborsPerNode)
	}
	for _, et := range edgeTypes {
		if !et.Valid() {
			return nil, fmt.Errorf("%w: unknown edge type %q", graph.ErrInvalidQuery, et)
		}
	}

	return hydrate(snap, snap.Expand(seeds, depth, maxNeighborsPerNode, edgeTypes)), nil
}

// --- Lookups ---

// NodeDetail is the full record of one node: its attributes, its
// snapshot-wide degree and its adjacency.
type NodeDetail struct {
	Node      graph.Node       `json:"node"`
	Degree    int              `json:"degree"`
	Neighbors []graph.Neighbor `json:"neighbors"`
}

// GetNode looks one node up by id.
func (e *Engine) GetNode(title, year, id string) (*NodeDetail, error) {
	snap, err := e.Snapshot(title, year)
	if err != nil {
		return nil, err
	}
	n, ok := snap.Node(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q in %s:%s", ErrNodeNotFound, id, title, year)
	}
	return &NodeDetail{
		Node:      *n,
		Degree:    snap.Degree(id),
		Neighbors: snap.Neighbors(id),
	}, nil
}

// SnapshotStats returns the degree distribution summary of one snapshot.
func (e *Engine) SnapshotStats(title, year string) (graph.DegreeStats, error) {
	snap, err := e.Snapshot(title, year)
	if err != nil {
		return graph.DegreeStats{}, err
	}
	return snap.Stats(), nil
}

// TopHubs returns the n most connected nodes of one snapshot.
func (e *Engine) TopHubs(title, year string, n int) ([]graph.Hub, error) {
	snap, err := e.Snapshot(title, year)
	if err != nil {
		return nil, err
	}
	return snap.TopHubs(n), nil
}

// hydrate turns an id list into node copies, skipping ids the snapshot
// does not know (unknown expansion seeds surface this way).
func hydrate(snap *graph.Snapshot, ids []string) []graph.Node {
	out := make([]graph.Node, 0, len(ids))
	for _, id := range ids {
		if n, ok := snap.Node(id); ok {
			out = append(out, *n)
		}
	}
	return out
}
