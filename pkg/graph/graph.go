// Package graph implements the network-builder query engine for a
// legal-code knowledge graph: statutory sections, extracted entities and
// concepts connected by definition, reference and hierarchy relations.
//
// A Snapshot holds the complete node/edge set for one (title, year) pair,
// with a pre-built adjacency index. Snapshots are immutable after
// construction, so any number of queries may run against one concurrently
// without locking. The main entry point is BuildNetwork, which runs the
// full search -> expand -> filter -> truncate -> assemble pipeline and
// returns a fresh FilteredGraph:
//
//	snap, err := graph.NewSnapshot(nodes, edges)
//	if err != nil { ... }
//	result, err := snap.BuildNetwork(graph.Query{
//		Terms:         []string{"gross income"},
//		Fields:        []string{"text", "entity"},
//		EdgeTypes:     []graph.EdgeType{graph.EdgeReference, graph.EdgeDefinition},
//		Depth:         2,
//		MaxTotalNodes: 250,
//	}, graph.LogicAND, graph.RankGlobal)
//
// Search and Expand are also exported standalone for diagnostic and
// composed workflows.
package graph

import (
	"fmt"

	"github.com/tidwall/btree"
)

// NodeType classifies a node. The set is closed: section and index nodes
// come from the statutory hierarchy, entity and concept nodes are
// extracted terms.
type NodeType string

const (
	NodeSection NodeType = "section"
	NodeEntity  NodeType = "entity"
	NodeConcept NodeType = "concept"
	NodeIndex   NodeType = "index"
)

// Valid reports whether t is one of the four known node types.
func (t NodeType) Valid() bool {
	switch t {
	case NodeSection, NodeEntity, NodeConcept, NodeIndex:
		return true
	}
	return false
}

// EdgeType classifies a relation. The set is closed.
type EdgeType string

const (
	EdgeDefinition EdgeType = "definition"
	EdgeReference  EdgeType = "reference"
	EdgeHierarchy  EdgeType = "hierarchy"
)

// Valid reports whether t is one of the three known edge types.
func (t EdgeType) Valid() bool {
	switch t {
	case EdgeDefinition, EdgeReference, EdgeHierarchy:
		return true
	}
	return false
}

// Node is one vertex of a snapshot. Text and FullName exist because older
// dataset years store those values as top-level attributes instead of
// property-bag entries; field extraction checks both places.
type Node struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Type     NodeType       `json:"type"`
	Label    string         `json:"label,omitempty"`
	Year     string         `json:"year,omitempty"`
	Text     string         `json:"text,omitempty"`
	FullName string         `json:"full_name,omitempty"`
	Props    map[string]any `json:"props,omitempty"`
}

// Edge connects two nodes by id. Source/target order is preserved from the
// dataset but traversal treats both endpoints symmetrically.
type Edge struct {
	Source string   `json:"source"`
	Target string   `json:"target"`
	Type   EdgeType `json:"type"`
	Action string   `json:"action,omitempty"`
	Year   string   `json:"year,omitempty"`
}

// Neighbor is one adjacency entry: the node on the other side of an edge
// and that edge's type.
type Neighbor struct {
	ID   string   `json:"id"`
	Type EdgeType `json:"type"`
}

// hubEntry orders the hub index by snapshot-wide degree, highest first,
// node id breaking ties.
type hubEntry struct {
	ID     string
	Degree int
}

func hubLess(a, b hubEntry) bool {
	if a.Degree != b.Degree {
		return a.Degree > b.Degree
	}
	return a.ID < b.ID
}

// Hub is one entry of a top-hubs listing.
type Hub struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Type   NodeType `json:"type"`
	Degree int      `json:"degree"`
}

// Snapshot is the complete, immutable node/edge set for one (title, year)
// pair, with its adjacency index pre-built. Build one with NewSnapshot and
// do not modify the input slices afterwards; all methods are safe for
// concurrent use.
type Snapshot struct {
	nodes  []Node
	edges  []Edge
	byID   map[string]int
	adj    map[string][]Neighbor
	hubIdx *btree.BTreeG[hubEntry]
}

// NewSnapshot validates the node and edge lists and builds the adjacency
// index (each edge inserted once per direction, so the index is symmetric
// regardless of which endpoint an edge record names first). It rejects
// duplicate node ids, unknown node/edge types and edges whose endpoints
// are not part of the same snapshot.
func NewSnapshot(nodes []Node, edges []Edge) (*Snapshot, error) {
	s := &Snapshot{
		nodes: nodes,
		edges: edges,
		byID:  make(map[string]int, len(nodes)),
		adj:   make(map[string][]Neighbor, len(nodes)),
	}

	for i := range nodes {
		n := &nodes[i]
		if n.ID == "" {
			return nil, fmt.Errorf("node %d: empty id", i)
		}
		if !n.Type.Valid() {
			return nil, fmt.Errorf("node %q: unknown node type %q", n.ID, n.Type)
		}
		if _, dup := s.byID[n.ID]; dup {
			return nil, fmt.Errorf("duplicate node id %q", n.ID)
		}
		s.byID[n.ID] = i
	}

	for i := range edges {
		e := &edges[i]
		if !e.Type.Valid() {
			return nil, fmt.Errorf("edge %d (%s -> %s): unknown edge type %q", i, e.Source, e.Target, e.Type)
		}
		if _, ok := s.byID[e.Source]; !ok {
			return nil, fmt.Errorf("edge %d: source %q not in snapshot", i, e.Source)
		}
		if _, ok := s.byID[e.Target]; !ok {
			return nil, fmt.Errorf("edge %d: target %q not in snapshot", i, e.Target)
		}
		s.adj[e.Source] = append(s.adj[e.Source], Neighbor{ID: e.Target, Type: e.Type})
		s.adj[e.Target] = append(s.adj[e.Target], Neighbor{ID: e.Source, Type: e.Type})
	}

	s.hubIdx = btree.NewBTreeG(hubLess)
	for i := range nodes {
		id := nodes[i].ID
		s.hubIdx.Set(hubEntry{ID: id, Degree: len(s.adj[id])})
	}

	return s, nil
}

// NodeCount returns the number of nodes in the snapshot.
func (s *Snapshot) NodeCount() int { return len(s.nodes) }

// EdgeCount returns the number of edges in the snapshot.
func (s *Snapshot) EdgeCount() int { return len(s.edges) }

// Nodes returns the snapshot's node list in dataset order. The returned
// slice is shared with the snapshot and must be treated as read-only.
func (s *Snapshot) Nodes() []Node { return s.nodes }

// Edges returns the snapshot's edge list in dataset order. Read-only.
func (s *Snapshot) Edges() []Edge { return s.edges }

// Node looks a node up by id.
func (s *Snapshot) Node(id string) (*Node, bool) {
	i, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	return &s.nodes[i], true
}

// Neighbors returns the adjacency list of id in insertion order. Read-only.
func (s *Snapshot) Neighbors(id string) []Neighbor { return s.adj[id] }

// Degree returns the snapshot-wide degree of id: the number of edges
// touching it, regardless of direction. A self-loop counts twice.
func (s *Snapshot) Degree(id string) int { return len(s.adj[id]) }

// TopHubs returns the n most connected nodes by snapshot-wide degree,
// ties broken by node id. It reads the pre-built hub index, so repeated
// calls are cheap.
func (s *Snapshot) TopHubs(n int) []Hub {
	if n <= 0 {
		return []Hub{}
	}
	hubs := make([]Hub, 0, n)
	s.hubIdx.Scan(func(item hubEntry) bool {
		node, ok := s.Node(item.ID)
		if !ok {
			return true
		}
		hubs = append(hubs, Hub{ID: item.ID, Name: node.Name, Type: node.Type, Degree: item.Degree})
		return len(hubs) < n
	})
	return hubs
}
