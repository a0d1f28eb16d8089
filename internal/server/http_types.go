package server

import (
	"github.com/taxcodeanalysistool/multiyear-multititle-network-explorer/pkg/engine"
	"github.com/taxcodeanalysistool/multiyear-multititle-network-explorer/pkg/graph"
)

// NetworkBuildRequest defines the body for the full filter pipeline.
type NetworkBuildRequest struct {
	Title string      `json:"title"`
	Year  string      `json:"year"`
	Query graph.Query `json:"query"`
	Logic string      `json:"logic,omitempty"` // "or" (default) or "and"
	Mode  string      `json:"mode,omitempty"`  // "global" (default) or "subgraph"
}

// NetworkSearchRequest defines the body for node search. RawTerms is the
// quoted-phrase alternative to Terms and applies when Terms is empty:
// `gross "adjusted gross income"` parses to two terms.
type NetworkSearchRequest struct {
	Title    string   `json:"title"`
	Year     string   `json:"year"`
	Terms    []string `json:"terms,omitempty"`
	RawTerms string   `json:"raw_terms,omitempty"`
	Fields   []string `json:"fields"`
	Logic    string   `json:"logic,omitempty"`
}

// NetworkSearchResponse lists matching nodes in snapshot order.
type NetworkSearchResponse struct {
	Count int          `json:"count"`
	Nodes []graph.Node `json:"nodes"`
}

// NetworkExpandRequest defines the body for bounded expansion.
type NetworkExpandRequest struct {
	Title               string           `json:"title"`
	Year                string           `json:"year"`
	Seeds               []string         `json:"seeds"`
	Depth               int              `json:"depth"`
	MaxNeighborsPerNode int              `json:"max_neighbors_per_node,omitempty"`
	EdgeTypes           []graph.EdgeType `json:"edge_types"`
}

// NetworkExpandResponse lists the reached nodes in discovery order.
type NetworkExpandResponse struct {
	Count int          `json:"count"`
	Nodes []graph.Node `json:"nodes"`
}

// TitlesResponse wraps the manifest listing.
type TitlesResponse struct {
	Titles []engine.TitleInfo `json:"titles"`
}

// SnapshotInfoResponse summarizes one snapshot.
type SnapshotInfoResponse struct {
	Title string `json:"title"`
	Year  string `json:"year"`
	Nodes int    `json:"nodes"`
	Edges int    `json:"edges"`
}

// SnapshotStatsResponse carries the degree distribution of one snapshot.
type SnapshotStatsResponse struct {
	Title string `json:"title"`
	Year  string `json:"year"`
	graph.DegreeStats
}

// HubsResponse lists the most connected nodes of one snapshot.
type HubsResponse struct {
	Title string      `json:"title"`
	Year  string      `json:"year"`
	Hubs  []graph.Hub `json:"hubs"`
}

// AdminSnapshotRequest names one (title, year) pair for load and drop
// actions.
type AdminSnapshotRequest struct {
	Title string `json:"title"`
	Year  string `json:"year"`
}

// TaskAcceptedResponse acknowledges an asynchronous operation.
type TaskAcceptedResponse struct {
	TaskID    string `json:"task_id"`
	StatusURL string `json:"status_url"`
}
