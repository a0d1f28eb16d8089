package mcp

// --- Tool Arguments ---

type ListTitlesArgs struct{}

type TitleSummary struct {
	Title string   `json:"title"`
	Name  string   `json:"name"`
	Years []string `json:"years"`
}

type ListTitlesResult struct {
	Titles []TitleSummary `json:"titles"`
}

type SearchNodesArgs struct {
	Title  string   `json:"title" jsonschema:"The statutory title id (e.g. '26'),required"`
	Year   string   `json:"year" jsonschema:"The snapshot year (e.g. '2018'),required"`
	Query  string   `json:"query" jsonschema:"Search terms; double-quote multi-word phrases (e.g. '\"gross income\" deduction'),required"`
	Fields []string `json:"fields,omitempty" jsonschema:"Node fields to match against (text, full_name, display_label, definition, properties). Defaults to a broad set"`
	Logic  string   `json:"logic,omitempty" jsonschema:"'or' (any term, default) or 'and' (every term),enum=or,enum=and"`
	Limit  int      `json:"limit,omitempty" jsonschema:"Max matches to return (default 20)"`
}

type NodeSummary struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Name    string `json:"name"`
	Snippet string `json:"snippet,omitempty"`
}

type SearchNodesResult struct {
	Total   int           `json:"total"`
	Matches []NodeSummary `json:"matches"`
}

type ExpandNetworkArgs struct {
	Title               string   `json:"title" jsonschema:"required"`
	Year                string   `json:"year" jsonschema:"required"`
	Seeds               []string `json:"seeds" jsonschema:"Node ids to start from,required"`
	Depth               int      `json:"depth,omitempty" jsonschema:"Traversal hops from the seeds (default 1)"`
	MaxNeighborsPerNode int      `json:"max_neighbors_per_node,omitempty" jsonschema:"Per-node fan-out cap, 0 = unlimited"`
	EdgeTypes           []string `json:"edge_types,omitempty" jsonschema:"Edge types to follow (definition, reference, hierarchy). Defaults to all three"`
}

type ExpandNetworkResult struct {
	Total int           `json:"total"`
	Nodes []NodeSummary `json:"nodes"`
}

type BuildNetworkArgs struct {
	Title               string   `json:"title" jsonschema:"required"`
	Year                string   `json:"year" jsonschema:"required"`
	Query               string   `json:"query,omitempty" jsonschema:"Search terms seeding the network; double-quote phrases. Empty = whole snapshot"`
	Fields              []string `json:"fields,omitempty" jsonschema:"Fields the terms match against. Defaults to a broad set"`
	Logic               string   `json:"logic,omitempty" jsonschema:"'or' (default) or 'and',enum=or,enum=and"`
	NodeTypes           []string `json:"node_types,omitempty" jsonschema:"Node types to keep (section, entity, concept, index). Empty = all"`
	EdgeTypes           []string `json:"edge_types,omitempty" jsonschema:"Edge types to keep. Defaults to all three"`
	Depth               int      `json:"depth,omitempty" jsonschema:"Expansion hops from the matched seeds (default 1)"`
	MaxNeighborsPerNode int      `json:"max_neighbors_per_node,omitempty" jsonschema:"Per-node fan-out cap, 0 = unlimited"`
	MaxTotalNodes       int      `json:"max_total_nodes,omitempty" jsonschema:"Result size cap (default 50)"`
	Mode                string   `json:"mode,omitempty" jsonschema:"Ranking when truncating: 'global' (snapshot degree, default) or 'subgraph' (filtered degree),enum=global,enum=subgraph"`
}

type BuildNetworkResult struct {
	Nodes        int    `json:"nodes"`
	Edges        int    `json:"edges"`
	MatchedCount int    `json:"matched_count"`
	Truncated    bool   `json:"truncated"`
	Description  string `json:"description"` // Textual rendering of the network for the LLM
}

type GetNodeArgs struct {
	Title  string `json:"title" jsonschema:"required"`
	Year   string `json:"year" jsonschema:"required"`
	NodeID string `json:"node_id" jsonschema:"required"`
}

type NeighborSummary struct {
	ID       string `json:"id"`
	EdgeType string `json:"edge_type"`
}

type GetNodeResult struct {
	Node NodeSummary `json:"node"`
	// Text is the node's untruncated body, unlike the summary snippet.
	Text      string            `json:"text,omitempty"`
	Degree    int               `json:"degree"`
	Neighbors []NeighborSummary `json:"neighbors"`
}

type GraphStatsArgs struct {
	Title string `json:"title" jsonschema:"required"`
	Year  string `json:"year" jsonschema:"required"`
}

type GraphStatsResult struct {
	Nodes        int     `json:"nodes"`
	Edges        int     `json:"edges"`
	MeanDegree   float64 `json:"mean_degree"`
	MedianDegree float64 `json:"median_degree"`
	P90Degree    float64 `json:"p90_degree"`
	MaxDegree    int     `json:"max_degree"`
}

type TopHubsArgs struct {
	Title string `json:"title" jsonschema:"required"`
	Year  string `json:"year" jsonschema:"required"`
	N     int    `json:"n,omitempty" jsonschema:"How many hubs to return (default 10)"`
}

type HubSummary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Degree int    `json:"degree"`
}

type TopHubsResult struct {
	Hubs []HubSummary `json:"hubs"`
}
