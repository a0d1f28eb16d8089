package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/taxcodeanalysistool/multiyear-multititle-network-explorer/internal/protocol"
	"github.com/taxcodeanalysistool/multiyear-multititle-network-explorer/pkg/engine"
	"github.com/taxcodeanalysistool/multiyear-multititle-network-explorer/pkg/graph"
)

type Service struct {
	engine *engine.Engine
}

func NewService(eng *engine.Engine) *Service {
	return &Service{engine: eng}
}

// defaultSearchFields is the broad field set used when the client does
// not narrow the search down: body text plus entity/concept names, so
// every node kind is reachable by a plain query.
var defaultSearchFields = []string{"text", "full_name", "display_label", "definition", "entity", "concept", "properties"}

// allEdgeTypes mirrors the closed edge-type set. MCP clients rarely know
// the schema, so tools default to following everything instead of the
// strict empty-list-means-nothing core semantics.
var allEdgeTypes = []graph.EdgeType{graph.EdgeDefinition, graph.EdgeReference, graph.EdgeHierarchy}

// --- Tool Handlers ---

func (s *Service) ListTitles(ctx context.Context, req *mcp.CallToolRequest, args ListTitlesArgs) (*mcp.CallToolResult, ListTitlesResult, error) {
	var out ListTitlesResult
	for _, info := range s.engine.ListTitles() {
		summary := TitleSummary{Title: info.Title, Name: info.Name}
		for _, y := range info.Years {
			summary.Years = append(summary.Years, y.Year)
		}
		out.Titles = append(out.Titles, summary)
	}
	return nil, out, nil
}

func (s *Service) SearchNodes(ctx context.Context, req *mcp.CallToolRequest, args SearchNodesArgs) (*mcp.CallToolResult, SearchNodesResult, error) {
	terms := protocol.ParseTerms(args.Query)
	if len(terms) == 0 {
		return nil, SearchNodesResult{}, fmt.Errorf("query must contain at least one term")
	}

	fields := args.Fields
	if len(fields) == 0 {
		fields = defaultSearchFields
	}
	limit := args.Limit
	if limit <= 0 {
		limit = 20
	}

	nodes, err := s.engine.SearchNodes(args.Title, args.Year, terms, fields, graph.SearchLogic(args.Logic))
	if err != nil {
		return nil, SearchNodesResult{}, err
	}

	result := SearchNodesResult{Total: len(nodes)}
	for i := range nodes {
		if i == limit {
			break
		}
		result.Matches = append(result.Matches, nodeSummary(&nodes[i]))
	}
	return nil, result, nil
}

func (s *Service) ExpandNetwork(ctx context.Context, req *mcp.CallToolRequest, args ExpandNetworkArgs) (*mcp.CallToolResult, ExpandNetworkResult, error) {
	depth := args.Depth
	if depth <= 0 {
		depth = 1
	}

	// If the client doesn't specify which edges to follow, follow them
	// all. Requiring schema knowledge here would make the tool useless.
	edgeTypes := toEdgeTypes(args.EdgeTypes)
	if len(edgeTypes) == 0 {
		edgeTypes = allEdgeTypes
	}

	nodes, err := s.engine.ExpandFromSeeds(args.Title, args.Year, args.Seeds, depth, args.MaxNeighborsPerNode, edgeTypes)
	if err != nil {
		return nil, ExpandNetworkResult{}, err
	}

	result := ExpandNetworkResult{Total: len(nodes)}
	for i := range nodes {
		result.Nodes = append(result.Nodes, nodeSummary(&nodes[i]))
	}
	return nil, result, nil
}

func (s *Service) BuildNetwork(ctx context.Context, req *mcp.CallToolRequest, args BuildNetworkArgs) (*mcp.CallToolResult, BuildNetworkResult, error) {
	terms := protocol.ParseTerms(args.Query)

	fields := args.Fields
	if len(terms) > 0 && len(fields) == 0 {
		fields = defaultSearchFields
	}
	edgeTypes := toEdgeTypes(args.EdgeTypes)
	if len(edgeTypes) == 0 {
		edgeTypes = allEdgeTypes
	}
	depth := args.Depth
	if depth <= 0 {
		depth = 1
	}
	maxNodes := args.MaxTotalNodes
	if maxNodes <= 0 {
		maxNodes = 50
	}

	query := graph.Query{
		Terms:               terms,
		Fields:              fields,
		NodeTypes:           toNodeTypes(args.NodeTypes),
		EdgeTypes:           edgeTypes,
		Depth:               depth,
		MaxNeighborsPerNode: args.MaxNeighborsPerNode,
		MaxTotalNodes:       maxNodes,
	}

	fg, err := s.engine.BuildNetwork(args.Title, args.Year, query, graph.SearchLogic(args.Logic), graph.RankingMode(args.Mode))
	if err != nil {
		return nil, BuildNetworkResult{}, err
	}

	return nil, BuildNetworkResult{
		Nodes:        len(fg.Nodes),
		Edges:        len(fg.Edges),
		MatchedCount: fg.MatchedCount,
		Truncated:    fg.Truncated,
		Description:  describeNetwork(fg),
	}, nil
}

func (s *Service) GetNode(ctx context.Context, req *mcp.CallToolRequest, args GetNodeArgs) (*mcp.CallToolResult, GetNodeResult, error) {
	detail, err := s.engine.GetNode(args.Title, args.Year, args.NodeID)
	if err != nil {
		return nil, GetNodeResult{}, err
	}

	result := GetNodeResult{
		Node:   nodeSummary(&detail.Node),
		Degree: detail.Degree,
	}
	if text, ok := graph.ExtractField(&detail.Node, "text"); ok {
		result.Text = text
	}
	for _, n := range detail.Neighbors {
		result.Neighbors = append(result.Neighbors, NeighborSummary{ID: n.ID, EdgeType: string(n.Type)})
	}
	return nil, result, nil
}

func (s *Service) GraphStats(ctx context.Context, req *mcp.CallToolRequest, args GraphStatsArgs) (*mcp.CallToolResult, GraphStatsResult, error) {
	stats, err := s.engine.SnapshotStats(args.Title, args.Year)
	if err != nil {
		return nil, GraphStatsResult{}, err
	}
	return nil, GraphStatsResult{
		Nodes:        stats.Nodes,
		Edges:        stats.Edges,
		MeanDegree:   stats.MeanDegree,
		MedianDegree: stats.MedianDegree,
		P90Degree:    stats.P90Degree,
		MaxDegree:    stats.MaxDegree,
	}, nil
}

func (s *Service) TopHubs(ctx context.Context, req *mcp.CallToolRequest, args TopHubsArgs) (*mcp.CallToolResult, TopHubsResult, error) {
	n := args.N
	if n <= 0 {
		n = 10
	}

	hubs, err := s.engine.TopHubs(args.Title, args.Year, n)
	if err != nil {
		return nil, TopHubsResult{}, err
	}

	var result TopHubsResult
	for _, h := range hubs {
		result.Hubs = append(result.Hubs, HubSummary{ID: h.ID, Name: h.Name, Type: string(h.Type), Degree: h.Degree})
	}
	return nil, result, nil
}

// --- Formatting helpers ---

const (
	maxDescribedEdges = 40
	maxDescribedNodes = 30
	snippetLen        = 80
)

func nodeSummary(n *graph.Node) NodeSummary {
	return NodeSummary{
		ID:      n.ID,
		Type:    string(n.Type),
		Name:    n.Name,
		Snippet: snippet(n),
	}
}

func snippet(n *graph.Node) string {
	text, ok := graph.ExtractField(n, "text")
	if !ok {
		return ""
	}
	if len(text) > snippetLen {
		text = text[:snippetLen] + "..."
	}
	return text
}

// describeNetwork renders the built network as readable text for the LLM.
func describeNetwork(fg *graph.FilteredGraph) string {
	var sb strings.Builder

	if len(fg.Nodes) == 0 {
		sb.WriteString("The query matched no connected nodes.")
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("Network with %d nodes and %d edges", len(fg.Nodes), len(fg.Edges)))
	if fg.Truncated {
		sb.WriteString(fmt.Sprintf(" (truncated from %d matches)", fg.MatchedCount))
	}
	sb.WriteString(".\n\nConnections:\n")

	for i, e := range fg.Edges {
		if i == maxDescribedEdges {
			sb.WriteString(fmt.Sprintf("... and %d more edges\n", len(fg.Edges)-maxDescribedEdges))
			break
		}
		sb.WriteString(fmt.Sprintf("- %s --(%s)--> %s\n", e.Source, e.Type, e.Target))
	}

	sb.WriteString("\nNodes:\n")
	for i := range fg.Nodes {
		if i == maxDescribedNodes {
			sb.WriteString(fmt.Sprintf("... and %d more nodes\n", len(fg.Nodes)-maxDescribedNodes))
			break
		}
		n := &fg.Nodes[i]
		line := fmt.Sprintf("- %s (%s, degree %d)", n.ID, n.Type, n.Degree)
		if sn := snippet(&n.Node); sn != "" {
			line += ": " + sn
		}
		sb.WriteString(line + "\n")
	}

	return sb.String()
}

func toEdgeTypes(raw []string) []graph.EdgeType {
	out := make([]graph.EdgeType, 0, len(raw))
	for _, t := range raw {
		out = append(out, graph.EdgeType(t))
	}
	return out
}

func toNodeTypes(raw []string) []graph.NodeType {
	out := make([]graph.NodeType, 0, len(raw))
	for _, t := range raw {
		out = append(out, graph.NodeType(t))
	}
	return out
}
