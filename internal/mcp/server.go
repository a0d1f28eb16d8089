// Package mcp exposes the network explorer to LLM clients over the Model
// Context Protocol. Tool argument schemas are derived from the struct
// tags in types.go.
package mcp

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/taxcodeanalysistool/multiyear-multititle-network-explorer/pkg/engine"
)

// ServeStdio runs the MCP server over stdin/stdout until the client
// disconnects or ctx is canceled.
func ServeStdio(ctx context.Context, eng *engine.Engine) error {
	return NewMCPServer(eng).Run(ctx, &mcp.StdioTransport{})
}

func NewMCPServer(eng *engine.Engine) *mcp.Server {
	service := NewService(eng)

	// Create Server instance
	s := mcp.NewServer(&mcp.Implementation{
		Name:    "netexplorer",
		Version: "0.3.0",
	}, nil) // Options can be nil for default

	// Register Tools using the generic AddTool which inspects structs.

	mcp.AddTool(s, &mcp.Tool{
		Name:        "list_titles",
		Description: "List the statutory titles and dataset years this server can explore.",
		// Some clients reject a tool schema without a properties map, and
		// inference on the empty args struct produces none.
		InputSchema: &jsonschema.Schema{Type: "object", Properties: map[string]*jsonschema.Schema{}},
	}, service.ListTitles)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "search_nodes",
		Description: "Full-text search for sections, entities and concepts inside one title/year snapshot.",
	}, service.SearchNodes)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "expand_network",
		Description: "Walk outward from known node ids and list everything reachable within a few hops.",
	}, service.ExpandNetwork)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "build_network",
		Description: "Build a connected subgraph around a search query (search, expand, filter, rank) and describe it.",
	}, service.BuildNetwork)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_node",
		Description: "Fetch one node with its full text, degree and direct neighbors.",
	}, service.GetNode)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "graph_stats",
		Description: "Degree-distribution statistics (mean/median/p90/max) for one title/year snapshot.",
	}, service.GraphStats)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "top_hubs",
		Description: "The most connected nodes of a snapshot, useful to find central sections and concepts.",
	}, service.TopHubs)

	return s
}
