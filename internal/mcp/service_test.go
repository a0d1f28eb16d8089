package mcp

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/taxcodeanalysistool/multiyear-multititle-network-explorer/pkg/engine"
)

const testManifest = `{
  "titles": [
    {
      "title": "26",
      "name": "Internal Revenue Code",
      "years": [
        {"year": "2018", "file": "title26_2018.json"}
      ]
    }
  ]
}`

const testYear2018 = `{
  "title": "26",
  "year": "2018",
  "nodes": [
    {"id": "26-s61", "name": "s61", "type": "section", "text": "gross income defined"},
    {"id": "26-s62", "name": "s62", "type": "section", "text": "adjusted gross income means"},
    {"id": "ent-gross-income", "name": "gross income", "type": "entity"}
  ],
  "edges": [
    {"source": "26-s61", "target": "ent-gross-income", "type": "definition"},
    {"source": "26-s62", "target": "26-s61", "type": "reference"}
  ]
}`

func newTestService(t *testing.T) *Service {
	t.Helper()

	dir := t.TempDir()
	files := map[string]string{
		"manifest.json":     testManifest,
		"title26_2018.json": testYear2018,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	eng, err := engine.Open(engine.Options{DataDir: dir})
	if err != nil {
		t.Fatalf("engine.Open failed: %v", err)
	}
	t.Cleanup(func() { eng.Close() })
	return NewService(eng)
}

func TestListTitlesTool(t *testing.T) {
	svc := newTestService(t)

	_, result, err := svc.ListTitles(context.Background(), nil, ListTitlesArgs{})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Titles) != 1 || result.Titles[0].Title != "26" || len(result.Titles[0].Years) != 1 {
		t.Errorf("unexpected listing %+v", result)
	}
}

func TestSearchNodesToolDefaultsAndPhrases(t *testing.T) {
	svc := newTestService(t)

	// Quoted phrase with no explicit fields searches the broad default set.
	_, result, err := svc.SearchNodes(context.Background(), nil, SearchNodesArgs{
		Title: "26",
		Year:  "2018",
		Query: `"gross income"`,
	})
	if err != nil {
		t.Fatal(err)
	}
	// Matches the two sections by text plus the entity by name.
	if result.Total != 3 {
		t.Fatalf("Total = %d, want 3 (%+v)", result.Total, result)
	}

	// Snippets carry the matched node text.
	var sawSnippet bool
	for _, m := range result.Matches {
		if strings.Contains(m.Snippet, "gross income") {
			sawSnippet = true
		}
	}
	if !sawSnippet {
		t.Error("expected at least one snippet containing the phrase")
	}

	// The limit trims matches but not the total.
	_, result, err = svc.SearchNodes(context.Background(), nil, SearchNodesArgs{
		Title: "26", Year: "2018", Query: "income", Limit: 1,
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Total != 3 || len(result.Matches) != 1 {
		t.Errorf("limit: total %d, matches %d, want 3 and 1", result.Total, len(result.Matches))
	}

	// A blank query is rejected before it reaches the engine.
	if _, _, err := svc.SearchNodes(context.Background(), nil, SearchNodesArgs{
		Title: "26", Year: "2018", Query: "   ",
	}); err == nil {
		t.Error("blank query should be rejected")
	}
}

func TestExpandNetworkToolDefaultsEdgeTypes(t *testing.T) {
	svc := newTestService(t)

	// No edge types given: the tool follows all of them.
	_, result, err := svc.ExpandNetwork(context.Background(), nil, ExpandNetworkArgs{
		Title: "26",
		Year:  "2018",
		Seeds: []string{"26-s62"},
		Depth: 2,
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Total != 3 {
		t.Errorf("Total = %d, want 3 (%+v)", result.Total, result)
	}

	// An explicit unknown edge type still fails validation.
	if _, _, err := svc.ExpandNetwork(context.Background(), nil, ExpandNetworkArgs{
		Title: "26", Year: "2018", Seeds: []string{"26-s62"}, EdgeTypes: []string{"cites"},
	}); err == nil {
		t.Error("unknown edge type should be rejected")
	}
}

func TestBuildNetworkToolDescription(t *testing.T) {
	svc := newTestService(t)

	_, result, err := svc.BuildNetwork(context.Background(), nil, BuildNetworkArgs{
		Title: "26",
		Year:  "2018",
		Query: "income",
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Nodes != 3 || result.Edges != 2 || result.Truncated {
		t.Fatalf("unexpected counts %+v", result)
	}
	for _, want := range []string{
		"3 nodes and 2 edges",
		"26-s61 --(definition)--> ent-gross-income",
		"26-s61 (section, degree 2)",
	} {
		if !strings.Contains(result.Description, want) {
			t.Errorf("description missing %q:\n%s", want, result.Description)
		}
	}

	// An empty snapshot-wide build still works and reports honestly.
	_, result, err = svc.BuildNetwork(context.Background(), nil, BuildNetworkArgs{
		Title: "26",
		Year:  "2018",
		Query: "no such phrase anywhere",
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Nodes != 0 || !strings.Contains(result.Description, "matched no connected nodes") {
		t.Errorf("empty build: %+v", result)
	}
}

func TestGetNodeStatsAndHubsTools(t *testing.T) {
	svc := newTestService(t)

	_, detail, err := svc.GetNode(context.Background(), nil, GetNodeArgs{
		Title: "26", Year: "2018", NodeID: "26-s61",
	})
	if err != nil {
		t.Fatal(err)
	}
	if detail.Degree != 2 || len(detail.Neighbors) != 2 {
		t.Errorf("unexpected detail %+v", detail)
	}
	if detail.Text != "gross income defined" {
		t.Errorf("Text = %q, want the untruncated body", detail.Text)
	}
	if _, _, err := svc.GetNode(context.Background(), nil, GetNodeArgs{
		Title: "26", Year: "2018", NodeID: "26-s999",
	}); err == nil {
		t.Error("unknown node should be an error")
	}

	_, stats, err := svc.GraphStats(context.Background(), nil, GraphStatsArgs{Title: "26", Year: "2018"})
	if err != nil {
		t.Fatal(err)
	}
	if stats.Nodes != 3 || stats.Edges != 2 || stats.MaxDegree != 2 {
		t.Errorf("unexpected stats %+v", stats)
	}

	_, hubs, err := svc.TopHubs(context.Background(), nil, TopHubsArgs{Title: "26", Year: "2018", N: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(hubs.Hubs) != 1 || hubs.Hubs[0].ID != "26-s61" || hubs.Hubs[0].Degree != 2 {
		t.Errorf("unexpected hubs %+v", hubs)
	}
}
