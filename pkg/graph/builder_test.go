package graph

import (
	"reflect"
	"slices"
	"testing"
)

var allNodeTypes = []NodeType{NodeSection, NodeEntity, NodeConcept, NodeIndex}

func nodeIDs(g *FilteredGraph) []string {
	ids := make([]string, len(g.Nodes))
	for i, n := range g.Nodes {
		ids[i] = n.ID
	}
	return ids
}

// checkConsistent asserts the structural contract of every result: no
// edge may reference a node outside the result.
func checkConsistent(t *testing.T, g *FilteredGraph) {
	t.Helper()
	ids := nodeIDs(g)
	for _, e := range g.Edges {
		if !slices.Contains(ids, e.Source) || !slices.Contains(ids, e.Target) {
			t.Errorf("dangling edge %s-%s in result", e.Source, e.Target)
		}
	}
}

func TestBuildNetworkSeedPlusNeighbors(t *testing.T) {
	s := threeNodeSnapshot(t)

	// 1. Seed on the entity name, expand one hop over both edge types.
	g, err := s.BuildNetwork(Query{
		Terms:         []string{"B"},
		Fields:        []string{FieldEntity},
		NodeTypes:     []NodeType{NodeSection, NodeEntity, NodeConcept},
		EdgeTypes:     []EdgeType{EdgeReference, EdgeDefinition},
		Depth:         1,
		MaxTotalNodes: 10,
	}, LogicOR, RankGlobal)
	if err != nil {
		t.Fatal(err)
	}

	// 2. The whole chain comes back untruncated.
	ids := nodeIDs(g)
	slices.Sort(ids)
	if !slices.Equal(ids, []string{"A", "B", "C"}) {
		t.Errorf("nodes = %v, want A B C", ids)
	}
	if len(g.Edges) != 2 {
		t.Errorf("edges = %v, want both", g.Edges)
	}
	if g.Truncated || g.MatchedCount != 3 {
		t.Errorf("truncated=%v matchedCount=%d, want false/3", g.Truncated, g.MatchedCount)
	}

	// 3. Degrees reflect the result's own edge set.
	for _, n := range g.Nodes {
		want := 1
		if n.ID == "B" {
			want = 2
		}
		if n.Degree != want {
			t.Errorf("degree(%s) = %d, want %d", n.ID, n.Degree, want)
		}
	}
	checkConsistent(t, g)
}

func TestBuildNetworkEdgeTypeRestrictionDropsIsolated(t *testing.T) {
	s := threeNodeSnapshot(t)

	// Only definition edges allowed: A-B disappears, so A ends up
	// isolated and is dropped by the connectedness rule.
	g, err := s.BuildNetwork(Query{
		Terms:         []string{"B"},
		Fields:        []string{FieldEntity},
		EdgeTypes:     []EdgeType{EdgeDefinition},
		Depth:         1,
		MaxTotalNodes: 10,
	}, LogicOR, RankGlobal)
	if err != nil {
		t.Fatal(err)
	}

	ids := nodeIDs(g)
	slices.Sort(ids)
	if !slices.Equal(ids, []string{"B", "C"}) {
		t.Errorf("nodes = %v, want B C", ids)
	}
	if len(g.Edges) != 1 || g.Edges[0].Type != EdgeDefinition {
		t.Errorf("edges = %v, want the definition edge only", g.Edges)
	}
	if g.Truncated || g.MatchedCount != 2 {
		t.Errorf("truncated=%v matchedCount=%d, want false/2", g.Truncated, g.MatchedCount)
	}
	checkConsistent(t, g)
}

// hubSnapshot gives node A a snapshot-wide degree of 3 so global ranking
// has something to prefer.
func hubSnapshot(t *testing.T) *Snapshot {
	t.Helper()
	nodes := []Node{
		{ID: "A", Name: "A", Type: NodeSection},
		{ID: "B", Name: "B", Type: NodeEntity},
		{ID: "C", Name: "C", Type: NodeConcept},
		{ID: "D", Name: "D", Type: NodeSection},
		{ID: "E", Name: "E", Type: NodeSection},
	}
	edges := []Edge{
		{Source: "A", Target: "B", Type: EdgeReference},
		{Source: "A", Target: "D", Type: EdgeReference},
		{Source: "A", Target: "E", Type: EdgeReference},
		{Source: "B", Target: "C", Type: EdgeDefinition},
	}
	s, err := NewSnapshot(nodes, edges)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestBuildNetworkGlobalTruncationKeepsTopHub(t *testing.T) {
	s := hubSnapshot(t)

	g, err := s.BuildNetwork(Query{
		Terms:         []string{"B"},
		Fields:        []string{FieldEntity},
		EdgeTypes:     []EdgeType{EdgeReference, EdgeDefinition},
		Depth:         2,
		MaxTotalNodes: 1,
	}, LogicOR, RankGlobal)
	if err != nil {
		t.Fatal(err)
	}

	// A wins on snapshot-wide degree 3. Its partners were all cut, so it
	// comes back edgeless; it stays in the result regardless.
	if !slices.Equal(nodeIDs(g), []string{"A"}) {
		t.Fatalf("nodes = %v, want [A]", nodeIDs(g))
	}
	if !g.Truncated {
		t.Error("expected truncated=true")
	}
	if g.MatchedCount != 5 {
		t.Errorf("matchedCount = %d, want 5", g.MatchedCount)
	}
	if len(g.Edges) != 0 || g.Nodes[0].Degree != 0 {
		t.Errorf("lone hub should have no edges, got %v", g.Edges)
	}
}

func TestBuildNetworkSubgraphTruncationPrefersLocalDegree(t *testing.T) {
	s := hubSnapshot(t)

	// Cap 2 in subgraph mode: local degrees over the filtered edges are
	// A=3, B=2, everything else 1.
	g, err := s.BuildNetwork(Query{
		Terms:         []string{"B"},
		Fields:        []string{FieldEntity},
		EdgeTypes:     []EdgeType{EdgeReference, EdgeDefinition},
		Depth:         2,
		MaxTotalNodes: 2,
	}, LogicOR, RankSubgraph)
	if err != nil {
		t.Fatal(err)
	}

	if !slices.Equal(nodeIDs(g), []string{"A", "B"}) {
		t.Fatalf("nodes = %v, want [A B]", nodeIDs(g))
	}
	if !g.Truncated || g.MatchedCount != 5 {
		t.Errorf("truncated=%v matched=%d", g.Truncated, g.MatchedCount)
	}
	// The A-B edge survives assembly and both degrees shrink to 1.
	if len(g.Edges) != 1 {
		t.Fatalf("edges = %v, want the A-B edge", g.Edges)
	}
	for _, n := range g.Nodes {
		if n.Degree != 1 {
			t.Errorf("degree(%s) = %d, want 1", n.ID, n.Degree)
		}
	}
	checkConsistent(t, g)
}

func TestRankingModesDisagreeOnLocalVersusGlobal(t *testing.T) {
	// X is a snapshot-wide hub through hierarchy edges, but inside a
	// reference-only subgraph Y is the busier node.
	nodes := []Node{
		{ID: "X", Name: "X", Type: NodeSection},
		{ID: "Y", Name: "Y", Type: NodeEntity},
		{ID: "Z", Name: "Z", Type: NodeConcept},
		{ID: "W", Name: "W", Type: NodeConcept},
		{ID: "Q", Name: "Q", Type: NodeConcept},
		{ID: "P1", Name: "P1", Type: NodeIndex},
		{ID: "P2", Name: "P2", Type: NodeIndex},
		{ID: "P3", Name: "P3", Type: NodeIndex},
		{ID: "P4", Name: "P4", Type: NodeIndex},
		{ID: "P5", Name: "P5", Type: NodeIndex},
	}
	edges := []Edge{
		{Source: "X", Target: "P1", Type: EdgeHierarchy},
		{Source: "X", Target: "P2", Type: EdgeHierarchy},
		{Source: "X", Target: "P3", Type: EdgeHierarchy},
		{Source: "X", Target: "P4", Type: EdgeHierarchy},
		{Source: "X", Target: "P5", Type: EdgeHierarchy},
		{Source: "X", Target: "Q", Type: EdgeReference},
		{Source: "Y", Target: "Z", Type: EdgeReference},
		{Source: "Y", Target: "W", Type: EdgeReference},
	}
	s, err := NewSnapshot(nodes, edges)
	if err != nil {
		t.Fatal(err)
	}

	q := Query{
		EdgeTypes:     []EdgeType{EdgeReference},
		MaxTotalNodes: 1,
	}

	global, err := s.BuildNetwork(q, LogicOR, RankGlobal)
	if err != nil {
		t.Fatal(err)
	}
	sub, err := s.BuildNetwork(q, LogicOR, RankSubgraph)
	if err != nil {
		t.Fatal(err)
	}

	// Globally X dominates with degree 6; locally Y leads with 2.
	if !slices.Equal(nodeIDs(global), []string{"X"}) {
		t.Errorf("global pick = %v, want [X]", nodeIDs(global))
	}
	if !slices.Equal(nodeIDs(sub), []string{"Y"}) {
		t.Errorf("subgraph pick = %v, want [Y]", nodeIDs(sub))
	}
}

func TestRankSubgraphExcludesZeroDegreeCandidates(t *testing.T) {
	edges := []Edge{
		{Source: "a", Target: "b", Type: EdgeReference},
	}
	got := rankSubgraph([]string{"a", "b", "c"}, edges, 10)
	slices.Sort(got)
	if !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("rankSubgraph = %v, want c excluded", got)
	}
}

func TestBuildNetworkNoSearchUsesWholeSnapshot(t *testing.T) {
	s := taxSnapshot(t)

	// No terms: every node is a candidate and the filter stage alone
	// shapes the result. Restricting to hierarchy edges keeps the index
	// tree and drops the extracted terms.
	g, err := s.BuildNetwork(Query{
		EdgeTypes:     []EdgeType{EdgeHierarchy},
		MaxTotalNodes: 100,
	}, LogicOR, RankGlobal)
	if err != nil {
		t.Fatal(err)
	}

	ids := nodeIDs(g)
	slices.Sort(ids)
	if !slices.Equal(ids, []string{"26-idx-B", "26-s61", "26-s62", "26-s63"}) {
		t.Errorf("nodes = %v", ids)
	}
	if g.MatchedCount != 4 || g.Truncated {
		t.Errorf("matched=%d truncated=%v", g.MatchedCount, g.Truncated)
	}
	checkConsistent(t, g)
}

func TestBuildNetworkTermsWithoutFieldsMeansNoSearch(t *testing.T) {
	s := taxSnapshot(t)

	// Terms with no fields (and vice versa) degrade to "no search":
	// candidates are the whole snapshot, not the empty set.
	g, err := s.BuildNetwork(Query{
		Terms:         []string{"no such text anywhere"},
		EdgeTypes:     allEdgeTypes,
		MaxTotalNodes: 100,
	}, LogicOR, RankGlobal)
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Nodes) != s.NodeCount() {
		t.Errorf("expected the whole snapshot, got %d nodes", len(g.Nodes))
	}
}

func TestBuildNetworkNoSeedsShortCircuits(t *testing.T) {
	s := taxSnapshot(t)

	g, err := s.BuildNetwork(Query{
		Terms:         []string{"no such text anywhere"},
		Fields:        []string{FieldText},
		EdgeTypes:     allEdgeTypes,
		Depth:         3,
		MaxTotalNodes: 100,
	}, LogicOR, RankGlobal)
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Nodes) != 0 || len(g.Edges) != 0 || g.MatchedCount != 0 || g.Truncated {
		t.Errorf("expected empty result, got %+v", g)
	}
}

func TestBuildNetworkTypeFilteredSeedsShortCircuit(t *testing.T) {
	s := taxSnapshot(t)

	// The search hits only the entity node; with the allow-list limited
	// to sections the seed set empties and the query must short-circuit,
	// even though depth-1 expansion would reach section nodes.
	g, err := s.BuildNetwork(Query{
		Terms:         []string{"gross income"},
		Fields:        []string{FieldEntity},
		NodeTypes:     []NodeType{NodeSection},
		EdgeTypes:     allEdgeTypes,
		Depth:         1,
		MaxTotalNodes: 100,
	}, LogicOR, RankGlobal)
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Nodes) != 0 || g.MatchedCount != 0 {
		t.Errorf("expected empty short-circuit, got %d nodes, matched %d", len(g.Nodes), g.MatchedCount)
	}
}

func TestBuildNetworkExpansionRespectsNodeTypes(t *testing.T) {
	s := taxSnapshot(t)

	// "adjusted gross income" seeds §62 and the index heading. Expanding
	// one hop reaches entities and concepts too, but the allow-list cuts
	// every non-seed that is not a section or index node.
	g, err := s.BuildNetwork(Query{
		Terms:         []string{"adjusted gross income"},
		Fields:        []string{FieldText},
		NodeTypes:     []NodeType{NodeSection, NodeIndex},
		EdgeTypes:     allEdgeTypes,
		Depth:         1,
		MaxTotalNodes: 100,
	}, LogicOR, RankGlobal)
	if err != nil {
		t.Fatal(err)
	}

	ids := nodeIDs(g)
	slices.Sort(ids)
	if !slices.Equal(ids, []string{"26-idx-B", "26-s61", "26-s62", "26-s63"}) {
		t.Errorf("nodes = %v", ids)
	}
	for _, bad := range []string{"ent-gross-income", "con-deduction", "ent-trade-business"} {
		if slices.Contains(ids, bad) {
			t.Errorf("node %s should have been type-filtered", bad)
		}
	}
	checkConsistent(t, g)
}

func TestBuildNetworkEmptyEdgeAllowListYieldsEmptyResult(t *testing.T) {
	s := taxSnapshot(t)

	g, err := s.BuildNetwork(Query{MaxTotalNodes: 100}, LogicOR, RankGlobal)
	if err != nil {
		t.Fatal(err)
	}
	// Without edges nothing is connected, and connectedness is mandatory.
	if len(g.Nodes) != 0 || g.MatchedCount != 0 {
		t.Errorf("expected empty result, got %d nodes", len(g.Nodes))
	}
}

func TestBuildNetworkDepthZeroKeepsSeedsOnly(t *testing.T) {
	s := taxSnapshot(t)

	// §62 and §63 both match; with depth 0 they are the only candidates,
	// connected by their cross-reference.
	g, err := s.BuildNetwork(Query{
		Terms:         []string{"income"},
		Fields:        []string{FieldText},
		NodeTypes:     []NodeType{NodeSection},
		EdgeTypes:     []EdgeType{EdgeReference},
		Depth:         0,
		MaxTotalNodes: 100,
	}, LogicOR, RankGlobal)
	if err != nil {
		t.Fatal(err)
	}

	ids := nodeIDs(g)
	slices.Sort(ids)
	if !slices.Equal(ids, []string{"26-s62", "26-s63"}) {
		t.Errorf("nodes = %v, want the two cross-referencing sections", ids)
	}
	if len(g.Edges) != 1 {
		t.Errorf("edges = %v", g.Edges)
	}
}

func TestBuildNetworkIdempotent(t *testing.T) {
	s := taxSnapshot(t)
	q := Query{
		Terms:         []string{"gross"},
		Fields:        []string{FieldText, FieldEntity},
		EdgeTypes:     allEdgeTypes,
		Depth:         2,
		MaxTotalNodes: 4,
	}

	first, err := s.BuildNetwork(q, LogicOR, RankSubgraph)
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.BuildNetwork(q, LogicOR, RankSubgraph)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("identical queries disagreed:\n%+v\n%+v", first, second)
	}
}

func TestBuildNetworkTruncationReporting(t *testing.T) {
	s := taxSnapshot(t)

	base := Query{
		EdgeTypes: allEdgeTypes,
	}

	t.Run("over the cap", func(t *testing.T) {
		q := base
		q.MaxTotalNodes = 3
		g, err := s.BuildNetwork(q, LogicOR, RankGlobal)
		if err != nil {
			t.Fatal(err)
		}
		if !g.Truncated || len(g.Nodes) != 3 {
			t.Errorf("truncated=%v nodes=%d, want true/3", g.Truncated, len(g.Nodes))
		}
		if g.MatchedCount != s.NodeCount() {
			t.Errorf("matchedCount = %d, want %d", g.MatchedCount, s.NodeCount())
		}
	})

	t.Run("under the cap", func(t *testing.T) {
		q := base
		q.MaxTotalNodes = 50
		g, err := s.BuildNetwork(q, LogicOR, RankGlobal)
		if err != nil {
			t.Fatal(err)
		}
		if g.Truncated || len(g.Nodes) != g.MatchedCount {
			t.Errorf("truncated=%v nodes=%d matched=%d", g.Truncated, len(g.Nodes), g.MatchedCount)
		}
	})
}

func TestBuildNetworkNoIsolatedNodesWithoutTruncation(t *testing.T) {
	s := taxSnapshot(t)

	queries := []Query{
		{EdgeTypes: allEdgeTypes, MaxTotalNodes: 100},
		{EdgeTypes: []EdgeType{EdgeReference}, MaxTotalNodes: 100},
		{Terms: []string{"income"}, Fields: []string{FieldText}, EdgeTypes: allEdgeTypes, Depth: 1, MaxTotalNodes: 100},
	}
	for i, q := range queries {
		g, err := s.BuildNetwork(q, LogicOR, RankGlobal)
		if err != nil {
			t.Fatalf("query %d: %v", i, err)
		}
		if g.Truncated {
			t.Fatalf("query %d unexpectedly truncated", i)
		}
		for _, n := range g.Nodes {
			if n.Degree < 1 {
				t.Errorf("query %d: node %s is isolated in an untruncated result", i, n.ID)
			}
		}
		checkConsistent(t, g)
	}
}

func TestBuildNetworkValidation(t *testing.T) {
	s := threeNodeSnapshot(t)

	bad := []struct {
		name  string
		q     Query
		logic SearchLogic
		mode  RankingMode
	}{
		{"zero cap", Query{MaxTotalNodes: 0}, LogicOR, RankGlobal},
		{"negative cap", Query{MaxTotalNodes: -5}, LogicOR, RankGlobal},
		{"negative fan-out", Query{MaxTotalNodes: 10, MaxNeighborsPerNode: -1}, LogicOR, RankGlobal},
		{"negative depth", Query{MaxTotalNodes: 10, Depth: -1}, LogicOR, RankGlobal},
		{"unknown node type", Query{MaxTotalNodes: 10, NodeTypes: []NodeType{"statute"}}, LogicOR, RankGlobal},
		{"unknown edge type", Query{MaxTotalNodes: 10, EdgeTypes: []EdgeType{"cites"}}, LogicOR, RankGlobal},
		{"unknown logic", Query{MaxTotalNodes: 10}, SearchLogic("xor"), RankGlobal},
		{"unknown mode", Query{MaxTotalNodes: 10}, LogicOR, RankingMode("random")},
	}
	for _, tc := range bad {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := s.BuildNetwork(tc.q, tc.logic, tc.mode); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestBuildNetworkResultIsCallerOwned(t *testing.T) {
	s := threeNodeSnapshot(t)
	q := Query{
		Terms: []string{"b"}, Fields: []string{FieldEntity},
		EdgeTypes: allEdgeTypes, Depth: 1, MaxTotalNodes: 10,
	}

	first, err := s.BuildNetwork(q, LogicOR, RankGlobal)
	if err != nil {
		t.Fatal(err)
	}
	// Mutating one result must not leak into a later one.
	first.Nodes[0].Name = "mangled"
	first.Edges[0].Type = EdgeHierarchy

	second, err := s.BuildNetwork(q, LogicOR, RankGlobal)
	if err != nil {
		t.Fatal(err)
	}
	for _, n := range second.Nodes {
		if n.Name == "mangled" {
			t.Error("results share node memory across calls")
		}
	}
	if second.Edges[0].Type != EdgeReference {
		t.Error("results share edge memory across calls")
	}
}
