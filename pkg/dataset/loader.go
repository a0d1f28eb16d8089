package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/taxcodeanalysistool/multiyear-multititle-network-explorer/pkg/graph"
)

// Dataset is one fully parsed (title, year) file, normalized and ready for
// graph.NewSnapshot.
type Dataset struct {
	Title string
	Year  string
	Nodes []graph.Node
	Edges []graph.Edge
}

// datasetFile is the raw JSON shape. Nodes are decoded loosely because
// dataset years disagree about where fields live; see normalizeNode.
type datasetFile struct {
	Title string           `json:"title"`
	Year  string           `json:"year"`
	Nodes []map[string]any `json:"nodes"`
	Edges []graph.Edge     `json:"edges"`
}

// LoadFile parses one dataset JSON file.
func LoadFile(path string) (*Dataset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}

	var df datasetFile
	if err := json.Unmarshal(raw, &df); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	ds := &Dataset{
		Title: df.Title,
		Year:  df.Year,
		Nodes: make([]graph.Node, 0, len(df.Nodes)),
		Edges: df.Edges,
	}
	if ds.Edges == nil {
		ds.Edges = []graph.Edge{}
	}

	for i, raw := range df.Nodes {
		n, err := normalizeNode(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: node %d: %w", path, i, err)
		}
		ds.Nodes = append(ds.Nodes, n)
	}
	return ds, nil
}

// stringKey pops raw[key] if it is a string.
func stringKey(raw map[string]any, key string) string {
	if v, ok := raw[key].(string); ok {
		delete(raw, key)
		return v
	}
	return ""
}

// normalizeNode turns a loose dataset node object into a graph.Node.
// Known top-level attributes map onto struct fields; everything else,
// including the fields of an explicit "props" object, lands in the
// property bag so field extraction can reach it. Explicit props win over
// stray top-level keys, and JSON nulls are dropped entirely.
func normalizeNode(raw map[string]any) (graph.Node, error) {
	n := graph.Node{
		ID:       stringKey(raw, "id"),
		Name:     stringKey(raw, "name"),
		Type:     graph.NodeType(stringKey(raw, "type")),
		Label:    stringKey(raw, "label"),
		Year:     stringKey(raw, "year"),
		Text:     stringKey(raw, "text"),
		FullName: stringKey(raw, "full_name"),
	}
	if n.ID == "" {
		return n, fmt.Errorf("missing or non-string id")
	}
	if !n.Type.Valid() {
		return n, fmt.Errorf("unknown node type %q", n.Type)
	}

	props := make(map[string]any)
	for k, v := range raw {
		if k == "props" || v == nil {
			continue
		}
		props[k] = v
	}
	if explicit, ok := raw["props"].(map[string]any); ok {
		for k, v := range explicit {
			if v == nil {
				continue
			}
			props[k] = v
		}
	}
	if len(props) > 0 {
		n.Props = props
	}
	return n, nil
}

// Load resolves (title, year) through the manifest in dir and parses the
// referenced dataset file. The file's own title/year declarations default
// to the requested pair when absent, and must agree with it when present.
func Load(dir, title, year string) (*Dataset, error) {
	m, err := LoadManifest(dir)
	if err != nil {
		return nil, err
	}
	return LoadWithManifest(m, dir, title, year)
}

// LoadWithManifest is Load for callers that already hold the manifest.
func LoadWithManifest(m *Manifest, dir, title, year string) (*Dataset, error) {
	entry, ok := m.Lookup(title, year)
	if !ok {
		return nil, fmt.Errorf("no dataset for title %s year %s", title, year)
	}

	ds, err := LoadFile(filepath.Join(dir, entry.File))
	if err != nil {
		return nil, err
	}
	if ds.Title == "" {
		ds.Title = title
	}
	if ds.Year == "" {
		ds.Year = year
	}
	if ds.Title != title || ds.Year != year {
		return nil, fmt.Errorf("dataset %s declares title %s year %s, manifest says %s/%s",
			entry.File, ds.Title, ds.Year, title, year)
	}
	return ds, nil
}
