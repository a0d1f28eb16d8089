package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/taxcodeanalysistool/multiyear-multititle-network-explorer/pkg/graph"
)

const testManifest = `{
  "titles": [
    {
      "title": "26",
      "name": "Internal Revenue Code",
      "years": [
        {"year": "2018", "file": "title26_2018.json"},
        {"year": "2019", "file": "title26_2019.json"}
      ]
    }
  ]
}`

// title26_2018 mixes the modern shape (props object) with the legacy one
// (top-level text, stray extra keys) on purpose.
const title26_2018 = `{
  "title": "26",
  "year": "2018",
  "nodes": [
    {
      "id": "26-s61",
      "name": "§ 61",
      "type": "section",
      "label": "§ 61. Gross income defined",
      "props": {"text": "gross income means all income", "full_name": "Gross income defined"}
    },
    {
      "id": "26-s63",
      "name": "§ 63",
      "type": "section",
      "text": "taxable income defined",
      "chapter": "1",
      "repealed": null
    },
    {
      "id": "ent-gross-income",
      "name": "gross income",
      "type": "entity"
    }
  ],
  "edges": [
    {"source": "26-s61", "target": "ent-gross-income", "type": "definition", "action": "defines"},
    {"source": "26-s63", "target": "26-s61", "type": "reference"}
  ]
}`

func writeTestData(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), []byte(testManifest), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "title26_2018.json"), []byte(title26_2018), 0644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestLoadManifest(t *testing.T) {
	dir := writeTestData(t)

	m, err := LoadManifest(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Titles) != 1 || m.Titles[0].Title != "26" {
		t.Fatalf("unexpected manifest %+v", m)
	}
	if m.TitleName("26") != "Internal Revenue Code" {
		t.Errorf("TitleName = %q", m.TitleName("26"))
	}
	if m.TitleName("42") != "42" {
		t.Errorf("unknown title should fall back to its id")
	}

	if _, ok := m.Lookup("26", "2018"); !ok {
		t.Error("Lookup(26, 2018) should succeed")
	}
	if _, ok := m.Lookup("26", "1999"); ok {
		t.Error("Lookup(26, 1999) should fail")
	}
}

func TestLoadManifestRejectsDuplicates(t *testing.T) {
	dir := t.TempDir()
	bad := `{"titles": [{"title": "26", "years": [
		{"year": "2018", "file": "a.json"},
		{"year": "2018", "file": "b.json"}
	]}]}`
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), []byte(bad), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadManifest(dir); err == nil {
		t.Fatal("expected duplicate (title, year) to be rejected")
	}
}

func TestLoadNormalizesNodeShapes(t *testing.T) {
	dir := writeTestData(t)

	ds, err := Load(dir, "26", "2018")
	if err != nil {
		t.Fatal(err)
	}
	if len(ds.Nodes) != 3 || len(ds.Edges) != 2 {
		t.Fatalf("got %d nodes / %d edges", len(ds.Nodes), len(ds.Edges))
	}

	// 1. Modern node: props come through untouched.
	s61 := ds.Nodes[0]
	if s61.ID != "26-s61" || s61.Type != graph.NodeSection {
		t.Fatalf("unexpected first node %+v", s61)
	}
	if s61.Props["text"] != "gross income means all income" {
		t.Errorf("props lost: %+v", s61.Props)
	}

	// 2. Legacy node: top-level text maps to the attribute, stray keys
	// fold into the bag, nulls vanish.
	s63 := ds.Nodes[1]
	if s63.Text != "taxable income defined" {
		t.Errorf("legacy text attribute lost: %+v", s63)
	}
	if s63.Props["chapter"] != "1" {
		t.Errorf("stray key not folded into props: %+v", s63.Props)
	}
	if _, has := s63.Props["repealed"]; has {
		t.Error("null value should have been dropped")
	}

	// 3. The result feeds straight into a snapshot.
	snap, err := graph.NewSnapshot(ds.Nodes, ds.Edges)
	if err != nil {
		t.Fatalf("loaded dataset should form a valid snapshot: %v", err)
	}
	if snap.Degree("26-s61") != 2 {
		t.Errorf("Degree(26-s61) = %d, want 2", snap.Degree("26-s61"))
	}
}

func TestLoadRejectsBadNodes(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.json"),
		[]byte(`{"nodes": [{"name": "no id", "type": "section"}]}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(filepath.Join(dir, "bad.json")); err == nil {
		t.Fatal("expected missing id to be rejected")
	}

	if err := os.WriteFile(filepath.Join(dir, "bad2.json"),
		[]byte(`{"nodes": [{"id": "x", "type": "statute"}]}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(filepath.Join(dir, "bad2.json")); err == nil {
		t.Fatal("expected unknown node type to be rejected")
	}
}

func TestLoadChecksManifestAgreement(t *testing.T) {
	dir := writeTestData(t)

	// title26_2019.json is referenced by the manifest but declares 2018.
	if err := os.WriteFile(filepath.Join(dir, "title26_2019.json"), []byte(title26_2018), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir, "26", "2019"); err == nil {
		t.Fatal("expected declared-year mismatch to be rejected")
	}

	if _, err := Load(dir, "11", "2018"); err == nil {
		t.Fatal("expected unknown title to be rejected")
	}
}
