// Package dataset reads the on-disk form of the knowledge graph: a
// manifest describing which statutory titles and years are available, and
// one JSON dataset file per (title, year) pair with the full node and edge
// lists. The loader normalizes legacy dataset shapes so the query engine
// only ever sees one node model.
package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ManifestFile is the well-known manifest name inside a data directory.
const ManifestFile = "manifest.json"

// Manifest lists every dataset the data directory offers.
type Manifest struct {
	Titles []TitleEntry `json:"titles"`
}

// TitleEntry describes one statutory title and its available years.
type TitleEntry struct {
	Title string      `json:"title"`
	Name  string      `json:"name,omitempty"`
	Years []YearEntry `json:"years"`
}

// YearEntry points at the dataset file for one year of a title.
type YearEntry struct {
	Year string `json:"year"`
	File string `json:"file"`
}

// LoadManifest reads and validates <dir>/manifest.json.
func LoadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestFile)
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	seen := make(map[[2]string]struct{})
	for _, te := range m.Titles {
		if te.Title == "" {
			return nil, fmt.Errorf("%s: title entry with empty title", path)
		}
		for _, ye := range te.Years {
			if ye.Year == "" || ye.File == "" {
				return nil, fmt.Errorf("%s: title %s has a year entry missing year or file", path, te.Title)
			}
			key := [2]string{te.Title, ye.Year}
			if _, dup := seen[key]; dup {
				return nil, fmt.Errorf("%s: duplicate dataset for title %s year %s", path, te.Title, ye.Year)
			}
			seen[key] = struct{}{}
		}
	}
	return &m, nil
}

// Lookup resolves a (title, year) pair to its dataset file entry.
func (m *Manifest) Lookup(title, year string) (YearEntry, bool) {
	for _, te := range m.Titles {
		if te.Title != title {
			continue
		}
		for _, ye := range te.Years {
			if ye.Year == year {
				return ye, true
			}
		}
	}
	return YearEntry{}, false
}

// TitleName returns the display name of a title, falling back to the
// title identifier itself.
func (m *Manifest) TitleName(title string) string {
	for _, te := range m.Titles {
		if te.Title == title && te.Name != "" {
			return te.Name
		}
	}
	return title
}
