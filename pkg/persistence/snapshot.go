// Package persistence implements the on-disk snapshot cache.
//
// Parsing a large dataset JSON and rebuilding its adjacency is the slow
// part of loading a snapshot, so once built, the node and edge lists are
// written to a framed, checksummed binary file that loads back with a
// single gob decode per section. A cache file that fails any check is
// simply discarded; the JSON source remains the authority.
package persistence

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/taxcodeanalysistool/multiyear-multititle-network-explorer/pkg/graph"
)

// FileExt is the extension of snapshot cache files.
const FileExt = ".netx"

func init() {
	// Prop bag values travel through gob as interface values. Nested JSON
	// objects and arrays decode to these concrete types, which gob cannot
	// transmit unless registered. Strings, float64 and bool are covered by
	// gob's built-in basics.
	gob.Register(map[string]any{})
	gob.Register([]any{})
}

// SnapshotData is the decoded content of a snapshot cache file.
type SnapshotData struct {
	Title   string
	Year    string
	SavedAt time.Time
	Nodes   []graph.Node
	Edges   []graph.Edge
}

// fileHeader travels in the first frame and lets a reader reject a
// mismatched or truncated file before decoding the bulk sections.
type fileHeader struct {
	Title   string
	Year    string
	SavedAt time.Time
	Nodes   int
	Edges   int
}

// CacheName returns the cache file name for the given (title, year) pair.
func CacheName(title, year string) string {
	return title + "_" + year + FileExt
}

// WriteFile writes a snapshot cache file atomically: frames go to a
// temporary file first, which is renamed over the target only after a
// successful flush. A crash mid-write leaves the old file untouched.
func WriteFile(path string, data *SnapshotData) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create temp cache file: %w", err)
	}
	defer os.Remove(tmp)

	fw := NewFrameWriter(f)

	header := fileHeader{
		Title:   data.Title,
		Year:    data.Year,
		SavedAt: data.SavedAt,
		Nodes:   len(data.Nodes),
		Edges:   len(data.Edges),
	}

	// 1. Header frame
	if err := writeGobFrame(fw, OpCodeHeader, header); err != nil {
		f.Close()
		return err
	}

	// 2. Node frame
	if err := writeGobFrame(fw, OpCodeNodes, data.Nodes); err != nil {
		f.Close()
		return err
	}

	// 3. Edge frame
	if err := writeGobFrame(fw, OpCodeEdges, data.Edges); err != nil {
		f.Close()
		return err
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close temp cache file: %w", err)
	}

	// 4. Atomic swap
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to swap cache file into place: %w", err)
	}
	return nil
}

// ReadFile reads and validates a snapshot cache file.
// Any error means the cache is unusable and the caller should rebuild
// from the JSON source.
func ReadFile(path string) (*SnapshotData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var header fileHeader
	if err := readGobFrame(f, OpCodeHeader, &header); err != nil {
		return nil, fmt.Errorf("cache %s: %w", path, err)
	}

	data := &SnapshotData{
		Title:   header.Title,
		Year:    header.Year,
		SavedAt: header.SavedAt,
	}

	if err := readGobFrame(f, OpCodeNodes, &data.Nodes); err != nil {
		return nil, fmt.Errorf("cache %s: %w", path, err)
	}
	if err := readGobFrame(f, OpCodeEdges, &data.Edges); err != nil {
		return nil, fmt.Errorf("cache %s: %w", path, err)
	}

	if len(data.Nodes) != header.Nodes || len(data.Edges) != header.Edges {
		return nil, fmt.Errorf("cache %s: header declares %d nodes / %d edges, file carries %d / %d",
			path, header.Nodes, header.Edges, len(data.Nodes), len(data.Edges))
	}

	return data, nil
}

func writeGobFrame(fw *FrameWriter, opCode byte, v any) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return fmt.Errorf("failed to encode frame 0x%02x: %w", opCode, err)
	}
	return fw.WriteFrame(opCode, buf.Bytes())
}

func readGobFrame(r io.Reader, want byte, v any) error {
	opCode, payload, _, err := ReadFrame(r)
	if err != nil {
		return err
	}
	if opCode != want {
		return fmt.Errorf("%w: got 0x%02x, want 0x%02x", ErrUnexpectedOpCode, opCode, want)
	}
	if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(v); err != nil {
		return fmt.Errorf("failed to decode frame 0x%02x: %w", want, err)
	}
	return nil
}
