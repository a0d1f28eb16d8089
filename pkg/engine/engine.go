// Package engine provides the high-level, embedded interface for the
// network explorer.
//
// It orchestrates the in-memory graph snapshots (one per (title, year)
// pair), the dataset directory they are parsed from and the on-disk binary
// cache that makes reloading them fast, providing a thread-safe instance
// that can be used directly within Go applications without network
// overhead.
//
// Basic usage:
//
//	opts := engine.DefaultOptions("./data")
//	ex, err := engine.Open(opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ex.Close()
//
//	result, err := ex.BuildNetwork("26", "2018", graph.Query{
//	    Terms:         []string{"gross income"},
//	    Fields:        []string{"text"},
//	    EdgeTypes:     []graph.EdgeType{graph.EdgeReference},
//	    Depth:         1,
//	    MaxTotalNodes: 100,
//	}, graph.LogicOR, graph.RankGlobal)
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/taxcodeanalysistool/multiyear-multititle-network-explorer/pkg/dataset"
	"github.com/taxcodeanalysistool/multiyear-multititle-network-explorer/pkg/graph"
	"github.com/taxcodeanalysistool/multiyear-multititle-network-explorer/pkg/metrics"
	"github.com/taxcodeanalysistool/multiyear-multititle-network-explorer/pkg/persistence"
)

var (
	// ErrSnapshotNotFound means the requested (title, year) pair is not
	// listed in the dataset manifest.
	ErrSnapshotNotFound = errors.New("snapshot not found")
	// ErrNodeNotFound means the node id does not exist in the snapshot.
	ErrNodeNotFound = errors.New("node not found")
)

// Options configures the behavior of the Engine, including the dataset
// location and caching policies.
type Options struct {
	// DataDir is the directory holding manifest.json and the dataset
	// files it references. It must already exist.
	DataDir string

	// CacheDirName is the subdirectory of DataDir where binary snapshot
	// caches (.netx) are written (default: "cache").
	CacheDirName string

	// CacheSnapshots enables the binary cache. When on, a snapshot built
	// from JSON is written back as a .netx file, and later loads read
	// that file instead of re-parsing the JSON. A cache file that fails
	// validation is discarded in favor of the JSON source.
	CacheSnapshots bool

	// PreloadAll loads every snapshot listed in the manifest during
	// Open. When off, snapshots load lazily on first use.
	PreloadAll bool

	// ManifestRefreshInterval defines how often the manifest is re-read
	// in the background, picking up dataset files added while running.
	// Set to 0 to disable.
	ManifestRefreshInterval time.Duration
}

// DefaultOptions returns a standard configuration suitable for most use cases.
//
// Defaults:
//   - DataDir: provided path
//   - CacheDirName: "cache"
//   - CacheSnapshots: enabled
//   - PreloadAll: disabled (lazy loading)
//   - ManifestRefresh: every 60s
func DefaultOptions(dataDir string) Options {
	return Options{
		DataDir:                 dataDir,
		CacheDirName:            "cache",
		CacheSnapshots:          true,
		ManifestRefreshInterval: 60 * time.Second,
	}
}

// SnapshotKey identifies one loaded snapshot.
type SnapshotKey struct {
	Title string
	Year  string
}

func (k SnapshotKey) String() string { return k.Title + ":" + k.Year }

// TitleInfo describes one title of the manifest and the load state of its
// years.
type TitleInfo struct {
	Title string     `json:"title"`
	Name  string     `json:"name,omitempty"`
	Years []YearInfo `json:"years"`
}

// YearInfo describes one dataset year. Nodes and Edges are zero unless
// the snapshot is currently loaded.
type YearInfo struct {
	Year   string `json:"year"`
	Loaded bool   `json:"loaded"`
	Nodes  int    `json:"nodes,omitempty"`
	Edges  int    `json:"edges,omitempty"`
}

// Engine is the main entry point of the explorer. It owns the manifest,
// the resident snapshots and the cache directory.
//
// Use Open() to initialize an Engine and Close() to shut it down gracefully.
type Engine struct {
	opts     Options
	cacheDir string

	// mu guards manifest and snaps. Snapshots themselves are immutable,
	// so queries run outside the lock once the pointer is fetched.
	mu       sync.RWMutex
	manifest *dataset.Manifest
	snaps    map[SnapshotKey]*graph.Snapshot

	closed    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// Open initializes a new Engine instance using the provided options.
//
// It performs the following actions:
// 1. Reads the dataset manifest from DataDir.
// 2. Creates the cache directory if caching is enabled.
// 3. Preloads all listed snapshots if requested.
// 4. Starts the background manifest refresh.
//
// This method blocks until the engine is ready to serve queries.
func Open(opts Options) (*Engine, error) {
	if opts.CacheDirName == "" {
		opts.CacheDirName = "cache"
	}

	// 1. Manifest
	m, err := dataset.LoadManifest(opts.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	e := &Engine{
		opts:     opts,
		cacheDir: filepath.Join(opts.DataDir, opts.CacheDirName),
		manifest: m,
		snaps:    make(map[SnapshotKey]*graph.Snapshot),
		closed:   make(chan struct{}),
	}

	// 2. Cache directory
	if opts.CacheSnapshots {
		if err := os.MkdirAll(e.cacheDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	// 3. Preload
	if opts.PreloadAll {
		for _, te := range m.Titles {
			for _, ye := range te.Years {
				if _, err := e.Snapshot(te.Title, ye.Year); err != nil {
					return nil, fmt.Errorf("failed to preload %s:%s: %w", te.Title, ye.Year, err)
				}
			}
		}
	}

	// 4. Background Tasks
	if opts.ManifestRefreshInterval > 0 {
		e.wg.Add(1)
		go e.refreshLoop()
	}

	return e, nil
}

// Close performs a clean shutdown of the Engine.
//
// It stops the background manifest refresh and waits for it to exit.
// Loaded snapshots are simply dropped; the JSON sources and cache files
// on disk remain the durable state.
func (e *Engine) Close() error {
	// Executes the block only once, even if called 100 times
	e.closeOnce.Do(func() {
		close(e.closed)
		e.wg.Wait()
	})
	return nil
}

// Snapshot returns the graph for (title, year), loading it on first use.
// The returned snapshot is immutable and safe for concurrent queries.
func (e *Engine) Snapshot(title, year string) (*graph.Snapshot, error) {
	key := SnapshotKey{Title: title, Year: year}

	// Fast path: already resident.
	e.mu.RLock()
	snap, ok := e.snaps[key]
	e.mu.RUnlock()
	if ok {
		return snap, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if snap, ok := e.snaps[key]; ok {
		return snap, nil
	}
	return e.loadLocked(key)
}

// loadLocked builds the snapshot for key from the cache or the JSON
// source and registers it. Caller holds the write lock.
func (e *Engine) loadLocked(key SnapshotKey) (*graph.Snapshot, error) {
	if _, ok := e.manifest.Lookup(key.Title, key.Year); !ok {
		return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, key)
	}

	start := time.Now()
	source := "cache"

	snap := e.loadFromCache(key)
	if snap == nil {
		source = "json"
		ds, err := dataset.LoadWithManifest(e.manifest, e.opts.DataDir, key.Title, key.Year)
		if err != nil {
			return nil, fmt.Errorf("failed to load dataset %s: %w", key, err)
		}
		snap, err = graph.NewSnapshot(ds.Nodes, ds.Edges)
		if err != nil {
			return nil, fmt.Errorf("invalid dataset %s: %w", key, err)
		}
		e.writeCache(key, ds)
	}

	e.snaps[key] = snap
	metrics.SnapshotNodes.WithLabelValues(key.Title, key.Year).Set(float64(snap.NodeCount()))
	metrics.SnapshotEdges.WithLabelValues(key.Title, key.Year).Set(float64(snap.EdgeCount()))
	metrics.SnapshotsLoaded.Set(float64(len(e.snaps)))

	slog.Info("Snapshot loaded",
		"title", key.Title, "year", key.Year, "source", source,
		"nodes", snap.NodeCount(), "edges", snap.EdgeCount(),
		"elapsed", time.Since(start).Round(time.Millisecond))
	return snap, nil
}

// loadFromCache tries the binary cache. Any failure returns nil so the
// caller falls back to the JSON source; the cache is an accelerator, not
// an authority.
func (e *Engine) loadFromCache(key SnapshotKey) *graph.Snapshot {
	if !e.opts.CacheSnapshots {
		return nil
	}
	path := filepath.Join(e.cacheDir, persistence.CacheName(key.Title, key.Year))

	data, err := persistence.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Warn("Discarding unreadable snapshot cache", "path", path, "error", err)
		}
		return nil
	}
	if data.Title != key.Title || data.Year != key.Year {
		slog.Warn("Discarding mislabeled snapshot cache",
			"path", path, "title", data.Title, "year", data.Year)
		return nil
	}

	snap, err := graph.NewSnapshot(data.Nodes, data.Edges)
	if err != nil {
		slog.Warn("Discarding invalid snapshot cache", "path", path, "error", err)
		return nil
	}
	return snap
}

// writeCache writes the parsed dataset back as a binary cache file.
// Failures are logged and swallowed; the snapshot is already in memory.
func (e *Engine) writeCache(key SnapshotKey, ds *dataset.Dataset) {
	if !e.opts.CacheSnapshots {
		return
	}
	path := filepath.Join(e.cacheDir, persistence.CacheName(key.Title, key.Year))
	data := &persistence.SnapshotData{
		Title:   key.Title,
		Year:    key.Year,
		SavedAt: time.Now(),
		Nodes:   ds.Nodes,
		Edges:   ds.Edges,
	}
	if err := persistence.WriteFile(path, data); err != nil {
		slog.Warn("Failed to write snapshot cache", "path", path, "error", err)
	}
}

// DropSnapshot removes a resident snapshot from memory. It reports
// whether the snapshot was loaded. The dataset and cache files stay on
// disk, so a later query simply reloads it.
func (e *Engine) DropSnapshot(title, year string) bool {
	key := SnapshotKey{Title: title, Year: year}

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.snaps[key]; !ok {
		return false
	}
	delete(e.snaps, key)

	metrics.SnapshotNodes.DeleteLabelValues(title, year)
	metrics.SnapshotEdges.DeleteLabelValues(title, year)
	metrics.SnapshotsLoaded.Set(float64(len(e.snaps)))

	slog.Info("Snapshot dropped", "title", title, "year", year)
	return true
}

// RefreshManifest re-reads manifest.json from the data directory.
// Snapshots already resident stay resident even if their manifest entry
// disappeared; DropSnapshot removes them explicitly.
func (e *Engine) RefreshManifest() error {
	m, err := dataset.LoadManifest(e.opts.DataDir)
	if err != nil {
		return fmt.Errorf("failed to reload manifest: %w", err)
	}

	e.mu.Lock()
	e.manifest = m
	e.mu.Unlock()
	return nil
}

// ListTitles reports every title and year of the manifest together with
// the load state of each snapshot.
func (e *Engine) ListTitles() []TitleInfo {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]TitleInfo, 0, len(e.manifest.Titles))
	for _, te := range e.manifest.Titles {
		info := TitleInfo{Title: te.Title, Name: te.Name}
		for _, ye := range te.Years {
			yi := YearInfo{Year: ye.Year}
			if snap, ok := e.snaps[SnapshotKey{Title: te.Title, Year: ye.Year}]; ok {
				yi.Loaded = true
				yi.Nodes = snap.NodeCount()
				yi.Edges = snap.EdgeCount()
			}
			info.Years = append(info.Years, yi)
		}
		out = append(out, info)
	}
	return out
}

// refreshLoop re-reads the manifest periodically until Close.
// (Unexported: internal use only)
func (e *Engine) refreshLoop() {
	defer e.wg.Done()
	ticker := time.NewTicker(e.opts.ManifestRefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.closed:
			return
		case <-ticker.C:
			if err := e.RefreshManifest(); err != nil {
				slog.Error("Background manifest refresh failed", "error", err)
			}
		}
	}
}
