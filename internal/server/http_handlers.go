// HTTP API handlers.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/pprof"
	"strconv"
	"strings"

	"github.com/taxcodeanalysistool/multiyear-multititle-network-explorer/internal/protocol"
	"github.com/taxcodeanalysistool/multiyear-multititle-network-explorer/pkg/engine"
	"github.com/taxcodeanalysistool/multiyear-multititle-network-explorer/pkg/graph"
)

// registerHTTPHandlers sets up the REST API routes.
func (s *Server) registerHTTPHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/", s.router)
}

// router is the main manual router. It inspects the URL and delegates to
// the correct handler.
func (s *Server) router(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	// --- Debug endpoints (pprof) ---
	if strings.HasPrefix(path, "/debug/pprof") {
		// Delegate to the pprof handlers by suffix
		switch {
		case path == "/debug/pprof/":
			pprof.Index(w, r)
		case path == "/debug/pprof/cmdline":
			pprof.Cmdline(w, r)
		case path == "/debug/pprof/profile":
			pprof.Profile(w, r)
		case path == "/debug/pprof/symbol":
			pprof.Symbol(w, r)
		case path == "/debug/pprof/trace":
			pprof.Trace(w, r)
		default:
			s.writeHTTPError(w, http.StatusNotFound, "pprof endpoint not found")
		}
		return
	}

	// --- Network endpoints ---
	switch path {
	case "/network/build":
		s.handleNetworkBuild(w, r)
		return
	case "/network/search":
		s.handleNetworkSearch(w, r)
		return
	case "/network/expand":
		s.handleNetworkExpand(w, r)
		return
	case "/network/titles":
		s.handleListTitles(w, r)
		return
	}

	// URLs with parameters, like /network/snapshots/{title}/{year}/stats
	if strings.HasPrefix(path, "/network/snapshots/") {
		s.handleSnapshotSubtree(w, r)
		return
	}

	// --- Admin endpoints ---
	switch path {
	case "/admin/snapshots/load":
		s.handleSnapshotLoad(w, r)
		return
	case "/admin/snapshots/drop":
		s.handleSnapshotDrop(w, r)
		return
	case "/admin/manifest/refresh":
		s.handleManifestRefresh(w, r)
		return
	}

	// --- Task endpoints ---
	if strings.HasPrefix(path, "/tasks/") {
		s.handleGetTask(w, r)
		return
	}

	// If no pattern matched, return Not Found.
	s.writeHTTPError(w, http.StatusNotFound, "Endpoint not found")
}

// --- Network handlers ---

func (s *Server) handleNetworkBuild(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeHTTPError(w, http.StatusMethodNotAllowed, "Use POST")
		return
	}

	var req NetworkBuildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeHTTPError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Title == "" || req.Year == "" {
		s.writeHTTPError(w, http.StatusBadRequest, "'title' and 'year' are required")
		return
	}

	result, err := s.Engine.BuildNetwork(req.Title, req.Year, req.Query,
		graph.SearchLogic(req.Logic), graph.RankingMode(req.Mode))
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	s.writeHTTPResponse(w, http.StatusOK, result)
}

func (s *Server) handleNetworkSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeHTTPError(w, http.StatusMethodNotAllowed, "Use POST")
		return
	}

	var req NetworkSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeHTTPError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Title == "" || req.Year == "" {
		s.writeHTTPError(w, http.StatusBadRequest, "'title' and 'year' are required")
		return
	}

	terms := req.Terms
	if len(terms) == 0 && req.RawTerms != "" {
		terms = protocol.ParseTerms(req.RawTerms)
	}

	nodes, err := s.Engine.SearchNodes(req.Title, req.Year, terms, req.Fields,
		graph.SearchLogic(req.Logic))
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	s.writeHTTPResponse(w, http.StatusOK, NetworkSearchResponse{Count: len(nodes), Nodes: nodes})
}

func (s *Server) handleNetworkExpand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeHTTPError(w, http.StatusMethodNotAllowed, "Use POST")
		return
	}

	var req NetworkExpandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeHTTPError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Title == "" || req.Year == "" {
		s.writeHTTPError(w, http.StatusBadRequest, "'title' and 'year' are required")
		return
	}
	if len(req.Seeds) == 0 {
		s.writeHTTPError(w, http.StatusBadRequest, "'seeds' must not be empty")
		return
	}

	nodes, err := s.Engine.ExpandFromSeeds(req.Title, req.Year, req.Seeds,
		req.Depth, req.MaxNeighborsPerNode, req.EdgeTypes)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	s.writeHTTPResponse(w, http.StatusOK, NetworkExpandResponse{Count: len(nodes), Nodes: nodes})
}

func (s *Server) handleListTitles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeHTTPError(w, http.StatusMethodNotAllowed, "Use GET")
		return
	}
	s.writeHTTPResponse(w, http.StatusOK, TitlesResponse{Titles: s.Engine.ListTitles()})
}

// --- Snapshot handlers ---

// handleSnapshotSubtree dispatches /network/snapshots/{title}/{year} and
// everything below it.
func (s *Server) handleSnapshotSubtree(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeHTTPError(w, http.StatusMethodNotAllowed, "Use GET")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/network/snapshots/")
	parts := strings.Split(rest, "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		s.writeHTTPError(w, http.StatusBadRequest, "Expected /network/snapshots/{title}/{year}")
		return
	}
	title, year := parts[0], parts[1]

	switch {
	case len(parts) == 2:
		s.handleSnapshotInfo(w, r, title, year)
	case len(parts) == 3 && parts[2] == "stats":
		s.handleSnapshotStats(w, r, title, year)
	case len(parts) == 3 && parts[2] == "hubs":
		s.handleSnapshotHubs(w, r, title, year)
	case len(parts) == 4 && parts[2] == "nodes" && parts[3] != "":
		s.handleGetNode(w, r, title, year, parts[3])
	default:
		s.writeHTTPError(w, http.StatusNotFound, "Endpoint not found")
	}
}

func (s *Server) handleSnapshotInfo(w http.ResponseWriter, r *http.Request, title, year string) {
	snap, err := s.Engine.Snapshot(title, year)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeHTTPResponse(w, http.StatusOK, SnapshotInfoResponse{
		Title: title,
		Year:  year,
		Nodes: snap.NodeCount(),
		Edges: snap.EdgeCount(),
	})
}

func (s *Server) handleSnapshotStats(w http.ResponseWriter, r *http.Request, title, year string) {
	stats, err := s.Engine.SnapshotStats(title, year)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeHTTPResponse(w, http.StatusOK, SnapshotStatsResponse{
		Title:       title,
		Year:        year,
		DegreeStats: stats,
	})
}

func (s *Server) handleSnapshotHubs(w http.ResponseWriter, r *http.Request, title, year string) {
	n := 10
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.writeHTTPError(w, http.StatusBadRequest, "'n' must be a positive integer")
			return
		}
		n = parsed
	}

	hubs, err := s.Engine.TopHubs(title, year, n)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeHTTPResponse(w, http.StatusOK, HubsResponse{Title: title, Year: year, Hubs: hubs})
}

func (s *Server) handleGetNode(w http.ResponseWriter, r *http.Request, title, year, nodeID string) {
	detail, err := s.Engine.GetNode(title, year, nodeID)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeHTTPResponse(w, http.StatusOK, detail)
}

// --- Admin handlers ---

// handleSnapshotLoad warms a snapshot asynchronously: parsing a large
// dataset JSON can take a while, so the client gets a task id to poll
// instead of a hanging request.
func (s *Server) handleSnapshotLoad(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeHTTPError(w, http.StatusMethodNotAllowed, "Use POST")
		return
	}

	var req AdminSnapshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeHTTPError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Title == "" || req.Year == "" {
		s.writeHTTPError(w, http.StatusBadRequest, "'title' and 'year' are required")
		return
	}

	task := s.taskManager.NewTask()
	go func() {
		task.SetStatus(TaskStatusRunning)
		task.SetProgress(fmt.Sprintf("Loading snapshot %s:%s", req.Title, req.Year))

		if _, err := s.Engine.Snapshot(req.Title, req.Year); err != nil {
			task.SetError(err)
			return
		}

		task.SetProgress(fmt.Sprintf("Snapshot %s:%s resident", req.Title, req.Year))
		task.SetStatus(TaskStatusCompleted)
	}()

	s.writeHTTPResponse(w, http.StatusAccepted, TaskAcceptedResponse{
		TaskID:    task.ID,
		StatusURL: "/tasks/" + task.ID,
	})
}

func (s *Server) handleSnapshotDrop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeHTTPError(w, http.StatusMethodNotAllowed, "Use POST")
		return
	}

	var req AdminSnapshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeHTTPError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Title == "" || req.Year == "" {
		s.writeHTTPError(w, http.StatusBadRequest, "'title' and 'year' are required")
		return
	}

	dropped := s.Engine.DropSnapshot(req.Title, req.Year)
	s.writeHTTPResponse(w, http.StatusOK, map[string]any{"status": "OK", "dropped": dropped})
}

func (s *Server) handleManifestRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeHTTPError(w, http.StatusMethodNotAllowed, "Use POST")
		return
	}

	if err := s.Engine.RefreshManifest(); err != nil {
		s.writeHTTPError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeHTTPResponse(w, http.StatusOK, map[string]string{"status": "OK"})
}

// --- Task handlers ---

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeHTTPError(w, http.StatusMethodNotAllowed, "Use GET")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/tasks/")
	if id == "" {
		s.writeHTTPError(w, http.StatusBadRequest, "Task id must not be empty")
		return
	}

	task, found := s.taskManager.GetTask(id)
	if !found {
		s.writeHTTPError(w, http.StatusNotFound, fmt.Sprintf("Task '%s' not found", id))
		return
	}

	s.writeHTTPResponse(w, http.StatusOK, task.View())
}

// --- HTTP response helpers ---

// writeEngineError maps engine failures onto HTTP statuses: unknown
// snapshots and nodes are 404, rejected queries are 400, anything else
// (dataset parse failures, IO) is 500.
func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrSnapshotNotFound), errors.Is(err, engine.ErrNodeNotFound):
		s.writeHTTPError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, graph.ErrInvalidQuery):
		s.writeHTTPError(w, http.StatusBadRequest, err.Error())
	default:
		s.writeHTTPError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) writeHTTPResponse(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func (s *Server) writeHTTPError(w http.ResponseWriter, statusCode int, message string) {
	s.writeHTTPResponse(w, statusCode, map[string]string{"error": message})
}
