// Package client provides a Go client for the netexplorer HTTP API.
//
// It offers a type-safe way to perform all major operations, including:
//   - Catalog introspection (ListTitles, SnapshotInfo, SnapshotStats, TopHubs).
//   - Network queries (SearchNodes, ExpandNetwork, BuildNetwork, GetNode).
//   - Snapshot administration (LoadSnapshot, DropSnapshot, RefreshManifest).
//   - Async-task polling (Task.Refresh, Task.Wait).
//
// The client handles HTTP communication, JSON serialization/deserialization,
// bearer-token auth, and standardized error handling.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/taxcodeanalysistool/multiyear-multititle-network-explorer/pkg/graph"
)

// --- Custom Errors ---

// APIError represents an error returned by the netexplorer API (status >= 400).
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Message)
}

// --- JSON Response Structs ---

// YearInfo describes one dataset year of a title.
type YearInfo struct {
	Year   string `json:"year"`
	Loaded bool   `json:"loaded"`
	Nodes  int    `json:"nodes,omitempty"`
	Edges  int    `json:"edges,omitempty"`
}

// TitleInfo describes one statutory title and its available years.
type TitleInfo struct {
	Title string     `json:"title"`
	Name  string     `json:"name"`
	Years []YearInfo `json:"years"`
}

// SnapshotInfo carries the node/edge counts of a loaded snapshot.
type SnapshotInfo struct {
	Title string `json:"title"`
	Year  string `json:"year"`
	Nodes int    `json:"nodes"`
	Edges int    `json:"edges"`
}

// SnapshotStats carries the degree-distribution statistics of a snapshot.
type SnapshotStats struct {
	Title        string  `json:"title"`
	Year         string  `json:"year"`
	Nodes        int     `json:"nodes"`
	Edges        int     `json:"edges"`
	MeanDegree   float64 `json:"mean_degree"`
	MedianDegree float64 `json:"median_degree"`
	P90Degree    float64 `json:"p90_degree"`
	MaxDegree    int     `json:"max_degree"`
}

// NodeDetail is one node together with its adjacency.
type NodeDetail struct {
	Node      graph.Node       `json:"node"`
	Degree    int              `json:"degree"`
	Neighbors []graph.Neighbor `json:"neighbors"`
}

type titlesResponse struct {
	Titles []TitleInfo `json:"titles"`
}

type nodesResponse struct {
	Count int          `json:"count"`
	Nodes []graph.Node `json:"nodes"`
}

type hubsResponse struct {
	Hubs []graph.Hub `json:"hubs"`
}

type acceptedResponse struct {
	TaskID    string `json:"task_id"`
	StatusURL string `json:"status_url"`
}

type dropResponse struct {
	Status  string `json:"status"`
	Dropped bool   `json:"dropped"`
}

// Task represents an asynchronous operation on the netexplorer server.
type Task struct {
	ID              string `json:"id"`
	Status          string `json:"status"`
	ProgressMessage string `json:"progress_message,omitempty"`
	Error           string `json:"error,omitempty"`

	client *Client // Reference to the client for polling.
}

// --- Client ---

// Client is the Go client for interacting with a netexplorer server.
type Client struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
}

// New creates a new netexplorer client. authToken may be empty when the
// server runs without auth.
func New(host string, port int, authToken string) *Client {
	return &Client{
		baseURL:    fmt.Sprintf("http://%s:%d", host, port),
		authToken:  authToken,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// jsonRequest is a helper method to execute all requests to the API.
// It handles JSON serialization, HTTP calls, and error management.
func (c *Client) jsonRequest(method, endpoint string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal JSON payload: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest(method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("connection error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		if json.Unmarshal(respBody, &errResp) == nil && errResp["error"] != "" {
			return nil, &APIError{StatusCode: resp.StatusCode, Message: errResp["error"]}
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	return respBody, nil
}

// Refresh updates the task's status by querying the server.
func (t *Task) Refresh() error {
	if t.client == nil {
		return fmt.Errorf("client is not associated with the task")
	}
	updated, err := t.client.GetTaskStatus(t.ID)
	if err != nil {
		return err
	}
	t.Status = updated.Status
	t.ProgressMessage = updated.ProgressMessage
	t.Error = updated.Error
	return nil
}

// Wait blocks until the task is completed, checking its status at regular intervals.
func (t *Task) Wait(interval, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-timer.C:
			return fmt.Errorf("timeout exceeded while waiting for task %s", t.ID)
		case <-ticker.C:
			if err := t.Refresh(); err != nil {
				return err
			}
			switch t.Status {
			case "completed":
				return nil
			case "failed":
				return fmt.Errorf("task %s failed with error: %s", t.ID, t.Error)
			case "running", "started":
				// Continue waiting.
			default:
				return fmt.Errorf("unknown task status: %s", t.Status)
			}
		}
	}
}

// --- Catalog Methods ---

// Ping checks that the server is up.
func (c *Client) Ping() error {
	_, err := c.jsonRequest(http.MethodGet, "/healthz", nil)
	return err
}

// ListTitles returns the titles and dataset years the server knows about.
func (c *Client) ListTitles() ([]TitleInfo, error) {
	respBody, err := c.jsonRequest(http.MethodGet, "/network/titles", nil)
	if err != nil {
		return nil, err
	}
	var resp titlesResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("invalid JSON response for ListTitles: %w", err)
	}
	return resp.Titles, nil
}

// SnapshotInfo returns the node/edge counts of one snapshot, loading it
// on the server if needed.
func (c *Client) SnapshotInfo(title, year string) (*SnapshotInfo, error) {
	respBody, err := c.jsonRequest(http.MethodGet,
		fmt.Sprintf("/network/snapshots/%s/%s", title, year), nil)
	if err != nil {
		return nil, err
	}
	var resp SnapshotInfo
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("invalid JSON response for SnapshotInfo: %w", err)
	}
	return &resp, nil
}

// SnapshotStats returns the degree-distribution statistics of one snapshot.
func (c *Client) SnapshotStats(title, year string) (*SnapshotStats, error) {
	respBody, err := c.jsonRequest(http.MethodGet,
		fmt.Sprintf("/network/snapshots/%s/%s/stats", title, year), nil)
	if err != nil {
		return nil, err
	}
	var resp SnapshotStats
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("invalid JSON response for SnapshotStats: %w", err)
	}
	return &resp, nil
}

// TopHubs returns the n most connected nodes of one snapshot.
func (c *Client) TopHubs(title, year string, n int) ([]graph.Hub, error) {
	endpoint := fmt.Sprintf("/network/snapshots/%s/%s/hubs", title, year)
	if n > 0 {
		endpoint = fmt.Sprintf("%s?n=%d", endpoint, n)
	}
	respBody, err := c.jsonRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	var resp hubsResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("invalid JSON response for TopHubs: %w", err)
	}
	return resp.Hubs, nil
}

// GetNode returns one node with its degree and neighbor list.
func (c *Client) GetNode(title, year, nodeID string) (*NodeDetail, error) {
	respBody, err := c.jsonRequest(http.MethodGet,
		fmt.Sprintf("/network/snapshots/%s/%s/nodes/%s", title, year, nodeID), nil)
	if err != nil {
		return nil, err
	}
	var resp NodeDetail
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("invalid JSON response for GetNode: %w", err)
	}
	return &resp, nil
}

// --- Query Methods ---

// SearchNodes finds nodes whose fields match the given terms. logic is
// "or" (default) or "and".
func (c *Client) SearchNodes(title, year string, terms, fields []string, logic string) ([]graph.Node, error) {
	payload := map[string]any{
		"title":  title,
		"year":   year,
		"terms":  terms,
		"fields": fields,
	}
	if logic != "" {
		payload["logic"] = logic
	}

	respBody, err := c.jsonRequest(http.MethodPost, "/network/search", payload)
	if err != nil {
		return nil, err
	}
	var resp nodesResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("invalid JSON response for SearchNodes: %w", err)
	}
	return resp.Nodes, nil
}

// SearchNodesRaw is SearchNodes for a user-typed query string; the server
// tokenizes it, honoring double-quoted phrases.
func (c *Client) SearchNodesRaw(title, year, rawTerms string, fields []string, logic string) ([]graph.Node, error) {
	payload := map[string]any{
		"title":     title,
		"year":      year,
		"raw_terms": rawTerms,
		"fields":    fields,
	}
	if logic != "" {
		payload["logic"] = logic
	}

	respBody, err := c.jsonRequest(http.MethodPost, "/network/search", payload)
	if err != nil {
		return nil, err
	}
	var resp nodesResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("invalid JSON response for SearchNodesRaw: %w", err)
	}
	return resp.Nodes, nil
}

// ExpandNetwork walks outward from the seed nodes and returns everything
// reachable under the given limits.
func (c *Client) ExpandNetwork(title, year string, seeds []string, depth, maxNeighborsPerNode int, edgeTypes []graph.EdgeType) ([]graph.Node, error) {
	payload := map[string]any{
		"title":      title,
		"year":       year,
		"seeds":      seeds,
		"depth":      depth,
		"edge_types": edgeTypes,
	}
	if maxNeighborsPerNode > 0 {
		payload["max_neighbors_per_node"] = maxNeighborsPerNode
	}

	respBody, err := c.jsonRequest(http.MethodPost, "/network/expand", payload)
	if err != nil {
		return nil, err
	}
	var resp nodesResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("invalid JSON response for ExpandNetwork: %w", err)
	}
	return resp.Nodes, nil
}

// BuildNetwork runs the full query pipeline and returns the assembled
// subgraph. logic is "or"/"and", mode is "global"/"subgraph"; empty
// strings select the defaults.
func (c *Client) BuildNetwork(title, year string, query graph.Query, logic, mode string) (*graph.FilteredGraph, error) {
	payload := map[string]any{
		"title": title,
		"year":  year,
		"query": query,
	}
	if logic != "" {
		payload["logic"] = logic
	}
	if mode != "" {
		payload["mode"] = mode
	}

	respBody, err := c.jsonRequest(http.MethodPost, "/network/build", payload)
	if err != nil {
		return nil, err
	}
	var resp graph.FilteredGraph
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("invalid JSON response for BuildNetwork: %w", err)
	}
	return &resp, nil
}

// --- Administration Methods ---

// LoadSnapshot asks the server to warm one snapshot and returns a Task
// to poll.
func (c *Client) LoadSnapshot(title, year string) (*Task, error) {
	payload := map[string]string{"title": title, "year": year}
	respBody, err := c.jsonRequest(http.MethodPost, "/admin/snapshots/load", payload)
	if err != nil {
		return nil, err
	}

	var resp acceptedResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("invalid JSON response for LoadSnapshot: %w", err)
	}
	return &Task{ID: resp.TaskID, Status: "started", client: c}, nil
}

// DropSnapshot evicts one snapshot from server memory. Reports whether
// the snapshot was resident.
func (c *Client) DropSnapshot(title, year string) (bool, error) {
	payload := map[string]string{"title": title, "year": year}
	respBody, err := c.jsonRequest(http.MethodPost, "/admin/snapshots/drop", payload)
	if err != nil {
		return false, err
	}
	var resp dropResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return false, fmt.Errorf("invalid JSON response for DropSnapshot: %w", err)
	}
	return resp.Dropped, nil
}

// RefreshManifest makes the server re-read its dataset manifest.
func (c *Client) RefreshManifest() error {
	_, err := c.jsonRequest(http.MethodPost, "/admin/manifest/refresh", nil)
	return err
}

// GetTaskStatus retrieves the status of a long-running task.
func (c *Client) GetTaskStatus(taskID string) (*Task, error) {
	respBody, err := c.jsonRequest(http.MethodGet, "/tasks/"+taskID, nil)
	if err != nil {
		return nil, err
	}

	var task Task
	if err := json.Unmarshal(respBody, &task); err != nil {
		return nil, fmt.Errorf("invalid JSON response for GetTaskStatus: %w", err)
	}
	task.client = c
	return &task, nil
}
