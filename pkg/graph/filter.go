package graph

import "slices"

// nodeTypeAllowed applies the node-type allow-list. An empty list admits
// every type; contrast edge filtering, where an empty list admits nothing.
// The asymmetry is deliberate and load-bearing for callers.
func nodeTypeAllowed(t NodeType, allowed []NodeType) bool {
	return len(allowed) == 0 || slices.Contains(allowed, t)
}

// filtered is the output of the filter stage: the surviving candidate ids
// (still in candidate order), their membership set, and the surviving
// edges (in snapshot order).
type filtered struct {
	nodeIDs []string
	nodeSet map[string]struct{}
	edges   []Edge
}

// filterCandidates reduces a candidate set to its connected, type-allowed
// core. An edge survives when its type is in edgeTypes (empty list: none
// survive) and both endpoints are candidates. A node survives when at
// least one surviving edge touches it and its type passes nodeTypes.
func (s *Snapshot) filterCandidates(candidates []string, candSet map[string]struct{}, nodeTypes []NodeType, edgeTypes []EdgeType) filtered {
	keptEdges := make([]Edge, 0)
	connected := make(map[string]struct{})
	for i := range s.edges {
		e := s.edges[i]
		if !slices.Contains(edgeTypes, e.Type) {
			continue
		}
		if _, ok := candSet[e.Source]; !ok {
			continue
		}
		if _, ok := candSet[e.Target]; !ok {
			continue
		}
		keptEdges = append(keptEdges, e)
		connected[e.Source] = struct{}{}
		connected[e.Target] = struct{}{}
	}

	keptIDs := make([]string, 0, len(connected))
	keptSet := make(map[string]struct{}, len(connected))
	for _, id := range candidates {
		if _, ok := connected[id]; !ok {
			continue
		}
		n, ok := s.Node(id)
		if !ok || !nodeTypeAllowed(n.Type, nodeTypes) {
			continue
		}
		keptIDs = append(keptIDs, id)
		keptSet[id] = struct{}{}
	}

	return filtered{nodeIDs: keptIDs, nodeSet: keptSet, edges: keptEdges}
}
