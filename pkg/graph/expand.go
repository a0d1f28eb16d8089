package graph

// Expand grows a seed set outward through the adjacency index for depth
// hops and returns the expanded node ids in discovery order, seeds first.
//
// Per hop, each node of the current layer contributes the first
// maxNeighborsPerNode entries of its adjacency list after filtering to the
// allowed edge types; already-visited neighbors still consume cap slots.
// An empty allowedEdgeTypes list permits no edges at all, so expansion
// never leaves the seeds. A non-positive maxNeighborsPerNode means no
// per-node cap. Expansion stops early once a hop discovers nothing new.
//
// The frontier only ever grows, and the result is deterministic because
// adjacency lists preserve dataset edge order.
func (s *Snapshot) Expand(seeds []string, depth, maxNeighborsPerNode int, allowedEdgeTypes []EdgeType) []string {
	allow := make(map[EdgeType]struct{}, len(allowedEdgeTypes))
	for _, t := range allowedEdgeTypes {
		allow[t] = struct{}{}
	}

	expanded := make(map[string]struct{}, len(seeds))
	order := make([]string, 0, len(seeds))
	layer := make([]string, 0, len(seeds))
	for _, id := range seeds {
		if _, seen := expanded[id]; seen {
			continue
		}
		expanded[id] = struct{}{}
		order = append(order, id)
		layer = append(layer, id)
	}

	for d := 0; d < depth; d++ {
		var next []string
		for _, id := range layer {
			taken := 0
			for _, nb := range s.adj[id] {
				if _, ok := allow[nb.Type]; !ok {
					continue
				}
				if maxNeighborsPerNode > 0 && taken >= maxNeighborsPerNode {
					break
				}
				taken++
				if _, seen := expanded[nb.ID]; seen {
					continue
				}
				expanded[nb.ID] = struct{}{}
				order = append(order, nb.ID)
				next = append(next, nb.ID)
			}
		}
		if len(next) == 0 {
			break
		}
		layer = next
	}

	return order
}
