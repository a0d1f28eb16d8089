package graph

import "strings"

// SearchLogic selects how multiple search terms combine.
type SearchLogic string

const (
	// LogicOR matches a node when any term is contained in any of its
	// collected field values.
	LogicOR SearchLogic = "or"
	// LogicAND matches a node when every term is contained in at least one
	// (possibly different) collected field value.
	LogicAND SearchLogic = "and"
)

// Valid reports whether l is a known logic.
func (l SearchLogic) Valid() bool { return l == LogicOR || l == LogicAND }

// Search matches free-text terms against the given semantic fields of
// every node and returns the matching node ids in snapshot order. Terms
// are lower-cased and trimmed before comparison; matching is
// case-insensitive substring containment. Nodes that produce no value for
// any of the fields never match.
func (s *Snapshot) Search(terms, fields []string, logic SearchLogic) []string {
	norm := make([]string, len(terms))
	for i, t := range terms {
		norm[i] = strings.ToLower(strings.TrimSpace(t))
	}

	ids := make([]string, 0)
	for i := range s.nodes {
		n := &s.nodes[i]
		vals := searchValues(n, fields)
		if len(vals) == 0 {
			continue
		}
		if matchesTerms(norm, vals, logic) {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

func matchesTerms(terms, vals []string, logic SearchLogic) bool {
	if logic == LogicAND {
		for _, t := range terms {
			if !anyContains(vals, t) {
				return false
			}
		}
		return len(terms) > 0
	}
	for _, t := range terms {
		if anyContains(vals, t) {
			return true
		}
	}
	return false
}

func anyContains(vals []string, term string) bool {
	for _, v := range vals {
		if strings.Contains(v, term) {
			return true
		}
	}
	return false
}
