package graph

import "strings"

// Search field names recognized by ExtractField. Any other name falls back
// to a direct attribute lookup.
const (
	FieldText         = "text"
	FieldFullName     = "full_name"
	FieldDisplayLabel = "display_label"
	FieldDefinition   = "definition"
	FieldEntity       = "entity"
	FieldConcept      = "concept"
	FieldProperties   = "properties"
)

// propString returns the property-bag entry for key if it is a non-empty
// string. Only string values are searchable; numeric bag entries would
// otherwise grow invented text like "61.0".
func propString(props map[string]any, key string) string {
	if props == nil {
		return ""
	}
	if v, ok := props[key].(string); ok {
		return v
	}
	return ""
}

// firstNonEmpty returns the first non-empty string of vals.
func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// ExtractField resolves one semantic search field of a node to its
// searchable string value. The fallback order per field is fixed here and
// nowhere else:
//
//	text          bag "text", node Text, bag "section_text", bag "index_heading"
//	full_name     bag "full_name", node FullName
//	display_label node Label
//	definition    bag "definition"
//	entity        node Name, only for entity nodes
//	concept       node Name, only for concept nodes
//
// Any other field name resolves to the node attribute of that name, then
// to the bag entry of that name. The second return is false when the field
// produced no value for this node. The "properties" pseudo-field flattens
// to multiple values and is handled by searchValues, not here.
func ExtractField(n *Node, field string) (string, bool) {
	var v string
	switch field {
	case FieldText:
		v = firstNonEmpty(propString(n.Props, "text"), n.Text,
			propString(n.Props, "section_text"), propString(n.Props, "index_heading"))
	case FieldFullName:
		v = firstNonEmpty(propString(n.Props, "full_name"), n.FullName)
	case FieldDisplayLabel:
		v = n.Label
	case FieldDefinition:
		v = propString(n.Props, "definition")
	case FieldEntity:
		if n.Type == NodeEntity {
			v = n.Name
		}
	case FieldConcept:
		if n.Type == NodeConcept {
			v = n.Name
		}
	default:
		v = directAttr(n, field)
	}
	return v, v != ""
}

// directAttr is the catch-all lookup for unrecognized field names: known
// top-level attributes first, then the property bag.
func directAttr(n *Node, field string) string {
	switch field {
	case "id":
		return n.ID
	case "name":
		return n.Name
	case "type":
		return string(n.Type)
	case "label":
		return n.Label
	case "year":
		return n.Year
	}
	return propString(n.Props, field)
}

// searchValues collects every searchable value of n for the given fields,
// lower-cased for case-insensitive matching. The "properties" field
// contributes every string-valued bag entry.
func searchValues(n *Node, fields []string) []string {
	var vals []string
	for _, f := range fields {
		if f == FieldProperties {
			for _, raw := range n.Props {
				if s, ok := raw.(string); ok && s != "" {
					vals = append(vals, strings.ToLower(s))
				}
			}
			continue
		}
		if v, ok := ExtractField(n, f); ok {
			vals = append(vals, strings.ToLower(v))
		}
	}
	return vals
}
