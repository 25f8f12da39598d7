package store

import (
	"encoding/json"
	"strconv"
)

// Documents live in memory as decoded JSON: map[string]any nodes, []any
// sequences, and scalar leaves. These helpers walk and rewrite that shape and
// are shared by every backend.

// Normalize round-trips value through JSON so stored trees never alias
// caller-owned structs and always use the decoded-JSON shape.
func Normalize(value any) (any, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ValueAt resolves the subtree at the given segments, or (nil, false) when
// any segment is missing. Numeric segments index into sequences.
func ValueAt(node any, segments []string) (any, bool) {
	for _, seg := range segments {
		switch n := node.(type) {
		case map[string]any:
			child, ok := n[seg]
			if !ok {
				return nil, false
			}
			node = child
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(n) {
				return nil, false
			}
			node = n[i]
		default:
			return nil, false
		}
	}
	return node, true
}

// SetAt overwrites the subtree at the given segments, creating map nodes for
// missing intermediates and growing sequences when a numeric segment lands
// one past the end. Returns the (possibly replaced) root node.
func SetAt(node any, segments []string, value any) any {
	if len(segments) == 0 {
		return value
	}
	seg := segments[0]
	if i, err := strconv.Atoi(seg); err == nil && i >= 0 {
		// Numeric segments index sequences, unless the node is already an
		// object keyed by numeric strings.
		if m, ok := node.(map[string]any); ok {
			m[seg] = SetAt(m[seg], segments[1:], value)
			return m
		}
		seq, _ := node.([]any)
		for i >= len(seq) {
			seq = append(seq, nil)
		}
		seq[i] = SetAt(seq[i], segments[1:], value)
		return seq
	}
	m, ok := node.(map[string]any)
	if !ok {
		m = make(map[string]any)
	}
	m[seg] = SetAt(m[seg], segments[1:], value)
	return m
}

// EncodeAt marshals the subtree at segments, returning nil bytes when absent.
func EncodeAt(node any, segments []string) ([]byte, error) {
	sub, ok := ValueAt(node, segments)
	if !ok || sub == nil {
		return nil, nil
	}
	return json.Marshal(sub)
}

// SameJSON reports whether two values have identical JSON encodings after
// normalization. Used for CompareAndSet equality.
func SameJSON(a, b any) bool {
	na, err := Normalize(a)
	if err != nil {
		return false
	}
	nb, err := Normalize(b)
	if err != nil {
		return false
	}
	da, _ := json.Marshal(na)
	db, _ := json.Marshal(nb)
	return string(da) == string(db)
}
