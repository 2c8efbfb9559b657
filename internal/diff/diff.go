// Package diff computes structural differences between JSON-like values.
//
// Values are walked as a closed set of kinds (object, array, scalar, null)
// so the algorithm stays independent of where the trees came from. Output
// order is deterministic for a fixed input pair: object keys are visited
// sorted, array elements by index.
package diff

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/hoptrace/hoptrace/internal/domain"
)

// Change is one atomic difference between two value trees.
type Change struct {
	Path string          `json:"path"`
	Type domain.DiffType `json:"type"`
	Old  any             `json:"old_value"` // nil for added/removed
	New  any             `json:"new_value"` // nil for added/removed
}

type kind int

const (
	kindNull kind = iota
	kindObject
	kindArray
	kindScalar
)

func kindOf(v any) kind {
	switch v.(type) {
	case nil:
		return kindNull
	case map[string]any:
		return kindObject
	case []any:
		return kindArray
	default:
		return kindScalar
	}
}

// Compute walks before and after and returns every structural difference.
// Object keys present only in after are added, only in before removed;
// keys present in both diverge as changed (same kind, different value) or
// type_changed (different kind). A nil before or after yields no changes:
// a missing snapshot payload cannot be diffed and must not read as a
// corruption signal.
func Compute(before, after any, prefix string) []Change {
	if before == nil || after == nil {
		return nil
	}
	var changes []Change
	walk(prefix, before, after, &changes)
	return changes
}

func walk(path string, before, after any, out *[]Change) {
	kb, ka := kindOf(before), kindOf(after)

	if kb != ka {
		*out = append(*out, Change{Path: path, Type: domain.DiffTypeChanged, Old: before, New: after})
		return
	}

	switch kb {
	case kindObject:
		walkObject(path, before.(map[string]any), after.(map[string]any), out)
	case kindArray:
		walkArray(path, before.([]any), after.([]any), out)
	case kindScalar:
		if !reflect.DeepEqual(before, after) {
			*out = append(*out, Change{Path: path, Type: domain.DiffChanged, Old: before, New: after})
		}
	case kindNull:
		// Two nulls are equal.
	}
}

func walkObject(path string, before, after map[string]any, out *[]Change) {
	keys := make(map[string]bool, len(before)+len(after))
	for k := range before {
		keys[k] = true
	}
	for k := range after {
		keys[k] = true
	}
	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	for _, k := range sorted {
		child := childPath(path, k)
		bv, inBefore := before[k]
		av, inAfter := after[k]
		switch {
		case inBefore && !inAfter:
			*out = append(*out, Change{Path: child, Type: domain.DiffRemoved})
		case !inBefore && inAfter:
			*out = append(*out, Change{Path: child, Type: domain.DiffAdded})
		default:
			walk(child, bv, av, out)
		}
	}
}

func walkArray(path string, before, after []any, out *[]Change) {
	common := len(before)
	if len(after) < common {
		common = len(after)
	}
	for i := 0; i < common; i++ {
		walk(indexPath(path, i), before[i], after[i], out)
	}
	for i := common; i < len(before); i++ {
		*out = append(*out, Change{Path: indexPath(path, i), Type: domain.DiffRemoved})
	}
	for i := common; i < len(after); i++ {
		*out = append(*out, Change{Path: indexPath(path, i), Type: domain.DiffAdded})
	}
}

func childPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func indexPath(path string, i int) string {
	return fmt.Sprintf("%s[%d]", path, i)
}
