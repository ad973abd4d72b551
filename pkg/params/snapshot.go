package params

import (
	"reflect"
	"sort"
)

// Snapshot is a deep copy of every parameter group, keyed by group name.
//
// A snapshot is taken exactly once per controller invocation, after the
// directory state has been resolved and before caller overrides are
// applied. Comparing it against the post-override groups tells the
// caller which groups an invocation actually changed.
type Snapshot map[string]any

// Take returns a deep copy of all groups.
func Take(g *Groups) Snapshot {
	return Snapshot{
		GroupFloat:  copyScalarMap(g.Float),
		GroupExp:    copyScalarMap(g.Exp),
		GroupString: copyScalarMap(g.String),
		GroupInt:    copyScalarMap(g.Int),
		GroupBool:   copyScalarMap(g.Bool),
		GroupList:   copyListMap(g.List),
		GroupDict:   copyDictMap(g.Dict),
		GroupInput:  copyInputMap(g.Input),
	}
}

// Diff reports the names of groups whose current content differs from
// the snapshot, sorted for stable output.
func Diff(old Snapshot, g *Groups) []string {
	current := Take(g)
	var changed []string
	for name, val := range current {
		if !reflect.DeepEqual(old[name], val) {
			changed = append(changed, name)
		}
	}
	sort.Strings(changed)
	return changed
}

func copyScalarMap[V float64 | string | int | bool](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyListMap(m map[string][]float64) map[string][]float64 {
	out := make(map[string][]float64, len(m))
	for k, v := range m {
		cp := make([]float64, len(v))
		copy(cp, v)
		out[k] = cp
	}
	return out
}

func copyDictMap(m map[string]map[string]float64) map[string]map[string]float64 {
	out := make(map[string]map[string]float64, len(m))
	for k, v := range m {
		out[k] = copyScalarMap(v)
	}
	return out
}

// copyInputMap shallow-copies values: input parameters are treated as
// opaque, and callers must not mutate a value after setting it.
func copyInputMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
