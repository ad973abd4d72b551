// Package params models the calculator's configuration parameters as
// typed groups, mirroring the grouping the engine's input file uses.
//
// Groups are the unit of change detection: a snapshot deep-copies every
// group, and a later diff reports which groups were touched. Downstream
// consumers use that to decide whether a cached finished result is stale.
package params

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// Groups holds all parameter groups for one job handle.
//
// Every map is non-nil after NewGroups. Keys are lowercase; the engine
// file codecs handle case conversion at the file boundary.
type Groups struct {
	Float  map[string]float64
	Exp    map[string]float64
	String map[string]string
	Int    map[string]int
	Bool   map[string]bool
	List   map[string][]float64
	Dict   map[string]map[string]float64
	Input  map[string]any
}

// Group names used by snapshots and diffs.
const (
	GroupFloat  = "float"
	GroupExp    = "exp"
	GroupString = "string"
	GroupInt    = "int"
	GroupBool   = "bool"
	GroupList   = "list"
	GroupDict   = "dict"
	GroupInput  = "input"
)

// Known keys per group. Unknown keys are rejected so that typos in
// overrides surface immediately instead of silently writing a bad
// input file.
var (
	floatKeys  = keySet("encut", "sigma", "potim", "amix", "bmix", "time", "emin", "emax", "spring")
	expKeys    = keySet("ediff", "ediffg", "symprec")
	stringKeys = keySet("prec", "algo", "gga", "xc", "system")
	intKeys    = keySet("ibrion", "isif", "ispin", "images", "nsw", "nbands", "ismear", "istart", "icharg", "lorbit", "npar", "nelm", "nelmin", "ngx", "ngy", "ngz")
	boolKeys   = keySet("lwave", "lcharg", "lvtot", "ldau", "lasph", "lvhar")
	listKeys   = keySet("magmom", "dipol", "ropt", "rwigs")
	dictKeys   = keySet("ldau_luj")
	inputKeys  = keySet("kpts", "gamma", "reciprocal", "setups", "txt")
)

func keySet(keys ...string) map[string]struct{} {
	s := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

// NewGroups returns an empty parameter set with all groups allocated.
func NewGroups() *Groups {
	return &Groups{
		Float:  map[string]float64{},
		Exp:    map[string]float64{},
		String: map[string]string{},
		Int:    map[string]int{},
		Bool:   map[string]bool{},
		List:   map[string][]float64{},
		Dict:   map[string]map[string]float64{},
		Input:  map[string]any{},
	}
}

// GroupOf returns the group name a key belongs to, or "" if the key is
// not recognized.
func GroupOf(key string) string {
	key = strings.ToLower(key)
	switch {
	case has(floatKeys, key):
		return GroupFloat
	case has(expKeys, key):
		return GroupExp
	case has(stringKeys, key):
		return GroupString
	case has(intKeys, key):
		return GroupInt
	case has(boolKeys, key):
		return GroupBool
	case has(listKeys, key):
		return GroupList
	case has(dictKeys, key):
		return GroupDict
	case has(inputKeys, key):
		return GroupInput
	}
	return ""
}

func has(s map[string]struct{}, k string) bool {
	_, ok := s[k]
	return ok
}

// Set assigns one parameter, coercing the value into the group's type.
//
// Coercion is weakly typed (an int override for a float key is fine)
// because override maps typically come from YAML or CLI strings.
func (g *Groups) Set(key string, value any) error {
	key = strings.ToLower(key)
	group := GroupOf(key)
	if group == "" {
		return fmt.Errorf("unknown parameter %q", key)
	}

	switch group {
	case GroupFloat:
		var v float64
		if err := weakDecode(value, &v); err != nil {
			return fmt.Errorf("parameter %q: %w", key, err)
		}
		g.Float[key] = v
	case GroupExp:
		var v float64
		if err := weakDecode(value, &v); err != nil {
			return fmt.Errorf("parameter %q: %w", key, err)
		}
		g.Exp[key] = v
	case GroupString:
		var v string
		if err := weakDecode(value, &v); err != nil {
			return fmt.Errorf("parameter %q: %w", key, err)
		}
		g.String[key] = v
	case GroupInt:
		var v int
		if err := weakDecode(value, &v); err != nil {
			return fmt.Errorf("parameter %q: %w", key, err)
		}
		g.Int[key] = v
	case GroupBool:
		var v bool
		if err := weakDecode(value, &v); err != nil {
			return fmt.Errorf("parameter %q: %w", key, err)
		}
		g.Bool[key] = v
	case GroupList:
		var v []float64
		if err := weakDecode(value, &v); err != nil {
			return fmt.Errorf("parameter %q: %w", key, err)
		}
		g.List[key] = v
	case GroupDict:
		var v map[string]float64
		if err := weakDecode(value, &v); err != nil {
			return fmt.Errorf("parameter %q: %w", key, err)
		}
		g.Dict[key] = v
	case GroupInput:
		g.Input[key] = value
	}
	return nil
}

// Apply sets every key in overrides. Keys are applied in sorted order so
// failures are deterministic; the first bad key aborts the whole apply.
func (g *Groups) Apply(overrides map[string]any) error {
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := g.Set(k, overrides[k]); err != nil {
			return err
		}
	}
	return nil
}

// weakDecode coerces value into out using mapstructure's weakly typed
// rules (strings to numbers, ints to floats, and so on).
func weakDecode(value, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(value)
}
