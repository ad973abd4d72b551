package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/jkshenton/jasp/pkg/params"
)

// ReadInput parses the input-parameter file in dir into parameter
// groups. Lines are KEY = VALUE; blank lines and # or ! comments are
// ignored. Unknown keys are an error — the file is machine-written, so
// an unknown key means version skew, not user sloppiness.
func ReadInput(dir string, g *params.Groups) error {
	path := filepath.Join(dir, InputFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	for lineno, line := range splitLines(string(data)) {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("%s:%d: expected KEY = VALUE, got %q", InputFile, lineno+1, line)
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		parsed, err := parseInputValue(key, value)
		if err != nil {
			return fmt.Errorf("%s:%d: %w", InputFile, lineno+1, err)
		}
		if err := g.Set(key, parsed); err != nil {
			return fmt.Errorf("%s:%d: %w", InputFile, lineno+1, err)
		}
	}
	return nil
}

// parseInputValue converts the file's string representation into the
// value Set expects for the key's group.
func parseInputValue(key, value string) (any, error) {
	switch params.GroupOf(key) {
	case params.GroupFloat, params.GroupExp:
		return strconv.ParseFloat(strings.ReplaceAll(value, "d", "e"), 64)
	case params.GroupInt:
		return strconv.Atoi(value)
	case params.GroupBool:
		switch strings.ToUpper(value) {
		case ".TRUE.", "T", "TRUE":
			return true, nil
		case ".FALSE.", "F", "FALSE":
			return false, nil
		}
		return nil, fmt.Errorf("parameter %q: bad boolean %q", key, value)
	case params.GroupList:
		fields := strings.Fields(value)
		out := make([]float64, len(fields))
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("parameter %q: %w", key, err)
			}
			out[i] = v
		}
		return out, nil
	case params.GroupString:
		return value, nil
	case params.GroupDict, params.GroupInput:
		// Dict and input parameters have no single-line file form; they
		// are carried through overrides only.
		return nil, fmt.Errorf("parameter %q does not belong in %s", key, InputFile)
	}
	return nil, fmt.Errorf("unknown parameter %q", key)
}

// WriteInput writes the scalar and list groups as KEY = VALUE lines,
// sorted by key for reproducible files.
func WriteInput(dir string, g *params.Groups) error {
	var lines []string

	for k, v := range g.Float {
		lines = append(lines, fmt.Sprintf("%s = %g", strings.ToUpper(k), v))
	}
	for k, v := range g.Exp {
		lines = append(lines, fmt.Sprintf("%s = %.2e", strings.ToUpper(k), v))
	}
	for k, v := range g.String {
		lines = append(lines, fmt.Sprintf("%s = %s", strings.ToUpper(k), v))
	}
	for k, v := range g.Int {
		lines = append(lines, fmt.Sprintf("%s = %d", strings.ToUpper(k), v))
	}
	for k, v := range g.Bool {
		s := ".FALSE."
		if v {
			s = ".TRUE."
		}
		lines = append(lines, fmt.Sprintf("%s = %s", strings.ToUpper(k), s))
	}
	for k, v := range g.List {
		fields := make([]string, len(v))
		for i, f := range v {
			fields[i] = strconv.FormatFloat(f, 'g', -1, 64)
		}
		lines = append(lines, fmt.Sprintf("%s = %s", strings.ToUpper(k), strings.Join(fields, " ")))
	}

	sort.Strings(lines)
	return writeFileAtomic(filepath.Join(dir, InputFile), []byte(strings.Join(lines, "\n")+"\n"))
}
