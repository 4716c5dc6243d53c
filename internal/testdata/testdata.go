// Package testdata loads test-data mappings and performs ${dot.path}
// variable substitution into step fields.
package testdata

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Data is an arbitrary nested mapping decoded from a test-data JSON file.
type Data map[string]any

// Load reads a test-data JSON file. The document must be a JSON object.
func Load(path string) (Data, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read test data: %w", err)
	}
	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse test data %s: %w", path, err)
	}
	return data, nil
}

var variablePattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Substitute replaces every ${path} occurrence whose dotted path resolves
// through nested mappings with the value's string form. Unresolved
// occurrences are left unchanged and their paths returned as misses.
// There is no escape syntax for a literal ${...}.
func Substitute(text string, data Data) (string, []string) {
	var misses []string
	out := variablePattern.ReplaceAllStringFunc(text, func(match string) string {
		path := match[2 : len(match)-1]
		value, ok := Lookup(data, path)
		if !ok {
			misses = append(misses, path)
			return match
		}
		return stringify(value)
	})
	return out, misses
}

// Lookup traverses data along a dot-separated path. It fails if any segment
// is absent or an intermediate value is not a mapping.
func Lookup(data Data, path string) (any, bool) {
	var current any = map[string]any(data)
	for _, key := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// Merge overlays environment data onto base scenario data. Scalar conflicts
// resolve in favor of base; nested mappings merge recursively.
func Merge(base, overlay Data) Data {
	merged := make(Data, len(base)+len(overlay))
	for k, v := range overlay {
		merged[k] = v
	}
	for k, v := range base {
		bm, bok := v.(map[string]any)
		om, ook := merged[k].(map[string]any)
		if bok && ook {
			merged[k] = map[string]any(Merge(bm, om))
			continue
		}
		merged[k] = v
	}
	return merged
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		// JSON numbers decode as float64; keep integral values clean.
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	case bool:
		return fmt.Sprintf("%t", t)
	case nil:
		return ""
	default:
		raw, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(raw)
	}
}
