package settings

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseOptions reads "key: value" lines into an options map. Blank lines,
// comments and lines without a key are skipped. Values that decode as YAML
// booleans or numbers keep that type, everything else stays a string.
func ParseOptions(text string) map[string]any {
	out := map[string]any{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		idx := strings.Index(line, ":")
		if idx <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		if key == "" {
			continue
		}
		out[key] = scalar(strings.TrimSpace(line[idx+1:]))
	}
	return out
}

func scalar(raw string) any {
	if raw == "" {
		return ""
	}
	var node yaml.Node
	if err := yaml.Unmarshal([]byte(raw), &node); err != nil || len(node.Content) == 0 {
		return raw
	}
	n := node.Content[0]
	if n.Kind != yaml.ScalarNode {
		return raw
	}
	switch n.Tag {
	case "!!bool":
		// Only the literal spellings, not yes/no/on/off.
		if raw == "true" || raw == "false" {
			return raw == "true"
		}
	case "!!int":
		var i int64
		if err := n.Decode(&i); err == nil {
			return i
		}
	case "!!float":
		var f float64
		if err := n.Decode(&f); err == nil {
			return f
		}
	}
	return raw
}

// FormatOptions is the inverse of ParseOptions, one key per line sorted by key.
func FormatOptions(options map[string]any) string {
	if len(options) == 0 {
		return ""
	}
	keys := make([]string, 0, len(options))
	for k := range options {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s: %v", k, options[k]))
	}
	return strings.Join(lines, "\n")
}
