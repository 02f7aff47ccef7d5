package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"devboot/internal/domain"
	derrors "devboot/internal/errors"
)

// ParseSettings parses a JSON object, allowing comments and trailing commas,
// into ordered settings. A repeated key keeps its first position and its last
// value.
func ParseSettings(raw string) (domain.Settings, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	data := jsonc.ToJSON([]byte(raw))
	if !gjson.ValidBytes(data) {
		return nil, derrors.Config(derrors.KindInvalidValue, "settings must be valid JSON")
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, derrors.Config(derrors.KindInvalidValue, "settings must be a JSON object")
	}

	var out domain.Settings
	index := make(map[string]int)
	doc.ForEach(func(key, value gjson.Result) bool {
		entry := domain.Setting{Key: key.String(), Value: []byte(value.Raw)}
		if i, seen := index[entry.Key]; seen {
			out[i] = entry
			return true
		}
		index[entry.Key] = len(out)
		out = append(out, entry)
		return true
	})
	return out, nil
}

// settingsFromYAML converts a YAML mapping into ordered settings.
func settingsFromYAML(node *yaml.Node) (domain.Settings, error) {
	var out domain.Settings
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]
		var value any
		if err := valNode.Decode(&value); err != nil {
			return nil, fmt.Errorf("decode %q: %w", keyNode.Value, err)
		}
		raw, err := json.Marshal(normalizeYAML(value))
		if err != nil {
			return nil, fmt.Errorf("encode %q: %w", keyNode.Value, err)
		}
		out = append(out, domain.Setting{Key: keyNode.Value, Value: raw})
	}
	return out, nil
}

// normalizeYAML turns map[any]any values, which encoding/json rejects, into
// map[string]any.
func normalizeYAML(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, inner := range t {
			t[k] = normalizeYAML(inner)
		}
		return t
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, inner := range t {
			m[fmt.Sprint(k)] = normalizeYAML(inner)
		}
		return m
	case []any:
		for i, inner := range t {
			t[i] = normalizeYAML(inner)
		}
		return t
	default:
		return v
	}
}
