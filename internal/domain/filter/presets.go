package filter

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed presets.yaml
var presetsYAML []byte

// Preset is a named, ready-to-run filter.
type Preset struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Filter      *Request `json:"filter"`
}

// LoadPresets parses a presets document. Filters go through the same JSON
// decoding as client requests so defaults and node shapes match.
func LoadPresets(data []byte) ([]Preset, error) {
	var doc struct {
		Presets []struct {
			Name        string         `yaml:"name"`
			Description string         `yaml:"description"`
			Filter      map[string]any `yaml:"filter"`
		} `yaml:"presets"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse presets: %w", err)
	}

	presets := make([]Preset, 0, len(doc.Presets))
	for _, p := range doc.Presets {
		raw, err := json.Marshal(p.Filter)
		if err != nil {
			return nil, fmt.Errorf("preset %q: %w", p.Name, err)
		}
		var req Request
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, fmt.Errorf("preset %q: %w", p.Name, err)
		}
		presets = append(presets, Preset{Name: p.Name, Description: p.Description, Filter: &req})
	}
	return presets, nil
}

var builtinPresets = sync.OnceValues(func() ([]Preset, error) {
	return LoadPresets(presetsYAML)
})

// Presets returns the built-in presets.
func Presets() ([]Preset, error) {
	return builtinPresets()
}
