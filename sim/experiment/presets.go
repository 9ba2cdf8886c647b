package experiment

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/inference-sim/teamsim/sim"
)

//go:embed presets.yaml
var defaultCatalogYAML []byte

// Preset is a named patch of dotted config paths.
type Preset struct {
	ID    string         `yaml:"id"`
	Label string         `yaml:"label"`
	Patch map[string]any `yaml:"patch"`
}

// PresetGroup is a set of mutually exclusive presets; at most one per group applies.
type PresetGroup struct {
	ID      string   `yaml:"id"`
	Label   string   `yaml:"label"`
	Presets []Preset `yaml:"presets"`
}

// Catalog is the full preset catalog.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
type Catalog struct {
	Groups []PresetGroup `yaml:"groups"`
}

// DefaultCatalog returns the built-in preset catalog.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(defaultCatalogYAML)
	if err != nil {
		panic(fmt.Sprintf("built-in preset catalog is invalid: %v", err))
	}
	return c
}

// LoadCatalog reads a preset catalog from a YAML file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading presets: %w", err)
	}
	c, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("presets %s: %w", path, err)
	}
	return c, nil
}

// ParseCatalog decodes a catalog with strict field checking and verifies
// every patch path resolves against the config.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&c); err != nil {
		return nil, err
	}
	probe := sim.DefaultConfig()
	for _, g := range c.Groups {
		for _, p := range g.Presets {
			for path, v := range p.Patch {
				if err := probe.SetPathValue(path, v); err != nil {
					return nil, fmt.Errorf("preset %s=%s: %w", g.ID, p.ID, err)
				}
			}
		}
	}
	return &c, nil
}

// Group returns the group with the given id.
func (c *Catalog) Group(id string) (*PresetGroup, bool) {
	for i := range c.Groups {
		if c.Groups[i].ID == id {
			return &c.Groups[i], true
		}
	}
	return nil, false
}

// Preset returns the preset with the given id.
func (g *PresetGroup) Preset(id string) (*Preset, bool) {
	for i := range g.Presets {
		if g.Presets[i].ID == id {
			return &g.Presets[i], true
		}
	}
	return nil, false
}

// Apply returns base with the selected presets applied in catalog group
// order. selections maps group id to preset id. Unknown ids are errors.
func (c *Catalog) Apply(base sim.Config, selections map[string]string) (sim.Config, error) {
	for groupID, presetID := range selections {
		g, ok := c.Group(groupID)
		if !ok {
			return sim.Config{}, fmt.Errorf("unknown preset group %q", groupID)
		}
		if _, ok := g.Preset(presetID); !ok {
			return sim.Config{}, fmt.Errorf("unknown preset %q in group %q", presetID, groupID)
		}
	}

	cfg := base
	for _, g := range c.Groups {
		id, ok := selections[g.ID]
		if !ok {
			continue
		}
		p, _ := g.Preset(id)
		paths := make([]string, 0, len(p.Patch))
		for path := range p.Patch {
			paths = append(paths, path)
		}
		sort.Strings(paths)
		for _, path := range paths {
			if err := cfg.SetPathValue(path, p.Patch[path]); err != nil {
				return sim.Config{}, fmt.Errorf("preset %s=%s: %w", g.ID, id, err)
			}
		}
	}
	return cfg, nil
}

// ParseSelections parses "group=preset" pairs as given on the command line.
func ParseSelections(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		group, preset, ok := strings.Cut(pair, "=")
		group, preset = strings.TrimSpace(group), strings.TrimSpace(preset)
		if !ok || group == "" || preset == "" {
			return nil, fmt.Errorf("invalid preset selection %q; want group=preset", pair)
		}
		out[group] = preset
	}
	return out, nil
}
