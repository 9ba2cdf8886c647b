package experiment

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/inference-sim/teamsim/sim"
)

var (
	// ErrEmptySchema is returned when a unit-mapping schema has no entries.
	ErrEmptySchema = errors.New("unit-mapping schema is empty")
	// ErrInvalidSchema wraps every per-entry schema defect.
	ErrInvalidSchema = errors.New("invalid unit-mapping schema")
)

// Scales and value types a unit mapping may use.
const (
	ScaleLinear = "linear"
	ScaleLog    = "log"

	TypeFloat = "float"
	TypeInt   = "int"
	// TypeRatio maps the unit value onto the info:impl effort ratio, keeping
	// the mean total effort fixed. Target, Min and Max are ignored.
	TypeRatio = "ratio"
)

// Bounds of the info:impl ratio a TypeRatio mapping spans (log scale).
const (
	minEffortRatio = 0.25
	maxEffortRatio = 4.0
)

// UnitMapping maps one unit variable in [0,1) onto a config field.
type UnitMapping struct {
	Target string  `yaml:"target" json:"target"` // dotted config path, e.g. "behavior.askProbability"
	Min    float64 `yaml:"min" json:"min"`
	Max    float64 `yaml:"max" json:"max"`
	Scale  string  `yaml:"scale" json:"scale"` // linear (default) | log
	Type   string  `yaml:"type" json:"type"`   // float (default) | int | ratio
}

// Schema maps unit keys to their mappings.
type Schema map[string]UnitMapping

// Keys returns the unit keys in sorted order.
func (s Schema) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// LoadSchema reads a YAML unit-mapping schema and validates it.
func LoadSchema(path string) (Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema: %w", err)
	}
	s, err := ParseSchema(data)
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", path, err)
	}
	return s, nil
}

// ParseSchema decodes a YAML schema with strict field checking, fills in
// default scale and type, and validates it.
func ParseSchema(data []byte) (Schema, error) {
	var s Schema
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	for k, m := range s {
		if m.Scale == "" {
			m.Scale = ScaleLinear
		}
		if m.Type == "" {
			m.Type = TypeFloat
		}
		s[k] = m
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate reports the first schema defect. An empty schema is ErrEmptySchema;
// every other defect wraps ErrInvalidSchema.
func (s Schema) Validate() error {
	if len(s) == 0 {
		return ErrEmptySchema
	}
	for _, key := range s.Keys() {
		if err := s[key].validate(); err != nil {
			return fmt.Errorf("%w: unit %q: %s", ErrInvalidSchema, key, err)
		}
	}
	return nil
}

func (m UnitMapping) validate() error {
	switch m.Scale {
	case "", ScaleLinear, ScaleLog:
	default:
		return fmt.Errorf("unknown scale %q; valid: linear, log", m.Scale)
	}
	switch m.Type {
	case "", TypeFloat, TypeInt:
	case TypeRatio:
		return nil
	default:
		return fmt.Errorf("unknown type %q; valid: float, int, ratio", m.Type)
	}
	if !sim.IsNumericPath(m.Target) {
		return fmt.Errorf("target %q is not a numeric config path", m.Target)
	}
	if math.IsNaN(m.Min) || math.IsInf(m.Min, 0) || math.IsNaN(m.Max) || math.IsInf(m.Max, 0) {
		return fmt.Errorf("min/max must be finite, got [%v, %v]", m.Min, m.Max)
	}
	if m.Scale == ScaleLog && (m.Min <= 0 || m.Max <= 0) {
		return fmt.Errorf("log scale needs positive bounds, got [%v, %v]", m.Min, m.Max)
	}
	return nil
}
