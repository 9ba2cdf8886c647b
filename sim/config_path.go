package sim

import (
	"fmt"
	"math"
	"reflect"
	"strings"
)

// Dotted paths address config fields by their yaml keys, e.g. "team.size"
// or "productOwner.errorProbability".

// SetPath writes a numeric value at a dotted path. Integer fields are rounded.
func (c *Config) SetPath(path string, value float64) error {
	f, err := c.field(path)
	if err != nil {
		return err
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("config path %q: value must be finite, got %v", path, value)
	}
	switch f.Kind() {
	case reflect.Float64:
		f.SetFloat(value)
	case reflect.Int, reflect.Int64:
		f.SetInt(int64(math.Round(value)))
	default:
		return fmt.Errorf("config path %q is not numeric (%s)", path, f.Kind())
	}
	return nil
}

// SetPathValue writes a numeric, string or bool value at a dotted path.
func (c *Config) SetPathValue(path string, value any) error {
	switch v := value.(type) {
	case float64:
		return c.SetPath(path, v)
	case int:
		return c.SetPath(path, float64(v))
	case int64:
		return c.SetPath(path, float64(v))
	case string:
		f, err := c.field(path)
		if err != nil {
			return err
		}
		if f.Kind() != reflect.String {
			return fmt.Errorf("config path %q expects %s, got string %q", path, f.Kind(), v)
		}
		f.SetString(v)
		return nil
	default:
		return fmt.Errorf("config path %q: unsupported value type %T", path, value)
	}
}

// LookupPath reads the numeric value at a dotted path.
func (c Config) LookupPath(path string) (float64, error) {
	f, err := c.field(path)
	if err != nil {
		return 0, err
	}
	switch f.Kind() {
	case reflect.Float64:
		return f.Float(), nil
	case reflect.Int, reflect.Int64:
		return float64(f.Int()), nil
	default:
		return 0, fmt.Errorf("config path %q is not numeric (%s)", path, f.Kind())
	}
}

// IsNumericPath reports whether path resolves to a numeric field.
func IsNumericPath(path string) bool {
	_, err := DefaultConfig().LookupPath(path)
	return err == nil
}

// NumericSnapshot flattens every numeric field into dotted-path keys.
func (c Config) NumericSnapshot() map[string]float64 {
	out := make(map[string]float64)
	walkNumeric(reflect.ValueOf(c), "", func(path string, v float64) {
		out[path] = v
	})
	return out
}

// NumericPaths lists every numeric dotted path in declaration order.
func NumericPaths() []string {
	var paths []string
	walkNumeric(reflect.ValueOf(DefaultConfig()), "", func(path string, _ float64) {
		paths = append(paths, path)
	})
	return paths
}

func (c *Config) field(path string) (reflect.Value, error) {
	if path == "" {
		return reflect.Value{}, fmt.Errorf("empty config path")
	}
	v := reflect.ValueOf(c).Elem()
	for _, part := range strings.Split(path, ".") {
		if v.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("config path %q: %q is not a section", path, part)
		}
		next, ok := fieldByTag(v, part)
		if !ok {
			return reflect.Value{}, fmt.Errorf("config path %q: unknown key %q", path, part)
		}
		v = next
	}
	if v.Kind() == reflect.Struct {
		return reflect.Value{}, fmt.Errorf("config path %q names a section, not a field", path)
	}
	return v, nil
}

func fieldByTag(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if yamlKey(t.Field(i)) == name {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

func yamlKey(f reflect.StructField) string {
	tag := f.Tag.Get("yaml")
	if tag == "" {
		return f.Name
	}
	return strings.Split(tag, ",")[0]
}

func walkNumeric(v reflect.Value, prefix string, visit func(string, float64)) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		key := yamlKey(t.Field(i))
		if prefix != "" {
			key = prefix + "." + key
		}
		f := v.Field(i)
		switch f.Kind() {
		case reflect.Struct:
			walkNumeric(f, key, visit)
		case reflect.Float64:
			visit(key, f.Float())
		case reflect.Int, reflect.Int64:
			visit(key, float64(f.Int()))
		}
	}
}
