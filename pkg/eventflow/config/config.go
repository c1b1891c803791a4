package config

import (
	"fmt"
	"time"
)

// Config is a read-only view over a decoded YAML or JSON document.
// Accessors never fail: a missing key or a value of the wrong type yields
// the supplied default. Use Has to distinguish the two when it matters.
type Config struct {
	data map[string]any
	path string
}

// New creates a Config from the given map.
// If data is nil, an empty Config is returned.
func New(data map[string]any) Config {
	if data == nil {
		data = make(map[string]any)
	}
	return Config{data: data}
}

// Path returns the dotted location of this section inside the root document.
// The root section has an empty path.
func (c Config) Path() string {
	return c.path
}

// Key returns the dotted location of key within this section, for error messages.
func (c Config) Key(key string) string {
	if c.path == "" {
		return key
	}
	return c.path + "." + key
}

// String returns the string value for key, or defaultVal if missing or not a string.
func (c Config) String(key, defaultVal string) string {
	if s, ok := c.data[key].(string); ok {
		return s
	}
	return defaultVal
}

// Bool returns the boolean value for key, or defaultVal if missing or not a bool.
func (c Config) Bool(key string, defaultVal bool) bool {
	if b, ok := c.data[key].(bool); ok {
		return b
	}
	return defaultVal
}

// Int returns the integer value for key, or defaultVal if missing or not convertible.
// Floats are accepted only when they have no fractional part, since JSON
// decodes every number as float64.
func (c Config) Int(key string, defaultVal int) int {
	if n, ok := toInt(c.data[key]); ok {
		return n
	}
	return defaultVal
}

// Float returns the float64 value for key, or defaultVal if missing or not numeric.
func (c Config) Float(key string, defaultVal float64) float64 {
	if f, ok := toFloat(c.data[key]); ok {
		return f
	}
	return defaultVal
}

// Duration returns the duration value for key, or defaultVal if missing or invalid.
//
// Accepts:
//   - string: parsed with time.ParseDuration
//   - int, int64, float64: interpreted as seconds
//   - time.Duration: used directly
func (c Config) Duration(key string, defaultVal time.Duration) time.Duration {
	switch val := c.data[key].(type) {
	case string:
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	case time.Duration:
		return val
	case int, int64, float64:
		f, _ := toFloat(val)
		return time.Duration(f * float64(time.Second))
	}
	return defaultVal
}

// StringSlice returns the string slice for key, or defaultVal if missing or
// if any element is not a string.
func (c Config) StringSlice(key string, defaultVal []string) []string {
	switch val := c.data[key].(type) {
	case []string:
		return val
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return defaultVal
			}
			out = append(out, s)
		}
		return out
	}
	return defaultVal
}

// IntSlice returns the integer slice for key, or defaultVal if missing or if
// any element is not an integer.
func (c Config) IntSlice(key string, defaultVal []int) []int {
	switch val := c.data[key].(type) {
	case []int:
		return val
	case []any:
		out := make([]int, 0, len(val))
		for _, item := range val {
			n, ok := toInt(item)
			if !ok {
				return defaultVal
			}
			out = append(out, n)
		}
		return out
	}
	return defaultVal
}

// Sub returns the nested mapping stored under key.
// The second result is false when the key is missing or not a mapping.
func (c Config) Sub(key string) (Config, bool) {
	m, ok := asMap(c.data[key])
	if !ok {
		return Config{data: map[string]any{}, path: c.Key(key)}, false
	}
	return Config{data: m, path: c.Key(key)}, true
}

// List returns the sequence of mappings stored under key.
// Non-mapping elements cause an error naming their position.
func (c Config) List(key string) ([]Config, error) {
	raw, ok := c.data[key]
	if !ok {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%s: expected a list, got %T", c.Key(key), raw)
	}
	out := make([]Config, 0, len(items))
	for i, item := range items {
		m, ok := asMap(item)
		if !ok {
			return nil, fmt.Errorf("%s[%d]: expected a mapping, got %T", c.Key(key), i, item)
		}
		out = append(out, Config{data: m, path: fmt.Sprintf("%s[%d]", c.Key(key), i)})
	}
	return out, nil
}

// Any returns the raw value for key, or defaultVal if missing.
func (c Config) Any(key string, defaultVal any) any {
	if v, ok := c.data[key]; ok {
		return v
	}
	return defaultVal
}

// Has returns true if the key exists in the config.
func (c Config) Has(key string) bool {
	_, ok := c.data[key]
	return ok
}

// Raw returns the underlying map.
// The returned map should not be modified.
func (c Config) Raw() map[string]any {
	return c.data
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	}
	return nil, false
}

func toInt(v any) (int, bool) {
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	case uint64:
		return int(val), true
	case float64:
		if val == float64(int(val)) {
			return int(val), true
		}
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint64:
		return float64(val), true
	}
	return 0, false
}
