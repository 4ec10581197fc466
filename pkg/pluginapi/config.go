package pluginapi

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is a parsed configuration document: scalars, nested tables and
// lists, as produced by YAML decoding.
type Config map[string]any

// String returns the value at key formatted as text.
func (c Config) String(key string) (string, bool) {
	v, ok := c[key]
	if !ok || v == nil {
		return "", false
	}
	switch s := v.(type) {
	case string:
		return s, true
	case fmt.Stringer:
		return s.String(), true
	}
	return fmt.Sprint(v), true
}

// Int returns an integer value. Whole floats and numeric strings convert.
func (c Config) Int(key string) (int64, bool) {
	switch n := c[key].(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case uint64:
		return int64(n), true
	case float64:
		if n == float64(int64(n)) {
			return int64(n), true
		}
	case string:
		if i, err := strconv.ParseInt(n, 10, 64); err == nil {
			return i, true
		}
	}
	return 0, false
}

// Float returns a numeric value as float64.
func (c Config) Float(key string) (float64, bool) {
	switch n := c[key].(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case string:
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

// Bool returns a boolean value.
func (c Config) Bool(key string) (bool, bool) {
	switch b := c[key].(type) {
	case bool:
		return b, true
	case string:
		if v, err := strconv.ParseBool(b); err == nil {
			return v, true
		}
	}
	return false, false
}

// Sub returns the nested table at key, or nil.
func (c Config) Sub(key string) Config {
	switch m := c[key].(type) {
	case map[string]any:
		return Config(m)
	case Config:
		return m
	}
	return nil
}

// Decode copies the document into a tagged struct using yaml field tags.
func (c Config) Decode(v any) error {
	if len(c) == 0 {
		return nil
	}
	data, err := yaml.Marshal(map[string]any(c))
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding config: %w", err)
	}
	return nil
}
