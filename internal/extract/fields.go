package extract

import (
	"encoding/json"
	"strings"
)

// Fields is a decoded JSON object with defaulting accessors. Absent, null and
// wrongly typed members all fall back to the supplied default so callers never
// see an undefined value.
type Fields map[string]json.RawMessage

// Object decodes text into Fields. A payload that is not a JSON object is an error.
func Object(text string) (Fields, error) {
	var fields Fields
	if err := Decode(text, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = Fields{}
	}
	return fields, nil
}

// String returns the first non-empty string among keys, or def.
func (f Fields) String(def string, keys ...string) string {
	for _, key := range keys {
		raw, ok := f[key]
		if !ok {
			continue
		}
		var value string
		if err := json.Unmarshal(raw, &value); err != nil {
			continue
		}
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return def
}

// Bool returns the boolean at key, or def.
func (f Fields) Bool(key string, def bool) bool {
	raw, ok := f[key]
	if !ok {
		return def
	}
	var value bool
	if err := json.Unmarshal(raw, &value); err != nil {
		return def
	}
	return value
}

// Int returns the integer at key, or def. Zero counts as absent.
func (f Fields) Int(key string, def int) int {
	raw, ok := f[key]
	if !ok {
		return def
	}
	var value float64
	if err := json.Unmarshal(raw, &value); err != nil || value == 0 {
		return def
	}
	return int(value)
}

// Raw returns the member verbatim unless it is absent or null.
func (f Fields) Raw(key string, def json.RawMessage) json.RawMessage {
	raw, ok := f[key]
	if !ok || isNull(raw) {
		return def
	}
	return raw
}

// Into unmarshals the member into target, reporting whether it was present and valid.
func (f Fields) Into(key string, target any) bool {
	raw, ok := f[key]
	if !ok || isNull(raw) {
		return false
	}
	return json.Unmarshal(raw, target) == nil
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}
