package models

import (
	"encoding/json"
	"strings"
)

// Flag is a boolean that accepts the loose encodings seen in user payloads:
// true/false, "t"/"f", "true"/"false", "1"/"0", "yes"/"no" and the numbers 1/0.
type Flag bool

// ParseFlag normalizes a decoded value into a bool. Anything unrecognized is false.
func ParseFlag(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case Flag:
		return bool(t)
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "t", "true", "1", "y", "yes":
			return true
		}
		return false
	case float64:
		return t == 1
	case float32:
		return t == 1
	case int:
		return t == 1
	case int64:
		return t == 1
	case int32:
		return t == 1
	case json.Number:
		n, err := t.Int64()
		return err == nil && n == 1
	}
	return false
}

func (f *Flag) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = Flag(ParseFlag(v))
	return nil
}

func (f Flag) MarshalJSON() ([]byte, error) {
	return json.Marshal(bool(f))
}
