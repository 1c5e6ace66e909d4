package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

const UnknownSafetyLevel = "unknown"

// SafetyLevel is the risk classification of a boarding. Backends send it
// either as a bare string ("Red") or nested in an object ({"level":"Red"});
// Nested records which shape was received so it can be written back the
// same way.
type SafetyLevel struct {
	Value  string
	Nested bool
}

func DirectSafetyLevel(level string) SafetyLevel {
	return SafetyLevel{Value: level}
}

func NestedSafetyLevel(level string) SafetyLevel {
	return SafetyLevel{Value: level, Nested: true}
}

// Level is the normalised, lowercased level, or "unknown" when the
// record carries none.
func (s SafetyLevel) Level() string {
	level := strings.ToLower(strings.TrimSpace(s.Value))
	if level == "" {
		return UnknownSafetyLevel
	}
	return level
}

func (s SafetyLevel) String() string {
	return s.Value
}

func (s SafetyLevel) MarshalJSON() ([]byte, error) {
	if s.Nested {
		return json.Marshal(struct {
			Level string `json:"level"`
		}{Level: s.Value})
	}
	return json.Marshal(s.Value)
}

func (s *SafetyLevel) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = SafetyLevel{}
		return nil
	}
	switch data[0] {
	case '"':
		var level string
		if err := json.Unmarshal(data, &level); err != nil {
			return err
		}
		*s = DirectSafetyLevel(level)
		return nil
	case '{':
		var nested struct {
			Level string `json:"level"`
		}
		if err := json.Unmarshal(data, &nested); err != nil {
			return err
		}
		*s = NestedSafetyLevel(nested.Level)
		return nil
	default:
		return fmt.Errorf("safety level must be a string or an object, got %s", string(data))
	}
}
