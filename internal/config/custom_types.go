package config

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// FlexBool is a toggle that accepts YAML booleans, numbers (non-zero is
// true) and strings such as "true", "1", "yes", "on" or "disabled".
type FlexBool bool

var toggleWords = map[string]bool{
	"yes": true, "y": true, "on": true, "enabled": true,
	"no": false, "n": false, "off": false, "disabled": false,
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (fb *FlexBool) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: toggle must be a scalar", value.Line)
	}
	b, err := parseToggle(value.Tag, value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*fb = FlexBool(b)
	return nil
}

func parseToggle(tag, raw string) (bool, error) {
	switch tag {
	case "!!int", "!!float":
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return false, err
		}
		return f != 0, nil
	case "!!bool", "!!str":
		s := strings.ToLower(strings.TrimSpace(raw))
		if b, ok := toggleWords[s]; ok {
			return b, nil
		}
		b, err := strconv.ParseBool(s)
		if err != nil {
			return false, fmt.Errorf("invalid toggle %q", raw)
		}
		return b, nil
	default:
		return false, fmt.Errorf("invalid toggle of type %s", tag)
	}
}
