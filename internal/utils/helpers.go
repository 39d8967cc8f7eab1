package utils

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ToFloat coerces the numeric shapes that show up in decoded event
// payloads. JSON numbers arrive as float64; handlers occasionally pass
// native ints when synthesizing test events.
func ToFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// ToString stringifies a payload value for substitution and matching
func ToString(v interface{}) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// ParseEventType extracts the event type from a bridge topic like
// "events/raid". Returns "" for topics that don't match.
func ParseEventType(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) > 1 {
		return parts[1]
	}
	return ""
}
