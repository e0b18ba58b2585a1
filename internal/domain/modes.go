package domain

import (
	"fmt"
	"strings"
)

// ThinkingMode is the request-level hint for how much reasoning a prompt needs.
type ThinkingMode string

const (
	ThinkingImmediate ThinkingMode = "immediate"
	ThinkingFuture    ThinkingMode = "future"
	ThinkingStrategic ThinkingMode = "strategic"
)

// ThinkingModes lists the supported modes in the order they are reported.
var ThinkingModes = []ThinkingMode{ThinkingImmediate, ThinkingFuture, ThinkingStrategic}

// RequiresThinking reports whether only thinking-capable models may serve the mode.
func (m ThinkingMode) RequiresThinking() bool {
	return m == ThinkingFuture || m == ThinkingStrategic
}

// ParseThinkingMode maps "" to immediate.
func ParseThinkingMode(s string) (ThinkingMode, error) {
	switch m := ThinkingMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ThinkingImmediate, nil
	case ThinkingImmediate, ThinkingFuture, ThinkingStrategic:
		return m, nil
	default:
		return "", fmt.Errorf("unknown thinking mode %q", s)
	}
}

// Priority is the speed/quality knob used when scoring candidates.
type Priority string

const (
	PrioritySpeed    Priority = "speed"
	PriorityQuality  Priority = "quality"
	PriorityBalanced Priority = "balanced"
)

// ParsePriority maps "" to balanced.
func ParsePriority(s string) (Priority, error) {
	switch p := Priority(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PriorityBalanced, nil
	case PrioritySpeed, PriorityQuality, PriorityBalanced:
		return p, nil
	default:
		return "", fmt.Errorf("unknown priority %q", s)
	}
}
