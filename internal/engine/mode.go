package engine

import (
	"fmt"
	"strings"
)

// Mode selects which analyzer sources a run uses.
type Mode string

const (
	ModeStaticOnly Mode = "STATIC_ONLY"
	ModeModelOnly  Mode = "MODEL_ONLY"
	ModeHybrid     Mode = "HYBRID"
)

// InvalidModeError rejects an unrecognized mode before any analyzer runs.
type InvalidModeError struct {
	Value string
}

func (e *InvalidModeError) Error() string {
	return fmt.Sprintf("invalid analysis mode %q", e.Value)
}

// ParseMode normalizes a loosely-typed mode value.
func ParseMode(s string) (Mode, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.NewReplacer("-", "_", " ", "_").Replace(v)
	switch v {
	case "static", "static_only":
		return ModeStaticOnly, nil
	case "model", "model_only", "llm", "llm_only":
		return ModeModelOnly, nil
	case "hybrid", "both":
		return ModeHybrid, nil
	default:
		return "", &InvalidModeError{Value: s}
	}
}

func validMode(m Mode) bool {
	switch m {
	case ModeStaticOnly, ModeModelOnly, ModeHybrid:
		return true
	}
	return false
}
