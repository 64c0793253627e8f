package config

import (
	"fmt"
	"strings"

	"coopsched/internal/hal"
)

// Parse returns the level the event drives.
func (e PinEvent) Parse() (hal.Level, error) {
	switch strings.ToLower(strings.TrimSpace(e.Level)) {
	case "high", "1":
		return hal.High, nil
	case "low", "0":
		return hal.Low, nil
	}
	return hal.Low, fmt.Errorf("unknown level %q", e.Level)
}
