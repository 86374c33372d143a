package engine

import (
	"strconv"
	"strings"

	charmlog "github.com/charmbracelet/log"
)

// neutralMidpoint is the fail-soft value for unrecognized self-report input.
// Self-reports are inherently noisy, so normalization never fails; fallbacks
// are logged for observability instead.
const neutralMidpoint = 0.5

// ordinalScale maps the six-point frequency labels evenly across [0, 1].
var ordinalScale = map[string]float64{
	"never":     0.0,
	"rarely":    0.2,
	"sometimes": 0.4,
	"often":     0.6,
	"usually":   0.8,
	"always":    1.0,
}

// NormalizeReportedValue converts one heterogeneous self-report value into a
// canonical load value in [0, 1]. Known frequency labels map through the
// ordinal table; numeric values on a 0–100 convention are scaled down and
// clamped; anything else normalizes to the neutral midpoint. Pure aside from
// the optional fallback log.
func NormalizeReportedValue(raw string, logger *charmlog.Logger) float64 {
	trimmed := strings.TrimSpace(strings.ToLower(raw))
	if value, ok := ordinalScale[trimmed]; ok {
		return value
	}
	if value, err := strconv.ParseFloat(trimmed, 64); err == nil {
		if value > 1 {
			value /= 100
		}
		return clamp01(value)
	}
	if logger != nil {
		logger.Warn("unrecognized self-report value, using neutral midpoint", "raw_value", raw)
	}
	return neutralMidpoint
}

// clamp01 clamps a value into [0, 1].
func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
