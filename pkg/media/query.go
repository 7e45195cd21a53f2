package media

import (
	"strconv"
	"strings"
)

// State is the environment snapshot a query is evaluated against.
type State struct {
	// Viewport size in CSS pixels.
	Width  int
	Height int

	// ColorScheme is "light" or "dark".
	ColorScheme string

	// ReducedMotion reports the prefers-reduced-motion: reduce preference.
	ReducedMotion bool
}

// evaluate checks query against s. The supported subset covers the features
// the hooks use: min/max width and height, prefers-color-scheme, and
// prefers-reduced-motion, with conditions joined by "and". Anything
// unparsable makes the whole query non-matching.
func evaluate(query string, s State) bool {
	query = strings.TrimSpace(query)
	if query == "" {
		return false
	}

	for _, part := range strings.Split(query, " and ") {
		feature, value, ok := splitCondition(part)
		if !ok {
			return false
		}
		if !evalCondition(feature, value, s) {
			return false
		}
	}
	return true
}

// splitCondition parses "(feature: value)" into its halves.
func splitCondition(cond string) (feature, value string, ok bool) {
	cond = strings.TrimSpace(cond)
	if !strings.HasPrefix(cond, "(") || !strings.HasSuffix(cond, ")") {
		return "", "", false
	}
	cond = cond[1 : len(cond)-1]

	feature, value, found := strings.Cut(cond, ":")
	if !found {
		return "", "", false
	}
	return strings.TrimSpace(feature), strings.TrimSpace(value), true
}

func evalCondition(feature, value string, s State) bool {
	switch feature {
	case "max-width":
		px, ok := parsePx(value)
		return ok && s.Width <= px
	case "min-width":
		px, ok := parsePx(value)
		return ok && s.Width >= px
	case "max-height":
		px, ok := parsePx(value)
		return ok && s.Height <= px
	case "min-height":
		px, ok := parsePx(value)
		return ok && s.Height >= px
	case "prefers-color-scheme":
		return value == s.ColorScheme
	case "prefers-reduced-motion":
		if value == "reduce" {
			return s.ReducedMotion
		}
		return value == "no-preference" && !s.ReducedMotion
	default:
		return false
	}
}

func parsePx(value string) (int, bool) {
	value = strings.TrimSuffix(value, "px")
	px, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, false
	}
	return px, true
}
