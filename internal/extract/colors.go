package extract

import (
	"fmt"
	"strconv"
	"strings"
)

// UnknownColor is the label returned when a fill does not match any mapping.
// Decision tables treat it like any other unmatched status, so an unmapped
// highlight surfaces in reports instead of silently passing.
const UnknownColor = "Unknown"

// FillColor describes a cell's background as read from a workbook. Hex is
// the normalized AARRGGBB value; Token carries a legacy palette index when
// the workbook stores one instead of an explicit color.
type FillColor struct {
	Hex   string
	Token string
}

// ColorClassifier maps cell fills to status labels.
type ColorClassifier interface {
	Classify(color FillColor) string
}

// RGB is a red/green/blue triple used to key RGB-based color maps.
type RGB struct {
	R, G, B uint8
}

type rgbClassifier struct {
	labels map[RGB]string
}

// NewRGBClassifier builds a classifier keyed by RGB triples.
func NewRGBClassifier(labels map[RGB]string) ColorClassifier {
	copied := make(map[RGB]string, len(labels))
	for k, v := range labels {
		copied[k] = v
	}
	return &rgbClassifier{labels: copied}
}

func (c *rgbClassifier) Classify(color FillColor) string {
	rgb, ok := parseRGB(color.Hex)
	if !ok {
		return UnknownColor
	}
	if label, ok := c.labels[rgb]; ok {
		return label
	}
	return UnknownColor
}

type tokenClassifier struct {
	byToken map[string]string
	byHex   map[string]string
}

// NewTokenClassifier builds a classifier whose keys are either legacy
// palette index tokens (short numeric strings) or hex colors. Hex keys are
// normalized to AARRGGBB once, at construction.
func NewTokenClassifier(labels map[string]string) (ColorClassifier, error) {
	c := &tokenClassifier{
		byToken: make(map[string]string),
		byHex:   make(map[string]string),
	}
	for key, label := range labels {
		trimmed := strings.TrimSpace(key)
		if trimmed == "" {
			continue
		}
		if isPaletteToken(trimmed) {
			c.byToken[trimmed] = label
			continue
		}
		hex, err := NormalizeHex(trimmed)
		if err != nil {
			return nil, fmt.Errorf("color key %q: %w", key, err)
		}
		c.byHex[hex] = label
	}
	return c, nil
}

func (c *tokenClassifier) Classify(color FillColor) string {
	if color.Token != "" {
		if label, ok := c.byToken[strings.TrimSpace(color.Token)]; ok {
			return label
		}
	}
	if color.Hex != "" {
		if hex, err := NormalizeHex(color.Hex); err == nil {
			if label, ok := c.byHex[hex]; ok {
				return label
			}
		}
	}
	return UnknownColor
}

// NormalizeHex canonicalizes a color string to upper-case AARRGGBB. Six-digit
// values gain an opaque alpha channel; a leading '#' is dropped.
func NormalizeHex(value string) (string, error) {
	hex := strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(value), "#"))
	switch len(hex) {
	case 6:
		hex = "FF" + hex
	case 8:
	default:
		return "", fmt.Errorf("invalid color %q", value)
	}
	for _, r := range hex {
		if (r < '0' || r > '9') && (r < 'A' || r > 'F') {
			return "", fmt.Errorf("invalid color %q", value)
		}
	}
	return hex, nil
}

func parseRGB(hex string) (RGB, bool) {
	normalized, err := NormalizeHex(hex)
	if err != nil {
		return RGB{}, false
	}
	value, err := strconv.ParseUint(normalized[2:], 16, 32)
	if err != nil {
		return RGB{}, false
	}
	return RGB{
		R: uint8(value >> 16),
		G: uint8(value >> 8),
		B: uint8(value),
	}, true
}

// isPaletteToken reports whether a color key is a legacy indexed-palette
// reference rather than a hex color.
func isPaletteToken(value string) bool {
	if len(value) > 2 {
		return false
	}
	_, err := strconv.Atoi(value)
	return err == nil
}
