package colour

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	// DarkSumThreshold is the largest channel sum (out of 765) still treated
	// as a dark background.
	DarkSumThreshold = 380

	// LowOpacityThreshold is the alpha, on a 0-10 scale, below which a
	// background is treated as transparent.
	LowOpacityThreshold = 3

	// ForegroundLight is the label colour used on dark backgrounds.
	ForegroundLight = "white"

	// ForegroundDark is the label colour used on light or transparent backgrounds.
	ForegroundDark = "black"
)

var (
	nonNumericRegex = regexp.MustCompile(`[^\d,]`)
	colourFuncRegex = regexp.MustCompile(`rgba?\s*\(`)
	alphaRegex      = regexp.MustCompile(`rgba\s*\(\s*[^,)]*,[^,)]*,[^,)]*,\s*([0-9]*\.?[0-9]+)\s*(%?)\s*\)`)
	validInputRegex = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})(?:!important)?\n?$`)
)

// channels strips everything except digits and commas and returns the first
// three comma-separated fields as integers. Missing or empty fields read as 0.
func channels(s string) [3]int {
	var out [3]int
	fields := strings.Split(nonNumericRegex.ReplaceAllString(s, ""), ",")
	for i := 0; i < len(out) && i < len(fields); i++ {
		// Only digits remain; errors mean empty or overflowing fields.
		n, err := strconv.Atoi(fields[i])
		if err != nil {
			continue
		}
		out[i] = n
	}
	return out
}

// clampByte restricts a channel value to 0-255.
func clampByte(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// Components extracts the RGB channels and, for rgba() strings, the alpha
// channel of a raw colour. Named colours are resolved through the named
// colour table. Malformed input never fails; it produces whatever channels
// the digit stripping yields.
func Components(s string) RGBA {
	if hex, ok := NamedHex(s); ok {
		rgb, err := ParseHex(hex)
		if err == nil {
			return RGBA{RGB: rgb, A: 1}
		}
	}

	ch := channels(s)
	c := RGBA{
		RGB: RGB{R: clampByte(ch[0]), G: clampByte(ch[1]), B: clampByte(ch[2])},
		A:   1,
	}

	if m := alphaRegex.FindStringSubmatch(s); m != nil {
		a, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			if m[2] == "%" {
				a /= 100
			}
			c.A = a
			c.HasAlpha = true
		}
	}

	return c
}

// IsGradient reports whether s holds more than one rgb()/rgba() stop.
// Named colours and single colour functions are solid.
func IsGradient(s string) bool {
	if IsNamed(s) {
		return false
	}
	return len(colourFuncRegex.FindAllStringIndex(s, -1)) > 1
}

// ToHex converts a single rgb()/rgba() string to "#rrggbb". Alpha is ignored.
func ToHex(s string) string {
	ch := channels(s)
	return RGB{R: clampByte(ch[0]), G: clampByte(ch[1]), B: clampByte(ch[2])}.Hex()
}

// CanonicalRender returns the display form of a raw colour: named colours
// unchanged, gradients as a linear-gradient expression, everything else as hex.
func CanonicalRender(s string) string {
	switch {
	case IsNamed(s):
		return s
	case IsGradient(s):
		return Compose(s)
	default:
		return ToHex(s)
	}
}

// ForegroundFor returns the legible label colour ("black" or "white") for
// text drawn over the given background colour. For gradients the first stop
// decides.
func ForegroundFor(background string) string {
	if IsGradient(background) {
		background = Stops(background)[0]
	}
	c := Components(background)

	if c.HasAlpha && c.A*10 < LowOpacityThreshold {
		return ForegroundDark
	}

	if c.Sum() <= DarkSumThreshold {
		return ForegroundLight
	}
	return ForegroundDark
}

// IsValidInput reports whether s is acceptable as a replacement colour: a
// 3 or 6 digit hex literal (optionally suffixed with !important and a
// trailing newline) or a named colour.
func IsValidInput(s string) bool {
	return validInputRegex.MatchString(s) || IsNamed(s)
}

// Computed returns the colour a browser reports back for a style value it
// was given: hex literals and named colours become rgb(), a trailing
// !important and surrounding whitespace are dropped. Anything else is
// returned trimmed.
func Computed(value string) string {
	value = strings.TrimSpace(value)
	value = strings.TrimSpace(strings.TrimSuffix(value, "!important"))

	if hex, ok := NamedHex(value); ok {
		value = hex
	}
	if strings.HasPrefix(value, "#") {
		if rgb, err := ParseHex(value); err == nil {
			return rgb.String()
		}
	}
	return value
}
