package colour

import (
	"regexp"
	"strings"
)

// GradientDirection is the fixed direction of composed gradients.
const GradientDirection = "to right"

var stopRegex = regexp.MustCompile(`rgba?\s*\([^)]*\)`)

// Stops returns every rgb()/rgba() occurrence in s, left to right.
func Stops(s string) []string {
	return stopRegex.FindAllString(s, -1)
}

// Compose builds a renderable linear-gradient expression from the colour
// stops of s. Stop order follows the source string.
func Compose(s string) string {
	stops := Stops(s)

	var b strings.Builder
	b.WriteString("linear-gradient(")
	b.WriteString(GradientDirection)
	for _, stop := range stops {
		b.WriteString(", ")
		b.WriteString(ToHex(stop))
	}
	b.WriteString(")")

	return b.String()
}
