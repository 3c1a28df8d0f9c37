// Package avatar renders initials avatars for organizations without a picture.
package avatar

import (
	"fmt"
	"html"
	"strconv"
	"strings"
	"unicode/utf16"
)

const DefaultSize = 100

// Initials takes the first character of each space-separated word and
// keeps the first two, upper-cased.
func Initials(name string) string {
	var b []rune
	for _, word := range strings.Split(name, " ") {
		for _, r := range word {
			b = append(b, r)
			break
		}
		if len(b) == 2 {
			break
		}
	}
	return strings.ToUpper(string(b))
}

// Hue derives a stable hue in [0, 360) from the UTF-16 code units of name.
func Hue(name string) int {
	sum := 0
	for _, u := range utf16.Encode([]rune(name)) {
		sum += int(u)
	}
	return sum % 360
}

// ParseSize reads a leading integer the way browsers parse size hints
// ("120px" is 120). Missing, invalid or non-positive values give DefaultSize.
func ParseSize(raw string) int {
	raw = strings.TrimSpace(raw)
	end := 0
	for end < len(raw) && raw[end] >= '0' && raw[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(raw[:end])
	if err != nil || n <= 0 {
		return DefaultSize
	}
	return n
}

// SVG renders a filled circle with centered white initials.
func SVG(name string, size int) string {
	if size <= 0 {
		size = DefaultSize
	}
	s := float64(size)
	half := num(s / 2)
	return fmt.Sprintf(
		`<svg width="%d" height="%d" viewBox="0 0 %d %d" xmlns="http://www.w3.org/2000/svg">`+
			`<circle cx="%s" cy="%s" r="%s" fill="hsl(%d, 70%%, 60%%)" />`+
			`<text x="%s" y="%s" font-family="Arial, sans-serif" font-size="%spx" fill="white" text-anchor="middle" dominant-baseline="middle">%s</text>`+
			`</svg>`,
		size, size, size, size,
		half, half, half, Hue(name),
		half, half, num(s/2.5), html.EscapeString(Initials(name)),
	)
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
