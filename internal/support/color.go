// Package support implements the small shared services described in
// §4.K: the color name database and HSB conversion, the world-unit
// synonym table, and the compiled-regex LRU the `~` operator draws from.
// The numeric tolerance helpers live in pathengine.
package support

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	mapyruserr "mapyrus/internal/errors"
	"mapyrus/internal/output"
)

// colorNames maps the common names the `color` command accepts to their
// 0-255 RGB components.
var colorNames = map[string][3]int{
	"black":      {0, 0, 0},
	"white":      {255, 255, 255},
	"red":        {255, 0, 0},
	"green":      {0, 255, 0},
	"blue":       {0, 0, 255},
	"yellow":     {255, 255, 0},
	"cyan":       {0, 255, 255},
	"magenta":    {255, 0, 255},
	"gray":       {128, 128, 128},
	"grey":       {128, 128, 128},
	"lightgray":  {211, 211, 211},
	"lightgrey":  {211, 211, 211},
	"darkgray":   {169, 169, 169},
	"darkgrey":   {169, 169, 169},
	"orange":     {255, 165, 0},
	"pink":       {255, 192, 203},
	"purple":     {128, 0, 128},
	"brown":      {165, 42, 42},
	"navy":       {0, 0, 128},
	"maroon":     {128, 0, 0},
	"olive":      {128, 128, 0},
	"teal":       {0, 128, 128},
	"silver":     {192, 192, 192},
	"gold":       {255, 215, 0},
	"indigo":     {75, 0, 130},
	"violet":     {238, 130, 238},
	"salmon":     {250, 128, 114},
	"khaki":      {240, 230, 140},
	"turquoise":  {64, 224, 208},
	"chocolate":  {210, 105, 30},
	"coral":      {255, 127, 80},
	"crimson":    {220, 20, 60},
	"plum":       {221, 160, 221},
	"orchid":     {218, 112, 214},
	"tan":        {210, 180, 140},
	"beige":      {245, 245, 220},
	"ivory":      {255, 255, 240},
	"lavender":   {230, 230, 250},
	"skyblue":    {135, 206, 235},
	"steelblue":  {70, 130, 180},
	"forestgreen": {34, 139, 34},
	"firebrick":  {178, 34, 34},
}

// Color looks up name (a database name or `#RRGGBB` hex) with the given
// alpha (0..1), returning the resulting color.
func Color(name string, alpha float64) (output.Color, error) {
	name = strings.TrimSpace(name)
	if strings.HasPrefix(name, "#") {
		return hexColor(name, alpha)
	}
	rgb, ok := colorNames[strings.ToLower(name)]
	if !ok {
		return output.Color{}, mapyruserr.Newf(mapyruserr.ColorNotFound, "no such color %q", name)
	}
	return output.Color{R: float64(rgb[0]) / 255, G: float64(rgb[1]) / 255, B: float64(rgb[2]) / 255, A: alpha}, nil
}

func hexColor(s string, alpha float64) (output.Color, error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return output.Color{}, mapyruserr.Newf(mapyruserr.InvalidColor, "invalid hex color %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return output.Color{}, mapyruserr.Newf(mapyruserr.InvalidColor, "invalid hex color %q", s)
	}
	r := float64((v>>16)&0xFF) / 255
	g := float64((v>>8)&0xFF) / 255
	b := float64(v&0xFF) / 255
	return output.Color{R: r, G: g, B: b, A: alpha}, nil
}

// HSBColor converts hue/saturation/brightness (each 0..1) plus alpha into
// RGB, per `color "hsb" h s b alpha?`.
func HSBColor(h, s, v, alpha float64) output.Color {
	if s <= 0 {
		return output.Color{R: v, G: v, B: v, A: alpha}
	}
	h = math.Mod(h, 1) * 6
	i := int(math.Floor(h))
	f := h - float64(i)
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))
	var r, g, b float64
	switch i % 6 {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default:
		r, g, b = v, p, q
	}
	return output.Color{R: r, G: g, B: b, A: alpha}
}

// Contrast returns black or white, whichever contrasts more strongly
// against below, per the `color "contrast"` special name.
func Contrast(below output.Color) output.Color {
	lum := 0.299*below.R + 0.587*below.G + 0.114*below.B
	if lum > 0.5 {
		return output.Color{A: below.A}
	}
	return output.Color{R: 1, G: 1, B: 1, A: below.A}
}

// Brighter lightens below by a fixed factor, per `color "brighter"`.
func Brighter(below output.Color) output.Color {
	const factor = 0.3
	return output.Color{
		R: below.R + (1-below.R)*factor,
		G: below.G + (1-below.G)*factor,
		B: below.B + (1-below.B)*factor,
		A: below.A,
	}
}

// Darker darkens below by a fixed factor, per `color "darker"`.
func Darker(below output.Color) output.Color {
	const factor = 0.7
	return output.Color{R: below.R * factor, G: below.G * factor, B: below.B * factor, A: below.A}
}

// ResolveColor implements the full `color` command name resolution:
// hex/database lookup, or one of the three special names relative to
// the color currently below on the context stack.
func ResolveColor(name string, alpha float64, below output.Color) (output.Color, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "contrast":
		return Contrast(below), nil
	case "brighter":
		return Brighter(below), nil
	case "darker":
		return Darker(below), nil
	default:
		return Color(name, alpha)
	}
}

// FormatHex renders a color back to `#RRGGBB`, used by diagnostics.
func FormatHex(c output.Color) string {
	return fmt.Sprintf("#%02X%02X%02X", clamp255(c.R), clamp255(c.G), clamp255(c.B))
}

func clamp255(v float64) int {
	n := int(math.Round(v * 255))
	if n < 0 {
		return 0
	}
	if n > 255 {
		return 255
	}
	return n
}
