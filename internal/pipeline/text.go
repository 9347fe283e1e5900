package pipeline

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"

	"github.com/imageshark/imageshark/internal/domain"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// loadFace builds a font face at the requested pixel size. Impact and other
// heavy display families map onto Go Bold; everything else gets Go Regular.
func loadFace(family string, size float64) (font.Face, error) {
	ttf := goregular.TTF
	switch strings.ToLower(strings.TrimSpace(family)) {
	case "impact", "arial black", "anton", "bold":
		ttf = gobold.TTF
	}

	parsed, err := opentype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("%w: parse font: %v", domain.ErrInvalidParameters, err)
	}

	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: build font face: %v", domain.ErrInvalidParameters, err)
	}
	return face, nil
}

// measureString returns the advance width, line height and ascent in pixels.
func measureString(face font.Face, s string) (width, height, ascent int) {
	metrics := face.Metrics()
	return font.MeasureString(face, s).Ceil(), metrics.Height.Ceil(), metrics.Ascent.Ceil()
}

// drawString paints one line with its baseline at (x, baselineY).
func drawString(dst draw.Image, face font.Face, s string, x, baselineY int, col color.Color) {
	drawer := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(x, baselineY),
	}
	drawer.DrawString(s)
}

// drawStrokedString paints the stroke first by stamping the glyphs across a
// disk of offsets, then the fill on top. Line join behaves as round because
// the disk is round.
func drawStrokedString(dst draw.Image, face font.Face, s string, x, baselineY int, fill, stroke color.Color, strokeWidth int) {
	if strokeWidth > 0 {
		for dy := -strokeWidth; dy <= strokeWidth; dy++ {
			for dx := -strokeWidth; dx <= strokeWidth; dx++ {
				if dx*dx+dy*dy > strokeWidth*strokeWidth {
					continue
				}
				drawString(dst, face, s, x+dx, baselineY+dy, stroke)
			}
		}
	}
	drawString(dst, face, s, x, baselineY, fill)
}

// wrapText breaks s at word boundaries so each line fits maxWidth. A single
// word wider than maxWidth gets its own line rather than being split.
func wrapText(face font.Face, s string, maxWidth int) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		candidate := current + " " + word
		if font.MeasureString(face, candidate).Ceil() > maxWidth {
			lines = append(lines, current)
			current = word
			continue
		}
		current = candidate
	}
	return append(lines, current)
}

// parseColor understands #rgb and #rrggbb plus a few names, defaulting to
// fallback on anything else.
func parseColor(s string, fallback color.Color) color.Color {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "":
		return fallback
	case "white":
		return color.RGBA{255, 255, 255, 255}
	case "black":
		return color.RGBA{0, 0, 0, 255}
	case "red":
		return color.RGBA{255, 0, 0, 255}
	}

	hex := strings.TrimPrefix(s, "#")
	switch len(hex) {
	case 3:
		r, okR := hexNibble(hex[0])
		g, okG := hexNibble(hex[1])
		b, okB := hexNibble(hex[2])
		if okR && okG && okB {
			return color.RGBA{r * 17, g * 17, b * 17, 255}
		}
	case 6:
		var out [3]uint8
		ok := true
		for i := 0; i < 3; i++ {
			hi, okHi := hexNibble(hex[2*i])
			lo, okLo := hexNibble(hex[2*i+1])
			if !okHi || !okLo {
				ok = false
				break
			}
			out[i] = hi<<4 | lo
		}
		if ok {
			return color.RGBA{out[0], out[1], out[2], 255}
		}
	}
	return fallback
}

func hexNibble(c byte) (uint8, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	default:
		return 0, false
	}
}
