package pipeline

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"strings"

	"github.com/imageshark/imageshark/internal/domain"
)

const (
	// memeFontRatio scales the default caption size with image height.
	memeFontRatio = 0.1

	// Caption anchors as fractions of image height.
	memeTopAnchor    = 0.05
	memeBottomAnchor = 0.95
)

// renderMeme paints the classic top/bottom captions: uppercase, centered,
// stroke under fill. The top caption grows downward from its anchor, the
// bottom caption upward, so long captions stay on the canvas.
func renderMeme(src image.Image, srcMIME string, p domain.MemeParams) (renderPlan, error) {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), src, bounds.Min, draw.Src)

	fontSize := p.FontSize
	if fontSize <= 0 {
		fontSize = math.Max(12, float64(h)*memeFontRatio)
	}

	family := p.FontFamily
	if family == "" {
		family = "Impact"
	}
	face, err := loadFace(family, fontSize)
	if err != nil {
		return renderPlan{}, err
	}
	defer face.Close()

	fill := parseColor(p.FillColor, color.RGBA{255, 255, 255, 255})
	stroke := parseColor(p.StrokeColor, color.RGBA{0, 0, 0, 255})
	strokeWidth := int(math.Round(p.StrokeWidth))
	if p.StrokeWidth <= 0 {
		strokeWidth = maxInt(2, int(fontSize/16))
	}

	maxLineWidth := w * 9 / 10
	_, lineHeight, ascent := measureString(face, "M")

	if top := strings.TrimSpace(p.TopText); top != "" {
		lines := wrapText(face, strings.ToUpper(top), maxLineWidth)
		baseline := int(math.Round(float64(h)*memeTopAnchor)) + ascent
		for _, line := range lines {
			lineW, _, _ := measureString(face, line)
			drawStrokedString(dst, face, line, (w-lineW)/2, baseline, fill, stroke, strokeWidth)
			baseline += lineHeight
		}
	}

	if bottom := strings.TrimSpace(p.BottomText); bottom != "" {
		lines := wrapText(face, strings.ToUpper(bottom), maxLineWidth)
		baseline := int(math.Round(float64(h) * memeBottomAnchor))
		baseline -= lineHeight * (len(lines) - 1)
		for _, line := range lines {
			lineW, _, _ := measureString(face, line)
			drawStrokedString(dst, face, line, (w-lineW)/2, baseline, fill, stroke, strokeWidth)
			baseline += lineHeight
		}
	}

	return renderPlan{
		canvas:  dst,
		mime:    srcMIME,
		quality: defaultQuality,
	}, nil
}
