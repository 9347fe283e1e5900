package pipeline

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/imageshark/imageshark/internal/domain"
)

// tilePitchFactor sets the lattice pitch for tiled watermarks as a multiple
// of the text metrics in each axis.
const tilePitchFactor = 2

// renderWatermark paints the text over the full-size source. The text is
// rasterised onto a transparent layer first so opacity and rotation apply
// to the whole mark at once.
func renderWatermark(src image.Image, srcMIME string, p domain.WatermarkParams) (renderPlan, error) {
	bounds := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), src, bounds.Min, draw.Src)

	face, err := loadFace(p.FontFamily, p.FontSize)
	if err != nil {
		return renderPlan{}, err
	}
	defer face.Close()

	text := strings.TrimSpace(p.Text)
	textW, textH, ascent := measureString(face, text)

	// Rasterise the mark once; rotation happens on this stamp, not on the
	// output canvas.
	stamp := image.NewNRGBA(image.Rect(0, 0, textW, textH))
	drawString(stamp, face, text, 0, ascent, parseColor(p.Color, color.RGBA{255, 255, 255, 255}))

	var rotated image.Image = stamp
	if p.RotationDeg != 0 {
		// imaging rotates counter-clockwise for positive angles; the tool's
		// rotation is clockwise.
		rotated = imaging.Rotate(stamp, -p.RotationDeg, color.NRGBA{})
	}

	overlay := image.NewNRGBA(dst.Bounds())
	if p.Tile {
		pitchX := maxInt(1, tilePitchFactor*textW)
		pitchY := maxInt(1, tilePitchFactor*textH)
		for y := -rotated.Bounds().Dy(); y < dst.Bounds().Dy()+rotated.Bounds().Dy(); y += pitchY {
			for x := -rotated.Bounds().Dx(); x < dst.Bounds().Dx()+rotated.Bounds().Dx(); x += pitchX {
				stampAt(overlay, rotated, x, y)
			}
		}
	} else {
		anchorX := int(math.Round(p.XPct / 100 * float64(dst.Bounds().Dx())))
		anchorY := int(math.Round(p.YPct / 100 * float64(dst.Bounds().Dy())))
		stampAt(overlay, rotated, anchorX-rotated.Bounds().Dx()/2, anchorY-rotated.Bounds().Dy()/2)
	}

	alpha := uint8(math.Round(p.Opacity * 255))
	draw.DrawMask(dst, dst.Bounds(), overlay, image.Point{}, image.NewUniform(color.Alpha{A: alpha}), image.Point{}, draw.Over)

	return renderPlan{
		canvas:  dst,
		mime:    srcMIME,
		quality: domain.WatermarkQuality,
	}, nil
}

// stampAt composites the stamp with its top-left corner at (x, y).
func stampAt(dst draw.Image, stamp image.Image, x, y int) {
	r := stamp.Bounds().Sub(stamp.Bounds().Min).Add(image.Pt(x, y))
	draw.Draw(dst, r, stamp, stamp.Bounds().Min, draw.Over)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
