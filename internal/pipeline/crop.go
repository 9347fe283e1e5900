package pipeline

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/imageshark/imageshark/internal/domain"
)

// cropRectPixels maps a percent rectangle onto natural pixel coordinates.
// Sizes round to nearest and never collapse to zero.
func cropRectPixels(rect domain.CropRect, naturalW, naturalH int) image.Rectangle {
	x := int(math.Round(rect.XPct / 100 * float64(naturalW)))
	y := int(math.Round(rect.YPct / 100 * float64(naturalH)))
	w := int(math.Round(rect.WidthPct / 100 * float64(naturalW)))
	h := int(math.Round(rect.HeightPct / 100 * float64(naturalH)))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	if x+w > naturalW {
		x = naturalW - w
	}
	if y+h > naturalH {
		y = naturalH - h
	}
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	return image.Rect(x, y, x+w, y+h)
}

func renderCrop(src image.Image, srcMIME string, p domain.CropParams) (renderPlan, error) {
	bounds := src.Bounds()
	rect := cropRectPixels(p.Rect, bounds.Dx(), bounds.Dy())
	if rect.Dx() <= 0 || rect.Dy() <= 0 {
		return renderPlan{}, fmt.Errorf("%w: crop rectangle is empty", domain.ErrInvalidParameters)
	}

	out := imaging.Crop(src, rect.Add(bounds.Min))
	return renderPlan{
		canvas:  out,
		mime:    srcMIME,
		quality: p.Quality,
	}, nil
}

// renderPassport is a crop pinned to a country preset's aspect ratio, at a
// fixed output quality.
func renderPassport(src image.Image, srcMIME string, p domain.PassportParams) (renderPlan, error) {
	if _, ok := domain.PassportPresetFor(p.Country); !ok {
		return renderPlan{}, fmt.Errorf("%w: unknown passport preset %q", domain.ErrInvalidParameters, p.Country)
	}

	bounds := src.Bounds()
	rect := cropRectPixels(p.Rect, bounds.Dx(), bounds.Dy())
	if rect.Dx() <= 0 || rect.Dy() <= 0 {
		return renderPlan{}, fmt.Errorf("%w: crop rectangle is empty", domain.ErrInvalidParameters)
	}

	out := imaging.Crop(src, rect.Add(bounds.Min))
	return renderPlan{
		canvas:  out,
		mime:    srcMIME,
		quality: domain.PassportQuality,
	}, nil
}
