package pipeline

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/imageshark/imageshark/internal/domain"
)

// defaultQuality matches the canvas encoder default applied when a tool has
// no quality knob of its own.
const defaultQuality = 0.92

// resolveResizeTarget fills in an omitted dimension under aspect lock from
// the source's natural ratio. With both dimensions given (or no lock) the
// request passes through as-is.
func resolveResizeTarget(p domain.ResizeParams, naturalW, naturalH int) (int, int) {
	if !p.LockAspect {
		return p.Width, p.Height
	}

	meta := domain.SourceImage{NaturalWidth: naturalW, NaturalHeight: naturalH}
	width, height := p.Width, p.Height
	switch {
	case width <= 0 && height > 0:
		width = p.LinkedWidth(meta, height)
	case height <= 0 && width > 0:
		height = p.LinkedHeight(meta, width)
	}
	return width, height
}

// renderResize scales the full source into a canvas of exactly the target
// dimensions. Upscaling is permitted.
func renderResize(src image.Image, srcMIME string, p domain.ResizeParams) (renderPlan, error) {
	bounds := src.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return renderPlan{}, fmt.Errorf("%w: source has no pixels", domain.ErrDecodeFailure)
	}

	width, height := resolveResizeTarget(p, bounds.Dx(), bounds.Dy())
	out := imaging.Resize(src, width, height, imaging.Lanczos)
	return renderPlan{
		canvas:  out,
		mime:    srcMIME,
		quality: defaultQuality,
	}, nil
}

// renderCompress re-encodes at 1:1 geometry. Non-lossy sources are
// transcoded to JPEG, since a quality argument is meaningless for them.
func renderCompress(src image.Image, srcMIME string, p domain.CompressParams) (renderPlan, error) {
	return renderPlan{
		canvas:   imaging.Clone(src),
		mime:     p.EncodeMIME(srcMIME),
		quality:  p.Quality,
		maxBytes: p.MaxBytes,
	}, nil
}
