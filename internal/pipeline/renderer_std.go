package pipeline

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/imageshark/imageshark/internal/dataurl"
	"github.com/imageshark/imageshark/internal/domain"
)

// stdRenderer draws on an image.Image canvas with the stdlib and x/image
// toolchain. It is the default backend.
type stdRenderer struct{}

// renderPlan is what one tool branch hands back to the shared encode step.
type renderPlan struct {
	canvas   image.Image
	mime     string
	quality  float64
	maxBytes int64
}

func (r stdRenderer) Render(ctx context.Context, source domain.SourceImage, params domain.ToolParams) (domain.RenderedArtifact, error) {
	select {
	case <-ctx.Done():
		return domain.RenderedArtifact{}, ctx.Err()
	default:
	}

	if err := params.Validate(); err != nil {
		return domain.RenderedArtifact{}, err
	}

	src, srcMIME, err := decodeSource(source)
	if err != nil {
		return domain.RenderedArtifact{}, err
	}

	bounds := src.Bounds()
	source.NaturalWidth = bounds.Dx()
	source.NaturalHeight = bounds.Dy()

	var plan renderPlan
	switch strings.ToLower(strings.TrimSpace(params.Tool)) {
	case domain.ToolResize:
		plan, err = renderResize(src, srcMIME, *params.Resize)
	case domain.ToolCompress:
		plan, err = renderCompress(src, srcMIME, *params.Compress)
	case domain.ToolConvert:
		if artifact, ok := convertPassthrough(source, bounds.Dx(), bounds.Dy(), srcMIME, *params.Convert); ok {
			return artifact, nil
		}
		plan, err = renderConvert(src, *params.Convert)
	case domain.ToolCrop:
		plan, err = renderCrop(src, srcMIME, *params.Crop)
	case domain.ToolPassport:
		plan, err = renderPassport(src, srcMIME, *params.Passport)
	case domain.ToolWatermark:
		plan, err = renderWatermark(src, srcMIME, *params.Watermark)
	case domain.ToolMeme:
		plan, err = renderMeme(src, srcMIME, *params.Meme)
	default:
		err = fmt.Errorf("%w: unknown tool %q", domain.ErrInvalidParameters, params.Tool)
	}
	if err != nil {
		return domain.RenderedArtifact{}, err
	}

	mime := normalizeEncodeMIME(plan.mime)
	data, err := encodeWithBudget(plan.canvas, mime, plan.quality, plan.maxBytes)
	if err != nil {
		return domain.RenderedArtifact{}, err
	}

	out := plan.canvas.Bounds()
	return domain.RenderedArtifact{
		MIME:           mime,
		DataURL:        dataurl.Encode(mime, data),
		ByteSize:       len(data),
		Width:          out.Dx(),
		Height:         out.Dy(),
		SourceFileName: source.FileName,
	}, nil
}
