//go:build govips && cgo

package pipeline

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/imageshark/imageshark/internal/dataurl"
	"github.com/imageshark/imageshark/internal/domain"
)

// govipsRenderer runs the geometric tools on libvips. Text decoration
// (watermark, meme) needs glyph-level control that vips labels do not give,
// so those tools delegate to the stdlib backend.
type govipsRenderer struct {
	fallback Renderer
}

func (r govipsRenderer) Render(ctx context.Context, source domain.SourceImage, params domain.ToolParams) (domain.RenderedArtifact, error) {
	select {
	case <-ctx.Done():
		return domain.RenderedArtifact{}, ctx.Err()
	default:
	}

	if err := params.Validate(); err != nil {
		return domain.RenderedArtifact{}, err
	}

	tool := strings.ToLower(strings.TrimSpace(params.Tool))
	switch tool {
	case domain.ToolWatermark, domain.ToolMeme:
		return r.fallback.Render(ctx, source, params)
	}

	_, data, err := dataurl.Decode(source.DataURL)
	if err != nil {
		return domain.RenderedArtifact{}, fmt.Errorf("%w: %v", domain.ErrDecodeFailure, err)
	}

	img, err := vips.NewImageFromBuffer(data)
	if err != nil {
		return domain.RenderedArtifact{}, fmt.Errorf("%w: %v", domain.ErrDecodeFailure, err)
	}
	defer img.Close()

	srcMIME := dataurl.DetectMIME(data)
	if srcMIME == "" {
		srcMIME = source.EffectiveMIME()
	}

	mime := srcMIME
	quality := defaultQuality
	var maxBytes int64

	switch tool {
	case domain.ToolResize:
		p := *params.Resize
		targetW, targetH := resolveResizeTarget(p, img.Width(), img.Height())
		hscale := float64(targetW) / float64(img.Width())
		vscale := float64(targetH) / float64(img.Height())
		if err := img.ResizeWithVScale(hscale, vscale, vips.KernelLanczos3); err != nil {
			return domain.RenderedArtifact{}, fmt.Errorf("resize image: %w", err)
		}
	case domain.ToolCompress:
		p := *params.Compress
		mime = p.EncodeMIME(srcMIME)
		quality = p.Quality
		maxBytes = p.MaxBytes
	case domain.ToolConvert:
		p := *params.Convert
		if artifact, ok := convertPassthrough(source, img.Width(), img.Height(), srcMIME, p); ok {
			return artifact, nil
		}
		mime = p.MIME
		quality = p.Quality
	case domain.ToolCrop:
		p := *params.Crop
		if err := extractPercentRect(img, p.Rect); err != nil {
			return domain.RenderedArtifact{}, err
		}
		quality = p.Quality
	case domain.ToolPassport:
		p := *params.Passport
		if err := extractPercentRect(img, p.Rect); err != nil {
			return domain.RenderedArtifact{}, err
		}
		quality = domain.PassportQuality
	default:
		return domain.RenderedArtifact{}, fmt.Errorf("%w: unknown tool %q", domain.ErrInvalidParameters, params.Tool)
	}

	mime = normalizeEncodeMIME(mime)
	out, err := exportVipsImage(img, mime, quality)
	if err != nil {
		return domain.RenderedArtifact{}, err
	}

	if maxBytes > 0 && domain.IsLossyMIME(mime) {
		for q := quality - 0.1; q >= domain.MinQuality && int64(len(out)) > maxBytes; q -= 0.1 {
			out, err = exportVipsImage(img, mime, q)
			if err != nil {
				return domain.RenderedArtifact{}, err
			}
		}
	}

	return domain.RenderedArtifact{
		MIME:           mime,
		DataURL:        dataurl.Encode(mime, out),
		ByteSize:       len(out),
		Width:          img.Width(),
		Height:         img.Height(),
		SourceFileName: source.FileName,
	}, nil
}

func extractPercentRect(img *vips.ImageRef, rect domain.CropRect) error {
	px := cropRectPixels(rect, img.Width(), img.Height())
	if err := img.ExtractArea(px.Min.X, px.Min.Y, px.Dx(), px.Dy()); err != nil {
		return fmt.Errorf("extract crop area: %w", err)
	}
	return nil
}

func exportVipsImage(img *vips.ImageRef, mime string, quality float64) ([]byte, error) {
	q := int(math.Round(quality * 100))
	switch mime {
	case domain.MIMEJPEG:
		params := vips.NewJpegExportParams()
		if q > 0 && q <= 100 {
			params.Quality = q
		}
		data, _, err := img.ExportJpeg(params)
		if err != nil {
			return nil, fmt.Errorf("%w: jpeg: %v", domain.ErrEncodeFailure, err)
		}
		return data, nil
	case domain.MIMEWebP:
		params := vips.NewWebpExportParams()
		if q > 0 && q <= 100 {
			params.Quality = q
		}
		data, _, err := img.ExportWebp(params)
		if err != nil {
			return nil, fmt.Errorf("%w: webp: %v", domain.ErrEncodeFailure, err)
		}
		return data, nil
	default:
		params := vips.NewPngExportParams()
		data, _, err := img.ExportPng(params)
		if err != nil {
			return nil, fmt.Errorf("%w: png: %v", domain.ErrEncodeFailure, err)
		}
		return data, nil
	}
}
