package pipeline

import (
	"image"
	"math"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/imageshark/imageshark/internal/dataurl"
	"github.com/imageshark/imageshark/internal/domain"
)

// convertPassthrough short-circuits a convert whose target already matches a
// non-lossy source: re-encoding changes no pixels and can only grow the
// file, so the source bytes are returned untouched. Lossy targets still
// re-encode because quality applies.
func convertPassthrough(source domain.SourceImage, width, height int, srcMIME string, p domain.ConvertParams) (domain.RenderedArtifact, bool) {
	target := strings.ToLower(strings.TrimSpace(p.MIME))
	if target != srcMIME || domain.IsLossyMIME(target) {
		return domain.RenderedArtifact{}, false
	}

	_, data, err := dataurl.Decode(source.DataURL)
	if err != nil {
		return domain.RenderedArtifact{}, false
	}

	return domain.RenderedArtifact{
		MIME:           target,
		DataURL:        dataurl.Encode(target, data),
		ByteSize:       len(data),
		Width:          width,
		Height:         height,
		SourceFileName: source.FileName,
	}, true
}

// renderConvert is a 1:1 re-encode into the chosen target MIME.
func renderConvert(src image.Image, p domain.ConvertParams) (renderPlan, error) {
	quality := p.Quality
	if !domain.IsLossyMIME(p.MIME) {
		quality = 0
	}
	return renderPlan{
		canvas:  imaging.Clone(src),
		mime:    p.MIME,
		quality: quality,
	}, nil
}

// sizeFactors is a rough multiplicative table keyed by source and target
// MIME. The estimate is advisory only and never gates a conversion.
var sizeFactors = map[string]map[string]float64{
	domain.MIMEJPEG: {
		domain.MIMEPNG:  1.5,
		domain.MIMEWebP: 0.7,
	},
	domain.MIMEPNG: {
		domain.MIMEJPEG: 0.7,
		domain.MIMEWebP: 0.6,
	},
	domain.MIMEWebP: {
		domain.MIMEJPEG: 1.2,
		domain.MIMEPNG:  1.7,
	},
}

// EstimateConvertedSize predicts the output byte count of a conversion.
func EstimateConvertedSize(srcSize int64, srcMIME, dstMIME string, quality float64) int64 {
	factor := 1.0
	if targets, ok := sizeFactors[srcMIME]; ok {
		if f, ok := targets[dstMIME]; ok {
			factor = f
		}
	}

	qualityFactor := 1.0
	if domain.IsLossyMIME(dstMIME) && quality > 0 {
		qualityFactor = quality
	}

	return int64(math.Round(float64(srcSize) * factor * qualityFactor))
}
