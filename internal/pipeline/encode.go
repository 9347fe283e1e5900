package pipeline

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"math"

	"github.com/chai2010/webp"
	"github.com/imageshark/imageshark/internal/domain"
)

// encodeImage serialises a canvas to bytes in the given MIME. The quality
// argument applies only to lossy codecs; PNG ignores it entirely.
func encodeImage(img image.Image, mime string, quality float64) ([]byte, error) {
	var buf bytes.Buffer

	switch normalizeEncodeMIME(mime) {
	case domain.MIMEJPEG:
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: qualityPercent(quality)}); err != nil {
			return nil, fmt.Errorf("%w: jpeg: %v", domain.ErrEncodeFailure, err)
		}
	case domain.MIMEWebP:
		opts := &webp.Options{Lossless: false, Quality: float32(qualityPercent(quality))}
		if err := webp.Encode(&buf, img, opts); err != nil {
			return nil, fmt.Errorf("%w: webp: %v", domain.ErrEncodeFailure, err)
		}
	default:
		encoder := png.Encoder{CompressionLevel: png.DefaultCompression}
		if err := encoder.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("%w: png: %v", domain.ErrEncodeFailure, err)
		}
	}

	if buf.Len() == 0 {
		return nil, fmt.Errorf("%w: encoder produced no data", domain.ErrEncodeFailure)
	}
	return buf.Bytes(), nil
}

// encodeWithBudget encodes and, when a byte budget is set, retries at
// stepped-down qualities. Reduction is attempted, not guaranteed: the
// lowest accepted quality wins even if still over budget.
func encodeWithBudget(img image.Image, mime string, quality float64, maxBytes int64) ([]byte, error) {
	data, err := encodeImage(img, mime, quality)
	if err != nil {
		return nil, err
	}
	if maxBytes <= 0 || int64(len(data)) <= maxBytes || !domain.IsLossyMIME(normalizeEncodeMIME(mime)) {
		return data, nil
	}

	for q := quality - 0.1; q >= domain.MinQuality; q -= 0.1 {
		retry, err := encodeImage(img, mime, q)
		if err != nil {
			return nil, err
		}
		data = retry
		if int64(len(data)) <= maxBytes {
			break
		}
	}
	return data, nil
}

func qualityPercent(quality float64) int {
	if quality <= 0 {
		quality = 0.92
	}
	q := int(math.Round(quality * 100))
	if q < 1 {
		q = 1
	}
	if q > 100 {
		q = 100
	}
	return q
}
