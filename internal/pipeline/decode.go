package pipeline

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"

	"github.com/disintegration/imaging"
	"github.com/imageshark/imageshark/internal/dataurl"
	"github.com/imageshark/imageshark/internal/domain"
	_ "golang.org/x/image/webp"
)

// decodeSource materialises a SourceImage's data URL into pixels and
// reports the sniffed MIME of the underlying bytes.
func decodeSource(source domain.SourceImage) (image.Image, string, error) {
	_, data, err := dataurl.Decode(source.DataURL)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", domain.ErrDecodeFailure, err)
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", domain.ErrDecodeFailure, err)
	}

	mime := dataurl.DetectMIME(data)
	if mime == "" {
		mime = source.EffectiveMIME()
	}
	return img, mime, nil
}
