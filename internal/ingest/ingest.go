// Package ingest accepts a single uploaded file and turns it into a
// SourceImage: extension and MIME checks, byte read, data-URL wrapping.
package ingest

import (
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/imageshark/imageshark/internal/dataurl"
	"github.com/imageshark/imageshark/internal/domain"
)

// DefaultMaxBytes caps uploads at 32 MiB.
const DefaultMaxBytes = 32 << 20

var acceptedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

type Ingestor struct {
	maxBytes int64
}

func New(maxBytes int64) Ingestor {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return Ingestor{maxBytes: maxBytes}
}

// Ingest reads one file and produces a SourceImage. The declared MIME type
// may be empty; the sniffed type wins when the two disagree. Natural
// dimensions stay zero until decode.
func (i Ingestor) Ingest(fileName, declaredMIME string, r io.Reader) (domain.SourceImage, error) {
	ext := strings.ToLower(path.Ext(fileName))
	if ext != "" && !acceptedExtensions[ext] {
		return domain.SourceImage{}, fmt.Errorf("%w: extension %s is not an accepted image type", domain.ErrUnsupportedType, ext)
	}

	declaredMIME = strings.ToLower(strings.TrimSpace(declaredMIME))
	if declaredMIME != "" && !strings.HasPrefix(declaredMIME, "image/") {
		return domain.SourceImage{}, fmt.Errorf("%w: declared type %s is not an image", domain.ErrUnsupportedType, declaredMIME)
	}

	data, err := io.ReadAll(io.LimitReader(r, i.maxBytes+1))
	if err != nil {
		return domain.SourceImage{}, fmt.Errorf("%w: %v", domain.ErrReadFailure, err)
	}
	if len(data) == 0 {
		return domain.SourceImage{}, fmt.Errorf("%w: upload is empty", domain.ErrReadFailure)
	}
	if int64(len(data)) > i.maxBytes {
		return domain.SourceImage{}, fmt.Errorf("%w: upload exceeds %d bytes", domain.ErrReadFailure, i.maxBytes)
	}

	detected := mimetype.Detect(data)
	if !strings.HasPrefix(detected.String(), "image/") {
		return domain.SourceImage{}, fmt.Errorf("%w: detected type %s is not an image", domain.ErrUnsupportedType, detected.String())
	}

	mime := sniffedOrDeclared(data, declaredMIME, detected.String())
	if !domain.IsInputMIME(mime) {
		return domain.SourceImage{}, fmt.Errorf("%w: %s is not a supported input format", domain.ErrUnsupportedType, mime)
	}

	return domain.SourceImage{
		FileName: fileName,
		MIMEType: mime,
		ByteSize: int64(len(data)),
		DataURL:  dataurl.Encode(mime, data),
	}, nil
}

// sniffedOrDeclared prefers our own magic-byte sniff, then the mimetype
// library's verdict, then whatever the client declared.
func sniffedOrDeclared(data []byte, declared, detected string) string {
	if sniffed := dataurl.DetectMIME(data); sniffed != "" {
		return sniffed
	}
	if detected != "" && detected != "application/octet-stream" {
		return detected
	}
	if declared != "" {
		return declared
	}
	return domain.MIMEJPEG
}
