package pipeline

import (
	"context"
	"strings"

	"github.com/imageshark/imageshark/internal/domain"
)

// Renderer executes one tool run: decode the source, apply the tool's
// geometry and decoration, encode, and return the artifact.
type Renderer interface {
	Render(ctx context.Context, source domain.SourceImage, params domain.ToolParams) (domain.RenderedArtifact, error)
}

// NewRenderer returns the backend selected at build time: the image.Image
// renderer by default, libvips when built with the govips tag.
func NewRenderer() (Renderer, error) {
	return newRenderer()
}

// normalizeEncodeMIME maps a requested MIME onto what the encoders can
// actually produce. Anything unencodable falls back to PNG, mirroring the
// browser canvas substitution behavior.
func normalizeEncodeMIME(mime string) string {
	switch strings.ToLower(strings.TrimSpace(mime)) {
	case domain.MIMEJPEG, "image/jpg":
		return domain.MIMEJPEG
	case domain.MIMEWebP:
		return domain.MIMEWebP
	default:
		return domain.MIMEPNG
	}
}
