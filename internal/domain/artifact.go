package domain

import (
	"path"
	"strings"
)

// RenderedArtifact is the encoded output of one pipeline run.
type RenderedArtifact struct {
	MIME           string `json:"mime"`
	DataURL        string `json:"data_url"`
	ByteSize       int    `json:"byte_size"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	SourceFileName string `json:"source_file_name,omitempty"`
}

// DownloadFileName derives the save-as name from the source file name with
// the extension adjusted to the artifact MIME.
func (a RenderedArtifact) DownloadFileName() string {
	name := strings.TrimSpace(a.SourceFileName)
	if name == "" {
		name = "edited-image"
	}
	base := strings.TrimSuffix(name, path.Ext(name))
	if base == "" {
		base = "edited-image"
	}
	return base + ExtensionForMIME(a.MIME)
}

// ExtensionForMIME maps an output MIME to its file extension, defaulting
// to .png (the browser encoder's substitution format).
func ExtensionForMIME(mime string) string {
	switch strings.ToLower(strings.TrimSpace(mime)) {
	case MIMEJPEG:
		return ".jpg"
	case MIMEWebP:
		return ".webp"
	case MIMEGIF:
		return ".gif"
	default:
		return ".png"
	}
}
