package domain

import "strings"

// Supported MIME types. GIF and the formats below are accepted on input;
// output is limited to the three encodable types.
const (
	MIMEJPEG = "image/jpeg"
	MIMEPNG  = "image/png"
	MIMEGIF  = "image/gif"
	MIMEWebP = "image/webp"
)

// SourceImage is the user's input: original file metadata plus a data-URL
// representation of the bytes. Natural dimensions are filled in by the
// decode stage and are zero until then.
type SourceImage struct {
	FileName      string `json:"file_name"`
	MIMEType      string `json:"mime_type"`
	ByteSize      int64  `json:"byte_size"`
	DataURL       string `json:"data_url"`
	NaturalWidth  int    `json:"natural_width,omitempty"`
	NaturalHeight int    `json:"natural_height,omitempty"`
}

// EffectiveMIME returns the declared MIME type, assuming JPEG when the
// upload carried none.
func (s SourceImage) EffectiveMIME() string {
	mime := strings.ToLower(strings.TrimSpace(s.MIMEType))
	if mime == "" {
		return MIMEJPEG
	}
	return mime
}

// AspectRatio reports naturalWidth/naturalHeight, or 0 before decode.
func (s SourceImage) AspectRatio() float64 {
	if s.NaturalWidth <= 0 || s.NaturalHeight <= 0 {
		return 0
	}
	return float64(s.NaturalWidth) / float64(s.NaturalHeight)
}

// IsLossyMIME reports whether quality applies to an encode in this MIME.
func IsLossyMIME(mime string) bool {
	switch strings.ToLower(strings.TrimSpace(mime)) {
	case MIMEJPEG, MIMEWebP:
		return true
	default:
		return false
	}
}

// IsOutputMIME reports whether the pipeline can encode this MIME.
func IsOutputMIME(mime string) bool {
	switch strings.ToLower(strings.TrimSpace(mime)) {
	case MIMEJPEG, MIMEPNG, MIMEWebP:
		return true
	default:
		return false
	}
}

// IsInputMIME reports whether the pipeline accepts this MIME on ingest.
func IsInputMIME(mime string) bool {
	switch strings.ToLower(strings.TrimSpace(mime)) {
	case MIMEJPEG, MIMEPNG, MIMEGIF, MIMEWebP:
		return true
	default:
		return false
	}
}
