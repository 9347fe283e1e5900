package dataurl

var (
	pngSignature  = [...]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	riffSignature = [...]byte{0x52, 0x49, 0x46, 0x46}
	webpSignature = [...]byte{0x57, 0x45, 0x42, 0x50}
)

// DetectMIME identifies the image MIME type from magic bytes. It returns an
// empty string when the format is not one of the supported rasters.
func DetectMIME(data []byte) string {
	// JPEG: FF D8 FF
	if len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF {
		return "image/jpeg"
	}

	if hasPrefix(data, pngSignature[:]) {
		return "image/png"
	}

	// GIF87a or GIF89a
	if len(data) >= 6 &&
		data[0] == 0x47 && data[1] == 0x49 && data[2] == 0x46 &&
		data[3] == 0x38 && (data[4] == 0x37 || data[4] == 0x39) &&
		data[5] == 0x61 {
		return "image/gif"
	}

	// RIFF....WEBP
	if len(data) >= 12 && hasPrefix(data, riffSignature[:]) &&
		data[8] == webpSignature[0] && data[9] == webpSignature[1] &&
		data[10] == webpSignature[2] && data[11] == webpSignature[3] {
		return "image/webp"
	}

	return ""
}

func hasPrefix(buf, prefix []byte) bool {
	if len(buf) < len(prefix) {
		return false
	}
	for i, b := range prefix {
		if buf[i] != b {
			return false
		}
	}
	return true
}
