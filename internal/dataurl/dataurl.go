// Package dataurl builds and parses the data:<mime>;base64,<payload> form
// that carries image bytes through the pipeline and the delivery hand-off.
package dataurl

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

const prefix = "data:"

var ErrMalformed = errors.New("malformed data URL")

// Encode wraps raw bytes into a base64 data URL.
func Encode(mime string, data []byte) string {
	return prefix + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Decode splits a data URL into its MIME type and raw bytes.
func Decode(dataURL string) (string, []byte, error) {
	if !strings.HasPrefix(dataURL, prefix) {
		return "", nil, fmt.Errorf("%w: missing data: prefix", ErrMalformed)
	}

	rest := dataURL[len(prefix):]
	sep := strings.IndexByte(rest, ',')
	if sep < 0 {
		return "", nil, fmt.Errorf("%w: missing payload separator", ErrMalformed)
	}

	meta := rest[:sep]
	payload := rest[sep+1:]

	mime := meta
	base64Encoded := false
	if idx := strings.IndexByte(meta, ';'); idx >= 0 {
		mime = meta[:idx]
		base64Encoded = strings.Contains(meta[idx:], "base64")
	}
	if !base64Encoded {
		return "", nil, fmt.Errorf("%w: only base64 payloads are supported", ErrMalformed)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(data) == 0 {
		return "", nil, fmt.Errorf("%w: empty payload", ErrMalformed)
	}
	return strings.ToLower(strings.TrimSpace(mime)), data, nil
}

// InferredByteSize estimates the decoded byte length from the base64
// payload length without decoding.
func InferredByteSize(dataURL string) int {
	sep := strings.IndexByte(dataURL, ',')
	if sep < 0 {
		return 0
	}
	payload := dataURL[sep+1:]
	pad := 0
	for i := len(payload) - 1; i >= 0 && payload[i] == '='; i-- {
		pad++
	}
	size := len(payload)/4*3 - pad
	if size < 0 {
		return 0
	}
	return size
}
