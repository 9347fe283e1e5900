package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"
)

var ErrArtifactNotFound = errors.New("artifact not found")

// ArtifactKeyPrefix is the synthetic key namespace for the delivery
// hand-off; keys are time based and never reused.
const ArtifactKeyPrefix = "converted_image_"

var artifactKeyPattern = regexp.MustCompile(`^converted_image_\d+$`)

// ArtifactStore stages an encoded data URL between the render response and
// the download view. Entries are written once and read by key.
type ArtifactStore interface {
	Put(ctx context.Context, key, dataURL string) error
	Get(ctx context.Context, key string) (string, error)
}

// NewArtifactKey mints a delivery key from the current wall clock.
func NewArtifactKey(now time.Time) string {
	return fmt.Sprintf("%s%d", ArtifactKeyPrefix, now.UnixMilli())
}

// ValidArtifactKey guards the download view against arbitrary key probes.
func ValidArtifactKey(key string) bool {
	return artifactKeyPattern.MatchString(key)
}
