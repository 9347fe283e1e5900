package domain

import "time"

// UsageLog is one accounting row per completed render job.
type UsageLog struct {
	UserID          string
	JobID           string
	Tool            string
	PixelsProcessed int64
	BytesSaved      int64
	ComputeTimeMS   int64
	CreatedAt       time.Time
}
