package queue

import (
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/imageshark/imageshark/internal/domain"
)

func TestRenderImageTaskRoundTrip(t *testing.T) {
	payload := RenderImagePayload{
		JobID:      "job-42",
		SourceType: domain.SourceTypeS3Presigned,
		WebhookURL: "https://example.com/hooks/render",
		ObjectKey:  "uploads/job-42/source",
		FileName:   "vacation.jpg",
		Steps: []domain.ToolParams{
			{Tool: domain.ToolResize, Resize: &domain.ResizeParams{Width: 1280, Height: 720, LockAspect: true}},
			{Tool: domain.ToolWatermark, Watermark: &domain.WatermarkParams{
				Text:     "draft",
				FontSize: 24,
				Opacity:  0.5,
				XPct:     50,
				YPct:     50,
				Tile:     true,
			}},
		},
		RequestedAt: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	task, err := NewRenderImageTask(payload)
	if err != nil {
		t.Fatalf("new task: %v", err)
	}
	if task.Type() != TypeRenderImage {
		t.Fatalf("expected task type %s, got %s", TypeRenderImage, task.Type())
	}

	parsed, err := ParseRenderImagePayload(task)
	if err != nil {
		t.Fatalf("parse payload: %v", err)
	}

	if parsed.JobID != payload.JobID || parsed.ObjectKey != payload.ObjectKey {
		t.Fatalf("identity fields changed: %+v", parsed)
	}
	if len(parsed.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(parsed.Steps))
	}
	if parsed.Steps[0].Resize == nil || parsed.Steps[0].Resize.Width != 1280 {
		t.Fatalf("resize step lost: %+v", parsed.Steps[0])
	}
	if parsed.Steps[1].Watermark == nil || !parsed.Steps[1].Watermark.Tile {
		t.Fatalf("watermark step lost: %+v", parsed.Steps[1])
	}
	if !parsed.RequestedAt.Equal(payload.RequestedAt) {
		t.Fatalf("requested_at changed: %v", parsed.RequestedAt)
	}
}

func TestParseRenderImagePayloadRejectsGarbage(t *testing.T) {
	task := asynq.NewTask(TypeRenderImage, []byte("{not json"))
	if _, err := ParseRenderImagePayload(task); err == nil {
		t.Fatal("expected parse error")
	}
}
