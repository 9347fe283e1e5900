package domain

import (
	"strings"
	"testing"
)

func validSteps() []ToolParams {
	return []ToolParams{
		{Tool: ToolResize, Resize: &ResizeParams{Width: 800, Height: 450}},
		{Tool: ToolConvert, Convert: &ConvertParams{MIME: MIMEWebP, Quality: 0.8}},
	}
}

func TestCreateJobRequest_Validate(t *testing.T) {
	req := CreateJobRequest{
		SourceType: SourceTypeLocalFile,
		ObjectKey:  "/tmp/input.png",
		Steps:      validSteps(),
	}
	if err := req.Validate(); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}
}

func TestCreateJobRequest_ValidateRejections(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*CreateJobRequest)
		wantMsg string
	}{
		{
			name:    "missing source type",
			mutate:  func(r *CreateJobRequest) { r.SourceType = "" },
			wantMsg: "source_type is required",
		},
		{
			name:    "unknown source type",
			mutate:  func(r *CreateJobRequest) { r.SourceType = "ftp" },
			wantMsg: "unsupported source_type",
		},
		{
			name: "local file without object key",
			mutate: func(r *CreateJobRequest) {
				r.SourceType = SourceTypeLocalFile
				r.ObjectKey = ""
			},
			wantMsg: "object_key is required",
		},
		{
			name:    "no steps",
			mutate:  func(r *CreateJobRequest) { r.Steps = nil },
			wantMsg: "at least one tool",
		},
		{
			name: "invalid step",
			mutate: func(r *CreateJobRequest) {
				r.Steps = []ToolParams{{Tool: ToolResize}}
			},
			wantMsg: "steps[0]",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := CreateJobRequest{
				SourceType: SourceTypeLocalFile,
				ObjectKey:  "/tmp/input.png",
				Steps:      validSteps(),
			}
			tc.mutate(&req)
			err := req.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantMsg) {
				t.Fatalf("expected error containing %q, got %v", tc.wantMsg, err)
			}
		})
	}
}
