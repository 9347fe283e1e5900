package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/imageshark/imageshark/internal/dataurl"
	"github.com/imageshark/imageshark/internal/domain"
	"github.com/imageshark/imageshark/internal/pipeline"
	"github.com/imageshark/imageshark/internal/queue"
	"github.com/imageshark/imageshark/internal/store"
)

type fakeEnqueuer struct {
	enqueued []queue.RenderImagePayload
}

func (f *fakeEnqueuer) EnqueueRenderImage(_ context.Context, payload queue.RenderImagePayload) (*asynq.TaskInfo, error) {
	f.enqueued = append(f.enqueued, payload)
	return &asynq.TaskInfo{
		ID:    "task-1",
		Queue: "default",
		Type:  queue.TypeRenderImage,
		State: asynq.TaskStatePending,
	}, nil
}

func newTestServer(t *testing.T) (*Server, *fakeEnqueuer, *store.MemoryJobStore) {
	t.Helper()

	renderer, err := pipeline.NewRenderer()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	enqueuer := &fakeEnqueuer{}
	jobStore := store.NewMemoryJobStore()
	srv := NewServer(Options{
		Logger:      log.New(io.Discard, "", 0),
		Renderer:    renderer,
		Artifacts:   store.NewMemoryArtifactStore(8),
		QueueClient: enqueuer,
		JobStore:    jobStore,
	})
	return srv, enqueuer, jobStore
}

func testPNGDataURL(t *testing.T, w, h int) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return dataurl.Encode(domain.MIMEPNG, buf.Bytes())
}

func doJSON(t *testing.T, handler http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRenderTool_ResizeAndDownload(t *testing.T) {
	srv, _, _ := newTestServer(t)
	handler := srv.Handler()

	rec := doJSON(t, handler, http.MethodPost, "/v1/tools/resize", renderRequest{
		DataURL:  testPNGDataURL(t, 160, 90),
		FileName: "wide.png",
		Deliver:  true,
		Params: domain.ToolParams{
			Resize: &domain.ResizeParams{Width: 80, Height: 45},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Artifact         domain.RenderedArtifact `json:"artifact"`
		ImageKey         string                  `json:"image_key"`
		DownloadURL      string                  `json:"download_url"`
		DownloadFileName string                  `json:"download_file_name"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if resp.Artifact.Width != 80 || resp.Artifact.Height != 45 {
		t.Fatalf("expected 80x45, got %dx%d", resp.Artifact.Width, resp.Artifact.Height)
	}
	if !store.ValidArtifactKey(resp.ImageKey) {
		t.Fatalf("invalid image key %q", resp.ImageKey)
	}
	if resp.DownloadFileName != "wide.png" {
		t.Fatalf("unexpected download file name %q", resp.DownloadFileName)
	}

	downloadRec := doJSON(t, handler, http.MethodGet, resp.DownloadURL, nil)
	if downloadRec.Code != http.StatusOK {
		t.Fatalf("download: expected 200, got %d: %s", downloadRec.Code, downloadRec.Body.String())
	}
	if ct := downloadRec.Header().Get("Content-Type"); ct != domain.MIMEPNG {
		t.Fatalf("download content type %q", ct)
	}
	if cd := downloadRec.Header().Get("Content-Disposition"); !strings.Contains(cd, "wide.png") {
		t.Fatalf("content disposition %q", cd)
	}
	if _, _, err := image.Decode(bytes.NewReader(downloadRec.Body.Bytes())); err != nil {
		t.Fatalf("downloaded bytes are not an image: %v", err)
	}
}

func TestRenderTool_PathOverridesBodyTool(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/v1/tools/convert", renderRequest{
		DataURL: testPNGDataURL(t, 32, 32),
		Params: domain.ToolParams{
			Tool:    domain.ToolResize,
			Convert: &domain.ConvertParams{MIME: domain.MIMEJPEG, Quality: 0.8},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Artifact domain.RenderedArtifact `json:"artifact"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Artifact.MIME != domain.MIMEJPEG {
		t.Fatalf("expected convert to run, got mime %s", resp.Artifact.MIME)
	}
}

func TestRenderTool_UnknownTool(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/v1/tools/sharpen", renderRequest{
		DataURL: testPNGDataURL(t, 16, 16),
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestRenderTool_InvalidParams(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/v1/tools/resize", renderRequest{
		DataURL: testPNGDataURL(t, 16, 16),
		Params: domain.ToolParams{
			Resize: &domain.ResizeParams{Width: 0, Height: 10},
		},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRenderTool_MissingSource(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/v1/tools/resize", renderRequest{
		Params: domain.ToolParams{
			Resize: &domain.ResizeParams{Width: 10, Height: 10},
		},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestDownload_KeyValidation(t *testing.T) {
	srv, _, _ := newTestServer(t)
	handler := srv.Handler()

	rec := doJSON(t, handler, http.MethodGet, "/v1/download?imageKey=../../etc/passwd", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed key, got %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodGet, "/v1/download?imageKey=converted_image_1700000000000", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown key, got %d", rec.Code)
	}
}

func TestCreateAndStartJob_LocalFile(t *testing.T) {
	srv, enqueuer, jobStore := newTestServer(t)
	handler := srv.Handler()

	rec := doJSON(t, handler, http.MethodPost, "/v1/jobs", domain.CreateJobRequest{
		SourceType: domain.SourceTypeLocalFile,
		ObjectKey:  "/tmp/input.png",
		FileName:   "input.png",
		Steps: []domain.ToolParams{
			{Tool: domain.ToolResize, Resize: &domain.ResizeParams{Width: 100, Height: 100}},
		},
	})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("create: expected 202, got %d: %s", rec.Code, rec.Body.String())
	}

	var created struct {
		JobID    string `json:"job_id"`
		StartURL string `json:"start_url"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}

	startRec := doJSON(t, handler, http.MethodPost, created.StartURL, nil)
	if startRec.Code != http.StatusAccepted {
		t.Fatalf("start: expected 202, got %d: %s", startRec.Code, startRec.Body.String())
	}

	if len(enqueuer.enqueued) != 1 {
		t.Fatalf("expected 1 enqueued payload, got %d", len(enqueuer.enqueued))
	}
	if enqueuer.enqueued[0].JobID != created.JobID {
		t.Fatalf("enqueued wrong job: %s", enqueuer.enqueued[0].JobID)
	}

	job, ok, err := jobStore.Get(context.Background(), created.JobID)
	if err != nil || !ok {
		t.Fatalf("job lookup: ok=%v err=%v", ok, err)
	}
	if job.Status != domain.JobStatusQueued {
		t.Fatalf("expected queued, got %s", job.Status)
	}
}

func TestCreateJob_RejectsInvalidRequest(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/v1/jobs", domain.CreateJobRequest{
		SourceType: domain.SourceTypeLocalFile,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestStartJob_UnknownJob(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/v1/jobs/nope/start", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestUploadImage(t *testing.T) {
	srv, _, _ := newTestServer(t)

	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 24, 24))
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	partHeader := textproto.MIMEHeader{}
	partHeader.Set("Content-Disposition", `form-data; name="file"; filename="upload.png"`)
	partHeader.Set("Content-Type", "image/png")
	part, err := writer.CreatePart(partHeader)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(buf.Bytes()); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/images", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		ImageID string             `json:"image_id"`
		Source  domain.SourceImage `json:"source"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ImageID == "" {
		t.Fatal("missing image id")
	}
	if resp.Source.MIMEType != domain.MIMEPNG {
		t.Fatalf("expected %s, got %s", domain.MIMEPNG, resp.Source.MIMEType)
	}
}

func TestEstimateEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)
	handler := srv.Handler()

	rec := doJSON(t, handler, http.MethodGet,
		"/v1/estimate?src_mime=image/png&dst_mime=image/webp&src_size=1000&quality=1.0", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		EstimatedBytes int64 `json:"estimated_bytes"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.EstimatedBytes != 600 {
		t.Fatalf("expected 600, got %d", resp.EstimatedBytes)
	}

	rec = doJSON(t, handler, http.MethodGet, "/v1/estimate?src_mime=image/png&dst_mime=image/gif&src_size=1000", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for gif target, got %d", rec.Code)
	}
}

func TestListTools(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/v1/tools", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Tools           []string                         `json:"tools"`
		PassportPresets map[string]domain.PassportPreset `json:"passport_presets"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Tools) != 7 {
		t.Fatalf("expected 7 tools, got %d", len(resp.Tools))
	}
	if _, ok := resp.PassportPresets["us"]; !ok {
		t.Fatal("missing us passport preset")
	}
}
