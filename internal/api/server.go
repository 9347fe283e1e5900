package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/imageshark/imageshark/internal/dataurl"
	"github.com/imageshark/imageshark/internal/domain"
	"github.com/imageshark/imageshark/internal/id"
	"github.com/imageshark/imageshark/internal/ingest"
	"github.com/imageshark/imageshark/internal/pipeline"
	"github.com/imageshark/imageshark/internal/queue"
	"github.com/imageshark/imageshark/internal/store"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// editorTools is the tab set exposed by the editor surface, in display
// order.
var editorTools = []string{
	domain.ToolResize,
	domain.ToolCompress,
	domain.ToolWatermark,
	domain.ToolConvert,
	domain.ToolCrop,
	domain.ToolMeme,
	domain.ToolPassport,
}

type Server struct {
	logger                *log.Logger
	ingestor              ingest.Ingestor
	renderer              pipeline.Renderer
	artifacts             store.ArtifactStore
	queueClient           queueEnqueuer
	jobStore              store.JobStore
	storage               objectStorage
	rateLimiter           RateLimiter
	rateLimitUserIDHeader string
	presignTTL            time.Duration
	maxUploadBytes        int64
	metrics               *metrics
	tracer                trace.Tracer
	mux                   *http.ServeMux
}

type Options struct {
	Logger         *log.Logger
	Renderer       pipeline.Renderer
	Artifacts      store.ArtifactStore
	QueueClient    queueEnqueuer
	JobStore       store.JobStore
	Storage        objectStorage
	RateLimiter    RateLimiter
	PresignTTL     time.Duration
	MaxUploadBytes int64
}

type queueEnqueuer interface {
	EnqueueRenderImage(ctx context.Context, payload queue.RenderImagePayload) (*asynq.TaskInfo, error)
}

type objectStorage interface {
	PresignedPutURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error)
	ObjectExists(ctx context.Context, objectKey string) (bool, error)
	ReadObject(ctx context.Context, objectKey string) ([]byte, error)
	WriteObject(ctx context.Context, objectKey string, data []byte, contentType string) error
}

func NewServer(opts Options) *Server {
	if opts.PresignTTL <= 0 {
		opts.PresignTTL = 15 * time.Minute
	}
	storage := opts.Storage
	if storage == nil {
		storage = unavailableObjectStorage{}
	}
	artifacts := opts.Artifacts
	if artifacts == nil {
		artifacts = store.NewMemoryArtifactStore(0)
	}

	s := &Server{
		logger:                opts.Logger,
		ingestor:              ingest.New(opts.MaxUploadBytes),
		renderer:              opts.Renderer,
		artifacts:             artifacts,
		queueClient:           opts.QueueClient,
		jobStore:              opts.JobStore,
		storage:               storage,
		rateLimiter:           opts.RateLimiter,
		rateLimitUserIDHeader: "X-User-ID",
		presignTTL:            opts.PresignTTL,
		maxUploadBytes:        opts.MaxUploadBytes,
		metrics:               newMetrics(),
		tracer:                otel.Tracer("imageshark/api"),
		mux:                   http.NewServeMux(),
	}
	s.routes()
	return s
}

type unavailableObjectStorage struct{}

func (unavailableObjectStorage) PresignedPutURL(_ context.Context, _ string, _ time.Duration) (string, error) {
	return "", errors.New("object storage is unavailable")
}

func (unavailableObjectStorage) ObjectExists(_ context.Context, _ string) (bool, error) {
	return false, errors.New("object storage is unavailable")
}

func (unavailableObjectStorage) ReadObject(_ context.Context, _ string) ([]byte, error) {
	return nil, errors.New("object storage is unavailable")
}

func (unavailableObjectStorage) WriteObject(_ context.Context, _ string, _ []byte, _ string) error {
	return errors.New("object storage is unavailable")
}

func (s *Server) Handler() http.Handler {
	return s.metrics.withHTTPMetrics(s.withTracing(s.withRateLimit(s.mux)))
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	s.mux.Handle("GET /metrics", s.metrics.metricsHandler())
	s.mux.HandleFunc("GET /v1/tools", s.handleListTools)
	s.mux.HandleFunc("POST /v1/images", s.handleUploadImage)
	s.mux.HandleFunc("POST /v1/tools/{tool}", s.handleRenderTool)
	s.mux.HandleFunc("GET /v1/estimate", s.handleEstimate)
	s.mux.HandleFunc("POST /v1/jobs", s.handleCreateJob)
	s.mux.HandleFunc("GET /v1/jobs/{id}", s.handleGetJob)
	s.mux.HandleFunc("POST /v1/jobs/{id}/start", s.handleStartJob)
	s.mux.HandleFunc("GET /v1/download", s.handleDownload)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListTools(w http.ResponseWriter, _ *http.Request) {
	presets := make(map[string]domain.PassportPreset)
	for _, code := range domain.PassportCountries() {
		preset, _ := domain.PassportPresetFor(code)
		presets[code] = preset
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"tools":            editorTools,
		"passport_presets": presets,
		"crop_aspects":     domain.CropAspectPresets,
	})
}

func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	limit := s.maxUploadBytes
	if limit <= 0 {
		limit = ingest.DefaultMaxBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit+(1<<20))

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	source, err := s.ingestor.Ingest(header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		writeJSON(w, statusForPipelineError(err), map[string]string{"error": err.Error()})
		return
	}

	imageID := id.New()
	objectKey := ""
	if _, ok := s.storage.(unavailableObjectStorage); !ok {
		key := fmt.Sprintf("uploads/%s/source", imageID)
		_, data, decodeErr := dataurl.Decode(source.DataURL)
		if decodeErr == nil {
			if err := s.storage.WriteObject(r.Context(), key, data, source.MIMEType); err != nil {
				s.logger.Printf("source upload to object store failed image_id=%s err=%v", imageID, err)
			} else {
				objectKey = key
			}
		}
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"image_id":   imageID,
		"object_key": objectKey,
		"source":     source,
	})
}

type renderRequest struct {
	DataURL   string            `json:"data_url,omitempty"`
	ObjectKey string            `json:"object_key,omitempty"`
	FileName  string            `json:"file_name,omitempty"`
	Deliver   bool              `json:"deliver,omitempty"`
	Params    domain.ToolParams `json:"params"`
}

func (s *Server) handleRenderTool(w http.ResponseWriter, r *http.Request) {
	tool := strings.ToLower(strings.TrimSpace(r.PathValue("tool")))
	if !isEditorTool(tool) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": fmt.Sprintf("unknown tool: %s", tool)})
		return
	}

	var req renderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	// The path segment is authoritative; the body's tool tag is ignored.
	req.Params.Tool = tool

	source, err := s.resolveSource(r.Context(), req)
	if err != nil {
		writeJSON(w, statusForPipelineError(err), map[string]string{"error": err.Error()})
		return
	}

	artifact, err := s.renderer.Render(r.Context(), source, req.Params)
	if err != nil {
		s.metrics.toolRenders.WithLabelValues(tool, "error").Inc()
		writeJSON(w, statusForPipelineError(err), map[string]string{"error": err.Error()})
		return
	}
	s.metrics.toolRenders.WithLabelValues(tool, "ok").Inc()

	response := map[string]any{
		"artifact":           artifact,
		"download_file_name": artifact.DownloadFileName(),
	}

	if req.Deliver {
		key := store.NewArtifactKey(time.Now())
		if err := s.artifacts.Put(r.Context(), key, artifact.DataURL); err != nil {
			// The render succeeded; report the storage failure and let the
			// caller fall back to the inline data URL.
			s.logger.Printf("artifact store write failed key=%s err=%v", key, err)
			response["storage_error"] = "the image was rendered but could not be staged for download"
		} else {
			s.metrics.artifactsStaged.Inc()
			response["image_key"] = key
			response["download_url"] = downloadURL(key, artifact.SourceFileName, tool)
		}
	}

	writeJSON(w, http.StatusOK, response)
}

// resolveSource builds the SourceImage for a sync render from either an
// inline data URL or a previously uploaded object.
func (s *Server) resolveSource(ctx context.Context, req renderRequest) (domain.SourceImage, error) {
	if strings.TrimSpace(req.DataURL) != "" {
		mime, data, err := dataurl.Decode(req.DataURL)
		if err != nil {
			return domain.SourceImage{}, fmt.Errorf("%w: %v", domain.ErrReadFailure, err)
		}
		if sniffed := dataurl.DetectMIME(data); sniffed != "" {
			mime = sniffed
		}
		return domain.SourceImage{
			FileName: req.FileName,
			MIMEType: mime,
			ByteSize: int64(len(data)),
			DataURL:  req.DataURL,
		}, nil
	}

	if strings.TrimSpace(req.ObjectKey) != "" {
		data, err := s.storage.ReadObject(ctx, req.ObjectKey)
		if err != nil {
			return domain.SourceImage{}, fmt.Errorf("%w: %v", domain.ErrReadFailure, err)
		}
		mime := dataurl.DetectMIME(data)
		if mime == "" {
			mime = domain.MIMEJPEG
		}
		return domain.SourceImage{
			FileName: req.FileName,
			MIMEType: mime,
			ByteSize: int64(len(data)),
			DataURL:  dataurl.Encode(mime, data),
		}, nil
	}

	return domain.SourceImage{}, fmt.Errorf("%w: data_url or object_key is required", domain.ErrReadFailure)
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	srcSize, err := strconv.ParseInt(q.Get("src_size"), 10, 64)
	if err != nil || srcSize < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "src_size must be a non-negative integer"})
		return
	}

	quality := 1.0
	if raw := q.Get("quality"); raw != "" {
		quality, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "quality must be a number"})
			return
		}
	}

	srcMIME := q.Get("src_mime")
	dstMIME := q.Get("dst_mime")
	if !domain.IsOutputMIME(dstMIME) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("unsupported target mime: %s", dstMIME)})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"estimated_bytes": pipeline.EstimateConvertedSize(srcSize, srcMIME, dstMIME, quality),
	})
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateJobRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	now := time.Now().UTC()
	jobID := id.New()
	sourceType := strings.ToLower(strings.TrimSpace(req.SourceType))
	objectKey := strings.TrimSpace(req.ObjectKey)
	uploadState := "not_required"
	presignedPutURL := ""

	if sourceType == domain.SourceTypeS3Presigned {
		objectKey = fmt.Sprintf("uploads/%s/source", jobID)
		putURL, err := s.storage.PresignedPutURL(r.Context(), objectKey, s.presignTTL)
		if err != nil {
			s.logger.Printf("generate presigned url failed for job %s: %v", jobID, err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to generate upload URL"})
			return
		}
		presignedPutURL = putURL
		uploadState = "ready"
	}

	job := domain.RenderJob{
		ID:         jobID,
		UserID:     strings.TrimSpace(r.Header.Get(s.rateLimitUserIDHeader)),
		Status:     domain.JobStatusCreated,
		SourceType: sourceType,
		WebhookURL: req.WebhookURL,
		Steps:      req.Steps,
		ObjectKey:  objectKey,
		FileName:   req.FileName,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.jobStore.Create(r.Context(), job); err != nil {
		s.logger.Printf("create job failed for job %s: %v", job.ID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create job"})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id": job.ID,
		"status": job.Status,
		"upload": map[string]string{
			"object_key":          job.ObjectKey,
			"presigned_put_url":   presignedPutURL,
			"presigned_url_state": uploadState,
		},
		"start_url": fmt.Sprintf("/v1/jobs/%s/start", job.ID),
	})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	job, ok, err := s.jobStore.Get(r.Context(), jobID)
	if err != nil {
		s.logger.Printf("fetch job failed for job %s: %v", jobID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load job"})
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "job not found"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"job_id":      job.ID,
		"status":      job.Status,
		"source_type": job.SourceType,
		"object_key":  job.ObjectKey,
		"steps":       job.Steps,
		"created_at":  job.CreatedAt,
		"updated_at":  job.UpdatedAt,
	})
}

func (s *Server) handleStartJob(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")

	job, ok, err := s.jobStore.Get(r.Context(), jobID)
	if err != nil {
		s.logger.Printf("fetch job failed for job %s: %v", jobID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load job"})
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "job not found"})
		return
	}

	if err := s.verifySourceExists(r.Context(), job); err != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	}

	payload := queue.RenderImagePayload{
		JobID:       job.ID,
		SourceType:  job.SourceType,
		WebhookURL:  job.WebhookURL,
		ObjectKey:   job.ObjectKey,
		FileName:    job.FileName,
		Steps:       job.Steps,
		RequestedAt: time.Now().UTC(),
	}

	taskInfo, err := s.queueClient.EnqueueRenderImage(r.Context(), payload)
	if err != nil {
		s.logger.Printf("enqueue failed for job %s: %v", job.ID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to enqueue job"})
		return
	}
	s.metrics.queueEnqueued.WithLabelValues(taskInfo.Queue).Inc()

	if _, err := s.jobStore.UpdateStatus(r.Context(), job.ID, domain.JobStatusQueued); err != nil {
		s.logger.Printf("update status failed for job %s: %v", job.ID, err)
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":      job.ID,
		"status":      domain.JobStatusQueued,
		"queue":       taskInfo.Queue,
		"task_id":     taskInfo.ID,
		"state":       taskInfo.State.String(),
		"enqueued_at": taskInfo.NextProcessAt,
	})
}

// handleDownload is the delivery hand-off view: it resolves the staged data
// URL by key and serves the bytes as a file save.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	key := q.Get("imageKey")
	if !store.ValidArtifactKey(key) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "imageKey is missing or malformed"})
		return
	}

	dataURL, err := s.artifacts.Get(r.Context(), key)
	if errors.Is(err, store.ErrArtifactNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no staged image for this key"})
		return
	}
	if err != nil {
		s.logger.Printf("artifact store read failed key=%s err=%v", key, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load staged image"})
		return
	}

	mime, data, err := dataurl.Decode(dataURL)
	if err != nil {
		s.logger.Printf("staged artifact is malformed key=%s err=%v", key, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "staged image is malformed"})
		return
	}

	artifact := domain.RenderedArtifact{MIME: mime, SourceFileName: q.Get("fileName")}
	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.DownloadFileName()))
	if tab := q.Get("tab"); tab != "" {
		w.Header().Set("X-ImageShark-Tool", tab)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) verifySourceExists(ctx context.Context, job domain.RenderJob) error {
	switch job.SourceType {
	case domain.SourceTypeLocalFile:
		return nil
	default:
		exists, err := s.storage.ObjectExists(ctx, job.ObjectKey)
		if err != nil {
			return fmt.Errorf("source object check failed: %w", err)
		}
		if !exists {
			return fmt.Errorf("source object is missing: %s", job.ObjectKey)
		}
		return nil
	}
}

func isEditorTool(tool string) bool {
	for _, t := range editorTools {
		if t == tool {
			return true
		}
	}
	return false
}

func downloadURL(key, fileName, tool string) string {
	params := url.Values{}
	params.Set("imageKey", key)
	if fileName != "" {
		params.Set("fileName", fileName)
	}
	params.Set("tab", tool)
	return "/v1/download?" + params.Encode()
}

// statusForPipelineError maps error kinds onto HTTP statuses.
func statusForPipelineError(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidParameters),
		errors.Is(err, domain.ErrUnsupportedType),
		errors.Is(err, domain.ErrReadFailure):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrDecodeFailure):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrStorageFailure):
		return http.StatusInsufficientStorage
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, into any) error {
	const maxBodyBytes = 64 << 20
	limited := io.LimitReader(r.Body, maxBodyBytes)
	decoder := json.NewDecoder(limited)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(into); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return errors.New("invalid JSON body: multiple JSON values are not allowed")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
