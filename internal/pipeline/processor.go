package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/imageshark/imageshark/internal/dataurl"
	"github.com/imageshark/imageshark/internal/domain"
)

var ErrUnsupportedSourceType = errors.New("unsupported source_type")

// Request is one async render job: a source plus an ordered list of tool
// steps. Every step renders from the same source and emits its own output.
type Request struct {
	JobID      string
	SourceType string
	ObjectKey  string
	FileName   string
	Steps      []domain.ToolParams
}

type Output struct {
	Tool    string
	MIME    string
	Path    string
	Bytes   int
	Width   int
	Height  int
	Success bool
}

type Result struct {
	SourceBytes int
	Outputs     []Output
}

type Fetcher interface {
	Fetch(ctx context.Context, req Request) ([]byte, error)
}

type Emitter interface {
	Emit(ctx context.Context, req Request, index int, step domain.ToolParams, artifact domain.RenderedArtifact, data []byte) (Output, error)
}

type Processor struct {
	fetcher  Fetcher
	renderer Renderer
	emitter  Emitter
}

func NewLocalProcessor(outputDir string) (*Processor, error) {
	renderer, err := newRenderer()
	if err != nil {
		return nil, fmt.Errorf("build renderer: %w", err)
	}

	return &Processor{
		fetcher:  LocalFileFetcher{},
		renderer: renderer,
		emitter:  LocalFileEmitter{OutputDir: outputDir},
	}, nil
}

func NewProcessor(fetcher Fetcher, emitter Emitter) (*Processor, error) {
	renderer, err := newRenderer()
	if err != nil {
		return nil, fmt.Errorf("build renderer: %w", err)
	}
	return &Processor{fetcher: fetcher, renderer: renderer, emitter: emitter}, nil
}

func (p *Processor) Process(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.JobID) == "" {
		return Result{}, errors.New("job_id is required")
	}
	if len(req.Steps) == 0 {
		return Result{}, errors.New("steps must contain at least one tool")
	}

	sourceBytes, err := p.fetcher.Fetch(ctx, req)
	if err != nil {
		return Result{}, fmt.Errorf("fetch stage: %w", err)
	}

	source := sourceImageFromBytes(req, sourceBytes)

	out := Result{
		SourceBytes: len(sourceBytes),
		Outputs:     make([]Output, 0, len(req.Steps)),
	}
	for i, step := range req.Steps {
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		default:
		}

		artifact, err := p.renderer.Render(ctx, source, step)
		if err != nil {
			return Result{}, fmt.Errorf("render stage step=%d tool=%s: %w", i, step.Tool, err)
		}

		_, data, err := dataurl.Decode(artifact.DataURL)
		if err != nil {
			return Result{}, fmt.Errorf("unpack artifact step=%d tool=%s: %w", i, step.Tool, err)
		}

		written, err := p.emitter.Emit(ctx, req, i, step, artifact, data)
		if err != nil {
			return Result{}, fmt.Errorf("emit stage step=%d tool=%s: %w", i, step.Tool, err)
		}
		out.Outputs = append(out.Outputs, written)
	}

	return out, nil
}

func sourceImageFromBytes(req Request, data []byte) domain.SourceImage {
	mime := dataurl.DetectMIME(data)
	if mime == "" {
		mime = domain.MIMEJPEG
	}

	name := strings.TrimSpace(req.FileName)
	if name == "" {
		name = filepath.Base(req.ObjectKey)
	}

	return domain.SourceImage{
		FileName: name,
		MIMEType: mime,
		ByteSize: int64(len(data)),
		DataURL:  dataurl.Encode(mime, data),
	}
}

type LocalFileFetcher struct{}

func (LocalFileFetcher) Fetch(ctx context.Context, req Request) ([]byte, error) {
	if !strings.EqualFold(req.SourceType, domain.SourceTypeLocalFile) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSourceType, req.SourceType)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	data, err := os.ReadFile(req.ObjectKey)
	if err != nil {
		return nil, fmt.Errorf("read input file %s: %w", req.ObjectKey, err)
	}
	return data, nil
}

type LocalFileEmitter struct {
	OutputDir string
}

func (e LocalFileEmitter) Emit(_ context.Context, req Request, index int, step domain.ToolParams, artifact domain.RenderedArtifact, data []byte) (Output, error) {
	if strings.TrimSpace(e.OutputDir) == "" {
		return Output{}, errors.New("output directory is required")
	}

	jobDir := filepath.Join(e.OutputDir, sanitizePathToken(req.JobID))
	if err := os.MkdirAll(jobDir, 0o755); err != nil {
		return Output{}, fmt.Errorf("create output dir: %w", err)
	}

	fullPath := filepath.Join(jobDir, stepFileName(index, step, artifact))
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return Output{}, fmt.Errorf("write output file: %w", err)
	}

	return Output{
		Tool:    step.Tool,
		MIME:    artifact.MIME,
		Path:    fullPath,
		Bytes:   len(data),
		Width:   artifact.Width,
		Height:  artifact.Height,
		Success: true,
	}, nil
}

func stepFileName(index int, step domain.ToolParams, artifact domain.RenderedArtifact) string {
	return fmt.Sprintf("%02d_%s%s", index, sanitizePathToken(step.Tool), domain.ExtensionForMIME(artifact.MIME))
}

func sanitizePathToken(in string) string {
	in = strings.TrimSpace(in)
	if in == "" {
		return "unknown"
	}

	var b strings.Builder
	b.Grow(len(in))
	for _, r := range in {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
