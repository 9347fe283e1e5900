package domain

import (
	"fmt"
	"math"
	"strings"
)

// Tool identifiers. Every render dispatches on one of these.
const (
	ToolResize    = "resize"
	ToolCompress  = "compress"
	ToolConvert   = "convert"
	ToolCrop      = "crop"
	ToolPassport  = "passport"
	ToolWatermark = "watermark"
	ToolMeme      = "meme"
)

const (
	MinQuality = 0.1
	MaxQuality = 1.0

	// MaxDimension bounds resize targets.
	MaxDimension = 10000

	// PassportQuality is fixed for passport renders.
	PassportQuality = 0.95

	// WatermarkQuality is the encode quality for watermark renders.
	WatermarkQuality = 0.92
)

// ToolParams is the tagged parameter record for one render. Tool names the
// variant; exactly the matching pointer field must be set.
type ToolParams struct {
	Tool      string           `json:"tool"`
	Resize    *ResizeParams    `json:"resize,omitempty"`
	Compress  *CompressParams  `json:"compress,omitempty"`
	Convert   *ConvertParams   `json:"convert,omitempty"`
	Crop      *CropParams      `json:"crop,omitempty"`
	Passport  *PassportParams  `json:"passport,omitempty"`
	Watermark *WatermarkParams `json:"watermark,omitempty"`
	Meme      *MemeParams      `json:"meme,omitempty"`
}

type ResizeParams struct {
	Width      int  `json:"width"`
	Height     int  `json:"height"`
	LockAspect bool `json:"lock_aspect"`
}

type CompressParams struct {
	Quality  float64 `json:"quality"`
	MaxBytes int64   `json:"max_bytes,omitempty"`
	MIME     string  `json:"mime,omitempty"`
}

type ConvertParams struct {
	MIME    string  `json:"mime"`
	Quality float64 `json:"quality"`
}

// CropRect is a rectangle in percent of the displayed image. The render
// stage maps it to natural pixels, so the rectangle stays valid when layout
// resizes the preview.
type CropRect struct {
	XPct      float64 `json:"x_pct"`
	YPct      float64 `json:"y_pct"`
	WidthPct  float64 `json:"width_pct"`
	HeightPct float64 `json:"height_pct"`
}

func (r CropRect) Validate() error {
	if r.WidthPct <= 0 || r.HeightPct <= 0 {
		return fmt.Errorf("%w: crop rectangle must have positive size", ErrInvalidParameters)
	}
	if r.XPct < 0 || r.YPct < 0 {
		return fmt.Errorf("%w: crop origin must be non-negative", ErrInvalidParameters)
	}
	if r.XPct+r.WidthPct > 100 || r.YPct+r.HeightPct > 100 {
		return fmt.Errorf("%w: crop rectangle exceeds source bounds", ErrInvalidParameters)
	}
	return nil
}

type CropParams struct {
	Rect    CropRect `json:"rect"`
	Aspect  float64  `json:"aspect,omitempty"`
	Quality float64  `json:"quality"`
}

type PassportParams struct {
	Country string   `json:"country"`
	Rect    CropRect `json:"rect"`
}

type WatermarkParams struct {
	Text        string  `json:"text"`
	FontFamily  string  `json:"font_family,omitempty"`
	FontSize    float64 `json:"font_size"`
	Color       string  `json:"color,omitempty"`
	Opacity     float64 `json:"opacity"`
	XPct        float64 `json:"x_pct"`
	YPct        float64 `json:"y_pct"`
	RotationDeg float64 `json:"rotation_deg,omitempty"`
	Tile        bool    `json:"tile,omitempty"`
}

type MemeParams struct {
	TopText     string  `json:"top_text,omitempty"`
	BottomText  string  `json:"bottom_text,omitempty"`
	FontFamily  string  `json:"font_family,omitempty"`
	FontSize    float64 `json:"font_size,omitempty"`
	FillColor   string  `json:"fill_color,omitempty"`
	StrokeColor string  `json:"stroke_color,omitempty"`
	StrokeWidth float64 `json:"stroke_width,omitempty"`
}

// Validate checks the variant named by Tool. Unknown tools and mismatched
// variant fields are rejected before any pixels are touched.
func (p ToolParams) Validate() error {
	switch strings.ToLower(strings.TrimSpace(p.Tool)) {
	case ToolResize:
		if p.Resize == nil {
			return fmt.Errorf("%w: resize parameters are required", ErrInvalidParameters)
		}
		return p.Resize.Validate()
	case ToolCompress:
		if p.Compress == nil {
			return fmt.Errorf("%w: compress parameters are required", ErrInvalidParameters)
		}
		return p.Compress.Validate()
	case ToolConvert:
		if p.Convert == nil {
			return fmt.Errorf("%w: convert parameters are required", ErrInvalidParameters)
		}
		return p.Convert.Validate()
	case ToolCrop:
		if p.Crop == nil {
			return fmt.Errorf("%w: crop parameters are required", ErrInvalidParameters)
		}
		return p.Crop.Validate()
	case ToolPassport:
		if p.Passport == nil {
			return fmt.Errorf("%w: passport parameters are required", ErrInvalidParameters)
		}
		return p.Passport.Validate()
	case ToolWatermark:
		if p.Watermark == nil {
			return fmt.Errorf("%w: watermark parameters are required", ErrInvalidParameters)
		}
		return p.Watermark.Validate()
	case ToolMeme:
		if p.Meme == nil {
			return fmt.Errorf("%w: meme parameters are required", ErrInvalidParameters)
		}
		return p.Meme.Validate()
	default:
		return fmt.Errorf("%w: unknown tool %q", ErrInvalidParameters, p.Tool)
	}
}

// Validate accepts a single omitted dimension under aspect lock; the render
// stage derives it from the source ratio. Without the lock both dimensions
// are required.
func (p ResizeParams) Validate() error {
	if p.LockAspect {
		if p.Width <= 0 && p.Height <= 0 {
			return fmt.Errorf("%w: resize requires at least one dimension", ErrInvalidParameters)
		}
	} else if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("%w: resize dimensions must be positive", ErrInvalidParameters)
	}
	if p.Width < 0 || p.Height < 0 {
		return fmt.Errorf("%w: resize dimensions must not be negative", ErrInvalidParameters)
	}
	if p.Width > MaxDimension || p.Height > MaxDimension {
		return fmt.Errorf("%w: resize dimensions exceed %d", ErrInvalidParameters, MaxDimension)
	}
	return nil
}

// LinkedHeight recomputes the height for a width edit under aspect lock,
// rounded to the nearest integer and never below 1.
func (p ResizeParams) LinkedHeight(source SourceImage, width int) int {
	ratio := source.AspectRatio()
	if ratio <= 0 {
		return p.Height
	}
	h := int(math.Round(float64(width) / ratio))
	if h < 1 {
		h = 1
	}
	return h
}

// LinkedWidth is the height-edit counterpart of LinkedHeight.
func (p ResizeParams) LinkedWidth(source SourceImage, height int) int {
	ratio := source.AspectRatio()
	if ratio <= 0 {
		return p.Width
	}
	w := int(math.Round(float64(height) * ratio))
	if w < 1 {
		w = 1
	}
	return w
}

func (p CompressParams) Validate() error {
	if err := validateQuality(p.Quality); err != nil {
		return err
	}
	if p.MaxBytes < 0 {
		return fmt.Errorf("%w: max_bytes must be non-negative", ErrInvalidParameters)
	}
	return nil
}

// EncodeMIME resolves the compress output MIME. Compression is only
// meaningful for lossy codecs, so non-lossy requests (including PNG and GIF
// sources) are silently treated as JPEG.
func (p CompressParams) EncodeMIME(sourceMIME string) string {
	mime := strings.ToLower(strings.TrimSpace(p.MIME))
	if mime == "" {
		mime = strings.ToLower(strings.TrimSpace(sourceMIME))
	}
	if !IsLossyMIME(mime) {
		return MIMEJPEG
	}
	return mime
}

func (p ConvertParams) Validate() error {
	if !IsOutputMIME(p.MIME) {
		return fmt.Errorf("%w: unsupported target mime %q", ErrInvalidParameters, p.MIME)
	}
	if IsLossyMIME(p.MIME) {
		return validateQuality(p.Quality)
	}
	return nil
}

func (p CropParams) Validate() error {
	if err := p.Rect.Validate(); err != nil {
		return err
	}
	if p.Aspect < 0 {
		return fmt.Errorf("%w: crop aspect must be non-negative", ErrInvalidParameters)
	}
	return validateQuality(p.Quality)
}

func (p PassportParams) Validate() error {
	if _, ok := PassportPresetFor(p.Country); !ok {
		return fmt.Errorf("%w: unknown passport preset %q", ErrInvalidParameters, p.Country)
	}
	return p.Rect.Validate()
}

func (p WatermarkParams) Validate() error {
	if strings.TrimSpace(p.Text) == "" {
		return fmt.Errorf("%w: watermark text is required", ErrInvalidParameters)
	}
	if p.FontSize <= 0 {
		return fmt.Errorf("%w: watermark font size must be positive", ErrInvalidParameters)
	}
	if p.Opacity < 0 || p.Opacity > 1 {
		return fmt.Errorf("%w: watermark opacity must be within [0,1]", ErrInvalidParameters)
	}
	if p.XPct < 0 || p.XPct > 100 || p.YPct < 0 || p.YPct > 100 {
		return fmt.Errorf("%w: watermark anchor must be within [0,100] percent", ErrInvalidParameters)
	}
	return nil
}

func (p MemeParams) Validate() error {
	if strings.TrimSpace(p.TopText) == "" && strings.TrimSpace(p.BottomText) == "" {
		return fmt.Errorf("%w: meme requires at least one caption", ErrInvalidParameters)
	}
	if p.FontSize < 0 {
		return fmt.Errorf("%w: meme font size must be non-negative", ErrInvalidParameters)
	}
	if p.StrokeWidth < 0 {
		return fmt.Errorf("%w: meme stroke width must be non-negative", ErrInvalidParameters)
	}
	return nil
}

func validateQuality(q float64) error {
	if q < MinQuality || q > MaxQuality {
		return fmt.Errorf("%w: quality %.2f outside [%.1f, %.1f]", ErrInvalidParameters, q, MinQuality, MaxQuality)
	}
	return nil
}
