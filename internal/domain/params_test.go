package domain

import (
	"errors"
	"testing"
)

func TestToolParams_ValidateUnknownTool(t *testing.T) {
	err := ToolParams{Tool: "sharpen"}.Validate()
	if !errors.Is(err, ErrInvalidParameters) {
		t.Fatalf("expected ErrInvalidParameters, got %v", err)
	}
}

func TestToolParams_ValidateMissingVariant(t *testing.T) {
	for _, tool := range []string{ToolResize, ToolCompress, ToolConvert, ToolCrop, ToolPassport, ToolWatermark, ToolMeme} {
		if err := (ToolParams{Tool: tool}).Validate(); !errors.Is(err, ErrInvalidParameters) {
			t.Fatalf("tool %s: expected ErrInvalidParameters, got %v", tool, err)
		}
	}
}

func TestResizeParams_Validate(t *testing.T) {
	if err := (ResizeParams{Width: 800, Height: 450}).Validate(); err != nil {
		t.Fatalf("valid resize rejected: %v", err)
	}
	if err := (ResizeParams{Width: 0, Height: 450}).Validate(); !errors.Is(err, ErrInvalidParameters) {
		t.Fatalf("expected rejection for zero width, got %v", err)
	}
	if err := (ResizeParams{Width: MaxDimension + 1, Height: 450}).Validate(); !errors.Is(err, ErrInvalidParameters) {
		t.Fatalf("expected rejection above MaxDimension, got %v", err)
	}
}

func TestResizeParams_ValidateAspectLockAllowsOneDimension(t *testing.T) {
	if err := (ResizeParams{Width: 800, LockAspect: true}).Validate(); err != nil {
		t.Fatalf("width-only resize under lock rejected: %v", err)
	}
	if err := (ResizeParams{Height: 450, LockAspect: true}).Validate(); err != nil {
		t.Fatalf("height-only resize under lock rejected: %v", err)
	}
	if err := (ResizeParams{LockAspect: true}).Validate(); !errors.Is(err, ErrInvalidParameters) {
		t.Fatalf("expected rejection with both dimensions omitted, got %v", err)
	}
	if err := (ResizeParams{Width: -1, Height: 450, LockAspect: true}).Validate(); !errors.Is(err, ErrInvalidParameters) {
		t.Fatalf("expected rejection for negative width, got %v", err)
	}
}

func TestResizeParams_AspectLock(t *testing.T) {
	source := SourceImage{NaturalWidth: 1600, NaturalHeight: 900}
	p := ResizeParams{Width: 1600, Height: 900, LockAspect: true}

	if got := p.LinkedHeight(source, 800); got != 450 {
		t.Fatalf("expected linked height 450, got %d", got)
	}
	if got := p.LinkedWidth(source, 450); got != 800 {
		t.Fatalf("expected linked width 800, got %d", got)
	}

	// Before decode the ratio is unknown and the existing value holds.
	if got := p.LinkedHeight(SourceImage{}, 800); got != 900 {
		t.Fatalf("expected height unchanged without ratio, got %d", got)
	}
}

func TestResizeParams_AspectLockNeverBelowOne(t *testing.T) {
	source := SourceImage{NaturalWidth: 4000, NaturalHeight: 10}
	p := ResizeParams{Width: 4000, Height: 10}
	if got := p.LinkedHeight(source, 1); got != 1 {
		t.Fatalf("expected floor of 1, got %d", got)
	}
}

func TestCompressParams_QualityBounds(t *testing.T) {
	if err := (CompressParams{Quality: 0.05}).Validate(); !errors.Is(err, ErrInvalidParameters) {
		t.Fatalf("expected rejection below MinQuality, got %v", err)
	}
	if err := (CompressParams{Quality: 1.5}).Validate(); !errors.Is(err, ErrInvalidParameters) {
		t.Fatalf("expected rejection above MaxQuality, got %v", err)
	}
	if err := (CompressParams{Quality: 0.8}).Validate(); err != nil {
		t.Fatalf("valid quality rejected: %v", err)
	}
}

func TestCompressParams_EncodeMIME(t *testing.T) {
	cases := []struct {
		requested string
		source    string
		want      string
	}{
		{"", MIMEJPEG, MIMEJPEG},
		{"", MIMEWebP, MIMEWebP},
		{"", MIMEPNG, MIMEJPEG},
		{"", MIMEGIF, MIMEJPEG},
		{MIMEWebP, MIMEPNG, MIMEWebP},
		{MIMEPNG, MIMEJPEG, MIMEJPEG},
	}
	for _, tc := range cases {
		p := CompressParams{Quality: 0.8, MIME: tc.requested}
		if got := p.EncodeMIME(tc.source); got != tc.want {
			t.Fatalf("requested=%q source=%q: expected %s, got %s", tc.requested, tc.source, tc.want, got)
		}
	}
}

func TestConvertParams_Validate(t *testing.T) {
	if err := (ConvertParams{MIME: MIMEWebP, Quality: 0.8}).Validate(); err != nil {
		t.Fatalf("valid convert rejected: %v", err)
	}
	if err := (ConvertParams{MIME: MIMEGIF}).Validate(); !errors.Is(err, ErrInvalidParameters) {
		t.Fatalf("expected rejection of gif target, got %v", err)
	}
	// Quality only matters for lossy targets.
	if err := (ConvertParams{MIME: MIMEPNG}).Validate(); err != nil {
		t.Fatalf("png convert should ignore quality, got %v", err)
	}
	if err := (ConvertParams{MIME: MIMEJPEG, Quality: 0}).Validate(); !errors.Is(err, ErrInvalidParameters) {
		t.Fatalf("expected rejection of zero quality for jpeg, got %v", err)
	}
}

func TestCropRect_Validate(t *testing.T) {
	valid := CropRect{XPct: 10, YPct: 20, WidthPct: 50, HeightPct: 40}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid rect rejected: %v", err)
	}

	cases := []CropRect{
		{XPct: 0, YPct: 0, WidthPct: 0, HeightPct: 50},
		{XPct: -1, YPct: 0, WidthPct: 50, HeightPct: 50},
		{XPct: 60, YPct: 0, WidthPct: 50, HeightPct: 50},
		{XPct: 0, YPct: 80, WidthPct: 50, HeightPct: 30},
	}
	for i, rect := range cases {
		if err := rect.Validate(); !errors.Is(err, ErrInvalidParameters) {
			t.Fatalf("case %d: expected ErrInvalidParameters, got %v", i, err)
		}
	}
}

func TestPassportParams_Validate(t *testing.T) {
	rect := CropRect{XPct: 0, YPct: 0, WidthPct: 100, HeightPct: 100}
	if err := (PassportParams{Country: "us", Rect: rect}).Validate(); err != nil {
		t.Fatalf("valid passport rejected: %v", err)
	}
	if err := (PassportParams{Country: "atlantis", Rect: rect}).Validate(); !errors.Is(err, ErrInvalidParameters) {
		t.Fatalf("expected rejection of unknown preset, got %v", err)
	}
}

func TestWatermarkParams_Validate(t *testing.T) {
	valid := WatermarkParams{Text: "draft", FontSize: 24, Opacity: 0.5, XPct: 50, YPct: 50}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid watermark rejected: %v", err)
	}

	empty := valid
	empty.Text = "   "
	if err := empty.Validate(); !errors.Is(err, ErrInvalidParameters) {
		t.Fatalf("expected rejection of blank text, got %v", err)
	}

	opaque := valid
	opaque.Opacity = 1.2
	if err := opaque.Validate(); !errors.Is(err, ErrInvalidParameters) {
		t.Fatalf("expected rejection of opacity > 1, got %v", err)
	}

	offCanvas := valid
	offCanvas.XPct = 120
	if err := offCanvas.Validate(); !errors.Is(err, ErrInvalidParameters) {
		t.Fatalf("expected rejection of off-canvas anchor, got %v", err)
	}
}

func TestMemeParams_Validate(t *testing.T) {
	if err := (MemeParams{TopText: "TOP"}).Validate(); err != nil {
		t.Fatalf("top-only meme rejected: %v", err)
	}
	if err := (MemeParams{BottomText: "BOTTOM"}).Validate(); err != nil {
		t.Fatalf("bottom-only meme rejected: %v", err)
	}
	if err := (MemeParams{}).Validate(); !errors.Is(err, ErrInvalidParameters) {
		t.Fatalf("expected rejection of captionless meme, got %v", err)
	}
}

func TestPassportPresets(t *testing.T) {
	preset, ok := PassportPresetFor("uk")
	if !ok {
		t.Fatal("uk preset missing")
	}
	want := 35.0 / 45.0
	if diff := preset.Aspect - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("expected uk aspect %.6f, got %.6f", want, preset.Aspect)
	}

	square, ok := PassportPresetFor("US")
	if !ok {
		t.Fatal("preset lookup should be case-insensitive")
	}
	if square.Aspect != 1 {
		t.Fatalf("expected us aspect 1, got %.3f", square.Aspect)
	}

	if len(PassportCountries()) < 7 {
		t.Fatalf("expected at least 7 passport presets, got %d", len(PassportCountries()))
	}
}

func TestDownloadFileName(t *testing.T) {
	cases := []struct {
		source string
		mime   string
		want   string
	}{
		{"photo.png", MIMEJPEG, "photo.jpg"},
		{"photo.jpeg", MIMEWebP, "photo.webp"},
		{"archive.tar.gz", MIMEPNG, "archive.tar.png"},
		{"", MIMEPNG, "edited-image.png"},
		{"photo", "application/octet-stream", "photo.png"},
	}
	for _, tc := range cases {
		artifact := RenderedArtifact{MIME: tc.mime, SourceFileName: tc.source}
		if got := artifact.DownloadFileName(); got != tc.want {
			t.Fatalf("source=%q mime=%s: expected %s, got %s", tc.source, tc.mime, tc.want, got)
		}
	}
}

func TestEffectiveMIMEDefaultsToJPEG(t *testing.T) {
	if got := (SourceImage{}).EffectiveMIME(); got != MIMEJPEG {
		t.Fatalf("expected %s, got %s", MIMEJPEG, got)
	}
	if got := (SourceImage{MIMEType: MIMEWebP}).EffectiveMIME(); got != MIMEWebP {
		t.Fatalf("expected %s, got %s", MIMEWebP, got)
	}
}
