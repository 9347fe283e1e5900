package domain

import "strings"

// PassportPreset describes one country's photo requirement as an aspect
// ratio. Physical sizes are kept for display only; cropping is purely
// geometric.
type PassportPreset struct {
	Label       string  `json:"label"`
	WidthMM     float64 `json:"width_mm"`
	HeightMM    float64 `json:"height_mm"`
	Aspect      float64 `json:"aspect"`
	Description string  `json:"description"`
}

var passportPresets = map[string]PassportPreset{
	"us":        {Label: `United States (2x2")`, WidthMM: 2, HeightMM: 2, Aspect: 1, Description: "Standard US Passport & Visa (600x600px min)"},
	"uk":        {Label: "UK / EU (35x45mm)", WidthMM: 35, HeightMM: 45, Aspect: 35.0 / 45.0, Description: "Standard for UK and most EU countries"},
	"japan":     {Label: "Japan (35x45mm)", WidthMM: 35, HeightMM: 45, Aspect: 35.0 / 45.0, Description: "Standard Resident Card & Passport"},
	"china":     {Label: "China (33x48mm)", WidthMM: 33, HeightMM: 48, Aspect: 33.0 / 48.0, Description: "Chinese Passport & Visa"},
	"canada":    {Label: "Canada (50x70mm)", WidthMM: 50, HeightMM: 70, Aspect: 50.0 / 70.0, Description: "Canadian Passport"},
	"india":     {Label: "India (35x45mm)", WidthMM: 35, HeightMM: 45, Aspect: 35.0 / 45.0, Description: `Indian Passport (Visa often 2x2")`},
	"australia": {Label: "Australia (35x45mm)", WidthMM: 35, HeightMM: 45, Aspect: 35.0 / 45.0, Description: "Australian Passport"},
}

// PassportPresetFor resolves a country code to its preset.
func PassportPresetFor(country string) (PassportPreset, bool) {
	preset, ok := passportPresets[strings.ToLower(strings.TrimSpace(country))]
	return preset, ok
}

// PassportCountries lists the supported preset codes.
func PassportCountries() []string {
	codes := make([]string, 0, len(passportPresets))
	for code := range passportPresets {
		codes = append(codes, code)
	}
	return codes
}

// Crop aspect presets. Zero means free-form. Selecting a preset constrains
// future edits only; an existing rectangle is left untouched.
var CropAspectPresets = map[string]float64{
	"free":        0,
	"square":      1,
	"landscape":   16.0 / 9.0,
	"portrait":    3.0 / 4.0,
	"us-passport": 1,
	"uk-passport": 35.0 / 45.0,
}
