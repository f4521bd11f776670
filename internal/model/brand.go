package model

// AssetType names the kind of brand asset in a ScrapeResult.
type AssetType string

const (
	AssetLogo  AssetType = "logo"
	AssetFont  AssetType = "font"
	AssetColor AssetType = "color"
)

// ScrapeTarget is the single input of a scrape.
type ScrapeTarget struct {
	URL string `json:"url" example:"https://www.example-realty.com"`
}

// BrandAsset is one classified, confidence-scored asset. Confidence is the
// fixed weight of the rule that matched, not a calibrated probability.
type BrandAsset struct {
	Type       AssetType `json:"type"`
	URL        string    `json:"url"`
	Name       string    `json:"name"`
	Confidence float64   `json:"confidence"`
	Format     string    `json:"format,omitempty"`
}

// AgencyDetails is best-effort; every field may be empty.
type AgencyDetails struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Website       string `json:"website"`
	CopyrightText string `json:"copyrightText"`
}

// ScrapeResult is the sole return value of a scrape.
type ScrapeResult struct {
	Logos         []BrandAsset  `json:"logos"`
	Fonts         []BrandAsset  `json:"fonts"`
	Colors        []BrandAsset  `json:"colors"`
	AgencyDetails AgencyDetails `json:"agencyDetails"`
}

// NewScrapeResult assembles a result, replacing nil slices with empty ones
// so the JSON encoding always carries arrays.
func NewScrapeResult(logos, fonts, colors []BrandAsset, details AgencyDetails) *ScrapeResult {
	if logos == nil {
		logos = []BrandAsset{}
	}
	if fonts == nil {
		fonts = []BrandAsset{}
	}
	if colors == nil {
		colors = []BrandAsset{}
	}
	return &ScrapeResult{
		Logos:         logos,
		Fonts:         fonts,
		Colors:        colors,
		AgencyDetails: details,
	}
}
