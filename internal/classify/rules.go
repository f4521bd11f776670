package classify

import (
	"path"
	"regexp"
	"strings"

	"github.com/raysh454/brandscout/internal/model"
	"github.com/raysh454/brandscout/internal/utils"
)

// Fixed rule confidences. These are heuristic weights attached by the
// matching rule; they are never combined.
const (
	ConfidenceLogoSelector = 0.8
	ConfidenceGoogleFonts  = 0.9
	ConfidenceFontFace     = 0.8
)

const (
	googleFontName   = "Google Font"
	googleFontFormat = "google"
	webFontFallback  = "Web Font"
	logoNameFallback = "Logo"
	defaultFontFmt   = "woff2"
)

// ImageRule maps an image candidate to a logo asset. A rule with Drop set
// discards the candidate instead.
type ImageRule struct {
	Name       string
	Match      func(c model.RawImageCandidate) bool
	Drop       bool
	Confidence float64
}

// FontRule maps a font candidate to a font asset. AssetName and Format
// receive the candidate and return the values to record.
type FontRule struct {
	Name       string
	Match      func(c model.RawFontCandidate) bool
	Drop       bool
	Confidence float64
	AssetName  func(c model.RawFontCandidate) string
	Format     func(c model.RawFontCandidate) string
}

// DefaultImageRules is evaluated in order; the first match wins.
var DefaultImageRules = []ImageRule{
	{
		Name:  "data-url",
		Match: func(c model.RawImageCandidate) bool { return utils.IsDataURL(c.SourceURL) },
		Drop:  true,
	},
	{
		Name:       "logo-selector",
		Match:      func(model.RawImageCandidate) bool { return true },
		Confidence: ConfidenceLogoSelector,
	},
}

// DefaultFontRules is evaluated in order; the first match wins.
var DefaultFontRules = []FontRule{
	{
		Name:  "data-url",
		Match: func(c model.RawFontCandidate) bool { return utils.IsDataURL(c.URL) },
		Drop:  true,
	},
	{
		Name:       "google-fonts-link",
		Match:      func(c model.RawFontCandidate) bool { return c.Origin == model.FontOriginGoogleFonts },
		Confidence: ConfidenceGoogleFonts,
		AssetName:  func(model.RawFontCandidate) string { return googleFontName },
		Format:     func(model.RawFontCandidate) string { return googleFontFormat },
	},
	{
		Name:       "font-face",
		Match:      func(c model.RawFontCandidate) bool { return c.Origin == model.FontOriginFontFace },
		Confidence: ConfidenceFontFace,
		AssetName: func(c model.RawFontCandidate) string {
			if fam := CleanFamily(c.Family); fam != "" {
				return fam
			}
			return webFontFallback
		},
		Format: func(c model.RawFontCandidate) string { return InferFontFormat(c.URL, c.Format) },
	},
}

// IconFontPattern matches font names whose glyphs are pictograms.
var IconFontPattern = regexp.MustCompile(`(?i)^fa-|font\s*awesome|material\s*icons|icomoon|glyphicons|dashicons|ionicons`)

// IsIconFont reports whether name belongs to a known icon font.
func IsIconFont(name string) bool {
	return IconFontPattern.MatchString(strings.TrimSpace(name))
}

// CleanFamily strips surrounding whitespace and quotes from a CSS
// font-family value.
func CleanFamily(family string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(family), `"'`))
}

var fontExtensions = map[string]string{
	".woff2": "woff2",
	".woff":  "woff",
	".ttf":   "ttf",
	".otf":   "otf",
	".eot":   "eot",
}

// format("...") hints from @font-face src descriptors.
var fontFormatHints = map[string]string{
	"woff2":             "woff2",
	"woff":              "woff",
	"truetype":          "ttf",
	"opentype":          "otf",
	"embedded-opentype": "eot",
}

// InferFontFormat derives the font format from the file extension of rawURL,
// falling back to the format() hint and finally to woff2.
func InferFontFormat(rawURL, hint string) string {
	p := rawURL
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if f, ok := fontExtensions[strings.ToLower(path.Ext(p))]; ok {
		return f
	}
	if f, ok := fontFormatHints[strings.ToLower(CleanFamily(hint))]; ok {
		return f
	}
	return defaultFontFmt
}
