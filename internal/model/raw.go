package model

// FontOrigin records where a font reference was discovered.
type FontOrigin string

const (
	FontOriginGoogleFonts FontOrigin = "google-fonts"
	FontOriginFontFace    FontOrigin = "font-face"
)

// RawImageCandidate is an <img> element matched by a logo selector.
// SourceURL is the element's resolved src as seen by the page.
type RawImageCandidate struct {
	SourceURL        string `json:"sourceUrl"`
	AltText          string `json:"altText"`
	CSSSelectorMatch string `json:"cssSelectorMatch"`
}

// RawFontCandidate is one discovered font reference, in discovery order.
type RawFontCandidate struct {
	URL    string     `json:"url"`
	Family string     `json:"family"`
	Format string     `json:"format"`
	Origin FontOrigin `json:"origin"`
}

// RawPage is everything the in-page extraction hands back to the host:
// plain data only, no handles into the browser. HTML is the serialized live
// DOM after scripts ran.
type RawPage struct {
	PageURL       string              `json:"pageUrl"`
	Images        []RawImageCandidate `json:"images"`
	Fonts         []RawFontCandidate  `json:"fonts"`
	HTML          string              `json:"html"`
	SkippedSheets int                 `json:"skippedSheets"`
}
