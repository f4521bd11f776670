package classify_test

import (
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/raysh454/brandscout/internal/classify"
	"github.com/raysh454/brandscout/internal/model"
)

func pageURL(t *testing.T) *url.URL {
	t.Helper()
	u, err := url.Parse("https://www.acme.test/listings/")
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func TestClassify_SingleLogo(t *testing.T) {
	t.Parallel()
	c := classify.New()
	res := c.Classify(pageURL(t), []model.RawImageCandidate{
		{SourceURL: "/assets/brand.png", AltText: "Acme", CSSSelectorMatch: `img[class*="logo"]`},
	}, nil)

	want := []model.BrandAsset{
		{Type: model.AssetLogo, URL: "https://www.acme.test/assets/brand.png", Name: "Acme", Confidence: 0.8},
	}
	if diff := cmp.Diff(want, res.Logos); diff != "" {
		t.Errorf("logos mismatch (-want +got):\n%s", diff)
	}
	if len(res.Fonts) != 0 {
		t.Errorf("expected no fonts, got %v", res.Fonts)
	}
}

func TestClassify_DropsDataURLs(t *testing.T) {
	t.Parallel()
	c := classify.New()
	res := c.Classify(pageURL(t), []model.RawImageCandidate{
		{SourceURL: "data:image/gif;base64,R0lGODlhAQABAAAAACw=", AltText: "placeholder"},
		{SourceURL: "https://cdn.acme.test/logo.svg", AltText: "Acme"},
	}, []model.RawFontCandidate{
		{URL: "data:font/woff2;base64,d09GMg==", Family: "Inline", Origin: model.FontOriginFontFace},
	})

	if len(res.Logos) != 1 || res.Logos[0].URL != "https://cdn.acme.test/logo.svg" {
		t.Fatalf("expected only the cdn logo, got %v", res.Logos)
	}
	if len(res.Fonts) != 0 {
		t.Errorf("expected inline font dropped, got %v", res.Fonts)
	}
	if res.DroppedImages != 1 || res.DroppedFonts != 1 {
		t.Errorf("unexpected drop counters: images=%d fonts=%d", res.DroppedImages, res.DroppedFonts)
	}
}

func TestClassify_DedupLogosByResolvedURL(t *testing.T) {
	t.Parallel()
	c := classify.New()
	res := c.Classify(pageURL(t), []model.RawImageCandidate{
		{SourceURL: "/img/logo.png", AltText: "First"},
		{SourceURL: "https://www.acme.test/img/logo.png", AltText: "Second"},
		{SourceURL: "../img/logo.png", AltText: "Third"},
	}, nil)

	if len(res.Logos) != 1 {
		t.Fatalf("expected 1 logo, got %d: %v", len(res.Logos), res.Logos)
	}
	if res.Logos[0].Name != "First" {
		t.Errorf("expected first occurrence kept, got %q", res.Logos[0].Name)
	}
	if res.Duplicates != 2 {
		t.Errorf("expected 2 duplicates, got %d", res.Duplicates)
	}
}

func TestClassify_LogoNameFallback(t *testing.T) {
	t.Parallel()
	res := classify.New().Classify(pageURL(t), []model.RawImageCandidate{{SourceURL: "/l.png"}}, nil)
	if res.Logos[0].Name != "Logo" {
		t.Errorf("expected fallback name Logo, got %q", res.Logos[0].Name)
	}
}

func TestClassify_GoogleFontsLink(t *testing.T) {
	t.Parallel()
	res := classify.New().Classify(pageURL(t), nil, []model.RawFontCandidate{
		{URL: "https://fonts.googleapis.com/css?family=Roboto", Origin: model.FontOriginGoogleFonts},
	})

	want := []model.BrandAsset{{
		Type:       model.AssetFont,
		URL:        "https://fonts.googleapis.com/css?family=Roboto",
		Name:       "Google Font",
		Confidence: 0.9,
		Format:     "google",
	}}
	if diff := cmp.Diff(want, res.Fonts); diff != "" {
		t.Errorf("fonts mismatch (-want +got):\n%s", diff)
	}
}

func TestClassify_FontFaceFirstFamilyWins(t *testing.T) {
	t.Parallel()
	res := classify.New().Classify(pageURL(t), nil, []model.RawFontCandidate{
		{URL: "/fonts/brand-sans-regular.woff2", Family: `'Brand Sans'`, Origin: model.FontOriginFontFace},
		{URL: "/fonts/brand-sans-bold.woff", Family: `"Brand Sans"`, Origin: model.FontOriginFontFace},
	})

	want := []model.BrandAsset{{
		Type:       model.AssetFont,
		URL:        "https://www.acme.test/fonts/brand-sans-regular.woff2",
		Name:       "Brand Sans",
		Confidence: 0.8,
		Format:     "woff2",
	}}
	if diff := cmp.Diff(want, res.Fonts); diff != "" {
		t.Errorf("fonts mismatch (-want +got):\n%s", diff)
	}
}

func TestClassify_FontFaceEmptyFamily(t *testing.T) {
	t.Parallel()
	res := classify.New().Classify(pageURL(t), nil, []model.RawFontCandidate{
		{URL: "/f/x.ttf", Family: `""`, Origin: model.FontOriginFontFace},
	})
	if len(res.Fonts) != 1 || res.Fonts[0].Name != "Web Font" || res.Fonts[0].Format != "ttf" {
		t.Errorf("unexpected fonts: %v", res.Fonts)
	}
}

func TestClassify_DropsIconFonts(t *testing.T) {
	t.Parallel()
	families := []string{
		"FontAwesome",
		"Font Awesome 6 Free",
		"fa-solid-900",
		"Material Icons",
		"icomoon",
		"Glyphicons Halflings",
		"dashicons",
		"Ionicons",
	}
	var fonts []model.RawFontCandidate
	for _, f := range families {
		fonts = append(fonts, model.RawFontCandidate{URL: "/f/" + f + ".woff", Family: f, Origin: model.FontOriginFontFace})
	}
	fonts = append(fonts, model.RawFontCandidate{URL: "/f/brand.woff", Family: "Brand Serif", Origin: model.FontOriginFontFace})

	res := classify.New().Classify(pageURL(t), nil, fonts)
	if len(res.Fonts) != 1 || res.Fonts[0].Name != "Brand Serif" {
		t.Fatalf("expected only Brand Serif, got %v", res.Fonts)
	}
	if res.IconFonts != len(families) {
		t.Errorf("expected %d icon fonts counted, got %d", len(families), res.IconFonts)
	}
}

func TestClassify_NeverNilSlices(t *testing.T) {
	t.Parallel()
	res := classify.New().Classify(nil, nil, nil)
	if res.Logos == nil || res.Fonts == nil {
		t.Error("expected empty, non-nil slices")
	}
}

func TestClassify_RelativeWithoutBaseDropped(t *testing.T) {
	t.Parallel()
	res := classify.New().Classify(nil, []model.RawImageCandidate{{SourceURL: "/l.png"}}, nil)
	if len(res.Logos) != 0 {
		t.Errorf("expected unresolvable candidate dropped, got %v", res.Logos)
	}
}
