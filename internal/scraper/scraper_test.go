package scraper_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/raysh454/brandscout/internal/browser"
	"github.com/raysh454/brandscout/internal/extract"
	"github.com/raysh454/brandscout/internal/model"
	"github.com/raysh454/brandscout/internal/scraper"
	"github.com/raysh454/brandscout/internal/testutil"
)

const agencyHTML = `<html><head>
<meta property="og:site_name" content="Harbour Realty">
</head><body>
<header><img src="/img/logo.png" alt="Harbour Realty logo"></header>
<footer><a href="mailto:hello@harbour.test?subject=Hi">Email us</a>
<a href="tel:+61 2 9000 1234">Call</a></footer>
</body></html>`

func testConfig() scraper.Config {
	return scraper.Config{
		Extract:        extract.Config{ReadyTimeout: time.Millisecond},
		RequestTimeout: 5 * time.Second,
	}
}

func newScraper(f browser.Fetcher) *scraper.Scraper {
	s := scraper.New(f, testConfig(), &testutil.DummyLogger{})
	s.Agency.Now = func() time.Time { return time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC) }
	return s
}

func agencyPage() *model.RawPage {
	return &model.RawPage{
		PageURL: "https://harbour.test/",
		Images: []model.RawImageCandidate{
			{SourceURL: "/img/logo.png", AltText: "Harbour Realty logo", CSSSelectorMatch: `img[src*="logo" i]`},
			{SourceURL: "data:image/png;base64,AAAA", CSSSelectorMatch: "header img"},
			{SourceURL: "https://harbour.test/img/logo.png", CSSSelectorMatch: "header img"},
			{SourceURL: "https://cdn.harbour.test/mark.svg", CSSSelectorMatch: "nav img"},
		},
		Fonts: []model.RawFontCandidate{
			{URL: "https://fonts.googleapis.com/css2?family=Inter", Format: "google", Origin: model.FontOriginGoogleFonts},
			{URL: "/fonts/brand.woff", Family: `"Harbour Sans"`, Origin: model.FontOriginFontFace},
			{URL: "/fonts/fa-solid.woff2", Family: "Font Awesome 6 Free", Origin: model.FontOriginFontFace},
			{URL: "/fonts/brand-bold.woff", Family: "'Harbour Sans'", Origin: model.FontOriginFontFace},
		},
		HTML: agencyHTML,
	}
}

func TestScrape_AggregatesPage(t *testing.T) {
	t.Parallel()
	session := &testutil.FakeSession{PageURL: "https://harbour.test/", Status: 200, Ready: true, Raw: agencyPage()}
	f := &testutil.FakeFetcher{Session: session}

	got, err := newScraper(f).Scrape(context.Background(), "https://HARBOUR.test/#top")
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}

	want := &model.ScrapeResult{
		Logos: []model.BrandAsset{
			{Type: model.AssetLogo, URL: "https://harbour.test/img/logo.png", Name: "Harbour Realty logo", Confidence: 0.8},
			{Type: model.AssetLogo, URL: "https://cdn.harbour.test/mark.svg", Name: "Logo", Confidence: 0.8},
		},
		Fonts: []model.BrandAsset{
			{Type: model.AssetFont, URL: "https://fonts.googleapis.com/css2?family=Inter", Name: "Google Font", Confidence: 0.9, Format: "google"},
			{Type: model.AssetFont, URL: "https://harbour.test/fonts/brand.woff", Name: "Harbour Sans", Confidence: 0.8, Format: "woff"},
		},
		Colors: []model.BrandAsset{},
		AgencyDetails: model.AgencyDetails{
			Name:          "Harbour",
			Email:         "hello@harbour.test",
			Phone:         "+61 2 9000 1234",
			Website:       "https://harbour.test",
			CopyrightText: "© 2026 Harbour. All rights reserved.",
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}

	if f.URLs[0] != "https://harbour.test/" {
		t.Errorf("expected normalized target to be opened, got %q", f.URLs[0])
	}
	if session.Closed() != 1 {
		t.Errorf("session closed %d times, want 1", session.Closed())
	}
}

func TestScrape_InvalidURLFailsBeforeBrowser(t *testing.T) {
	t.Parallel()
	for _, raw := range []string{"", "not a url", "ftp://example.com/", "/relative/path", "https://"} {
		f := &testutil.FakeFetcher{}
		_, err := newScraper(f).Scrape(context.Background(), raw)
		if !errors.Is(err, scraper.ErrInvalidURL) {
			t.Errorf("%q: expected ErrInvalidURL, got %v", raw, err)
		}
		if f.OpenCount() != 0 {
			t.Errorf("%q: browser opened for invalid url", raw)
		}
	}
}

func TestScrape_PassesThroughFetchErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		as   func(error) bool
	}{
		{"http status", &browser.FetchHTTPError{URL: "https://x.test/", StatusCode: 404}, func(err error) bool {
			var e *browser.FetchHTTPError
			return errors.As(err, &e) && e.StatusCode == 404
		}},
		{"timeout", &browser.FetchTimeoutError{URL: "https://x.test/", Timeout: 30 * time.Second}, func(err error) bool {
			var e *browser.FetchTimeoutError
			return errors.As(err, &e)
		}},
		{"no response", &browser.FetchNoResponseError{URL: "https://x.test/", Err: errors.New("net::ERR_NAME_NOT_RESOLVED")}, func(err error) bool {
			var e *browser.FetchNoResponseError
			return errors.As(err, &e)
		}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := &testutil.FakeFetcher{OpenErr: tt.err}
			res, err := newScraper(f).Scrape(context.Background(), "https://x.test/")
			if res != nil {
				t.Errorf("expected no result on fetch error")
			}
			if !tt.as(err) {
				t.Errorf("error not passed through: %T %v", err, err)
			}
		})
	}
}

func TestScrape_EvaluationFailureClosesSession(t *testing.T) {
	t.Parallel()
	session := &testutil.FakeSession{PageURL: "https://x.test/", Status: 200, EvalErr: errors.New("target closed")}
	f := &testutil.FakeFetcher{Session: session}

	_, err := newScraper(f).Scrape(context.Background(), "https://x.test/")
	var extErr *scraper.ExtractionError
	if !errors.As(err, &extErr) {
		t.Fatalf("expected *ExtractionError, got %T: %v", err, err)
	}
	var evalErr *extract.EvaluationError
	if !errors.As(err, &evalErr) {
		t.Errorf("expected wrapped *EvaluationError")
	}
	if session.Closed() != 1 {
		t.Errorf("session closed %d times, want 1", session.Closed())
	}
}

func TestScrape_ReadyTimeoutIsSoft(t *testing.T) {
	t.Parallel()
	session := &testutil.FakeSession{PageURL: "https://quiet.test/", Status: 200, Ready: false,
		Raw: &model.RawPage{PageURL: "https://quiet.test/"}}
	res, err := newScraper(&testutil.FakeFetcher{Session: session}).Scrape(context.Background(), "https://quiet.test/")
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if len(res.Logos) != 0 || len(res.Fonts) != 0 || res.Colors == nil {
		t.Errorf("expected empty non-nil asset lists, got %+v", res)
	}
	if res.AgencyDetails.Name != "quiet" {
		t.Errorf("expected hostname fallback name, got %q", res.AgencyDetails.Name)
	}
	if res.AgencyDetails.Email != "" || res.AgencyDetails.Phone != "" {
		t.Errorf("expected empty contact fields, got %+v", res.AgencyDetails)
	}
}

func TestScrape_ReportsStagesInOrder(t *testing.T) {
	t.Parallel()
	session := &testutil.FakeSession{PageURL: "https://x.test/", Status: 200, Ready: true, Raw: agencyPage()}
	var stages []scraper.Stage
	_, err := newScraper(&testutil.FakeFetcher{Session: session}).ScrapeWithProgress(context.Background(), "https://x.test/",
		func(s scraper.Stage) { stages = append(stages, s) })
	if err != nil {
		t.Fatalf("ScrapeWithProgress: %v", err)
	}
	want := []scraper.Stage{scraper.StageFetching, scraper.StageExtracting, scraper.StageClassifying, scraper.StageDone}
	if diff := cmp.Diff(want, stages); diff != "" {
		t.Errorf("stages (-want +got):\n%s", diff)
	}
}

func TestScrape_RequestTimeoutBoundsOpen(t *testing.T) {
	t.Parallel()
	f := &testutil.FakeFetcher{OpenDelay: time.Minute}
	cfg := testConfig()
	cfg.RequestTimeout = 20 * time.Millisecond
	_, err := scraper.New(f, cfg, &testutil.DummyLogger{}).Scrape(context.Background(), "https://slow.test/")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
