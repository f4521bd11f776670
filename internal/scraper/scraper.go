// Package scraper runs the full pipeline for one target: validate, open a
// browser session, wait for content, extract in-page, classify and infer
// agency details, then aggregate into a ScrapeResult.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/raysh454/brandscout/internal/agency"
	"github.com/raysh454/brandscout/internal/browser"
	"github.com/raysh454/brandscout/internal/classify"
	"github.com/raysh454/brandscout/internal/extract"
	"github.com/raysh454/brandscout/internal/logging"
	"github.com/raysh454/brandscout/internal/model"
	"github.com/raysh454/brandscout/internal/utils"
)

// ErrInvalidURL is returned before any browser work when the target URL is
// malformed or not http(s).
var ErrInvalidURL = errors.New("invalid url")

// ExtractionError reports a failure after navigation succeeded.
type ExtractionError struct {
	URL string
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed for %s: %v", e.URL, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Stage names a step of a running scrape, reported to progress callbacks.
type Stage string

const (
	StageFetching    Stage = "fetching"
	StageExtracting  Stage = "extracting"
	StageClassifying Stage = "classifying"
	StageDone        Stage = "done"
)

// ProgressFunc receives stage transitions. It is called synchronously.
type ProgressFunc func(stage Stage)

type Config struct {
	Extract extract.Config

	// RequestTimeout bounds a whole scrape. Zero disables it.
	RequestTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		Extract:        extract.DefaultConfig(),
		RequestTimeout: 90 * time.Second,
	}
}

// Scraper is safe for concurrent use; every call opens its own session.
type Scraper struct {
	Classifier *classify.Classifier
	Agency     *agency.Extractor

	fetcher browser.Fetcher
	cfg     Config
	logger  logging.Logger
}

func New(fetcher browser.Fetcher, cfg Config, logger logging.Logger) *Scraper {
	return &Scraper{
		Classifier: classify.New(),
		Agency:     agency.New(),
		fetcher:    fetcher,
		cfg:        cfg,
		logger:     logger.With(logging.Field{Key: "component", Value: "scraper"}),
	}
}

// Scrape runs the pipeline for rawURL.
func (s *Scraper) Scrape(ctx context.Context, rawURL string) (*model.ScrapeResult, error) {
	return s.ScrapeWithProgress(ctx, rawURL, nil)
}

// ScrapeWithProgress is Scrape with stage notifications. Fetch errors from
// the browser package are returned unchanged so callers can match them with
// errors.As.
func (s *Scraper) ScrapeWithProgress(ctx context.Context, rawURL string, progress ProgressFunc) (*model.ScrapeResult, error) {
	if progress == nil {
		progress = func(Stage) {}
	}

	target, err := utils.ValidateTarget(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}

	if s.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()
	}

	start := time.Now()
	log := s.logger.With(logging.Field{Key: "url", Value: target.String()})

	progress(StageFetching)
	session, err := s.fetcher.Open(ctx, target.String())
	if err != nil {
		log.Warn("fetch failed", logging.Field{Key: "error", Value: err})
		return nil, err
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			log.Warn("close session", logging.Field{Key: "error", Value: cerr})
		}
	}()

	progress(StageExtracting)
	matched, err := extract.WaitReady(ctx, session, s.cfg.Extract)
	if err != nil {
		return nil, &ExtractionError{URL: target.String(), Err: err}
	}
	if !matched {
		log.Debug("no ready signal before timeout, extracting anyway")
	}

	raw, err := extract.Extract(ctx, session)
	if err != nil {
		log.Warn("in-page extraction failed", logging.Field{Key: "error", Value: err})
		return nil, &ExtractionError{URL: target.String(), Err: err}
	}

	pageURL := target
	if raw.PageURL != "" {
		if u, err := url.Parse(raw.PageURL); err == nil && u.IsAbs() {
			pageURL = u
		}
	}

	progress(StageClassifying)
	classified := s.Classifier.Classify(pageURL, raw.Images, raw.Fonts)
	details := s.Agency.Extract(raw.HTML, pageURL)

	result := model.NewScrapeResult(classified.Logos, classified.Fonts, nil, details)
	progress(StageDone)

	log.Info("scrape complete",
		logging.Field{Key: "status", Value: session.StatusCode()},
		logging.Field{Key: "logos", Value: len(result.Logos)},
		logging.Field{Key: "fonts", Value: len(result.Fonts)},
		logging.Field{Key: "dropped_images", Value: classified.DroppedImages},
		logging.Field{Key: "dropped_fonts", Value: classified.DroppedFonts},
		logging.Field{Key: "icon_fonts", Value: classified.IconFonts},
		logging.Field{Key: "duplicates", Value: classified.Duplicates},
		logging.Field{Key: "skipped_sheets", Value: raw.SkippedSheets},
		logging.Field{Key: "duration", Value: time.Since(start).String()})
	return result, nil
}
