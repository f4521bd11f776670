package app

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/raysh454/brandscout/internal/extract"
	"github.com/raysh454/brandscout/internal/history"
	"github.com/raysh454/brandscout/internal/model"
	"github.com/raysh454/brandscout/internal/scraper"
	"github.com/raysh454/brandscout/internal/testutil"

	_ "modernc.org/sqlite"
)

func fakePage() *model.RawPage {
	return &model.RawPage{
		PageURL: "https://example.com/",
		Images:  []model.RawImageCandidate{{SourceURL: "/logo.svg", AltText: "Example", CSSSelectorMatch: ".logo img"}},
		HTML:    `<html><head><meta property="og:site_name" content="Example Realty"></head><body></body></html>`,
	}
}

// newTestOrchestrator wires a real scraper over a fake fetcher and an
// in-memory history store.
func newTestOrchestrator(t *testing.T, f *testutil.FakeFetcher) *Orchestrator {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	logger := &testutil.DummyLogger{}
	store, err := history.NewStore(db, logger)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	cfg := DefaultConfig()
	cfg.JobRetentionTime = 5 * time.Second
	sc := scraper.New(f, scraper.Config{Extract: extract.Config{ReadyTimeout: time.Millisecond}}, logger)

	orch := NewOrchestrator(cfg, sc, store, logger)
	t.Cleanup(func() { orch.Close() })
	return orch
}

func okFetcher() *testutil.FakeFetcher {
	return &testutil.FakeFetcher{Session: &testutil.FakeSession{
		PageURL: "https://example.com/", Status: 200, Ready: true, Raw: fakePage(),
	}}
}

func drain(job *Job) []JobEvent {
	var evs []JobEvent
	for ev := range job.Events {
		evs = append(evs, ev)
	}
	return evs
}

// ─── Construction ──────────────────────────────────────────────────────

func TestNewOrchestrator_DefaultConfig(t *testing.T) {
	t.Parallel()
	o := NewOrchestrator(nil, nil, nil, &testutil.DummyLogger{})
	defer o.Close()
	if o.cfg == nil {
		t.Fatal("expected default config when nil passed")
	}
}

// ─── Synchronous scrape ────────────────────────────────────────────────

func TestOrchestrator_ScrapeRecordsHistory(t *testing.T) {
	t.Parallel()
	o := newTestOrchestrator(t, okFetcher())
	ctx := context.Background()

	res, err := o.Scrape(ctx, "https://example.com/")
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if len(res.Logos) != 1 || res.Logos[0].URL != "https://example.com/logo.svg" {
		t.Errorf("unexpected logos: %+v", res.Logos)
	}

	list, err := o.ListScrapes(ctx, "", 0)
	if err != nil {
		t.Fatalf("ListScrapes: %v", err)
	}
	if len(list) != 1 || list[0].AgencyName != "Example" {
		t.Fatalf("expected one recorded scrape, got %+v", list)
	}
}

func TestOrchestrator_FailedScrapeNotRecorded(t *testing.T) {
	t.Parallel()
	o := newTestOrchestrator(t, &testutil.FakeFetcher{OpenErr: errors.New("boom")})
	ctx := context.Background()

	if _, err := o.Scrape(ctx, "https://example.com/"); err == nil {
		t.Fatal("expected error")
	}
	list, _ := o.ListScrapes(ctx, "", 0)
	if len(list) != 0 {
		t.Errorf("failed scrape was recorded: %+v", list)
	}
}

func TestOrchestrator_HistoryDisabled(t *testing.T) {
	t.Parallel()
	o := NewOrchestrator(DefaultConfig(), scraper.New(okFetcher(), scraper.Config{}, &testutil.DummyLogger{}), nil, &testutil.DummyLogger{})
	defer o.Close()
	ctx := context.Background()

	if _, err := o.ListScrapes(ctx, "", 0); !errors.Is(err, ErrHistoryDisabled) {
		t.Errorf("ListScrapes: expected ErrHistoryDisabled, got %v", err)
	}
	if _, err := o.GetScrape(ctx, "x"); !errors.Is(err, ErrHistoryDisabled) {
		t.Errorf("GetScrape: expected ErrHistoryDisabled, got %v", err)
	}
	if _, err := o.DiffScrapes(ctx, "x", ""); !errors.Is(err, ErrHistoryDisabled) {
		t.Errorf("DiffScrapes: expected ErrHistoryDisabled, got %v", err)
	}
}

func TestOrchestrator_DiffAgainstPrevious(t *testing.T) {
	t.Parallel()
	o := newTestOrchestrator(t, okFetcher())
	ctx := context.Background()

	if _, err := o.Scrape(ctx, "https://example.com/"); err != nil {
		t.Fatalf("first scrape: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	if _, err := o.Scrape(ctx, "https://example.com/"); err != nil {
		t.Fatalf("second scrape: %v", err)
	}
	list, _ := o.ListScrapes(ctx, "https://example.com/", 0)
	if len(list) != 2 {
		t.Fatalf("expected 2 scrapes, got %d", len(list))
	}

	d, err := o.DiffScrapes(ctx, list[0].ID, "")
	if err != nil {
		t.Fatalf("DiffScrapes: %v", err)
	}
	if d.BaseID != list[1].ID || d.HeadID != list[0].ID {
		t.Errorf("unexpected diff ids: %+v", d)
	}
	if d.Added != 0 || d.Removed != 0 {
		t.Errorf("expected identical scrapes, got %+v", d)
	}

	if _, err := o.DiffScrapes(ctx, list[1].ID, ""); !errors.Is(err, history.ErrNotFound) {
		t.Errorf("expected ErrNotFound for oldest scrape, got %v", err)
	}
}

// ─── Jobs ──────────────────────────────────────────────────────────────

func TestGetJob_ReturnsNilForUnknown(t *testing.T) {
	t.Parallel()
	o := newTestOrchestrator(t, okFetcher())
	if o.GetJob("nonexistent") != nil {
		t.Error("expected nil for unknown job")
	}
}

func TestListJobs_EmptyInitially(t *testing.T) {
	t.Parallel()
	o := newTestOrchestrator(t, okFetcher())
	if jobs := o.ListJobs(); len(jobs) != 0 {
		t.Errorf("expected 0 jobs, got %d", len(jobs))
	}
}

func TestCancelJob_NoOpForUnknown(t *testing.T) {
	t.Parallel()
	o := newTestOrchestrator(t, okFetcher())
	// Should not panic
	o.CancelJob("does-not-exist")
}

func TestStartScrapeJob_RejectsInvalidURL(t *testing.T) {
	t.Parallel()
	f := okFetcher()
	o := newTestOrchestrator(t, f)
	if _, err := o.StartScrapeJob(context.Background(), "ftp://example.com"); !errors.Is(err, scraper.ErrInvalidURL) {
		t.Fatalf("expected ErrInvalidURL, got %v", err)
	}
	if len(o.ListJobs()) != 0 || f.OpenCount() != 0 {
		t.Error("invalid url should not create a job")
	}
}

func TestStartScrapeJob_EmitsStagesThenResult(t *testing.T) {
	t.Parallel()
	o := newTestOrchestrator(t, okFetcher())

	job, err := o.StartScrapeJob(context.Background(), "https://example.com/")
	if err != nil {
		t.Fatalf("StartScrapeJob: %v", err)
	}
	if job.ID == "" || job.Status != JobPending {
		t.Fatalf("unexpected job: %+v", job)
	}

	evs := drain(job)
	var stages []scraper.Stage
	for _, ev := range evs {
		if ev.Type == JobEventStage {
			stages = append(stages, ev.Stage)
		}
	}
	if len(stages) != 4 || stages[3] != scraper.StageDone {
		t.Errorf("unexpected stages: %v", stages)
	}
	last := evs[len(evs)-1]
	if last.Type != JobEventResult || last.Status != JobDone || last.Result == nil {
		t.Errorf("expected final result event, got %+v", last)
	}

	final := o.GetJob(job.ID)
	if final.Status != JobDone || final.Result == nil || final.HistoryID == "" {
		t.Errorf("unexpected final job: %+v", final)
	}
	if final.EndedAt.IsZero() {
		t.Error("expected EndedAt to be set")
	}
}

func TestStartScrapeJob_FailureReportsError(t *testing.T) {
	t.Parallel()
	o := newTestOrchestrator(t, &testutil.FakeFetcher{OpenErr: errors.New("net::ERR_CONNECTION_REFUSED")})

	job, err := o.StartScrapeJob(context.Background(), "https://example.com/")
	if err != nil {
		t.Fatalf("StartScrapeJob: %v", err)
	}
	drain(job)

	final := o.GetJob(job.ID)
	if final.Status != JobFailed || final.Error == "" {
		t.Errorf("expected failed job with error, got %+v", final)
	}
}

func TestStartScrapeJob_CancelJobTransitionsToCanceled(t *testing.T) {
	t.Parallel()
	o := newTestOrchestrator(t, &testutil.FakeFetcher{OpenDelay: time.Minute})

	job, err := o.StartScrapeJob(context.Background(), "https://example.com/")
	if err != nil {
		t.Fatalf("StartScrapeJob: %v", err)
	}
	o.CancelJob(job.ID)
	drain(job)

	if final := o.GetJob(job.ID); final.Status != JobCanceled {
		t.Errorf("expected canceled, got %q", final.Status)
	}
}

func TestStartScrapeJob_AppearsInListJobs(t *testing.T) {
	t.Parallel()
	o := newTestOrchestrator(t, okFetcher())

	job, err := o.StartScrapeJob(context.Background(), "https://example.com/")
	if err != nil {
		t.Fatalf("StartScrapeJob: %v", err)
	}
	drain(job)

	jobs := o.ListJobs()
	if len(jobs) != 1 || jobs[0].ID != job.ID {
		t.Errorf("expected job in list, got %+v", jobs)
	}
}

func TestStartScrapeJob_RejectsWhenClosed(t *testing.T) {
	t.Parallel()
	o := newTestOrchestrator(t, okFetcher())
	o.Close()

	if _, err := o.StartScrapeJob(context.Background(), "https://example.com/"); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestPruneJobs_DropsOnlyExpiredFinishedJobs(t *testing.T) {
	t.Parallel()
	o := newTestOrchestrator(t, okFetcher())
	now := time.Now().UTC()

	o.jobsMu.Lock()
	o.jobs["old"] = &Job{ID: "old", Status: JobDone, EndedAt: now.Add(-time.Hour)}
	o.jobs["fresh"] = &Job{ID: "fresh", Status: JobFailed, EndedAt: now}
	o.jobs["running"] = &Job{ID: "running", Status: JobRunning}
	o.jobsMu.Unlock()

	if n := o.pruneJobs(now, time.Minute); n != 1 {
		t.Errorf("pruned %d jobs, want 1", n)
	}
	if o.GetJob("old") != nil || o.GetJob("fresh") == nil || o.GetJob("running") == nil {
		t.Error("wrong jobs pruned")
	}
}

// ─── Close ─────────────────────────────────────────────────────────────

func TestClose_Idempotent(t *testing.T) {
	t.Parallel()
	o := newTestOrchestrator(t, okFetcher())
	// Should not panic when called multiple times
	o.Close()
	o.Close()
}

func TestClose_CancelsRunningJobs(t *testing.T) {
	t.Parallel()
	o := newTestOrchestrator(t, &testutil.FakeFetcher{OpenDelay: time.Minute})

	job, err := o.StartScrapeJob(context.Background(), "https://example.com/")
	if err != nil {
		t.Fatalf("StartScrapeJob: %v", err)
	}

	done := make(chan struct{})
	go func() {
		o.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not return")
	}
	drain(job)
}
