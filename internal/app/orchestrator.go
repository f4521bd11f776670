package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/raysh454/brandscout/internal/history"
	"github.com/raysh454/brandscout/internal/logging"
	"github.com/raysh454/brandscout/internal/model"
	"github.com/raysh454/brandscout/internal/scraper"
	"github.com/raysh454/brandscout/internal/utils"
)

// ErrHistoryDisabled is returned by history lookups when no store is wired.
var ErrHistoryDisabled = errors.New("scrape history is disabled")

var ErrClosed = errors.New("orchestrator is closed")

// Scraper is the pipeline the orchestrator drives.
type Scraper interface {
	ScrapeWithProgress(ctx context.Context, rawURL string, progress scraper.ProgressFunc) (*model.ScrapeResult, error)
}

type JobEventType string

const (
	JobEventStatus JobEventType = "status"
	JobEventStage  JobEventType = "stage"
	JobEventResult JobEventType = "result"
)

type JobEvent struct {
	JobID string       `json:"job_id"`
	Type  JobEventType `json:"type"`

	// For status changes
	Status JobStatus `json:"status,omitempty"`
	Error  string    `json:"error,omitempty"`

	Stage  scraper.Stage       `json:"stage,omitempty"`
	Result *model.ScrapeResult `json:"result,omitempty"`
}

type JobStatus string

const (
	JobPending  JobStatus = "pending"
	JobRunning  JobStatus = "running"
	JobDone     JobStatus = "done"
	JobFailed   JobStatus = "failed"
	JobCanceled JobStatus = "canceled"
)

type Job struct {
	ID        string        `json:"id"`
	URL       string        `json:"url"`
	Status    JobStatus     `json:"status"`
	Stage     scraper.Stage `json:"stage,omitempty"`
	Error     string        `json:"error,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	EndedAt   time.Time     `json:"ended_at"`
	Events    chan JobEvent `json:"-"`

	HistoryID string              `json:"history_id,omitempty"`
	Result    *model.ScrapeResult `json:"result,omitempty"`
}

func (j *Job) finished() bool {
	return j.Status == JobDone || j.Status == JobFailed || j.Status == JobCanceled
}

// Orchestrator runs scrapes synchronously or as jobs and records successful
// results in the history store when one is configured.
type Orchestrator struct {
	cfg     *Config
	scraper Scraper
	history *history.Store
	logger  logging.Logger

	jobsMu     sync.Mutex
	closed     bool
	jobs       map[string]*Job
	jobCancels map[string]context.CancelFunc

	wg        sync.WaitGroup
	stopPrune chan struct{}
	closeOnce sync.Once
}

// NewOrchestrator ties together config, scraper, history and logger. store
// may be nil.
func NewOrchestrator(cfg *Config, s Scraper, store *history.Store, logger logging.Logger) *Orchestrator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	o := &Orchestrator{
		cfg:        cfg,
		scraper:    s,
		history:    store,
		logger:     logger.With(logging.Field{Key: "component", Value: "orchestrator"}),
		jobs:       make(map[string]*Job),
		jobCancels: make(map[string]context.CancelFunc),
		stopPrune:  make(chan struct{}),
	}
	if cfg.JobRetentionTime > 0 {
		o.wg.Add(1)
		go o.pruneLoop(cfg.JobRetentionTime)
	}
	return o
}

// Scrape runs one scrape and records it.
func (o *Orchestrator) Scrape(ctx context.Context, rawURL string) (*model.ScrapeResult, error) {
	res, _, err := o.scrape(ctx, rawURL, nil)
	return res, err
}

func (o *Orchestrator) scrape(ctx context.Context, rawURL string, progress scraper.ProgressFunc) (*model.ScrapeResult, string, error) {
	res, err := o.scraper.ScrapeWithProgress(ctx, rawURL, progress)
	if err != nil {
		return nil, "", err
	}
	if o.history == nil {
		return res, "", nil
	}
	entry, err := o.history.Record(context.WithoutCancel(ctx), rawURL, res)
	if err != nil {
		// A history failure does not fail the scrape.
		o.logger.Warn("recording scrape history", logging.Field{Key: "url", Value: rawURL}, logging.Field{Key: "error", Value: err})
		return res, "", nil
	}
	return res, entry.ID, nil
}

func (o *Orchestrator) emitJobEvent(jobID string, ev JobEvent) {
	o.jobsMu.Lock()
	job, ok := o.jobs[jobID]
	o.jobsMu.Unlock()
	if !ok || job == nil || job.Events == nil {
		return
	}

	// Non-blocking send; drop if buffer is full.
	select {
	case job.Events <- ev:
	default:
	}
}

func (o *Orchestrator) updateJob(jobID string, fn func(j *Job)) {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	if j, ok := o.jobs[jobID]; ok {
		fn(j)
	}
}

// StartScrapeJob validates rawURL and runs the scrape in the background. The
// returned job's Events channel is closed when the job ends.
func (o *Orchestrator) StartScrapeJob(ctx context.Context, rawURL string) (*Job, error) {
	if _, err := utils.ValidateTarget(rawURL); err != nil {
		return nil, fmt.Errorf("%w: %w", scraper.ErrInvalidURL, err)
	}

	jobID := uuid.New().String()
	job := &Job{
		ID:        jobID,
		URL:       rawURL,
		Status:    JobPending,
		StartedAt: time.Now().UTC(),
		Events:    make(chan JobEvent, 16),
	}

	o.jobsMu.Lock()
	if o.closed {
		o.jobsMu.Unlock()
		return nil, ErrClosed
	}
	jobCtx, cancel := context.WithCancel(ctx)
	o.jobs[jobID] = job
	o.jobCancels[jobID] = cancel
	o.wg.Add(1)
	snapshot := *job
	o.jobsMu.Unlock()

	o.emitJobEvent(jobID, JobEvent{JobID: jobID, Type: JobEventStatus, Status: JobPending})
	go o.runJob(jobCtx, jobID, rawURL)

	return &snapshot, nil
}

func (o *Orchestrator) runJob(ctx context.Context, jobID, rawURL string) {
	defer o.wg.Done()
	defer func() {
		o.jobsMu.Lock()
		j := o.jobs[jobID]
		if j != nil {
			j.EndedAt = time.Now().UTC()
		}
		if cancel := o.jobCancels[jobID]; cancel != nil {
			cancel()
		}
		delete(o.jobCancels, jobID)
		o.jobsMu.Unlock()

		// Close events channel so websocket loop can terminate cleanly
		if j != nil && j.Events != nil {
			close(j.Events)
		}
	}()

	o.updateJob(jobID, func(j *Job) { j.Status = JobRunning })
	o.emitJobEvent(jobID, JobEvent{JobID: jobID, Type: JobEventStatus, Status: JobRunning})

	progress := func(stage scraper.Stage) {
		o.updateJob(jobID, func(j *Job) { j.Stage = stage })
		o.emitJobEvent(jobID, JobEvent{JobID: jobID, Type: JobEventStage, Stage: stage})
	}

	res, historyID, err := o.scrape(ctx, rawURL, progress)
	if err != nil {
		status := JobFailed
		if ctx.Err() != nil && errors.Is(ctx.Err(), context.Canceled) {
			status = JobCanceled
		}
		o.updateJob(jobID, func(j *Job) {
			j.Status = status
			j.Error = err.Error()
		})
		o.emitJobEvent(jobID, JobEvent{JobID: jobID, Type: JobEventStatus, Status: status, Error: err.Error()})
		o.logger.Info("scrape job ended", logging.Field{Key: "job_id", Value: jobID}, logging.Field{Key: "status", Value: string(status)})
		return
	}

	o.updateJob(jobID, func(j *Job) {
		j.Status = JobDone
		j.Result = res
		j.HistoryID = historyID
	})
	o.emitJobEvent(jobID, JobEvent{JobID: jobID, Type: JobEventResult, Status: JobDone, Result: res})
	o.logger.Info("scrape job done", logging.Field{Key: "job_id", Value: jobID})
}

func (o *Orchestrator) CancelJob(jobID string) {
	o.jobsMu.Lock()
	cancel := o.jobCancels[jobID]
	o.jobsMu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// GetJob returns a copy of the job or nil.
func (o *Orchestrator) GetJob(jobID string) *Job {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	j, ok := o.jobs[jobID]
	if !ok {
		return nil
	}
	cp := *j
	return &cp
}

// ListJobs returns copies of all retained jobs, oldest first.
func (o *Orchestrator) ListJobs() []Job {
	o.jobsMu.Lock()
	out := make([]Job, 0, len(o.jobs))
	for _, j := range o.jobs {
		out = append(out, *j)
	}
	o.jobsMu.Unlock()
	sort.Slice(out, func(i, k int) bool { return out[i].StartedAt.Before(out[k].StartedAt) })
	return out
}

func (o *Orchestrator) pruneLoop(retention time.Duration) {
	defer o.wg.Done()
	interval := retention / 2
	if interval < time.Second {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-o.stopPrune:
			return
		case now := <-t.C:
			o.pruneJobs(now.UTC(), retention)
		}
	}
}

// pruneJobs drops finished jobs that ended more than retention before now.
func (o *Orchestrator) pruneJobs(now time.Time, retention time.Duration) int {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	n := 0
	for id, j := range o.jobs {
		if j.finished() && !j.EndedAt.IsZero() && now.Sub(j.EndedAt) > retention {
			delete(o.jobs, id)
			n++
		}
	}
	return n
}

// History

func (o *Orchestrator) ListScrapes(ctx context.Context, rawURL string, limit int) ([]history.Summary, error) {
	if o.history == nil {
		return nil, ErrHistoryDisabled
	}
	return o.history.List(ctx, rawURL, limit)
}

func (o *Orchestrator) GetScrape(ctx context.Context, id string) (*history.Entry, error) {
	if o.history == nil {
		return nil, ErrHistoryDisabled
	}
	return o.history.Get(ctx, id)
}

// DiffScrapes compares headID against againstID, or against the previous
// scrape of the same URL when againstID is empty.
func (o *Orchestrator) DiffScrapes(ctx context.Context, headID, againstID string) (*history.Diff, error) {
	if o.history == nil {
		return nil, ErrHistoryDisabled
	}
	if againstID == "" {
		prev, err := o.history.Previous(ctx, headID)
		if err != nil {
			return nil, err
		}
		againstID = prev.ID
	}
	return o.history.Diff(ctx, againstID, headID)
}

// Close cancels running jobs and waits for them to finish.
func (o *Orchestrator) Close() {
	o.closeOnce.Do(func() {
		close(o.stopPrune)
		o.jobsMu.Lock()
		o.closed = true
		for _, cancel := range o.jobCancels {
			cancel()
		}
		o.jobsMu.Unlock()
		o.wg.Wait()
	})
}
