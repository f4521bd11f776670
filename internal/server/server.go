package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/raysh454/brandscout/internal/app"
	"github.com/raysh454/brandscout/internal/browser"
	"github.com/raysh454/brandscout/internal/history"
	"github.com/raysh454/brandscout/internal/logging"
	"github.com/raysh454/brandscout/internal/scraper"

	_ "github.com/raysh454/brandscout/internal/server/docs/swagger" // registers the OpenAPI document
)

// maxBodyBytes bounds request bodies; a scrape request is a single URL.
const maxBodyBytes = 64 << 10

// Server is the HTTP + WebSocket API surface for brandscout.
type Server struct {
	cfg          Config
	orchestrator *app.Orchestrator
	router       chi.Router
	upgrader     websocket.Upgrader
	logger       logging.Logger
}

// NewServer creates a Server over an existing orchestrator.
func NewServer(cfg Config, orch *app.Orchestrator, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewStdoutLogger("server")
	}
	if cfg.AllowedOrigin == "" {
		cfg.AllowedOrigin = "*"
	}
	s := &Server{
		cfg:          cfg,
		orchestrator: orch,
		router:       chi.NewRouter(),
		logger:       logger.With(logging.Field{Key: "component", Value: "server"}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return cfg.AllowedOrigin == "*" || r.Header.Get("Origin") == cfg.AllowedOrigin
			},
		},
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router

	r.Use(s.corsMiddleware)

	// CORS preflight
	r.Options("/scrape", s.optionsHandler("POST"))
	r.Options("/jobs", s.optionsHandler("GET, POST"))
	r.Options("/jobs/{jobID}", s.optionsHandler("GET, DELETE"))
	r.Options("/scrapes", s.optionsHandler("GET"))
	r.Options("/scrapes/{id}", s.optionsHandler("GET"))
	r.Options("/scrapes/{id}/diff", s.optionsHandler("GET"))

	r.Get("/health", s.handleHealth)
	r.Post("/scrape", s.handleScrape)

	// Jobs over REST
	r.Post("/jobs", s.handleStartJob)
	r.Get("/jobs", s.handleListJobs)
	r.Get("/jobs/{jobID}", s.handleGetJob)
	r.Delete("/jobs/{jobID}", s.handleCancelJob)

	// WebSocket for job progress
	r.Get("/ws/scrape", s.handleScrapeWS)

	// History
	r.Get("/scrapes", s.handleListScrapes)
	r.Get("/scrapes/{id}", s.handleGetScrape)
	r.Get("/scrapes/{id}/diff", s.handleDiffScrape)

	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.cfg.AllowedOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		next.ServeHTTP(w, r)
	})
}

func (s *Server) optionsHandler(methods string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.WriteHeader(http.StatusNoContent)
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fields := []logging.Field{
		{Key: "method", Value: r.Method},
		{Key: "path", Value: r.URL.Path},
	}

	if q := r.URL.Query(); len(q) > 0 {
		fields = append(fields, logging.Field{Key: "query", Value: q})
	}

	if r.Body != nil && r.Method == http.MethodPost {
		if bodyBytes, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes)); err == nil {
			fields = append(fields, logging.Field{Key: "body", Value: string(bodyBytes)})
			r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}
	}

	s.logger.Info("http_request", fields...)

	s.router.ServeHTTP(w, r)
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // scrapes and websockets are long-lived
	}
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// statusForError maps pipeline and store errors onto HTTP statuses.
func statusForError(err error) int {
	var (
		httpErr    *browser.FetchHTTPError
		noRespErr  *browser.FetchNoResponseError
		timeoutErr *browser.FetchTimeoutError
	)
	switch {
	case errors.Is(err, scraper.ErrInvalidURL):
		return http.StatusBadRequest
	case errors.As(err, &timeoutErr), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &httpErr), errors.As(err, &noRespErr):
		return http.StatusBadGateway
	case errors.Is(err, history.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, app.ErrHistoryDisabled), errors.Is(err, app.ErrClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, what string, err error) {
	status := statusForError(err)
	s.logger.Warn(what, logging.Field{Key: "status", Value: status}, logging.Field{Key: "error", Value: err.Error()})
	writeError(w, status, err.Error())
}

func decodeScrapeRequest(r *http.Request) (ScrapeRequest, error) {
	var body ScrapeRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		return body, err
	}
	return body, nil
}

// --- HTTP handlers ---

// handleHealth godoc
// @Summary Liveness check
// @Tags system
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Backends: browser.ListBackends()})
}

// handleScrape godoc
// @Summary Scrape brand assets from a website
// @Tags scrape
// @Accept json
// @Produce json
// @Param request body ScrapeRequest true "Target"
// @Success 200 {object} model.ScrapeResult
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Failure 504 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /scrape [post]
func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	body, err := decodeScrapeRequest(r)
	if err != nil {
		s.logger.Warn("decoding scrape body", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	res, err := s.orchestrator.Scrape(r.Context(), body.URL)
	if err != nil {
		s.fail(w, "scraping", err)
		return
	}
	s.logger.Info("scraped", logging.Field{Key: "url", Value: body.URL},
		logging.Field{Key: "logos", Value: len(res.Logos)}, logging.Field{Key: "fonts", Value: len(res.Fonts)})
	writeJSON(w, http.StatusOK, res)
}

// Jobs (REST)

// handleStartJob godoc
// @Summary Start a background scrape job
// @Tags jobs
// @Accept json
// @Produce json
// @Param request body ScrapeRequest true "Target"
// @Success 202 {object} app.Job
// @Failure 400 {object} ErrorResponse
// @Router /jobs [post]
func (s *Server) handleStartJob(w http.ResponseWriter, r *http.Request) {
	body, err := decodeScrapeRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	// Jobs outlive the request.
	job, err := s.orchestrator.StartScrapeJob(context.WithoutCancel(r.Context()), body.URL)
	if err != nil {
		s.fail(w, "starting scrape job", err)
		return
	}
	s.logger.Info("started scrape job", logging.Field{Key: "job_id", Value: job.ID}, logging.Field{Key: "url", Value: body.URL})
	writeJSON(w, http.StatusAccepted, job)
}

// @Summary Get a job
// @Tags jobs
// @Produce json
// @Param jobID path string true "Job ID"
// @Success 200 {object} app.Job
// @Failure 404 {object} ErrorResponse
// @Router /jobs/{jobID} [get]
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		s.logger.Warn("getting job: not found", logging.Field{Key: "job_id", Value: jobID})
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// @Summary Cancel a job
// @Tags jobs
// @Param jobID path string true "Job ID"
// @Success 204
// @Router /jobs/{jobID} [delete]
func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	s.orchestrator.CancelJob(jobID)
	s.logger.Info("canceled job", logging.Field{Key: "job_id", Value: jobID})
	writeJSON(w, http.StatusNoContent, nil)
}

// @Summary List jobs
// @Tags jobs
// @Produce json
// @Success 200 {array} app.Job
// @Router /jobs [get]
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs := s.orchestrator.ListJobs()
	s.logger.Debug("listed jobs", logging.Field{Key: "count", Value: len(jobs)})
	writeJSON(w, http.StatusOK, jobs)
}

// WebSockets

// handleScrapeWS starts a job for ?url= and streams its events until the
// job ends. A client disconnect cancels the job.
//
// @Summary Scrape with a WebSocket progress stream
// @Description Upgrades to a WebSocket. The first message is the job, then job events until the job ends.
// @Tags jobs
// @Produce json
// @Param url query string true "Target URL"
// @Success 101 {object} app.JobEvent
// @Router /ws/scrape [get]
func (s *Server) handleScrapeWS(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading to websocket", logging.Field{Key: "error", Value: err.Error()})
		return
	}
	defer conn.Close()

	job, err := s.orchestrator.StartScrapeJob(r.Context(), target)
	if err != nil {
		s.logger.Warn("starting scrape job", logging.Field{Key: "error", Value: err.Error()})
		_ = conn.WriteJSON(ErrorResponse{Error: err.Error()})
		return
	}

	s.logger.Info("started scrape job", logging.Field{Key: "job_id", Value: job.ID})
	_ = conn.WriteJSON(job)

	// The client never sends anything; a read error means it went away.
	finished := make(chan struct{})
	defer close(finished)
	go func() {
		for {
			if _, _, err := conn.NextReader(); err != nil {
				select {
				case <-finished:
				default:
					s.logger.Info("websocket client gone, canceling job", logging.Field{Key: "job_id", Value: job.ID})
					s.orchestrator.CancelJob(job.ID)
				}
				return
			}
		}
	}()

	for ev := range job.Events {
		if err := conn.WriteJSON(ev); err != nil {
			// Assume client disconnected; cancel job
			s.orchestrator.CancelJob(job.ID)
			return
		}
	}
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "job finished"))
}

// History

// @Summary List recorded scrapes
// @Tags history
// @Produce json
// @Param url query string false "Only scrapes of this URL"
// @Param limit query int false "Maximum entries"
// @Success 200 {array} history.Summary
// @Router /scrapes [get]
func (s *Server) handleListScrapes(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if ls := r.URL.Query().Get("limit"); ls != "" {
		if v, err := strconv.Atoi(ls); err == nil && v > 0 {
			limit = v
		}
	}
	list, err := s.orchestrator.ListScrapes(r.Context(), r.URL.Query().Get("url"), limit)
	if err != nil {
		s.fail(w, "listing scrapes", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// @Summary Get a recorded scrape
// @Tags history
// @Produce json
// @Param id path string true "Scrape ID"
// @Success 200 {object} history.Entry
// @Failure 404 {object} ErrorResponse
// @Router /scrapes/{id} [get]
func (s *Server) handleGetScrape(w http.ResponseWriter, r *http.Request) {
	e, err := s.orchestrator.GetScrape(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, "getting scrape", err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// @Summary Diff a recorded scrape against another
// @Tags history
// @Produce json
// @Param id path string true "Scrape ID"
// @Param against query string false "Base scrape ID; defaults to the previous scrape of the same URL"
// @Success 200 {object} history.Diff
// @Failure 404 {object} ErrorResponse
// @Router /scrapes/{id}/diff [get]
func (s *Server) handleDiffScrape(w http.ResponseWriter, r *http.Request) {
	d, err := s.orchestrator.DiffScrapes(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("against"))
	if err != nil {
		s.fail(w, "diffing scrapes", err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}
