package app

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/raysh454/brandscout/internal/browser"
	"github.com/raysh454/brandscout/internal/history"
	"github.com/raysh454/brandscout/internal/logging"
	"github.com/raysh454/brandscout/internal/scraper"

	_ "modernc.org/sqlite" // SQLite driver
)

// Application is the global runtime state container. It owns the browser
// fetcher, the history database and the orchestrator built on top of them.
type Application struct {
	Config  *Config
	Logger  logging.Logger
	Fetcher browser.Fetcher
	Scraper *scraper.Scraper
	Orch    *Orchestrator

	db *sql.DB
}

// NewApplication builds the runtime from cfg using the configured browser
// backend.
func NewApplication(cfg *Config, logger logging.Logger) (*Application, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	f, err := browser.NewFetcher(cfg.Browser.Backend, cfg.BrowserOptions(), logger)
	if err != nil {
		return nil, fmt.Errorf("new fetcher: %w", err)
	}
	return NewApplicationWithFetcher(cfg, f, logger)
}

// NewApplicationWithFetcher is NewApplication with an injected fetcher.
func NewApplicationWithFetcher(cfg *Config, f browser.Fetcher, logger logging.Logger) (*Application, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	a := &Application{
		Config:  cfg,
		Logger:  logger,
		Fetcher: f,
		Scraper: scraper.New(f, cfg.ScraperConfig(), logger),
	}

	var store *history.Store
	if cfg.History.Enabled {
		db, err := openHistoryDB(cfg.History.Path)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		store, err = history.NewStore(db, logger)
		if err != nil {
			db.Close()
			_ = f.Close()
			return nil, fmt.Errorf("creating history store: %w", err)
		}
		a.db = db
	}

	a.Orch = NewOrchestrator(cfg, a.Scraper, store, logger)
	logger.Info("application ready",
		logging.Field{Key: "backend", Value: cfg.Browser.Backend},
		logging.Field{Key: "history", Value: cfg.History.Enabled})
	return a, nil
}

func openHistoryDB(path string) (*sql.DB, error) {
	dsn := path
	if path != ":memory:" {
		expanded, err := expandPath(path)
		if err != nil {
			return nil, fmt.Errorf("expanding history path: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
		dsn = expanded
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("configuring history database: %w", err)
	}
	return db, nil
}

// Close stops jobs and releases the fetcher and database.
func (a *Application) Close() error {
	if a == nil {
		return nil
	}
	a.Logger.Info("application shutdown initiated")
	if a.Orch != nil {
		a.Orch.Close()
	}
	var firstErr error
	if a.Fetcher != nil {
		if err := a.Fetcher.Close(); err != nil {
			firstErr = fmt.Errorf("close fetcher: %w", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close history db: %w", err)
		}
	}
	return firstErr
}

func expandPath(p string) (string, error) {
	if len(p) > 0 && p[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, p[1:]), nil
	}
	return p, nil
}
