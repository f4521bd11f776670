// Package history keeps successful scrape results in SQLite so repeated
// scrapes of the same site can be listed and compared.
package history

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/raysh454/brandscout/internal/logging"
	"github.com/raysh454/brandscout/internal/model"
	"github.com/raysh454/brandscout/internal/utils"
)

//go:embed schema.sql
var schemaFS embed.FS

var ErrNotFound = errors.New("scrape not found")

var canonicalOpts = utils.CanonicalizeOptions{
	DropTrackingParams: true,
	StripTrailingSlash: true,
}

// Entry is one recorded scrape.
type Entry struct {
	ID           string              `json:"id"`
	URL          string              `json:"url"`
	CanonicalURL string              `json:"canonical_url"`
	CreatedAt    int64               `json:"created_at"`
	Result       *model.ScrapeResult `json:"result"`
}

// Summary is the list view of an Entry.
type Summary struct {
	ID           string `json:"id"`
	URL          string `json:"url"`
	CanonicalURL string `json:"canonical_url"`
	CreatedAt    int64  `json:"created_at"`
	Logos        int    `json:"logos"`
	Fonts        int    `json:"fonts"`
	AgencyName   string `json:"agency_name"`
}

// Store is a scrape history backed by a *sql.DB using the modernc sqlite
// driver.
type Store struct {
	db     *sql.DB
	logger logging.Logger
	now    func() time.Time
}

// NewStore runs the embedded schema against db.
func NewStore(db *sql.DB, logger logging.Logger) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return nil, fmt.Errorf("failed to read schema.sql: %w", err)
	}
	if _, err := db.Exec(string(schemaSQL)); err != nil {
		return nil, fmt.Errorf("failed to execute schema: %w", err)
	}
	return &Store{
		db:     db,
		logger: logger.With(logging.Field{Key: "component", Value: "history"}),
		now:    time.Now,
	}, nil
}

// Record stores result under a new id.
func (s *Store) Record(ctx context.Context, rawURL string, result *model.ScrapeResult) (*Entry, error) {
	if result == nil {
		return nil, fmt.Errorf("result is nil")
	}
	canonical, err := utils.Canonicalize(rawURL, canonicalOpts)
	if err != nil {
		canonical = rawURL
	}
	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}

	e := &Entry{
		ID:           uuid.New().String(),
		URL:          rawURL,
		CanonicalURL: canonical,
		CreatedAt:    s.now().UnixNano(),
		Result:       result,
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO scrapes (id, url, canonical_url, created_at, logo_count, font_count, agency_name, result_json)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.URL, e.CanonicalURL, e.CreatedAt, len(result.Logos), len(result.Fonts),
		result.AgencyDetails.Name, string(data),
	)
	if err != nil {
		return nil, fmt.Errorf("insert scrape: %w", err)
	}
	s.logger.Debug("recorded scrape", logging.Field{Key: "id", Value: e.ID}, logging.Field{Key: "url", Value: canonical})
	return e, nil
}

// Get returns the entry with id or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, url, canonical_url, created_at, result_json
         FROM scrapes
         WHERE id = ?
         LIMIT 1`,
		id,
	)
	var e Entry
	var data string
	if err := row.Scan(&e.ID, &e.URL, &e.CanonicalURL, &e.CreatedAt, &data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var res model.ScrapeResult
	if err := json.Unmarshal([]byte(data), &res); err != nil {
		return nil, fmt.Errorf("decode stored result %s: %w", id, err)
	}
	e.Result = model.NewScrapeResult(res.Logos, res.Fonts, res.Colors, res.AgencyDetails)
	return &e, nil
}

// List returns summaries newest first. A non-empty rawURL restricts the list
// to scrapes of the same canonical URL; limit <= 0 means no limit.
func (s *Store) List(ctx context.Context, rawURL string, limit int) ([]Summary, error) {
	query := `SELECT id, url, canonical_url, created_at, logo_count, font_count, agency_name FROM scrapes`
	var args []any
	if rawURL != "" {
		canonical, err := utils.Canonicalize(rawURL, canonicalOpts)
		if err != nil {
			canonical = rawURL
		}
		query += ` WHERE canonical_url = ?`
		args = append(args, canonical)
	}
	query += ` ORDER BY created_at DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var sm Summary
		if err := rows.Scan(&sm.ID, &sm.URL, &sm.CanonicalURL, &sm.CreatedAt, &sm.Logos, &sm.Fonts, &sm.AgencyName); err != nil {
			return nil, err
		}
		out = append(out, sm)
	}
	return out, rows.Err()
}

// Previous returns the most recent entry for the same canonical URL that was
// recorded before id, or ErrNotFound.
func (s *Store) Previous(ctx context.Context, id string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT p.id FROM scrapes p
         JOIN scrapes c ON c.canonical_url = p.canonical_url
         WHERE c.id = ? AND p.created_at < c.created_at
         ORDER BY p.created_at DESC
         LIMIT 1`,
		id,
	)
	var prevID string
	if err := row.Scan(&prevID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.Get(ctx, prevID)
}
