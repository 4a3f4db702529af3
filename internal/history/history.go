// Package history persists an audit trail of monitoring cycles and sent
// notifications in a local SQLite database.
package history

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hulikau/xxx-s-market-observer/internal/engine"
	"github.com/hulikau/xxx-s-market-observer/internal/notify"
	logx "github.com/hulikau/xxx-s-market-observer/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

// Config configures the history store. An empty Path disables it; callers
// get a nil *Store, which is safe to use.
type Config struct {
	Path      string
	Retention time.Duration // 0 means keep everything
}

// CycleRow is one persisted cycle summary.
type CycleRow struct {
	ID         int64     `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Total      int       `json:"total"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
	NewSizes   int       `json:"new_sizes"`
	Notified   int       `json:"notified"`
}

// NotificationRow is one persisted notification event.
type NotificationRow struct {
	ID          int64     `json:"id"`
	At          time.Time `json:"at"`
	Site        string    `json:"site"`
	URL         string    `json:"url"`
	ProductName string    `json:"product_name,omitempty"`
	Sizes       string    `json:"sizes"`
	Price       string    `json:"price,omitempty"`
	Delivered   int       `json:"delivered"`
}

// Store is the SQLite-backed audit trail. It implements engine.Recorder.
// A nil Store is a no-op on writes and returns empty results on reads.
type Store struct {
	db  *sql.DB
	log logx.Logger

	retention  time.Duration
	opCount    atomic.Uint64
	pruneEvery uint64
}

// Open opens (or creates) the database at cfg.Path and applies migrations.
func Open(cfg Config, log logx.Logger) (*Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("history path is required")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	_, _ = db.Exec("PRAGMA busy_timeout = 5000")
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	s := &Store{db: db, log: log, retention: cfg.Retention, pruneEvery: 200}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordCycle persists one cycle summary.
func (s *Store) RecordCycle(ctx context.Context, c engine.CycleSummary) error {
	if s == nil || s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cycles(started_at, finished_at, total, succeeded, failed, new_sizes, notified)
		 VALUES(?,?,?,?,?,?,?)`,
		c.StartedAt.Format(time.RFC3339Nano), c.FinishedAt.Format(time.RFC3339Nano),
		c.Total, c.Succeeded, c.Failed, c.NewSizes, c.Notified,
	)
	s.maybePrune()
	return err
}

// RecordNotification persists one notification event with its delivery count.
func (s *Store) RecordNotification(ctx context.Context, ev notify.Event, delivered int) error {
	if s == nil || s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notifications(at, site, url, product, sizes, price, delivered)
		 VALUES(?,?,?,?,?,?,?)`,
		time.Now().Format(time.RFC3339Nano), ev.SiteName, ev.URL,
		nullStr(ev.ProductName), strings.Join(ev.NewSizes, ","), nullStr(ev.Price), delivered,
	)
	s.maybePrune()
	return err
}

// RecentCycles returns up to limit cycle summaries, newest first.
func (s *Store) RecentCycles(ctx context.Context, limit int) ([]CycleRow, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, total, succeeded, failed, new_sizes, notified
		 FROM cycles ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CycleRow
	for rows.Next() {
		var r CycleRow
		var started, finished string
		if err := rows.Scan(&r.ID, &started, &finished, &r.Total, &r.Succeeded, &r.Failed, &r.NewSizes, &r.Notified); err != nil {
			return nil, err
		}
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		r.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		out = append(out, r)
	}
	return out, rows.Err()
}

// RecentNotifications returns up to limit notification events, newest first.
func (s *Store) RecentNotifications(ctx context.Context, limit int) ([]NotificationRow, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, at, site, url, COALESCE(product, ''), sizes, COALESCE(price, ''), delivered
		 FROM notifications ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []NotificationRow
	for rows.Next() {
		var r NotificationRow
		var at string
		if err := rows.Scan(&r.ID, &at, &r.Site, &r.URL, &r.ProductName, &r.Sizes, &r.Price, &r.Delivered); err != nil {
			return nil, err
		}
		r.At, _ = time.Parse(time.RFC3339Nano, at)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) maybePrune() {
	if s.retention <= 0 {
		return
	}
	if s.opCount.Add(1)%s.pruneEvery != 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	cutoff := time.Now().Add(-s.retention).Format(time.RFC3339Nano)
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cycles WHERE started_at < ?`, cutoff); err != nil {
		s.log.Debug("pruning cycles failed", logx.Err(err))
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM notifications WHERE at < ?`, cutoff); err != nil {
		s.log.Debug("pruning notifications failed", logx.Err(err))
	}
}

func nullStr(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}
