package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"avocadoanalytics/pkg/contracts/domain"
)

// SQLiteRecorder persists query events to a SQLite database
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *slog.Logger
}

// NewSQLiteRecorder opens (or creates) the database and runs migrations
func NewSQLiteRecorder(dbPath string, logger *slog.Logger) (*SQLiteRecorder, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets /api/dashboard/queries read while renders are being written
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	r := &SQLiteRecorder{
		db:     db,
		logger: logger.With(slog.String("component", "query_recorder")),
	}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.logger.Info("sqlite recorder opened", slog.String("path", dbPath))
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS query_log (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			source      TEXT NOT NULL,
			region      TEXT,
			type        TEXT,
			start_date  TEXT,
			end_date    TEXT,
			points      INTEGER,
			duration_us INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_query_log_ts ON query_log(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordQuery stores evt; a zero At is stamped with the current time
func (r *SQLiteRecorder) RecordQuery(ctx context.Context, evt QueryEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	at := evt.At
	if at.IsZero() {
		at = time.Now()
	}

	_, err := r.db.ExecContext(ctx, `INSERT INTO query_log
		(timestamp, source, region, type, start_date, end_date, points, duration_us)
		VALUES (?,?,?,?,?,?,?,?)`,
		at.UnixMicro(), evt.Source, evt.Query.Region, string(evt.Query.Type),
		domain.FormatDate(evt.Query.StartDate), domain.FormatDate(evt.Query.EndDate),
		evt.Points, evt.Duration.Microseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert query: %w", err)
	}
	return nil
}

// Recent returns up to limit events, newest first
func (r *SQLiteRecorder) Recent(ctx context.Context, limit int) ([]QueryEvent, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, timestamp, source, region, type, start_date, end_date, points, duration_us
		FROM query_log ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent: %w", err)
	}
	defer rows.Close()

	events := make([]QueryEvent, 0, limit)
	for rows.Next() {
		var (
			evt                 QueryEvent
			ts, durationUS      int64
			region, avocadoType string
			startDate, endDate  string
		)
		if err := rows.Scan(&evt.ID, &ts, &evt.Source, &region, &avocadoType, &startDate, &endDate, &evt.Points, &durationUS); err != nil {
			return nil, fmt.Errorf("scan query: %w", err)
		}
		q, err := domain.NewFilterQuery(region, avocadoType, startDate, endDate)
		if err != nil {
			r.logger.WarnContext(ctx, "skipping unreadable query log row",
				slog.Int64("id", evt.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		evt.At = time.UnixMicro(ts).UTC()
		evt.Query = q
		evt.Duration = time.Duration(durationUS) * time.Microsecond
		events = append(events, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recent: %w", err)
	}
	return events, nil
}

// Prune deletes events older than before
func (r *SQLiteRecorder) Prune(ctx context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.db.ExecContext(ctx, `DELETE FROM query_log WHERE timestamp < ?`, before.UnixMicro())
	if err != nil {
		return 0, fmt.Errorf("prune query log: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune rows affected: %w", err)
	}
	return n, nil
}

// Ping checks the database is reachable
func (r *SQLiteRecorder) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info("closing sqlite recorder")
	return r.db.Close()
}
