package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/harees/url-classifier/internal/core"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS action_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL,
		domain TEXT NOT NULL,
		level TEXT NOT NULL,
		score REAL NULL,
		reason TEXT NOT NULL,
		action TEXT NOT NULL,
		ts INTEGER NOT NULL
	)
`

const mysqlSchema = `
	CREATE TABLE IF NOT EXISTS action_history (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		url TEXT NOT NULL,
		domain VARCHAR(255) NOT NULL,
		level VARCHAR(32) NOT NULL,
		score DOUBLE NULL,
		reason TEXT NOT NULL,
		action VARCHAR(16) NOT NULL,
		ts BIGINT NOT NULL
	)
`

// SQLHistory stores action records in SQLite or MySQL
type SQLHistory struct {
	db         *sql.DB
	logger     *zap.Logger
	maxRecords int
	driver     string
}

// NewSQLiteHistory opens (and if needed creates) a SQLite history database
func NewSQLiteHistory(dbPath string, maxRecords int, logger *zap.Logger) (*SQLHistory, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	return newSQLHistory(db, "sqlite3", sqliteSchema, maxRecords, logger)
}

// NewMySQLHistory connects to MySQL and creates the history table if needed
func NewMySQLHistory(dsn string, maxRecords int, logger *zap.Logger) (*SQLHistory, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}
	return newSQLHistory(db, "mysql", mysqlSchema, maxRecords, logger)
}

func newSQLHistory(db *sql.DB, driver, schema string, maxRecords int, logger *zap.Logger) (*SQLHistory, error) {
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	if maxRecords <= 0 {
		maxRecords = DefaultMaxRecords
	}
	return &SQLHistory{db: db, logger: logger, maxRecords: maxRecords, driver: driver}, nil
}

// Add inserts a record and trims the table to the configured size
func (h *SQLHistory) Add(ctx context.Context, rec *core.ActionRecord) error {
	var score sql.NullFloat64
	if rec.Score != nil {
		score = sql.NullFloat64{Float64: *rec.Score, Valid: true}
	}

	_, err := h.db.ExecContext(ctx, `
		INSERT INTO action_history (url, domain, level, score, reason, action, ts)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.URL, rec.Domain, rec.Level, score, rec.Reason, string(rec.Action), rec.Timestamp.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to insert history record: %w", err)
	}

	if err := h.trim(ctx); err != nil {
		h.logger.Warn("Failed to trim action history", zap.Error(err))
	}
	return nil
}

func (h *SQLHistory) trim(ctx context.Context) error {
	// MySQL refuses a subquery on the table being deleted from, hence the derived table.
	query := `
		DELETE FROM action_history
		WHERE id NOT IN (
			SELECT id FROM (
				SELECT id FROM action_history ORDER BY id DESC LIMIT ?
			) AS newest
		)
	`
	result, err := h.db.ExecContext(ctx, query, h.maxRecords)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n > 0 {
		h.logger.Debug("Trimmed action history", zap.Int64("removed", n), zap.String("driver", h.driver))
	}
	return nil
}

// Recent returns up to limit records, newest first
func (h *SQLHistory) Recent(ctx context.Context, limit int) ([]core.ActionRecord, error) {
	if limit <= 0 || limit > h.maxRecords {
		limit = h.maxRecords
	}

	rows, err := h.db.QueryContext(ctx, `
		SELECT url, domain, level, score, reason, action, ts
		FROM action_history
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var out []core.ActionRecord
	for rows.Next() {
		var rec core.ActionRecord
		var score sql.NullFloat64
		var action string
		var ts int64
		if err := rows.Scan(&rec.URL, &rec.Domain, &rec.Level, &score, &rec.Reason, &action, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}
		if score.Valid {
			v := score.Float64
			rec.Score = &v
		}
		rec.Action = core.Action(action)
		rec.Timestamp = time.UnixMilli(ts).UTC()
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	return out, nil
}

// Stop closes the database connection
func (h *SQLHistory) Stop() {
	if err := h.db.Close(); err != nil {
		h.logger.Error("Failed to close history database", zap.Error(err))
	}
}
