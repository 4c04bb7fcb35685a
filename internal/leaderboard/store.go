package leaderboard

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const defaultLimit = 50

// Store persists benchmark runs in SQLite. Each run is one entry plus a
// set of per-category accuracy rows.
type Store struct {
	db *sql.DB
}

type Entry struct {
	ID               int64
	Model            string
	Provider         string
	Dataset          string
	Score            float64
	Accuracy         float64
	LatencyMS        int64
	SampleCount      int
	CategoryAccuracy map[string]float64
	EvalDate         time.Time
}

func NewStore(dbPath string) (*Store, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, errors.New("leaderboard: empty db path")
	}

	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("leaderboard: create db dir: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: open db: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("leaderboard: ping db: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func initSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("leaderboard: nil db")
	}

	stmts := []string{
		`PRAGMA foreign_keys = ON`,
		`PRAGMA journal_mode = WAL`,
		`CREATE TABLE IF NOT EXISTS benchmark_entries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			model TEXT NOT NULL,
			provider TEXT NOT NULL,
			dataset TEXT NOT NULL,
			score REAL NOT NULL,
			accuracy REAL NOT NULL,
			latency_ms INTEGER NOT NULL,
			sample_count INTEGER NOT NULL,
			eval_date INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS category_scores (
			entry_id INTEGER NOT NULL REFERENCES benchmark_entries(id) ON DELETE CASCADE,
			category TEXT NOT NULL,
			accuracy REAL NOT NULL,
			PRIMARY KEY (entry_id, category)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_benchmark_dataset ON benchmark_entries(dataset)`,
		`CREATE INDEX IF NOT EXISTS idx_benchmark_model_dataset ON benchmark_entries(model, dataset)`,
		`CREATE INDEX IF NOT EXISTS idx_benchmark_eval_date ON benchmark_entries(eval_date)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("leaderboard: init schema: %w", err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save writes the entry and its category rows in one transaction and
// fills in the assigned ID.
func (s *Store) Save(ctx context.Context, entry *Entry) error {
	if s == nil || s.db == nil {
		return errors.New("leaderboard: nil store")
	}
	if ctx == nil {
		return errors.New("leaderboard: nil context")
	}
	if entry == nil {
		return errors.New("leaderboard: nil entry")
	}

	model := strings.TrimSpace(entry.Model)
	provider := strings.TrimSpace(entry.Provider)
	dataset := strings.TrimSpace(entry.Dataset)
	if model == "" || provider == "" || dataset == "" {
		return errors.New("leaderboard: missing model/provider/dataset")
	}

	evalDate := entry.EvalDate
	if evalDate.IsZero() {
		evalDate = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("leaderboard: begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO benchmark_entries (
			model, provider, dataset, score, accuracy, latency_ms, sample_count, eval_date
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, model, provider, dataset, entry.Score, entry.Accuracy, entry.LatencyMS, entry.SampleCount, evalDate.UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("leaderboard: insert entry: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("leaderboard: entry id: %w", err)
	}

	for category, accuracy := range entry.CategoryAccuracy {
		category = strings.TrimSpace(category)
		if category == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO category_scores (entry_id, category, accuracy) VALUES (?, ?, ?)
		`, id, category, accuracy); err != nil {
			return fmt.Errorf("leaderboard: insert category score: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("leaderboard: commit: %w", err)
	}

	entry.ID = id
	entry.EvalDate = evalDate
	entry.Model = model
	entry.Provider = provider
	entry.Dataset = dataset
	return nil
}

// GetLeaderboard lists entries for a dataset, best score first.
func (s *Store) GetLeaderboard(ctx context.Context, dataset string, limit int) ([]Entry, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("leaderboard: nil store")
	}
	if ctx == nil {
		return nil, errors.New("leaderboard: nil context")
	}
	dataset = strings.TrimSpace(dataset)
	if dataset == "" {
		return nil, errors.New("leaderboard: empty dataset")
	}
	if limit <= 0 {
		limit = defaultLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, model, provider, dataset, score, accuracy, latency_ms, sample_count, eval_date
		FROM benchmark_entries
		WHERE dataset = ?
		ORDER BY score DESC, accuracy DESC, latency_ms ASC, eval_date DESC
		LIMIT ?
	`, dataset, limit)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: query leaderboard: %w", err)
	}
	defer rows.Close()

	entries, err := scanRows(rows)
	if err != nil {
		return nil, err
	}
	if err := s.attachCategoryScores(ctx, entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// GetModelHistory lists a model's runs on a dataset, newest first.
func (s *Store) GetModelHistory(ctx context.Context, model, dataset string) ([]Entry, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("leaderboard: nil store")
	}
	if ctx == nil {
		return nil, errors.New("leaderboard: nil context")
	}
	model = strings.TrimSpace(model)
	dataset = strings.TrimSpace(dataset)
	if model == "" || dataset == "" {
		return nil, errors.New("leaderboard: missing model/dataset")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, model, provider, dataset, score, accuracy, latency_ms, sample_count, eval_date
		FROM benchmark_entries
		WHERE model = ? AND dataset = ?
		ORDER BY eval_date DESC
	`, model, dataset)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: query model history: %w", err)
	}
	defer rows.Close()

	entries, err := scanRows(rows)
	if err != nil {
		return nil, err
	}
	if err := s.attachCategoryScores(ctx, entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *Store) attachCategoryScores(ctx context.Context, entries []Entry) error {
	for i := range entries {
		rows, err := s.db.QueryContext(ctx, `
			SELECT category, accuracy FROM category_scores WHERE entry_id = ? ORDER BY category
		`, entries[i].ID)
		if err != nil {
			return fmt.Errorf("leaderboard: query category scores: %w", err)
		}

		scores := make(map[string]float64)
		for rows.Next() {
			var category string
			var accuracy float64
			if err := rows.Scan(&category, &accuracy); err != nil {
				rows.Close()
				return fmt.Errorf("leaderboard: scan category score: %w", err)
			}
			scores[category] = accuracy
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return fmt.Errorf("leaderboard: scan category scores: %w", err)
		}
		rows.Close()

		if len(scores) > 0 {
			entries[i].CategoryAccuracy = scores
		}
	}
	return nil
}

func scanRows(rows *sql.Rows) ([]Entry, error) {
	var out []Entry
	for rows.Next() {
		var e Entry
		var evalDateMS int64
		if err := rows.Scan(
			&e.ID,
			&e.Model,
			&e.Provider,
			&e.Dataset,
			&e.Score,
			&e.Accuracy,
			&e.LatencyMS,
			&e.SampleCount,
			&evalDateMS,
		); err != nil {
			return nil, fmt.Errorf("leaderboard: scan entry: %w", err)
		}
		e.EvalDate = time.UnixMilli(evalDateMS).UTC()
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("leaderboard: scan rows: %w", err)
	}
	return out, nil
}
