package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/spigell/part-recommender/internal/spec"
)

// specColumns are the catalog columns in insert order. Measurement columns
// carry no declared type so SQLite keeps whatever the datasheet held.
var specColumns = []string{
	"part_number",
	"vendor",
	"category",
	"application",
	"source_filename",
	"impedance",
	"test_frequency",
	"current",
	"dcr",
	"temp_min",
	"temp_max",
	"size",
	"inductance",
}

// timeLayout has a fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store manages the SQLite catalog of structured specs and the query history.
type Store struct {
	db *sql.DB
}

// Query is one recorded recommendation request and its response.
type Query struct {
	ID          string          `json:"id"`
	Requirement json.RawMessage `json:"requirement"`
	Response    json.RawMessage `json:"response"`
	CreatedAt   time.Time       `json:"created_at"`
}

// NewStore opens or creates the catalog database at path.
func NewStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating catalog directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS structured_specs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			part_number TEXT NOT NULL,
			vendor TEXT NOT NULL DEFAULT '',
			category TEXT,
			application TEXT,
			source_filename TEXT,
			impedance,
			test_frequency,
			"current",
			dcr,
			temp_min,
			temp_max,
			size,
			inductance,
			updated_at TEXT,
			UNIQUE (part_number, vendor)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_specs_category ON structured_specs(category)`,
		`CREATE TABLE IF NOT EXISTS query_history (
			id TEXT PRIMARY KEY,
			requirement TEXT NOT NULL,
			response TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	return nil
}

// SaveSpec inserts a normalized record, replacing an earlier row with the
// same part number and vendor.
func (s *Store) SaveSpec(ctx context.Context, record map[string]any) error {
	partNumber, _ := record["part_number"].(string)
	if strings.TrimSpace(partNumber) == "" {
		return spec.NewInvalidArgumentError("part_number", "record has no part number")
	}

	args := make([]any, 0, len(specColumns)+1)
	updates := make([]string, 0, len(specColumns))
	for _, column := range specColumns {
		value := bindValue(record[column])
		if column == "vendor" && value == nil {
			value = ""
		}
		args = append(args, value)
		if column != "part_number" && column != "vendor" {
			updates = append(updates, fmt.Sprintf("%q = excluded.%q", column, column))
		}
	}
	args = append(args, time.Now().UTC().Format(timeLayout))
	updates = append(updates, "updated_at = excluded.updated_at")

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(args)), ", ")
	stmt := fmt.Sprintf(
		`INSERT INTO structured_specs (%s, updated_at) VALUES (%s)
		ON CONFLICT (part_number, vendor) DO UPDATE SET %s`,
		quoted(specColumns), placeholders, strings.Join(updates, ", "),
	)

	if _, err := s.db.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("saving spec %s: %w", partNumber, err)
	}
	return nil
}

// Candidates implements Source over the whole catalog in insertion order.
func (s *Store) Candidates(ctx context.Context) ([]spec.Candidate, error) {
	return s.query(ctx, "")
}

// CandidatesInCategory returns the catalog entries of one category.
func (s *Store) CandidatesInCategory(ctx context.Context, name string) ([]spec.Candidate, error) {
	return s.query(ctx, "WHERE lower(category) = lower(?)", name)
}

func (s *Store) query(ctx context.Context, where string, args ...any) ([]spec.Candidate, error) {
	stmt := fmt.Sprintf(`SELECT %s FROM structured_specs %s ORDER BY id`, quoted(specColumns), where)

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("querying specs: %w", err)
	}
	defer rows.Close()

	candidates := []spec.Candidate{}
	for rows.Next() {
		values := make([]any, len(specColumns))
		pointers := make([]any, len(specColumns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("scanning spec: %w", err)
		}

		record := make(map[string]any, len(specColumns))
		for i, column := range specColumns {
			switch v := values[i].(type) {
			case nil:
			case []byte:
				record[column] = string(v)
			default:
				record[column] = v
			}
		}
		candidates = append(candidates, spec.DecodeCandidate(record))
	}

	return candidates, rows.Err()
}

// Count returns the number of catalog entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM structured_specs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting specs: %w", err)
	}
	return n, nil
}

// DeleteSpec removes every catalog entry with the given part number and
// reports whether anything was removed.
func (s *Store) DeleteSpec(ctx context.Context, partNumber string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM structured_specs WHERE part_number = ?`, partNumber)
	if err != nil {
		return false, fmt.Errorf("deleting spec %s: %w", partNumber, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SaveQuery records a recommendation request and its response.
func (s *Store) SaveQuery(ctx context.Context, q Query) error {
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO query_history (id, requirement, response, created_at) VALUES (?, ?, ?, ?)`,
		q.ID, string(q.Requirement), string(q.Response), q.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("saving query %s: %w", q.ID, err)
	}
	return nil
}

// RecentQueries returns up to limit queries, newest first.
func (s *Store) RecentQueries(ctx context.Context, limit int) ([]Query, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, requirement, response, created_at FROM query_history ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var queries []Query
	for rows.Next() {
		var (
			q                     Query
			requirement, response string
			createdAt             string
		)
		if err := rows.Scan(&q.ID, &requirement, &response, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning query: %w", err)
		}
		q.Requirement = json.RawMessage(requirement)
		q.Response = json.RawMessage(response)
		if q.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("parsing query time: %w", err)
		}
		queries = append(queries, q)
	}

	return queries, rows.Err()
}

// quoted joins column names as SQL identifiers; "current" is a keyword.
func quoted(columns []string) string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = `"` + c + `"`
	}
	return strings.Join(out, ", ")
}

// bindValue turns decoded document values into something the driver stores.
func bindValue(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case string, int, int64, float64, bool:
		return t
	case int32:
		return int64(t)
	case float32:
		return float64(t)
	case uint64:
		return float64(t)
	default:
		return fmt.Sprint(t)
	}
}
