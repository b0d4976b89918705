// Package storage provides the SQLite implementation of the Storage interface.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/solarlist/solarlist/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes
// the schema. Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		client_name TEXT NOT NULL,
		technician_name TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		materials TEXT NOT NULL,
		line_count INTEGER NOT NULL,
		document_ref TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_records_created_at ON records(created_at);
	CREATE INDEX IF NOT EXISTS idx_records_client_name ON records(client_name);
	`
	_, err := db.Exec(schema)
	return err
}

// CreateRecord inserts a record in a single transaction, assigning its id and
// creation timestamp. A failed insert rolls back and leaves nothing behind.
func (s *SQLiteStorage) CreateRecord(ctx context.Context, rec *models.ListRecord) error {
	materialsJSON, err := json.Marshal(rec.Materials)
	if err != nil {
		return &StorageError{Op: "create record", Err: fmt.Errorf("marshal materials: %w", err)}
	}

	createdAt := time.Now().UTC().Truncate(time.Second)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &StorageError{Op: "create record", Err: err}
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO records (client_name, technician_name, created_at, materials, line_count, document_ref)
		 VALUES (?, ?, ?, ?, ?, '')`,
		rec.ClientName, rec.TechnicianName, createdAt, string(materialsJSON), len(rec.Materials),
	)
	if err != nil {
		return &StorageError{Op: "create record", Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return &StorageError{Op: "create record", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &StorageError{Op: "create record", Err: err}
	}

	rec.ID = id
	rec.CreatedAt = createdAt
	return nil
}

// SetDocumentRef stores the rendered document reference for a record.
func (s *SQLiteStorage) SetDocumentRef(ctx context.Context, id int64, ref string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE records SET document_ref = ? WHERE id = ?`, ref, id)
	if err != nil {
		return &StorageError{Op: "set document ref", Err: err}
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetRecord returns a record by id, or ErrNotFound.
func (s *SQLiteStorage) GetRecord(ctx context.Context, id int64) (*models.ListRecord, error) {
	var rec models.ListRecord
	var materialsJSON string

	err := s.db.QueryRowContext(ctx,
		`SELECT id, client_name, technician_name, created_at, materials, document_ref
		 FROM records WHERE id = ?`, id,
	).Scan(&rec.ID, &rec.ClientName, &rec.TechnicianName, &rec.CreatedAt, &materialsJSON, &rec.DocumentRef)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &StorageError{Op: "get record", Err: err}
	}

	if err := json.Unmarshal([]byte(materialsJSON), &rec.Materials); err != nil {
		return nil, &StorageError{Op: "get record", Err: fmt.Errorf("unmarshal materials: %w", err)}
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	return &rec, nil
}

// ListRecords returns summaries most recent first, optionally narrowed by a
// case-insensitive client substring and a creation date range.
func (s *SQLiteStorage) ListRecords(ctx context.Context, f models.HistoryFilter) ([]*models.RecordSummary, error) {
	query := `SELECT id, client_name, technician_name, created_at, line_count FROM records`
	var conds []string
	var args []interface{}
	if f.Client != "" {
		// LIKE is case-insensitive for ASCII by default and ignores collations.
		conds = append(conds, `client_name LIKE '%' || ? || '%'`)
		args = append(args, f.Client)
	}
	if !f.From.IsZero() {
		conds = append(conds, `created_at >= ?`)
		args = append(args, f.From.UTC())
	}
	if !f.To.IsZero() {
		conds = append(conds, `created_at <= ?`)
		args = append(args, f.To.UTC())
	}
	for i, c := range conds {
		if i == 0 {
			query += ` WHERE ` + c
		} else {
			query += ` AND ` + c
		}
	}
	query += ` ORDER BY id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &StorageError{Op: "list records", Err: err}
	}
	defer rows.Close()

	var out []*models.RecordSummary
	for rows.Next() {
		var sum models.RecordSummary
		if err := rows.Scan(&sum.ID, &sum.ClientName, &sum.TechnicianName, &sum.CreatedAt, &sum.LineCount); err != nil {
			return nil, &StorageError{Op: "list records", Err: err}
		}
		sum.CreatedAt = sum.CreatedAt.UTC()
		out = append(out, &sum)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "list records", Err: err}
	}
	return out, nil
}

// DeleteRecord removes a record by id.
func (s *SQLiteStorage) DeleteRecord(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id)
	if err != nil {
		return &StorageError{Op: "delete record", Err: err}
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountRecords returns the total number of records.
func (s *SQLiteStorage) CountRecords(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&count)
	if err != nil {
		return 0, &StorageError{Op: "count records", Err: err}
	}
	return count, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
