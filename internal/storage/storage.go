// Package storage defines the persistence interface for generation records.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/solarlist/solarlist/internal/models"
)

// ErrNotFound is returned by lookups that miss. It is a normal result, not a
// failure path.
var ErrNotFound = errors.New("record not found")

// StorageError wraps an underlying storage failure. Callers may retry: a
// failed write leaves no partial record behind.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Storage defines persistence operations for list records. Records are
// append-only in the common path; Delete exists for administrative removal.
type Storage interface {
	// CreateRecord persists rec atomically, assigning ID and CreatedAt.
	// On error no partial record is left behind.
	CreateRecord(ctx context.Context, rec *models.ListRecord) error
	// SetDocumentRef records the rendered document reference for a record.
	SetDocumentRef(ctx context.Context, id int64, ref string) error
	// GetRecord returns the record with the given id, or ErrNotFound.
	GetRecord(ctx context.Context, id int64) (*models.ListRecord, error)
	// ListRecords returns record summaries most recent first, optionally
	// narrowed by filter.
	ListRecords(ctx context.Context, f models.HistoryFilter) ([]*models.RecordSummary, error)
	// DeleteRecord removes a record. Deleting a missing record returns ErrNotFound.
	DeleteRecord(ctx context.Context, id int64) error
	// CountRecords returns the total number of records.
	CountRecords(ctx context.Context) (int64, error)

	Close() error
}
