// Package models defines core data structures for material lists and generation records.
package models

import "time"

// MaterialLine is one row of a bill of materials.
type MaterialLine struct {
	Description string  `json:"description" yaml:"description"`
	Quantity    float64 `json:"quantity" yaml:"quantity"`
	Unit        string  `json:"unit,omitempty" yaml:"unit,omitempty"`
}

// MaterialList is an ordered sequence of material lines. Order is the
// presentation order of the generated document.
type MaterialList []MaterialLine

// ListRecord is one persisted generation event. Records are append-only:
// regenerating a list creates a new record rather than mutating an old one.
type ListRecord struct {
	ID             int64        `json:"id" db:"id"`
	ClientName     string       `json:"client_name" db:"client_name"`
	TechnicianName string       `json:"technician_name" db:"technician_name"`
	CreatedAt      time.Time    `json:"created_at" db:"created_at"`
	Materials      MaterialList `json:"materials" db:"materials"`
	DocumentRef    string       `json:"document_ref,omitempty" db:"document_ref"`
}

// RecordSummary is the history-view projection of a record.
type RecordSummary struct {
	ID             int64     `json:"id"`
	ClientName     string    `json:"client_name"`
	TechnicianName string    `json:"technician_name"`
	CreatedAt      time.Time `json:"created_at"`
	LineCount      int       `json:"line_count"`
}

// RawLine is one submitted form row before validation.
type RawLine struct {
	Description string  `json:"description" yaml:"description"`
	Quantity    float64 `json:"quantity" yaml:"quantity"`
	Unit        string  `json:"unit,omitempty" yaml:"unit,omitempty"`
}

// SubmitInput is the raw submission payload for generating a list.
type SubmitInput struct {
	ClientName     string    `json:"client_name" yaml:"client_name"`
	TechnicianName string    `json:"technician_name" yaml:"technician_name"`
	Lines          []RawLine `json:"lines" yaml:"lines"`
}

// HistoryFilter narrows the history view. Zero values mean no filtering.
type HistoryFilter struct {
	Client string    `json:"client,omitempty"`
	From   time.Time `json:"from,omitempty"`
	To     time.Time `json:"to,omitempty"`
}
