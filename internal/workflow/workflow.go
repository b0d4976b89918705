// Package workflow orchestrates the generation flow: validate a submission,
// assemble the material list, persist the record, render the document, and
// serve historical lookups.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/solarlist/solarlist/internal/assemble"
	"github.com/solarlist/solarlist/internal/catalog"
	"github.com/solarlist/solarlist/internal/models"
	"github.com/solarlist/solarlist/internal/render"
	"github.com/solarlist/solarlist/internal/share"
	"github.com/solarlist/solarlist/internal/storage"
)

// State is the per-submission processing state. A submission either walks
// Received → Validated → Persisted → Rendered → Delivered or stops at
// Rejected. Nothing is persisted across requests besides the record itself.
type State string

const (
	StateReceived  State = "received"
	StateValidated State = "validated"
	StatePersisted State = "persisted"
	StateRendered  State = "rendered"
	StateDelivered State = "delivered"
	StateRejected  State = "rejected"
)

// FieldError describes a rejected top-level form field.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError aggregates every problem of a submission: bad form fields
// and bad material lines, reported together in one response. State is always
// StateRejected.
type ValidationError struct {
	State  State                `json:"state"`
	Fields []FieldError         `json:"fields,omitempty"`
	Lines  []assemble.LineError `json:"lines,omitempty"`
}

func (e *ValidationError) Error() string {
	var parts []string
	for _, fe := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field, fe.Reason))
	}
	for _, le := range e.Lines {
		parts = append(parts, fmt.Sprintf("line %d (%q): %s", le.Index, le.Description, le.Reason))
	}
	if len(parts) == 0 {
		return "invalid submission"
	}
	return "invalid submission: " + strings.Join(parts, "; ")
}

// SubmitResult is the outcome of a successful submission.
type SubmitResult struct {
	Record       *models.ListRecord
	Document     []byte
	WhatsAppLink string
	State        State
}

// Controller wires the catalog, assembler, store, and renderer together.
type Controller struct {
	store        storage.Storage
	renderer     *render.Renderer
	catalog      *catalog.Catalog
	documentsDir string
	logger       *zap.Logger
}

// NewController creates a controller. documentsDir receives a copy of every
// rendered document; it is created on first use. cat may be nil, disabling
// catalog code resolution.
func NewController(store storage.Storage, renderer *render.Renderer, cat *catalog.Catalog, documentsDir string, logger *zap.Logger) *Controller {
	return &Controller{
		store:        store,
		renderer:     renderer,
		catalog:      cat,
		documentsDir: documentsDir,
		logger:       logger,
	}
}

// Submit processes one submission end to end. Validation failures return a
// *ValidationError with every offending field and line; nothing is stored or
// rendered. Storage failures are retryable and leave no partial record.
func (c *Controller) Submit(ctx context.Context, in models.SubmitInput) (*SubmitResult, error) {
	state := StateReceived
	verr := &ValidationError{State: StateRejected}
	client := strings.TrimSpace(in.ClientName)
	technician := strings.TrimSpace(in.TechnicianName)
	if client == "" {
		verr.Fields = append(verr.Fields, FieldError{Field: "client_name", Reason: "required"})
	}
	if technician == "" {
		verr.Fields = append(verr.Fields, FieldError{Field: "technician_name", Reason: "required"})
	}

	list, err := assemble.Assemble(c.resolveLines(in.Lines))
	if err != nil {
		var aerr *assemble.ValidationError
		if errors.As(err, &aerr) {
			verr.Lines = aerr.Lines
		} else {
			return nil, err
		}
	}
	if len(verr.Fields) > 0 || len(verr.Lines) > 0 {
		c.logger.Info("submission rejected",
			zap.String("state", string(verr.State)),
			zap.Int("field_errors", len(verr.Fields)),
			zap.Int("line_errors", len(verr.Lines)))
		return nil, verr
	}
	state = StateValidated

	rec := &models.ListRecord{
		ClientName:     client,
		TechnicianName: technician,
		Materials:      list,
	}
	if err := c.store.CreateRecord(ctx, rec); err != nil {
		c.logger.Error("record create failed", zap.String("state", string(state)), zap.Error(err))
		return nil, err
	}
	state = StatePersisted

	doc, err := c.renderer.Render(rec)
	if err != nil {
		// The list was validated before persisting, so this indicates a broken
		// invariant upstream; report it, do not retry.
		c.logger.Error("render failed for persisted record",
			zap.String("state", string(state)),
			zap.Int64("record_id", rec.ID),
			zap.Error(err))
		return nil, err
	}
	state = StateRendered

	ref := fmt.Sprintf("lista_%d_%s.pdf", rec.ID, uuid.New().String()[:8])
	if err := c.writeDocument(ref, doc); err != nil {
		// Re-downloads re-render deterministically, so a failed copy on disk
		// does not fail the submission.
		c.logger.Warn("document copy not written", zap.String("ref", ref), zap.Error(err))
	} else if err := c.store.SetDocumentRef(ctx, rec.ID, ref); err != nil {
		c.logger.Warn("document ref not stored", zap.Int64("record_id", rec.ID), zap.Error(err))
	} else {
		rec.DocumentRef = ref
	}

	state = StateDelivered
	c.logger.Info("list generated",
		zap.String("state", string(state)),
		zap.Int64("record_id", rec.ID),
		zap.String("client", rec.ClientName),
		zap.Int("lines", len(rec.Materials)),
		zap.Int("document_bytes", len(doc)))

	return &SubmitResult{
		Record:       rec,
		Document:     doc,
		WhatsAppLink: share.WhatsAppLink(rec),
		State:        state,
	}, nil
}

// Fetch returns a record and its document. The document is re-rendered from
// the stored record; determinism makes it identical to the original download.
func (c *Controller) Fetch(ctx context.Context, id int64) (*models.ListRecord, []byte, error) {
	rec, err := c.store.GetRecord(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	doc, err := c.renderer.Render(rec)
	if err != nil {
		c.logger.Error("re-render failed", zap.Int64("record_id", id), zap.Error(err))
		return nil, nil, err
	}
	return rec, doc, nil
}

// Get returns record metadata without rendering.
func (c *Controller) Get(ctx context.Context, id int64) (*models.ListRecord, error) {
	return c.store.GetRecord(ctx, id)
}

// History returns record summaries, most recent first.
func (c *Controller) History(ctx context.Context, f models.HistoryFilter) ([]*models.RecordSummary, error) {
	return c.store.ListRecords(ctx, f)
}

// Delete removes a record and its stored document copy. Administrative use only.
func (c *Controller) Delete(ctx context.Context, id int64) error {
	rec, err := c.store.GetRecord(ctx, id)
	if err != nil {
		return err
	}
	if err := c.store.DeleteRecord(ctx, id); err != nil {
		return err
	}
	if rec.DocumentRef != "" {
		if err := os.Remove(filepath.Join(c.documentsDir, rec.DocumentRef)); err != nil && !os.IsNotExist(err) {
			c.logger.Warn("document copy not removed", zap.String("ref", rec.DocumentRef), zap.Error(err))
		}
	}
	c.logger.Info("record deleted", zap.Int64("record_id", id))
	return nil
}

// resolveLines expands catalog codes typed in the description field into the
// catalog item's name, filling in its default unit when the row left the unit
// blank. Free-text descriptions pass through untouched.
func (c *Controller) resolveLines(raw []models.RawLine) []models.RawLine {
	if c.catalog == nil {
		return raw
	}
	out := make([]models.RawLine, len(raw))
	copy(out, raw)
	for i := range out {
		item, ok := c.catalog.Find(strings.TrimSpace(out[i].Description))
		if !ok {
			continue
		}
		out[i].Description = item.Name
		if strings.TrimSpace(out[i].Unit) == "" {
			out[i].Unit = item.Unit
		}
	}
	return out
}

func (c *Controller) writeDocument(ref string, doc []byte) error {
	if err := os.MkdirAll(c.documentsDir, 0755); err != nil {
		return fmt.Errorf("create documents directory: %w", err)
	}
	path := filepath.Join(c.documentsDir, ref)
	if err := os.WriteFile(path, doc, 0644); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}
