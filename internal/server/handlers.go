package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/solarlist/solarlist/internal/export"
	"github.com/solarlist/solarlist/internal/models"
	"github.com/solarlist/solarlist/internal/render"
	"github.com/solarlist/solarlist/internal/share"
	"github.com/solarlist/solarlist/internal/storage"
	"github.com/solarlist/solarlist/internal/workflow"
)

// submitResponse is the shape of POST /api/v1/records on success. Document
// carries the rendered PDF (base64 in JSON).
type submitResponse struct {
	Record       *models.ListRecord `json:"record"`
	Document     []byte             `json:"document"`
	WhatsAppLink string             `json:"whatsapp_link"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var input models.SubmitInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("submit request",
		zap.String("client", input.ClientName),
		zap.Int("lines", len(input.Lines)))

	result, err := s.controller.Submit(r.Context(), input)
	if err != nil {
		var verr *workflow.ValidationError
		if errors.As(err, &verr) {
			s.respondJSON(w, http.StatusBadRequest, map[string]interface{}{"errors": verr})
			return
		}
		var serr *storage.StorageError
		if errors.As(err, &serr) {
			// Retryable: nothing was persisted.
			s.logger.Error("submit storage failure", zap.Error(err))
			s.respondError(w, http.StatusServiceUnavailable, "storage unavailable, retry the submission")
			return
		}
		s.logger.Error("submit failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, submitResponse{
		Record:       result.Record,
		Document:     result.Document,
		WhatsAppLink: result.WhatsAppLink,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	filter, err := historyFilterFromQuery(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	sums, err := s.controller.History(r.Context(), filter)
	if err != nil {
		s.logger.Error("history failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if sums == nil {
		sums = []*models.RecordSummary{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"records": sums})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	filter, err := historyFilterFromQuery(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	sums, err := s.controller.History(r.Context(), filter)
	if err != nil {
		s.logger.Error("export failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", export.XLSXContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="historico.xlsx"`)
	if err := export.WriteHistoryXLSX(w, sums); err != nil {
		s.logger.Error("export write failed", zap.Error(err))
	}
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	id, err := recordID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid record id")
		return
	}
	rec, err := s.controller.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "record not found")
			return
		}
		s.logger.Error("get record failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, rec)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id, err := recordID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid record id")
		return
	}
	_, doc, err := s.controller.Fetch(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "record not found")
			return
		}
		s.logger.Error("fetch document failed", zap.Int64("record_id", id), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", render.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="lista_%d.pdf"`, id))
	_, _ = w.Write(doc)
}

func (s *Server) handleWhatsApp(w http.ResponseWriter, r *http.Request) {
	id, err := recordID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid record id")
		return
	}
	rec, err := s.controller.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "record not found")
			return
		}
		s.logger.Error("whatsapp link failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	http.Redirect(w, r, share.WhatsAppLink(rec), http.StatusFound)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := recordID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid record id")
		return
	}
	s.logger.Debug("delete record request", zap.Int64("record_id", id))
	if err := s.controller.Delete(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "record not found")
			return
		}
		s.logger.Error("delete failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"categories": s.catalog.Categories()})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	count, err := s.storage.CountRecords(r.Context())
	if err != nil {
		s.logger.Error("status: count records failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]interface{}{
		"records": count,
		"config": map[string]interface{}{
			"database_path": s.config.Storage.DatabasePath,
			"documents_dir": s.config.Storage.DocumentsDir,
			"company_name":  s.config.Branding.CompanyName,
		},
	}
	diskBytes, err := storage.DiskUsageBytes(s.config.Storage.DatabasePath, s.config.Storage.DocumentsDir)
	if err == nil {
		resp["disk_usage_bytes"] = diskBytes
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func recordID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// historyFilterFromQuery parses client, from, and to query parameters.
// Dates accept RFC 3339 or plain YYYY-MM-DD.
func historyFilterFromQuery(r *http.Request) (models.HistoryFilter, error) {
	var f models.HistoryFilter
	f.Client = r.URL.Query().Get("client")
	if v := r.URL.Query().Get("from"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			return f, fmt.Errorf("invalid from date: %s", v)
		}
		f.From = t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			return f, fmt.Errorf("invalid to date: %s", v)
		}
		// A bare date as upper bound means end of that day.
		if len(v) == len("2006-01-02") {
			t = t.Add(24*time.Hour - time.Second)
		}
		f.To = t
	}
	return f, nil
}

func parseDate(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", v)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
