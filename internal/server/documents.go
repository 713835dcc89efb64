package server

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ledgerline/billpipe/constants"
	"github.com/ledgerline/billpipe/internal/async"
	"github.com/ledgerline/billpipe/internal/common"
	"github.com/ledgerline/billpipe/internal/entity"
	"github.com/ledgerline/billpipe/internal/pipeline"
)

const maxUploadBytes = 32 << 20 // 32 MiB

// handleUpload accepts a multipart bill upload, persists the file and the
// document row, and queues the pipeline job.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.writeError(w, common.InvalidArgumentError("invalid multipart form"))
		return
	}

	category := strings.TrimSpace(r.FormValue("category"))
	paymentMethod := strings.TrimSpace(r.FormValue("payment_method"))
	dropName := strings.TrimSpace(r.FormValue("drop_name"))
	notes := strings.TrimSpace(r.FormValue("notes"))

	v := common.NewValidator().
		Field("category", category, common.Required, common.MaxLength(64)).
		Field("drop_name", dropName, common.Required, common.MaxLength(128)).
		Field("payment_method", paymentMethod, common.Required, common.NotUnspecified)
	if err := common.ValidateAndReturnError(v); err != nil {
		s.writeError(w, err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, common.InvalidArgumentError("file is required"))
		return
	}
	defer func() { _ = file.Close() }()

	ext := constants.NormalizeExt(filepath.Ext(header.Filename))
	if _, ok := constants.AllowedExtensions[ext]; !ok {
		s.writeError(w, common.InvalidArgumentErrorf("unsupported file extension %q", ext))
		return
	}

	docID := uuid.New()
	storagePath, size, err := s.saveUpload(docID, ext, file)
	if err != nil {
		s.writeError(w, common.InternalError("failed to store upload"))
		return
	}

	doc := &entity.Document{
		ID:            docID,
		FileName:      header.Filename,
		FileSize:      size,
		MediaType:     header.Header.Get("Content-Type"),
		StoragePath:   storagePath,
		Category:      category,
		PaymentMethod: paymentMethod,
		DropName:      dropName,
		Notes:         notes,
	}
	if err := s.docs.Create(r.Context(), doc); err != nil {
		s.writeError(w, err)
		return
	}

	_ = s.queue.Enqueue(r.Context(), async.Job{
		DocumentID:  doc.ID,
		SubmittedAt: time.Now(),
	})

	s.logger.Info("document uploaded",
		"document_id", doc.ID,
		"file_name", doc.FileName,
		"size", size,
		"category", category,
	)
	s.writeJSON(w, http.StatusAccepted, map[string]string{
		"id":     doc.ID.String(),
		"status": string(constants.DocStatusUploaded),
	})
}

func (s *Server) saveUpload(docID uuid.UUID, ext string, src io.Reader) (string, int64, error) {
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return "", 0, err
	}
	path := filepath.Join(s.uploadDir, docID.String()+"."+ext)
	dst, err := os.Create(path)
	if err != nil {
		return "", 0, err
	}
	defer func() { _ = dst.Close() }()

	n, err := io.Copy(dst, src)
	if err != nil {
		_ = os.Remove(path)
		return "", 0, err
	}
	return path, n, nil
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, common.InvalidArgumentError("id must be a UUID"))
		return
	}

	doc, err := s.docs.GetByID(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := map[string]any{"document": doc}
	if bill, err := s.bills.GetByDocumentID(r.Context(), id); err == nil {
		resp["bill"] = bill
		if sched, err := s.bills.GetSchedule(r.Context(), bill.ID); err == nil && len(sched) > 0 {
			resp["schedule"] = sched
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleManual(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, common.InvalidArgumentError("id must be a UUID"))
		return
	}

	var in pipeline.ManualInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.writeError(w, common.InvalidArgumentError("invalid JSON body"))
		return
	}

	bill, err := s.proc.ApplyManual(r.Context(), id, in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"bill": bill})
}

func (s *Server) handleReprocessOne(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, common.InvalidArgumentError("id must be a UUID"))
		return
	}
	if _, err := s.docs.GetByID(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}

	_ = s.queue.Enqueue(r.Context(), async.Job{
		DocumentID:  id,
		Force:       true,
		SubmittedAt: time.Now(),
	})
	s.writeJSON(w, http.StatusAccepted, map[string]string{"id": id.String(), "queued": "true"})
}

// handleReprocessBatch re-queues every document still needing review.
func (s *Server) handleReprocessBatch(w http.ResponseWriter, r *http.Request) {
	docs, err := s.docs.ListNeedingReview(r.Context(), 0)
	if err != nil {
		s.writeError(w, err)
		return
	}

	for _, doc := range docs {
		_ = s.queue.Enqueue(r.Context(), async.Job{
			DocumentID:  doc.ID,
			Force:       true,
			SubmittedAt: time.Now(),
		})
	}
	s.logger.Info("batch reprocess queued", "count", len(docs))
	s.writeJSON(w, http.StatusAccepted, map[string]int{"queued": len(docs)})
}

// handleItemPosting posts a bill line item to the ledger or reverts it.
// Posting is rejected until the item carries account, department and drop.
func (s *Server) handleItemPosting(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, common.InvalidArgumentError("id must be a UUID"))
		return
	}

	var in struct {
		Posted bool `json:"posted"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.writeError(w, common.InvalidArgumentError("invalid JSON body"))
		return
	}

	if err := s.bills.UpdateItemPosting(r.Context(), id, in.Posted); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"id": id.String(), "posted": in.Posted})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := s.exporter.ExportBillsXLSX(r.Context())
	if err != nil {
		s.writeError(w, common.InternalError("export failed"))
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="bills.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
