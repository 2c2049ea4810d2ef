package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dilovar-s/protokol/pkg/audit"
	"github.com/dilovar-s/protokol/pkg/docgen"
	"github.com/dilovar-s/protokol/pkg/files"
	"github.com/dilovar-s/protokol/pkg/httputil"
	"github.com/dilovar-s/protokol/pkg/middleware"
)

// generateDocument handles POST /api/documents/generate/{id}: renders
// the record as a Word document, stores it, and saves the path on the
// record.
func (s *Server) generateDocument(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.loadAccessibleRecord(w, r)
	if !ok {
		return
	}

	data, err := docgen.GenerateDocx(rec)
	if err != nil {
		s.log(r).WithError(err).Error("Document generation failed")
		if s.opts.Metrics != nil {
			s.opts.Metrics.DocumentsGeneratedTotal.WithLabelValues("docx", "failure").Inc()
		}
		httputil.WriteMessage(w, http.StatusInternalServerError, "Failed to generate document")
		return
	}

	filename := docgen.DocxFilename(rec.ID)
	key := "documents/" + filename
	if err := s.opts.Blobs.Put(r.Context(), key, bytes.NewReader(data), docgen.ContentTypeDocx); err != nil {
		s.log(r).WithError(err).Error("Document storage failed")
		if s.opts.Metrics != nil {
			s.opts.Metrics.DocumentsGeneratedTotal.WithLabelValues("docx", "failure").Inc()
		}
		httputil.WriteMessage(w, http.StatusInternalServerError, "Failed to generate document")
		return
	}
	if s.opts.Metrics != nil {
		s.opts.Metrics.DocumentsGeneratedTotal.WithLabelValues("docx", "success").Inc()
		s.opts.Metrics.DocumentSizeBytes.Observe(float64(len(data)))
	}

	rec.WordDocumentPath = "/documents/" + filename
	if err := s.opts.Records.Update(r.Context(), rec); err != nil {
		s.log(r).WithError(err).Error("Record update failed")
		httputil.WriteInternalError(w)
		return
	}

	identity := middleware.GetIdentity(r)
	s.audit(r, &audit.Event{
		EventType:    audit.EventTypeDataDocGenerate,
		Status:       audit.EventStatusSuccess,
		ActorID:      identity.UserID,
		ResourceType: audit.ResourceTypeDocument,
		ResourceID:   key,
	})

	httputil.WriteSuccess(w, generateDocumentResponse{
		Message:       "Document generated successfully",
		DocumentPath:  rec.WordDocumentPath,
		Filename:      filename,
		Interrogation: rec,
	})
}

// downloadDocument handles GET /api/documents/download/{filename}. The
// route is intentionally unauthenticated so generated links open
// directly in a browser.
func (s *Server) downloadDocument(w http.ResponseWriter, r *http.Request) {
	filename, ok := httputil.ParsePathStringOrError(w, r, "filename")
	if !ok {
		return
	}
	if strings.ContainsAny(filename, `/\`) {
		httputil.WriteNotFound(w, "Document not found")
		return
	}

	obj, err := s.opts.Blobs.Get(r.Context(), "documents/"+filename)
	if err != nil {
		if errors.Is(err, files.ErrNotFound) {
			httputil.WriteNotFound(w, "Document not found")
			return
		}
		s.log(r).WithError(err).Error("Document retrieval failed")
		httputil.WriteInternalError(w)
		return
	}
	defer obj.Close()

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Type", docgen.ContentTypeDocx)
	if _, err := io.Copy(w, obj); err != nil {
		s.log(r).WithError(err).Warn("Document streaming interrupted")
	}
}
