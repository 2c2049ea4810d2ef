package api

import (
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/dilovar-s/protokol/pkg/audit"
	"github.com/dilovar-s/protokol/pkg/files"
	"github.com/dilovar-s/protokol/pkg/httputil"
	"github.com/dilovar-s/protokol/pkg/middleware"
	"github.com/dilovar-s/protokol/pkg/transcribe"
)

// uploadAudio handles POST /api/audio/upload/{id}: stores the audio,
// transcribes it, and attaches both the file path and the transcript to
// the record in one step.
func (s *Server) uploadAudio(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadSize)

	file, header, ok := s.audioFormFile(w, r)
	if !ok {
		return
	}
	defer file.Close()

	rec, ok := s.loadAccessibleRecord(w, r)
	if !ok {
		return
	}

	name := files.UniqueName("audio", header.Filename)
	key := "uploads/" + name
	contentType := header.Header.Get("Content-Type")

	if err := s.opts.Blobs.Put(r.Context(), key, file, contentType); err != nil {
		s.log(r).WithError(err).Error("Audio upload failed")
		if s.opts.Metrics != nil {
			s.opts.Metrics.UploadsTotal.WithLabelValues("failure").Inc()
		}
		httputil.WriteMessage(w, http.StatusInternalServerError, "File upload failed")
		return
	}
	if s.opts.Metrics != nil {
		s.opts.Metrics.UploadsTotal.WithLabelValues("success").Inc()
		s.opts.Metrics.UploadSizeBytes.Observe(float64(header.Size))
	}

	// Put consumed the multipart file; rewind it for the transcriber
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		s.log(r).WithError(err).Error("Audio rewind failed")
		httputil.WriteInternalError(w)
		return
	}

	started := time.Now()
	result, err := s.opts.Transcriber.Transcribe(r.Context(), transcribe.Request{
		Audio:           file,
		Filename:        header.Filename,
		Language:        r.FormValue("language"),
		InterrogationID: rec.ID,
		Suspect:         rec.Suspect,
	})
	if err != nil {
		s.log(r).WithError(err).Error("Transcription failed")
		if s.opts.Metrics != nil {
			s.opts.Metrics.TranscriptionsTotal.WithLabelValues("failure").Inc()
		}
		httputil.WriteUpstreamError(w, "Transcription failed")
		return
	}
	if s.opts.Metrics != nil {
		s.opts.Metrics.TranscriptionsTotal.WithLabelValues("success").Inc()
		s.opts.Metrics.TranscriptionDuration.Observe(time.Since(started).Seconds())
	}

	rec.AudioFilePath = "/uploads/" + name
	rec.Transcript = result.Transcription
	if err := s.opts.Records.Update(r.Context(), rec); err != nil {
		s.log(r).WithError(err).Error("Record update failed")
		httputil.WriteInternalError(w)
		return
	}

	identity := middleware.GetIdentity(r)
	s.audit(r, &audit.Event{
		EventType:    audit.EventTypeDataFileUpload,
		Status:       audit.EventStatusSuccess,
		ActorID:      identity.UserID,
		ResourceType: audit.ResourceTypeFile,
		ResourceID:   key,
	})

	httputil.WriteSuccess(w, uploadAudioResponse{
		Message:       "Audio file uploaded and transcribed successfully",
		FilePath:      rec.AudioFilePath,
		Transcript:    rec.Transcript,
		Interrogation: rec,
	})
}

// transcribeAudio handles POST /api/audio/transcribe: a pass-through to
// the transcription backend without touching any record.
func (s *Server) transcribeAudio(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadSize)

	file, header, ok := s.audioFormFile(w, r)
	if !ok {
		return
	}
	defer file.Close()

	started := time.Now()
	result, err := s.opts.Transcriber.Transcribe(r.Context(), transcribe.Request{
		Audio:    file,
		Filename: header.Filename,
		Language: r.FormValue("language"),
	})
	if err != nil {
		s.log(r).WithError(err).Error("Transcription failed")
		if s.opts.Metrics != nil {
			s.opts.Metrics.TranscriptionsTotal.WithLabelValues("failure").Inc()
		}
		httputil.WriteUpstreamError(w, "Transcription failed")
		return
	}
	if s.opts.Metrics != nil {
		s.opts.Metrics.TranscriptionsTotal.WithLabelValues("success").Inc()
		s.opts.Metrics.TranscriptionDuration.Observe(time.Since(started).Seconds())
	}

	httputil.WriteSuccess(w, result)
}

// getAudio handles GET /api/audio/{filename}
func (s *Server) getAudio(w http.ResponseWriter, r *http.Request) {
	filename, ok := httputil.ParsePathStringOrError(w, r, "filename")
	if !ok {
		return
	}
	if strings.ContainsAny(filename, `/\`) {
		httputil.WriteNotFound(w, "File not found")
		return
	}

	obj, err := s.opts.Blobs.Get(r.Context(), "uploads/"+filename)
	if err != nil {
		if errors.Is(err, files.ErrNotFound) {
			httputil.WriteNotFound(w, "File not found")
			return
		}
		s.log(r).WithError(err).Error("File retrieval failed")
		httputil.WriteInternalError(w)
		return
	}
	defer obj.Close()

	contentType := mime.TypeByExtension(filepath.Ext(filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	if _, err := io.Copy(w, obj); err != nil {
		s.log(r).WithError(err).Warn("File streaming interrupted")
	}
}

// audioFormFile extracts and validates the "audio" multipart field,
// enforcing the audio-only MIME filter.
func (s *Server) audioFormFile(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, bool) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		httputil.WriteMessage(w, http.StatusInternalServerError, "File upload failed")
		return nil, nil, false
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		httputil.WriteValidationError(w, "No file uploaded")
		return nil, nil, false
	}

	if !files.IsAudio(header.Header.Get("Content-Type")) {
		file.Close()
		httputil.WriteValidationError(w, "Only audio files are allowed!")
		return nil, nil, false
	}

	return file, header, true
}
