package api

import (
	"errors"
	"net/http"

	"github.com/dilovar-s/protokol/pkg/audit"
	"github.com/dilovar-s/protokol/pkg/auth"
	"github.com/dilovar-s/protokol/pkg/httputil"
	"github.com/dilovar-s/protokol/pkg/middleware"
	"github.com/dilovar-s/protokol/pkg/store"
)

// listInterrogations handles GET /api/interrogations. Admins see every
// record; investigators only their own. The filter is part of the store
// query, never applied after the fact.
func (s *Server) listInterrogations(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r)

	var (
		records []*store.Interrogation
		err     error
	)
	if identity.IsAdmin() {
		records, err = s.opts.Records.List(r.Context())
	} else {
		records, err = s.opts.Records.ListByOwner(r.Context(), identity.UserID)
	}
	if err != nil {
		s.log(r).WithError(err).Error("Record listing failed")
		httputil.WriteInternalError(w)
		return
	}

	if records == nil {
		records = []*store.Interrogation{}
	}
	httputil.WriteSuccess(w, records)
}

// getInterrogation handles GET /api/interrogations/{id}
func (s *Server) getInterrogation(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.loadAccessibleRecord(w, r)
	if !ok {
		return
	}
	httputil.WriteSuccess(w, rec)
}

// createInterrogation handles POST /api/interrogations
func (s *Server) createInterrogation(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r)

	var req CreateInterrogationRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Title == "" || req.Date == "" || req.Suspect == "" || req.Officer == "" {
		httputil.WriteValidationError(w, "Missing required fields")
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		httputil.WriteValidationError(w, "Invalid date format")
		return
	}

	rec := &store.Interrogation{
		Title:      req.Title,
		Date:       date,
		Suspect:    req.Suspect,
		Officer:    req.Officer,
		Transcript: req.Transcript,
		CreatedBy:  store.Owner{ID: identity.UserID},
	}
	if err := s.opts.Records.Create(r.Context(), rec); err != nil {
		s.log(r).WithError(err).Error("Record creation failed")
		httputil.WriteInternalError(w)
		return
	}

	s.audit(r, &audit.Event{
		EventType:    audit.EventTypeDataRecordCreate,
		Status:       audit.EventStatusSuccess,
		ActorID:      identity.UserID,
		ResourceType: audit.ResourceTypeInterrogation,
		ResourceID:   rec.ID,
	})

	httputil.WriteCreated(w, rec)
}

// updateInterrogation handles PUT /api/interrogations/{id}
func (s *Server) updateInterrogation(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.loadAccessibleRecord(w, r)
	if !ok {
		return
	}

	var req UpdateInterrogationRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	if req.Title != nil {
		rec.Title = *req.Title
	}
	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			httputil.WriteValidationError(w, "Invalid date format")
			return
		}
		rec.Date = date
	}
	if req.Suspect != nil {
		rec.Suspect = *req.Suspect
	}
	if req.Officer != nil {
		rec.Officer = *req.Officer
	}
	if req.Transcript != nil {
		rec.Transcript = *req.Transcript
	}
	if req.AudioFilePath != nil {
		rec.AudioFilePath = *req.AudioFilePath
	}
	if req.WordDocumentPath != nil {
		rec.WordDocumentPath = *req.WordDocumentPath
	}

	if err := s.opts.Records.Update(r.Context(), rec); err != nil {
		s.log(r).WithError(err).Error("Record update failed")
		httputil.WriteInternalError(w)
		return
	}

	identity := middleware.GetIdentity(r)
	s.audit(r, &audit.Event{
		EventType:    audit.EventTypeDataRecordUpdate,
		Status:       audit.EventStatusSuccess,
		ActorID:      identity.UserID,
		ResourceType: audit.ResourceTypeInterrogation,
		ResourceID:   rec.ID,
	})

	httputil.WriteSuccess(w, rec)
}

// deleteInterrogation handles DELETE /api/interrogations/{id}
func (s *Server) deleteInterrogation(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.loadAccessibleRecord(w, r)
	if !ok {
		return
	}

	if err := s.opts.Records.Delete(r.Context(), rec.ID); err != nil {
		s.log(r).WithError(err).Error("Record deletion failed")
		httputil.WriteInternalError(w)
		return
	}

	identity := middleware.GetIdentity(r)
	s.audit(r, &audit.Event{
		EventType:    audit.EventTypeDataRecordDelete,
		Status:       audit.EventStatusSuccess,
		ActorID:      identity.UserID,
		ResourceType: audit.ResourceTypeInterrogation,
		ResourceID:   rec.ID,
	})

	httputil.WriteMessage(w, http.StatusOK, "Interrogation deleted successfully")
}

// listInterrogationsByUser handles GET /api/interrogations/user/{userId}.
// Investigators may only query themselves; admins may query anyone.
func (s *Server) listInterrogationsByUser(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r)
	targetID, ok := httputil.ParsePathStringOrError(w, r, "userId")
	if !ok {
		return
	}

	if !identity.IsAdmin() && identity.UserID != targetID {
		s.accessDenied(w, r, audit.ResourceTypeUser, targetID)
		return
	}

	if _, err := s.opts.Users.GetByID(r.Context(), targetID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.WriteNotFound(w, "User not found")
			return
		}
		s.log(r).WithError(err).Error("User lookup failed")
		httputil.WriteInternalError(w)
		return
	}

	records, err := s.opts.Records.ListByOwner(r.Context(), targetID)
	if err != nil {
		s.log(r).WithError(err).Error("Record listing failed")
		httputil.WriteInternalError(w)
		return
	}

	if records == nil {
		records = []*store.Interrogation{}
	}
	httputil.WriteSuccess(w, records)
}

// loadAccessibleRecord fetches the record named by the {id} path variable
// and enforces the ownership rule: admins reach everything, investigators
// only records they created. Existence is checked before ownership, so a
// missing ID is a 404 for any authenticated caller.
func (s *Server) loadAccessibleRecord(w http.ResponseWriter, r *http.Request) (*store.Interrogation, bool) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return nil, false
	}

	rec, err := s.opts.Records.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.WriteNotFound(w, "Interrogation not found")
			return nil, false
		}
		s.log(r).WithError(err).Error("Record lookup failed")
		httputil.WriteInternalError(w)
		return nil, false
	}

	identity := middleware.GetIdentity(r)
	if !auth.CanAccess(identity, rec.CreatedBy.ID) {
		s.accessDenied(w, r, audit.ResourceTypeInterrogation, rec.ID)
		return nil, false
	}
	return rec, true
}

// accessDenied reports a 403 and leaves an audit trail entry
func (s *Server) accessDenied(w http.ResponseWriter, r *http.Request, resource audit.ResourceType, resourceID string) {
	identity := middleware.GetIdentity(r)
	if s.opts.Metrics != nil {
		s.opts.Metrics.AccessDeniedTotal.WithLabelValues(string(resource)).Inc()
	}
	s.audit(r, &audit.Event{
		EventType:    audit.EventTypeAuthzAccessDenied,
		Status:       audit.EventStatusDenied,
		ActorID:      identity.UserID,
		ResourceType: resource,
		ResourceID:   resourceID,
	})
	httputil.WriteForbidden(w, "Access denied")
}
