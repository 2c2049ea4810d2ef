package audit

import (
	"time"
)

// EventType represents the category of audit event
type EventType string

const (
	// Authentication events
	EventTypeAuthLogin       EventType = "auth.login"
	EventTypeAuthLoginFailed EventType = "auth.login_failed"
	EventTypeAuthRegister    EventType = "auth.register"

	// Authorization events
	EventTypeAuthzAccessDenied EventType = "authz.access_denied"

	// Data mutation events
	EventTypeDataRecordCreate EventType = "data.record_create"
	EventTypeDataRecordUpdate EventType = "data.record_update"
	EventTypeDataRecordDelete EventType = "data.record_delete"
	EventTypeDataFileUpload   EventType = "data.file_upload"
	EventTypeDataDocGenerate  EventType = "data.document_generate"

	// Admin events
	EventTypeAdminUserCreate EventType = "admin.user_create"
	EventTypeAdminUserUpdate EventType = "admin.user_update"
	EventTypeAdminUserDelete EventType = "admin.user_delete"
)

// EventStatus represents the outcome of an event
type EventStatus string

const (
	EventStatusSuccess EventStatus = "success"
	EventStatusFailure EventStatus = "failure"
	EventStatusDenied  EventStatus = "denied"
)

// ResourceType represents the type of resource being accessed
type ResourceType string

const (
	ResourceTypeUser          ResourceType = "user"
	ResourceTypeInterrogation ResourceType = "interrogation"
	ResourceTypeFile          ResourceType = "file"
	ResourceTypeDocument      ResourceType = "document"
)

// Event is a single audit trail entry
type Event struct {
	ID        string      `json:"id"`
	EventType EventType   `json:"event_type"`
	Status    EventStatus `json:"status"`

	// ActorID is empty for unauthenticated events such as failed logins
	ActorID string `json:"actor_id,omitempty"`

	ResourceType ResourceType `json:"resource_type,omitempty"`
	ResourceID   string       `json:"resource_id,omitempty"`

	IPAddress string `json:"ip_address,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	Detail    string `json:"detail,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
