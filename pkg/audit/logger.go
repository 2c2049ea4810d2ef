// Package audit records who did what to which record.
//
// Every security-relevant action (logins, denials, record and user
// mutations, uploads, document generation) is written to the
// audit_events table. Logging failures are reported to the caller but
// must never fail the request that triggered them.
package audit

import (
	"context"
	"net/http"

	"github.com/dilovar-s/protokol/pkg/contextkeys"
	"github.com/dilovar-s/protokol/pkg/httputil"
)

// Logger records audit events
type Logger interface {
	Log(ctx context.Context, event *Event) error
}

// NopLogger discards events (used in tests)
type NopLogger struct{}

func (NopLogger) Log(context.Context, *Event) error { return nil }

// FromRequest fills in request context on an event
func FromRequest(r *http.Request, event *Event) *Event {
	event.IPAddress = httputil.ClientIP(r)
	event.RequestID = contextkeys.GetRequestID(r.Context())
	return event
}
