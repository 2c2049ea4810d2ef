package audit

import (
	"context"
	"database/sql"
	"net/http/httptest"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dilovar-s/protokol/pkg/contextkeys"
	"github.com/dilovar-s/protokol/pkg/store"
)

func newTestLogger(t *testing.T) *DBLogger {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, store.Migrate(context.Background(), db))

	logger, err := NewDBLogger(db)
	require.NoError(t, err)
	return logger
}

func TestDBLoggerLogAndRecent(t *testing.T) {
	logger := newTestLogger(t)
	ctx := context.Background()

	err := logger.Log(ctx, &Event{
		EventType:    EventTypeAuthLogin,
		Status:       EventStatusSuccess,
		ActorID:      "u1",
		ResourceType: ResourceTypeUser,
		ResourceID:   "u1",
		IPAddress:    "1.2.3.4",
	})
	require.NoError(t, err)

	err = logger.Log(ctx, &Event{
		EventType: EventTypeAuthzAccessDenied,
		Status:    EventStatusDenied,
		ActorID:   "u2",
		Detail:    "interrogation owned by another user",
	})
	require.NoError(t, err)

	events, err := logger.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)

	// newest first
	assert.Equal(t, EventTypeAuthzAccessDenied, events[0].EventType)
	assert.Equal(t, EventTypeAuthLogin, events[1].EventType)
	assert.NotEmpty(t, events[0].ID)
	assert.False(t, events[0].CreatedAt.IsZero())
}

func TestDBLoggerRejectsIncompleteEvents(t *testing.T) {
	logger := newTestLogger(t)

	err := logger.Log(context.Background(), &Event{Status: EventStatusSuccess})
	assert.Error(t, err)

	err = logger.Log(context.Background(), &Event{EventType: EventTypeAuthLogin})
	assert.Error(t, err)
}

func TestFromRequest(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/auth/login", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	req = req.WithContext(contextkeys.WithRequestID(req.Context(), "req-7"))

	event := FromRequest(req, &Event{EventType: EventTypeAuthLogin, Status: EventStatusSuccess})
	assert.Equal(t, "10.0.0.1", event.IPAddress)
	assert.Equal(t, "req-7", event.RequestID)
}
