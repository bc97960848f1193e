package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/checklist-api/internal/domain"
	"github.com/phrazzld/checklist-api/internal/events"
	"github.com/phrazzld/checklist-api/internal/mocks"
	"github.com/phrazzld/checklist-api/internal/service"
	"github.com/phrazzld/checklist-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEventsRouter(t *testing.T, hub *events.Hub, svc service.ChecklistService, heartbeat time.Duration) http.Handler {
	t.Helper()
	h := NewEventsHandler(hub, svc, heartbeat, testLogger(t))
	r := chi.NewRouter()
	r.Get("/checklists/{id}/events", h.Stream)
	return r
}

func TestEventsHandler_Stream(t *testing.T) {
	t.Parallel()

	checklist, tk, remark := sampleChecklist(t)
	hub := events.NewHub(8, testLogger(t))
	router := newEventsRouter(t, hub, &mocks.MockChecklistService{Checklist: checklist}, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/checklists/"+checklist.ID.String()+"/events", nil).WithContext(ctx)
	rr := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		router.ServeHTTP(rr, req)
	}()

	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, time.Second, 5*time.Millisecond)

	started := events.NewWorkflowEvent(events.EventExecutionStarted, checklist.ID, tk.ID, remark.ID).
		WithTag(&domain.WorkflowTag{Family: domain.FamilyAITodo, State: domain.StateRunning})
	other := events.NewWorkflowEvent(events.EventExecutionStarted, uuid.New(), uuid.New(), uuid.New())
	require.NoError(t, hub.HandleEvent(context.Background(), other))
	require.NoError(t, hub.HandleEvent(context.Background(), started))

	// Closing the hub ends the stream once the buffered event is written.
	hub.Close()
	select {
	case <-done:
	case <-time.After(time.Second):
		cancel()
		t.Fatal("stream did not end after the hub closed")
	}
	cancel()

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/event-stream", rr.Header().Get("Content-Type"))

	body := rr.Body.String()
	assert.Contains(t, body, "event: execution_started\n")
	assert.Contains(t, body, "id: "+started.ID.String()+"\n")
	assert.Contains(t, body, `"remark_id":"`+remark.ID.String()+`"`)
	assert.Contains(t, body, `"state":"running"`)
	assert.NotContains(t, body, other.ID.String())
	assert.Equal(t, 1, strings.Count(body, "event: "))
}

func TestEventsHandler_StreamEndsWithClient(t *testing.T) {
	t.Parallel()

	checklist, _, _ := sampleChecklist(t)
	hub := events.NewHub(8, testLogger(t))
	router := newEventsRouter(t, hub, &mocks.MockChecklistService{Checklist: checklist}, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/checklists/"+checklist.ID.String()+"/events", nil).WithContext(ctx)
	rr := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		router.ServeHTTP(rr, req)
	}()

	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stream did not end after the client went away")
	}

	assert.Zero(t, hub.Subscribers(), "the subscription is released")
	assert.Contains(t, rr.Body.String(), ": ping\n\n")
}

func TestEventsHandler_UnknownChecklist(t *testing.T) {
	t.Parallel()

	hub := events.NewHub(8, testLogger(t))
	svc := &mocks.MockChecklistService{DefaultError: store.ErrChecklistNotFound}
	router := newEventsRouter(t, hub, svc, 0)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/checklists/"+uuid.NewString()+"/events", nil))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Zero(t, hub.Subscribers())
}
