package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/checklist-api/internal/api/shared"
	"github.com/phrazzld/checklist-api/internal/events"
	"github.com/phrazzld/checklist-api/internal/service"
)

// DefaultHeartbeat is how often an idle event stream sends a comment line.
const DefaultHeartbeat = 25 * time.Second

// Subscriber is the part of the event hub the stream handler needs.
type Subscriber interface {
	Subscribe(checklistID uuid.UUID) (<-chan *events.WorkflowEvent, func())
}

// EventsHandler streams workflow events as server-sent events.
type EventsHandler struct {
	hub       Subscriber
	service   service.ChecklistService
	heartbeat time.Duration
	logger    *slog.Logger
}

// NewEventsHandler creates an EventsHandler. A non-positive heartbeat uses
// DefaultHeartbeat.
func NewEventsHandler(
	hub Subscriber,
	checklistService service.ChecklistService,
	heartbeat time.Duration,
	logger *slog.Logger,
) *EventsHandler {
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeat
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EventsHandler{
		hub:       hub,
		service:   checklistService,
		heartbeat: heartbeat,
		logger:    logger.With(slog.String("component", "events_handler")),
	}
}

// Stream handles GET /checklists/{id}/events. It writes one SSE frame per
// workflow event of the checklist until the client goes away or the hub
// closes.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r, h.logger)
	ids, ok := pathUUIDs(w, r, log, paramChecklistID)
	if !ok {
		return
	}
	checklistID := ids[0]

	flusher, ok := w.(http.Flusher)
	if !ok {
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	if _, err := h.service.GetChecklist(r.Context(), checklistID); err != nil {
		HandleAPIError(w, r, err)
		return
	}

	stream, unsubscribe := h.hub.Subscribe(checklistID)
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	log.Debug("event stream opened", slog.String("checklist_id", checklistID.String()))
	defer log.Debug("event stream closed", slog.String("checklist_id", checklistID.String()))

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case event, open := <-stream:
			if !open {
				return
			}
			if err := writeEvent(w, event); err != nil {
				log.Debug("failed to write event", slog.String("error", err.Error()))
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, event *events.WorkflowEvent) error {
	data, err := event.MarshalData()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", event.ID, event.Type, data)
	return err
}
