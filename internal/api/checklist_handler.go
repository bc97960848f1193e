package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/checklist-api/internal/api/shared"
	"github.com/phrazzld/checklist-api/internal/domain"
	"github.com/phrazzld/checklist-api/internal/service"
)

// markdownContentType is served for exports and accepted for imports.
const markdownContentType = "text/markdown; charset=utf-8"

// ChecklistHandler handles checklist, task and remark requests.
type ChecklistHandler struct {
	service service.ChecklistService
	logger  *slog.Logger
}

// NewChecklistHandler creates a new ChecklistHandler.
func NewChecklistHandler(checklistService service.ChecklistService, logger *slog.Logger) *ChecklistHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChecklistHandler{
		service: checklistService,
		logger:  logger.With(slog.String("component", "checklist_handler")),
	}
}

// Routes registers the checklist routes on r, relative to /checklists.
func (h *ChecklistHandler) Routes(r chi.Router) {
	r.Get("/", h.ListChecklists)
	r.Post("/", h.CreateChecklist)
	r.Post("/import", h.ImportMarkdown)

	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.GetChecklist)
		r.Delete("/", h.DeleteChecklist)
		r.Get("/markdown", h.ExportMarkdown)
		r.Post("/tasks", h.AddTask)

		r.Route("/tasks/{taskID}", func(r chi.Router) {
			r.Patch("/toggle", h.ToggleTask)
			r.Delete("/", h.DeleteTask)
			r.Get("/thread", h.Thread)
			r.Post("/remarks", h.AddRemark)
			r.Delete("/remarks/{remarkID}", h.DeleteRemark)
			r.Post("/remarks/{remarkID}/enqueue", h.EnqueueTodo)
			r.Post("/remarks/{remarkID}/prompt-executions", h.RequestPromptExecution)
		})
	})
}

// ListChecklists handles GET /checklists.
func (h *ChecklistHandler) ListChecklists(w http.ResponseWriter, r *http.Request) {
	checklists, err := h.service.ListChecklists(r.Context())
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	out := make([]ChecklistSummaryResponse, len(checklists))
	for i, c := range checklists {
		out[i] = checklistToSummary(c)
	}
	shared.RespondWithJSON(w, r, http.StatusOK, out)
}

// CreateChecklist handles POST /checklists.
func (h *ChecklistHandler) CreateChecklist(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r, h.logger)

	var req CreateChecklistRequest
	if !decodeAndValidate(w, r, log, &req) {
		return
	}

	checklist, err := h.service.CreateChecklist(r.Context(), req.Name)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	log.Debug("checklist created", slog.String("checklist_id", checklist.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, checklistToResponse(checklist))
}

// ImportMarkdown handles POST /checklists/import. The body is the markdown
// document itself.
func (h *ChecklistHandler) ImportMarkdown(w http.ResponseWriter, r *http.Request) {
	text, err := shared.ReadText(r)
	if err != nil {
		if errors.Is(err, shared.ErrEmptyBody) {
			HandleAPIError(w, r, err)
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusRequestEntityTooLarge, "Document too large", err)
		return
	}

	checklist, err := h.service.ImportMarkdown(r.Context(), text)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, checklistToResponse(checklist))
}

// GetChecklist handles GET /checklists/{id}.
func (h *ChecklistHandler) GetChecklist(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathUUIDs(w, r, requestLogger(r, h.logger), paramChecklistID)
	if !ok {
		return
	}

	checklist, err := h.service.GetChecklist(r.Context(), ids[0])
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, checklistToResponse(checklist))
}

// DeleteChecklist handles DELETE /checklists/{id}.
func (h *ChecklistHandler) DeleteChecklist(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathUUIDs(w, r, requestLogger(r, h.logger), paramChecklistID)
	if !ok {
		return
	}

	if err := h.service.DeleteChecklist(r.Context(), ids[0]); err != nil {
		HandleAPIError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportMarkdown handles GET /checklists/{id}/markdown.
func (h *ChecklistHandler) ExportMarkdown(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathUUIDs(w, r, requestLogger(r, h.logger), paramChecklistID)
	if !ok {
		return
	}

	text, err := h.service.ExportMarkdown(r.Context(), ids[0])
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithText(w, r, http.StatusOK, markdownContentType, text)
}

// AddTask handles POST /checklists/{id}/tasks.
func (h *ChecklistHandler) AddTask(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r, h.logger)
	ids, ok := pathUUIDs(w, r, log, paramChecklistID)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if !decodeAndValidate(w, r, log, &req) {
		return
	}

	input, err := req.toInput()
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	t, err := h.service.AddTask(r.Context(), ids[0], input)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, taskToResponse(t))
}

// ToggleTask handles PATCH /checklists/{id}/tasks/{taskID}/toggle.
func (h *ChecklistHandler) ToggleTask(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathUUIDs(w, r, requestLogger(r, h.logger), paramChecklistID, paramTaskID)
	if !ok {
		return
	}

	t, err := h.service.ToggleTask(r.Context(), ids[0], ids[1])
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(t))
}

// DeleteTask handles DELETE /checklists/{id}/tasks/{taskID}.
func (h *ChecklistHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathUUIDs(w, r, requestLogger(r, h.logger), paramChecklistID, paramTaskID)
	if !ok {
		return
	}

	if err := h.service.DeleteTask(r.Context(), ids[0], ids[1]); err != nil {
		HandleAPIError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Thread handles GET /checklists/{id}/tasks/{taskID}/thread.
func (h *ChecklistHandler) Thread(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathUUIDs(w, r, requestLogger(r, h.logger), paramChecklistID, paramTaskID)
	if !ok {
		return
	}

	entries, err := h.service.Thread(r.Context(), ids[0], ids[1])
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, threadToResponse(entries))
}

// AddRemark handles POST /checklists/{id}/tasks/{taskID}/remarks.
func (h *ChecklistHandler) AddRemark(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r, h.logger)
	ids, ok := pathUUIDs(w, r, log, paramChecklistID, paramTaskID)
	if !ok {
		return
	}

	var req AddRemarkRequest
	if !decodeAndValidate(w, r, log, &req) {
		return
	}

	input := service.RemarkInput{Text: req.Text, AITodo: req.AITodo}
	if req.ParentID != "" {
		parent, err := uuid.Parse(req.ParentID)
		if err != nil {
			HandleAPIError(w, r, errors.Join(domain.ErrInvalidID, err))
			return
		}
		input.ParentID = &parent
	}

	remark, err := h.service.AddRemark(r.Context(), ids[0], ids[1], input)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, remarkToResponse(remark))
}

// DeleteRemark handles DELETE /checklists/{id}/tasks/{taskID}/remarks/{remarkID}.
func (h *ChecklistHandler) DeleteRemark(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathUUIDs(w, r, requestLogger(r, h.logger), paramChecklistID, paramTaskID, paramRemarkID)
	if !ok {
		return
	}

	if err := h.service.DeleteRemark(r.Context(), ids[0], ids[1], ids[2]); err != nil {
		HandleAPIError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// EnqueueTodo handles POST /checklists/{id}/tasks/{taskID}/remarks/{remarkID}/enqueue.
func (h *ChecklistHandler) EnqueueTodo(w http.ResponseWriter, r *http.Request) {
	ids, ok := pathUUIDs(w, r, requestLogger(r, h.logger), paramChecklistID, paramTaskID, paramRemarkID)
	if !ok {
		return
	}

	remark, err := h.service.EnqueueTodo(r.Context(), ids[0], ids[1], ids[2])
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusAccepted, remarkToResponse(remark))
}

// RequestPromptExecution handles
// POST /checklists/{id}/tasks/{taskID}/remarks/{remarkID}/prompt-executions.
func (h *ChecklistHandler) RequestPromptExecution(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r, h.logger)
	ids, ok := pathUUIDs(w, r, log, paramChecklistID, paramTaskID, paramRemarkID)
	if !ok {
		return
	}

	var req PromptExecutionRequest
	if !decodeAndValidate(w, r, log, &req) {
		return
	}

	remark, err := h.service.RequestPromptExecution(r.Context(), ids[0], ids[1], ids[2], req.Prompt)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusAccepted, remarkToResponse(remark))
}

// QueueStatus handles GET /queue.
func (h *ChecklistHandler) QueueStatus(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, queueToResponse(h.service.QueueStatus(r.Context())))
}

func (req CreateTaskRequest) toInput() (service.TaskInput, error) {
	input := service.TaskInput{
		Description: strings.TrimSpace(req.Description),
		Assignee:    strings.TrimSpace(req.Assignee),
	}

	if req.Priority != "" {
		priority, err := domain.ParsePriority(req.Priority)
		if err != nil {
			return service.TaskInput{}, err
		}
		input.Priority = priority
	}

	if req.Due != "" {
		due, err := civil.ParseDate(req.Due)
		if err != nil {
			return service.TaskInput{}, errors.Join(domain.ErrInvalidFormat, domain.ErrInvalidDueDate, err)
		}
		input.Due = due
	}

	for _, a := range req.Attachments {
		input.Attachments = append(input.Attachments, domain.Attachment{Name: a.Name, Content: a.Content})
	}
	return input, nil
}
