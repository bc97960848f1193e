package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/checklist-api/internal/api/shared"
	"github.com/phrazzld/checklist-api/internal/domain"
	"github.com/phrazzld/checklist-api/internal/platform/logger"
	"github.com/phrazzld/checklist-api/internal/redact"
)

// Path parameter names used by the checklist routes.
const (
	paramChecklistID = "id"
	paramTaskID      = "taskID"
	paramRemarkID    = "remarkID"
)

// getPathUUID extracts a UUID from the URL path parameters.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return uuid.Nil, fmt.Errorf("%w: %s is required", domain.ErrValidation, paramName)
	}

	id, err := uuid.Parse(pathParam)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s has invalid format", domain.ErrInvalidID, paramName)
	}

	return id, nil
}

// pathUUIDs extracts every named path UUID in order. It writes a 400 response
// and returns false when any of them is missing or malformed.
func pathUUIDs(w http.ResponseWriter, r *http.Request, log *slog.Logger, names ...string) ([]uuid.UUID, bool) {
	ids := make([]uuid.UUID, len(names))
	for i, name := range names {
		id, err := getPathUUID(r, name)
		if err != nil {
			log.Debug("invalid path parameter",
				slog.String("param_name", name),
				slog.String("value", chi.URLParam(r, name)))
			shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid "+name, err)
			return nil, false
		}
		ids[i] = id
	}
	return ids, true
}

// decodeAndValidate reads a JSON body into req and validates it. It writes a
// 400 response and returns false on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, log *slog.Logger, req interface{}) bool {
	if err := shared.DecodeJSON(r, req); err != nil {
		log.Debug("invalid request format", slog.String("error", redact.Error(err)))
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return false
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return false
	}
	return true
}

func requestLogger(r *http.Request, fallback *slog.Logger) *slog.Logger {
	return logger.FromContextOr(r.Context(), fallback)
}
