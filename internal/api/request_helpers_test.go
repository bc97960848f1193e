package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/checklist-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requestWithParams(params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestGetPathUUID(t *testing.T) {
	t.Parallel()

	id := uuid.New()

	tests := []struct {
		name    string
		params  map[string]string
		want    uuid.UUID
		wantErr error
	}{
		{name: "valid", params: map[string]string{"id": id.String()}, want: id},
		{name: "missing", params: map[string]string{}, wantErr: domain.ErrValidation},
		{name: "malformed", params: map[string]string{"id": "not-a-uuid"}, wantErr: domain.ErrInvalidID},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := getPathUUID(requestWithParams(tc.params), "id")
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Equal(t, uuid.Nil, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestPathUUIDs(t *testing.T) {
	t.Parallel()

	checklistID, taskID := uuid.New(), uuid.New()

	rr := httptest.NewRecorder()
	ids, ok := pathUUIDs(rr, requestWithParams(map[string]string{
		paramChecklistID: checklistID.String(),
		paramTaskID:      taskID.String(),
	}), testLogger(t), paramChecklistID, paramTaskID)
	require.True(t, ok)
	assert.Equal(t, []uuid.UUID{checklistID, taskID}, ids)

	rr = httptest.NewRecorder()
	_, ok = pathUUIDs(rr, requestWithParams(map[string]string{
		paramChecklistID: checklistID.String(),
		paramTaskID:      "nope",
	}), testLogger(t), paramChecklistID, paramTaskID)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
