package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"jobdesk/internal/storage"
)

func newMockWorkerHandler(t *testing.T) (*WorkerHandler, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	db := storage.WrapDB(sqlx.NewDb(mockDB, "sqlmock"), zap.NewNop())
	return NewWorkerHandler(db, nil, nil, nil, zap.NewNop()), mock
}

func workerGetRequest(id string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/"+id, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestWorkerGetUnknownID(t *testing.T) {
	h, mock := newMockWorkerHandler(t)

	mock.ExpectQuery("SELECT \\* FROM worker_extras").
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id"}))

	rec := httptest.NewRecorder()
	h.Get(rec, workerGetRequest("99"))

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Worker not found", body["error"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkerGetInvalidID(t *testing.T) {
	h, _ := newMockWorkerHandler(t)

	rec := httptest.NewRecorder()
	h.Get(rec, workerGetRequest("abc"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
