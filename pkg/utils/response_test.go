package utils

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobdesk/pkg/apperr"
)

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) JSONResponse {
	t.Helper()
	var resp JSONResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestWriteSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccess(rec, map[string]string{"status": "ok"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)
	assert.Empty(t, resp.Error)
}

func TestWriteCreated(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteCreated(rec, map[string]int{"pk": 1})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, decodeResponse(t, rec).Success)
}

func TestWriteAppError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"validation maps to 400", apperr.New(apperr.Validation, "content is empty"), http.StatusBadRequest, "content is empty"},
		{"not found maps to 404", apperr.New(apperr.NotFound, "no such vacancy"), http.StatusNotFound, "no such vacancy"},
		{"forbidden maps to 403", apperr.New(apperr.Forbidden, "not an owner"), http.StatusForbidden, "not an owner"},
		{"conflict maps to 409", apperr.New(apperr.Conflict, "already responded"), http.StatusConflict, "already responded"},
		{"internal hides details", apperr.Wrap(apperr.Internal, errors.New("pq: boom"), "query failed"), http.StatusInternalServerError, "Internal server error"},
		{"untyped hides details", errors.New("pq: boom"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteAppError(rec, tt.err)

			assert.Equal(t, tt.status, rec.Code)

			resp := decodeResponse(t, rec)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.message, resp.Error)
		})
	}
}

func TestBindJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"name":"go"}`))
	var p payload
	require.NoError(t, BindJSON(req, &p))
	assert.Equal(t, "go", p.Name)

	req = httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{broken`))
	assert.Error(t, BindJSON(req, &p))
}

func TestGetQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?page=3&bad=x", nil)

	assert.Equal(t, 3, GetQueryInt(req, "page", 0))
	assert.Equal(t, 7, GetQueryInt(req, "bad", 7))
	assert.Equal(t, 7, GetQueryInt(req, "missing", 7))
}
