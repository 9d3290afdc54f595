package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencommune/mairie-api/internal/service"
)

func newDoleanceTestRouter(t *testing.T) (*gin.Engine, *service.TestSetup) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ts, err := service.NewTestSetup()
	require.NoError(t, err)

	handler := NewDoleanceHandler(ts.NewDoleanceService(), ts.Logger)

	router := gin.New()
	router.PUT("/api/v1/doleances/:id", handler.UpdateDoleance)
	return router, ts
}

func TestUpdateDoleance_PersistenceFailureHidesInternalDetail(t *testing.T) {
	router, ts := newDoleanceTestRouter(t)

	ts.Mock.ExpectBegin().
		WillReturnError(errors.New("dial tcp 127.0.0.1:3306: connect: connection refused"))

	req := httptest.NewRequest(http.MethodPut, "/api/v1/doleances/1",
		bytes.NewBufferString(`{"status":"closed"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"INTERNAL_ERROR"`)
	assert.Contains(t, w.Body.String(), "An internal error occurred")
	assert.NotContains(t, w.Body.String(), "connection refused")
	assert.NotContains(t, w.Body.String(), "transaction")
}

func TestUpdateDoleance_ValidationErrorKeepsDetail(t *testing.T) {
	router, _ := newDoleanceTestRouter(t)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/doleances/1",
		bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "no updatable field")
}
