package requests

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"siap/pkg/metadata"
	"siap/pkg/models"
	"siap/pkg/roles"
	"siap/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(s *Service, actor models.Actor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	group := router.Group("")
	group.Use(func(c *gin.Context) { security.SetActor(c, actor) })
	NewHandler(s).RegisterRoutes(group)
	return router
}

func perform(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	req, _ := http.NewRequest(method, path, bytes.NewBuffer(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandlerCreateAndSubmit(t *testing.T) {
	f := newFixture(t, true)
	router := setupRouter(f.service, requesterActor)

	w := perform(router, http.MethodPost, "/requests", map[string]interface{}{
		"request_type": "new",
		"items":        []map[string]interface{}{{"category_id": 3, "quantity": 2}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created models.AssetRequest
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "REQ-2026-000001", created.RequestNumber)

	w = perform(router, http.MethodPost, fmt.Sprintf("/requests/%d/submit", created.ID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, metadata.RequestPendingApproval, f.store.Request(created.ID).Status)

	w = perform(router, http.MethodPost, fmt.Sprintf("/requests/%d/submit", created.ID), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestHandlerSubmitWithoutApproverConflicts(t *testing.T) {
	f := newFixture(t, false)
	request := f.newRequest(t, laptops(1)...)
	router := setupRouter(f.service, requesterActor)

	w := perform(router, http.MethodPost, fmt.Sprintf("/requests/%d/submit", request.ID), nil)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, metadata.RequestDraft, f.store.Request(request.ID).Status)
}

func TestHandlerDecisionsRequireManager(t *testing.T) {
	f := newFixture(t, true)
	request := f.newRequest(t, laptops(1)...)
	router := setupRouter(f.service, requesterActor)

	w := perform(router, http.MethodPost, fmt.Sprintf("/requests/%d/approve", request.ID), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHandlerRejectNeedsReason(t *testing.T) {
	f := newFixture(t, true)
	request := f.newRequest(t, laptops(1)...)
	submitted, err := f.service.Submit(context.Background(), requesterActor, request.ID)
	require.NoError(t, err)

	approver := models.Actor{UserID: submitted.Approvals[0].ApproverID, Role: roles.Manager}
	router := setupRouter(f.service, approver)
	path := fmt.Sprintf("/requests/%d/reject", request.ID)

	w := perform(router, http.MethodPost, path, map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = perform(router, http.MethodPost, path, map[string]interface{}{"reason": "Budget exceeded"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, metadata.RequestRejected, f.store.Request(request.ID).Status)
}
