package handler

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pesio-ai/be-md-governance/internal/pkg/logger"
	"github.com/pesio-ai/be-md-governance/internal/repository"
	"github.com/pesio-ai/be-md-governance/internal/service"
)

type nopExecutor struct{ calls int }

func (e *nopExecutor) Execute(context.Context, repository.ChangeType, repository.ChangeKind, map[string]any) error {
	e.calls++
	return nil
}

func setupRouter(t *testing.T) (*gin.Engine, *nopExecutor) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	exec := &nopExecutor{}
	svc := service.NewWorkflowService(repository.NewMemoryRequestStore(), service.NewLocalLocker(), exec, nil, logger.Nop())
	h := NewHTTPHandler(svc, service.NewAddressNormalizer(nil), logger.Nop())

	r := gin.New()
	h.RegisterRoutes(r.Group("/api/v1"))
	return r, exec
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func propose(t *testing.T, r http.Handler) *repository.WorkflowRequest {
	t.Helper()
	w := do(t, r, http.MethodPost, "/api/v1/requests", map[string]any{
		"changeType":  "VEHICLE_CREATE",
		"title":       "Add truck MH-12-AB-1234",
		"requestedBy": "asha",
		"priority":    "LOW",
		"changeKind":  "CREATE",
		"afterData":   map[string]any{"registrationNumber": "MH-12-AB-1234", "capacityKg": 9000},
		"autoSubmit":  true,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[service.Proposal](t, w).Request
}

func TestProposeApproveFlow(t *testing.T) {
	r, exec := setupRouter(t)

	req := propose(t, r)
	assert.Equal(t, repository.StatusPendingApproval, req.Status)
	require.Len(t, req.ApprovalLevels, 1)
	assert.Equal(t, service.RoleFleetManager, req.ApprovalLevels[0].RequiredRole)

	w := do(t, r, http.MethodGet, "/api/v1/requests?role=fleet%20manager", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[struct {
		Total int `json:"total"`
	}](t, w)
	assert.Equal(t, 1, list.Total)

	w = do(t, r, http.MethodPost, "/api/v1/requests/"+req.ID+"/approve", map[string]any{"approverName": "ravi"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	outcome := decode[service.ApprovalOutcome](t, w)
	assert.True(t, outcome.Final)
	assert.True(t, outcome.Executed)
	assert.Equal(t, 1, exec.calls)

	w = do(t, r, http.MethodPost, "/api/v1/requests/"+req.ID+"/approve", map[string]any{"approverName": "ravi"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "ILLEGAL_TRANSITION", decode[map[string]any](t, w)["code"])
	assert.Equal(t, 1, exec.calls)

	w = do(t, r, http.MethodGet, "/api/v1/requests/"+req.ID+"/audit", nil)
	require.Equal(t, http.StatusOK, w.Code)
	trail := decode[struct {
		AuditTrail []repository.AuditEntry `json:"auditTrail"`
	}](t, w)
	assert.Equal(t, repository.AuditChangeExecuted, trail.AuditTrail[len(trail.AuditTrail)-1].Action)
}

func TestRejectRequiresReason(t *testing.T) {
	r, _ := setupRouter(t)
	req := propose(t, r)

	w := do(t, r, http.MethodPost, "/api/v1/requests/"+req.ID+"/reject", map[string]any{"approverName": "ravi"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/v1/requests/"+req.ID+"/reject", map[string]any{"approverName": "ravi", "reason": "wrong plate"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, repository.StatusRejected, decode[repository.WorkflowRequest](t, w).Status)

	w = do(t, r, http.MethodPost, "/api/v1/requests/"+req.ID+"/comments", map[string]any{"author": "asha", "text": "noted"})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestNotFoundAndBadQuery(t *testing.T) {
	r, _ := setupRouter(t)

	w := do(t, r, http.MethodGet, "/api/v1/requests/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decode[map[string]any](t, w)["code"])

	w = do(t, r, http.MethodGet, "/api/v1/requests?status=LOST", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/v1/requests/nope/cancel", map[string]any{"cancelledBy": "asha"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatisticsAndChains(t *testing.T) {
	r, _ := setupRouter(t)
	propose(t, r)

	w := do(t, r, http.MethodGet, "/api/v1/statistics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[service.Statistics](t, w)
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.PendingByPriority[repository.PriorityLow])
	assert.Equal(t, 0, stats.ByStatus[repository.StatusApproved])

	w = do(t, r, http.MethodGet, "/api/v1/chains?changeType=LANE_RATE_CHANGE&priority=CRITICAL", nil)
	require.Equal(t, http.StatusOK, w.Code)
	chain := decode[struct {
		ApprovalLevels []repository.ApprovalLevel `json:"approvalLevels"`
	}](t, w)
	require.Len(t, chain.ApprovalLevels, 4)
	assert.Equal(t, service.RoleExecutive, chain.ApprovalLevels[3].RequiredRole)

	w = do(t, r, http.MethodGet, "/api/v1/chains", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAddressAndQualityEndpoints(t *testing.T) {
	r, _ := setupRouter(t)

	w := do(t, r, http.MethodPost, "/api/v1/addresses/validate", map[string]any{"address": "Plot 4, Andheri East, Mumbai, 400069"})
	require.Equal(t, http.StatusOK, w.Code)
	v := decode[service.AddressValidation](t, w)
	assert.True(t, v.IsValid)
	assert.Equal(t, "Mumbai", v.Components.City)

	w = do(t, r, http.MethodPost, "/api/v1/addresses/geocode", map[string]any{"address": "Chennai, 600001"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[service.GeocodeResult](t, w).Found)

	w = do(t, r, http.MethodPost, "/api/v1/addresses/validate", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/v1/locations/duplicates", map[string]any{
		"candidate": map[string]any{"name": "Pune Hub", "city": "Pune"},
		"existing": []map[string]any{
			{"id": "a", "name": "Pune Hub", "city": "Pune"},
			{"id": "b", "name": "Nagpur Yard", "city": "Nagpur"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code)
	dups := decode[struct {
		Matches []service.DuplicateMatch `json:"matches"`
	}](t, w)
	require.Len(t, dups.Matches, 1)
	assert.Equal(t, "a", dups.Matches[0].ID)

	w = do(t, r, http.MethodPost, "/api/v1/quality", map[string]any{
		"record": map[string]any{"name": "Pune Hub", "code": "PUN-01", "type": "HUB", "locations": []string{"Chakan"}, "status": "ACTIVE"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 100, decode[service.DataQualityScore](t, w).Overall)
}

type downLocker struct{}

func (downLocker) Lock(context.Context, string) (func(), error) {
	return nil, stderrors.New("redis: connection refused")
}

func TestProposeReportsDraftWhenAutoSubmitFails(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := repository.NewMemoryRequestStore()
	svc := service.NewWorkflowService(store, downLocker{}, &nopExecutor{}, nil, logger.Nop())
	r := gin.New()
	NewHTTPHandler(svc, service.NewAddressNormalizer(nil), logger.Nop()).RegisterRoutes(r.Group("/api/v1"))

	w := do(t, r, http.MethodPost, "/api/v1/requests", map[string]any{
		"changeType":  "VEHICLE_CREATE",
		"title":       "Add truck MH-12-AB-1234",
		"requestedBy": "asha",
		"priority":    "LOW",
		"changeKind":  "CREATE",
		"afterData":   map[string]any{"registrationNumber": "MH-12-AB-1234", "capacityKg": 9000},
		"autoSubmit":  true,
	})
	require.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	body := decode[map[string]any](t, w)
	id, ok := body["requestId"].(string)
	require.True(t, ok, w.Body.String())

	stored, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, repository.StatusDraft, stored.Status)
}
