package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	httptransport "github.com/spec-kit/case-service/internal/api/http"
	"github.com/spec-kit/case-service/internal/api/http/handlers"
	"github.com/spec-kit/case-service/internal/domain"
	"github.com/spec-kit/case-service/internal/observability"
	"github.com/spec-kit/case-service/internal/repository"
	"github.com/spec-kit/case-service/internal/service"
)

// memoryCaseRepo backs handler tests without a database.
type memoryCaseRepo struct {
	byID  map[string]domain.Case
	order []string
}

func (r *memoryCaseRepo) Save(_ context.Context, c domain.Case) (domain.Case, error) {
	if c.Version == 0 {
		c.Version = 1
		r.order = append([]string{c.ID}, r.order...)
	} else {
		c.Version++
	}
	r.byID[c.ID] = c
	return c, nil
}

func (r *memoryCaseRepo) GetByID(_ context.Context, id string) (domain.Case, error) {
	c, ok := r.byID[id]
	if !ok {
		return domain.Case{}, pgx.ErrNoRows
	}
	return c, nil
}

func (r *memoryCaseRepo) List(_ context.Context, filter repository.CaseFilter) ([]domain.Case, error) {
	status := repository.NormalizeFilterValue(filter.Status)
	priority := repository.NormalizeFilterValue(filter.Priority)
	result := make([]domain.Case, 0, len(r.order))
	for _, id := range r.order {
		c := r.byID[id]
		if status != nil && string(c.Status) != *status {
			continue
		}
		if priority != nil && string(c.Priority) != *priority {
			continue
		}
		result = append(result, c)
	}
	return result, nil
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	repo := &memoryCaseRepo{byID: map[string]domain.Case{}}
	caseService := service.NewCaseService(service.CaseDependencies{CaseRepo: repo})

	metrics := observability.NewMetrics()
	app := fiber.New()
	httptransport.RegisterMiddlewares(app, zaptest.NewLogger(t), metrics, 0)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Cases:  handlers.NewCasesHandler(caseService),
		Health: handlers.NewHealthHandler("case-service-test", "test", nil, nil, metrics),
	})
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	payload := map[string]any{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &payload))
	}
	return resp.StatusCode, payload
}

func createCase(t *testing.T, app *fiber.App, title, priority string) map[string]any {
	t.Helper()
	status, payload := doJSON(t, app, http.MethodPost, "/cases",
		`{"title":"`+title+`","description":"something broke","priority":"`+priority+`"}`)
	require.Equal(t, http.StatusCreated, status)
	return payload["data"].(map[string]any)
}

func TestCreateCaseEndpoint(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/cases",
		strings.NewReader(`{"title":"Bug","description":"payment fails","priority":"high"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var payload map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	data := payload["data"].(map[string]any)
	assert.Equal(t, "Bug", data["title"])
	assert.Equal(t, "OPEN", data["status"])
	assert.Equal(t, "HIGH", data["priority"])
	assert.Equal(t, "/cases/"+data["id"].(string), resp.Header.Get(fiber.HeaderLocation))
}

func TestCreateCaseEndpoint_Validation(t *testing.T) {
	app := newTestApp(t)

	status, payload := doJSON(t, app, http.MethodPost, "/cases", `{"description":"x","priority":"EXTREME"}`)
	require.Equal(t, http.StatusBadRequest, status)

	errBody := payload["error"].(map[string]any)
	assert.Equal(t, "VALIDATION_FAILED", errBody["code"])
	details := errBody["details"].(map[string]any)
	assert.Contains(t, details, "title")
	assert.Contains(t, details, "priority")
}

func TestCreateCaseEndpoint_TitleTooLong(t *testing.T) {
	app := newTestApp(t)

	status, payload := doJSON(t, app, http.MethodPost, "/cases",
		`{"title":"`+strings.Repeat("a", 201)+`","priority":"LOW"}`)
	require.Equal(t, http.StatusBadRequest, status)
	errBody := payload["error"].(map[string]any)
	details := errBody["details"].(map[string]any)
	assert.Contains(t, details, "title")
}

func TestGetCaseEndpoint_NotFound(t *testing.T) {
	app := newTestApp(t)

	status, payload := doJSON(t, app, http.MethodGet, "/cases/5e6c1a30-0000-4000-8000-0000000000aa", "")
	require.Equal(t, http.StatusNotFound, status)
	errBody := payload["error"].(map[string]any)
	assert.Equal(t, "NOT_FOUND", errBody["code"])
}

func TestUpdateStatusEndpoint(t *testing.T) {
	app := newTestApp(t)
	created := createCase(t, app, "Bug", "HIGH")
	id := created["id"].(string)

	status, payload := doJSON(t, app, http.MethodPatch, "/cases/"+id+"/status", `{"status":" in_progress "}`)
	require.Equal(t, http.StatusOK, status)
	data := payload["data"].(map[string]any)
	assert.Equal(t, "IN_PROGRESS", data["status"])
}

func TestUpdateStatusEndpoint_RejectedTransition(t *testing.T) {
	app := newTestApp(t)
	created := createCase(t, app, "Bug", "HIGH")
	id := created["id"].(string)

	status, _ := doJSON(t, app, http.MethodPatch, "/cases/"+id+"/status", `{"status":"IN_PROGRESS"}`)
	require.Equal(t, http.StatusOK, status)

	status, payload := doJSON(t, app, http.MethodPatch, "/cases/"+id+"/status", `{"status":"CLOSED"}`)
	require.Equal(t, http.StatusConflict, status)
	errBody := payload["error"].(map[string]any)
	assert.Equal(t, "INVALID_STATUS_TRANSITION", errBody["code"])
}

func TestUpdateStatusEndpoint_InvalidValue(t *testing.T) {
	app := newTestApp(t)
	created := createCase(t, app, "Bug", "LOW")
	id := created["id"].(string)

	status, payload := doJSON(t, app, http.MethodPatch, "/cases/"+id+"/status", `{"status":""}`)
	require.Equal(t, http.StatusBadRequest, status)
	errBody := payload["error"].(map[string]any)
	assert.Equal(t, "INVALID_STATUS", errBody["code"])
}

func TestListCasesEndpoint(t *testing.T) {
	app := newTestApp(t)
	createCase(t, app, "first", "LOW")
	second := createCase(t, app, "second", "HIGH")

	status, payload := doJSON(t, app, http.MethodGet, "/cases?status=open&priority=HIGH", "")
	require.Equal(t, http.StatusOK, status)
	items := payload["data"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, second["id"], items[0].(map[string]any)["id"])

	status, payload = doJSON(t, app, http.MethodGet, "/cases", "")
	require.Equal(t, http.StatusOK, status)
	items = payload["data"].([]any)
	require.Len(t, items, 2)
	assert.Equal(t, "second", items[0].(map[string]any)["title"], "newest first")
}

func TestHealthEndpoints(t *testing.T) {
	app := newTestApp(t)

	status, payload := doJSON(t, app, http.MethodGet, "/health/live", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alive", payload["status"])

	// no postgres/redis configured in tests, so readiness reports unavailable
	status, payload = doJSON(t, app, http.MethodGet, "/health/ready", "")
	require.Equal(t, http.StatusServiceUnavailable, status)
	errBody := payload["error"].(map[string]any)
	assert.Equal(t, "DEPENDENCY_UNAVAILABLE", errBody["code"])
}

func TestUnknownRoute(t *testing.T) {
	app := newTestApp(t)

	status, payload := doJSON(t, app, http.MethodGet, "/nope", "")
	require.Equal(t, http.StatusNotFound, status)
	errBody := payload["error"].(map[string]any)
	assert.Equal(t, "NOT_FOUND", errBody["code"])
}
