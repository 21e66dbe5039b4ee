package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/oncall-roster/internal/api/http/handlers"
	"github.com/spec-kit/oncall-roster/internal/auth"
	"github.com/spec-kit/oncall-roster/internal/domain"
	"github.com/spec-kit/oncall-roster/internal/observability"
	"github.com/spec-kit/oncall-roster/internal/service"
	"github.com/spec-kit/oncall-roster/internal/syncer"
)

type memorySync struct {
	doc *domain.Document
}

func (s *memorySync) Fetch(context.Context) (*domain.Document, syncer.Outcome) {
	return s.doc.Clone(), syncer.Outcome{}
}

func (s *memorySync) Upsert(_ context.Context, doc *domain.Document) (*domain.Document, syncer.Outcome) {
	s.doc = doc.Clone()
	return doc.Clone(), syncer.Outcome{}
}

func (s *memorySync) Replace(ctx context.Context, doc *domain.Document) (*domain.Document, syncer.Outcome) {
	return s.Upsert(ctx, doc)
}

func (s *memorySync) Reset(context.Context) (*domain.Document, syncer.Outcome) {
	s.doc = domain.Default(time.Now())
	return s.doc.Clone(), syncer.Outcome{}
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	roster := service.NewRosterService(&memorySync{doc: domain.Default(time.Now())}, logger)

	gate, err := auth.NewGate("hunter2", 4, auth.NewTokenManager("test-secret", 60))
	require.NoError(t, err)

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, 5*time.Second)
	RegisterRoutes(app, RouteConfig{
		Health: handlers.NewHealthHandler("oncall-roster", "test", nil),
		Auth:   handlers.NewAuthHandler(gate),
		Roster: handlers.NewRosterHandler(roster),
		Admin:  handlers.NewAdminHandler(roster),
		Gate:   gate,
	})
	return app
}

func request(t *testing.T, app *fiber.App, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	parsed := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &parsed))
	}
	return resp.StatusCode, parsed
}

func login(t *testing.T, app *fiber.App) string {
	t.Helper()
	status, body := request(t, app, http.MethodPost, "/auth/login", "", fiber.Map{"password": "hunter2"})
	require.Equal(t, http.StatusOK, status)
	data, ok := body["data"].(map[string]any)
	require.True(t, ok)
	token, ok := data["token"].(string)
	require.True(t, ok)
	return token
}

func TestPublicReadsNeedNoToken(t *testing.T) {
	app := newTestApp(t)

	status, body := request(t, app, http.MethodGet, "/api/document", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "data")

	status, _ = request(t, app, http.MethodGet, "/api/today", "", nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = request(t, app, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestMutationsRequireToken(t *testing.T) {
	app := newTestApp(t)

	status, body := request(t, app, http.MethodPost, "/api/staff", "", fiber.Map{"name": "alice"})
	assert.Equal(t, http.StatusUnauthorized, status)

	errBody, ok := body["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "UNAUTHORIZED", errBody["code"])
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	app := newTestApp(t)

	status, _ := request(t, app, http.MethodPost, "/auth/login", "", fiber.Map{"password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestStaffLifecycleOverHTTP(t *testing.T) {
	app := newTestApp(t)
	token := login(t, app)

	status, body := request(t, app, http.MethodPost, "/api/staff", token, fiber.Map{"name": "carla souza"})
	require.Equal(t, http.StatusCreated, status)

	data := body["data"].(map[string]any)
	assert.Equal(t, "CARLA SOUZA", data["name"])
	id, ok := data["id"].(string)
	require.True(t, ok)

	status, _ = request(t, app, http.MethodPost, "/api/schedule/days/5/owners/"+id, token, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = request(t, app, http.MethodPut, "/api/schedule/days/5/owners/"+id+"/window", token, fiber.Map{"start": "08:00", "end": "17:00"})
	assert.Equal(t, http.StatusOK, status)

	status, body = request(t, app, http.MethodDelete, "/api/staff/"+id, token, nil)
	require.Equal(t, http.StatusOK, status)

	doc := body["data"].(map[string]any)["document"].(map[string]any)
	assert.Empty(t, doc["staff"])
}

func TestValidationErrorShape(t *testing.T) {
	app := newTestApp(t)
	token := login(t, app)

	status, body := request(t, app, http.MethodPost, "/api/staff", token, fiber.Map{"name": "   "})
	assert.Equal(t, http.StatusBadRequest, status)

	errBody := body["error"].(map[string]any)
	assert.Equal(t, "VALIDATION_FAILED", errBody["code"])
}

func TestMonthUpdateOverHTTP(t *testing.T) {
	app := newTestApp(t)
	token := login(t, app)

	status, body := request(t, app, http.MethodPut, "/api/schedule/month", token, fiber.Map{"month": 12, "year": 2026})
	require.Equal(t, http.StatusOK, status)

	doc := body["data"].(map[string]any)["document"].(map[string]any)
	schedule := doc["schedule"].(map[string]any)
	assert.Equal(t, "DECEMBER/2026", schedule["monthYear"])
}
