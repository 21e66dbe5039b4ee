package storehost

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/oncall-roster/internal/domain"
)

func newTestHost(t *testing.T) (*fiber.App, *FileStore) {
	t.Helper()
	store, err := NewFileStore(t.TempDir(), "roster.json")
	require.NoError(t, err)

	app := fiber.New()
	NewHost(store, zap.NewNop()).RegisterRoutes(app)
	return app, store
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body []byte) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, payload
}

func TestGetWithoutStoredDocumentServesDefault(t *testing.T) {
	app, _ := newTestHost(t)

	status, payload := doJSON(t, app, http.MethodGet, "/api/document", nil)
	require.Equal(t, http.StatusOK, status)

	var doc domain.Document
	require.NoError(t, json.Unmarshal(payload, &doc))
	assert.Empty(t, doc.Staff)
	assert.Equal(t, domain.SupportContactDefaults, doc.SupportContact)
}

func TestPutNormalizesAndStamps(t *testing.T) {
	app, store := newTestHost(t)

	status, payload := doJSON(t, app, http.MethodPut, "/api/document", []byte(`{"colaboradores": ["ana"]}`))
	require.Equal(t, http.StatusOK, status)

	var doc domain.Document
	require.NoError(t, json.Unmarshal(payload, &doc))
	require.Len(t, doc.Staff, 1)
	assert.Equal(t, "ANA", doc.Staff[0].Name)
	require.NotNil(t, doc.UpdatedAt, "every write stamps updatedAt")

	// The stored copy is the normalized shape, not the raw input.
	stored, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Contains(t, string(stored), `"ANA"`)
	assert.NotContains(t, string(stored), "colaboradores")
}

func TestPutRejectsNonJSON(t *testing.T) {
	app, _ := newTestHost(t)

	status, _ := doJSON(t, app, http.MethodPut, "/api/document", []byte(`not json`))
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestGetNormalizesCorruptStoredDocument(t *testing.T) {
	app, store := newTestHost(t)
	require.NoError(t, store.Save(context.Background(), []byte(`{"staff": "wrong shape"}`)))

	status, payload := doJSON(t, app, http.MethodGet, "/api/document", nil)
	require.Equal(t, http.StatusOK, status)

	var doc domain.Document
	require.NoError(t, json.Unmarshal(payload, &doc))
	assert.Empty(t, doc.Staff)
}

func TestReplace(t *testing.T) {
	app, _ := newTestHost(t)

	_, _ = doJSON(t, app, http.MethodPut, "/api/document", []byte(`{"staff": [{"id": "a", "name": "ALICE"}]}`))
	status, payload := doJSON(t, app, http.MethodPost, "/api/document/replace", []byte(`{"staff": [{"id": "b", "name": "BOB"}]}`))
	require.Equal(t, http.StatusOK, status)

	var doc domain.Document
	require.NoError(t, json.Unmarshal(payload, &doc))
	require.Len(t, doc.Staff, 1)
	assert.Equal(t, "BOB", doc.Staff[0].Name)
}

func TestReset(t *testing.T) {
	app, _ := newTestHost(t)

	_, _ = doJSON(t, app, http.MethodPut, "/api/document", []byte(`{"staff": [{"id": "a", "name": "ALICE"}]}`))
	status, payload := doJSON(t, app, http.MethodPost, "/api/document/reset", []byte(`{}`))
	require.Equal(t, http.StatusOK, status)

	var doc domain.Document
	require.NoError(t, json.Unmarshal(payload, &doc))
	assert.Empty(t, doc.Staff)
	require.NotNil(t, doc.UpdatedAt)

	status, payload = doJSON(t, app, http.MethodGet, "/api/document", nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(payload, &doc))
	assert.Empty(t, doc.Staff)
}
