package storehost

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/oncall-roster/internal/domain"
	"github.com/spec-kit/oncall-roster/internal/schema"
)

// Host serves the authoritative document over the four-operation
// contract. Writes are serialized by a single lock; the last write
// wins, which matches the single-administrator deployment model.
type Host struct {
	store  DocumentStore
	logger *zap.Logger
	now    func() time.Time

	writeMu sync.Mutex
}

// NewHost builds a Host over the given backend.
func NewHost(store DocumentStore, logger *zap.Logger) *Host {
	return &Host{store: store, logger: logger, now: time.Now}
}

// RegisterRoutes wires the store endpoints.
func (h *Host) RegisterRoutes(app *fiber.App) {
	app.Get("/health/live", h.health)
	app.Get("/api/document", h.get)
	app.Put("/api/document", h.put)
	app.Post("/api/document/replace", h.replace)
	app.Post("/api/document/reset", h.reset)
}

func (h *Host) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"ok": true, "time": h.now().UTC().Format(time.RFC3339)})
}

// get returns the current document, normalized. A missing or corrupt
// stored document degrades to a fresh default rather than erroring.
func (h *Host) get(c *fiber.Ctx) error {
	body, err := h.store.Load(c.UserContext())
	if err != nil {
		if err != ErrNoDocument {
			h.logger.Warn("stored document unreadable; serving default", zap.Error(err))
		}
		return c.JSON(domain.Default(h.now()))
	}
	doc, migrated := schema.NormalizeJSON(body)
	if migrated {
		h.logger.Info("stored document normalized on read")
	}
	return c.JSON(doc)
}

func (h *Host) put(c *fiber.Ctx) error {
	return h.overwrite(c)
}

// replace is a destructive full overwrite. At whole-document
// granularity it shares the write path with put, but it must succeed
// even when the currently stored document is structurally incompatible
// — which it does, since the incoming body fully determines the result.
func (h *Host) replace(c *fiber.Ctx) error {
	return h.overwrite(c)
}

func (h *Host) overwrite(c *fiber.Ctx) error {
	var raw any
	if err := json.Unmarshal(c.Body(), &raw); err != nil {
		return fiber.NewError(http.StatusBadRequest, "body must be JSON")
	}

	doc, _ := schema.Normalize(raw)
	ts := h.now().UTC()
	doc.UpdatedAt = &ts

	if err := h.persist(c.UserContext(), doc); err != nil {
		return err
	}
	return c.JSON(doc)
}

func (h *Host) reset(c *fiber.Ctx) error {
	doc := domain.Default(h.now())
	ts := h.now().UTC()
	doc.UpdatedAt = &ts

	if err := h.persist(c.UserContext(), doc); err != nil {
		return err
	}
	return c.JSON(doc)
}

func (h *Host) persist(ctx context.Context, doc *domain.Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	h.writeMu.Lock()
	defer h.writeMu.Unlock()
	if err := h.store.Save(ctx, body); err != nil {
		h.logger.Error("persist document", zap.Error(err))
		return fiber.NewError(http.StatusInternalServerError, "could not persist document")
	}
	return nil
}
