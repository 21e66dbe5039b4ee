// Package syncer composes the remote store, the normalizer and the
// local cache into four never-failing operations. Callers always get a
// canonical document back; remote failure degrades to the most recent
// known-good copy instead of erroring.
package syncer

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/oncall-roster/internal/cache"
	"github.com/spec-kit/oncall-roster/internal/domain"
	"github.com/spec-kit/oncall-roster/internal/events"
	"github.com/spec-kit/oncall-roster/internal/observability"
	"github.com/spec-kit/oncall-roster/internal/remote"
	"github.com/spec-kit/oncall-roster/internal/schema"
)

const writeBackTimeout = 10 * time.Second

// Outcome describes how a sync operation was served.
type Outcome struct {
	// Degraded is true when the remote store was unreachable and the
	// result came from local fallback state.
	Degraded bool
	// Migrated is true when the document needed repair into the
	// canonical shape.
	Migrated bool
}

// Engine owns the sync protocol and the in-process last-known-good
// document. The in-process copy is consulted before the durable cache
// on fallback: it reflects the most recent successful exchange even if
// a durable write has not completed.
type Engine struct {
	remote   remote.Client
	cache    cache.Store
	dispatch events.Dispatcher
	metrics  *observability.Metrics
	logger   *zap.Logger

	mu       sync.Mutex
	lastGood *domain.Document

	writeBacks sync.WaitGroup
}

// New builds an Engine. dispatcher and metrics may be nil.
func New(client remote.Client, store cache.Store, dispatcher events.Dispatcher, metrics *observability.Metrics, logger *zap.Logger) *Engine {
	return &Engine{
		remote:   client,
		cache:    store,
		dispatch: dispatcher,
		metrics:  metrics,
		logger:   logger,
	}
}

// Close waits for any in-flight write-backs to finish.
func (e *Engine) Close() {
	e.writeBacks.Wait()
}

// Fetch reads the current document. When the remote copy needed
// migration, the corrected shape is written back best-effort; the
// caller never waits for that.
func (e *Engine) Fetch(ctx context.Context) (*domain.Document, Outcome) {
	payload, err := e.remote.Get(ctx)
	if err != nil {
		return e.fallback(ctx, "fetch", err)
	}

	doc, migrated := schema.NormalizeJSON(payload)
	e.storeGood(ctx, doc)
	if migrated {
		e.publish(ctx, events.EventDocumentMigrated, "fetch", "")
		e.spawnWriteBack(doc.Clone())
	}
	return doc.Clone(), Outcome{Migrated: migrated}
}

// Upsert writes the document. The input is normalized locally first so
// the cached fallback stays canonical even when the remote write fails.
func (e *Engine) Upsert(ctx context.Context, doc *domain.Document) (*domain.Document, Outcome) {
	return e.write(ctx, "upsert", doc, e.remote.Put)
}

// Replace overwrites the remote document wholesale, used for imports
// where the store's current document may be structurally incompatible.
func (e *Engine) Replace(ctx context.Context, doc *domain.Document) (*domain.Document, Outcome) {
	return e.write(ctx, "replace", doc, e.remote.Replace)
}

func (e *Engine) write(ctx context.Context, op string, doc *domain.Document, call func(context.Context, []byte) ([]byte, error)) (*domain.Document, Outcome) {
	local := renormalize(doc)
	body, err := json.Marshal(local)
	if err != nil {
		// Cannot happen for a canonical document; degrade anyway.
		e.logger.Error("marshal canonical document", zap.Error(err))
		return local.Clone(), Outcome{Degraded: true}
	}

	payload, err := call(ctx, body)
	if err != nil {
		// The write is not lost: the normalized input becomes the
		// local state served until the store is reachable again.
		e.storeGood(ctx, local)
		e.publish(ctx, events.EventSyncDegraded, op, err.Error())
		return local.Clone(), Outcome{Degraded: true}
	}

	ack, migrated := schema.NormalizeJSON(payload)
	e.storeGood(ctx, ack)
	return ack.Clone(), Outcome{Migrated: migrated}
}

// Reset asks the store to discard its document. The local cache is
// cleared even when the remote call fails, so a user-initiated reset
// never leaves stale data on screen.
func (e *Engine) Reset(ctx context.Context) (*domain.Document, Outcome) {
	payload, err := e.remote.Reset(ctx)

	e.mu.Lock()
	e.lastGood = nil
	e.mu.Unlock()
	e.cache.Delete(ctx, cache.DocumentKey)

	if err != nil {
		e.publish(ctx, events.EventDocumentReset, "reset", "remote unavailable; local state cleared")
		e.publish(ctx, events.EventSyncDegraded, "reset", err.Error())
		return domain.Default(time.Now()), Outcome{Degraded: true}
	}

	e.publish(ctx, events.EventDocumentReset, "reset", "")
	doc, migrated := schema.NormalizeJSON(payload)
	e.storeGood(ctx, doc)
	return doc.Clone(), Outcome{Migrated: migrated}
}

// fallback serves the most recent known-good document: the in-process
// copy first, the durable cache second, a fresh default last.
func (e *Engine) fallback(ctx context.Context, op string, cause error) (*domain.Document, Outcome) {
	e.publish(ctx, events.EventSyncDegraded, op, cause.Error())

	e.mu.Lock()
	lastGood := e.lastGood.Clone()
	e.mu.Unlock()
	if lastGood != nil {
		return lastGood, Outcome{Degraded: true}
	}

	if raw, ok := e.cache.Get(ctx, cache.DocumentKey); ok {
		doc, _ := schema.NormalizeJSON(raw)
		return doc, Outcome{Degraded: true}
	}

	return domain.Default(time.Now()), Outcome{Degraded: true}
}

// storeGood records a successful (or locally accepted) canonical
// document in both the in-process slot and the durable cache.
func (e *Engine) storeGood(ctx context.Context, doc *domain.Document) {
	e.mu.Lock()
	e.lastGood = doc.Clone()
	e.mu.Unlock()

	if body, err := json.Marshal(doc); err == nil {
		e.cache.Set(ctx, cache.DocumentKey, body)
	}
}

// spawnWriteBack pushes a repaired document to the remote store without
// blocking the caller. Failure is observed, never awaited.
func (e *Engine) spawnWriteBack(doc *domain.Document) {
	e.writeBacks.Add(1)
	go func() {
		defer e.writeBacks.Done()

		ctx, cancel := context.WithTimeout(context.Background(), writeBackTimeout)
		defer cancel()

		body, err := json.Marshal(doc)
		if err != nil {
			e.metrics.RecordWriteBack(false)
			return
		}
		payload, err := e.remote.Put(ctx, body)
		if err != nil {
			e.metrics.RecordWriteBack(false)
			e.publish(ctx, events.EventWriteBackFailed, "fetch", err.Error())
			return
		}
		e.metrics.RecordWriteBack(true)

		ack, _ := schema.NormalizeJSON(payload)
		e.storeGood(ctx, ack)
	}()
}

func (e *Engine) publish(ctx context.Context, eventType events.EventType, op, detail string) {
	if e.dispatch == nil {
		return
	}
	_ = e.dispatch.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Operation: op,
		Timestamp: time.Now(),
		Detail:    detail,
	})
}

// renormalize runs a typed document through the normalizer, yielding a
// defensive canonical copy.
func renormalize(doc *domain.Document) *domain.Document {
	if doc == nil {
		return domain.Default(time.Now())
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return domain.Default(time.Now())
	}
	normalized, _ := schema.NormalizeJSON(body)
	return normalized
}
