package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	// EventSyncDegraded fires when a sync operation falls back to
	// local state because the remote store was unreachable.
	EventSyncDegraded EventType = "sync_degraded"
	// EventDocumentMigrated fires when a fetched document needed
	// repair before the UI could see it.
	EventDocumentMigrated EventType = "document_migrated"
	// EventWriteBackFailed fires when the best-effort post-migration
	// write-back did not reach the remote store.
	EventWriteBackFailed EventType = "write_back_failed"
	// EventDocumentReset fires after a user-initiated reset, whether
	// or not the remote call succeeded.
	EventDocumentReset EventType = "document_reset"
)

// Event represents a sync-layer event.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Operation string    `json:"operation"`
	Timestamp time.Time `json:"timestamp"`
	Detail    string    `json:"detail,omitempty"`
}
