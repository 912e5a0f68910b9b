package ports

import "context"

// StateStore is the durable key/value layer behind every step of the workflow. Reads are served from an
// in-memory mirror loaded at open time; Set writes through and refreshes the mirror.
type StateStore interface {
	// Get returns the value for key and whether the key is present.
	Get(key string) (string, bool)

	// Set persists all updates atomically with respect to the backing medium. Keys not in updates are
	// left untouched. MUST return an error matching types.ErrStorage on I/O failure.
	Set(ctx context.Context, updates map[string]string) error

	// Reload re-reads the persisted state into the mirror, picking up writes from other processes.
	Reload(ctx context.Context) error

	// Snapshot returns a copy of the mirror.
	Snapshot() map[string]string
}
