// Package store persists reconciliation records keyed by source message ID.
//
// Two backends exist: a whole-document JSON file matching the original
// deployment, and a per-key SQLite database for installs that outgrow it.
// The reconciliation engine only sees the Store interface.
package store

import "memocal/internal/model"

// Store is the narrow persistence contract consumed by the reconciliation
// engine. Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the record for key and whether one exists.
	Get(key string) (model.Record, bool, error)
	// Put durably writes the record for key before returning.
	Put(key string, rec model.Record) error
	Close() error
}

// Snapshotter is implemented by stores that can write a point-in-time
// backup of their contents. The cron snapshot job feature-detects it.
type Snapshotter interface {
	Snapshot(dir string) (path string, err error)
}
