package postgres

import "github.com/tinoosan/billing/internal/storage"

// Compile-time interface assertions documenting which interfaces the
// backend satisfies.
var (
	_ storage.Store = (*Store)(nil)
	_ storage.Tx    = (*Tx)(nil)
)
