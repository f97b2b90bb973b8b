// Package ledger provides a generic append-only, KV-backed record store.
//
// The witness log and the finding ledger are built by giving this
// package's Store a distinct key prefix and a record type. The
// branch-action ledger, the skip-attempt audit, and the watchdog keep
// their state in memory and do not use Store.
package ledger

import "errors"

// Sentinel errors for generic ledger operations.
var (
	// ErrMetaNotFound is returned when a store's sequence metadata has not
	// been written yet (a fresh, empty store).
	ErrMetaNotFound = errors.New("ledger: sequence metadata not found")

	// ErrRecordNotFound is returned when a record is looked up by a
	// position that was never written.
	ErrRecordNotFound = errors.New("ledger: record not found at position")
)
