// Package kvdb adapts github.com/cometbft/cometbft-db's embedded
// key-value stores to the ledger.KV interface the kernel's append-only
// stores are built on.
package kvdb

import (
	dbm "github.com/cometbft/cometbft-db"
)

// Adapter wraps a cometbft-db dbm.DB and exposes the ledger.KV interface.
type Adapter struct {
	db dbm.DB
}

// NewAdapter creates a new Adapter for the given underlying DB.
func NewAdapter(db dbm.DB) *Adapter {
	return &Adapter{db: db}
}

// Get implements ledger.KV.
func (a *Adapter) Get(key []byte) ([]byte, error) {
	if a.db == nil {
		return nil, nil
	}
	v, err := a.db.Get(key)
	if err != nil {
		return nil, err
	}
	// v may be nil if the key was never written; the ledger package
	// treats a nil/empty read as "not present".
	return v, nil
}

// Set implements ledger.KV.
func (a *Adapter) Set(key, value []byte) error {
	if a.db == nil {
		return nil
	}
	return a.db.SetSync(key, value)
}
