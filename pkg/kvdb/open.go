package kvdb

import (
	"fmt"

	dbm "github.com/cometbft/cometbft-db"
)

// Backend selects which cometbft-db implementation backs the kernel's
// append-only stores.
type Backend string

const (
	// BackendMemory keeps everything in an in-process map. Data does not
	// survive a restart; useful for tests and single-process demos.
	BackendMemory Backend = "memory"

	// BackendGoLevelDB persists to a goleveldb directory on disk.
	BackendGoLevelDB Backend = "goleveldb"

	// BackendBoltDB persists to a single boltdb file on disk.
	BackendBoltDB Backend = "boltdb"
)

// Open returns a cometbft-db DB for the requested backend, wrapped as an
// Adapter ready to back the kernel's ledger.Store instances.
func Open(backend Backend, name, dir string) (*Adapter, error) {
	var (
		db  dbm.DB
		err error
	)
	switch backend {
	case BackendMemory, "":
		db = dbm.NewMemDB()
	case BackendGoLevelDB:
		db, err = dbm.NewGoLevelDB(name, dir)
	case BackendBoltDB:
		db, err = dbm.NewBoltDB(name, dir)
	default:
		return nil, fmt.Errorf("kvdb: unknown backend %q", backend)
	}
	if err != nil {
		return nil, fmt.Errorf("kvdb: open %s backend: %w", backend, err)
	}
	return NewAdapter(db), nil
}
