// Package godb wires together the storage engine's collaborators: a
// Catalog, a LockManager, a LogManager, and the BufferPool that sits on top
// of all three. It deliberately avoids a static Database/Catalog singleton:
// every caller constructs and holds its own *Engine, so tests (and, in
// principle, multiple engines in one process) never share state by
// accident.
package godb

import (
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/jjasminechii/godb/catalog"
	"github.com/jjasminechii/godb/common"
	"github.com/jjasminechii/godb/logging"
	"github.com/jjasminechii/godb/storage"
	"github.com/jjasminechii/godb/transaction"
)

// Engine is the top-level container for a running instance of the storage
// engine: the catalog, the lock manager, the log manager, and the buffer
// pool that ties them together.
type Engine struct {
	Catalog     *catalog.Catalog
	BufferPool  *storage.BufferPool
	LockManager *transaction.LockManager
	LogManager  logging.LogManager

	provider *catalog.DiskCatalogManager
	nextTid  atomic.Uint64
}

// Config controls how an Engine is constructed.
type Config struct {
	// DataDir holds table files and the catalog's persisted metadata.
	DataDir string
	// BufferPoolPages bounds how many pages the buffer pool caches at once.
	BufferPoolPages int
}

// NewEngine constructs an Engine rooted at cfg.DataDir, creating the
// directory if needed and reloading any previously persisted catalog.
func NewEngine(cfg Config) (*Engine, error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, err
	}

	eng := &Engine{
		Catalog:     catalog.NewCatalog(),
		LockManager: transaction.NewLockManager(),
		LogManager:  logging.NewMemoryLogManager(),
		provider:    catalog.NewDiskCatalogManager(cfg.DataDir),
	}
	eng.BufferPool = storage.NewBufferPool(cfg.BufferPoolPages, eng.Catalog, eng.LockManager, eng.LogManager)

	if err := eng.Catalog.Load(eng.provider, eng.BufferPool); err != nil {
		return nil, err
	}
	return eng, nil
}

// CreateTable creates a new table named name with the given schema, backed
// by a heap file under the engine's data directory.
func (e *Engine) CreateTable(name string, desc *storage.TupleDesc, fieldNames []string) (common.TableID, error) {
	path := filepath.Join(e.provider.RootPath(), name+".tbl")
	return e.Catalog.CreateTable(name, path, desc, fieldNames, e.BufferPool, e.provider)
}

// BeginTransaction allocates a fresh TransactionID. Transaction ids are
// created externally to the core (here, by the engine) and passed into
// BufferPool/LockManager by value; the core never begins or tracks
// transactions on its own.
func (e *Engine) BeginTransaction() common.TransactionID {
	return common.TransactionID(e.nextTid.Add(1))
}

// Commit commits tid: it force-logs every dirty cached page and advances
// its before-image without writing any page to disk, then releases tid's
// locks.
func (e *Engine) Commit(tid common.TransactionID) error {
	return e.BufferPool.TransactionComplete(tid, true)
}

// Abort aborts tid: it discards any pages tid may have dirtied and
// releases tid's locks.
func (e *Engine) Abort(tid common.TransactionID) error {
	return e.BufferPool.TransactionComplete(tid, false)
}
