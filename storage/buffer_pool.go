package storage

import (
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/jjasminechii/godb/common"
	"github.com/jjasminechii/godb/logging"
	"github.com/jjasminechii/godb/transaction"
	"github.com/puzpuzpuz/xsync/v3"
)

// lockRetryInterval is how long GetPage sleeps between lock-acquisition
// attempts once a lock is unavailable and no deadlock has been detected.
const lockRetryInterval = 2 * time.Millisecond

// Catalog is the minimal collaborator BufferPool needs to turn a TableID
// into the DbFile backing it. Schema catalog discovery beyond this single
// lookup is outside this package's scope.
type Catalog interface {
	GetDatabaseFile(tableID common.TableID) (DbFile, error)
}

// BufferPool caches a bounded number of pages in memory and mediates all
// access to them through a LockManager, implementing strict two-phase
// locking. Eviction follows a STEAL policy: a dirty page may be written to
// disk before its transaction commits, provided the write-ahead log record
// for it is forced first. Commit is NO-FORCE: it never writes pages to
// disk, only appends a log record for each dirty page and forces the log, leaving the
// actual disk write to a later STEAL eviction or checkpoint.
type BufferPool struct {
	maxPages int
	size     atomic.Int64
	cache    *xsync.MapOf[common.PageID, *HeapPage]

	catalog Catalog
	locks   *transaction.LockManager
	log     logging.LogManager
}

// NewBufferPool constructs a BufferPool that caches at most maxPages pages
// at a time.
func NewBufferPool(maxPages int, catalog Catalog, locks *transaction.LockManager, log logging.LogManager) *BufferPool {
	return &BufferPool{
		maxPages: maxPages,
		cache:    xsync.NewMapOf[common.PageID, *HeapPage](),
		catalog:  catalog,
		locks:    locks,
		log:      log,
	}
}

// GetPage returns the page identified by pid, fetching it from disk on a
// cache miss and evicting a victim first if the cache is full. The calling
// transaction must hold the requested permission's lock before the page is
// returned; if the lock is unavailable, GetPage blocks, polling the lock
// manager on every attempt. AcquireLock itself refuses to let tid wait if
// doing so would close a wait-for cycle, returning TransactionAbortedError
// immediately instead, so no separate deadlock scan is needed here.
func (bp *BufferPool) GetPage(tid common.TransactionID, pid common.PageID, perm common.Permission) (*HeapPage, error) {
	for {
		granted, err := bp.locks.AcquireLock(tid, pid, perm)
		if err != nil {
			return nil, err
		}
		if granted {
			break
		}
		time.Sleep(lockRetryInterval)
	}

	if page, ok := bp.cache.Load(pid); ok {
		return page, nil
	}

	if bp.size.Load() >= int64(bp.maxPages) {
		if err := bp.evictPage(); err != nil {
			return nil, err
		}
	}

	dbFile, err := bp.catalog.GetDatabaseFile(pid.TableID)
	if err != nil {
		return nil, err
	}
	page, err := dbFile.ReadPage(pid)
	if err != nil {
		return nil, err
	}
	page.SetBeforeImage()

	if _, loaded := bp.cache.LoadOrStore(pid, page); !loaded {
		bp.size.Add(1)
	} else {
		page, _ = bp.cache.Load(pid)
	}
	return page, nil
}

// evictPage picks a random cached page and flushes it to disk if dirty,
// then drops it from the cache. Because the policy is STEAL, it is legal to
// evict a page belonging to an uncommitted transaction; the write-ahead log
// must already hold a record of the page's before image.
func (bp *BufferPool) evictPage() error {
	var victim common.PageID
	found := false
	bp.cache.Range(func(pid common.PageID, _ *HeapPage) bool {
		victim = pid
		found = true
		// Reservoir-ish early exit: a single random page is enough since no
		// NO-STEAL constraint restricts which pages are evictable.
		return rand.Intn(2) != 0
	})
	if !found {
		return common.NewError(common.DbError, "buffer pool is empty, nothing to evict")
	}

	page, ok := bp.cache.Load(victim)
	if !ok {
		return nil
	}
	if page.IsDirty() {
		if err := bp.flushPage(victim); err != nil {
			return err
		}
	}
	if _, loaded := bp.cache.LoadAndDelete(victim); loaded {
		bp.size.Add(-1)
	}
	return nil
}

// flushPage forces the page's write-ahead log record, then writes the
// page's current contents to its backing DbFile and clears its dirty flag.
// This is the STEAL path: it is called by eviction (which may write an
// uncommitted page to disk) and by FlushPages/FlushAllPages for checkpoints
// and shutdown. It must never be called from the commit path, which is
// NO-FORCE and logs a page's commit without writing it to disk.
func (bp *BufferPool) flushPage(pid common.PageID) error {
	page, ok := bp.cache.Load(pid)
	if !ok {
		return nil
	}
	if !page.IsDirty() {
		return nil
	}

	dbFile, err := bp.catalog.GetDatabaseFile(pid.TableID)
	if err != nil {
		return err
	}

	before := page.GetBeforeImage().GetPageData()
	after := page.GetPageData()
	if err := bp.log.LogWrite(page.DirtiedBy(), pid, before, after); err != nil {
		return err
	}
	if err := bp.log.Force(); err != nil {
		return err
	}
	if err := dbFile.WritePage(page); err != nil {
		return err
	}
	page.MarkDirty(false)
	return nil
}

// commitPage is the NO-FORCE commit counterpart to flushPage: it appends a
// log write record for pid and forces the log, but never touches pid's
// backing DbFile. The page stays dirty and cached, so a later STEAL eviction
// (or a checkpoint) is still responsible for eventually writing it to disk.
// Its before-image is advanced to the page's current bytes, since this
// write is now durable in the log and must not be undone by a future abort.
func (bp *BufferPool) commitPage(pid common.PageID) error {
	page, ok := bp.cache.Load(pid)
	if !ok {
		return nil
	}
	if !page.IsDirty() {
		return nil
	}

	before := page.GetBeforeImage().GetPageData()
	after := page.GetPageData()
	if err := bp.log.LogWrite(page.DirtiedBy(), pid, before, after); err != nil {
		return err
	}
	if err := bp.log.Force(); err != nil {
		return err
	}
	page.SetBeforeImage()
	return nil
}

// FlushAllPages forces every dirty cached page to disk, regardless of which
// transaction dirtied it. Intended for tests and graceful shutdown, not for
// use inside the commit path.
func (bp *BufferPool) FlushAllPages() error {
	var firstErr error
	bp.cache.Range(func(pid common.PageID, _ *HeapPage) bool {
		if err := bp.flushPage(pid); err != nil && firstErr == nil {
			firstErr = err
		}
		return true
	})
	return firstErr
}

// FlushPages forces every page currently cached that tid holds a lock on
// (and may therefore have dirtied) to disk, without ending tid's
// transaction or releasing its locks. It is intended for a recovery
// checkpoint, not for the commit path, which never writes pages to disk.
func (bp *BufferPool) FlushPages(tid common.TransactionID) error {
	var firstErr error
	bp.cache.Range(func(pid common.PageID, _ *HeapPage) bool {
		if bp.locks.HoldsLock(tid, pid) {
			if err := bp.flushPage(pid); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return true
	})
	return firstErr
}

// discardPage drops pid from the cache without flushing it, used to undo an
// aborted transaction's writes by forgetting the dirty in-memory copy so the
// next GetPage re-reads the unmodified on-disk version.
func (bp *BufferPool) discardPage(pid common.PageID) {
	if _, loaded := bp.cache.LoadAndDelete(pid); loaded {
		bp.size.Add(-1)
	}
}

// TransactionComplete ends tid, either committing or aborting its effects,
// and releases every lock it holds.
//
// On commit, this is STEAL + NO-FORCE: every dirty page currently cached,
// whichever transaction dirtied it, is force-logged and has its
// before-image advanced; clean cached pages are skipped, so neither a log
// record nor a new before-image is made for them. No page is written to
// disk here. Because eviction can steal a dirty page from any transaction
// at any time, there is no cheaper way to guarantee a committed
// transaction's writes are durable without tracking per-transaction dirty
// sets across steals, so this implementation logs the whole cache rather
// than only the pages tid itself touched; the actual disk write happens
// later, whenever flushPage is eventually reached via eviction or a
// checkpoint call to FlushPages/FlushAllPages.
//
// On abort, every page cached that this transaction holds a lock on (and
// therefore might have dirtied) is discarded from the cache unflushed, so a
// later read re-fetches the clean on-disk image.
func (bp *BufferPool) TransactionComplete(tid common.TransactionID, commit bool) error {
	if commit {
		var firstErr error
		bp.cache.Range(func(pid common.PageID, _ *HeapPage) bool {
			if err := bp.commitPage(pid); err != nil && firstErr == nil {
				firstErr = err
			}
			return true
		})
		if firstErr != nil {
			return firstErr
		}
	} else {
		bp.cache.Range(func(pid common.PageID, _ *HeapPage) bool {
			if bp.locks.HoldsLock(tid, pid) {
				bp.discardPage(pid)
			}
			return true
		})
	}
	bp.locks.ReleaseAll(tid)
	return nil
}

// InsertTuple inserts t into the table identified by tableID on behalf of
// tid, delegating to the table's HeapFile so the correct page is located,
// locked, and marked dirty.
func (bp *BufferPool) InsertTuple(tid common.TransactionID, tableID common.TableID, t *Tuple) error {
	dbFile, err := bp.catalog.GetDatabaseFile(tableID)
	if err != nil {
		return err
	}
	hf, ok := dbFile.(*HeapFile)
	if !ok {
		return common.NewError(common.DbError, "table %d is not a heap file", tableID)
	}
	_, err = hf.InsertTuple(tid, t)
	return err
}

// DeleteTuple deletes t on behalf of tid, delegating to t.RID.PageID's
// owning HeapFile.
func (bp *BufferPool) DeleteTuple(tid common.TransactionID, t *Tuple) error {
	dbFile, err := bp.catalog.GetDatabaseFile(t.RID.PageID.TableID)
	if err != nil {
		return err
	}
	hf, ok := dbFile.(*HeapFile)
	if !ok {
		return common.NewError(common.DbError, "table %d is not a heap file", t.RID.PageID.TableID)
	}
	return hf.DeleteTuple(tid, t)
}
