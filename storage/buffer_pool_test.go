package storage

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/jjasminechii/godb/common"
	"github.com/jjasminechii/godb/logging"
	"github.com/jjasminechii/godb/transaction"
	"github.com/stretchr/testify/require"
)

// singleTableCatalog is a test double satisfying the Catalog interface for
// a single known table.
type singleTableCatalog struct {
	tableID common.TableID
	file    DbFile
}

func (c *singleTableCatalog) GetDatabaseFile(tableID common.TableID) (DbFile, error) {
	if tableID != c.tableID {
		return nil, common.NewError(common.DbError, "unknown table %d", tableID)
	}
	return c.file, nil
}

func newTestBufferPool(t *testing.T, maxPages int) (*BufferPool, *HeapFile, common.TableID) {
	t.Helper()
	desc := testDesc()
	tableID := common.TableID(1)
	path := filepath.Join(t.TempDir(), "table.dat")

	locks := transaction.NewLockManager()
	log := logging.NewMemoryLogManager()
	cat := &singleTableCatalog{tableID: tableID}
	bp := NewBufferPool(maxPages, cat, locks, log)

	hf, err := OpenHeapFile(path, tableID, desc, bp)
	require.NoError(t, err)
	cat.file = hf

	return bp, hf, tableID
}

func TestBufferPoolInsertAndReadBack(t *testing.T) {
	bp, hf, _ := newTestBufferPool(t, 4)

	tid := common.TransactionID(1)
	tup := testTuple(hf.TupleDesc(), 1, "alice")
	require.NoError(t, bp.InsertTuple(tid, hf.TableID(), tup))
	require.NoError(t, bp.TransactionComplete(tid, true))

	tid2 := common.TransactionID(2)
	it := hf.NewHeapFileIterator(tid2)
	require.NoError(t, it.Open())
	defer it.Close()

	ok, err := it.HasNext()
	require.NoError(t, err)
	require.True(t, ok)

	got, err := it.Next()
	require.NoError(t, err)
	require.Equal(t, "alice", got.GetField(1).(StringField).Value)
}

func TestBufferPoolEvictsUnderPressure(t *testing.T) {
	bp, hf, _ := newTestBufferPool(t, 1)
	tid := common.TransactionID(1)

	// 30 tuples of testDesc fit on one page, so 40 spill onto a second.
	for i := 0; i < 40; i++ {
		require.NoError(t, bp.InsertTuple(tid, hf.TableID(), testTuple(hf.TupleDesc(), int32(i), "x")))
	}
	require.NoError(t, bp.TransactionComplete(tid, true))
	require.Greater(t, hf.NumPages(), 1)
}

func TestBufferPoolAbortDiscardsDirtyPages(t *testing.T) {
	bp, hf, _ := newTestBufferPool(t, 4)

	tidA := common.TransactionID(1)
	require.NoError(t, bp.InsertTuple(tidA, hf.TableID(), testTuple(hf.TupleDesc(), 1, "a")))
	require.NoError(t, bp.TransactionComplete(tidA, true))

	tidB := common.TransactionID(2)
	page, err := bp.GetPage(tidB, common.PageID{TableID: hf.TableID(), PageNum: 0}, common.ReadWrite)
	require.NoError(t, err)
	before := page.GetNumEmptySlots()
	require.NoError(t, page.InsertTuple(testTuple(hf.TupleDesc(), 2, "b")))
	page.MarkDirtyBy(tidB)
	require.NoError(t, bp.TransactionComplete(tidB, false))

	tidC := common.TransactionID(3)
	page2, err := bp.GetPage(tidC, common.PageID{TableID: hf.TableID(), PageNum: 0}, common.ReadOnly)
	require.NoError(t, err)
	require.Equal(t, before, page2.GetNumEmptySlots())
}

// TestBufferPoolCommitIsNoForce verifies spec's STEAL + NO-FORCE commit
// policy end to end: committing a dirty page must not write it to disk, but
// must advance its before-image to the committed bytes so a later dirtying
// transaction's undo log record is correct.
func TestBufferPoolCommitIsNoForce(t *testing.T) {
	bp, hf, _ := newTestBufferPool(t, 4)
	pid := common.PageID{TableID: hf.TableID(), PageNum: 0}
	require.NoError(t, hf.WritePage(NewHeapPage(pid, hf.TupleDesc())))

	tid := common.TransactionID(1)
	page, err := bp.GetPage(tid, pid, common.ReadWrite)
	require.NoError(t, err)
	require.NoError(t, page.InsertTuple(testTuple(hf.TupleDesc(), 1, "a")))
	page.MarkDirtyBy(tid)

	onDiskBefore, err := hf.ReadPage(pid)
	require.NoError(t, err)

	require.NoError(t, bp.TransactionComplete(tid, true))

	// Commit is NO-FORCE: the on-disk page must still be the pre-commit
	// image, since nothing has written to disk yet.
	onDiskAfterCommit, err := hf.ReadPage(pid)
	require.NoError(t, err)
	require.Equal(t, onDiskBefore.GetPageData(), onDiskAfterCommit.GetPageData())

	// The cached page is still dirty (STEAL hasn't happened yet) but its
	// before-image must already reflect the committed bytes, not whatever
	// was on disk (or loaded) before this transaction started.
	cached, ok := bp.cache.Load(pid)
	require.True(t, ok)
	require.True(t, cached.IsDirty())
	require.Equal(t, cached.GetPageData(), cached.GetBeforeImage().GetPageData())

	// A later transaction that dirties the page again and is flushed must
	// log an undo record against the committed bytes, not the stale
	// pre-commit image.
	tid2 := common.TransactionID(2)
	page2, err := bp.GetPage(tid2, pid, common.ReadWrite)
	require.NoError(t, err)
	committedImage := page2.GetBeforeImage().GetPageData()
	require.NoError(t, page2.InsertTuple(testTuple(hf.TupleDesc(), 2, "b")))
	page2.MarkDirtyBy(tid2)
	require.NoError(t, bp.FlushAllPages())

	onDiskAfterFlush, err := hf.ReadPage(pid)
	require.NoError(t, err)
	require.NotEqual(t, committedImage, onDiskAfterFlush.GetPageData())
}

func TestBufferPoolConflictingExclusiveLocksBlock(t *testing.T) {
	bp, hf, _ := newTestBufferPool(t, 4)
	require.NoError(t, bp.InsertTuple(common.TransactionID(1), hf.TableID(), testTuple(hf.TupleDesc(), 1, "a")))
	require.NoError(t, bp.TransactionComplete(common.TransactionID(1), true))

	pid := common.PageID{TableID: hf.TableID(), PageNum: 0}

	tidA := common.TransactionID(10)
	_, err := bp.GetPage(tidA, pid, common.ReadWrite)
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	gotB := make(chan error, 1)
	go func() {
		defer wg.Done()
		_, err := bp.GetPage(common.TransactionID(11), pid, common.ReadWrite)
		gotB <- err
	}()

	require.NoError(t, bp.TransactionComplete(tidA, true))
	wg.Wait()
	require.NoError(t, <-gotB)
}

// TestBufferPoolDeadlockAbortsExactlyOneTransaction exercises the canonical
// two-transaction cycle (T1 holds p0, wants p1; T2 holds p1, wants p0)
// through the real GetPage path with goroutines, asserting exactly one side
// aborts with TransactionAbortedError and the other completes both
// acquisitions and commits.
func TestBufferPoolDeadlockAbortsExactlyOneTransaction(t *testing.T) {
	bp, hf, _ := newTestBufferPool(t, 8)

	tidSetup := common.TransactionID(1)
	// 30 tuples of testDesc fit on one page, so 40 spill onto a second.
	for i := 0; i < 40; i++ {
		require.NoError(t, bp.InsertTuple(tidSetup, hf.TableID(), testTuple(hf.TupleDesc(), int32(i), "x")))
	}
	require.NoError(t, bp.TransactionComplete(tidSetup, true))
	require.GreaterOrEqual(t, hf.NumPages(), 2)

	p0 := common.PageID{TableID: hf.TableID(), PageNum: 0}
	p1 := common.PageID{TableID: hf.TableID(), PageNum: 1}

	tidA := common.TransactionID(100)
	tidB := common.TransactionID(101)

	var wg sync.WaitGroup
	wg.Add(2)
	errA := make(chan error, 1)
	errB := make(chan error, 1)

	acquireBothOrAbort := func(tid common.TransactionID, first, second common.PageID, out chan<- error) {
		if _, err := bp.GetPage(tid, first, common.ReadWrite); err != nil {
			wg.Done()
			out <- err
			return
		}
		wg.Done()
		wg.Wait()
		_, err := bp.GetPage(tid, second, common.ReadWrite)
		if err != nil {
			_ = bp.TransactionComplete(tid, false)
		}
		out <- err
	}

	go acquireBothOrAbort(tidA, p0, p1, errA)
	go acquireBothOrAbort(tidB, p1, p0, errB)

	a, b := <-errA, <-errB
	require.True(t, (a == nil) != (b == nil), "exactly one side must abort, got errA=%v errB=%v", a, b)

	survivorTid, abortedErr := tidA, b
	if a != nil {
		survivorTid, abortedErr = tidB, a
	}
	require.True(t, common.Is(abortedErr, common.TransactionAbortedError))
	require.NoError(t, bp.TransactionComplete(survivorTid, true))
}
