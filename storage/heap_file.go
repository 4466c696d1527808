package storage

import (
	"os"
	"sync"

	"github.com/jjasminechii/godb/common"
)

// HeapFile is an unordered collection of tuples backed by a single
// fixed-page-size file: page i occupies bytes [i*PageSize, (i+1)*PageSize).
// ReadPage and WritePage perform raw file I/O directly, bypassing any cache;
// they are the primitives the buffer pool uses to fill and flush its cache.
// InsertTuple and DeleteTuple instead go through a BufferPool so that the
// mutation happens on the cached, lock-protected copy of the page.
type HeapFile struct {
	mu      sync.Mutex
	file    *os.File
	tableID common.TableID
	desc    *TupleDesc
	bp      *BufferPool
}

// OpenHeapFile opens (creating if necessary) the file at path as a HeapFile
// with the given schema, identified by tableID. bp is the buffer pool that
// InsertTuple/DeleteTuple will route page fetches through.
func OpenHeapFile(path string, tableID common.TableID, desc *TupleDesc, bp *BufferPool) (*HeapFile, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, common.WrapError(common.IoError, err, "opening heap file %s", path)
	}
	return &HeapFile{file: f, tableID: tableID, desc: desc, bp: bp}, nil
}

func (hf *HeapFile) TableID() common.TableID { return hf.tableID }

func (hf *HeapFile) TupleDesc() *TupleDesc { return hf.desc }

// NumPages returns the number of PageSize-sized pages currently in the file.
func (hf *HeapFile) NumPages() int {
	hf.mu.Lock()
	defer hf.mu.Unlock()
	info, err := hf.file.Stat()
	common.Assert(err == nil, "stat heap file: %v", err)
	return int(info.Size() / common.PageSize)
}

// ReadPage reads and decodes the page at pid.PageNum directly from disk.
// It returns DbError if pid.PageNum is beyond the file's current extent.
func (hf *HeapFile) ReadPage(pid common.PageID) (*HeapPage, error) {
	hf.mu.Lock()
	defer hf.mu.Unlock()

	info, err := hf.file.Stat()
	if err != nil {
		return nil, common.WrapError(common.IoError, err, "stat heap file")
	}
	numPages := int(info.Size() / common.PageSize)
	if pid.PageNum < 0 || pid.PageNum >= numPages {
		return nil, common.NewError(common.DbError, "page %d out of range (file has %d pages)", pid.PageNum, numPages)
	}

	buf := make([]byte, common.PageSize)
	_, err = hf.file.ReadAt(buf, int64(pid.PageNum)*common.PageSize)
	if err != nil {
		return nil, common.WrapError(common.IoError, err, "reading page %s", pid)
	}
	return NewHeapPageFromData(pid, hf.desc, buf), nil
}

// WritePage persists page's current serialized contents to its slot in the
// file, growing the file if the page is being written for the first time.
func (hf *HeapFile) WritePage(page *HeapPage) error {
	hf.mu.Lock()
	defer hf.mu.Unlock()

	data := page.GetPageData()
	_, err := hf.file.WriteAt(data, int64(page.PageID().PageNum)*common.PageSize)
	if err != nil {
		return common.WrapError(common.IoError, err, "writing page %s", page.PageID())
	}
	return nil
}

// addEmptyPage extends the file by one fresh, empty page and returns its id.
func (hf *HeapFile) addEmptyPage() (common.PageID, error) {
	hf.mu.Lock()
	info, err := hf.file.Stat()
	if err != nil {
		hf.mu.Unlock()
		return common.PageID{}, common.WrapError(common.IoError, err, "stat heap file")
	}
	pageNum := int(info.Size() / common.PageSize)
	pid := common.PageID{TableID: hf.tableID, PageNum: pageNum}
	hf.mu.Unlock()

	empty := NewHeapPage(pid, hf.desc)
	if err := hf.WritePage(empty); err != nil {
		return common.PageID{}, err
	}
	return pid, nil
}

// InsertTuple finds or creates a page with an empty slot, inserts t there
// via the buffer pool, and returns the page id that was modified.
func (hf *HeapFile) InsertTuple(tid common.TransactionID, t *Tuple) (common.PageID, error) {
	numPages := hf.NumPages()
	for pageNum := 0; pageNum < numPages; pageNum++ {
		pid := common.PageID{TableID: hf.tableID, PageNum: pageNum}
		page, err := hf.bp.GetPage(tid, pid, common.ReadWrite)
		if err != nil {
			return common.PageID{}, err
		}
		if page.GetNumEmptySlots() > 0 {
			if err := page.InsertTuple(t); err != nil {
				return common.PageID{}, err
			}
			page.MarkDirtyBy(tid)
			return pid, nil
		}
	}

	pid, err := hf.addEmptyPage()
	if err != nil {
		return common.PageID{}, err
	}
	page, err := hf.bp.GetPage(tid, pid, common.ReadWrite)
	if err != nil {
		return common.PageID{}, err
	}
	if err := page.InsertTuple(t); err != nil {
		return common.PageID{}, err
	}
	page.MarkDirtyBy(tid)
	return pid, nil
}

// DeleteTuple removes t's tuple, located via t.RID, through the buffer pool.
func (hf *HeapFile) DeleteTuple(tid common.TransactionID, t *Tuple) error {
	page, err := hf.bp.GetPage(tid, t.RID.PageID, common.ReadWrite)
	if err != nil {
		return err
	}
	if err := page.DeleteTuple(t.RID); err != nil {
		return err
	}
	page.MarkDirtyBy(tid)
	return nil
}

// HeapFileIterator is a Volcano-style iterator over every tuple in a
// HeapFile, reading one page at a time through the buffer pool under tid.
type HeapFileIterator struct {
	hf       *HeapFile
	tid      common.TransactionID
	pageNum  int
	numPages int
	cur      []*Tuple
	curIdx   int
	opened   bool
	closed   bool
}

// NewHeapFileIterator constructs an iterator over hf's tuples, visible to
// transaction tid. Open must be called before Next/HasNext.
func (hf *HeapFile) NewHeapFileIterator(tid common.TransactionID) *HeapFileIterator {
	return &HeapFileIterator{hf: hf, tid: tid}
}

func (it *HeapFileIterator) Open() error {
	it.pageNum = 0
	it.numPages = it.hf.NumPages()
	it.cur = nil
	it.curIdx = 0
	it.opened = true
	it.closed = false
	return it.advancePage()
}

func (it *HeapFileIterator) advancePage() error {
	for it.pageNum < it.numPages {
		pid := common.PageID{TableID: it.hf.tableID, PageNum: it.pageNum}
		page, err := it.hf.bp.GetPage(it.tid, pid, common.ReadOnly)
		if err != nil {
			return err
		}
		it.pageNum++
		it.cur = page.Iterator()
		it.curIdx = 0
		if len(it.cur) > 0 {
			return nil
		}
	}
	it.cur = nil
	return nil
}

func (it *HeapFileIterator) HasNext() (bool, error) {
	if !it.opened || it.closed {
		return false, common.NewError(common.IllegalStateError, "iterator not open")
	}
	if it.curIdx < len(it.cur) {
		return true, nil
	}
	if err := it.advancePage(); err != nil {
		return false, err
	}
	return it.curIdx < len(it.cur), nil
}

func (it *HeapFileIterator) Next() (*Tuple, error) {
	ok, err := it.HasNext()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.NewError(common.NoSuchElementError, "heap file iterator exhausted")
	}
	t := it.cur[it.curIdx]
	it.curIdx++
	return t, nil
}

func (it *HeapFileIterator) Rewind() error {
	return it.Open()
}

func (it *HeapFileIterator) Close() {
	it.closed = true
	it.cur = nil
}
