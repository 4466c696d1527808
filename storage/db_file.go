package storage

import "github.com/jjasminechii/godb/common"

// DbFile is the on-disk representation of a single table. HeapFile is the
// only implementation the core engine ships, but the interface keeps the
// buffer pool and executors from depending on the heap layout directly.
type DbFile interface {
	// ReadPage reads and decodes the page identified by pid.
	ReadPage(pid common.PageID) (*HeapPage, error)
	// WritePage persists page to stable storage at its own PageID.
	WritePage(page *HeapPage) error
	// TableID returns the stable id this file was opened under.
	TableID() common.TableID
	// TupleDesc returns the schema of tuples stored in this file.
	TupleDesc() *TupleDesc
	// NumPages returns the number of pages currently allocated in the file.
	NumPages() int
}
