package execution

import (
	"github.com/jjasminechii/godb/common"
	"github.com/jjasminechii/godb/storage"
)

// SeqScan is the leaf operator that reads every tuple of a table in heap
// order, under a given transaction.
type SeqScan struct {
	hf   *storage.HeapFile
	tid  common.TransactionID
	it   *storage.HeapFileIterator
	la   lookahead
}

// NewSeqScan constructs a scan of hf, visible to tid.
func NewSeqScan(hf *storage.HeapFile, tid common.TransactionID) *SeqScan {
	return &SeqScan{hf: hf, tid: tid}
}

func (s *SeqScan) Open() error {
	s.it = s.hf.NewHeapFileIterator(s.tid)
	if err := s.it.Open(); err != nil {
		return err
	}
	s.la.reset(s.fetchNext)
	return nil
}

func (s *SeqScan) fetchNext() (*storage.Tuple, error) {
	ok, err := s.it.HasNext()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return s.it.Next()
}

func (s *SeqScan) HasNext() (bool, error)         { return s.la.hasNext() }
func (s *SeqScan) Next() (*storage.Tuple, error)   { return s.la.next() }
func (s *SeqScan) TupleDesc() *storage.TupleDesc   { return s.hf.TupleDesc() }

func (s *SeqScan) Rewind() error {
	if err := s.it.Rewind(); err != nil {
		return err
	}
	s.la.reset(s.fetchNext)
	return nil
}

func (s *SeqScan) Close() error {
	if s.it != nil {
		s.it.Close()
	}
	s.la.markClosed()
	return nil
}

// GetChildren returns nil: SeqScan is a leaf operator.
func (s *SeqScan) GetChildren() []Operator { return nil }

// SetChildren is a no-op: SeqScan is a leaf operator.
func (s *SeqScan) SetChildren(children []Operator) {}
