package execution

import (
	"github.com/jjasminechii/godb/common"
	"github.com/jjasminechii/godb/storage"
)

var deleteResultDesc = storage.NewTupleDesc([]common.Type{common.IntType}, []string{"count"})

// Delete drains its child operator, deleting every tuple it produces (using
// each tuple's RecordID) via the buffer pool, then yields a single result
// tuple holding the count of rows deleted.
type Delete struct {
	child   Operator
	bp      *storage.BufferPool
	tid     common.TransactionID
	la      lookahead
	yielded bool
}

// NewDelete constructs a Delete that removes every tuple child produces on
// behalf of tid.
func NewDelete(child Operator, bp *storage.BufferPool, tid common.TransactionID) *Delete {
	return &Delete{child: child, bp: bp, tid: tid}
}

func (del *Delete) Open() error {
	if err := del.child.Open(); err != nil {
		return err
	}
	del.la.reset(del.fetchNext)
	del.yielded = false
	return nil
}

func (del *Delete) fetchNext() (*storage.Tuple, error) {
	if del.yielded {
		return nil, nil
	}
	del.yielded = true
	count := int32(0)
	for {
		ok, err := del.child.HasNext()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		t, err := del.child.Next()
		if err != nil {
			return nil, err
		}
		if err := del.bp.DeleteTuple(del.tid, t); err != nil {
			return nil, err
		}
		count++
	}
	return storage.NewTuple(deleteResultDesc, []storage.Field{storage.IntField{Value: count}}), nil
}

func (del *Delete) HasNext() (bool, error)       { return del.la.hasNext() }
func (del *Delete) Next() (*storage.Tuple, error) { return del.la.next() }
func (del *Delete) TupleDesc() *storage.TupleDesc { return deleteResultDesc }

func (del *Delete) Rewind() error {
	if err := del.child.Close(); err != nil {
		return err
	}
	return del.Open()
}

func (del *Delete) Close() error {
	del.la.markClosed()
	return del.child.Close()
}

// GetChildren returns Delete's single child.
func (del *Delete) GetChildren() []Operator { return []Operator{del.child} }

// SetChildren replaces Delete's single child.
func (del *Delete) SetChildren(children []Operator) { del.child = children[0] }
