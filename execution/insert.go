package execution

import (
	"github.com/jjasminechii/godb/common"
	"github.com/jjasminechii/godb/storage"
)

var insertResultDesc = storage.NewTupleDesc([]common.Type{common.IntType}, []string{"count"})

// Insert drains its child operator, inserting every tuple it produces into
// a table via the buffer pool, then yields a single result tuple holding
// the count of rows inserted. Calling Next a second time raises
// NoSuchElementError, matching the rest of the operator contract.
type Insert struct {
	child   Operator
	bp      *storage.BufferPool
	tid     common.TransactionID
	tableID common.TableID
	la      lookahead
	yielded bool
}

// NewInsert constructs an Insert that inserts child's output into tableID
// on behalf of tid.
func NewInsert(child Operator, bp *storage.BufferPool, tid common.TransactionID, tableID common.TableID) *Insert {
	return &Insert{child: child, bp: bp, tid: tid, tableID: tableID}
}

func (ins *Insert) Open() error {
	if err := ins.child.Open(); err != nil {
		return err
	}
	ins.la.reset(ins.fetchNext)
	ins.yielded = false
	return nil
}

func (ins *Insert) fetchNext() (*storage.Tuple, error) {
	if ins.yielded {
		return nil, nil
	}
	ins.yielded = true
	count := int32(0)
	for {
		ok, err := ins.child.HasNext()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		t, err := ins.child.Next()
		if err != nil {
			return nil, err
		}
		if err := ins.bp.InsertTuple(ins.tid, ins.tableID, t); err != nil {
			return nil, err
		}
		count++
	}
	return storage.NewTuple(insertResultDesc, []storage.Field{storage.IntField{Value: count}}), nil
}

func (ins *Insert) HasNext() (bool, error)        { return ins.la.hasNext() }
func (ins *Insert) Next() (*storage.Tuple, error)  { return ins.la.next() }
func (ins *Insert) TupleDesc() *storage.TupleDesc  { return insertResultDesc }

func (ins *Insert) Rewind() error {
	if err := ins.child.Close(); err != nil {
		return err
	}
	return ins.Open()
}

func (ins *Insert) Close() error {
	ins.la.markClosed()
	return ins.child.Close()
}

// GetChildren returns Insert's single child.
func (ins *Insert) GetChildren() []Operator { return []Operator{ins.child} }

// SetChildren replaces Insert's single child.
func (ins *Insert) SetChildren(children []Operator) { ins.child = children[0] }
