package execution

import (
	"path/filepath"
	"testing"

	"github.com/jjasminechii/godb/common"
	"github.com/jjasminechii/godb/logging"
	"github.com/jjasminechii/godb/storage"
	"github.com/jjasminechii/godb/transaction"
	"github.com/stretchr/testify/require"
)

type fixedCatalog struct {
	tableID common.TableID
	file    storage.DbFile
}

func (c *fixedCatalog) GetDatabaseFile(tableID common.TableID) (storage.DbFile, error) {
	if tableID != c.tableID {
		return nil, common.NewError(common.DbError, "unknown table %d", tableID)
	}
	return c.file, nil
}

func newPipelineFixture(t *testing.T) (*storage.BufferPool, *storage.HeapFile) {
	t.Helper()
	desc := storage.NewTupleDesc([]common.Type{common.IntType, common.StringType}, []string{"id", "name"})
	tableID := common.TableID(1)
	path := filepath.Join(t.TempDir(), "pipeline.dat")

	locks := transaction.NewLockManager()
	log := logging.NewMemoryLogManager()
	cat := &fixedCatalog{tableID: tableID}
	bp := storage.NewBufferPool(8, cat, locks, log)

	hf, err := storage.OpenHeapFile(path, tableID, desc, bp)
	require.NoError(t, err)
	cat.file = hf

	return bp, hf
}

func TestInsertThenSeqScan(t *testing.T) {
	bp, hf := newPipelineFixture(t)
	tid := common.TransactionID(1)

	rows := []*storage.Tuple{}
	for i := int32(0); i < 5; i++ {
		rows = append(rows, storage.NewTuple(hf.TupleDesc(), []storage.Field{
			storage.IntField{Value: i}, storage.StringField{Value: "row"},
		}))
	}
	source := &fakeOperator{desc: hf.TupleDesc(), tuples: rows}
	ins := NewInsert(source, bp, tid, hf.TableID())

	require.NoError(t, ins.Open())
	ok, err := ins.HasNext()
	require.NoError(t, err)
	require.True(t, ok)
	result, err := ins.Next()
	require.NoError(t, err)
	require.Equal(t, int32(5), result.GetField(0).(storage.IntField).Value)

	ok, err = ins.HasNext()
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, ins.Close())
	require.NoError(t, bp.TransactionComplete(tid, true))

	tid2 := common.TransactionID(2)
	scan := NewSeqScan(hf, tid2)
	require.NoError(t, scan.Open())
	defer scan.Close()
	got := drain(t, scan)
	require.Len(t, got, 5)
}

func TestFilterPassesOnlyMatching(t *testing.T) {
	bp, hf := newPipelineFixture(t)
	tid := common.TransactionID(1)
	for i := int32(0); i < 10; i++ {
		row := storage.NewTuple(hf.TupleDesc(), []storage.Field{
			storage.IntField{Value: i}, storage.StringField{Value: "row"},
		})
		require.NoError(t, bp.InsertTuple(tid, hf.TableID(), row))
	}
	require.NoError(t, bp.TransactionComplete(tid, true))

	tid2 := common.TransactionID(2)
	scan := NewSeqScan(hf, tid2)
	filt := NewFilter(Predicate{FieldIndex: 0, Op: common.GreaterThanOrEq, Operand: storage.IntField{Value: 5}}, scan)

	require.NoError(t, filt.Open())
	defer filt.Close()
	got := drain(t, filt)
	require.Len(t, got, 5)
}

func TestDeleteRemovesMatchedRows(t *testing.T) {
	bp, hf := newPipelineFixture(t)
	tid := common.TransactionID(1)
	for i := int32(0); i < 4; i++ {
		row := storage.NewTuple(hf.TupleDesc(), []storage.Field{
			storage.IntField{Value: i}, storage.StringField{Value: "row"},
		})
		require.NoError(t, bp.InsertTuple(tid, hf.TableID(), row))
	}
	require.NoError(t, bp.TransactionComplete(tid, true))

	tid2 := common.TransactionID(2)
	scan := NewSeqScan(hf, tid2)
	del := NewDelete(scan, bp, tid2)
	require.NoError(t, del.Open())
	ok, err := del.HasNext()
	require.NoError(t, err)
	require.True(t, ok)
	result, err := del.Next()
	require.NoError(t, err)
	require.Equal(t, int32(4), result.GetField(0).(storage.IntField).Value)
	require.NoError(t, del.Close())
	require.NoError(t, bp.TransactionComplete(tid2, true))

	tid3 := common.TransactionID(3)
	scan2 := NewSeqScan(hf, tid3)
	require.NoError(t, scan2.Open())
	defer scan2.Close()
	ok, err = scan2.HasNext()
	require.NoError(t, err)
	require.False(t, ok)
}
