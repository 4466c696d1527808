package godb

import (
	"testing"

	"github.com/jjasminechii/godb/common"
	"github.com/jjasminechii/godb/execution"
	"github.com/jjasminechii/godb/storage"
	"github.com/stretchr/testify/require"
)

func TestEngineCreateTableInsertCommitScan(t *testing.T) {
	dir := t.TempDir()
	eng, err := NewEngine(Config{DataDir: dir, BufferPoolPages: 8})
	require.NoError(t, err)

	desc := storage.NewTupleDesc([]common.Type{common.IntType, common.StringType}, []string{"id", "name"})
	tableID, err := eng.CreateTable("people", desc, []string{"id", "name"})
	require.NoError(t, err)

	tid := eng.BeginTransaction()
	for i := int32(0); i < 3; i++ {
		tup := storage.NewTuple(desc, []storage.Field{
			storage.IntField{Value: i}, storage.StringField{Value: "name"},
		})
		require.NoError(t, eng.BufferPool.InsertTuple(tid, tableID, tup))
	}
	require.NoError(t, eng.Commit(tid))

	tid2 := eng.BeginTransaction()
	dbFile, err := eng.Catalog.GetDatabaseFile(tableID)
	require.NoError(t, err)
	hf := dbFile.(*storage.HeapFile)
	scan := execution.NewSeqScan(hf, tid2)
	require.NoError(t, scan.Open())
	defer scan.Close()

	count := 0
	for {
		ok, err := scan.HasNext()
		require.NoError(t, err)
		if !ok {
			break
		}
		_, err = scan.Next()
		require.NoError(t, err)
		count++
	}
	require.Equal(t, 3, count)
	require.NoError(t, eng.Commit(tid2))
}

func TestEngineReopensExistingTable(t *testing.T) {
	dir := t.TempDir()
	desc := storage.NewTupleDesc([]common.Type{common.IntType}, []string{"id"})

	eng, err := NewEngine(Config{DataDir: dir, BufferPoolPages: 8})
	require.NoError(t, err)
	tableID, err := eng.CreateTable("nums", desc, []string{"id"})
	require.NoError(t, err)

	tid := eng.BeginTransaction()
	require.NoError(t, eng.BufferPool.InsertTuple(tid, tableID, storage.NewTuple(desc, []storage.Field{storage.IntField{Value: 1}})))
	require.NoError(t, eng.Commit(tid))

	eng2, err := NewEngine(Config{DataDir: dir, BufferPoolPages: 8})
	require.NoError(t, err)
	id2, err := eng2.Catalog.GetTableID("nums")
	require.NoError(t, err)
	require.Equal(t, tableID, id2)
}
