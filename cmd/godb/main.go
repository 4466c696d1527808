// Command godb runs a small scripted demo over the storage engine: it
// creates a table, inserts a batch of rows through the buffer pool's
// InsertTuple, and prints a grouped aggregate computed by scanning them back out. It
// exists to exercise the whole stack end to end, not as a SQL shell.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/jjasminechii/godb"
	"github.com/jjasminechii/godb/common"
	"github.com/jjasminechii/godb/execution"
	"github.com/jjasminechii/godb/storage"
)

func main() {
	dataDir := flag.String("data", "", "directory to store table files and catalog metadata in")
	bufferPages := flag.Int("buffer-pages", 16, "number of pages the buffer pool caches")
	flag.Parse()

	dir := *dataDir
	if dir == "" {
		var err error
		dir, err = os.MkdirTemp("", "godb-demo-")
		if err != nil {
			log.Fatalf("creating temp data dir: %v", err)
		}
		defer os.RemoveAll(dir)
	}

	if err := run(dir, *bufferPages); err != nil {
		log.Fatal(err)
	}
}

func run(dataDir string, bufferPages int) error {
	eng, err := godb.NewEngine(godb.Config{DataDir: dataDir, BufferPoolPages: bufferPages})
	if err != nil {
		return fmt.Errorf("starting engine: %w", err)
	}

	desc := storage.NewTupleDesc(
		[]common.Type{common.StringType, common.IntType},
		[]string{"category", "amount"},
	)
	tableID, err := eng.CreateTable("sales", desc, []string{"category", "amount"})
	if err != nil {
		return fmt.Errorf("creating table: %w", err)
	}

	if err := insertSampleRows(eng, tableID, desc); err != nil {
		return fmt.Errorf("inserting rows: %w", err)
	}

	return printCategoryTotals(eng, tableID)
}

func insertSampleRows(eng *godb.Engine, tableID common.TableID, desc *storage.TupleDesc) error {
	rows := []struct {
		category string
		amount   int32
	}{
		{"produce", 12}, {"produce", 8}, {"dairy", 20},
		{"dairy", 5}, {"bakery", 7}, {"produce", 15},
	}

	tid := eng.BeginTransaction()
	for _, r := range rows {
		tup := storage.NewTuple(desc, []storage.Field{
			storage.StringField{Value: r.category},
			storage.IntField{Value: r.amount},
		})
		if err := eng.BufferPool.InsertTuple(tid, tableID, tup); err != nil {
			_ = eng.Abort(tid)
			return err
		}
	}
	return eng.Commit(tid)
}

func printCategoryTotals(eng *godb.Engine, tableID common.TableID) error {
	tid := eng.BeginTransaction()
	dbFile, err := eng.Catalog.GetDatabaseFile(tableID)
	if err != nil {
		return err
	}
	hf := dbFile.(*storage.HeapFile)

	scan := execution.NewSeqScan(hf, tid)
	agg, err := execution.NewAggregate(scan, 1, 0, execution.Sum)
	if err != nil {
		return err
	}

	if err := agg.Open(); err != nil {
		return err
	}
	defer agg.Close()

	for {
		ok, err := agg.HasNext()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		t, err := agg.Next()
		if err != nil {
			return err
		}
		fmt.Printf("%s\t%s\n", t.GetField(0), t.GetField(1))
	}

	return eng.Commit(tid)
}
