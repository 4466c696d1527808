package execution

import (
	"testing"

	"github.com/jjasminechii/godb/common"
	"github.com/jjasminechii/godb/storage"
	"github.com/stretchr/testify/require"
)

func aggTestDesc() *storage.TupleDesc {
	return storage.NewTupleDesc([]common.Type{common.StringType, common.IntType}, []string{"category", "amount"})
}

func aggTestTuple(category string, amount int32) *storage.Tuple {
	desc := aggTestDesc()
	return storage.NewTuple(desc, []storage.Field{storage.StringField{Value: category}, storage.IntField{Value: amount}})
}

func drain(t *testing.T, op Operator) []*storage.Tuple {
	t.Helper()
	var out []*storage.Tuple
	for {
		ok, err := op.HasNext()
		require.NoError(t, err)
		if !ok {
			break
		}
		tup, err := op.Next()
		require.NoError(t, err)
		out = append(out, tup)
	}
	return out
}

func TestIntegerAggregatorSumNoGrouping(t *testing.T) {
	agg := NewIntegerAggregator(NoGrouping, common.IntType, 1, Sum)
	for _, amt := range []int32{1, 2, 3, 4} {
		require.NoError(t, agg.MergeTupleIntoGroup(aggTestTuple("x", amt)))
	}
	it, err := agg.Iterator()
	require.NoError(t, err)
	require.NoError(t, it.Open())
	defer it.Close()

	results := drain(t, it)
	require.Len(t, results, 1)
	require.Equal(t, int32(10), results[0].GetField(0).(storage.IntField).Value)
}

func TestIntegerAggregatorAvgTruncatesTowardZero(t *testing.T) {
	agg := NewIntegerAggregator(NoGrouping, common.IntType, 1, Avg)
	for _, amt := range []int32{7, -7, 1} {
		require.NoError(t, agg.MergeTupleIntoGroup(aggTestTuple("x", amt)))
	}
	it, err := agg.Iterator()
	require.NoError(t, err)
	require.NoError(t, it.Open())
	defer it.Close()

	results := drain(t, it)
	require.Len(t, results, 1)
	require.Equal(t, int32(0), results[0].GetField(0).(storage.IntField).Value)
}

func TestIntegerAggregatorGroupingProducesOneRowPerGroup(t *testing.T) {
	agg := NewIntegerAggregator(0, common.StringType, 1, Sum)
	require.NoError(t, agg.MergeTupleIntoGroup(aggTestTuple("a", 1)))
	require.NoError(t, agg.MergeTupleIntoGroup(aggTestTuple("a", 2)))
	require.NoError(t, agg.MergeTupleIntoGroup(aggTestTuple("b", 10)))

	it, err := agg.Iterator()
	require.NoError(t, err)
	require.NoError(t, it.Open())
	defer it.Close()

	results := drain(t, it)
	require.Len(t, results, 2)
	totals := map[string]int32{}
	for _, r := range results {
		totals[r.GetField(0).(storage.StringField).Value] = r.GetField(1).(storage.IntField).Value
	}
	require.Equal(t, int32(3), totals["a"])
	require.Equal(t, int32(10), totals["b"])
}

func TestStringAggregatorRejectsNonCount(t *testing.T) {
	_, err := NewStringAggregator(NoGrouping, common.IntType, 0, Sum)
	require.Error(t, err)
	require.True(t, common.Is(err, common.IllegalArgumentError))
}

func TestStringAggregatorCounts(t *testing.T) {
	agg, err := NewStringAggregator(NoGrouping, common.IntType, 0, Count)
	require.NoError(t, err)
	require.NoError(t, agg.MergeTupleIntoGroup(aggTestTuple("a", 1)))
	require.NoError(t, agg.MergeTupleIntoGroup(aggTestTuple("b", 2)))

	it, err := agg.Iterator()
	require.NoError(t, err)
	require.NoError(t, it.Open())
	defer it.Close()

	results := drain(t, it)
	require.Len(t, results, 1)
	require.Equal(t, int32(2), results[0].GetField(0).(storage.IntField).Value)
}

func TestAggregateTupleDescKeysOnGroupingNotAggField(t *testing.T) {
	scan := &fakeOperator{desc: aggTestDesc()}
	agg, err := NewAggregate(scan, 1, NoGrouping, Sum)
	require.NoError(t, err)
	require.Equal(t, 1, agg.TupleDesc().NumFields())

	scan2 := &fakeOperator{desc: aggTestDesc()}
	agg2, err := NewAggregate(scan2, 1, 0, Sum)
	require.NoError(t, err)
	require.Equal(t, 2, agg2.TupleDesc().NumFields())
}

// fakeOperator is a minimal Operator test double over a fixed tuple slice.
type fakeOperator struct {
	desc    *storage.TupleDesc
	tuples  []*storage.Tuple
	idx     int
	opened  bool
}

func (f *fakeOperator) Open() error {
	f.idx = 0
	f.opened = true
	return nil
}
func (f *fakeOperator) HasNext() (bool, error) {
	if !f.opened {
		return false, common.NewError(common.IllegalStateError, "not open")
	}
	return f.idx < len(f.tuples), nil
}
func (f *fakeOperator) Next() (*storage.Tuple, error) {
	ok, err := f.HasNext()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.NewError(common.NoSuchElementError, "exhausted")
	}
	t := f.tuples[f.idx]
	f.idx++
	return t, nil
}
func (f *fakeOperator) Rewind() error              { f.idx = 0; return nil }
func (f *fakeOperator) Close() error                { f.opened = false; return nil }
func (f *fakeOperator) TupleDesc() *storage.TupleDesc { return f.desc }
func (f *fakeOperator) GetChildren() []Operator     { return nil }
func (f *fakeOperator) SetChildren(children []Operator) {}
