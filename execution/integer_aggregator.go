package execution

import (
	"github.com/jjasminechii/godb/common"
	"github.com/jjasminechii/godb/storage"
)

type intGroupState struct {
	count int32
	sum   int32
	min   int32
	max   int32
	seen  bool
}

// IntegerAggregator aggregates an IntType field, optionally grouped by
// another field, using MIN, MAX, SUM, AVG, or COUNT.
type IntegerAggregator struct {
	groupByField int
	groupByType  common.Type
	aggField     int
	op           AggOp

	order  []groupKey
	states map[groupKey]*intGroupState
}

// NewIntegerAggregator constructs an aggregator over aggField using op,
// grouped by groupByField (pass NoGrouping for no grouping).
func NewIntegerAggregator(groupByField int, groupByType common.Type, aggField int, op AggOp) *IntegerAggregator {
	return &IntegerAggregator{
		groupByField: groupByField,
		groupByType:  groupByType,
		aggField:     aggField,
		op:           op,
		states:       make(map[groupKey]*intGroupState),
	}
}

func (a *IntegerAggregator) MergeTupleIntoGroup(t *storage.Tuple) error {
	key := groupKeyFor(t, a.groupByField)
	st := a.states[key]
	if st == nil {
		st = &intGroupState{}
		a.states[key] = st
		a.order = append(a.order, key)
	}

	val := t.GetField(a.aggField).(storage.IntField).Value
	if !st.seen {
		st.min, st.max = val, val
		st.seen = true
	} else {
		if val < st.min {
			st.min = val
		}
		if val > st.max {
			st.max = val
		}
	}
	st.sum += val
	st.count++
	return nil
}

func (a *IntegerAggregator) value(st *intGroupState) int32 {
	switch a.op {
	case Min:
		return st.min
	case Max:
		return st.max
	case Sum:
		return st.sum
	case Avg:
		return st.sum / st.count
	case Count:
		return st.count
	default:
		common.Assert(false, "unreachable aggregate op %v", a.op)
		return 0
	}
}

func (a *IntegerAggregator) Iterator() (Operator, error) {
	grouping := a.groupByField != NoGrouping
	desc := outputTupleDesc(grouping, a.groupByType, a.op.String())

	results := make([]*storage.Tuple, 0, len(a.order))
	for _, key := range a.order {
		st := a.states[key]
		results = append(results, groupResultTuple(desc, grouping, key, a.value(st)))
	}
	return newAggregatorIterator(desc, results), nil
}
