package execution

import (
	"github.com/jjasminechii/godb/common"
	"github.com/jjasminechii/godb/storage"
)

// StringAggregator aggregates a StringType field, optionally grouped by
// another field. COUNT is the only supported operator: MIN/MAX/SUM/AVG have
// no defined meaning over strings in this engine.
type StringAggregator struct {
	groupByField int
	groupByType  common.Type
	aggField     int

	order  []groupKey
	counts map[groupKey]int32
}

// NewStringAggregator constructs a COUNT aggregator over aggField, grouped
// by groupByField (NoGrouping for no grouping). It returns
// IllegalArgumentError if op is anything but Count.
func NewStringAggregator(groupByField int, groupByType common.Type, aggField int, op AggOp) (*StringAggregator, error) {
	if op != Count {
		return nil, common.NewError(common.IllegalArgumentError, "string aggregator only supports COUNT, got %s", op)
	}
	return &StringAggregator{
		groupByField: groupByField,
		groupByType:  groupByType,
		aggField:     aggField,
		counts:       make(map[groupKey]int32),
	}, nil
}

func (a *StringAggregator) MergeTupleIntoGroup(t *storage.Tuple) error {
	key := groupKeyFor(t, a.groupByField)
	if _, ok := a.counts[key]; !ok {
		a.order = append(a.order, key)
	}
	a.counts[key]++
	return nil
}

func (a *StringAggregator) Iterator() (Operator, error) {
	grouping := a.groupByField != NoGrouping
	desc := outputTupleDesc(grouping, a.groupByType, Count.String())

	results := make([]*storage.Tuple, 0, len(a.order))
	for _, key := range a.order {
		results = append(results, groupResultTuple(desc, grouping, key, a.counts[key]))
	}
	return newAggregatorIterator(desc, results), nil
}
