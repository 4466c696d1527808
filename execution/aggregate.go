package execution

import (
	"github.com/jjasminechii/godb/common"
	"github.com/jjasminechii/godb/storage"
)

// Aggregate wraps a child operator, consuming its entire output and
// exposing the aggregated result tuples. The aggregate field's type
// selects which concrete Aggregator backs it: IntegerAggregator for
// IntType, StringAggregator for StringType.
type Aggregate struct {
	child        Operator
	aggField     int
	groupByField int
	op           AggOp

	agg    Aggregator
	result Operator
}

// NewAggregate constructs an Aggregate over child's output, aggregating
// aggField with op and grouping by groupByField (NoGrouping for none). It
// returns IllegalArgumentError if op is unsupported for the aggregate
// field's type (e.g. SUM over a StringType field).
func NewAggregate(child Operator, aggField int, groupByField int, op AggOp) (*Aggregate, error) {
	desc := child.TupleDesc()
	var groupByType common.Type
	if groupByField != NoGrouping {
		groupByType = desc.FieldType(groupByField)
	}

	var agg Aggregator
	switch desc.FieldType(aggField) {
	case common.IntType:
		agg = NewIntegerAggregator(groupByField, groupByType, aggField, op)
	case common.StringType:
		sa, err := NewStringAggregator(groupByField, groupByType, aggField, op)
		if err != nil {
			return nil, err
		}
		agg = sa
	default:
		return nil, common.NewError(common.IllegalArgumentError, "unsupported aggregate field type")
	}

	return &Aggregate{child: child, aggField: aggField, groupByField: groupByField, op: op, agg: agg}, nil
}

// TupleDesc returns the aggregate's output schema: [groupByType, IntType]
// named (groupVal, aggName) if grouping, or just [IntType] named aggName
// otherwise. The schema depends on whether a group-by field was given, not
// on which field is being aggregated.
func (a *Aggregate) TupleDesc() *storage.TupleDesc {
	grouping := a.groupByField != NoGrouping
	groupByType := common.IntType
	if grouping {
		groupByType = a.child.TupleDesc().FieldType(a.groupByField)
	}
	return outputTupleDesc(grouping, groupByType, a.op.String())
}

func (a *Aggregate) Open() error {
	if err := a.child.Open(); err != nil {
		return err
	}
	for {
		ok, err := a.child.HasNext()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		t, err := a.child.Next()
		if err != nil {
			return err
		}
		if err := a.agg.MergeTupleIntoGroup(t); err != nil {
			return err
		}
	}
	result, err := a.agg.Iterator()
	if err != nil {
		return err
	}
	a.result = result
	return a.result.Open()
}

func (a *Aggregate) HasNext() (bool, error) {
	if a.result == nil {
		return false, common.NewError(common.IllegalStateError, "aggregate operator used outside open/close lifecycle")
	}
	return a.result.HasNext()
}

func (a *Aggregate) Next() (*storage.Tuple, error) {
	if a.result == nil {
		return nil, common.NewError(common.IllegalStateError, "aggregate operator used outside open/close lifecycle")
	}
	return a.result.Next()
}

func (a *Aggregate) Rewind() error {
	if err := a.child.Close(); err != nil {
		return err
	}
	if a.result != nil {
		if err := a.result.Close(); err != nil {
			return err
		}
	}
	return a.Open()
}

func (a *Aggregate) Close() error {
	if a.result != nil {
		if err := a.result.Close(); err != nil {
			return err
		}
	}
	return a.child.Close()
}

// GetChildren returns Aggregate's single child.
func (a *Aggregate) GetChildren() []Operator { return []Operator{a.child} }

// SetChildren replaces Aggregate's single child.
func (a *Aggregate) SetChildren(children []Operator) { a.child = children[0] }
