package execution

import (
	"github.com/jjasminechii/godb/common"
	"github.com/jjasminechii/godb/storage"
)

// AggOp names a supported aggregate operator.
type AggOp int8

const (
	Min AggOp = iota
	Max
	Sum
	Avg
	Count
)

func (op AggOp) String() string {
	switch op {
	case Min:
		return "min"
	case Max:
		return "max"
	case Sum:
		return "sum"
	case Avg:
		return "avg"
	case Count:
		return "count"
	default:
		return "?"
	}
}

// NoGrouping is the sentinel group-by field index meaning "aggregate the
// whole input into a single group".
const NoGrouping = -1

// Aggregator accumulates tuples into per-group running state and produces
// the aggregated result rows once every input tuple has been merged.
type Aggregator interface {
	// MergeTupleIntoGroup folds t into its group's running aggregate state.
	MergeTupleIntoGroup(t *storage.Tuple) error
	// Iterator returns an Operator over the aggregator's current results.
	// Results are computed eagerly at the time Iterator is called, not
	// streamed as groups finish, since the input must be fully consumed
	// before any group's final value (notably AVG) is known.
	Iterator() (Operator, error)
}

// groupKey is the comparable value used to key per-group running state. It
// is either a storage.Field value (IntField/StringField are themselves
// comparable) or the untyped sentinel below when there is no grouping.
type groupKey interface{}

var noGroupingKey groupKey = "\x00__no_grouping__"

func outputTupleDesc(grouping bool, groupByType common.Type, aggName string) *storage.TupleDesc {
	if !grouping {
		return storage.NewTupleDesc([]common.Type{common.IntType}, []string{aggName})
	}
	return storage.NewTupleDesc([]common.Type{groupByType, common.IntType}, []string{"groupVal", aggName})
}

func groupKeyFor(t *storage.Tuple, groupByField int) groupKey {
	if groupByField == NoGrouping {
		return noGroupingKey
	}
	return t.GetField(groupByField)
}

func groupResultTuple(desc *storage.TupleDesc, grouping bool, key groupKey, value int32) *storage.Tuple {
	if !grouping {
		return storage.NewTuple(desc, []storage.Field{storage.IntField{Value: value}})
	}
	return storage.NewTuple(desc, []storage.Field{key.(storage.Field), storage.IntField{Value: value}})
}
