package execution

import (
	"github.com/jjasminechii/godb/common"
	"github.com/jjasminechii/godb/storage"
)

// Predicate evaluates a single comparison between one field of a tuple and
// a fixed constant value.
type Predicate struct {
	FieldIndex int
	Op         common.PredOp
	Operand    storage.Field
}

// Filter reports whether t satisfies p.
func (p Predicate) Filter(t *storage.Tuple) (bool, error) {
	return t.GetField(p.FieldIndex).Compare(p.Op, p.Operand)
}
