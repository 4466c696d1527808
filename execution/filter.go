package execution

import (
	"github.com/jjasminechii/godb/storage"
)

// Filter passes through only the child tuples that satisfy a Predicate.
type Filter struct {
	pred  Predicate
	child Operator
	la    lookahead
}

// NewFilter constructs a Filter applying pred to child's output.
func NewFilter(pred Predicate, child Operator) *Filter {
	return &Filter{pred: pred, child: child}
}

func (f *Filter) Open() error {
	if err := f.child.Open(); err != nil {
		return err
	}
	f.la.reset(f.fetchNext)
	return nil
}

func (f *Filter) fetchNext() (*storage.Tuple, error) {
	for {
		ok, err := f.child.HasNext()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
		t, err := f.child.Next()
		if err != nil {
			return nil, err
		}
		keep, err := f.pred.Filter(t)
		if err != nil {
			return nil, err
		}
		if keep {
			return t, nil
		}
	}
}

func (f *Filter) HasNext() (bool, error)       { return f.la.hasNext() }
func (f *Filter) Next() (*storage.Tuple, error) { return f.la.next() }
func (f *Filter) TupleDesc() *storage.TupleDesc { return f.child.TupleDesc() }

// Rewind resets the filter to its state just after Open by closing and
// reopening its child, rather than merely clearing its own lookahead buffer
// and leaving the child mid-iteration.
func (f *Filter) Rewind() error {
	if err := f.child.Close(); err != nil {
		return err
	}
	return f.Open()
}

func (f *Filter) Close() error {
	f.la.markClosed()
	return f.child.Close()
}

// GetChildren returns Filter's single child.
func (f *Filter) GetChildren() []Operator { return []Operator{f.child} }

// SetChildren replaces Filter's single child.
func (f *Filter) SetChildren(children []Operator) { f.child = children[0] }
