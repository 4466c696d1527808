// Package execution implements the pull-based (Volcano-style) iterator
// pipeline operators run through: a tree of Operators is driven by
// repeatedly calling HasNext/Next on the root after an initial Open.
package execution

import (
	"github.com/jjasminechii/godb/common"
	"github.com/jjasminechii/godb/storage"
)

// Operator is the contract every node in the query-execution tree
// implements. The lifecycle is strict: Open must be called exactly once
// before any HasNext/Next call, and no method but Close (or another Open)
// may be called after Close. Calling HasNext/Next before Open, or any
// method after Close, returns IllegalStateError. Calling Next once HasNext
// has reported false returns NoSuchElementError.
type Operator interface {
	// Open prepares the operator to produce tuples, recursively opening any
	// children.
	Open() error
	// HasNext reports whether another tuple is available without consuming
	// it.
	HasNext() (bool, error)
	// Next returns and consumes the next tuple.
	Next() (*storage.Tuple, error)
	// Rewind resets the operator to the state it was in immediately after
	// Open, as if by Close followed by Open.
	Rewind() error
	// Close releases any resources held and ends the operator's lifecycle.
	Close() error
	// TupleDesc returns the schema of tuples this operator produces.
	TupleDesc() *storage.TupleDesc
	// GetChildren returns this operator's children, for tree rewriting. A
	// leaf operator returns nil.
	GetChildren() []Operator
	// SetChildren replaces this operator's children, for tree rewriting. A
	// leaf operator ignores the call.
	SetChildren(children []Operator)
}

// lookahead is a helper implementing the "pull one tuple ahead
// of time" pattern common to pull-based iterators: subclasses implement
// fetchNext, and lookahead turns repeated fetchNext calls into the
// HasNext/Next contract, including IllegalState/NoSuchElement bookkeeping.
// It is composed into concrete operators rather than used via embedding
// inheritance, so each operator controls exactly what it exposes.
type lookahead struct {
	fetchNext func() (*storage.Tuple, error)
	buffered  *storage.Tuple
	done      bool
	opened    bool
	closed    bool
}

func (la *lookahead) reset(fetchNext func() (*storage.Tuple, error)) {
	la.fetchNext = fetchNext
	la.buffered = nil
	la.done = false
	la.opened = true
	la.closed = false
}

func (la *lookahead) markClosed() {
	la.closed = true
	la.opened = false
	la.buffered = nil
}

func (la *lookahead) hasNext() (bool, error) {
	if !la.opened || la.closed {
		return false, common.NewError(common.IllegalStateError, "operator used outside open/close lifecycle")
	}
	if la.buffered != nil {
		return true, nil
	}
	if la.done {
		return false, nil
	}
	t, err := la.fetchNext()
	if err != nil {
		return false, err
	}
	if t == nil {
		la.done = true
		return false, nil
	}
	la.buffered = t
	return true, nil
}

func (la *lookahead) next() (*storage.Tuple, error) {
	ok, err := la.hasNext()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.NewError(common.NoSuchElementError, "operator exhausted")
	}
	t := la.buffered
	la.buffered = nil
	return t, nil
}
