package execution

import "github.com/jjasminechii/godb/storage"

// aggregatorIterator is an Operator over a slice of already-computed
// aggregate result tuples. Both IntegerAggregator and StringAggregator
// materialize their results eagerly and hand them to this same iterator
// type, rather than each defining its own.
type aggregatorIterator struct {
	desc    *storage.TupleDesc
	results []*storage.Tuple
	idx     int
	la      lookahead
}

func newAggregatorIterator(desc *storage.TupleDesc, results []*storage.Tuple) *aggregatorIterator {
	return &aggregatorIterator{desc: desc, results: results}
}

func (it *aggregatorIterator) Open() error {
	it.idx = 0
	it.la.reset(it.fetchNext)
	return nil
}

func (it *aggregatorIterator) fetchNext() (*storage.Tuple, error) {
	if it.idx >= len(it.results) {
		return nil, nil
	}
	t := it.results[it.idx]
	it.idx++
	return t, nil
}

func (it *aggregatorIterator) HasNext() (bool, error)       { return it.la.hasNext() }
func (it *aggregatorIterator) Next() (*storage.Tuple, error) { return it.la.next() }
func (it *aggregatorIterator) TupleDesc() *storage.TupleDesc { return it.desc }

func (it *aggregatorIterator) Rewind() error {
	return it.Open()
}

func (it *aggregatorIterator) Close() error {
	it.la.markClosed()
	return nil
}

// GetChildren returns nil: aggregatorIterator is a leaf operator over
// already-materialized results.
func (it *aggregatorIterator) GetChildren() []Operator { return nil }

// SetChildren is a no-op: aggregatorIterator is a leaf operator.
func (it *aggregatorIterator) SetChildren(children []Operator) {}
