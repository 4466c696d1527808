package storage

import (
	"bytes"

	"github.com/jjasminechii/godb/common"
)

// HeapPage is a single fixed-size page of a HeapFile: a slot-usage bitmap
// header followed by a fixed number of fixed-width tuple slots. The number
// of slots N is the largest value such that the header (ceil(N/8) bytes)
// plus N tuple-sized slots fits within PageSize:
//
//	N = floor((PageSize*8) / (tupleSize*8 + 1))
//
// Any bytes beyond the header and slot area are unused padding, kept zeroed.
type HeapPage struct {
	desc       *TupleDesc
	pid        common.PageID
	numSlots   int
	header     bitmap
	tuples     []*Tuple // len == numSlots; nil entries mark empty slots
	dirty      bool
	dirtyBy    common.TransactionID
	beforeImg  []byte
}

// numSlotsFor returns the slot count for a page holding tuples of the given
// schema: the largest N with ceil(N/8) + N*tupleSize <= PageSize.
func numSlotsFor(desc *TupleDesc) int {
	tupleSize := desc.Size()
	return (common.PageSize * 8) / (tupleSize*8 + 1)
}

// NewHeapPage constructs an empty HeapPage for pid with the given schema.
func NewHeapPage(pid common.PageID, desc *TupleDesc) *HeapPage {
	n := numSlotsFor(desc)
	hp := &HeapPage{
		desc:     desc,
		pid:      pid,
		numSlots: n,
		header:   newBitmap(make([]byte, bitmapHeaderSize(n))),
		tuples:   make([]*Tuple, n),
	}
	hp.beforeImg = hp.GetPageData()
	return hp
}

// NewHeapPageFromData reconstructs a HeapPage from a PageSize-byte buffer
// previously produced by GetPageData.
func NewHeapPageFromData(pid common.PageID, desc *TupleDesc, data []byte) *HeapPage {
	common.Assert(len(data) == common.PageSize, "heap page data must be PageSize bytes, got %d", len(data))
	n := numSlotsFor(desc)
	headerLen := bitmapHeaderSize(n)
	hp := &HeapPage{
		desc:     desc,
		pid:      pid,
		numSlots: n,
		header:   newBitmap(append([]byte(nil), data[:headerLen]...)),
		tuples:   make([]*Tuple, n),
	}
	tupleSize := desc.Size()
	off := headerLen
	for i := 0; i < n; i++ {
		if hp.header.get(i) {
			slot := data[off : off+tupleSize]
			hp.tuples[i] = ReadTuple(desc, slot, common.RecordID{PageID: pid, Slot: i})
		}
		off += tupleSize
	}
	hp.beforeImg = append([]byte(nil), data...)
	return hp
}

// PageID returns the id of this page.
func (hp *HeapPage) PageID() common.PageID { return hp.pid }

// GetNumEmptySlots returns the count of slots not currently occupied by a
// tuple.
func (hp *HeapPage) GetNumEmptySlots() int {
	return hp.numSlots - hp.header.countSet(hp.numSlots)
}

// IsSlotUsed reports whether slot i currently holds a tuple.
func (hp *HeapPage) IsSlotUsed(i int) bool {
	common.Assert(i >= 0 && i < hp.numSlots, "slot %d out of range", i)
	return hp.header.get(i)
}

func (hp *HeapPage) markSlotUsed(i int, used bool) {
	hp.header.set(i, used)
}

// InsertTuple writes t into the first empty slot and records that slot's
// RecordID on t. It returns DbError if the page has no empty slot, or
// IllegalArgumentError if t's schema does not match the page's.
func (hp *HeapPage) InsertTuple(t *Tuple) error {
	if !t.Desc.Equals(hp.desc) {
		return common.NewError(common.IllegalArgumentError, "tuple schema does not match page schema")
	}
	for i := 0; i < hp.numSlots; i++ {
		if !hp.IsSlotUsed(i) {
			hp.markSlotUsed(i, true)
			t.RID = common.RecordID{PageID: hp.pid, Slot: i}
			hp.tuples[i] = t
			hp.dirty = true
			return nil
		}
	}
	return common.NewError(common.DbError, "page %s has no empty slots", hp.pid)
}

// DeleteTuple removes the tuple at rid.Slot. It returns DbError if rid does
// not refer to this page or the slot is already empty.
func (hp *HeapPage) DeleteTuple(rid common.RecordID) error {
	if rid.PageID != hp.pid {
		return common.NewError(common.DbError, "record %s does not belong to page %s", rid, hp.pid)
	}
	if rid.Slot < 0 || rid.Slot >= hp.numSlots || !hp.IsSlotUsed(rid.Slot) {
		return common.NewError(common.DbError, "slot %d is not occupied on page %s", rid.Slot, hp.pid)
	}
	hp.markSlotUsed(rid.Slot, false)
	hp.tuples[rid.Slot] = nil
	hp.dirty = true
	return nil
}

// Iterator returns the occupied tuples on this page in slot order.
func (hp *HeapPage) Iterator() []*Tuple {
	out := make([]*Tuple, 0, hp.numSlots-hp.GetNumEmptySlots())
	for i := 0; i < hp.numSlots; i++ {
		if hp.tuples[i] != nil {
			out = append(out, hp.tuples[i])
		}
	}
	return out
}

// GetPageData serializes the page to a fresh PageSize-byte buffer: the
// bitmap header, then each slot's tuple bytes (zeroed if empty), then zero
// padding out to PageSize.
func (hp *HeapPage) GetPageData() []byte {
	var buf bytes.Buffer
	buf.Write(hp.header.bytes)
	tupleSize := hp.desc.Size()
	for i := 0; i < hp.numSlots; i++ {
		if hp.tuples[i] != nil {
			hp.tuples[i].WriteTo(&buf)
		} else {
			buf.Write(make([]byte, tupleSize))
		}
	}
	out := buf.Bytes()
	if len(out) < common.PageSize {
		out = append(out, make([]byte, common.PageSize-len(out))...)
	}
	common.Assert(len(out) == common.PageSize, "serialized heap page is %d bytes, want %d", len(out), common.PageSize)
	return out
}

// IsDirty reports whether the page has been modified since it was last
// flushed.
func (hp *HeapPage) IsDirty() bool { return hp.dirty }

// MarkDirty sets or clears the page's dirty flag.
func (hp *HeapPage) MarkDirty(dirty bool) { hp.dirty = dirty }

// MarkDirtyBy sets the page dirty and records which transaction dirtied it,
// so the buffer pool can attribute the eventual write-ahead log record to
// the right transaction.
func (hp *HeapPage) MarkDirtyBy(tid common.TransactionID) {
	hp.dirty = true
	hp.dirtyBy = tid
}

// DirtiedBy returns the transaction that last dirtied this page.
func (hp *HeapPage) DirtiedBy() common.TransactionID { return hp.dirtyBy }

// GetBeforeImage returns a HeapPage snapshotting this page's contents as of
// the last call to SetBeforeImage (or construction, if never called).
func (hp *HeapPage) GetBeforeImage() *HeapPage {
	return NewHeapPageFromData(hp.pid, hp.desc, hp.beforeImg)
}

// SetBeforeImage snapshots the page's current serialized contents so a
// future GetBeforeImage call returns this state.
func (hp *HeapPage) SetBeforeImage() {
	hp.beforeImg = hp.GetPageData()
}
