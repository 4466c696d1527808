package storage

import (
	"bytes"
	"strings"

	"github.com/jjasminechii/godb/common"
)

// Tuple is a single row: an ordered list of Fields conforming to a
// TupleDesc, plus the RecordID of the slot it currently occupies (zero value
// if the tuple is not yet, or no longer, resident on a page).
type Tuple struct {
	Desc   *TupleDesc
	Fields []Field
	RID    common.RecordID
}

// NewTuple builds a Tuple from a schema and field values. The number of
// fields must match desc.NumFields() and each field's Type must match the
// schema's declared type at that index.
func NewTuple(desc *TupleDesc, fields []Field) *Tuple {
	common.Assert(len(fields) == desc.NumFields(), "tuple has %d fields, schema wants %d", len(fields), desc.NumFields())
	for i, f := range fields {
		common.Assert(f.Type() == desc.FieldType(i), "field %d type mismatch", i)
	}
	return &Tuple{Desc: desc, Fields: fields}
}

// GetField returns the i-th field's value.
func (t *Tuple) GetField(i int) Field {
	common.Assert(i >= 0 && i < len(t.Fields), "field index %d out of range", i)
	return t.Fields[i]
}

// WriteTo appends the tuple's fixed-width on-disk encoding to buf, one field
// at a time in schema order.
func (t *Tuple) WriteTo(buf *bytes.Buffer) {
	for _, f := range t.Fields {
		f.WriteTo(buf)
	}
}

// ReadTuple decodes a single tuple from buf according to desc, assigning it
// the given RecordID. buf must contain at least desc.Size() bytes.
func ReadTuple(desc *TupleDesc, buf []byte, rid common.RecordID) *Tuple {
	fields := make([]Field, desc.NumFields())
	off := 0
	for i := 0; i < desc.NumFields(); i++ {
		switch desc.FieldType(i) {
		case common.IntType:
			fields[i] = ReadIntField(buf[off:])
			off += common.IntSize
		case common.StringType:
			fields[i] = ReadStringField(buf[off:])
			off += common.StringSize
		}
	}
	return &Tuple{Desc: desc, Fields: fields, RID: rid}
}

// Equals reports whether two tuples have equal schemas and, field by field,
// equal values. RecordIDs are not considered.
func (t *Tuple) Equals(other *Tuple) bool {
	if other == nil || !t.Desc.Equals(other.Desc) {
		return false
	}
	for i := range t.Fields {
		eq, err := t.Fields[i].Compare(common.Equals, other.Fields[i])
		if err != nil || !eq {
			return false
		}
	}
	return true
}

// Merge concatenates two tuples into one whose schema is
// MergeTupleDescs(t1.Desc, t2.Desc) and whose fields are t1's followed by
// t2's. The merged tuple has a zero RecordID.
func Merge(t1, t2 *Tuple) *Tuple {
	desc := MergeTupleDescs(t1.Desc, t2.Desc)
	fields := make([]Field, 0, len(t1.Fields)+len(t2.Fields))
	fields = append(fields, t1.Fields...)
	fields = append(fields, t2.Fields...)
	return &Tuple{Desc: desc, Fields: fields}
}

func (t *Tuple) String() string {
	parts := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		parts[i] = f.String()
	}
	return strings.Join(parts, "\t")
}
