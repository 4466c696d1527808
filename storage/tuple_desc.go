package storage

import (
	"strings"

	"github.com/jjasminechii/godb/common"
)

// tdItem pairs a field's type with its (possibly empty) name.
type tdItem struct {
	fieldType common.Type
	fieldName string
}

func (it tdItem) String() string {
	return it.fieldName + "(" + it.fieldType.String() + ")"
}

// TupleDesc describes the schema of a tuple: an ordered, non-empty sequence
// of (type, optional name) pairs. Two TupleDescs are Equals if they have the
// same number of fields and the same type at every index; names are not
// considered.
type TupleDesc struct {
	items []tdItem
}

// NewTupleDesc builds a TupleDesc from parallel type/name slices. fieldNames
// may be nil, in which case every field is anonymous. types must contain at
// least one entry.
func NewTupleDesc(types []common.Type, fieldNames []string) *TupleDesc {
	common.Assert(len(types) > 0, "TupleDesc must have at least one field")
	items := make([]tdItem, len(types))
	for i, t := range types {
		name := ""
		if fieldNames != nil {
			name = fieldNames[i]
		}
		items[i] = tdItem{fieldType: t, fieldName: name}
	}
	return &TupleDesc{items: items}
}

// NumFields returns the number of fields described.
func (td *TupleDesc) NumFields() int {
	return len(td.items)
}

// FieldType returns the type of the i-th field.
func (td *TupleDesc) FieldType(i int) common.Type {
	common.Assert(i >= 0 && i < len(td.items), "field index %d out of range", i)
	return td.items[i].fieldType
}

// FieldName returns the (possibly empty) name of the i-th field.
func (td *TupleDesc) FieldName(i int) string {
	common.Assert(i >= 0 && i < len(td.items), "field index %d out of range", i)
	return td.items[i].fieldName
}

// FieldIndex returns the index of the first field named name, or
// NoSuchElementError if no field has that name.
func (td *TupleDesc) FieldIndex(name string) (int, error) {
	for i, it := range td.items {
		if it.fieldName != "" && it.fieldName == name {
			return i, nil
		}
	}
	return -1, common.NewError(common.NoSuchElementError, "no field named %q", name)
}

// Size returns the fixed on-disk size, in bytes, of a tuple with this
// schema: the sum of each field's type size.
func (td *TupleDesc) Size() int {
	size := 0
	for _, it := range td.items {
		size += it.fieldType.Size()
	}
	return size
}

// Equals reports whether two TupleDescs have the same arity and the same
// type at every index. Field names are ignored.
func (td *TupleDesc) Equals(other *TupleDesc) bool {
	if other == nil || len(td.items) != len(other.items) {
		return false
	}
	for i := range td.items {
		if td.items[i].fieldType != other.items[i].fieldType {
			return false
		}
	}
	return true
}

// MergeTupleDescs concatenates two schemas: the result has td1.NumFields()
// fields from td1 followed by td2.NumFields() fields from td2.
func MergeTupleDescs(td1, td2 *TupleDesc) *TupleDesc {
	items := make([]tdItem, 0, len(td1.items)+len(td2.items))
	items = append(items, td1.items...)
	items = append(items, td2.items...)
	return &TupleDesc{items: items}
}

func (td *TupleDesc) String() string {
	parts := make([]string, len(td.items))
	for i, it := range td.items {
		parts[i] = it.String()
	}
	return strings.Join(parts, ",")
}
