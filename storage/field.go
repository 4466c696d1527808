package storage

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/jjasminechii/godb/common"
)

// Field is a single typed value inside a Tuple. The field value types are a
// closed set: IntField and StringField.
type Field interface {
	// Type returns the field's declared type.
	Type() common.Type
	// Compare evaluates op between this field and other, which must be of
	// the same Type. It returns IllegalArgumentError if the types differ or
	// op is not supported for the type.
	Compare(op common.PredOp, other Field) (bool, error)
	// WriteTo appends the field's fixed-width on-disk encoding to buf.
	WriteTo(buf *bytes.Buffer)
	fmt.Stringer
}

// IntField is a 4-byte big-endian two's-complement integer value.
type IntField struct {
	Value int32
}

func (f IntField) Type() common.Type { return common.IntType }

func (f IntField) String() string { return fmt.Sprintf("%d", f.Value) }

func (f IntField) WriteTo(buf *bytes.Buffer) {
	var tmp [common.IntSize]byte
	binary.BigEndian.PutUint32(tmp[:], uint32(f.Value))
	buf.Write(tmp[:])
}

func (f IntField) Compare(op common.PredOp, other Field) (bool, error) {
	o, ok := other.(IntField)
	if !ok {
		return false, common.NewError(common.IllegalArgumentError, "cannot compare int field to %s", other.Type())
	}
	switch op {
	case common.Equals:
		return f.Value == o.Value, nil
	case common.NotEquals:
		return f.Value != o.Value, nil
	case common.LessThan:
		return f.Value < o.Value, nil
	case common.LessThanOrEq:
		return f.Value <= o.Value, nil
	case common.GreaterThan:
		return f.Value > o.Value, nil
	case common.GreaterThanOrEq:
		return f.Value >= o.Value, nil
	default:
		return false, common.NewError(common.IllegalArgumentError, "unsupported predicate %s for int field", op)
	}
}

// ReadIntField decodes an IntField from the next IntSize bytes of buf.
func ReadIntField(buf []byte) IntField {
	common.Assert(len(buf) >= common.IntSize, "buffer too small for int field")
	return IntField{Value: int32(binary.BigEndian.Uint32(buf[:common.IntSize]))}
}

// StringField is a variable-length string value stored on disk as a 4-byte
// big-endian length prefix followed by StringDataLen zero-padded bytes. Any
// value longer than StringDataLen is truncated when written.
type StringField struct {
	Value string
}

func (f StringField) Type() common.Type { return common.StringType }

func (f StringField) String() string { return f.Value }

func (f StringField) WriteTo(buf *bytes.Buffer) {
	v := f.Value
	if len(v) > common.StringDataLen {
		v = v[:common.StringDataLen]
	}
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(v)))
	buf.Write(lenBuf[:])
	buf.WriteString(v)
	buf.Write(make([]byte, common.StringDataLen-len(v)))
}

func (f StringField) Compare(op common.PredOp, other Field) (bool, error) {
	o, ok := other.(StringField)
	if !ok {
		return false, common.NewError(common.IllegalArgumentError, "cannot compare string field to %s", other.Type())
	}
	switch op {
	case common.Equals:
		return f.Value == o.Value, nil
	case common.NotEquals:
		return f.Value != o.Value, nil
	case common.LessThan:
		return f.Value < o.Value, nil
	case common.LessThanOrEq:
		return f.Value <= o.Value, nil
	case common.GreaterThan:
		return f.Value > o.Value, nil
	case common.GreaterThanOrEq:
		return f.Value >= o.Value, nil
	case common.Like:
		return strings.Contains(f.Value, o.Value), nil
	default:
		return false, common.NewError(common.IllegalArgumentError, "unsupported predicate %s for string field", op)
	}
}

// ReadStringField decodes a StringField from the next StringSize bytes of buf.
func ReadStringField(buf []byte) StringField {
	common.Assert(len(buf) >= common.StringSize, "buffer too small for string field")
	n := binary.BigEndian.Uint32(buf[:4])
	common.Assert(int(n) <= common.StringDataLen, "corrupt string field length %d", n)
	return StringField{Value: string(buf[4 : 4+n])}
}
