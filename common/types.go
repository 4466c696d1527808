package common

import "fmt"

// Type identifies the closed set of field types GoDB supports.
type Type int8

const (
	IntType Type = iota
	StringType
)

const (
	// PageSize is the fixed number of bytes in a single page, including its
	// slot-usage bitmap header.
	PageSize = 4096
	// IntSize is the on-disk width, in bytes, of an IntType field.
	IntSize = 4
	// StringDataLen is the number of data bytes reserved for a StringType
	// field, not counting its 4-byte length prefix.
	StringDataLen = 128
	// StringSize is the full on-disk width, in bytes, of a StringType field:
	// a 4-byte big-endian length prefix followed by StringDataLen
	// zero-padded bytes.
	StringSize = 4 + StringDataLen
)

// Size returns the fixed-width storage size of the type in bytes.
func (t Type) Size() int {
	switch t {
	case IntType:
		return IntSize
	case StringType:
		return StringSize
	default:
		panic("unknown type")
	}
}

func (t Type) String() string {
	switch t {
	case IntType:
		return "int"
	case StringType:
		return "string"
	default:
		return "unknown"
	}
}

// PredOp names a comparison predicate that can be evaluated between two
// fields of the same type.
type PredOp int8

const (
	Equals PredOp = iota
	NotEquals
	LessThan
	LessThanOrEq
	GreaterThan
	GreaterThanOrEq
	Like
)

func (op PredOp) String() string {
	switch op {
	case Equals:
		return "="
	case NotEquals:
		return "<>"
	case LessThan:
		return "<"
	case LessThanOrEq:
		return "<="
	case GreaterThan:
		return ">"
	case GreaterThanOrEq:
		return ">="
	case Like:
		return "LIKE"
	default:
		return "?"
	}
}

// Permission is the access mode a transaction requests when fetching a page.
type Permission int8

const (
	ReadOnly Permission = iota
	ReadWrite
)

func (p Permission) String() string {
	if p == ReadWrite {
		return "READ_WRITE"
	}
	return "READ_ONLY"
}

// TableID stably identifies a table for the lifetime of the process. It is
// derived as the hash of the table's backing file's absolute path.
type TableID uint64

// PageID identifies a single page within a table.
type PageID struct {
	TableID   TableID
	PageNum   int
}

func (p PageID) String() string {
	return fmt.Sprintf("Page(%d, %d)", p.TableID, p.PageNum)
}

// RecordID identifies a tuple's physical location: the page it lives on and
// its slot index within that page. RecordIDs are stable as long as the tuple
// is not deleted or moved.
type RecordID struct {
	PageID PageID
	Slot   int
}

func (r RecordID) String() string {
	return fmt.Sprintf("rid(%s, %d)", r.PageID.String(), r.Slot)
}

// Equals reports whether two RecordIDs refer to the same slot.
func (r RecordID) Equals(other RecordID) bool {
	return r == other
}

// TransactionID names a transaction. Transaction ids are created externally
// (by whatever component begins transactions) and passed into the core by
// value.
type TransactionID uint64
