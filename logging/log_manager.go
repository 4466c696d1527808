// Package logging defines the write-ahead-log hooks the buffer pool and
// heap storage call into. The log record format itself, and any replay or
// recovery logic, are outside this package's scope: LogManager is a seam
// other components depend on, not a durability guarantee this package
// implements end to end.
package logging

import "github.com/jjasminechii/godb/common"

// LogManager is the minimal collaborator interface the buffer pool needs
// from a write-ahead log: record a page's before/after image ahead of
// writing it to stable storage, and force every record written so far to
// disk before a transaction's commit is considered durable.
type LogManager interface {
	// LogWrite records that tid is about to install after over before at
	// pid. Implementations that honor the write-ahead rule must persist
	// this record before the corresponding page write reaches disk.
	LogWrite(tid common.TransactionID, pid common.PageID, before, after []byte) error
	// Force blocks until every record logged so far is durable.
	Force() error
}
