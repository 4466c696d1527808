package logging

import (
	"sync"

	"github.com/jjasminechii/godb/common"
)

// logEntry is one recorded before/after image pair.
type logEntry struct {
	tid    common.TransactionID
	pid    common.PageID
	before []byte
	after  []byte
}

// MemoryLogManager is an in-process LogManager test double: it keeps every
// logged record in memory rather than writing to a file, so tests can
// assert on exactly what was logged without touching disk.
type MemoryLogManager struct {
	mu      sync.Mutex
	entries []logEntry
}

// NewMemoryLogManager constructs an empty MemoryLogManager.
func NewMemoryLogManager() *MemoryLogManager {
	return &MemoryLogManager{}
}

func (m *MemoryLogManager) LogWrite(tid common.TransactionID, pid common.PageID, before, after []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, logEntry{
		tid:    tid,
		pid:    pid,
		before: append([]byte(nil), before...),
		after:  append([]byte(nil), after...),
	})
	return nil
}

func (m *MemoryLogManager) Force() error { return nil }

// Entries returns the records logged so far, for assertions in tests.
func (m *MemoryLogManager) Entries() []logEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]logEntry(nil), m.entries...)
}

// NoopLogManager discards every record. It is useful for exercising the
// buffer pool and heap file paths in tests that do not care about logging.
type NoopLogManager struct{}

func (NoopLogManager) LogWrite(common.TransactionID, common.PageID, []byte, []byte) error { return nil }
func (NoopLogManager) Force() error                                                       { return nil }
