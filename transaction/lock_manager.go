// Package transaction implements page-level strict two-phase locking with
// deadlock detection via a wait-for graph.
package transaction

import (
	"sync"

	"github.com/jjasminechii/godb/common"
)

// pageLockState tracks who currently holds a lock on a page: either a set of
// shared holders, or a single exclusive holder.
type pageLockState struct {
	sharedBy    map[common.TransactionID]bool
	exclusiveBy common.TransactionID
	hasExcl     bool
}

// LockManager grants and releases page-level shared/exclusive locks to
// transactions, detecting deadlock at the moment a wait-for edge would be
// added rather than by scanning for cycles after the fact. It exposes a
// single coarse monitor: every method acquires the same mutex, matching the
// original single-intrinsic-lock design this is grounded on.
//
// LockManager does not itself block or retry: AcquireLock returns
// immediately, either granting the lock, reporting that it is unavailable
// (the caller should retry later), or reporting TransactionAbortedError if
// waiting would close a cycle. The caller (BufferPool) owns the poll/sleep
// retry loop.
type LockManager struct {
	mu sync.Mutex

	locks map[common.PageID]*pageLockState
	// heldPages tracks, for cleanup on ReleaseAll, every page a transaction
	// currently holds a lock on.
	heldPages map[common.TransactionID]map[common.PageID]bool
	// waitsFor[t] is the set of transactions t is currently blocked behind.
	waitsFor map[common.TransactionID]map[common.TransactionID]bool
}

// NewLockManager constructs an empty LockManager.
func NewLockManager() *LockManager {
	return &LockManager{
		locks:     make(map[common.PageID]*pageLockState),
		heldPages: make(map[common.TransactionID]map[common.PageID]bool),
		waitsFor:  make(map[common.TransactionID]map[common.TransactionID]bool),
	}
}

// HoldsLock reports whether tid currently holds any lock (shared or
// exclusive) on pid.
func (lm *LockManager) HoldsLock(tid common.TransactionID, pid common.PageID) bool {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return lm.holdsLockLocked(tid, pid)
}

func (lm *LockManager) holdsLockLocked(tid common.TransactionID, pid common.PageID) bool {
	st := lm.locks[pid]
	if st == nil {
		return false
	}
	return st.sharedBy[tid] || (st.hasExcl && st.exclusiveBy == tid)
}

// AcquireLock attempts to grant tid a lock of the given permission on pid.
// It returns (true, nil) if granted, (false, nil) if currently unavailable
// (the caller should retry later), or (false, TransactionAbortedError) if
// waiting for the lock would close a wait-for cycle. In the latter case no
// wait-for edge is recorded: the cycle is refused at the point it would be
// created, so only the attempt that would close the cycle aborts, never the
// transaction(s) it would wait on.
func (lm *LockManager) AcquireLock(tid common.TransactionID, pid common.PageID, perm common.Permission) (bool, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	st := lm.locks[pid]
	if st == nil {
		st = &pageLockState{sharedBy: make(map[common.TransactionID]bool)}
		lm.locks[pid] = st
	}

	if perm == common.ReadOnly {
		if st.hasExcl && st.exclusiveBy != tid {
			return lm.waitOrAbortLocked(tid, pid, st.exclusiveBy)
		}
		st.sharedBy[tid] = true
		lm.grantLocked(tid, pid)
		return true, nil
	}

	// ReadWrite: need exclusive access. Already-exclusive-by-us is a no-op.
	if st.hasExcl {
		if st.exclusiveBy == tid {
			return true, nil
		}
		return lm.waitOrAbortLocked(tid, pid, st.exclusiveBy)
	}
	// Lock upgrade: if we are the only shared holder, grant exclusive.
	var blockers []common.TransactionID
	for holder := range st.sharedBy {
		if holder != tid {
			blockers = append(blockers, holder)
		}
	}
	if len(blockers) > 0 {
		for _, holder := range blockers {
			if lm.canReachLocked(holder, tid) {
				return false, common.NewError(common.TransactionAbortedError, "transaction %d deadlocked waiting for page %s", tid, pid)
			}
		}
		for _, holder := range blockers {
			lm.addWaitLocked(tid, holder)
		}
		return false, nil
	}
	delete(st.sharedBy, tid)
	st.hasExcl = true
	st.exclusiveBy = tid
	lm.grantLocked(tid, pid)
	return true, nil
}

// waitOrAbortLocked records tid as waiting on holder, unless holder can
// already reach tid in the wait-for graph, in which case the new edge would
// close a cycle and tid aborts instead of waiting.
func (lm *LockManager) waitOrAbortLocked(tid common.TransactionID, pid common.PageID, holder common.TransactionID) (bool, error) {
	if lm.canReachLocked(holder, tid) {
		return false, common.NewError(common.TransactionAbortedError, "transaction %d deadlocked waiting for page %s", tid, pid)
	}
	lm.addWaitLocked(tid, holder)
	return false, nil
}

// canReachLocked reports whether to is reachable from from by following
// wait-for edges, i.e. whether from is (possibly transitively) waiting on
// to. Callers must hold lm.mu.
func (lm *LockManager) canReachLocked(from, to common.TransactionID) bool {
	visited := make(map[common.TransactionID]bool)
	var dfs func(common.TransactionID) bool
	dfs = func(cur common.TransactionID) bool {
		for next := range lm.waitsFor[cur] {
			if next == to {
				return true
			}
			if visited[next] {
				continue
			}
			visited[next] = true
			if dfs(next) {
				return true
			}
		}
		return false
	}
	return dfs(from)
}

func (lm *LockManager) grantLocked(tid common.TransactionID, pid common.PageID) {
	if lm.heldPages[tid] == nil {
		lm.heldPages[tid] = make(map[common.PageID]bool)
	}
	lm.heldPages[tid][pid] = true
	delete(lm.waitsFor, tid)
}

func (lm *LockManager) addWaitLocked(waiter, holder common.TransactionID) {
	if lm.waitsFor[waiter] == nil {
		lm.waitsFor[waiter] = make(map[common.TransactionID]bool)
	}
	lm.waitsFor[waiter][holder] = true
}

// ReleaseLock releases tid's lock, if any, on pid.
func (lm *LockManager) ReleaseLock(tid common.TransactionID, pid common.PageID) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	lm.releaseLocked(tid, pid)
}

func (lm *LockManager) releaseLocked(tid common.TransactionID, pid common.PageID) {
	st := lm.locks[pid]
	if st == nil {
		return
	}
	delete(st.sharedBy, tid)
	if st.hasExcl && st.exclusiveBy == tid {
		st.hasExcl = false
	}
	if held := lm.heldPages[tid]; held != nil {
		delete(held, pid)
	}
}

// ReleaseAll releases every lock tid currently holds, and clears any
// wait-for edges recorded for it.
func (lm *LockManager) ReleaseAll(tid common.TransactionID) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	for pid := range lm.heldPages[tid] {
		lm.releaseLocked(tid, pid)
	}
	delete(lm.heldPages, tid)
	delete(lm.waitsFor, tid)
	for _, waiters := range lm.waitsFor {
		delete(waiters, tid)
	}
}
