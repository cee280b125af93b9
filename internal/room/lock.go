package room

import (
	"sync"
	"time"
)

type lockEntry struct {
	holder     string
	acquiredAt time.Time
}

// LockTable is the non-reentrant, non-blocking turn lock keyed by room code.
// Acquire never waits: contention is reported immediately and the caller
// surfaces it as a retryable condition. Entries are process-local and never
// persisted.
type LockTable struct {
	mu    sync.Mutex
	locks map[string]lockEntry
}

// NewLockTable creates an empty lock table.
func NewLockTable() *LockTable {
	return &LockTable{locks: make(map[string]lockEntry)}
}

// Acquire takes the lock for a room if it is free, recording the holder and
// timestamp. It returns false immediately when the room is already locked.
func (lt *LockTable) Acquire(roomCode, requesterID string) bool {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	if _, held := lt.locks[roomCode]; held {
		return false
	}
	lt.locks[roomCode] = lockEntry{holder: requesterID, acquiredAt: time.Now()}
	return true
}

// Release frees the lock for a room. Only the recorded holder may release;
// stale releases from other requesters are ignored.
func (lt *LockTable) Release(roomCode, requesterID string) {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	if entry, held := lt.locks[roomCode]; held && entry.holder == requesterID {
		delete(lt.locks, roomCode)
	}
}

// Holder reports the current holder of a room's lock, if locked.
func (lt *LockTable) Holder(roomCode string) (string, bool) {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	entry, held := lt.locks[roomCode]
	return entry.holder, held
}
