package biz

import (
	"sync"
	"time"

	"SwitchBoard/internal/model"
)

// AuditTrail is a bounded, append-only log of mutating operations.
// When the buffer is full the oldest entry is silently evicted.
type AuditTrail struct {
	mu       sync.Mutex
	buf      []*model.AuditEntry
	start    int
	size     int
	seq      int64
	archived int64 // highest entry id already flushed to the durable sink
}

// NewAuditTrail creates an audit trail holding at most capacity entries.
func NewAuditTrail(capacity int) *AuditTrail {
	if capacity <= 0 {
		capacity = 1
	}
	return &AuditTrail{buf: make([]*model.AuditEntry, capacity)}
}

// Append records one mutating operation and returns the entry.
func (t *AuditTrail) Append(actor, action, target, prev, next string) *model.AuditEntry {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.seq++
	e := &model.AuditEntry{
		ID:            t.seq,
		Timestamp:     time.Now(),
		Actor:         actor,
		Action:        action,
		Target:        target,
		PreviousValue: prev,
		NewValue:      next,
	}

	if t.size == len(t.buf) {
		// Evict oldest.
		t.buf[t.start] = e
		t.start = (t.start + 1) % len(t.buf)
	} else {
		t.buf[(t.start+t.size)%len(t.buf)] = e
		t.size++
	}
	return e
}

// Entries returns up to limit entries, oldest first. limit <= 0 returns all.
func (t *AuditTrail) Entries(limit int) []*model.AuditEntry {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := t.size
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]*model.AuditEntry, 0, n)
	// Newest n entries, returned in chronological order.
	for i := t.size - n; i < t.size; i++ {
		out = append(out, t.buf[(t.start+i)%len(t.buf)])
	}
	return out
}

// Len returns the number of retained entries.
func (t *AuditTrail) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.size
}

// PendingArchive returns retained entries not yet flushed to the durable
// sink. Entries evicted before a flush are lost, matching the bounded
// in-memory history contract.
func (t *AuditTrail) PendingArchive() []*model.AuditEntry {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]*model.AuditEntry, 0)
	for i := 0; i < t.size; i++ {
		e := t.buf[(t.start+i)%len(t.buf)]
		if e.ID > t.archived {
			out = append(out, e)
		}
	}
	return out
}

// MarkArchived records that every entry with id <= through has been
// durably flushed.
func (t *AuditTrail) MarkArchived(through int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if through > t.archived {
		t.archived = through
	}
}
