package biz

import (
	"sync"
	"time"

	"SwitchBoard/internal/model"
)

// AlertSink is a bounded buffer of live system alerts with O(1)-on-insert
// unacknowledged counters. Oldest alerts are silently evicted at capacity.
type AlertSink struct {
	mu       sync.Mutex
	buf      []*model.SystemAlert
	start    int
	size     int
	seq      int64
	archived int64

	unackedSevere  int // critical + alert
	unackedWarning int
}

// NewAlertSink creates an alert sink holding at most capacity alerts.
func NewAlertSink(capacity int) *AlertSink {
	if capacity <= 0 {
		capacity = 1
	}
	return &AlertSink{buf: make([]*model.SystemAlert, capacity)}
}

// Raise appends a new unacknowledged alert and returns it.
func (s *AlertSink) Raise(level model.AlertLevel, source, message string) *model.SystemAlert {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	a := &model.SystemAlert{
		ID:        s.seq,
		Level:     level,
		Timestamp: time.Now(),
		Source:    source,
		Message:   message,
	}

	if s.size == len(s.buf) {
		s.buf[s.start] = a
		s.start = (s.start + 1) % len(s.buf)
		// Eviction may have dropped an unacknowledged alert; the cheap
		// counters are no longer trustworthy, so recount. The recount
		// already sees the new alert.
		s.countLocked()
		return a
	}

	s.buf[(s.start+s.size)%len(s.buf)] = a
	s.size++
	switch level {
	case model.AlertCritical, model.AlertAlert:
		s.unackedSevere++
	case model.AlertWarning:
		s.unackedWarning++
	}
	return a
}

// Acknowledge marks the alert as acknowledged. It is idempotent: unknown
// ids and already-acknowledged alerts are no-ops returning false.
func (s *AlertSink) Acknowledge(id int64, actor string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := 0; i < s.size; i++ {
		a := s.buf[(s.start+i)%len(s.buf)]
		if a.ID != id {
			continue
		}
		if a.Acknowledged {
			return false
		}
		now := time.Now()
		a.Acknowledged = true
		a.AcknowledgedBy = actor
		a.AcknowledgedAt = &now
		s.countLocked()
		return true
	}
	return false
}

// countLocked recomputes the live unacknowledged counters from the buffer.
func (s *AlertSink) countLocked() {
	severe, warning := 0, 0
	for i := 0; i < s.size; i++ {
		a := s.buf[(s.start+i)%len(s.buf)]
		if a.Acknowledged {
			continue
		}
		switch a.Level {
		case model.AlertCritical, model.AlertAlert:
			severe++
		case model.AlertWarning:
			warning++
		}
	}
	s.unackedSevere = severe
	s.unackedWarning = warning
}

// UnackedCounts returns the live (severe, warning) unacknowledged counts,
// where severe covers critical and alert levels.
func (s *AlertSink) UnackedCounts() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unackedSevere, s.unackedWarning
}

// Alerts returns up to limit of the newest alerts in chronological order.
// limit <= 0 returns all retained alerts.
func (s *AlertSink) Alerts(limit int) []*model.SystemAlert {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.size
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]*model.SystemAlert, 0, n)
	for i := s.size - n; i < s.size; i++ {
		out = append(out, s.buf[(s.start+i)%len(s.buf)])
	}
	return out
}

// Len returns the number of retained alerts.
func (s *AlertSink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

// PendingArchive returns retained alerts not yet flushed to the durable sink.
func (s *AlertSink) PendingArchive() []*model.SystemAlert {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*model.SystemAlert, 0)
	for i := 0; i < s.size; i++ {
		a := s.buf[(s.start+i)%len(s.buf)]
		if a.ID > s.archived {
			out = append(out, a)
		}
	}
	return out
}

// MarkArchived records that every alert with id <= through has been flushed.
func (s *AlertSink) MarkArchived(through int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if through > s.archived {
		s.archived = through
	}
}
