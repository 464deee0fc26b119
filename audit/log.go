package audit

import (
	"sync"

	"github.com/provsec/chainregistry/interfaces"
)

// Log is an in-memory append-only audit event log. It implements
// interfaces.AuditSink and may be shared by several registries, in which
// case sequence numbers reflect the global transition order across them.
type Log struct {
	mu      sync.Mutex
	events  []interfaces.AuditEvent
	nextSeq uint64
}

// NewLog creates an empty audit log. Sequence numbers start at 1.
func NewLog() *Log {
	return &Log{nextSeq: 1}
}

// Append implements interfaces.AuditSink. It assigns the next sequence
// number, stores the event, and returns the stored event.
func (l *Log) Append(event interfaces.AuditEvent) interfaces.AuditEvent {
	l.mu.Lock()
	defer l.mu.Unlock()

	event.Seq = l.nextSeq
	l.nextSeq++
	l.events = append(l.events, event)
	return event
}

// Events returns a snapshot copy of all recorded events in append order.
func (l *Log) Events() []interfaces.AuditEvent {
	l.mu.Lock()
	defer l.mu.Unlock()

	snapshot := make([]interfaces.AuditEvent, len(l.events))
	copy(snapshot, l.events)
	return snapshot
}

// Len returns the number of recorded events.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}

// Last returns the most recent event, if any.
func (l *Log) Last() (interfaces.AuditEvent, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.events) == 0 {
		return interfaces.AuditEvent{}, false
	}
	return l.events[len(l.events)-1], true
}
