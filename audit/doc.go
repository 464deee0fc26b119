// Package audit provides the append-only audit event log that registries
// emit their state transitions into, plus CSV export of the recorded
// history.
//
// The log is the system's only externally observable history: every
// successful register or update appends exactly one event, ordered by a
// sequence number the log assigns. Events are never removed or reordered.
package audit
