package interfaces

// MutationPolicy is the authorization guard evaluated before every update.
// It is never consulted on register (anyone may create a record) or get.
type MutationPolicy interface {
	// Name identifies the policy in logs and bench reports.
	Name() string

	// Authorize decides whether caller may mutate the given record. It
	// returns nil to accept or an error wrapping ErrNotAuthorized to
	// reject. It must not mutate anything.
	Authorize(caller Identity, record Record) error
}

// Registry is the uniform record lifecycle surface shared by every
// registry family. A registry is permanently bound to one allocation mode
// and one mutation policy at construction time.
type Registry interface {
	// Name identifies the registry family and variant, e.g.
	// "ShipmentRegistry/open".
	Name() string

	// Register creates a record under a freshly allocated sequential
	// identifier. Registries with caller-supplied identifiers reject this
	// entry point.
	Register(ctx CallContext, hash IntegrityHash) (Record, error)

	// RegisterWithID creates a record under a caller-supplied identifier.
	// Sequentially allocating registries reject this entry point. Fails
	// with ErrAlreadyExists if the identifier is taken.
	RegisterWithID(ctx CallContext, id RecordID, hash IntegrityHash) (Record, error)

	// Update replaces the stored hash of an existing record and stamps
	// the updater. Fails with ErrDoesNotExist for unknown identifiers and
	// ErrNotAuthorized when the mutation policy rejects the caller.
	Update(ctx CallContext, id RecordID, hash IntegrityHash) (Record, error)

	// Get reads a record. Hardened variants fail with ErrDoesNotExist for
	// unknown identifiers; baseline variants return a zero-valued record
	// and no error, mirroring the original contract behavior.
	Get(id RecordID) (Record, error)
}

// AuditOp names the state transition an audit event describes.
type AuditOp string

const (
	AuditOpRegister AuditOp = "register"
	AuditOpUpdate   AuditOp = "update"
)

// AuditEvent records one successful register or update. Events are
// append-only and ordered by Seq, assigned by the sink.
type AuditEvent struct {
	Seq      uint64
	Registry string
	Op       AuditOp
	ID       RecordID
	Hash     IntegrityHash
	Actor    Identity
	Time     uint64
}

// AuditSink receives exactly one event per successful mutation. Append is
// called while the registry's transition lock is held, so the sink's order
// is the transition order.
type AuditSink interface {
	// Append assigns the next sequence number, stores the event, and
	// returns it.
	Append(event AuditEvent) AuditEvent
}
