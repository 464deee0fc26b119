package registry

import (
	"fmt"

	"github.com/provsec/chainregistry/interfaces"
)

// OpenPolicy accepts every mutation regardless of caller. It reproduces
// the baseline contracts' missing authorization check and exists so the
// security bench can measure how quickly that gap is exposed.
type OpenPolicy struct{}

// Name implements interfaces.MutationPolicy.
func (OpenPolicy) Name() string { return "open" }

// Authorize implements interfaces.MutationPolicy. It never rejects.
func (OpenPolicy) Authorize(caller interfaces.Identity, record interfaces.Record) error {
	return nil
}

// CreatorOnlyPolicy accepts a mutation only when the caller is the
// record's creator.
type CreatorOnlyPolicy struct{}

// Name implements interfaces.MutationPolicy.
func (CreatorOnlyPolicy) Name() string { return "creator-only" }

// Authorize implements interfaces.MutationPolicy.
func (CreatorOnlyPolicy) Authorize(caller interfaces.Identity, record interfaces.Record) error {
	if !caller.Equal(record.CreatedBy) {
		return fmt.Errorf("%w: record %s created by %s, caller %s",
			interfaces.ErrNotAuthorized, record.ID, record.CreatedBy, caller)
	}
	return nil
}
