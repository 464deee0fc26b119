package harness

import (
	"errors"
	"fmt"

	"github.com/provsec/chainregistry/interfaces"
)

// submitter is the extra entry point of the registration family.
type submitter interface {
	Submit(ctx interfaces.CallContext, id interfaces.RecordID, kind interfaces.Kind, payload []byte, isUpdate bool) (interfaces.Record, error)
}

// stepSubmitReject sends a submission that must be rejected before any
// state is touched: an oversized payload or an out-of-range kind. A
// baseline that accepts it, or keeps a record despite rejecting it, is a
// violation; a hardened variant that does either fails the campaign.
func (r *Runner) stepSubmitReject(st *trialState) (*Violation, error) {
	baseSub, baseOK := st.pair.Baseline.(submitter)
	hardSub, hardOK := st.pair.Hardened.(submitter)
	if !baseOK || !hardOK {
		return nil, fmt.Errorf("family %s does not expose a submit entry point", st.family.Contract)
	}

	actor := st.randomActor()
	ctx := st.callContext(actor)
	id := st.absentID()

	var payload []byte
	var kind interfaces.Kind
	var wantErr error

	if st.stream.Intn(2) == 0 {
		payload = st.stream.Bytes(interfaces.MaxRegistrationPayload + 1 + st.stream.Intn(256))
		kind = interfaces.KindManufacturer
		wantErr = interfaces.ErrPayloadTooLarge
	} else {
		payload = st.stream.Bytes(1 + st.stream.Intn(64))
		kind = interfaces.KindConsumer + 1 + interfaces.Kind(st.stream.Intn(200))
		wantErr = interfaces.ErrInvalidKind
	}

	baseRejection := &Violation{
		Invariant: InvariantRejectionHadEffect,
		Registry:  st.pair.Baseline.Name(),
		ID:        id,
		Actor:     actor,
		Op:        st.op,
	}

	_, baseErr := baseSub.Submit(ctx, id, kind, payload, false)
	_, hardErr := hardSub.Submit(ctx, id, kind, payload, false)
	if !errors.Is(hardErr, wantErr) {
		return nil, Violation{
			Invariant: InvariantRejectionHadEffect,
			Registry:  st.pair.Hardened.Name(),
			ID:        id,
			Actor:     actor,
			Op:        st.op,
			Detail:    fmt.Sprintf("invalid submission expected %v, got %v", wantErr, hardErr),
		}
	}
	if !errors.Is(baseErr, wantErr) {
		baseRejection.Detail = fmt.Sprintf("invalid submission expected %v, got %v", wantErr, baseErr)
		return baseRejection, nil
	}

	// The rejected submission must not have created a record.
	if _, err := st.pair.Hardened.Get(id); !errors.Is(err, interfaces.ErrDoesNotExist) {
		return nil, Violation{
			Invariant: InvariantRejectionHadEffect,
			Registry:  st.pair.Hardened.Name(),
			ID:        id,
			Actor:     actor,
			Op:        st.op,
			Detail:    "rejected submission left a record behind",
		}
	}
	baseRec, _ := st.pair.Baseline.Get(id)
	if baseRec.Exists {
		baseRejection.Detail = "rejected submission left a record behind"
		return baseRejection, nil
	}

	return nil, nil
}
