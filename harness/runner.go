package harness

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/provsec/chainregistry/interfaces"
	"github.com/provsec/chainregistry/metrics"
)

// Config describes a bench campaign.
type Config struct {
	// Seed makes the whole campaign reproducible. Trial streams are
	// derived from it together with the contract name and trial index.
	Seed string

	// Trials is the number of independent trials per family.
	Trials int

	// MaxOps bounds the operations per trial. A baseline trial that does
	// not expose the authorization gap within MaxOps counts as a fail.
	MaxOps int

	// Actors is the size of the caller identity pool. At least two are
	// needed so unauthorized updates can occur.
	Actors int

	Log     *slog.Logger
	Metrics *metrics.Metrics
}

// TrialResult is the outcome of one baseline/hardened differential trial.
type TrialResult struct {
	Trial    int
	Contract string
	Seed     string

	// Ops is the number of operations executed before the trial ended.
	Ops int

	// Exposed reports whether the baseline's missing authorization check
	// was surfaced.
	Exposed bool

	// TTE is the wall-clock time from trial start to exposure. Only
	// meaningful when Exposed is true.
	TTE time.Duration

	// Violation is the baseline breach that ended the trial, if any.
	Violation *Violation
}

// Runner executes differential fuzz campaigns over registry pairs.
type Runner struct {
	cfg Config
	log *slog.Logger
}

// NewRunner validates the configuration and creates a campaign runner.
func NewRunner(cfg Config) (*Runner, error) {
	if cfg.Trials <= 0 {
		return nil, errors.New("trials must be positive")
	}
	if cfg.MaxOps <= 0 {
		return nil, errors.New("max ops must be positive")
	}
	if cfg.Actors < 2 {
		return nil, errors.New("at least two actors are required")
	}

	log := cfg.Log
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Runner{cfg: cfg, log: log}, nil
}

// RunFamily executes all configured trials against one registry family.
// It returns an error if the hardened variant ever accepts an
// unauthorized mutation or the pair diverges in a way the bench cannot
// attribute to the known authorization gap.
func (r *Runner) RunFamily(family Family) ([]TrialResult, error) {
	results := make([]TrialResult, 0, r.cfg.Trials)

	for trial := 1; trial <= r.cfg.Trials; trial++ {
		result, err := r.runTrial(family, trial)
		if err != nil {
			return results, fmt.Errorf("%s trial %d: %w", family.Contract, trial, err)
		}

		r.log.Info("trial finished",
			slog.String("contract", family.Contract),
			slog.Int("trial", trial),
			slog.Bool("exposed", result.Exposed),
			slog.Int("ops", result.Ops),
			slog.Duration("tte", result.TTE))

		if r.cfg.Metrics != nil && result.Exposed {
			r.cfg.Metrics.ExposureSeconds.WithLabelValues(family.Contract).Observe(result.TTE.Seconds())
			r.cfg.Metrics.ViolationsTotal.WithLabelValues(result.Violation.Registry, result.Violation.Invariant).Inc()
		}

		results = append(results, result)
	}

	return results, nil
}

// RunAll executes the campaign against every registry family.
func (r *Runner) RunAll() (map[string][]TrialResult, error) {
	all := make(map[string][]TrialResult)
	for _, family := range Families() {
		results, err := r.RunFamily(family)
		if err != nil {
			return all, err
		}
		all[family.Contract] = results
	}
	return all, nil
}

// trialState bundles everything one trial mutates.
type trialState struct {
	family  Family
	pair    Pair
	stream  *Stream
	actors  []interfaces.Identity
	model   *model
	op      int
	started time.Time
}

func (r *Runner) runTrial(family Family, trial int) (TrialResult, error) {
	seed := fmt.Sprintf("%s|%s|trial=%d", r.cfg.Seed, family.Contract, trial)
	stream := NewStream(seed)

	st := &trialState{
		family:  family,
		pair:    family.NewPair(r.log),
		stream:  stream,
		actors:  stream.Actors(r.cfg.Actors),
		model:   newModel(),
		started: time.Now(),
	}

	result := TrialResult{
		Trial:    trial,
		Contract: family.Contract,
		Seed:     seed,
	}

	for st.op = 1; st.op <= r.cfg.MaxOps; st.op++ {
		violation, err := r.step(st)
		if err != nil {
			return result, err
		}
		if violation != nil {
			result.Ops = st.op
			result.Exposed = true
			result.TTE = time.Since(st.started)
			result.Violation = violation
			return result, nil
		}
	}

	result.Ops = r.cfg.MaxOps
	return result, nil
}

// step executes one fuzzed operation against both variants. It returns a
// baseline violation when the authorization gap was exposed, or an error
// when the hardened variant misbehaved.
func (r *Runner) step(st *trialState) (*Violation, error) {
	roll := st.stream.Intn(10)
	if st.family.Submit && roll == 9 {
		return r.stepSubmitReject(st)
	}

	switch {
	case roll < 3:
		return r.stepRegister(st)
	case roll < 8:
		return r.stepUpdate(st)
	default:
		return nil, r.stepGet(st)
	}
}

func (st *trialState) callContext(actor interfaces.Identity) interfaces.CallContext {
	return interfaces.CallContext{Caller: actor, Time: uint64(st.op)}
}

func (st *trialState) randomActor() interfaces.Identity {
	return st.actors[st.stream.Intn(len(st.actors))]
}

// stepRegister creates the same record on both variants and records it in
// the shadow model. For caller-supplied families it sometimes replays a
// taken identifier to confirm both variants reject the collision. A
// baseline that accepts the collision is reported as a violation; a
// hardened variant that does fails the campaign.
func (r *Runner) stepRegister(st *trialState) (*Violation, error) {
	actor := st.randomActor()
	ctx := st.callContext(actor)
	hash := st.stream.Hash()

	if st.family.Sequential {
		baseRec, baseErr := st.pair.Baseline.Register(ctx, hash)
		hardRec, hardErr := st.pair.Hardened.Register(ctx, hash)
		if baseErr != nil || hardErr != nil {
			return nil, fmt.Errorf("sequential register failed: baseline %v, hardened %v", baseErr, hardErr)
		}
		if baseRec.ID != hardRec.ID {
			return nil, fmt.Errorf("allocator divergence: baseline id %s, hardened id %s", baseRec.ID, hardRec.ID)
		}
		st.model.create(baseRec.ID, actor, hash)
		return nil, nil
	}

	// Replay a taken identifier in roughly one of four keyed registers.
	if id, ok := st.model.pick(st.stream); ok && st.stream.Intn(4) == 0 {
		_, baseErr := st.pair.Baseline.RegisterWithID(ctx, id, hash)
		_, hardErr := st.pair.Hardened.RegisterWithID(ctx, id, hash)
		if !errors.Is(hardErr, interfaces.ErrAlreadyExists) {
			return nil, Violation{
				Invariant: InvariantDuplicateRegisterAccepted,
				Registry:  st.pair.Hardened.Name(),
				ID:        id,
				Actor:     actor,
				Op:        st.op,
				Detail:    fmt.Sprintf("replayed register returned %v", hardErr),
			}
		}
		if !errors.Is(baseErr, interfaces.ErrAlreadyExists) {
			return &Violation{
				Invariant: InvariantDuplicateRegisterAccepted,
				Registry:  st.pair.Baseline.Name(),
				ID:        id,
				Actor:     actor,
				Op:        st.op,
				Detail:    fmt.Sprintf("replayed register returned %v", baseErr),
			}, nil
		}
		return nil, nil
	}

	id := st.stream.RecordID()
	if _, taken := st.model.lookup(id); taken {
		return nil, nil
	}

	_, baseErr := st.pair.Baseline.RegisterWithID(ctx, id, hash)
	_, hardErr := st.pair.Hardened.RegisterWithID(ctx, id, hash)
	if baseErr != nil || hardErr != nil {
		return nil, fmt.Errorf("keyed register failed: baseline %v, hardened %v", baseErr, hardErr)
	}
	st.model.create(id, actor, hash)
	return nil, nil
}

// stepUpdate mutates an existing record through both variants. An
// unauthorized update accepted by the baseline is the exposure the bench
// measures; the same update accepted by the hardened variant fails the
// campaign.
func (r *Runner) stepUpdate(st *trialState) (*Violation, error) {
	actor := st.randomActor()
	ctx := st.callContext(actor)
	hash := st.stream.Hash()

	// One in five updates targets an identifier that was never
	// registered; both variants must reject it.
	if st.stream.Intn(5) == 0 {
		id := st.absentID()
		_, baseErr := st.pair.Baseline.Update(ctx, id, hash)
		_, hardErr := st.pair.Hardened.Update(ctx, id, hash)
		if !errors.Is(hardErr, interfaces.ErrDoesNotExist) {
			return nil, Violation{
				Invariant: InvariantMissingRecordUpdated,
				Registry:  st.pair.Hardened.Name(),
				ID:        id,
				Actor:     actor,
				Op:        st.op,
				Detail:    fmt.Sprintf("update of unregistered id returned %v", hardErr),
			}
		}
		if !errors.Is(baseErr, interfaces.ErrDoesNotExist) {
			return &Violation{
				Invariant: InvariantMissingRecordUpdated,
				Registry:  st.pair.Baseline.Name(),
				ID:        id,
				Actor:     actor,
				Op:        st.op,
				Detail:    fmt.Sprintf("update of unregistered id returned %v", baseErr),
			}, nil
		}
		return nil, nil
	}

	id, ok := st.model.pick(st.stream)
	if !ok {
		return r.stepRegister(st)
	}
	expected, _ := st.model.lookup(id)

	if actor == expected.creator {
		baseRec, baseErr := st.pair.Baseline.Update(ctx, id, hash)
		hardRec, hardErr := st.pair.Hardened.Update(ctx, id, hash)
		if baseErr != nil || hardErr != nil {
			return nil, fmt.Errorf("authorized update rejected: baseline %v, hardened %v", baseErr, hardErr)
		}
		if baseRec.Hash != hash || hardRec.Hash != hash {
			return nil, fmt.Errorf("authorized update not applied: baseline hash %s, hardened hash %s", baseRec.Hash, hardRec.Hash)
		}
		st.model.update(id, actor, hash)
		return nil, nil
	}

	// Unauthorized path. Hardened must reject and stay untouched.
	_, hardErr := st.pair.Hardened.Update(ctx, id, hash)
	if hardErr == nil {
		return nil, Violation{
			Invariant: InvariantUnauthorizedUpdateAccepted,
			Registry:  st.pair.Hardened.Name(),
			ID:        id,
			Actor:     actor,
			Op:        st.op,
			Detail:    fmt.Sprintf("creator-only policy accepted caller %s, creator %s", actor, expected.creator),
		}
	}
	if !errors.Is(hardErr, interfaces.ErrNotAuthorized) {
		return nil, fmt.Errorf("unexpected hardened rejection: %w", hardErr)
	}

	hardRec, err := st.pair.Hardened.Get(id)
	if err != nil {
		return nil, fmt.Errorf("hardened get after rejection: %w", err)
	}
	if hardRec.Hash != expected.hash || hardRec.UpdatedBy != expected.updater {
		return nil, Violation{
			Invariant: InvariantRejectionHadEffect,
			Registry:  st.pair.Hardened.Name(),
			ID:        id,
			Actor:     actor,
			Op:        st.op,
			Detail:    fmt.Sprintf("record changed despite rejection: hash %s, updater %s", hardRec.Hash, hardRec.UpdatedBy),
		}
	}

	baseRec, baseErr := st.pair.Baseline.Update(ctx, id, hash)
	if baseErr != nil {
		// The open policy never rejects; anything else is a bench bug.
		return nil, fmt.Errorf("baseline rejected update: %w", baseErr)
	}
	if baseRec.Hash != hash || baseRec.UpdatedBy != actor {
		return nil, fmt.Errorf("baseline update not applied: hash %s, updater %s", baseRec.Hash, baseRec.UpdatedBy)
	}

	// Exposure: a caller that did not create the record rewrote it.
	return &Violation{
		Invariant: InvariantUnauthorizedUpdateApplied,
		Registry:  st.pair.Baseline.Name(),
		ID:        id,
		Actor:     actor,
		Op:        st.op,
		Detail:    fmt.Sprintf("caller %s overwrote record created by %s", actor, expected.creator),
	}, nil
}

// stepGet cross-checks a stored record against the shadow model on both
// variants.
func (r *Runner) stepGet(st *trialState) error {
	id, ok := st.model.pick(st.stream)
	if !ok {
		return nil
	}

	for _, reg := range []interfaces.Registry{st.pair.Baseline, st.pair.Hardened} {
		rec, err := reg.Get(id)
		if err != nil {
			return fmt.Errorf("get on %s: %w", reg.Name(), err)
		}
		if violation := st.model.checkAgainst(reg.Name(), rec, st.op); violation != nil {
			return violation
		}
	}
	return nil
}

// absentID produces an identifier guaranteed not to be registered yet.
func (st *trialState) absentID() interfaces.RecordID {
	if st.family.Sequential {
		// Sequential ids are small; anything in the upper half of the
		// space is unallocated.
		return interfaces.SequentialID(1<<63 | st.stream.Uint64())
	}

	for {
		id := st.stream.RecordID()
		if _, taken := st.model.lookup(id); !taken {
			return id
		}
	}
}
