package harness

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/provsec/chainregistry/audit"
	"github.com/provsec/chainregistry/interfaces"
	"github.com/provsec/chainregistry/metrics"
	"github.com/provsec/chainregistry/registry"
)

func testConfig(seed string) Config {
	return Config{
		Seed:   seed,
		Trials: 3,
		MaxOps: 2000,
		Actors: 4,
	}
}

func TestNewRunner_Validation(t *testing.T) {
	_, err := NewRunner(Config{Trials: 0, MaxOps: 100, Actors: 2})
	assert.Error(t, err)
	_, err = NewRunner(Config{Trials: 1, MaxOps: 0, Actors: 2})
	assert.Error(t, err)
	_, err = NewRunner(Config{Trials: 1, MaxOps: 100, Actors: 1})
	assert.Error(t, err)

	_, err = NewRunner(Config{Trials: 1, MaxOps: 100, Actors: 2})
	assert.NoError(t, err)
}

func TestFamilies(t *testing.T) {
	families := Families()
	require.Len(t, families, 5)

	contracts := make(map[string]Family)
	for _, family := range families {
		contracts[family.Contract] = family
	}

	assert.True(t, contracts["ShipmentRegistry"].Sequential)
	assert.True(t, contracts["ShipmentSegmentAcceptance"].Sequential)
	assert.False(t, contracts["ProductRegistry"].Sequential)
	assert.False(t, contracts["BatchRegistry"].Sequential)
	assert.True(t, contracts["RegistrationRegistry"].Submit)

	family, ok := FamilyByContract("ShipmentRegistry")
	require.True(t, ok)
	assert.Equal(t, "ShipmentRegistry", family.Contract)

	_, ok = FamilyByContract("NoSuchRegistry")
	assert.False(t, ok)
}

// Every family's baseline accepts unauthorized updates, so with multiple
// actors and a generous op budget every trial must end in exposure, and
// the hardened variant must never misbehave along the way.
func TestRunner_ExposesAllFamilies(t *testing.T) {
	runner, err := NewRunner(testConfig("expose"))
	require.NoError(t, err)

	all, err := runner.RunAll()
	require.NoError(t, err)
	require.Len(t, all, 5)

	for contract, results := range all {
		require.Len(t, results, 3, contract)
		for _, result := range results {
			assert.True(t, result.Exposed, "%s trial %d", contract, result.Trial)
			assert.Equal(t, contract, result.Contract)
			assert.Greater(t, result.Ops, 0)
			assert.Greater(t, result.TTE.Nanoseconds(), int64(0))

			require.NotNil(t, result.Violation)
			assert.Equal(t, InvariantUnauthorizedUpdateApplied, result.Violation.Invariant)
			assert.Equal(t, result.Ops, result.Violation.Op)
			assert.False(t, result.Violation.Actor.IsZero())
		}
	}
}

// The same seed replays the same operation sequence, so everything except
// the wall-clock TTE is identical between runs.
func TestRunner_Deterministic(t *testing.T) {
	family, ok := FamilyByContract("ProductRegistry")
	require.True(t, ok)

	first, err := mustRunner(t, "replay").RunFamily(family)
	require.NoError(t, err)
	second, err := mustRunner(t, "replay").RunFamily(family)
	require.NoError(t, err)

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].Trial, second[i].Trial)
		assert.Equal(t, first[i].Seed, second[i].Seed)
		assert.Equal(t, first[i].Ops, second[i].Ops)
		assert.Equal(t, first[i].Exposed, second[i].Exposed)
		require.NotNil(t, first[i].Violation)
		require.NotNil(t, second[i].Violation)
		assert.Equal(t, *first[i].Violation, *second[i].Violation)
	}
}

// A different seed derives a different actor pool, so the exposing actors
// cannot coincide.
func TestRunner_SeedsDiverge(t *testing.T) {
	family, ok := FamilyByContract("ShipmentRegistry")
	require.True(t, ok)

	first, err := mustRunner(t, "seed-a").RunFamily(family)
	require.NoError(t, err)
	second, err := mustRunner(t, "seed-b").RunFamily(family)
	require.NoError(t, err)

	require.NotNil(t, first[0].Violation)
	require.NotNil(t, second[0].Violation)
	assert.NotEqual(t, first[0].Violation.Actor, second[0].Violation.Actor)
}

func TestRunner_TrialSeedsAreDistinct(t *testing.T) {
	family, ok := FamilyByContract("BatchRegistry")
	require.True(t, ok)

	results, err := mustRunner(t, "distinct").RunFamily(family)
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, result := range results {
		assert.False(t, seen[result.Seed])
		seen[result.Seed] = true
	}
}

// An instrumented campaign feeds every exposure into the violation
// counter and the TTE histogram.
func TestRunner_RecordsMetrics(t *testing.T) {
	family, ok := FamilyByContract("ProductRegistry")
	require.True(t, ok)

	m := metrics.NewMetrics("bench_test")
	cfg := testConfig("instrumented")
	cfg.Metrics = m
	runner, err := NewRunner(cfg)
	require.NoError(t, err)

	results, err := runner.RunFamily(family)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	exposures := testutil.ToFloat64(m.ViolationsTotal.WithLabelValues("ProductRegistry/open", InvariantUnauthorizedUpdateApplied))
	assert.Equal(t, float64(len(results)), exposures)

	// One histogram series per contract under test.
	assert.Equal(t, 1, testutil.CollectAndCount(m.ExposureSeconds))
}

// duplicateTolerantRegistry swallows identifier collisions, standing in
// for a registry that lost its existence check.
type duplicateTolerantRegistry struct {
	interfaces.Registry
}

func (r duplicateTolerantRegistry) RegisterWithID(ctx interfaces.CallContext, id interfaces.RecordID, hash interfaces.IntegrityHash) (interfaces.Record, error) {
	rec, err := r.Registry.RegisterWithID(ctx, id, hash)
	if errors.Is(err, interfaces.ErrAlreadyExists) {
		return r.Registry.Get(id)
	}
	return rec, err
}

// A baseline that accepts a replayed identifier is recorded as an
// attributable violation, not a campaign error.
func TestStepRegister_AttributesDuplicateAcceptance(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	pair := Pair{
		Baseline: duplicateTolerantRegistry{registry.NewProductRegistry(registry.VariantOpen, audit.NewLog(), log)},
		Hardened: registry.NewProductRegistry(registry.VariantCreatorOnly, audit.NewLog(), log),
	}

	runner := mustRunner(t, "duplicate-attribution")
	stream := NewStream("duplicate-attribution")
	st := &trialState{
		family:  Family{Contract: "ProductRegistry"},
		pair:    pair,
		stream:  stream,
		actors:  stream.Actors(4),
		model:   newModel(),
		started: time.Now(),
	}

	var violation *Violation
	for st.op = 1; st.op <= 500; st.op++ {
		v, err := runner.stepRegister(st)
		require.NoError(t, err)
		if v != nil {
			violation = v
			break
		}
	}

	require.NotNil(t, violation)
	assert.Equal(t, InvariantDuplicateRegisterAccepted, violation.Invariant)
	assert.Equal(t, "ProductRegistry/open", violation.Registry)
	assert.Equal(t, st.op, violation.Op)
}

// acceptAllSubmitRegistry accepts any submission, standing in for a
// registration entry point that lost its input validation.
type acceptAllSubmitRegistry struct {
	interfaces.Registry
}

func (r acceptAllSubmitRegistry) Submit(ctx interfaces.CallContext, id interfaces.RecordID, kind interfaces.Kind, payload []byte, isUpdate bool) (interfaces.Record, error) {
	return interfaces.Record{ID: id, Exists: true}, nil
}

// A baseline that accepts an invalid submission is recorded as an
// attributable violation, not a campaign error.
func TestStepSubmitReject_AttributesBaselineAcceptance(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	pair := Pair{
		Baseline: acceptAllSubmitRegistry{registry.NewRegistrationRegistry(registry.VariantOpen, audit.NewLog(), log)},
		Hardened: registry.NewRegistrationRegistry(registry.VariantCreatorOnly, audit.NewLog(), log),
	}

	runner := mustRunner(t, "submit-attribution")
	stream := NewStream("submit-attribution")
	st := &trialState{
		family:  Family{Contract: "RegistrationRegistry", Submit: true},
		pair:    pair,
		stream:  stream,
		actors:  stream.Actors(4),
		model:   newModel(),
		started: time.Now(),
		op:      1,
	}

	violation, err := runner.stepSubmitReject(st)
	require.NoError(t, err)
	require.NotNil(t, violation)
	assert.Equal(t, InvariantRejectionHadEffect, violation.Invariant)
	assert.Equal(t, "RegistrationRegistry/open", violation.Registry)
	assert.Equal(t, 1, violation.Op)
}

func mustRunner(t *testing.T, seed string) *Runner {
	t.Helper()
	runner, err := NewRunner(testConfig(seed))
	require.NoError(t, err)
	return runner
}
