package harness

import (
	"log/slog"

	"github.com/provsec/chainregistry/audit"
	"github.com/provsec/chainregistry/interfaces"
	"github.com/provsec/chainregistry/registry"
)

// Pair holds the two variants of one registry family plus their audit
// logs, constructed fresh for every trial.
type Pair struct {
	Baseline interfaces.Registry
	Hardened interfaces.Registry

	BaselineAudit *audit.Log
	HardenedAudit *audit.Log
}

// Family describes one registry family the bench can exercise.
type Family struct {
	// Contract is the family's contract name as used in reports, e.g.
	// "ShipmentRegistry".
	Contract string

	// Sequential is true for families that allocate their identifiers.
	Sequential bool

	// Submit is true for the registration family, whose entry point
	// additionally validates kind and payload size.
	Submit bool

	// NewPair constructs a fresh baseline/hardened pair.
	NewPair func(log *slog.Logger) Pair
}

func pairOf(build func(v registry.Variant, sink interfaces.AuditSink, log *slog.Logger) interfaces.Registry, log *slog.Logger) Pair {
	baselineAudit := audit.NewLog()
	hardenedAudit := audit.NewLog()
	return Pair{
		Baseline:      build(registry.VariantOpen, baselineAudit, log),
		Hardened:      build(registry.VariantCreatorOnly, hardenedAudit, log),
		BaselineAudit: baselineAudit,
		HardenedAudit: hardenedAudit,
	}
}

// Families returns the full registry family set under test.
func Families() []Family {
	return []Family{
		{
			Contract:   "ShipmentRegistry",
			Sequential: true,
			NewPair: func(log *slog.Logger) Pair {
				return pairOf(func(v registry.Variant, sink interfaces.AuditSink, log *slog.Logger) interfaces.Registry {
					return registry.NewShipmentRegistry(v, sink, log)
				}, log)
			},
		},
		{
			Contract:   "ShipmentSegmentAcceptance",
			Sequential: true,
			NewPair: func(log *slog.Logger) Pair {
				return pairOf(func(v registry.Variant, sink interfaces.AuditSink, log *slog.Logger) interfaces.Registry {
					return registry.NewSegmentAcceptanceRegistry(v, sink, log)
				}, log)
			},
		},
		{
			Contract: "ProductRegistry",
			NewPair: func(log *slog.Logger) Pair {
				return pairOf(func(v registry.Variant, sink interfaces.AuditSink, log *slog.Logger) interfaces.Registry {
					return registry.NewProductRegistry(v, sink, log)
				}, log)
			},
		},
		{
			Contract: "BatchRegistry",
			NewPair: func(log *slog.Logger) Pair {
				return pairOf(func(v registry.Variant, sink interfaces.AuditSink, log *slog.Logger) interfaces.Registry {
					return registry.NewBatchRegistry(v, sink, log)
				}, log)
			},
		},
		{
			Contract: "RegistrationRegistry",
			Submit:   true,
			NewPair: func(log *slog.Logger) Pair {
				return pairOf(func(v registry.Variant, sink interfaces.AuditSink, log *slog.Logger) interfaces.Registry {
					return registry.NewRegistrationRegistry(v, sink, log)
				}, log)
			},
		},
	}
}

// FamilyByContract looks a family up by its contract name.
func FamilyByContract(contract string) (Family, bool) {
	for _, family := range Families() {
		if family.Contract == contract {
			return family, true
		}
	}
	return Family{}, false
}
