// Package harness implements the differential security bench that
// quantifies how quickly the baseline registries' missing authorization
// check is exposed.
//
// Each bench trial generates a deterministic stream of register, update,
// and get operations from a seed and applies it to both variants of a
// registry family in lockstep: the open baseline and the creator-only
// hardened twin. After every operation the harness checks the lifecycle
// invariants against a shadow model. On the baseline, the first
// unauthorized update that takes effect ends the trial and its
// time-to-exposure (TTE) is recorded; on the hardened variant any
// accepted unauthorized update fails the whole campaign.
//
// Results aggregate into per-trial CSV rows and a summary CSV with the
// schema used by the surrounding analysis tooling:
//
//	generated_at,contract,median_tte_s,coverage_pct,notes
//
// Exported artifacts can be published to any payload backend (file, S3,
// IPFS, Vault).
package harness
