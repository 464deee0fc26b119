package harness

import (
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/provsec/chainregistry/storage"
)

func TestWriteTrialsCSV(t *testing.T) {
	results := []TrialResult{
		{
			Trial:    1,
			Contract: "ShipmentRegistry",
			Seed:     "s|ShipmentRegistry|trial=1",
			Ops:      12,
			Exposed:  true,
			TTE:      1500 * time.Millisecond,
			Violation: &Violation{
				Invariant: InvariantUnauthorizedUpdateApplied,
			},
		},
		{
			Trial:    2,
			Contract: "ShipmentRegistry",
			Seed:     "s|ShipmentRegistry|trial=2",
			Ops:      2000,
		},
	}

	var sb strings.Builder
	require.NoError(t, WriteTrialsCSV(&sb, results))

	rows, err := csv.NewReader(strings.NewReader(sb.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"trial", "contract", "seed", "ops", "exposed", "tte_s", "invariant"}, rows[0])
	assert.Equal(t, []string{"1", "ShipmentRegistry", "s|ShipmentRegistry|trial=1", "12", "true", "1.500000", InvariantUnauthorizedUpdateApplied}, rows[1])
	assert.Equal(t, []string{"2", "ShipmentRegistry", "s|ShipmentRegistry|trial=2", "2000", "false", "0.000000", ""}, rows[2])
}

func TestSummarize(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	results := []TrialResult{
		{Trial: 1, Exposed: true, Ops: 10, TTE: 2 * time.Second},
		{Trial: 2, Exposed: true, Ops: 30, TTE: 4 * time.Second},
	}

	rows := Summarize("BatchRegistry", results, 87.5, now)
	require.Len(t, rows, 2)

	baseline := rows[0]
	assert.Equal(t, "BatchRegistry", baseline.Contract)
	assert.True(t, baseline.HasTTE)
	assert.Equal(t, 3.0, baseline.MedianTTE)
	assert.Equal(t, 87.5, baseline.CoveragePct)
	assert.Contains(t, baseline.Notes, "2/2 trials")

	improved := rows[1]
	assert.Equal(t, "BatchRegistryImproved", improved.Contract)
	assert.False(t, improved.HasTTE)
	assert.Contains(t, improved.Notes, "no invariant violations")
}

func TestWriteSummaryCSV(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	rows := []SummaryRow{
		{GeneratedAt: now, Contract: "ProductRegistry", MedianTTE: 1.25, HasTTE: true, CoveragePct: 90, Notes: "exposed"},
		{GeneratedAt: now, Contract: "ProductRegistryImproved", CoveragePct: 90, Notes: "clean"},
	}

	var sb strings.Builder
	require.NoError(t, WriteSummaryCSV(&sb, rows))

	parsed, err := csv.NewReader(strings.NewReader(sb.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, parsed, 3)

	assert.Equal(t, []string{"generated_at", "contract", "median_tte_s", "coverage_pct", "notes"}, parsed[0])
	assert.Equal(t, []string{"2026-08-30T12:00:00Z", "ProductRegistry", "1.250000", "90.00", "exposed"}, parsed[1])

	// The hardened variant has no exposure, so its TTE column is empty.
	assert.Equal(t, []string{"2026-08-30T12:00:00Z", "ProductRegistryImproved", "", "90.00", "clean"}, parsed[2])
}

func TestPublish(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	backend, err := storage.NewFileBackend(t.TempDir(), logger)
	require.NoError(t, err)

	content := []byte("generated_at,contract,median_tte_s,coverage_pct,notes\n")
	hash, err := Publish(context.Background(), backend, func(w io.Writer) error {
		_, werr := w.Write(content)
		return werr
	})
	require.NoError(t, err)

	stored, err := backend.Fetch(context.Background(), hash)
	require.NoError(t, err)
	assert.Equal(t, content, stored)
}
