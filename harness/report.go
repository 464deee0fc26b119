package harness

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/provsec/chainregistry/interfaces"
)

// trialsHeader is the column layout of per-trial exports.
var trialsHeader = []string{"trial", "contract", "seed", "ops", "exposed", "tte_s", "invariant"}

// WriteTrialsCSV writes one row per trial to w.
func WriteTrialsCSV(w io.Writer, results []TrialResult) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(trialsHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, result := range results {
		invariant := ""
		if result.Violation != nil {
			invariant = result.Violation.Invariant
		}
		row := []string{
			strconv.Itoa(result.Trial),
			result.Contract,
			result.Seed,
			strconv.Itoa(result.Ops),
			strconv.FormatBool(result.Exposed),
			strconv.FormatFloat(result.TTE.Seconds(), 'f', 6, 64),
			invariant,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// SummaryRow is one line of the campaign summary, in the schema consumed
// by the downstream analysis tooling.
type SummaryRow struct {
	GeneratedAt time.Time
	Contract    string
	MedianTTE   float64
	HasTTE      bool
	CoveragePct float64
	Notes       string
}

// summaryHeader is the column layout of summary exports.
var summaryHeader = []string{"generated_at", "contract", "median_tte_s", "coverage_pct", "notes"}

// WriteSummaryCSV writes the campaign summary to w.
func WriteSummaryCSV(w io.Writer, rows []SummaryRow) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(summaryHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, row := range rows {
		medianTTE := ""
		if row.HasTTE {
			medianTTE = strconv.FormatFloat(row.MedianTTE, 'f', 6, 64)
		}
		record := []string{
			row.GeneratedAt.UTC().Format(time.RFC3339),
			row.Contract,
			medianTTE,
			strconv.FormatFloat(row.CoveragePct, 'f', 2, 64),
			row.Notes,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Summarize produces the baseline and improved summary rows for one
// family's trial set. The improved variant never exposes a violation in a
// successful campaign, so its TTE column is empty. Coverage is supplied
// by the caller's external coverage tooling and passed through.
func Summarize(contract string, results []TrialResult, coveragePct float64, now time.Time) []SummaryRow {
	stats := ComputeStats(results)

	baseline := SummaryRow{
		GeneratedAt: now,
		Contract:    contract,
		MedianTTE:   stats.Median,
		HasTTE:      stats.Passes > 0,
		CoveragePct: coveragePct,
		Notes:       fmt.Sprintf("exposed in %d/%d trials, mean ops %.1f", stats.Passes, stats.Trials, MeanOps(results)),
	}

	improved := SummaryRow{
		GeneratedAt: now,
		Contract:    contract + "Improved",
		CoveragePct: coveragePct,
		Notes:       fmt.Sprintf("no invariant violations in %d trials", stats.Trials),
	}

	return []SummaryRow{baseline, improved}
}

// Publish stores an exported artifact in a payload backend and returns
// its integrity hash.
func Publish(ctx context.Context, backend interfaces.PayloadBackend, render func(io.Writer) error) (interfaces.IntegrityHash, error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return interfaces.IntegrityHash{}, err
	}
	return backend.Store(ctx, buf.Bytes())
}
