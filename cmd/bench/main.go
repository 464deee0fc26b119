package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/provsec/chainregistry/common"
	"github.com/provsec/chainregistry/harness"
	"github.com/provsec/chainregistry/interfaces"
	"github.com/provsec/chainregistry/metrics"
	"github.com/provsec/chainregistry/storage"
)

var flags []cli.Flag = []cli.Flag{
	&cli.StringFlag{
		Name:  "seed",
		Value: "chainregistry-bench",
		Usage: "campaign seed; the same seed reproduces the same trials",
	},
	&cli.IntFlag{
		Name:  "trials",
		Value: 20,
		Usage: "number of trials per registry family",
	},
	&cli.IntFlag{
		Name:  "max-ops",
		Value: 2000,
		Usage: "operation budget per trial",
	},
	&cli.IntFlag{
		Name:  "actors",
		Value: 4,
		Usage: "size of the caller identity pool",
	},
	&cli.StringFlag{
		Name:  "contract",
		Value: "",
		Usage: "run a single family by contract name (e.g. ShipmentRegistry); default runs all",
	},
	&cli.Float64Flag{
		Name:  "coverage-pct",
		Value: 0,
		Usage: "coverage percentage from external tooling, passed through to the summary",
	},
	&cli.StringFlag{
		Name:  "out",
		Value: "bench-out",
		Usage: "directory for per-trial and summary CSV exports",
	},
	&cli.StringFlag{
		Name:  "publish-to",
		Value: "",
		Usage: "optional payload backend URI to publish the summary to",
	},
	&cli.StringFlag{
		Name:  "metrics-addr",
		Value: "",
		Usage: "optional address to serve Prometheus metrics on during the campaign",
	},
	&cli.BoolFlag{
		Name:  "log-json",
		Value: false,
		Usage: "log in JSON format",
	},
	&cli.BoolFlag{
		Name:  "log-debug",
		Value: false,
		Usage: "log debug messages",
	},
}

func main() {
	app := &cli.App{
		Name:  "bench",
		Usage: "Run differential trials against baseline/hardened registry pairs and export TTE statistics",
		Flags: flags,
		Action: func(cCtx *cli.Context) error {
			seed := cCtx.String("seed")
			trials := cCtx.Int("trials")
			maxOps := cCtx.Int("max-ops")
			actors := cCtx.Int("actors")
			contract := cCtx.String("contract")
			coveragePct := cCtx.Float64("coverage-pct")
			outDir := cCtx.String("out")
			publishTo := cCtx.String("publish-to")
			metricsAddr := cCtx.String("metrics-addr")

			logger := common.SetupLogger(&common.LoggingOpts{
				Debug:   cCtx.Bool("log-debug"),
				JSON:    cCtx.Bool("log-json"),
				Service: "chainregistry-bench",
				Version: common.Version,
			})

			metricsSrv, err := metrics.New(common.PackageName, metricsAddr)
			if err != nil {
				logger.Error("Failed to create metrics server", "err", err)
				return err
			}
			if metricsAddr != "" {
				go func() {
					if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						logger.Error("Metrics server failed", "err", err)
					}
				}()
				logger.Info("Serving metrics", "addr", metricsAddr)
			}

			runner, err := harness.NewRunner(harness.Config{
				Seed:    seed,
				Trials:  trials,
				MaxOps:  maxOps,
				Actors:  actors,
				Log:     logger,
				Metrics: metricsSrv.Metrics(),
			})
			if err != nil {
				logger.Error("Invalid campaign configuration", "err", err)
				return err
			}

			// Pick the families to run
			families := harness.Families()
			if contract != "" {
				family, ok := harness.FamilyByContract(contract)
				if !ok {
					logger.Error("Unknown contract", "contract", contract)
					return fmt.Errorf("unknown contract %q", contract)
				}
				families = []harness.Family{family}
			}

			if err := os.MkdirAll(outDir, 0755); err != nil {
				logger.Error("Failed to create output directory", "err", err)
				return err
			}

			now := time.Now()
			var summaryRows []harness.SummaryRow

			for _, family := range families {
				logger.Info("Running campaign", "contract", family.Contract, "trials", trials)
				results, err := runner.RunFamily(family)
				if err != nil {
					logger.Error("Campaign failed", "contract", family.Contract, "err", err)
					return err
				}

				stats := harness.ComputeStats(results)
				logger.Info("Campaign finished",
					"contract", family.Contract,
					"exposed", stats.Passes,
					"trials", stats.Trials,
					"medianTTE", stats.Median)

				trialsPath := filepath.Join(outDir, fmt.Sprintf("trials_%s.csv", strings.ToLower(family.Contract)))
				f, err := os.Create(trialsPath)
				if err != nil {
					logger.Error("Failed to create trials export", "err", err)
					return err
				}
				if err := harness.WriteTrialsCSV(f, results); err != nil {
					f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}

				summaryRows = append(summaryRows, harness.Summarize(family.Contract, results, coveragePct, now)...)
			}

			summaryPath := filepath.Join(outDir, "metrics_summary.csv")
			f, err := os.Create(summaryPath)
			if err != nil {
				logger.Error("Failed to create summary export", "err", err)
				return err
			}
			if err := harness.WriteSummaryCSV(f, summaryRows); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			logger.Info("Summary written", "path", summaryPath)

			if publishTo != "" {
				var factory interfaces.PayloadStoreFactory = storage.NewPayloadStoreFactory(logger)
				backend, err := factory.BackendFor(publishTo)
				if err != nil {
					logger.Error("Failed to create publish backend", "err", err)
					return err
				}

				hash, err := harness.Publish(context.Background(), backend, func(w io.Writer) error {
					return harness.WriteSummaryCSV(w, summaryRows)
				})
				if err != nil {
					logger.Error("Failed to publish summary", "err", err)
					return err
				}
				logger.Info("Summary published", "backend", backend.LocationURI(), "hash", hash.String())
			}

			if metricsAddr != "" {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
					logger.Error("Metrics server shutdown failed", "err", err)
				}
			}

			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
