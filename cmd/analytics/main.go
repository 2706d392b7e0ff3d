package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/DHyde226/solana-ai-analytics/pkg/classify"
	"github.com/DHyde226/solana-ai-analytics/pkg/config"
	"github.com/DHyde226/solana-ai-analytics/pkg/dashboard"
	"github.com/DHyde226/solana-ai-analytics/pkg/db"
	"github.com/DHyde226/solana-ai-analytics/pkg/features"
	"github.com/DHyde226/solana-ai-analytics/pkg/normalize"
	"github.com/DHyde226/solana-ai-analytics/pkg/report"
	"github.com/DHyde226/solana-ai-analytics/pkg/solana"
)

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).With().Timestamp().Logger()
	log.Info().Msg("🔍 Solana wallet analytics starting...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config invalid")
	}

	store, err := db.NewStore(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("database init failed")
	}
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() { <-sigCh; log.Info().Msg("shutting down..."); cancel() }()

	if cfg.DashboardPort > 0 {
		dash := dashboard.New(store, cfg.DashboardPort)
		go func() {
			if err := dash.Run(); err != nil {
				log.Error().Err(err).Msg("dashboard stopped")
			}
		}()
	}

	if err := runPipeline(ctx, cfg, store); err != nil && err != context.Canceled {
		log.Fatal().Err(err).Msg("pipeline failed")
	}

	if cfg.ScanCron != "" {
		c := cron.New()
		_, err := c.AddFunc(cfg.ScanCron, func() {
			if err := runPipeline(ctx, cfg, store); err != nil && err != context.Canceled {
				log.Error().Err(err).Msg("scheduled run failed")
			}
		})
		if err != nil {
			log.Fatal().Err(err).Str("spec", cfg.ScanCron).Msg("bad SCAN_CRON")
		}
		c.Start()
		log.Info().Str("spec", cfg.ScanCron).Msg("⏰ periodic scans scheduled")
		<-ctx.Done()
		<-c.Stop().Done()
	} else if cfg.DashboardPort > 0 {
		<-ctx.Done()
	}

	log.Info().Msg("goodbye 👋")
}

// runPipeline executes one full pass: fetch (optional) -> normalize ->
// aggregate -> finalize -> classify -> persist + report.
func runPipeline(ctx context.Context, cfg *config.Config, store *db.Store) error {
	if cfg.FetchLimit > 0 {
		feed, err := solana.FeedAddress(cfg)
		if err != nil {
			return err
		}
		fetcher := solana.NewFetcher(solana.NewClient(cfg), store, cfg)
		n, err := fetcher.FetchInto(ctx, feed, cfg.FetchLimit)
		if err != nil {
			return err
		}
		log.Info().Int("txs", n).Msg("fetch phase complete")
	}

	raws, err := store.RecentTransactions("global", cfg.NormalizeLimit)
	if err != nil {
		return err
	}
	records := normalizeAll(raws)
	log.Info().Int("loaded", len(raws)).Int("normalized", len(records)).Msg("📥 corpus ready")

	agg, err := features.AggregateRecords(ctx, records, cfg.AggregatorShards, config.DefiPrograms)
	if err != nil {
		return err
	}
	vectors := agg.Finalize()
	typeLabels := agg.TypeLabels()
	log.Info().
		Int("wallets", len(vectors)).
		Int("types", len(typeLabels)).
		Msg("✅ features extracted")

	rows := make([]report.Row, 0, len(vectors))
	for _, fv := range vectors {
		ratios := classify.ComputeRatios(fv, config.TypeCategories)
		label := classify.Classify(classify.NewRuleInput(fv, ratios))
		rows = append(rows, report.Row{Vector: fv, Ratios: ratios, Archetype: label})

		fj, _ := json.Marshal(fv)
		if err := store.UpsertArchetype(fv.Wallet, string(label), string(fj)); err != nil {
			log.Warn().Err(err).Str("wallet", fv.Wallet).Msg("archetype persist failed")
		}
	}

	if err := report.WriteCSV(cfg.OutputCSV, typeLabels, rows); err != nil {
		return err
	}
	log.Info().Str("path", cfg.OutputCSV).Int("rows", len(rows)).Msg("💾 feature table written")

	if cfg.TableRows > 0 {
		report.RenderTable(os.Stdout, rows, cfg.TableRows)
	}
	report.PrintSummary(os.Stdout, rows)
	return nil
}

// normalizeAll converts stored raw payloads, backfilling signature and block
// time from the row when the payload lacks them. Undecodable rows are
// skipped.
func normalizeAll(raws []db.RawTransaction) []normalize.Record {
	var records []normalize.Record
	for _, rt := range raws {
		rec, ok := normalize.Normalize(rt.RawJSON)
		if !ok {
			continue
		}
		if rec.Signature == "" {
			rec.Signature = rt.Signature
		}
		if rec.Time.IsZero() && rt.BlockTime > 0 {
			rec.BlockTime = rt.BlockTime
			rec.Time = time.Unix(rt.BlockTime, 0).UTC()
		}
		records = append(records, rec)
	}
	return records
}
