package features

import (
	"context"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/DHyde226/solana-ai-analytics/pkg/normalize"
)

// TxContext is the per-transaction context shared by every transfer in that
// transaction: the whole fee, the inferred type label, and the block time.
// The fee is attributed to every transfer source in the transaction, the same
// way the source address is — it is not split between them.
type TxContext struct {
	Fee       int64
	TypeLabel string
	Time      time.Time // zero when the block time is unknown
}

// WalletAggregate is the running per-wallet accumulator. It only grows during
// a scan; statistics are derived at finalize time, never incrementally.
type WalletAggregate struct {
	Timestamps   []time.Time
	Destinations []string
	AmountsSent  []int64
	Fees         []int64
	Tokens       []string
	MintEvents   int
	DefiPrograms map[string]struct{}
	TypeCounts   map[string]int
}

func newWalletAggregate() *WalletAggregate {
	return &WalletAggregate{
		DefiPrograms: map[string]struct{}{},
		TypeCounts:   map[string]int{},
	}
}

// Aggregator folds transfer events into per-wallet aggregates. It also tracks
// the corpus-wide set of type labels, which fixes the feature schema: every
// wallet's vector carries a count column for every label seen anywhere.
type Aggregator struct {
	wallets      map[string]*WalletAggregate
	types        map[string]struct{}
	defiPrograms []string // lowercased name fragments
}

func NewAggregator(defiPrograms []string) *Aggregator {
	lowered := make([]string, len(defiPrograms))
	for i, p := range defiPrograms {
		lowered[i] = strings.ToLower(p)
	}
	return &Aggregator{
		wallets:      map[string]*WalletAggregate{},
		types:        map[string]struct{}{},
		defiPrograms: lowered,
	}
}

// IngestRecord feeds one normalized transaction into the aggregator. The
// record's type label joins the global schema even when none of its transfers
// is attributable to a wallet.
func (a *Aggregator) IngestRecord(rec normalize.Record) {
	typeLabel := rec.Type
	if typeLabel == "" {
		typeLabel = "unknown"
	}
	a.types[typeLabel] = struct{}{}

	ctx := TxContext{Fee: rec.Fee, TypeLabel: typeLabel, Time: rec.Time}
	for _, tr := range rec.Transfers {
		a.Ingest(tr, ctx)
	}
}

// Ingest records one transfer against its source wallet. Transfers without a
// source are not attributable and are dropped. Never fails: missing fields
// degrade to empty strings and zeros.
func (a *Aggregator) Ingest(tr normalize.Transfer, ctx TxContext) {
	if tr.Source == "" {
		return
	}
	a.types[ctx.TypeLabel] = struct{}{}

	w := a.wallet(tr.Source)
	w.Timestamps = append(w.Timestamps, ctx.Time)
	w.Fees = append(w.Fees, ctx.Fee)
	w.Destinations = append(w.Destinations, tr.Destination)
	w.AmountsSent = append(w.AmountsSent, tr.Amount)
	w.TypeCounts[ctx.TypeLabel]++

	if tr.Kind == "spl-token" {
		w.Tokens = append(w.Tokens, tr.Mint)
		// Heuristic proxy for mint/burn-style operations, not a guarantee.
		if strings.Contains(strings.ToLower(tr.Mint), "mint") || tr.Amount == 0 {
			w.MintEvents++
		}
	}

	if tr.Destination != "" {
		dst := strings.ToLower(tr.Destination)
		for _, p := range a.defiPrograms {
			if strings.Contains(dst, p) {
				w.DefiPrograms[tr.Destination] = struct{}{}
				break
			}
		}
	}
}

func (a *Aggregator) wallet(addr string) *WalletAggregate {
	w, ok := a.wallets[addr]
	if !ok {
		w = newWalletAggregate()
		a.wallets[addr] = w
	}
	return w
}

// Merge folds another aggregator into the receiver: lists concatenate,
// counters sum, sets union. Merge order does not affect the finalized
// features because all statistics are computed from the merged lists.
func (a *Aggregator) Merge(other *Aggregator) {
	for t := range other.types {
		a.types[t] = struct{}{}
	}
	for addr, ow := range other.wallets {
		w := a.wallet(addr)
		w.Timestamps = append(w.Timestamps, ow.Timestamps...)
		w.Destinations = append(w.Destinations, ow.Destinations...)
		w.AmountsSent = append(w.AmountsSent, ow.AmountsSent...)
		w.Fees = append(w.Fees, ow.Fees...)
		w.Tokens = append(w.Tokens, ow.Tokens...)
		w.MintEvents += ow.MintEvents
		for p := range ow.DefiPrograms {
			w.DefiPrograms[p] = struct{}{}
		}
		for t, n := range ow.TypeCounts {
			w.TypeCounts[t] += n
		}
	}
}

// TypeLabels returns the corpus-wide set of observed type labels, sorted.
func (a *Aggregator) TypeLabels() []string {
	labels := make([]string, 0, len(a.types))
	for t := range a.types {
		labels = append(labels, t)
	}
	sort.Strings(labels)
	return labels
}

// WalletCount reports how many distinct source wallets have been seen.
func (a *Aggregator) WalletCount() int {
	return len(a.wallets)
}

// AggregateRecords shards the batch across workers, each folding into a
// private aggregator, and merges the shards. Per-wallet mutation stays
// single-writer because every shard owns its aggregates exclusively.
func AggregateRecords(ctx context.Context, records []normalize.Record, shards int, defiPrograms []string) (*Aggregator, error) {
	if shards < 1 {
		shards = 1
	}
	if shards > len(records) && len(records) > 0 {
		shards = len(records)
	}

	partials := make([]*Aggregator, shards)
	g, ctx := errgroup.WithContext(ctx)
	chunk := (len(records) + shards - 1) / shards

	for i := 0; i < shards; i++ {
		i := i
		lo := i * chunk
		if lo > len(records) {
			lo = len(records)
		}
		hi := lo + chunk
		if hi > len(records) {
			hi = len(records)
		}
		g.Go(func() error {
			agg := NewAggregator(defiPrograms)
			for _, rec := range records[lo:hi] {
				if err := ctx.Err(); err != nil {
					return err
				}
				agg.IngestRecord(rec)
			}
			partials[i] = agg
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := NewAggregator(defiPrograms)
	for _, p := range partials {
		if p != nil {
			merged.Merge(p)
		}
	}
	return merged, nil
}
