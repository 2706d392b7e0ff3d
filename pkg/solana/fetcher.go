package solana

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/DHyde226/solana-ai-analytics/pkg/config"
	"github.com/DHyde226/solana-ai-analytics/pkg/db"
)

// Fetcher pulls pages of recent ledger transactions and stores them raw.
// Feed acquisition is best-effort: RPC failures end the run with whatever
// was stored so far, they never fail the pipeline.
type Fetcher struct {
	client *Client
	store  *db.Store
	cfg    *config.Config
}

func NewFetcher(client *Client, store *db.Store, cfg *config.Config) *Fetcher {
	return &Fetcher{client: client, store: store, cfg: cfg}
}

// FetchInto paginates backwards through the feed's signature history until
// total transactions are stored (or the feed runs dry), fetching details
// with a bounded worker group and pausing between pages to respect rate
// limits. Returns the number of newly stored transactions.
func (f *Fetcher) FetchInto(ctx context.Context, feed string, total int) (int, error) {
	fetched := 0
	stored := 0
	before := ""

	for fetched < total {
		if err := ctx.Err(); err != nil {
			return stored, err
		}

		batch := f.cfg.FetchBatchSize
		if remaining := total - fetched; batch > remaining {
			batch = remaining
		}

		sigs, err := f.client.GetSignatures(ctx, feed, batch, before)
		if err != nil {
			log.Warn().Err(err).Msg("signature page failed — stopping fetch")
			break
		}
		if len(sigs) == 0 {
			log.Info().Msg("feed exhausted")
			break
		}

		txs := f.fetchDetails(ctx, sigs)
		inserted, err := f.store.InsertTransactions("global", txs)
		if err != nil {
			return stored, err
		}
		fetched += len(txs)
		stored += inserted

		log.Info().
			Int("page", len(txs)).
			Int("new", inserted).
			Int("total", fetched).
			Msg("📦 stored transaction page")

		// Oldest signature of the page is the next pagination cursor.
		before = sigs[len(sigs)-1].Signature

		select {
		case <-ctx.Done():
			return stored, ctx.Err()
		case <-time.After(f.cfg.FetchPause):
		}
	}

	return stored, nil
}

// fetchDetails resolves a page of signatures into raw transaction payloads.
// Individual failures are skipped.
func (f *Fetcher) fetchDetails(ctx context.Context, sigs []SignatureInfo) []db.RawTransaction {
	var (
		mu  sync.Mutex
		txs []db.RawTransaction
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(f.cfg.FetchWorkers)

	for _, si := range sigs {
		si := si
		g.Go(func() error {
			detail, err := f.client.GetTransaction(ctx, si.Signature)
			if err != nil || detail == nil {
				if err != nil {
					log.Warn().Err(err).Str("sig", abbrev(si.Signature)).Msg("tx fetch failed")
				}
				return nil
			}
			raw := injectSignature(detail, si.Signature)
			mu.Lock()
			txs = append(txs, db.RawTransaction{
				Signature: si.Signature,
				BlockTime: si.BlockTime,
				RawJSON:   raw,
			})
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return txs
}

// injectSignature writes the signature into the stored payload so downstream
// normalization sees it without needing the surrounding row.
func injectSignature(detail json.RawMessage, sig string) []byte {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(detail, &obj); err != nil {
		return detail
	}
	sigJSON, _ := json.Marshal(sig)
	obj["signature"] = sigJSON
	out, err := json.Marshal(obj)
	if err != nil {
		return detail
	}
	return out
}

func abbrev(s string) string {
	if len(s) > 12 {
		return s[:6] + "..." + s[len(s)-4:]
	}
	return s
}
