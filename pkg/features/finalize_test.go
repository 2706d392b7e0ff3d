package features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DHyde226/solana-ai-analytics/pkg/normalize"
)

func TestFinalizeDropsWalletsWithoutValidTimestamps(t *testing.T) {
	agg := NewAggregator(testDefiPrograms)
	agg.Ingest(solTransfer("ghost", "dest", 100), TxContext{TypeLabel: "unknown"}) // zero time

	assert.Empty(t, agg.Finalize())
}

func TestFinalizeTxCountCountsValidTimestampsOnly(t *testing.T) {
	agg := NewAggregator(testDefiPrograms)
	agg.Ingest(solTransfer("w", "d", 100), TxContext{TypeLabel: "system:transfer", Time: ts(10)})
	agg.Ingest(solTransfer("w", "d", 100), TxContext{TypeLabel: "system:transfer"}) // no timestamp
	agg.Ingest(solTransfer("w", "d", 100), TxContext{TypeLabel: "system:transfer", Time: ts(20)})

	rows := agg.Finalize()
	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].TxCount)
	// the type counter still saw all three transfers
	assert.Equal(t, 3, rows[0].TypeCounts["system:transfer"])
}

func TestFinalizeIntervals(t *testing.T) {
	agg := NewAggregator(testDefiPrograms)
	ctxAt := func(sec int64) TxContext {
		return TxContext{TypeLabel: "unknown", Time: ts(sec)}
	}
	// out of order on purpose; gaps after sorting: 10, 30
	agg.Ingest(solTransfer("w", "d", 0), ctxAt(140))
	agg.Ingest(solTransfer("w", "d", 0), ctxAt(100))
	agg.Ingest(solTransfer("w", "d", 0), ctxAt(110))

	rows := agg.Finalize()
	require.Len(t, rows, 1)
	assert.InDelta(t, 20.0, rows[0].AvgTxInterval, 1e-9)
	assert.InDelta(t, 10.0, rows[0].StdTxInterval, 1e-9) // population stddev of {10, 30}
}

func TestFinalizeSingleTxHasZeroIntervals(t *testing.T) {
	agg := NewAggregator(testDefiPrograms)
	agg.Ingest(solTransfer("w", "d", 5_000_000_000), TxContext{TypeLabel: "unknown", Time: ts(1)})

	rows := agg.Finalize()
	require.Len(t, rows, 1)
	assert.Zero(t, rows[0].AvgTxInterval)
	assert.Zero(t, rows[0].StdTxInterval)
}

func TestFinalizeAmountStatistics(t *testing.T) {
	agg := NewAggregator(testDefiPrograms)
	ctx := TxContext{TypeLabel: "unknown", Time: ts(1)}
	for _, lamports := range []int64{1_000_000_000, 2_000_000_000, 4_000_000_000, 3_000_000_000} {
		agg.Ingest(solTransfer("w", "d", lamports), ctx)
	}

	rows := agg.Finalize()
	require.Len(t, rows, 1)
	v := rows[0]
	assert.InDelta(t, 10.0, v.TotalSentSOL, 1e-9)
	assert.InDelta(t, 2.5, v.AvgTxValue, 1e-9)
	assert.InDelta(t, 2.5, v.MedianTxValue, 1e-9) // even count: mean of 2 and 3
	assert.InDelta(t, 4.0, v.MaxTxValue, 1e-9)
}

func TestFinalizeFees(t *testing.T) {
	agg := NewAggregator(testDefiPrograms)
	agg.Ingest(solTransfer("w", "d", 0), TxContext{Fee: 5000, TypeLabel: "unknown", Time: ts(1)})
	agg.Ingest(solTransfer("w", "d", 0), TxContext{Fee: 7000, TypeLabel: "unknown", Time: ts(2)})

	rows := agg.Finalize()
	require.Len(t, rows, 1)
	assert.InDelta(t, 12000.0, rows[0].TotalFee, 1e-9)
	assert.InDelta(t, 6000.0, rows[0].AvgFee, 1e-9)
	assert.InDelta(t, 6000.0, rows[0].FeeRatio, 1e-9)
}

// The whole transaction fee is attributed to every transfer source in that
// transaction, so a wallet sourcing two transfers of one transaction counts
// the fee twice. Intentional: this mirrors upstream attribution even though
// it double-counts for multi-transfer transactions.
func TestFeeAttributedPerTransferNotPerTransaction(t *testing.T) {
	agg := NewAggregator(testDefiPrograms)
	agg.IngestRecord(normalize.Record{
		Type: "system:transfer",
		Fee:  5000,
		Time: ts(1),
		Transfers: []normalize.Transfer{
			solTransfer("w", "d1", 100),
			solTransfer("w", "d2", 200),
		},
	})

	rows := agg.Finalize()
	require.Len(t, rows, 1)
	assert.InDelta(t, 10000.0, rows[0].TotalFee, 1e-9)
}

func TestDestEntropy(t *testing.T) {
	build := func(dests ...string) FeatureVector {
		agg := NewAggregator(testDefiPrograms)
		for i, d := range dests {
			agg.Ingest(solTransfer("w", d, 100), TxContext{TypeLabel: "unknown", Time: ts(int64(i + 1))})
		}
		rows := agg.Finalize()
		require.Len(t, rows, 1)
		return rows[0]
	}

	t.Run("identical destinations", func(t *testing.T) {
		v := build("a", "a", "a")
		assert.Zero(t, v.DestEntropy)
		assert.Equal(t, 1, v.UniqueDestinations)
	})

	t.Run("empty destinations excluded", func(t *testing.T) {
		v := build("", "", "")
		assert.Zero(t, v.DestEntropy)
		assert.Equal(t, 0, v.UniqueDestinations)
	})

	t.Run("varied destinations strictly positive", func(t *testing.T) {
		v := build("a", "a", "b")
		assert.Greater(t, v.DestEntropy, 0.0)
	})

	t.Run("uniform distribution is maximal", func(t *testing.T) {
		v := build("a", "b", "c", "d")
		assert.InDelta(t, math.Log(4), v.DestEntropy, 1e-9)

		skewed := build("a", "a", "a", "b")
		assert.Less(t, skewed.DestEntropy, v.DestEntropy)
	})
}

func TestTokenDiversityIgnoresEmptyMints(t *testing.T) {
	agg := NewAggregator(testDefiPrograms)
	ctx := TxContext{TypeLabel: "unknown", Time: ts(1)}
	agg.Ingest(splTransfer("w", "d", "tokenA", 5), ctx)
	agg.Ingest(splTransfer("w", "d", "tokenA", 5), ctx)
	agg.Ingest(splTransfer("w", "d", "tokenB", 5), ctx)
	agg.Ingest(splTransfer("w", "d", "", 5), ctx)

	rows := agg.Finalize()
	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].TokenDiversity)
}

func TestMintRatio(t *testing.T) {
	agg := NewAggregator(testDefiPrograms)
	agg.Ingest(splTransfer("w", "d", "SomeMint", 5), TxContext{TypeLabel: "unknown", Time: ts(1)})
	agg.Ingest(splTransfer("w", "d", "tokenB", 5), TxContext{TypeLabel: "unknown", Time: ts(2)})

	rows := agg.Finalize()
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].MintCount)
	assert.InDelta(t, 0.5, rows[0].MintRatio, 1e-9)
}

func TestSchemaStableAcrossWallets(t *testing.T) {
	agg := NewAggregator(testDefiPrograms)
	agg.Ingest(solTransfer("w1", "d", 100), TxContext{TypeLabel: "system:transfer", Time: ts(1)})
	agg.Ingest(splTransfer("w2", "d", "tok", 5), TxContext{TypeLabel: "spl-token:transfer", Time: ts(2)})

	rows := agg.Finalize()
	require.Len(t, rows, 2)
	for _, v := range rows {
		// every row carries every corpus label, zero when unseen
		require.Len(t, v.TypeCounts, 2)
		assert.Contains(t, v.TypeCounts, "system:transfer")
		assert.Contains(t, v.TypeCounts, "spl-token:transfer")
	}
	assert.Equal(t, 1, rows[0].TypeCounts["system:transfer"])
	assert.Equal(t, 0, rows[0].TypeCounts["spl-token:transfer"])
}

func TestFinalizeRowsSortedByWallet(t *testing.T) {
	agg := NewAggregator(testDefiPrograms)
	for _, w := range []string{"zeta", "alpha", "mid"} {
		agg.Ingest(solTransfer(w, "d", 100), TxContext{TypeLabel: "unknown", Time: ts(1)})
	}

	rows := agg.Finalize()
	require.Len(t, rows, 3)
	assert.Equal(t, "alpha", rows[0].Wallet)
	assert.Equal(t, "mid", rows[1].Wallet)
	assert.Equal(t, "zeta", rows[2].Wallet)
}

func TestTypeColumn(t *testing.T) {
	tests := []struct {
		label string
		want  string
	}{
		{"system:transfer", "type_system_transfer"},
		{"spl-associated-token-account:createIdempotent", "type_spl_associated_token_account_createIdempotent"},
		{"unknown", "type_unknown"},
		{"weird :: label", "type_weird_label"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TypeColumn(tt.label))
	}
}
