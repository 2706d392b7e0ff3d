package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSystemTransfer(t *testing.T) {
	raw := []byte(`{
		"signature": "sig1",
		"blockTime": 1700000000,
		"meta": {"fee": 5000},
		"transaction": {"message": {"instructions": [
			{"program": "system", "programId": "11111111111111111111111111111111",
			 "parsed": {"type": "transfer", "info": {
				"source": "walletA", "destination": "walletB", "lamports": 1000000}}}
		]}}
	}`)

	rec, ok := Normalize(raw)
	require.True(t, ok)
	assert.Equal(t, "sig1", rec.Signature)
	assert.Equal(t, int64(5000), rec.Fee)
	assert.Equal(t, "system:transfer", rec.Type)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), rec.Time)
	require.Len(t, rec.Transfers, 1)
	tr := rec.Transfers[0]
	assert.Equal(t, "sol", tr.Kind)
	assert.Equal(t, "walletA", tr.Source)
	assert.Equal(t, "walletB", tr.Destination)
	assert.Equal(t, int64(1000000), tr.Amount)
}

func TestNormalizeSplTokenTransfer(t *testing.T) {
	raw := []byte(`{
		"signature": "sig2",
		"blockTime": 1700000100,
		"meta": {"fee": 5000},
		"transaction": {"message": {"instructions": [
			{"program": "spl-token",
			 "parsed": {"type": "transfer", "info": {
				"source": "srcATA", "destination": "dstATA",
				"mint": "mintX", "amount": "123456"}}}
		]}}
	}`)

	rec, ok := Normalize(raw)
	require.True(t, ok)
	assert.Equal(t, "spl-token:transfer", rec.Type)
	require.Len(t, rec.Transfers, 1)
	tr := rec.Transfers[0]
	assert.Equal(t, "spl-token", tr.Kind)
	assert.Equal(t, "mintX", tr.Mint)
	// SPL amounts arrive as strings
	assert.Equal(t, int64(123456), tr.Amount)
}

func TestNormalizeTransferCheckedNestedAmount(t *testing.T) {
	raw := []byte(`{
		"signature": "sig3",
		"blockTime": 1700000200,
		"meta": {"fee": 5000},
		"transaction": {"message": {"instructions": [
			{"program": "spl-token",
			 "parsed": {"type": "transferChecked", "info": {
				"source": "srcATA", "destination": "dstATA", "mint": "mintY",
				"tokenAmount": {"amount": "777", "decimals": 6, "uiAmount": 0.000777}}}}
		]}}
	}`)

	rec, ok := Normalize(raw)
	require.True(t, ok)
	require.Len(t, rec.Transfers, 1)
	assert.Equal(t, int64(777), rec.Transfers[0].Amount)
}

func TestNormalizeTypeFromFirstParsedInstruction(t *testing.T) {
	raw := []byte(`{
		"signature": "sig4",
		"blockTime": 1700000300,
		"meta": {"fee": 5000},
		"transaction": {"message": {"instructions": [
			"3Bxs4h24hBtQy9rw",
			{"program": "compute-budget", "parsed": {"type": "setComputeUnitLimit", "info": {"units": 200000}}},
			{"program": "system", "parsed": {"type": "transfer", "info": {
				"source": "a", "destination": "b", "lamports": 1}}}
		]}}
	}`)

	rec, ok := Normalize(raw)
	require.True(t, ok)
	// raw base58 instruction is skipped; first parsed one wins
	assert.Equal(t, "compute-budget:setComputeUnitLimit", rec.Type)
	require.Len(t, rec.Transfers, 1)
}

func TestNormalizeNoParsedInstructions(t *testing.T) {
	raw := []byte(`{
		"signature": "sig5",
		"blockTime": 1700000400,
		"meta": {"fee": 5000},
		"transaction": {"message": {"instructions": ["3Bxs4h24hBtQy9rw"]}}
	}`)

	rec, ok := Normalize(raw)
	require.True(t, ok)
	assert.Equal(t, "unknown", rec.Type)
	assert.Empty(t, rec.Transfers)
}

func TestNormalizeMissingBlockTime(t *testing.T) {
	raw := []byte(`{
		"signature": "sig6",
		"meta": {"fee": 5000},
		"transaction": {"message": {"instructions": []}}
	}`)

	rec, ok := Normalize(raw)
	require.True(t, ok)
	assert.True(t, rec.Time.IsZero())
}

func TestNormalizeMalformedPieces(t *testing.T) {
	t.Run("invalid json payload", func(t *testing.T) {
		_, ok := Normalize([]byte(`not json at all`))
		assert.False(t, ok)
	})

	t.Run("non-numeric amount coerces to zero", func(t *testing.T) {
		raw := []byte(`{
			"signature": "sig7",
			"blockTime": 1700000500,
			"meta": {"fee": 5000},
			"transaction": {"message": {"instructions": [
				{"program": "spl-token", "parsed": {"type": "transfer", "info": {
					"source": "s", "destination": "d", "amount": "oops"}}}
			]}}
		}`)
		rec, ok := Normalize(raw)
		require.True(t, ok)
		require.Len(t, rec.Transfers, 1)
		assert.Zero(t, rec.Transfers[0].Amount)
	})

	t.Run("missing info fields default empty", func(t *testing.T) {
		raw := []byte(`{
			"signature": "sig8",
			"blockTime": 1700000600,
			"meta": {"fee": 5000},
			"transaction": {"message": {"instructions": [
				{"program": "system", "parsed": {"type": "transfer", "info": {}}}
			]}}
		}`)
		rec, ok := Normalize(raw)
		require.True(t, ok)
		require.Len(t, rec.Transfers, 1)
		assert.Empty(t, rec.Transfers[0].Source)
		assert.Empty(t, rec.Transfers[0].Destination)
		assert.Zero(t, rec.Transfers[0].Amount)
	})
}

func TestNormalizeIgnoresNonTransferInstructions(t *testing.T) {
	raw := []byte(`{
		"signature": "sig9",
		"blockTime": 1700000700,
		"meta": {"fee": 5000},
		"transaction": {"message": {"instructions": [
			{"program": "spl-token", "parsed": {"type": "approve", "info": {
				"source": "s", "delegate": "d", "amount": "10"}}},
			{"program": "system", "parsed": {"type": "createAccount", "info": {
				"source": "s", "newAccount": "n", "lamports": 2039280}}}
		]}}
	}`)

	rec, ok := Normalize(raw)
	require.True(t, ok)
	assert.Equal(t, "spl-token:approve", rec.Type)
	assert.Empty(t, rec.Transfers)
}
