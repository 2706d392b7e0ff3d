package normalize

import (
	"encoding/json"
	"strconv"
	"time"
)

// Transfer is one fund movement inside a transaction. Kind is "sol" for native
// transfers and "spl-token" for token transfers. Amount stays in native units
// (lamports / token base units); conversion happens at feature time.
type Transfer struct {
	Kind        string `json:"kind"`
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Amount      int64  `json:"amount"`
	Mint        string `json:"mint,omitempty"`
}

// Record is one normalized transaction: its fee, inferred type label, optional
// timestamp, and every transfer extracted from its parsed instructions.
type Record struct {
	Signature string     `json:"signature"`
	BlockTime int64      `json:"block_time"`
	Time      time.Time  `json:"datetime"` // zero when block time is absent
	Type      string     `json:"type"`
	Fee       int64      `json:"fee"`
	Transfers []Transfer `json:"transfers"`
}

type rawInstruction struct {
	Program string `json:"program"`
	Parsed  struct {
		Type string                     `json:"type"`
		Info map[string]json.RawMessage `json:"info"`
	} `json:"parsed"`
}

type rawTransaction struct {
	Signature   string `json:"signature"`
	BlockTime   int64  `json:"blockTime"`
	Meta        struct {
		Fee int64 `json:"fee"`
	} `json:"meta"`
	Transaction struct {
		Message struct {
			Instructions []json.RawMessage `json:"instructions"`
		} `json:"message"`
	} `json:"transaction"`
}

// Normalize converts one raw jsonParsed transaction payload into a Record.
// Undecodable payloads return ok=false; malformed pieces inside an otherwise
// valid payload degrade to defaults rather than failing the record.
func Normalize(raw []byte) (Record, bool) {
	var tx rawTransaction
	if err := json.Unmarshal(raw, &tx); err != nil {
		return Record{}, false
	}

	rec := Record{
		Signature: tx.Signature,
		BlockTime: tx.BlockTime,
		Fee:       tx.Meta.Fee,
		Type:      "unknown",
	}
	if tx.BlockTime > 0 {
		rec.Time = time.Unix(tx.BlockTime, 0).UTC()
	}

	instrs := decodeInstructions(tx.Transaction.Message.Instructions)
	rec.Type = inferType(instrs)
	rec.Transfers = extractTransfers(instrs)
	return rec, true
}

// decodeInstructions keeps only instructions that decode to parsed objects.
// Raw (non-parsed) instructions are base58 strings and carry nothing usable.
func decodeInstructions(raws []json.RawMessage) []rawInstruction {
	var out []rawInstruction
	for _, r := range raws {
		var ix rawInstruction
		if err := json.Unmarshal(r, &ix); err != nil {
			continue
		}
		if ix.Parsed.Type == "" && ix.Parsed.Info == nil {
			continue
		}
		out = append(out, ix)
	}
	return out
}

// inferType labels the transaction after its first parsed instruction,
// as "program:type".
func inferType(instrs []rawInstruction) string {
	for _, ix := range instrs {
		t := ix.Parsed.Type
		if t == "" {
			t = "unknown"
		}
		if ix.Program != "" {
			return ix.Program + ":" + t
		}
		return t
	}
	return "unknown"
}

// extractTransfers pulls SOL and SPL token transfers out of the parsed
// instructions. Anything else is ignored.
func extractTransfers(instrs []rawInstruction) []Transfer {
	var transfers []Transfer
	for _, ix := range instrs {
		info := ix.Parsed.Info
		if info == nil {
			continue
		}

		switch {
		case ix.Program == "system" && ix.Parsed.Type == "transfer":
			transfers = append(transfers, Transfer{
				Kind:        "sol",
				Source:      infoString(info, "source"),
				Destination: infoString(info, "destination"),
				Amount:      infoInt(info, "lamports"),
			})

		case ix.Program == "spl-token" && (ix.Parsed.Type == "transfer" || ix.Parsed.Type == "transferChecked"):
			amount := infoInt(info, "amount")
			// transferChecked nests the amount under tokenAmount
			if ta, ok := info["tokenAmount"]; ok {
				var nested struct {
					Amount json.RawMessage `json:"amount"`
				}
				if json.Unmarshal(ta, &nested) == nil && nested.Amount != nil {
					amount = coerceInt(nested.Amount)
				}
			}
			transfers = append(transfers, Transfer{
				Kind:        "spl-token",
				Mint:        infoString(info, "mint"),
				Source:      infoString(info, "source"),
				Destination: infoString(info, "destination"),
				Amount:      amount,
			})
		}
	}
	return transfers
}

func infoString(info map[string]json.RawMessage, key string) string {
	raw, ok := info[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func infoInt(info map[string]json.RawMessage, key string) int64 {
	raw, ok := info[key]
	if !ok {
		return 0
	}
	return coerceInt(raw)
}

// coerceInt reads an integer that may arrive as a JSON number or a numeric
// string (SPL amounts are strings). Anything else coerces to 0.
func coerceInt(raw json.RawMessage) int64 {
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.ParseInt(s, 10, 64); err == nil {
			return v
		}
	}
	return 0
}
