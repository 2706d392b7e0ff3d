package classify

import (
	"github.com/DHyde226/solana-ai-analytics/pkg/config"
	"github.com/DHyde226/solana-ai-analytics/pkg/features"
)

// CategoryRatios are the per-category activity fractions of a wallet. Each is
// in [0,1]; they need not sum to 1 — unclassified types hold the residual.
type CategoryRatios struct {
	Defi   float64 `json:"defi_ratio"`
	Bot    float64 `json:"bot_ratio"`
	System float64 `json:"system_ratio"`
	Retail float64 `json:"retail_ratio"`
}

// ComputeRatios resolves every type-count column of the vector through the
// category table and accumulates count/tx_count per category. Unknown labels
// contribute to none of the four ratios. Division is zero-guarded and each
// ratio is clamped into [0,1].
func ComputeRatios(fv features.FeatureVector, categories map[string]config.Category) CategoryRatios {
	var r CategoryRatios
	if fv.TxCount == 0 {
		return r
	}

	total := float64(fv.TxCount)
	for label, count := range fv.TypeCounts {
		if count == 0 {
			continue
		}
		ratio := float64(count) / total

		cat, ok := categories[label]
		if !ok {
			cat = config.CategoryUnclassified
		}
		switch cat {
		case config.CategoryDefi:
			r.Defi += ratio
		case config.CategoryBot:
			r.Bot += ratio
		case config.CategorySystem:
			r.System += ratio
		case config.CategoryRetail:
			r.Retail += ratio
		}
	}

	r.Defi = clamp01(r.Defi)
	r.Bot = clamp01(r.Bot)
	r.System = clamp01(r.System)
	r.Retail = clamp01(r.Retail)
	return r
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
