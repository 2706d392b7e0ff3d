package features

import (
	"math"
	"sort"
	"strings"
	"time"
)

const lamportsPerSOL = 1e9

// FeatureVector is the immutable per-wallet feature row. TypeCounts carries
// one entry per type label observed anywhere in the corpus; labels this
// wallet never produced are present with count 0, so every row shares one
// schema.
type FeatureVector struct {
	Wallet             string  `json:"wallet"`
	TxCount            int     `json:"tx_count"`
	TotalSentSOL       float64 `json:"total_sent_sol"`
	AvgTxValue         float64 `json:"avg_tx_value"`
	MedianTxValue      float64 `json:"median_tx_value"`
	MaxTxValue         float64 `json:"max_tx_value"`
	AvgFee             float64 `json:"avg_fee"`
	TotalFee           float64 `json:"total_fee"`
	FeeRatio           float64 `json:"fee_ratio"`
	AvgTxInterval      float64 `json:"avg_tx_interval"`
	StdTxInterval      float64 `json:"std_tx_interval"`
	UniqueDestinations int     `json:"unique_destinations"`
	DestEntropy        float64 `json:"dest_entropy"`
	TokenDiversity     int     `json:"token_diversity"`
	MintCount          int     `json:"mint_count"`
	MintRatio          float64 `json:"mint_ratio"`

	TypeCounts map[string]int `json:"type_counts"`
}

// Finalize converts every wallet aggregate into a feature vector against the
// corpus-wide type schema. Wallets with no valid timestamp contribute no row.
// Rows come back sorted by wallet address for stable output.
func (a *Aggregator) Finalize() []FeatureVector {
	labels := a.TypeLabels()

	var out []FeatureVector
	for addr, w := range a.wallets {
		fv, ok := finalizeWallet(addr, w, labels)
		if ok {
			out = append(out, fv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Wallet < out[j].Wallet })
	return out
}

func finalizeWallet(addr string, w *WalletAggregate, labels []string) (FeatureVector, bool) {
	var valid []time.Time
	for _, t := range w.Timestamps {
		if !t.IsZero() {
			valid = append(valid, t)
		}
	}
	txCount := len(valid)
	if txCount == 0 {
		return FeatureVector{}, false
	}
	sort.Slice(valid, func(i, j int) bool { return valid[i].Before(valid[j]) })

	fv := FeatureVector{
		Wallet:     addr,
		TxCount:    txCount,
		TypeCounts: make(map[string]int, len(labels)),
	}

	if txCount > 1 {
		gaps := make([]float64, 0, txCount-1)
		for i := 1; i < txCount; i++ {
			gaps = append(gaps, valid[i].Sub(valid[i-1]).Seconds())
		}
		fv.AvgTxInterval = mean(gaps)
		fv.StdTxInterval = stddev(gaps)
	}

	amounts := make([]float64, 0, len(w.AmountsSent))
	for _, l := range w.AmountsSent {
		amounts = append(amounts, float64(l)/lamportsPerSOL)
	}
	if len(amounts) == 0 {
		amounts = []float64{0}
	}
	fv.TotalSentSOL = sum(amounts)
	fv.AvgTxValue = mean(amounts)
	fv.MedianTxValue = median(amounts)
	fv.MaxTxValue = max(amounts)

	fees := make([]float64, 0, len(w.Fees))
	for _, f := range w.Fees {
		fees = append(fees, float64(f))
	}
	fv.TotalFee = sum(fees)
	fv.AvgFee = mean(fees)
	fv.FeeRatio = fv.TotalFee / float64(txCount)

	var dests []string
	for _, d := range w.Destinations {
		if d != "" {
			dests = append(dests, d)
		}
	}
	fv.DestEntropy = entropy(dests)
	fv.UniqueDestinations = distinct(dests)

	var tokens []string
	for _, t := range w.Tokens {
		if t != "" {
			tokens = append(tokens, t)
		}
	}
	fv.TokenDiversity = distinct(tokens)

	fv.MintCount = w.MintEvents
	fv.MintRatio = float64(w.MintEvents) / float64(txCount)

	for _, label := range labels {
		fv.TypeCounts[label] = w.TypeCounts[label]
	}

	return fv, true
}

// entropy computes the Shannon entropy (natural log) of the value
// distribution: -sum(p * ln p) over relative frequencies. Empty or uniform
// single-value inputs yield 0.
func entropy(items []string) float64 {
	if len(items) == 0 {
		return 0
	}
	counts := map[string]int{}
	for _, it := range items {
		counts[it]++
	}
	total := float64(len(items))
	h := 0.0
	for _, c := range counts {
		p := float64(c) / total
		h -= p * math.Log(p)
	}
	return h
}

func distinct(items []string) int {
	seen := map[string]struct{}{}
	for _, it := range items {
		seen[it] = struct{}{}
	}
	return len(seen)
}

func sum(v []float64) float64 {
	s := 0.0
	for _, x := range v {
		s += x
	}
	return s
}

func mean(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	return sum(v) / float64(len(v))
}

// stddev is the population standard deviation.
func stddev(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	m := mean(v)
	sq := 0.0
	for _, x := range v {
		sq += (x - m) * (x - m)
	}
	return math.Sqrt(sq / float64(len(v)))
}

func median(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	s := append([]float64(nil), v...)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

func max(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	m := v[0]
	for _, x := range v[1:] {
		if x > m {
			m = x
		}
	}
	return m
}

// TypeColumn converts a raw type label into its column name: the "type_"
// prefix plus the label with runs of non-alphanumeric characters collapsed
// into single underscores.
func TypeColumn(label string) string {
	var b strings.Builder
	b.WriteString("type_")
	prevSep := false
	for _, r := range label {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			prevSep = false
		} else if !prevSep {
			b.WriteByte('_')
			prevSep = true
		}
	}
	return b.String()
}
