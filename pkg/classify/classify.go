package classify

import (
	"github.com/DHyde226/solana-ai-analytics/pkg/features"
)

// Archetype is a wallet's behavioral label. The set is closed; Classify
// always returns exactly one of these.
type Archetype string

const (
	ArchetypeDormant      Archetype = "Dormant Wallet"
	ArchetypeWhale        Archetype = "Whale / Institutional Wallet"
	ArchetypeBot          Archetype = "Bot / Arbitrage Wallet"
	ArchetypeHybridBot    Archetype = "Hybrid DeFi Bot"
	ArchetypeDefiTrader   Archetype = "DeFi Trader / Yield Farmer"
	ArchetypeSystem       Archetype = "System / Infrastructure Account"
	ArchetypeRetail       Archetype = "Retail Wallet"
	ArchetypeUnclassified Archetype = "Unclassified"
)

// RuleInput carries the fields the decision list evaluates. Callers building
// one without interval data should set AvgTxInterval to +Inf so "large gap"
// predicates hold trivially and "small gap" predicates never do; counts and
// ratios default to 0.
type RuleInput struct {
	TxCount        int
	TotalSentSOL   float64
	AvgTxValue     float64
	AvgTxInterval  float64
	DestEntropy    float64
	TokenDiversity int
	Ratios         CategoryRatios
}

// NewRuleInput pairs a finalized feature vector with its category ratios.
func NewRuleInput(fv features.FeatureVector, ratios CategoryRatios) RuleInput {
	return RuleInput{
		TxCount:        fv.TxCount,
		TotalSentSOL:   fv.TotalSentSOL,
		AvgTxValue:     fv.AvgTxValue,
		AvgTxInterval:  fv.AvgTxInterval,
		DestEntropy:    fv.DestEntropy,
		TokenDiversity: fv.TokenDiversity,
		Ratios:         ratios,
	}
}

// Rule is one (predicate, label) pair of the decision list.
type Rule struct {
	Label Archetype
	Match func(in RuleInput) bool
}

// Rules is the ordered decision list. Evaluation is top-down and the first
// match is terminal, so precedence between overlapping predicates is exactly
// the slice order.
var Rules = []Rule{
	{ArchetypeDormant, func(in RuleInput) bool {
		return in.TxCount <= 3 && in.TotalSentSOL < 0.1
	}},
	{ArchetypeWhale, func(in RuleInput) bool {
		return (in.TotalSentSOL > 100 || in.AvgTxValue > 10) &&
			in.TxCount < 100 && in.AvgTxInterval > 10000
	}},
	{ArchetypeBot, func(in RuleInput) bool {
		return in.TxCount > 300 && in.AvgTxInterval < 30 &&
			in.Ratios.Bot > 0.5 && in.DestEntropy < 0.3
	}},
	{ArchetypeHybridBot, func(in RuleInput) bool {
		return in.TxCount > 200 && in.Ratios.Defi > 0.3 && in.Ratios.Bot > 0.3
	}},
	{ArchetypeDefiTrader, func(in RuleInput) bool {
		return in.Ratios.Defi > 0.5 && in.TokenDiversity >= 10
	}},
	{ArchetypeSystem, func(in RuleInput) bool {
		return in.Ratios.System > 0.7 ||
			(in.TxCount < 50 && in.DestEntropy < 0.2 && in.TokenDiversity < 3)
	}},
	{ArchetypeRetail, func(in RuleInput) bool {
		return in.TxCount < 50 && in.Ratios.Defi < 0.2 && in.Ratios.Retail > 0.6
	}},
}

// Classify walks the decision list and returns the first matching label,
// falling through to Unclassified. Pure and deterministic.
func Classify(in RuleInput) Archetype {
	for _, r := range Rules {
		if r.Match(in) {
			return r.Label
		}
	}
	return ArchetypeUnclassified
}
