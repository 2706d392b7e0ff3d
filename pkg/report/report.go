package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/DHyde226/solana-ai-analytics/pkg/classify"
	"github.com/DHyde226/solana-ai-analytics/pkg/features"
)

// Row is one labeled wallet of the output table.
type Row struct {
	Vector    features.FeatureVector
	Ratios    classify.CategoryRatios
	Archetype classify.Archetype
}

// Header returns the full column set in output order: the fixed feature
// columns, one type_<label> column per corpus type (sorted), the four
// category ratios, and the archetype. Every row of one table shares this
// schema.
func Header(typeLabels []string) []string {
	cols := []string{
		"wallet", "tx_count", "total_sent_sol", "avg_tx_value", "median_tx_value",
		"max_tx_value", "avg_fee", "total_fee", "fee_ratio", "avg_tx_interval",
		"std_tx_interval", "unique_destinations", "dest_entropy",
		"token_diversity", "mint_count", "mint_ratio",
	}
	for _, label := range typeLabels {
		cols = append(cols, features.TypeColumn(label))
	}
	return append(cols, "defi_ratio", "bot_ratio", "system_ratio", "retail_ratio", "archetype")
}

func (r Row) record(typeLabels []string) []string {
	v := r.Vector
	rec := []string{
		v.Wallet,
		strconv.Itoa(v.TxCount),
		ffmt(v.TotalSentSOL), ffmt(v.AvgTxValue), ffmt(v.MedianTxValue),
		ffmt(v.MaxTxValue), ffmt(v.AvgFee), ffmt(v.TotalFee), ffmt(v.FeeRatio),
		ffmt(v.AvgTxInterval), ffmt(v.StdTxInterval),
		strconv.Itoa(v.UniqueDestinations),
		ffmt(v.DestEntropy),
		strconv.Itoa(v.TokenDiversity),
		strconv.Itoa(v.MintCount),
		ffmt(v.MintRatio),
	}
	for _, label := range typeLabels {
		rec = append(rec, strconv.Itoa(v.TypeCounts[label]))
	}
	return append(rec,
		ffmt(r.Ratios.Defi), ffmt(r.Ratios.Bot), ffmt(r.Ratios.System), ffmt(r.Ratios.Retail),
		string(r.Archetype))
}

func ffmt(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteCSV writes the labeled feature table to path.
func WriteCSV(path string, typeLabels []string, rows []Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(Header(typeLabels)); err != nil {
		return err
	}
	for _, r := range rows {
		if err := w.Write(r.record(typeLabels)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// RenderTable prints the top rows (by total SOL sent) as a console table.
func RenderTable(w io.Writer, rows []Row, limit int) {
	sorted := append([]Row(nil), rows...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Vector.TotalSentSOL > sorted[j].Vector.TotalSentSOL
	})
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}

	t := tablewriter.NewWriter(w)
	t.SetHeader([]string{"wallet", "txs", "sent (SOL)", "interval (s)", "entropy", "tokens", "defi", "bot", "archetype"})
	t.SetBorder(false)
	for _, r := range sorted {
		v := r.Vector
		t.Append([]string{
			abbrev(v.Wallet),
			strconv.Itoa(v.TxCount),
			fmt.Sprintf("%.4f", v.TotalSentSOL),
			fmt.Sprintf("%.1f", v.AvgTxInterval),
			fmt.Sprintf("%.3f", v.DestEntropy),
			strconv.Itoa(v.TokenDiversity),
			fmt.Sprintf("%.2f", r.Ratios.Defi),
			fmt.Sprintf("%.2f", r.Ratios.Bot),
			string(r.Archetype),
		})
	}
	t.Render()
}

// PrintSummary prints per-archetype wallet counts, most common first.
func PrintSummary(w io.Writer, rows []Row) {
	counts := ArchetypeCounts(rows)

	type entry struct {
		label classify.Archetype
		n     int
	}
	var entries []entry
	for label, n := range counts {
		entries = append(entries, entry{label, n})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].n != entries[j].n {
			return entries[i].n > entries[j].n
		}
		return entries[i].label < entries[j].label
	})

	fmt.Fprintf(w, "\n%s\n", color.New(color.Bold).Sprint("📊 Archetype counts"))
	for _, e := range entries {
		fmt.Fprintf(w, "  %s %d\n", archetypeColor(e.label).Sprintf("%-35s", e.label), e.n)
	}
	fmt.Fprintf(w, "  %-35s %d\n", "total wallets", len(rows))
}

// ArchetypeCounts tallies rows per label.
func ArchetypeCounts(rows []Row) map[classify.Archetype]int {
	counts := map[classify.Archetype]int{}
	for _, r := range rows {
		counts[r.Archetype]++
	}
	return counts
}

func archetypeColor(a classify.Archetype) *color.Color {
	switch a {
	case classify.ArchetypeWhale:
		return color.New(color.FgCyan)
	case classify.ArchetypeBot, classify.ArchetypeHybridBot:
		return color.New(color.FgRed)
	case classify.ArchetypeDefiTrader:
		return color.New(color.FgGreen)
	case classify.ArchetypeRetail:
		return color.New(color.FgYellow)
	case classify.ArchetypeDormant:
		return color.New(color.FgBlue)
	default:
		return color.New(color.FgWhite)
	}
}

func abbrev(s string) string {
	if len(s) > 12 {
		return s[:6] + "..." + s[len(s)-4:]
	}
	return s
}
