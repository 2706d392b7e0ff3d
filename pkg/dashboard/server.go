package dashboard

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/DHyde226/solana-ai-analytics/pkg/db"
)

// Dashboard serves the persisted archetype table read-only over HTTP.
type Dashboard struct {
	store *db.Store
	port  int
}

func New(store *db.Store, port int) *Dashboard {
	return &Dashboard{store: store, port: port}
}

func (d *Dashboard) Run() error {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/stats", cors(d.handleStats))
	mux.HandleFunc("/api/archetypes", cors(d.handleArchetypes))
	mux.HandleFunc("/api/wallets", cors(d.handleWallets))
	mux.HandleFunc("/", d.serveFrontend)

	addr := fmt.Sprintf(":%d", d.port)
	log.Info().Str("addr", addr).Msg("🌐 dashboard started")
	return http.ListenAndServe(addr, mux)
}

func cors(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(200)
			return
		}
		h(w, r)
	}
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (d *Dashboard) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := d.store.GetStats()
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	writeJSON(w, stats)
}

func (d *Dashboard) handleArchetypes(w http.ResponseWriter, r *http.Request) {
	counts, err := d.store.ArchetypeCounts()
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	writeJSON(w, counts)
}

func (d *Dashboard) handleWallets(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil {
			limit = n
		}
	}
	rows, err := d.store.Archetypes(r.URL.Query().Get("archetype"), limit)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	writeJSON(w, rows)
}
