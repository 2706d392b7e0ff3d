package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS transactions (
    wallet TEXT,
    signature TEXT PRIMARY KEY,
    block_time INTEGER,
    raw_json TEXT
);

CREATE TABLE IF NOT EXISTS wallet_archetypes (
    wallet TEXT PRIMARY KEY,
    archetype TEXT NOT NULL,
    features TEXT DEFAULT '{}',
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_tx_wallet ON transactions(wallet);
CREATE INDEX IF NOT EXISTS idx_tx_time ON transactions(block_time);
CREATE INDEX IF NOT EXISTS idx_arch_label ON wallet_archetypes(archetype);
`

type Store struct {
	db *sql.DB
}

func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// ---- Raw transactions ----

// RawTransaction is one stored ledger transaction, exactly as fetched.
type RawTransaction struct {
	Wallet    string
	Signature string
	BlockTime int64
	RawJSON   []byte
}

// InsertTransactions stores a batch, silently skipping signatures already
// present. Entries without a signature are dropped.
func (s *Store) InsertTransactions(wallet string, txs []RawTransaction) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	stmt, err := tx.Prepare(
		"INSERT OR IGNORE INTO transactions (wallet, signature, block_time, raw_json) VALUES (?, ?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, t := range txs {
		if t.Signature == "" {
			continue
		}
		res, err := stmt.Exec(wallet, t.Signature, t.BlockTime, string(t.RawJSON))
		if err != nil {
			continue
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

// RecentTransactions returns the most recent stored transactions for a feed,
// newest first.
func (s *Store) RecentTransactions(wallet string, limit int) ([]RawTransaction, error) {
	rows, err := s.db.Query(
		"SELECT wallet, signature, block_time, raw_json FROM transactions WHERE wallet=? ORDER BY block_time DESC LIMIT ?",
		wallet, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []RawTransaction
	for rows.Next() {
		var t RawTransaction
		var raw string
		if err := rows.Scan(&t.Wallet, &t.Signature, &t.BlockTime, &raw); err != nil {
			continue
		}
		t.RawJSON = []byte(raw)
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

func (s *Store) CountTransactions(wallet string) (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM transactions WHERE wallet=?", wallet).Scan(&n)
	return n, err
}

// ---- Archetype results ----

// ArchetypeRow is one persisted classification result.
type ArchetypeRow struct {
	Wallet    string    `json:"wallet"`
	Archetype string    `json:"archetype"`
	Features  string    `json:"features"` // JSON feature vector
	UpdatedAt time.Time `json:"updated_at"`
}

// UpsertArchetype records (or refreshes) the label assigned to a wallet.
func (s *Store) UpsertArchetype(wallet, archetype, featuresJSON string) error {
	_, err := s.db.Exec(`
		INSERT INTO wallet_archetypes (wallet, archetype, features, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(wallet) DO UPDATE SET
			archetype = excluded.archetype,
			features = excluded.features,
			updated_at = excluded.updated_at`,
		wallet, archetype, featuresJSON)
	return err
}

// Archetypes returns persisted rows, optionally filtered by label.
func (s *Store) Archetypes(label string, limit int) ([]ArchetypeRow, error) {
	q := "SELECT wallet, archetype, COALESCE(features,'{}'), updated_at FROM wallet_archetypes"
	args := []interface{}{}
	if label != "" {
		q += " WHERE archetype=?"
		args = append(args, label)
	}
	q += " ORDER BY wallet LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ArchetypeRow
	for rows.Next() {
		var r ArchetypeRow
		if err := rows.Scan(&r.Wallet, &r.Archetype, &r.Features, &r.UpdatedAt); err != nil {
			continue
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// ArchetypeCounts returns how many wallets carry each label.
func (s *Store) ArchetypeCounts() (map[string]int, error) {
	rows, err := s.db.Query("SELECT archetype, COUNT(*) FROM wallet_archetypes GROUP BY archetype")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var label string
		var n int
		if err := rows.Scan(&label, &n); err != nil {
			continue
		}
		counts[label] = n
	}
	return counts, rows.Err()
}

// GetStats reports table sizes for the dashboard.
func (s *Store) GetStats() (map[string]int, error) {
	stats := map[string]int{}
	for name, q := range map[string]string{
		"transactions":      "SELECT COUNT(*) FROM transactions",
		"wallet_archetypes": "SELECT COUNT(*) FROM wallet_archetypes",
	} {
		var n int
		if err := s.db.QueryRow(q).Scan(&n); err != nil {
			return nil, err
		}
		stats[name] = n
	}
	return stats, nil
}
