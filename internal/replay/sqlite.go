package replay

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists records in a single-table SQLite database. It serves
// both as Sink for the live loop and Reader for tooling.
type SQLiteStore struct {
	db *sql.DB
}

var (
	_ Sink   = (*SQLiteStore)(nil)
	_ Reader = (*SQLiteStore)(nil)
)

// NewSQLiteStore opens or creates the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer; WAL allows concurrent readers
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS decisions (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		coin       TEXT NOT NULL,
		size       REAL NOT NULL,
		is_buy     INTEGER NOT NULL,
		forecast   REAL NOT NULL,
		feature    REAL NOT NULL,
		price      REAL NOT NULL,
		decided_at INTEGER NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create decisions table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Record inserts one decision row.
func (s *SQLiteStore) Record(rec Record) error {
	_, err := s.db.Exec(`
		INSERT INTO decisions (coin, size, is_buy, forecast, feature, price, decided_at)
		VALUES (?,?,?,?,?,?,?)`,
		rec.Coin, rec.Size, boolToInt(rec.IsBuy), rec.Forecast, rec.Feature, rec.Price,
		rec.DecidedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert decision: %w", err)
	}
	return nil
}

// All returns every recorded decision in insertion order.
func (s *SQLiteStore) All() ([]Record, error) {
	rows, err := s.db.Query(`
		SELECT coin, size, is_buy, forecast, feature, price, decided_at
		FROM decisions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var isBuy int
		var decidedAtNano int64
		if err := rows.Scan(&rec.Coin, &rec.Size, &isBuy, &rec.Forecast, &rec.Feature, &rec.Price, &decidedAtNano); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		rec.IsBuy = isBuy != 0
		rec.DecidedAt = time.Unix(0, decidedAtNano)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
