package repository

import (
	"database/sql"
	"fmt"
	"log"

	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

// NewSQLiteStore opens (or creates) a SQLite-backed store.
// dbPath is the path to the database file, or ":memory:" for tests.
func NewSQLiteStore(dbPath string) (*SQLStore, error) {
	dsn := dbPath
	if dbPath != ":memory:" {
		// WAL mode for concurrent reads, busy timeout for the single writer.
		dsn = fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := createSQLiteTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Printf("[SQLiteStore] Initialized with database: %s", dbPath)
	return &SQLStore{db: db, driver: "sqlite", path: dbPath}, nil
}

func createSQLiteTables(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS accounts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		chat_id INTEGER NOT NULL UNIQUE,
		name TEXT NOT NULL,
		company_name TEXT NOT NULL,
		tax_id TEXT NOT NULL,
		phone TEXT NOT NULL,
		email TEXT NOT NULL,
		role TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS stock (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		owner_id INTEGER NOT NULL,
		sku TEXT NOT NULL,
		tyre_size TEXT NOT NULL,
		tyre_pattern TEXT NOT NULL,
		brand TEXT NOT NULL,
		country TEXT NOT NULL,
		qty_available INTEGER NOT NULL,
		retail_price NUMERIC NOT NULL,
		wholesale_price NUMERIC NOT NULL,
		warehouse_location TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (owner_id) REFERENCES accounts (id)
	);
	CREATE TABLE IF NOT EXISTS subscriptions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		account_id INTEGER NOT NULL,
		kind TEXT NOT NULL,
		value TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		UNIQUE (account_id, kind, value),
		FOREIGN KEY (account_id) REFERENCES accounts (id)
	);
	CREATE INDEX IF NOT EXISTS idx_accounts_chat ON accounts(chat_id);
	CREATE INDEX IF NOT EXISTS idx_stock_owner ON stock(owner_id);
	CREATE INDEX IF NOT EXISTS idx_stock_sku ON stock(sku);
	CREATE INDEX IF NOT EXISTS idx_stock_brand ON stock(brand);
	CREATE INDEX IF NOT EXISTS idx_stock_size ON stock(tyre_size);
	CREATE INDEX IF NOT EXISTS idx_subscriptions_kind ON subscriptions(kind, value);
	`
	_, err := db.Exec(query)
	return err
}

// Ensure SQLStore implements Store
var _ Store = (*SQLStore)(nil)
