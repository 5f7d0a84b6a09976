package repository

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

// NewMySQLStore opens a MySQL-backed store.
// dsn format: "user:password@tcp(host:port)/dbname?parseTime=true"
func NewMySQLStore(dsn string) (*SQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	if err := createMySQLTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Printf("[MySQLStore] Initialized")
	return &SQLStore{db: db, driver: "mysql"}, nil
}

func createMySQLTables(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id BIGINT PRIMARY KEY AUTO_INCREMENT,
			chat_id BIGINT NOT NULL UNIQUE,
			name VARCHAR(255) NOT NULL,
			company_name VARCHAR(255) NOT NULL,
			tax_id VARCHAR(12) NOT NULL,
			phone VARCHAR(20) NOT NULL,
			email VARCHAR(255) NOT NULL,
			role VARCHAR(10) NOT NULL,
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS stock (
			id BIGINT PRIMARY KEY AUTO_INCREMENT,
			owner_id BIGINT NOT NULL,
			sku VARCHAR(255) NOT NULL,
			tyre_size VARCHAR(64) NOT NULL,
			tyre_pattern VARCHAR(255) NOT NULL,
			brand VARCHAR(255) NOT NULL,
			country VARCHAR(255) NOT NULL,
			qty_available INT NOT NULL,
			retail_price DECIMAL(18,2) NOT NULL,
			wholesale_price DECIMAL(18,2) NOT NULL,
			warehouse_location VARCHAR(255) NOT NULL,
			created_at DATETIME NOT NULL,
			INDEX idx_stock_owner (owner_id),
			INDEX idx_stock_sku (sku),
			INDEX idx_stock_brand (brand),
			INDEX idx_stock_size (tyre_size)
		)`,
		`CREATE TABLE IF NOT EXISTS subscriptions (
			id BIGINT PRIMARY KEY AUTO_INCREMENT,
			account_id BIGINT NOT NULL,
			kind VARCHAR(16) NOT NULL,
			value VARCHAR(255) NOT NULL,
			created_at DATETIME NOT NULL,
			UNIQUE KEY uniq_subscription (account_id, kind, value),
			INDEX idx_subscriptions_kind (kind, value)
		)`,
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
