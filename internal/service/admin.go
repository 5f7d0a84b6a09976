package service

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/OttoOtter-hub/TyreTerra/internal/cache"
	"github.com/OttoOtter-hub/TyreTerra/internal/export"
	"github.com/OttoOtter-hub/TyreTerra/internal/repository"
	"github.com/OttoOtter-hub/TyreTerra/pkg/apperr"
	"github.com/OttoOtter-hub/TyreTerra/pkg/uid"
)

// Stats bundles the counters shown by the admin stats command.
type Stats struct {
	Accounts repository.AccountStats
	Stock    repository.StockStats
}

// SQLResult is the outcome of an ad-hoc admin query. Exactly one of
// FilePath (SELECT results) or RowsAffected is meaningful, as reported
// by IsSelect.
type SQLResult struct {
	IsSelect     bool
	FilePath     string
	RowCount     int
	RowsAffected int64
}

// AdminService implements the operator commands: stats, exports,
// backups, ad-hoc SQL and cache maintenance.
type AdminService struct {
	store    repository.Store
	exporter *export.Writer
	cache    cache.Cache
	sweeper  *export.Sweeper
	logger   *log.Logger
}

// NewAdminService creates a new admin service.
func NewAdminService(
	store repository.Store,
	exporter *export.Writer,
	c cache.Cache,
	sweeper *export.Sweeper,
	logger *log.Logger,
) *AdminService {
	return &AdminService{store: store, exporter: exporter, cache: c, sweeper: sweeper, logger: logger}
}

// Stats returns account and stock counters.
func (s *AdminService) Stats(ctx context.Context) (Stats, error) {
	accounts, err := s.store.AccountStats(ctx)
	if err != nil {
		return Stats{}, err
	}
	stock, err := s.store.StockStats(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{Accounts: accounts, Stock: stock}, nil
}

// ExportAccounts writes the full account list to a CSV file.
func (s *AdminService) ExportAccounts(ctx context.Context) (string, error) {
	accounts, err := s.store.ListAccounts(ctx)
	if err != nil {
		return "", err
	}
	if len(accounts) == 0 {
		return "", apperr.NotFound("No registered accounts.")
	}
	return s.exporter.Accounts(accounts)
}

// ExportStock writes the entire stock table, with owner contacts, to a
// CSV file.
func (s *AdminService) ExportStock(ctx context.Context) (string, error) {
	rows, err := s.store.Search(ctx, repository.SearchFilter{Wildcard: true})
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", apperr.NotFound("The stock table is empty.")
	}
	return s.exporter.DealerResults(rows)
}

// Backup copies the store to a timestamped file under the export
// directory and returns its path.
func (s *AdminService) Backup(ctx context.Context) (string, error) {
	name := fmt.Sprintf("backup_%s_%s.db", time.Now().UTC().Format("20060102_150405"), uid.New())
	path := filepath.Join(s.exporter.Dir(), name)

	if err := s.store.BackupTo(ctx, path); err != nil {
		return "", err
	}

	s.logger.Printf("[AdminService] Backup written to %s", path)
	return path, nil
}

// RunSQL executes an ad-hoc statement. SELECT results are written to a
// CSV file; anything else reports rows affected.
func (s *AdminService) RunSQL(ctx context.Context, query string) (SQLResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return SQLResult{}, apperr.Validation("Empty query.")
	}

	if isSelect(query) {
		columns, rows, err := s.store.RawQuery(ctx, query)
		if err != nil {
			return SQLResult{}, apperr.Validation("Query failed: " + err.Error())
		}
		path, err := s.exporter.RawRows(columns, rows)
		if err != nil {
			return SQLResult{}, fmt.Errorf("export query result: %w", err)
		}
		return SQLResult{IsSelect: true, FilePath: path, RowCount: len(rows)}, nil
	}

	affected, err := s.store.RawExec(ctx, query)
	if err != nil {
		return SQLResult{}, apperr.Validation("Statement failed: " + err.Error())
	}

	s.logger.Printf("[AdminService] Ad-hoc statement affected %d rows", affected)
	return SQLResult{RowsAffected: affected}, nil
}

// ClearCache drops every cache entry and sweeps stale export files.
func (s *AdminService) ClearCache(ctx context.Context) (int, error) {
	if err := s.cache.Clear(ctx); err != nil {
		return 0, err
	}
	removed, err := s.sweeper.RunNow()
	if err != nil {
		return 0, err
	}

	s.logger.Printf("[AdminService] Cache cleared, %d export files removed", removed)
	return removed, nil
}

func isSelect(query string) bool {
	head := strings.ToUpper(strings.Fields(query)[0])
	return head == "SELECT" || head == "WITH" || head == "PRAGMA" || head == "EXPLAIN"
}
