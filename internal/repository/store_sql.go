package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/OttoOtter-hub/TyreTerra/internal/model"
	"github.com/OttoOtter-hub/TyreTerra/pkg/apperr"
)

// SQLStore implements Store over database/sql. The query set is shared
// across backends; each constructor supplies the driver, pool settings
// and dialect-specific DDL in its own file.
type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite", "mysql" or "postgres"
	path   string // backing file, sqlite only
}

// q rewrites '?' placeholders to '$n' for the postgres dialect.
func (s *SQLStore) q(query string) string {
	if s.driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// insertID runs an INSERT and returns the generated id. Postgres has no
// LastInsertId, so the query gains a RETURNING clause there.
func (s *SQLStore) insertID(ctx context.Context, query string, args ...interface{}) (int64, error) {
	if s.driver == "postgres" {
		var id int64
		err := s.db.QueryRowContext(ctx, s.q(query+" RETURNING id"), args...).Scan(&id)
		return id, err
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// --- accounts ---

func (s *SQLStore) CreateAccount(ctx context.Context, acc *model.Account) (int64, error) {
	if acc.CreatedAt.IsZero() {
		acc.CreatedAt = time.Now().UTC()
	}
	id, err := s.insertID(ctx, `
		INSERT INTO accounts (chat_id, name, company_name, tax_id, phone, email, role, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		acc.ChatID, acc.Name, acc.CompanyName, acc.TaxID, acc.Phone, acc.Email, string(acc.Role), acc.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, apperr.Conflict("You are already registered.")
		}
		return 0, fmt.Errorf("failed to create account: %w", err)
	}
	acc.ID = id
	return id, nil
}

const accountColumns = `id, chat_id, name, company_name, tax_id, phone, email, role, created_at`

func scanAccount(row interface{ Scan(...interface{}) error }) (*model.Account, error) {
	var acc model.Account
	var role string
	err := row.Scan(&acc.ID, &acc.ChatID, &acc.Name, &acc.CompanyName,
		&acc.TaxID, &acc.Phone, &acc.Email, &role, &acc.CreatedAt)
	if err != nil {
		return nil, err
	}
	acc.Role = model.Role(role)
	return &acc, nil
}

func (s *SQLStore) GetByChatID(ctx context.Context, chatID int64) (*model.Account, error) {
	row := s.db.QueryRowContext(ctx,
		s.q(`SELECT `+accountColumns+` FROM accounts WHERE chat_id = ?`), chatID)
	acc, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get account by chat id: %w", err)
	}
	return acc, nil
}

func (s *SQLStore) GetByID(ctx context.Context, id int64) (*model.Account, error) {
	row := s.db.QueryRowContext(ctx,
		s.q(`SELECT `+accountColumns+` FROM accounts WHERE id = ?`), id)
	acc, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return acc, nil
}

func (s *SQLStore) ListAccounts(ctx context.Context) ([]model.Account, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []model.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, *acc)
	}
	return accounts, rows.Err()
}

func (s *SQLStore) AccountStats(ctx context.Context) (AccountStats, error) {
	var st AccountStats
	cutoff := time.Now().UTC().Add(-week)

	err := s.db.QueryRowContext(ctx, s.q(`
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN role = 'Dealer' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN role = 'Buyer' THEN 1 ELSE 0 END), 0)
		FROM accounts`)).Scan(&st.Total, &st.Dealers, &st.Buyers)
	if err != nil {
		return st, fmt.Errorf("failed to get account stats: %w", err)
	}

	err = s.db.QueryRowContext(ctx,
		s.q(`SELECT COUNT(*) FROM accounts WHERE created_at > ?`), cutoff).Scan(&st.NewLast7Days)
	if err != nil {
		return st, fmt.Errorf("failed to get recent account count: %w", err)
	}
	return st, nil
}

// --- stock ---

const stockColumns = `id, owner_id, sku, tyre_size, tyre_pattern, brand, country,
	qty_available, retail_price, wholesale_price, warehouse_location, created_at`

func scanStockItem(row interface{ Scan(...interface{}) error }) (*model.StockItem, error) {
	var it model.StockItem
	err := row.Scan(&it.ID, &it.OwnerID, &it.SKU, &it.TyreSize, &it.TyrePattern,
		&it.Brand, &it.Country, &it.QtyAvailable, &it.RetailPrice,
		&it.WholesalePrice, &it.Warehouse, &it.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

const insertStockSQL = `
	INSERT INTO stock (owner_id, sku, tyre_size, tyre_pattern, brand, country,
		qty_available, retail_price, wholesale_price, warehouse_location, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func stockArgs(it *model.StockItem) []interface{} {
	return []interface{}{
		it.OwnerID, it.SKU, it.TyreSize, it.TyrePattern, it.Brand, it.Country,
		it.QtyAvailable, it.RetailPrice.String(), it.WholesalePrice.String(),
		it.Warehouse, it.CreatedAt,
	}
}

func (s *SQLStore) CreateStock(ctx context.Context, item *model.StockItem) (int64, error) {
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	id, err := s.insertID(ctx, insertStockSQL, stockArgs(item)...)
	if err != nil {
		return 0, fmt.Errorf("failed to create stock item: %w", err)
	}
	item.ID = id
	return id, nil
}

func (s *SQLStore) CreateStockBatch(ctx context.Context, items []model.StockItem) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, s.q(insertStockSQL))
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i := range items {
		if items[i].CreatedAt.IsZero() {
			items[i].CreatedAt = now
		}
		if _, err := stmt.ExecContext(ctx, stockArgs(&items[i])...); err != nil {
			return fmt.Errorf("failed to insert stock item %q: %w", items[i].SKU, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *SQLStore) ListByOwner(ctx context.Context, ownerID int64) ([]model.StockItem, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT `+stockColumns+` FROM stock
		WHERE owner_id = ? ORDER BY created_at DESC, id DESC`), ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stock: %w", err)
	}
	defer rows.Close()

	var items []model.StockItem
	for rows.Next() {
		it, err := scanStockItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stock item: %w", err)
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

func (s *SQLStore) CountByOwner(ctx context.Context, ownerID int64) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		s.q(`SELECT COUNT(*) FROM stock WHERE owner_id = ?`), ownerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count stock: %w", err)
	}
	return count, nil
}

func (s *SQLStore) FindBySKU(ctx context.Context, ownerID int64, sku string) (*model.StockItem, error) {
	row := s.db.QueryRowContext(ctx, s.q(`
		SELECT `+stockColumns+` FROM stock
		WHERE owner_id = ? AND sku = ?
		ORDER BY created_at DESC, id DESC LIMIT 1`), ownerID, sku)
	it, err := scanStockItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find stock item: %w", err)
	}
	return it, nil
}

func (s *SQLStore) DeleteBySKU(ctx context.Context, ownerID int64, sku string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		s.q(`DELETE FROM stock WHERE owner_id = ? AND sku = ?`), ownerID, sku)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stock item: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLStore) DeleteByOwner(ctx context.Context, ownerID int64) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		s.q(`DELETE FROM stock WHERE owner_id = ?`), ownerID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete owner stock: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLStore) Search(ctx context.Context, f SearchFilter) ([]model.StockRow, error) {
	query := `
		SELECT s.sku, s.tyre_size, s.tyre_pattern, s.brand, s.country,
		       s.qty_available, s.retail_price, s.wholesale_price,
		       s.warehouse_location, a.company_name, a.phone, a.email, s.created_at
		FROM stock s
		JOIN accounts a ON s.owner_id = a.id`

	var conds []string
	var args []interface{}

	if !f.Wildcard {
		like := "%" + strings.ToLower(f.Term) + "%"
		if f.Field == FieldAny {
			conds = append(conds, `(LOWER(s.sku) LIKE ? OR LOWER(s.tyre_size) LIKE ?
				OR LOWER(s.tyre_pattern) LIKE ? OR LOWER(s.brand) LIKE ?)`)
			args = append(args, like, like, like, like)
		} else {
			conds = append(conds, fmt.Sprintf(`LOWER(s.%s) LIKE ?`, f.Field))
			args = append(args, like)
		}
	}
	if f.ExcludeOwnerChatID != 0 {
		conds = append(conds, `a.chat_id != ?`)
		args = append(args, f.ExcludeOwnerChatID)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY s.created_at DESC, s.id DESC"

	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search stock: %w", err)
	}
	defer rows.Close()

	var result []model.StockRow
	for rows.Next() {
		var r model.StockRow
		err := rows.Scan(&r.SKU, &r.TyreSize, &r.TyrePattern, &r.Brand, &r.Country,
			&r.QtyAvailable, &r.RetailPrice, &r.WholesalePrice, &r.Warehouse,
			&r.CompanyName, &r.Phone, &r.Email, &r.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stock row: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

func (s *SQLStore) StockStats(ctx context.Context) (StockStats, error) {
	var st StockStats
	var totalValue sql.NullFloat64
	var avg sql.NullFloat64
	cutoff := time.Now().UTC().Add(-week)

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), SUM(retail_price * qty_available) FROM stock`).
		Scan(&st.TotalItems, &totalValue)
	if err != nil {
		return st, fmt.Errorf("failed to get stock stats: %w", err)
	}
	if totalValue.Valid {
		st.TotalValue = decimal.NewFromFloat(totalValue.Float64)
	} else {
		st.TotalValue = decimal.Zero
	}

	err = s.db.QueryRowContext(ctx,
		s.q(`SELECT COUNT(*) FROM stock WHERE created_at > ?`), cutoff).Scan(&st.NewLast7Days)
	if err != nil {
		return st, fmt.Errorf("failed to get recent stock count: %w", err)
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT AVG(n) FROM (SELECT COUNT(*) AS n FROM stock GROUP BY owner_id) t`).Scan(&avg)
	if err != nil {
		return st, fmt.Errorf("failed to get average stock per dealer: %w", err)
	}
	if avg.Valid {
		st.AvgPerDealer = avg.Float64
	}
	return st, nil
}

// --- subscriptions ---

func (s *SQLStore) CreateSubscription(ctx context.Context, sub *model.Subscription) (int64, error) {
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}
	id, err := s.insertID(ctx, `
		INSERT INTO subscriptions (account_id, kind, value, created_at)
		VALUES (?, ?, ?, ?)`,
		sub.AccountID, string(sub.Kind), sub.Value, sub.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, apperr.Conflict("You are already subscribed.")
		}
		return 0, fmt.Errorf("failed to create subscription: %w", err)
	}
	sub.ID = id
	return id, nil
}

func (s *SQLStore) SubscriptionExists(ctx context.Context, accountID int64, kind model.SubscriptionKind, value string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, s.q(`
		SELECT 1 FROM subscriptions
		WHERE account_id = ? AND kind = ? AND value = ?`),
		accountID, string(kind), value).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check subscription: %w", err)
	}
	return true, nil
}

const subscriptionColumns = `id, account_id, kind, value, created_at`

func scanSubscriptions(rows *sql.Rows) ([]model.Subscription, error) {
	var subs []model.Subscription
	for rows.Next() {
		var sub model.Subscription
		var kind string
		if err := rows.Scan(&sub.ID, &sub.AccountID, &kind, &sub.Value, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		sub.Kind = model.SubscriptionKind(kind)
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func (s *SQLStore) Subscribers(ctx context.Context, kind model.SubscriptionKind, value string) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT a.chat_id FROM subscriptions s
		JOIN accounts a ON a.id = s.account_id
		WHERE s.kind = ? AND LOWER(s.value) = LOWER(?)`), string(kind), value)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}
	defer rows.Close()

	var chatIDs []int64
	for rows.Next() {
		var chatID int64
		if err := rows.Scan(&chatID); err != nil {
			return nil, fmt.Errorf("failed to scan subscriber: %w", err)
		}
		chatIDs = append(chatIDs, chatID)
	}
	return chatIDs, rows.Err()
}

func (s *SQLStore) ListSubscriptions(ctx context.Context, accountID int64) ([]model.Subscription, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT `+subscriptionColumns+` FROM subscriptions
		WHERE account_id = ? ORDER BY created_at DESC, id DESC`), accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	defer rows.Close()
	return scanSubscriptions(rows)
}

func (s *SQLStore) DeleteSubscription(ctx context.Context, accountID int64, kind model.SubscriptionKind, value string) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.q(`
		DELETE FROM subscriptions
		WHERE account_id = ? AND kind = ? AND value = ?`),
		accountID, string(kind), value)
	if err != nil {
		return 0, fmt.Errorf("failed to delete subscription: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLStore) DeleteAllSubscriptions(ctx context.Context, accountID int64) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		s.q(`DELETE FROM subscriptions WHERE account_id = ?`), accountID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete subscriptions: %w", err)
	}
	return res.RowsAffected()
}

// --- admin ---

func (s *SQLStore) RawQuery(ctx context.Context, query string) ([]string, [][]string, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read columns: %w", err)
	}

	var out [][]string
	for rows.Next() {
		raw := make([]sql.NullString, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row := make([]string, len(cols))
		for i, v := range raw {
			if v.Valid {
				row[i] = v.String
			}
		}
		out = append(out, row)
	}
	return cols, out, rows.Err()
}

func (s *SQLStore) RawExec(ctx context.Context, query string) (int64, error) {
	res, err := s.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("exec failed: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLStore) BackupTo(ctx context.Context, path string) error {
	if s.driver != "sqlite" {
		return fmt.Errorf("backup is only supported for the sqlite backend")
	}
	// VACUUM INTO writes a consistent copy even with WAL enabled.
	// The statement does not accept bind parameters.
	escaped := strings.ReplaceAll(path, "'", "''")
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(`VACUUM INTO '%s'`, escaped)); err != nil {
		return fmt.Errorf("failed to back up database: %w", err)
	}
	return nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
