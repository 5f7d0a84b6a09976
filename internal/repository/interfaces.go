package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/OttoOtter-hub/TyreTerra/internal/model"
)

// SearchField selects the single stock column a search is scoped to.
// FieldAny means the free-search union over sku/size/pattern/brand.
type SearchField string

const (
	FieldAny       SearchField = ""
	FieldSKU       SearchField = "sku"
	FieldSize      SearchField = "tyre_size"
	FieldBrand     SearchField = "brand"
	FieldWarehouse SearchField = "warehouse_location"
)

// SearchFilter describes one stock search.
type SearchFilter struct {
	// Term is the substring to match, ignored when Wildcard is set.
	Term string
	// Field scopes the match to one column; FieldAny matches across
	// sku, tyre_size, tyre_pattern and brand.
	Field SearchField
	// Wildcard matches every row.
	Wildcard bool
	// ExcludeOwnerChatID drops rows owned by this chat id (0 = keep all).
	ExcludeOwnerChatID int64
}

// AccountStats summarizes the accounts table.
type AccountStats struct {
	Total        int64 `json:"total"`
	Dealers      int64 `json:"dealers"`
	Buyers       int64 `json:"buyers"`
	NewLast7Days int64 `json:"new_last_7_days"`
}

// StockStats summarizes the stock table.
type StockStats struct {
	TotalItems   int64           `json:"total_items"`
	TotalValue   decimal.Decimal `json:"total_value"`
	NewLast7Days int64           `json:"new_last_7_days"`
	AvgPerDealer float64         `json:"avg_per_dealer"`
}

// AccountRepository defines account data access methods.
type AccountRepository interface {
	// CreateAccount inserts a new account and returns its id.
	CreateAccount(ctx context.Context, acc *model.Account) (int64, error)

	// GetByChatID finds an account by its transport chat id.
	// Returns (nil, nil) when absent.
	GetByChatID(ctx context.Context, chatID int64) (*model.Account, error)

	// GetByID finds an account by primary key. Returns (nil, nil) when absent.
	GetByID(ctx context.Context, id int64) (*model.Account, error)

	// ListAccounts returns every account, newest first.
	ListAccounts(ctx context.Context) ([]model.Account, error)

	// AccountStats returns account counters.
	AccountStats(ctx context.Context) (AccountStats, error)
}

// StockRepository defines inventory data access methods.
type StockRepository interface {
	// CreateStock inserts one stock item and returns its id.
	CreateStock(ctx context.Context, item *model.StockItem) (int64, error)

	// CreateStockBatch inserts many items in a single transaction.
	CreateStockBatch(ctx context.Context, items []model.StockItem) error

	// ListByOwner returns an owner's items, newest first.
	ListByOwner(ctx context.Context, ownerID int64) ([]model.StockItem, error)

	// CountByOwner returns the number of items an owner holds.
	CountByOwner(ctx context.Context, ownerID int64) (int64, error)

	// FindBySKU returns the newest item matching (owner, sku).
	// Returns (nil, nil) when absent.
	FindBySKU(ctx context.Context, ownerID int64, sku string) (*model.StockItem, error)

	// DeleteBySKU removes all items matching (owner, sku), returning the count.
	DeleteBySKU(ctx context.Context, ownerID int64, sku string) (int64, error)

	// DeleteByOwner removes every item of one owner, returning the count.
	DeleteByOwner(ctx context.Context, ownerID int64) (int64, error)

	// Search returns stock rows joined with owner contacts, newest first.
	Search(ctx context.Context, f SearchFilter) ([]model.StockRow, error)

	// StockStats returns stock counters.
	StockStats(ctx context.Context) (StockStats, error)
}

// SubscriptionRepository defines subscription data access methods.
type SubscriptionRepository interface {
	// CreateSubscription inserts a subscription. The (account, kind,
	// value) triple must not already exist; callers check
	// SubscriptionExists first and a unique index backs the check up.
	CreateSubscription(ctx context.Context, sub *model.Subscription) (int64, error)

	// SubscriptionExists reports whether the (account, kind, value)
	// triple is stored.
	SubscriptionExists(ctx context.Context, accountID int64, kind model.SubscriptionKind, value string) (bool, error)

	// Subscribers returns the chat IDs of every account subscribed to
	// (kind, value). Value matching is case-insensitive.
	Subscribers(ctx context.Context, kind model.SubscriptionKind, value string) ([]int64, error)

	// ListSubscriptions returns one account's subscriptions.
	ListSubscriptions(ctx context.Context, accountID int64) ([]model.Subscription, error)

	// DeleteSubscription removes one (account, kind, value) subscription,
	// returning the count.
	DeleteSubscription(ctx context.Context, accountID int64, kind model.SubscriptionKind, value string) (int64, error)

	// DeleteAllSubscriptions removes every subscription of one account,
	// returning the count.
	DeleteAllSubscriptions(ctx context.Context, accountID int64) (int64, error)
}

// AdminStore exposes the raw operations behind the admin commands.
type AdminStore interface {
	// RawQuery runs a SELECT and returns column names plus stringified rows.
	RawQuery(ctx context.Context, query string) ([]string, [][]string, error)

	// RawExec runs a mutating statement and returns rows affected.
	RawExec(ctx context.Context, query string) (int64, error)

	// BackupTo copies the store to a file. Backends without a single
	// backing file return an error.
	BackupTo(ctx context.Context, path string) error
}

// Store bundles every repository of one backend plus lifecycle control.
type Store interface {
	AccountRepository
	StockRepository
	SubscriptionRepository
	AdminStore

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close closes the underlying connection.
	Close() error
}

// week is the activity window used by the stats queries.
const week = 7 * 24 * time.Hour
