package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OttoOtter-hub/TyreTerra/internal/model"
	"github.com/OttoOtter-hub/TyreTerra/pkg/apperr"
)

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testAccount(chatID int64, role model.Role) *model.Account {
	return &model.Account{
		ChatID:      chatID,
		Name:        "User",
		CompanyName: "TyreCo",
		TaxID:       "123456789",
		Phone:       "+15550100",
		Email:       "user@tyreco.example",
		Role:        role,
		CreatedAt:   time.Now().UTC(),
	}
}

func testItem(ownerID int64, sku string) *model.StockItem {
	return &model.StockItem{
		OwnerID:        ownerID,
		SKU:            sku,
		TyreSize:       "205/55R16",
		TyrePattern:    "P-Zero",
		Brand:          "Pirelli",
		Country:        "Italy",
		QtyAvailable:   4,
		RetailPrice:    decimal.NewFromInt(120),
		WholesalePrice: decimal.NewFromInt(95),
		Warehouse:      "Rotterdam",
		CreatedAt:      time.Now().UTC(),
	}
}

func TestSQLStore_AccountLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.CreateAccount(ctx, testAccount(100, model.RoleDealer))
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	acc, err := store.GetByChatID(ctx, 100)
	require.NoError(t, err)
	require.NotNil(t, acc)
	assert.Equal(t, id, acc.ID)
	assert.Equal(t, "TyreCo", acc.CompanyName)
	assert.Equal(t, model.RoleDealer, acc.Role)

	byID, err := store.GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, int64(100), byID.ChatID)

	missing, err := store.GetByChatID(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSQLStore_DuplicateChatIDConflicts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.CreateAccount(ctx, testAccount(100, model.RoleDealer))
	require.NoError(t, err)

	_, err = store.CreateAccount(ctx, testAccount(100, model.RoleBuyer))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeConflict))
}

func TestSQLStore_AccountStats(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.CreateAccount(ctx, testAccount(1, model.RoleDealer))
	require.NoError(t, err)
	_, err = store.CreateAccount(ctx, testAccount(2, model.RoleBuyer))
	require.NoError(t, err)
	_, err = store.CreateAccount(ctx, testAccount(3, model.RoleBuyer))
	require.NoError(t, err)

	stats, err := store.AccountStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(1), stats.Dealers)
	assert.Equal(t, int64(2), stats.Buyers)
	assert.Equal(t, int64(3), stats.NewLast7Days)
}

func TestSQLStore_StockLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	ownerID, err := store.CreateAccount(ctx, testAccount(100, model.RoleDealer))
	require.NoError(t, err)

	_, err = store.CreateStock(ctx, testItem(ownerID, "SKU-1"))
	require.NoError(t, err)
	_, err = store.CreateStock(ctx, testItem(ownerID, "SKU-2"))
	require.NoError(t, err)

	count, err := store.CountByOwner(ctx, ownerID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	items, err := store.ListByOwner(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, items, 2)

	found, err := store.FindBySKU(ctx, ownerID, "SKU-1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Pirelli", found.Brand)
	assert.True(t, found.RetailPrice.Equal(decimal.NewFromInt(120)))

	absent, err := store.FindBySKU(ctx, ownerID, "NOPE")
	require.NoError(t, err)
	assert.Nil(t, absent)

	deleted, err := store.DeleteBySKU(ctx, ownerID, "SKU-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	deleted, err = store.DeleteByOwner(ctx, ownerID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestSQLStore_CreateStockBatch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	ownerID, err := store.CreateAccount(ctx, testAccount(100, model.RoleDealer))
	require.NoError(t, err)

	batch := []model.StockItem{*testItem(ownerID, "B-1"), *testItem(ownerID, "B-2"), *testItem(ownerID, "B-3")}
	require.NoError(t, store.CreateStockBatch(ctx, batch))

	count, err := store.CountByOwner(ctx, ownerID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestSQLStore_Search(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	dealerID, err := store.CreateAccount(ctx, testAccount(100, model.RoleDealer))
	require.NoError(t, err)
	other := testAccount(200, model.RoleDealer)
	other.CompanyName = "RubberWorks"
	otherID, err := store.CreateAccount(ctx, other)
	require.NoError(t, err)

	_, err = store.CreateStock(ctx, testItem(dealerID, "SKU-A"))
	require.NoError(t, err)
	michelin := testItem(otherID, "SKU-B")
	michelin.Brand = "Michelin"
	_, err = store.CreateStock(ctx, michelin)
	require.NoError(t, err)

	t.Run("by brand case-insensitive", func(t *testing.T) {
		rows, err := store.Search(ctx, SearchFilter{Term: "michelin", Field: FieldBrand})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "SKU-B", rows[0].SKU)
		assert.Equal(t, "RubberWorks", rows[0].CompanyName)
	})

	t.Run("wildcard returns everything", func(t *testing.T) {
		rows, err := store.Search(ctx, SearchFilter{Wildcard: true})
		require.NoError(t, err)
		assert.Len(t, rows, 2)
	})

	t.Run("owner rows excluded", func(t *testing.T) {
		rows, err := store.Search(ctx, SearchFilter{Wildcard: true, ExcludeOwnerChatID: 100})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "SKU-B", rows[0].SKU)
	})

	t.Run("free search spans columns", func(t *testing.T) {
		rows, err := store.Search(ctx, SearchFilter{Term: "P-Zero", Field: FieldAny})
		require.NoError(t, err)
		assert.Len(t, rows, 2)
	})

	t.Run("no matches", func(t *testing.T) {
		rows, err := store.Search(ctx, SearchFilter{Term: "Continental", Field: FieldBrand})
		require.NoError(t, err)
		assert.Empty(t, rows)
	})
}

func TestSQLStore_Subscriptions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	aliceID, err := store.CreateAccount(ctx, testAccount(100, model.RoleBuyer))
	require.NoError(t, err)
	bobID, err := store.CreateAccount(ctx, testAccount(200, model.RoleBuyer))
	require.NoError(t, err)

	_, err = store.CreateSubscription(ctx, &model.Subscription{
		AccountID: aliceID, Kind: model.SubscribeBrand, Value: "Pirelli", CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	_, err = store.CreateSubscription(ctx, &model.Subscription{
		AccountID: bobID, Kind: model.SubscribeBrand, Value: "pirelli", CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	t.Run("duplicate triple conflicts", func(t *testing.T) {
		_, err := store.CreateSubscription(ctx, &model.Subscription{
			AccountID: aliceID, Kind: model.SubscribeBrand, Value: "Pirelli", CreatedAt: time.Now().UTC(),
		})
		require.Error(t, err)
		assert.True(t, apperr.Is(err, apperr.CodeConflict))
	})

	t.Run("exists", func(t *testing.T) {
		ok, err := store.SubscriptionExists(ctx, aliceID, model.SubscribeBrand, "Pirelli")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = store.SubscriptionExists(ctx, aliceID, model.SubscribeSize, "205/55R16")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("subscribers resolve to chat ids, value case-insensitive", func(t *testing.T) {
		chatIDs, err := store.Subscribers(ctx, model.SubscribeBrand, "PIRELLI")
		require.NoError(t, err)
		assert.ElementsMatch(t, []int64{100, 200}, chatIDs)
	})

	t.Run("list and delete", func(t *testing.T) {
		subs, err := store.ListSubscriptions(ctx, aliceID)
		require.NoError(t, err)
		require.Len(t, subs, 1)
		assert.Equal(t, model.SubscribeBrand, subs[0].Kind)

		n, err := store.DeleteSubscription(ctx, aliceID, model.SubscribeBrand, "Pirelli")
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		n, err = store.DeleteSubscription(ctx, aliceID, model.SubscribeBrand, "Pirelli")
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)
	})
}

func TestSQLStore_StockStats(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	ownerID, err := store.CreateAccount(ctx, testAccount(100, model.RoleDealer))
	require.NoError(t, err)

	item := testItem(ownerID, "SKU-1")
	item.QtyAvailable = 2
	item.RetailPrice = decimal.NewFromInt(100)
	_, err = store.CreateStock(ctx, item)
	require.NoError(t, err)

	stats, err := store.StockStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalItems)
	assert.True(t, stats.TotalValue.Equal(decimal.NewFromInt(200)), "got %s", stats.TotalValue)
}

func TestSQLStore_RawQueryAndExec(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.CreateAccount(ctx, testAccount(100, model.RoleDealer))
	require.NoError(t, err)

	cols, rows, err := store.RawQuery(ctx, "SELECT chat_id, company_name FROM accounts")
	require.NoError(t, err)
	assert.Equal(t, []string{"chat_id", "company_name"}, cols)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"100", "TyreCo"}, rows[0])

	affected, err := store.RawExec(ctx, "UPDATE accounts SET company_name = 'Renamed'")
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
}

func TestSQLStore_Ping(t *testing.T) {
	store := newTestStore(t)
	assert.NoError(t, store.Ping(context.Background()))
}
