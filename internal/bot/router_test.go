package bot

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OttoOtter-hub/TyreTerra/internal/cache"
	"github.com/OttoOtter-hub/TyreTerra/internal/conversation"
	"github.com/OttoOtter-hub/TyreTerra/internal/export"
	"github.com/OttoOtter-hub/TyreTerra/internal/model"
	"github.com/OttoOtter-hub/TyreTerra/internal/notify"
	"github.com/OttoOtter-hub/TyreTerra/internal/ratelimit"
	"github.com/OttoOtter-hub/TyreTerra/internal/repository"
	"github.com/OttoOtter-hub/TyreTerra/internal/search"
	"github.com/OttoOtter-hub/TyreTerra/internal/service"
	"github.com/OttoOtter-hub/TyreTerra/internal/transport"
)

const adminChatID int64 = 777

type botFixture struct {
	router *Router
	store  *repository.SQLStore
	tr     *transport.Memory
}

func newBotFixture(t *testing.T, limiter ratelimit.Limiter) *botFixture {
	t.Helper()

	store, err := repository.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	exporter, err := export.NewWriter(t.TempDir())
	require.NoError(t, err)
	sweeper := export.NewSweeper(exporter.Dir(), export.SweeperConfig{})

	logger := log.New(io.Discard, "", 0)
	tr := transport.NewMemory()
	memCache := cache.NewMemoryCache()
	t.Cleanup(func() { memCache.Close() })

	notifier := notify.NewNotifier(store, tr, logger)
	accounts := service.NewAccountService(store, store, logger)
	stock := service.NewStockService(store, notifier, memCache, exporter, 100, time.Minute, logger)
	admin := service.NewAdminService(store, exporter, memCache, sweeper, logger)
	searcher := search.NewService(store, logger)

	if limiter == nil {
		limiter = ratelimit.NewMemoryLimiter(1000, time.Minute)
	}

	engine := conversation.NewEngine("/cancel")
	isAdmin := func(chatID int64) bool { return chatID == adminChatID }
	router := NewRouter(engine, limiter, accounts, stock, admin, searcher, exporter, tr, isAdmin, 100, logger)

	return &botFixture{router: router, store: store, tr: tr}
}

func (f *botFixture) say(userID int64, text string) {
	f.router.HandleUpdate(context.Background(), transport.Update{
		UserID:      userID,
		DisplayName: "Tester",
		Text:        text,
	})
}

// lastText returns the text of the most recent message sent to the user.
func (f *botFixture) lastText(t *testing.T, userID int64) string {
	t.Helper()
	sent := f.tr.SentTo(userID)
	require.NotEmpty(t, sent)
	return sent[len(sent)-1].Text
}

// register walks the full registration flow for one user.
func (f *botFixture) register(t *testing.T, userID int64, role model.Role) {
	t.Helper()
	f.say(userID, "/start")
	for _, answer := range []string{string(role), "TyreCo", "1234567890", "89991234567", "tester@tyreco.example"} {
		f.say(userID, answer)
	}
	assert.Contains(t, f.lastText(t, userID), "🎉 Registration completed!")
	f.tr.Reset()
}

func TestRouter_RegistrationFlow(t *testing.T) {
	f := newBotFixture(t, nil)

	f.say(1, "/start")
	assert.Contains(t, f.lastText(t, 1), "choose your role")

	f.say(1, "Chef")
	assert.Contains(t, f.lastText(t, 1), "choose a role from the suggested options")

	f.say(1, "Dealer")
	assert.Contains(t, f.lastText(t, 1), "company name")

	f.say(1, "TyreCo")
	assert.Contains(t, f.lastText(t, 1), "TIN")

	f.say(1, "12")
	assert.Contains(t, f.lastText(t, 1), "Invalid TIN format")

	f.say(1, "1234567890")
	assert.Contains(t, f.lastText(t, 1), "phone")

	f.say(1, "89991234567")
	assert.Contains(t, f.lastText(t, 1), "email")

	f.say(1, "tester@tyreco.example")
	recap := f.lastText(t, 1)
	assert.Contains(t, recap, "🎉 Registration completed!")
	assert.Contains(t, recap, "TyreCo")
	assert.Contains(t, recap, "upload stock")

	acc, err := f.store.GetByChatID(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, acc)
	assert.Equal(t, model.RoleDealer, acc.Role)
	assert.Equal(t, "TyreCo", acc.CompanyName)
}

func TestRouter_StartWhenRegistered(t *testing.T) {
	f := newBotFixture(t, nil)
	f.register(t, 1, model.RoleBuyer)

	f.say(1, "/start")
	assert.Contains(t, f.lastText(t, 1), "Welcome back, Tester!")
}

func TestRouter_DealerGate(t *testing.T) {
	f := newBotFixture(t, nil)

	f.say(1, "/addstock")
	assert.Equal(t, "Please register first using /start", f.lastText(t, 1))

	f.register(t, 2, model.RoleBuyer)
	f.say(2, "/addstock")
	assert.Equal(t, "❌ Only dealers can add items to stock", f.lastText(t, 2))

	f.say(2, "/mystock")
	assert.Equal(t, "❌ Only dealers can download their stock", f.lastText(t, 2))
}

func TestRouter_AdminGate(t *testing.T) {
	f := newBotFixture(t, nil)

	f.say(1, "/admin")
	assert.Equal(t, "❌ Access denied. Admin only.", f.lastText(t, 1))

	f.say(adminChatID, "/admin")
	assert.Contains(t, f.lastText(t, adminChatID), "🛠️ Admin Panel")
}

func TestRouter_RateLimit(t *testing.T) {
	f := newBotFixture(t, ratelimit.NewMemoryLimiter(1, time.Minute))

	f.say(1, "/help")
	f.say(1, "/help")
	assert.Equal(t, "⚠️ Too many requests. Please wait a bit.", f.lastText(t, 1))

	// Other users are not affected.
	f.say(2, "/help")
	assert.NotEqual(t, "⚠️ Too many requests. Please wait a bit.", f.lastText(t, 2))
}

func TestRouter_UnknownCommand(t *testing.T) {
	f := newBotFixture(t, nil)
	f.say(1, "/frobnicate")
	assert.Equal(t, "Unknown command. Use /help to see available commands.", f.lastText(t, 1))
}

func TestRouter_CancelFlow(t *testing.T) {
	f := newBotFixture(t, nil)

	f.say(1, "/cancel")
	assert.Equal(t, "No active operations to cancel.", f.lastText(t, 1))

	f.say(1, "/start")
	f.say(1, "/cancel")
	assert.Equal(t, "❌ Operation cancelled.", f.lastText(t, 1))

	// The session is gone; the next text is treated as a command again.
	f.say(1, "Dealer")
	assert.Equal(t, "Unknown command. Use /help to see available commands.", f.lastText(t, 1))
}

func TestRouter_AddStockFlow(t *testing.T) {
	f := newBotFixture(t, nil)
	f.register(t, 1, model.RoleDealer)

	f.say(1, "/addstock")
	assert.Contains(t, f.lastText(t, 1), "Enter the article (SKU)")

	answers := []string{"SKU-1", "195/65 R15", "Primacy", "Michelin", "France", "8", "110.50", "88.20", "Hamburg"}
	for _, a := range answers {
		f.say(1, a)
	}
	assert.Contains(t, f.lastText(t, 1), "✅ Item successfully added to stock!")

	count, err := f.store.CountByOwner(context.Background(), mustAccount(t, f, 1).ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRouter_SearchAllShortCircuits(t *testing.T) {
	f := newBotFixture(t, nil)
	f.register(t, 1, model.RoleDealer)
	f.register(t, 2, model.RoleBuyer)

	// Dealer 1 has stock; buyer 2 searches for everything.
	f.say(1, "/addstock")
	for _, a := range []string{"SKU-1", "195/65 R15", "Primacy", "Michelin", "France", "8", "110", "88", "Hamburg"} {
		f.say(1, a)
	}
	f.tr.Reset()

	f.say(2, "/search")
	assert.Contains(t, f.lastText(t, 2), "Choose search type")

	f.say(2, "All")
	sent := f.tr.SentTo(2)
	require.GreaterOrEqual(t, len(sent), 2)
	doc := sent[len(sent)-2]
	assert.NotEmpty(t, doc.FilePath)
	assert.Contains(t, doc.Caption, "1 items found")
	assert.Equal(t, "Search completed!", sent[len(sent)-1].Text)
}

func TestRouter_SearchNoResults(t *testing.T) {
	f := newBotFixture(t, nil)
	f.register(t, 1, model.RoleBuyer)

	f.say(1, "/search")
	f.say(1, "Brand")
	assert.Contains(t, f.lastText(t, 1), "Enter Brand to search")

	f.say(1, "Continental")
	assert.Contains(t, f.lastText(t, 1), "❌ No items found for your search.")
}

func TestRouter_DeleteItemFlow(t *testing.T) {
	f := newBotFixture(t, nil)
	f.register(t, 1, model.RoleDealer)

	f.say(1, "/addstock")
	for _, a := range []string{"SKU-1", "195/65 R15", "Primacy", "Michelin", "France", "8", "110", "88", "Hamburg"} {
		f.say(1, a)
	}
	f.tr.Reset()

	f.say(1, "/deleteitem")
	assert.Contains(t, f.lastText(t, 1), "Enter the SKU")

	f.say(1, "NOPE")
	assert.Contains(t, f.lastText(t, 1), "not found in your stock")

	f.say(1, "SKU-1")
	confirm := f.lastText(t, 1)
	assert.Contains(t, confirm, "Found item:")
	assert.Contains(t, confirm, "SKU-1")

	f.say(1, "Yes")
	assert.Contains(t, f.lastText(t, 1), "successfully deleted!")

	count, err := f.store.CountByOwner(context.Background(), mustAccount(t, f, 1).ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

// A store failure inside a flow step must reach the user as the
// generic error text, never as driver output.
func TestRouter_DeleteItemStoreFailure(t *testing.T) {
	f := newBotFixture(t, nil)
	f.register(t, 1, model.RoleDealer)

	f.say(1, "/addstock")
	for _, a := range []string{"SKU-1", "195/65 R15", "Primacy", "Michelin", "France", "8", "110", "88", "Hamburg"} {
		f.say(1, a)
	}

	f.say(1, "/deleteitem")
	f.tr.Reset()

	require.NoError(t, f.store.Close())
	f.say(1, "SKU-1")

	assert.Equal(t, "An error occurred. Please try again.", f.lastText(t, 1))
}

func TestRouter_DeleteStockEmpty(t *testing.T) {
	f := newBotFixture(t, nil)
	f.register(t, 1, model.RoleDealer)

	f.say(1, "/deletestock")
	assert.Equal(t, "❌ Your stock is already empty.", f.lastText(t, 1))
}

func TestRouter_FileUpload(t *testing.T) {
	f := newBotFixture(t, nil)
	f.register(t, 1, model.RoleDealer)
	f.register(t, 2, model.RoleBuyer)

	csvData := []byte("sku,tyre_size,tyre_pattern,brand,country,qty_available,retail_price,wholesale_price,warehouse\n" +
		"A-1,205/55R16,P-Zero,Pirelli,Italy,4,120,95,Rotterdam\n")

	upload := func(userID int64, name string, data []byte) {
		f.router.HandleUpdate(context.Background(), transport.Update{
			UserID:      userID,
			DisplayName: "Tester",
			File:        &transport.FilePayload{Name: name, Data: data},
		})
	}

	upload(1, "stock.txt", csvData)
	assert.Contains(t, f.lastText(t, 1), "Only CSV files are supported")

	upload(2, "stock.csv", csvData)
	assert.Equal(t, "❌ Only dealers can upload stock files", f.lastText(t, 2))

	upload(1, "stock.csv", csvData)
	assert.Equal(t, "✅ Imported 1 items into your stock!", f.lastText(t, 1))
}

func TestRouter_SubscriptionLifecycle(t *testing.T) {
	f := newBotFixture(t, nil)

	f.say(1, "/subscribe brand Michelin")
	assert.Contains(t, f.lastText(t, 1), "You are not registered")

	f.register(t, 1, model.RoleBuyer)

	f.say(1, "/subscribe")
	assert.Contains(t, f.lastText(t, 1), "Usage: /subscribe")

	f.say(1, "/subscribe brand Michelin")
	assert.Contains(t, f.lastText(t, 1), "🔔 Subscribed!")

	f.say(1, "/subscribe brand Michelin")
	assert.Equal(t, "You are already subscribed.", f.lastText(t, 1))

	f.say(1, "/subscribe size 205/55R16")
	assert.Contains(t, f.lastText(t, 1), "🔔 Subscribed!")

	f.say(1, "/subscriptions")
	listing := f.lastText(t, 1)
	assert.Contains(t, listing, "brand: Michelin")
	assert.Contains(t, listing, "size: 205/55R16")

	f.say(1, "/unsubscribe brand Michelin")
	assert.Contains(t, f.lastText(t, 1), "🔕 Unsubscribed")

	f.say(1, "/unsubscribe brand Michelin")
	assert.Equal(t, "You have no such subscription.", f.lastText(t, 1))

	f.say(1, "/unsubscribe all")
	assert.Equal(t, "🔕 Removed 1 subscriptions.", f.lastText(t, 1))

	f.say(1, "/subscriptions")
	assert.Contains(t, f.lastText(t, 1), "You have no subscriptions yet.")
}

func mustAccount(t *testing.T, f *botFixture, chatID int64) *model.Account {
	t.Helper()
	acc, err := f.store.GetByChatID(context.Background(), chatID)
	require.NoError(t, err)
	require.NotNil(t, acc)
	return acc
}
