package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/OttoOtter-hub/TyreTerra/internal/model"
	"github.com/OttoOtter-hub/TyreTerra/internal/transport"
	"github.com/OttoOtter-hub/TyreTerra/pkg/apperr"
)

var subscriptionKinds = map[string]model.SubscriptionKind{
	"brand":  model.SubscribeBrand,
	"size":   model.SubscribeSize,
	"dealer": model.SubscribeDealer,
}

const subscribeUsage = "Usage: /subscribe <brand|size|dealer> <value>\nExample: /subscribe brand Michelin\nRemove all: /unsubscribe all"

// parseSubscription splits "/subscribe brand Michelin" arguments into a
// kind and a value.
func parseSubscription(args string) (model.SubscriptionKind, string, error) {
	kindWord, value, _ := strings.Cut(args, " ")
	kind, ok := subscriptionKinds[strings.ToLower(strings.TrimSpace(kindWord))]
	value = strings.TrimSpace(value)
	if !ok || value == "" {
		return "", "", apperr.Validation(subscribeUsage)
	}
	return kind, value, nil
}

func (r *Router) cmdSubscribe(ctx context.Context, upd transport.Update, args string) {
	acc, err := r.accounts.RequireAccount(ctx, upd.UserID)
	if err != nil {
		r.sendErr(ctx, upd.UserID, err)
		return
	}

	kind, value, err := parseSubscription(args)
	if err != nil {
		r.sendErr(ctx, upd.UserID, err)
		return
	}

	if err := r.accounts.Subscribe(ctx, acc.ID, kind, value); err != nil {
		r.sendErr(ctx, upd.UserID, err)
		return
	}
	r.send(ctx, upd.UserID, fmt.Sprintf("🔔 Subscribed! You will be notified when new %s stock for '%s' arrives.", kind.Label(), value))
}

func (r *Router) cmdUnsubscribe(ctx context.Context, upd transport.Update, args string) {
	acc, err := r.accounts.RequireAccount(ctx, upd.UserID)
	if err != nil {
		r.sendErr(ctx, upd.UserID, err)
		return
	}

	if strings.EqualFold(strings.TrimSpace(args), "all") {
		removed, err := r.accounts.UnsubscribeAll(ctx, acc.ID)
		if err != nil {
			r.sendErr(ctx, upd.UserID, err)
			return
		}
		r.send(ctx, upd.UserID, fmt.Sprintf("🔕 Removed %d subscriptions.", removed))
		return
	}

	kind, value, err := parseSubscription(args)
	if err != nil {
		r.sendErr(ctx, upd.UserID, err)
		return
	}

	if err := r.accounts.Unsubscribe(ctx, acc.ID, kind, value); err != nil {
		r.sendErr(ctx, upd.UserID, err)
		return
	}
	r.send(ctx, upd.UserID, fmt.Sprintf("🔕 Unsubscribed from %s '%s'.", kind.Label(), value))
}

func (r *Router) cmdSubscriptions(ctx context.Context, upd transport.Update) {
	acc, err := r.accounts.RequireAccount(ctx, upd.UserID)
	if err != nil {
		r.sendErr(ctx, upd.UserID, err)
		return
	}

	subs, err := r.accounts.Subscriptions(ctx, acc.ID)
	if err != nil {
		r.sendErr(ctx, upd.UserID, err)
		return
	}
	if len(subs) == 0 {
		r.send(ctx, upd.UserID, "You have no subscriptions yet.\n"+subscribeUsage)
		return
	}

	var b strings.Builder
	b.WriteString("🔔 Your subscriptions:\n")
	for _, s := range subs {
		fmt.Fprintf(&b, "• %s: %s\n", s.Kind.Label(), s.Value)
	}
	r.send(ctx, upd.UserID, b.String())
}

func (r *Router) cmdHelp(ctx context.Context, upd transport.Update) {
	acc, err := r.accounts.GetByChatID(ctx, upd.UserID)
	if err != nil {
		r.sendErr(ctx, upd.UserID, err)
		return
	}

	var text string
	switch {
	case acc == nil:
		text = "🤖 Tyreterra Bot Help\n\n" +
			"To start working with the bot:\n" +
			"1. Use /start to register\n" +
			"2. Choose your role (Dealer/Buyer)\n" +
			"3. Fill in your details\n\n" +
			"❌ Cancel any operation: /cancel\n" +
			"🆘 Help: /help"
	case acc.Role == model.RoleDealer:
		text = "🤖 Tyreterra Bot Help\n\n" +
			"Available commands:\n" +
			"• /addstock - Add item to stock\n" +
			"• /mystock - Download your stock\n" +
			"• /search - Search in other users' stock\n" +
			"• /deleteitem - Delete one item by SKU\n" +
			"• /deletestock - Delete your entire stock\n" +
			"• /subscribe - Get notified about new stock\n" +
			"• /unsubscribe - Remove a notification\n" +
			"• /subscriptions - List your notifications\n" +
			"• /cancel - Cancel current operation\n" +
			"• /help - This help\n\n" +
			"📎 Send a .csv file to bulk-import stock"
	default:
		text = "🤖 Tyreterra Bot Help\n\n" +
			"Available commands:\n" +
			"• /search - Search in dealers' stock\n" +
			"• /subscribe - Get notified about new stock\n" +
			"• /unsubscribe - Remove a notification\n" +
			"• /subscriptions - List your notifications\n" +
			"• /cancel - Cancel current operation\n" +
			"• /help - This help"
	}
	r.send(ctx, upd.UserID, text)
}

func (r *Router) cmdAdmin(ctx context.Context, upd transport.Update) {
	r.send(ctx, upd.UserID,
		"🛠️ Admin Panel\n\n"+
			"Available commands:\n"+
			"• /admin_users - Export all users\n"+
			"• /admin_stock - Export all stock\n"+
			"• /admin_stats - System statistics\n"+
			"• /admin_export - Export all data\n"+
			"• /admin_backup - Create database backup\n"+
			"• /admin_sql - Execute SQL query\n"+
			"• /admin_clear_cache - Clear cache")
}

func (r *Router) cmdAdminUsers(ctx context.Context, upd transport.Update) {
	path, err := r.admin.ExportAccounts(ctx)
	if err != nil {
		if apperr.Is(err, apperr.CodeNotFound) {
			r.send(ctx, upd.UserID, "❌ No users found.")
			return
		}
		r.sendErr(ctx, upd.UserID, err)
		return
	}
	if err := r.tr.SendDocument(ctx, upd.UserID, path, "👥 Users list"); err != nil {
		r.sendErr(ctx, upd.UserID, err)
	}
}

func (r *Router) cmdAdminStock(ctx context.Context, upd transport.Update) {
	path, err := r.admin.ExportStock(ctx)
	if err != nil {
		if apperr.Is(err, apperr.CodeNotFound) {
			r.send(ctx, upd.UserID, "❌ No stock items found.")
			return
		}
		r.sendErr(ctx, upd.UserID, err)
		return
	}
	if err := r.tr.SendDocument(ctx, upd.UserID, path, "📊 All stock"); err != nil {
		r.sendErr(ctx, upd.UserID, err)
	}
}

func (r *Router) cmdAdminStats(ctx context.Context, upd transport.Update) {
	stats, err := r.admin.Stats(ctx)
	if err != nil {
		r.sendErr(ctx, upd.UserID, err)
		return
	}

	r.send(ctx, upd.UserID, fmt.Sprintf(
		"📊 System Statistics\n\n"+
			"👥 Users: %d\n"+
			"   • Dealers: %d\n"+
			"   • Buyers: %d\n"+
			"📦 Stock items: %d\n"+
			"💰 Total stock value: %s\n"+
			"📈 Avg items per dealer: %.1f\n\n"+
			"🔄 Last 7 days:\n"+
			"   • New users: %d\n"+
			"   • New stock: %d",
		stats.Accounts.Total, stats.Accounts.Dealers, stats.Accounts.Buyers,
		stats.Stock.TotalItems, stats.Stock.TotalValue.StringFixed(2), stats.Stock.AvgPerDealer,
		stats.Accounts.NewLast7Days, stats.Stock.NewLast7Days))
}

func (r *Router) cmdAdminExport(ctx context.Context, upd transport.Update) {
	usersPath, err := r.admin.ExportAccounts(ctx)
	if err != nil && !apperr.Is(err, apperr.CodeNotFound) {
		r.sendErr(ctx, upd.UserID, err)
		return
	}
	stockPath, err := r.admin.ExportStock(ctx)
	if err != nil && !apperr.Is(err, apperr.CodeNotFound) {
		r.sendErr(ctx, upd.UserID, err)
		return
	}

	if usersPath == "" && stockPath == "" {
		r.send(ctx, upd.UserID, "❌ Nothing to export.")
		return
	}
	if usersPath != "" {
		if err := r.tr.SendDocument(ctx, upd.UserID, usersPath, "📁 Full data export: users"); err != nil {
			r.sendErr(ctx, upd.UserID, err)
			return
		}
	}
	if stockPath != "" {
		if err := r.tr.SendDocument(ctx, upd.UserID, stockPath, "📁 Full data export: stock"); err != nil {
			r.sendErr(ctx, upd.UserID, err)
		}
	}
}

func (r *Router) cmdAdminBackup(ctx context.Context, upd transport.Update) {
	path, err := r.admin.Backup(ctx)
	if err != nil {
		r.sendErr(ctx, upd.UserID, err)
		return
	}
	if err := r.tr.SendDocument(ctx, upd.UserID, path, "💾 Database backup created successfully"); err != nil {
		r.sendErr(ctx, upd.UserID, err)
	}
}

func (r *Router) cmdAdminClearCache(ctx context.Context, upd transport.Update) {
	if _, err := r.admin.ClearCache(ctx); err != nil {
		r.sendErr(ctx, upd.UserID, err)
		return
	}
	r.send(ctx, upd.UserID, "✅ Cache cleared successfully!")
}
