package bot

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/OttoOtter-hub/TyreTerra/internal/conversation"
	"github.com/OttoOtter-hub/TyreTerra/internal/export"
	"github.com/OttoOtter-hub/TyreTerra/internal/model"
	"github.com/OttoOtter-hub/TyreTerra/internal/ratelimit"
	"github.com/OttoOtter-hub/TyreTerra/internal/search"
	"github.com/OttoOtter-hub/TyreTerra/internal/service"
	"github.com/OttoOtter-hub/TyreTerra/internal/transport"
	"github.com/OttoOtter-hub/TyreTerra/pkg/apperr"
)

// Router dispatches inbound updates: rate gate first, then the active
// conversation if any, then command resolution with role and admin
// gates. Updates from the same user are processed one at a time.
type Router struct {
	engine   *conversation.Engine
	limiter  ratelimit.Limiter
	accounts *service.AccountService
	stock    *service.StockService
	admin    *service.AdminService
	searcher *search.Service
	exporter *export.Writer
	tr       transport.Transport
	isAdmin  func(chatID int64) bool
	maxItems int
	logger   *log.Logger

	mu    sync.Mutex
	users map[int64]*sync.Mutex
}

// NewRouter creates a router. isAdmin decides operator access by chat id.
func NewRouter(
	engine *conversation.Engine,
	limiter ratelimit.Limiter,
	accounts *service.AccountService,
	stock *service.StockService,
	admin *service.AdminService,
	searcher *search.Service,
	exporter *export.Writer,
	tr transport.Transport,
	isAdmin func(chatID int64) bool,
	maxItems int,
	logger *log.Logger,
) *Router {
	return &Router{
		engine:   engine,
		limiter:  limiter,
		accounts: accounts,
		stock:    stock,
		admin:    admin,
		searcher: searcher,
		exporter: exporter,
		tr:       tr,
		isAdmin:  isAdmin,
		maxItems: maxItems,
		logger:   logger,
		users:    make(map[int64]*sync.Mutex),
	}
}

// userLock returns the per-user mutex, creating it on first use.
func (r *Router) userLock(userID int64) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	mu, ok := r.users[userID]
	if !ok {
		mu = &sync.Mutex{}
		r.users[userID] = mu
	}
	return mu
}

// send delivers a message, logging delivery failures. Replies are best
// effort; the update itself has already been handled.
func (r *Router) send(ctx context.Context, userID int64, text string) {
	if err := r.tr.SendMessage(ctx, userID, text); err != nil {
		r.logger.Printf("[Router] Failed to send to %d: %v", userID, err)
	}
}

// sendErr maps an error to its user-visible text and delivers it.
func (r *Router) sendErr(ctx context.Context, userID int64, err error) {
	if appErr, ok := err.(*apperr.Error); ok {
		r.send(ctx, userID, appErr.UserMessage())
		if appErr.Code == apperr.CodeStore {
			r.logger.Printf("[Router] Store error for %d: %v", userID, err)
		}
		return
	}
	r.logger.Printf("[Router] Error for %d: %v", userID, err)
	r.send(ctx, userID, "❌ An error occurred. Please try again.")
}

// HandleUpdate processes one inbound update end to end.
func (r *Router) HandleUpdate(ctx context.Context, upd transport.Update) {
	mu := r.userLock(upd.UserID)
	mu.Lock()
	defer mu.Unlock()

	allowed, err := r.limiter.Allow(ctx, upd.UserID)
	if err != nil {
		r.logger.Printf("[Router] Rate limiter error for %d: %v", upd.UserID, err)
		allowed = true
	}
	if !allowed {
		r.send(ctx, upd.UserID, "⚠️ Too many requests. Please wait a bit.")
		return
	}

	if upd.File != nil {
		r.handleFile(ctx, upd)
		return
	}

	// An active conversation consumes everything, including the
	// cancel token, which the engine honors before validation.
	if r.engine.Active(upd.UserID) {
		r.handleSubmit(ctx, upd)
		return
	}

	cmd, args := parseCommand(upd.Text)
	r.dispatch(ctx, upd, cmd, args)
}

func (r *Router) handleSubmit(ctx context.Context, upd transport.Update) {
	result, err := r.engine.Submit(ctx, upd.UserID, upd.Text)
	if err != nil {
		r.sendErr(ctx, upd.UserID, err)
		return
	}

	switch result.Kind {
	case conversation.Cancelled:
		r.send(ctx, upd.UserID, "❌ Operation cancelled.")
	case conversation.Rejected:
		if result.Err != nil {
			r.logger.Printf("[Router] Flow %s step failed for %d: %v", result.Flow, upd.UserID, result.Err)
		}
		r.send(ctx, upd.UserID, result.Reason)
	case conversation.Advanced:
		r.send(ctx, upd.UserID, result.Prompt)
	case conversation.Completed:
		// The flow's commit already delivered its outcome.
	case conversation.CommitFailed:
		r.logger.Printf("[Router] Flow %s commit failed for %d: %v", result.Flow, upd.UserID, result.Err)
		r.sendErr(ctx, upd.UserID, result.Err)
	}
}

func (r *Router) dispatch(ctx context.Context, upd transport.Update, cmd Command, args string) {
	if cmd == CmdNone {
		r.send(ctx, upd.UserID, "Unknown command. Use /help to see available commands.")
		return
	}

	if cmd.adminOnly() && !r.isAdmin(upd.UserID) {
		r.send(ctx, upd.UserID, "❌ Access denied. Admin only.")
		return
	}

	switch cmd {
	case CmdStart:
		r.cmdStart(ctx, upd)
	case CmdHelp:
		r.cmdHelp(ctx, upd)
	case CmdCancel:
		if r.engine.Cancel(upd.UserID) {
			r.send(ctx, upd.UserID, "❌ Operation cancelled.")
		} else {
			r.send(ctx, upd.UserID, "No active operations to cancel.")
		}
	case CmdAddStock:
		r.cmdAddStock(ctx, upd)
	case CmdMyStock:
		r.cmdMyStock(ctx, upd)
	case CmdDeleteItem:
		r.cmdDeleteItem(ctx, upd)
	case CmdDeleteStock:
		r.cmdDeleteStock(ctx, upd)
	case CmdSearch:
		r.cmdSearch(ctx, upd)
	case CmdSubscribe:
		r.cmdSubscribe(ctx, upd, args)
	case CmdUnsubscribe:
		r.cmdUnsubscribe(ctx, upd, args)
	case CmdSubscriptions:
		r.cmdSubscriptions(ctx, upd)
	case CmdAdmin:
		r.cmdAdmin(ctx, upd)
	case CmdAdminUsers:
		r.cmdAdminUsers(ctx, upd)
	case CmdAdminStock:
		r.cmdAdminStock(ctx, upd)
	case CmdAdminStats:
		r.cmdAdminStats(ctx, upd)
	case CmdAdminExport:
		r.cmdAdminExport(ctx, upd)
	case CmdAdminBackup:
		r.cmdAdminBackup(ctx, upd)
	case CmdAdminSQL:
		r.startFlow(ctx, upd.UserID, r.adminSQLFlow(upd.UserID))
	case CmdAdminClearCache:
		r.cmdAdminClearCache(ctx, upd)
	}
}

// requireDealer loads the registered account and checks the dealer
// role, replying with the appropriate refusal on failure.
func (r *Router) requireDealer(ctx context.Context, upd transport.Update, refusal string) *model.Account {
	acc, err := r.accounts.GetByChatID(ctx, upd.UserID)
	if err != nil {
		r.sendErr(ctx, upd.UserID, err)
		return nil
	}
	if acc == nil {
		r.send(ctx, upd.UserID, "Please register first using /start")
		return nil
	}
	if acc.Role != model.RoleDealer {
		r.send(ctx, upd.UserID, refusal)
		return nil
	}
	return acc
}

func (r *Router) startFlow(ctx context.Context, userID int64, flow *conversation.Flow) {
	prompt, err := r.engine.Start(userID, flow)
	if err != nil {
		r.sendErr(ctx, userID, err)
		return
	}
	r.send(ctx, userID, prompt)
}

func (r *Router) cmdStart(ctx context.Context, upd transport.Update) {
	acc, err := r.accounts.GetByChatID(ctx, upd.UserID)
	if err != nil {
		r.sendErr(ctx, upd.UserID, err)
		return
	}
	if acc != nil {
		r.send(ctx, upd.UserID, fmt.Sprintf(
			"Welcome back, %s!\nYour role: %s\nUse commands to work with the system:",
			acc.Name, acc.Role))
		return
	}
	r.startFlow(ctx, upd.UserID, r.registrationFlow(upd.UserID, upd.DisplayName))
}

func (r *Router) cmdAddStock(ctx context.Context, upd transport.Update) {
	acc := r.requireDealer(ctx, upd, "❌ Only dealers can add items to stock")
	if acc == nil {
		return
	}

	count, err := r.stock.CountOwn(ctx, acc)
	if err != nil {
		r.sendErr(ctx, upd.UserID, err)
		return
	}
	if count >= int64(r.maxItems) {
		r.send(ctx, upd.UserID, fmt.Sprintf("❌ Item limit reached (%d). Delete some items to add new ones.", r.maxItems))
		return
	}

	r.startFlow(ctx, upd.UserID, r.addStockFlow(acc))
}

func (r *Router) cmdMyStock(ctx context.Context, upd transport.Update) {
	acc := r.requireDealer(ctx, upd, "❌ Only dealers can download their stock")
	if acc == nil {
		return
	}

	path, err := r.stock.ExportOwnStock(ctx, acc)
	if err != nil {
		if apperr.Is(err, apperr.CodeNotFound) {
			r.send(ctx, upd.UserID, "Your stock is empty. Use /addstock to add items.")
			return
		}
		r.sendErr(ctx, upd.UserID, err)
		return
	}

	count, _ := r.stock.CountOwn(ctx, acc)
	caption := fmt.Sprintf("📊 Your stock (%d items)\n👤 User: %s", count, acc.Name)
	if err := r.tr.SendDocument(ctx, upd.UserID, path, caption); err != nil {
		r.logger.Printf("[Router] Failed to send stock file to %d: %v", upd.UserID, err)
		r.send(ctx, upd.UserID, "❌ Error downloading stock. Please try again.")
	}
}

func (r *Router) cmdDeleteItem(ctx context.Context, upd transport.Update) {
	acc := r.requireDealer(ctx, upd, "❌ Only dealers can delete items")
	if acc == nil {
		return
	}
	r.startFlow(ctx, upd.UserID, r.deleteItemFlow(acc))
}

func (r *Router) cmdDeleteStock(ctx context.Context, upd transport.Update) {
	acc := r.requireDealer(ctx, upd, "❌ Only dealers can delete their stock")
	if acc == nil {
		return
	}

	count, err := r.stock.CountOwn(ctx, acc)
	if err != nil {
		r.sendErr(ctx, upd.UserID, err)
		return
	}
	if count == 0 {
		r.send(ctx, upd.UserID, "❌ Your stock is already empty.")
		return
	}

	r.startFlow(ctx, upd.UserID, r.deleteAllFlow(acc, count))
}

func (r *Router) cmdSearch(ctx context.Context, upd transport.Update) {
	acc, err := r.accounts.RequireAccount(ctx, upd.UserID)
	if err != nil {
		if apperr.Is(err, apperr.CodeAccessDenied) {
			r.send(ctx, upd.UserID, "Please register first using /start")
			return
		}
		r.sendErr(ctx, upd.UserID, err)
		return
	}
	r.startFlow(ctx, upd.UserID, r.searchFlow(acc))
}

// handleFile treats an attached CSV as a bulk stock import.
func (r *Router) handleFile(ctx context.Context, upd transport.Update) {
	if !strings.HasSuffix(strings.ToLower(upd.File.Name), ".csv") {
		r.send(ctx, upd.UserID, "❌ Only CSV files are supported. Send your stock as a .csv file.")
		return
	}

	acc := r.requireDealer(ctx, upd, "❌ Only dealers can upload stock files")
	if acc == nil {
		return
	}

	imported, err := r.stock.ImportCSV(ctx, acc, upd.File.Data)
	if err != nil {
		r.sendErr(ctx, upd.UserID, err)
		return
	}
	r.send(ctx, upd.UserID, fmt.Sprintf("✅ Imported %d items into your stock!", imported))
}
