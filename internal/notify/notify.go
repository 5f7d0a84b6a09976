// Package notify fans out stock-arrival notifications to subscribers.
package notify

import (
	"context"
	"fmt"
	"log"

	"github.com/OttoOtter-hub/TyreTerra/internal/model"
	"github.com/OttoOtter-hub/TyreTerra/internal/repository"
	"github.com/OttoOtter-hub/TyreTerra/internal/search"
	"github.com/OttoOtter-hub/TyreTerra/internal/transport"
)

// Notifier delivers subscription notifications when new stock arrives.
// Delivery is best effort: a subscriber that cannot be reached is
// logged and skipped, never failing the stock operation.
type Notifier struct {
	subs      repository.SubscriptionRepository
	transport transport.Transport
	logger    *log.Logger
}

func NewNotifier(subs repository.SubscriptionRepository, tr transport.Transport, logger *log.Logger) *Notifier {
	return &Notifier{subs: subs, transport: tr, logger: logger}
}

// StockAdded notifies subscribers about a batch of newly added items.
// Each subscriber receives at most one message per matched
// (kind, value) pair for the whole batch, and the owner is never
// notified about their own stock.
func (n *Notifier) StockAdded(ctx context.Context, owner *model.Account, items []model.StockItem) {
	if len(items) == 0 {
		return
	}

	type match struct {
		kind  model.SubscriptionKind
		value string
	}
	// Distinct (kind, value) pairs the batch can trigger. Sizes are
	// normalized so "185.65r15" and "185/65R15" collapse to one pair.
	seen := make(map[match]bool)
	var matches []match
	add := func(kind model.SubscriptionKind, value string) {
		if value == "" {
			return
		}
		m := match{kind: kind, value: value}
		if !seen[m] {
			seen[m] = true
			matches = append(matches, m)
		}
	}
	for _, it := range items {
		add(model.SubscribeBrand, it.Brand)
		add(model.SubscribeSize, search.NormalizeSize(it.TyreSize))
	}
	add(model.SubscribeDealer, owner.CompanyName)

	// One message per subscriber per pair, across the batch.
	type delivery struct {
		chatID int64
		match  match
	}
	delivered := make(map[delivery]bool)

	for _, m := range matches {
		subscribers, err := n.subs.Subscribers(ctx, m.kind, m.value)
		if err != nil {
			n.logger.Printf("[Notifier] Failed to load subscribers for %s=%q: %v", m.kind, m.value, err)
			continue
		}
		for _, chatID := range subscribers {
			if chatID == owner.ChatID {
				continue
			}
			d := delivery{chatID: chatID, match: m}
			if delivered[d] {
				continue
			}
			delivered[d] = true

			text := notificationText(m.kind, m.value, owner.CompanyName)
			if err := n.transport.SendMessage(ctx, chatID, text); err != nil {
				n.logger.Printf("[Notifier] Failed to notify %d: %v", chatID, err)
			}
		}
	}
}

func notificationText(kind model.SubscriptionKind, value, company string) string {
	switch kind {
	case model.SubscribeBrand:
		return fmt.Sprintf("🔔 New stock: %s tyres from %s are now available. Use /search to view.", value, company)
	case model.SubscribeSize:
		return fmt.Sprintf("🔔 New stock: size %s from %s is now available. Use /search to view.", value, company)
	default:
		return fmt.Sprintf("🔔 New stock: %s added new items. Use /search to view.", company)
	}
}
