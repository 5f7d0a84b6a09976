package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/OttoOtter-hub/TyreTerra/internal/model"
	"github.com/OttoOtter-hub/TyreTerra/internal/repository"
	"github.com/OttoOtter-hub/TyreTerra/internal/search"
	"github.com/OttoOtter-hub/TyreTerra/pkg/apperr"
)

// AccountService handles registration, lookup and subscriptions.
type AccountService struct {
	accounts repository.AccountRepository
	subs     repository.SubscriptionRepository
	logger   *log.Logger
}

// NewAccountService creates a new account service.
func NewAccountService(
	accounts repository.AccountRepository,
	subs repository.SubscriptionRepository,
	logger *log.Logger,
) *AccountService {
	return &AccountService{accounts: accounts, subs: subs, logger: logger}
}

// Register creates an account from a completed registration flow.
// A second registration for the same chat id is rejected.
func (s *AccountService) Register(ctx context.Context, acc *model.Account) error {
	if !acc.Role.Valid() {
		return apperr.Validation("Unknown role. Choose Dealer or Buyer.")
	}
	acc.CreatedAt = time.Now().UTC()

	id, err := s.accounts.CreateAccount(ctx, acc)
	if err != nil {
		return err
	}
	acc.ID = id

	s.logger.Printf("[AccountService] Registered account %d (chat %d, role %s)", acc.ID, acc.ChatID, acc.Role)
	return nil
}

// GetByChatID finds an account by chat id. Returns (nil, nil) when the
// user is not registered.
func (s *AccountService) GetByChatID(ctx context.Context, chatID int64) (*model.Account, error) {
	return s.accounts.GetByChatID(ctx, chatID)
}

// RequireAccount returns the registered account for the chat id, or an
// access-denied error the bot can show verbatim.
func (s *AccountService) RequireAccount(ctx context.Context, chatID int64) (*model.Account, error) {
	acc, err := s.accounts.GetByChatID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, apperr.AccessDenied("❌ You are not registered. Use /start to register.")
	}
	return acc, nil
}

// Subscribe adds a (kind, value) subscription for the account.
func (s *AccountService) Subscribe(ctx context.Context, accountID int64, kind model.SubscriptionKind, value string) error {
	if !kind.Valid() {
		return apperr.Validation("Unknown subscription type. Use brand, size or dealer.")
	}
	if value == "" {
		return apperr.Validation("Subscription value must not be empty.")
	}
	value = canonicalValue(kind, value)

	exists, err := s.subs.SubscriptionExists(ctx, accountID, kind, value)
	if err != nil {
		return err
	}
	if exists {
		return apperr.Conflict("You are already subscribed.")
	}

	_, err = s.subs.CreateSubscription(ctx, &model.Subscription{
		AccountID: accountID,
		Kind:      kind,
		Value:     value,
		CreatedAt: time.Now().UTC(),
	})
	return err
}

// Unsubscribe removes one subscription. Removing a subscription that
// does not exist reports not found.
func (s *AccountService) Unsubscribe(ctx context.Context, accountID int64, kind model.SubscriptionKind, value string) error {
	removed, err := s.subs.DeleteSubscription(ctx, accountID, kind, canonicalValue(kind, value))
	if err != nil {
		return err
	}
	if removed == 0 {
		return apperr.NotFound("You have no such subscription.")
	}
	return nil
}

// UnsubscribeAll removes every subscription of the account and returns
// the count. Having none to remove reports not found.
func (s *AccountService) UnsubscribeAll(ctx context.Context, accountID int64) (int64, error) {
	removed, err := s.subs.DeleteAllSubscriptions(ctx, accountID)
	if err != nil {
		return 0, err
	}
	if removed == 0 {
		return 0, apperr.NotFound("You have no subscriptions.")
	}
	return removed, nil
}

// canonicalValue brings a subscription value into the form the
// notifier looks up. Sizes are normalized; brand and dealer values are
// matched case-insensitively by the store and kept as typed.
func canonicalValue(kind model.SubscriptionKind, value string) string {
	if kind == model.SubscribeSize {
		return search.NormalizeSize(value)
	}
	return value
}

// Subscriptions lists the account's subscriptions.
func (s *AccountService) Subscriptions(ctx context.Context, accountID int64) ([]model.Subscription, error) {
	subs, err := s.subs.ListSubscriptions(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	return subs, nil
}
