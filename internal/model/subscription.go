package model

import "time"

// SubscriptionKind is the stock attribute a subscription watches.
type SubscriptionKind string

const (
	SubscribeBrand  SubscriptionKind = "brand"
	SubscribeSize   SubscriptionKind = "tyre_size"
	SubscribeDealer SubscriptionKind = "dealer"
)

// Valid reports whether the kind is one of the known values.
func (k SubscriptionKind) Valid() bool {
	return k == SubscribeBrand || k == SubscribeSize || k == SubscribeDealer
}

// Label returns the human-readable name of the kind.
func (k SubscriptionKind) Label() string {
	switch k {
	case SubscribeSize:
		return "size"
	case SubscribeDealer:
		return "dealer"
	default:
		return "brand"
	}
}

// Subscription registers an account's interest in new stock matching
// one (kind, value) pair. The triple (account, kind, value) is logically
// unique; duplicate subscribe attempts are rejected.
type Subscription struct {
	ID        int64            `json:"id"`
	AccountID int64            `json:"account_id"`
	Kind      SubscriptionKind `json:"kind"`
	Value     string           `json:"value"`
	CreatedAt time.Time        `json:"created_at"`
}
