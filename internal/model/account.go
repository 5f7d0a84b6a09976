package model

import "time"

// Role determines what a registered account may do.
type Role string

const (
	RoleDealer Role = "Dealer"
	RoleBuyer  Role = "Buyer"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	return r == RoleDealer || r == RoleBuyer
}

// Account represents a registered user of the exchange.
// ChatID is the opaque identity assigned by the chat transport and is unique.
// Role is fixed at registration; there is no edit path.
type Account struct {
	ID          int64     `json:"id"`
	ChatID      int64     `json:"chat_id"`
	Name        string    `json:"name"`
	CompanyName string    `json:"company_name"`
	TaxID       string    `json:"tax_id"`
	Phone       string    `json:"phone"`
	Email       string    `json:"email"`
	Role        Role      `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}
