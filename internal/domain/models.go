// Package domain defines the core types of the proxy-reselling platform.
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Currency represents a currency code. USD is the canonical ledger currency;
// everything else is a display/settlement currency derived via ExchangeRate.
type Currency string

const (
	USD Currency = "USD"
	NGN Currency = "NGN"
	GHS Currency = "GHS"
)

// Channel identifies the payment intake channel of a transaction.
type Channel string

const (
	ChannelNigeria Channel = "nigeria"
	ChannelGhana   Channel = "ghana"
	ChannelCrypto  Channel = "crypto"
)

// LocalCurrency returns the display currency for the channel. Crypto has no
// local projection; its amounts are canonical as recorded.
func (c Channel) LocalCurrency() (Currency, bool) {
	switch c {
	case ChannelNigeria:
		return NGN, true
	case ChannelGhana:
		return GHS, true
	default:
		return "", false
	}
}

// Valid reports whether the channel is one the platform settles.
func (c Channel) Valid() bool {
	switch c {
	case ChannelNigeria, ChannelGhana, ChannelCrypto:
		return true
	}
	return false
}

// PricingTier maps a closed quantity range to a per-unit USD price. Ranges
// never overlap; in practice each tier covers a single supported quantity.
type PricingTier struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	MinQuantity int             `db:"min_quantity" json:"min_quantity"`
	MaxQuantity int             `db:"max_quantity" json:"max_quantity"`
	PriceUSD    decimal.Decimal `db:"price_usd" json:"price_usd"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// Contains reports whether the tier covers the quantity.
func (t *PricingTier) Contains(quantity int) bool {
	return quantity >= t.MinQuantity && quantity <= t.MaxQuantity
}

// ExchangeRate is the admin-configured amount of local currency per 1 USD.
// Absence of a row is a distinct state from a zero rate and surfaces as
// ErrRateNotConfigured, never as a default value.
type ExchangeRate struct {
	Currency  Currency        `db:"currency" json:"currency"`
	Rate      decimal.Decimal `db:"rate" json:"rate"`
	SetBy     uuid.UUID       `db:"set_by" json:"set_by"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// LiveQuote is a best-effort market rate fetched from an external provider.
// It is never persisted alongside admin-configured rates.
type LiveQuote struct {
	Currency  Currency        `json:"currency"`
	Rate      decimal.Decimal `json:"rate"`
	Source    string          `json:"source"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// ProxyCredential is one resellable proxy login. A credential is owned
// exclusively by its assignee from allocation until release or deletion.
// Invariant: IsAssigned == (AssignedTo != nil).
type ProxyCredential struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Username     string     `db:"username" json:"username"`
	Password     string     `db:"password" json:"password"`
	TierCapacity int        `db:"tier_capacity" json:"tier_capacity"`
	IsAssigned   bool       `db:"is_assigned" json:"is_assigned"`
	AssignedTo   *uuid.UUID `db:"assigned_to" json:"assigned_to,omitempty"`
	AssignedAt   *time.Time `db:"assigned_at" json:"assigned_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// TierStat is a point-in-time aggregate over the credential pool for one
// tier capacity. AllTimeTotal == TotalAssigned + TotalAvailable.
type TierStat struct {
	Tier           int `db:"tier" json:"tier"`
	AllTimeTotal   int `db:"all_time_total" json:"all_time_total"`
	TotalAssigned  int `db:"total_assigned" json:"total_assigned"`
	TotalAvailable int `db:"total_available" json:"total_available"`
}

// TransactionStatus represents payment transaction lifecycle states.
type TransactionStatus string

const (
	TransactionStatusPending     TransactionStatus = "pending"
	TransactionStatusApproved    TransactionStatus = "approved"
	TransactionStatusDisapproved TransactionStatus = "disapproved"
	TransactionStatusFailed      TransactionStatus = "failed"
	TransactionStatusCompleted   TransactionStatus = "completed"
)

// Valid reports whether the status is a known lifecycle state.
func (s TransactionStatus) Valid() bool {
	switch s {
	case TransactionStatusPending, TransactionStatusApproved,
		TransactionStatusDisapproved, TransactionStatusFailed,
		TransactionStatusCompleted:
		return true
	}
	return false
}

// PaymentTransaction is one intake payment. AmountUSD is the canonical
// stored amount; local-currency figures shown to admins are always derived.
type PaymentTransaction struct {
	ID        uuid.UUID         `db:"id" json:"id"`
	UserID    uuid.UUID         `db:"user_id" json:"user_id"`
	AmountUSD decimal.Decimal   `db:"amount_usd" json:"amount_usd"`
	Channel   Channel           `db:"channel" json:"channel"`
	Status    TransactionStatus `db:"status" json:"status"`
	Reference string            `db:"reference" json:"reference"`
	CreatedAt time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt time.Time         `db:"updated_at" json:"updated_at"`
}

// OrderStatus represents order lifecycle states.
type OrderStatus string

const (
	OrderStatusActive   OrderStatus = "active"
	OrderStatusReleased OrderStatus = "released"
)

// Order records a priced purchase. UnitPriceUSD and TotalPriceUSD are fixed
// from the pricing table at creation time; later tier edits never change them.
type Order struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	UserID        uuid.UUID       `db:"user_id" json:"user_id"`
	Quantity      int             `db:"quantity" json:"quantity"`
	Country       string          `db:"country" json:"country"`
	UnitPriceUSD  decimal.Decimal `db:"unit_price_usd" json:"unit_price_usd"`
	TotalPriceUSD decimal.Decimal `db:"total_price_usd" json:"total_price_usd"`
	Status        OrderStatus     `db:"status" json:"status"`
	CredentialIDs []uuid.UUID     `db:"-" json:"credential_ids"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}
