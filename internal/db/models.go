package db

import (
	"database/sql"
	"time"
)

// CartMirror is one row of the gateway-owned mirror store: the serialized
// cart lines for a session. It is the Local-mode store for guests and the
// last-known-good cache for synced users.
type CartMirror struct {
	SessionID string
	UserID    sql.NullString
	Lines     []byte
	UpdatedAt time.Time
}

// CheckoutRecord tracks a Stripe Checkout session opened for a cart, so the
// webhook can resolve it back to the gateway session that paid.
type CheckoutRecord struct {
	ID              int
	StripeSessionID string
	CartSessionID   string
	UserEmail       string
	AmountCents     int64
	Status          string
	PaymentStatus   string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
