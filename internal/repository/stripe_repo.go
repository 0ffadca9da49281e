package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"vetclinic/internal/db"
)

type StripeRepository struct {
	DB *sql.DB
}

func NewStripeRepository(db *sql.DB) *StripeRepository {
	return &StripeRepository{DB: db}
}

func (r *StripeRepository) CreateCheckoutRecord(rec *db.CheckoutRecord) error {
	query := `
		INSERT INTO checkout_records
		(stripe_session_id, cart_session_id, user_email, amount_cents, status, payment_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	return r.DB.QueryRow(query,
		rec.StripeSessionID,
		rec.CartSessionID,
		rec.UserEmail,
		rec.AmountCents,
		rec.Status,
		rec.PaymentStatus,
		rec.CreatedAt,
		rec.UpdatedAt,
	).Scan(&rec.ID)
}

func (r *StripeRepository) GetCheckoutBySessionID(stripeSessionID string) (*db.CheckoutRecord, error) {
	var rec db.CheckoutRecord
	query := `
		SELECT id, stripe_session_id, cart_session_id, user_email, amount_cents, status, payment_status, created_at, updated_at
		FROM checkout_records WHERE stripe_session_id = $1`
	err := r.DB.QueryRow(query, stripeSessionID).Scan(
		&rec.ID, &rec.StripeSessionID, &rec.CartSessionID, &rec.UserEmail,
		&rec.AmountCents, &rec.Status, &rec.PaymentStatus, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("no checkout record for stripe session %s", stripeSessionID)
		}
		return nil, err
	}
	return &rec, nil
}

func (r *StripeRepository) UpdateCheckoutStatusBySessionID(stripeSessionID, newStatus, newPaymentStatus string) error {
	query := `
		UPDATE checkout_records
		SET
			status = $2,
			payment_status = $3,
			updated_at = $4
		WHERE stripe_session_id = $1`

	_, err := r.DB.Exec(query, stripeSessionID, newStatus, newPaymentStatus, time.Now())
	if err != nil {
		return fmt.Errorf("error actualizando checkout %s con info de Stripe: %w", stripeSessionID, err)
	}
	return nil
}
