package service

import (
	"context"
	"fmt"
	"time"

	"vetclinic/internal/db"
	apperrors "vetclinic/internal/errors"
	"vetclinic/internal/repository"
	"vetclinic/internal/utils"
)

// CheckoutService ties the cart to Stripe Checkout. It only ever charges the
// gateway's current view of the cart; order bookkeeping stays on the clinic
// backend.
type CheckoutService struct {
	Stripe *StripeService
	Repo   *repository.StripeRepository
	Carts  *CartService
}

func NewCheckoutService(stripeService *StripeService, repo *repository.StripeRepository, carts *CartService) *CheckoutService {
	return &CheckoutService{
		Stripe: stripeService,
		Repo:   repo,
		Carts:  carts,
	}
}

// StartCheckout opens a checkout session for everything currently in the cart
// and records it so the webhook can find its way back.
func (s *CheckoutService) StartCheckout(ctx context.Context, sessionID, customerEmail string) (string, string, error) {
	lines := s.Carts.Lines(ctx, sessionID)
	if len(lines) == 0 {
		return "", "", apperrors.NewValidationError("Cart is empty")
	}

	checkoutURL, stripeSessionID, amountCents, err := s.Stripe.CreateCartCheckoutSession(lines, customerEmail, sessionID)
	if err != nil {
		return "", "", err
	}

	record := &db.CheckoutRecord{
		StripeSessionID: stripeSessionID,
		CartSessionID:   sessionID,
		UserEmail:       customerEmail,
		AmountCents:     amountCents,
		Status:          "pending",
		PaymentStatus:   "pending",
		CreatedAt:       time.Now().UTC(),
		UpdatedAt:       time.Now().UTC(),
	}
	if err := s.Repo.CreateCheckoutRecord(record); err != nil {
		utils.Sugar().Errorf("Error recording checkout %s: %v", stripeSessionID, err)
		return "", "", err
	}

	return checkoutURL, stripeSessionID, nil
}

// CompleteCheckout marks the checkout paid and empties the cart that paid.
func (s *CheckoutService) CompleteCheckout(ctx context.Context, stripeSessionID string) error {
	if err := s.Repo.UpdateCheckoutStatusBySessionID(stripeSessionID, "completed", "succeeded"); err != nil {
		return err
	}
	record, err := s.Repo.GetCheckoutBySessionID(stripeSessionID)
	if err != nil {
		return err
	}
	s.Carts.ClearAfterCheckout(ctx, record.CartSessionID)

	if record.UserEmail != "" {
		subject := "Your VetClinic order is confirmed"
		body := fmt.Sprintf(
			"Hello,\n\nWe received your payment of %.2f USD.\nYour order is being prepared.\n\nThank you for choosing VetClinic.",
			float64(record.AmountCents)/100,
		)
		go func(toEmail, subject, body string) {
			if err := SendEmailWithSendGrid(toEmail, "", subject, body, body); err != nil {
				utils.Sugar().Warnf("Async receipt email to %s failed: %v", toEmail, err)
			}
		}(record.UserEmail, subject, body)
	}
	return nil
}

// GetCheckout returns the stored record for a Stripe session.
func (s *CheckoutService) GetCheckout(stripeSessionID string) (*db.CheckoutRecord, error) {
	return s.Repo.GetCheckoutBySessionID(stripeSessionID)
}

// MarkRefunded records a refund reported by Stripe.
func (s *CheckoutService) MarkRefunded(stripeSessionID string) error {
	return s.Repo.UpdateCheckoutStatusBySessionID(stripeSessionID, "canceled", "refunded")
}
