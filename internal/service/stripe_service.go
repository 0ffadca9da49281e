package service

import (
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/refund"

	"vetclinic/internal/entities"
	"vetclinic/internal/utils"
)

type StripeService struct {
	SuccessURL string
	CancelURL  string
}

func NewStripeService(successURL, cancelURL string) *StripeService {
	return &StripeService{SuccessURL: successURL, CancelURL: cancelURL}
}

// CreateCartCheckoutSession opens a Stripe Checkout session for the cart.
// Lines with a non-numeric price are skipped with a warning, mirroring how
// totals count them as zero. The gateway session id travels in the metadata
// so the webhook can resolve the paying cart.
func (s *StripeService) CreateCartCheckoutSession(lines []entities.CartLine, customerEmail, cartSessionID string) (string, string, int64, error) {
	var items []*stripe.CheckoutSessionLineItemParams
	var totalCents int64
	for _, line := range lines {
		if !line.UnitPrice.Valid {
			utils.Sugar().Warnf("Skipping cart line %q in checkout: non-numeric price", line.ProductID)
			continue
		}
		quantity := line.Quantity
		if quantity < 1 {
			quantity = 1
		}
		unitAmount := int64(line.UnitPrice.Amount * 100)
		totalCents += unitAmount * int64(quantity)
		items = append(items, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String("usd"),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(line.Name),
				},
				UnitAmount: stripe.Int64(unitAmount),
			},
			Quantity: stripe.Int64(int64(quantity)),
		})
	}
	if len(items) == 0 {
		return "", "", 0, fmt.Errorf("cart has no payable lines")
	}

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems:          items,
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:         stripe.String(s.SuccessURL),
		CancelURL:          stripe.String(s.CancelURL),
		CustomerEmail:      stripe.String(customerEmail),
	}
	params.AddMetadata("cart_session", cartSessionID)

	sess, err := session.New(params)
	if err != nil {
		return "", "", 0, err
	}
	return sess.URL, sess.ID, totalCents, nil
}

func (s *StripeService) RefundPaymentBySessionID(sessionID string) error {
	sess, err := session.Get(sessionID, nil)
	if err != nil {
		return err
	}
	if sess.PaymentIntent == nil || sess.PaymentIntent.ID == "" {
		return fmt.Errorf("No PaymentIntent found for session %s", sessionID)
	}
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(sess.PaymentIntent.ID),
	}
	_, err = refund.New(params)
	return err
}

// GetSessionIDByPaymentIntentID busca el session_id en Stripe a partir de un PaymentIntentID
func (s *StripeService) GetSessionIDByPaymentIntentID(paymentIntentID string) (string, error) {
	params := &stripe.CheckoutSessionListParams{
		PaymentIntent: &paymentIntentID,
	}
	params.Limit = stripe.Int64(1)
	it := session.List(params)
	for it.Next() {
		sess := it.CheckoutSession()
		if sess != nil && sess.ID != "" {
			return sess.ID, nil
		}
	}
	return "", fmt.Errorf("No session_id found for PaymentIntentID %s", paymentIntentID)
}
