package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"vetclinic/internal/auth"
	"vetclinic/internal/service"
	"vetclinic/internal/utils"
)

type StripeWebhookHandler struct {
	StripeSecret    string
	checkoutService *service.CheckoutService
	stripeService   *service.StripeService
}

func NewStripeWebhookHandler(stripeSecret string, checkoutService *service.CheckoutService, stripeService *service.StripeService) *StripeWebhookHandler {
	return &StripeWebhookHandler{
		StripeSecret:    stripeSecret,
		checkoutService: checkoutService,
		stripeService:   stripeService,
	}
}

// CreateCheckout opens a Stripe Checkout session for the visitor's cart.
func (h *StripeWebhookHandler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, MessageResponse{Message: "Invalid request"})
		return
	}
	if req.Email == "" {
		writeJSON(w, http.StatusBadRequest, MessageResponse{Message: "email is required"})
		return
	}

	checkoutURL, sessionID, err := h.checkoutService.StartCheckout(r.Context(), auth.SessionID(r), req.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CheckoutResponse{URL: checkoutURL, SessionID: sessionID})
}

func (h *StripeWebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	const maxBodyBytes = int64(65536)
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		utils.Sugar().Errorf("Error reading body: %v", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	sigHeader := r.Header.Get("Stripe-Signature")
	event, err := webhook.ConstructEvent(payload, sigHeader, h.StripeSecret)
	if err != nil {
		utils.Sugar().Errorf("Webhook signature verification failed: %v", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			utils.Sugar().Errorf("Error parsing checkout.session: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if sess.ID == "" {
			utils.Sugar().Error("No session ID in checkout.session.completed")
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if err := h.checkoutService.CompleteCheckout(r.Context(), sess.ID); err != nil {
			utils.Sugar().Errorf("DB error: %v", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

	case "charge.refunded":
		var charge stripe.Charge
		json.Unmarshal(event.Data.Raw, &charge)
		if charge.PaymentIntent != nil && charge.PaymentIntent.ID != "" {
			si, err := h.stripeService.GetSessionIDByPaymentIntentID(charge.PaymentIntent.ID)
			if err != nil {
				utils.Sugar().Warnf("No session_id found for PaymentIntent %s: %v", charge.PaymentIntent.ID, err)
				return
			}
			if err := h.checkoutService.MarkRefunded(si); err != nil {
				utils.Sugar().Errorf("DB error: %v", err)
				return
			}
		}
	default:
		utils.Sugar().Infof("Unhandled event type: %s", event.Type)
	}

	w.WriteHeader(http.StatusOK)
}

func (h *StripeWebhookHandler) GetCheckoutBySessionIDHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		http.Error(w, "session_id required", http.StatusBadRequest)
		return
	}
	record, err := h.checkoutService.GetCheckout(sessionID)
	if err != nil {
		http.Error(w, "Checkout not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, record)
}
