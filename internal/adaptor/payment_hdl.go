package adaptor

import (
	"encoding/json"
	"io"
	"net/http"

	"mentor-booking/internal/dto/request"
	"mentor-booking/internal/dto/response"
	"mentor-booking/internal/usecase"
	"mentor-booking/pkg/utils"

	"go.uber.org/zap"
)

// maxWebhookBody matches the size Stripe documents as the upper bound for an event.
const maxWebhookBody = 65536

const signatureHeader = "Stripe-Signature"

type PaymentHandler struct {
	service usecase.PaymentService
	log     *zap.Logger
}

func NewPaymentHandler(service usecase.PaymentService, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		log:     log.With(zap.String("handler", "payment")),
	}
}

// CreateCheckout handles POST /api/payments/checkout
func (h *PaymentHandler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	session, err := h.service.CreateCheckout(r.Context(), userID, &req)
	if err != nil {
		writeServiceError(h.log, w, err, "create checkout")
		return
	}

	utils.ResponseCreated(w, "Checkout session created", session)
}

// Webhook handles POST /api/payments/webhook. The gateway retries on any
// non-2xx, so replays answer 200.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		h.log.Warn("Webhook body unreadable", zap.Error(err))
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.service.HandleWebhook(r.Context(), payload, r.Header.Get(signatureHeader))
	if usecase.IsAlreadyHandled(err) {
		utils.ResponseSuccessCode(w, "already_processed", "Event already processed", result)
		return
	}
	if err != nil {
		writeServiceError(h.log, w, err, "handle webhook")
		return
	}

	if _, ok := result.Detail.(*response.UnbookedPaymentResponse); ok {
		utils.ResponseSuccessCode(w, "held_for_refund", "Payment received but could not be booked", result)
		return
	}

	utils.ResponseSuccess(w, "success", result)
}
