package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"mentor-booking/internal/data/entity"
	"mentor-booking/internal/data/repository"
	"mentor-booking/internal/dto/request"
	"mentor-booking/internal/dto/response"
	"mentor-booking/internal/gateway"
	"mentor-booking/internal/notifier"
	"mentor-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PaymentService interface {
	CreateCheckout(ctx context.Context, userID uuid.UUID, req *request.CheckoutRequest) (*response.CheckoutResponse, error)

	// HandleWebhook verifies and applies one gateway event. Redelivered
	// checkout events return ErrAlreadyProcessed with the original result.
	HandleWebhook(ctx context.Context, payload []byte, signature string) (*response.WebhookResponse, error)

	// HandleRefund marks the payment refunded. The booking is left as is.
	HandleRefund(ctx context.Context, ref string) (*response.RefundResponse, error)
}

type paymentService struct {
	repo     *repository.Repository
	bookings BookingService
	gateway  gateway.Gateway
	notify   notifier.Notifier
	appURL   string
	log      *zap.Logger
}

func NewPaymentService(repo *repository.Repository, bookings BookingService, gw gateway.Gateway, notify notifier.Notifier, config *utils.Config, log *zap.Logger) PaymentService {
	return &paymentService{
		repo:     repo,
		bookings: bookings,
		gateway:  gw,
		notify:   notify,
		appURL:   strings.TrimRight(config.App.URL, "/"),
		log:      log.With(zap.String("service", "payment")),
	}
}

func (s *paymentService) CreateCheckout(ctx context.Context, userID uuid.UUID, req *request.CheckoutRequest) (*response.CheckoutResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Checkout validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	meetingID, err := uuid.Parse(req.MeetingID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid meeting ID %s", ErrValidation, req.MeetingID)
	}
	slotID, err := uuid.Parse(req.SlotID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid slot ID %s", ErrValidation, req.SlotID)
	}

	meeting, err := s.repo.Meeting.FindByID(ctx, meetingID)
	if err != nil {
		return nil, fmt.Errorf("load meeting: %w", err)
	}
	if meeting == nil {
		return nil, fmt.Errorf("meeting %s: %w", meetingID, ErrMeetingNotFound)
	}
	if meeting.IsFree {
		return nil, ErrFreeMeeting
	}
	if meeting.MentorID == userID {
		return nil, ErrSelfBookingDenied
	}

	// advisory only; the authoritative check happens when the webhook lands
	slot, err := s.repo.Slot.FindByID(ctx, slotID)
	if err != nil {
		return nil, fmt.Errorf("load slot: %w", err)
	}
	if slot == nil || slot.MeetingID != meetingID {
		return nil, fmt.Errorf("slot %s: %w", slotID, ErrSlotNotFound)
	}
	if !slot.CanReserve() {
		return nil, fmt.Errorf("slot %s: %w", slotID, ErrSlotFull)
	}

	active, err := s.repo.Booking.FindActiveBySlotAndMentee(ctx, slotID, userID)
	if err != nil {
		return nil, fmt.Errorf("check active booking: %w", err)
	}
	if active != nil && active.Status != entity.BookingStatusPending {
		return nil, fmt.Errorf("booking %s: %w", active.ID, ErrDuplicateBooking)
	}

	var email string
	if profile, err := s.repo.Profile.FindByID(ctx, userID); err == nil && profile != nil {
		email = profile.Email
	}

	var notes string
	if req.Notes != nil {
		notes = *req.Notes
	}

	session, err := s.gateway.CreateCheckout(ctx, gateway.CheckoutParams{
		MeetingID:     meetingID,
		SlotID:        slotID,
		MenteeID:      userID,
		MentorID:      meeting.MentorID,
		Notes:         notes,
		Title:         meeting.Title,
		Description:   fmt.Sprintf("%d minute session, %s", meeting.DurationMinutes, slot.StartTime.Format("2006-01-02 15:04 MST")),
		Amount:        int64(math.Round(meeting.Price * 100)),
		Currency:      meeting.Currency,
		CustomerEmail: email,
		SuccessURL:    s.appURL + "/dashboard?booking=success",
		CancelURL:     fmt.Sprintf("%s/meetings/%s?booking=cancelled", s.appURL, meetingID),
	})
	if err != nil {
		return nil, fmt.Errorf("create checkout: %w", err)
	}

	s.log.Info("Checkout started",
		zap.String("session_id", session.ID),
		zap.String("slot_id", slotID.String()),
		zap.String("mentee_id", userID.String()),
	)

	return &response.CheckoutResponse{SessionID: session.ID, URL: session.URL}, nil
}

func (s *paymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) (*response.WebhookResponse, error) {
	evt, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		return nil, err
	}

	resp := &response.WebhookResponse{Received: true, EventType: evt.RawType}

	switch evt.Type {
	case gateway.EventCheckoutCompleted:
		c := evt.Checkout
		var notes, intent *string
		if c.Notes != "" {
			notes = &c.Notes
		}
		if c.PaymentIntentID != "" {
			intent = &c.PaymentIntentID
		}

		result, err := s.bookings.ConfirmPayment(ctx, ConfirmParams{
			ExternalRef:      c.SessionID,
			PaymentIntentRef: intent,
			SlotID:           c.SlotID,
			MeetingID:        c.MeetingID,
			MenteeID:         c.MenteeID,
			MentorID:         c.MentorID,
			Notes:            notes,
			Amount:           float64(c.AmountTotal) / 100,
			Currency:         c.Currency,
		})
		if errors.Is(err, ErrPaidNotBooked) && result != nil && result.Unbooked != nil {
			// stored for refund; acknowledge so the gateway stops redelivering
			unbooked := response.UnbookedPaymentToResponse(result.Unbooked)
			resp.Detail = &unbooked
			return resp, nil
		}
		if result != nil {
			resp.Detail = confirmationToResponse(result)
		}
		if err != nil {
			return resp, err
		}

	case gateway.EventChargeRefunded:
		ref := evt.Refund.PaymentIntentID
		if ref == "" {
			ref = evt.Refund.ChargeID
		}
		refund, err := s.HandleRefund(ctx, ref)
		if err != nil {
			return nil, err
		}
		resp.Detail = refund

	default:
		s.log.Debug("Ignoring webhook event",
			zap.String("event_id", evt.ID),
			zap.String("event_type", evt.RawType),
		)
	}

	return resp, nil
}

func (s *paymentService) HandleRefund(ctx context.Context, ref string) (*response.RefundResponse, error) {
	if ref == "" {
		return nil, fmt.Errorf("%w: refund reference is required", ErrValidation)
	}

	payments, err := s.repo.Payment.MarkRefunded(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("mark refunded: %w", err)
	}

	if len(payments) == 0 {
		s.log.Info("Refund matched no open payment", zap.String("ref", ref))
	}

	for _, p := range payments {
		s.log.Info("Payment refunded",
			zap.String("payment_id", p.ID.String()),
			zap.String("booking_id", p.BookingID.String()),
			zap.String("ref", ref),
		)
		s.notify.Notify(notifier.Message{
			UserID:  p.PayerID,
			Type:    entity.NotificationPaymentRefunded,
			Title:   "Payment refunded",
			Message: fmt.Sprintf("Your payment of %.2f %s has been refunded.", p.Amount, p.Currency),
			Data: map[string]any{
				"payment_id": p.ID.String(),
				"booking_id": p.BookingID.String(),
			},
		})
	}

	return &response.RefundResponse{Ref: ref, Refunded: len(payments)}, nil
}

func confirmationToResponse(r *ConfirmResult) *response.ConfirmationResponse {
	out := &response.ConfirmationResponse{AlreadyProcessed: r.AlreadyProcessed}
	if r.Booking != nil {
		out.Booking = response.BookingToResponse(r.Booking)
	}
	if r.Payment != nil {
		pr := response.PaymentToResponse(r.Payment)
		out.Payment = &pr
	}
	return out
}

// IsAlreadyHandled reports whether err only signals an idempotent replay.
func IsAlreadyHandled(err error) bool {
	return errors.Is(err, ErrAlreadyProcessed) || errors.Is(err, ErrAlreadyCancelled)
}
