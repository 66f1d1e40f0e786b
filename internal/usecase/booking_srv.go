package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mentor-booking/internal/data/entity"
	"mentor-booking/internal/data/repository"
	"mentor-booking/internal/dto/request"
	"mentor-booking/internal/dto/response"
	"mentor-booking/internal/notifier"
	"mentor-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	reconciliationLimit = 100
)

type ReserveParams struct {
	SlotID    uuid.UUID
	MeetingID uuid.UUID
	MenteeID  uuid.UUID
	MentorID  uuid.UUID
	Notes     *string
}

// ConfirmParams describes a completed gateway payment. ExternalRef is the
// gateway transaction reference and the idempotency key.
type ConfirmParams struct {
	ExternalRef      string
	PaymentIntentRef *string
	SlotID           uuid.UUID
	MeetingID        uuid.UUID
	MenteeID         uuid.UUID
	MentorID         uuid.UUID
	Notes            *string
	Amount           float64
	Currency         string
}

// ConfirmResult holds the booking a payment confirmed. Payment is nil when the
// booking committed but the payment row could not be written. Unbooked is set
// instead of Booking when the payment was held for refund.
type ConfirmResult struct {
	Booking          *entity.Booking
	Payment          *entity.Payment
	Unbooked         *entity.UnbookedPayment
	AlreadyProcessed bool
}

type BookingService interface {
	// Reservation core
	Reserve(ctx context.Context, p ReserveParams) (*entity.Booking, error)
	ConfirmPayment(ctx context.Context, p ConfirmParams) (*ConfirmResult, error)
	Cancel(ctx context.Context, bookingID, actorID uuid.UUID, reason *string) (*entity.Booking, error)
	Complete(ctx context.Context, bookingID, actorID uuid.UUID) (*entity.Booking, error)

	// Public endpoints (butuh auth)
	CreateBooking(ctx context.Context, userID uuid.UUID, req *request.CreateBookingRequest) (*response.BookingResponse, error)
	UpdateBooking(ctx context.Context, userID uuid.UUID, req *request.UpdateBookingRequest) (*response.BookingResponse, error)
	GetUserBookings(ctx context.Context, userID uuid.UUID, req *request.ListBookingsRequest) (*response.PaginatedResponse[response.BookingResponse], error)

	// Admin endpoints
	GetBookingByID(ctx context.Context, bookingID uuid.UUID) (*response.BookingDetailResponse, error)
	GetReconciliation(ctx context.Context) (*response.ReconciliationResponse, error)
}

type bookingService struct {
	repo   *repository.Repository
	notify notifier.Notifier
	log    *zap.Logger
	now    func() time.Time
}

func NewBookingService(repo *repository.Repository, notify notifier.Notifier, log *zap.Logger) BookingService {
	return &bookingService{
		repo:   repo,
		notify: notify,
		log:    log.With(zap.String("service", "booking")),
		now:    time.Now,
	}
}

// lockSlot takes the row lock on the slot and loads its meeting. Every path
// that changes spots_taken goes through here first, so the slot row is always
// the first lock taken.
func (s *bookingService) lockSlot(ctx context.Context, tx *repository.Repository, slotID, meetingID uuid.UUID) (*entity.Slot, *entity.Meeting, error) {
	slot, err := tx.Slot.FindByIDForUpdate(ctx, slotID)
	if err != nil {
		return nil, nil, fmt.Errorf("lock slot: %w", err)
	}
	if slot == nil || slot.MeetingID != meetingID {
		return nil, nil, fmt.Errorf("slot %s on meeting %s: %w", slotID, meetingID, ErrSlotNotFound)
	}

	meeting, err := tx.Meeting.FindByID(ctx, meetingID)
	if err != nil {
		return nil, nil, fmt.Errorf("load meeting: %w", err)
	}
	if meeting == nil {
		return nil, nil, fmt.Errorf("meeting %s: %w", meetingID, ErrSlotNotFound)
	}

	return slot, meeting, nil
}

// claim takes one unit of capacity for b and inserts it. The slot must already
// be locked by the caller.
func (s *bookingService) claim(ctx context.Context, tx *repository.Repository, slot *entity.Slot, b *entity.Booking) error {
	if !slot.CanReserve() {
		return fmt.Errorf("slot %s (%d/%d): %w", slot.ID, slot.SpotsTaken, slot.SpotsAvailable, ErrSlotFull)
	}

	claimed, err := tx.Slot.ClaimSpot(ctx, slot.ID)
	if err != nil {
		return fmt.Errorf("claim spot: %w", err)
	}
	if !claimed {
		return fmt.Errorf("slot %s: %w", slot.ID, ErrSlotFull)
	}

	if err := tx.Booking.Create(ctx, b); err != nil {
		if errors.Is(err, repository.ErrUniqueViolation) &&
			repository.UniqueConstraint(err) != repository.ConstraintExternalRef {
			return fmt.Errorf("slot %s mentee %s: %w", b.SlotID, b.MenteeID, ErrDuplicateBooking)
		}
		return fmt.Errorf("insert booking: %w", err)
	}

	return nil
}

func (s *bookingService) newBooking(p ReserveParams, status entity.BookingStatus, externalRef *string) *entity.Booking {
	return &entity.Booking{
		BaseNoDelete: entity.NewBaseNoDelete(s.now()),
		SlotID:       p.SlotID,
		MeetingID:    p.MeetingID,
		MenteeID:     p.MenteeID,
		MentorID:     p.MentorID,
		Status:       status,
		Notes:        p.Notes,
		ExternalRef:  externalRef,
	}
}

// checkParties validates mentor and mentee against the meeting under lock.
func checkParties(meeting *entity.Meeting, menteeID, mentorID uuid.UUID) error {
	if meeting.MentorID != mentorID {
		return fmt.Errorf("meeting %s is not hosted by %s: %w", meeting.ID, mentorID, ErrSlotNotFound)
	}
	if menteeID == meeting.MentorID {
		return ErrSelfBookingDenied
	}
	return nil
}

func (s *bookingService) Reserve(ctx context.Context, p ReserveParams) (*entity.Booking, error) {
	if p.MenteeID == p.MentorID {
		return nil, ErrSelfBookingDenied
	}

	var (
		booking *entity.Booking
		meeting *entity.Meeting
	)
	err := s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		slot, m, err := s.lockSlot(ctx, tx, p.SlotID, p.MeetingID)
		if err != nil {
			return err
		}
		if err := checkParties(m, p.MenteeID, p.MentorID); err != nil {
			return err
		}

		existing, err := tx.Booking.FindActiveBySlotAndMentee(ctx, p.SlotID, p.MenteeID)
		if err != nil {
			return fmt.Errorf("check active booking: %w", err)
		}
		if existing != nil {
			return fmt.Errorf("booking %s: %w", existing.ID, ErrDuplicateBooking)
		}

		status := entity.BookingStatusConfirmed
		if !m.IsFree {
			status = entity.BookingStatusPending
		}

		b := s.newBooking(p, status, nil)
		if err := s.claim(ctx, tx, slot, b); err != nil {
			return err
		}

		booking, meeting = b, m
		return nil
	})
	if err != nil {
		s.logRejected("Reserve", err, p.SlotID, p.MenteeID)
		return nil, err
	}

	s.log.Info("Booking reserved",
		zap.String("booking_id", booking.ID.String()),
		zap.String("slot_id", booking.SlotID.String()),
		zap.String("mentee_id", booking.MenteeID.String()),
		zap.String("status", string(booking.Status)),
	)

	s.notifyNewBooking(booking, meeting)
	return booking, nil
}

func (s *bookingService) ConfirmPayment(ctx context.Context, p ConfirmParams) (*ConfirmResult, error) {
	if p.ExternalRef == "" {
		return nil, fmt.Errorf("%w: external transaction reference is required", ErrValidation)
	}
	if p.MenteeID == p.MentorID {
		return s.holdForRefund(ctx, p, ErrSelfBookingDenied)
	}

	var (
		result  ConfirmResult
		meeting *entity.Meeting
	)
	err := s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		result = ConfirmResult{}

		slot, m, err := s.lockSlot(ctx, tx, p.SlotID, p.MeetingID)
		if err != nil {
			return err
		}
		meeting = m

		// redelivery: the slot lock serializes us behind the first delivery
		existing, err := tx.Booking.FindByExternalRef(ctx, p.ExternalRef)
		if err != nil {
			return fmt.Errorf("find booking by ref: %w", err)
		}
		if existing != nil {
			result.Booking = existing
			result.AlreadyProcessed = true

			payment, err := tx.Payment.FindByTransactionRef(ctx, p.ExternalRef)
			if err != nil {
				return fmt.Errorf("find payment by ref: %w", err)
			}
			if payment == nil {
				s.log.Warn("Retrying missing payment record",
					zap.String("booking_id", existing.ID.String()),
					zap.String("transaction_ref", p.ExternalRef),
				)
				payment = s.recordPayment(ctx, tx, existing, p)
			}
			result.Payment = payment
			return nil
		}

		if err := checkParties(m, p.MenteeID, p.MentorID); err != nil {
			return err
		}

		ref := p.ExternalRef
		active, err := tx.Booking.FindActiveBySlotAndMentee(ctx, p.SlotID, p.MenteeID)
		if err != nil {
			return fmt.Errorf("check active booking: %w", err)
		}

		switch {
		case active != nil && active.Status == entity.BookingStatusPending:
			// the pending booking already holds a unit; promote it
			ok, err := tx.Booking.MarkConfirmed(ctx, active.ID, &ref)
			if err != nil {
				return fmt.Errorf("promote pending booking: %w", err)
			}
			if !ok {
				return fmt.Errorf("booking %s: %w", active.ID, ErrInvalidStateTransition)
			}
			active.Status = entity.BookingStatusConfirmed
			active.ExternalRef = &ref
			active.UpdatedAt = s.now()
			result.Booking = active

		case active != nil:
			return fmt.Errorf("booking %s: %w", active.ID, ErrDuplicateBooking)

		default:
			b := s.newBooking(ReserveParams{
				SlotID:    p.SlotID,
				MeetingID: p.MeetingID,
				MenteeID:  p.MenteeID,
				MentorID:  p.MentorID,
				Notes:     p.Notes,
			}, entity.BookingStatusConfirmed, &ref)
			if err := s.claim(ctx, tx, slot, b); err != nil {
				return err
			}
			result.Booking = b
		}

		result.Payment = s.recordPayment(ctx, tx, result.Booking, p)
		return nil
	})

	if err != nil && repository.UniqueConstraint(err) == repository.ConstraintExternalRef {
		// lost a race on the same reference outside the slot lock
		existing, findErr := s.repo.Booking.FindByExternalRef(ctx, p.ExternalRef)
		if findErr == nil && existing != nil {
			payment, _ := s.repo.Payment.FindByTransactionRef(ctx, p.ExternalRef)
			return &ConfirmResult{Booking: existing, Payment: payment, AlreadyProcessed: true}, ErrAlreadyProcessed
		}
	}
	if err != nil {
		s.logRejected("Confirm payment", err, p.SlotID, p.MenteeID)
		if unbookedReason(err) != "" {
			return s.holdForRefund(ctx, p, err)
		}
		return nil, err
	}

	if result.AlreadyProcessed {
		s.log.Info("Payment already processed",
			zap.String("booking_id", result.Booking.ID.String()),
			zap.String("transaction_ref", p.ExternalRef),
		)
		return &result, ErrAlreadyProcessed
	}

	s.log.Info("Payment confirmed",
		zap.String("booking_id", result.Booking.ID.String()),
		zap.String("transaction_ref", p.ExternalRef),
		zap.Bool("payment_recorded", result.Payment != nil),
	)

	s.notifyNewBooking(result.Booking, meeting)
	return &result, nil
}

// unbookedReason names the permanent rejections that strand a paid checkout.
// Anything else is left for the gateway to retry.
func unbookedReason(err error) string {
	switch {
	case errors.Is(err, ErrSlotFull):
		return "slot_full"
	case errors.Is(err, ErrDuplicateBooking):
		return "duplicate_booking"
	case errors.Is(err, ErrSelfBookingDenied):
		return "self_booking"
	case errors.Is(err, ErrSlotNotFound):
		return "slot_not_found"
	case errors.Is(err, ErrInvalidStateTransition):
		return "invalid_state"
	}
	return ""
}

// holdForRefund stores a paid checkout the core rejected so it shows up in
// reconciliation. It returns cause wrapped in ErrPaidNotBooked once the row is
// stored, or cause alone when the store failed and the event must be retried.
func (s *bookingService) holdForRefund(ctx context.Context, p ConfirmParams, cause error) (*ConfirmResult, error) {
	currency := p.Currency
	if currency == "" {
		currency = "USD"
	}

	unbooked := &entity.UnbookedPayment{
		ID:               uuid.New(),
		TransactionRef:   p.ExternalRef,
		PaymentIntentRef: p.PaymentIntentRef,
		SlotID:           p.SlotID,
		MeetingID:        p.MeetingID,
		MenteeID:         p.MenteeID,
		MentorID:         p.MentorID,
		Amount:           p.Amount,
		Currency:         currency,
		Reason:           unbookedReason(cause),
		CreatedAt:        s.now(),
	}

	fields := []zap.Field{
		zap.Error(cause),
		zap.String("reconciliation", "payment_without_booking"),
		zap.String("transaction_ref", p.ExternalRef),
		zap.String("slot_id", p.SlotID.String()),
		zap.String("mentee_id", p.MenteeID.String()),
		zap.String("reason", unbooked.Reason),
	}

	inserted, err := s.repo.UnbookedPayment.Record(ctx, unbooked)
	if err != nil {
		s.log.Error("Paid checkout could not be booked or recorded",
			append(fields, zap.NamedError("record_error", err))...)
		return nil, cause
	}

	if inserted {
		s.log.Error("Paid checkout could not be booked, held for refund", fields...)
	} else {
		s.log.Info("Paid checkout already held for refund", fields...)
	}

	return &ConfirmResult{Unbooked: unbooked}, fmt.Errorf("%w: %w", ErrPaidNotBooked, cause)
}

// recordPayment inserts the payment inside a savepoint so a failure here never
// undoes the reservation. A nil return means the row is missing and must be
// reconciled; redelivering the same event retries it.
func (s *bookingService) recordPayment(ctx context.Context, tx *repository.Repository, b *entity.Booking, p ConfirmParams) *entity.Payment {
	currency := p.Currency
	if currency == "" {
		currency = "USD"
	}

	payment := &entity.Payment{
		BaseNoDelete:     entity.NewBaseNoDelete(s.now()),
		BookingID:        b.ID,
		PayerID:          b.MenteeID,
		RecipientID:      b.MentorID,
		Amount:           p.Amount,
		Currency:         currency,
		Status:           entity.PaymentStatusSucceeded,
		TransactionRef:   p.ExternalRef,
		PaymentIntentRef: p.PaymentIntentRef,
	}

	err := tx.WithTx(ctx, func(sp *repository.Repository) error {
		return sp.Payment.Create(ctx, payment)
	})
	if err != nil {
		s.log.Error("Failed to record payment, booking kept",
			zap.Error(err),
			zap.String("reconciliation", "payment_missing"),
			zap.String("booking_id", b.ID.String()),
			zap.String("transaction_ref", p.ExternalRef),
			zap.Float64("amount", p.Amount),
		)
		return nil
	}

	return payment
}

func (s *bookingService) Cancel(ctx context.Context, bookingID, actorID uuid.UUID, reason *string) (*entity.Booking, error) {
	current, err := s.repo.Booking.FindByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("find booking: %w", err)
	}
	if current == nil {
		return nil, fmt.Errorf("booking %s: %w", bookingID, ErrBookingNotFound)
	}
	if !current.HasParticipant(actorID) {
		return nil, fmt.Errorf("cancel booking %s: %w", bookingID, ErrNotAuthorized)
	}

	var (
		booking          *entity.Booking
		alreadyCancelled bool
	)
	err = s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		booking, alreadyCancelled = nil, false

		// slot first, then booking, same order as reserve
		if _, err := tx.Slot.FindByIDForUpdate(ctx, current.SlotID); err != nil {
			return fmt.Errorf("lock slot: %w", err)
		}

		b, err := tx.Booking.FindByIDForUpdate(ctx, bookingID)
		if err != nil {
			return fmt.Errorf("lock booking: %w", err)
		}
		if b == nil {
			return fmt.Errorf("booking %s: %w", bookingID, ErrBookingNotFound)
		}

		if b.Status == entity.BookingStatusCancelled {
			booking, alreadyCancelled = b, true
			return nil
		}
		if !b.Status.CanTransitionTo(entity.BookingStatusCancelled) {
			return fmt.Errorf("cancel %s booking: %w", b.Status, ErrInvalidStateTransition)
		}

		ok, err := tx.Booking.UpdateStatus(ctx, b.ID, b.Status, entity.BookingStatusCancelled, reason)
		if err != nil {
			return fmt.Errorf("cancel booking: %w", err)
		}
		if !ok {
			return fmt.Errorf("cancel booking %s: %w", b.ID, ErrInvalidStateTransition)
		}

		released, err := tx.Slot.ReleaseSpot(ctx, b.SlotID)
		if err != nil {
			return fmt.Errorf("release spot: %w", err)
		}
		if !released {
			s.log.Error("Cancelled booking released no capacity",
				zap.String("reconciliation", "spots_taken_underflow"),
				zap.String("booking_id", b.ID.String()),
				zap.String("slot_id", b.SlotID.String()),
			)
		}

		b.Status = entity.BookingStatusCancelled
		if reason != nil {
			b.CancellationReason = reason
		}
		b.UpdatedAt = s.now()
		booking = b
		return nil
	})
	if err != nil {
		s.logRejected("Cancel", err, current.SlotID, actorID)
		return nil, err
	}

	if alreadyCancelled {
		return booking, fmt.Errorf("booking %s: %w", bookingID, ErrAlreadyCancelled)
	}

	s.log.Info("Booking cancelled",
		zap.String("booking_id", booking.ID.String()),
		zap.String("slot_id", booking.SlotID.String()),
		zap.String("actor_id", actorID.String()),
	)

	s.notifyCancelled(booking, actorID)
	return booking, nil
}

func (s *bookingService) Complete(ctx context.Context, bookingID, actorID uuid.UUID) (*entity.Booking, error) {
	var booking *entity.Booking
	err := s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		b, err := tx.Booking.FindByIDForUpdate(ctx, bookingID)
		if err != nil {
			return fmt.Errorf("lock booking: %w", err)
		}
		if b == nil {
			return fmt.Errorf("booking %s: %w", bookingID, ErrBookingNotFound)
		}
		if b.MentorID != actorID {
			return fmt.Errorf("complete booking %s: %w", bookingID, ErrNotAuthorized)
		}
		if b.Status != entity.BookingStatusConfirmed {
			return fmt.Errorf("complete %s booking: %w", b.Status, ErrInvalidStateTransition)
		}

		ok, err := tx.Booking.UpdateStatus(ctx, b.ID, b.Status, entity.BookingStatusCompleted, nil)
		if err != nil {
			return fmt.Errorf("complete booking: %w", err)
		}
		if !ok {
			return fmt.Errorf("complete booking %s: %w", b.ID, ErrInvalidStateTransition)
		}

		b.Status = entity.BookingStatusCompleted
		b.UpdatedAt = s.now()
		booking = b
		return nil
	})
	if err != nil {
		s.log.Warn("Complete rejected",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
			zap.String("actor_id", actorID.String()),
		)
		return nil, err
	}

	s.log.Info("Booking completed",
		zap.String("booking_id", booking.ID.String()),
		zap.String("mentor_id", actorID.String()),
	)
	return booking, nil
}

func (s *bookingService) CreateBooking(ctx context.Context, userID uuid.UUID, req *request.CreateBookingRequest) (*response.BookingResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create booking validation failed", zap.Any("errors", errs))
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
	if !meeting.IsFree {
		return nil, ErrPaymentRequired
	}

	booking, err := s.Reserve(ctx, ReserveParams{
		SlotID:    slotID,
		MeetingID: meetingID,
		MenteeID:  userID,
		MentorID:  meeting.MentorID,
		Notes:     req.Notes,
	})
	if err != nil {
		return nil, err
	}

	resp := response.BookingToResponse(booking)
	return &resp, nil
}

func (s *bookingService) UpdateBooking(ctx context.Context, userID uuid.UUID, req *request.UpdateBookingRequest) (*response.BookingResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Update booking validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	bookingID, err := uuid.Parse(req.BookingID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid booking ID %s", ErrValidation, req.BookingID)
	}

	var booking *entity.Booking
	switch req.Action {
	case "cancel":
		booking, err = s.Cancel(ctx, bookingID, userID, req.Reason)
	case "complete":
		booking, err = s.Complete(ctx, bookingID, userID)
	default:
		return nil, fmt.Errorf("%w: unknown action %q", ErrValidation, req.Action)
	}

	// an already-cancelled booking is still returned alongside the signal
	if booking == nil {
		return nil, err
	}
	resp := response.BookingToResponse(booking)
	return &resp, err
}

func (s *bookingService) GetUserBookings(ctx context.Context, userID uuid.UUID, req *request.ListBookingsRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	var status *entity.BookingStatus
	if req.Status != "" {
		st := entity.BookingStatus(req.Status)
		status = &st
	}

	limit := req.Limit()
	offset := req.Offset()

	bookings, err := s.repo.Booking.FindByParticipant(ctx, userID, status, limit, offset)
	if err != nil {
		s.log.Error("Failed to get user bookings",
			zap.Error(err),
			zap.String("user_id", userID.String()),
			zap.Int("page", req.Page),
			zap.Int("per_page", req.PerPage),
		)
		return nil, fmt.Errorf("get user bookings: %w", err)
	}

	total, err := s.repo.Booking.CountByParticipant(ctx, userID, status)
	if err != nil {
		s.log.Error("Failed to count user bookings", zap.Error(err))
		return nil, fmt.Errorf("count user bookings: %w", err)
	}

	s.log.Debug("User bookings retrieved",
		zap.String("user_id", userID.String()),
		zap.Int("count", len(bookings)),
		zap.Int64("total", total),
	)

	return response.NewPaginatedResponse(response.BookingsToResponse(bookings), req.Page, limit, total), nil
}

func (s *bookingService) GetBookingByID(ctx context.Context, bookingID uuid.UUID) (*response.BookingDetailResponse, error) {
	booking, err := s.repo.Booking.FindByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("find booking: %w", err)
	}
	if booking == nil {
		return nil, fmt.Errorf("booking %s: %w", bookingID, ErrBookingNotFound)
	}

	detail := &response.BookingDetailResponse{BookingResponse: response.BookingToResponse(booking)}

	slot, err := s.repo.Slot.FindByID(ctx, booking.SlotID)
	if err != nil {
		return nil, fmt.Errorf("find slot: %w", err)
	}
	if slot != nil {
		sr := response.SlotToResponse(slot)
		detail.Slot = &sr
	}

	payment, err := s.repo.Payment.FindByBookingID(ctx, booking.ID)
	if err != nil {
		return nil, fmt.Errorf("find payment: %w", err)
	}
	if payment != nil {
		pr := response.PaymentToResponse(payment)
		detail.Payment = &pr
	}

	return detail, nil
}

func (s *bookingService) GetReconciliation(ctx context.Context) (*response.ReconciliationResponse, error) {
	bookings, err := s.repo.Booking.FindPaidWithoutPayment(ctx, reconciliationLimit)
	if err != nil {
		return nil, fmt.Errorf("find unreconciled bookings: %w", err)
	}

	unbooked, err := s.repo.UnbookedPayment.FindUnresolved(ctx, reconciliationLimit)
	if err != nil {
		return nil, fmt.Errorf("find unbooked payments: %w", err)
	}

	if len(bookings) > 0 || len(unbooked) > 0 {
		s.log.Warn("Payments and bookings out of sync",
			zap.Int("payment_missing", len(bookings)),
			zap.Int("payment_without_booking", len(unbooked)),
		)
	}

	resp := &response.ReconciliationResponse{
		MissingPayments:  response.BookingsToResponse(bookings),
		UnbookedPayments: make([]response.UnbookedPaymentResponse, len(unbooked)),
	}
	for i, p := range unbooked {
		resp.UnbookedPayments[i] = response.UnbookedPaymentToResponse(p)
	}
	return resp, nil
}

func (s *bookingService) notifyNewBooking(b *entity.Booking, meeting *entity.Meeting) {
	title := "a session"
	if meeting != nil {
		title = fmt.Sprintf("%q", meeting.Title)
	}

	s.notify.Notify(notifier.Message{
		UserID:  b.MentorID,
		Type:    entity.NotificationNewBooking,
		Title:   "New session booked!",
		Message: fmt.Sprintf("A mentee booked %s.", title),
		Data: map[string]any{
			"booking_id": b.ID.String(),
			"slot_id":    b.SlotID.String(),
			"meeting_id": b.MeetingID.String(),
			"mentee_id":  b.MenteeID.String(),
		},
	})
}

func (s *bookingService) notifyCancelled(b *entity.Booking, actorID uuid.UUID) {
	msg := "Your session has been cancelled."
	if b.CancellationReason != nil && *b.CancellationReason != "" {
		msg = fmt.Sprintf("Your session has been cancelled: %s", *b.CancellationReason)
	}

	s.notify.Notify(notifier.Message{
		UserID:  b.Counterpart(actorID),
		Type:    entity.NotificationBookingCancelled,
		Title:   "Booking cancelled",
		Message: msg,
		Data: map[string]any{
			"booking_id":   b.ID.String(),
			"slot_id":      b.SlotID.String(),
			"cancelled_by": actorID.String(),
		},
	})
}

// logRejected keeps expected business outcomes at Info and the rest at Error.
func (s *bookingService) logRejected(op string, err error, slotID, userID uuid.UUID) {
	fields := []zap.Field{
		zap.Error(err),
		zap.String("slot_id", slotID.String()),
		zap.String("user_id", userID.String()),
	}

	switch {
	case errors.Is(err, ErrSlotFull),
		errors.Is(err, ErrDuplicateBooking),
		errors.Is(err, ErrSelfBookingDenied),
		errors.Is(err, ErrSlotNotFound),
		errors.Is(err, ErrBookingNotFound),
		errors.Is(err, ErrNotAuthorized),
		errors.Is(err, ErrInvalidStateTransition):
		s.log.Info(op+" rejected", fields...)
	case errors.Is(err, ErrTransientStore):
		s.log.Warn(op+" hit transient datastore error", fields...)
	default:
		s.log.Error(op+" failed", fields...)
	}
}
