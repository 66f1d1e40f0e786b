package usecase

import (
	"context"
	"fmt"
	"time"

	"mentor-booking/internal/data/entity"
	"mentor-booking/internal/data/repository"
	"mentor-booking/internal/dto/request"
	"mentor-booking/internal/dto/response"
	"mentor-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type SlotService interface {
	GetMeetingSlots(ctx context.Context, meetingID uuid.UUID) ([]response.SlotResponse, error)

	// CreateSlots adds bookable windows to a meeting the caller mentors. All
	// slots are inserted in one transaction, open and with nothing taken.
	CreateSlots(ctx context.Context, userID, meetingID uuid.UUID, req *request.CreateSlotsRequest) ([]response.SlotResponse, error)

	// SetAvailability lets the meeting's mentor open or close a slot. It never
	// changes spots_taken.
	SetAvailability(ctx context.Context, userID, slotID uuid.UUID, req *request.SetSlotAvailabilityRequest) (*response.SlotResponse, error)
}

type slotService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewSlotService(repo *repository.Repository, log *zap.Logger) SlotService {
	return &slotService{
		repo: repo,
		log:  log.With(zap.String("service", "slot")),
	}
}

func (s *slotService) GetMeetingSlots(ctx context.Context, meetingID uuid.UUID) ([]response.SlotResponse, error) {
	meeting, err := s.repo.Meeting.FindByID(ctx, meetingID)
	if err != nil {
		return nil, fmt.Errorf("load meeting: %w", err)
	}
	if meeting == nil {
		return nil, fmt.Errorf("meeting %s: %w", meetingID, ErrMeetingNotFound)
	}

	slots, err := s.repo.Slot.FindByMeetingID(ctx, meetingID)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}

	out := make([]response.SlotResponse, len(slots))
	for i, slot := range slots {
		out[i] = response.SlotToResponse(slot)
	}
	return out, nil
}

func (s *slotService) CreateSlots(ctx context.Context, userID, meetingID uuid.UUID, req *request.CreateSlotsRequest) ([]response.SlotResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	meeting, err := s.repo.Meeting.FindByID(ctx, meetingID)
	if err != nil {
		return nil, fmt.Errorf("load meeting: %w", err)
	}
	if meeting == nil {
		return nil, fmt.Errorf("meeting %s: %w", meetingID, ErrMeetingNotFound)
	}
	if meeting.MentorID != userID {
		s.log.Warn("Create slots rejected",
			zap.String("meeting_id", meetingID.String()),
			zap.String("user_id", userID.String()),
		)
		return nil, fmt.Errorf("add slots to meeting %s: %w", meetingID, ErrNotAuthorized)
	}

	now := time.Now()
	slots := make([]*entity.Slot, len(req.Slots))
	for i, in := range req.Slots {
		slots[i] = &entity.Slot{
			BaseNoDelete:   entity.NewBaseNoDelete(now),
			MeetingID:      meetingID,
			StartTime:      in.StartTime.UTC(),
			EndTime:        in.EndTime.UTC(),
			SpotsAvailable: in.SpotsAvailable,
			SpotsTaken:     0,
			IsAvailable:    true,
		}
	}

	err = s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		for _, slot := range slots {
			if err := tx.Slot.Create(ctx, slot); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create slots: %w", err)
	}

	out := make([]response.SlotResponse, len(slots))
	for i, slot := range slots {
		out[i] = response.SlotToResponse(slot)
	}

	s.log.Info("Slots created",
		zap.String("meeting_id", meetingID.String()),
		zap.Int("count", len(slots)),
	)
	return out, nil
}

func (s *slotService) SetAvailability(ctx context.Context, userID, slotID uuid.UUID, req *request.SetSlotAvailabilityRequest) (*response.SlotResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	var resp response.SlotResponse
	err := s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		slot, err := tx.Slot.FindByIDForUpdate(ctx, slotID)
		if err != nil {
			return fmt.Errorf("lock slot: %w", err)
		}
		if slot == nil {
			return fmt.Errorf("slot %s: %w", slotID, ErrSlotNotFound)
		}

		meeting, err := tx.Meeting.FindByID(ctx, slot.MeetingID)
		if err != nil {
			return fmt.Errorf("load meeting: %w", err)
		}
		if meeting == nil || meeting.MentorID != userID {
			return fmt.Errorf("update slot %s: %w", slotID, ErrNotAuthorized)
		}

		if err := tx.Slot.SetAvailability(ctx, slotID, *req.IsAvailable); err != nil {
			return err
		}

		slot.IsAvailable = *req.IsAvailable
		resp = response.SlotToResponse(slot)
		return nil
	})
	if err != nil {
		s.log.Warn("Set slot availability rejected",
			zap.Error(err),
			zap.String("slot_id", slotID.String()),
			zap.String("user_id", userID.String()),
		)
		return nil, err
	}

	s.log.Info("Slot availability updated",
		zap.String("slot_id", slotID.String()),
		zap.Bool("is_open", resp.IsOpen),
	)
	return &resp, nil
}
