package usecase

import (
	"context"
	"fmt"

	"mentor-booking/internal/data/repository"
	"mentor-booking/internal/dto/request"
	"mentor-booking/internal/dto/response"
	"mentor-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const inboxLimit = 30

type NotificationService interface {
	GetNotifications(ctx context.Context, userID uuid.UUID) (*response.NotificationListResponse, error)
	MarkRead(ctx context.Context, userID uuid.UUID, req *request.MarkNotificationsRequest) (int64, error)
}

type notificationService struct {
	repo repository.NotificationRepository
	log  *zap.Logger
}

func NewNotificationService(repo repository.NotificationRepository, log *zap.Logger) NotificationService {
	return &notificationService{
		repo: repo,
		log:  log.With(zap.String("service", "notification")),
	}
}

func (s *notificationService) GetNotifications(ctx context.Context, userID uuid.UUID) (*response.NotificationListResponse, error) {
	notifications, err := s.repo.FindByUserID(ctx, userID, inboxLimit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}

	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count unread notifications: %w", err)
	}

	out := make([]response.NotificationResponse, len(notifications))
	for i, n := range notifications {
		out[i] = response.NotificationToResponse(n)
	}

	return &response.NotificationListResponse{Notifications: out, UnreadCount: unread}, nil
}

func (s *notificationService) MarkRead(ctx context.Context, userID uuid.UUID, req *request.MarkNotificationsRequest) (int64, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return 0, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	if req.MarkAllRead {
		n, err := s.repo.MarkAllRead(ctx, userID)
		if err != nil {
			return 0, fmt.Errorf("mark all read: %w", err)
		}
		s.log.Debug("Notifications marked read",
			zap.String("user_id", userID.String()),
			zap.Int64("count", n),
		)
		return n, nil
	}

	if req.NotificationID == "" {
		return 0, fmt.Errorf("%w: notification_id or mark_all_read is required", ErrValidation)
	}
	id, err := uuid.Parse(req.NotificationID)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid notification ID %s", ErrValidation, req.NotificationID)
	}

	ok, err := s.repo.MarkRead(ctx, id, userID)
	if err != nil {
		return 0, fmt.Errorf("mark read: %w", err)
	}
	if !ok {
		return 0, fmt.Errorf("notification %s: %w", id, ErrNotificationNotFound)
	}

	return 1, nil
}
