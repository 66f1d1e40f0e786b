package notifier

import (
	"context"
	"fmt"
	"time"

	"mentor-booking/internal/data/entity"
	"mentor-booking/internal/data/repository"

	"github.com/google/uuid"
)

// DBSink stores the message in the user's notification inbox.
type DBSink struct {
	repo repository.NotificationRepository
}

func NewDBSink(repo repository.NotificationRepository) *DBSink {
	return &DBSink{repo: repo}
}

func (s *DBSink) Name() string { return "database" }

func (s *DBSink) Deliver(ctx context.Context, msg Message) error {
	n := &entity.Notification{
		BaseSimple: entity.BaseSimple{
			ID:        uuid.New(),
			CreatedAt: time.Now(),
		},
		UserID:  msg.UserID,
		Type:    msg.Type,
		Title:   msg.Title,
		Message: msg.Message,
		Data:    msg.Data,
	}
	return s.repo.Create(ctx, n)
}

// Publisher is satisfied by *mq.Publisher.
type Publisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

// AMQPSink publishes the message on the topic exchange under
// "notification.<type>" so other services can react to booking events.
type AMQPSink struct {
	pub Publisher
}

func NewAMQPSink(pub Publisher) *AMQPSink {
	return &AMQPSink{pub: pub}
}

func (s *AMQPSink) Name() string { return "amqp" }

func (s *AMQPSink) Deliver(ctx context.Context, msg Message) error {
	key := RoutingKey(msg.Type)
	if err := s.pub.PublishJSON(ctx, key, msg); err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}
	return nil
}

func RoutingKey(t entity.NotificationType) string {
	return "notification." + string(t)
}
