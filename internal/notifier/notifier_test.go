package notifier

import (
	"context"
	"errors"
	"sync"
	"testing"

	"mentor-booking/internal/data/entity"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type recordingSink struct {
	mu   sync.Mutex
	name string
	err  error
	got  []Message
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Deliver(_ context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, msg)
	return s.err
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.got)
}

func newMessage() Message {
	return Message{
		UserID: uuid.New(),
		Type:   entity.NotificationNewBooking,
		Title:  "New session booked!",
	}
}

func TestDispatcherDeliversToEverySink(t *testing.T) {
	failing := &recordingSink{name: "failing", err: errors.New("boom")}
	ok := &recordingSink{name: "ok"}

	d := NewDispatcher([]Sink{failing, ok}, 3, 16, zap.NewNop())
	d.Start()
	for i := 0; i < 10; i++ {
		d.Notify(newMessage())
	}
	d.Close()

	if failing.count() != 10 {
		t.Errorf("failing sink got %d messages, want 10", failing.count())
	}
	if ok.count() != 10 {
		t.Errorf("ok sink got %d messages, want 10", ok.count())
	}
}

func TestDispatcherDropsWhenQueueFull(t *testing.T) {
	sink := &recordingSink{name: "sink"}

	// not started yet, so nothing drains the queue
	d := NewDispatcher([]Sink{sink}, 1, 2, zap.NewNop())
	for i := 0; i < 5; i++ {
		d.Notify(newMessage())
	}
	d.Start()
	d.Close()

	if sink.count() != 2 {
		t.Errorf("got %d messages, want 2", sink.count())
	}
}

func TestDispatcherNotifyAfterClose(t *testing.T) {
	sink := &recordingSink{name: "sink"}
	d := NewDispatcher([]Sink{sink}, 1, 4, zap.NewNop())
	d.Start()
	d.Close()
	d.Close()

	d.Notify(newMessage())

	if sink.count() != 0 {
		t.Errorf("got %d messages after close, want 0", sink.count())
	}
}

type fakePublisher struct {
	key string
	v   any
	err error
}

func (p *fakePublisher) PublishJSON(_ context.Context, key string, v any) error {
	p.key = key
	p.v = v
	return p.err
}

func TestAMQPSinkRoutingKey(t *testing.T) {
	pub := &fakePublisher{}
	sink := NewAMQPSink(pub)

	msg := newMessage()
	msg.Type = entity.NotificationBookingCancelled
	if err := sink.Deliver(context.Background(), msg); err != nil {
		t.Fatalf("Deliver: %v", err)
	}

	if pub.key != "notification.booking_cancelled" {
		t.Errorf("routing key = %q", pub.key)
	}
	if got, ok := pub.v.(Message); !ok || got.UserID != msg.UserID {
		t.Errorf("published payload = %#v", pub.v)
	}
}

func TestAMQPSinkWrapsPublishError(t *testing.T) {
	cause := errors.New("channel closed")
	sink := NewAMQPSink(&fakePublisher{err: cause})

	err := sink.Deliver(context.Background(), newMessage())
	if !errors.Is(err, cause) {
		t.Fatalf("err = %v, want wrapped %v", err, cause)
	}
}

type fakeNotificationRepo struct {
	created []*entity.Notification
}

func (r *fakeNotificationRepo) Create(_ context.Context, n *entity.Notification) error {
	r.created = append(r.created, n)
	return nil
}

func (r *fakeNotificationRepo) FindByUserID(context.Context, uuid.UUID, int) ([]*entity.Notification, error) {
	return nil, nil
}

func (r *fakeNotificationRepo) CountUnread(context.Context, uuid.UUID) (int64, error) {
	return 0, nil
}

func (r *fakeNotificationRepo) MarkRead(context.Context, uuid.UUID, uuid.UUID) (bool, error) {
	return false, nil
}

func (r *fakeNotificationRepo) MarkAllRead(context.Context, uuid.UUID) (int64, error) {
	return 0, nil
}

func TestDBSinkStoresUnreadNotification(t *testing.T) {
	repo := &fakeNotificationRepo{}
	sink := NewDBSink(repo)

	msg := newMessage()
	msg.Data = map[string]any{"booking_id": "b1"}
	if err := sink.Deliver(context.Background(), msg); err != nil {
		t.Fatalf("Deliver: %v", err)
	}

	if len(repo.created) != 1 {
		t.Fatalf("created %d notifications, want 1", len(repo.created))
	}
	n := repo.created[0]
	if n.UserID != msg.UserID || n.Type != msg.Type || n.IsRead {
		t.Errorf("unexpected notification %+v", n)
	}
	if n.ID == uuid.Nil || n.CreatedAt.IsZero() {
		t.Errorf("notification not stamped: %+v", n)
	}
	if n.Data["booking_id"] != "b1" {
		t.Errorf("data = %v", n.Data)
	}
}
