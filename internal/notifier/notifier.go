package notifier

import (
	"context"
	"sync"
	"time"

	"mentor-booking/internal/data/entity"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Message is one in-app notification addressed to a single user.
type Message struct {
	UserID  uuid.UUID               `json:"user_id"`
	Type    entity.NotificationType `json:"type"`
	Title   string                  `json:"title"`
	Message string                  `json:"message"`
	Data    map[string]any          `json:"data,omitempty"`
}

// Notifier accepts messages without blocking the caller. Delivery is best-effort.
type Notifier interface {
	Notify(msg Message)
}

// Sink is one delivery target.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, msg Message) error
}

const deliverTimeout = 5 * time.Second

// Dispatcher fans queued messages out to every sink from a fixed worker pool.
// When the queue is full new messages are dropped and logged.
type Dispatcher struct {
	sinks   []Sink
	workers int
	queue   chan Message
	log     *zap.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewDispatcher(sinks []Sink, workers, queueSize int, log *zap.Logger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	return &Dispatcher{
		sinks:   sinks,
		workers: workers,
		queue:   make(chan Message, queueSize),
		log:     log.With(zap.String("component", "notifier")),
	}
}

func (d *Dispatcher) Start() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.run()
	}
	d.log.Info("Notification dispatcher started",
		zap.Int("workers", d.workers),
		zap.Int("sinks", len(d.sinks)),
	)
}

func (d *Dispatcher) Notify(msg Message) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.log.Warn("Notification dropped after shutdown",
			zap.String("user_id", msg.UserID.String()),
			zap.String("type", string(msg.Type)),
		)
		return
	}

	select {
	case d.queue <- msg:
	default:
		d.log.Warn("Notification queue full, dropping message",
			zap.String("user_id", msg.UserID.String()),
			zap.String("type", string(msg.Type)),
		)
	}
}

// Close stops accepting messages and waits for queued ones to drain.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
	d.log.Info("Notification dispatcher stopped")
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for msg := range d.queue {
		d.deliver(msg)
	}
}

func (d *Dispatcher) deliver(msg Message) {
	for _, sink := range d.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), deliverTimeout)
		err := sink.Deliver(ctx, msg)
		cancel()

		if err != nil {
			d.log.Error("Failed to deliver notification",
				zap.Error(err),
				zap.String("sink", sink.Name()),
				zap.String("user_id", msg.UserID.String()),
				zap.String("type", string(msg.Type)),
			)
		}
	}
}
