// Package events fans out change notifications to a user's open sessions
// through Redis pub/sub.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/blackstuend/Daily-Lesson-Review/internal/metrics"
	"github.com/blackstuend/Daily-Lesson-Review/internal/models"
)

const (
	LessonCreated  = "lesson.created"
	LessonUpdated  = "lesson.updated"
	LessonDeleted  = "lesson.deleted"
	ReviewUpdated  = "review.updated"
	ReviewDeleted  = "review.deleted"
	WaitingCreated = "waiting.created"
	WaitingUpdated = "waiting.updated"
	WaitingDeleted = "waiting.deleted"
	ReviewsDue     = "reviews.due"
)

// MessageType is the WSMessage type every change event is wrapped in.
const MessageType = "change"

// Publisher notifies subscribers that a user's data changed. Publishing is
// best effort: a failure is logged and never undoes the mutation.
type Publisher interface {
	Publish(ctx context.Context, ev models.ChangeEvent)
}

func Channel(userID uuid.UUID) string {
	return "user_updates:" + userID.String()
}

// Encode wraps ev in the WebSocket envelope sent to clients.
func Encode(ev models.ChangeEvent) ([]byte, error) {
	return json.Marshal(models.WSMessage{Type: MessageType, Payload: ev})
}

type Bus struct {
	redis   *redis.Client
	metrics *metrics.Metrics
}

func NewBus(client *redis.Client, m *metrics.Metrics) *Bus {
	return &Bus{redis: client, metrics: m}
}

func (b *Bus) Publish(ctx context.Context, ev models.ChangeEvent) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	data, err := Encode(ev)
	if err == nil {
		err = b.redis.Publish(ctx, Channel(ev.UserID), data).Err()
	}
	if b.metrics != nil {
		b.metrics.RecordEvent(ev.Type, err == nil)
	}
	if err != nil {
		log.Printf("Failed to publish %s for user %s: %v", ev.Type, ev.UserID, err)
	}
}

// Subscribe delivers every raw message on the user's channel to fn until ctx
// is cancelled.
func (b *Bus) Subscribe(ctx context.Context, userID uuid.UUID, fn func([]byte)) error {
	pubsub := b.redis.Subscribe(ctx, Channel(userID))
	defer pubsub.Close()

	// Wait for the subscription to be confirmed so callers see the failure.
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", Channel(userID), err)
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			fn([]byte(msg.Payload))
		}
	}
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, models.ChangeEvent) {}

// Recorder keeps published events in memory.
type Recorder struct {
	Events []models.ChangeEvent
}

func (r *Recorder) Publish(_ context.Context, ev models.ChangeEvent) {
	r.Events = append(r.Events, ev)
}

// Types returns the recorded event types in publish order.
func (r *Recorder) Types() []string {
	out := make([]string, 0, len(r.Events))
	for _, ev := range r.Events {
		out = append(out, ev.Type)
	}
	return out
}
