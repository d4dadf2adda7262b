package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"

	"github.com/blackstuend/Daily-Lesson-Review/internal/events"
	"github.com/blackstuend/Daily-Lesson-Review/internal/metrics"
	"github.com/blackstuend/Daily-Lesson-Review/internal/models"
)

type DueReviewLister interface {
	ListUsersWithDueReviews(ctx context.Context, date models.Date) ([]models.DueReviewCount, error)
}

// ReminderScheduler publishes a reviews.due event each morning to every user
// with pending reviews for the day.
type ReminderScheduler struct {
	scheduler *gocron.Scheduler
	reviews   DueReviewLister
	publisher events.Publisher
	metrics   *metrics.Metrics
	clock     Clock
	hour      int
}

func NewReminderScheduler(reviews DueReviewLister, publisher events.Publisher, m *metrics.Metrics, clock Clock, hour int) *ReminderScheduler {
	if hour < 0 || hour > 23 {
		hour = 8
	}
	return &ReminderScheduler{
		scheduler: gocron.NewScheduler(clock.Location),
		reviews:   reviews,
		publisher: publisher,
		metrics:   m,
		clock:     clock,
		hour:      hour,
	}
}

func (s *ReminderScheduler) Start() error {
	at := fmt.Sprintf("%02d:00", s.hour)
	if _, err := s.scheduler.Every(1).Day().At(at).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if _, err := s.RunOnce(ctx, s.clock.Today()); err != nil {
			log.Printf("reminders: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule reminders at %s: %w", at, err)
	}

	s.scheduler.StartAsync()
	log.Printf("Reminder scheduler started (daily at %s %s)", at, s.clock.Location)
	return nil
}

func (s *ReminderScheduler) Stop() {
	s.scheduler.Stop()
}

// RunOnce notifies every user with pending reviews on date and returns how
// many users were notified.
func (s *ReminderScheduler) RunOnce(ctx context.Context, date models.Date) (int, error) {
	due, err := s.reviews.ListUsersWithDueReviews(ctx, date)
	if err != nil {
		return 0, fmt.Errorf("failed to list users with due reviews: %w", err)
	}

	sent := 0
	for _, d := range due {
		if d.Count <= 0 {
			continue
		}
		s.publisher.Publish(ctx, models.ChangeEvent{
			Type:     events.ReviewsDue,
			Table:    "review_schedule",
			RecordID: uuid.Nil,
			UserID:   d.UserID,
			Count:    d.Count,
			At:       s.clock.Now().UTC(),
		})
		sent++
	}

	if s.metrics != nil {
		s.metrics.RemindersSent.Add(float64(sent))
	}
	log.Printf("reminders: %d users notified for %s", sent, date)
	return sent, nil
}
