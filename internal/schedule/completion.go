package schedule

import (
	"errors"
	"time"

	"github.com/blackstuend/Daily-Lesson-Review/internal/models"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

var ErrRescheduleCompleted = errors.New("completed reviews cannot be rescheduled")

// StatusOf reads the state of r without trusting the stored flag alone: a row
// marked completed with no timestamp is treated as pending.
func StatusOf(r models.Review) Status {
	if r.Completed && r.CompletedAt != nil && !r.CompletedAt.IsZero() {
		return StatusCompleted
	}
	return StatusPending
}

// Normalize rewrites the completed/completed_at pair so that it satisfies the
// invariant, using StatusOf as the source of truth.
func Normalize(r models.Review) models.Review {
	if StatusOf(r) == StatusCompleted {
		return r
	}
	r.Completed = false
	r.CompletedAt = nil
	return r
}

// MarkComplete moves a pending review to completed at now. A review that is
// already completed keeps its original timestamp.
func MarkComplete(r models.Review, now time.Time) models.Review {
	if StatusOf(r) == StatusCompleted {
		return r
	}
	ts := now
	r.Completed = true
	r.CompletedAt = &ts
	return r
}

func MarkIncomplete(r models.Review) models.Review {
	r.Completed = false
	r.CompletedAt = nil
	return r
}

func Toggle(r models.Review, now time.Time) models.Review {
	if StatusOf(r) == StatusCompleted {
		return MarkIncomplete(r)
	}
	return MarkComplete(r, now)
}

// Reschedule moves a pending review to newDate. The interval is left alone:
// it records which step of the policy the review was generated for.
func Reschedule(r models.Review, newDate models.Date) (models.Review, error) {
	if StatusOf(r) == StatusCompleted {
		return r, ErrRescheduleCompleted
	}
	r.ReviewDate = newDate
	return r, nil
}
