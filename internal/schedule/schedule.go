// Package schedule owns the review interval policy and the completion state
// machine for individual reviews. Nothing here performs I/O.
package schedule

import (
	"time"

	"github.com/google/uuid"

	"github.com/blackstuend/Daily-Lesson-Review/internal/models"
)

// Intervals are the fixed review offsets, in days after the lesson date.
var Intervals = [...]int{0, 1, 3, 7}

type Entry struct {
	Interval int         `json:"interval"`
	DueDate  models.Date `json:"due_date"`
}

// Generate returns one entry per interval in ascending order.
func Generate(lessonDate models.Date) []Entry {
	entries := make([]Entry, 0, len(Intervals))
	for _, interval := range Intervals {
		entries = append(entries, Entry{
			Interval: interval,
			DueDate:  lessonDate.AddDays(interval),
		})
	}
	return entries
}

// GenerateFor normalises t to its calendar day in t's location before
// generating, so a late-evening local timestamp never lands on the next UTC day.
func GenerateFor(t time.Time) []Entry {
	return Generate(models.DateOf(t))
}

// IsInterval reports whether n is one of the canonical offsets.
func IsInterval(n int) bool {
	for _, interval := range Intervals {
		if interval == n {
			return true
		}
	}
	return false
}

// NewReviews builds the pending review rows for a freshly created lesson.
func NewReviews(lesson *models.Lesson, entries []Entry) []models.Review {
	reviews := make([]models.Review, 0, len(entries))
	for _, e := range entries {
		reviews = append(reviews, models.Review{
			ID:             uuid.New(),
			UserID:         lesson.UserID,
			LessonID:       lesson.ID,
			ReviewDate:     e.DueDate,
			ReviewInterval: e.Interval,
			Completed:      false,
			CompletedAt:    nil,
			Lesson:         lesson.Ref(),
		})
	}
	return reviews
}
