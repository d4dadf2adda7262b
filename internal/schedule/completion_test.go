package schedule

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/blackstuend/Daily-Lesson-Review/internal/models"
)

func pendingReview() models.Review {
	return models.Review{
		ID:             uuid.New(),
		LessonID:       uuid.New(),
		ReviewDate:     models.NewDate(2024, time.February, 1),
		ReviewInterval: 3,
	}
}

func holdsInvariant(r models.Review) bool {
	return r.Completed == (r.CompletedAt != nil)
}

func TestMarkComplete_SetsTimestamp(t *testing.T) {
	now := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)

	r := MarkComplete(pendingReview(), now)

	if !r.Completed || r.CompletedAt == nil || !r.CompletedAt.Equal(now) {
		t.Fatalf("expected completed at %v, got completed=%v completed_at=%v", now, r.Completed, r.CompletedAt)
	}
	if StatusOf(r) != StatusCompleted {
		t.Fatalf("expected status completed, got %s", StatusOf(r))
	}
}

func TestMarkComplete_KeepsFirstTimestamp(t *testing.T) {
	first := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)
	second := first.Add(time.Minute)

	r := MarkComplete(MarkComplete(pendingReview(), first), second)

	if !r.CompletedAt.Equal(first) {
		t.Fatalf("expected original timestamp %v, got %v", first, r.CompletedAt)
	}
}

func TestToggleRoundTrip_RestoresPending(t *testing.T) {
	original := pendingReview()
	now := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)

	r := MarkIncomplete(MarkComplete(original, now))

	if r.Completed || r.CompletedAt != nil {
		t.Fatalf("expected pending with no timestamp, got completed=%v completed_at=%v", r.Completed, r.CompletedAt)
	}
	if !r.ReviewDate.Equal(original.ReviewDate) || r.ReviewInterval != original.ReviewInterval {
		t.Fatalf("toggle changed schedule: date %s interval %d", r.ReviewDate, r.ReviewInterval)
	}
	if r != original {
		t.Fatalf("expected round trip to restore the review exactly")
	}

	r = Toggle(Toggle(original, now), now)
	if r != original {
		t.Fatalf("expected double toggle to restore the review exactly")
	}
}

func TestStatusOf_MissingTimestampIsPending(t *testing.T) {
	r := pendingReview()
	r.Completed = true
	r.CompletedAt = nil

	if StatusOf(r) != StatusPending {
		t.Fatalf("expected corrupt completed row to read as pending")
	}

	n := Normalize(r)
	if n.Completed || !holdsInvariant(n) {
		t.Fatalf("expected normalised row to be pending, got completed=%v", n.Completed)
	}

	// Completing a corrupt row stamps it rather than trusting the flag.
	now := time.Date(2024, 2, 2, 8, 0, 0, 0, time.UTC)
	c := MarkComplete(r, now)
	if c.CompletedAt == nil || !c.CompletedAt.Equal(now) {
		t.Fatalf("expected timestamp to be set on corrupt row")
	}
}

func TestNormalize_TimestampWithoutFlag(t *testing.T) {
	r := pendingReview()
	ts := time.Now()
	r.CompletedAt = &ts

	n := Normalize(r)
	if n.Completed || n.CompletedAt != nil {
		t.Fatalf("expected stray timestamp to be cleared")
	}
}

func TestTransitions_PreserveInvariant(t *testing.T) {
	now := time.Now()
	r := pendingReview()
	steps := []func(models.Review) models.Review{
		func(r models.Review) models.Review { return MarkComplete(r, now) },
		func(r models.Review) models.Review { return MarkComplete(r, now) },
		MarkIncomplete,
		MarkIncomplete,
		func(r models.Review) models.Review { return Toggle(r, now) },
		func(r models.Review) models.Review { return Toggle(r, now) },
	}
	for i, step := range steps {
		r = step(r)
		if !holdsInvariant(r) {
			t.Fatalf("step %d broke completed/completed_at invariant", i)
		}
	}
}

func TestReschedule(t *testing.T) {
	r := pendingReview()
	target := models.NewDate(2024, time.February, 5)

	moved, err := Reschedule(r, target)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !moved.ReviewDate.Equal(target) {
		t.Fatalf("expected date %s, got %s", target, moved.ReviewDate)
	}
	if moved.ReviewInterval != r.ReviewInterval {
		t.Fatalf("reschedule must not change the interval")
	}

	done := MarkComplete(r, time.Now())
	_, err = Reschedule(done, target)
	if !errors.Is(err, ErrRescheduleCompleted) {
		t.Fatalf("expected ErrRescheduleCompleted, got %v", err)
	}
}
