package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/blackstuend/Daily-Lesson-Review/internal/events"
	"github.com/blackstuend/Daily-Lesson-Review/internal/models"
)

func TestWaitingCreateAndList(t *testing.T) {
	store := newMemStore()
	svc := NewWaitingService(memWaiting{store}, &events.Recorder{}, nil, fixedClock())
	ctx := context.Background()

	for _, req := range []models.WaitingLessonRequest{
		{Title: "Go memory model", LessonType: models.LessonTypeLink, LinkURL: strPtr("https://go.dev/ref/mem")},
		{Title: "idempotent", LessonType: models.LessonTypeWord, Content: strPtr("same result twice")},
		{Title: "sentence", LessonType: models.LessonTypeSentence, PlannedStartDate: strPtr("2024-03-01")},
	} {
		if _, err := svc.Create(ctx, testUser, req); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	all, err := svc.List(ctx, testUser, "", "")
	if err != nil || len(all) != 3 {
		t.Fatalf("expected 3 items, got %d (%v)", len(all), err)
	}

	words, _ := svc.List(ctx, testUser, models.LessonTypeWord, "")
	if len(words) != 1 || words[0].Title != "idempotent" {
		t.Fatalf("expected the word item, got %v", words)
	}

	found, _ := svc.List(ctx, testUser, "", "RESULT")
	if len(found) != 1 {
		t.Fatalf("expected search to match content case-insensitively, got %d", len(found))
	}

	_, err = svc.List(ctx, testUser, "video", "")
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for unknown type, got %v", err)
	}
}

func TestWaitingCreate_Validation(t *testing.T) {
	svc := NewWaitingService(memWaiting{newMemStore()}, nil, nil, fixedClock())

	_, err := svc.Create(context.Background(), testUser, models.WaitingLessonRequest{
		Title:            "",
		LessonType:       models.LessonTypeWord,
		PlannedStartDate: strPtr("March 1"),
	})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if ve.Fields["title"] == "" || ve.Fields["planned_start_date"] == "" {
		t.Fatalf("expected title and planned_start_date errors, got %v", ve.Fields)
	}
}

func TestWaitingPromote(t *testing.T) {
	store := newMemStore()
	rec := &events.Recorder{}
	svc := NewWaitingService(memWaiting{store}, rec, nil, fixedClock())
	ctx := context.Background()

	w, err := svc.Create(ctx, testUser, models.WaitingLessonRequest{Title: "channels", LessonType: models.LessonTypeWord})
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	detail, err := svc.Promote(ctx, testUser, w.ID, PromoteRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if detail.LessonDate.String() != "2024-02-01" || detail.Title != "channels" {
		t.Fatalf("unexpected lesson: %+v", detail.Lesson)
	}
	if len(detail.Reviews) != 4 || detail.Reviews[3].ReviewDate.String() != "2024-02-08" {
		t.Fatalf("expected four reviews ending 2024-02-08, got %d", len(detail.Reviews))
	}
	if _, ok := store.waiting[w.ID]; ok {
		t.Fatalf("expected waiting lesson to be removed")
	}

	_, err = svc.Promote(ctx, testUser, w.ID, PromoteRequest{})
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError on second promote, got %v", err)
	}
}

func TestWaitingPromote_ExplicitDateAndFailures(t *testing.T) {
	store := newMemStore()
	svc := NewWaitingService(memWaiting{store}, nil, nil, fixedClock())
	ctx := context.Background()

	w, _ := svc.Create(ctx, testUser, models.WaitingLessonRequest{Title: "later", LessonType: models.LessonTypeSentence})

	_, err := svc.Promote(ctx, testUser, w.ID, PromoteRequest{LessonDate: "01-03-2024"})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	store.failNext = errors.New("tx aborted")
	if _, err := svc.Promote(ctx, testUser, w.ID, PromoteRequest{LessonDate: "2024-03-01"}); err == nil {
		t.Fatalf("expected storage error")
	}
	if _, ok := store.waiting[w.ID]; !ok {
		t.Fatalf("expected waiting lesson to survive a failed promotion")
	}

	detail, err := svc.Promote(ctx, testUser, w.ID, PromoteRequest{LessonDate: "2024-03-01"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if detail.Reviews[0].ReviewDate.String() != "2024-03-01" {
		t.Fatalf("expected first review on 2024-03-01, got %s", detail.Reviews[0].ReviewDate)
	}
}

func TestWaitingLinkWithoutURLCannotBePromoted(t *testing.T) {
	store := newMemStore()
	svc := NewWaitingService(memWaiting{store}, nil, nil, fixedClock())

	w, err := svc.Create(context.Background(), testUser, models.WaitingLessonRequest{Title: "some article", LessonType: models.LessonTypeLink})
	if err != nil {
		t.Fatalf("expected link without URL to be allowed in the backlog, got %v", err)
	}

	_, err = svc.Promote(context.Background(), testUser, w.ID, PromoteRequest{})
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Fields["link_url"] == "" {
		t.Fatalf("expected link_url validation error, got %v", err)
	}
}

func TestWaitingUpdateAndDelete(t *testing.T) {
	store := newMemStore()
	svc := NewWaitingService(memWaiting{store}, nil, nil, fixedClock())
	ctx := context.Background()

	w, _ := svc.Create(ctx, testUser, models.WaitingLessonRequest{Title: "draft", LessonType: models.LessonTypeWord})

	updated, err := svc.Update(ctx, testUser, w.ID, models.WaitingLessonRequest{Title: "final", LessonType: models.LessonTypeWord})
	if err != nil || updated.Title != "final" {
		t.Fatalf("expected title update, got %+v (%v)", updated, err)
	}

	var nf *NotFoundError
	if _, err := svc.Update(ctx, otherUser, w.ID, models.WaitingLessonRequest{Title: "x", LessonType: models.LessonTypeWord}); !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError for another user, got %v", err)
	}
	if err := svc.Delete(ctx, testUser, w.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Delete(ctx, testUser, uuid.New()); !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}
