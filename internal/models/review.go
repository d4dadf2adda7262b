package models

import (
	"time"

	"github.com/google/uuid"
)

type Review struct {
	ID             uuid.UUID  `json:"id"`
	UserID         uuid.UUID  `json:"user_id"`
	LessonID       uuid.UUID  `json:"lesson_id"`
	ReviewDate     Date       `json:"review_date"`
	ReviewInterval int        `json:"review_interval"`
	Completed      bool       `json:"completed"`
	CompletedAt    *time.Time `json:"completed_at"`
	CreatedAt      time.Time  `json:"created_at"`
	Lesson         *LessonRef `json:"lessons,omitempty"`
}

// LessonRef is the owning lesson as joined onto a review row.
type LessonRef struct {
	ID             uuid.UUID  `json:"id"`
	Title          string     `json:"title"`
	Content        *string    `json:"content"`
	LessonType     LessonType `json:"lesson_type"`
	LinkURL        *string    `json:"link_url"`
	LinkedLessonID *uuid.UUID `json:"linked_lesson_id"`
	LessonDate     Date       `json:"lesson_date"`
}

type ReviewOrder string

const (
	OrderTodayList      ReviewOrder = "today"
	OrderReviewDate     ReviewOrder = "review_date"
	OrderCompletedAtDsc ReviewOrder = "completed_at_desc"
)

// ReviewFilter is the predicate set for listing reviews. Nil fields are ignored.
type ReviewFilter struct {
	LessonID   *uuid.UUID
	Date       *Date
	DateFrom   *Date // inclusive
	DateTo     *Date // inclusive
	DateAfter  *Date // exclusive
	DateBefore *Date // exclusive
	Completed  *bool
	OrderBy    ReviewOrder
	Limit      int
}

type ReviewUpdateRequest struct {
	ReviewDate *string `json:"review_date"`
	Completed  *bool   `json:"completed"`
}

type DailyCount struct {
	Date  Date `json:"date"`
	Count int  `json:"count"`
}

type DueReviewCount struct {
	UserID uuid.UUID
	Count  int
}
