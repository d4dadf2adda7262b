package models

import (
	"time"

	"github.com/google/uuid"
)

type LessonType string

const (
	LessonTypeLink     LessonType = "link"
	LessonTypeWord     LessonType = "word"
	LessonTypeSentence LessonType = "sentence"
)

func (t LessonType) Valid() bool {
	switch t {
	case LessonTypeLink, LessonTypeWord, LessonTypeSentence:
		return true
	}
	return false
}

type Lesson struct {
	ID             uuid.UUID  `json:"id"`
	UserID         uuid.UUID  `json:"user_id"`
	Title          string     `json:"title"`
	Content        *string    `json:"content"`
	LessonType     LessonType `json:"lesson_type"`
	LinkURL        *string    `json:"link_url"`
	LinkedLessonID *uuid.UUID `json:"linked_lesson_id"`
	LessonDate     Date       `json:"lesson_date"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Ref returns the subset of the lesson that travels with each of its reviews.
func (l *Lesson) Ref() *LessonRef {
	return &LessonRef{
		ID:             l.ID,
		Title:          l.Title,
		Content:        l.Content,
		LessonType:     l.LessonType,
		LinkURL:        l.LinkURL,
		LinkedLessonID: l.LinkedLessonID,
		LessonDate:     l.LessonDate,
	}
}

// WaitingLesson is a backlog entry. It has no reviews until it is promoted.
type WaitingLesson struct {
	ID               uuid.UUID  `json:"id"`
	UserID           uuid.UUID  `json:"user_id"`
	Title            string     `json:"title"`
	Content          *string    `json:"content"`
	LessonType       LessonType `json:"lesson_type"`
	LinkURL          *string    `json:"link_url"`
	PlannedStartDate *Date      `json:"planned_start_date"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

type LessonRequest struct {
	Title          string     `json:"title"`
	Content        *string    `json:"content"`
	LessonType     LessonType `json:"lesson_type"`
	LinkURL        *string    `json:"link_url"`
	LinkedLessonID *uuid.UUID `json:"linked_lesson_id"`
	LessonDate     string     `json:"lesson_date"`
}

type WaitingLessonRequest struct {
	Title            string     `json:"title"`
	Content          *string    `json:"content"`
	LessonType       LessonType `json:"lesson_type"`
	LinkURL          *string    `json:"link_url"`
	PlannedStartDate *string    `json:"planned_start_date"`
}

type LessonListFilter struct {
	LessonType LessonType
	Search     string
	Limit      int
	Offset     int
}

type LessonTypeCounts map[LessonType]int
