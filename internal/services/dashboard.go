package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/blackstuend/Daily-Lesson-Review/internal/contributions"
	"github.com/blackstuend/Daily-Lesson-Review/internal/models"
)

type DashboardService struct {
	lessons LessonStore
	reviews *ReviewService
	store   ReviewStore
	clock   Clock
}

func NewDashboardService(lessons LessonStore, reviews *ReviewService, store ReviewStore, clock Clock) *DashboardService {
	return &DashboardService{lessons: lessons, reviews: reviews, store: store, clock: clock}
}

type DashboardSummary struct {
	Today         *TodayView              `json:"today"`
	PendingCount  int                     `json:"pending_count"`
	TotalLessons  int                     `json:"total_lessons"`
	LessonsByType models.LessonTypeCounts `json:"lessons_by_type"`
}

func (s *DashboardService) Summary(ctx context.Context, userID uuid.UUID) (*DashboardSummary, error) {
	today, err := s.reviews.Today(ctx, userID)
	if err != nil {
		return nil, err
	}
	byType, err := s.lessons.CountByType(ctx, userID)
	if err != nil {
		return nil, err
	}
	total := 0
	for _, n := range byType {
		total += n
	}
	return &DashboardSummary{
		Today:         today,
		PendingCount:  today.PendingCount,
		TotalLessons:  total,
		LessonsByType: byType,
	}, nil
}

// Contributions builds the yearly activity grid from completion timestamps,
// bucketed by calendar day in the service's zone.
func (s *DashboardService) Contributions(ctx context.Context, userID uuid.UUID) (*contributions.Data, error) {
	today := s.clock.Today()
	counts, err := s.store.DailyCompletionCounts(ctx, userID, contributions.WindowStart(today), today, s.clock.Location)
	if err != nil {
		return nil, err
	}
	data := contributions.Build(counts, today)
	return &data, nil
}
