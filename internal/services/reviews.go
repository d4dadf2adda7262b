package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/blackstuend/Daily-Lesson-Review/internal/events"
	"github.com/blackstuend/Daily-Lesson-Review/internal/grouping"
	"github.com/blackstuend/Daily-Lesson-Review/internal/metrics"
	"github.com/blackstuend/Daily-Lesson-Review/internal/models"
	"github.com/blackstuend/Daily-Lesson-Review/internal/schedule"
)

const (
	upcomingDays = 7
	pastLimit    = 20
)

type ReviewStore interface {
	Query(ctx context.Context, userID uuid.UUID, f models.ReviewFilter) ([]models.Review, error)
	GetByID(ctx context.Context, id, userID uuid.UUID) (*models.Review, error)
	SetCompleted(ctx context.Context, id, userID uuid.UUID, at time.Time) (*models.Review, error)
	SetIncomplete(ctx context.Context, id, userID uuid.UUID) (*models.Review, error)
	UpdateDate(ctx context.Context, id, userID uuid.UUID, date models.Date) (*models.Review, error)
	Apply(ctx context.Context, id, userID uuid.UUID, date *models.Date, completed *bool, at time.Time) (*models.Review, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
	DailyCompletionCounts(ctx context.Context, userID uuid.UUID, from, to models.Date, loc *time.Location) ([]models.DailyCount, error)
}

type ReviewService struct {
	reviews   ReviewStore
	publisher events.Publisher
	metrics   *metrics.Metrics
	clock     Clock
}

func NewReviewService(reviews ReviewStore, publisher events.Publisher, m *metrics.Metrics, clock Clock) *ReviewService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &ReviewService{reviews: reviews, publisher: publisher, metrics: m, clock: clock}
}

// TodayView is the grouped list of reviews due on one day.
type TodayView struct {
	Date           models.Date                `json:"date"`
	Reviews        []models.Review            `json:"reviews"`
	Children       map[string][]models.Review `json:"children"`
	PendingCount   int                        `json:"pending_count"`
	CompletedCount int                        `json:"completed_count"`
}

type Overview struct {
	Today    *TodayView      `json:"today"`
	Upcoming []DayView       `json:"upcoming"`
	Past     []models.Review `json:"past"`
}

// DayView is one calendar cell: the day's grouped reviews plus its counts.
type DayView struct {
	Date           models.Date                `json:"date"`
	Reviews        []models.Review            `json:"reviews"`
	Children       map[string][]models.Review `json:"children"`
	CompletedCount int                        `json:"completed_count"`
	PendingCount   int                        `json:"pending_count"`
}

func normalizeAll(reviews []models.Review) []models.Review {
	out := make([]models.Review, len(reviews))
	for i, r := range reviews {
		out[i] = schedule.Normalize(r)
	}
	return out
}

func childrenJSON(res grouping.Result) map[string][]models.Review {
	out := make(map[string][]models.Review, len(res.ChildrenByParentID))
	for id, children := range res.ChildrenByParentID {
		out[id.String()] = children
	}
	return out
}

func dayView(d grouping.Day) DayView {
	return DayView{
		Date:           d.Date,
		Reviews:        d.Grouped.DisplayReviews,
		Children:       childrenJSON(d.Grouped),
		CompletedCount: d.Completed,
		PendingCount:   d.Pending,
	}
}

func dayViews(days []grouping.Day) []DayView {
	out := make([]DayView, 0, len(days))
	for _, d := range days {
		out = append(out, dayView(d))
	}
	return out
}

// Today returns the reviews due today, pending first and then by interval,
// with same-day children nested under their link review.
func (s *ReviewService) Today(ctx context.Context, userID uuid.UUID) (*TodayView, error) {
	return s.dueOn(ctx, userID, s.clock.Today())
}

func (s *ReviewService) dueOn(ctx context.Context, userID uuid.UUID, date models.Date) (*TodayView, error) {
	reviews, err := s.reviews.Query(ctx, userID, models.ReviewFilter{Date: &date, OrderBy: models.OrderTodayList})
	if err != nil {
		return nil, err
	}
	reviews = normalizeAll(reviews)

	view := &TodayView{Date: date}
	for _, r := range reviews {
		if schedule.StatusOf(r) == schedule.StatusCompleted {
			view.CompletedCount++
		} else {
			view.PendingCount++
		}
	}

	res := grouping.Group(reviews)
	view.Reviews = res.DisplayReviews
	view.Children = childrenJSON(res)
	return view, nil
}

// Overview returns today's list, the next week grouped by day, and the most
// recently completed past reviews.
func (s *ReviewService) Overview(ctx context.Context, userID uuid.UUID) (*Overview, error) {
	today := s.clock.Today()

	todayView, err := s.dueOn(ctx, userID, today)
	if err != nil {
		return nil, err
	}

	horizon := today.AddDays(upcomingDays)
	upcoming, err := s.reviews.Query(ctx, userID, models.ReviewFilter{
		DateAfter: &today,
		DateTo:    &horizon,
		OrderBy:   models.OrderReviewDate,
	})
	if err != nil {
		return nil, err
	}

	completed := true
	past, err := s.reviews.Query(ctx, userID, models.ReviewFilter{
		DateBefore: &today,
		Completed:  &completed,
		OrderBy:    models.OrderCompletedAtDsc,
		Limit:      pastLimit,
	})
	if err != nil {
		return nil, err
	}

	return &Overview{
		Today:    todayView,
		Upcoming: dayViews(grouping.ByDate(normalizeAll(upcoming))),
		Past:     normalizeAll(past),
	}, nil
}

// Calendar groups every review of the month day by day.
func (s *ReviewService) Calendar(ctx context.Context, userID uuid.UUID, year, month int) ([]DayView, error) {
	fieldErrors := make(map[string]string)
	if year < 1970 || year > 9999 {
		fieldErrors["year"] = "Year is out of range"
	}
	if month < 1 || month > 12 {
		fieldErrors["month"] = "Month must be between 1 and 12"
	}
	if len(fieldErrors) > 0 {
		return nil, &ValidationError{Fields: fieldErrors}
	}

	first := models.NewDate(year, time.Month(month), 1)
	last := models.NewDate(year, time.Month(month)+1, 1).AddDays(-1)

	reviews, err := s.reviews.Query(ctx, userID, models.ReviewFilter{
		DateFrom: &first,
		DateTo:   &last,
		OrderBy:  models.OrderReviewDate,
	})
	if err != nil {
		return nil, err
	}
	return dayViews(grouping.ByDate(normalizeAll(reviews))), nil
}

// Day returns the grouped reviews of a single date, as opened from the calendar.
func (s *ReviewService) Day(ctx context.Context, userID uuid.UUID, date string) (*TodayView, error) {
	d, err := models.ParseDate(date)
	if err != nil {
		return nil, &ValidationError{Fields: map[string]string{"date": "Date must be YYYY-MM-DD"}}
	}
	return s.dueOn(ctx, userID, d)
}

func (s *ReviewService) ByLesson(ctx context.Context, userID, lessonID uuid.UUID) ([]models.Review, error) {
	reviews, err := s.reviews.Query(ctx, userID, models.ReviewFilter{LessonID: &lessonID, OrderBy: models.OrderReviewDate})
	if err != nil {
		return nil, err
	}
	return normalizeAll(reviews), nil
}

// MarkComplete completes the review. Completing an already completed review
// keeps its original completion time.
func (s *ReviewService) MarkComplete(ctx context.Context, userID, id uuid.UUID) (*models.Review, error) {
	r, err := s.reviews.SetCompleted(ctx, id, userID, s.clock.Now().UTC())
	if err != nil {
		return nil, notFoundOr(err, "Review not found")
	}
	return s.changed(ctx, userID, r, schedule.StatusCompleted), nil
}

func (s *ReviewService) MarkIncomplete(ctx context.Context, userID, id uuid.UUID) (*models.Review, error) {
	r, err := s.reviews.SetIncomplete(ctx, id, userID)
	if err != nil {
		return nil, notFoundOr(err, "Review not found")
	}
	return s.changed(ctx, userID, r, schedule.StatusPending), nil
}

// Toggle flips the stored state. A row flagged completed without a timestamp
// counts as pending and is completed.
func (s *ReviewService) Toggle(ctx context.Context, userID, id uuid.UUID) (*models.Review, error) {
	current, err := s.reviews.GetByID(ctx, id, userID)
	if err != nil {
		return nil, notFoundOr(err, "Review not found")
	}
	next := schedule.Toggle(*current, s.clock.Now().UTC())
	if next.Completed {
		return s.MarkComplete(ctx, userID, id)
	}
	return s.MarkIncomplete(ctx, userID, id)
}

// Reschedule moves a pending review to date. Completed reviews stay where they are.
func (s *ReviewService) Reschedule(ctx context.Context, userID, id uuid.UUID, date models.Date) (*models.Review, error) {
	current, err := s.reviews.GetByID(ctx, id, userID)
	if err != nil {
		return nil, notFoundOr(err, "Review not found")
	}
	if _, err := schedule.Reschedule(*current, date); err != nil {
		return nil, &ConflictError{Message: "Completed reviews cannot be rescheduled"}
	}

	r, err := s.reviews.UpdateDate(ctx, id, userID, date)
	if errors.Is(err, pgx.ErrNoRows) {
		// Completed or deleted between the read and the write.
		return nil, &ConflictError{Message: "Review changed while rescheduling, refresh and try again"}
	}
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ReviewsRescheduled.Inc()
	}
	s.publish(ctx, events.ReviewUpdated, r.ID, userID)
	return r, nil
}

// MoveToTomorrow reschedules the review to the day after today.
func (s *ReviewService) MoveToTomorrow(ctx context.Context, userID, id uuid.UUID) (*models.Review, error) {
	return s.Reschedule(ctx, userID, id, s.clock.Today().AddDays(1))
}

// Update applies a partial change: completion state, date, or both, in a
// single write. Reopening in the same call lets a completed review be moved.
func (s *ReviewService) Update(ctx context.Context, userID, id uuid.UUID, req models.ReviewUpdateRequest) (*models.Review, error) {
	if req.ReviewDate == nil && req.Completed == nil {
		return nil, &ValidationError{Fields: map[string]string{"body": "Provide review_date and/or completed"}}
	}

	var date *models.Date
	if req.ReviewDate != nil {
		d, err := models.ParseDate(*req.ReviewDate)
		if err != nil {
			return nil, &ValidationError{Fields: map[string]string{"review_date": "Review date must be YYYY-MM-DD"}}
		}
		date = &d
	}

	current, err := s.reviews.GetByID(ctx, id, userID)
	if err != nil {
		return nil, notFoundOr(err, "Review not found")
	}
	reopening := req.Completed != nil && !*req.Completed
	if date != nil && !reopening {
		if _, err := schedule.Reschedule(*current, *date); err != nil {
			return nil, &ConflictError{Message: "Completed reviews cannot be rescheduled"}
		}
	}

	r, err := s.reviews.Apply(ctx, id, userID, date, req.Completed, s.clock.Now().UTC())
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &ConflictError{Message: "Review changed while updating, refresh and try again"}
	}
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		if date != nil {
			s.metrics.ReviewsRescheduled.Inc()
		}
		if req.Completed != nil {
			to := schedule.StatusPending
			if *req.Completed {
				to = schedule.StatusCompleted
			}
			s.metrics.RecordTransition(string(to))
		}
	}
	s.publish(ctx, events.ReviewUpdated, r.ID, userID)
	normalized := schedule.Normalize(*r)
	return &normalized, nil
}

func (s *ReviewService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.reviews.Delete(ctx, id, userID); err != nil {
		return notFoundOr(err, "Review not found")
	}
	s.publish(ctx, events.ReviewDeleted, id, userID)
	return nil
}

func (s *ReviewService) changed(ctx context.Context, userID uuid.UUID, r *models.Review, to schedule.Status) *models.Review {
	normalized := schedule.Normalize(*r)
	if s.metrics != nil {
		s.metrics.RecordTransition(string(to))
	}
	s.publish(ctx, events.ReviewUpdated, r.ID, userID)
	return &normalized
}

// publish outlives the request: the write is already committed, so a client
// hanging up must not drop the event.
func (s *ReviewService) publish(ctx context.Context, eventType string, recordID, userID uuid.UUID) {
	s.publisher.Publish(context.WithoutCancel(ctx), models.ChangeEvent{
		Type:     eventType,
		Table:    "review_schedule",
		RecordID: recordID,
		UserID:   userID,
		At:       s.clock.Now().UTC(),
	})
}
