package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/blackstuend/Daily-Lesson-Review/internal/events"
	"github.com/blackstuend/Daily-Lesson-Review/internal/metrics"
	"github.com/blackstuend/Daily-Lesson-Review/internal/models"
	"github.com/blackstuend/Daily-Lesson-Review/internal/schedule"
)

type WaitingStore interface {
	Create(ctx context.Context, w *models.WaitingLesson) error
	GetByID(ctx context.Context, id, userID uuid.UUID) (*models.WaitingLesson, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.WaitingLesson, error)
	Update(ctx context.Context, w *models.WaitingLesson) error
	Delete(ctx context.Context, id, userID uuid.UUID) error
	Promote(ctx context.Context, id, userID uuid.UUID, lessonDate models.Date, entries []schedule.Entry) (*models.Lesson, []models.Review, error)
}

// WaitingService manages the backlog of lessons the user has not started yet.
type WaitingService struct {
	waiting   WaitingStore
	publisher events.Publisher
	metrics   *metrics.Metrics
	clock     Clock
}

func NewWaitingService(waiting WaitingStore, publisher events.Publisher, m *metrics.Metrics, clock Clock) *WaitingService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &WaitingService{waiting: waiting, publisher: publisher, metrics: m, clock: clock}
}

type PromoteRequest struct {
	LessonDate string `json:"lesson_date"`
}

func validateWaiting(req models.WaitingLessonRequest) (*models.WaitingLesson, error) {
	fieldErrors := make(map[string]string)
	w := &models.WaitingLesson{
		Title:      strings.TrimSpace(req.Title),
		Content:    trimmedOrNil(req.Content),
		LessonType: req.LessonType,
		LinkURL:    trimmedOrNil(req.LinkURL),
	}

	if w.Title == "" {
		fieldErrors["title"] = "Title is required"
	}
	if !w.LessonType.Valid() {
		fieldErrors["lesson_type"] = "Lesson type must be one of link, word, sentence"
	}
	if w.LessonType == models.LessonTypeLink {
		if w.LinkURL != nil && !validLinkURL(*w.LinkURL) {
			fieldErrors["link_url"] = "Link URL must be an http or https URL"
		}
	} else {
		w.LinkURL = nil
	}

	if p := trimmedOrNil(req.PlannedStartDate); p != nil {
		d, err := models.ParseDate(*p)
		if err != nil {
			fieldErrors["planned_start_date"] = "Planned start date must be YYYY-MM-DD"
		} else {
			w.PlannedStartDate = &d
		}
	}

	if len(fieldErrors) > 0 {
		return nil, &ValidationError{Fields: fieldErrors}
	}
	return w, nil
}

func (s *WaitingService) Create(ctx context.Context, userID uuid.UUID, req models.WaitingLessonRequest) (*models.WaitingLesson, error) {
	w, err := validateWaiting(req)
	if err != nil {
		return nil, err
	}
	w.UserID = userID

	if err := s.waiting.Create(ctx, w); err != nil {
		return nil, err
	}
	s.publish(ctx, events.WaitingCreated, w.ID, userID)
	return w, nil
}

// List returns the backlog, optionally narrowed by type and a case-insensitive
// search over title and content.
func (s *WaitingService) List(ctx context.Context, userID uuid.UUID, lessonType models.LessonType, search string) ([]*models.WaitingLesson, error) {
	if lessonType != "" && !lessonType.Valid() {
		return nil, &ValidationError{Fields: map[string]string{"type": "Lesson type must be one of link, word, sentence"}}
	}

	all, err := s.waiting.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(search))
	items := make([]*models.WaitingLesson, 0, len(all))
	for _, w := range all {
		if lessonType != "" && w.LessonType != lessonType {
			continue
		}
		if needle != "" && !matchesSearch(w, needle) {
			continue
		}
		items = append(items, w)
	}
	return items, nil
}

func matchesSearch(w *models.WaitingLesson, needle string) bool {
	if strings.Contains(strings.ToLower(w.Title), needle) {
		return true
	}
	return w.Content != nil && strings.Contains(strings.ToLower(*w.Content), needle)
}

func (s *WaitingService) Update(ctx context.Context, userID, id uuid.UUID, req models.WaitingLessonRequest) (*models.WaitingLesson, error) {
	existing, err := s.waiting.GetByID(ctx, id, userID)
	if err != nil {
		return nil, notFoundOr(err, "Waiting lesson not found")
	}

	w, err := validateWaiting(req)
	if err != nil {
		return nil, err
	}
	w.ID = existing.ID
	w.UserID = userID

	if err := s.waiting.Update(ctx, w); err != nil {
		return nil, notFoundOr(err, "Waiting lesson not found")
	}
	s.publish(ctx, events.WaitingUpdated, w.ID, userID)
	return w, nil
}

func (s *WaitingService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.waiting.Delete(ctx, id, userID); err != nil {
		return notFoundOr(err, "Waiting lesson not found")
	}
	s.publish(ctx, events.WaitingDeleted, id, userID)
	return nil
}

// Promote schedules the waiting lesson as a real lesson starting on the
// requested date (today when empty) and removes it from the backlog.
func (s *WaitingService) Promote(ctx context.Context, userID, id uuid.UUID, req PromoteRequest) (*LessonDetail, error) {
	date := s.clock.Today()
	if v := strings.TrimSpace(req.LessonDate); v != "" {
		d, err := models.ParseDate(v)
		if err != nil {
			return nil, &ValidationError{Fields: map[string]string{"lesson_date": "Lesson date must be YYYY-MM-DD"}}
		}
		date = d
	}

	existing, err := s.waiting.GetByID(ctx, id, userID)
	if err != nil {
		return nil, notFoundOr(err, "Waiting lesson not found")
	}
	if existing.LessonType == models.LessonTypeLink && existing.LinkURL == nil {
		return nil, &ValidationError{Fields: map[string]string{"link_url": "Add a link URL before scheduling this lesson"}}
	}

	lesson, reviews, err := s.waiting.Promote(ctx, id, userID, date, schedule.Generate(date))
	if err != nil {
		return nil, notFoundOr(err, "Waiting lesson not found")
	}
	for i := range reviews {
		reviews[i].Lesson = lesson.Ref()
	}

	if s.metrics != nil {
		s.metrics.WaitingPromoted.Inc()
		s.metrics.LessonsCreated.WithLabelValues(string(lesson.LessonType)).Inc()
		s.metrics.ReviewsGenerated.Add(float64(len(reviews)))
	}
	s.publish(ctx, events.WaitingDeleted, id, userID)
	s.publisher.Publish(context.WithoutCancel(ctx), models.ChangeEvent{
		Type:     events.LessonCreated,
		Table:    "lessons",
		RecordID: lesson.ID,
		UserID:   userID,
		At:       s.clock.Now().UTC(),
	})

	return &LessonDetail{Lesson: lesson, Reviews: reviews}, nil
}

func (s *WaitingService) publish(ctx context.Context, eventType string, recordID, userID uuid.UUID) {
	s.publisher.Publish(context.WithoutCancel(ctx), models.ChangeEvent{
		Type:     eventType,
		Table:    "waiting_lessons",
		RecordID: recordID,
		UserID:   userID,
		At:       s.clock.Now().UTC(),
	})
}
