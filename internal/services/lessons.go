package services

import (
	"context"
	"errors"
	"log"
	"net/url"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/blackstuend/Daily-Lesson-Review/internal/events"
	"github.com/blackstuend/Daily-Lesson-Review/internal/importer"
	"github.com/blackstuend/Daily-Lesson-Review/internal/metrics"
	"github.com/blackstuend/Daily-Lesson-Review/internal/models"
	"github.com/blackstuend/Daily-Lesson-Review/internal/schedule"
)

type LessonStore interface {
	CreateWithReviews(ctx context.Context, l *models.Lesson, entries []schedule.Entry) ([]models.Review, error)
	GetByID(ctx context.Context, id, userID uuid.UUID) (*models.Lesson, error)
	ListByUser(ctx context.Context, userID uuid.UUID, f models.LessonListFilter) ([]*models.Lesson, int, error)
	ListLinks(ctx context.Context, userID uuid.UUID) ([]*models.Lesson, error)
	CountByType(ctx context.Context, userID uuid.UUID) (models.LessonTypeCounts, error)
	Update(ctx context.Context, l *models.Lesson) error
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

// Clock supplies "now" and the zone that decides which calendar day it is.
type Clock struct {
	Now      func() time.Time
	Location *time.Location
}

func NewClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return Clock{Now: time.Now, Location: loc}
}

func (c Clock) Today() models.Date {
	return models.DateOf(c.Now().In(c.Location))
}

type LessonService struct {
	lessons   LessonStore
	reviews   ReviewStore
	publisher events.Publisher
	metrics   *metrics.Metrics
	clock     Clock
}

func NewLessonService(lessons LessonStore, reviews ReviewStore, publisher events.Publisher, m *metrics.Metrics, clock Clock) *LessonService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &LessonService{lessons: lessons, reviews: reviews, publisher: publisher, metrics: m, clock: clock}
}

// LessonDetail is a lesson with every review generated for it.
type LessonDetail struct {
	*models.Lesson
	Reviews []models.Review `json:"reviews"`
}

type LessonPage struct {
	Items []*models.Lesson `json:"items"`
	Total int              `json:"total"`
}

// lessonFields is the validated, normalized form of a LessonRequest.
type lessonFields struct {
	title          string
	content        *string
	lessonType     models.LessonType
	linkURL        *string
	linkedLessonID *uuid.UUID
	lessonDate     models.Date
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func validLinkURL(raw string) bool {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// validateLessonFields checks the request shape. Link lessons keep their URL
// and never point at another lesson; word and sentence lessons drop the URL.
func (s *LessonService) validateLessonFields(req models.LessonRequest) (lessonFields, map[string]string) {
	fieldErrors := make(map[string]string)
	f := lessonFields{
		title:          strings.TrimSpace(req.Title),
		content:        trimmedOrNil(req.Content),
		lessonType:     req.LessonType,
		linkURL:        trimmedOrNil(req.LinkURL),
		linkedLessonID: req.LinkedLessonID,
	}

	if f.title == "" {
		fieldErrors["title"] = "Title is required"
	} else if utf8.RuneCountInString(f.title) > 500 {
		fieldErrors["title"] = "Title must be at most 500 characters"
	}

	if !f.lessonType.Valid() {
		fieldErrors["lesson_type"] = "Lesson type must be one of link, word, sentence"
	}

	if f.lessonType == models.LessonTypeLink {
		f.linkedLessonID = nil
		if f.linkURL == nil {
			fieldErrors["link_url"] = "Link URL is required for link lessons"
		} else if !validLinkURL(*f.linkURL) {
			fieldErrors["link_url"] = "Link URL must be an http or https URL"
		}
	} else {
		f.linkURL = nil
	}

	if strings.TrimSpace(req.LessonDate) == "" {
		f.lessonDate = s.clock.Today()
	} else if d, err := models.ParseDate(strings.TrimSpace(req.LessonDate)); err != nil {
		fieldErrors["lesson_date"] = "Lesson date must be YYYY-MM-DD"
	} else {
		f.lessonDate = d
	}

	return f, fieldErrors
}

// checkLinkedLesson makes sure the referenced lesson exists, belongs to the
// user and is a link lesson.
func (s *LessonService) checkLinkedLesson(ctx context.Context, userID uuid.UUID, selfID uuid.UUID, f lessonFields, fieldErrors map[string]string) error {
	if f.linkedLessonID == nil {
		return nil
	}
	if *f.linkedLessonID == selfID {
		fieldErrors["linked_lesson_id"] = "A lesson cannot link to itself"
		return nil
	}
	parent, err := s.lessons.GetByID(ctx, *f.linkedLessonID, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		fieldErrors["linked_lesson_id"] = "Linked lesson not found"
		return nil
	}
	if err != nil {
		return err
	}
	if parent.LessonType != models.LessonTypeLink {
		fieldErrors["linked_lesson_id"] = "Linked lesson must be a link lesson"
	}
	return nil
}

// Create validates the request, generates the four reviews and stores the
// lesson together with them.
func (s *LessonService) Create(ctx context.Context, userID uuid.UUID, req models.LessonRequest) (*LessonDetail, error) {
	f, fieldErrors := s.validateLessonFields(req)
	if err := s.checkLinkedLesson(ctx, userID, uuid.Nil, f, fieldErrors); err != nil {
		return nil, err
	}
	if len(fieldErrors) > 0 {
		return nil, &ValidationError{Fields: fieldErrors}
	}

	lesson := &models.Lesson{
		ID:             uuid.New(),
		UserID:         userID,
		Title:          f.title,
		Content:        f.content,
		LessonType:     f.lessonType,
		LinkURL:        f.linkURL,
		LinkedLessonID: f.linkedLessonID,
		LessonDate:     f.lessonDate,
	}
	entries := schedule.Generate(f.lessonDate)

	reviews, err := s.lessons.CreateWithReviews(ctx, lesson, entries)
	if err != nil {
		return nil, err
	}
	for i := range reviews {
		reviews[i].Lesson = lesson.Ref()
	}

	if s.metrics != nil {
		s.metrics.LessonsCreated.WithLabelValues(string(lesson.LessonType)).Inc()
		s.metrics.ReviewsGenerated.Add(float64(len(reviews)))
	}
	s.publish(ctx, events.LessonCreated, "lessons", lesson.ID, userID)

	return &LessonDetail{Lesson: lesson, Reviews: reviews}, nil
}

func (s *LessonService) Get(ctx context.Context, userID, id uuid.UUID) (*LessonDetail, error) {
	lesson, err := s.lessons.GetByID(ctx, id, userID)
	if err != nil {
		return nil, notFoundOr(err, "Lesson not found")
	}
	reviews, err := s.reviews.Query(ctx, userID, models.ReviewFilter{LessonID: &id, OrderBy: models.OrderReviewDate})
	if err != nil {
		return nil, err
	}
	return &LessonDetail{Lesson: lesson, Reviews: normalizeAll(reviews)}, nil
}

func (s *LessonService) List(ctx context.Context, userID uuid.UUID, f models.LessonListFilter) (*LessonPage, error) {
	if f.LessonType != "" && !f.LessonType.Valid() {
		return nil, &ValidationError{Fields: map[string]string{"type": "Lesson type must be one of link, word, sentence"}}
	}
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 20
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	items, total, err := s.lessons.ListByUser(ctx, userID, f)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*models.Lesson{}
	}
	return &LessonPage{Items: items, Total: total}, nil
}

func (s *LessonService) ListLinks(ctx context.Context, userID uuid.UUID) ([]*models.Lesson, error) {
	links, err := s.lessons.ListLinks(ctx, userID)
	if err != nil {
		return nil, err
	}
	if links == nil {
		links = []*models.Lesson{}
	}
	return links, nil
}

// Update edits the lesson itself. Its reviews keep their dates: they were
// fixed when the lesson was created.
func (s *LessonService) Update(ctx context.Context, userID, id uuid.UUID, req models.LessonRequest) (*models.Lesson, error) {
	lesson, err := s.lessons.GetByID(ctx, id, userID)
	if err != nil {
		return nil, notFoundOr(err, "Lesson not found")
	}

	if strings.TrimSpace(req.LessonDate) == "" {
		req.LessonDate = lesson.LessonDate.String()
	}
	f, fieldErrors := s.validateLessonFields(req)
	if err := s.checkLinkedLesson(ctx, userID, id, f, fieldErrors); err != nil {
		return nil, err
	}
	if len(fieldErrors) > 0 {
		return nil, &ValidationError{Fields: fieldErrors}
	}

	lesson.Title = f.title
	lesson.Content = f.content
	lesson.LessonType = f.lessonType
	lesson.LinkURL = f.linkURL
	lesson.LinkedLessonID = f.linkedLessonID
	lesson.LessonDate = f.lessonDate

	if err := s.lessons.Update(ctx, lesson); err != nil {
		return nil, notFoundOr(err, "Lesson not found")
	}

	s.publish(ctx, events.LessonUpdated, "lessons", lesson.ID, userID)
	return lesson, nil
}

// Delete removes the lesson and, through the store, every review it owns.
func (s *LessonService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.lessons.Delete(ctx, id, userID); err != nil {
		return notFoundOr(err, "Lesson not found")
	}
	s.publish(ctx, events.LessonDeleted, "lessons", id, userID)
	return nil
}

// Import creates one lesson per parsed row. Rows that fail validation are
// reported back; a storage failure stops the import.
func (s *LessonService) Import(ctx context.Context, userID uuid.UUID, rows []importer.Row) (*importer.Result, error) {
	result := &importer.Result{Errors: []importer.RowError{}}

	for _, row := range rows {
		_, err := s.Create(ctx, userID, row.Lesson)
		var ve *ValidationError
		switch {
		case err == nil:
			result.Created++
		case errors.As(err, &ve):
			result.Failed++
			result.Errors = append(result.Errors, importer.RowError{Line: row.Line, Message: joinFieldErrors(ve.Fields)})
		default:
			log.Printf("import: user %s stopped at line %d: %v", userID, row.Line, err)
			return result, err
		}
	}

	if s.metrics != nil {
		s.metrics.LessonsImported.WithLabelValues("created").Add(float64(result.Created))
		s.metrics.LessonsImported.WithLabelValues("failed").Add(float64(result.Failed))
	}
	return result, nil
}

func joinFieldErrors(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fields[k])
	}
	return strings.Join(parts, "; ")
}

func (s *LessonService) publish(ctx context.Context, eventType, table string, recordID, userID uuid.UUID) {
	s.publisher.Publish(context.WithoutCancel(ctx), models.ChangeEvent{
		Type:     eventType,
		Table:    table,
		RecordID: recordID,
		UserID:   userID,
		At:       s.clock.Now().UTC(),
	})
}
