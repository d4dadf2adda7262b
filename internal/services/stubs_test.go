package services

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/blackstuend/Daily-Lesson-Review/internal/models"
	"github.com/blackstuend/Daily-Lesson-Review/internal/schedule"
)

// memStore is an in-memory stand-in for the three repositories. It keeps the
// same ownership and cascade rules as the SQL schema.
type memStore struct {
	lessons  map[uuid.UUID]*models.Lesson
	reviews  map[uuid.UUID]*models.Review
	waiting  map[uuid.UUID]*models.WaitingLesson
	order    []uuid.UUID // review insertion order
	failNext error
}

func newMemStore() *memStore {
	return &memStore{
		lessons: map[uuid.UUID]*models.Lesson{},
		reviews: map[uuid.UUID]*models.Review{},
		waiting: map[uuid.UUID]*models.WaitingLesson{},
	}
}

func (m *memStore) takeErr() error {
	err := m.failNext
	m.failNext = nil
	return err
}

// lesson store

func (m *memStore) CreateWithReviews(_ context.Context, l *models.Lesson, entries []schedule.Entry) ([]models.Review, error) {
	if err := m.takeErr(); err != nil {
		return nil, err
	}
	return m.insert(l, entries), nil
}

func (m *memStore) insert(l *models.Lesson, entries []schedule.Entry) []models.Review {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	cp := *l
	m.lessons[l.ID] = &cp

	reviews := schedule.NewReviews(l, entries)
	for i := range reviews {
		r := reviews[i]
		m.reviews[r.ID] = &r
		m.order = append(m.order, r.ID)
	}
	return reviews
}

func (m *memStore) GetByID(_ context.Context, id, userID uuid.UUID) (*models.Lesson, error) {
	l, ok := m.lessons[id]
	if !ok || l.UserID != userID {
		return nil, pgx.ErrNoRows
	}
	cp := *l
	return &cp, nil
}

func (m *memStore) ListByUser(_ context.Context, userID uuid.UUID, f models.LessonListFilter) ([]*models.Lesson, int, error) {
	var out []*models.Lesson
	for _, l := range m.lessons {
		if l.UserID == userID && (f.LessonType == "" || l.LessonType == f.LessonType) {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, len(out), nil
}

func (m *memStore) ListLinks(ctx context.Context, userID uuid.UUID) ([]*models.Lesson, error) {
	links, _, err := m.ListByUser(ctx, userID, models.LessonListFilter{LessonType: models.LessonTypeLink})
	return links, err
}

func (m *memStore) CountByType(_ context.Context, userID uuid.UUID) (models.LessonTypeCounts, error) {
	counts := models.LessonTypeCounts{}
	for _, l := range m.lessons {
		if l.UserID == userID {
			counts[l.LessonType]++
		}
	}
	return counts, nil
}

func (m *memStore) Update(_ context.Context, l *models.Lesson) error {
	existing, ok := m.lessons[l.ID]
	if !ok || existing.UserID != l.UserID {
		return pgx.ErrNoRows
	}
	cp := *l
	m.lessons[l.ID] = &cp
	return nil
}

func (m *memStore) Delete(_ context.Context, id, userID uuid.UUID) error {
	l, ok := m.lessons[id]
	if !ok || l.UserID != userID {
		return pgx.ErrNoRows
	}
	delete(m.lessons, id)
	for rid, r := range m.reviews {
		if r.LessonID == id {
			delete(m.reviews, rid)
		}
	}
	return nil
}

// memReviews exposes the review side of memStore; the method sets overlap
// (GetByID, Delete) so it needs its own type.
type memReviews struct{ *memStore }

func (m memReviews) withLesson(r *models.Review) models.Review {
	cp := *r
	if l, ok := m.lessons[r.LessonID]; ok {
		cp.Lesson = l.Ref()
	}
	return cp
}

func (m memReviews) Query(_ context.Context, userID uuid.UUID, f models.ReviewFilter) ([]models.Review, error) {
	if err := m.takeErr(); err != nil {
		return nil, err
	}
	var out []models.Review
	for _, id := range m.order {
		r, ok := m.reviews[id]
		if !ok || r.UserID != userID {
			continue
		}
		d := r.ReviewDate
		switch {
		case f.LessonID != nil && r.LessonID != *f.LessonID,
			f.Date != nil && !d.Equal(*f.Date),
			f.DateFrom != nil && d.Before(*f.DateFrom),
			f.DateTo != nil && d.After(*f.DateTo),
			f.DateAfter != nil && !d.After(*f.DateAfter),
			f.DateBefore != nil && !d.Before(*f.DateBefore),
			f.Completed != nil && r.Completed != *f.Completed:
			continue
		}
		out = append(out, m.withLesson(r))
	}

	if f.OrderBy == models.OrderTodayList {
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].Completed != out[j].Completed {
				return !out[i].Completed
			}
			return out[i].ReviewInterval < out[j].ReviewInterval
		})
	} else {
		sort.SliceStable(out, func(i, j int) bool { return out[i].ReviewDate.Before(out[j].ReviewDate) })
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m memReviews) GetByID(_ context.Context, id, userID uuid.UUID) (*models.Review, error) {
	r, ok := m.reviews[id]
	if !ok || r.UserID != userID {
		return nil, pgx.ErrNoRows
	}
	cp := m.withLesson(r)
	return &cp, nil
}

func (m memReviews) SetCompleted(_ context.Context, id, userID uuid.UUID, at time.Time) (*models.Review, error) {
	r, ok := m.reviews[id]
	if !ok || r.UserID != userID {
		return nil, pgx.ErrNoRows
	}
	if !(r.Completed && r.CompletedAt != nil) {
		ts := at
		r.CompletedAt = &ts
	}
	r.Completed = true
	cp := m.withLesson(r)
	return &cp, nil
}

func (m memReviews) SetIncomplete(_ context.Context, id, userID uuid.UUID) (*models.Review, error) {
	r, ok := m.reviews[id]
	if !ok || r.UserID != userID {
		return nil, pgx.ErrNoRows
	}
	r.Completed = false
	r.CompletedAt = nil
	cp := m.withLesson(r)
	return &cp, nil
}

func (m memReviews) UpdateDate(_ context.Context, id, userID uuid.UUID, date models.Date) (*models.Review, error) {
	r, ok := m.reviews[id]
	if !ok || r.UserID != userID || (r.Completed && r.CompletedAt != nil) {
		return nil, pgx.ErrNoRows
	}
	r.ReviewDate = date
	cp := m.withLesson(r)
	return &cp, nil
}

func (m memReviews) Apply(_ context.Context, id, userID uuid.UUID, date *models.Date, completed *bool, at time.Time) (*models.Review, error) {
	if err := m.takeErr(); err != nil {
		return nil, err
	}
	r, ok := m.reviews[id]
	if !ok || r.UserID != userID {
		return nil, pgx.ErrNoRows
	}
	done := r.Completed && r.CompletedAt != nil
	if date != nil && done && (completed == nil || *completed) {
		return nil, pgx.ErrNoRows
	}

	if date != nil {
		r.ReviewDate = *date
	}
	if completed != nil {
		switch {
		case !*completed:
			r.CompletedAt = nil
		case !done:
			ts := at
			r.CompletedAt = &ts
		}
		r.Completed = *completed
	}
	cp := m.withLesson(r)
	return &cp, nil
}

func (m memReviews) Delete(_ context.Context, id, userID uuid.UUID) error {
	r, ok := m.reviews[id]
	if !ok || r.UserID != userID {
		return pgx.ErrNoRows
	}
	delete(m.reviews, id)
	return nil
}

func (m memReviews) DailyCompletionCounts(_ context.Context, userID uuid.UUID, from, to models.Date, loc *time.Location) ([]models.DailyCount, error) {
	byDay := map[string]*models.DailyCount{}
	for _, r := range m.reviews {
		if r.UserID != userID || !r.Completed || r.CompletedAt == nil {
			continue
		}
		d := models.DateOf(r.CompletedAt.In(loc))
		if d.Before(from) || d.After(to) {
			continue
		}
		if c, ok := byDay[d.String()]; ok {
			c.Count++
		} else {
			byDay[d.String()] = &models.DailyCount{Date: d, Count: 1}
		}
	}
	var out []models.DailyCount
	for _, c := range byDay {
		out = append(out, *c)
	}
	return out, nil
}

func (m memReviews) ListUsersWithDueReviews(_ context.Context, date models.Date) ([]models.DueReviewCount, error) {
	counts := map[uuid.UUID]int{}
	for _, r := range m.reviews {
		if r.ReviewDate.Equal(date) && !r.Completed {
			counts[r.UserID]++
		}
	}
	var out []models.DueReviewCount
	for id, n := range counts {
		out = append(out, models.DueReviewCount{UserID: id, Count: n})
	}
	return out, nil
}

// memWaiting exposes the waiting-lesson side of memStore.
type memWaiting struct{ *memStore }

func (m memWaiting) Create(_ context.Context, w *models.WaitingLesson) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	cp := *w
	m.waiting[w.ID] = &cp
	return nil
}

func (m memWaiting) GetByID(_ context.Context, id, userID uuid.UUID) (*models.WaitingLesson, error) {
	w, ok := m.waiting[id]
	if !ok || w.UserID != userID {
		return nil, pgx.ErrNoRows
	}
	cp := *w
	return &cp, nil
}

func (m memWaiting) ListByUser(_ context.Context, userID uuid.UUID) ([]*models.WaitingLesson, error) {
	var out []*models.WaitingLesson
	for _, w := range m.waiting {
		if w.UserID == userID {
			cp := *w
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (m memWaiting) Update(_ context.Context, w *models.WaitingLesson) error {
	existing, ok := m.waiting[w.ID]
	if !ok || existing.UserID != w.UserID {
		return pgx.ErrNoRows
	}
	cp := *w
	m.waiting[w.ID] = &cp
	return nil
}

func (m memWaiting) Delete(_ context.Context, id, userID uuid.UUID) error {
	w, ok := m.waiting[id]
	if !ok || w.UserID != userID {
		return pgx.ErrNoRows
	}
	delete(m.waiting, id)
	return nil
}

func (m memWaiting) Promote(_ context.Context, id, userID uuid.UUID, lessonDate models.Date, entries []schedule.Entry) (*models.Lesson, []models.Review, error) {
	if err := m.takeErr(); err != nil {
		return nil, nil, err
	}
	w, ok := m.waiting[id]
	if !ok || w.UserID != userID {
		return nil, nil, pgx.ErrNoRows
	}
	l := &models.Lesson{
		ID:         uuid.New(),
		UserID:     userID,
		Title:      w.Title,
		Content:    w.Content,
		LessonType: w.LessonType,
		LinkURL:    w.LinkURL,
		LessonDate: lessonDate,
	}
	reviews := m.insert(l, entries)
	delete(m.waiting, id)
	return l, reviews, nil
}

var (
	fixedNow  = time.Date(2024, 2, 1, 9, 30, 0, 0, time.UTC)
	testUser  = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	otherUser = uuid.MustParse("22222222-2222-2222-2222-222222222222")
)

func fixedClock() Clock {
	return Clock{Now: func() time.Time { return fixedNow }, Location: time.UTC}
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }
