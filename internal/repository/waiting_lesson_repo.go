package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/blackstuend/Daily-Lesson-Review/internal/models"
	"github.com/blackstuend/Daily-Lesson-Review/internal/schedule"
)

type WaitingLessonRepo struct {
	pool *pgxpool.Pool
}

func NewWaitingLessonRepo(pool *pgxpool.Pool) *WaitingLessonRepo {
	return &WaitingLessonRepo{pool: pool}
}

const waitingColumns = `id, user_id, title, content, lesson_type, link_url, planned_start_date, created_at, updated_at`

func scanWaiting(row rowScanner) (*models.WaitingLesson, error) {
	w := &models.WaitingLesson{}
	var planned models.Date
	err := row.Scan(
		&w.ID, &w.UserID, &w.Title, &w.Content, &w.LessonType, &w.LinkURL,
		&planned, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if !planned.IsZero() {
		w.PlannedStartDate = &planned
	}
	return w, nil
}

func (r *WaitingLessonRepo) Create(ctx context.Context, w *models.WaitingLesson) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return r.pool.QueryRow(ctx,
		`INSERT INTO waiting_lessons (id, user_id, title, content, lesson_type, link_url, planned_start_date)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at, updated_at`,
		w.ID, w.UserID, w.Title, w.Content, w.LessonType, w.LinkURL, w.PlannedStartDate,
	).Scan(&w.CreatedAt, &w.UpdatedAt)
}

func (r *WaitingLessonRepo) GetByID(ctx context.Context, id, userID uuid.UUID) (*models.WaitingLesson, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+waitingColumns+` FROM waiting_lessons WHERE id = $1 AND user_id = $2`, id, userID)
	return scanWaiting(row)
}

func (r *WaitingLessonRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.WaitingLesson, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+waitingColumns+` FROM waiting_lessons
		 WHERE user_id = $1
		 ORDER BY planned_start_date ASC NULLS LAST, created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*models.WaitingLesson
	for rows.Next() {
		w, err := scanWaiting(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, w)
	}
	return items, rows.Err()
}

func (r *WaitingLessonRepo) Update(ctx context.Context, w *models.WaitingLesson) error {
	return r.pool.QueryRow(ctx,
		`UPDATE waiting_lessons SET title = $1, content = $2, lesson_type = $3, link_url = $4,
		 planned_start_date = $5, updated_at = NOW()
		 WHERE id = $6 AND user_id = $7
		 RETURNING created_at, updated_at`,
		w.Title, w.Content, w.LessonType, w.LinkURL, w.PlannedStartDate, w.ID, w.UserID,
	).Scan(&w.CreatedAt, &w.UpdatedAt)
}

func (r *WaitingLessonRepo) Delete(ctx context.Context, id, userID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM waiting_lessons WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Promote turns the waiting lesson into a scheduled lesson dated lessonDate.
// The new lesson, its reviews and the removal of the waiting row commit together.
func (r *WaitingLessonRepo) Promote(ctx context.Context, id, userID uuid.UUID, lessonDate models.Date, entries []schedule.Entry) (*models.Lesson, []models.Review, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	w, err := scanWaiting(tx.QueryRow(ctx,
		`SELECT `+waitingColumns+` FROM waiting_lessons WHERE id = $1 AND user_id = $2 FOR UPDATE`, id, userID))
	if err != nil {
		return nil, nil, err
	}

	lesson := &models.Lesson{
		UserID:     userID,
		Title:      w.Title,
		Content:    w.Content,
		LessonType: w.LessonType,
		LinkURL:    w.LinkURL,
		LessonDate: lessonDate,
	}
	reviews, err := insertLessonWithReviews(ctx, tx, lesson, entries)
	if err != nil {
		return nil, nil, err
	}

	if _, err := tx.Exec(ctx, "DELETE FROM waiting_lessons WHERE id = $1", id); err != nil {
		return nil, nil, fmt.Errorf("failed to remove waiting lesson: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to commit promotion of %s: %w", id, err)
	}
	return lesson, reviews, nil
}
