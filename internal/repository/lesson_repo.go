package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/blackstuend/Daily-Lesson-Review/internal/models"
	"github.com/blackstuend/Daily-Lesson-Review/internal/schedule"
)

type LessonRepo struct {
	pool *pgxpool.Pool
}

func NewLessonRepo(pool *pgxpool.Pool) *LessonRepo {
	return &LessonRepo{pool: pool}
}

type rowScanner interface {
	Scan(dest ...any) error
}

const lessonColumns = `id, user_id, title, content, lesson_type, link_url, linked_lesson_id, lesson_date, created_at, updated_at`

func scanLesson(row rowScanner) (*models.Lesson, error) {
	l := &models.Lesson{}
	err := row.Scan(
		&l.ID, &l.UserID, &l.Title, &l.Content, &l.LessonType, &l.LinkURL,
		&l.LinkedLessonID, &l.LessonDate, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// CreateWithReviews inserts the lesson and one review per entry in a single
// transaction. Either all rows are written or none are.
func (r *LessonRepo) CreateWithReviews(ctx context.Context, l *models.Lesson, entries []schedule.Entry) ([]models.Review, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	reviews, err := insertLessonWithReviews(ctx, tx, l, entries)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit lesson %s: %w", l.ID, err)
	}
	return reviews, nil
}

func insertLessonWithReviews(ctx context.Context, tx pgx.Tx, l *models.Lesson, entries []schedule.Entry) ([]models.Review, error) {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}

	err := tx.QueryRow(ctx,
		`INSERT INTO lessons (id, user_id, title, content, lesson_type, link_url, linked_lesson_id, lesson_date)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING created_at, updated_at`,
		l.ID, l.UserID, l.Title, l.Content, l.LessonType, l.LinkURL, l.LinkedLessonID, l.LessonDate,
	).Scan(&l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert lesson: %w", err)
	}

	reviews := schedule.NewReviews(l, entries)
	for i := range reviews {
		err := tx.QueryRow(ctx,
			`INSERT INTO review_schedule (id, user_id, lesson_id, review_date, review_interval, completed, completed_at)
			 VALUES ($1, $2, $3, $4, $5, FALSE, NULL)
			 RETURNING created_at`,
			reviews[i].ID, reviews[i].UserID, reviews[i].LessonID, reviews[i].ReviewDate, reviews[i].ReviewInterval,
		).Scan(&reviews[i].CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to insert review (day %d): %w", reviews[i].ReviewInterval, err)
		}
	}
	return reviews, nil
}

func (r *LessonRepo) GetByID(ctx context.Context, id, userID uuid.UUID) (*models.Lesson, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+lessonColumns+` FROM lessons WHERE id = $1 AND user_id = $2`, id, userID)
	return scanLesson(row)
}

func (r *LessonRepo) ListByUser(ctx context.Context, userID uuid.UUID, f models.LessonListFilter) ([]*models.Lesson, int, error) {
	where := []string{"user_id = $1"}
	args := []any{userID}

	if f.LessonType != "" {
		args = append(args, f.LessonType)
		where = append(where, fmt.Sprintf("lesson_type = $%d", len(args)))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, "%"+s+"%")
		where = append(where, fmt.Sprintf("(title ILIKE $%d OR COALESCE(content, '') ILIKE $%d)", len(args), len(args)))
	}
	clause := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM lessons WHERE "+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit, f.Offset)
	query := fmt.Sprintf(`SELECT %s FROM lessons WHERE %s
		ORDER BY lesson_date DESC, created_at DESC
		LIMIT $%d OFFSET $%d`, lessonColumns, clause, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var lessons []*models.Lesson
	for rows.Next() {
		l, err := scanLesson(rows)
		if err != nil {
			return nil, 0, err
		}
		lessons = append(lessons, l)
	}
	return lessons, total, rows.Err()
}

// ListLinks returns the user's link lessons, newest first, for the linked-resource picker.
func (r *LessonRepo) ListLinks(ctx context.Context, userID uuid.UUID) ([]*models.Lesson, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+lessonColumns+` FROM lessons
		 WHERE user_id = $1 AND lesson_type = 'link'
		 ORDER BY lesson_date DESC, created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lessons []*models.Lesson
	for rows.Next() {
		l, err := scanLesson(rows)
		if err != nil {
			return nil, err
		}
		lessons = append(lessons, l)
	}
	return lessons, rows.Err()
}

func (r *LessonRepo) CountByType(ctx context.Context, userID uuid.UUID) (models.LessonTypeCounts, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT lesson_type, COUNT(*) FROM lessons WHERE user_id = $1 GROUP BY lesson_type`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := models.LessonTypeCounts{}
	for rows.Next() {
		var t models.LessonType
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			return nil, err
		}
		counts[t] = n
	}
	return counts, rows.Err()
}

func (r *LessonRepo) Update(ctx context.Context, l *models.Lesson) error {
	return r.pool.QueryRow(ctx,
		`UPDATE lessons SET title = $1, content = $2, lesson_type = $3, link_url = $4,
		 linked_lesson_id = $5, lesson_date = $6, updated_at = NOW()
		 WHERE id = $7 AND user_id = $8
		 RETURNING created_at, updated_at`,
		l.Title, l.Content, l.LessonType, l.LinkURL, l.LinkedLessonID, l.LessonDate, l.ID, l.UserID,
	).Scan(&l.CreatedAt, &l.UpdatedAt)
}

// Delete removes the lesson; its reviews go with it through ON DELETE CASCADE.
func (r *LessonRepo) Delete(ctx context.Context, id, userID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM lessons WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
