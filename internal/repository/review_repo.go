package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/blackstuend/Daily-Lesson-Review/internal/models"
)

type ReviewRepo struct {
	pool *pgxpool.Pool
}

func NewReviewRepo(pool *pgxpool.Pool) *ReviewRepo {
	return &ReviewRepo{pool: pool}
}

const reviewColumns = `r.id, r.user_id, r.lesson_id, r.review_date, r.review_interval, r.completed, r.completed_at, r.created_at,
	l.id, l.title, l.content, l.lesson_type, l.link_url, l.linked_lesson_id, l.lesson_date`

func scanReview(row rowScanner) (*models.Review, error) {
	rv := &models.Review{}
	ref := &models.LessonRef{}
	err := row.Scan(
		&rv.ID, &rv.UserID, &rv.LessonID, &rv.ReviewDate, &rv.ReviewInterval, &rv.Completed, &rv.CompletedAt, &rv.CreatedAt,
		&ref.ID, &ref.Title, &ref.Content, &ref.LessonType, &ref.LinkURL, &ref.LinkedLessonID, &ref.LessonDate,
	)
	if err != nil {
		return nil, err
	}
	rv.Lesson = ref
	return rv, nil
}

func collectReviews(rows pgx.Rows) ([]models.Review, error) {
	defer rows.Close()

	reviews := []models.Review{}
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, *rv)
	}
	return reviews, rows.Err()
}

func orderClause(o models.ReviewOrder) string {
	switch o {
	case models.OrderTodayList:
		return "r.completed ASC, r.review_interval ASC, r.created_at ASC"
	case models.OrderCompletedAtDsc:
		return "r.completed_at DESC NULLS LAST"
	default:
		return "r.review_date ASC, r.review_interval ASC, r.created_at ASC"
	}
}

// Query lists the user's reviews with their lesson joined, filtered by f.
func (r *ReviewRepo) Query(ctx context.Context, userID uuid.UUID, f models.ReviewFilter) ([]models.Review, error) {
	where := []string{"r.user_id = $1"}
	args := []any{userID}

	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.LessonID != nil {
		add("r.lesson_id = $%d", *f.LessonID)
	}
	if f.Date != nil {
		add("r.review_date = $%d", *f.Date)
	}
	if f.DateFrom != nil {
		add("r.review_date >= $%d", *f.DateFrom)
	}
	if f.DateTo != nil {
		add("r.review_date <= $%d", *f.DateTo)
	}
	if f.DateAfter != nil {
		add("r.review_date > $%d", *f.DateAfter)
	}
	if f.DateBefore != nil {
		add("r.review_date < $%d", *f.DateBefore)
	}
	if f.Completed != nil {
		add("r.completed = $%d", *f.Completed)
	}

	query := fmt.Sprintf(`SELECT %s
		FROM review_schedule r
		JOIN lessons l ON l.id = r.lesson_id
		WHERE %s
		ORDER BY %s`, reviewColumns, strings.Join(where, " AND "), orderClause(f.OrderBy))
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectReviews(rows)
}

func (r *ReviewRepo) GetByID(ctx context.Context, id, userID uuid.UUID) (*models.Review, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+reviewColumns+`
		 FROM review_schedule r
		 JOIN lessons l ON l.id = r.lesson_id
		 WHERE r.id = $1 AND r.user_id = $2`, id, userID)
	return scanReview(row)
}

// updateReturning runs an UPDATE on a single review and returns the row with
// its lesson joined, all in one statement.
func (r *ReviewRepo) updateReturning(ctx context.Context, set string, args ...any) (*models.Review, error) {
	query := fmt.Sprintf(`WITH r AS (
			UPDATE review_schedule SET %s
			WHERE id = $1 AND user_id = $2
			RETURNING *
		)
		SELECT %s FROM r JOIN lessons l ON l.id = r.lesson_id`, set, reviewColumns)
	return scanReview(r.pool.QueryRow(ctx, query, args...))
}

// SetCompleted marks the review completed. A review that already carries a
// completion timestamp keeps it, so repeated calls are no-ops.
func (r *ReviewRepo) SetCompleted(ctx context.Context, id, userID uuid.UUID, at time.Time) (*models.Review, error) {
	return r.updateReturning(ctx,
		`completed = TRUE,
		 completed_at = CASE WHEN completed AND completed_at IS NOT NULL THEN completed_at ELSE $3 END`,
		id, userID, at)
}

func (r *ReviewRepo) SetIncomplete(ctx context.Context, id, userID uuid.UUID) (*models.Review, error) {
	return r.updateReturning(ctx, `completed = FALSE, completed_at = NULL`, id, userID)
}

// UpdateDate moves a pending review. Completed rows are left untouched and
// reported as pgx.ErrNoRows.
func (r *ReviewRepo) UpdateDate(ctx context.Context, id, userID uuid.UUID, date models.Date) (*models.Review, error) {
	query := fmt.Sprintf(`WITH r AS (
			UPDATE review_schedule SET review_date = $3
			WHERE id = $1 AND user_id = $2 AND NOT (completed AND completed_at IS NOT NULL)
			RETURNING *
		)
		SELECT %s FROM r JOIN lessons l ON l.id = r.lesson_id`, reviewColumns)
	return scanReview(r.pool.QueryRow(ctx, query, id, userID, date))
}

// Apply writes a partial change in one statement. A nil date or completed
// leaves that column as is. A date change needs the row to be pending or to be
// reopened by the same call; otherwise nothing is written and pgx.ErrNoRows is
// returned. Completing keeps an existing completion time.
func (r *ReviewRepo) Apply(ctx context.Context, id, userID uuid.UUID, date *models.Date, completed *bool, at time.Time) (*models.Review, error) {
	query := fmt.Sprintf(`WITH r AS (
			UPDATE review_schedule SET
				review_date = COALESCE($3::date, review_date),
				completed = COALESCE($4::boolean, completed),
				completed_at = CASE
					WHEN $4::boolean IS NULL THEN completed_at
					WHEN $4::boolean AND completed AND completed_at IS NOT NULL THEN completed_at
					WHEN $4::boolean THEN $5::timestamptz
					ELSE NULL
				END
			WHERE id = $1 AND user_id = $2
			  AND ($3::date IS NULL OR $4::boolean IS FALSE OR NOT (completed AND completed_at IS NOT NULL))
			RETURNING *
		)
		SELECT %s FROM r JOIN lessons l ON l.id = r.lesson_id`, reviewColumns)
	return scanReview(r.pool.QueryRow(ctx, query, id, userID, date, completed, at))
}

func (r *ReviewRepo) Delete(ctx context.Context, id, userID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM review_schedule WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// DailyCompletionCounts returns completed reviews per completion day in loc,
// for days in [from, to].
func (r *ReviewRepo) DailyCompletionCounts(ctx context.Context, userID uuid.UUID, from, to models.Date, loc *time.Location) ([]models.DailyCount, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT (completed_at AT TIME ZONE $4)::date AS day, COUNT(*)
		 FROM review_schedule
		 WHERE user_id = $1 AND completed = TRUE AND completed_at IS NOT NULL
		   AND (completed_at AT TIME ZONE $4)::date BETWEEN $2 AND $3
		 GROUP BY day
		 ORDER BY day`, userID, from, to, loc.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []models.DailyCount
	for rows.Next() {
		var c models.DailyCount
		if err := rows.Scan(&c.Date, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// ListUsersWithDueReviews returns every user with pending reviews on date.
func (r *ReviewRepo) ListUsersWithDueReviews(ctx context.Context, date models.Date) ([]models.DueReviewCount, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id, COUNT(*) FROM review_schedule
		 WHERE review_date = $1 AND completed = FALSE
		 GROUP BY user_id`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var due []models.DueReviewCount
	for rows.Next() {
		var d models.DueReviewCount
		if err := rows.Scan(&d.UserID, &d.Count); err != nil {
			return nil, err
		}
		due = append(due, d)
	}
	return due, rows.Err()
}
