// Package grouping nests reviews of word and sentence lessons under the review
// of the link lesson they reference, when both are due on the same day.
package grouping

import (
	"sort"

	"github.com/google/uuid"

	"github.com/blackstuend/Daily-Lesson-Review/internal/models"
)

type Result struct {
	DisplayReviews     []models.Review               `json:"display_reviews"`
	ChildrenByParentID map[uuid.UUID][]models.Review `json:"children_by_parent_id"`
}

// Children returns the reviews nested under parentID, or an empty slice.
func (r Result) Children(parentID uuid.UUID) []models.Review {
	if children, ok := r.ChildrenByParentID[parentID]; ok {
		return children
	}
	return []models.Review{}
}

type linkKey struct {
	lessonID uuid.UUID
	date     string
}

// Group partitions reviews into top-level entries and children. Every input
// review ends up in exactly one place. Grouping is local to the slice passed
// in: a child whose parent is not in the slice stays top-level.
func Group(reviews []models.Review) Result {
	linkByKey := make(map[linkKey]models.Review)
	for _, review := range reviews {
		if review.Lesson == nil || review.Lesson.LessonType != models.LessonTypeLink {
			continue
		}
		lessonID := review.Lesson.ID
		if lessonID == uuid.Nil {
			lessonID = review.LessonID
		}
		// Later duplicates win.
		linkByKey[linkKey{lessonID: lessonID, date: review.ReviewDate.String()}] = review
	}

	children := make(map[uuid.UUID][]models.Review)
	hidden := make(map[uuid.UUID]bool)
	for _, review := range reviews {
		if review.Lesson == nil || review.Lesson.LinkedLessonID == nil {
			continue
		}
		parent, ok := linkByKey[linkKey{lessonID: *review.Lesson.LinkedLessonID, date: review.ReviewDate.String()}]
		// A review is never its own child; it would vanish from the display list.
		if !ok || parent.ID == review.ID {
			continue
		}
		children[parent.ID] = append(children[parent.ID], review)
		hidden[review.ID] = true
	}

	display := make([]models.Review, 0, len(reviews)-len(hidden))
	for _, review := range reviews {
		if !hidden[review.ID] {
			display = append(display, review)
		}
	}

	return Result{
		DisplayReviews:     display,
		ChildrenByParentID: children,
	}
}

// Day is one calendar cell: the reviews due that day, grouped on their own.
type Day struct {
	Date      models.Date `json:"date"`
	Grouped   Result      `json:"grouped"`
	Completed int         `json:"completed"`
	Pending   int         `json:"pending"`
}

// ByDate buckets reviews by due date, preserving input order inside each
// bucket, and groups every bucket independently. Days come back in ascending
// date order.
func ByDate(reviews []models.Review) []Day {
	buckets := make(map[string][]models.Review)
	var order []models.Date
	for _, review := range reviews {
		key := review.ReviewDate.String()
		if _, ok := buckets[key]; !ok {
			order = append(order, review.ReviewDate)
		}
		buckets[key] = append(buckets[key], review)
	}

	sort.Slice(order, func(i, j int) bool { return order[i].Before(order[j]) })

	days := make([]Day, 0, len(order))
	for _, date := range order {
		list := buckets[date.String()]
		day := Day{Date: date, Grouped: Group(list)}
		for _, review := range list {
			if review.Completed && review.CompletedAt != nil {
				day.Completed++
			} else {
				day.Pending++
			}
		}
		days = append(days, day)
	}
	return days
}
