package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/blackstuend/Daily-Lesson-Review/internal/middleware"
	"github.com/blackstuend/Daily-Lesson-Review/internal/models"
	"github.com/blackstuend/Daily-Lesson-Review/internal/services"
)

type ReviewHandler struct {
	reviews reviewService
}

type reviewService interface {
	Today(ctx context.Context, userID uuid.UUID) (*services.TodayView, error)
	Overview(ctx context.Context, userID uuid.UUID) (*services.Overview, error)
	Calendar(ctx context.Context, userID uuid.UUID, year, month int) ([]services.DayView, error)
	Day(ctx context.Context, userID uuid.UUID, date string) (*services.TodayView, error)
	MarkComplete(ctx context.Context, userID, id uuid.UUID) (*models.Review, error)
	MarkIncomplete(ctx context.Context, userID, id uuid.UUID) (*models.Review, error)
	MoveToTomorrow(ctx context.Context, userID, id uuid.UUID) (*models.Review, error)
	Update(ctx context.Context, userID, id uuid.UUID, req models.ReviewUpdateRequest) (*models.Review, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

func NewReviewHandler(reviews reviewService) *ReviewHandler {
	return &ReviewHandler{reviews: reviews}
}

func (h *ReviewHandler) Today(w http.ResponseWriter, r *http.Request) {
	view, err := h.reviews.Today(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *ReviewHandler) Overview(w http.ResponseWriter, r *http.Request) {
	ov, err := h.reviews.Overview(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ov)
}

// Calendar serves GET /reviews/calendar?year=2024&month=2.
func (h *ReviewHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	year, yearErr := strconv.Atoi(r.URL.Query().Get("year"))
	month, monthErr := strconv.Atoi(r.URL.Query().Get("month"))
	if yearErr != nil || monthErr != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "year and month are required integers", r))
		return
	}

	days, err := h.reviews.Calendar(r.Context(), middleware.GetUserID(r.Context()), year, month)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"year":  year,
		"month": month,
		"days":  days,
	})
}

func (h *ReviewHandler) Day(w http.ResponseWriter, r *http.Request) {
	view, err := h.reviews.Day(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "date"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *ReviewHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "review")
	if !ok {
		return
	}
	var req models.ReviewUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	review, err := h.reviews.Update(r.Context(), middleware.GetUserID(r.Context()), id, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, review)
}

func (h *ReviewHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.reviews.MarkComplete)
}

func (h *ReviewHandler) Incomplete(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.reviews.MarkIncomplete)
}

func (h *ReviewHandler) MoveToTomorrow(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.reviews.MoveToTomorrow)
}

func (h *ReviewHandler) mutate(w http.ResponseWriter, r *http.Request, fn func(context.Context, uuid.UUID, uuid.UUID) (*models.Review, error)) {
	id, ok := pathID(w, r, "review")
	if !ok {
		return
	}

	review, err := fn(r.Context(), middleware.GetUserID(r.Context()), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, review)
}

func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "review")
	if !ok {
		return
	}

	if err := h.reviews.Delete(r.Context(), middleware.GetUserID(r.Context()), id); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
