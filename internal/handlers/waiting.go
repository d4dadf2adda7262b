package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/blackstuend/Daily-Lesson-Review/internal/middleware"
	"github.com/blackstuend/Daily-Lesson-Review/internal/models"
	"github.com/blackstuend/Daily-Lesson-Review/internal/services"
)

type WaitingHandler struct {
	waiting waitingService
}

type waitingService interface {
	Create(ctx context.Context, userID uuid.UUID, req models.WaitingLessonRequest) (*models.WaitingLesson, error)
	List(ctx context.Context, userID uuid.UUID, lessonType models.LessonType, search string) ([]*models.WaitingLesson, error)
	Update(ctx context.Context, userID, id uuid.UUID, req models.WaitingLessonRequest) (*models.WaitingLesson, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	Promote(ctx context.Context, userID, id uuid.UUID, req services.PromoteRequest) (*services.LessonDetail, error)
}

func NewWaitingHandler(waiting waitingService) *WaitingHandler {
	return &WaitingHandler{waiting: waiting}
}

func (h *WaitingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.WaitingLessonRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	item, err := h.waiting.Create(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *WaitingHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := h.waiting.List(r.Context(), middleware.GetUserID(r.Context()), models.LessonType(q.Get("type")), q.Get("search"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"waiting_lessons": items,
		"total":           len(items),
	})
}

func (h *WaitingHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "waiting lesson")
	if !ok {
		return
	}
	var req models.WaitingLessonRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	item, err := h.waiting.Update(r.Context(), middleware.GetUserID(r.Context()), id, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *WaitingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "waiting lesson")
	if !ok {
		return
	}

	if err := h.waiting.Delete(r.Context(), middleware.GetUserID(r.Context()), id); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Promote schedules the waiting lesson. The body is optional; an empty body
// starts the lesson today.
func (h *WaitingHandler) Promote(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "waiting lesson")
	if !ok {
		return
	}
	var req services.PromoteRequest
	if r.ContentLength != 0 {
		if !decodeJSON(w, r, &req) {
			return
		}
	}

	detail, err := h.waiting.Promote(r.Context(), middleware.GetUserID(r.Context()), id, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, detail)
}
