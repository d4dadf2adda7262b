package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/blackstuend/Daily-Lesson-Review/internal/importer"
	"github.com/blackstuend/Daily-Lesson-Review/internal/middleware"
	"github.com/blackstuend/Daily-Lesson-Review/internal/models"
	"github.com/blackstuend/Daily-Lesson-Review/internal/services"
)

const maxImportUpload = 10 << 20

type LessonHandler struct {
	lessons lessonService
}

type lessonService interface {
	Create(ctx context.Context, userID uuid.UUID, req models.LessonRequest) (*services.LessonDetail, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*services.LessonDetail, error)
	List(ctx context.Context, userID uuid.UUID, f models.LessonListFilter) (*services.LessonPage, error)
	ListLinks(ctx context.Context, userID uuid.UUID) ([]*models.Lesson, error)
	Update(ctx context.Context, userID, id uuid.UUID, req models.LessonRequest) (*models.Lesson, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	Import(ctx context.Context, userID uuid.UUID, rows []importer.Row) (*importer.Result, error)
}

func NewLessonHandler(lessons lessonService) *LessonHandler {
	return &LessonHandler{lessons: lessons}
}

func (h *LessonHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.LessonRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	detail, err := h.lessons.Create(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, detail)
}

func (h *LessonHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	result, err := h.lessons.List(r.Context(), middleware.GetUserID(r.Context()), models.LessonListFilter{
		LessonType: models.LessonType(q.Get("type")),
		Search:     q.Get("search"),
		Limit:      limit,
		Offset:     (page - 1) * limit,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"lessons": result.Items,
		"total":   result.Total,
		"page":    page,
		"limit":   limit,
	})
}

func (h *LessonHandler) ListLinks(w http.ResponseWriter, r *http.Request) {
	links, err := h.lessons.ListLinks(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"lessons": links})
}

func (h *LessonHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "lesson")
	if !ok {
		return
	}

	detail, err := h.lessons.Get(r.Context(), middleware.GetUserID(r.Context()), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *LessonHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "lesson")
	if !ok {
		return
	}
	var req models.LessonRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	lesson, err := h.lessons.Update(r.Context(), middleware.GetUserID(r.Context()), id, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lesson)
}

func (h *LessonHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "lesson")
	if !ok {
		return
	}

	if err := h.lessons.Delete(r.Context(), middleware.GetUserID(r.Context()), id); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Import accepts a multipart upload with a "file" field (.xlsx or .csv).
func (h *LessonHandler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportUpload)
	if err := r.ParseMultipartForm(maxImportUpload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Upload must be multipart/form-data under 10 MB", r))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Missing file field", r))
		return
	}
	defer file.Close()

	rows, skipped, err := importer.Parse(file, header.Filename)
	if errors.Is(err, importer.ErrUnsupportedFormat) {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", err.Error(), r))
		return
	}
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Could not read file: "+err.Error(), r))
		return
	}

	result, err := h.lessons.Import(r.Context(), middleware.GetUserID(r.Context()), rows)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	result.Failed += len(skipped)
	result.Errors = append(skipped, result.Errors...)

	writeJSON(w, http.StatusOK, result)
}
