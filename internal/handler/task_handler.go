package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/wedplan/internal/middleware"
	"github.com/hitoshi/wedplan/internal/model"
	"github.com/hitoshi/wedplan/internal/task"
)

// TaskServiceInterface はタスクハンドラーが必要とするサービスインターフェース。
type TaskServiceInterface interface {
	List(ctx context.Context, weddingID string) ([]*model.Task, error)
	Create(ctx context.Context, weddingID string, input task.Input) (*model.Task, error)
	Update(ctx context.Context, weddingID, taskID string, input task.Input) (*model.Task, error)
	SetDone(ctx context.Context, weddingID, taskID string, done bool) (*model.Task, error)
	Delete(ctx context.Context, weddingID, taskID string) error
	ListTemplates(ctx context.Context) ([]*model.TaskTemplate, error)
}

// TaskHandler はタスク管理のHTTPハンドラー。
type TaskHandler struct {
	service TaskServiceInterface
}

// NewTaskHandler はTaskHandlerを生成する。
func NewTaskHandler(service TaskServiceInterface) *TaskHandler {
	return &TaskHandler{service: service}
}

// taskRequest はタスクの作成・更新リクエストのボディ。
// DueDateはYYYY-MM-DD形式。nullの場合は期日なし。
type taskRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	DueDate     *string `json:"due_date"`
	Done        bool    `json:"done"`
	AssignedTo  *string `json:"assigned_to"`
}

// setDoneRequest は完了状態切り替えリクエストのボディ。
type setDoneRequest struct {
	Done bool `json:"done"`
}

// taskResponse はタスク情報のAPIレスポンス。
type taskResponse struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	DueDate     *string `json:"due_date"`
	Done        bool    `json:"done"`
	AssignedTo  *string `json:"assigned_to"`
}

// taskTemplateResponse はタスク雛形のAPIレスポンス。
type taskTemplateResponse struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	DueDateOffset int    `json:"due_date_offset"`
}

// toTaskResponse はドメインのTaskをAPIレスポンス型に変換する。
func toTaskResponse(t *model.Task) taskResponse {
	var dueDate *string
	if t.DueDate != nil {
		formatted := t.DueDate.Format(model.WeddingDateFormat)
		dueDate = &formatted
	}
	return taskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		DueDate:     dueDate,
		Done:        t.Done,
		AssignedTo:  t.AssignedTo,
	}
}

// List はタスク一覧を返す。
// GET /api/tasks
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	wedding, err := middleware.WeddingFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	tasks, err := h.service.List(r.Context(), wedding.ID)
	if err != nil {
		middleware.WriteServiceError(w, err)
		return
	}

	results := make([]taskResponse, len(tasks))
	for i, t := range tasks {
		results[i] = toTaskResponse(t)
	}
	writeJSON(w, http.StatusOK, results)
}

// Create はタスクを登録する。
// POST /api/tasks
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	wedding, err := middleware.WeddingFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	input, ok := h.decodeTaskInput(w, r)
	if !ok {
		return
	}

	created, err := h.service.Create(r.Context(), wedding.ID, input)
	if err != nil {
		middleware.WriteServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toTaskResponse(created))
}

// Update はタスクを更新する。
// PUT /api/tasks/{id}
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	wedding, err := middleware.WeddingFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	input, ok := h.decodeTaskInput(w, r)
	if !ok {
		return
	}

	updated, err := h.service.Update(r.Context(), wedding.ID, chi.URLParam(r, "id"), input)
	if err != nil {
		middleware.WriteServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTaskResponse(updated))
}

// SetDone はタスクの完了状態を切り替える。
// PATCH /api/tasks/{id}/done
func (h *TaskHandler) SetDone(w http.ResponseWriter, r *http.Request) {
	wedding, err := middleware.WeddingFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req setDoneRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	updated, err := h.service.SetDone(r.Context(), wedding.ID, chi.URLParam(r, "id"), req.Done)
	if err != nil {
		middleware.WriteServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTaskResponse(updated))
}

// Delete はタスクを削除する。
// DELETE /api/tasks/{id}
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	wedding, err := middleware.WeddingFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	if err := h.service.Delete(r.Context(), wedding.ID, chi.URLParam(r, "id")); err != nil {
		middleware.WriteServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListTemplates はタスク雛形一覧を返す。
// GET /api/tasks/templates
func (h *TaskHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.service.ListTemplates(r.Context())
	if err != nil {
		middleware.WriteServiceError(w, err)
		return
	}

	results := make([]taskTemplateResponse, len(templates))
	for i, tpl := range templates {
		results[i] = taskTemplateResponse{
			ID:            tpl.ID,
			Title:         tpl.Title,
			Description:   tpl.Description,
			DueDateOffset: tpl.DueDateOffset,
		}
	}
	writeJSON(w, http.StatusOK, results)
}

// decodeTaskInput はタスクのリクエストボディを解析しサービス入力に変換する。
func (h *TaskHandler) decodeTaskInput(w http.ResponseWriter, r *http.Request) (task.Input, bool) {
	var req taskRequest
	if !decodeRequest(w, r, &req) {
		return task.Input{}, false
	}

	input := task.Input{
		Title:       req.Title,
		Description: req.Description,
		Done:        req.Done,
		AssignedTo:  req.AssignedTo,
	}

	if req.DueDate != nil {
		dueDate, err := parseDate(*req.DueDate)
		if err != nil {
			middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidDateError(*req.DueDate))
			return task.Input{}, false
		}
		input.DueDate = &dueDate
	}

	return input, true
}
