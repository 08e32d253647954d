package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/liqtags/relaychat/internal/domain"
	"github.com/liqtags/relaychat/internal/repository"
	"github.com/liqtags/relaychat/internal/service"
	"github.com/liqtags/relaychat/pkg/middleware"
	"github.com/liqtags/relaychat/pkg/response"
)

// TodoHandler exposes the todo CRUD endpoints. All routes require
// authentication and only operate on the caller's own todos.
type TodoHandler struct {
	todos service.TodoService
}

// NewTodoHandler creates a todo handler.
func NewTodoHandler(todos service.TodoService) *TodoHandler {
	return &TodoHandler{todos: todos}
}

// Create handles POST /api/todos.
func (h *TodoHandler) Create(c *gin.Context) {
	var req domain.CreateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	todo, err := h.todos.Create(c.Request.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		response.InternalError(c, "failed to create todo")
		return
	}
	response.Created(c, todo)
}

// List handles GET /api/todos.
func (h *TodoHandler) List(c *gin.Context) {
	todos, err := h.todos.List(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		response.InternalError(c, "failed to list todos")
		return
	}
	response.Success(c, todos)
}

// Get handles GET /api/todos/:id.
func (h *TodoHandler) Get(c *gin.Context) {
	id, ok := parseTodoID(c)
	if !ok {
		return
	}

	todo, err := h.todos.Get(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		if errors.Is(err, repository.ErrTodoNotFound) {
			response.NotFound(c, "todo not found")
			return
		}
		response.InternalError(c, "failed to load todo")
		return
	}
	response.Success(c, todo)
}

// Update handles PUT /api/todos/:id. Fields absent from the body are
// left unchanged.
func (h *TodoHandler) Update(c *gin.Context) {
	id, ok := parseTodoID(c)
	if !ok {
		return
	}

	var req domain.UpdateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	todo, err := h.todos.Update(c.Request.Context(), middleware.GetUserID(c), id, &req)
	if err != nil {
		if errors.Is(err, repository.ErrTodoNotFound) {
			response.NotFound(c, "todo not found")
			return
		}
		response.InternalError(c, "failed to update todo")
		return
	}
	response.Success(c, todo)
}

// Delete handles DELETE /api/todos/:id.
func (h *TodoHandler) Delete(c *gin.Context) {
	id, ok := parseTodoID(c)
	if !ok {
		return
	}

	err := h.todos.Delete(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		if errors.Is(err, repository.ErrTodoNotFound) {
			response.NotFound(c, "todo not found")
			return
		}
		response.InternalError(c, "failed to delete todo")
		return
	}
	response.NoContent(c)
}

func parseTodoID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid todo id")
		return 0, false
	}
	return uint(id), true
}
