package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/tgienger/todo/internal/api"
	"github.com/tgienger/todo/internal/db"
	"github.com/tgienger/todo/internal/models"
)

const minPasswordLen = 6

type handlers struct {
	users  UserRepo
	todos  TodoRepo
	auth   *Auth
	logger log.FieldLogger
}

func (h *handlers) register(c echo.Context) error {
	var req api.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Username is required")
	}
	if len(req.Password) < minPasswordLen {
		return echo.NewHTTPError(http.StatusBadRequest, "Password must be at least 6 characters")
	}

	exists, err := h.users.UserExists(req.Username)
	if err != nil {
		return err
	}
	if exists {
		return echo.NewHTTPError(http.StatusConflict, "Username already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user, err := h.users.CreateUser(uuid.NewString(), req.Username, strings.TrimSpace(req.Name), string(hash))
	if err != nil {
		return err
	}
	h.logger.WithField("user", user.ID).Info("registered user")
	return h.respondWithToken(c, http.StatusCreated, user)
}

func (h *handlers) login(c echo.Context) error {
	var creds models.Credentials
	if err := c.Bind(&creds); err != nil {
		return err
	}

	user, hash, err := h.users.GetUserCredentials(strings.TrimSpace(creds.Username))
	if errors.Is(err, db.ErrNotFound) {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid username or password")
	}
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(creds.Password)) != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid username or password")
	}
	return h.respondWithToken(c, http.StatusOK, user)
}

func (h *handlers) respondWithToken(c echo.Context, status int, user *models.User) error {
	token, err := h.auth.Issue(user.ID)
	if err != nil {
		return err
	}
	return c.JSON(status, api.AuthResponse{Token: token, User: *user})
}

func (h *handlers) logout(c echo.Context) error {
	if err := h.auth.Revoke(claimsFrom(c)); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *handlers) profile(c echo.Context) error {
	user, err := h.users.GetUser(userIDFrom(c))
	if errors.Is(err, db.ErrNotFound) {
		return echo.NewHTTPError(http.StatusUnauthorized, "Account no longer exists")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

func (h *handlers) listTodos(c echo.Context) error {
	todos, err := h.todos.ListTodos(c.Request().Context(), userIDFrom(c))
	if err != nil {
		return err
	}
	out := make([]api.TodoJSON, len(todos))
	for i, t := range todos {
		out[i] = api.FromModel(t)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *handlers) createTodo(c echo.Context) error {
	var req api.CreateTodoRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Title is required")
	}
	priority, _ := models.ParsePriority(req.Priority)

	t, err := h.todos.CreateTodo(c.Request().Context(), userIDFrom(c), models.Todo{
		Text:      title,
		Completed: req.Completed,
		Category:  req.Category,
		Priority:  priority,
		Tags:      req.Tags,
		DueDate:   req.DueDate,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, api.FromModel(*t))
}

func (h *handlers) updateTodo(c echo.Context) error {
	id, err := todoID(c)
	if err != nil {
		return err
	}
	var req api.UpdateTodoRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	userID := userIDFrom(c)
	t, err := h.todos.GetTodo(ctx, userID, id)
	if errors.Is(err, db.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "Todo not found")
	}
	if err != nil {
		return err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "Title is required")
		}
		t.Text = title
	}
	if req.Completed != nil {
		t.Completed = *req.Completed
	}
	if req.Category != nil {
		t.Category = *req.Category
	}
	if req.Priority != nil {
		t.Priority, _ = models.ParsePriority(*req.Priority)
	}
	if req.Tags != nil {
		t.Tags = *req.Tags
	}
	switch {
	case req.ClearDueDate:
		t.DueDate = nil
	case req.DueDate != nil:
		t.DueDate = req.DueDate
	}

	updated, err := h.todos.UpdateTodo(ctx, userID, *t)
	if errors.Is(err, db.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "Todo not found")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, api.FromModel(*updated))
}

func (h *handlers) deleteTodo(c echo.Context) error {
	id, err := todoID(c)
	if err != nil {
		return err
	}
	if err := h.todos.DeleteTodo(c.Request().Context(), userIDFrom(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func todoID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid todo id")
	}
	return id, nil
}
