package server

import (
	"context"
	"time"

	"github.com/tgienger/todo/internal/db"
	"github.com/tgienger/todo/internal/models"
)

// TodoRepo stores todos per user
type TodoRepo interface {
	ListTodos(ctx context.Context, userID string) ([]models.Todo, error)
	GetTodo(ctx context.Context, userID string, id int64) (*models.Todo, error)
	CreateTodo(ctx context.Context, userID string, t models.Todo) (*models.Todo, error)
	UpdateTodo(ctx context.Context, userID string, t models.Todo) (*models.Todo, error)
	DeleteTodo(ctx context.Context, userID string, id int64) error
}

// UserRepo stores accounts and revoked token ids
type UserRepo interface {
	CreateUser(id, username, name, passwordHash string) (*models.User, error)
	GetUser(id string) (*models.User, error)
	GetUserCredentials(username string) (*models.User, string, error)
	UserExists(username string) (bool, error)
	RevokeToken(jti string, expiresAt time.Time) error
	IsTokenRevoked(jti string) (bool, error)
	PruneRevokedTokens(now time.Time) error
}

// SQLTodos adapts the sqlite database to TodoRepo
type SQLTodos struct {
	DB *db.DB
}

func (s SQLTodos) ListTodos(_ context.Context, userID string) ([]models.Todo, error) {
	return s.DB.ListTodos(userID)
}

func (s SQLTodos) GetTodo(_ context.Context, userID string, id int64) (*models.Todo, error) {
	return s.DB.GetTodo(userID, id)
}

func (s SQLTodos) CreateTodo(_ context.Context, userID string, t models.Todo) (*models.Todo, error) {
	return s.DB.CreateTodo(userID, t)
}

func (s SQLTodos) UpdateTodo(_ context.Context, userID string, t models.Todo) (*models.Todo, error) {
	return s.DB.UpdateTodo(userID, t)
}

func (s SQLTodos) DeleteTodo(_ context.Context, userID string, id int64) error {
	return s.DB.DeleteTodo(userID, id)
}
