package store

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"

	"github.com/tgienger/todo/internal/models"
)

// Backend persists the list. next is the list as it will look once the
// mutation is applied; full-list backends write it, per-record backends
// ignore it. The returned todo is the authoritative record.
type Backend interface {
	Load(ctx context.Context) ([]models.Todo, error)
	Create(ctx context.Context, t models.Todo, next []models.Todo) (models.Todo, error)
	Update(ctx context.Context, t models.Todo, p models.Patch, next []models.Todo) (models.Todo, error)
	Delete(ctx context.Context, ids []int64, next []models.Todo) error
}

// Session answers whether a user is signed in
type Session interface {
	IsAuthenticated() bool
}

// TodoAPI is the part of the REST client the remote backend needs
type TodoAPI interface {
	ListTodos(ctx context.Context) ([]models.Todo, error)
	CreateTodo(ctx context.Context, t models.Todo) (models.Todo, error)
	UpdateTodo(ctx context.Context, id int64, p models.Patch) (models.Todo, error)
	DeleteTodo(ctx context.Context, id int64) error
}

// Remote is the authenticated-mode backend: one request per mutation
type Remote struct {
	api    TodoAPI
	logger log.FieldLogger
}

// NewRemote wraps a REST client
func NewRemote(api TodoAPI, logger log.FieldLogger) *Remote {
	return &Remote{api: api, logger: logger}
}

func (r *Remote) Load(ctx context.Context) ([]models.Todo, error) {
	return r.api.ListTodos(ctx)
}

// Create posts t and reconciles the server's answer with the local fields
func (r *Remote) Create(ctx context.Context, t models.Todo, _ []models.Todo) (models.Todo, error) {
	saved, err := r.api.CreateTodo(ctx, t)
	if err != nil {
		return models.Todo{}, err
	}
	return reconcile(t, saved), nil
}

// Update puts the patched fields and reconciles the server's answer
func (r *Remote) Update(ctx context.Context, t models.Todo, p models.Patch, _ []models.Todo) (models.Todo, error) {
	saved, err := r.api.UpdateTodo(ctx, t.ID, p)
	if err != nil {
		return models.Todo{}, err
	}
	return reconcile(t, saved), nil
}

// Delete issues one DELETE per id. Failures don't stop the remaining requests.
func (r *Remote) Delete(ctx context.Context, ids []int64, _ []models.Todo) error {
	var errs []error
	for _, id := range ids {
		if err := r.api.DeleteTodo(ctx, id); err != nil {
			r.logger.WithError(err).WithField("id", id).Warn("remote delete failed")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// reconcile takes identity, text, completion and timestamps from the
// server and keeps the fields the server doesn't own from the local record.
func reconcile(local, server models.Todo) models.Todo {
	out := local.Clone()
	if server.ID != 0 {
		out.ID = server.ID
	}
	if server.Text != "" {
		out.Text = server.Text
	}
	out.Completed = server.Completed
	if !server.CreatedAt.IsZero() {
		out.CreatedAt = server.CreatedAt
	}
	if server.ModifiedAt != nil {
		m := *server.ModifiedAt
		out.ModifiedAt = &m
	}
	return out
}
