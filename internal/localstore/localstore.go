// Package localstore persists the guest todo list as one JSON array under a
// namespaced key of the local key/value store.
package localstore

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"

	"github.com/tgienger/todo/internal/models"
)

// KV is the key/value surface of the local database
type KV interface {
	LookupSetting(key string) (string, bool, error)
	SetSetting(key, value string) error
}

// Local is the guest-mode backend. Every mutation rewrites the whole list.
type Local struct {
	kv  KV
	key string
}

// New returns a backend storing the list under key
func New(kv KV, key string) *Local {
	if key == "" {
		key = "todos"
	}
	return &Local{kv: kv, key: key}
}

// Key is the namespaced key the list lives under
func (l *Local) Key() string { return l.key }

// Load reads and decodes the stored list. A missing key is an empty list;
// malformed JSON is returned as an error.
func (l *Local) Load(_ context.Context) ([]models.Todo, error) {
	raw, ok, err := l.kv.LookupSetting(l.key)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return []models.Todo{}, nil
	}

	var todos []models.Todo
	if err := sonic.UnmarshalString(raw, &todos); err != nil {
		return nil, fmt.Errorf("decode %q: %w", l.key, err)
	}
	for i := range todos {
		todos[i].Priority = todos[i].Priority.Normalize()
		if todos[i].Tags == nil {
			todos[i].Tags = []string{}
		}
	}
	if todos == nil {
		todos = []models.Todo{}
	}
	return todos, nil
}

// Save serializes the full list. Untagged todos are written with "tags":[].
func (l *Local) Save(todos []models.Todo) error {
	out := make([]models.Todo, len(todos))
	for i, t := range todos {
		out[i] = t.Clone()
	}
	raw, err := sonic.MarshalString(out)
	if err != nil {
		return err
	}
	return l.kv.SetSetting(l.key, raw)
}

// Create stores next, which already contains t
func (l *Local) Create(_ context.Context, t models.Todo, next []models.Todo) (models.Todo, error) {
	return t, l.Save(next)
}

// Update stores next, which already contains t
func (l *Local) Update(_ context.Context, t models.Todo, _ models.Patch, next []models.Todo) (models.Todo, error) {
	return t, l.Save(next)
}

// Delete stores next, from which ids were already removed
func (l *Local) Delete(_ context.Context, _ []int64, next []models.Todo) error {
	return l.Save(next)
}
