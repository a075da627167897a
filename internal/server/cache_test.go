package server

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/todo/internal/models"
)

type stubRepo struct {
	todos []models.Todo
	lists int
	err   error
}

func (s *stubRepo) ListTodos(context.Context, string) ([]models.Todo, error) {
	s.lists++
	if s.err != nil {
		return nil, s.err
	}
	return append([]models.Todo(nil), s.todos...), nil
}

func (s *stubRepo) GetTodo(_ context.Context, _ string, id int64) (*models.Todo, error) {
	for _, t := range s.todos {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, errors.New("missing")
}

func (s *stubRepo) CreateTodo(_ context.Context, _ string, t models.Todo) (*models.Todo, error) {
	if s.err != nil {
		return nil, s.err
	}
	t.ID = int64(len(s.todos) + 1)
	s.todos = append(s.todos, t)
	return &t, nil
}

func (s *stubRepo) UpdateTodo(_ context.Context, _ string, t models.Todo) (*models.Todo, error) {
	return &t, s.err
}

func (s *stubRepo) DeleteTodo(context.Context, string, int64) error {
	return s.err
}

func newMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestCacheListMissThenHit(t *testing.T) {
	mr, client := newMiniredis(t)
	ctx := context.Background()
	repo := &stubRepo{todos: []models.Todo{{ID: 1, Text: "Write code", Priority: models.PriorityHigh, Tags: []string{"go"}}}}
	cache := NewCache(repo, client, time.Minute)

	first, err := cache.ListTodos(ctx, "user-1")
	require.NoError(t, err)
	second, err := cache.ListTodos(ctx, "user-1")
	require.NoError(t, err)

	assert.Equal(t, 1, repo.lists)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].Text, second[0].Text)
	assert.Equal(t, []string{"go"}, second[0].Tags)
	assert.Equal(t, models.PriorityHigh, second[0].Priority)
	ttl := mr.TTL(todosCacheKey("user-1"))
	assert.True(t, ttl > 0 && ttl <= time.Minute, "ttl %v", ttl)
}

func TestCacheWritesEvict(t *testing.T) {
	mr, client := newMiniredis(t)
	ctx := context.Background()
	repo := &stubRepo{}
	cache := NewCache(repo, client, time.Minute)

	_, err := cache.ListTodos(ctx, "u")
	require.NoError(t, err)
	assert.True(t, mr.Exists(todosCacheKey("u")))

	_, err = cache.CreateTodo(ctx, "u", models.Todo{Text: "new"})
	require.NoError(t, err)
	assert.False(t, mr.Exists(todosCacheKey("u")))

	list, err := cache.ListTodos(ctx, "u")
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 2, repo.lists)

	require.NoError(t, cache.DeleteTodo(ctx, "u", 1))
	assert.False(t, mr.Exists(todosCacheKey("u")))
}

func TestCacheIsPerUser(t *testing.T) {
	mr, client := newMiniredis(t)
	ctx := context.Background()
	cache := NewCache(&stubRepo{}, client, time.Minute)

	_, _ = cache.ListTodos(ctx, "a")
	_, _ = cache.ListTodos(ctx, "b")
	require.NoError(t, cache.DeleteTodo(ctx, "a", 1))
	assert.False(t, mr.Exists(todosCacheKey("a")))
	assert.True(t, mr.Exists(todosCacheKey("b")))
}

func TestCacheCorruptEntryFallsBack(t *testing.T) {
	mr, client := newMiniredis(t)
	ctx := context.Background()
	repo := &stubRepo{todos: []models.Todo{{ID: 1, Text: "x"}}}
	cache := NewCache(repo, client, time.Minute)

	require.NoError(t, mr.Set(todosCacheKey("u"), "{garbage"))
	list, err := cache.ListTodos(ctx, "u")
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 1, repo.lists)
}

func TestCacheFailedWriteKeepsEntry(t *testing.T) {
	mr, client := newMiniredis(t)
	ctx := context.Background()
	repo := &stubRepo{}
	cache := NewCache(repo, client, time.Minute)

	_, _ = cache.ListTodos(ctx, "u")
	repo.err = errors.New("db down")
	_, err := cache.CreateTodo(ctx, "u", models.Todo{Text: "x"})
	assert.Error(t, err)
	assert.True(t, mr.Exists(todosCacheKey("u")))
}

func TestCacheDisabled(t *testing.T) {
	repo := &stubRepo{}
	cache := NewCache(repo, nil, time.Minute)
	ctx := context.Background()
	_, _ = cache.ListTodos(ctx, "u")
	_, _ = cache.ListTodos(ctx, "u")
	assert.Equal(t, 2, repo.lists)

	_, client := newMiniredis(t)
	zeroTTL := NewCache(repo, client, 0)
	_, _ = zeroTTL.ListTodos(ctx, "u")
	_, _ = zeroTTL.ListTodos(ctx, "u")
	assert.Equal(t, 4, repo.lists)
}
