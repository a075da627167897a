package server

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"github.com/tgienger/todo/internal/models"
)

// Cache wraps a TodoRepo with a Redis read-through cache for list reads.
// Any write for a user evicts that user's list.
type Cache struct {
	base  TodoRepo
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a caching wrapper. A nil client disables caching.
func NewCache(base TodoRepo, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("server.NewCache: base repo is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{base: base, redis: client, ttl: ttl}
}

func (c *Cache) ListTodos(ctx context.Context, userID string) ([]models.Todo, error) {
	if todos, ok := c.load(ctx, userID); ok {
		return todos, nil
	}

	todos, err := c.base.ListTodos(ctx, userID)
	if err != nil {
		return nil, err
	}

	c.store(ctx, userID, todos)
	return todos, nil
}

func (c *Cache) GetTodo(ctx context.Context, userID string, id int64) (*models.Todo, error) {
	return c.base.GetTodo(ctx, userID, id)
}

func (c *Cache) CreateTodo(ctx context.Context, userID string, t models.Todo) (*models.Todo, error) {
	out, err := c.base.CreateTodo(ctx, userID, t)
	if err != nil {
		return nil, err
	}
	c.evict(ctx, userID)
	return out, nil
}

func (c *Cache) UpdateTodo(ctx context.Context, userID string, t models.Todo) (*models.Todo, error) {
	out, err := c.base.UpdateTodo(ctx, userID, t)
	if err != nil {
		return nil, err
	}
	c.evict(ctx, userID)
	return out, nil
}

func (c *Cache) DeleteTodo(ctx context.Context, userID string, id int64) error {
	if err := c.base.DeleteTodo(ctx, userID, id); err != nil {
		return err
	}
	c.evict(ctx, userID)
	return nil
}

func (c *Cache) load(ctx context.Context, userID string) ([]models.Todo, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, todosCacheKey(userID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			// fall back to the repo on redis errors
			_ = c.redis.Del(ctx, todosCacheKey(userID)).Err()
		}
		return nil, false
	}
	var todos []models.Todo
	if err := sonic.Unmarshal(data, &todos); err != nil {
		_ = c.redis.Del(ctx, todosCacheKey(userID)).Err()
		return nil, false
	}
	return todos, true
}

func (c *Cache) store(ctx context.Context, userID string, todos []models.Todo) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := sonic.Marshal(todos)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, todosCacheKey(userID), data, c.ttl).Err()
}

func (c *Cache) evict(ctx context.Context, userID string) {
	if c.redis == nil {
		return
	}
	_, _ = c.redis.Del(ctx, todosCacheKey(userID)).Result()
}

func todosCacheKey(userID string) string {
	return "todos:" + userID
}
