package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/tgienger/todo/internal/models"
)

// Error is a non-2xx response from the API
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: status %d", e.Status)
	}
	return fmt.Sprintf("api: status %d: %s", e.Status, e.Message)
}

// TokenSource supplies the bearer token for each request. "" sends none.
type TokenSource interface {
	Token() string
}

// Client talks to the todo REST API
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
}

// NewClient creates a client for baseURL (e.g. http://localhost:8080/api)
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// SetTokenSource sets where bearer tokens come from
func (c *Client) SetTokenSource(ts TokenSource) {
	c.tokens = ts
}

// ListTodos fetches every todo of the signed-in user
func (c *Client) ListTodos(ctx context.Context) ([]models.Todo, error) {
	var out []TodoJSON
	if err := c.do(ctx, http.MethodGet, "/todos", nil, &out); err != nil {
		return nil, err
	}
	todos := make([]models.Todo, len(out))
	for i, t := range out {
		todos[i] = t.ToModel()
	}
	return todos, nil
}

// CreateTodo posts a new todo and returns the server's record
func (c *Client) CreateTodo(ctx context.Context, t models.Todo) (models.Todo, error) {
	req := CreateTodoRequest{
		Title:     t.Text,
		Completed: t.Completed,
		Category:  t.Category,
		Priority:  string(t.Priority.Normalize()),
		Tags:      t.Tags,
		DueDate:   t.DueDate,
	}
	var out TodoJSON
	if err := c.do(ctx, http.MethodPost, "/todos", req, &out); err != nil {
		return models.Todo{}, err
	}
	return out.ToModel(), nil
}

// UpdateTodo sends the changed fields and returns the server's record
func (c *Client) UpdateTodo(ctx context.Context, id int64, p models.Patch) (models.Todo, error) {
	var out TodoJSON
	if err := c.do(ctx, http.MethodPut, todoPath(id), UpdateFromPatch(p), &out); err != nil {
		return models.Todo{}, err
	}
	return out.ToModel(), nil
}

// DeleteTodo deletes a todo by id
func (c *Client) DeleteTodo(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, todoPath(id), nil, nil)
}

// Login exchanges credentials for a token
func (c *Client) Login(ctx context.Context, creds models.Credentials) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.do(ctx, http.MethodPost, "/login", creds, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates an account and signs it in
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.do(ctx, http.MethodPost, "/register", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout revokes the current token
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/logout", nil, nil)
}

// Profile fetches the signed-in user
func (c *Client) Profile(ctx context.Context) (*models.User, error) {
	var out models.User
	if err := c.do(ctx, http.MethodGet, "/profile", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func todoPath(id int64) string {
	return "/todos/" + strconv.FormatInt(id, 10)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := sonic.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if tok := c.tokens.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &Error{Status: resp.StatusCode}
		var e ErrorResponse
		if sonic.Unmarshal(data, &e) == nil {
			apiErr.Message = e.Message
			if apiErr.Message == "" {
				apiErr.Message = e.Error
			}
		}
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := sonic.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
