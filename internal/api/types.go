package api

import (
	"time"

	"github.com/tgienger/todo/internal/models"
)

// TodoJSON is the server representation of a todo. The server calls the
// display text "title".
type TodoJSON struct {
	ID        int64      `json:"id"`
	Title     string     `json:"title"`
	Completed bool       `json:"completed"`
	Category  string     `json:"category,omitempty"`
	Priority  string     `json:"priority,omitempty"`
	Tags      []string   `json:"tags,omitempty"`
	DueDate   *time.Time `json:"due_date,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// ToModel maps the server fields onto a client todo
func (t TodoJSON) ToModel() models.Todo {
	p, _ := models.ParsePriority(t.Priority)
	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}
	return models.Todo{
		ID:         t.ID,
		Text:       t.Title,
		Completed:  t.Completed,
		Category:   t.Category,
		Priority:   p,
		Tags:       tags,
		DueDate:    t.DueDate,
		CreatedAt:  t.CreatedAt,
		ModifiedAt: t.UpdatedAt,
	}
}

// FromModel is the inverse of ToModel
func FromModel(t models.Todo) TodoJSON {
	return TodoJSON{
		ID:        t.ID,
		Title:     t.Text,
		Completed: t.Completed,
		Category:  t.Category,
		Priority:  string(t.Priority.Normalize()),
		Tags:      t.Tags,
		DueDate:   t.DueDate,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.ModifiedAt,
	}
}

// CreateTodoRequest is the POST /todos body
type CreateTodoRequest struct {
	Title     string     `json:"title"`
	Completed bool       `json:"completed"`
	Category  string     `json:"category,omitempty"`
	Priority  string     `json:"priority,omitempty"`
	Tags      []string   `json:"tags,omitempty"`
	DueDate   *time.Time `json:"due_date,omitempty"`
}

// UpdateTodoRequest is the PUT /todos/{id} body; only changed fields are set
type UpdateTodoRequest struct {
	Title        *string    `json:"title,omitempty"`
	Completed    *bool      `json:"completed,omitempty"`
	Category     *string    `json:"category,omitempty"`
	Priority     *string    `json:"priority,omitempty"`
	Tags         *[]string  `json:"tags,omitempty"`
	DueDate      *time.Time `json:"due_date,omitempty"`
	ClearDueDate bool       `json:"clear_due_date,omitempty"`
}

// UpdateFromPatch builds the request carrying only the patched fields
func UpdateFromPatch(p models.Patch) UpdateTodoRequest {
	req := UpdateTodoRequest{
		Title:     p.Text,
		Completed: p.Completed,
		Category:  p.Category,
		Tags:      p.Tags,
	}
	if p.Priority != nil {
		s := string(p.Priority.Normalize())
		req.Priority = &s
	}
	if p.DueDate != nil {
		if *p.DueDate == nil {
			req.ClearDueDate = true
		} else {
			req.DueDate = *p.DueDate
		}
	}
	return req
}

// RegisterRequest is the POST /register body. The password confirmation
// is checked client side and never sent.
type RegisterRequest struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// AuthResponse is returned by login and register
type AuthResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// ErrorResponse is the error body shape. Either field may be set.
type ErrorResponse struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}
