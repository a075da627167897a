package models

import (
	"strings"
	"time"
)

// Todo represents a single to-do item
type Todo struct {
	ID          int64      `json:"id"`
	Text        string     `json:"text"`
	Completed   bool       `json:"completed"`
	Category    string     `json:"category"`
	Priority    Priority   `json:"priority"`
	CreatedAt   time.Time  `json:"createdAt"`
	Tags        []string   `json:"tags"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	ModifiedAt  *time.Time `json:"modifiedAt,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
}

// Clone returns a deep copy so callers can't mutate store-owned slices.
// Tags is never nil in the copy, so an untagged todo serializes as [].
func (t Todo) Clone() Todo {
	c := t
	c.Tags = append(make([]string, 0, len(t.Tags)), t.Tags...)
	c.CompletedAt = cloneTime(t.CompletedAt)
	c.ModifiedAt = cloneTime(t.ModifiedAt)
	c.DueDate = cloneTime(t.DueDate)
	return c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// Draft carries the form fields for a new todo
type Draft struct {
	Text      string
	Category  string
	Priority  Priority
	DueDate   *time.Time
	Tags      []string
	Completed bool
}

// Patch holds the fields to merge into an existing todo. nil means unchanged.
type Patch struct {
	Text      *string
	Completed *bool
	Category  *string
	Priority  *Priority
	DueDate   **time.Time // non-nil pointer to nil clears the due date
	Tags      *[]string
}

// Apply merges the patch into t
func (p Patch) Apply(t *Todo) {
	if p.Text != nil {
		t.Text = *p.Text
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Priority != nil {
		t.Priority = p.Priority.Normalize()
	}
	if p.DueDate != nil {
		t.DueDate = cloneTime(*p.DueDate)
	}
	if p.Tags != nil {
		t.Tags = append([]string{}, (*p.Tags)...)
	}
}

// Categories is the suggestion list offered by the form. Todos may carry any category.
var Categories = []string{"Work", "Personal", "Shopping", "Health", "Other"}

// DefaultCategory is preselected on the add form
const DefaultCategory = "Work"

// ParseTags splits a comma separated tag string, dropping blank entries
func ParseTags(raw string) []string {
	tags := []string{}
	for _, part := range strings.Split(raw, ",") {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// User is the signed-in identity
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// Credentials are sent to the login endpoint
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Registration is collected by the sign-up form
type Registration struct {
	Username        string
	Name            string
	Password        string
	ConfirmPassword string
}
