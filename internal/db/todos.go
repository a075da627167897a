package db

import (
	"database/sql"
	"time"

	"github.com/tgienger/todo/internal/models"
)

const todoColumns = `id, title, completed, category, priority, due_date, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTodo(row rowScanner) (models.Todo, error) {
	var (
		t        models.Todo
		priority string
		due      sql.NullTime
		updated  time.Time
	)
	if err := row.Scan(&t.ID, &t.Text, &t.Completed, &t.Category, &priority, &due, &t.CreatedAt, &updated); err != nil {
		return t, err
	}
	t.Priority, _ = models.ParsePriority(priority)
	if due.Valid {
		d := due.Time
		t.DueDate = &d
	}
	t.ModifiedAt = &updated
	return t, nil
}

// CreateTodo creates a todo owned by userID
func (db *DB) CreateTodo(userID string, t models.Todo) (*models.Todo, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		INSERT INTO todos (user_id, title, completed, category, priority, due_date)
		VALUES (?, ?, ?, ?, ?, ?)
	`, userID, t.Text, t.Completed, t.Category, string(t.Priority.Normalize()), utcPtr(t.DueDate))
	if err != nil {
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	if err := setTodoTags(tx, id, t.Tags); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return db.GetTodo(userID, id)
}

// GetTodo retrieves a todo by ID with its tags
func (db *DB) GetTodo(userID string, id int64) (*models.Todo, error) {
	t, err := scanTodo(db.QueryRow(`
		SELECT `+todoColumns+` FROM todos WHERE id = ? AND user_id = ?
	`, id, userID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	tags, err := db.GetTodoTags(id)
	if err != nil {
		return nil, err
	}
	t.Tags = tags

	return &t, nil
}

// ListTodos returns all todos for a user in creation order
func (db *DB) ListTodos(userID string) ([]models.Todo, error) {
	rows, err := db.Query(`
		SELECT `+todoColumns+`
		FROM todos
		WHERE user_id = ?
		ORDER BY id ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	todos := []models.Todo{}
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		todos = append(todos, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Load tags for each todo
	for i := range todos {
		tags, err := db.GetTodoTags(todos[i].ID)
		if err != nil {
			return nil, err
		}
		todos[i].Tags = tags
	}

	return todos, nil
}

// UpdateTodo writes every column of t. Returns ErrNotFound if the user doesn't own it.
func (db *DB) UpdateTodo(userID string, t models.Todo) (*models.Todo, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		UPDATE todos SET title = ?, completed = ?, category = ?, priority = ?, due_date = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND user_id = ?
	`, t.Text, t.Completed, t.Category, string(t.Priority.Normalize()), utcPtr(t.DueDate), t.ID, userID)
	if err != nil {
		return nil, err
	}
	if n, err := result.RowsAffected(); err != nil {
		return nil, err
	} else if n == 0 {
		return nil, ErrNotFound
	}
	if err := setTodoTags(tx, t.ID, t.Tags); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return db.GetTodo(userID, t.ID)
}

// DeleteTodo deletes a todo. Deleting a missing todo is not an error.
func (db *DB) DeleteTodo(userID string, id int64) error {
	_, err := db.Exec("DELETE FROM todos WHERE id = ? AND user_id = ?", id, userID)
	return err
}

func utcPtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
