package db

import (
	"database/sql"
	"strings"
)

// GetTodoTags returns the tags of a todo in their original order
func (db *DB) GetTodoTags(todoID int64) ([]string, error) {
	rows, err := db.Query(`
		SELECT name FROM todo_tags WHERE todo_id = ? ORDER BY position
	`, todoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tags = append(tags, name)
	}
	return tags, rows.Err()
}

// setTodoTags replaces the tag list of a todo, skipping blank entries
func setTodoTags(tx *sql.Tx, todoID int64, tags []string) error {
	if _, err := tx.Exec("DELETE FROM todo_tags WHERE todo_id = ?", todoID); err != nil {
		return err
	}
	pos := 0
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, err := tx.Exec(`
			INSERT INTO todo_tags (todo_id, position, name) VALUES (?, ?, ?)
		`, todoID, pos, tag); err != nil {
			return err
		}
		pos++
	}
	return nil
}
