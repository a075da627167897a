package store

import "github.com/tgienger/todo/internal/models"

// TotalCount is the number of todos
func (s *Store) TotalCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.todos)
}

// ActiveCount is the number of todos not yet completed
func (s *Store) ActiveCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeLocked()
}

// CompletedCount is the number of completed todos
func (s *Store) CompletedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.todos) - s.activeLocked()
}

func (s *Store) activeLocked() int {
	n := 0
	for _, t := range s.todos {
		if !t.Completed {
			n++
		}
	}
	return n
}

// CountByCategory counts todos per category
func (s *Store) CountByCategory() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[string]int)
	for _, t := range s.todos {
		counts[t.Category]++
	}
	return counts
}

// CountByPriority counts todos per priority
func (s *Store) CountByPriority() map[models.Priority]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[models.Priority]int, len(models.Priorities))
	for _, t := range s.todos {
		counts[t.Priority.Normalize()]++
	}
	return counts
}

// Categories returns the suggestion list followed by any other category in
// use, in first-seen order
func (s *Store) Categories() []string {
	out := append([]string{}, models.Categories...)
	seen := make(map[string]bool, len(out))
	for _, c := range out {
		seen[c] = true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.todos {
		if t.Category == "" || seen[t.Category] {
			continue
		}
		seen[t.Category] = true
		out = append(out, t.Category)
	}
	return out
}

// Priorities returns the priority enumeration in ascending order
func (s *Store) Priorities() []models.Priority {
	return append([]models.Priority{}, models.Priorities...)
}
