package store

import (
	"slices"
	"strings"
	"sync"

	"github.com/tgienger/todo/internal/models"
)

// All is the selection sentinel that clears a category or priority filter
const All = "All"

// Criteria are the three independent filters. An empty selection disables
// that filter.
type Criteria struct {
	Search     string
	Categories []string
	Priorities []models.Priority
}

// Match reports whether t passes every filter
func (c Criteria) Match(t models.Todo) bool {
	if len(c.Categories) > 0 && !slices.Contains(c.Categories, t.Category) {
		return false
	}
	if len(c.Priorities) > 0 && !slices.Contains(c.Priorities, t.Priority.Normalize()) {
		return false
	}
	if strings.TrimSpace(c.Search) != "" {
		if !strings.Contains(strings.ToLower(t.Text), strings.ToLower(c.Search)) {
			return false
		}
	}
	return true
}

// Filter returns the todos matching c, in their original order
func Filter(todos []models.Todo, c Criteria) []models.Todo {
	out := make([]models.Todo, 0, len(todos))
	for _, t := range todos {
		if c.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// Source is what a View reads from
type Source interface {
	List() []models.Todo
	Version() uint64
}

// View is the filtered subsequence of a store's list. The result is
// recomputed on read whenever the list or any filter input changed.
type View struct {
	src Source

	mu           sync.Mutex
	criteria     Criteria
	inputVersion uint64
	cached       []models.Todo
	cachedSrc    uint64
	cachedInput  uint64
	valid        bool
}

// NewView creates a view with every filter disabled
func NewView(src Source) *View {
	return &View{src: src}
}

// SetSearch sets the free-text query
func (v *View) SetSearch(q string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.criteria.Search == q {
		return
	}
	v.criteria.Search = q
	v.inputVersion++
}

// ToggleCategory adds or removes a category from the selection. All clears it.
func (v *View) ToggleCategory(name string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if name == All {
		v.criteria.Categories = nil
	} else {
		v.criteria.Categories = toggle(v.criteria.Categories, name)
	}
	v.inputVersion++
}

// TogglePriority adds or removes a priority from the selection. All clears it.
func (v *View) TogglePriority(name string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if name == All {
		v.criteria.Priorities = nil
	} else {
		p, ok := models.ParsePriority(name)
		if !ok {
			return
		}
		v.criteria.Priorities = toggle(v.criteria.Priorities, p)
	}
	v.inputVersion++
}

// Reset disables every filter
func (v *View) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.criteria = Criteria{}
	v.inputVersion++
}

// Criteria returns a copy of the current filter inputs
func (v *View) Criteria() Criteria {
	v.mu.Lock()
	defer v.mu.Unlock()
	return Criteria{
		Search:     v.criteria.Search,
		Categories: slices.Clone(v.criteria.Categories),
		Priorities: slices.Clone(v.criteria.Priorities),
	}
}

// Todos returns the filtered list
func (v *View) Todos() []models.Todo {
	v.mu.Lock()
	defer v.mu.Unlock()

	srcVersion := v.src.Version()
	if !v.valid || srcVersion != v.cachedSrc || v.inputVersion != v.cachedInput {
		v.cached = Filter(v.src.List(), v.criteria)
		v.cachedSrc = srcVersion
		v.cachedInput = v.inputVersion
		v.valid = true
	}
	out := make([]models.Todo, len(v.cached))
	for i, t := range v.cached {
		out[i] = t.Clone()
	}
	return out
}

func toggle[T comparable](set []T, v T) []T {
	if i := slices.Index(set, v); i >= 0 {
		return slices.Delete(slices.Clone(set), i, i+1)
	}
	return append(slices.Clone(set), v)
}
