package models

import (
	"strings"

	"github.com/bytedance/sonic"
)

// Priority is one of Low, Medium or High
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Priorities lists every priority in ascending order
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

var priorityColors = map[Priority]string{
	PriorityLow:    "#a9b1d6",
	PriorityMedium: "#e0af68",
	PriorityHigh:   "#f7768e",
}

// ParsePriority matches a priority by name, ignoring case
func ParsePriority(s string) (Priority, bool) {
	for _, p := range Priorities {
		if strings.EqualFold(strings.TrimSpace(s), string(p)) {
			return p, true
		}
	}
	return PriorityMedium, false
}

// Normalize coerces anything outside the enumeration to Medium
func (p Priority) Normalize() Priority {
	n, _ := ParsePriority(string(p))
	return n
}

// Label is the display label
func (p Priority) Label() string { return string(p.Normalize()) }

// Color is a hex color hint for rendering
func (p Priority) Color() string { return priorityColors[p.Normalize()] }

type priorityJSON struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Color string `json:"color"`
}

// MarshalJSON writes the value together with its label and color hint
func (p Priority) MarshalJSON() ([]byte, error) {
	n := p.Normalize()
	return sonic.Marshal(priorityJSON{Value: string(n), Label: n.Label(), Color: n.Color()})
}

// UnmarshalJSON accepts either the object form or a bare string.
// Malformed or missing values decode to Medium.
func (p *Priority) UnmarshalJSON(data []byte) error {
	var s string
	if err := sonic.Unmarshal(data, &s); err == nil {
		*p, _ = ParsePriority(s)
		return nil
	}
	var obj priorityJSON
	if err := sonic.Unmarshal(data, &obj); err != nil {
		*p = PriorityMedium
		return nil
	}
	*p, _ = ParsePriority(obj.Value)
	return nil
}
