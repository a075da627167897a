package styles

import (
	"sort"

	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/todo/internal/models"
)

// Palette is a named set of colors the styles are built from
type Palette struct {
	Name string

	Base  lipgloss.Color // screen background, text on filled buttons
	Text  lipgloss.Color
	Muted lipgloss.Color

	Brand     lipgloss.Color // titles, focused controls, key hints
	Category  lipgloss.Color
	Highlight lipgloss.Color // stats and tags

	Done lipgloss.Color
	Late lipgloss.Color

	Edge       lipgloss.Color
	EdgeActive lipgloss.Color
	Cursor     lipgloss.Color
}

// Palettes are the built-in themes, keyed by config name
var Palettes = map[string]Palette{
	"tokyo-night": {
		Name:       "Tokyo Night",
		Base:       "#1a1b26",
		Text:       "#c0caf5",
		Muted:      "#565f89",
		Brand:      "#7aa2f7",
		Category:   "#bb9af7",
		Highlight:  "#7dcfff",
		Done:       "#9ece6a",
		Late:       "#f7768e",
		Edge:       "#3b4261",
		EdgeActive: "#7aa2f7",
		Cursor:     "#33467c",
	},
	"light": {
		Name:       "Paper",
		Base:       "#fafafa",
		Text:       "#383a42",
		Muted:      "#a0a1a7",
		Brand:      "#4078f2",
		Category:   "#a626a4",
		Highlight:  "#0184bc",
		Done:       "#50a14f",
		Late:       "#e45649",
		Edge:       "#d3d3d8",
		EdgeActive: "#4078f2",
		Cursor:     "#e5e5e6",
	},
}

// DefaultPalette is used when the configured theme is unknown
const DefaultPalette = "tokyo-night"

// Current holds the active palette
var Current = Palettes[DefaultPalette]

// Use switches the active palette. Unknown names keep the current one.
func Use(name string) bool {
	p, ok := Palettes[name]
	if ok {
		Current = p
	}
	return ok
}

// PaletteNames lists the theme names accepted by Use
func PaletteNames() []string {
	names := make([]string, 0, len(Palettes))
	for n := range Palettes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// MaxWidth caps the layout at a classic terminal width
const MaxWidth = 80

// ContentWidth is the width views lay out for
func ContentWidth(terminalWidth int) int {
	return min(terminalWidth, MaxWidth)
}

// CenterView puts the layout in the middle of wide terminals
func CenterView(content string, terminalWidth, terminalHeight int) string {
	if terminalWidth > MaxWidth {
		content = lipgloss.Place(terminalWidth, terminalHeight, lipgloss.Center, lipgloss.Top, content)
	}
	return content
}

// Styles holds all the pre-computed styles for the UI
type Styles struct {
	Title      lipgloss.Style
	TitleMuted lipgloss.Style
	Stats      lipgloss.Style

	ListItem     lipgloss.Style
	ListSelected lipgloss.Style
	Panel        lipgloss.Style

	Button        lipgloss.Style
	ButtonFocused lipgloss.Style
	ButtonPrimary lipgloss.Style
	Input         lipgloss.Style
	InputFocused  lipgloss.Style

	TodoText      lipgloss.Style
	TodoCompleted lipgloss.Style
	Category      lipgloss.Style
	Tag           lipgloss.Style
	Due           lipgloss.Style
	Overdue       lipgloss.Style

	Help     lipgloss.Style
	HelpKey  lipgloss.Style
	HelpDesc lipgloss.Style

	Error  lipgloss.Style
	Notice lipgloss.Style
}

func fg(c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}

// framed is a rounded box with horizontal padding
func framed(text, edge lipgloss.Color, pad int) lipgloss.Style {
	return fg(text).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(edge).
		Padding(0, pad)
}

// NewStyles builds styles from the active palette
func NewStyles() *Styles {
	p := Current
	row := fg(p.Text).Padding(0, 2)

	return &Styles{
		Title:      fg(p.Brand).Bold(true),
		TitleMuted: fg(p.Muted),
		Stats:      fg(p.Highlight),

		ListItem:     row,
		ListSelected: row.Foreground(p.Brand).Background(p.Cursor).Bold(true),
		Panel:        framed(p.Text, p.Edge, 1),

		Button:        framed(p.Text, p.Edge, 2),
		ButtonFocused: framed(p.Brand, p.EdgeActive, 2).Bold(true),
		ButtonPrimary: fg(p.Base).Background(p.Brand).Padding(0, 2).Bold(true),
		Input:         framed(p.Text, p.Edge, 1),
		InputFocused:  framed(p.Text, p.EdgeActive, 1),

		TodoText:      fg(p.Text),
		TodoCompleted: fg(p.Muted).Strikethrough(true),
		Category:      fg(p.Category),
		Tag:           fg(p.Highlight),
		Due:           fg(p.Muted),
		Overdue:       fg(p.Late).Bold(true),

		Help:     fg(p.Muted).Padding(1, 2),
		HelpKey:  fg(p.Brand).Bold(true),
		HelpDesc: fg(p.Muted),

		Error:  fg(p.Late),
		Notice: fg(p.Done),
	}
}

// Priority renders a priority label in its color
func (s *Styles) Priority(p models.Priority) lipgloss.Style {
	return fg(lipgloss.Color(p.Color())).Bold(p.Normalize() == models.PriorityHigh)
}
