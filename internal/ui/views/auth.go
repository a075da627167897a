package views

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/todo/internal/models"
	"github.com/tgienger/todo/internal/ui/keys"
	"github.com/tgienger/todo/internal/ui/styles"
)

// Session is the auth state the views read and drive
type Session interface {
	IsAuthenticated() bool
	CurrentUser() *models.User
	Login(ctx context.Context, username, password string) error
	Register(ctx context.Context, reg models.Registration) error
	Logout(ctx context.Context) error
	Refresh(ctx context.Context) (*models.User, error)
	DeleteAccount(ctx context.Context) error
}

// Navigation messages handled by the app
type (
	ShowLogin struct {
		Notice string
	}
	ShowRegister struct{}
	ShowAccount  struct{}
	ShowTodos    struct{}

	// AuthChanged is sent after sign in, sign up or sign out
	AuthChanged struct {
		Notice string
	}
)

// AuthMode selects which form an AuthView shows
type AuthMode int

const (
	ModeLogin AuthMode = iota
	ModeRegister
)

type authResultMsg struct {
	err error
}

// AuthView is the sign in and sign up form
type AuthView struct {
	ctx     context.Context
	session Session
	mode    AuthMode
	styles  *styles.Styles
	keys    keys.KeyMap

	width  int
	height int

	inputs   []textinput.Model
	focusIdx int // len(inputs) is the submit button
	busy     bool
	err      string
	notice   string
}

// NewAuthView creates a login or register form
func NewAuthView(ctx context.Context, sess Session, mode AuthMode) *AuthView {
	newInput := func(placeholder string, secret bool) textinput.Model {
		ti := textinput.New()
		ti.Placeholder = placeholder
		ti.CharLimit = 100
		if secret {
			ti.EchoMode = textinput.EchoPassword
			ti.EchoCharacter = '•'
		}
		return ti
	}

	v := &AuthView{
		ctx:     ctx,
		session: sess,
		mode:    mode,
		styles:  styles.NewStyles(),
		keys:    keys.DefaultKeyMap(),
	}
	if mode == ModeRegister {
		v.inputs = []textinput.Model{
			newInput("Username", false),
			newInput("Display name (optional)", false),
			newInput("Password", true),
			newInput("Confirm password", true),
		}
	} else {
		v.inputs = []textinput.Model{
			newInput("Username", false),
			newInput("Password", true),
		}
	}
	v.inputs[0].Focus()
	return v
}

// SetNotice shows an informational line above the form
func (v *AuthView) SetNotice(notice string) {
	v.notice = notice
}

// Init starts the cursor blink
func (v *AuthView) Init() tea.Cmd {
	return textinput.Blink
}

func (v *AuthView) value(i int) string {
	return v.inputs[i].Value()
}

func (v *AuthView) submit() tea.Cmd {
	if v.busy {
		return nil
	}
	v.busy = true
	v.err = ""

	if v.mode == ModeRegister {
		reg := models.Registration{
			Username:        strings.TrimSpace(v.value(0)),
			Name:            strings.TrimSpace(v.value(1)),
			Password:        v.value(2),
			ConfirmPassword: v.value(3),
		}
		return func() tea.Msg {
			return authResultMsg{err: v.session.Register(v.ctx, reg)}
		}
	}

	username, password := strings.TrimSpace(v.value(0)), v.value(1)
	return func() tea.Msg {
		return authResultMsg{err: v.session.Login(v.ctx, username, password)}
	}
}

func (v *AuthView) updateFocus() {
	for i := range v.inputs {
		if i == v.focusIdx {
			v.inputs[i].Focus()
		} else {
			v.inputs[i].Blur()
		}
	}
}

// Update handles messages
func (v *AuthView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		return v, nil

	case authResultMsg:
		v.busy = false
		if msg.err != nil {
			v.err = msg.err.Error()
			return v, nil
		}
		notice := "Signed in"
		if v.mode == ModeRegister {
			notice = "Account created"
		}
		return v, func() tea.Msg { return AuthChanged{Notice: notice} }

	case tea.KeyMsg:
		fields := len(v.inputs) + 1

		switch {
		case key.Matches(msg, v.keys.Back):
			return v, func() tea.Msg { return ShowTodos{} }

		case msg.String() == "ctrl+c":
			return v, tea.Quit

		case msg.String() == "ctrl+r":
			// switch between sign in and sign up
			if v.mode == ModeLogin {
				return v, func() tea.Msg { return ShowRegister{} }
			}
			return v, func() tea.Msg { return ShowLogin{} }

		case key.Matches(msg, v.keys.Tab), msg.Type == tea.KeyDown:
			v.focusIdx = (v.focusIdx + 1) % fields
			v.updateFocus()
			return v, nil

		case msg.String() == "shift+tab", msg.Type == tea.KeyUp:
			v.focusIdx = (v.focusIdx + fields - 1) % fields
			v.updateFocus()
			return v, nil

		case key.Matches(msg, v.keys.Enter):
			if v.focusIdx < len(v.inputs)-1 {
				v.focusIdx++
				v.updateFocus()
				return v, nil
			}
			return v, v.submit()
		}

		if v.focusIdx < len(v.inputs) {
			var cmd tea.Cmd
			v.inputs[v.focusIdx], cmd = v.inputs[v.focusIdx].Update(msg)
			return v, cmd
		}
	}

	return v, nil
}

// View renders the form
func (v *AuthView) View() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	inputWidth := clamp(contentWidth-6, 20, 40)

	title, button, alt := "Sign In", " Sign In ", "No account? ctrl+r to sign up"
	if v.mode == ModeRegister {
		title, button, alt = "Create Account", " Sign Up ", "Have an account? ctrl+r to sign in"
	}

	lines := []string{s.Title.Render(title), ""}
	if v.notice != "" {
		lines = append(lines, s.Notice.Render(v.notice), "")
	}
	for i, in := range v.inputs {
		style := s.Input
		if i == v.focusIdx {
			style = s.InputFocused
		}
		lines = append(lines, style.Width(inputWidth).Render(in.View()))
	}

	btnStyle := s.Button
	if v.focusIdx == len(v.inputs) {
		btnStyle = s.ButtonFocused
	}
	if v.busy {
		button = " Working... "
	}
	lines = append(lines, "", btnStyle.Render(button))

	if v.err != "" {
		lines = append(lines, "", s.Error.Render(v.err))
	}
	lines = append(lines, "",
		s.TitleMuted.Render(alt),
		s.TitleMuted.Render("Tab: next • Enter: submit • Esc: back"),
	)

	form := lipgloss.JoinVertical(lipgloss.Left, lines...)
	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		form,
	)
	return styles.CenterView(centered, v.width, v.height)
}
