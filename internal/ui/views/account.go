package views

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/todo/internal/ui/keys"
	"github.com/tgienger/todo/internal/ui/styles"
)

type accountRefreshedMsg struct {
	err error
}

type accountErrMsg struct {
	err error
}

// AccountView shows the signed-in user
type AccountView struct {
	ctx     context.Context
	session Session
	styles  *styles.Styles
	keys    keys.KeyMap

	width  int
	height int

	busy             bool
	err              string
	confirmingDelete bool
}

// NewAccountView creates the account view
func NewAccountView(ctx context.Context, sess Session) *AccountView {
	return &AccountView{
		ctx:     ctx,
		session: sess,
		styles:  styles.NewStyles(),
		keys:    keys.DefaultKeyMap(),
	}
}

// Init re-fetches the profile
func (v *AccountView) Init() tea.Cmd {
	return v.refresh()
}

func (v *AccountView) refresh() tea.Cmd {
	v.busy = true
	return func() tea.Msg {
		_, err := v.session.Refresh(v.ctx)
		return accountRefreshedMsg{err: err}
	}
}

func (v *AccountView) logout() tea.Cmd {
	return func() tea.Msg {
		// Logout always clears local state, the error is informational
		_ = v.session.Logout(v.ctx)
		return AuthChanged{Notice: "Signed out"}
	}
}

// Update handles messages
func (v *AccountView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		return v, nil

	case accountRefreshedMsg:
		v.busy = false
		if msg.err != nil {
			if !v.session.IsAuthenticated() {
				return v, func() tea.Msg {
					return AuthChanged{Notice: "Session expired. Please sign in again."}
				}
			}
			v.err = msg.err.Error()
		}
		return v, nil

	case accountErrMsg:
		v.err = msg.err.Error()
		return v, nil

	case tea.KeyMsg:
		if v.confirmingDelete {
			switch msg.String() {
			case "y", "Y":
				v.confirmingDelete = false
				return v, func() tea.Msg {
					if err := v.session.DeleteAccount(v.ctx); err != nil {
						return accountErrMsg{err: err}
					}
					return AuthChanged{Notice: "Account deleted"}
				}
			case "n", "N", "esc":
				v.confirmingDelete = false
			}
			return v, nil
		}

		switch {
		case key.Matches(msg, v.keys.Back):
			return v, func() tea.Msg { return ShowTodos{} }
		case key.Matches(msg, v.keys.Quit):
			return v, tea.Quit
		case key.Matches(msg, v.keys.Refresh):
			v.err = ""
			return v, v.refresh()
		case key.Matches(msg, v.keys.Logout):
			return v, v.logout()
		case msg.String() == "D":
			v.err = ""
			v.confirmingDelete = true
		}
	}

	return v, nil
}

// View renders the account details
func (v *AccountView) View() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	u := v.session.CurrentUser()
	if u == nil {
		return s.TitleMuted.Render("Not signed in")
	}

	name := u.Name
	if name == "" {
		name = "-"
	}
	since := "-"
	if !u.CreatedAt.IsZero() {
		since = u.CreatedAt.Local().Format("Jan 2, 2006")
	}

	row := func(label, value string) string {
		return s.TitleMuted.Width(14).Render(label) + s.TodoText.Render(value)
	}

	lines := []string{
		s.Title.Render("Account"),
		"",
		row("Username", u.Username),
		row("Name", name),
		row("Member since", since),
	}
	if v.busy {
		lines = append(lines, "", s.TitleMuted.Render("Refreshing..."))
	}
	if v.err != "" {
		lines = append(lines, "", s.Error.Render(v.err))
	}
	if v.confirmingDelete {
		lines = append(lines, "",
			s.Error.Render(fmt.Sprintf("Delete account %q? (y/n)", u.Username)))
	}
	lines = append(lines, "", s.Help.Render(fmt.Sprintf("%s refresh • %s sign out • %s delete account • %s back",
		s.HelpKey.Render("r"),
		s.HelpKey.Render("o"),
		s.HelpKey.Render("D"),
		s.HelpKey.Render("esc"),
	)))

	content := s.Panel.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
	return styles.CenterView(centered, v.width, v.height)
}
