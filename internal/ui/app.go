package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"

	"github.com/tgienger/todo/internal/store"
	"github.com/tgienger/todo/internal/ui/views"
)

// Currently active view
type View int

const (
	ViewTodos View = iota
	ViewLogin
	ViewRegister
	ViewAccount
)

type App struct {
	ctx         context.Context
	store       *store.Store
	session     views.Session
	logger      log.FieldLogger
	currentView View
	todoList    *views.TodoListView
	auth        *views.AuthView
	account     *views.AccountView
	width       int
	height      int
}

// Creates a new application
func NewApp(ctx context.Context, st *store.Store, sess views.Session, logger log.FieldLogger) *App {
	return &App{
		ctx:         ctx,
		store:       st,
		session:     sess,
		logger:      logger,
		currentView: ViewTodos,
		todoList:    views.NewTodoListView(ctx, st, sess),
	}
}

func (a *App) Init() tea.Cmd {
	return a.todoList.Init()
}

// CurrentView reports which screen is showing
func (a *App) CurrentView() View {
	return a.currentView
}

func (a *App) resize() tea.Cmd {
	return func() tea.Msg {
		return tea.WindowSizeMsg{Width: a.width, Height: a.height}
	}
}

func (a *App) showAuth(mode views.AuthMode, notice string) tea.Cmd {
	a.currentView = ViewLogin
	if mode == views.ModeRegister {
		a.currentView = ViewRegister
	}
	a.auth = views.NewAuthView(a.ctx, a.session, mode)
	a.auth.SetNotice(notice)
	return tea.Batch(a.auth.Init(), a.resize())
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Always update the todo list size since it persists
		a.todoList.Update(msg)

	case views.ShowLogin:
		return a, a.showAuth(views.ModeLogin, msg.Notice)

	case views.ShowRegister:
		return a, a.showAuth(views.ModeRegister, "")

	case views.ShowAccount:
		// the account screen needs a session
		if !a.session.IsAuthenticated() {
			return a, a.showAuth(views.ModeLogin, "Sign in to view your account")
		}
		a.currentView = ViewAccount
		a.account = views.NewAccountView(a.ctx, a.session)
		return a, tea.Batch(a.account.Init(), a.resize())

	case views.ShowTodos:
		a.currentView = ViewTodos
		a.auth, a.account = nil, nil
		return a, a.resize()

	case views.AuthChanged:
		// the store follows the session, so reload from the new backend
		a.logger.WithField("authenticated", a.session.IsAuthenticated()).Info("auth state changed")
		a.currentView = ViewTodos
		a.auth, a.account = nil, nil
		a.todoList.SetStatus(msg.Notice)
		return a, tea.Batch(a.todoList.Reload(), a.resize())
	}

	var cmd tea.Cmd
	switch a.currentView {
	case ViewTodos:
		_, cmd = a.todoList.Update(msg)
	case ViewLogin, ViewRegister:
		if a.auth != nil {
			_, cmd = a.auth.Update(msg)
		}
	case ViewAccount:
		if a.account != nil {
			_, cmd = a.account.Update(msg)
		}
	}

	return a, cmd
}

func (a *App) View() string {
	switch a.currentView {
	case ViewLogin, ViewRegister:
		if a.auth != nil {
			return a.auth.View()
		}
	case ViewAccount:
		if a.account != nil {
			return a.account.View()
		}
	}
	return a.todoList.View()
}
