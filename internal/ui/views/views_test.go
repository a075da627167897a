package views

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/todo/internal/db"
	"github.com/tgienger/todo/internal/localstore"
	"github.com/tgienger/todo/internal/logging"
	"github.com/tgienger/todo/internal/models"
	"github.com/tgienger/todo/internal/store"
)

type fakeSession struct {
	user        *models.User
	loginErr    error
	registered  []models.Registration
	logoutCalls int
}

func (f *fakeSession) IsAuthenticated() bool     { return f.user != nil }
func (f *fakeSession) CurrentUser() *models.User { return f.user }

func (f *fakeSession) Login(_ context.Context, username, _ string) error {
	if f.loginErr != nil {
		return f.loginErr
	}
	f.user = &models.User{ID: "u1", Username: username}
	return nil
}

func (f *fakeSession) Register(_ context.Context, reg models.Registration) error {
	f.registered = append(f.registered, reg)
	if reg.Password != reg.ConfirmPassword {
		return errors.New("Passwords do not match")
	}
	f.user = &models.User{ID: "u1", Username: reg.Username, Name: reg.Name}
	return nil
}

func (f *fakeSession) Logout(context.Context) error {
	f.logoutCalls++
	f.user = nil
	return nil
}

func (f *fakeSession) Refresh(context.Context) (*models.User, error) {
	return f.user, nil
}

func (f *fakeSession) DeleteAccount(context.Context) error {
	return errors.New("Account deletion is not supported by this server")
}

func newGuestStore(t *testing.T, sess store.Session) *store.Store {
	t.Helper()
	kv, err := db.New(filepath.Join(t.TempDir(), "todo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })
	return store.New(localstore.New(kv, "todos"), store.NewRemote(nil, logging.Discard()), sess,
		store.WithLogger(logging.Discard()))
}

// staticCursors stops blink commands, which would otherwise block press
func staticCursors(inputs ...*textinput.Model) {
	for _, in := range inputs {
		in.Cursor.SetMode(cursor.CursorStatic)
	}
}

func newListView(t *testing.T) (*TodoListView, *store.Store) {
	t.Helper()
	sess := &fakeSession{}
	st := newGuestStore(t, sess)
	v := NewTodoListView(context.Background(), st, sess)
	staticCursors(&v.searchInput, &v.editText, &v.editCategory, &v.editDue, &v.editTags)
	v.Update(tea.WindowSizeMsg{Width: 80, Height: 40})
	v.Update(v.Init()())
	return v, st
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press sends a key and feeds the resulting message back, like the runtime
func press(v tea.Model, k tea.KeyMsg) tea.Msg {
	_, cmd := v.Update(k)
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if _, ok := msg.(tea.BatchMsg); ok {
		return nil
	}
	v.Update(msg)
	return msg
}

func addTodo(t *testing.T, v *TodoListView, text string) {
	t.Helper()
	press(v, runes("n"))
	require.True(t, v.editing)
	press(v, runes(text))
	press(v, tea.KeyMsg{Type: tea.KeyCtrlS})
	require.False(t, v.editing, v.formErr)
}

func TestToggleOfVanishedTodoReportsFailure(t *testing.T) {
	v, st := newListView(t)
	addTodo(t, v, "Gone soon")
	require.Len(t, v.todos, 1)

	// removed behind the view's back, the row is still on screen
	st.Delete(context.Background(), v.todos[0].ID)
	require.Len(t, v.todos, 1)

	press(v, tea.KeyMsg{Type: tea.KeySpace})
	assert.Equal(t, "Could not save todo", v.status)
	assert.True(t, v.statusErr)
	assert.Empty(t, v.todos)
}

func TestTodoListAddToggleDelete(t *testing.T) {
	v, st := newListView(t)

	addTodo(t, v, "Buy milk")
	require.Len(t, v.todos, 1)
	assert.Equal(t, "Buy milk", v.todos[0].Text)
	assert.Equal(t, models.DefaultCategory, v.todos[0].Category)
	assert.Equal(t, models.PriorityMedium, v.todos[0].Priority)
	assert.Equal(t, "Todo added", v.status)

	press(v, tea.KeyMsg{Type: tea.KeySpace})
	assert.Equal(t, 1, st.CompletedCount())
	assert.True(t, v.todos[0].Completed)

	press(v, runes("d"))
	require.True(t, v.confirmingDelete)
	press(v, runes("n"))
	assert.False(t, v.confirmingDelete)
	assert.Equal(t, 1, st.TotalCount())

	press(v, runes("d"))
	press(v, runes("y"))
	assert.Equal(t, 0, st.TotalCount())
	assert.Empty(t, v.todos)
}

func TestTodoFormValidation(t *testing.T) {
	v, st := newListView(t)

	press(v, runes("n"))
	press(v, tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.True(t, v.editing)
	assert.Equal(t, "Text is required", v.formErr)

	press(v, runes("Dentist"))
	for v.editFocusIdx != fieldDue {
		press(v, tea.KeyMsg{Type: tea.KeyTab})
	}
	press(v, runes("next week"))
	press(v, tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.True(t, v.editing)
	assert.Equal(t, "Due date must be YYYY-MM-DD", v.formErr)
	assert.Equal(t, 0, st.TotalCount())
}

func TestTodoFormAllFields(t *testing.T) {
	v, st := newListView(t)

	press(v, runes("n"))
	press(v, runes("Dentist"))
	press(v, tea.KeyMsg{Type: tea.KeyTab})
	v.editCategory.SetValue("")
	press(v, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, models.Categories[0], v.editCategory.Value())
	press(v, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, models.Categories[1], v.editCategory.Value())

	press(v, tea.KeyMsg{Type: tea.KeyTab})
	press(v, tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, models.PriorityHigh, v.editPriority)

	press(v, tea.KeyMsg{Type: tea.KeyTab})
	press(v, runes("2026-12-01"))
	press(v, tea.KeyMsg{Type: tea.KeyTab})
	press(v, runes("health, Teeth ,"))
	press(v, tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, fieldSave, v.editFocusIdx)
	press(v, tea.KeyMsg{Type: tea.KeyEnter})

	require.Equal(t, 1, st.TotalCount())
	got := st.List()[0]
	assert.Equal(t, "Dentist", got.Text)
	assert.Equal(t, models.Categories[1], got.Category)
	assert.Equal(t, models.PriorityHigh, got.Priority)
	require.NotNil(t, got.DueDate)
	assert.Equal(t, "2026-12-01", got.DueDate.Format(dueLayout))
	assert.Equal(t, models.ParseTags("health, Teeth ,"), got.Tags)

	// editing keeps the id and clears the due date
	press(v, runes("e"))
	require.True(t, v.editing)
	assert.Equal(t, got.ID, v.editingID)
	assert.Equal(t, "2026-12-01", v.editDue.Value())
	v.editDue.SetValue("")
	press(v, tea.KeyMsg{Type: tea.KeyCtrlS})
	updated, ok := st.Get(got.ID)
	require.True(t, ok)
	assert.Nil(t, updated.DueDate)
	assert.NotNil(t, updated.ModifiedAt)
}

func TestFilterDropdownIsMultiSelect(t *testing.T) {
	v, st := newListView(t)
	ctx := context.Background()
	st.Add(ctx, models.Draft{Text: "A", Category: "Work", Priority: models.PriorityHigh})
	st.Add(ctx, models.Draft{Text: "B", Category: "Personal", Priority: models.PriorityLow})
	st.Add(ctx, models.Draft{Text: "C", Category: "Shopping", Priority: models.PriorityHigh})
	v.refresh()
	require.Len(t, v.todos, 3)

	press(v, runes("f"))
	require.True(t, v.dropdownOpen)
	opts := v.dropdownOptions()
	assert.Equal(t, store.All, opts[0])

	select1 := func(name string) {
		for i, o := range v.dropdownOptions() {
			if o == name {
				v.dropdownCursor = i
			}
		}
		press(v, tea.KeyMsg{Type: tea.KeySpace})
	}
	select1("Work")
	select1("Shopping")
	assert.True(t, v.dropdownOpen, "dropdown stays open for multi-select")
	assert.Len(t, v.todos, 2)
	press(v, tea.KeyMsg{Type: tea.KeyEsc})

	press(v, runes("p"))
	select1("Low")
	assert.Empty(t, v.todos)
	select1("Low")
	select1("High")
	require.Len(t, v.todos, 2)
	assert.Equal(t, "A", v.todos[0].Text)
	assert.Equal(t, "C", v.todos[1].Text)
	press(v, tea.KeyMsg{Type: tea.KeyEsc})

	press(v, runes("R"))
	assert.Len(t, v.todos, 3)
	assert.Empty(t, v.filter.Criteria().Categories)
}

func TestSearchFiltersAsYouType(t *testing.T) {
	v, st := newListView(t)
	ctx := context.Background()
	st.Add(ctx, models.Draft{Text: "Buy Groceries", Category: "Shopping"})
	st.Add(ctx, models.Draft{Text: "Write report", Category: "Work"})
	v.refresh()

	press(v, runes("/"))
	require.Equal(t, FocusSearchInput, v.focus)
	press(v, runes("buy"))
	require.Len(t, v.todos, 1)
	assert.Equal(t, "Buy Groceries", v.todos[0].Text)

	// hotkeys are typed, not executed, while searching
	press(v, runes("q"))
	assert.Equal(t, "buyq", v.searchInput.Value())
	assert.Empty(t, v.todos)

	press(v, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, FocusTodoList, v.focus)
}

func TestClearCompletedConfirm(t *testing.T) {
	v, st := newListView(t)
	ctx := context.Background()
	a := st.Add(ctx, models.Draft{Text: "a"})
	st.Add(ctx, models.Draft{Text: "b"})
	st.Toggle(ctx, a.ID)
	v.refresh()

	press(v, runes("C"))
	require.True(t, v.confirmingClear)
	press(v, runes("y"))
	assert.Equal(t, 1, st.TotalCount())
	assert.Equal(t, "Cleared 1 completed", v.status)

	// nothing to clear, no prompt
	press(v, runes("C"))
	assert.False(t, v.confirmingClear)
}

func TestLoginKeyOnlyForGuests(t *testing.T) {
	v, _ := newListView(t)
	assert.IsType(t, ShowLogin{}, press(v, runes("L")))

	v.session.(*fakeSession).user = &models.User{Username: "alice"}
	assert.Nil(t, press(v, runes("L")))
	assert.Contains(t, v.View(), "alice")
}

func TestAuthViewLogin(t *testing.T) {
	sess := &fakeSession{loginErr: errors.New("Invalid username or password")}
	v := NewAuthView(context.Background(), sess, ModeLogin)
	staticCursors(&v.inputs[0], &v.inputs[1])

	press(v, runes("alice"))
	press(v, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, 1, v.focusIdx)
	press(v, runes("wrong"))
	press(v, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, "Invalid username or password", v.err)
	assert.False(t, v.busy)

	sess.loginErr = nil
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	_, cmd = v.Update(cmd())
	require.NotNil(t, cmd)
	assert.Equal(t, AuthChanged{Notice: "Signed in"}, cmd())
	assert.Equal(t, "alice", sess.user.Username)
}

func TestAuthViewRegister(t *testing.T) {
	sess := &fakeSession{}
	v := NewAuthView(context.Background(), sess, ModeRegister)
	for i := range v.inputs {
		staticCursors(&v.inputs[i])
	}

	for _, s := range []string{"bob", "Bob", "secret1", "secret2"} {
		press(v, runes(s))
		press(v, tea.KeyMsg{Type: tea.KeyTab})
	}
	require.Equal(t, 4, v.focusIdx)
	press(v, tea.KeyMsg{Type: tea.KeyEnter})
	require.Len(t, sess.registered, 1)
	assert.Equal(t, models.Registration{
		Username: "bob", Name: "Bob", Password: "secret1", ConfirmPassword: "secret2",
	}, sess.registered[0])
	assert.Equal(t, "Passwords do not match", v.err)
	assert.NotContains(t, v.View(), "secret1", "passwords are masked")
}

func TestAccountView(t *testing.T) {
	sess := &fakeSession{user: &models.User{Username: "alice", Name: "Alice", CreatedAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)}}
	v := NewAccountView(context.Background(), sess)
	v.Update(v.Init()())
	assert.Contains(t, v.View(), "alice")

	press(v, runes("D"))
	require.True(t, v.confirmingDelete)
	press(v, runes("y"))
	assert.Contains(t, v.err, "not supported")
	assert.True(t, sess.IsAuthenticated())

	_, cmd := v.Update(runes("o"))
	require.NotNil(t, cmd)
	assert.Equal(t, AuthChanged{Notice: "Signed out"}, cmd())
	assert.Equal(t, 1, sess.logoutCalls)
	assert.False(t, sess.IsAuthenticated())
}

func TestCycleHelpers(t *testing.T) {
	assert.Equal(t, models.PriorityHigh, cyclePriority(models.PriorityLow, -1))
	assert.Equal(t, models.PriorityLow, cyclePriority(models.PriorityHigh, 1))
	assert.Equal(t, models.PriorityHigh, cyclePriority(models.PriorityMedium, 1))

	cats := []string{"Work", "Home"}
	assert.Equal(t, "Work", cycleCategory(cats, "custom", 1))
	assert.Equal(t, "Home", cycleCategory(cats, "custom", -1))
	assert.Equal(t, "Work", cycleCategory(cats, "Home", 1))
	assert.Equal(t, "x", cycleCategory(nil, "x", 1))
}
