package views

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/todo/internal/models"
	"github.com/tgienger/todo/internal/store"
	"github.com/tgienger/todo/internal/ui/keys"
	"github.com/tgienger/todo/internal/ui/styles"
)

// clamp returns val clamped between minVal and maxVal
func clamp(val, minVal, maxVal int) int {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

// FocusArea represents which part of the UI has focus
type FocusArea int

const (
	FocusSearchInput FocusArea = iota
	FocusCategoryFilter
	FocusPriorityFilter
	FocusTodoList
)

const focusAreas = 4

// edit form fields, in tab order
const (
	fieldText = iota
	fieldCategory
	fieldPriority
	fieldDue
	fieldTags
	fieldSave
	fieldCount
)

const dueLayout = "2006-01-02"

// TodoListView is the main screen: stats, filters and the todo list
type TodoListView struct {
	ctx     context.Context
	store   *store.Store
	filter  *store.View
	session Session
	styles  *styles.Styles
	keys    keys.KeyMap
	now     func() time.Time

	width  int
	height int

	todos     []models.Todo
	loaded    bool
	status    string
	statusErr bool

	// UI state
	focus       FocusArea
	cursor      int
	scrollY     int
	searchInput textinput.Model

	// Filter dropdown state (category or priority, depending on focus)
	dropdownOpen   bool
	dropdownCursor int

	// Todo creation/editing
	editing      bool
	editingID    int64 // 0 = new todo
	editText     textinput.Model
	editCategory textinput.Model
	editDue      textinput.Model
	editTags     textinput.Model
	editPriority models.Priority
	editFocusIdx int
	formErr      string

	// Confirmations
	confirmingDelete bool
	deleteTargetID   int64
	deleteTargetName string
	confirmingClear  bool

	// Help popup (shown with ? at narrow widths)
	showHelpPopup bool
}

// NewTodoListView creates the todo list view
func NewTodoListView(ctx context.Context, st *store.Store, sess Session) *TodoListView {
	search := textinput.New()
	search.Placeholder = "Search..."
	search.CharLimit = 100

	editText := textinput.New()
	editText.Placeholder = "What needs to be done?"
	editText.CharLimit = 200

	editCategory := textinput.New()
	editCategory.Placeholder = models.DefaultCategory
	editCategory.CharLimit = 40

	editDue := textinput.New()
	editDue.Placeholder = "YYYY-MM-DD"
	editDue.CharLimit = 10

	editTags := textinput.New()
	editTags.Placeholder = "comma, separated, tags"
	editTags.CharLimit = 200

	return &TodoListView{
		ctx:          ctx,
		store:        st,
		filter:       store.NewView(st),
		session:      sess,
		styles:       styles.NewStyles(),
		keys:         keys.DefaultKeyMap(),
		now:          time.Now,
		focus:        FocusTodoList,
		searchInput:  search,
		editText:     editText,
		editCategory: editCategory,
		editDue:      editDue,
		editTags:     editTags,
		editPriority: models.PriorityMedium,
	}
}

type todosLoadedMsg struct {
	err error
}

type todosChangedMsg struct {
	status string
	err    bool
}

// Init loads the list from the active backend
func (v *TodoListView) Init() tea.Cmd {
	return v.Reload()
}

// Reload re-reads the list, e.g. after signing in or out
func (v *TodoListView) Reload() tea.Cmd {
	return func() tea.Msg {
		return todosLoadedMsg{err: v.store.Reload(v.ctx)}
	}
}

func (v *TodoListView) addTodo(d models.Draft) tea.Cmd {
	return func() tea.Msg {
		if v.store.Add(v.ctx, d) == nil {
			return todosChangedMsg{status: "Could not save todo", err: true}
		}
		return todosChangedMsg{status: "Todo added"}
	}
}

func (v *TodoListView) updateTodo(id int64, p models.Patch) tea.Cmd {
	return func() tea.Msg {
		if !v.store.Update(v.ctx, id, p) {
			return todosChangedMsg{status: "Could not save todo", err: true}
		}
		return todosChangedMsg{status: "Todo updated"}
	}
}

func (v *TodoListView) toggleTodo(id int64) tea.Cmd {
	return func() tea.Msg {
		if !v.store.Toggle(v.ctx, id) {
			return todosChangedMsg{status: "Could not save todo", err: true}
		}
		return todosChangedMsg{}
	}
}

func (v *TodoListView) deleteTodo(id int64) tea.Cmd {
	return func() tea.Msg {
		v.store.Delete(v.ctx, id)
		return todosChangedMsg{status: "Todo deleted"}
	}
}

func (v *TodoListView) clearCompleted() tea.Cmd {
	return func() tea.Msg {
		n := v.store.CompletedCount()
		v.store.ClearCompleted(v.ctx)
		return todosChangedMsg{status: fmt.Sprintf("Cleared %d completed", n)}
	}
}

// SetStatus shows a notice under the list
func (v *TodoListView) SetStatus(status string) {
	v.status, v.statusErr = status, false
}

// refresh pulls the filtered list and keeps the cursor in range
func (v *TodoListView) refresh() {
	v.todos = v.filter.Todos()
	if v.cursor >= len(v.todos) {
		v.cursor = max(0, len(v.todos)-1)
	}
	v.ensureVisible()
}

func (v *TodoListView) selected() (models.Todo, bool) {
	if v.focus != FocusTodoList || len(v.todos) == 0 || v.cursor >= len(v.todos) {
		return models.Todo{}, false
	}
	return v.todos[v.cursor], true
}

// Update handles messages
func (v *TodoListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		return v, nil

	case todosLoadedMsg:
		v.loaded = true
		if msg.err != nil {
			v.status, v.statusErr = "Could not load todos: "+msg.err.Error(), true
		}
		v.refresh()
		return v, nil

	case todosChangedMsg:
		if msg.status != "" {
			v.status, v.statusErr = msg.status, msg.err
		}
		v.refresh()
		return v, nil

	case tea.KeyMsg:
		// Handle help popup first - any key closes it
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}

		if v.confirmingDelete {
			return v.updateConfirmDelete(msg)
		}

		if v.confirmingClear {
			return v.updateConfirmClear(msg)
		}

		if v.editing {
			return v.updateEditing(msg)
		}

		if v.dropdownOpen {
			return v.updateDropdown(msg)
		}

		return v.updateNormal(msg)
	}

	return v, nil
}

func (v *TodoListView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Don't process hotkeys while typing a search
	if v.focus == FocusSearchInput {
		switch {
		case key.Matches(msg, v.keys.Back), key.Matches(msg, v.keys.Enter):
			v.searchInput.Blur()
			v.focus = FocusTodoList
			return v, nil
		case key.Matches(msg, v.keys.Tab):
			v.cycleFocus(1)
			return v, nil
		default:
			var cmd tea.Cmd
			v.searchInput, cmd = v.searchInput.Update(msg)
			v.filter.SetSearch(v.searchInput.Value())
			v.cursor, v.scrollY = 0, 0
			v.refresh()
			return v, cmd
		}
	}

	switch {
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit

	case key.Matches(msg, v.keys.Back):
		v.focus = FocusTodoList
		v.status = ""
		return v, nil

	case key.Matches(msg, v.keys.Tab):
		v.cycleFocus(1)
		return v, nil

	case msg.String() == "shift+tab":
		v.cycleFocus(-1)
		return v, nil

	case key.Matches(msg, v.keys.Up):
		if v.focus == FocusTodoList && v.cursor > 0 {
			v.cursor--
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.Down):
		if v.focus == FocusTodoList && v.cursor < len(v.todos)-1 {
			v.cursor++
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		switch v.focus {
		case FocusCategoryFilter, FocusPriorityFilter:
			v.dropdownOpen = true
			v.dropdownCursor = 0
		case FocusTodoList:
			if t, ok := v.selected(); ok {
				v.startEdit(t)
				return v, textinput.Blink
			}
		}
		return v, nil

	case key.Matches(msg, v.keys.Toggle):
		if t, ok := v.selected(); ok {
			return v, v.toggleTodo(t.ID)
		}
		return v, nil

	case key.Matches(msg, v.keys.Edit):
		if t, ok := v.selected(); ok {
			v.startEdit(t)
			return v, textinput.Blink
		}
		return v, nil

	case key.Matches(msg, v.keys.New):
		v.startNew()
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Delete):
		if t, ok := v.selected(); ok {
			v.confirmingDelete = true
			v.deleteTargetID = t.ID
			v.deleteTargetName = t.Text
		}
		return v, nil

	case key.Matches(msg, v.keys.Search):
		v.focus = FocusSearchInput
		v.searchInput.Focus()
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Category):
		v.focus = FocusCategoryFilter
		v.dropdownOpen = true
		v.dropdownCursor = 0
		return v, nil

	case key.Matches(msg, v.keys.Priority):
		v.focus = FocusPriorityFilter
		v.dropdownOpen = true
		v.dropdownCursor = 0
		return v, nil

	case key.Matches(msg, v.keys.ResetFilters):
		v.filter.Reset()
		v.searchInput.Reset()
		v.cursor, v.scrollY = 0, 0
		v.refresh()
		return v, nil

	case key.Matches(msg, v.keys.ClearCompleted):
		if v.store.CompletedCount() > 0 {
			v.confirmingClear = true
		}
		return v, nil

	case key.Matches(msg, v.keys.Login):
		if !v.session.IsAuthenticated() {
			return v, func() tea.Msg { return ShowLogin{} }
		}
		return v, nil

	case key.Matches(msg, v.keys.Account):
		return v, func() tea.Msg { return ShowAccount{} }

	case key.Matches(msg, v.keys.Help):
		v.showHelpPopup = true
		return v, nil
	}

	return v, nil
}

// dropdownOptions lists the entries of the open filter dropdown, All first
func (v *TodoListView) dropdownOptions() []string {
	opts := []string{store.All}
	if v.focus == FocusPriorityFilter {
		for _, p := range v.store.Priorities() {
			opts = append(opts, string(p))
		}
		return opts
	}
	return append(opts, v.store.Categories()...)
}

func (v *TodoListView) optionSelected(opt string) bool {
	c := v.filter.Criteria()
	if v.focus == FocusPriorityFilter {
		if opt == store.All {
			return len(c.Priorities) == 0
		}
		return slices.Contains(c.Priorities, models.Priority(opt))
	}
	if opt == store.All {
		return len(c.Categories) == 0
	}
	return slices.Contains(c.Categories, opt)
}

func (v *TodoListView) updateDropdown(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	opts := v.dropdownOptions()

	switch {
	case key.Matches(msg, v.keys.Back):
		v.dropdownOpen = false
		return v, nil

	case key.Matches(msg, v.keys.Up):
		if v.dropdownCursor > 0 {
			v.dropdownCursor--
		}
		return v, nil

	case key.Matches(msg, v.keys.Down):
		if v.dropdownCursor < len(opts)-1 {
			v.dropdownCursor++
		}
		return v, nil

	case key.Matches(msg, v.keys.Enter), key.Matches(msg, v.keys.Toggle):
		if v.dropdownCursor >= len(opts) {
			return v, nil
		}
		opt := opts[v.dropdownCursor]
		if v.focus == FocusPriorityFilter {
			v.filter.TogglePriority(opt)
		} else {
			v.filter.ToggleCategory(opt)
		}
		v.cursor, v.scrollY = 0, 0
		v.refresh()
		return v, nil
	}

	return v, nil
}

func (v *TodoListView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		v.confirmingDelete = false
		return v, v.deleteTodo(v.deleteTargetID)
	case "n", "N", "esc":
		v.confirmingDelete = false
		return v, nil
	}
	return v, nil
}

func (v *TodoListView) updateConfirmClear(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		v.confirmingClear = false
		return v, v.clearCompleted()
	case "n", "N", "esc":
		v.confirmingClear = false
		return v, nil
	}
	return v, nil
}

func (v *TodoListView) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.editing = false
		return v, nil

	case key.Matches(msg, v.keys.Save):
		return v, v.saveTodo()

	case key.Matches(msg, v.keys.Tab):
		v.editFocusIdx = (v.editFocusIdx + 1) % fieldCount
		v.updateEditFocus()
		return v, nil

	case msg.String() == "shift+tab":
		v.editFocusIdx = (v.editFocusIdx + fieldCount - 1) % fieldCount
		v.updateEditFocus()
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		if v.editFocusIdx == fieldSave {
			return v, v.saveTodo()
		}
		v.editFocusIdx++
		v.updateEditFocus()
		return v, nil
	}

	switch v.editFocusIdx {
	case fieldPriority:
		// the priority field is a selector, not a text input
		switch {
		case key.Matches(msg, v.keys.Left), key.Matches(msg, v.keys.Up):
			v.editPriority = cyclePriority(v.editPriority, -1)
		case key.Matches(msg, v.keys.Right), key.Matches(msg, v.keys.Down), key.Matches(msg, v.keys.Toggle):
			v.editPriority = cyclePriority(v.editPriority, 1)
		}
		return v, nil

	case fieldCategory:
		// up/down cycle through known categories
		switch {
		case msg.Type == tea.KeyUp:
			v.editCategory.SetValue(cycleCategory(v.store.Categories(), v.editCategory.Value(), -1))
			v.editCategory.CursorEnd()
			return v, nil
		case msg.Type == tea.KeyDown:
			v.editCategory.SetValue(cycleCategory(v.store.Categories(), v.editCategory.Value(), 1))
			v.editCategory.CursorEnd()
			return v, nil
		}
	}

	var cmd tea.Cmd
	switch v.editFocusIdx {
	case fieldText:
		v.editText, cmd = v.editText.Update(msg)
	case fieldCategory:
		v.editCategory, cmd = v.editCategory.Update(msg)
	case fieldDue:
		v.editDue, cmd = v.editDue.Update(msg)
	case fieldTags:
		v.editTags, cmd = v.editTags.Update(msg)
	}
	return v, cmd
}

func cyclePriority(p models.Priority, dir int) models.Priority {
	all := models.Priorities
	i := slices.Index(all, p.Normalize())
	return all[(i+dir+len(all))%len(all)]
}

func cycleCategory(cats []string, current string, dir int) string {
	if len(cats) == 0 {
		return current
	}
	i := slices.Index(cats, current)
	if i < 0 {
		if dir > 0 {
			return cats[0]
		}
		return cats[len(cats)-1]
	}
	return cats[(i+dir+len(cats))%len(cats)]
}

func (v *TodoListView) cycleFocus(dir int) {
	v.searchInput.Blur()
	v.focus = FocusArea((int(v.focus) + dir + focusAreas) % focusAreas)
	if v.focus == FocusSearchInput {
		v.searchInput.Focus()
	}
}

// visibleItems is how many two-line todo items fit under the header
func (v *TodoListView) visibleItems() int {
	availableHeight := max(v.height-14, 3)
	return max(availableHeight/3, 1)
}

func (v *TodoListView) ensureVisible() {
	visible := v.visibleItems()
	if v.cursor < v.scrollY {
		v.scrollY = v.cursor
	} else if v.cursor >= v.scrollY+visible {
		v.scrollY = v.cursor - visible + 1
	}
}

func (v *TodoListView) startNew() {
	v.editing = true
	v.editingID = 0
	v.editFocusIdx = fieldText
	v.formErr = ""
	v.editText.Reset()
	v.editCategory.SetValue(models.DefaultCategory)
	v.editPriority = models.PriorityMedium
	v.editDue.Reset()
	v.editTags.Reset()
	v.updateEditFocus()
}

func (v *TodoListView) startEdit(t models.Todo) {
	v.editing = true
	v.editingID = t.ID
	v.editFocusIdx = fieldText
	v.formErr = ""
	v.editText.SetValue(t.Text)
	v.editCategory.SetValue(t.Category)
	v.editPriority = t.Priority.Normalize()
	v.editDue.Reset()
	if t.DueDate != nil {
		v.editDue.SetValue(t.DueDate.Format(dueLayout))
	}
	v.editTags.SetValue(strings.Join(t.Tags, ", "))
	v.updateEditFocus()
}

func (v *TodoListView) updateEditFocus() {
	v.editText.Blur()
	v.editCategory.Blur()
	v.editDue.Blur()
	v.editTags.Blur()

	switch v.editFocusIdx {
	case fieldText:
		v.editText.Focus()
	case fieldCategory:
		v.editCategory.Focus()
	case fieldDue:
		v.editDue.Focus()
	case fieldTags:
		v.editTags.Focus()
	}
}

// saveTodo validates the form and dispatches the add or update
func (v *TodoListView) saveTodo() tea.Cmd {
	text := strings.TrimSpace(v.editText.Value())
	if text == "" {
		v.formErr = "Text is required"
		return nil
	}

	var due *time.Time
	if raw := strings.TrimSpace(v.editDue.Value()); raw != "" {
		d, err := time.ParseInLocation(dueLayout, raw, time.Local)
		if err != nil {
			v.formErr = "Due date must be YYYY-MM-DD"
			return nil
		}
		due = &d
	}

	category := strings.TrimSpace(v.editCategory.Value())
	if category == "" {
		category = models.DefaultCategory
	}
	tags := models.ParseTags(v.editTags.Value())
	priority := v.editPriority.Normalize()

	v.editing = false
	v.formErr = ""

	if v.editingID == 0 {
		return v.addTodo(models.Draft{
			Text:     text,
			Category: category,
			Priority: priority,
			DueDate:  due,
			Tags:     tags,
		})
	}
	return v.updateTodo(v.editingID, models.Patch{
		Text:     &text,
		Category: &category,
		Priority: &priority,
		DueDate:  &due,
		Tags:     &tags,
	})
}

// View renders the view
func (v *TodoListView) View() string {
	if v.showHelpPopup {
		return v.renderHelpPopup()
	}

	if v.confirmingDelete {
		return v.renderConfirm("Delete Todo?", v.deleteTargetName)
	}

	if v.confirmingClear {
		return v.renderConfirm("Clear Completed?",
			fmt.Sprintf("%d completed todos will be removed", v.store.CompletedCount()))
	}

	if v.editing {
		return v.renderEditForm()
	}

	if !v.loaded {
		return v.styles.TitleMuted.Render("Loading...")
	}

	var b strings.Builder
	b.WriteString(v.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(v.renderTodoList())
	b.WriteString("\n")
	if v.status != "" {
		style := v.styles.Notice
		if v.statusErr {
			style = v.styles.Error
		}
		b.WriteString("\n  " + style.Render(v.status))
	}
	b.WriteString(v.renderHelp())

	return styles.CenterView(b.String(), v.width, v.height)
}

func (v *TodoListView) renderHeader() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	isNarrow := contentWidth < 60

	who := "Guest"
	if u := v.session.CurrentUser(); u != nil {
		who = u.Name
		if who == "" {
			who = u.Username
		}
	}
	title := lipgloss.JoinHorizontal(lipgloss.Top,
		s.Title.Render("Todos"),
		"  ",
		s.TitleMuted.Render(who),
	)

	stats := s.Stats.Render(fmt.Sprintf("%d total • %d active • %d completed",
		v.store.TotalCount(), v.store.ActiveCount(), v.store.CompletedCount()))

	searchStyle := s.Input
	if v.focus == FocusSearchInput {
		searchStyle = s.InputFocused
	}
	searchWidth := clamp(contentWidth-8, 10, 26)
	searchBox := searchStyle.Width(searchWidth).Render(v.searchInput.View())

	c := v.filter.Criteria()
	catLabel := store.All
	if len(c.Categories) > 0 {
		catLabel = strings.Join(c.Categories, ",")
	}
	prioLabel := store.All
	if len(c.Priorities) > 0 {
		names := make([]string, len(c.Priorities))
		for i, p := range c.Priorities {
			names[i] = p.Label()
		}
		prioLabel = strings.Join(names, ",")
	}
	if !isNarrow {
		catLabel = "Category: " + catLabel
		prioLabel = "Priority: " + prioLabel
	}

	catStyle, prioStyle := s.Button, s.Button
	switch v.focus {
	case FocusCategoryFilter:
		catStyle = s.ButtonFocused
	case FocusPriorityFilter:
		prioStyle = s.ButtonFocused
	}
	catBtn := catStyle.Render(catLabel + " ▼")
	prioBtn := prioStyle.Render(prioLabel + " ▼")

	var controls string
	if isNarrow {
		controls = lipgloss.JoinVertical(lipgloss.Left, searchBox, catBtn, prioBtn)
	} else {
		controls = lipgloss.JoinHorizontal(lipgloss.Center, searchBox, " ", catBtn, " ", prioBtn)
	}

	dropdown := ""
	if v.dropdownOpen {
		dropdown = "\n" + v.renderDropdown()
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, stats, controls+dropdown)
}

func (v *TodoListView) renderDropdown() string {
	s := v.styles
	var items []string
	for i, opt := range v.dropdownOptions() {
		itemStyle := s.ListItem
		if i == v.dropdownCursor {
			itemStyle = s.ListSelected
		}
		checkbox := "[ ]"
		if v.optionSelected(opt) {
			checkbox = "[x]"
		}
		label := opt
		if v.focus == FocusPriorityFilter && opt != store.All {
			label = s.Priority(models.Priority(opt)).Render(opt)
		}
		items = append(items, itemStyle.Render(checkbox+" "+label))
	}
	items = append(items, s.TitleMuted.Render("space: toggle • esc: close"))
	return s.Panel.Render(lipgloss.JoinVertical(lipgloss.Left, items...))
}

func (v *TodoListView) renderTodoList() string {
	s := v.styles

	if len(v.todos) == 0 {
		if v.store.TotalCount() == 0 {
			return s.TitleMuted.Render("No todos yet. Press 'n' to add one.")
		}
		return s.TitleMuted.Render("No todos match the current filters. Press 'R' to reset.")
	}

	var items []string
	endIdx := min(v.scrollY+v.visibleItems(), len(v.todos))
	for i := v.scrollY; i < endIdx; i++ {
		items = append(items, v.renderTodoItem(v.todos[i], i == v.cursor && v.focus == FocusTodoList))
	}
	if hidden := len(v.todos) - endIdx; hidden > 0 {
		items = append(items, s.TitleMuted.Render(fmt.Sprintf("  … %d more", hidden)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, items...)
}

func (v *TodoListView) renderTodoItem(t models.Todo, selected bool) string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	width := max(contentWidth-4, 20)

	check := "[ ]"
	textStyle := s.TodoText
	if t.Completed {
		check = "[x]"
		textStyle = s.TodoCompleted
	}
	titleLine := check + " " + textStyle.Render(t.Text)

	meta := []string{s.Priority(t.Priority).Render(t.Priority.Label())}
	if t.Category != "" {
		meta = append(meta, s.Category.Render(t.Category))
	}
	for _, tag := range t.Tags {
		meta = append(meta, s.Tag.Render("#"+tag))
	}
	if t.DueDate != nil {
		dueStyle := s.Due
		if !t.Completed && t.DueDate.Before(startOfDay(v.now())) {
			dueStyle = s.Overdue
		}
		meta = append(meta, dueStyle.Render("due "+t.DueDate.Format("Jan 2")))
	}
	metaLine := "    " + strings.Join(meta, " · ")

	itemStyle := s.ListItem
	if selected {
		itemStyle = s.ListSelected
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		itemStyle.Width(width).Render(titleLine),
		itemStyle.Width(width).Render(metaLine),
	) + "\n"
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func (v *TodoListView) renderEditForm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	formTitle := "New Todo"
	if v.editingID != 0 {
		formTitle = "Edit Todo"
	}

	fieldStyle := func(idx int) lipgloss.Style {
		if v.editFocusIdx == idx {
			return s.InputFocused
		}
		return s.Input
	}
	btnStyle := s.Button
	if v.editFocusIdx == fieldSave {
		btnStyle = s.ButtonFocused
	}

	inputWidth := clamp(contentWidth-6, 20, 50)

	var prios []string
	for _, p := range models.Priorities {
		label := p.Label()
		if p == v.editPriority {
			label = s.Priority(p).Underline(true).Render("● " + label)
		} else {
			label = s.TitleMuted.Render("○ " + label)
		}
		prios = append(prios, label)
	}

	lines := []string{
		s.Title.Render(formTitle),
		"",
		"Text:",
		fieldStyle(fieldText).Width(inputWidth).Render(v.editText.View()),
		"Category (↑↓ suggestions):",
		fieldStyle(fieldCategory).Width(inputWidth).Render(v.editCategory.View()),
		"Priority (←→):",
		fieldStyle(fieldPriority).Width(inputWidth).Render(strings.Join(prios, "  ")),
		"Due date:",
		fieldStyle(fieldDue).Width(inputWidth).Render(v.editDue.View()),
		"Tags:",
		fieldStyle(fieldTags).Width(inputWidth).Render(v.editTags.View()),
		"",
		btnStyle.Render(" Save "),
	}
	if v.formErr != "" {
		lines = append(lines, "", s.Error.Render(v.formErr))
	}
	lines = append(lines, "", s.TitleMuted.Render("Tab: next • Ctrl+S: save • Esc: cancel"))

	form := lipgloss.JoinVertical(lipgloss.Left, lines...)
	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		form,
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *TodoListView) renderHelp() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	// At narrow widths, show hint to press ? for help
	if contentWidth > 0 && contentWidth < 50 {
		return s.Help.Render(s.HelpKey.Render("?") + " help")
	}

	accountKey, accountLabel := "L", "sign in"
	if v.session.IsAuthenticated() {
		accountKey, accountLabel = "u", "account"
	}

	return s.Help.Render(
		fmt.Sprintf("%s toggle • %s new • %s edit • %s del • %s search • %s category • %s priority • %s clear done • %s %s • %s quit",
			s.HelpKey.Render("space"),
			s.HelpKey.Render("n"),
			s.HelpKey.Render("e"),
			s.HelpKey.Render("d"),
			s.HelpKey.Render("/"),
			s.HelpKey.Render("f"),
			s.HelpKey.Render("p"),
			s.HelpKey.Render("C"),
			s.HelpKey.Render(accountKey),
			accountLabel,
			s.HelpKey.Render("q"),
		),
	)
}

func (v *TodoListView) renderHelpPopup() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	helpItems := []string{
		s.HelpKey.Render("space") + "  toggle completed",
		s.HelpKey.Render("n") + "      new todo",
		s.HelpKey.Render("e") + "      edit todo",
		s.HelpKey.Render("d") + "      delete todo",
		s.HelpKey.Render("/") + "      search",
		s.HelpKey.Render("f") + "      filter by category",
		s.HelpKey.Render("p") + "      filter by priority",
		s.HelpKey.Render("R") + "      reset filters",
		s.HelpKey.Render("C") + "      clear completed",
		s.HelpKey.Render("L") + "      sign in",
		s.HelpKey.Render("u") + "      account",
		s.HelpKey.Render("q") + "      quit",
		"",
		s.TitleMuted.Render("Press any key to close"),
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		append([]string{s.Title.Render("Keyboard Shortcuts"), ""}, helpItems...)...,
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		s.Panel.Render(content),
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *TodoListView) renderConfirm(title, detail string) string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Foreground(styles.Current.Late).Render(title),
		"",
		s.TitleMuted.Render(detail),
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			s.ButtonPrimary.Render(" Y - Yes "),
			"  ",
			s.Button.Render(" N - No "),
		),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
	return styles.CenterView(centered, v.width, v.height)
}
