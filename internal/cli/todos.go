package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/tgienger/todo/internal/models"
	"github.com/tgienger/todo/internal/store"
	"github.com/tgienger/todo/internal/ui/styles"
)

const dueLayout = "2006-01-02"

var errNotSaved = errors.New("todo was not saved, see the log for details")

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid todo id %q", raw)
	}
	return id, nil
}

func parsePriority(raw string) (models.Priority, error) {
	p, ok := models.ParsePriority(raw)
	if !ok {
		return "", fmt.Errorf("unknown priority %q (want Low, Medium or High)", raw)
	}
	return p, nil
}

func parseDue(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "none") {
		return nil, nil
	}
	d, err := time.ParseInLocation(dueLayout, raw, time.Local)
	if err != nil {
		return nil, fmt.Errorf("due date must be YYYY-MM-DD, got %q", raw)
	}
	return &d, nil
}

// withStore opens the env, loads the list and runs fn
func withStore(cmd *cobra.Command, fn func(e *env) error) error {
	e, err := openEnv(cmd, false)
	if err != nil {
		return err
	}
	defer e.Close()
	if err := e.load(cmd); err != nil {
		return err
	}
	return fn(e)
}

func lookup(e *env, raw string) (models.Todo, error) {
	id, err := parseID(raw)
	if err != nil {
		return models.Todo{}, err
	}
	t, ok := e.store.Get(id)
	if !ok {
		return models.Todo{}, fmt.Errorf("no todo with id %d", id)
	}
	return t, nil
}

func addCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <text>",
		Short: "Add a todo",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.TrimSpace(strings.Join(args, " "))
			if text == "" {
				return errors.New("todo text is required")
			}
			category, _ := cmd.Flags().GetString("category")
			rawPriority, _ := cmd.Flags().GetString("priority")
			rawDue, _ := cmd.Flags().GetString("due")
			tags, _ := cmd.Flags().GetStringSlice("tags")

			priority, err := parsePriority(rawPriority)
			if err != nil {
				return err
			}
			due, err := parseDue(rawDue)
			if err != nil {
				return err
			}
			if strings.TrimSpace(category) == "" {
				category = models.DefaultCategory
			}

			return withStore(cmd, func(e *env) error {
				t := e.store.Add(cmd.Context(), models.Draft{
					Text:     text,
					Category: strings.TrimSpace(category),
					Priority: priority,
					DueDate:  due,
					Tags:     models.ParseTags(strings.Join(tags, ",")),
				})
				if t == nil {
					return errNotSaved
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added #%d: %s\n", t.ID, t.Text)
				return nil
			})
		},
	}

	cmd.Flags().StringP("category", "c", models.DefaultCategory, "category")
	cmd.Flags().StringP("priority", "p", string(models.PriorityMedium), "priority (Low, Medium, High)")
	cmd.Flags().String("due", "", "due date (YYYY-MM-DD)")
	cmd.Flags().StringSliceP("tags", "t", nil, "tags")

	return cmd
}

func listCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List todos",
		Long: `List todos, optionally filtered.

Filters combine: a todo is shown only if it matches the search text and one of
the selected categories and one of the selected priorities.

Examples:
  todo list --search milk
  todo list -c Work -c Personal -p High`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			search, _ := cmd.Flags().GetString("search")
			categories, _ := cmd.Flags().GetStringSlice("category")
			priorities, _ := cmd.Flags().GetStringSlice("priority")
			asJSON, _ := cmd.Flags().GetBool("json")

			for _, p := range priorities {
				if _, err := parsePriority(p); err != nil {
					return err
				}
			}

			return withStore(cmd, func(e *env) error {
				view := store.NewView(e.store)
				view.SetSearch(search)
				for _, c := range categories {
					view.ToggleCategory(c)
				}
				for _, p := range priorities {
					view.TogglePriority(p)
				}
				todos := view.Todos()

				if asJSON {
					out, err := sonic.ConfigStd.MarshalIndent(todos, "", "  ")
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), string(out))
					return nil
				}

				fmt.Fprintf(cmd.OutOrStdout(), "%d total • %d active • %d completed\n",
					e.store.TotalCount(), e.store.ActiveCount(), e.store.CompletedCount())
				if len(todos) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No todos found.")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(todos))
				return nil
			})
		},
	}

	cmd.Flags().StringP("search", "s", "", "case-insensitive text search")
	cmd.Flags().StringSliceP("category", "c", nil, "only these categories")
	cmd.Flags().StringSliceP("priority", "p", nil, "only these priorities")
	cmd.Flags().BoolP("json", "j", false, "output as JSON")

	return cmd
}

func renderTable(todos []models.Todo) string {
	theme := styles.Current
	header := lipgloss.NewStyle().Foreground(theme.Brand).Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)

	rows := make([][]string, 0, len(todos))
	for _, t := range todos {
		done := " "
		if t.Completed {
			done = "x"
		}
		due := ""
		if t.DueDate != nil {
			due = t.DueDate.Format(dueLayout)
		}
		rows = append(rows, []string{
			strconv.FormatInt(t.ID, 10),
			done,
			t.Text,
			t.Category,
			t.Priority.Label(),
			strings.Join(t.Tags, ", "),
			due,
		})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(theme.Edge)).
		Headers("ID", "✓", "TEXT", "CATEGORY", "PRIORITY", "TAGS", "DUE").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			if col == 4 && row >= 0 && row < len(todos) {
				return cell.Foreground(lipgloss.Color(todos[row].Priority.Color()))
			}
			return cell
		}).
		String()
}

func toggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Mark a todo done or not done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(e *env) error {
				t, err := lookup(e, args[0])
				if err != nil {
					return err
				}
				if !e.store.Toggle(cmd.Context(), t.ID) {
					return errNotSaved
				}
				state := "done"
				if t.Completed {
					state = "not done"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Marked #%d %s\n", t.ID, state)
				return nil
			})
		},
	}
}

func editCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a todo's fields",
		Long: `Change a todo's fields. Only the flags you pass are changed.

Use --due none to clear the due date.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var p models.Patch
			flags := cmd.Flags()

			if flags.Changed("text") {
				text, _ := flags.GetString("text")
				text = strings.TrimSpace(text)
				if text == "" {
					return errors.New("todo text is required")
				}
				p.Text = &text
			}
			if flags.Changed("category") {
				category, _ := flags.GetString("category")
				category = strings.TrimSpace(category)
				p.Category = &category
			}
			if flags.Changed("priority") {
				raw, _ := flags.GetString("priority")
				priority, err := parsePriority(raw)
				if err != nil {
					return err
				}
				p.Priority = &priority
			}
			if flags.Changed("due") {
				raw, _ := flags.GetString("due")
				due, err := parseDue(raw)
				if err != nil {
					return err
				}
				p.DueDate = &due
			}
			if flags.Changed("tags") {
				raw, _ := flags.GetStringSlice("tags")
				tags := models.ParseTags(strings.Join(raw, ","))
				p.Tags = &tags
			}
			if p == (models.Patch{}) {
				return errors.New("nothing to change, pass at least one flag")
			}

			return withStore(cmd, func(e *env) error {
				t, err := lookup(e, args[0])
				if err != nil {
					return err
				}
				if !e.store.Update(cmd.Context(), t.ID, p) {
					return errNotSaved
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated #%d\n", t.ID)
				return nil
			})
		},
	}

	cmd.Flags().String("text", "", "new text")
	cmd.Flags().StringP("category", "c", "", "new category")
	cmd.Flags().StringP("priority", "p", "", "new priority (Low, Medium, High)")
	cmd.Flags().String("due", "", "new due date (YYYY-MM-DD or none)")
	cmd.Flags().StringSliceP("tags", "t", nil, "replace tags")

	return cmd
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a todo",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(e *env) error {
				t, err := lookup(e, args[0])
				if err != nil {
					return err
				}
				e.store.Delete(cmd.Context(), t.ID)
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted #%d: %s\n", t.ID, t.Text)
				return nil
			})
		},
	}
}

func clearCompletedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear-completed",
		Short: "Delete every completed todo",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd, func(e *env) error {
				n := e.store.CompletedCount()
				e.store.ClearCompleted(cmd.Context())
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d completed\n", n)
				return nil
			})
		},
	}
}
