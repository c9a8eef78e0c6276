package cli

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sadopc/ctxstore/internal/store"
	"github.com/sadopc/ctxstore/internal/timeparse"
)

// minIDPrefix is the shortest id prefix accepted in place of a full id.
const minIDPrefix = 4

func newTodoCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "todo",
		Aliases: []string{"todos"},
		Short:   "Manage todos",
	}
	cmd.AddCommand(
		newTodoAddCmd(e),
		newTodoListCmd(e),
		newTodoStaleCmd(e),
		newTodoSnoozeCmd(e),
		newTodoActionCmd(e, "done", "Mark todos completed", "Completed", (*store.Store).CompleteTodo),
		newTodoActionCmd(e, "archive", "Archive todos", "Archived", (*store.Store).ArchiveTodo),
		newTodoActionCmd(e, "unsnooze", "Clear the snooze on todos", "Unsnoozed", (*store.Store).UnsnoozeTodo),
		newTodoRmCmd(e),
	)
	return cmd
}

func newTodoAddCmd(e *env) *cobra.Command {
	var (
		priority    int
		description string
		due         string
		deadline    string
		tags        []string
		category    string
		source      string
		sourceID    string
		period      string
		asJSON      bool
	)
	cmd := &cobra.Command{
		Use:   "add <title...>",
		Short: "Create a todo",
		Long: `Create a todo. Due dates accept YYYY-MM-DD, compact offsets such as +3d
and natural language such as "next friday".

Examples:
  ctxstore todo add Review the caching RFC -p 2 --due friday
  ctxstore todo add "Reply to vendor" --source email --tag vendor`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if priority < store.MinPriority || priority > store.MaxPriority {
				return fmt.Errorf("priority must be between %d and %d, got %d", store.MinPriority, store.MaxPriority, priority)
			}
			src := store.TodoSource(source)
			if !src.Valid() {
				return fmt.Errorf("invalid source %q", source)
			}
			in := store.Todo{
				Title:    strings.TrimSpace(strings.Join(args, " ")),
				Priority: priority,
				Source:   &src,
				Tags:     tags,
			}
			if in.Title == "" {
				return errors.New("title must not be empty")
			}
			if description != "" {
				in.Description = &description
			}
			if sourceID != "" {
				in.SourceID = &sourceID
			}
			if period != "" {
				in.SummaryPeriod = &period
			}
			if category != "" {
				c := store.TodoCategory(category)
				if !c.Valid() {
					return fmt.Errorf("invalid category %q", category)
				}
				in.Category = &c
			}
			now := e.now()
			for _, df := range []struct {
				raw string
				dst **string
			}{{due, &in.DueDate}, {deadline, &in.Deadline}} {
				if df.raw == "" {
					continue
				}
				d, err := timeparse.ParseDate(df.raw, now)
				if err != nil {
					return err
				}
				*df.dst = &d
			}

			return e.withStore(func(st *store.Store) error {
				td, err := st.CreateTodo(in)
				if err != nil {
					return err
				}
				if asJSON {
					return e.printJSON(td)
				}
				e.printf("%s Created todo %s: %s\n", green("✓"), shortID(td.ID), td.Title)
				if td.DueDate != nil {
					e.printf("  Due: %s\n", *td.DueDate)
				}
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.IntVarP(&priority, "priority", "p", store.DefaultPriority, "priority, 1 (highest) to 5")
	f.StringVarP(&description, "description", "d", "", "longer description")
	f.StringVar(&due, "due", "", "due date")
	f.StringVar(&deadline, "deadline", "", "hard deadline")
	f.StringSliceVarP(&tags, "tag", "t", nil, "tag (repeatable)")
	f.StringVar(&category, "category", "", "engineering, management, communication or admin")
	f.StringVar(&source, "source", string(store.SourceManual), "where the todo came from")
	f.StringVar(&sourceID, "source-id", "", "id of the item in its source system")
	f.StringVar(&period, "period", "", "summary period the todo belongs to")
	f.BoolVar(&asJSON, "json", false, "print the created todo as JSON")
	return cmd
}

func newTodoListCmd(e *env) *cobra.Command {
	var (
		statuses []string
		all      bool
		snoozed  bool
		sources  []string
		period   string
		limit    int
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List todos, most important first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := store.TodoFilter{ExcludeSnoozed: !snoozed, Limit: limit}
			if !all {
				for _, s := range statuses {
					st := store.TodoStatus(s)
					if !st.Valid() {
						return fmt.Errorf("invalid status %q", s)
					}
					f.Status = append(f.Status, st)
				}
			}
			for _, s := range sources {
				src := store.TodoSource(s)
				if !src.Valid() {
					return fmt.Errorf("invalid source %q", s)
				}
				f.Source = append(f.Source, src)
			}
			if period != "" {
				f.SummaryPeriod = &period
			}

			return e.withStore(func(st *store.Store) error {
				todos, err := st.ListTodos(f)
				if err != nil {
					return err
				}
				if asJSON {
					return e.printJSON(orEmpty(todos))
				}
				e.printTodos(todos)
				return nil
			})
		},
	}
	fl := cmd.Flags()
	fl.StringSliceVar(&statuses, "status", []string{string(store.StatusPending), string(store.StatusInProgress)}, "statuses to include")
	fl.BoolVarP(&all, "all", "a", false, "include every status")
	fl.BoolVar(&snoozed, "snoozed", false, "include snoozed todos")
	fl.StringSliceVar(&sources, "source", nil, "only todos from these sources")
	fl.StringVar(&period, "period", "", "only todos in this summary period")
	fl.IntVarP(&limit, "limit", "n", 50, "maximum number of todos (0 for no limit)")
	fl.BoolVar(&asJSON, "json", false, "print todos as JSON")
	return cmd
}

func newTodoStaleCmd(e *env) *cobra.Command {
	var (
		days int
		mark bool
	)
	cmd := &cobra.Command{
		Use:   "stale",
		Short: "List open todos that have not been touched recently",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if days < 1 {
				return fmt.Errorf("days must be positive, got %d", days)
			}
			cutoff := e.now().AddDate(0, 0, -days)
			return e.withStore(func(st *store.Store) error {
				todos, err := st.ListStaleTodos(cutoff)
				if err != nil {
					return err
				}
				e.printTodos(todos)
				if !mark || len(todos) == 0 {
					return nil
				}
				ids := make([]string, len(todos))
				for i, td := range todos {
					ids[i] = td.ID
				}
				n, err := st.MarkTodosStaleNotified(ids)
				if err != nil {
					return err
				}
				e.printf("%s Marked %d todo(s) as notified\n", green("✓"), n)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", 7, "untouched for at least this many days")
	cmd.Flags().BoolVar(&mark, "mark", false, "record that these todos were reported")
	return cmd
}

func newTodoSnoozeCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "snooze <id> <until...>",
		Short: "Hide a todo until a later time",
		Long: `Hide a todo from the default list until the given time.

Examples:
  ctxstore todo snooze 3f2a tomorrow 9am
  ctxstore todo snooze 3f2a +3d`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			now := e.now()
			until, err := timeparse.Parse(strings.Join(args[1:], " "), now)
			if err != nil {
				return err
			}
			if !until.After(now) {
				return fmt.Errorf("snooze time %s is not in the future", until.Local().Format(time.RFC1123))
			}
			return e.withStore(func(st *store.Store) error {
				id, err := resolveTodoID(st, args[0])
				if err != nil {
					return err
				}
				td, err := st.SnoozeTodo(id, until)
				if err != nil {
					return err
				}
				if td == nil {
					return fmt.Errorf("todo %q not found", args[0])
				}
				e.printf("%s Snoozed %s until %s\n", yellow("⏾"), td.Title, until.Local().Format("Mon Jan 2 15:04"))
				return nil
			})
		},
	}
}

// newTodoActionCmd builds a command that applies op to every id argument.
func newTodoActionCmd(e *env, use, short, verb string, op func(*store.Store, string) (*store.Todo, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id...>",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withStore(func(st *store.Store) error {
				var errs []error
				for _, arg := range args {
					id, err := resolveTodoID(st, arg)
					if err != nil {
						errs = append(errs, err)
						continue
					}
					td, err := op(st, id)
					if err != nil {
						errs = append(errs, err)
						continue
					}
					if td == nil {
						errs = append(errs, fmt.Errorf("todo %q not found", arg))
						continue
					}
					e.printf("%s %s %s\n", green("✓"), verb, td.Title)
				}
				return errors.Join(errs...)
			})
		},
	}
}

func newTodoRmCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id...>",
		Aliases: []string{"delete"},
		Short:   "Delete todos permanently",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withStore(func(st *store.Store) error {
				ids := make([]string, 0, len(args))
				for _, arg := range args {
					id, err := resolveTodoID(st, arg)
					if err != nil {
						return err
					}
					ids = append(ids, id)
				}
				n, err := st.BulkDeleteTodos(ids)
				if err != nil {
					return err
				}
				e.printf("%s Deleted %d todo(s)\n", green("✓"), n)
				return nil
			})
		},
	}
}

// resolveTodoID accepts a full id or a unique prefix of at least
// minIDPrefix characters.
func resolveTodoID(st *store.Store, arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	td, err := st.GetTodo(arg)
	if err != nil {
		return "", err
	}
	if td != nil {
		return td.ID, nil
	}
	if len(arg) < minIDPrefix {
		return "", fmt.Errorf("todo %q not found", arg)
	}

	todos, err := st.ListTodos(store.TodoFilter{})
	if err != nil {
		return "", err
	}
	var matches []string
	for _, t := range todos {
		if strings.HasPrefix(t.ID, arg) {
			matches = append(matches, t.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("todo %q not found", arg)
	case 1:
		return matches[0], nil
	}
	return "", fmt.Errorf("todo prefix %q is ambiguous (%d matches)", arg, len(matches))
}

// printTodos aligns ID and STATUS with tabwriter. P and DUE have fixed
// widths and are padded before coloring, so escape codes never reach a
// measured cell.
func (e *env) printTodos(todos []store.Todo) {
	if len(todos) == 0 {
		e.printf("No todos found\n")
		return
	}
	now := e.now()
	today := now.Format(timeparse.DateLayout)
	w := tabwriter.NewWriter(e.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\tSTATUS\t%-2s  %-*s  TITLE\n", "P", len(timeparse.DateLayout), "DUE")
	for _, td := range todos {
		due := fmt.Sprintf("%-*s", len(timeparse.DateLayout), "-")
		if td.DueDate != nil {
			due = fmt.Sprintf("%-*s", len(timeparse.DateLayout), *td.DueDate)
			if (td.Status == store.StatusPending || td.Status == store.StatusInProgress) && *td.DueDate < today {
				due = red(due)
			}
		}
		title := td.Title
		if td.Snoozed(now) {
			title += " " + faint("(snoozed until "+td.SnoozedUntil.Local().Format("Jan 2 15:04")+")")
		}
		if len(td.Tags) > 0 {
			title += " " + cyan("["+strings.Join(td.Tags, ", ")+"]")
		}
		fmt.Fprintf(w, "%s\t%s\t%s  %s  %s\n", shortID(td.ID), td.Status, bold(fmt.Sprintf("P%d", td.Priority)), due, title)
	}
	w.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func orEmpty[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}
