package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sadopc/ctxstore/internal/export"
	"github.com/sadopc/ctxstore/internal/store"
	"github.com/sadopc/ctxstore/internal/timeparse"
)

func newExportCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export todos to CSV or JSON",
	}

	formats := []struct {
		name  string
		write func([]store.Todo, string) error
	}{
		{"csv", export.ToCSV},
		{"json", export.ToJSON},
	}
	for _, format := range formats {
		var statuses []string
		sub := &cobra.Command{
			Use:   format.name + " [path]",
			Short: fmt.Sprintf("Write todos as %s (default: export_dir/ctxstore-todos-DATE.%s)", format.name, format.name),
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				path := filepath.Join(e.cfg.ExportDir,
					fmt.Sprintf("ctxstore-todos-%s.%s", e.now().Format(timeparse.DateLayout), format.name))
				if len(args) == 1 {
					path = args[0]
				}

				var f store.TodoFilter
				for _, s := range statuses {
					st := store.TodoStatus(s)
					if !st.Valid() {
						return fmt.Errorf("invalid status %q", s)
					}
					f.Status = append(f.Status, st)
				}

				return e.withStore(func(st *store.Store) error {
					todos, err := st.ListTodos(f)
					if err != nil {
						return err
					}
					if err := format.write(todos, path); err != nil {
						return err
					}
					e.logger.Debug("todos exported", "format", format.name, "path", path, "count", len(todos))
					e.printf("%s Exported %d todo(s) to %s\n", green("✓"), len(todos), path)
					return nil
				})
			},
		}
		sub.Flags().StringSliceVar(&statuses, "status", nil, "only todos with these statuses (default: all)")
		cmd.AddCommand(sub)
	}
	return cmd
}
