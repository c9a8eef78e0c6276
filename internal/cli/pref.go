package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sadopc/ctxstore/internal/store"
)

func newPrefCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "pref",
		Aliases: []string{"prefs", "preference"},
		Short:   "Read and write preferences",
	}

	get := &cobra.Command{
		Use:   "get <key>",
		Short: "Print a preference value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withStore(func(st *store.Store) error {
				v, ok, err := st.GetPreference(args[0])
				if err != nil {
					return err
				}
				if !ok {
					e.printf("%s %q is not set\n", faint("Preference"), args[0])
					return nil
				}
				e.printf("%s\n", v)
				return nil
			})
		},
	}

	set := &cobra.Command{
		Use:   "set <key> <value...>",
		Short: "Set a preference",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := strings.TrimSpace(args[0])
			if key == "" {
				return fmt.Errorf("key must not be empty")
			}
			return e.withStore(func(st *store.Store) error {
				if err := st.SetPreference(key, strings.Join(args[1:], " ")); err != nil {
					return err
				}
				e.printf("%s Saved %s\n", green("✓"), key)
				return nil
			})
		},
	}

	var asJSON bool
	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List every preference",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withStore(func(st *store.Store) error {
				if asJSON {
					all, err := st.GetAllPreferences()
					if err != nil {
						return err
					}
					return e.printJSON(all)
				}
				prefs, err := st.ListPreferences()
				if err != nil {
					return err
				}
				if len(prefs) == 0 {
					e.printf("No preferences set\n")
					return nil
				}
				w := tabwriter.NewWriter(e.stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "KEY\tVALUE\tUPDATED")
				for _, p := range prefs {
					fmt.Fprintf(w, "%s\t%s\t%s\n", p.Key, p.Value, p.UpdatedAt.Local().Format("2006-01-02 15:04"))
				}
				return w.Flush()
			})
		},
	}
	list.Flags().BoolVar(&asJSON, "json", false, "print preferences as a JSON object")

	unset := &cobra.Command{
		Use:     "unset <key>",
		Aliases: []string{"rm"},
		Short:   "Remove a preference",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withStore(func(st *store.Store) error {
				ok, err := st.DeletePreference(args[0])
				if err != nil {
					return err
				}
				if !ok {
					e.printf("%s %q was not set\n", faint("Preference"), args[0])
					return nil
				}
				e.printf("%s Removed %s\n", green("✓"), args[0])
				return nil
			})
		},
	}

	cmd.AddCommand(get, set, list, unset)
	return cmd
}
