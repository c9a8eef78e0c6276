package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sadopc/ctxstore/internal/export"
	"github.com/sadopc/ctxstore/internal/store"
	"github.com/sadopc/ctxstore/internal/timeparse"
)

func newMeetingCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "meeting",
		Aliases: []string{"meetings"},
		Short:   "Inspect recorded meetings",
	}

	var (
		from   string
		to     string
		limit  int
		asJSON bool
	)
	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List meetings in a time window (default: the next 7 days)",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			now := e.now()
			start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
			end := start.AddDate(0, 0, 7)
			var err error
			if from != "" {
				if start, err = timeparse.Parse(from, now); err != nil {
					return err
				}
			}
			if to != "" {
				if end, err = timeparse.Parse(to, now); err != nil {
					return err
				}
			}
			if end.Before(start) {
				return fmt.Errorf("--to %s is before --from %s", end.Format(time.RFC3339), start.Format(time.RFC3339))
			}

			return e.withStore(func(st *store.Store) error {
				meetings, err := st.ListMeetings(store.MeetingFilter{StartAfter: &start, StartBefore: &end, Limit: limit})
				if err != nil {
					return err
				}
				if asJSON {
					return e.printJSON(orEmpty(meetings))
				}
				if len(meetings) == 0 {
					e.printf("No meetings found\n")
					return nil
				}
				w := tabwriter.NewWriter(e.stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "WHEN\tTITLE\tATTENDEES")
				for _, m := range meetings {
					when := m.StartTime.Local().Format("Mon Jan 2 15:04") + "-" + m.EndTime.Local().Format("15:04")
					fmt.Fprintf(w, "%s\t%s\t%s\n", when, m.Title, strings.Join(m.Attendees, ", "))
				}
				return w.Flush()
			})
		},
	}
	list.Flags().StringVar(&from, "from", "", "start of the window")
	list.Flags().StringVar(&to, "to", "", "end of the window")
	list.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of meetings")
	list.Flags().BoolVar(&asJSON, "json", false, "print meetings as JSON")

	cmd.AddCommand(list)
	return cmd
}

func newSummaryCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "summary",
		Aliases: []string{"summaries"},
		Short:   "Inspect period summaries",
	}

	var (
		fidelity string
		limit    int
		asJSON   bool
	)
	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List summaries, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := store.SummaryFilter{Limit: limit}
			if fidelity != "" {
				fd := store.Fidelity(fidelity)
				if !fd.Valid() {
					return fmt.Errorf("invalid fidelity %q", fidelity)
				}
				f.Fidelity = &fd
			}
			return e.withStore(func(st *store.Store) error {
				summaries, err := st.ListSummaries(f)
				if err != nil {
					return err
				}
				if asJSON {
					return e.printJSON(orEmpty(summaries))
				}
				if len(summaries) == 0 {
					e.printf("No summaries found\n")
					return nil
				}
				w := tabwriter.NewWriter(e.stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "FIDELITY\tPERIOD\tRANGE\tFILE")
				for _, s := range summaries {
					fmt.Fprintf(w, "%s\t%s\t%s..%s\t%s\n", s.Fidelity, s.Period, s.StartDate, s.EndDate, s.FilePath)
				}
				return w.Flush()
			})
		},
	}
	list.Flags().StringVar(&fidelity, "fidelity", "", "daily, weekly, monthly, quarterly, h1-h2 or yearly")
	list.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of summaries")
	list.Flags().BoolVar(&asJSON, "json", false, "print summaries as JSON")

	progress := &cobra.Command{
		Use:   "progress <period>",
		Short: "Count the todos of a summary period by status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withStore(func(st *store.Store) error {
				p, err := st.GetTodoSummaryProgress(args[0])
				if err != nil {
					return err
				}
				e.printf("%s %s\n", bold("Period"), args[0])
				e.printf("  Created:     %d\n", p.Created)
				e.printf("  Pending:     %s\n", yellow(p.Pending))
				e.printf("  In progress: %s\n", cyan(p.InProgress))
				e.printf("  Completed:   %s\n", green(p.Completed))
				return nil
			})
		},
	}

	cmd.AddCommand(list, progress)
	return cmd
}

func newBriefingCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "briefing",
		Aliases: []string{"briefings"},
		Short:   "Read saved daily briefings",
	}

	var out string
	show := &cobra.Command{
		Use:   "show [date]",
		Short: "Render a briefing as Markdown (default: today)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date := e.now().Format(timeparse.DateLayout)
			if len(args) == 1 {
				d, err := timeparse.ParseDate(args[0], e.now())
				if err != nil {
					return err
				}
				date = d
			}
			return e.withStore(func(st *store.Store) error {
				b, err := st.GetBriefing(date)
				if err != nil {
					return err
				}
				if b == nil {
					e.printf("No briefing for %s\n", date)
					return nil
				}
				if out != "" {
					if err := export.WriteBriefing(out, b.Date, b.Data); err != nil {
						return err
					}
					e.printf("%s Wrote briefing to %s\n", green("✓"), out)
					return nil
				}
				e.printf("%s", export.BriefingMarkdown(b.Date, b.Data))
				return nil
			})
		},
	}
	show.Flags().StringVarP(&out, "output", "o", "", "write the Markdown to a file instead of stdout")

	var limit int
	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the most recent briefings",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withStore(func(st *store.Store) error {
				briefings, err := st.ListBriefings(limit)
				if err != nil {
					return err
				}
				if len(briefings) == 0 {
					e.printf("No briefings found\n")
					return nil
				}
				w := tabwriter.NewWriter(e.stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "DATE\tMEETINGS\tTODOS\tFILE")
				for _, b := range briefings {
					fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", b.Date, b.Data.Calendar.MeetingCount, len(b.Data.Todos), b.FilePath)
				}
				return w.Flush()
			})
		},
	}
	list.Flags().IntVarP(&limit, "limit", "n", 7, "maximum number of briefings")

	cmd.AddCommand(show, list)
	return cmd
}
