package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sarchlab/autosplit/tracing"
)

var traceCmd = &cobra.Command{
	Use:   "trace <trace.sqlite3>",
	Short: "Print the events recorded in a SQLite trace.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// Opening a missing file would create an empty database.
		if _, err := os.Stat(args[0]); err != nil {
			return err
		}

		session, _ := cmd.Flags().GetString("session")
		kind, _ := cmd.Flags().GetString("kind")

		reader := tracing.NewSQLiteTraceReader(args[0])
		if err := reader.Init(); err != nil {
			return err
		}
		defer reader.Close()

		events, err := reader.ListEvents(tracing.EventQuery{
			SessionID: session,
			Kind:      kind,
		})
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tSESSION\tTICK\tKIND\tWHAT\tSTATE")

		for _, e := range events {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
				e.Time.Format(time.RFC3339Nano), e.SessionID, e.Tick,
				e.Kind, e.What, e.State)
		}

		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(traceCmd)
	traceCmd.Flags().String("session", "", "only show events of this session")
	traceCmd.Flags().String("kind", "",
		"only show events of this kind ("+tracing.KindState+", "+
			tracing.KindCommand+" or "+tracing.KindTimerError+")")
}
