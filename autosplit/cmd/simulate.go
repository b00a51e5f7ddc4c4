package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sarchlab/autosplit/logging"
	"github.com/sarchlab/autosplit/scenario"
	"github.com/sarchlab/autosplit/splitter"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate <scenario.yaml>",
	Short: "Replay a scripted game session and print the timer commands.",
	Long: `Simulate runs the splitter against a fake game process whose ` +
		`memory follows a YAML scenario, one splitter tick per scenario ` +
		`tick, and prints what the timer receives. It fails if a tick ` +
		`issues other commands than the scenario expects.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		registry, err := cfg.Registry()
		if err != nil {
			return err
		}

		s, err := scenario.Load(args[0])
		if err != nil {
			return err
		}

		runner := scenario.NewRunner(registry)

		verbose, _ := cmd.Flags().GetBool("verbose")
		if verbose {
			logger := logging.New(os.Stderr, "debug", cfg.Log.Format)
			runner.AcceptHook(splitter.NewLogHook(logger))
		}

		res, err := runner.Run(s)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for i, t := range res.Ticks {
			fmt.Fprintf(out, "%4d  %-10s  %v\n", i, t.Timer, t.Commands)
		}

		fmt.Fprintf(out, "splits: %d, game time paused: %v\n",
			res.Timer.Splits(), res.Timer.GameTimePaused())

		for _, m := range res.Mismatches {
			fmt.Fprintln(cmd.ErrOrStderr(), m)
		}

		if len(res.Mismatches) > 0 {
			return fmt.Errorf("%d ticks did not match", len(res.Mismatches))
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().BoolP("verbose", "v", false, "log what the splitter does")
}
