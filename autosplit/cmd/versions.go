package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "List the game versions the splitter knows.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		registry, err := cfg.Registry()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "VERSION\tPROCESS\tMODULES\tLOADING")

		for _, name := range registry.Names() {
			v, _ := registry.Lookup(name)

			modules := v.PrimaryModule
			if v.DependentModule != "" {
				modules += "," + v.DependentModule
			}

			marker := ""
			if name == cfg.Version {
				marker = " *"
			}

			fmt.Fprintf(w, "%s%s\t%s\t%s\t%s\n",
				name, marker, v.Process, modules, v.Loading)
		}

		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(versionsCmd)
}
