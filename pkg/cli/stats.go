package cli

import (
	"github.com/spf13/cobra"

	"github.com/stefanpenner/pomo/pkg/output"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show task counts and total time spent",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	s, err := setup(cmd)
	if err != nil {
		return err
	}
	st, err := s.Statistics(cmd.Context())
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	switch outputFormat() {
	case output.FormatJSON:
		return output.JSON(w, st)
	case output.FormatCompact:
		output.StatsCompact(w, st)
	default:
		output.StatsTable(w, st)
	}
	return nil
}
