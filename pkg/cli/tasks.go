package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/stefanpenner/pomo/pkg/budget"
	"github.com/stefanpenner/pomo/pkg/clierr"
	"github.com/stefanpenner/pomo/pkg/output"
	"github.com/stefanpenner/pomo/pkg/store"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tasks, newest first",
	Args:    cobra.NoArgs,
	RunE:    runList,
}

var addCmd = &cobra.Command{
	Use:     "add TITLE",
	Aliases: []string{"create"},
	Short:   "Create a task with a time budget",
	Long: `Creates a task on the server. The budget is given in hours and may be
fractional (--hours 1.5 is one and a half hours).`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

var searchCmd = &cobra.Command{
	Use:   "search QUERY",
	Short: "Search task titles (case-insensitive)",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

var statusCmd = &cobra.Command{
	Use:   "status ID STATUS",
	Short: "Set a task's status (todo, in-progress, completed)",
	Args:  cobra.ExactArgs(2), //nolint:mnd // id and status
	RunE:  runStatus,
}

var deleteCmd = &cobra.Command{
	Use:     "delete ID",
	Aliases: []string{"rm"},
	Short:   "Delete a task",
	Long:    `Deletes a task permanently. Prompts for confirmation in interactive mode.`,
	Args:    cobra.ExactArgs(1),
	RunE:    runDelete,
}

var trackCmd = &cobra.Command{
	Use:   "track ID SECONDS",
	Short: "Add time spent to a task by hand",
	Args:  cobra.ExactArgs(2), //nolint:mnd // id and seconds
	RunE:  runTrack,
}

func init() {
	listCmd.Flags().String("status", "", "filter by status")

	addCmd.Flags().Float64("hours", 1, "allocated hours")
	addCmd.Flags().SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		switch name {
		case "budget", "allocated", "allocated-hours":
			name = "hours"
		}
		return pflag.NormalizedName(name)
	})

	deleteCmd.Flags().BoolP("yes", "y", false, "skip confirmation prompt")

	rootCmd.AddCommand(listCmd, addCmd, searchCmd, statusCmd, deleteCmd, trackCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	s, err := setup(cmd)
	if err != nil {
		return err
	}

	var filter store.Status
	if raw, _ := cmd.Flags().GetString("status"); raw != "" {
		if filter, err = store.ParseStatus(raw); err != nil {
			return err
		}
	}

	tasks, err := s.List(cmd.Context())
	if err != nil {
		return err
	}
	if filter != "" {
		kept := tasks[:0]
		for _, t := range tasks {
			if t.Status == filter {
				kept = append(kept, t)
			}
		}
		tasks = kept
	}
	return outputTaskList(cmd, tasks)
}

func runAdd(cmd *cobra.Command, args []string) error {
	title := strings.TrimSpace(strings.Join(args, " "))
	hours, _ := cmd.Flags().GetFloat64("hours")

	// Reject before touching config or the network.
	if err := store.ValidateNewTask(title, hours); err != nil {
		return err
	}

	s, err := setup(cmd)
	if err != nil {
		return err
	}
	t, err := s.Create(cmd.Context(), title, hours)
	if err != nil {
		return err
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(cmd.OutOrStdout(), t)
	}
	output.Messagef(cmd.OutOrStdout(), "Created task #%d: %s (%s)", t.ID, t.Title, budget.MustFormat(t.Budget.AllocatedHours))
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	s, err := setup(cmd)
	if err != nil {
		return err
	}
	tasks, err := s.Search(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return err
	}
	return outputTaskList(cmd, tasks)
}

func runStatus(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	status, err := store.ParseStatus(args[1])
	if err != nil {
		return err
	}

	s, err := setup(cmd)
	if err != nil {
		return err
	}
	t, err := s.SetStatus(cmd.Context(), id, status)
	if err != nil {
		return err
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(cmd.OutOrStdout(), t)
	}
	output.Messagef(cmd.OutOrStdout(), "Task #%d: %s → %s", t.ID, t.Title, t.Status)
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	yes, _ := cmd.Flags().GetBool("yes")

	// Require confirmation in TTY mode unless --yes.
	if !yes {
		in := cmd.InOrStdin()
		if !isTerminal(in) {
			return clierr.New(clierr.ConfirmationReq,
				"cannot prompt for confirmation (not a terminal); use --yes")
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Delete task #%d? [y/N] ", id)
		answer, _ := bufio.NewReader(in).ReadString('\n')
		answer = strings.TrimSpace(strings.ToLower(answer))
		if answer != "y" && answer != "yes" {
			fmt.Fprintln(cmd.ErrOrStderr(), "Canceled.")
			return nil
		}
	}

	s, err := setup(cmd)
	if err != nil {
		return err
	}
	if err := s.Delete(cmd.Context(), id); err != nil {
		return err
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(cmd.OutOrStdout(), map[string]any{
			"status": "deleted",
			"id":     id,
		})
	}
	output.Messagef(cmd.OutOrStdout(), "Deleted task #%d", id)
	return nil
}

func runTrack(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	seconds, err := strconv.Atoi(args[1])
	if err != nil || seconds <= 0 {
		return clierr.Newf(clierr.InvalidInput, "invalid seconds %q: must be a positive integer", args[1])
	}

	s, err := setup(cmd)
	if err != nil {
		return err
	}
	t, err := s.AddElapsedSeconds(cmd.Context(), id, seconds)
	if err != nil {
		return err
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(cmd.OutOrStdout(), t)
	}
	output.Messagef(cmd.OutOrStdout(), "Task #%d: %s", t.ID, t.Budget)
	return nil
}

// isTerminal reports whether r is an interactive terminal.
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func outputTaskList(cmd *cobra.Command, tasks []store.Task) error {
	w := cmd.OutOrStdout()
	switch outputFormat() {
	case output.FormatJSON:
		if tasks == nil {
			tasks = []store.Task{}
		}
		return output.JSON(w, tasks)
	case output.FormatCompact:
		output.TaskCompact(w, tasks)
	default:
		output.TaskTable(w, tasks)
	}
	return nil
}
