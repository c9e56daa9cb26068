package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrison/goodread/internal/history"
)

// NewHistoryCommand creates the 'goodread history' command
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [path]",
		Short: "Show recent verification results",
		Long: `Display the most recent document reports stored in the history database,
newest first. Set history_db in goodread.yml to record runs.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistory,
	}

	cmd.Flags().Int("limit", history.DefaultLimit, "Maximum number of entries to show")

	return cmd
}

// runHistory executes the history command
func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.HistoryDB == "" {
		return fmt.Errorf("history is disabled: set history_db in the config file")
	}

	path := ""
	if len(args) == 1 {
		path = args[0]
	}
	limit, _ := cmd.Flags().GetInt("limit")

	store, err := history.NewStore(cfg.HistoryDB)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.Recent(cmd.Context(), path, limit)
	if err != nil {
		return err
	}

	output := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(output, "No runs recorded yet")
		return nil
	}

	ok := color.New(color.FgGreen)
	bad := color.New(color.FgRed)
	if !colorEnabled(output) {
		ok.DisableColor()
		bad.DisableColor()
	}

	for _, e := range entries {
		status := ok.Sprint("valid  ")
		if !e.Report.Valid {
			status = bad.Sprint("invalid")
		}
		fmt.Fprintf(output, "%s  %-4s  %s  %d/%d  %s  (run %s)\n",
			e.RecordedAt.Local().Format("2006-01-02 15:04:05"),
			e.Mode,
			status,
			e.Report.Passed,
			e.Report.Total(),
			e.Path,
			shortID(e.RunID),
		)
	}
	return nil
}

// shortID returns the first block of a uuid.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
