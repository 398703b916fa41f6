package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-h2h/internal/report"
)

// summaryCmd is the cobra command for displaying a high-level catalog overview.
var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show the last build and a catalog overview",
	Long: `Display the most recent build, catalog totals, and the competitors
with the most recorded games.`,
	Args: cobra.NoArgs,
	RunE: runSummary,
}

func runSummary(cmd *cobra.Command, args []string) error {
	db, err := openCatalog()
	if err != nil {
		return err
	}
	defer db.Close()

	last, err := db.LastBuild()
	if err != nil {
		return fmt.Errorf("get last build: %w", err)
	}
	if last == nil {
		fmt.Fprintln(os.Stdout, "No builds recorded yet. Run 'h2h build' to create the archive.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "\n=== Last Build ===\n\n")
	report.PrintBuild(os.Stdout, *last)

	ov, err := db.Overview()
	if err != nil {
		return fmt.Errorf("get overview: %w", err)
	}
	report.PrintOverview(os.Stdout, ov)

	top, err := db.TopPlayers(10)
	if err != nil {
		return fmt.Errorf("get top players: %w", err)
	}
	if len(top) > 0 {
		fmt.Fprintf(os.Stdout, "--- Most Active Competitors ---\n\n")
		report.PrintStandings(os.Stdout, top)
	}
	return nil
}
