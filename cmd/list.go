package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-h2h/internal/report"
	"github.com/pable/go-h2h/internal/storage"
)

var (
	listPlayerID int64
	listLimit    int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalogued pairs, most meetings first",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().Int64Var(&listPlayerID, "player", 0, "only pairs involving this competitor id")
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 25, "maximum rows (0 for all)")
}

func runList(cmd *cobra.Command, args []string) error {
	db, err := openCatalog()
	if err != nil {
		return err
	}
	defer db.Close()

	pairs, err := db.ListPairs(storage.PairFilter{PlayerID: listPlayerID, Limit: listLimit})
	if err != nil {
		return fmt.Errorf("list pairs: %w", err)
	}
	if len(pairs) == 0 {
		fmt.Fprintln(os.Stdout, "No pairs catalogued yet. Run 'h2h build' to create the archive.")
		return nil
	}
	report.PrintPairs(os.Stdout, pairs)
	return nil
}
