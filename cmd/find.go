package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/go-h2h/internal/normalize"
	"github.com/pable/go-h2h/internal/report"
)

var findLimit int

var findCmd = &cobra.Command{
	Use:   "find <name>",
	Short: "Search competitors by name",
	Long:  "Search the catalogued competitors. Matching ignores case and accents, so 'bjorn' finds 'Björn'.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runFind,
}

func init() {
	findCmd.Flags().IntVarP(&findLimit, "limit", "n", 20, "maximum rows (0 for all)")
}

func runFind(cmd *cobra.Command, args []string) error {
	key := normalize.SearchKey(strings.Join(args, " "))
	if key == "" {
		return fmt.Errorf("search term %q has no searchable characters", strings.Join(args, " "))
	}

	db, err := openCatalog()
	if err != nil {
		return err
	}
	defer db.Close()

	players, err := db.FindPlayers(key, findLimit)
	if err != nil {
		return fmt.Errorf("find players: %w", err)
	}
	if len(players) == 0 {
		fmt.Fprintf(os.Stdout, "No competitor matches %q.\n", key)
		return nil
	}
	report.PrintPlayers(os.Stdout, players)
	return nil
}
