package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pable/go-h2h/internal/archive"
	"github.com/pable/go-h2h/internal/report"
)

var (
	showMatches int
	showOut     string
)

var showCmd = &cobra.Command{
	Use:   "show <idA> <idB>",
	Short: "Show the head-to-head record of two competitors",
	Long:  "Read a pair document (and its chunks) from the archive and print the summary and most recent matches. Ids may be given in either order.",
	Args:  cobra.ExactArgs(2),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().IntVarP(&showMatches, "matches", "n", 10, "most recent matches to list (0 for all)")
	showCmd.Flags().StringVarP(&showOut, "out", "o", "", "archive directory (default from config)")
}

func parseIDs(args []string) (int64, int64, error) {
	a, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid competitor id %q", args[0])
	}
	b, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid competitor id %q", args[1])
	}
	return a, b, nil
}

func archiveDir(override string) string {
	if override != "" {
		return override
	}
	return cfg.Output.Dir
}

func runShow(cmd *cobra.Command, args []string) error {
	a, b, err := parseIDs(args)
	if err != nil {
		return err
	}
	doc, err := archive.ReadPair(archiveDir(showOut), a, b)
	if errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "No meetings between %d and %d in the archive.\n", a, b)
		return nil
	}
	if err != nil {
		return err
	}
	report.PrintPairSummary(os.Stdout, doc)
	fmt.Fprintln(os.Stdout)
	report.PrintMatches(os.Stdout, doc, showMatches)
	return nil
}
