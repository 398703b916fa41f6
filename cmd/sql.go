package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"
)

var sqlCmd = &cobra.Command{
	Use:   "sql <query>",
	Short: "Run a raw SQL query against the build catalog",
	Long: `Run an arbitrary SQL query against the build catalog and print results as a table.

Schema overview:
  builds(id, run_id, built_at, output_dir, source_rows, dropped_rows, pairs, matches,
    chunked_pairs, chunk_files, index_files, files, bytes, duration_ms)
  pairs(id1, id2, name1, name2, total_matches, wins_id1, wins_id2, draws,
    goals_for_id1, goals_for_id2, overtime_games, first_meeting, last_meeting, chunks, bytes)
  players(id, name, search_key, ranking_id, country, city, date_of_birth, sex)

Note: pairs always have id1 < id2. To find every pair of one competitor:
  SELECT * FROM pairs WHERE id1 = 42 OR id2 = 42`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSQL,
}

func runSQL(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	db, err := openCatalog()
	if err != nil {
		return err
	}
	defer db.Close()

	cols, rows, err := db.QueryRaw(query)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("(no rows)")
		return nil
	}

	table := tablewriter.NewTable(os.Stdout, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))

	colsAny := make([]any, len(cols))
	for i, c := range cols {
		colsAny[i] = c
	}
	table.Header(colsAny...)

	for _, row := range rows {
		rowAny := make([]any, len(row))
		for i, v := range row {
			rowAny[i] = v
		}
		table.Append(rowAny...)
	}
	table.Render()
	fmt.Fprintf(os.Stdout, "\n(%d rows)\n", len(rows))
	return nil
}
