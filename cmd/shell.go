package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pable/go-h2h/internal/archive"
	"github.com/pable/go-h2h/internal/normalize"
	"github.com/pable/go-h2h/internal/report"
	"github.com/pable/go-h2h/internal/storage"
)

var (
	cPrompt   = color.New(color.FgCyan, color.Bold)
	cMuted    = color.New(color.Faint)
	cError    = color.New(color.FgRed, color.Bold)
	cWarn     = color.New(color.FgYellow)
	cCmd      = color.New(color.FgYellow, color.Bold)
	cGreeting = color.New(color.Bold)
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive REPL session",
	Long:  "Open a persistent session against the catalog and archive. Type 'help' for available commands.",
	Args:  cobra.NoArgs,
	RunE:  runShell,
}

func runShell(_ *cobra.Command, _ []string) error {
	db, err := openCatalog()
	if err != nil {
		return err
	}
	defer db.Close()
	dir := cfg.Output.Dir

	cGreeting.Println("h2h shell")
	cMuted.Printf("archive %s, type 'help' or 'exit'\n", dir)
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		cPrompt.Print("h2h")
		cMuted.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		tokens := strings.Fields(line)
		cmd, args := tokens[0], tokens[1:]

		switch cmd {
		case "exit", "quit":
			return nil
		case "help":
			shellHelp()
		case "list":
			var id int64
			if len(args) > 0 {
				id, _ = strconv.ParseInt(args[0], 10, 64)
			}
			shellList(db, id)
		case "show":
			if len(args) < 2 {
				cError.Fprintln(os.Stderr, "usage: show <idA> <idB> [n]")
				continue
			}
			n := 10
			if len(args) > 2 {
				n, _ = strconv.Atoi(args[2])
			}
			shellShow(dir, args[:2], n)
		case "find":
			if len(args) == 0 {
				cError.Fprintln(os.Stderr, "usage: find <name>")
				continue
			}
			shellFind(db, strings.Join(args, " "))
		case "top":
			n := 10
			if len(args) > 0 {
				n, _ = strconv.Atoi(args[0])
			}
			shellTop(db, n)
		case "verify":
			shellVerify(dir)
		default:
			cWarn.Fprintf(os.Stderr, "unknown command %q, type 'help'\n", cmd)
		}
	}
	return nil
}

func shellHelp() {
	fmt.Println()
	type entry struct{ cmd, desc string }
	rows := []entry{
		{"list [id]", "catalogued pairs, optionally for one competitor"},
		{"show <idA> <idB> [n]", "head-to-head record and last n matches"},
		{"find <name>", "search competitors by name"},
		{"top [n]", "competitors with the most games"},
		{"verify", "check the archive for consistency"},
		{"help", "show this message"},
		{"exit / quit", "close the session"},
	}
	for _, r := range rows {
		fmt.Print("  ")
		cCmd.Printf("%-24s", r.cmd)
		fmt.Println(r.desc)
	}
	fmt.Println()
}

func shellList(db *storage.DB, id int64) {
	pairs, err := db.ListPairs(storage.PairFilter{PlayerID: id, Limit: 25})
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	if len(pairs) == 0 {
		cMuted.Println("No pairs catalogued.")
		return
	}
	report.PrintPairs(os.Stdout, pairs)
}

func shellShow(dir string, ids []string, n int) {
	a, b, err := parseIDs(ids)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	doc, err := archive.ReadPair(dir, a, b)
	if errors.Is(err, fs.ErrNotExist) {
		cMuted.Printf("No meetings between %d and %d.\n", a, b)
		return
	}
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	report.PrintPairSummary(os.Stdout, doc)
	fmt.Println()
	report.PrintMatches(os.Stdout, doc, n)
}

func shellFind(db *storage.DB, name string) {
	players, err := db.FindPlayers(normalize.SearchKey(name), 20)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	if len(players) == 0 {
		cMuted.Printf("No competitor matches %q.\n", name)
		return
	}
	report.PrintPlayers(os.Stdout, players)
}

func shellTop(db *storage.DB, n int) {
	if n <= 0 {
		n = 10
	}
	top, err := db.TopPlayers(n)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	report.PrintStandings(os.Stdout, top)
}

func shellVerify(dir string) {
	v, err := archive.Verify(dir)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	report.PrintVerification(os.Stdout, v)
}
