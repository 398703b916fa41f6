package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/pable/go-h2h/internal/archive"
	"github.com/pable/go-h2h/internal/model"
	"github.com/pable/go-h2h/internal/storage"
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func optInt(v *int64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatInt(*v, 10)
}

func optDate(v *string) string {
	if v == nil {
		return "-"
	}
	return *v
}

func pct(n, total int) string {
	if total == 0 {
		return "-"
	}
	return fmt.Sprintf("%.0f%%", float64(n)/float64(total)*100)
}

// PrintBuild prints the key figures of one build.
func PrintBuild(w io.Writer, b storage.BuildRecord) {
	table := newTable(w)
	table.Header("BUILT", "OUTPUT", "ROWS", "DROPPED", "PAIRS", "MATCHES", "CHUNKED", "PARTS", "INDEX", "FILES", "SIZE", "TOOK")
	table.Append(
		humanize.Time(b.BuiltAt),
		b.OutputDir,
		humanize.Comma(int64(b.SourceRows)),
		humanize.Comma(int64(b.DroppedRows)),
		humanize.Comma(int64(b.Pairs)),
		humanize.Comma(int64(b.Matches)),
		strconv.Itoa(b.ChunkedPairs),
		strconv.Itoa(b.ChunkFiles),
		strconv.Itoa(b.IndexFiles),
		humanize.Comma(b.Files),
		humanize.Bytes(uint64(b.Bytes)),
		b.Duration.Round(time.Millisecond).String(),
	)
	table.Render()
}

// PrintOverview prints catalog totals.
func PrintOverview(w io.Writer, o storage.Overview) {
	fmt.Fprintf(w, "\nBuilds: %d  |  Pairs: %s  |  Chunked: %d  |  Matches: %s  |  Players: %s\n\n",
		o.Builds, humanize.Comma(int64(o.Pairs)), o.ChunkedPairs,
		humanize.Comma(int64(o.Matches)), humanize.Comma(int64(o.Players)))
}

// PrintPairSummary prints both sides of a pair document's record.
func PrintPairSummary(w io.Writer, doc *model.PairDocument) {
	s := doc.Summary
	fmt.Fprintf(w, "\n%s (%d) vs %s (%d)  |  Meetings: %d  |  First: %s  |  Last: %s  |  OT: %d\n\n",
		orDash(doc.Player1.Name), doc.Player1.ID, orDash(doc.Player2.Name), doc.Player2.ID,
		s.TotalMatches, optDate(s.FirstMeetingDate), optDate(s.LastMeetingDate), s.OvertimeGames)

	table := newTable(w)
	table.Header("PLAYER", "W", "L", "D", "WIN%", "GF", "GA", "LAST10")
	sides := []struct {
		ref    model.PlayerRef
		rec    model.SideRecord
		last   model.SideRecord
		winPct float64
		gf, ga int
	}{
		{doc.Player1, s.RecordID1(), s.Last10.ID1, s.WinPctID1(), s.GoalsForID1, s.GoalsForID2},
		{doc.Player2, s.RecordID1().Mirror(), s.Last10.ID2, s.WinPctID2(), s.GoalsForID2, s.GoalsForID1},
	}
	for _, side := range sides {
		table.Append(
			orDash(side.ref.Name),
			strconv.Itoa(side.rec.Wins),
			strconv.Itoa(side.rec.Losses),
			strconv.Itoa(side.rec.Draws),
			fmt.Sprintf("%.0f%%", side.winPct),
			strconv.Itoa(side.gf),
			strconv.Itoa(side.ga),
			fmt.Sprintf("%d-%d-%d", side.last.Wins, side.last.Losses, side.last.Draws),
		)
	}
	table.Render()

	if len(s.Tournaments) > 0 {
		fmt.Fprintf(w, "\nTournaments (%d):", len(s.Tournaments))
		for _, t := range s.Tournaments {
			fmt.Fprintf(w, " %s [%d];", orDash(t.Name), t.ID)
		}
		fmt.Fprintln(w)
	}
}

// PrintMatches prints the newest n matches of a pair, newest first. n <= 0 prints all.
func PrintMatches(w io.Writer, doc *model.PairDocument, n int) {
	ms := doc.Matches
	if n > 0 && len(ms) > n {
		ms = ms[len(ms)-n:]
	}
	table := newTable(w)
	table.Header("DATE", "TOURNAMENT", "STAGE", "SEQ", "RND", "GAME", "SCORE", "OT")
	for i := len(ms) - 1; i >= 0; i-- {
		m := ms[i]
		ot := ""
		if m.Overtime {
			ot = "OT"
		}
		table.Append(
			optDate(m.Date),
			orDash(m.TournamentName),
			orDash(m.Stage),
			optInt(m.StageSequence),
			optInt(m.RoundNumber),
			optInt(m.PlayoffGameNumber),
			fmt.Sprintf("%d-%d", m.GoalsID1, m.GoalsID2),
			ot,
		)
	}
	table.Render()
}

// PrintPairs prints catalogued pairs.
func PrintPairs(w io.Writer, pairs []storage.PairRecord) {
	table := newTable(w)
	table.Header("ID1", "NAME1", "ID2", "NAME2", "GAMES", "W1", "W2", "D", "FIRST", "LAST", "PARTS", "SIZE")
	for _, p := range pairs {
		table.Append(
			strconv.FormatInt(p.ID1, 10),
			orDash(p.Name1),
			strconv.FormatInt(p.ID2, 10),
			orDash(p.Name2),
			strconv.Itoa(p.TotalMatches),
			strconv.Itoa(p.WinsID1),
			strconv.Itoa(p.WinsID2),
			strconv.Itoa(p.Draws),
			orDash(p.FirstMeeting),
			orDash(p.LastMeeting),
			strconv.Itoa(p.Chunks),
			humanize.Bytes(uint64(p.Bytes)),
		)
	}
	table.Render()
}

// PrintStandings prints competitors' records across all opponents.
func PrintStandings(w io.Writer, rows []storage.Standing) {
	table := newTable(w)
	table.Header("ID", "NAME", "OPP", "GAMES", "W", "L", "D", "WIN%")
	for _, s := range rows {
		table.Append(
			strconv.FormatInt(s.ID, 10),
			orDash(s.Name),
			strconv.Itoa(s.Opponents),
			strconv.Itoa(s.Matches),
			strconv.Itoa(s.Wins),
			strconv.Itoa(s.Losses),
			strconv.Itoa(s.Draws),
			pct(s.Wins, s.Matches),
		)
	}
	table.Render()
}

// PrintPlayers prints competitor lookup entries.
func PrintPlayers(w io.Writer, players []model.Player) {
	table := newTable(w)
	table.Header("ID", "NAME", "COUNTRY", "CITY", "BORN", "RANKING")
	for _, p := range players {
		table.Append(
			strconv.FormatInt(p.ID, 10),
			p.Name,
			orDash(p.Country),
			orDash(p.City),
			orDash(p.DateOfBirth),
			optInt(p.RankingID),
		)
	}
	table.Render()
}

// PrintVerification prints the outcome of an archive check.
func PrintVerification(w io.Writer, v *archive.Verification) {
	fmt.Fprintf(w, "Checked %s pairs, %s matches, %d chunks, %s indexes\n",
		humanize.Comma(int64(v.Pairs)), humanize.Comma(int64(v.Matches)), v.Chunks, humanize.Comma(int64(v.Indexes)))
	if v.OK() {
		fmt.Fprintln(w, "No problems found.")
		return
	}
	table := newTable(w)
	table.Header("FILE", "PROBLEM")
	for _, p := range v.Problems {
		table.Append(p.Path, p.Msg)
	}
	table.Render()
	fmt.Fprintf(w, "\n(%d problems)\n", len(v.Problems))
}
