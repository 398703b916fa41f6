package aggregator

import (
	"testing"
	"time"

	"github.com/pable/go-h2h/internal/model"
)

func day(s string) *time.Time {
	t, err := time.Parse(model.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func i64(v int64) *int64 { return &v }

// row builds a normalized match row between p1 and p2.
func row(seq int, p1, p2 int64, g1, g2 int, date string) model.MatchRow {
	r := model.MatchRow{Seq: seq, Player1ID: p1, Player2ID: p2, Goals1: g1, Goals2: g2}
	if date != "" {
		r.Date = day(date)
	}
	return r
}

func onlyPair(t *testing.T, rows []model.MatchRow) Pair {
	t.Helper()
	pairs := Group(rows)
	if len(pairs) != 1 {
		t.Fatalf("expected 1 pair, got %d", len(pairs))
	}
	return pairs[0]
}

// ---- End-to-end fold ----

// TestSummarize_ThreeMeetings: ids 5 and 3, source lists 5 first.
func TestSummarize_ThreeMeetings(t *testing.T) {
	r1 := row(0, 5, 3, 1, 3, "2021-01-01") // 3 wins 3-1
	r2 := row(1, 5, 3, 1, 1, "2021-06-01")
	r3 := row(2, 5, 3, 2, 2, "2022-01-01")
	r3.Overtime = true

	p := onlyPair(t, []model.MatchRow{r3, r1, r2})
	if p.Key != (model.PairKey{A: 3, B: 5}) {
		t.Fatalf("key = %+v", p.Key)
	}

	s := Summarize(p.Matches)
	if s.TotalMatches != 3 || s.WinsID1 != 1 || s.WinsID2 != 0 || s.Draws != 2 {
		t.Errorf("record = %d total, %d/%d/%d", s.TotalMatches, s.WinsID1, s.WinsID2, s.Draws)
	}
	if s.GoalsForID1 != 6 || s.GoalsForID2 != 4 {
		t.Errorf("goals = %d-%d, want 6-4", s.GoalsForID1, s.GoalsForID2)
	}
	if s.OvertimeGames != 1 {
		t.Errorf("overtime = %d, want 1", s.OvertimeGames)
	}
	if s.FirstMeetingDate == nil || *s.FirstMeetingDate != "2021-01-01" {
		t.Errorf("first meeting = %v", s.FirstMeetingDate)
	}
	if s.LastMeetingDate == nil || *s.LastMeetingDate != "2022-01-01" {
		t.Errorf("last meeting = %v", s.LastMeetingDate)
	}
	want1 := model.SideRecord{Wins: 1, Losses: 0, Draws: 2}
	want2 := model.SideRecord{Wins: 0, Losses: 1, Draws: 2}
	if s.Last10.ID1 != want1 || s.Last10.ID2 != want2 {
		t.Errorf("last 10 = %+v / %+v", s.Last10.ID1, s.Last10.ID2)
	}
	if s.Tournaments == nil || len(s.Tournaments) != 0 {
		t.Errorf("tournaments should be an empty list, got %v", s.Tournaments)
	}
}

// ---- Symmetry ----

func TestSummarize_SymmetricTallies(t *testing.T) {
	var rows []model.MatchRow
	scores := [][2]int{{1, 0}, {0, 2}, {3, 3}, {4, 1}, {0, 1}, {2, 2}, {5, 0}, {1, 2}, {0, 0}, {3, 1}, {2, 0}, {1, 4}, {0, 3}}
	for i, sc := range scores {
		p1, p2 := int64(10), int64(20)
		if i%2 == 1 {
			p1, p2 = p2, p1
		}
		rows = append(rows, row(i, p1, p2, sc[0], sc[1], ""))
	}
	s := Summarize(onlyPair(t, rows).Matches)

	if s.WinsID1+s.WinsID2+s.Draws != s.TotalMatches {
		t.Errorf("wins+draws = %d, total = %d", s.WinsID1+s.WinsID2+s.Draws, s.TotalMatches)
	}
	if s.Last10.ID1 != s.Last10.ID2.Mirror() {
		t.Errorf("last 10 not symmetric: %+v vs %+v", s.Last10.ID1, s.Last10.ID2)
	}
	if s.Last10.ID1.Total() != LastN {
		t.Errorf("last 10 should hold %d results, got %d", LastN, s.Last10.ID1.Total())
	}
	if s.FirstMeetingDate != nil || s.LastMeetingDate != nil {
		t.Error("no dates seen: meeting dates should be null")
	}
}

// ---- Trailing window ----

// TestSummarize_LastTenDropsOldest: 5 early wins for the lower id, then 10 draws.
func TestSummarize_LastTenDropsOldest(t *testing.T) {
	var rows []model.MatchRow
	for i := 0; i < 5; i++ {
		rows = append(rows, row(i, 1, 2, 1, 0, "2020-01-0"+string(rune('1'+i))))
	}
	for i := 0; i < 10; i++ {
		rows = append(rows, row(5+i, 1, 2, 0, 0, "2021-01-"+twoDigits(i+1)))
	}
	s := Summarize(onlyPair(t, rows).Matches)
	if s.WinsID1 != 5 || s.Draws != 10 {
		t.Fatalf("totals = %d wins %d draws", s.WinsID1, s.Draws)
	}
	if s.Last10.ID1 != (model.SideRecord{Draws: 10}) {
		t.Errorf("last 10 = %+v, want 10 draws", s.Last10.ID1)
	}
}

func twoDigits(n int) string {
	return string(rune('0'+n/10)) + string(rune('0'+n%10))
}

func TestWindow_PartialFill(t *testing.T) {
	var w window
	w.push(resultWin)
	w.push(resultLoss)
	w.push(resultWin)
	if rec := w.record(); rec != (model.SideRecord{Wins: 2, Losses: 1}) {
		t.Errorf("record = %+v", rec)
	}
	for i := 0; i < 25; i++ {
		w.push(resultLoss)
	}
	if rec := w.record(); rec != (model.SideRecord{Losses: LastN}) {
		t.Errorf("record after overflow = %+v", rec)
	}
}

// ---- Ordering ----

func TestGroup_OrderingRules(t *testing.T) {
	a := row(0, 1, 2, 0, 0, "")           // no date: last
	b := row(1, 1, 2, 0, 0, "2021-05-05") // later date
	c := row(2, 1, 2, 0, 0, "2021-01-01")
	c.TournamentID = i64(9)
	d := row(3, 1, 2, 0, 0, "2021-01-01")
	d.TournamentID = i64(4)
	d.RoundNumber = i64(2)
	e := row(4, 1, 2, 0, 0, "2021-01-01")
	e.TournamentID = i64(4)
	e.RoundNumber = i64(1)
	f := row(5, 1, 2, 0, 0, "2021-01-01") // same date, no tournament: after 4 and 9

	p := onlyPair(t, []model.MatchRow{a, b, c, d, e, f})
	want := []int{4, 3, 2, 5, 1, 0}
	for i, seq := range want {
		if p.Matches[i].Seq != seq {
			t.Errorf("position %d: seq %d, want %d", i, p.Matches[i].Seq, seq)
		}
	}
}

func TestGroup_TiesKeepSourceOrder(t *testing.T) {
	var rows []model.MatchRow
	for i := 0; i < 6; i++ {
		rows = append(rows, row(i, int64(1+i%2), int64(2-i%2), i, 0, "2022-02-02"))
	}
	p := onlyPair(t, rows)
	for i := range p.Matches {
		if p.Matches[i].Seq != i {
			t.Fatalf("position %d: seq %d", i, p.Matches[i].Seq)
		}
	}
}

func TestGroup_KeysAscending(t *testing.T) {
	rows := []model.MatchRow{
		row(0, 9, 2, 0, 0, ""),
		row(1, 1, 3, 0, 0, ""),
		row(2, 2, 9, 0, 0, ""),
		row(3, 3, 1, 0, 0, ""),
		row(4, 1, 2, 0, 0, ""),
	}
	pairs := Group(rows)
	want := []model.PairKey{{A: 1, B: 2}, {A: 1, B: 3}, {A: 2, B: 9}}
	if len(pairs) != len(want) {
		t.Fatalf("got %d pairs, want %d", len(pairs), len(want))
	}
	for i, k := range want {
		if pairs[i].Key != k {
			t.Errorf("pair %d = %+v, want %+v", i, pairs[i].Key, k)
		}
	}
	if len(pairs[1].Matches) != 2 || len(pairs[2].Matches) != 2 {
		t.Error("rows for 1-3 and 2-9 should be merged across orientations")
	}
}

// ---- Tournaments ----

func TestSummarize_TournamentsDedupedAndSorted(t *testing.T) {
	mk := func(seq int, id int64, name string) model.MatchRow {
		r := row(seq, 1, 2, 1, 0, "2021-01-0"+string(rune('1'+seq)))
		r.TournamentID = i64(id)
		r.TournamentName = name
		return r
	}
	rows := []model.MatchRow{
		mk(0, 30, "beta Cup"),
		mk(1, 10, "Alpha"),
		mk(2, 30, "Beta Cup renamed"),
		mk(3, 20, "alpha"),
		row(4, 1, 2, 0, 1, "2021-01-06"), // no tournament
	}
	s := Summarize(onlyPair(t, rows).Matches)

	want := []model.TournamentRef{{ID: 10, Name: "Alpha"}, {ID: 20, Name: "alpha"}, {ID: 30, Name: "beta Cup"}}
	if len(s.Tournaments) != len(want) {
		t.Fatalf("tournaments = %+v", s.Tournaments)
	}
	for i := range want {
		if s.Tournaments[i] != want[i] {
			t.Errorf("tournament %d = %+v, want %+v", i, s.Tournaments[i], want[i])
		}
	}
}

// ---- Names ----

func TestNames_FallbackToSourceNames(t *testing.T) {
	r := row(0, 8, 4, 0, 0, "")
	r.Player1Name, r.Player2Name = "Eight", "Four"
	p := onlyPair(t, []model.MatchRow{r})

	a, b := Names(p, map[int64]string{8: "Eight (lookup)"})
	if a != "Four" || b != "Eight (lookup)" {
		t.Errorf("names = %q/%q", a, b)
	}
}
