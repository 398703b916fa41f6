package normalize

import (
	"testing"

	"github.com/pable/go-h2h/internal/model"
)

func baseRecord() model.Record {
	return model.Record{
		ColPlayer1ID:      "5",
		ColPlayer2ID:      "3",
		ColPlayer1:        "Eve",
		ColPlayer2:        "Carl",
		ColGoalsPlayer1:   "2",
		ColGoalsPlayer2:   "1",
		ColOvertime:       "",
		ColDate:           "2021-06-01",
		ColTournamentID:   "77",
		ColTournamentName: "Spring Open",
		ColStage:          "Group A",
		ColStageSequence:  "1",
		ColRoundNumber:    "4",
	}
}

func TestMatch_FullRecord(t *testing.T) {
	row, ok := Match(baseRecord(), 7)
	if !ok {
		t.Fatal("expected record to normalize")
	}
	if row.Seq != 7 || row.Player1ID != 5 || row.Player2ID != 3 {
		t.Errorf("unexpected ids/seq: %+v", row)
	}
	if row.Goals1 != 2 || row.Goals2 != 1 {
		t.Errorf("goals = %d-%d, want 2-1", row.Goals1, row.Goals2)
	}
	if row.Date == nil || row.Date.Format(model.DateLayout) != "2021-06-01" {
		t.Errorf("date = %v, want 2021-06-01", row.Date)
	}
	if row.TournamentID == nil || *row.TournamentID != 77 {
		t.Errorf("tournament id = %v, want 77", row.TournamentID)
	}
	if row.StageID != nil {
		t.Errorf("missing stage id should be nil, got %d", *row.StageID)
	}
	if row.PlayoffGameNumber != nil {
		t.Errorf("missing playoff game number should be nil, got %d", *row.PlayoffGameNumber)
	}
	if row.Stage != "Group A" || row.TournamentName != "Spring Open" {
		t.Errorf("text fields not carried: %q %q", row.Stage, row.TournamentName)
	}
}

func TestMatch_RejectsMissingIDs(t *testing.T) {
	cases := map[string]func(model.Record){
		"missing player1": func(r model.Record) { delete(r, ColPlayer1ID) },
		"blank player2":   func(r model.Record) { r[ColPlayer2ID] = "  " },
		"garbage player1": func(r model.Record) { r[ColPlayer1ID] = "abc" },
		"fractional id":   func(r model.Record) { r[ColPlayer2ID] = "3.5" },
		"self pair":       func(r model.Record) { r[ColPlayer2ID] = "5" },
	}
	for name, mutate := range cases {
		rec := baseRecord()
		mutate(rec)
		if _, ok := Match(rec, 0); ok {
			t.Errorf("%s: expected rejection", name)
		}
	}
}

func TestMatch_DegradesFields(t *testing.T) {
	rec := baseRecord()
	rec[ColOvertime] = "weird_value"
	rec[ColGoalsPlayer1] = "n/a"
	delete(rec, ColGoalsPlayer2)
	delete(rec, ColRoundNumber)
	rec[ColDate] = "not a date"
	delete(rec, ColTournamentName)

	row, ok := Match(rec, 0)
	if !ok {
		t.Fatal("malformed fields must not reject the row")
	}
	if row.Overtime {
		t.Error("unparsable overtime should be false")
	}
	if row.Goals1 != 0 || row.Goals2 != 0 {
		t.Errorf("goals = %d-%d, want 0-0", row.Goals1, row.Goals2)
	}
	if row.RoundNumber != nil {
		t.Errorf("missing round number should be absent, got %d", *row.RoundNumber)
	}
	if row.Date != nil {
		t.Errorf("bad date should be absent, got %v", row.Date)
	}
	if row.TournamentName != "" {
		t.Errorf("missing tournament name should be empty, got %q", row.TournamentName)
	}
}

func TestMatch_IntegralFloats(t *testing.T) {
	rec := baseRecord()
	rec[ColPlayer1ID] = "5.0"
	rec[ColRoundNumber] = "0"
	rec[ColStageSequence] = "2.5"
	rec[ColGoalsPlayer1] = "3.9"

	row, ok := Match(rec, 0)
	if !ok {
		t.Fatal("integral float id should parse")
	}
	if row.Player1ID != 5 {
		t.Errorf("player1 = %d, want 5", row.Player1ID)
	}
	if row.RoundNumber == nil || *row.RoundNumber != 0 {
		t.Errorf("zero round number must stay present as 0, got %v", row.RoundNumber)
	}
	if row.StageSequence != nil {
		t.Errorf("fractional stage sequence should be absent, got %d", *row.StageSequence)
	}
	if row.Goals1 != 3 {
		t.Errorf("fractional goals should truncate to 3, got %d", row.Goals1)
	}
}

func TestOvertime(t *testing.T) {
	cases := map[string]bool{
		"":            false,
		"  ":          false,
		"None":        false,
		"nan":         false,
		"0":           false,
		"0.0":         false,
		"false":       false,
		"No":          false,
		"weird_value": false,
		"2OT":         false,
		"1":           true,
		"2":           true,
		"True":        true,
		"yes":         true,
		"OT":          true,
		"SO":          true,
		"overtime":    true,
	}
	for in, want := range cases {
		if got := Overtime(in); got != want {
			t.Errorf("Overtime(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestGoals_OutOfRange(t *testing.T) {
	cases := map[string]int{
		"4":                    4,
		"-2":                   -2,
		"7.8":                  7,
		"1e20":                 0,
		"-1e20":                0,
		"inf":                  0,
		"99999999999999999999": 0,
	}
	for in, want := range cases {
		rec := model.Record{ColGoalsPlayer1: in}
		if got := Goals(rec, ColGoalsPlayer1); got != want {
			t.Errorf("Goals(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestDate(t *testing.T) {
	cases := map[string]string{
		"2021-01-01":           "2021-01-01",
		"2021-01-01 13:45:00":  "2021-01-01",
		"2021-01-01T13:45:00Z": "2021-01-01",
		"2021/03/04":           "2021-03-04",
	}
	for in, want := range cases {
		got := FormatDate(Date(in))
		if got == nil || *got != want {
			t.Errorf("Date(%q) = %v, want %s", in, got, want)
		}
	}
	for _, bad := range []string{"", "yesterday", "2021-13-45"} {
		if d := Date(bad); d != nil {
			t.Errorf("Date(%q) = %v, want nil", bad, d)
		}
	}
}

func TestMatches_CountsDropped(t *testing.T) {
	good := baseRecord()
	bad := baseRecord()
	delete(bad, ColPlayer2ID)

	rows, dropped := Matches([]model.Record{good, bad, good})
	if len(rows) != 2 || dropped != 1 {
		t.Fatalf("rows=%d dropped=%d, want 2/1", len(rows), dropped)
	}
	if rows[0].Seq != 0 || rows[1].Seq != 2 {
		t.Errorf("seq should keep source positions, got %d and %d", rows[0].Seq, rows[1].Seq)
	}
}
