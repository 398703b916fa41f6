// Package normalize turns loosely typed source records into canonical rows.
//
// Nothing here returns an error: a malformed field degrades to its fallback
// (zero goals, no overtime, absent date or id) and a row without both
// competitor ids is rejected with ok=false.
package normalize

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pable/go-h2h/internal/model"
)

// Source column names of the match table.
const (
	ColPlayer1ID         = "Player1ID"
	ColPlayer2ID         = "Player2ID"
	ColPlayer1           = "Player1"
	ColPlayer2           = "Player2"
	ColGoalsPlayer1      = "GoalsPlayer1"
	ColGoalsPlayer2      = "GoalsPlayer2"
	ColOvertime          = "Overtime"
	ColDate              = "Date"
	ColTournamentID      = "TournamentID"
	ColTournamentName    = "TournamentName"
	ColStageID           = "StageID"
	ColStage             = "Stage"
	ColStageSequence     = "StageSequence"
	ColRoundNumber       = "RoundNumber"
	ColPlayoffGameNumber = "PlayoffGameNumber"
)

// Match normalizes one match record. seq is the record's position in the
// source and becomes the final ordering tie-break.
//
// The row is rejected when either competitor id is missing or unparsable,
// or when both ids are the same competitor.
func Match(rec model.Record, seq int) (model.MatchRow, bool) {
	id1 := OptionalInt(rec, ColPlayer1ID)
	id2 := OptionalInt(rec, ColPlayer2ID)
	if id1 == nil || id2 == nil || *id1 == *id2 {
		return model.MatchRow{}, false
	}

	return model.MatchRow{
		Seq:               seq,
		Player1ID:         *id1,
		Player2ID:         *id2,
		Player1Name:       Text(rec, ColPlayer1),
		Player2Name:       Text(rec, ColPlayer2),
		Goals1:            Goals(rec, ColGoalsPlayer1),
		Goals2:            Goals(rec, ColGoalsPlayer2),
		Overtime:          Overtime(rec[ColOvertime]),
		Date:              Date(rec[ColDate]),
		TournamentID:      OptionalInt(rec, ColTournamentID),
		TournamentName:    Text(rec, ColTournamentName),
		StageID:           OptionalInt(rec, ColStageID),
		Stage:             Text(rec, ColStage),
		StageSequence:     OptionalInt(rec, ColStageSequence),
		RoundNumber:       OptionalInt(rec, ColRoundNumber),
		PlayoffGameNumber: OptionalInt(rec, ColPlayoffGameNumber),
	}, true
}

// Matches normalizes a whole table and reports how many records were dropped.
func Matches(recs []model.Record) ([]model.MatchRow, int) {
	rows := make([]model.MatchRow, 0, len(recs))
	dropped := 0
	for i, rec := range recs {
		row, ok := Match(rec, i)
		if !ok {
			dropped++
			continue
		}
		rows = append(rows, row)
	}
	return rows, dropped
}

// OptionalInt parses col as an integer. Integral floats ("3.0") are accepted;
// anything else, including a blank or missing value, yields nil.
func OptionalInt(rec model.Record, col string) *int64 {
	v, ok := rec.Lookup(col)
	if !ok {
		return nil
	}
	n, ok := parseInt(v)
	if !ok {
		return nil
	}
	return &n
}

// Goals parses a goal count. Unparsable or missing values count as 0, as do
// values outside the int range; fractional values are truncated.
func Goals(rec model.Record, col string) int {
	v, ok := rec.Lookup(col)
	if !ok {
		return 0
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		if n < math.MinInt || n > math.MaxInt {
			return 0
		}
		return int(n)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || f < math.MinInt || f >= math.MaxInt {
		return 0
	}
	return int(math.Trunc(f))
}

// Text returns the trimmed value of col, or "" when absent.
func Text(rec model.Record, col string) string {
	v, _ := rec.Lookup(col)
	return v
}

func parseInt(v string) (int64, bool) {
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0, false
	}
	return int64(f), true
}

var overtimeNegative = map[string]bool{
	"none": true, "nan": true, "null": true, "na": true,
	"0": true, "false": true, "no": true, "n": true, "f": true,
}

var overtimePositive = map[string]bool{
	"1": true, "true": true, "yes": true, "y": true, "t": true,
	"ot": true, "overtime": true, "so": true, "shootout": true,
	"aet": true, "et": true, "sd": true,
}

// Overtime classifies the free-text overtime indicator. Known negative tokens
// and blanks are false, known affirmative tokens and non-zero numbers are
// true. Any other text is treated as unparsable and reads as false, so a
// marker such as "2OT" does not count as an overtime game.
func Overtime(raw string) bool {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v == "" || overtimeNegative[v] {
		return false
	}
	if overtimePositive[v] {
		return true
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil && !math.IsNaN(f) {
		return f != 0
	}
	return false
}

var dateLayouts = []string{
	model.DateLayout,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
	"2006-01-02 15:04:05-07",
	"2006-01-02 15:04:05-07:00",
	"2006/01/02",
}

// Date parses a calendar date or timestamp. Unparsable or blank input is nil.
// Timestamps keep their time of day, which only affects ordering.
func Date(raw string) *time.Time {
	v := strings.TrimSpace(raw)
	if v == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return &t
		}
	}
	return nil
}

// FormatDate renders t as a calendar date, or nil.
func FormatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(model.DateLayout)
	return &s
}
