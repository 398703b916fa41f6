// Package pairing maps matches onto the ordering-invariant pair key.
package pairing

import (
	"github.com/pable/go-h2h/internal/model"
	"github.com/pable/go-h2h/internal/normalize"
)

// KeyOf returns the canonical key for two competitor ids: the lower id first.
func KeyOf(id1, id2 int64) model.PairKey {
	if id2 < id1 {
		id1, id2 = id2, id1
	}
	return model.PairKey{A: id1, B: id2}
}

// Orient keys a normalized row and expresses its goals and names relative to
// the key, swapping sides when the source's first competitor is not the lower id.
func Orient(row model.MatchRow) model.KeyedMatch {
	key := KeyOf(row.Player1ID, row.Player2ID)
	goalsA, goalsB := row.Goals1, row.Goals2
	nameA, nameB := row.Player1Name, row.Player2Name
	if row.Player1ID != key.A {
		goalsA, goalsB = goalsB, goalsA
		nameA, nameB = nameB, nameA
	}

	return model.KeyedMatch{
		Match: model.Match{
			Date:              normalize.FormatDate(row.Date),
			TournamentID:      row.TournamentID,
			TournamentName:    row.TournamentName,
			Stage:             row.Stage,
			StageID:           row.StageID,
			StageSequence:     row.StageSequence,
			RoundNumber:       row.RoundNumber,
			PlayoffGameNumber: row.PlayoffGameNumber,
			GoalsID1:          goalsA,
			GoalsID2:          goalsB,
			Overtime:          row.Overtime,
		},
		Key:   key,
		Seq:   row.Seq,
		When:  row.Date,
		NameA: nameA,
		NameB: nameB,
	}
}
