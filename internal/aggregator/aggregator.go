package aggregator

import (
	"sort"
	"time"

	"github.com/pable/go-h2h/internal/model"
	"github.com/pable/go-h2h/internal/normalize"
	"github.com/pable/go-h2h/internal/pairing"
)

// LastN is the size of the trailing results window.
const LastN = 10

// Pair is one competitor pair with its games in archive order.
type Pair struct {
	Key     model.PairKey
	Matches []model.KeyedMatch
}

// Group keys every row, groups by pair and sorts each group into archive
// order. Pairs are returned in ascending key order.
func Group(rows []model.MatchRow) []Pair {
	byKey := make(map[model.PairKey]*Pair)
	var keys []model.PairKey
	for _, row := range rows {
		km := pairing.Orient(row)
		p, ok := byKey[km.Key]
		if !ok {
			p = &Pair{Key: km.Key}
			byKey[km.Key] = p
			keys = append(keys, km.Key)
		}
		p.Matches = append(p.Matches, km)
	}

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].A != keys[j].A {
			return keys[i].A < keys[j].A
		}
		return keys[i].B < keys[j].B
	})

	out := make([]Pair, 0, len(keys))
	for _, k := range keys {
		p := byKey[k]
		SortMatches(p.Matches)
		out = append(out, *p)
	}
	return out
}

// SortMatches orders games by date, tournament id, stage sequence, round
// number and playoff game number, with missing values last. Remaining ties
// keep source order.
func SortMatches(ms []model.KeyedMatch) {
	sort.SliceStable(ms, func(i, j int) bool {
		a, b := &ms[i], &ms[j]
		if c := compareTime(a.When, b.When); c != 0 {
			return c < 0
		}
		if c := compareOpt(a.TournamentID, b.TournamentID); c != 0 {
			return c < 0
		}
		if c := compareOpt(a.StageSequence, b.StageSequence); c != 0 {
			return c < 0
		}
		if c := compareOpt(a.RoundNumber, b.RoundNumber); c != 0 {
			return c < 0
		}
		if c := compareOpt(a.PlayoffGameNumber, b.PlayoffGameNumber); c != 0 {
			return c < 0
		}
		return a.Seq < b.Seq
	})
}

func compareTime(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return a.Compare(*b)
}

func compareOpt(a, b *int64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case *a < *b:
		return -1
	case *a > *b:
		return 1
	}
	return 0
}

// Result codes in the trailing window, from the lower id's perspective.
const (
	resultWin  byte = 'W'
	resultLoss byte = 'L'
	resultDraw byte = 'D'
)

// window keeps the last LastN result codes, dropping the oldest at capacity.
type window struct {
	buf   [LastN]byte
	start int
	n     int
}

func (w *window) push(r byte) {
	if w.n < LastN {
		w.buf[(w.start+w.n)%LastN] = r
		w.n++
		return
	}
	w.buf[w.start] = r
	w.start = (w.start + 1) % LastN
}

// record tallies the window from the lower id's perspective.
func (w *window) record() model.SideRecord {
	var rec model.SideRecord
	for i := 0; i < w.n; i++ {
		switch w.buf[(w.start+i)%LastN] {
		case resultWin:
			rec.Wins++
		case resultLoss:
			rec.Losses++
		case resultDraw:
			rec.Draws++
		}
	}
	return rec
}

// Accumulator folds a pair's games, fed in archive order, into its summary.
type Accumulator struct {
	sum         model.Summary
	tournaments map[int64]string
	last        window
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{tournaments: make(map[int64]string)}
}

// Add folds one game. Games must arrive in archive order for the meeting
// dates and the trailing window to be correct.
func (a *Accumulator) Add(m model.Match) {
	s := &a.sum
	s.TotalMatches++
	s.GoalsForID1 += m.GoalsID1
	s.GoalsForID2 += m.GoalsID2

	switch {
	case m.GoalsID1 > m.GoalsID2:
		s.WinsID1++
		a.last.push(resultWin)
	case m.GoalsID1 < m.GoalsID2:
		s.WinsID2++
		a.last.push(resultLoss)
	default:
		s.Draws++
		a.last.push(resultDraw)
	}

	if m.Overtime {
		s.OvertimeGames++
	}

	if m.Date != nil {
		d := *m.Date
		if s.FirstMeetingDate == nil {
			s.FirstMeetingDate = &d
		}
		s.LastMeetingDate = &d
	}

	if m.TournamentID != nil {
		if _, seen := a.tournaments[*m.TournamentID]; !seen {
			a.tournaments[*m.TournamentID] = m.TournamentName
		}
	}
}

// Summary returns the folded statistics. It may be called at any point.
func (a *Accumulator) Summary() model.Summary {
	s := a.sum
	s.Tournaments = make([]model.TournamentRef, 0, len(a.tournaments))
	for id, name := range a.tournaments {
		s.Tournaments = append(s.Tournaments, model.TournamentRef{ID: id, Name: name})
	}
	normalize.SortTournamentRefs(s.Tournaments)

	rec := a.last.record()
	s.Last10 = model.LastTen{ID1: rec, ID2: rec.Mirror()}
	return s
}

// Summarize folds an already ordered match list.
func Summarize(ms []model.KeyedMatch) model.Summary {
	acc := NewAccumulator()
	for i := range ms {
		acc.Add(ms[i].Match)
	}
	return acc.Summary()
}

// Names picks display names for a pair: the competitor lookup first, then the
// source names carried by the first game in archive order.
func Names(p Pair, lookup map[int64]string) (string, string) {
	nameA, nameB := lookup[p.Key.A], lookup[p.Key.B]
	if len(p.Matches) > 0 {
		first := p.Matches[0]
		if nameA == "" {
			nameA = first.NameA
		}
		if nameB == "" {
			nameB = first.NameB
		}
	}
	return nameA, nameB
}
