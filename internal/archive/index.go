package archive

import (
	"sort"
	"strconv"

	"github.com/pable/go-h2h/internal/chunk"
	"github.com/pable/go-h2h/internal/model"
)

// BuildIndex derives every competitor's opponent index from the written pairs.
func BuildIndex(results []PairResult) map[int64]*model.PlayerIndex {
	idx := make(map[int64]*model.PlayerIndex)
	entry := func(p model.PlayerRef) *model.PlayerIndex {
		pi, ok := idx[p.ID]
		if !ok {
			pi = &model.PlayerIndex{Player: p, Opponents: make(map[string]model.OpponentEntry)}
			idx[p.ID] = pi
		}
		return pi
	}

	for _, r := range results {
		path := PairDir + "/" + r.Key.DocPath()
		rec := r.Summary.RecordID1()
		entry(r.Player1).Opponents[strconv.FormatInt(r.Key.B, 10)] = model.OpponentEntry{
			Player:  r.Player2,
			Path:    path,
			Summary: opponentSummary(rec),
		}
		entry(r.Player2).Opponents[strconv.FormatInt(r.Key.A, 10)] = model.OpponentEntry{
			Player:  r.Player1,
			Path:    path,
			Summary: opponentSummary(rec.Mirror()),
		}
	}
	return idx
}

func opponentSummary(r model.SideRecord) model.OpponentSummary {
	return model.OpponentSummary{
		TotalMatches: r.Total(),
		Wins:         r.Wins,
		Losses:       r.Losses,
		Draws:        r.Draws,
	}
}

// writeIndex writes h2h/<id>.json for every competitor with at least one pair.
func writeIndex(sink chunk.Sink, results []PairResult) (int, error) {
	idx := BuildIndex(results)
	ids := make([]int64, 0, len(idx))
	for id := range idx {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		if _, err := sink.Write(model.IndexPath(id), idx[id]); err != nil {
			return 0, err
		}
	}
	return len(ids), nil
}
