package normalize

import (
	"sort"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/pable/go-h2h/internal/model"
)

// Source column names of the competitor and tournament tables.
const (
	ColPlayerID    = "PlayerID"
	ColName        = "Name"
	ColRankingID   = "RankingID"
	ColCountry     = "Country"
	ColCity        = "City"
	ColDateOfBirth = "DateOfBirth"
	ColSex         = "Sex"

	ColTournamentTableID = "ID"
	ColTournamentType    = "Type"
)

var foldPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFKD,
			runes.Remove(runes.Predicate(func(r rune) bool { return r > unicode.MaxASCII })),
		)
	},
}

// SearchKey folds a name into its ASCII lowercase search form: compatibility
// decomposition, accents and other non-ASCII characters dropped.
func SearchKey(name string) string {
	s := strings.TrimSpace(name)
	if s == "" {
		return ""
	}
	tr := foldPool.Get().(transform.Transformer)
	out, _, err := transform.String(tr, strings.ToValidUTF8(s, ""))
	tr.Reset()
	foldPool.Put(tr)
	if err != nil {
		return ""
	}
	return strings.ToLower(out)
}

// Player normalizes one competitor record. Records without an id are rejected.
func Player(rec model.Record) (model.Player, bool) {
	id := OptionalInt(rec, ColPlayerID)
	if id == nil {
		return model.Player{}, false
	}
	name := Text(rec, ColName)
	return model.Player{
		ID:          *id,
		Name:        name,
		RankingID:   OptionalInt(rec, ColRankingID),
		Country:     Text(rec, ColCountry),
		City:        Text(rec, ColCity),
		DateOfBirth: Text(rec, ColDateOfBirth),
		Sex:         Text(rec, ColSex),
		SearchKey:   SearchKey(name),
	}, true
}

// Players normalizes the competitor table and returns it sorted by name.
func Players(recs []model.Record) []model.Player {
	out := make([]model.Player, 0, len(recs))
	for _, rec := range recs {
		if p, ok := Player(rec); ok {
			out = append(out, p)
		}
	}
	SortPlayers(out)
	return out
}

// Tournament normalizes one tournament record. Records without an id are rejected.
func Tournament(rec model.Record) (model.Tournament, bool) {
	id := OptionalInt(rec, ColTournamentTableID)
	if id == nil {
		return model.Tournament{}, false
	}
	return model.Tournament{
		ID:   *id,
		Name: Text(rec, ColName),
		Type: Text(rec, ColTournamentType),
	}, true
}

// Tournaments normalizes the tournament table and returns it sorted by name.
func Tournaments(recs []model.Record) []model.Tournament {
	out := make([]model.Tournament, 0, len(recs))
	for _, rec := range recs {
		if t, ok := Tournament(rec); ok {
			out = append(out, t)
		}
	}
	SortTournaments(out)
	return out
}

// SortPlayers orders players by lowercase name, then id. Equal entries keep their input order.
func SortPlayers(ps []model.Player) {
	sort.SliceStable(ps, func(i, j int) bool {
		return nameLess(ps[i].Name, ps[i].ID, ps[j].Name, ps[j].ID)
	})
}

// SortTournaments orders tournaments by lowercase name, then id.
func SortTournaments(ts []model.Tournament) {
	sort.SliceStable(ts, func(i, j int) bool {
		return nameLess(ts[i].Name, ts[i].ID, ts[j].Name, ts[j].ID)
	})
}

// SortTournamentRefs orders tournament references by lowercase name, then id.
func SortTournamentRefs(ts []model.TournamentRef) {
	sort.SliceStable(ts, func(i, j int) bool {
		return nameLess(ts[i].Name, ts[i].ID, ts[j].Name, ts[j].ID)
	})
}

func nameLess(a string, aID int64, b string, bID int64) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la != lb {
		return la < lb
	}
	return aID < bID
}

// Names builds the id to name lookup. A later record for the same id wins.
func Names(players []model.Player) map[int64]string {
	out := make(map[int64]string, len(players))
	for _, p := range players {
		out[p.ID] = p.Name
	}
	return out
}
