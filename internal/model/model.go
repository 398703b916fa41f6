package model

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar-date form used in every serialized document.
const DateLayout = "2006-01-02"

// ---- Source records ----

// Record is one loosely typed source row keyed by column name.
// A missing key means the column is absent or the value was NULL.
type Record map[string]string

// Lookup returns the trimmed value for col and whether it is present and non-blank.
func (r Record) Lookup(col string) (string, bool) {
	v, ok := r[col]
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

// ---- Normalized source rows ----

// MatchRow is one game between two competitors after normalization.
// Optional numeric fields are nil when the source had no usable value;
// nil is distinct from zero and serializes as null.
type MatchRow struct {
	Seq int // position in the source table, used as the final sort tie-break

	Player1ID, Player2ID     int64
	Player1Name, Player2Name string
	Goals1, Goals2           int
	Overtime                 bool

	Date *time.Time

	TournamentID   *int64
	TournamentName string
	StageID        *int64
	Stage          string

	StageSequence     *int64
	RoundNumber       *int64
	PlayoffGameNumber *int64
}

// PairKey identifies an unordered competitor pair. A < B always holds for keys built by pairing.KeyOf.
type PairKey struct {
	A, B int64
}

// ---- Archive documents ----

// Match is one game as serialized in a pair document, oriented to the pair key.
// Field order is the on-disk field order.
type Match struct {
	Date              *string `json:"date"`
	TournamentID      *int64  `json:"tournament_id"`
	TournamentName    string  `json:"tournament_name"`
	Stage             string  `json:"stage"`
	StageID           *int64  `json:"stage_id"`
	StageSequence     *int64  `json:"stage_sequence"`
	RoundNumber       *int64  `json:"round_number"`
	PlayoffGameNumber *int64  `json:"playoff_game_number"`
	GoalsID1          int     `json:"goals_id1"`
	GoalsID2          int     `json:"goals_id2"`
	Overtime          bool    `json:"overtime"`
}

// KeyedMatch is a match oriented to its pair key, carrying the fields it is ordered by.
// NameA and NameB are the source names of the pair's lower and higher id.
type KeyedMatch struct {
	Match
	Key          PairKey
	Seq          int
	When         *time.Time
	NameA, NameB string
}

// SideRecord is a win/loss/draw tally from one competitor's perspective.
type SideRecord struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
	Draws  int `json:"draws"`
}

// Total returns the number of games in the tally.
func (r SideRecord) Total() int {
	return r.Wins + r.Losses + r.Draws
}

// Mirror returns the same tally from the opponent's perspective.
func (r SideRecord) Mirror() SideRecord {
	return SideRecord{Wins: r.Losses, Losses: r.Wins, Draws: r.Draws}
}

// LastTen holds the last-10 window from both sides of the pair.
type LastTen struct {
	ID1 SideRecord `json:"id1"`
	ID2 SideRecord `json:"id2"`
}

// TournamentRef is a tournament seen in a pair's history.
type TournamentRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Summary aggregates all games of a pair, oriented to the pair key.
type Summary struct {
	TotalMatches     int             `json:"total_matches"`
	WinsID1          int             `json:"wins_id1"`
	WinsID2          int             `json:"wins_id2"`
	Draws            int             `json:"draws"`
	GoalsForID1      int             `json:"goals_for_id1"`
	GoalsForID2      int             `json:"goals_for_id2"`
	OvertimeGames    int             `json:"overtime_games"`
	FirstMeetingDate *string         `json:"first_meeting_date"`
	LastMeetingDate  *string         `json:"last_meeting_date"`
	Tournaments      []TournamentRef `json:"tournaments"`
	Last10           LastTen         `json:"last_10"`
}

// WinPctID1 returns the share of games won by the lower id, in percent.
func (s *Summary) WinPctID1() float64 {
	if s.TotalMatches == 0 {
		return 0
	}
	return float64(s.WinsID1) / float64(s.TotalMatches) * 100
}

// WinPctID2 returns the share of games won by the higher id, in percent.
func (s *Summary) WinPctID2() float64 {
	if s.TotalMatches == 0 {
		return 0
	}
	return float64(s.WinsID2) / float64(s.TotalMatches) * 100
}

// RecordID1 returns the full record from the lower id's perspective.
func (s *Summary) RecordID1() SideRecord {
	return SideRecord{Wins: s.WinsID1, Losses: s.WinsID2, Draws: s.Draws}
}

// PlayerRef is the identity block of a pair document.
type PlayerRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// PairDocument is h2h/<a>/<b>.json. Exactly one of Matches and Chunks is set.
type PairDocument struct {
	Player1 PlayerRef `json:"player1"`
	Player2 PlayerRef `json:"player2"`
	Summary Summary   `json:"summary"`
	Matches []Match   `json:"matches,omitempty"`
	Chunks  []string  `json:"chunks,omitempty"`
}

// Chunked reports whether the document is a manifest.
func (d *PairDocument) Chunked() bool {
	return d.Chunks != nil
}

// ChunkDocument is h2h/<a>/<b>.partN.json.
type ChunkDocument struct {
	Matches []Match `json:"matches"`
}

// ---- Lookup documents ----

// Player is one entry of players.json.
type Player struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	RankingID   *int64 `json:"ranking_id"`
	Country     string `json:"country"`
	City        string `json:"city"`
	DateOfBirth string `json:"date_of_birth"`
	Sex         string `json:"sex"`
	SearchKey   string `json:"search_key"`
}

// Tournament is one entry of tournaments.json.
type Tournament struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// ---- Per-player opponent index ----

// OpponentEntry describes one opponent in a player's index, from the indexed player's perspective.
type OpponentEntry struct {
	Player  PlayerRef       `json:"player"`
	Path    string          `json:"path"`
	Summary OpponentSummary `json:"summary"`
}

// OpponentSummary is the condensed record stored in the opponent index.
type OpponentSummary struct {
	TotalMatches int `json:"total_matches"`
	Wins         int `json:"wins"`
	Losses       int `json:"losses"`
	Draws        int `json:"draws"`
}

// PlayerIndex is h2h/<id>.json, keyed by opponent id.
type PlayerIndex struct {
	Player    PlayerRef                `json:"player"`
	Opponents map[string]OpponentEntry `json:"opponents"`
}

// DocPath is the pair document path relative to the pair tree, "<a>/<b>.json".
func (k PairKey) DocPath() string {
	return fmt.Sprintf("%d/%d.json", k.A, k.B)
}

// ChunkPath is the path of chunk n (from 1) relative to the pair tree.
func (k PairKey) ChunkPath(n int) string {
	return fmt.Sprintf("%d/%d.part%d.json", k.A, k.B, n)
}

// IndexPath is the opponent index path of competitor id relative to the pair tree.
func IndexPath(id int64) string {
	return fmt.Sprintf("%d.json", id)
}
