package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/pable/go-h2h/internal/model"
)

// BuildRecord is one archive build.
type BuildRecord struct {
	ID           int64
	RunID        string
	BuiltAt      time.Time
	OutputDir    string
	SourceRows   int
	DroppedRows  int
	Pairs        int
	Matches      int
	ChunkedPairs int
	ChunkFiles   int
	IndexFiles   int
	Files        int64
	Bytes        int64
	Duration     time.Duration
}

// PairRecord is the catalog view of one pair document.
type PairRecord struct {
	ID1, ID2      int64
	Name1, Name2  string
	TotalMatches  int
	WinsID1       int
	WinsID2       int
	Draws         int
	GoalsForID1   int
	GoalsForID2   int
	OvertimeGames int
	FirstMeeting  string
	LastMeeting   string
	Chunks        int
	Bytes         int
}

// PairFilter narrows ListPairs. Zero values mean no restriction.
type PairFilter struct {
	PlayerID int64
	Limit    int
}

// Standing is one competitor's record across all opponents.
type Standing struct {
	ID        int64
	Name      string
	Opponents int
	Matches   int
	Wins      int
	Losses    int
	Draws     int
}

// Overview summarizes the catalog contents.
type Overview struct {
	Builds       int
	Pairs        int
	Players      int
	Matches      int
	ChunkedPairs int
}

// RecordBuild stores a build and replaces the pair and player catalog with
// its results in one transaction. It returns the new build id.
func (db *DB) RecordBuild(b BuildRecord, pairs []PairRecord, players []model.Player) (int64, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		INSERT INTO builds(run_id, built_at, output_dir, source_rows, dropped_rows, pairs, matches,
			chunked_pairs, chunk_files, index_files, files, bytes, duration_ms)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		b.RunID, b.BuiltAt.UTC().Format(time.RFC3339), b.OutputDir, b.SourceRows, b.DroppedRows,
		b.Pairs, b.Matches, b.ChunkedPairs, b.ChunkFiles, b.IndexFiles,
		b.Files, b.Bytes, b.Duration.Milliseconds(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert build: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if _, err := tx.Exec("DELETE FROM pairs"); err != nil {
		return 0, fmt.Errorf("clear pairs: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM players"); err != nil {
		return 0, fmt.Errorf("clear players: %w", err)
	}

	pairStmt, err := tx.Prepare(`
		INSERT INTO pairs(
			id1, id2, name1, name2,
			total_matches, wins_id1, wins_id2, draws,
			goals_for_id1, goals_for_id2, overtime_games,
			first_meeting, last_meeting, chunks, bytes
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return 0, err
	}
	defer pairStmt.Close()

	for _, p := range pairs {
		_, err = pairStmt.Exec(
			p.ID1, p.ID2, p.Name1, p.Name2,
			p.TotalMatches, p.WinsID1, p.WinsID2, p.Draws,
			p.GoalsForID1, p.GoalsForID2, p.OvertimeGames,
			p.FirstMeeting, p.LastMeeting, p.Chunks, p.Bytes,
		)
		if err != nil {
			return 0, fmt.Errorf("insert pair %d/%d: %w", p.ID1, p.ID2, err)
		}
	}

	playerStmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO players(id, name, search_key, ranking_id, country, city, date_of_birth, sex)
		VALUES (?,?,?,?,?,?,?,?)`)
	if err != nil {
		return 0, err
	}
	defer playerStmt.Close()

	for _, p := range players {
		_, err = playerStmt.Exec(p.ID, p.Name, p.SearchKey, p.RankingID, p.Country, p.City, p.DateOfBirth, p.Sex)
		if err != nil {
			return 0, fmt.Errorf("insert player %d: %w", p.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

const pairColumns = `id1, id2, name1, name2, total_matches, wins_id1, wins_id2, draws,
	goals_for_id1, goals_for_id2, overtime_games, first_meeting, last_meeting, chunks, bytes`

type scanner interface {
	Scan(dest ...any) error
}

func scanPair(s scanner) (PairRecord, error) {
	var p PairRecord
	err := s.Scan(&p.ID1, &p.ID2, &p.Name1, &p.Name2, &p.TotalMatches, &p.WinsID1, &p.WinsID2, &p.Draws,
		&p.GoalsForID1, &p.GoalsForID2, &p.OvertimeGames, &p.FirstMeeting, &p.LastMeeting, &p.Chunks, &p.Bytes)
	return p, err
}

// ListPairs returns pairs ordered by number of meetings, most first.
func (db *DB) ListPairs(f PairFilter) ([]PairRecord, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.conn.Query(`
		SELECT `+pairColumns+`
		FROM pairs
		WHERE ? = 0 OR id1 = ? OR id2 = ?
		ORDER BY total_matches DESC, id1, id2
		LIMIT ?`, f.PlayerID, f.PlayerID, f.PlayerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PairRecord
	for rows.Next() {
		p, err := scanPair(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetPair returns the pair for two ids in either order, or nil if it is not catalogued.
func (db *DB) GetPair(a, b int64) (*PairRecord, error) {
	if b < a {
		a, b = b, a
	}
	p, err := scanPair(db.conn.QueryRow(`SELECT `+pairColumns+` FROM pairs WHERE id1 = ? AND id2 = ?`, a, b))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// LastBuild returns the most recent build, or nil if none was recorded.
func (db *DB) LastBuild() (*BuildRecord, error) {
	var b BuildRecord
	var builtAt string
	var durMs int64
	err := db.conn.QueryRow(`
		SELECT id, run_id, built_at, output_dir, source_rows, dropped_rows, pairs, matches,
			chunked_pairs, chunk_files, index_files, files, bytes, duration_ms
		FROM builds ORDER BY id DESC LIMIT 1`).
		Scan(&b.ID, &b.RunID, &builtAt, &b.OutputDir, &b.SourceRows, &b.DroppedRows, &b.Pairs, &b.Matches,
			&b.ChunkedPairs, &b.ChunkFiles, &b.IndexFiles, &b.Files, &b.Bytes, &durMs)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if b.BuiltAt, err = time.Parse(time.RFC3339, builtAt); err != nil {
		return nil, fmt.Errorf("parse built_at %q: %w", builtAt, err)
	}
	b.Duration = time.Duration(durMs) * time.Millisecond
	return &b, nil
}

// Overview counts what the catalog holds.
func (db *DB) Overview() (Overview, error) {
	var o Overview
	err := db.conn.QueryRow(`
		SELECT
			(SELECT COUNT(1) FROM builds),
			COUNT(1),
			COALESCE(SUM(total_matches), 0),
			COALESCE(SUM(chunks > 0), 0),
			(SELECT COUNT(1) FROM players)
		FROM pairs`).Scan(&o.Builds, &o.Pairs, &o.Matches, &o.ChunkedPairs, &o.Players)
	return o, err
}

// TopPlayers returns the n competitors with the most catalogued games. Names
// come from the player lookup when present, else from the pair documents.
func (db *DB) TopPlayers(n int) ([]Standing, error) {
	rows, err := db.conn.Query(`
		SELECT s.id, COALESCE(NULLIF(pl.name, ''), MAX(s.name), ''),
			COUNT(1), SUM(s.total), SUM(s.wins), SUM(s.losses), SUM(s.draws)
		FROM (
			SELECT id1 AS id, name1 AS name, total_matches AS total, wins_id1 AS wins, wins_id2 AS losses, draws FROM pairs
			UNION ALL
			SELECT id2, name2, total_matches, wins_id2, wins_id1, draws FROM pairs
		) s
		LEFT JOIN players pl ON pl.id = s.id
		GROUP BY s.id
		ORDER BY SUM(s.total) DESC, s.id
		LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Standing
	for rows.Next() {
		var s Standing
		if err := rows.Scan(&s.ID, &s.Name, &s.Opponents, &s.Matches, &s.Wins, &s.Losses, &s.Draws); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// FindPlayers returns competitors whose search key contains key, ordered by name.
// key must already be folded the way search keys are.
func (db *DB) FindPlayers(key string, limit int) ([]model.Player, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.conn.Query(`
		SELECT id, name, search_key, ranking_id, country, city, date_of_birth, sex
		FROM players
		WHERE instr(search_key, ?) > 0
		ORDER BY lower(name), id
		LIMIT ?`, key, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Player
	for rows.Next() {
		var p model.Player
		var ranking sql.NullInt64
		if err := rows.Scan(&p.ID, &p.Name, &p.SearchKey, &ranking, &p.Country, &p.City, &p.DateOfBirth, &p.Sex); err != nil {
			return nil, err
		}
		if ranking.Valid {
			v := ranking.Int64
			p.RankingID = &v
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
