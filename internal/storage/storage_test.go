package storage

import (
	"testing"
	"time"

	"github.com/pable/go-h2h/internal/model"
)

func openMemDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func i64(v int64) *int64 { return &v }

func samplePairs() []PairRecord {
	return []PairRecord{
		{ID1: 3, ID2: 5, Name1: "Ann", Name2: "Bob", TotalMatches: 3, WinsID1: 1, Draws: 2,
			GoalsForID1: 6, GoalsForID2: 4, OvertimeGames: 1, FirstMeeting: "2021-01-01", LastMeeting: "2022-01-01"},
		{ID1: 3, ID2: 8, Name1: "Ann", Name2: "Cid", TotalMatches: 1, WinsID2: 1},
		{ID1: 1, ID2: 2, Name1: "", Name2: "Dee", TotalMatches: 60, WinsID1: 30, WinsID2: 20, Draws: 10, Chunks: 7},
	}
}

func samplePlayers() []model.Player {
	return []model.Player{
		{ID: 3, Name: "Ann", SearchKey: "ann", RankingID: i64(12)},
		{ID: 5, Name: "Björn", SearchKey: "bjorn"},
		{ID: 1, Name: "Annika", SearchKey: "annika", Country: "SE"},
	}
}

func record(t *testing.T, db *DB, at time.Time) int64 {
	t.Helper()
	id, err := db.RecordBuild(BuildRecord{
		RunID: "run-" + at.Format(time.RFC3339), BuiltAt: at, OutputDir: "public/data", SourceRows: 70, DroppedRows: 6,
		Pairs: 3, Matches: 64, ChunkedPairs: 1, ChunkFiles: 7, Files: 12, Bytes: 4096,
		Duration: 1500 * time.Millisecond,
	}, samplePairs(), samplePlayers())
	if err != nil {
		t.Fatalf("RecordBuild: %v", err)
	}
	return id
}

// ---- Builds ----

func TestRecordBuild_LastBuild(t *testing.T) {
	db := openMemDB(t)

	if b, err := db.LastBuild(); err != nil || b != nil {
		t.Fatalf("empty catalog: %+v, %v", b, err)
	}

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	record(t, db, at.Add(-time.Hour))
	id := record(t, db, at)

	b, err := db.LastBuild()
	if err != nil {
		t.Fatalf("LastBuild: %v", err)
	}
	if b.ID != id || !b.BuiltAt.Equal(at) || b.RunID != "run-2026-03-01T12:00:00Z" {
		t.Errorf("last build = %+v, want id %d at %s", b, id, at)
	}
	if b.Duration != 1500*time.Millisecond || b.DroppedRows != 6 || b.ChunkFiles != 7 {
		t.Errorf("fields lost: %+v", b)
	}
}

func TestRecordBuild_ReplacesCatalog(t *testing.T) {
	db := openMemDB(t)
	record(t, db, time.Now())

	_, err := db.RecordBuild(BuildRecord{BuiltAt: time.Now(), OutputDir: "x"},
		[]PairRecord{{ID1: 7, ID2: 9, TotalMatches: 2}}, nil)
	if err != nil {
		t.Fatalf("RecordBuild: %v", err)
	}

	o, err := db.Overview()
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	if o.Builds != 2 || o.Pairs != 1 || o.Players != 0 || o.Matches != 2 {
		t.Errorf("overview = %+v", o)
	}
}

func TestRecordBuild_RejectsUnorderedPair(t *testing.T) {
	db := openMemDB(t)
	_, err := db.RecordBuild(BuildRecord{BuiltAt: time.Now()}, []PairRecord{{ID1: 9, ID2: 7}}, nil)
	if err == nil {
		t.Fatal("expected constraint error for id1 > id2")
	}
	if o, _ := db.Overview(); o.Builds != 0 {
		t.Errorf("failed build was committed: %+v", o)
	}
}

// ---- Pairs ----

func TestListPairs(t *testing.T) {
	db := openMemDB(t)
	record(t, db, time.Now())

	all, err := db.ListPairs(PairFilter{})
	if err != nil {
		t.Fatalf("ListPairs: %v", err)
	}
	if len(all) != 3 || all[0].ID1 != 1 || all[1].ID2 != 5 {
		t.Errorf("expected most meetings first, got %+v", all)
	}

	forAnn, err := db.ListPairs(PairFilter{PlayerID: 3, Limit: 1})
	if err != nil {
		t.Fatalf("ListPairs: %v", err)
	}
	if len(forAnn) != 1 || forAnn[0].ID2 != 5 {
		t.Errorf("filtered = %+v", forAnn)
	}
}

func TestGetPair(t *testing.T) {
	db := openMemDB(t)
	record(t, db, time.Now())

	p, err := db.GetPair(5, 3)
	if err != nil {
		t.Fatalf("GetPair: %v", err)
	}
	if p == nil || p.TotalMatches != 3 || p.FirstMeeting != "2021-01-01" || p.OvertimeGames != 1 {
		t.Errorf("pair = %+v", p)
	}

	missing, err := db.GetPair(3, 4)
	if err != nil || missing != nil {
		t.Errorf("missing pair = %+v, %v", missing, err)
	}
}

// ---- Players ----

func TestTopPlayers(t *testing.T) {
	db := openMemDB(t)
	record(t, db, time.Now())

	top, err := db.TopPlayers(2)
	if err != nil {
		t.Fatalf("TopPlayers: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("got %d standings", len(top))
	}
	// 1 and 2 both played 60; tie broken by id.
	if top[0].ID != 1 || top[0].Name != "Annika" || top[0].Wins != 30 || top[0].Losses != 20 {
		t.Errorf("first = %+v", top[0])
	}
	if top[1].ID != 2 || top[1].Name != "Dee" || top[1].Wins != 20 {
		t.Errorf("second = %+v", top[1])
	}

	all, _ := db.TopPlayers(10)
	for _, s := range all {
		if s.ID == 3 && (s.Opponents != 2 || s.Matches != 4 || s.Wins != 1 || s.Losses != 1 || s.Draws != 2) {
			t.Errorf("Ann = %+v", s)
		}
	}
}

func TestFindPlayers(t *testing.T) {
	db := openMemDB(t)
	record(t, db, time.Now())

	found, err := db.FindPlayers("ann", 0)
	if err != nil {
		t.Fatalf("FindPlayers: %v", err)
	}
	if len(found) != 2 || found[0].ID != 3 || found[1].ID != 1 {
		t.Errorf("found = %+v", found)
	}
	if found[0].RankingID == nil || *found[0].RankingID != 12 {
		t.Errorf("ranking id lost: %+v", found[0])
	}
	if found[1].RankingID != nil {
		t.Errorf("NULL ranking id should stay nil: %+v", found[1])
	}

	bjorn, _ := db.FindPlayers("bjo", 5)
	if len(bjorn) != 1 || bjorn[0].Name != "Björn" {
		t.Errorf("bjorn = %+v", bjorn)
	}
}

// ---- Raw ----

func TestQueryRaw(t *testing.T) {
	db := openMemDB(t)
	record(t, db, time.Now())

	cols, rows, err := db.QueryRaw("SELECT id, ranking_id FROM players ORDER BY id")
	if err != nil {
		t.Fatalf("QueryRaw: %v", err)
	}
	if len(cols) != 2 || cols[0] != "id" {
		t.Errorf("cols = %v", cols)
	}
	if len(rows) != 3 || rows[0][0] != "1" || rows[0][1] != "NULL" || rows[1][1] != "12" {
		t.Errorf("rows = %v", rows)
	}

	if _, _, err := db.QueryRaw("SELECT nope FROM nowhere"); err == nil {
		t.Error("expected error for a bad query")
	}
}
