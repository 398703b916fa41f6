package chunk

import (
	"errors"
	"fmt"
	"testing"

	"github.com/pable/go-h2h/internal/jsonfile"
	"github.com/pable/go-h2h/internal/model"
)

// memSink records written documents in order.
type memSink struct {
	paths []string
	docs  map[string]model.ChunkDocument
	fail  error
}

func newMemSink() *memSink {
	return &memSink{docs: make(map[string]model.ChunkDocument)}
}

func (s *memSink) Write(rel string, v any) (int, error) {
	if s.fail != nil {
		return 0, s.fail
	}
	doc, ok := v.(model.ChunkDocument)
	if !ok {
		return 0, fmt.Errorf("unexpected document %T", v)
	}
	s.paths = append(s.paths, rel)
	s.docs[rel] = doc
	return jsonfile.Size(doc)
}

var key = model.PairKey{A: 3, B: 5}

// sameSizeMatches returns n matches whose encodings all have the same length.
func sameSizeMatches(n int) []model.Match {
	ms := make([]model.Match, n)
	for i := range ms {
		ms[i] = model.Match{TournamentName: "Cup", GoalsID1: i % 10, GoalsID2: (i + 3) % 10}
	}
	return ms
}

func writeAll(t *testing.T, sink Sink, ms []model.Match, maxBytes int) Result {
	t.Helper()
	w := NewWriter(sink, key, maxBytes, "h2h/")
	for _, m := range ms {
		if err := w.Add(m); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	res, err := w.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	return res
}

func matchSize(t *testing.T) int {
	t.Helper()
	n, err := jsonfile.Size(sameSizeMatches(1)[0])
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	return n
}

func TestWriter_InlineUnderCeiling(t *testing.T) {
	sink := newMemSink()
	ms := sameSizeMatches(5)
	res := writeAll(t, sink, ms, DefaultMaxBytes)

	if res.Chunked() {
		t.Fatalf("expected inline result, got chunks %v", res.Chunks)
	}
	if len(res.Inline) != 5 {
		t.Errorf("inline = %d matches, want 5", len(res.Inline))
	}
	if len(sink.paths) != 0 {
		t.Errorf("inline pair wrote %d chunk files", len(sink.paths))
	}
}

// TestWriter_ChunkCount: N matches of S bytes each. A part holds k matches
// while (k-1)*(S+1) + S + 2 <= max.
func TestWriter_ChunkCount(t *testing.T) {
	s := matchSize(t)
	perPart := 8
	maxBytes := (perPart-1)*(s+1) + s + bracketBytes // exactly 8 fit
	n := 30

	sink := newMemSink()
	res := writeAll(t, sink, sameSizeMatches(n), maxBytes)

	wantParts := (n + perPart - 1) / perPart
	if len(res.Chunks) != wantParts {
		t.Fatalf("parts = %d, want %d", len(res.Chunks), wantParts)
	}
	if res.Inline != nil {
		t.Error("chunked result must not carry inline matches")
	}
	total := 0
	for i, ref := range res.Chunks {
		rel := key.ChunkPath(i + 1)
		if ref != "h2h/"+rel {
			t.Errorf("chunk %d ref = %q, want h2h/%s", i, ref, rel)
		}
		got := len(sink.docs[rel].Matches)
		if i < wantParts-1 && got != perPart {
			t.Errorf("part %d holds %d matches, want %d", i+1, got, perPart)
		}
		total += got
	}
	if total != n {
		t.Errorf("matches across parts = %d, want %d", total, n)
	}
}

func TestWriter_PreservesOrderAcrossParts(t *testing.T) {
	ms := sameSizeMatches(23)
	for i := range ms {
		ms[i].TournamentID = ptr(int64(100 + i)) // keep sizes equal: all three-digit ids
	}
	s, _ := jsonfile.Size(ms[0])
	sink := newMemSink()
	res := writeAll(t, sink, ms, 4*(s+1)+bracketBytes)

	var seen []int64
	for i := range res.Chunks {
		for _, m := range sink.docs[key.ChunkPath(i+1)].Matches {
			seen = append(seen, *m.TournamentID)
		}
	}
	if len(seen) != len(ms) {
		t.Fatalf("saw %d matches, want %d", len(seen), len(ms))
	}
	for i, id := range seen {
		if id != int64(100+i) {
			t.Fatalf("position %d holds match %d", i, id)
		}
	}
}

func TestWriter_Deterministic(t *testing.T) {
	ms := sameSizeMatches(50)
	ms[7].Stage = "a much longer stage description that changes this match's size"
	first := writeAll(t, newMemSink(), ms, 600)
	for run := 0; run < 5; run++ {
		again := writeAll(t, newMemSink(), ms, 600)
		if fmt.Sprint(again.Chunks) != fmt.Sprint(first.Chunks) || again.Bytes != first.Bytes {
			t.Fatalf("run %d: boundaries differ: %v vs %v", run, again.Chunks, first.Chunks)
		}
	}
}

func TestWriter_OversizedSingleMatch(t *testing.T) {
	s := matchSize(t)
	sink := newMemSink()
	res := writeAll(t, sink, sameSizeMatches(3), s) // nothing fits with brackets

	if len(res.Chunks) != 3 {
		t.Fatalf("parts = %d, want one per match", len(res.Chunks))
	}
	for i := range res.Chunks {
		if got := len(sink.docs[key.ChunkPath(i+1)].Matches); got != 1 {
			t.Errorf("part %d holds %d matches", i+1, got)
		}
	}
}

func TestWriter_EmptyInput(t *testing.T) {
	res := writeAll(t, newMemSink(), nil, DefaultMaxBytes)
	if res.Chunked() || res.Inline == nil || len(res.Inline) != 0 {
		t.Errorf("empty input should give an empty inline list, got %+v", res)
	}
}

func TestWriter_SinkError(t *testing.T) {
	sink := newMemSink()
	sink.fail = errors.New("disk full")
	w := NewWriter(sink, key, 10, "h2h/")
	var err error
	for _, m := range sameSizeMatches(3) {
		if err = w.Add(m); err != nil {
			break
		}
	}
	if err == nil {
		_, err = w.Finish()
	}
	if !errors.Is(err, sink.fail) {
		t.Errorf("expected sink error to propagate, got %v", err)
	}
}

func ptr[T any](v T) *T { return &v }
