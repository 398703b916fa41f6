// Package chunk splits a pair's ordered match list into size-bounded documents.
//
// A Writer starts unchunked and buffers every match. The first time adding a
// match would push the buffered batch past the byte ceiling it flushes the
// batch as part 1 and switches to chunked mode for the rest of the pair; from
// then on each further overflow flushes the next part. Finish flushes the
// tail when chunked, or hands the whole buffer back for inline embedding.
//
// The size of a batch is estimated from each match encoded on its own plus
// one separator byte, and the overflow check reserves two bytes for the
// array brackets. The estimate ignores the {"matches":...} wrapper, so a part
// may exceed the ceiling by a few bytes. Boundaries depend only on the match
// list and the ceiling.
package chunk

import (
	"fmt"

	"github.com/pable/go-h2h/internal/jsonfile"
	"github.com/pable/go-h2h/internal/model"
)

// DefaultMaxBytes is the per-file ceiling used by the archive.
const DefaultMaxBytes = 5 * 1024 * 1024

const (
	separatorBytes = 1
	bracketBytes   = 2
)

// Sink persists a document at a slash-separated path relative to the pair tree.
type Sink interface {
	Write(rel string, v any) (int, error)
}

// Result is the outcome of writing one pair.
type Result struct {
	// Inline holds the full match list when no chunk was written.
	Inline []model.Match
	// Chunks lists the written parts in order, as references like "h2h/3/5.part1.json".
	Chunks []string
	// Bytes is the total size of the chunk files written.
	Bytes int
}

// Chunked reports whether the pair was split into parts.
func (r Result) Chunked() bool {
	return len(r.Chunks) > 0
}

// Writer is the per-pair chunking state machine. It is not safe for concurrent use.
type Writer struct {
	sink      Sink
	key       model.PairKey
	maxBytes  int
	refPrefix string

	batch   []model.Match
	size    int
	chunked bool
	next    int
	result  Result
}

// NewWriter returns a writer for one pair. refPrefix is prepended to chunk
// paths when they are recorded in the manifest, e.g. "h2h/".
func NewWriter(sink Sink, key model.PairKey, maxBytes int, refPrefix string) *Writer {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Writer{
		sink:      sink,
		key:       key,
		maxBytes:  maxBytes,
		refPrefix: refPrefix,
		next:      1,
	}
}

// Add appends the next match in archive order, flushing a part first if the
// match would not fit.
func (w *Writer) Add(m model.Match) error {
	n, err := jsonfile.Size(m)
	if err != nil {
		return fmt.Errorf("size match for %d/%d: %w", w.key.A, w.key.B, err)
	}
	if w.overflows(n) {
		w.chunked = true
		if err := w.flush(); err != nil {
			return err
		}
	}
	w.batch = append(w.batch, m)
	w.size += n + separatorBytes
	return nil
}

func (w *Writer) overflows(n int) bool {
	return w.size+n+bracketBytes > w.maxBytes
}

// flush writes the buffered batch as the next part. An empty batch writes nothing.
func (w *Writer) flush() error {
	if len(w.batch) == 0 {
		return nil
	}
	rel := w.key.ChunkPath(w.next)
	n, err := w.sink.Write(rel, model.ChunkDocument{Matches: w.batch})
	if err != nil {
		return fmt.Errorf("write chunk %s: %w", rel, err)
	}
	w.result.Chunks = append(w.result.Chunks, w.refPrefix+rel)
	w.result.Bytes += n
	w.next++
	w.batch = nil
	w.size = 0
	return nil
}

// Finish flushes the remaining batch when chunked, or returns it inline.
func (w *Writer) Finish() (Result, error) {
	if w.chunked {
		if err := w.flush(); err != nil {
			return Result{}, err
		}
		return w.result, nil
	}
	w.result.Inline = w.batch
	if w.result.Inline == nil {
		w.result.Inline = []model.Match{}
	}
	w.batch = nil
	return w.result, nil
}
