// Package archive materializes the head-to-head archive consumed by the front end.
//
// Layout under the output directory:
//
//	players.json               competitors sorted by name
//	tournaments.json           tournaments sorted by name
//	h2h/<a>/<b>.json           pair document (inline matches) or manifest
//	h2h/<a>/<b>.partN.json     chunk documents referenced by the manifest
//	h2h/<id>.json              per-competitor opponent index
//
// The h2h tree is rebuilt from scratch on every run: pairs are written into a
// staging directory that replaces h2h/ only once every pair succeeded.
package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/pable/go-h2h/internal/aggregator"
	"github.com/pable/go-h2h/internal/chunk"
	"github.com/pable/go-h2h/internal/jsonfile"
	"github.com/pable/go-h2h/internal/model"
	"github.com/pable/go-h2h/internal/normalize"
)

const (
	// PairDir is the pair tree directory under the output directory.
	PairDir = "h2h"
	// PlayersFile is the competitor lookup document.
	PlayersFile = "players.json"
	// TournamentsFile is the tournament lookup document.
	TournamentsFile = "tournaments.json"

	stagingPattern = ".h2h-staging-*"
)

// Options tunes a build.
type Options struct {
	// MaxChunkBytes is the per-file ceiling for a pair's match list.
	MaxChunkBytes int
	// Workers is the number of pairs written concurrently. Output does not depend on it.
	Workers int
	// PlayerIndex enables h2h/<id>.json.
	PlayerIndex bool
}

// DefaultOptions returns the production settings.
func DefaultOptions() Options {
	return Options{MaxChunkBytes: chunk.DefaultMaxBytes, Workers: 1, PlayerIndex: true}
}

// Input is everything a build consumes.
type Input struct {
	Matches     []model.MatchRow
	Players     []model.Player
	Tournaments []model.Tournament
}

// PairResult describes one written pair.
type PairResult struct {
	Key     model.PairKey
	Player1 model.PlayerRef
	Player2 model.PlayerRef
	Summary model.Summary
	Chunks  int
	Bytes   int
}

// Report summarizes a build.
type Report struct {
	Pairs        []PairResult
	Matches      int
	ChunkedPairs int
	ChunkFiles   int
	IndexFiles   int
	Files        int64
	Bytes        int64
	Duration     time.Duration
}

// Builder writes the archive under a single output directory, which it owns
// for the duration of Build.
type Builder struct {
	dir  string
	opts Options
	log  zerolog.Logger
}

// NewBuilder returns a builder for dir. Zero option fields take their defaults.
func NewBuilder(dir string, opts Options, log zerolog.Logger) *Builder {
	def := DefaultOptions()
	if opts.MaxChunkBytes <= 0 {
		opts.MaxChunkBytes = def.MaxChunkBytes
	}
	if opts.Workers <= 0 {
		opts.Workers = def.Workers
	}
	return &Builder{dir: dir, opts: opts, log: log}
}

// Build runs a full rebuild. Any error aborts the whole run; the previous
// pair tree is left in place when pair writing fails.
func (b *Builder) Build(ctx context.Context, in Input) (*Report, error) {
	start := time.Now()
	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	if err := b.removeStaleStaging(); err != nil {
		return nil, err
	}

	staging, err := os.MkdirTemp(b.dir, stagingPattern)
	if err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			os.RemoveAll(staging)
		}
	}()

	pairs := aggregator.Group(in.Matches)
	b.log.Info().Int("rows", len(in.Matches)).Int("pairs", len(pairs)).Msg("grouped matches")

	sink := jsonfile.NewDir(staging)
	results, err := b.writePairs(ctx, sink, pairs, normalize.Names(in.Players))
	if err != nil {
		return nil, err
	}

	rep := &Report{Pairs: results}
	for _, r := range results {
		rep.Matches += r.Summary.TotalMatches
		if r.Chunks > 0 {
			rep.ChunkedPairs++
			rep.ChunkFiles += r.Chunks
		}
	}

	if b.opts.PlayerIndex {
		n, err := writeIndex(sink, results)
		if err != nil {
			return nil, err
		}
		rep.IndexFiles = n
	}

	if err := b.commit(staging); err != nil {
		return nil, err
	}
	committed = true

	root := jsonfile.NewDir(b.dir)
	players := append([]model.Player{}, in.Players...)
	normalize.SortPlayers(players)
	if _, err := root.Write(PlayersFile, players); err != nil {
		return nil, err
	}
	tournaments := append([]model.Tournament{}, in.Tournaments...)
	normalize.SortTournaments(tournaments)
	if _, err := root.Write(TournamentsFile, tournaments); err != nil {
		return nil, err
	}

	rep.Files = sink.Files() + root.Files()
	rep.Bytes = sink.Bytes() + root.Bytes()
	rep.Duration = time.Since(start)
	b.log.Info().
		Int("pairs", len(results)).
		Int("matches", rep.Matches).
		Int("chunked_pairs", rep.ChunkedPairs).
		Int64("files", rep.Files).
		Dur("took", rep.Duration).
		Msg("archive written")
	return rep, nil
}

// removeStaleStaging deletes staging trees left by a build that was killed
// before it could clean up.
func (b *Builder) removeStaleStaging() error {
	stale, err := filepath.Glob(filepath.Join(b.dir, stagingPattern))
	if err != nil {
		return fmt.Errorf("find stale staging dirs: %w", err)
	}
	for _, dir := range stale {
		b.log.Warn().Str("dir", dir).Msg("removing stale staging dir")
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("remove stale staging dir: %w", err)
		}
	}
	return nil
}

// commit swaps the staging tree in for the pair directory.
func (b *Builder) commit(staging string) error {
	target := filepath.Join(b.dir, PairDir)
	if err := os.RemoveAll(target); err != nil {
		return fmt.Errorf("remove old pair tree: %w", err)
	}
	if err := os.Rename(staging, target); err != nil {
		return fmt.Errorf("commit pair tree: %w", err)
	}
	return nil
}

func (b *Builder) writePairs(ctx context.Context, sink chunk.Sink, pairs []aggregator.Pair, names map[int64]string) ([]PairResult, error) {
	results := make([]PairResult, len(pairs))

	if b.opts.Workers <= 1 {
		for i := range pairs {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			r, err := b.writePair(sink, pairs[i], names)
			if err != nil {
				return nil, err
			}
			results[i] = r
		}
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.opts.Workers)
	for i := range pairs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := b.writePair(sink, pairs[i], names)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// writePair folds and writes one pair in a single pass over its matches.
// Chunks are written before the manifest that references them.
func (b *Builder) writePair(sink chunk.Sink, p aggregator.Pair, names map[int64]string) (PairResult, error) {
	acc := aggregator.NewAccumulator()
	w := chunk.NewWriter(sink, p.Key, b.opts.MaxChunkBytes, PairDir+"/")
	for i := range p.Matches {
		acc.Add(p.Matches[i].Match)
		if err := w.Add(p.Matches[i].Match); err != nil {
			return PairResult{}, err
		}
	}
	res, err := w.Finish()
	if err != nil {
		return PairResult{}, err
	}

	summary := acc.Summary()
	if summary.TotalMatches != len(p.Matches) {
		return PairResult{}, fmt.Errorf("pair %d/%d: summary counts %d matches, list has %d",
			p.Key.A, p.Key.B, summary.TotalMatches, len(p.Matches))
	}

	nameA, nameB := aggregator.Names(p, names)
	doc := model.PairDocument{
		Player1: model.PlayerRef{ID: p.Key.A, Name: nameA},
		Player2: model.PlayerRef{ID: p.Key.B, Name: nameB},
		Summary: summary,
	}
	if res.Chunked() {
		doc.Chunks = res.Chunks
	} else {
		doc.Matches = res.Inline
	}

	n, err := sink.Write(p.Key.DocPath(), doc)
	if err != nil {
		return PairResult{}, fmt.Errorf("write pair %d/%d: %w", p.Key.A, p.Key.B, err)
	}
	b.log.Debug().
		Int64("id1", p.Key.A).
		Int64("id2", p.Key.B).
		Int("matches", summary.TotalMatches).
		Int("chunks", len(res.Chunks)).
		Msg("pair written")

	return PairResult{
		Key:     p.Key,
		Player1: doc.Player1,
		Player2: doc.Player2,
		Summary: summary,
		Chunks:  len(res.Chunks),
		Bytes:   n + res.Bytes,
	}, nil
}
