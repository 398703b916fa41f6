package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pable/go-h2h/internal/archive"
	"github.com/pable/go-h2h/internal/config"
	"github.com/pable/go-h2h/internal/logging"
	"github.com/pable/go-h2h/internal/model"
	"github.com/pable/go-h2h/internal/normalize"
	"github.com/pable/go-h2h/internal/report"
	"github.com/pable/go-h2h/internal/source"
	"github.com/pable/go-h2h/internal/storage"
)

var (
	buildMatches       string
	buildPlayers       string
	buildTournaments   string
	buildOut           string
	buildMaxChunkBytes int
	buildWorkers       int
	buildNoIndex       bool
	buildNoCatalog     bool
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the head-to-head archive from the scraped tables",
	Long: `Read the match, competitor and tournament tables, group every game by competitor pair,
and write the archive under the output directory:

  players.json, tournaments.json   lookup documents sorted by name
  h2h/<a>/<b>.json                 one document per pair, a < b
  h2h/<a>/<b>.partN.json           chunks of pairs too large for one file
  h2h/<id>.json                    per-competitor opponent index

The pair tree is rebuilt from scratch. The build is then recorded in the catalog.`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	f := buildCmd.Flags()
	f.StringVar(&buildMatches, "matches", "", "match table (.parquet or .csv)")
	f.StringVar(&buildPlayers, "players", "", "competitor table (.csv or .parquet)")
	f.StringVar(&buildTournaments, "tournaments", "", "tournament table (.csv or .parquet)")
	f.StringVarP(&buildOut, "out", "o", "", "output directory")
	f.IntVar(&buildMaxChunkBytes, "max-chunk-bytes", 0, "per-file ceiling for a pair's match list")
	f.IntVar(&buildWorkers, "workers", 0, "pairs written concurrently")
	f.BoolVar(&buildNoIndex, "no-player-index", false, "skip h2h/<id>.json")
	f.BoolVar(&buildNoCatalog, "no-catalog", false, "do not record the build in the catalog")
}

// applyBuildFlags overrides configured settings with explicitly set flags.
func applyBuildFlags(cmd *cobra.Command, c *config.Config) error {
	f := cmd.Flags()
	if f.Changed("matches") {
		c.Sources.Matches = buildMatches
	}
	if f.Changed("players") {
		c.Sources.Players = buildPlayers
	}
	if f.Changed("tournaments") {
		c.Sources.Tournaments = buildTournaments
	}
	if f.Changed("out") {
		c.Output.Dir = buildOut
	}
	if f.Changed("max-chunk-bytes") {
		c.Archive.MaxChunkBytes = buildMaxChunkBytes
	}
	if f.Changed("workers") {
		c.Archive.Workers = buildWorkers
	}
	if buildNoIndex {
		c.Archive.PlayerIndex = false
	}
	return c.Validate()
}

func runBuild(cmd *cobra.Command, args []string) error {
	if err := applyBuildFlags(cmd, cfg); err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	started := time.Now()
	runID := uuid.NewString()
	logger := logging.Logger().With().Str("run", runID).Logger()

	in, rec, err := loadInput(ctx, cfg.Sources, logger)
	if err != nil {
		return err
	}

	opts := archive.Options{
		MaxChunkBytes: cfg.Archive.MaxChunkBytes,
		Workers:       cfg.Archive.Workers,
		PlayerIndex:   cfg.Archive.PlayerIndex,
	}
	rep, err := archive.NewBuilder(cfg.Output.Dir, opts, logger).Build(ctx, in)
	if err != nil {
		return fmt.Errorf("build archive: %w", err)
	}

	rec.RunID = runID
	rec.BuiltAt = started
	rec.OutputDir = cfg.Output.Dir
	rec.Pairs = len(rep.Pairs)
	rec.Matches = rep.Matches
	rec.ChunkedPairs = rep.ChunkedPairs
	rec.ChunkFiles = rep.ChunkFiles
	rec.IndexFiles = rep.IndexFiles
	rec.Files = rep.Files
	rec.Bytes = rep.Bytes
	rec.Duration = time.Since(started)

	if !buildNoCatalog {
		if err := recordBuild(rec, rep, in.Players, logger); err != nil {
			return err
		}
	}
	report.PrintBuild(os.Stdout, rec)
	return nil
}

// loadInput reads and normalizes the three source tables. A blank path for
// the competitor or tournament table skips it.
func loadInput(ctx context.Context, src config.SourcesConfig, logger zerolog.Logger) (archive.Input, storage.BuildRecord, error) {
	var in archive.Input
	var rec storage.BuildRecord

	r, err := source.Open()
	if err != nil {
		return in, rec, err
	}
	defer r.Close()

	matchRecs, err := r.ReadRecords(ctx, src.Matches)
	if err != nil {
		return in, rec, fmt.Errorf("read matches: %w", err)
	}
	in.Matches, rec.DroppedRows = normalize.Matches(matchRecs)
	rec.SourceRows = len(matchRecs)
	logger.Info().Str("path", src.Matches).Int("rows", rec.SourceRows).Int("dropped", rec.DroppedRows).Msg("matches loaded")

	if src.Players != "" {
		recs, err := r.ReadRecords(ctx, src.Players)
		if err != nil {
			return in, rec, fmt.Errorf("read players: %w", err)
		}
		in.Players = normalize.Players(recs)
		logger.Info().Str("path", src.Players).Int("players", len(in.Players)).Msg("players loaded")
	}
	if src.Tournaments != "" {
		recs, err := r.ReadRecords(ctx, src.Tournaments)
		if err != nil {
			return in, rec, fmt.Errorf("read tournaments: %w", err)
		}
		in.Tournaments = normalize.Tournaments(recs)
		logger.Info().Str("path", src.Tournaments).Int("tournaments", len(in.Tournaments)).Msg("tournaments loaded")
	}
	return in, rec, nil
}

func recordBuild(rec storage.BuildRecord, rep *archive.Report, players []model.Player, logger zerolog.Logger) error {
	db, err := openCatalog()
	if err != nil {
		return err
	}
	defer db.Close()

	pairs := make([]storage.PairRecord, len(rep.Pairs))
	for i, p := range rep.Pairs {
		pairs[i] = pairRecord(p)
	}
	id, err := db.RecordBuild(rec, pairs, players)
	if err != nil {
		return fmt.Errorf("record build: %w", err)
	}
	logger.Debug().Int64("build", id).Str("catalog", dbPath).Msg("build recorded")
	return nil
}

func pairRecord(p archive.PairResult) storage.PairRecord {
	s := p.Summary
	r := storage.PairRecord{
		ID1:           p.Key.A,
		ID2:           p.Key.B,
		Name1:         p.Player1.Name,
		Name2:         p.Player2.Name,
		TotalMatches:  s.TotalMatches,
		WinsID1:       s.WinsID1,
		WinsID2:       s.WinsID2,
		Draws:         s.Draws,
		GoalsForID1:   s.GoalsForID1,
		GoalsForID2:   s.GoalsForID2,
		OvertimeGames: s.OvertimeGames,
		Chunks:        p.Chunks,
		Bytes:         p.Bytes,
	}
	if s.FirstMeetingDate != nil {
		r.FirstMeeting = *s.FirstMeetingDate
	}
	if s.LastMeetingDate != nil {
		r.LastMeeting = *s.LastMeetingDate
	}
	return r
}
