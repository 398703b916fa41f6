package archive

import (
	"fmt"
	"path/filepath"

	"github.com/pable/go-h2h/internal/jsonfile"
	"github.com/pable/go-h2h/internal/model"
	"github.com/pable/go-h2h/internal/pairing"
)

// ReadPair loads the pair document for two competitors in either order. For a
// manifest the chunks are read in order and their matches concatenated into
// Matches; Chunks keeps the references.
func ReadPair(dir string, id1, id2 int64) (*model.PairDocument, error) {
	key := pairing.KeyOf(id1, id2)
	doc, err := readPairFile(dir, key)
	if err != nil {
		return nil, err
	}
	if !doc.Chunked() {
		return doc, nil
	}
	matches, err := readChunks(dir, doc.Chunks)
	if err != nil {
		return nil, err
	}
	doc.Matches = matches
	return doc, nil
}

func readPairFile(dir string, key model.PairKey) (*model.PairDocument, error) {
	path := filepath.Join(dir, PairDir, filepath.FromSlash(key.DocPath()))
	var doc model.PairDocument
	if err := jsonfile.ReadFile(path, &doc); err != nil {
		return nil, fmt.Errorf("read pair %d/%d: %w", key.A, key.B, err)
	}
	return &doc, nil
}

func readChunks(dir string, refs []string) ([]model.Match, error) {
	var out []model.Match
	for _, ref := range refs {
		var c model.ChunkDocument
		if err := jsonfile.ReadFile(filepath.Join(dir, filepath.FromSlash(ref)), &c); err != nil {
			return nil, fmt.Errorf("read chunk %s: %w", ref, err)
		}
		out = append(out, c.Matches...)
	}
	return out, nil
}

// ReadIndex loads the opponent index of one competitor.
func ReadIndex(dir string, id int64) (*model.PlayerIndex, error) {
	var idx model.PlayerIndex
	path := filepath.Join(dir, PairDir, model.IndexPath(id))
	if err := jsonfile.ReadFile(path, &idx); err != nil {
		return nil, fmt.Errorf("read index %d: %w", id, err)
	}
	return &idx, nil
}
