package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pable/go-h2h/internal/model"
	"github.com/pable/go-h2h/internal/pairing"
)

// Problem is one inconsistency found in an archive.
type Problem struct {
	Path string
	Msg  string
}

func (p Problem) String() string {
	return p.Path + ": " + p.Msg
}

// Verification is the outcome of Verify.
type Verification struct {
	Pairs    int
	Matches  int
	Chunks   int
	Indexes  int
	Problems []Problem
}

// OK reports whether no problem was found.
func (v *Verification) OK() bool {
	return len(v.Problems) == 0
}

func (v *Verification) addf(path, format string, args ...any) {
	v.Problems = append(v.Problems, Problem{Path: path, Msg: fmt.Sprintf(format, args...)})
}

// Verify walks the pair tree under dir and checks every pair document for
// canonical orientation, symmetric statistics and count consistency across
// chunks, and every opponent index against the pair it points to. Only a
// missing or unreadable tree is an error; content issues are Problems.
func Verify(dir string) (*Verification, error) {
	root := filepath.Join(dir, PairDir)
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read pair tree: %w", err)
	}

	v := &Verification{}
	summaries := make(map[model.PairKey]model.Summary)
	var indexIDs []int64

	for _, e := range entries {
		id, err := strconv.ParseInt(strings.TrimSuffix(e.Name(), ".json"), 10, 64)
		if err != nil {
			v.addf(PairDir+"/"+e.Name(), "unexpected entry")
			continue
		}
		if !e.IsDir() {
			indexIDs = append(indexIDs, id)
			continue
		}
		if err := verifyGroup(dir, id, v, summaries); err != nil {
			return nil, err
		}
	}

	sort.Slice(indexIDs, func(i, j int) bool { return indexIDs[i] < indexIDs[j] })
	listed := make(map[int64]map[int64]bool, len(indexIDs))
	for _, id := range indexIDs {
		listed[id] = verifyIndex(dir, id, v, summaries)
	}
	if len(indexIDs) > 0 {
		verifyIndexed(v, summaries, listed)
	}
	return v, nil
}

// verifyIndexed checks that every pair is listed in the index of both of its
// players. It only runs when the archive carries an index at all.
func verifyIndexed(v *Verification, summaries map[model.PairKey]model.Summary, listed map[int64]map[int64]bool) {
	keys := make([]model.PairKey, 0, len(summaries))
	for k := range summaries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].A != keys[j].A {
			return keys[i].A < keys[j].A
		}
		return keys[i].B < keys[j].B
	})
	for _, k := range keys {
		rel := PairDir + "/" + k.DocPath()
		if !listed[k.A][k.B] {
			v.addf(rel, "pair missing from index of %d", k.A)
		}
		if !listed[k.B][k.A] {
			v.addf(rel, "pair missing from index of %d", k.B)
		}
	}
}

// verifyGroup checks h2h/<a>/: every pair document and every chunk file in it.
func verifyGroup(dir string, a int64, v *Verification, summaries map[model.PairKey]model.Summary) error {
	groupDir := filepath.Join(dir, PairDir, strconv.FormatInt(a, 10))
	entries, err := os.ReadDir(groupDir)
	if err != nil {
		return fmt.Errorf("read %s: %w", groupDir, err)
	}

	referenced := make(map[string]bool)
	var chunkFiles []string
	for _, e := range entries {
		rel := fmt.Sprintf("%s/%d/%s", PairDir, a, e.Name())
		stem, ok := strings.CutSuffix(e.Name(), ".json")
		if e.IsDir() || !ok {
			v.addf(rel, "unexpected entry")
			continue
		}
		if strings.Contains(stem, ".part") {
			chunkFiles = append(chunkFiles, rel)
			continue
		}
		b, err := strconv.ParseInt(stem, 10, 64)
		if err != nil {
			v.addf(rel, "unexpected entry")
			continue
		}
		key := model.PairKey{A: a, B: b}
		s, refs, ok := verifyPair(dir, key, rel, v)
		if !ok {
			continue
		}
		summaries[key] = s
		for _, ref := range refs {
			referenced[ref] = true
		}
	}

	for _, rel := range chunkFiles {
		if !referenced[rel] {
			v.addf(rel, "chunk not referenced by any manifest")
		}
	}
	return nil
}

func verifyPair(dir string, key model.PairKey, rel string, v *Verification) (model.Summary, []string, bool) {
	doc, err := readPairFile(dir, key)
	if err != nil {
		v.addf(rel, "unreadable: %v", err)
		return model.Summary{}, nil, false
	}
	v.Pairs++
	s := doc.Summary

	if doc.Player1.ID != key.A || doc.Player2.ID != key.B {
		v.addf(rel, "players %d/%d do not match path", doc.Player1.ID, doc.Player2.ID)
	}
	if doc.Player1.ID >= doc.Player2.ID {
		v.addf(rel, "player1.id %d is not below player2.id %d", doc.Player1.ID, doc.Player2.ID)
	}
	if s.WinsID1+s.WinsID2+s.Draws != s.TotalMatches {
		v.addf(rel, "wins %d + %d + draws %d != total %d", s.WinsID1, s.WinsID2, s.Draws, s.TotalMatches)
	}
	if s.Last10.ID1 != s.Last10.ID2.Mirror() {
		v.addf(rel, "last_10 not symmetric: %+v vs %+v", s.Last10.ID1, s.Last10.ID2)
	}

	count := len(doc.Matches)
	if doc.Chunked() {
		if len(doc.Matches) > 0 {
			v.addf(rel, "manifest carries inline matches")
		}
		count = 0
		for i, ref := range doc.Chunks {
			want := PairDir + "/" + key.ChunkPath(i+1)
			if ref != want {
				v.addf(rel, "chunk %d is %q, want %q", i+1, ref, want)
			}
			matches, err := readChunks(dir, []string{ref})
			if err != nil {
				v.addf(rel, "%v", err)
				continue
			}
			count += len(matches)
			v.Chunks++
		}
	}
	if count != s.TotalMatches {
		v.addf(rel, "total_matches %d but %d matches stored", s.TotalMatches, count)
	}
	v.Matches += count
	return s, doc.Chunks, true
}

// verifyIndex checks one opponent index against the pair documents and
// returns the opponents it lists.
func verifyIndex(dir string, id int64, v *Verification, summaries map[model.PairKey]model.Summary) map[int64]bool {
	rel := PairDir + "/" + model.IndexPath(id)
	listed := make(map[int64]bool)
	idx, err := ReadIndex(dir, id)
	if err != nil {
		v.addf(rel, "unreadable: %v", err)
		return listed
	}
	v.Indexes++
	if idx.Player.ID != id {
		v.addf(rel, "index belongs to %d", idx.Player.ID)
	}

	opps := make([]string, 0, len(idx.Opponents))
	for k := range idx.Opponents {
		opps = append(opps, k)
	}
	sort.Strings(opps)
	for _, k := range opps {
		opp, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			v.addf(rel, "opponent key %q is not an id", k)
			continue
		}
		listed[opp] = true
		key := pairing.KeyOf(id, opp)
		s, ok := summaries[key]
		if !ok {
			v.addf(rel, "opponent %d has no pair document", opp)
			continue
		}
		rec := s.RecordID1()
		if id != key.A {
			rec = rec.Mirror()
		}
		got := idx.Opponents[k].Summary
		if got.TotalMatches != s.TotalMatches || got.Wins != rec.Wins || got.Losses != rec.Losses || got.Draws != rec.Draws {
			v.addf(rel, "opponent %d summary %+v disagrees with pair %+v", opp, got, rec)
		}
	}
	return listed
}
