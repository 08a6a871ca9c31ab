package gcall

import (
	"reflect"
	"sort"
	"strings"
	"testing"

	"github.com/bebop/poly/transform"
	"github.com/jjtimmons/gcall/config"
	"github.com/jjtimmons/gcall/internal/gencode"
	"github.com/jjtimmons/gcall/internal/seq"
)

func TestSelectPath_shortGene(t *testing.T) {
	s := newSeq(t, "r1", "ATGAAATAA")
	ctx := runContext(t, s, 11, config.Default())
	path := SelectPath(ctx, Prior(0.5, mustTable(t, 11), Bacteria, 0.06))

	if len(path.Genes) != 1 {
		t.Fatalf("SelectPath() = %d genes, want 1", len(path.Genes))
	}
	g := path.Genes[0]
	if g.Begin != 1 || g.End != 9 || g.Strand != seq.Forward || g.Frame != 0 || g.Start != gencode.ATG || g.Partial() != "00" {
		t.Errorf("SelectPath() gene = %+v", g)
	}
	if path.Score != g.Score.Total || path.Length != 9 {
		t.Errorf("SelectPath() score = %f, length = %d", path.Score, path.Length)
	}
	if got := string(g.Bases(s)); got != "ATGAAATAA" {
		t.Errorf("gene bases = %s", got)
	}
}

func TestSelectPath_homopolymer(t *testing.T) {
	for _, b := range []string{"A", "C", "T"} {
		ctx := runContext(t, newSeq(t, "r1", strings.Repeat(b, 300)), 11, config.Default())
		path := SelectPath(ctx, Prior(0.5, mustTable(t, 11), Bacteria, 0.06))
		if len(path.Genes) != 0 || path.Score != 0 {
			t.Errorf("SelectPath(%s x 300) = %d genes, score %f", b, len(path.Genes), path.Score)
		}
	}
}

func Test_selectCandidates(t *testing.T) {
	type c = candidate
	fwd, rev := seq.Forward, seq.Reverse

	tests := []struct {
		name      string
		cands     []candidate
		wantNodes []int
		wantScore float64
	}{
		{
			"same strand overlap past the bound",
			[]c{{0, 0, 299, fwd, 5}, {1, 200, 599, fwd, 8}},
			[]int{1}, 8,
		},
		{
			"nested gene",
			[]c{{0, 0, 899, fwd, 5}, {1, 100, 399, fwd, 8}},
			[]int{1}, 8,
		},
		{
			"5' ends facing",
			[]c{{0, 0, 299, rev, 5}, {1, 290, 599, fwd, 8}},
			[]int{1}, 8,
		},
		{
			"3' ends facing, penalized past the soft overlap",
			[]c{{0, 0, 299, fwd, 5}, {1, 200, 599, rev, 8}},
			[]int{0, 1}, 8.75,
		},
		{
			"operon spacing",
			[]c{{0, 0, 299, fwd, 5}, {1, 320, 599, fwd, 8}},
			[]int{0, 1}, 13.5,
		},
		{
			"no bonus far apart",
			[]c{{0, 0, 299, fwd, 5}, {1, 400, 699, rev, 3}},
			[]int{0, 1}, 8,
		},
		{
			"no base in three genes",
			[]c{{0, 0, 299, fwd, 5}, {1, 250, 359, fwd, 5}, {2, 290, 999, rev, 5}},
			[]int{0, 2}, 10,
		},
		{
			"ties go to the longer gene",
			[]c{{0, 0, 299, fwd, 5}, {1, 100, 349, fwd, 5}},
			[]int{0}, 5,
		},
		{
			"ties go to the earlier start",
			[]c{{0, 0, 299, fwd, 5}, {1, 100, 399, fwd, 5}},
			[]int{0}, 5,
		},
		{
			"empty",
			nil,
			nil, 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := config.Default()
			order, score := selectCandidates(tt.cands, conf)

			var nodes []int
			for _, g := range order {
				nodes = append(nodes, tt.cands[g].node)
			}
			if !reflect.DeepEqual(nodes, tt.wantNodes) {
				t.Errorf("selectCandidates() = %v, want %v", nodes, tt.wantNodes)
			}
			if diff := score - tt.wantScore; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("selectCandidates() score = %f, want %f", score, tt.wantScore)
			}
		})
	}
}

func Test_connect(t *testing.T) {
	p := config.Default().Path
	h := candidate{0, 0, 299, seq.Forward, 1}

	tests := []struct {
		name     string
		g        candidate
		wantConn float64
		wantOk   bool
	}{
		{"adjacent", candidate{1, 300, 599, seq.Forward, 1}, 0.5, true},
		{"overlap within soft limit", candidate{1, 290, 599, seq.Forward, 1}, 0, true},
		{"operon overlap", candidate{1, 296, 599, seq.Forward, 1}, 0.5, true},
		{"same strand at the bound", candidate{1, 240, 599, seq.Forward, 1}, -2.25, true},
		{"same strand past the bound", candidate{1, 239, 599, seq.Forward, 1}, 0, false},
		{"3' ends facing", candidate{1, 290, 599, seq.Reverse, 1}, 0, true},
		{"ends first", candidate{1, 100, 200, seq.Forward, 1}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, ok := connect(h, tt.g, p)
			if ok != tt.wantOk || (ok && (conn-tt.wantConn > 1e-9 || tt.wantConn-conn > 1e-9)) {
				t.Errorf("connect() = %f, %t, want %f, %t", conn, ok, tt.wantConn, tt.wantOk)
			}
		})
	}
}

// pathScore returns the score of the candidates in order and whether they form a path
func pathScore(cands []candidate, order []int, p config.PathConfig) (float64, bool) {
	score := 0.0
	for i, g := range order {
		score += cands[g].score
		if i == 0 {
			continue
		}
		conn, ok := connect(cands[order[i-1]], cands[g], p)
		if !ok || (i > 1 && cands[g].left <= cands[order[i-2]].right) {
			return 0, false
		}
		score += conn
	}
	return score, true
}

func Test_selectCandidates_exhaustive(t *testing.T) {
	conf := config.Default()
	rng := &splitmix{state: 7}

	for trial := 0; trial < 3000; trial++ {
		cands := make([]candidate, 2+rng.intn(8))
		for i := range cands {
			left := rng.intn(800)
			strand := seq.Forward
			if rng.intn(2) == 0 {
				strand = seq.Reverse
			}
			cands[i] = candidate{i, left, left + 30 + rng.intn(300), strand, 0.1 + 5*rng.float()}
		}
		sort.Slice(cands, func(a, b int) bool {
			if cands[a].right != cands[b].right {
				return cands[a].right < cands[b].right
			}
			if cands[a].left != cands[b].left {
				return cands[a].left < cands[b].left
			}
			return cands[a].node < cands[b].node
		})

		want := 0.0
		for mask := 1; mask < 1<<len(cands); mask++ {
			var order []int
			for g := range cands {
				if mask&(1<<g) != 0 {
					order = append(order, g)
				}
			}
			if score, ok := pathScore(cands, order, conf.Path); ok && score > want {
				want = score
			}
		}

		order, score := selectCandidates(cands, conf)
		got, ok := pathScore(cands, order, conf.Path)
		if !ok || got-score > 1e-9 || score-got > 1e-9 {
			t.Fatalf("trial %d: selectCandidates() = %v, %f, not a path scoring %f", trial, order, score, got)
		}
		if score < want-1e-9 {
			t.Fatalf("trial %d: selectCandidates() score = %f, best path scores %f", trial, score, want)
		}
	}
}

func TestSelectPath_properties(t *testing.T) {
	bases, _ := plantGenes(2, 20, 11)
	s := newSeq(t, "syn", bases)
	conf := config.Default()
	m := Prior(s.GC(), mustTable(t, 11), Bacteria, 0.06)

	ctx := runContext(t, s, 11, conf)
	path := SelectPath(ctx, m)
	if len(path.Genes) == 0 {
		t.Fatal("SelectPath() found no genes")
	}

	sum := 0.0
	for i, g := range path.Genes {
		if err := g.Validate(s.Len()); err != nil {
			t.Errorf("gene %d: %v", i, err)
		}
		if g.Score.Total <= 0 {
			t.Errorf("gene %d scored %f", i, g.Score.Total)
		}
		if i > 0 && path.Genes[i-1].End > g.End {
			t.Errorf("gene %d ends before gene %d", i, i-1)
		}
		sum += g.Score.Total
	}
	if path.Score < sum-float64(len(path.Genes))*conf.Path.OverlapPenalty*float64(conf.MaxOverlap()) {
		t.Errorf("path score %f is far below its genes' sum %f", path.Score, sum)
	}

	for i, a := range path.Genes {
		for j := i + 1; j < len(path.Genes); j++ {
			b := path.Genes[j]
			overlap := a.End - b.Begin + 1
			if b.Begin <= a.Begin {
				overlap = b.End - b.Begin + 1
			}

			limit := conf.Path.MaxOverlapSame
			switch {
			case a.Strand != b.Strand && a.Strand == seq.Forward:
				limit = conf.Path.MaxOverlapOpposite
			case a.Strand != b.Strand:
				limit = 0 // 5' ends facing
			}
			if overlap > limit {
				t.Errorf("genes %d and %d overlap by %d, limit %d", i, j, overlap, limit)
			}
		}
	}

	// a second run over the same nodes gives the same path
	again := SelectPath(runContext(t, s, 11, conf), m)
	if !reflect.DeepEqual(path, again) {
		t.Error("SelectPath() is not deterministic")
	}
}

func TestSelectPath_strandSymmetry(t *testing.T) {
	conf := config.Default()
	m := Prior(0.5, mustTable(t, 15), AltCode, 0.06)

	fwd := newSeq(t, "fwd", altCodeRecord())
	rev := newSeq(t, "rev", transform.ReverseComplement(altCodeRecord()))
	a := SelectPath(runContext(t, fwd, 15, conf), m)
	b := SelectPath(runContext(t, rev, 15, conf), m)

	if len(a.Genes) != 1 || len(b.Genes) != 1 {
		t.Fatalf("SelectPath() = %d and %d genes, want 1 each", len(a.Genes), len(b.Genes))
	}
	ga, gb := a.Genes[0], b.Genes[0]
	n := fwd.Len()
	if gb.Strand != seq.Reverse || gb.Begin != n+1-ga.End || gb.End != n+1-ga.Begin {
		t.Errorf("reverse complement gene = %d..%d %s, want %d..%d -", gb.Begin, gb.End, gb.Strand, n+1-ga.End, n+1-ga.Begin)
	}
	if a.Score != b.Score {
		t.Errorf("path scores differ across strands: %f vs %f", a.Score, b.Score)
	}
}
