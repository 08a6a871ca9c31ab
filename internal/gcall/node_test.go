package gcall

import (
	"reflect"
	"strings"
	"testing"

	"github.com/jjtimmons/gcall/config"
	"github.com/jjtimmons/gcall/internal/gencode"
	"github.com/jjtimmons/gcall/internal/seq"
)

// orf is a start node and the stop that closes it
type orf struct {
	strand      seq.Strand
	pos         int
	kind        gencode.StartKind
	partial     bool
	stop        int
	stopPartial bool
}

func startNodes(nodes []Node) (orfs []orf) {
	for _, n := range nodes {
		if n.Role != StartNode {
			continue
		}
		stop := nodes[n.Stop]
		orfs = append(orfs, orf{n.Strand, n.Pos, n.Kind, n.Partial, stop.Pos, stop.Partial})
	}
	return orfs
}

func TestNodes(t *testing.T) {
	masked := "ATG" + strings.Repeat("AAA", 10) + strings.Repeat("N", 60) + strings.Repeat("AAA", 10) + "TAA"

	tests := []struct {
		name   string
		bases  string
		minLen int
		closed bool
		mask   bool
		want   []orf
	}{
		{
			"runs off the 3' end",
			"CCCATGAAACCCAAA",
			6, false, false,
			[]orf{
				{seq.Forward, 1, gencode.NotStart, true, 4, false},
				{seq.Forward, 3, gencode.ATG, false, 15, true},
				{seq.Reverse, 1, gencode.TTG, false, 13, true},
			},
		},
		{
			"closed ends drop partial genes",
			"CCCATGAAACCCAAA",
			6, true, false,
			nil,
		},
		{
			"runs in from the 5' end",
			"AAACCCAAATAA",
			6, false, false,
			[]orf{
				{seq.Forward, 0, gencode.NotStart, true, 9, false},
				{seq.Reverse, 4, gencode.TTG, false, 10, true},
			},
		},
		{
			"closed 5' end",
			"AAACCCAAATAA",
			6, true, false,
			nil,
		},
		{
			"masked run splits an ORF",
			masked,
			30, false, true,
			[]orf{
				{seq.Forward, 0, gencode.ATG, false, 33, true},
				{seq.Forward, 93, gencode.NotStart, true, 123, false},
			},
		},
		{
			"unmasked N run is read through",
			masked,
			30, false, false,
			[]orf{
				{seq.Forward, 0, gencode.ATG, false, 123, false},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := config.Default()
			conf.Genes.MinLength = tt.minLen
			conf.Genes.Closed = tt.closed
			conf.Genes.Mask = tt.mask

			s := newSeq(t, "r1", tt.bases)
			got := startNodes(Nodes(s, mustTable(t, 11), conf))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Nodes() starts = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNodes_shortRecord(t *testing.T) {
	// records shorter than the minimum gene length may still hold a gene
	s := newSeq(t, "r1", "ATGAAATAA")
	got := startNodes(Nodes(s, mustTable(t, 11), config.Default()))
	want := []orf{{seq.Forward, 0, gencode.ATG, false, 6, false}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Nodes() starts = %+v, want %+v", got, want)
	}
}

func TestNodes_wellFormed(t *testing.T) {
	bases, _ := plantGenes(1, 10, 11)
	s := newSeq(t, "syn", bases)
	conf := config.Default()
	nodes := Nodes(s, mustTable(t, 11), conf)

	for i, n := range nodes {
		if i > 0 && nodes[i-1].Abs > n.Abs {
			t.Fatalf("node %d at %d sorted after node at %d", i, n.Abs, nodes[i-1].Abs)
		}
		if n.Abs != s.Forward(n.Strand, n.Pos) {
			t.Errorf("node %d Abs = %d, want %d", i, n.Abs, s.Forward(n.Strand, n.Pos))
		}
		if n.Role != StartNode {
			continue
		}

		stop := nodes[n.Stop]
		switch {
		case stop.Role != StopNode:
			t.Errorf("start %d points at a start node", i)
		case stop.Strand != n.Strand || stop.Frame() != n.Frame():
			t.Errorf("start %d and its stop are in different frames", i)
		case stop.Pos <= n.Pos:
			t.Errorf("start %d at %d is not upstream of its stop at %d", i, n.Pos, stop.Pos)
		}

		begin, end := geneSpan(nodes, i)
		if l := end - begin + 1; l%3 != 0 || l < conf.Genes.MinLength {
			t.Errorf("start %d opens a gene of %d bp", i, l)
		}
	}
}
