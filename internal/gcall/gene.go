package gcall

import (
	"fmt"

	"github.com/jjtimmons/gcall/internal/gencode"
	"github.com/jjtimmons/gcall/internal/seq"
)

// Gene is a called gene: a start node paired with the stop closing its ORF
type Gene struct {
	// Begin and End are 1-based and inclusive on the forward strand, Begin <= End
	Begin int
	End   int

	Strand seq.Strand

	// Frame is the strand-relative frame (0-2) of the gene's first base
	Frame int

	// Start is the start codon, NotStart when the gene runs off its 5' end
	Start gencode.StartKind

	// PartialLeft and PartialRight mark genes running off the forward strand's left and right ends
	PartialLeft  bool
	PartialRight bool

	// Score holds the gene's score terms
	Score NodeScore

	// Motif is the RBS motif found upstream, empty if none
	Motif string

	// Spacer is the RBS motif's spacer range, empty if none
	Spacer string

	// node is the arena index of the gene's start node
	node int
}

// Len returns the number of bases in the gene, stop codon included
func (g Gene) Len() int {
	return g.End - g.Begin + 1
}

// StartType returns the start codon or "Edge"
func (g Gene) StartType() string {
	if g.Start == gencode.NotStart {
		return "Edge"
	}
	return g.Start.String()
}

// Partial returns the GFF partial flag: one digit per forward strand end
func (g Gene) Partial() string {
	flag := []byte("00")
	if g.PartialLeft {
		flag[0] = '1'
	}
	if g.PartialRight {
		flag[1] = '1'
	}
	return string(flag)
}

// Validate checks that the gene is well formed within a record of seqLen bases
func (g Gene) Validate(seqLen int) error {
	switch {
	case g.Begin < 1 || g.End > seqLen:
		return fmt.Errorf("gene %d..%d outside record of %d bp", g.Begin, g.End, seqLen)
	case g.Begin > g.End:
		return fmt.Errorf("gene start %d after end %d", g.Begin, g.End)
	case g.Len()%3 != 0:
		return fmt.Errorf("gene %d..%d is not a whole number of codons", g.Begin, g.End)
	case g.Frame < 0 || g.Frame > 2:
		return fmt.Errorf("gene frame %d out of range", g.Frame)
	}
	return nil
}

// Bases returns the gene's nucleotides read 5' to 3' on its strand
func (g Gene) Bases(s *seq.Sequence) []byte {
	return s.Sub(g.Strand, g.Begin-1, g.End-1)
}

// newGene builds the gene opened by start node i
func newGene(s *seq.Sequence, nodes []Node, i int) Gene {
	start := nodes[i]
	stop := nodes[start.Stop]
	begin, end := geneSpan(nodes, i)
	left, right := absSpan(s.Len(), start.Strand, begin, end)

	g := Gene{
		Begin:  left + 1,
		End:    right + 1,
		Strand: start.Strand,
		Frame:  start.Frame(),
		Start:  start.Kind,
		Score:  start.Score,
		node:   i,
	}
	if start.Strand == seq.Reverse {
		g.PartialLeft, g.PartialRight = stop.Partial, start.Partial
	} else {
		g.PartialLeft, g.PartialRight = start.Partial, stop.Partial
	}
	if m := start.Score.Motif; m > 0 {
		g.Motif, g.Spacer = motifs[m].Seq, motifs[m].spacer()
	}
	return g
}

// GenePath is the best set of genes of one record under one model
type GenePath struct {
	// Genes in order of their right end on the forward strand
	Genes []Gene

	// Score is the sum of gene scores and connection terms along the path
	Score float64

	// Length of the record
	Length int
}

// Normalized returns the path score per base, comparable across records and models
func (p GenePath) Normalized() float64 {
	if p.Length == 0 {
		return 0
	}
	return p.Score / float64(p.Length)
}

// CodingBases returns the number of bases covered by the path's genes
func (p GenePath) CodingBases() (n int) {
	for _, g := range p.Genes {
		n += g.Len()
	}
	return n
}
