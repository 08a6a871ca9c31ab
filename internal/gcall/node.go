package gcall

import (
	"sort"

	"github.com/jjtimmons/gcall/config"
	"github.com/jjtimmons/gcall/internal/gencode"
	"github.com/jjtimmons/gcall/internal/seq"
)

// Role is whether a node opens or closes a gene
type Role int

const (
	// StopNode closes an ORF: a stop codon or the 3' end of usable sequence
	StopNode Role = iota

	// StartNode opens a gene: a start codon or the 5' end of usable sequence
	StartNode
)

// NodeScore is the score of the gene from a start node to its stop, split into its terms
type NodeScore struct {
	// Total is what the gene path maximizes
	Total float64

	// Coding is the codon usage log-likelihood ratio of the gene
	Coding float64

	// Start is the start type and RBS (or upstream) score, or the edge penalty of a partial start
	Start float64

	// Motif is the RBS catalogue index matched upstream of the start, 0 when none is used
	Motif int

	// GC is the GC fraction of the gene span
	GC float64
}

// Node is a candidate start or stop of a gene.
//
// Pos is 0-based on the node's own strand and is the first base of the codon.
// An edge stop (a gene running off the 3' end or into masked sequence) has its Pos
// at the first base past the last complete codon.
type Node struct {
	Pos    int
	Strand seq.Strand
	Role   Role

	// Kind is the start codon, NotStart for stops and edge starts
	Kind gencode.StartKind

	// Partial marks a sequence edge (or mask barrier) rather than a codon
	Partial bool

	// Stop is the arena index of the stop node that closes a start node's ORF
	Stop int

	// Abs is the forward strand coordinate of Pos, used for ordering
	Abs int

	// Score is set by the gene path run that owns the node
	Score NodeScore
}

// Frame returns the strand-relative reading frame of the node
func (n Node) Frame() int {
	return n.Pos % 3
}

// Nodes returns every candidate start and stop on both strands of s, sorted by
// forward strand position. Start nodes are only kept when the gene they open is
// at least the minimum gene length (or the whole record, when that's shorter)
func Nodes(s *seq.Sequence, table *gencode.Table, conf *config.Config) []Node {
	minLen := conf.Genes.MinLength
	if s.Len() < minLen {
		minLen = s.Len()
	}

	var nodes []Node
	for _, st := range []seq.Strand{seq.Forward, seq.Reverse} {
		masked := maskedBases(s, st, conf)
		for frame := 0; frame < 3; frame++ {
			sc := scanner{
				bases:  s.Strand(st),
				strand: st,
				table:  table,
				minLen: minLen,
				nodes:  nodes,
			}
			sc.scan(frame, masked, conf.Genes.Closed)
			nodes = sc.nodes
		}
	}

	for i := range nodes {
		nodes[i].Abs = s.Forward(nodes[i].Strand, nodes[i].Pos)
	}
	return sortNodes(nodes)
}

// scanner walks one frame of one strand, collecting the nodes of each ORF
type scanner struct {
	bases  []byte
	strand seq.Strand
	table  *gencode.Table
	minLen int
	nodes  []Node

	// starts are the start codons seen since the last stop
	starts []int

	// open is whether the current ORF runs in from an edge (or mask barrier) at from
	open bool
	from int
}

func (sc *scanner) scan(frame int, masked []bool, closed bool) {
	sc.open = !closed
	sc.from = frame

	barrier := false
	p := frame
	for ; p+3 <= len(sc.bases); p += 3 {
		if masked != nil && (masked[p] || masked[p+1] || masked[p+2]) {
			if !barrier && (sc.open || len(sc.starts) > 0) {
				sc.closeORF(p, false)
			}
			sc.open, sc.starts = false, sc.starts[:0]
			barrier = true
			continue
		}
		if barrier {
			sc.open, sc.from = true, p
			barrier = false
		}

		codon := sc.bases[p : p+3]
		if sc.table.IsStop(codon) {
			sc.closeORF(p, true)
			continue
		}
		if sc.table.StartKind(codon) != gencode.NotStart {
			sc.starts = append(sc.starts, p)
		}
	}

	if !closed && !barrier && (sc.open || len(sc.starts) > 0) {
		sc.closeORF(p, false)
	}
}

// closeORF adds the stop at p and the starts of the ORF it closes
func (sc *scanner) closeORF(p int, real bool) {
	end := p // exclusive end of genes closed here
	if real {
		end = p + 3
	}

	stop := len(sc.nodes)
	sc.nodes = append(sc.nodes, Node{Pos: p, Strand: sc.strand, Role: StopNode, Kind: gencode.NotStart, Partial: !real})

	// a gene needs at least one real codon at its ends, and an ORF whose first
	// codon is already a start has no separate edge start
	edgeStart := sc.open && real && (len(sc.starts) == 0 || sc.starts[0] != sc.from)
	if edgeStart && end-sc.from >= sc.minLen {
		sc.nodes = append(sc.nodes, Node{Pos: sc.from, Strand: sc.strand, Role: StartNode, Kind: gencode.NotStart, Partial: true, Stop: stop})
	}
	for _, q := range sc.starts {
		if end-q >= sc.minLen {
			sc.nodes = append(sc.nodes, Node{Pos: q, Strand: sc.strand, Role: StartNode, Kind: sc.table.StartKind(sc.bases[q : q+3]), Stop: stop})
		}
	}

	sc.starts = sc.starts[:0]
	sc.open = false
}

// maskedBases returns which bases of strand st are in masked N runs, or nil when masking is off
func maskedBases(s *seq.Sequence, st seq.Strand, conf *config.Config) []bool {
	if !conf.Genes.Mask {
		return nil
	}
	runs := s.MaskRuns(conf.Genes.MaskMinRun)
	if len(runs) == 0 {
		return nil
	}

	masked := make([]bool, s.Len())
	for _, r := range runs {
		for i := r.Start; i <= r.End; i++ {
			masked[s.Forward(st, i)] = true
		}
	}
	return masked
}

// sortNodes orders nodes by forward position, then strand, then role, and
// re-points each start at its stop's new index
func sortNodes(nodes []Node) []Node {
	order := make([]int, len(nodes))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		na, nb := &nodes[order[a]], &nodes[order[b]]
		if na.Abs != nb.Abs {
			return na.Abs < nb.Abs
		}
		if na.Strand != nb.Strand {
			return na.Strand > nb.Strand
		}
		if na.Role != nb.Role {
			return na.Role < nb.Role
		}
		return !na.Partial && nb.Partial
	})

	index := make([]int, len(nodes))
	for i, old := range order {
		index[old] = i
	}

	sorted := make([]Node, len(nodes))
	for i, old := range order {
		sorted[i] = nodes[old]
		if sorted[i].Role == StartNode {
			sorted[i].Stop = index[sorted[i].Stop]
		}
	}
	return sorted
}

// geneSpan returns the strand-relative first and last base of the gene opened by start node i
func geneSpan(nodes []Node, i int) (begin, end int) {
	stop := nodes[nodes[i].Stop]
	if stop.Partial {
		return nodes[i].Pos, stop.Pos - 1
	}
	return nodes[i].Pos, stop.Pos + 2
}

// absSpan maps a strand-relative span onto the forward strand (0-based, closed)
func absSpan(seqLen int, st seq.Strand, begin, end int) (left, right int) {
	if st == seq.Reverse {
		return seqLen - 1 - end, seqLen - 1 - begin
	}
	return begin, end
}
