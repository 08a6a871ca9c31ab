package gcall

import (
	"fmt"
	"sort"

	"github.com/jjtimmons/gcall/config"
	"github.com/jjtimmons/gcall/internal/gencode"
	"github.com/jjtimmons/gcall/internal/seq"
)

// gcBins is the number of local GC bins of the coding tables: below, at and above the model's GC
const gcBins = 3

// Family is the kind of organism a model was built for
type Family int

const (
	// Bacteria are code 11 models that use Shine-Dalgarno RBS motifs
	Bacteria Family = iota

	// Archaea are code 11 models scored on upstream composition
	Archaea

	// Virus models are phage models on the standard code
	Virus

	// NCLDV models are for giant viruses of eukaryotes, AT rich and without SD motifs
	NCLDV

	// AltCode models use a genetic code that reads a standard stop as an amino acid
	AltCode
)

var familyNames = []string{"bacteria", "archaea", "virus", "ncldv", "alternative-code"}

func (f Family) String() string {
	if f < 0 || int(f) >= len(familyNames) {
		return fmt.Sprintf("family(%d)", int(f))
	}
	return familyNames[f]
}

// MarshalText writes the family's name
func (f Family) MarshalText() ([]byte, error) {
	if f < 0 || int(f) >= len(familyNames) {
		return nil, fmt.Errorf("unknown model family %d", int(f))
	}
	return []byte(familyNames[f]), nil
}

// UnmarshalText reads a family name
func (f *Family) UnmarshalText(text []byte) error {
	for i, name := range familyNames {
		if name == string(text) {
			*f = Family(i)
			return nil
		}
	}
	return fmt.Errorf("unknown model family %q", text)
}

// Meta is the provenance of a model
type Meta struct {
	// ID is unique within a bank
	ID string `json:"id"`

	Family Family `json:"family"`

	// Origin says where the coefficients came from: a prior or a training run
	Origin string `json:"origin"`

	// Code is the NCBI genetic code of the model
	Code int `json:"code"`

	// GC is the GC fraction the model was built for
	GC float64 `json:"gc"`

	// GCRange is the range of record GC the model is meant for
	GCRange [2]float64 `json:"gc_range"`
}

// Model scores the gene that starts at a node. Implementations are read-only
// and safe to share between goroutines; per-run state lives in the Context
type Model interface {
	Meta() Meta

	// Score returns the score of the gene opened by start node i of ctx
	Score(ctx *Context, i int) NodeScore
}

// Bundle is the coefficients of a gene model
type Bundle struct {
	Info Meta `json:"meta"`

	// BinWidth is the GC distance between the coding tables' bins
	BinWidth float64 `json:"bin_width"`

	// Coding holds dicodon log ratios, log P(c2|c1, coding) - log P(c2), indexed c1*64+c2
	Coding [gcBins][4096]float64 `json:"coding"`

	// Marginal holds the log ratios of codons without a preceding codon
	Marginal [gcBins][64]float64 `json:"marginal"`

	// StartType weighs ATG, GTG and TTG starts
	StartType [3]float64 `json:"start_type"`

	// RBS weighs each entry of the RBS catalogue
	RBS []float64 `json:"rbs"`

	// Upstream weighs each base at each of the positions upstream of a start
	Upstream [upstreamLen][4]float64 `json:"upstream"`

	// UsesSD selects RBS motifs over upstream composition for start scores
	UsesSD bool `json:"uses_sd"`

	// Readthrough is added per codon a gene reads through that is a stop in the standard code
	Readthrough float64 `json:"readthrough"`
}

// Meta returns the bundle's provenance
func (b *Bundle) Meta() Meta {
	return b.Info
}

// bin picks the coding table for a gene of GC fraction gc
func (b *Bundle) bin(gc float64) int {
	switch {
	case gc < b.Info.GC-b.BinWidth/2:
		return 0
	case gc > b.Info.GC+b.BinWidth/2:
		return 2
	}
	return 1
}

// Score returns the score of the gene opened by start node i
func (b *Bundle) Score(ctx *Context, i int) NodeScore {
	if ctx.owner != b {
		ctx.reset(b)
	}

	n := &ctx.Nodes[i]
	if !ctx.walked[n.Stop] {
		b.walk(ctx, n.Stop)
		ctx.walked[n.Stop] = true
	}
	c := ctx.coding[i]

	ns := NodeScore{Coding: c.sum, GC: c.gc}
	if n.Partial {
		ns.Start = -ctx.conf.Path.EdgePenalty
	} else {
		bases := ctx.Seq.Strand(n.Strand)
		ns.Start = b.StartType[n.Kind]
		if b.UsesSD {
			ns.Motif = bestMotif(bases, n.Pos, b.RBS)
			ns.Start += b.RBS[ns.Motif]
		} else {
			ns.Start += upstreamScore(bases, n.Pos, &b.Upstream)
		}
	}

	ns.Total = ns.Coding + ns.Start + b.Readthrough*float64(c.readthrough)
	if ctx.Nodes[n.Stop].Partial {
		ns.Total -= ctx.conf.Path.EdgePenalty
	}
	return ns
}

// walk fills the coding terms of every start of the ORF closed by stop node t,
// summing codon log ratios from the stop back to each start in one pass
func (b *Bundle) walk(ctx *Context, t int) {
	stop := ctx.Nodes[t]
	bases := ctx.Seq.Strand(stop.Strand)
	starts := ctx.starts[t]
	if len(starts) == 0 {
		return
	}
	lowest := ctx.Nodes[starts[len(starts)-1]].Pos

	var sums [gcBins]float64
	var gc, acgt, readthrough int
	if !stop.Partial {
		gc, acgt = gcCount(bases[stop.Pos : stop.Pos+3])
	}

	q := stop.Pos - 3
	for _, i := range starts {
		start := ctx.Nodes[i]
		lo := start.Pos + 3
		if start.Partial {
			lo = start.Pos
		}

		for ; q >= lo; q -= 3 {
			cur := gencode.CodonIndex(bases[q : q+3])
			if cur >= 0 {
				prev := -1
				if q-3 >= lowest {
					prev = gencode.CodonIndex(bases[q-3 : q])
				}
				for k := range sums {
					if prev >= 0 {
						sums[k] += b.Coding[k][prev*64+cur]
					} else {
						sums[k] += b.Marginal[k][cur]
					}
				}
				if ctx.reassigned[cur] {
					readthrough++
				}
			}
			g, a := gcCount(bases[q : q+3])
			gc, acgt = gc+g, acgt+a
		}

		g, a := gc, acgt
		if !start.Partial {
			sg, sa := gcCount(bases[start.Pos : start.Pos+3])
			g, a = g+sg, a+sa
		}
		frac := b.Info.GC
		if a > 0 {
			frac = float64(g) / float64(a)
		}
		ctx.coding[i] = codingTerm{sum: sums[b.bin(frac)], gc: frac, readthrough: readthrough}
	}
}

// gcCount returns the number of G/C bases and unambiguous bases in c
func gcCount(c []byte) (gc, acgt int) {
	for _, b := range c {
		switch b {
		case 'G', 'C':
			gc++
			acgt++
		case 'A', 'T':
			acgt++
		}
	}
	return gc, acgt
}

// codingTerm is the coding part of a start node's score
type codingTerm struct {
	sum         float64
	gc          float64
	readthrough int
}

// Context is the private state of one gene path run: the record, its genetic
// code, its own copy of the nodes, and scoring caches. It is not safe for
// concurrent use
type Context struct {
	Seq   *seq.Sequence
	Table *gencode.Table

	// Nodes are this run's copy of the candidate nodes
	Nodes []Node

	conf *config.Config

	// starts lists the start nodes of each stop node, nearest the stop first
	starts [][]int

	// reassigned marks codons that are stops in the standard code but not in Table
	reassigned [64]bool

	// caches of the model that last scored in this context
	owner  Model
	coding []codingTerm
	walked []bool
}

// NewContext prepares a run over s with a private copy of nodes
func NewContext(s *seq.Sequence, table *gencode.Table, nodes []Node, conf *config.Config) *Context {
	ctx := &Context{
		Seq:    s,
		Table:  table,
		Nodes:  append([]Node(nil), nodes...),
		conf:   conf,
		starts: make([][]int, len(nodes)),
	}
	for i, n := range ctx.Nodes {
		if n.Role == StartNode {
			ctx.starts[n.Stop] = append(ctx.starts[n.Stop], i)
		}
	}
	for _, orf := range ctx.starts {
		sort.Slice(orf, func(a, b int) bool { return ctx.Nodes[orf[a]].Pos > ctx.Nodes[orf[b]].Pos })
	}
	for _, idx := range table.Reassigned() {
		ctx.reassigned[idx] = true
	}
	return ctx
}

func (ctx *Context) reset(m Model) {
	ctx.owner = m
	ctx.coding = make([]codingTerm, len(ctx.Nodes))
	ctx.walked = make([]bool, len(ctx.Nodes))
}

// ScoreNodes scores every start node of the context with m
func (ctx *Context) ScoreNodes(m Model) {
	for i := range ctx.Nodes {
		if ctx.Nodes[i].Role == StartNode {
			ctx.Nodes[i].Score = m.Score(ctx, i)
		}
	}
}

// Candidates returns the gene of every scored start node, in node order
func (ctx *Context) Candidates() []Gene {
	var genes []Gene
	for i, n := range ctx.Nodes {
		if n.Role == StartNode {
			genes = append(genes, newGene(ctx.Seq, ctx.Nodes, i))
		}
	}
	return genes
}

// alternatives returns the other start nodes in the ORF of start node i
func (ctx *Context) alternatives(i int) (alts []int) {
	for _, j := range ctx.starts[ctx.Nodes[i].Stop] {
		if j != i {
			alts = append(alts, j)
		}
	}
	return alts
}
