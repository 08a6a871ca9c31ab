package gcall

import (
	"strings"
	"testing"

	"github.com/bebop/poly/transform"
	"github.com/jjtimmons/gcall/config"
	"github.com/jjtimmons/gcall/internal/gencode"
	"github.com/jjtimmons/gcall/internal/seq"
)

// splitmix is a seeded splitmix64 generator, so synthetic genomes are the same everywhere
type splitmix struct {
	state uint64
}

func (s *splitmix) next() uint64 {
	s.state += 0x9E3779B97F4A7C15
	z := s.state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

func (s *splitmix) intn(n int) int {
	return int(s.next() % uint64(n))
}

func (s *splitmix) float() float64 {
	return float64(s.next()>>11) / (1 << 53)
}

// planted is a gene put into a synthetic genome, 1-based on the forward strand
type planted struct {
	begin  int
	end    int
	strand seq.Strand
}

// plantGenes builds a genome of n genes separated by 60-149 random bases. Each gene
// is an ATG, 150-349 codons drawn from the GC 0.5 coding usage of the genetic code,
// and TAA, with AGGAGG seven bases upstream of the ATG. Genes land on either strand
func plantGenes(seed uint64, n, code int) (string, []planted) {
	rng := &splitmix{state: seed}
	table, err := gencode.New(code)
	if err != nil {
		panic(err)
	}
	freqs := codingCodons(0.5, table)

	var cum [64]float64
	acc, last := 0.0, 0
	for c, f := range freqs {
		acc += f
		cum[c] = acc
		if f > 0 {
			last = c
		}
	}

	random := func(k int) string {
		b := make([]byte, k)
		for i := range b {
			b[i] = "ACGT"[rng.intn(4)]
		}
		return string(b)
	}
	codon := func() string {
		u := rng.float()
		for c, f := range freqs {
			if f > 0 && u < cum[c] {
				return gencode.Codon(c)
			}
		}
		return gencode.Codon(last)
	}

	var sb strings.Builder
	var genes []planted
	for i := 0; i < n; i++ {
		sb.WriteString(random(60 + rng.intn(90)))

		var unit strings.Builder
		unit.WriteString("AGGAGG" + random(7) + "ATG")
		for c := 150 + rng.intn(200); c > 0; c-- {
			unit.WriteString(codon())
		}
		unit.WriteString("TAA")

		offset, u := sb.Len(), unit.String()
		if rng.intn(2) == 0 {
			genes = append(genes, planted{offset + 14, offset + len(u), seq.Forward})
		} else {
			u = transform.ReverseComplement(u)
			genes = append(genes, planted{offset + 1, offset + len(u) - 13, seq.Reverse})
		}
		sb.WriteString(u)
	}
	sb.WriteString(random(100))
	return sb.String(), genes
}

func newSeq(t *testing.T, id, bases string) *seq.Sequence {
	t.Helper()
	s, err := seq.New(id, "", []byte(bases))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func mustTable(t *testing.T, code int) *gencode.Table {
	t.Helper()
	tbl, err := gencode.New(code)
	if err != nil {
		t.Fatal(err)
	}
	return tbl
}

// runContext builds the nodes of s under code and a run context over them
func runContext(t *testing.T, s *seq.Sequence, code int, conf *config.Config) *Context {
	t.Helper()
	tbl := mustTable(t, code)
	return NewContext(s, tbl, Nodes(s, tbl, conf), conf)
}

// altCodeRecord holds one gene that reads through TAG, which code 15 reads as Q,
// between stop-rich spacers
func altCodeRecord() string {
	spacer := "TTAATTAATTAATTAA"
	return spacer + "ATG" + strings.Repeat("AAAGCAGAATAGCAA", 40) + "TAA" + spacer
}

// randomBases returns n uniformly drawn bases
func randomBases(seed uint64, n int) string {
	rng := &splitmix{state: seed}
	b := make([]byte, n)
	for i := range b {
		b[i] = "ACGT"[rng.intn(4)]
	}
	return string(b)
}
