package gcall

import (
	"fmt"
	"math"

	"github.com/jjtimmons/gcall/internal/gencode"
)

// maxRatio bounds every log ratio in a model's tables
const maxRatio = 5.0

// Prior returns an untrained model for records of GC fraction gc. Coding tables
// come from position-specific base composition that tracks GC (GC rich third
// positions, purine rich first positions) with stop codons removed; start and
// RBS weights are typical of the family
func Prior(gc float64, table *gencode.Table, fam Family, binWidth float64) *Bundle {
	gc = clamp(gc, 0.2, 0.8)

	b := &Bundle{
		Info: Meta{
			ID:      fmt.Sprintf("%s_gc%02.0f_c%d", fam, gc*100, table.ID),
			Family:  fam,
			Origin:  "prior",
			Code:    table.ID,
			GC:      gc,
			GCRange: [2]float64{gc - binWidth, gc + binWidth},
		},
		BinWidth: binWidth,
		RBS:      make([]float64, len(motifs)),
	}

	for k := 0; k < gcBins; k++ {
		binGC := clamp(gc+float64(k-1)*binWidth, 0.1, 0.9)
		coding := codingCodons(binGC, table)
		bg := backgroundCodons(binGC)
		for cur := 0; cur < 64; cur++ {
			lr := -maxRatio
			if coding[cur] > 0 {
				lr = clamp(math.Log(coding[cur]/bg[cur]), -maxRatio, maxRatio)
			}
			b.Marginal[k][cur] = lr
			for prev := 0; prev < 64; prev++ {
				b.Coding[k][prev*64+cur] = lr
			}
		}
	}

	switch fam {
	case Bacteria, Virus, AltCode:
		b.StartType = [3]float64{2.0, 0.5, 0.0}
		b.UsesSD = true
		for m := 1; m < len(motifs); m++ {
			b.RBS[m] = priorMotifWeight(motifs[m])
		}
	case Archaea:
		b.StartType = [3]float64{2.0, 0.0, 0.0}
	case NCLDV:
		b.StartType = [3]float64{2.5, -1.0, -1.5}
	}

	if len(table.Reassigned()) > 0 {
		b.Readthrough = -0.1
	}
	return b
}

// priorMotifWeight weighs longer motifs at the usual spacing highest
func priorMotifWeight(m motif) float64 {
	w := 0.5 * float64(len(m.Seq)-2)
	if m.MinSpacer != 5 {
		w /= 2
	}
	return w
}

// codingCodons returns codon frequencies of coding sequence at GC fraction gc, TCAG indexed
func codingCodons(gc float64, table *gencode.Table) (freqs [64]float64) {
	gc1 := 0.51 + 0.4*(gc-0.5)
	gc2 := 0.40 + 0.2*(gc-0.5)
	gc3 := clamp(0.5+1.6*(gc-0.5), 0.05, 0.95)

	// T, C, A, G per codon position
	pos := [3][4]float64{
		{0.4 * (1 - gc1), 0.4 * gc1, 0.6 * (1 - gc1), 0.6 * gc1},
		{0.45 * (1 - gc2), 0.6 * gc2, 0.55 * (1 - gc2), 0.4 * gc2},
		{(1 - gc3) / 2, gc3 / 2, (1 - gc3) / 2, gc3 / 2},
	}

	total := 0.0
	for c := 0; c < 64; c++ {
		if table.IsStopIndex(c) {
			continue
		}
		freqs[c] = pos[0][c/16] * pos[1][(c/4)%4] * pos[2][c%4]
		total += freqs[c]
	}
	for c := range freqs {
		freqs[c] /= total
	}
	return freqs
}

// backgroundCodons returns codon frequencies of random sequence at GC fraction gc
func backgroundCodons(gc float64) (freqs [64]float64) {
	base := [4]float64{(1 - gc) / 2, gc / 2, (1 - gc) / 2, gc / 2}
	for c := 0; c < 64; c++ {
		freqs[c] = base[c/16] * base[(c/4)%4] * base[c%4]
	}
	return freqs
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
