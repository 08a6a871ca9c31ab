package gcall

import (
	"bytes"
	"fmt"
)

// upstreamLen is the number of bases upstream of a start that are scored
const upstreamLen = 20

// motif is an RBS catalogue entry: a Shine-Dalgarno sub-word at a spacer distance
// from the start codon. The entry with an empty Seq stands for no motif
type motif struct {
	Seq       string
	MinSpacer int
	MaxSpacer int
}

func (m motif) spacer() string {
	if m.Seq == "" {
		return ""
	}
	return fmt.Sprintf("%d-%dbp", m.MinSpacer, m.MaxSpacer)
}

// sdWords are the sub-words of AGGAGG, longest first
var sdWords = []string{"AGGAGG", "GGAGG", "AGGAG", "GGAG", "GAGG", "AGGA", "GGA", "GAG", "AGG"}

// spacerBins are the ranges of bases between a motif and its start codon
var spacerBins = [][2]int{{3, 4}, {5, 10}, {11, 12}, {13, 15}}

// motifs is the RBS catalogue. Index 0 is no motif
var motifs = func() []motif {
	cat := []motif{{}}
	for _, w := range sdWords {
		for _, b := range spacerBins {
			cat = append(cat, motif{Seq: w, MinSpacer: b[0], MaxSpacer: b[1]})
		}
	}
	return cat
}()

// motifIndex returns the catalogue index of word w at spacer distance d, 0 if out of range
func motifIndex(w, d int) int {
	for b, bin := range spacerBins {
		if d >= bin[0] && d <= bin[1] {
			return 1 + w*len(spacerBins) + b
		}
	}
	return 0
}

// presentMotifs calls fn with the catalogue index of every motif found upstream of
// the start codon at pos
func presentMotifs(bases []byte, pos int, fn func(m int)) {
	maxSpacer := spacerBins[len(spacerBins)-1][1]
	for w, word := range sdWords {
		for j := pos - len(word) - maxSpacer; j+len(word)+spacerBins[0][0] <= pos; j++ {
			if j < 0 {
				continue
			}
			if bytes.HasPrefix(bases[j:], []byte(word)) {
				if m := motifIndex(w, pos-j-len(word)); m > 0 {
					fn(m)
				}
			}
		}
	}
}

// bestMotif returns the highest weighted motif upstream of pos, 0 (no motif) if
// nothing found outweighs it. Ties keep the lower catalogue index
func bestMotif(bases []byte, pos int, weights []float64) int {
	best := 0
	presentMotifs(bases, pos, func(m int) {
		if weights[m] > weights[best] || (weights[m] == weights[best] && m < best) {
			best = m
		}
	})
	return best
}

// upstreamScore sums the position-specific composition weights of the bases upstream of pos
func upstreamScore(bases []byte, pos int, weights *[upstreamLen][4]float64) (score float64) {
	for k := 0; k < upstreamLen; k++ {
		i := pos - 1 - k
		if i < 0 {
			break
		}
		if b := baseIndex(bases[i]); b >= 0 {
			score += weights[k][b]
		}
	}
	return score
}

// baseIndex is the TCAG index of a base, -1 for N
func baseIndex(b byte) int {
	switch b {
	case 'T':
		return 0
	case 'C':
		return 1
	case 'A':
		return 2
	case 'G':
		return 3
	}
	return -1
}
