package gcall

import (
	"errors"
	"fmt"
	"math"

	"github.com/jjtimmons/gcall/config"
	"github.com/jjtimmons/gcall/internal/gencode"
	"github.com/jjtimmons/gcall/internal/seq"
)

const (
	// shrinkage is the pseudo-count weight of the pooled table in each GC bin's table
	shrinkage = 32.0

	// motifRounds is the number of RBS clustering rounds per training round
	motifRounds = 5

	// sdEnrichment is how much more often trusted starts must carry a 4+ base
	// SD motif than alternative starts for the model to score RBS motifs
	sdEnrichment = 0.15
)

// TrainerContext is the state of a training run, carried from round to round
type TrainerContext struct {
	Seq   *seq.Sequence
	Table *gencode.Table

	// Nodes of the training sequence under Table
	Nodes []Node

	// Model is the latest estimate
	Model *Bundle

	// Trusted are the start nodes of the latest round's trusted genes
	Trusted []int

	// Round is the number of completed rounds
	Round int

	// Delta is the largest coefficient change of the latest round
	Delta float64

	conf *config.Config

	// run is the gene path context of the latest round
	run *Context

	// background codon frequencies of the sequence over all six frames
	background [64]float64
}

// Train estimates a model from the genes of s. Without a forced genetic code,
// code 4 is picked over code 11 only when it covers clearly more of the sequence
func Train(s *seq.Sequence, conf *config.Config) (*Bundle, error) {
	if err := trainable(s, conf); err != nil {
		return nil, err
	}

	code := conf.Code
	if code == 0 {
		var err error
		if code, err = detectCode(s, conf); err != nil {
			return nil, err
		}
	}
	table, err := gencode.New(code)
	if err != nil {
		return nil, &ConfigurationError{Err: err}
	}

	tc := NewTrainerContext(s, table, conf)
	if err := tc.Fit(); err != nil {
		return nil, err
	}

	m := tc.Model
	m.Info.ID = "trained_" + s.ID
	m.Info.Origin = "trained"
	m.Info.Family = Bacteria
	if !m.UsesSD {
		m.Info.Family = Archaea
	}
	return m, nil
}

// NewTrainerContext starts a training run from the prior at the GC of s
func NewTrainerContext(s *seq.Sequence, table *gencode.Table, conf *config.Config) *TrainerContext {
	tc := &TrainerContext{
		Seq:   s,
		Table: table,
		Nodes: Nodes(s, table, conf),
		Model: Prior(s.GC(), table, Bacteria, conf.Training.GCBinWidth),
		conf:  conf,
	}

	var counts [64]float64
	total := 0.0
	for _, st := range []seq.Strand{seq.Forward, seq.Reverse} {
		bases := s.Strand(st)
		for q := 0; q+3 <= len(bases); q++ {
			if c := gencode.CodonIndex(bases[q : q+3]); c >= 0 {
				counts[c]++
				total++
			}
		}
	}
	for c := range counts {
		tc.background[c] = (counts[c] + 1) / (total + 64)
	}
	return tc
}

// Fit runs rounds until the model moves less than the tolerance or the round
// limit is reached. A later round short of trusted genes ends the run with the
// previous round's estimate; only a short first round is an error
func (tc *TrainerContext) Fit() error {
	for tc.Round < tc.conf.Training.Rounds {
		tc.Round++
		if err := tc.Step(); err != nil {
			var short *InsufficientTrainingDataError
			if tc.Trusted != nil && errors.As(err, &short) {
				tc.Round--
				warnf("training stopped after round %d: %v\n", tc.Round, err)
				return nil
			}
			return err
		}
		if tc.conf.Verbose {
			stderr.Printf("training round %d: %d trusted genes, delta %.4f\n", tc.Round, len(tc.Trusted), tc.Delta)
		}
		if tc.Delta < tc.conf.Training.Tolerance {
			break
		}
	}
	return nil
}

// Step runs one round: call genes with the current model, pick the trusted ones
// and re-estimate the model from them. A round short of trusted genes leaves the
// context as it was
func (tc *TrainerContext) Step() error {
	run := NewContext(tc.Seq, tc.Table, tc.Nodes, tc.conf)
	path := SelectPath(run, tc.Model)

	trusted := tc.trustedIn(run, path)
	if len(trusted) < tc.conf.Training.MinGenes {
		return &InsufficientTrainingDataError{
			Length:  tc.Seq.Len(),
			Trusted: len(trusted),
			Reason:  fmt.Sprintf("fewer than %d trusted genes", tc.conf.Training.MinGenes),
		}
	}
	tc.run, tc.Trusted = run, trusted

	next := &Bundle{
		Info:        tc.Model.Info,
		BinWidth:    tc.Model.BinWidth,
		RBS:         make([]float64, len(motifs)),
		Readthrough: tc.Model.Readthrough,
	}
	tc.estimateCoding(next)
	tc.estimateStarts(next)

	tc.Delta = modelDelta(tc.Model, next)
	tc.Model = next
	return nil
}

// trustedIn returns the start nodes of complete, long genes of the path whose start
// beats every alternative start in the ORF by the start margin
func (tc *TrainerContext) trustedIn(ctx *Context, path GenePath) (trusted []int) {
	for _, g := range path.Genes {
		i := g.node
		n := ctx.Nodes[i]
		if n.Partial || ctx.Nodes[n.Stop].Partial || g.Len() < tc.conf.Training.TrustedLength {
			continue
		}

		clearStart := true
		for _, j := range ctx.alternatives(i) {
			if ctx.Nodes[j].Score.Total > n.Score.Total-tc.conf.Training.StartMargin {
				clearStart = false
				break
			}
		}
		if clearStart {
			trusted = append(trusted, i)
		}
	}
	return trusted
}

// estimateCoding fills the coding tables of next from the trusted genes. Each GC
// bin's dicodon table is shrunk towards the table of all trusted genes
func (tc *TrainerContext) estimateCoding(next *Bundle) {
	var di [gcBins][4096]float64
	var pooledDi [4096]float64
	var uni [gcBins][64]float64
	var pooledUni [64]float64

	ctx := tc.run
	for _, i := range tc.Trusted {
		n := ctx.Nodes[i]
		bases := tc.Seq.Strand(n.Strand)
		k := next.bin(n.Score.GC)

		prev := -1
		for q := n.Pos; q < ctx.Nodes[n.Stop].Pos; q += 3 {
			cur := gencode.CodonIndex(bases[q : q+3])
			if cur >= 0 {
				uni[k][cur]++
				pooledUni[cur]++
				if prev >= 0 {
					di[k][prev*64+cur]++
					pooledDi[prev*64+cur]++
				}
			}
			prev = cur
		}
	}

	var pooledRow [64]float64
	pooledTotal := 0.0
	for prev := 0; prev < 64; prev++ {
		for cur := 0; cur < 64; cur++ {
			pooledRow[prev] += pooledDi[prev*64+cur]
		}
		pooledTotal += pooledUni[prev]
	}

	for k := 0; k < gcBins; k++ {
		binTotal := 0.0
		for cur := 0; cur < 64; cur++ {
			binTotal += uni[k][cur]
		}

		for prev := 0; prev < 64; prev++ {
			row := 0.0
			for cur := 0; cur < 64; cur++ {
				row += di[k][prev*64+cur]
			}
			for cur := 0; cur < 64; cur++ {
				pooled := (pooledDi[prev*64+cur] + 1) / (pooledRow[prev] + 64)
				p := (di[k][prev*64+cur] + shrinkage*pooled) / (row + shrinkage)
				next.Coding[k][prev*64+cur] = logRatio(p, tc.background[cur])
			}
		}

		for cur := 0; cur < 64; cur++ {
			pooled := (pooledUni[cur] + 1) / (pooledTotal + 64)
			p := (uni[k][cur] + shrinkage*pooled) / (binTotal + shrinkage)
			next.Marginal[k][cur] = logRatio(p, tc.background[cur])
		}
	}
}

// estimateStarts fills the start type, RBS and upstream weights of next by
// comparing trusted starts with the alternative starts of the same ORFs
func (tc *TrainerContext) estimateStarts(next *Bundle) {
	ctx := tc.run

	var alts []int
	for _, i := range tc.Trusted {
		for _, j := range ctx.alternatives(i) {
			if !ctx.Nodes[j].Partial {
				alts = append(alts, j)
			}
		}
	}
	nT, nA := float64(len(tc.Trusted)), float64(len(alts))

	// start codon types
	var typeT, typeA [3]float64
	for _, i := range tc.Trusted {
		typeT[ctx.Nodes[i].Kind]++
	}
	for _, j := range alts {
		typeA[ctx.Nodes[j].Kind]++
	}
	for k := range next.StartType {
		next.StartType[k] = logRatio((typeT[k]+1)/(nT+3), (typeA[k]+1)/(nA+3))
	}

	// RBS motifs, clustered by re-assigning each start its best motif under the latest
	// weights, starting from the prior's weights
	weights := make([]float64, len(motifs))
	for m := 1; m < len(motifs); m++ {
		weights[m] = priorMotifWeight(motifs[m])
	}
	K := float64(len(motifs))
	var sdT, sdA float64
	for round := 0; round < motifRounds; round++ {
		cT := make([]float64, len(motifs))
		cA := make([]float64, len(motifs))
		sdT, sdA = 0, 0
		for _, i := range tc.Trusted {
			m := tc.motifOf(i, weights)
			cT[m]++
			if m > 0 && len(motifs[m].Seq) >= 4 {
				sdT++
			}
		}
		for _, j := range alts {
			m := tc.motifOf(j, weights)
			cA[m]++
			if m > 0 && len(motifs[m].Seq) >= 4 {
				sdA++
			}
		}
		for m := range weights {
			weights[m] = logRatio((cT[m]+0.5)/(nT+0.5*K), (cA[m]+0.5)/(nA+0.5*K))
		}
	}
	copy(next.RBS, weights)
	next.UsesSD = nA == 0 || sdT/nT-sdA/nA >= sdEnrichment

	// upstream composition
	var upT, upA [upstreamLen][4]float64
	count := func(i int, up *[upstreamLen][4]float64) {
		n := ctx.Nodes[i]
		bases := tc.Seq.Strand(n.Strand)
		for k := 0; k < upstreamLen && n.Pos-1-k >= 0; k++ {
			if b := baseIndex(bases[n.Pos-1-k]); b >= 0 {
				up[k][b]++
			}
		}
	}
	for _, i := range tc.Trusted {
		count(i, &upT)
	}
	for _, j := range alts {
		count(j, &upA)
	}
	for k := range next.Upstream {
		totT := upT[k][0] + upT[k][1] + upT[k][2] + upT[k][3]
		totA := upA[k][0] + upA[k][1] + upA[k][2] + upA[k][3]
		for b := range next.Upstream[k] {
			next.Upstream[k][b] = logRatio((upT[k][b]+1)/(totT+4), (upA[k][b]+1)/(totA+4))
		}
	}
}

// motifOf returns the best motif upstream of start node i
func (tc *TrainerContext) motifOf(i int, weights []float64) int {
	n := tc.run.Nodes[i]
	return bestMotif(tc.Seq.Strand(n.Strand), n.Pos, weights)
}

// trainable checks that s is long and complex enough to train on
func trainable(s *seq.Sequence, conf *config.Config) error {
	if s.Len() < conf.Training.MinLength {
		return &InsufficientTrainingDataError{
			Length: s.Len(),
			Reason: fmt.Sprintf("sequence shorter than %d bp", conf.Training.MinLength),
		}
	}

	bases := s.Strand(seq.Forward)
	seen := make(map[string]bool)
	windows := 0
	for i := 0; i+6 <= len(bases); i++ {
		seen[string(bases[i:i+6])] = true
		windows++
	}
	possible := 4096
	if windows < possible {
		possible = windows
	}
	if complexity := float64(len(seen)) / float64(possible); complexity < conf.Training.MinComplexity {
		return &InsufficientTrainingDataError{
			Length: s.Len(),
			Reason: fmt.Sprintf("low complexity sequence (%.2f distinct hexamers)", complexity),
		}
	}
	return nil
}

// detectCode compares the coding coverage of code 11 and code 4 under the prior
func detectCode(s *seq.Sequence, conf *config.Config) (int, error) {
	coverage := make(map[int]int)
	for _, code := range []int{gencode.Standard, 4} {
		table, err := gencode.New(code)
		if err != nil {
			return 0, &ConfigurationError{Err: err}
		}
		ctx := NewContext(s, table, Nodes(s, table, conf), conf)
		coverage[code] = SelectPath(ctx, Prior(s.GC(), table, Bacteria, conf.Training.GCBinWidth)).CodingBases()
	}

	if float64(coverage[4]) > float64(coverage[gencode.Standard])*(1+conf.Training.Code4Gain) {
		if conf.Verbose {
			stderr.Printf("using genetic code 4: %d vs %d coding bases\n", coverage[4], coverage[gencode.Standard])
		}
		return 4, nil
	}
	return gencode.Standard, nil
}

// logRatio is log(p/q) bounded to the model's range
func logRatio(p, q float64) float64 {
	return clamp(math.Log(p)-math.Log(q), -maxRatio, maxRatio)
}

// modelDelta is the largest change in start weights, or the mean change in coding weights
func modelDelta(a, b *Bundle) float64 {
	delta := 0.0
	for k := range a.StartType {
		delta = math.Max(delta, math.Abs(a.StartType[k]-b.StartType[k]))
	}
	for m := range a.RBS {
		delta = math.Max(delta, math.Abs(a.RBS[m]-b.RBS[m]))
	}

	sum := 0.0
	for k := range a.Coding {
		for c := range a.Coding[k] {
			sum += math.Abs(a.Coding[k][c] - b.Coding[k][c])
		}
	}
	return math.Max(delta, sum/float64(gcBins*4096))
}
