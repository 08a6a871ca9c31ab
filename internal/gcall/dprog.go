package gcall

import (
	"sort"

	"github.com/jjtimmons/gcall/config"
	"github.com/jjtimmons/gcall/internal/seq"
)

// candidate is a positively scored start node and the span of its gene on the forward strand
type candidate struct {
	node   int
	left   int
	right  int
	strand seq.Strand
	score  float64
}

// start returns the forward strand coordinate of the candidate's start codon
func (c candidate) start() int {
	if c.strand == seq.Reverse {
		return c.right
	}
	return c.left
}

func (c candidate) length() int {
	return c.right - c.left + 1
}

// SelectPath scores the start nodes of ctx with m and returns the highest scoring
// path of genes. Only genes with a positive score are considered, so a record
// without any is an empty path
func SelectPath(ctx *Context, m Model) GenePath {
	ctx.ScoreNodes(m)

	cands := candidates(ctx)
	order, score := selectCandidates(cands, ctx.conf)

	path := GenePath{Length: ctx.Seq.Len(), Score: score}
	for _, g := range order {
		path.Genes = append(path.Genes, newGene(ctx.Seq, ctx.Nodes, cands[g].node))
	}
	return path
}

// selectCandidates returns the indexes of the best path's candidates, left to right, and its score
func selectCandidates(cands []candidate, conf *config.Config) ([]int, float64) {
	best, links, top := traverse(cands, conf)

	terminal := -1
	for g := range cands {
		if terminal < 0 || better(cands, best, g, terminal) {
			terminal = g
		}
	}
	if terminal < 0 {
		return nil, 0
	}

	var order []int
	for g, e := terminal, top[terminal]; g >= 0; {
		order = append(order, g)
		l := links[g][e]
		g, e = l.h, l.e
	}
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order, best[terminal]
}

// candidates returns the positively scored start nodes ordered by their right end
func candidates(ctx *Context) []candidate {
	var cands []candidate
	for i, n := range ctx.Nodes {
		if n.Role != StartNode || n.Score.Total <= 0 {
			continue
		}
		begin, end := geneSpan(ctx.Nodes, i)
		left, right := absSpan(ctx.Seq.Len(), n.Strand, begin, end)
		cands = append(cands, candidate{node: i, left: left, right: right, strand: n.Strand, score: n.Score.Total})
	}

	sort.SliceStable(cands, func(a, b int) bool {
		if cands[a].right != cands[b].right {
			return cands[a].right < cands[b].right
		}
		if cands[a].left != cands[b].left {
			return cands[a].left < cands[b].left
		}
		return cands[a].node < cands[b].node
	})
	return cands
}

// link is one way of reaching a candidate: the candidate before it, the link
// taken into that candidate, and the score of the path so far
type link struct {
	h, e  int // -1 when the candidate is first
	right int // right end of h, -1 when the candidate is first
	score float64
}

// traverse fills links[g], every way of reaching candidate g that may still matter
// to a later gene, ordered by the right end of the predecessor. lead[g][i] is the
// best of links[g][:i+1], so top[g], the last of them, is g's best link and
// best[g] its score.
//
// A predecessor h must end before g ends and start before g starts, and may only
// overlap g as far as the strands' overlap bound allows. g may not reach into the
// gene before h, so h is entered through its best link ending left of g.
// Predecessors far enough left that neither overlap nor operon terms apply are
// taken from a running maximum; the rest are checked one by one
func traverse(cands []candidate, conf *config.Config) (best []float64, links [][]link, top []int) {
	n := len(cands)
	best = make([]float64, n)
	links = make([][]link, n)
	top = make([]int, n)
	lead := make([][]int, n)
	prefix := make([]int, n) // prefix[k] is the best candidate in cands[:k+1]

	p := conf.Path
	for g, c := range cands {
		ls := []link{{h: -1, e: -1, right: -1, score: c.score}}

		// no connection term applies once the gap exceeds the operon gap
		far := sort.Search(g, func(i int) bool { return cands[i].right >= c.left-1-p.OperonGap })
		if far > 0 {
			h := prefix[far-1]
			ls = append(ls, link{h: h, e: top[h], right: cands[h].right, score: c.score + best[h]})
		}

		near := sort.Search(g, func(i int) bool { return cands[i].right > c.left+conf.MaxOverlap()-1 })
		for h := far; h < near; h++ {
			conn, ok := connect(cands[h], c, p)
			if !ok {
				continue
			}
			k := sort.Search(len(links[h]), func(i int) bool { return links[h][i].right >= c.left })
			e := lead[h][k-1]
			ls = append(ls, link{h: h, e: e, right: cands[h].right, score: c.score + conn + links[h][e].score})
		}

		lead[g] = make([]int, len(ls))
		for i := range ls {
			lead[g][i] = i
			if i > 0 && !beats(cands, best, ls[i], ls[lead[g][i-1]]) {
				lead[g][i] = lead[g][i-1]
			}
		}
		links[g] = ls
		top[g] = lead[g][len(ls)-1]
		best[g] = ls[top[g]].score

		prefix[g] = g
		if g > 0 && better(cands, best, prefix[g-1], g) {
			prefix[g] = prefix[g-1]
		}
	}
	return best, links, top
}

// beats returns whether link a is a better way into a candidate than link b:
// a higher score, then a predecessor over none, then the better predecessor
func beats(cands []candidate, best []float64, a, b link) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	if a.h < 0 || b.h < 0 {
		return b.h < 0 && a.h >= 0
	}
	return better(cands, best, a.h, b.h)
}

// connect returns the connection term between h and a following gene g, and
// whether g may follow h at all
func connect(h, g candidate, p config.PathConfig) (float64, bool) {
	if h.right >= g.right || h.left >= g.left {
		return 0, false
	}

	gap := g.left - h.right - 1
	conn := 0.0
	if overlap := -gap; overlap > 0 {
		switch {
		case h.strand == g.strand:
			if overlap > p.MaxOverlapSame {
				return 0, false
			}
		case h.strand == seq.Forward:
			// 3' ends face each other
			if overlap > p.MaxOverlapOpposite {
				return 0, false
			}
		default:
			// 5' ends face each other
			return 0, false
		}
		if overlap > p.OverlapSoft {
			conn -= p.OverlapPenalty * float64(overlap-p.OverlapSoft)
		}
	}

	if h.strand == g.strand && gap >= -p.OperonOverlap && gap <= p.OperonGap {
		conn += p.OperonBonus
	}
	return conn, true
}

// better returns whether path end a beats path end b: higher score, then the
// longer gene, then the earlier start, then the earlier candidate
func better(cands []candidate, best []float64, a, b int) bool {
	if best[a] != best[b] {
		return best[a] > best[b]
	}
	ca, cb := cands[a], cands[b]
	if ca.length() != cb.length() {
		return ca.length() > cb.length()
	}
	if ca.start() != cb.start() {
		return ca.start() < cb.start()
	}
	return a < b
}
