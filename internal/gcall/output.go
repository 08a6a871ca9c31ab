package gcall

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/jjtimmons/gcall/internal/gencode"
	"github.com/jjtimmons/gcall/internal/seq"
)

// Format is the layout of the main gene output
type Format string

const (
	// GBK is GenBank-like CDS features
	GBK Format = "gbk"

	// GFF is GFF3
	GFF Format = "gff"

	// SCO is a simple coordinate list
	SCO Format = "sco"
)

// ParseFormat returns the output format named s
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case GBK, GFF, SCO:
		return f, nil
	}
	return "", &ConfigurationError{Err: fmt.Errorf("unknown output format %q (want gbk, gff or sco)", s)}
}

// lineWidth is the number of residues per line of FASTA output
const lineWidth = 60

// Writer writes called genes. Proteins, Nucleotides and Scores are optional
type Writer struct {
	Format Format
	Out    io.Writer

	Proteins    io.Writer
	Nucleotides io.Writer
	Scores      io.Writer

	// Mode is reported as the run type
	Mode Mode

	started bool
}

// Write writes the genes of one result. Gene ids are <record number>_<gene number>,
// with records numbered from 1 in input order. Failed results are skipped
func (w *Writer) Write(res Result) error {
	if res.Err != nil {
		return nil
	}
	rec := res.Index + 1

	var out strings.Builder
	switch w.Format {
	case GFF:
		if !w.started {
			out.WriteString("##gff-version  3\n")
		}
		out.WriteString(w.header("# ", rec, res))
		for n, g := range res.Path.Genes {
			fmt.Fprintf(&out, "%s\tgcall\tCDS\t%d\t%d\t%.1f\t%s\t0\t%s\n",
				res.Seq.ID, g.Begin, g.End, g.Score.Total, g.Strand, attributes(rec, n+1, g))
		}
	case GBK:
		out.WriteString(w.genbank(rec, res))
	case SCO:
		out.WriteString(w.header("# ", rec, res))
		for n, g := range res.Path.Genes {
			fmt.Fprintf(&out, ">%d_%d_%d_%s\n", n+1, g.Begin, g.End, g.Strand)
		}
	}
	w.started = true
	if _, err := io.WriteString(w.Out, out.String()); err != nil {
		return fmt.Errorf("failed to write genes: %w", err)
	}

	if w.Proteins != nil {
		if err := w.fasta(w.Proteins, rec, res, true); err != nil {
			return err
		}
	}
	if w.Nucleotides != nil {
		if err := w.fasta(w.Nucleotides, rec, res, false); err != nil {
			return err
		}
	}
	if w.Scores != nil {
		if err := w.scores(rec, res); err != nil {
			return err
		}
	}
	return nil
}

// header returns the sequence and model description lines of a record
func (w *Writer) header(prefix string, rec int, res Result) string {
	m := res.Model
	return fmt.Sprintf("%sSequence Data: seqnum=%d;seqlen=%d;seqhdr=\"%s\"\n%sModel Data: version=gcall;run_type=%s;model=\"%s\";family=%s;gc_cont=%.2f;transl_table=%d\n",
		prefix, rec, res.Seq.Len(), seqHeader(res.Seq),
		prefix, w.runType(res), m.ID, m.Family, 100*res.Seq.GC(), m.Code)
}

func (w *Writer) runType(res Result) string {
	if res.Fallback {
		return string(ModeMeta) + "(fallback)"
	}
	return string(w.Mode)
}

// genbank returns the CDS features of a record
func (w *Writer) genbank(rec int, res Result) string {
	var sb strings.Builder

	h1 := fmt.Sprintf("LOCUS       %s", res.Seq.ID)
	h2 := fmt.Sprintf("%d bp    DNA     linear\n", res.Seq.Len())
	space := " "
	if pad := 79 - len(h1+h2); pad > 0 {
		space = strings.Repeat(" ", pad)
	}
	sb.WriteString(h1 + space + h2)

	m := res.Model
	fmt.Fprintf(&sb, "DEFINITION  seqnum=%d;seqlen=%d;seqhdr=\"%s\";version=gcall;run_type=%s;model=\"%s\";gc_cont=%.2f;transl_table=%d\n",
		rec, res.Seq.Len(), seqHeader(res.Seq), w.runType(res), m.ID, 100*res.Seq.GC(), m.Code)
	sb.WriteString("FEATURES             Location/Qualifiers\n")

	for n, g := range res.Path.Genes {
		left, right := "", ""
		if g.PartialLeft {
			left = "<"
		}
		if g.PartialRight {
			right = ">"
		}
		loc := fmt.Sprintf("%s%d..%s%d", left, g.Begin, right, g.End)
		if g.Strand == seq.Reverse {
			loc = "complement(" + loc + ")"
		}

		fmt.Fprintf(&sb, "     CDS             %s\n", loc)
		fmt.Fprintf(&sb, "                     /note=\"%s\"\n", attributes(rec, n+1, g))
	}
	sb.WriteString("//\n")
	return sb.String()
}

// fasta writes the proteins (or nucleotides) of every gene of a record
func (w *Writer) fasta(out io.Writer, rec int, res Result, protein bool) error {
	var sb strings.Builder
	for n, g := range res.Path.Genes {
		body := string(g.Bases(res.Seq))
		if protein {
			body = res.Table.Translate([]byte(body), g.Start == gencode.NotStart)
		}

		fmt.Fprintf(&sb, ">%s_%d # %d # %d # %d # %s\n", res.Seq.ID, n+1, g.Begin, g.End, int(g.Strand), attributes(rec, n+1, g))
		for i := 0; i < len(body); i += lineWidth {
			end := i + lineWidth
			if end > len(body) {
				end = len(body)
			}
			sb.WriteString(body[i:end] + "\n")
		}
	}
	if _, err := io.WriteString(out, sb.String()); err != nil {
		return fmt.Errorf("failed to write gene sequences: %w", err)
	}
	return nil
}

// scores writes every candidate gene of a record with its score terms
func (w *Writer) scores(rec int, res Result) error {
	var sb strings.Builder
	sb.WriteString(w.header("# ", rec, res))
	sb.WriteString("Beg\tEnd\tStd\tTotal\tCodPot\tStrtSc\tCodon\tRBSMot\tSpacer\tGCCont\n")
	for _, g := range res.Candidates {
		motif, spacer := "None", "None"
		if g.Motif != "" {
			motif, spacer = g.Motif, g.Spacer
		}
		fmt.Fprintf(&sb, "%d\t%d\t%s\t%.2f\t%.2f\t%.2f\t%s\t%s\t%s\t%.3f\n",
			g.Begin, g.End, g.Strand, g.Score.Total, g.Score.Coding, g.Score.Start, g.StartType(), motif, spacer, g.Score.GC)
	}
	if _, err := io.WriteString(w.Scores, sb.String()); err != nil {
		return fmt.Errorf("failed to write scores: %w", err)
	}
	return nil
}

// attributes returns the key=value description of a gene
func attributes(rec, n int, g Gene) string {
	motif, spacer := "None", "None"
	if g.Motif != "" {
		motif, spacer = g.Motif, g.Spacer
	}
	return fmt.Sprintf("ID=%d_%d;partial=%s;start_type=%s;rbs_motif=%s;rbs_spacer=%s;gc_cont=%.3f;conf=%.2f;score=%.2f;cscore=%.2f;sscore=%.2f",
		rec, n, g.Partial(), g.StartType(), motif, spacer, g.Score.GC, confidence(g.Score.Total), g.Score.Total, g.Score.Coding, g.Score.Start)
}

// confidence maps a gene score onto the probability (%) that the gene is real
func confidence(score float64) float64 {
	if score > 50 {
		return 99.99
	}
	c := 100 * math.Exp(score) / (1 + math.Exp(score))
	return math.Min(c, 99.99)
}

func seqHeader(s *seq.Sequence) string {
	if s.Desc == "" {
		return s.ID
	}
	return s.ID + " " + s.Desc
}
