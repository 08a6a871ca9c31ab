package gcall

import (
	"strings"
	"testing"

	"github.com/jjtimmons/gcall/config"
	"github.com/jjtimmons/gcall/internal/gencode"
	"github.com/jjtimmons/gcall/internal/seq"
)

// shortResult is the result for a record holding one short gene
func shortResult(t *testing.T) Result {
	t.Helper()
	s := newSeq(t, "short", "ATGAAATAA")
	m := Prior(0.5, mustTable(t, 11), Bacteria, 0.06)
	path, ctx, err := Predict(s, m, config.Default())
	if err != nil {
		t.Fatal(err)
	}
	return Result{Index: 0, Seq: s, Path: path, Model: m.Meta(), Table: ctx.Table, Candidates: ctx.Candidates()}
}

const shortAttributes = "ID=1_1;partial=00;start_type=ATG;rbs_motif=None;rbs_spacer=None;gc_cont=0.222;conf=91.59;score=2.39;cscore=0.39;sscore=2.00"

func TestWriter_Write(t *testing.T) {
	tests := []struct {
		format Format
		want   []string
	}{
		{GFF, []string{
			"##gff-version  3\n",
			"# Sequence Data: seqnum=1;seqlen=9;seqhdr=\"short\"\n",
			"run_type=model;model=\"bacteria_gc50_c11\";family=bacteria;gc_cont=22.22;transl_table=11\n",
			"short\tgcall\tCDS\t1\t9\t2.4\t+\t0\t" + shortAttributes + "\n",
		}},
		{SCO, []string{
			"# Model Data: version=gcall;",
			">1_1_9_+\n",
		}},
		{GBK, []string{
			"LOCUS       short",
			"9 bp    DNA     linear\n",
			"DEFINITION  seqnum=1;seqlen=9;seqhdr=\"short\";version=gcall;run_type=model;",
			"     CDS             1..9\n",
			"                     /note=\"" + shortAttributes + "\"\n",
			"//\n",
		}},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			var out, proteins, nucleotides, scores strings.Builder
			w := &Writer{Format: tt.format, Out: &out, Proteins: &proteins, Nucleotides: &nucleotides, Scores: &scores, Mode: ModeModel}
			if err := w.Write(shortResult(t)); err != nil {
				t.Fatal(err)
			}

			for _, want := range tt.want {
				if !strings.Contains(out.String(), want) {
					t.Errorf("Write() output missing %q:\n%s", want, out.String())
				}
			}
			if want := ">short_1 # 1 # 9 # 1 # " + shortAttributes + "\nMK*\n"; proteins.String() != want {
				t.Errorf("proteins = %q, want %q", proteins.String(), want)
			}
			if !strings.HasSuffix(nucleotides.String(), "\nATGAAATAA\n") {
				t.Errorf("nucleotides = %q", nucleotides.String())
			}
			if !strings.Contains(scores.String(), "1\t9\t+\t2.39\t0.39\t2.00\tATG\tNone\tNone\t0.222\n") {
				t.Errorf("scores = %q", scores.String())
			}
		})
	}
}

func TestWriter_Write_records(t *testing.T) {
	var out strings.Builder
	w := &Writer{Format: GFF, Out: &out, Mode: ModeMeta}

	res := shortResult(t)
	failed := Result{Index: 1, Seq: res.Seq, Err: &ConfigurationError{Err: errEmptyBank}}
	second := res
	second.Index, second.Fallback = 2, true

	for _, r := range []Result{res, failed, second} {
		if err := w.Write(r); err != nil {
			t.Fatal(err)
		}
	}

	got := out.String()
	if n := strings.Count(got, "##gff-version"); n != 1 {
		t.Errorf("%d gff headers, want 1", n)
	}
	if strings.Contains(got, "seqnum=2;") {
		t.Error("failed record written")
	}
	if !strings.Contains(got, "ID=3_1;") || !strings.Contains(got, "run_type=meta(fallback)") {
		t.Errorf("third record missing or mislabeled:\n%s", got)
	}
}

func TestWriter_genbank_partial(t *testing.T) {
	s := newSeq(t, "edge", "TTATTTCAT")
	res := Result{
		Seq:   s,
		Table: mustTable(t, 11),
		Path: GenePath{Genes: []Gene{{
			Begin: 1, End: 9, Strand: seq.Reverse, Start: gencode.NotStart, PartialLeft: true,
		}}},
	}

	w := &Writer{Format: GBK}
	if got := w.genbank(1, res); !strings.Contains(got, "     CDS             complement(<1..9)\n") {
		t.Errorf("genbank() = %s", got)
	}
	if got := attributes(1, 1, res.Path.Genes[0]); !strings.Contains(got, "partial=10;start_type=Edge;") {
		t.Errorf("attributes() = %s", got)
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"gff": GFF, "GBK": GBK, "sco": SCO} {
		if got, err := ParseFormat(in); err != nil || got != want {
			t.Errorf("ParseFormat(%s) = %s, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("gtf"); err == nil {
		t.Error("ParseFormat(gtf) = nil error")
	}
}

func Test_confidence(t *testing.T) {
	if got := confidence(0); got != 50 {
		t.Errorf("confidence(0) = %f, want 50", got)
	}
	if got := confidence(100); got != 99.99 {
		t.Errorf("confidence(100) = %f, want 99.99", got)
	}
}
