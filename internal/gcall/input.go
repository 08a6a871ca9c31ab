package gcall

import (
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/jjtimmons/gcall/config"
	"github.com/jjtimmons/gcall/internal/seq"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	pb "gopkg.in/cheggaaa/pb.v1"
)

// Flags contains parsed cobra Flags like "in", "out", "format", etc that are used by multiple commands.
type Flags struct {
	// the path of the nucleotide input, stdin if empty
	in string

	// the path of the gene output, stdout if empty
	out string

	// optional paths of protein, nucleotide and candidate score output
	proteins    string
	nucleotides string
	scores      string

	// format of the gene output
	format Format

	// how models are picked
	mode Mode

	// training file: read if it exists, written after training otherwise
	training string

	// id of a bank model to use for every record
	model string

	// path of a bank file to use instead of the default bank
	bank string

	// no progress or summary on stderr
	quiet bool
}

// PredictCmd calls the genes of the records in the input file
func PredictCmd(cmd *cobra.Command, args []string) {
	fs, conf := parseCmdFlags(cmd, args)
	if err := predict(fs, conf); err != nil {
		stderr.Fatal(err)
	}
}

// TrainCmd trains a model on the input and writes it to the output
func TrainCmd(cmd *cobra.Command, args []string) {
	fs, conf := parseCmdFlags(cmd, args)
	if fs.out == "" {
		cmd.Help()
		stderr.Fatal("no output path for the model")
	}

	records, err := seq.ReadFile(fs.in)
	if err != nil {
		stderr.Fatal(err)
	}
	m, err := trainAll(records, conf)
	if err != nil {
		stderr.Fatal(err)
	}
	if err := WriteModels(fs.out, m); err != nil {
		stderr.Fatal(err)
	}

	if !fs.quiet {
		p := message.NewPrinter(language.English)
		p.Fprintf(os.Stderr, "trained %s on %d bp: genetic code %d, GC %.2f, uses SD: %t\n",
			m.Info.ID, totalLength(records), m.Info.Code, m.Info.GC, m.UsesSD)
	}
}

// ModelsCmd lists the models of the bank, and writes the bank to a file if asked
func ModelsCmd(cmd *cobra.Command, args []string) {
	fs, _ := parseCmdFlags(cmd, args)

	bank, err := loadBank(fs.bank)
	if err != nil {
		stderr.Fatal(err)
	}

	if fs.out != "" {
		var bundles []*Bundle
		for _, m := range bank {
			if b, ok := m.(*Bundle); ok {
				bundles = append(bundles, b)
			}
		}
		if err := WriteModels(fs.out, bundles...); err != nil {
			stderr.Fatal(err)
		}
		return
	}

	if err := listModels(os.Stdout, bank); err != nil {
		stderr.Fatal(err)
	}
}

// listModels writes a table of a bank's models
func listModels(out io.Writer, bank Bank) error {
	tw := tabwriter.NewWriter(out, 0, 4, 3, ' ', 0)
	fmt.Fprintf(tw, "id\tfamily\tcode\tgc\torigin\n")
	for _, m := range bank {
		meta := m.Meta()
		fmt.Fprintf(tw, "%s\t%s\t%d\t%.2f\t%s\n", meta.ID, meta.Family, meta.Code, meta.GC, meta.Origin)
	}
	return tw.Flush()
}

// predict reads the records, calls their genes and writes the output files
func predict(fs *Flags, conf *config.Config) error {
	records, err := seq.ReadFile(fs.in)
	if err != nil {
		return err
	}

	bank, err := loadBank(fs.bank)
	if err != nil {
		return err
	}

	opts := Options{Mode: fs.mode, Bank: bank, Candidates: fs.scores != ""}
	switch {
	case fs.model != "":
		m, ok := bank.Find(fs.model)
		if !ok {
			return &ConfigurationError{Err: fmt.Errorf("no model %q in the bank (see 'gcall models')", fs.model)}
		}
		opts.Mode, opts.Model = ModeModel, m
	case fs.training != "":
		if opts.Model, err = trainingFile(fs.training, records, conf); err != nil {
			var insufficient *InsufficientTrainingDataError
			if !errors.As(err, &insufficient) {
				return err
			}
			warnf("%v; using the model bank instead\n", err)
			opts.Mode, opts.Fallback = ModeMeta, true
		} else if opts.Mode == ModeSingle {
			opts.Mode = ModeModel
		}
	}

	w := &Writer{Format: fs.format, Mode: opts.Mode}
	var closers []io.Closer
	defer func() {
		for _, c := range closers {
			c.Close()
		}
	}()
	open := func(path string) (io.Writer, error) {
		f, err := Create(path)
		if err != nil {
			return nil, err
		}
		closers = append(closers, f)
		return f, nil
	}

	if w.Out, err = open(fs.out); err != nil {
		return err
	}
	if fs.proteins != "" {
		if w.Proteins, err = open(fs.proteins); err != nil {
			return err
		}
	}
	if fs.nucleotides != "" {
		if w.Nucleotides, err = open(fs.nucleotides); err != nil {
			return err
		}
	}
	if fs.scores != "" {
		if w.Scores, err = open(fs.scores); err != nil {
			return err
		}
	}

	var bar *pb.ProgressBar
	if !fs.quiet && fs.out != "" && fs.out != "-" && len(records) > 1 {
		bar = pb.New(len(records))
		bar.Output = os.Stderr
		bar.Start()
		opts.Progress = func() { bar.Increment() }
	}

	results, err := Run(records, opts, conf)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return err
	}

	genes, failed := 0, 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			continue
		}
		genes += len(res.Path.Genes)
		if err := w.Write(res); err != nil {
			return err
		}
	}

	for _, c := range closers {
		if err := c.Close(); err != nil {
			return err
		}
	}
	closers = nil

	if !fs.quiet {
		p := message.NewPrinter(language.English)
		p.Fprintf(os.Stderr, "%d genes in %d records (%d bp)", genes, len(records)-failed, totalLength(records))
		if failed > 0 {
			p.Fprintf(os.Stderr, ", %d records skipped", failed)
		}
		p.Fprintln(os.Stderr)
	}
	return nil
}

// trainingFile reads the model at path if it exists; otherwise it trains one on
// the records and writes it there
func trainingFile(path string, records []*seq.Sequence, conf *config.Config) (*Bundle, error) {
	if _, err := os.Stat(path); err == nil {
		return ReadModel(path)
	}

	m, err := trainAll(records, conf)
	if err != nil {
		return nil, err
	}
	if err := WriteModels(path, m); err != nil {
		return nil, err
	}
	return m, nil
}

func loadBank(path string) (Bank, error) {
	if path == "" {
		return DefaultBank(), nil
	}
	return LoadBank(path)
}

func totalLength(records []*seq.Sequence) (n int) {
	for _, r := range records {
		n += r.Len()
	}
	return n
}

// parseCmdFlags gathers the in path, out path, etc from a cobra cmd object
// and returns Flags and a Config struct
func parseCmdFlags(cmd *cobra.Command, args []string) (*Flags, *config.Config) {
	fs := &Flags{}
	flags := cmd.Flags()

	conf, err := config.New()
	if err != nil {
		stderr.Fatal(&ConfigurationError{Err: err})
	}

	fs.in, _ = flags.GetString("in")
	if fs.in == "" && len(args) > 0 {
		fs.in = args[0]
	}
	fs.out, _ = flags.GetString("out")
	fs.proteins, _ = flags.GetString("proteins")
	fs.nucleotides, _ = flags.GetString("nucleotides")
	fs.scores, _ = flags.GetString("scores")
	fs.training, _ = flags.GetString("training")
	fs.model, _ = flags.GetString("model")
	fs.bank, _ = flags.GetString("bank")
	fs.quiet, _ = flags.GetBool("quiet")

	fs.format, fs.mode = GFF, ModeSingle
	if flags.Lookup("format") != nil {
		format, _ := flags.GetString("format")
		if fs.format, err = ParseFormat(format); err != nil {
			cmd.Help()
			stderr.Fatal(err)
		}
	}
	if flags.Lookup("mode") != nil {
		mode, _ := flags.GetString("mode")
		if fs.mode, err = ParseMode(mode); err != nil {
			cmd.Help()
			stderr.Fatal(err)
		}
	}

	return fs, conf
}
