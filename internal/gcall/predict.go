package gcall

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/jjtimmons/gcall/config"
	"github.com/jjtimmons/gcall/internal/gencode"
	"github.com/jjtimmons/gcall/internal/seq"
	"github.com/klauspost/cpuid"
	"github.com/pbnjay/memory"
)

// Mode is how a model is picked for each record
type Mode string

const (
	// ModeSingle trains one model on all records and applies it to each
	ModeSingle Mode = "single"

	// ModeMeta picks the best bank model per record
	ModeMeta Mode = "meta"

	// ModeModel applies one given model to every record
	ModeModel Mode = "model"
)

// ParseMode returns the mode named s
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeSingle, ModeMeta, ModeModel:
		return Mode(s), nil
	case "anon":
		return ModeMeta, nil
	}
	return "", &ConfigurationError{Err: fmt.Errorf("unknown mode %q (want single, meta or model)", s)}
}

// workerMemory is the memory set aside per worker when sizing the pool
const workerMemory = 256 << 20

// Options are the inputs of a Run besides the records
type Options struct {
	Mode Mode

	// Model is the model of ModeModel, or a pre-trained model for ModeSingle
	Model Model

	// Bank is searched in ModeMeta and when training falls back
	Bank Bank

	// Candidates keeps every scored start of each record in its Result
	Candidates bool

	// Progress is called once per finished record
	Progress func()

	// Fallback marks every result as a fallback from failed training
	Fallback bool
}

// Result is the outcome for one record
type Result struct {
	// Index of the record in the input
	Index int

	Seq *seq.Sequence

	Path GenePath

	// Model that produced the path
	Model Meta

	// Table is the genetic code the genes are read with
	Table *gencode.Table

	// Candidates are every scored start of the record, if requested
	Candidates []Gene

	// Fallback is set when training failed and a bank model was used instead
	Fallback bool

	// Err is set when the record could not be processed
	Err error
}

// Predict calls the genes of s with a single model
func Predict(s *seq.Sequence, m Model, conf *config.Config) (GenePath, *Context, error) {
	table, err := gencode.New(m.Meta().Code)
	if err != nil {
		return GenePath{}, nil, &ConfigurationError{Err: err}
	}
	ctx := NewContext(s, table, Nodes(s, table, conf), conf)
	return SelectPath(ctx, m), ctx, nil
}

// Run calls the genes of every record and returns one Result per record, in
// input order. A record that fails has its Err set and the rest carry on
func Run(records []*seq.Sequence, opts Options, conf *config.Config) ([]Result, error) {
	if err := checkCode(conf.Code); err != nil {
		return nil, err
	}

	switch opts.Mode {
	case ModeSingle:
		if opts.Model == nil {
			m, err := trainAll(records, conf)
			var insufficient *InsufficientTrainingDataError
			switch {
			case errors.As(err, &insufficient):
				warnf("%v; using the model bank instead\n", err)
				opts.Mode, opts.Fallback = ModeMeta, true
			case err != nil:
				return nil, err
			default:
				opts.Model = m
			}
		}
	case ModeModel:
		if opts.Model == nil {
			return nil, &ConfigurationError{Err: errors.New("no model given")}
		}
	case ModeMeta:
	default:
		return nil, &ConfigurationError{Err: fmt.Errorf("unknown mode %q", opts.Mode)}
	}
	if opts.Mode == ModeMeta && len(opts.Bank) == 0 {
		opts.Bank = DefaultBank()
	}
	if opts.Model != nil {
		if _, err := gencode.New(opts.Model.Meta().Code); err != nil {
			return nil, &ConfigurationError{Err: err}
		}
	}

	tasks := Tasks(conf)
	modelWorkers := 1
	if len(records) < tasks {
		modelWorkers = tasks
	}

	results := make([]Result, len(records))
	jobs := make(chan int)
	done := make(chan bool)
	for w := 0; w < tasks; w++ {
		go func() {
			for i := range jobs {
				results[i] = runRecord(i, records[i], opts, conf, modelWorkers)
				results[i].Fallback = opts.Fallback
				if opts.Progress != nil {
					opts.Progress()
				}
			}
			done <- true
		}()
	}
	for i := range records {
		jobs <- i
	}
	close(jobs)
	for w := 0; w < tasks; w++ {
		<-done
	}

	for _, r := range results {
		if r.Err != nil {
			warnf("skipping %s: %v\n", r.Seq.ID, r.Err)
		}
	}
	return results, nil
}

// runRecord calls the genes of one record
func runRecord(i int, s *seq.Sequence, opts Options, conf *config.Config, workers int) (res Result) {
	res = Result{Index: i, Seq: s}

	var ctx *Context
	switch opts.Mode {
	case ModeMeta:
		choice, err := SelectModel(s, opts.Bank, conf, workers)
		if err != nil {
			res.Err = err
			return res
		}
		res.Path, res.Model, res.Table, ctx = choice.Path, choice.Model.Meta(), choice.Table, choice.Context
	default:
		path, c, err := Predict(s, opts.Model, conf)
		if err != nil {
			res.Err = err
			return res
		}
		res.Path, res.Model, res.Table, ctx = path, opts.Model.Meta(), c.Table, c
	}

	for _, g := range res.Path.Genes {
		if err := g.Validate(s.Len()); err != nil {
			res.Err = fmt.Errorf("invalid gene: %w", err)
			return res
		}
	}
	if opts.Candidates {
		res.Candidates = ctx.Candidates()
	}
	if conf.Verbose {
		stderr.Printf("%s: %d genes, model %s\n", s.ID, len(res.Path.Genes), res.Model.ID)
	}
	return res
}

// trainAll trains one model on all records joined
func trainAll(records []*seq.Sequence, conf *config.Config) (*Bundle, error) {
	joined, err := seq.Join(records)
	if err != nil {
		return nil, err
	}
	return Train(joined, conf)
}

// checkCode rejects an unknown forced genetic code before any work starts
func checkCode(code int) error {
	if code == 0 {
		return nil
	}
	if _, err := gencode.New(code); err != nil {
		return &ConfigurationError{Err: err}
	}
	return nil
}

// Tasks returns the number of records to process in parallel: the configured
// count, or one per physical core, capped by memory
func Tasks(conf *config.Config) int {
	if conf.Tasks > 0 {
		return conf.Tasks
	}

	n := runtime.NumCPU()
	if cpuid.CPU.PhysicalCores > 0 && cpuid.CPU.PhysicalCores < n {
		n = cpuid.CPU.PhysicalCores
	}
	if total := memory.TotalMemory(); total > 0 {
		if byMem := int(total / workerMemory); byMem < n {
			n = byMem
		}
	}
	if n < 1 {
		n = 1
	}
	return n
}
