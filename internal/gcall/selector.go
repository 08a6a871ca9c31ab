package gcall

import (
	"fmt"

	"github.com/jjtimmons/gcall/config"
	"github.com/jjtimmons/gcall/internal/gencode"
	"github.com/jjtimmons/gcall/internal/seq"
)

// Choice is the best model of a bank for one record and its gene path
type Choice struct {
	// Index of the model in the bank
	Index int

	Model Model

	Table *gencode.Table

	Path GenePath

	// Context of the winning run, for candidate output
	Context *Context
}

// SelectModel runs every eligible model of the bank over s and keeps the one whose
// path scores highest per base. Models run on up to workers goroutines; exact
// ties go to the model earlier in the bank
func SelectModel(s *seq.Sequence, bank Bank, conf *config.Config, workers int) (Choice, error) {
	if len(bank) == 0 {
		return Choice{}, &ConfigurationError{Err: errEmptyBank}
	}
	eligible := bank.near(s.GC(), conf.Meta.GCWindow)
	if conf.Code != 0 {
		var sameCode []int
		for _, i := range eligible {
			if bank[i].Meta().Code == conf.Code {
				sameCode = append(sameCode, i)
			}
		}
		if len(sameCode) == 0 {
			return Choice{}, &ConfigurationError{Err: fmt.Errorf("no bank model uses genetic code %d", conf.Code)}
		}
		eligible = sameCode
	}

	// nodes depend only on the genetic code, so each code's set is shared by its models
	tables := make(map[int]*gencode.Table)
	nodes := make(map[int][]Node)
	for _, i := range eligible {
		code := bank[i].Meta().Code
		if _, ok := tables[code]; ok {
			continue
		}
		table, err := gencode.New(code)
		if err != nil {
			return Choice{}, &ConfigurationError{Err: err}
		}
		tables[code] = table
		nodes[code] = Nodes(s, table, conf)
	}

	type run struct {
		path GenePath
		ctx  *Context
	}
	runs := make([]run, len(eligible))

	if workers < 1 {
		workers = 1
	}
	if workers > len(eligible) {
		workers = len(eligible)
	}

	jobs := make(chan int)
	done := make(chan bool)
	for w := 0; w < workers; w++ {
		go func() {
			for j := range jobs {
				m := bank[eligible[j]]
				code := m.Meta().Code
				ctx := NewContext(s, tables[code], nodes[code], conf)
				runs[j] = run{path: SelectPath(ctx, m), ctx: ctx}
			}
			done <- true
		}()
	}
	for j := range eligible {
		jobs <- j
	}
	close(jobs)
	for w := 0; w < workers; w++ {
		<-done
	}

	best := -1
	for j, r := range runs {
		if best < 0 || r.path.Normalized() > runs[best].path.Normalized() {
			best = j
		}
	}

	m := bank[eligible[best]]
	return Choice{
		Index:   eligible[best],
		Model:   m,
		Table:   tables[m.Meta().Code],
		Path:    runs[best].path,
		Context: runs[best].ctx,
	}, nil
}
