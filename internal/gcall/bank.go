package gcall

import (
	"errors"
	"fmt"
	"math"

	"github.com/jjtimmons/gcall/internal/gencode"
)

var errEmptyBank = errors.New("model bank is empty")

// defaultBinWidth is the GC distance between coding table bins of bank models
const defaultBinWidth = 0.06

// Bank is an ordered panel of pretrained models. Order is the tie-break
// priority when two models fit a record equally well
type Bank []Model

// bankEntry is a family and genetic code evaluated at several GC levels
type bankEntry struct {
	family Family
	code   int
	gcs    []float64
}

// defaultPanel is the priority order of the default bank
var defaultPanel = []bankEntry{
	{Bacteria, 11, []float64{0.30, 0.40, 0.50, 0.60, 0.70}},
	{Archaea, 11, []float64{0.35, 0.50, 0.65}},
	{Virus, 11, []float64{0.35, 0.45, 0.55}},
	{AltCode, 15, []float64{0.30, 0.40, 0.50}},
	{AltCode, 4, []float64{0.25, 0.35}},
	{NCLDV, 1, []float64{0.25, 0.35, 0.45}},
}

// DefaultBank returns the built-in panel of models
func DefaultBank() Bank {
	var bank Bank
	for _, e := range defaultPanel {
		table, err := gencode.New(e.code)
		if err != nil {
			panic(err) // the panel only names known codes
		}
		for _, gc := range e.gcs {
			b := Prior(gc, table, e.family, defaultBinWidth)
			b.Info.Origin = "bank"
			bank = append(bank, b)
		}
	}
	return bank
}

// LoadBank reads a bank written with WriteModels
func LoadBank(path string) (Bank, error) {
	bundles, err := ReadModels(path)
	if err != nil {
		return nil, err
	}
	if len(bundles) == 0 {
		return nil, &ModelLoadError{Source: path, Err: errEmptyBank}
	}

	bank := make(Bank, len(bundles))
	seen := make(map[string]bool)
	for i, b := range bundles {
		if seen[b.Info.ID] {
			return nil, &ModelLoadError{Source: path, Err: fmt.Errorf("duplicate model id %q", b.Info.ID)}
		}
		seen[b.Info.ID] = true
		bank[i] = b
	}
	return bank, nil
}

// Find returns the model with the id
func (b Bank) Find(id string) (Model, bool) {
	for _, m := range b {
		if m.Meta().ID == id {
			return m, true
		}
	}
	return nil, false
}

// near returns the indexes of models whose GC is within window of gc. A zero
// window, or one that excludes every model, returns them all
func (b Bank) near(gc, window float64) []int {
	var all, idxs []int
	for i, m := range b {
		all = append(all, i)
		if math.Abs(m.Meta().GC-gc) <= window {
			idxs = append(idxs, i)
		}
	}
	if window <= 0 || len(idxs) == 0 {
		return all
	}
	return idxs
}
