package gcall

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/jjtimmons/gcall/config"
)

func TestTrain_insufficient(t *testing.T) {
	tests := []struct {
		name  string
		bases string
	}{
		{"short", randomBases(1, 1000)},
		{"low complexity", strings.Repeat("ACGT", 6000)},
		{"no genes", randomBases(5, 25000)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Train(newSeq(t, "r1", tt.bases), config.Default())
			var insufficient *InsufficientTrainingDataError
			if !errors.As(err, &insufficient) {
				t.Fatalf("Train() error = %v, want *InsufficientTrainingDataError", err)
			}
			if insufficient.Length != len(tt.bases) {
				t.Errorf("error length = %d, want %d", insufficient.Length, len(tt.bases))
			}
		})
	}
}

func TestTrain(t *testing.T) {
	if testing.Short() {
		t.Skip("trains on a 70 kb genome")
	}

	bases, genes := plantGenes(1, 80, 11)
	s := newSeq(t, "syn", bases)
	conf := config.Default()

	m, err := Train(s, conf)
	if err != nil {
		t.Fatal(err)
	}
	if m.Info.Code != 11 || m.Info.ID != "trained_syn" || m.Info.Origin != "trained" {
		t.Errorf("Train() meta = %+v", m.Info)
	}
	if !m.UsesSD || m.Info.Family != Bacteria {
		t.Errorf("Train() missed the planted RBS motifs: uses SD %t, family %s", m.UsesSD, m.Info.Family)
	}
	if m.StartType[0] <= m.StartType[1] || m.StartType[0] <= m.StartType[2] {
		t.Errorf("Train() start weights = %v, want ATG highest", m.StartType)
	}
	if err := m.validate(); err != nil {
		t.Errorf("trained model is invalid: %v", err)
	}

	path, _, err := Predict(s, m, conf)
	if err != nil {
		t.Fatal(err)
	}
	called := make(map[planted]bool)
	for _, g := range path.Genes {
		called[planted{g.Begin, g.End, g.Strand}] = true
	}
	found := 0
	for _, g := range genes {
		if called[g] {
			found++
		}
	}
	if found < 60 || len(path.Genes) > 90 {
		t.Errorf("trained model called %d genes, %d of %d planted genes exactly", len(path.Genes), found, len(genes))
	}
}

func TestTrain_geneticCode(t *testing.T) {
	if testing.Short() {
		t.Skip("trains on a 70 kb genome")
	}

	// genes that read TGA as tryptophan
	bases, _ := plantGenes(4, 80, 4)
	s := newSeq(t, "myco", bases)

	m, err := Train(s, config.Default())
	if err != nil {
		t.Fatal(err)
	}
	if m.Info.Code != 4 {
		t.Errorf("Train() picked genetic code %d, want 4", m.Info.Code)
	}

	conf := config.Default()
	conf.Code = 7
	var confErr *ConfigurationError
	if _, err := Train(s, conf); !errors.As(err, &confErr) {
		t.Errorf("Train(code 7) error = %v, want *ConfigurationError", err)
	}
}

func TestTrainerContext_Step(t *testing.T) {
	bases, _ := plantGenes(1, 80, 11)
	s := newSeq(t, "syn", bases)
	conf := config.Default()

	tc := NewTrainerContext(s, mustTable(t, 11), conf)
	if err := tc.Step(); err != nil {
		t.Fatal(err)
	}
	if len(tc.Trusted) < conf.Training.MinGenes {
		t.Fatalf("Step() trusted %d genes", len(tc.Trusted))
	}
	for _, i := range tc.Trusted {
		n := tc.run.Nodes[i]
		begin, end := geneSpan(tc.run.Nodes, i)
		if n.Partial || tc.run.Nodes[n.Stop].Partial || end-begin+1 < conf.Training.TrustedLength {
			t.Errorf("trusted node %d does not open a complete, long gene", i)
		}
	}
	if tc.Delta <= 0 {
		t.Errorf("Step() delta = %f, want the model to move off the prior", tc.Delta)
	}
}

func TestTrainerContext_Fit(t *testing.T) {
	if testing.Short() {
		t.Skip("trains on a 70 kb genome")
	}
	bases, _ := plantGenes(1, 80, 11)
	s := newSeq(t, "syn", bases)
	conf := config.Default()
	conf.Training.Rounds = 1

	tc := NewTrainerContext(s, mustTable(t, 11), conf)
	if err := tc.Fit(); err != nil {
		t.Fatal(err)
	}
	model, trusted := tc.Model, tc.Trusted

	// a later round short of trusted genes keeps the estimate before it
	conf.Training.Rounds = 5
	conf.Training.MinGenes = len(trusted) + 1000
	if err := tc.Fit(); err != nil {
		t.Fatalf("Fit() error = %v, want the first round's model", err)
	}
	if tc.Model != model || !reflect.DeepEqual(tc.Trusted, trusted) || tc.Round != 1 {
		t.Errorf("Fit() = round %d, %d trusted genes, model replaced %t", tc.Round, len(tc.Trusted), tc.Model != model)
	}

	// without an earlier round there is nothing to keep
	var short *InsufficientTrainingDataError
	if err := NewTrainerContext(s, mustTable(t, 11), conf).Fit(); !errors.As(err, &short) {
		t.Errorf("Fit() error = %v, want *InsufficientTrainingDataError", err)
	}
}
