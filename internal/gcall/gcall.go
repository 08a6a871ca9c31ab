// Package gcall finds protein coding genes in nucleotide records.
//
// Candidate start and stop codons are found on both strands (Nodes), scored
// against a statistical model of coding composition and start sites (Model),
// and a dynamic program picks the highest scoring set of genes that respects
// the overlap rules between neighbouring genes (SelectPath). Models are either
// trained on the input itself (Train) or taken from a fixed panel of pretrained
// models (Bank), in which case every model in the panel is tried and the best
// fit is kept per record (SelectModel).
package gcall

import (
	"fmt"
	"log"
	"os"

	"github.com/fatih/color"
)

var (
	// stderr is for logging to Stderr (without an annoying timestamp)
	stderr = log.New(os.Stderr, "", 0)

	// warn highlights recoverable problems: fallbacks and skipped records
	warn = color.New(color.FgYellow)
)

// warnf logs a highlighted warning to stderr
func warnf(format string, args ...interface{}) {
	stderr.Print(warn.Sprintf("warning: "+format, args...))
}

// InsufficientTrainingDataError is returned when a sequence is too short, or too
// repetitive, or yields too few trusted genes to estimate a model from
type InsufficientTrainingDataError struct {
	// Length of the training sequence
	Length int

	// Trusted is the number of trusted genes found (0 if training stopped earlier)
	Trusted int

	// Reason is a short description of what was missing
	Reason string
}

func (e *InsufficientTrainingDataError) Error() string {
	return fmt.Sprintf("insufficient training data (%d bp, %d trusted genes): %s", e.Length, e.Trusted, e.Reason)
}

// ConfigurationError is returned for settings that cannot be run, such as an
// unsupported genetic code, before any scoring starts
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %v", e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// ModelLoadError is returned for corrupt or version-mismatched model files
type ModelLoadError struct {
	// Source is the path (or name) of the model data
	Source string

	Err error
}

func (e *ModelLoadError) Error() string {
	return fmt.Sprintf("failed to load model from %s: %v", e.Source, e.Err)
}

func (e *ModelLoadError) Unwrap() error {
	return e.Err
}
