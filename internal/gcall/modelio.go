package gcall

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/jjtimmons/gcall/internal/gencode"
	"github.com/klauspost/pgzip"
)

// ModelVersion is the version of the model file format. Files of any other version are rejected
const ModelVersion = 1

const modelFormat = "gcall-model"

// modelFile is the on-disk envelope of one or more models
type modelFile struct {
	Format  string    `json:"format"`
	Version int       `json:"version"`
	Models  []*Bundle `json:"models"`
}

// WriteModels writes models to path as JSON, gzipped if the path ends in .gz
func WriteModels(path string, models ...*Bundle) error {
	out, err := Create(path)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	if err := enc.Encode(modelFile{Format: modelFormat, Version: ModelVersion, Models: models}); err != nil {
		out.Close()
		return fmt.Errorf("failed to write models to %s: %w", path, err)
	}
	return out.Close()
}

// ReadModels reads the models of a file written by WriteModels
func ReadModels(path string) ([]*Bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ModelLoadError{Source: path, Err: err}
	}
	defer f.Close()

	return decodeModels(path, f)
}

// ReadModel reads a file holding exactly one model
func ReadModel(path string) (*Bundle, error) {
	models, err := ReadModels(path)
	if err != nil {
		return nil, err
	}
	if len(models) != 1 {
		return nil, &ModelLoadError{Source: path, Err: fmt.Errorf("expected one model, found %d", len(models))}
	}
	return models[0], nil
}

func decodeModels(source string, r io.Reader) ([]*Bundle, error) {
	br := bufio.NewReader(r)
	if magic, _ := br.Peek(2); bytes.Equal(magic, []byte{0x1f, 0x8b}) {
		zr, err := pgzip.NewReader(br)
		if err != nil {
			return nil, &ModelLoadError{Source: source, Err: err}
		}
		defer zr.Close()
		r = zr
	} else {
		r = br
	}

	var mf modelFile
	if err := json.NewDecoder(r).Decode(&mf); err != nil {
		return nil, &ModelLoadError{Source: source, Err: err}
	}
	if mf.Format != modelFormat {
		return nil, &ModelLoadError{Source: source, Err: fmt.Errorf("not a model file (format %q)", mf.Format)}
	}
	if mf.Version != ModelVersion {
		return nil, &ModelLoadError{Source: source, Err: fmt.Errorf("model version %d, want %d", mf.Version, ModelVersion)}
	}

	for _, b := range mf.Models {
		if err := b.validate(); err != nil {
			var confErr *ConfigurationError
			if errors.As(err, &confErr) {
				return nil, err
			}
			return nil, &ModelLoadError{Source: source, Err: err}
		}
	}
	return mf.Models, nil
}

// validate checks a decoded model for unknown codes and malformed tables
func (b *Bundle) validate() error {
	if b == nil {
		return fmt.Errorf("null model")
	}
	if _, err := gencode.New(b.Info.Code); err != nil {
		return &ConfigurationError{Err: fmt.Errorf("model %s: %w", b.Info.ID, err)}
	}
	if len(b.RBS) != len(motifs) {
		return fmt.Errorf("model %s: %d RBS weights, want %d", b.Info.ID, len(b.RBS), len(motifs))
	}
	if b.BinWidth <= 0 || b.BinWidth >= 0.5 {
		return fmt.Errorf("model %s: GC bin width %f out of range", b.Info.ID, b.BinWidth)
	}

	finite := func(xs ...float64) bool {
		for _, x := range xs {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return false
			}
		}
		return true
	}
	for k := range b.Coding {
		if !finite(b.Coding[k][:]...) || !finite(b.Marginal[k][:]...) {
			return fmt.Errorf("model %s: non-finite coding weights", b.Info.ID)
		}
	}
	for k := range b.Upstream {
		if !finite(b.Upstream[k][:]...) {
			return fmt.Errorf("model %s: non-finite upstream weights", b.Info.ID)
		}
	}
	if !finite(b.StartType[:]...) || !finite(b.RBS...) || !finite(b.Readthrough, b.Info.GC) {
		return fmt.Errorf("model %s: non-finite start weights", b.Info.ID)
	}
	return nil
}

// Create opens path for writing, through a parallel gzip writer if it ends in .gz.
// "" and "-" write to stdout
func Create(path string) (io.WriteCloser, error) {
	var w io.WriteCloser = nopCloser{os.Stdout}
	if path != "" && path != "-" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create output dir %s: %w", dir, err)
			}
		}
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create output file %s: %w", path, err)
		}
		w = f
	}

	if strings.HasSuffix(path, ".gz") {
		return &gzipFile{Writer: pgzip.NewWriter(w), file: w}, nil
	}
	return w, nil
}

// gzipFile closes the gzip stream and then the file under it
type gzipFile struct {
	*pgzip.Writer
	file io.Closer
}

func (g *gzipFile) Close() error {
	if err := g.Writer.Close(); err != nil {
		g.file.Close()
		return err
	}
	return g.file.Close()
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
