// Package seq is for holding nucleotide records: the forward strand, its
// reverse complement, and composition stats used for scoring
package seq

import (
	"fmt"

	"github.com/bebop/poly/checks"
	"github.com/bebop/poly/transform"
)

// Strand is the strand of the record a coordinate refers to
type Strand int

const (
	// Forward is the strand as it was read
	Forward Strand = 1

	// Reverse is the reverse complement strand
	Reverse Strand = -1
)

// String returns the GFF symbol for the strand
func (s Strand) String() string {
	if s == Reverse {
		return "-"
	}
	return "+"
}

// InputError is returned for empty or malformed nucleotide input
type InputError struct {
	// Record is the ID of the offending record, if known
	Record string

	// Reason describes what was wrong
	Reason string
}

func (e *InputError) Error() string {
	if e.Record == "" {
		return fmt.Sprintf("invalid sequence input: %s", e.Reason)
	}
	return fmt.Sprintf("invalid sequence %s: %s", e.Record, e.Reason)
}

// Interval is a closed, 0-based range on the forward strand
type Interval struct {
	Start int
	End   int
}

// Sequence is an immutable nucleotide record
type Sequence struct {
	// ID is the first word of the record's header
	ID string

	// Desc is the rest of the header
	Desc string

	fwd []byte
	rev []byte

	// gc is the fraction of G+C among unambiguous bases
	gc float64
}

// New cleans raw nucleotides into a Sequence. Bases are uppercased, U is read as T,
// IUPAC ambiguity codes become N and whitespace is dropped
func New(id, desc string, raw []byte) (*Sequence, error) {
	fwd := make([]byte, 0, len(raw))
	for i, b := range raw {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		}

		if b >= 'a' && b <= 'z' {
			b -= 'a' - 'A'
		}

		switch b {
		case 'A', 'C', 'G', 'T', 'N':
		case 'U':
			b = 'T'
		case 'R', 'Y', 'S', 'W', 'K', 'M', 'B', 'D', 'H', 'V', 'X':
			b = 'N'
		default:
			return nil, &InputError{Record: id, Reason: fmt.Sprintf("unexpected character %q at %d", raw[i], i)}
		}
		fwd = append(fwd, b)
	}

	if len(fwd) == 0 {
		return nil, &InputError{Record: id, Reason: "empty sequence"}
	}

	acgt := 0
	for _, b := range fwd {
		if b != 'N' {
			acgt++
		}
	}

	gc := 0.0
	if acgt > 0 {
		gc = checks.GcContent(string(fwd)) * float64(len(fwd)) / float64(acgt)
	}

	return &Sequence{
		ID:   id,
		Desc: desc,
		fwd:  fwd,
		rev:  []byte(transform.ReverseComplement(string(fwd))),
		gc:   gc,
	}, nil
}

// Len returns the number of bases in the record
func (s *Sequence) Len() int {
	return len(s.fwd)
}

// GC returns the fraction of unambiguous bases that are G or C
func (s *Sequence) GC() float64 {
	return s.gc
}

// Strand returns the bases of one strand, 5' to 3'. The slice is shared and must not be mutated
func (s *Sequence) Strand(st Strand) []byte {
	if st == Reverse {
		return s.rev
	}
	return s.fwd
}

// String returns the forward strand
func (s *Sequence) String() string {
	return string(s.fwd)
}

// Forward maps a position on the given strand to its forward strand coordinate
func (s *Sequence) Forward(st Strand, pos int) int {
	if st == Reverse {
		return len(s.fwd) - 1 - pos
	}
	return pos
}

// Sub returns a copy of the forward-strand bases in [start, end] read on strand st.
// For the reverse strand the copy is reverse complemented
func (s *Sequence) Sub(st Strand, start, end int) []byte {
	if st == Reverse {
		n := len(s.fwd)
		return append([]byte(nil), s.rev[n-1-end:n-start]...)
	}
	return append([]byte(nil), s.fwd[start:end+1]...)
}

// MaskRuns returns the forward-strand runs of N that are at least min bases long
func (s *Sequence) MaskRuns(min int) (runs []Interval) {
	if min < 1 {
		min = 1
	}

	start := -1
	for i, b := range s.fwd {
		if b == 'N' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 && i-start >= min {
			runs = append(runs, Interval{Start: start, End: i - 1})
		}
		start = -1
	}
	if start >= 0 && len(s.fwd)-start >= min {
		runs = append(runs, Interval{Start: start, End: len(s.fwd) - 1})
	}
	return runs
}

// Join concatenates records with a stop-codon rich linker in every frame so that
// no ORF crosses a junction. Used to train on multi-record genomes
func Join(records []*Sequence) (*Sequence, error) {
	const linker = "TTAATTAATTAA"

	var raw []byte
	for i, r := range records {
		if i > 0 {
			raw = append(raw, linker...)
		}
		raw = append(raw, r.fwd...)
	}

	id := "joined"
	if len(records) == 1 {
		id = records[0].ID
	}
	return New(id, "", raw)
}
