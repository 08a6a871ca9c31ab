// Package gencode holds the NCBI genetic code tables used to find
// start and stop codons and to translate called genes.
package gencode

import (
	"fmt"
	"sort"
)

// Base
//    1  TTTTTTTTTTTTTTTTCCCCCCCCCCCCCCCCAAAAAAAAAAAAAAAAGGGGGGGGGGGGGGGG
//    2  TTTTCCCCAAAAGGGGTTTTCCCCAAAAGGGGTTTTCCCCAAAAGGGGTTTTCCCCAAAAGGGG
//    3  TCAGTCAGTCAGTCAGTCAGTCAGTCAGTCAGTCAGTCAGTCAGTCAGTCAGTCAGTCAGTCAG

var ncbieaa = map[int]string{
	1:  "FFLLSSSSYY**CC*WLLLLPPPPHHQQRRRRIIIMTTTTNNKKSSRRVVVVAAAADDEEGGGG",
	2:  "FFLLSSSSYY**CCWWLLLLPPPPHHQQRRRRIIMMTTTTNNKKSS**VVVVAAAADDEEGGGG",
	3:  "FFLLSSSSYY**CCWWTTTTPPPPHHQQRRRRIIMMTTTTNNKKSSRRVVVVAAAADDEEGGGG",
	4:  "FFLLSSSSYY**CCWWLLLLPPPPHHQQRRRRIIIMTTTTNNKKSSRRVVVVAAAADDEEGGGG",
	5:  "FFLLSSSSYY**CCWWLLLLPPPPHHQQRRRRIIMMTTTTNNKKSSSSVVVVAAAADDEEGGGG",
	6:  "FFLLSSSSYYQQCC*WLLLLPPPPHHQQRRRRIIIMTTTTNNKKSSRRVVVVAAAADDEEGGGG",
	9:  "FFLLSSSSYY**CCWWLLLLPPPPHHQQRRRRIIIMTTTTNNNKSSSSVVVVAAAADDEEGGGG",
	10: "FFLLSSSSYY**CCCWLLLLPPPPHHQQRRRRIIIMTTTTNNKKSSRRVVVVAAAADDEEGGGG",
	11: "FFLLSSSSYY**CC*WLLLLPPPPHHQQRRRRIIIMTTTTNNKKSSRRVVVVAAAADDEEGGGG",
	12: "FFLLSSSSYY**CC*WLLLSPPPPHHQQRRRRIIIMTTTTNNKKSSRRVVVVAAAADDEEGGGG",
	13: "FFLLSSSSYY**CCWWLLLLPPPPHHQQRRRRIIMMTTTTNNKKSSGGVVVVAAAADDEEGGGG",
	14: "FFLLSSSSYYY*CCWWLLLLPPPPHHQQRRRRIIIMTTTTNNNKSSSSVVVVAAAADDEEGGGG",
	15: "FFLLSSSSYY*QCC*WLLLLPPPPHHQQRRRRIIIMTTTTNNKKSSRRVVVVAAAADDEEGGGG",
	16: "FFLLSSSSYY*LCC*WLLLLPPPPHHQQRRRRIIIMTTTTNNKKSSRRVVVVAAAADDEEGGGG",
	21: "FFLLSSSSYY**CCWWLLLLPPPPHHQQRRRRIIMMTTTTNNNKSSSSVVVVAAAADDEEGGGG",
	22: "FFLLSS*SYY*LCC*WLLLLPPPPHHQQRRRRIIIMTTTTNNKKSSRRVVVVAAAADDEEGGGG",
	23: "FF*LSSSSYY**CC*WLLLLPPPPHHQQRRRRIIIMTTTTNNKKSSRRVVVVAAAADDEEGGGG",
	24: "FFLLSSSSYY**CCWWLLLLPPPPHHQQRRRRIIIMTTTTNNKKSSSKVVVVAAAADDEEGGGG",
	25: "FFLLSSSSYY**CCGWLLLLPPPPHHQQRRRRIIIMTTTTNNKKSSRRVVVVAAAADDEEGGGG",
	26: "FFLLSSSSYY**CC*WLLLAPPPPHHQQRRRRIIIMTTTTNNKKSSRRVVVVAAAADDEEGGGG",
	27: "FFLLSSSSYYQQCCWWLLLLPPPPHHQQRRRRIIIMTTTTNNKKSSRRVVVVAAAADDEEGGGG",
	28: "FFLLSSSSYYQQCCWWLLLLPPPPHHQQRRRRIIIMTTTTNNKKSSRRVVVVAAAADDEEGGGG",
	29: "FFLLSSSSYYYYCC*WLLLLPPPPHHQQRRRRIIIMTTTTNNKKSSRRVVVVAAAADDEEGGGG",
	30: "FFLLSSSSYYEECC*WLLLLPPPPHHQQRRRRIIIMTTTTNNKKSSRRVVVVAAAADDEEGGGG",
	31: "FFLLSSSSYYEECCWWLLLLPPPPHHQQRRRRIIIMTTTTNNKKSSRRVVVVAAAADDEEGGGG",
	32: "FFLLSSSSYY*WCC*WLLLLPPPPHHQQRRRRIIIMTTTTNNKKSSRRVVVVAAAADDEEGGGG",
	33: "FFLLSSSSYYY*CCWWLLLLPPPPHHQQRRRRIIIMTTTTNNKKSSSKVVVVAAAADDEEGGGG",
}

// Standard is the bacterial, archaeal and plant plastid code
const Standard = 11

// StartKind is the type of a candidate start codon
type StartKind int

const (
	// NotStart is any codon other than the three candidate starts
	NotStart StartKind = iota - 1

	// ATG start codon
	ATG

	// GTG start codon
	GTG

	// TTG start codon
	TTG
)

// String returns the codon of the start kind
func (k StartKind) String() string {
	switch k {
	case ATG:
		return "ATG"
	case GTG:
		return "GTG"
	case TTG:
		return "TTG"
	}
	return "Edge"
}

// UnknownCodeError is returned for a translation table id that has no NCBI table
type UnknownCodeError struct {
	ID int
}

func (e *UnknownCodeError) Error() string {
	return fmt.Sprintf("unknown genetic code %d (supported: %v)", e.ID, Codes())
}

// Table is a single genetic code, stored as an NCBIeaa string in TCAG codon order
type Table struct {
	// ID is the NCBI transl_table number
	ID int

	aa string
}

// New returns the genetic code with the NCBI id
func New(id int) (*Table, error) {
	aa, ok := ncbieaa[id]
	if !ok {
		return nil, &UnknownCodeError{ID: id}
	}
	return &Table{ID: id, aa: aa}, nil
}

// Codes returns the supported NCBI table ids in ascending order
func Codes() []int {
	ids := make([]int, 0, len(ncbieaa))
	for id := range ncbieaa {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// baseIndex maps a nucleotide to its TCAG index, -1 for anything else
func baseIndex(b byte) int {
	switch b {
	case 'T':
		return 0
	case 'C':
		return 1
	case 'A':
		return 2
	case 'G':
		return 3
	}
	return -1
}

// CodonIndex returns the 0-63 TCAG index of the first three bases of c,
// or -1 if the codon is short or holds an ambiguous base
func CodonIndex(c []byte) int {
	if len(c) < 3 {
		return -1
	}
	b1, b2, b3 := baseIndex(c[0]), baseIndex(c[1]), baseIndex(c[2])
	if b1 < 0 || b2 < 0 || b3 < 0 {
		return -1
	}
	return b1*16 + b2*4 + b3
}

// Codon returns the codon for a TCAG index
func Codon(idx int) string {
	const bases = "TCAG"
	return string([]byte{bases[idx/16], bases[(idx/4)%4], bases[idx%4]})
}

// IsStop returns whether the codon at the start of c is a stop in this table
func (t *Table) IsStop(c []byte) bool {
	idx := CodonIndex(c)
	return idx >= 0 && t.aa[idx] == '*'
}

// IsStopIndex is IsStop for a TCAG codon index
func (t *Table) IsStopIndex(idx int) bool {
	return idx >= 0 && t.aa[idx] == '*'
}

// StartKind returns the kind of start codon at the start of c.
//
// ATG, GTG and TTG are candidate starts in every table unless the
// table reads them as stops.
func (t *Table) StartKind(c []byte) StartKind {
	idx := CodonIndex(c)
	if idx < 0 || t.aa[idx] == '*' {
		return NotStart
	}
	switch Codon(idx) {
	case "ATG":
		return ATG
	case "GTG":
		return GTG
	case "TTG":
		return TTG
	}
	return NotStart
}

// Stops returns the stop codons of the table
func (t *Table) Stops() (stops []string) {
	for i := 0; i < 64; i++ {
		if t.aa[i] == '*' {
			stops = append(stops, Codon(i))
		}
	}
	return
}

// Reassigned returns the codon indexes that are stops in the standard code
// but are read as amino acids in this one
func (t *Table) Reassigned() (idxs []int) {
	std := ncbieaa[Standard]
	for i := 0; i < 64; i++ {
		if std[i] == '*' && t.aa[i] != '*' {
			idxs = append(idxs, i)
		}
	}
	return
}

// Translate converts a coding sequence into protein. The first codon is
// read as methionine unless partialStart is set. Ambiguous codons become X
// and stops become '*'.
func (t *Table) Translate(nt []byte, partialStart bool) string {
	prot := make([]byte, 0, len(nt)/3)
	for i := 0; i+3 <= len(nt); i += 3 {
		idx := CodonIndex(nt[i : i+3])
		switch {
		case idx < 0:
			prot = append(prot, 'X')
		case i == 0 && !partialStart && t.StartKind(nt[i:i+3]) != NotStart:
			prot = append(prot, 'M')
		default:
			prot = append(prot, t.aa[idx])
		}
	}
	return string(prot)
}
