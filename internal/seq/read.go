package seq

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/klauspost/pgzip"
	"github.com/ulikunitz/xz"
)

// ReadFile reads every record in a FASTA or GenBank file. An empty path or "-"
// reads stdin. gzip, bzip2 and xz input is decompressed transparently
func ReadFile(path string) ([]*Sequence, error) {
	var in io.Reader = os.Stdin
	if path != "" && path != "-" {
		if !filepath.IsAbs(path) {
			abs, err := filepath.Abs(path)
			if err != nil {
				return nil, fmt.Errorf("failed to create path to input file: %w", err)
			}
			path = abs
		}

		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read input file: %w", err)
		}
		defer f.Close()
		in = f
	}

	r, closer, err := decompress(in)
	if err != nil {
		return nil, err
	}
	if closer != nil {
		defer closer.Close()
	}

	return Read(r)
}

// decompress sniffs the magic bytes of the stream and wraps it in a decompressor
func decompress(in io.Reader) (io.Reader, io.Closer, error) {
	brd := bufio.NewReader(in)
	magic, _ := brd.Peek(6)

	switch {
	case bytes.HasPrefix(magic, []byte{0x1F, 0x8B}):
		// using parallel pgzip for better performance on large files
		zpr, err := pgzip.NewReader(brd)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create gzip decompressor: %w", err)
		}
		return zpr, zpr, nil
	case bytes.HasPrefix(magic, []byte("BZh")):
		return bzip2.NewReader(brd), nil, nil
	case bytes.HasPrefix(magic, []byte{0xFD, '7', 'z', 'X', 'Z', 0x00}):
		xzr, err := xz.NewReader(brd)
		if err != nil {
			return nil, nil, &InputError{Reason: fmt.Sprintf("failed to read xz header: %v", err)}
		}
		return xzr, nil, nil
	}
	return brd, nil, nil
}

// Read parses multi-record FASTA or GenBank from r
func Read(r io.Reader) ([]*Sequence, error) {
	dat, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	contents := strings.TrimLeft(string(dat), " \t\r\n")
	switch {
	case contents == "":
		return nil, &InputError{Reason: "no records in input"}
	case strings.HasPrefix(contents, ">"):
		return readFasta(contents)
	case strings.HasPrefix(contents, "LOCUS"):
		return readGenbank(contents)
	}
	return nil, &InputError{Reason: "unrecognized format, expected FASTA or GenBank"}
}

// readFasta parses the multifasta file to sequences
func readFasta(contents string) (records []*Sequence, err error) {
	// split by newlines
	lines := strings.Split(contents, "\n")

	var header string
	var body strings.Builder
	flush := func() error {
		id, desc := splitHeader(header)
		s, err := New(id, desc, []byte(body.String()))
		if err != nil {
			return err
		}
		records = append(records, s)
		body.Reset()
		return nil
	}

	for i, line := range lines {
		line = strings.TrimRight(line, "\r")
		if strings.HasPrefix(line, ">") {
			if i > 0 {
				if err = flush(); err != nil {
					return nil, err
				}
			}
			header = line[1:]
			continue
		}
		body.WriteString(line)
	}
	if err = flush(); err != nil {
		return nil, err
	}

	return records, nil
}

// splitHeader separates the ID (first word) from the description of a FASTA header
func splitHeader(header string) (id, desc string) {
	header = strings.TrimSpace(header)
	fields := strings.SplitN(header, " ", 2)
	id = fields[0]
	if len(fields) > 1 {
		desc = strings.TrimSpace(fields[1])
	}
	return
}

var (
	locusRegex  = regexp.MustCompile(`LOCUS[ \t]*([^ \t\n]*)`)
	defRegex    = regexp.MustCompile(`DEFINITION[ \t]*([^\n]*)`)
	originRegex = regexp.MustCompile(`[\d\s/]`)
)

// readGenbank parses each LOCUS ... ORIGIN ... // entry of a GenBank file
func readGenbank(contents string) (records []*Sequence, err error) {
	for _, entry := range strings.Split(contents, "\n//") {
		if strings.TrimSpace(entry) == "" {
			continue
		}

		genbankSplit := strings.Split(entry, "ORIGIN")
		if len(genbankSplit) != 2 {
			return nil, &InputError{Reason: "improperly formatted genbank entry, expected one ORIGIN"}
		}

		locus := locusRegex.FindStringSubmatch(genbankSplit[0])
		if len(locus) < 2 || locus[1] == "" {
			return nil, &InputError{Reason: "failed to parse LOCUS name"}
		}

		desc := ""
		if def := defRegex.FindStringSubmatch(genbankSplit[0]); len(def) > 1 {
			desc = strings.TrimSpace(def[1])
		}

		cleaned := originRegex.ReplaceAllString(genbankSplit[1], "")
		s, err := New(locus[1], desc, []byte(cleaned))
		if err != nil {
			return nil, err
		}
		records = append(records, s)
	}

	if len(records) < 1 {
		return nil, &InputError{Reason: "no records in genbank input"}
	}
	return records, nil
}
