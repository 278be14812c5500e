package indexer

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/ajitpratap0/edgar-entities/internal/models"
)

var (
	// ErrNoDataMarker is returned when a source has no dashed line separating
	// the header from the data rows.
	ErrNoDataMarker = errors.New("no data start marker")

	// ErrMalformedLine is returned by ParseLine for a row that does not have
	// the five index columns.
	ErrMalformedLine = errors.New("malformed index line")
)

// dataMarker prefixes the line that ends the index header.
const dataMarker = "----"

var (
	// Columns are separated by runs of two or more spaces. Form types may
	// contain single spaces ("SC 13D") but never a run; names may contain
	// anything, so the name column is matched greedily.
	lineRe = regexp.MustCompile(`^(.+)\s{2,}(\S+(?: \S+)*)\s{2,}(\d{1,10})\s+(\d{4}-?\d{2}-?\d{2})\s+(\S+)\s*$`)

	accessionRe = regexp.MustCompile(`\d{10}-\d{2}-\d{6}`)
)

// ParseLine parses one data row of a company index into a sighting.
func ParseLine(line string) (models.Sighting, error) {
	m := lineRe.FindStringSubmatch(strings.TrimRight(line, "\r"))
	if m == nil {
		return models.Sighting{}, fmt.Errorf("%w: %q", ErrMalformedLine, line)
	}
	return models.Sighting{
		Identifier: m[3],
		Name:       strings.TrimSpace(m[1]),
		FormType:   strings.TrimSpace(m[2]),
		Filed:      normalizeDate(m[4]),
		Accession:  ExtractAccession(m[5]),
	}, nil
}

// ExtractAccession returns the accession number embedded in an archive file
// name, or "" if there is none.
func ExtractAccession(fileName string) string {
	return accessionRe.FindString(fileName)
}

// normalizeDate turns 20240102 into 2024-01-02 and leaves dashed dates alone.
func normalizeDate(s string) string {
	if len(s) == 8 {
		return s[:4] + "-" + s[4:6] + "-" + s[6:]
	}
	return s
}

// ParseResult is the outcome of parsing one index source.
type ParseResult struct {
	Sightings []models.Sighting
	Lines     int
	Malformed int
}

// Parse reads an index file and returns the sightings below the data marker.
// Blank rows are ignored and malformed rows are counted and skipped. A source
// without a marker yields ErrNoDataMarker and no sightings.
func Parse(r io.Reader) (ParseResult, error) {
	var res ParseResult

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	inData := false
	for scanner.Scan() {
		line := scanner.Text()
		if !inData {
			if strings.HasPrefix(line, dataMarker) {
				inData = true
			}
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		res.Lines++
		sg, err := ParseLine(line)
		if err != nil {
			res.Malformed++
			continue
		}
		res.Sightings = append(res.Sightings, sg)
	}
	if err := scanner.Err(); err != nil {
		return ParseResult{}, fmt.Errorf("scanning index: %w", err)
	}
	if !inData {
		return ParseResult{}, ErrNoDataMarker
	}
	return res, nil
}
