// Package stream reads labelled record streams and evaluates a learner on
// them prequentially: every record is predicted before it is learned.
package stream

import (
	"encoding/csv"
	"io"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/hyperengineering/canc"
)

// ErrNoClassColumn is returned when the configured class column is not in
// the header.
var ErrNoClassColumn = errors.New("class column not found")

// CSVReader yields records from a CSV stream whose first row is the header.
type CSVReader struct {
	r      *csv.Reader
	names  []string
	class  int
	line   int
	labels bool
}

// CSVOptions configures a CSVReader.
type CSVOptions struct {
	// ClassColumn names the label column. Defaults to the last column.
	ClassColumn string

	// Unlabelled reads every column as an attribute. Records carry no label.
	Unlabelled bool

	// Comma is the field delimiter. Defaults to ','.
	Comma rune
}

// NewCSVReader reads the header from r and returns a reader positioned at
// the first record.
func NewCSVReader(r io.Reader, opts CSVOptions) (*CSVReader, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true
	if opts.Comma != 0 {
		cr.Comma = opts.Comma
	}

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.New("stream: empty input")
	}
	if err != nil {
		return nil, errors.Wrap(err, "stream: read header")
	}
	names := make([]string, len(header))
	for i, h := range header {
		names[i] = strings.TrimSpace(h)
	}

	s := &CSVReader{r: cr, names: names, class: -1, line: 1, labels: !opts.Unlabelled}
	if s.labels {
		s.class = len(names) - 1
		if opts.ClassColumn != "" {
			s.class = slices.Index(names, opts.ClassColumn)
			if s.class < 0 {
				return nil, errors.Wrapf(ErrNoClassColumn, "%q", opts.ClassColumn)
			}
		}
	}
	if len(names) < 2 && s.labels {
		return nil, errors.New("stream: need at least one attribute and a class column")
	}
	return s, nil
}

// Attributes returns the attribute column names in schema order.
func (s *CSVReader) Attributes() []string {
	out := make([]string, 0, len(s.names))
	for i, n := range s.names {
		if i != s.class {
			out = append(out, n)
		}
	}
	return out
}

// Next returns the next record, or io.EOF at the end of the stream.
// Empty fields become missing values.
func (s *CSVReader) Next() (canc.Record, error) {
	row, err := s.r.Read()
	if err == io.EOF {
		return canc.Record{}, io.EOF
	}
	s.line++
	if err != nil {
		return canc.Record{}, errors.Wrapf(err, "stream: line %d", s.line)
	}

	rec := canc.Record{Attrs: make([]canc.Pair, 0, len(row))}
	for i, field := range row {
		v := strings.TrimSpace(field)
		if i == s.class {
			rec.Label = v
			continue
		}
		if v == "" {
			v = canc.MissingValue
		}
		rec.Attrs = append(rec.Attrs, canc.Pair{Attribute: s.names[i], Value: v})
	}
	return rec, nil
}

// Line returns the input line of the last record read.
func (s *CSVReader) Line() int {
	return s.line
}
