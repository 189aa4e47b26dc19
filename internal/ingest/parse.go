package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/rollcall-admin/rollcall/internal/apperr"
)

const (
	extension = ".csv"
	utf8BOM   = "\ufeff"
)

// ErrConsumed is returned when Rows is iterated a second time.
var ErrConsumed = errors.New("csv rows already consumed")

// Row maps header columns to the raw cell values of one data line.
type Row map[string]string

// Reader streams the rows of a CSV file whose header was already checked.
type Reader struct {
	kind     Kind
	file     io.Closer
	csv      *csv.Reader
	header   []string
	consumed bool
	closed   bool
}

// Open checks the extension and the header of the file at path. No data row is read.
func Open(path string, kind Kind) (*Reader, error) {
	if !strings.EqualFold(filepath.Ext(path), extension) {
		return nil, apperr.ErrUnsupportedFormat
	}

	expected, ok := columns[kind]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownKind, kind)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}

	return newReader(f, kind, expected)
}

// NewReader checks the header of r. The caller keeps ownership of r.
func NewReader(r io.Reader, kind Kind) (*Reader, error) {
	expected, ok := columns[kind]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownKind, kind)
	}

	return newReader(io.NopCloser(r), kind, expected)
}

func newReader(rc io.ReadCloser, kind Kind, expected []string) (*Reader, error) {
	cr := csv.NewReader(rc)
	// row shape is checked against the header below
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		_ = rc.Close()

		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty file, expected header %s", apperr.ErrSchemaMismatch, strings.Join(expected, ","))
		}

		return nil, fmt.Errorf("%w: %v", apperr.ErrSchemaMismatch, err) //nolint: errorlint
	}

	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	if !slices.Equal(header, expected) {
		_ = rc.Close()

		return nil, fmt.Errorf("%w: expected header %s but got %s",
			apperr.ErrSchemaMismatch, strings.Join(expected, ","), strings.Join(header, ","))
	}

	return &Reader{
		kind:   kind,
		file:   rc,
		csv:    cr,
		header: header,
	}, nil
}

// Header returns the checked header.
func (r *Reader) Header() []string {
	return slices.Clone(r.header)
}

// Rows yields the data rows lazily. The sequence can be iterated once; the file is
// closed when iteration ends, including on an early break. A malformed or short row
// yields an ErrRowShape error and ends the sequence.
func (r *Reader) Rows() iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		if r.consumed {
			yield(nil, ErrConsumed)
			return
		}

		r.consumed = true
		defer r.Close()

		for {
			record, err := r.csv.Read()
			if errors.Is(err, io.EOF) {
				return
			}

			if err != nil {
				yield(nil, fmt.Errorf("%w: %v", apperr.ErrRowShape, err)) //nolint: errorlint
				return
			}

			if len(record) != len(r.header) {
				line, _ := r.csv.FieldPos(0)

				yield(nil, fmt.Errorf("%w: line %d has %d fields, expected %d",
					apperr.ErrRowShape, line, len(record), len(r.header)))

				return
			}

			row := make(Row, len(record))
			for i, col := range r.header {
				row[col] = strings.TrimSpace(record[i])
			}

			if !yield(row, nil) {
				return
			}
		}
	}
}

// Close releases the file. It is safe to call more than once.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}

	r.closed = true

	if err := r.file.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close csv file")
		return err
	}

	return nil
}

// Parse opens the file and collects every row.
func Parse(path string, kind Kind) ([]Row, error) {
	r, err := Open(path, kind)
	if err != nil {
		return nil, err
	}

	var rows []Row

	for row, err := range r.Rows() {
		if err != nil {
			return nil, err
		}

		rows = append(rows, row)
	}

	return rows, nil
}
