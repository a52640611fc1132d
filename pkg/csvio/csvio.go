// Package csvio converts between CSV text and column-keyed rows. The
// first row is always treated as the header; data rows are surfaced as
// maps from column name to cell value.
package csvio

import (
	"bufio"
	"encoding/csv"
	"errors"
	"io"
	"strings"
)

var ErrMissingHeader = errors.New("csvio: missing header row")

// Decode reads CSV from r and calls fn once per data row with a map
// keyed by the header columns. Rows shorter than the header leave the
// missing columns as empty strings; extra cells are dropped. If fn
// returns an error, decoding stops and that error is returned.
func Decode(r io.Reader, fn func(row map[string]string) error) error {
	br := stripBOM(bufio.NewReader(r))

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return ErrMissingHeader
		}
		return err
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	for {
		record, err := cr.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		row := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(record) {
				row[name] = record[i]
			} else {
				row[name] = ""
			}
		}
		if err := fn(row); err != nil {
			return err
		}
	}
}

// Encode writes a header row followed by one row per record. Quoting
// and escaping follow RFC 4180 via encoding/csv.
func Encode(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Excel prefixes exported CSVs with a UTF-8 BOM.
func stripBOM(r *bufio.Reader) *bufio.Reader {
	b, err := r.Peek(3)
	if err == nil && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		_, _ = r.Discard(3)
	}
	return r
}
