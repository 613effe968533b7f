// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package csvrow

import (
	"bufio"
	"encoding/csv"
	"io"
	"strings"
)

// maxLineBytes bounds a single input line.
const maxLineBytes = 1 << 20

// Reader reads rows from line-oriented CSV input.
//
// A first line starting with "Title," is skipped as a header. Malformed
// lines are reported as *RowError and reading may continue past them.
type Reader struct {
	sc   *bufio.Scanner
	line int
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return &Reader{sc: sc}
}

// Line returns the 1-based number of the last line read.
func (r *Reader) Line() int { return r.line }

// Read returns the next row.
//
// # Outputs
//
//   - Row: the parsed row
//   - error: io.EOF at end of input; *RowError for a malformed line, after
//     which Read may be called again; any other error is fatal
func (r *Reader) Read() (Row, error) {
	for r.sc.Scan() {
		r.line++
		text := strings.TrimSuffix(r.sc.Text(), "\r")
		if r.line == 1 && IsHeader(text) {
			continue
		}
		if Trim(text) == "" {
			continue
		}
		row, err := ParseLine(text)
		if err != nil {
			return Row{}, &RowError{Line: r.line, Err: err}
		}
		return row, nil
	}
	if err := r.sc.Err(); err != nil {
		return Row{}, err
	}
	return Row{}, io.EOF
}

// Writer writes rows as RFC 4180 CSV, quoting fields that contain commas,
// quotes, or line breaks.
type Writer struct {
	cw *csv.Writer
}

// NewWriter returns a Writer over w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{cw: csv.NewWriter(w)}
}

// WriteHeader writes the column header.
func (w *Writer) WriteHeader() error {
	return w.cw.Write(strings.Split(Header, ","))
}

// Write writes one row.
func (w *Writer) Write(r Row) error {
	return w.cw.Write(r.Fields())
}

// Flush flushes buffered output and returns any write error.
func (w *Writer) Flush() error {
	w.cw.Flush()
	return w.cw.Error()
}

// FormatRow returns r as a single CSV line without a trailing newline.
func FormatRow(r Row) string {
	var sb strings.Builder
	cw := csv.NewWriter(&sb)
	_ = cw.Write(r.Fields())
	cw.Flush()
	return strings.TrimSuffix(sb.String(), "\n")
}
