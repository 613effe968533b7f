// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package csvrow converts between catalog rows and their flat CSV form.
//
// One row is one book plus the slash-delimited path of the category it is
// filed in:
//
//	Title,Author,ISBN,Publication Year,Category
//	"Gödel, Escher, Bach",Douglas Hofstadter,978-0465026562,1979,Science/Mathematics
//
// Parsing is lenient in the way hand-edited spreadsheets need: every field is
// trimmed of spaces and tabs, a quote may open anywhere in a field, and ""
// inside quotes is a literal quote. Writing always produces RFC 4180 output.
package csvrow

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Header is the first line of every exported file.
const Header = "Title,Author,ISBN,Publication Year,Category"

// headerPrefix identifies a header line on import.
const headerPrefix = "Title,"

// NumFields is the number of fields in a row.
const NumFields = 5

var (
	ErrFieldCount    = errors.New("row must have exactly 5 fields")
	ErrMalformedYear = errors.New("publication year must be an integer")
	ErrEmptyCategory = errors.New("category path is empty")
)

// RowError reports a rejected input line.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// Row is one book and its category path.
type Row struct {
	Title    string
	Author   string
	ISBN     string
	Year     int
	Category string
}

// Fields returns the row in column order.
func (r Row) Fields() []string {
	return []string{r.Title, r.Author, r.ISBN, strconv.Itoa(r.Year), r.Category}
}

// Trim strips spaces and tabs from both ends of s.
func Trim(s string) string {
	return strings.Trim(s, " \t")
}

// NormalizePath trims every segment and drops empty ones, so
// " A // B /" becomes "A/B". The result is "" for paths with no content.
func NormalizePath(p string) string {
	var sb strings.Builder
	for _, seg := range strings.Split(p, "/") {
		seg = Trim(seg)
		if seg == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('/')
		}
		sb.WriteString(seg)
	}
	return sb.String()
}

// ParseYear parses a trimmed decimal year with an optional leading '-'.
// A '+' sign, inner spaces, and an empty string are rejected.
func ParseYear(s string) (int, error) {
	t := Trim(s)
	digits := strings.TrimPrefix(t, "-")
	if digits == "" {
		return 0, fmt.Errorf("%w: %q", ErrMalformedYear, s)
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return 0, fmt.Errorf("%w: %q", ErrMalformedYear, s)
		}
	}
	year, err := strconv.Atoi(t)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedYear, s)
	}
	return year, nil
}

// SplitFields splits one line into trimmed fields.
//
// A quote outside a quoted region opens one; inside, "" is a literal quote
// and a single quote closes it. Commas inside quotes are literal. An
// unterminated quote runs to the end of the line.
func SplitFields(line string) []string {
	var (
		fields   []string
		cur      strings.Builder
		inQuotes bool
	)
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case inQuotes && c == '"':
			if i+1 < len(line) && line[i+1] == '"' {
				cur.WriteByte('"')
				i++
			} else {
				inQuotes = false
			}
		case inQuotes:
			cur.WriteByte(c)
		case c == ',':
			fields = append(fields, Trim(cur.String()))
			cur.Reset()
		case c == '"':
			inQuotes = true
		default:
			cur.WriteByte(c)
		}
	}
	return append(fields, Trim(cur.String()))
}

// ParseLine parses one data line into a Row.
//
// # Outputs
//
//   - Row: the parsed row with Category normalized
//   - error: ErrFieldCount, ErrMalformedYear, or ErrEmptyCategory
func ParseLine(line string) (Row, error) {
	f := SplitFields(line)
	if len(f) != NumFields {
		return Row{}, fmt.Errorf("%w: got %d", ErrFieldCount, len(f))
	}
	year, err := ParseYear(f[3])
	if err != nil {
		return Row{}, err
	}
	cat := NormalizePath(f[4])
	if cat == "" {
		return Row{}, ErrEmptyCategory
	}
	return Row{Title: f[0], Author: f[1], ISBN: f[2], Year: year, Category: cat}, nil
}

// IsHeader reports whether line looks like the header row.
func IsHeader(line string) bool {
	return strings.HasPrefix(line, headerPrefix)
}
