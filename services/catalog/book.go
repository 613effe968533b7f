// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package catalog

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// bookValidate checks Book field tags. Initialized once; validator.Validate
// caches struct metadata and is safe for concurrent use.
var bookValidate = newBookValidator()

// newBookValidator registers "singleline", which rejects CR and LF. The
// row codec reads one record per line.
func newBookValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("singleline", func(fl validator.FieldLevel) bool {
		return !strings.ContainsAny(fl.Field().String(), "\r\n")
	}); err != nil {
		panic(fmt.Sprintf("catalog: register singleline validation: %v", err))
	}
	return v
}

// Book is a catalog record.
//
// # Equality
//
// Two books are equal when both carry an ISBN and the ISBNs match. When
// either ISBN is empty, they are equal when title, author and publication
// year all match. The catalog never interprets the fields beyond this rule
// and the title lookup key.
type Book struct {
	// Title is the lookup key for find/remove by title. Required.
	Title string `json:"title" validate:"required,max=512,singleline"`

	// Author may be empty.
	Author string `json:"author" validate:"max=512,singleline"`

	// ISBN is optional; when present on both sides it decides equality alone.
	ISBN string `json:"isbn" validate:"max=32,singleline"`

	// Year is the publication year. Negative values denote BCE.
	Year int `json:"year"`
}

// NewBook returns a Book with the given fields.
func NewBook(title, author, isbn string, year int) *Book {
	return &Book{Title: title, Author: author, ISBN: isbn, Year: year}
}

// Equal reports whether b and other describe the same book.
func (b *Book) Equal(other *Book) bool {
	if b == nil || other == nil {
		return b == other
	}
	if b.ISBN == "" || other.ISBN == "" {
		return b.Title == other.Title && b.Author == other.Author && b.Year == other.Year
	}
	return b.ISBN == other.ISBN
}

// Validate checks the field constraints.
//
// # Outputs
//
//   - error: wraps ErrInvalidRecord and the validator's field errors, or nil
func (b *Book) Validate() error {
	if b == nil {
		return fmt.Errorf("%w: nil book", ErrInvalidRecord)
	}
	if err := bookValidate.Struct(b); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	return nil
}

// Clone returns a copy of b.
func (b *Book) Clone() *Book {
	c := *b
	return &c
}

// String returns a one-line description.
func (b *Book) String() string {
	isbn := b.ISBN
	if isbn == "" {
		isbn = "-"
	}
	return fmt.Sprintf("%q by %s (%d) [ISBN %s]", b.Title, b.Author, b.Year, isbn)
}
