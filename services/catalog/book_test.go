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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b *Book
		want bool
	}{
		{"same isbn differing fields", NewBook("X", "Y", "123", 1), NewBook("Z", "W", "123", 2), true},
		{"different isbn same fields", NewBook("X", "Y", "123", 1), NewBook("X", "Y", "456", 1), false},
		{"one isbn empty, fields match", NewBook("X", "Y", "", 1), NewBook("X", "Y", "456", 1), true},
		{"both empty, year differs", NewBook("X", "Y", "", 1), NewBook("X", "Y", "", 2), false},
		{"both nil", nil, nil, true},
		{"one nil", NewBook("X", "", "", 0), nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Equal(tt.b))
		})
	}
}

func TestBookValidate(t *testing.T) {
	require.NoError(t, NewBook("T", "", "", -300).Validate())

	err := NewBook("", "A", "", 0).Validate()
	assert.ErrorIs(t, err, ErrInvalidRecord)

	err = NewBook("T", "A", strings.Repeat("9", 33), 0).Validate()
	assert.ErrorIs(t, err, ErrInvalidRecord)

	var nilBook *Book
	assert.ErrorIs(t, nilBook.Validate(), ErrInvalidRecord)
}

func TestBookValidate_RejectsLineBreaks(t *testing.T) {
	tests := []struct {
		name string
		book *Book
	}{
		{"title LF", NewBook("Line one\nLine two", "A", "", 0)},
		{"title CR", NewBook("Line one\rLine two", "A", "", 0)},
		{"author", NewBook("T", "First\r\nSecond", "", 0)},
		{"isbn", NewBook("T", "A", "978\n0", 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.book.Validate(), ErrInvalidRecord)
		})
	}

	require.NoError(t, NewBook(`Quotes "and", commas`, "Tab\tSeparated", "", 0).Validate())
}

func TestBookClone(t *testing.T) {
	b := NewBook("T", "A", "1", 2)
	c := b.Clone()
	c.Title = "changed"
	assert.Equal(t, "T", b.Title)
	assert.True(t, b.Equal(c))
}
