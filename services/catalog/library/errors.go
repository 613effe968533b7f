// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package library

import "errors"

var (
	// ErrFileNotAccessible is returned when an import or export file
	// cannot be opened.
	ErrFileNotAccessible = errors.New("file not accessible")

	ErrEmptyKeyword     = errors.New("search keyword is empty")
	ErrInvalidPath      = errors.New("category path is empty after normalization")
	ErrDuplicateBook    = errors.New("an equal book already exists in the library")
	ErrBookNotFound     = errors.New("book not found")
	ErrCategoryNotFound = errors.New("category not found")
)
