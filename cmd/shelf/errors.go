// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"errors"
	"strings"

	"github.com/AleutianAI/AleutianShelf/cmd/shelf/config"
	"github.com/AleutianAI/AleutianShelf/services/catalog"
	"github.com/AleutianAI/AleutianShelf/services/catalog/library"
)

// Exit codes for shelf commands.
const (
	ExitSuccess = 0 // Command completed
	ExitError   = 1 // Operation failed (not found, storage error, ...)
	ExitBadArgs = 2 // Invalid arguments or input
)

var (
	ErrNothingToEdit = errors.New("no fields to change: pass at least one of --title, --author, --isbn, --year")
	ErrCancelled     = errors.New("cancelled")
)

// usageError marks argument and flag errors.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }

func (e *usageError) Unwrap() error { return e.err }

func badArgs(err error) error {
	if err == nil {
		return nil
	}
	return &usageError{err: err}
}

// exitCode maps a command error to a process exit code.
func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var ue *usageError
	switch {
	case errors.As(err, &ue),
		errors.Is(err, ErrNothingToEdit),
		errors.Is(err, config.ErrInvalidConfig),
		errors.Is(err, library.ErrEmptyKeyword),
		errors.Is(err, library.ErrInvalidPath),
		errors.Is(err, catalog.ErrInvalidRecord),
		errors.Is(err, catalog.ErrInvalidName),
		errors.Is(err, catalog.ErrRootRemoval),
		strings.HasPrefix(err.Error(), "unknown command"),
		strings.HasPrefix(err.Error(), "unknown flag"):
		return ExitBadArgs
	default:
		return ExitError
	}
}
