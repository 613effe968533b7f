// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ux

import (
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
)

// PersonalityLevel selects how much styling the Printer applies.
type PersonalityLevel string

const (
	// PersonalityFull styles every message.
	PersonalityFull PersonalityLevel = "full"

	// PersonalityStandard is full without decorative extras.
	PersonalityStandard PersonalityLevel = "standard"

	// PersonalityMinimal keeps icons and drops colors from message text.
	PersonalityMinimal PersonalityLevel = "minimal"

	// PersonalityMachine prints unstyled, prefixed lines for scripts.
	// Warnings and errors go to stderr so stdout holds only results.
	PersonalityMachine PersonalityLevel = "machine"
)

// PersonalityEnv overrides the configured personality when set.
const PersonalityEnv = "SHELF_PERSONALITY"

// Where a personality level came from.
const (
	SourceDefault  = "default"
	SourceEnv      = "env"
	SourceConfig   = "config"
	SourceDetected = "detected"
)

// Personality is the process-wide output setting.
type Personality struct {
	Level PersonalityLevel

	// Source records which input chose Level.
	Source string
}

var (
	personalityMu sync.RWMutex
	personality   = DefaultPersonality()
)

// DefaultPersonality is full styling, used until InitPersonality runs.
func DefaultPersonality() Personality {
	return Personality{Level: PersonalityFull, Source: SourceDefault}
}

// GetPersonality returns the current setting.
func GetPersonality() Personality {
	personalityMu.RLock()
	defer personalityMu.RUnlock()
	return personality
}

// SetPersonality replaces the current setting.
func SetPersonality(p Personality) {
	personalityMu.Lock()
	defer personalityMu.Unlock()
	personality = p
}

// ParsePersonalityLevel maps a name or its short form to a level.
// Unknown names map to PersonalityStandard.
func ParsePersonalityLevel(s string) PersonalityLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "full", "f":
		return PersonalityFull
	case "minimal", "min", "m":
		return PersonalityMinimal
	case "machine", "quiet", "q":
		return PersonalityMachine
	default:
		return PersonalityStandard
	}
}

// InitPersonality chooses the level and stores it as the current setting.
//
// # Description
//
// SHELF_PERSONALITY wins over configured. configured comes from the
// --personality flag or the config file; "" and "auto" mean detect, which
// picks machine when stdout is not a terminal and full otherwise.
func InitPersonality(configured string) Personality {
	var p Personality
	switch env := os.Getenv(PersonalityEnv); {
	case env != "":
		p = Personality{Level: ParsePersonalityLevel(env), Source: SourceEnv}
	case configured != "" && !strings.EqualFold(configured, "auto"):
		p = Personality{Level: ParsePersonalityLevel(configured), Source: SourceConfig}
	case IsTerminal(os.Stdout):
		p = Personality{Level: PersonalityFull, Source: SourceDetected}
	default:
		p = Personality{Level: PersonalityMachine, Source: SourceDetected}
	}
	SetPersonality(p)
	return p
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// IsInteractive reports whether forms can be shown: both stdin and stdout
// are terminals and the level is not machine.
func IsInteractive() bool {
	return GetPersonality().Level != PersonalityMachine && IsTerminal(os.Stdin) && IsTerminal(os.Stdout)
}
