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
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
)

// ErrNoInput is returned when the input stream ends before an answer.
var ErrNoInput = errors.New("no input")

// ErrAborted is returned when the user cancels an interactive form.
var ErrAborted = errors.New("prompt aborted")

// Prompter asks the user questions.
//
// # Description
//
// Two implementations exist: LinePrompter reads answers line by line and
// works with pipes and tests; FormPrompter renders huh forms on a terminal.
// Callers pick one with NewPrompter.
type Prompter interface {
	// Ask returns the trimmed answer, or def when the answer is empty.
	Ask(ctx context.Context, label, def string) (string, error)

	// Confirm returns true for y/yes, false for n/no, def for an empty answer.
	Confirm(ctx context.Context, question string, def bool) (bool, error)

	// Choose returns the index of the selected option.
	Choose(ctx context.Context, title string, options []string) (int, error)
}

// NewPrompter returns a FormPrompter when interactive is true, otherwise a
// LinePrompter over in and out.
func NewPrompter(in io.Reader, out io.Writer, interactive bool) Prompter {
	if interactive {
		return &FormPrompter{In: in, Out: out}
	}
	return NewLinePrompter(in, out)
}

// =============================================================================
// LinePrompter
// =============================================================================

// LinePrompter prompts on out and reads one line per answer from in.
type LinePrompter struct {
	r   *bufio.Reader
	out io.Writer
}

// NewLinePrompter wraps in and out.
func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{r: bufio.NewReader(in), out: out}
}

func (p *LinePrompter) readLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	line, err := p.r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			return "", ErrNoInput
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Ask implements Prompter.
func (p *LinePrompter) Ask(ctx context.Context, label, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(p.out, "%s: ", label)
	}
	answer, err := p.readLine(ctx)
	if err != nil {
		return "", err
	}
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

// Confirm implements Prompter. Unrecognized answers are asked again.
func (p *LinePrompter) Confirm(ctx context.Context, question string, def bool) (bool, error) {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}
	for {
		fmt.Fprintf(p.out, "%s [%s]: ", question, hint)
		answer, err := p.readLine(ctx)
		if err != nil {
			return false, err
		}
		switch strings.ToLower(answer) {
		case "":
			return def, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		fmt.Fprintln(p.out, "Please answer y or n.")
	}
}

// Choose implements Prompter. Options are numbered from 1.
func (p *LinePrompter) Choose(ctx context.Context, title string, options []string) (int, error) {
	if len(options) == 0 {
		return 0, ErrNoInput
	}
	fmt.Fprintln(p.out, title)
	for i, opt := range options {
		fmt.Fprintf(p.out, "  %d. %s\n", i+1, opt)
	}
	for {
		fmt.Fprintf(p.out, "Select [1-%d]: ", len(options))
		answer, err := p.readLine(ctx)
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(answer)
		if err == nil && n >= 1 && n <= len(options) {
			return n - 1, nil
		}
		fmt.Fprintf(p.out, "Enter a number between 1 and %d.\n", len(options))
	}
}

// =============================================================================
// FormPrompter
// =============================================================================

// FormPrompter renders each question as a single-field huh form.
type FormPrompter struct {
	In  io.Reader
	Out io.Writer

	// Accessible switches huh to its screen-reader friendly mode.
	Accessible bool
}

func (p *FormPrompter) run(ctx context.Context, field huh.Field) error {
	form := huh.NewForm(huh.NewGroup(field)).
		WithAccessible(p.Accessible).
		WithShowHelp(false)
	if p.In != nil {
		form = form.WithInput(p.In)
	}
	if p.Out != nil {
		form = form.WithOutput(p.Out)
	}
	err := form.RunWithContext(ctx)
	if errors.Is(err, huh.ErrUserAborted) {
		return ErrAborted
	}
	return err
}

// Ask implements Prompter.
func (p *FormPrompter) Ask(ctx context.Context, label, def string) (string, error) {
	var answer string
	input := huh.NewInput().Title(label).Placeholder(def).Value(&answer)
	if err := p.run(ctx, input); err != nil {
		return "", err
	}
	if answer = strings.TrimSpace(answer); answer == "" {
		return def, nil
	}
	return answer, nil
}

// Confirm implements Prompter.
func (p *FormPrompter) Confirm(ctx context.Context, question string, def bool) (bool, error) {
	answer := def
	confirm := huh.NewConfirm().Title(question).Affirmative("Yes").Negative("No").Value(&answer)
	if err := p.run(ctx, confirm); err != nil {
		return false, err
	}
	return answer, nil
}

// Choose implements Prompter.
func (p *FormPrompter) Choose(ctx context.Context, title string, options []string) (int, error) {
	if len(options) == 0 {
		return 0, ErrNoInput
	}
	opts := make([]huh.Option[int], len(options))
	for i, label := range options {
		opts[i] = huh.NewOption(label, i)
	}
	var choice int
	sel := huh.NewSelect[int]().Title(title).Options(opts...).Value(&choice)
	if err := p.run(ctx, sel); err != nil {
		return 0, err
	}
	return choice, nil
}
