// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package ui provides user interface functionalities.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// UI is a user interface.
type UI interface {
	// PrintLines prints message lines to stdout.
	PrintLines(msgs ...string)
	// Errorf prints a formatted message line to stderr.
	Errorf(format string, args ...any)
}

// Default holds the default UI interface.
// Making changes to this variable after init is undefined behavior,
// except in tests.
var Default UI

func init() {
	if term.IsTerminal(int(os.Stdout.Fd())) {
		Default = &TermUI{out: os.Stdout, errOut: os.Stderr}
	} else {
		Default = &PlainUI{out: os.Stdout, errOut: os.Stderr}
	}
}

// IsTerminal returns whether currently using a terminal UI.
func IsTerminal() bool {
	_, ok := Default.(*TermUI)
	return ok
}

// TermUI is a terminal-based UI. It keeps SGR escape sequences.
type TermUI struct {
	mu          sync.Mutex
	out, errOut io.Writer
}

// NewTermUI returns a terminal UI that writes to out and errOut.
func NewTermUI(out, errOut io.Writer) *TermUI {
	return &TermUI{out: out, errOut: errOut}
}

// PrintLines implements the UI interface.
func (t *TermUI) PrintLines(msgs ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, msg := range msgs {
		fmt.Fprintln(t.out, msg)
	}
}

// Errorf implements the UI interface.
func (t *TermUI) Errorf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.errOut, fmt.Sprintf(format, args...))
}

// PlainUI is a UI for build logs and pipes.
// It strips ANSI escape sequences from messages.
type PlainUI struct {
	mu          sync.Mutex
	out, errOut io.Writer
}

// NewPlainUI returns a plain UI that writes to out and errOut.
func NewPlainUI(out, errOut io.Writer) *PlainUI {
	return &PlainUI{out: out, errOut: errOut}
}

// PrintLines implements the UI interface.
func (p *PlainUI) PrintLines(msgs ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, msg := range msgs {
		fmt.Fprintln(p.out, StripANSIEscapeCodes(msg))
	}
}

// Errorf implements the UI interface.
func (p *PlainUI) Errorf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.errOut, StripANSIEscapeCodes(fmt.Sprintf(format, args...)))
}

// https://en.wikipedia.org/wiki/ANSI_escape_code#SGR_(Select_Graphic_Rendition)_parameters
type SGRCode int

const (
	Bold SGRCode = iota
	Red
	Green
	Yellow
	BackgroundRed
	Reset
)

var sgrEscSeq = map[SGRCode]string{
	Bold:          "\033[1m",
	Red:           "\033[31m",
	Green:         "\033[32m",
	Yellow:        "\033[33m",
	BackgroundRed: "\033[41;37m",
	Reset:         "\033[0m",
}

func (s SGRCode) String() string {
	return sgrEscSeq[s]
}

// SGR formats s in SGR (select graphic rendition).
func SGR(n SGRCode, s string) string {
	return fmt.Sprintf("%s%s%s", n, s, Reset)
}

// StripANSIEscapeCodes strips ANSI escape codes.
func StripANSIEscapeCodes(s string) string {
	if !strings.Contains(s, "\033") {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\033' {
			sb.WriteByte(s[i])
			continue
		}
		// Only strip CSIs for now.
		if i+1 >= len(s) {
			break
		}
		if s[i+1] != '[' {
			continue
		}
		i += 2
		// Skip everything up to and including the next [a-zA-Z].
		for i < len(s) && !((s[i] >= 'a' && s[i] <= 'z') || (s[i] >= 'A' && s[i] <= 'Z')) {
			i++
		}
	}
	return sb.String()
}
