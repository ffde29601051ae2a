// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package paramcheck validates calibration parameter declarations
// in firmware sources.
//
// A declaration looks like
//
//	parameter prm_line_trace_P( 100, 0, 10000, LSB_1, CATEGORY_LINE_TRACE, "lineP", "P gain for line trace" );
//
// The last quoted argument is the description shown on the device, and
// the quoted argument before it is the short name used as storage key.
package paramcheck

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"
)

// ErrProblems is returned by callers that treat a failed Report as error.
var ErrProblems = errors.New("calibration parameter check failed")

const trigger = "parameter "

var (
	declRE   = regexp.MustCompile(`parameter\s+(\w+)\s*\([^)]*"([^"]*)"`)
	quotedRE = regexp.MustCompile(`"([^"]*)"`)
)

// Decl is a parameter declaration found in a source file.
type Decl struct {
	// Line is 1-based line number.
	Line int
	// Name is the C++ variable name.
	Name string
	// ShortName is the quoted argument just before the description.
	// Empty if the declaration has only one quoted argument.
	ShortName string
	// Description is the last quoted argument.
	Description string
}

// Scan reads declarations from r line by line.
// Lines end at "\n", "\r\n" or a lone "\r", and have no length limit.
// Lines that contain "parameter " but do not match a declaration are
// skipped.
func Scan(ctx context.Context, r io.Reader) ([]Decl, error) {
	var decls []Decl
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), math.MaxInt)
	s.Split(scanLines)
	lineno := 0
	for s.Scan() {
		lineno++
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := s.Text()
		if !strings.Contains(line, trigger) {
			continue
		}
		d, ok := parseDecl(line)
		if !ok {
			log.Debugf("line %d: skip %q", lineno, line)
			continue
		}
		d.Line = lineno
		decls = append(decls, d)
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return decls, nil
}

// scanLines is bufio.ScanLines that also accepts old Mac line endings.
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	i := bytes.IndexAny(data, "\r\n")
	switch {
	case i < 0:
		if atEOF {
			return len(data), data, nil
		}
		return 0, nil, nil
	case data[i] == '\n':
		return i + 1, data[:i], nil
	case i+1 < len(data):
		if data[i+1] == '\n' {
			return i + 2, data[:i], nil
		}
		return i + 1, data[:i], nil
	case atEOF:
		return i + 1, data[:i], nil
	}
	// "\r" at the end of buffer; need more data to see "\r\n".
	return 0, nil, nil
}

func parseDecl(line string) (Decl, bool) {
	loc := declRE.FindStringSubmatchIndex(line)
	if loc == nil {
		return Decl{}, false
	}
	d := Decl{
		Name:        line[loc[2]:loc[3]],
		Description: line[loc[4]:loc[5]],
	}
	// the description's opening quote is at loc[4]-1.
	// short name is the last quoted string before it.
	quoted := quotedRE.FindAllStringSubmatch(line[loc[0]:loc[4]-1], -1)
	if len(quoted) > 0 {
		d.ShortName = quoted[len(quoted)-1][1]
	}
	return d, true
}

// Kind is a kind of problem.
type Kind int

const (
	DuplicateDescription Kind = iota
	DuplicateShortName
	ShortNameTooLong
)

func (k Kind) String() string {
	switch k {
	case DuplicateDescription:
		return "duplicate description"
	case DuplicateShortName:
		return "duplicate short name"
	case ShortNameTooLong:
		return "short name too long"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Problem is a problem found in a declaration.
type Problem struct {
	Kind Kind
	Decl Decl
	// FirstLine is the line of the first declaration with the same
	// value, for duplicate kinds.
	FirstLine int
	// Limit is the short name limit, for ShortNameTooLong.
	Limit int
}

func (p Problem) String() string {
	switch p.Kind {
	case DuplicateDescription:
		return fmt.Sprintf("line %d: %s %q (first declared at line %d)", p.Decl.Line, p.Kind, p.Decl.Description, p.FirstLine)
	case DuplicateShortName:
		return fmt.Sprintf("line %d: %s %q (first declared at line %d)", p.Decl.Line, p.Kind, p.Decl.ShortName, p.FirstLine)
	case ShortNameTooLong:
		return fmt.Sprintf("line %d: %s %q: %d bytes > %d", p.Decl.Line, p.Kind, p.Decl.ShortName, len(p.Decl.ShortName), p.Limit)
	}
	return fmt.Sprintf("line %d: %s", p.Decl.Line, p.Kind)
}

// Option controls which checks run in addition to the description
// duplicate check.
type Option struct {
	// ShortNames enables the duplicate short name check.
	ShortNames bool
	// ShortNameMax limits short name length in bytes. 0 disables.
	ShortNameMax int
}

// Report is a result of Check.
type Report struct {
	Decls    []Decl
	Problems []Problem
}

// Failed reports whether any problem was found.
func (r *Report) Failed() bool {
	return len(r.Problems) > 0
}

// Duplicates returns problems of DuplicateDescription kind.
func (r *Report) Duplicates() []Problem {
	var dups []Problem
	for _, p := range r.Problems {
		if p.Kind == DuplicateDescription {
			dups = append(dups, p)
		}
	}
	return dups
}

// Check checks decls in order.
// It reports one problem per repeated occurrence, so a description
// declared three times yields two problems.
func Check(decls []Decl, opt Option) *Report {
	r := &Report{Decls: decls}
	seen := make(map[string]int)
	seenShort := make(map[string]int)
	for _, d := range decls {
		if first, ok := seen[d.Description]; ok {
			r.Problems = append(r.Problems, Problem{Kind: DuplicateDescription, Decl: d, FirstLine: first})
		} else {
			seen[d.Description] = d.Line
		}
		if d.ShortName == "" {
			continue
		}
		if opt.ShortNames {
			if first, ok := seenShort[d.ShortName]; ok {
				r.Problems = append(r.Problems, Problem{Kind: DuplicateShortName, Decl: d, FirstLine: first})
			} else {
				seenShort[d.ShortName] = d.Line
			}
		}
		if opt.ShortNameMax > 0 && len(d.ShortName) > opt.ShortNameMax {
			r.Problems = append(r.Problems, Problem{Kind: ShortNameTooLong, Decl: d, Limit: opt.ShortNameMax})
		}
	}
	return r
}

// CheckFile scans fname and checks its declarations.
func CheckFile(ctx context.Context, fname string, opt Option) (*Report, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	decls, err := Scan(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", fname, err)
	}
	log.Infof("%s: %d parameter declarations", fname, len(decls))
	return Check(decls, opt), nil
}
