// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package versionh generates the firmware version header.
package versionh

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/mcr-firmware/fwhooks/execute"
	"github.com/mcr-firmware/fwhooks/execute/localexec"
)

// DefaultDescribeArgs are the default arguments of `git describe`.
var DefaultDescribeArgs = []string{"--tags", "--always", "--dirty"}

// Info is the content of the version header.
type Info struct {
	BuildDate time.Time
	Revision  string
}

// Describe runs `git describe` with args in dir and returns the
// revision descriptor.
// If git exits with non-zero status (e.g. dir is not in a work tree),
// it returns an empty descriptor.
func Describe(ctx context.Context, dir string, args []string) (string, error) {
	if args == nil {
		args = DefaultDescribeArgs
	}
	cmd := execute.New("GIT describe", append([]string{"git", "describe"}, args...)...)
	cmd.Dir = dir
	err := localexec.Run(ctx, cmd)
	var eerr execute.ExitError
	switch {
	case errors.As(err, &eerr):
		log.Warnf("git describe in %q exit=%d: %s", dir, eerr.ExitCode, strings.TrimSpace(string(cmd.Stderr())))
		return "", nil
	case err != nil:
		return "", err
	}
	return strings.TrimSpace(string(cmd.Stdout())), nil
}

// FormatBuildDate formats t as "2006-01-02 15:04:05.000000",
// omitting the fraction when microseconds are zero.
func FormatBuildDate(t time.Time) string {
	if t.Nanosecond()/int(time.Microsecond) == 0 {
		return t.Format(time.DateTime)
	}
	return t.Format("2006-01-02 15:04:05.000000")
}

// Render renders the header text.
func Render(info Info) []byte {
	var sb strings.Builder
	sb.WriteString("\n#pragma once\n\n")
	fmt.Fprintf(&sb, "static const char * BUILD_DATE =  %s;\n", cString(FormatBuildDate(info.BuildDate)))
	fmt.Fprintf(&sb, "static const char * GIT_REVISION = %s;\n", cString(info.Revision))
	return []byte(sb.String())
}

// cString quotes s as a C string literal.
func cString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)
	return `"` + r.Replace(s) + `"`
}

// Write renders info and overwrites fname unconditionally.
func Write(fname string, info Info) error {
	err := os.WriteFile(fname, Render(info), 0644)
	if err != nil {
		return fmt.Errorf("failed to write version header: %w", err)
	}
	return nil
}
