// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package genversion

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/maruel/subcommands"
	"go.chromium.org/luci/common/cli"

	"github.com/mcr-firmware/fwhooks/ui"
)

func runCmd(t *testing.T, now time.Time, args ...string) (int, string) {
	t.Helper()
	return runCmdTo(t, io.Discard, now, args...)
}

func runCmdTo(t *testing.T, stdout io.Writer, now time.Time, args ...string) (int, string) {
	t.Helper()
	var out bytes.Buffer
	orig := ui.Default
	ui.Default = ui.NewPlainUI(&out, &out)
	defer func() { ui.Default = orig }()
	cmd := Cmd()
	cmd.CommandRun = func() subcommands.CommandRun {
		c := &run{now: func() time.Time { return now }, stdout: stdout}
		c.init()
		return c
	}
	app := &cli.Application{
		Name:     "fwhooks",
		Context:  func(ctx context.Context) context.Context { return ctx },
		Commands: []*subcommands.Command{cmd},
	}
	code := subcommands.Run(app, append([]string{"genversion"}, args...))
	return code, out.String()
}

func TestRun(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	dir := t.TempDir()
	t.Setenv("GIT_CEILING_DIRECTORIES", filepath.Dir(dir))
	err := os.MkdirAll(filepath.Join(dir, "src"), 0755)
	if err != nil {
		t.Fatal(err)
	}
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.Local)
	code, out := runCmd(t, now, "-C", dir)
	if code != 0 {
		t.Fatalf("exit=%d; want 0\n%s", code, out)
	}
	buf, err := os.ReadFile(filepath.Join(dir, "src", "version.h"))
	if err != nil {
		t.Fatal(err)
	}
	// not a git work tree, so revision is empty.
	want := `
#pragma once

static const char * BUILD_DATE =  "2024-05-01 12:00:00";
static const char * GIT_REVISION = "";
`
	if got := string(buf); got != want {
		t.Errorf("header=%q; want=%q", got, want)
	}
	if !strings.Contains(out, "Outputting version information") {
		t.Errorf("output=%q; want progress message", out)
	}
}

func TestRun_Output(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	dir := t.TempDir()
	t.Setenv("GIT_CEILING_DIRECTORIES", filepath.Dir(dir))
	header := filepath.Join(dir, "gen_version.h")
	code, out := runCmd(t, time.Now(), "-C", dir, "-o", header)
	if code != 0 {
		t.Fatalf("exit=%d; want 0\n%s", code, out)
	}
	buf, err := os.ReadFile(header)
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(string(buf), "static const char *"); n != 2 {
		t.Errorf("header has %d constants; want 2\n%s", n, buf)
	}
}

func TestRun_PositionalArgs(t *testing.T) {
	code, _ := runCmd(t, time.Now(), "-C", t.TempDir(), "extra")
	if code != 1 {
		t.Errorf("exit=%d; want 1", code)
	}
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestRun_Print(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	dir := t.TempDir()
	t.Setenv("GIT_CEILING_DIRECTORIES", filepath.Dir(dir))
	header := filepath.Join(dir, "version.h")
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.Local)

	var stdout bytes.Buffer
	code, out := runCmdTo(t, &stdout, now, "-C", dir, "-o", header, "-print")
	if code != 0 {
		t.Fatalf("exit=%d; want 0\n%s", code, out)
	}
	buf, err := os.ReadFile(header)
	if err != nil {
		t.Fatal(err)
	}
	if got := stdout.String(); got != string(buf) {
		t.Errorf("printed=%q; want=%q", got, buf)
	}

	code, out = runCmdTo(t, failWriter{}, now, "-C", dir, "-o", header, "-print")
	if code != 1 {
		t.Errorf("exit=%d with failing stdout; want 1\n%s", code, out)
	}
}
