// Copyright 2023 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package localexec implements local command execution.
package localexec

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/mcr-firmware/fwhooks/execute"
)

// LocalExec implements execute.Executor interface that runs commands locally.
type LocalExec struct{}

// Run runs cmd with LocalExec.
func Run(ctx context.Context, cmd *execute.Cmd) error {
	return LocalExec{}.Run(ctx, cmd)
}

// Run runs a cmd synchronously.
// It returns execute.ExitError if the cmd exits with non-zero status,
// or the start error (e.g. exec.ErrNotFound) if the cmd could not start.
func (LocalExec) Run(ctx context.Context, cmd *execute.Cmd) error {
	if len(cmd.Args) == 0 {
		return fmt.Errorf("no arguments in the command. ID: %s", cmd.ID)
	}
	c := exec.CommandContext(ctx, cmd.Args[0], cmd.Args[1:]...)
	c.Env = cmd.Env
	c.Dir = cmd.Dir
	c.Stdout = cmd.StdoutWriter()
	c.Stderr = cmd.StderrWriter()

	log.Debugf("%s %s: %s", cmd.ID, cmd.Desc, cmd.Command())
	s := time.Now()
	err := c.Start()
	if err != nil {
		return fmt.Errorf("failed to start %s: %w", cmd.Desc, err)
	}
	err = c.Wait()
	code := exitCode(err)
	log.Debugf("%s exit=%d stdout=%d stderr=%d in %s", cmd.ID, code, len(cmd.Stdout()), len(cmd.Stderr()), time.Since(s))
	if ctx.Err() != nil {
		return fmt.Errorf("%s: %w", cmd.Desc, ctx.Err())
	}
	if code != 0 {
		return execute.ExitError{ExitCode: code}
	}
	return nil
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var eerr *exec.ExitError
	if !errors.As(err, &eerr) {
		return 1
	}
	if w, ok := eerr.ProcessState.Sys().(syscall.WaitStatus); ok {
		if w.Signaled() {
			// as shells report it.
			return 128 + int(w.Signal())
		}
		return w.ExitStatus()
	}
	return eerr.ExitCode()
}
