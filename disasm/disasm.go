// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package disasm exports disassembly listings of linked firmware.
package disasm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/mcr-firmware/fwhooks/execute"
	"github.com/mcr-firmware/fwhooks/execute/localexec"
)

// ListingSuffix is appended to the artifact path to name the listing.
const ListingSuffix = ".lst"

// DefaultCommand is the default disassembler command line.
var DefaultCommand = []string{"arm-none-eabi-objdump", "-d"}

// ListingPath returns the listing filename for artifact.
func ListingPath(artifact string) string {
	return artifact + ListingSuffix
}

// Option is an option of Export.
type Option struct {
	// Command is the disassembler command line.
	// The artifact is appended as the last argument.
	// If empty, DefaultCommand is used.
	Command []string

	// Env is the environment of the disassembler.
	// If nil, the current environment is inherited.
	Env []string

	// Dir is the working directory of the disassembler.
	Dir string

	// Executor runs the disassembler. If nil, localexec is used.
	Executor execute.Executor
}

// Export disassembles artifact and writes its listing to
// ListingPath(artifact).
// It returns the listing filename. The listing is kept even if the
// disassembler fails, as with shell output redirection.
func Export(ctx context.Context, opt Option, artifact string) (string, error) {
	if artifact == "" {
		return "", errors.New("no artifact to disassemble")
	}
	command := opt.Command
	if len(command) == 0 {
		command = DefaultCommand
	}
	executor := opt.Executor
	if executor == nil {
		executor = localexec.LocalExec{}
	}
	listing := ListingPath(artifact)
	args := make([]string, 0, len(command)+1)
	args = append(args, command...)
	args = append(args, artifact)
	cmd := execute.New(fmt.Sprintf("DISASM %s", filepath.Base(artifact)), args...)
	cmd.Env = opt.Env
	cmd.Dir = opt.Dir
	cmd.SetStderrWriter(os.Stderr)

	f, err := os.Create(listing)
	if err != nil {
		return "", fmt.Errorf("failed to create listing: %w", err)
	}
	cmd.SetStdoutWriter(f)
	started := time.Now()
	err = executor.Run(ctx, cmd)
	cerr := f.Close()
	if err != nil {
		return listing, fmt.Errorf("%s: %s: %w", cmd.Desc, cmd.Command(), err)
	}
	if cerr != nil {
		return listing, fmt.Errorf("failed to close listing: %w", cerr)
	}
	log.Infof("%s -> %s in %s", artifact, listing, time.Since(started))
	return listing, nil
}
