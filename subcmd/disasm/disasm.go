// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package disasm is disasm subcommand to export disassembly listings
// after link.
package disasm

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/maruel/subcommands"

	"go.chromium.org/luci/common/cli"
	"go.chromium.org/luci/common/system/signals"

	"github.com/mcr-firmware/fwhooks/disasm"
	"github.com/mcr-firmware/fwhooks/execute"
	"github.com/mcr-firmware/fwhooks/hookconfig"
	"github.com/mcr-firmware/fwhooks/toolsupport/shutil"
	"github.com/mcr-firmware/fwhooks/ui"
)

const usage = `export disassembly listing of linked artifacts.

 $ fwhooks disasm [-objdump '<command line>'] <artifact>...

It runs the disassembler (default: arm-none-eabi-objdump -d) on each
<artifact> and writes the output to <artifact>.lst.
Register it as a post action of the firmware .elf.
`

// Cmd returns the Command for the `disasm` subcommand provided by this package.
func Cmd() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "disasm <artifact>...",
		ShortDesc: "export disassembly listing of artifacts",
		LongDesc:  usage,
		CommandRun: func() subcommands.CommandRun {
			c := &run{}
			c.init()
			return c
		},
	}
}

type run struct {
	subcommands.CommandRunBase

	cfgFlags hookconfig.Flags
	objdump  string
}

func (c *run) init() {
	c.cfgFlags.RegisterFlags(&c.Flags, map[string]string{
		"PROJECT_DIR":    os.Getenv("PROJECT_DIR"),
		"FWHOOKS_CONFIG": os.Getenv("FWHOOKS_CONFIG"),
	})
	c.Flags.StringVar(&c.objdump, "objdump", os.Getenv("FWHOOKS_OBJDUMP"), "disassembler command line. default: disassembler in config. can be set by $FWHOOKS_OBJDUMP")
}

func (c *run) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx := cli.GetContext(a, c, env)
	err := c.run(ctx, args)
	if err != nil {
		var eerr execute.ExitError
		switch {
		case errors.Is(err, flag.ErrHelp):
			fmt.Fprintf(os.Stderr, "%v\n%s\n", err, usage)
		case errors.As(err, &eerr):
			ui.Default.Errorf("%s: %v", ui.SGR(ui.Red, "disasm failed"), err)
			return eerr.ExitCode
		default:
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func (c *run) run(ctx context.Context, args []string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer signals.HandleInterrupt(cancel)()

	if len(args) == 0 {
		return fmt.Errorf("no artifact: %w", flag.ErrHelp)
	}
	cfg, err := c.cfgFlags.Load(ctx)
	if err != nil {
		return err
	}
	// artifacts are relative to the current directory, so is the
	// disassembler.
	opt := disasm.Option{
		Command: cfg.Disassembler,
	}
	if c.objdump != "" {
		opt.Command, err = shutil.Split(c.objdump)
		if err != nil {
			return fmt.Errorf("bad -objdump %q: %w", c.objdump, err)
		}
	}
	for _, artifact := range args {
		started := time.Now()
		listing, err := disasm.Export(ctx, opt, artifact)
		if err != nil {
			return err
		}
		fi, err := os.Stat(listing)
		if err != nil {
			return err
		}
		ui.Default.PrintLines(ui.FormatListing(listing, fi.Size(), time.Since(started)))
	}
	return nil
}
