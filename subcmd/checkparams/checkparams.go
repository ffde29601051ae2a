// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package checkparams is checkparams subcommand to validate calibration
// parameter declarations before build.
package checkparams

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/maruel/subcommands"

	"go.chromium.org/luci/common/cli"
	"go.chromium.org/luci/common/system/signals"

	"github.com/mcr-firmware/fwhooks/hookconfig"
	"github.com/mcr-firmware/fwhooks/paramcheck"
	"github.com/mcr-firmware/fwhooks/ui"
)

const usage = `check calibration parameter declarations.

 $ fwhooks checkparams [-C <project dir>] [<source>]

It scans <source> (default: src/calibration.cpp in the project dir)
for lines like

  parameter prm_x( 100, 0, 1000, LSB_1, CATEGORY_X, "short", "description" );

and fails if any description is declared twice.
Use -short_names and -short_name_max to also check short names.
`

// Cmd returns the Command for the `checkparams` subcommand provided by this package.
func Cmd() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "checkparams [<source>]",
		ShortDesc: "check calibration parameter descriptions are unique",
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

	cfgFlags     hookconfig.Flags
	shortNames   bool
	shortNameMax int
	list         bool
}

func (c *run) init() {
	c.cfgFlags.RegisterFlags(&c.Flags, map[string]string{
		"PROJECT_DIR":    os.Getenv("PROJECT_DIR"),
		"FWHOOKS_CONFIG": os.Getenv("FWHOOKS_CONFIG"),
	})
	c.Flags.BoolVar(&c.shortNames, "short_names", false, "also check short names are unique")
	c.Flags.IntVar(&c.shortNameMax, "short_name_max", -1, "max short name length in bytes. 0 disables. default: short_name_max in config")
	c.Flags.BoolVar(&c.list, "list", false, "list parameter declarations")
}

func (c *run) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx := cli.GetContext(a, c, env)
	err := c.run(ctx, args)
	if err != nil {
		switch {
		case errors.Is(err, paramcheck.ErrProblems):
			// already reported.
		case errors.Is(err, flag.ErrHelp):
			fmt.Fprintf(os.Stderr, "%v\n%s\n", err, usage)
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

	if len(args) > 1 {
		return fmt.Errorf("too many sources %q: %w", args, flag.ErrHelp)
	}
	cfg, err := c.cfgFlags.Load(ctx)
	if err != nil {
		return err
	}
	source := cfg.Path(cfg.ParamSource)
	if len(args) == 1 {
		source = args[0]
	}
	opt := paramcheck.Option{
		ShortNames:   c.shortNames,
		ShortNameMax: cfg.ShortNameMax,
	}
	if c.shortNameMax >= 0 {
		opt.ShortNameMax = c.shortNameMax
	}

	report, err := paramcheck.CheckFile(ctx, source, opt)
	if err != nil {
		return err
	}
	if c.list {
		for _, d := range report.Decls {
			ui.Default.PrintLines(fmt.Sprintf("%s:%d: %s %q %q", source, d.Line, d.Name, d.ShortName, d.Description))
		}
	}
	for _, p := range report.Problems {
		ui.Default.PrintLines(ui.SGR(ui.Red, fmt.Sprintf("%s: %s", source, p)))
	}
	if report.Failed() {
		msg := fmt.Sprintf("Error: %d problems in calibration parameters.", len(report.Problems))
		if n := len(report.Duplicates()); n > 0 {
			msg = fmt.Sprintf("Error: calibration parameter descriptions are duplicated (%d). Each description must be unique.", n)
		}
		ui.Default.PrintLines(ui.SGR(ui.Red, msg))
		return fmt.Errorf("%s: %w", source, paramcheck.ErrProblems)
	}
	ui.Default.PrintLines("No duplicate parameter descriptions found.")
	return nil
}
