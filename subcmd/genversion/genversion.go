// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package genversion is genversion subcommand to generate the firmware
// version header.
package genversion

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/maruel/subcommands"

	"go.chromium.org/luci/common/cli"
	"go.chromium.org/luci/common/system/signals"

	"github.com/mcr-firmware/fwhooks/hookconfig"
	"github.com/mcr-firmware/fwhooks/ui"
	"github.com/mcr-firmware/fwhooks/versionh"
)

const usage = `generate version header.

 $ fwhooks genversion [-C <project dir>] [-o <header>]

It runs "git describe --tags --always --dirty" in the project dir and
overwrites <header> (default: src/version.h) with BUILD_DATE and
GIT_REVISION string constants.
`

// Cmd returns the Command for the `genversion` subcommand provided by this package.
func Cmd() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "genversion [-o <header>]",
		ShortDesc: "generate version header from git",
		LongDesc:  usage,
		CommandRun: func() subcommands.CommandRun {
			c := &run{now: time.Now, stdout: os.Stdout}
			c.init()
			return c
		},
	}
}

type run struct {
	subcommands.CommandRunBase

	cfgFlags hookconfig.Flags
	output   string
	print    bool

	now    func() time.Time
	stdout io.Writer
}

func (c *run) init() {
	c.cfgFlags.RegisterFlags(&c.Flags, map[string]string{
		"PROJECT_DIR":    os.Getenv("PROJECT_DIR"),
		"FWHOOKS_CONFIG": os.Getenv("FWHOOKS_CONFIG"),
	})
	c.Flags.StringVar(&c.output, "o", "", "output header. default: version_header in config")
	c.Flags.BoolVar(&c.print, "print", false, "print generated header to stdout")
}

func (c *run) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx := cli.GetContext(a, c, env)
	err := c.run(ctx, args)
	if err != nil {
		switch {
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

	if len(args) != 0 {
		return fmt.Errorf("position arguments not expected: %w", flag.ErrHelp)
	}
	cfg, err := c.cfgFlags.Load(ctx)
	if err != nil {
		return err
	}
	header := cfg.Path(cfg.VersionHeader)
	if c.output != "" {
		header = c.output
	}
	rev, err := versionh.Describe(ctx, cfg.ProjectDir, cfg.GitDescribe)
	if err != nil {
		return err
	}
	log.Infof("revision %q %s", rev, versionh.ParseDescriptor(rev))
	info := versionh.Info{
		BuildDate: c.now(),
		Revision:  rev,
	}
	ui.Default.PrintLines("Outputting version information")
	err = versionh.Write(header, info)
	if err != nil {
		return err
	}
	if c.print {
		_, err = c.stdout.Write(versionh.Render(info))
		if err != nil {
			return fmt.Errorf("failed to print header: %w", err)
		}
	}
	return nil
}
