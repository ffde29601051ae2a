// Copyright 2023 The Chromium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// fwhooks runs build hooks of the line tracer firmware.
package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/maruel/subcommands"
	"go.chromium.org/luci/common/cli"

	"github.com/mcr-firmware/fwhooks/subcmd/checkparams"
	"github.com/mcr-firmware/fwhooks/subcmd/disasm"
	"github.com/mcr-firmware/fwhooks/subcmd/genversion"
	"github.com/mcr-firmware/fwhooks/subcmd/help"
	"github.com/mcr-firmware/fwhooks/subcmd/version"
)

const fwhooksVersion = "fwhooks v0.1.0"

func main() {
	os.Exit(fwhooksMain(os.Args[1:]))
}

func fwhooksMain(args []string) int {
	// Print a stack trace when a panic occurs.
	defer func() {
		if r := recover(); r != nil {
			const size = 64 << 10
			buf := make([]byte, size)
			buf = buf[:runtime.Stack(buf, false)]
			log.Fatalf("panic: %v\n%s", r, buf)
		}
	}()

	initLog(os.Getenv("FWHOOKS_LOG_LEVEL"))
	return subcommands.Run(getApplication(), args)
}

// initLog sets up the logger. Hooks run inside firmware build logs,
// so only warnings and errors are shown by default.
func initLog(level string) {
	log.SetPrefix("fwhooks")
	log.SetLevel(log.WarnLevel)
	if level == "" {
		return
	}
	lv, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		fmt.Fprintf(os.Stderr, "bad FWHOOKS_LOG_LEVEL=%q: %v\n", level, err)
		return
	}
	log.SetLevel(lv)
}

func getApplication() *cli.Application {
	return &cli.Application{
		Name:  "fwhooks",
		Title: "build hooks for the line tracer firmware",
		Context: func(ctx context.Context) context.Context {
			return ctx
		},
		Commands: []*subcommands.Command{
			checkparams.Cmd(),
			disasm.Cmd(),
			genversion.Cmd(),

			help.Cmd(),
			version.Cmd(fwhooksVersion),
		},
	}
}
