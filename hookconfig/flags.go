// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package hookconfig

import (
	"context"
	"flag"
)

// Flags holds the flags common to all hook subcommands.
type Flags struct {
	ProjectDir string
	ConfigFile string
}

// RegisterFlags registers flags on fs with defaults taken from envs.
// PROJECT_DIR is set by PlatformIO when running extra scripts.
func (f *Flags) RegisterFlags(fs *flag.FlagSet, envs map[string]string) {
	projectDir := envs["PROJECT_DIR"]
	if projectDir == "" {
		projectDir = "."
	}
	fs.StringVar(&f.ProjectDir, "C", projectDir, "firmware project directory. can be set by $PROJECT_DIR")
	fs.StringVar(&f.ConfigFile, "config", envs["FWHOOKS_CONFIG"], "hook config file. default: <project dir>/"+DefaultFilename+" if exists. can be set by $FWHOOKS_CONFIG")
}

// Load loads the config selected by the flags.
func (f *Flags) Load(ctx context.Context) (*Config, error) {
	return Load(ctx, f.ProjectDir, f.ConfigFile)
}
