// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package hookconfig provides the project config for build hooks.
//
// The config is an optional starlark file (fwhooks.star) at the project
// root that defines `init(ctx)`:
//
//	def init(ctx):
//	    return module(
//	        "config",
//	        param_source = "src/calibration.cpp",
//	        short_name_max = 9,
//	        disassembler = ["arm-none-eabi-objdump", "-d", "-C"],
//	        version_header = "src/version.h",
//	        git_describe = ["--tags", "--always", "--dirty"],
//	    )
//
// ctx has `project_dir` and `envs`.
package hookconfig

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
	"go.starlark.net/syntax"

	"github.com/mcr-firmware/fwhooks/disasm"
	"github.com/mcr-firmware/fwhooks/toolsupport/shutil"
	"github.com/mcr-firmware/fwhooks/versionh"
)

const (
	// DefaultFilename is the config filename looked up in the project dir.
	DefaultFilename = "fwhooks.star"

	configEntryPoint = "init"
)

// Config is the resolved hook config.
// Relative paths are relative to ProjectDir.
type Config struct {
	ProjectDir    string
	ParamSource   string
	ShortNameMax  int
	Disassembler  []string
	VersionHeader string
	GitDescribe   []string
}

// Default returns the default config for projectDir.
func Default(projectDir string) *Config {
	return &Config{
		ProjectDir:    projectDir,
		ParamSource:   filepath.Join("src", "calibration.cpp"),
		Disassembler:  append([]string(nil), disasm.DefaultCommand...),
		VersionHeader: filepath.Join("src", "version.h"),
		GitDescribe:   append([]string(nil), versionh.DefaultDescribeArgs...),
	}
}

// Path returns fname resolved against the project dir.
func (c *Config) Path(fname string) string {
	if fname == "" || filepath.IsAbs(fname) {
		return fname
	}
	return filepath.Join(c.ProjectDir, fname)
}

// Load loads the config for projectDir.
// If fname is empty, DefaultFilename in projectDir is used when it
// exists, and the default config is returned otherwise.
func Load(ctx context.Context, projectDir, fname string) (*Config, error) {
	cfg := Default(projectDir)
	explicit := fname != ""
	if !explicit {
		fname = filepath.Join(projectDir, DefaultFilename)
	}
	src, err := os.ReadFile(fname)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			log.Debugf("no config %s", fname)
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	err = cfg.exec(ctx, fname, src)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) exec(ctx context.Context, fname string, src []byte) error {
	predeclared := starlark.StringDict{
		"module": starlark.NewBuiltin("module", starlarkstruct.MakeModule),
		"struct": starlark.NewBuiltin("struct", starlarkstruct.Make),
	}
	thread := &starlark.Thread{
		Name: "load",
		Print: func(thread *starlark.Thread, msg string) {
			log.Infof("thread:%s %s", thread.Name, msg)
		},
		Load: func(*starlark.Thread, string) (starlark.StringDict, error) {
			return nil, errors.New("load is not supported in hook config")
		},
	}
	thread.SetLocal("context", ctx)
	globals, err := starlark.ExecFileOptions(&syntax.FileOptions{}, thread, fname, src, predeclared)
	if err != nil {
		var eerr *starlark.EvalError
		if errors.As(err, &eerr) {
			log.Warnf("stacktrace:\n%s", eerr.Backtrace())
		}
		return fmt.Errorf("failed to exec %s: %w", fname, err)
	}
	fun, ok := globals[configEntryPoint]
	if !ok {
		return fmt.Errorf("%s is not defined in %s", configEntryPoint, fname)
	}
	if _, ok := fun.(starlark.Callable); !ok {
		return fmt.Errorf("%s %s is not callable in %s", configEntryPoint, fun.Type(), fname)
	}
	thread.Name = configEntryPoint
	hctx := starlarkstruct.FromStringDict(starlark.String("ctx"), starlark.StringDict{
		"project_dir": starlark.String(c.ProjectDir),
		"envs":        starEnvs(os.Environ()),
	})
	ret, err := starlark.Call(thread, fun, starlark.Tuple{hctx}, nil)
	if err != nil {
		var eerr *starlark.EvalError
		if errors.As(err, &eerr) {
			log.Warnf("stacktrace:\n%s", eerr.Backtrace())
		}
		return fmt.Errorf("failed to run %s in %s: %w", configEntryPoint, fname, err)
	}
	switch m := ret.(type) {
	case *starlarkstruct.Module:
		return c.update(m)
	case *starlarkstruct.Struct:
		return c.update(m)
	}
	return fmt.Errorf("%s returned %s, want module or struct", configEntryPoint, ret.Type())
}

func (c *Config) update(m starlark.HasAttrs) error {
	for _, name := range m.AttrNames() {
		v, err := m.Attr(name)
		if err != nil {
			return err
		}
		switch name {
		case "param_source":
			c.ParamSource, err = asString(name, v)
		case "short_name_max":
			c.ShortNameMax, err = starlark.AsInt32(v)
			if err == nil && c.ShortNameMax < 0 {
				err = fmt.Errorf("negative value %d", c.ShortNameMax)
			}
		case "disassembler":
			c.Disassembler, err = asStrings(name, v)
			if err == nil && len(c.Disassembler) == 0 {
				err = errors.New("empty command")
			}
		case "version_header":
			c.VersionHeader, err = asString(name, v)
		case "git_describe":
			c.GitDescribe, err = asStrings(name, v)
		default:
			log.Warnf("unknown config %q", name)
		}
		if err != nil {
			return fmt.Errorf("bad config %s: %w", name, err)
		}
	}
	return nil
}

func asString(name string, v starlark.Value) (string, error) {
	s, ok := starlark.AsString(v)
	if !ok {
		return "", fmt.Errorf("%s is %s, want string", name, v.Type())
	}
	return s, nil
}

func asStrings(name string, v starlark.Value) ([]string, error) {
	if s, ok := starlark.AsString(v); ok {
		return shutil.Split(s)
	}
	iter, ok := v.(starlark.Iterable)
	if !ok {
		return nil, fmt.Errorf("%s is %s, want list of strings", name, v.Type())
	}
	it := iter.Iterate()
	defer it.Done()
	ss := []string{}
	var elem starlark.Value
	for it.Next(&elem) {
		s, ok := starlark.AsString(elem)
		if !ok {
			return nil, fmt.Errorf("%s contains %s, want string", name, elem.Type())
		}
		ss = append(ss, s)
	}
	return ss, nil
}

func starEnvs(envs []string) *starlark.Dict {
	dict := starlark.NewDict(len(envs))
	for _, env := range envs {
		k, v, ok := strings.Cut(env, "=")
		if !ok {
			k = env
			v = ""
		}
		// SetKey fails only for unhashable or frozen.
		_ = dict.SetKey(starlark.String(k), starlark.String(v))
	}
	dict.Freeze()
	return dict
}
