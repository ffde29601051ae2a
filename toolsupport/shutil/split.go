// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package shutil

import (
	"fmt"
	"strings"
)

// Split splits a tool command line such as "arm-none-eabi-objdump -d -C".
// It understands single and double quotes and backslash escapes.
// It returns error for command lines that need a shell (pipes,
// redirections, variable expansions, env assignments).
func Split(cmdline string) ([]string, error) {
	var args []string
	var sb strings.Builder
	inArg := false
	var quote rune
	escaped := false
	for _, ch := range cmdline {
		if escaped {
			sb.WriteRune(ch)
			escaped = false
			continue
		}
		if quote != 0 {
			switch {
			case ch == quote:
				quote = 0
			case ch == '\\' && quote == '"':
				escaped = true
			default:
				sb.WriteRune(ch)
			}
			continue
		}
		switch ch {
		case '\\':
			inArg = true
			escaped = true
		case '"', '\'':
			inArg = true
			quote = ch
		case ' ', '\t', '\n':
			if inArg {
				args = append(args, sb.String())
				sb.Reset()
				inArg = false
			}
		case ';', '&', '|', '<', '>', '$', '`':
			return nil, fmt.Errorf("failed to split: cmdline contains shell metachar %c", ch)
		default:
			inArg = true
			sb.WriteRune(ch)
		}
	}
	if escaped {
		return nil, fmt.Errorf("failed to split: trailing backslash in %q", cmdline)
	}
	if quote != 0 {
		return nil, fmt.Errorf("failed to split: unterminated %c quote in %q", quote, cmdline)
	}
	if inArg {
		args = append(args, sb.String())
	}
	if len(args) >= 1 && strings.Contains(args[0], "=") {
		// if initial args contains =, it would set env var and need to invoke via sh
		return nil, fmt.Errorf("argv[0] is env set %q", args[0])
	}
	return args, nil
}
