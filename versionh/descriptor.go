// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package versionh

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

const dirtySuffix = "-dirty"

var (
	describeRE = regexp.MustCompile(`^(.+)-(\d+)-g([0-9a-f]{4,40})$`)
	commitRE   = regexp.MustCompile(`^[0-9a-f]{4,40}$`)
)

// Descriptor is a parsed `git describe --tags --always --dirty` output.
type Descriptor struct {
	// Tag is the nearest tag. Empty if no tag is reachable.
	Tag string
	// Ahead is the number of commits on top of Tag.
	Ahead int
	// Commit is the abbreviated commit hash. Empty when HEAD is
	// exactly at Tag.
	Commit string
	Dirty  bool
}

// ParseDescriptor parses s.
// A bare hex string is taken as a commit, since `--always` falls back
// to the abbreviated hash when no tag is reachable.
func ParseDescriptor(s string) Descriptor {
	var d Descriptor
	s, d.Dirty = strings.CutSuffix(s, dirtySuffix)
	if m := describeRE.FindStringSubmatch(s); m != nil {
		d.Tag = m[1]
		d.Ahead, _ = strconv.Atoi(m[2])
		d.Commit = m[3]
		return d
	}
	if commitRE.MatchString(s) {
		d.Commit = s
		return d
	}
	d.Tag = s
	return d
}

// IsSemver reports whether the tag is a valid semantic version
// such as "v1.2.3".
func (d Descriptor) IsSemver() bool {
	return semver.IsValid(d.Tag)
}

// IsRelease reports whether the descriptor points exactly at a clean tag.
func (d Descriptor) IsRelease() bool {
	return d.Tag != "" && d.Ahead == 0 && d.Commit == "" && !d.Dirty
}

func (d Descriptor) String() string {
	return fmt.Sprintf("tag=%q ahead=%d commit=%q dirty=%t semver=%t", d.Tag, d.Ahead, d.Commit, d.Dirty, d.IsSemver())
}
