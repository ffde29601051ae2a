// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package paramcheck

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const calibrationSrc = `/*
 * parameters for the line tracer
 */

#include "calibration.h"

std::vector<parameter*> parameters;

/* short names are up to 9 chars */
parameter prm_line_trace_P( 100, 0, 10000, LSB_1, CATEGORY_LINE_TRACE, "lineP", "ライントレース時のP値" );
parameter prm_line_trace_I( 10, 0, 1000, LSB_1, CATEGORY_LINE_TRACE, "lineI", "ライントレース時のI値" );
parameter prm_max_speed( 600, 0, 1200, SPEED_LSB, CATEGORY_SPEED, "sp_max", "最大速度(定常) LSB:0.01m/s" );
parameter prm_difficult_kind_0( 0, 0, 3, LSB_1, CATEGORY_DIFFICULT_KIND, "dif_kind0", "0番目の難所種別 LSB:1[-]", difficult_kind, 4 );

parameter::parameter( s4 default_val, s4 min_val, s4 max_val, s4 lsb, s4 cat, const char* sname, const char* desc, const char** enum_str,
                      u1 enum_num )
`

func TestScan(t *testing.T) {
	ctx := context.Background()
	got, err := Scan(ctx, strings.NewReader(calibrationSrc))
	if err != nil {
		t.Fatalf("Scan=_, %v; want nil err", err)
	}
	want := []Decl{
		{Line: 10, Name: "prm_line_trace_P", ShortName: "lineP", Description: "ライントレース時のP値"},
		{Line: 11, Name: "prm_line_trace_I", ShortName: "lineI", Description: "ライントレース時のI値"},
		{Line: 12, Name: "prm_max_speed", ShortName: "sp_max", Description: "最大速度(定常) LSB:0.01m/s"},
		{Line: 13, Name: "prm_difficult_kind_0", ShortName: "dif_kind0", Description: "0番目の難所種別 LSB:1[-]"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Scan diff -want +got:\n%s", diff)
	}
}

func TestScan_SkipsNonMatchingTriggerLines(t *testing.T) {
	ctx := context.Background()
	src := `// every parameter here is tuned on the course
parameter prm_no_paren;
parameter prm_no_quote( 1, 2, 3 );
parameter prm_a( 1, 0, 2, LSB_1, CAT, "a", "alpha" );
`
	got, err := Scan(ctx, strings.NewReader(src))
	if err != nil {
		t.Fatalf("Scan=_, %v; want nil err", err)
	}
	want := []Decl{
		{Line: 4, Name: "prm_a", ShortName: "a", Description: "alpha"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Scan diff -want +got:\n%s", diff)
	}
}

func TestScan_LineEndings(t *testing.T) {
	ctx := context.Background()
	a := `parameter prm_a( 1, "a", "same" );`
	b := `parameter prm_b( 1, "b", "same" );`
	want := []Decl{
		{Line: 1, Name: "prm_a", ShortName: "a", Description: "same"},
		{Line: 3, Name: "prm_b", ShortName: "b", Description: "same"},
	}
	for _, tc := range []struct {
		name string
		sep  string
	}{
		{name: "lf", sep: "\n"},
		{name: "crlf", sep: "\r\n"},
		{name: "cr", sep: "\r"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			src := a + tc.sep + "// blank" + tc.sep + b + tc.sep
			got, err := Scan(ctx, strings.NewReader(src))
			if err != nil {
				t.Fatalf("Scan=_, %v; want nil err", err)
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("Scan diff -want +got:\n%s", diff)
			}
			if r := Check(got, Option{}); !r.Failed() {
				t.Errorf("Check(...).Failed()=false; want true")
			}
		})
	}
}

func TestScanLines_CRAtBufferEnd(t *testing.T) {
	adv, tok, err := scanLines([]byte("abc\r"), false)
	if adv != 0 || tok != nil || err != nil {
		t.Errorf("scanLines(%q, false)=%d, %q, %v; want 0, nil, nil", "abc\r", adv, tok, err)
	}
	adv, tok, err = scanLines([]byte("abc\r"), true)
	if adv != 4 || string(tok) != "abc" || err != nil {
		t.Errorf("scanLines(%q, true)=%d, %q, %v; want 4, %q, nil", "abc\r", adv, tok, err, "abc")
	}
}

func TestScan_LongLine(t *testing.T) {
	ctx := context.Background()
	long := `parameter prm_long( 1, "l", "` + strings.Repeat("x", 2<<20) + `" );`
	src := long + "\n" + `parameter prm_b( 1, "b", "beta" );` + "\n"
	got, err := Scan(ctx, strings.NewReader(src))
	if err != nil {
		t.Fatalf("Scan=_, %v; want nil err", err)
	}
	if len(got) != 2 {
		t.Fatalf("Scan=%d decls; want 2", len(got))
	}
	if got[0].Name != "prm_long" || len(got[0].Description) != 2<<20 {
		t.Errorf("Scan[0]=%q len(desc)=%d; want prm_long len=%d", got[0].Name, len(got[0].Description), 2<<20)
	}
	if got[1].Line != 2 {
		t.Errorf("Scan[1].Line=%d; want 2", got[1].Line)
	}
}

func TestParseDecl(t *testing.T) {
	for _, tc := range []struct {
		name   string
		line   string
		want   Decl
		wantOK bool
	}{
		{
			name:   "single-quoted-arg",
			line:   `parameter prm_x( 1, "only" );`,
			want:   Decl{Name: "prm_x", Description: "only"},
			wantOK: true,
		},
		{
			name:   "empty-description",
			line:   `parameter prm_x( 1, "x", "" );`,
			want:   Decl{Name: "prm_x", ShortName: "x", Description: ""},
			wantOK: true,
		},
		{
			name:   "spaces-before-paren",
			line:   `parameter   prm_y   ( 1, "y", "why" );`,
			want:   Decl{Name: "prm_y", ShortName: "y", Description: "why"},
			wantOK: true,
		},
		{
			name:   "paren-in-description",
			line:   `parameter prm_c( 400, 0, 1200, SPEED_LSB, CATEGORY_SPEED, "sp_curve", "max speed (curve) LSB:0.01m/s" );`,
			want:   Decl{Name: "prm_c", ShortName: "sp_curve", Description: "max speed (curve) LSB:0.01m/s"},
			wantOK: true,
		},
		{
			name: "constructor-definition",
			line: `parameter::parameter( s4 default_val, const char* desc )`,
		},
		{
			name: "no-quoted-arg",
			line: `parameter prm_z( 1, 2, 3 );`,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := parseDecl(tc.line)
			if ok != tc.wantOK {
				t.Fatalf("parseDecl(%q) ok=%t; want %t", tc.line, ok, tc.wantOK)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("parseDecl(%q) diff -want +got:\n%s", tc.line, diff)
			}
		})
	}
}

func TestCheck(t *testing.T) {
	decls := []Decl{
		{Line: 1, Name: "a", ShortName: "ar3_W", Description: "AR3 white"},
		{Line: 2, Name: "b", ShortName: "ar3_B", Description: "AR3 black"},
		{Line: 3, Name: "c", ShortName: "ar2_W", Description: "AR3 white"},
		{Line: 4, Name: "d", ShortName: "ar2_B", Description: "AR3 white"},
		{Line: 5, Name: "e", ShortName: "ar3_B", Description: "AR2 black"},
		{Line: 6, Name: "f", ShortName: "difficult0", Description: "difficult 0"},
	}
	for _, tc := range []struct {
		name string
		opt  Option
		want []Problem
	}{
		{
			name: "descriptions-only",
			want: []Problem{
				{Kind: DuplicateDescription, Decl: decls[2], FirstLine: 1},
				{Kind: DuplicateDescription, Decl: decls[3], FirstLine: 1},
			},
		},
		{
			name: "short-names",
			opt:  Option{ShortNames: true, ShortNameMax: 9},
			want: []Problem{
				{Kind: DuplicateDescription, Decl: decls[2], FirstLine: 1},
				{Kind: DuplicateDescription, Decl: decls[3], FirstLine: 1},
				{Kind: DuplicateShortName, Decl: decls[4], FirstLine: 2},
				{Kind: ShortNameTooLong, Decl: decls[5], Limit: 9},
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			r := Check(decls, tc.opt)
			if diff := cmp.Diff(tc.want, r.Problems); diff != "" {
				t.Errorf("Check diff -want +got:\n%s", diff)
			}
			if !r.Failed() {
				t.Errorf("Failed()=false; want true")
			}
			if got := len(r.Duplicates()); got != 2 {
				t.Errorf("len(Duplicates())=%d; want 2", got)
			}
		})
	}
}

func TestCheck_AllDistinct(t *testing.T) {
	decls, err := Scan(context.Background(), strings.NewReader(calibrationSrc))
	if err != nil {
		t.Fatal(err)
	}
	r := Check(decls, Option{ShortNames: true, ShortNameMax: 9})
	if r.Failed() {
		t.Errorf("Check failed with %v; want no problems", r.Problems)
	}
	if len(r.Decls) != 4 {
		t.Errorf("len(Decls)=%d; want 4", len(r.Decls))
	}
}

func TestCheck_NoShortName(t *testing.T) {
	decls := []Decl{
		{Line: 1, Name: "a", Description: "x"},
		{Line: 2, Name: "b", Description: "y"},
	}
	r := Check(decls, Option{ShortNames: true, ShortNameMax: 1})
	if r.Failed() {
		t.Errorf("Check failed with %v; want no problems for missing short names", r.Problems)
	}
}

func TestCheckFile(t *testing.T) {
	dir := t.TempDir()
	fname := filepath.Join(dir, "calibration.cpp")
	src := calibrationSrc + `parameter prm_line_trace_D( 10, 0, 1000, LSB_1, CATEGORY_LINE_TRACE, "lineD", "ライントレース時のI値" );
`
	err := os.WriteFile(fname, []byte(src), 0644)
	if err != nil {
		t.Fatal(err)
	}
	r, err := CheckFile(context.Background(), fname, Option{})
	if err != nil {
		t.Fatalf("CheckFile=_, %v; want nil err", err)
	}
	dups := r.Duplicates()
	if len(dups) != 1 {
		t.Fatalf("Duplicates()=%v; want 1 duplicate", dups)
	}
	if got, want := dups[0].String(), `line 17: duplicate description "ライントレース時のI値" (first declared at line 11)`; got != want {
		t.Errorf("String()=%q; want=%q", got, want)
	}
}

func TestCheckFile_Missing(t *testing.T) {
	_, err := CheckFile(context.Background(), filepath.Join(t.TempDir(), "missing.cpp"), Option{})
	if !os.IsNotExist(err) {
		t.Errorf("CheckFile(missing)=_, %v; want not exist error", err)
	}
}
