// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package ui

import (
	"fmt"
	"time"
)

// FormatElapsed formats a hook step duration.
// Sub-minute steps print with centiseconds ("0.42s"); longer ones
// round to the second ("1m5s").
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	if d < time.Minute {
		return fmt.Sprintf("%.2fs", d.Round(10*time.Millisecond).Seconds())
	}
	return d.Round(time.Second).String()
}

// FormatSize formats a file size in bytes with binary units.
func FormatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%dB", n)
	}
	v := float64(n) / unit
	for _, u := range []string{"KiB", "MiB", "GiB"} {
		if v < unit {
			return fmt.Sprintf("%.1f%s", v, u)
		}
		v /= unit
	}
	return fmt.Sprintf("%.1fTiB", v)
}

// FormatListing formats the one-line summary of an exported listing.
func FormatListing(listing string, size int64, d time.Duration) string {
	return fmt.Sprintf("%6s %9s %s", FormatElapsed(d), FormatSize(size), listing)
}
