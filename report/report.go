// Copyright 2025 The clrtrace Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package report renders query results as fixed-column plain-text tables.
// It does no filtering or sorting; callers hand it an already ordered
// sequence of records.
package report

import (
	"fmt"
	"strings"

	"github.com/clrtrace/clrtrace/catalog"
)

const (
	ilSizeWidth     = 10
	methodSizeWidth = 12
	timestampWidth  = 12
	jitTimeWidth    = 10
	colSep          = "  "

	// minNameWidth keeps narrow name columns aligned; longer names grow
	// the column instead of being truncated.
	minNameWidth = 50
)

// Render formats records as a table under the given title. The method name
// column is sized to max(minNameWidth, longest display name + 2) across the
// records being rendered. Numeric cells use two decimal places; an unknown
// JIT duration displays as 0.00 even though queries rank it below every
// known value.
func Render(records []*catalog.MethodRecord, title string) string {
	nameWidth := minNameWidth
	for _, r := range records {
		if w := len(r.DisplayName()) + 2; w > nameWidth {
			nameWidth = w
		}
	}
	ruleWidth := ilSizeWidth + methodSizeWidth + timestampWidth + jitTimeWidth + nameWidth + 4*len(colSep)
	rule := strings.Repeat("-", ruleWidth)

	var b strings.Builder
	fmt.Fprintln(&b, title)
	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "%*s%s%*s%s%*s%s%*s%s%s\n",
		ilSizeWidth, "IL Size", colSep,
		methodSizeWidth, "Method Size", colSep,
		timestampWidth, "Timestamp", colSep,
		jitTimeWidth, "JIT Time", colSep,
		"Method Name")
	fmt.Fprintln(&b, rule)
	for _, r := range records {
		jit, _ := r.JitDurationMS()
		fmt.Fprintf(&b, "%*.2f%s%*.2f%s%*.2f%s%*.2f%s%s\n",
			ilSizeWidth, float64(uint32Or(r.ILSize, 0)), colSep,
			methodSizeWidth, float64(uint32Or(r.MethodSize, 0)), colSep,
			timestampWidth, float64Or(r.TimestampMS, 0), colSep,
			jitTimeWidth, jit, colSep,
			r.DisplayName())
	}
	return b.String()
}

func uint32Or(v *uint32, fallback uint32) uint32 {
	if v == nil {
		return fallback
	}
	return *v
}

func float64Or(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}
