// Copyright 2025 The clrtrace Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package query

import (
	"github.com/clrtrace/clrtrace/catalog"
)

// Stats are whole-trace aggregates over a catalog.
type Stats struct {
	TotalEvents         int     `json:"total_events"`
	AssemblyLoadEvents  int     `json:"assembly_load_events"`
	MethodDetailsEvents int     `json:"method_details_events"`
	SkippedEvents       int     `json:"skipped_events"`
	AssemblyCount       int     `json:"assembly_count"`
	MethodCount         int     `json:"method_count"`
	JittedMethodCount   int     `json:"jitted_method_count"`
	TotalILBytes        uint64  `json:"total_il_bytes"`
	TotalNativeBytes    uint64  `json:"total_native_bytes"`
	TotalJitMS          float64 `json:"total_jit_ms"`
}

// ExtractStats sums per-method fields into whole-trace totals. Unset fields
// contribute nothing.
func ExtractStats(c *catalog.Catalog) Stats {
	stats := Stats{
		TotalEvents:         c.Counters.TotalEvents,
		AssemblyLoadEvents:  c.Counters.AssemblyLoadEvents,
		MethodDetailsEvents: c.Counters.MethodDetailsEvents,
		SkippedEvents:       c.Counters.SkippedEvents,
		AssemblyCount:       len(c.Assemblies()),
		MethodCount:         len(c.Methods()),
	}
	for _, r := range c.Methods() {
		if r.ILSize != nil {
			stats.TotalILBytes += uint64(*r.ILSize)
		}
		if r.MethodSize != nil {
			stats.TotalNativeBytes += uint64(*r.MethodSize)
		}
		if d, ok := r.JitDurationMS(); ok {
			stats.TotalJitMS += d
			stats.JittedMethodCount++
		}
	}
	return stats
}
