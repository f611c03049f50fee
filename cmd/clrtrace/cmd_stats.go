// Copyright 2025 The clrtrace Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/google/subcommands"

	"github.com/clrtrace/clrtrace/catalog"
	"github.com/clrtrace/clrtrace/lib/logger"
	"github.com/clrtrace/clrtrace/query"
)

type cmdStats struct {
	jsonOutput bool
}

// traceStats is the stats serialization shape, keyed by the trace it
// describes.
type traceStats struct {
	Path string `json:"path"`
	query.Stats
}

func (*cmdStats) Name() string {
	return "stats"
}

func (*cmdStats) Synopsis() string {
	return "prints summary statistics for a recorded trace"
}

func (*cmdStats) Usage() string {
	return `
clrtrace stats [flags...] <trace file>

Prints event counters and aggregate method statistics for a recorded
trace.

flags:
`
}

func (c *cmdStats) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.jsonOutput, "json", false, "emit statistics as JSON")
}

func (c *cmdStats) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) != 1 {
		logger.Errorf(ctx, "expected exactly one trace file, got %d arguments", len(args))
		return subcommands.ExitUsage
	}
	cat, err := buildCatalog(ctx, args[0])
	if err != nil {
		logger.Errorf(ctx, "%v", err)
		return subcommands.ExitFailure
	}
	stats := extractTraceStats(args[0], cat)
	if c.jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(stats); err != nil {
			logger.Errorf(ctx, "failed to encode statistics: %v", err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}
	fmt.Printf("trace: %s\n", stats.Path)
	fmt.Printf("events: %d total, %d assembly load, %d method details, %d skipped\n",
		stats.TotalEvents, stats.AssemblyLoadEvents, stats.MethodDetailsEvents, stats.SkippedEvents)
	fmt.Printf("assemblies: %d\n", stats.AssemblyCount)
	fmt.Printf("methods: %d (%d with a measured JIT time)\n", stats.MethodCount, stats.JittedMethodCount)
	fmt.Printf("IL decoded: %s\n", humanize.IBytes(stats.TotalILBytes))
	fmt.Printf("native code emitted: %s\n", humanize.IBytes(stats.TotalNativeBytes))
	fmt.Printf("time spent jitting: %.2f ms\n", stats.TotalJitMS)
	return subcommands.ExitSuccess
}

func extractTraceStats(path string, c *catalog.Catalog) traceStats {
	return traceStats{
		Path:  filepath.Base(path),
		Stats: query.ExtractStats(c),
	}
}
