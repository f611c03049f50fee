// Copyright 2025 The clrtrace Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"

	"github.com/google/subcommands"

	"github.com/clrtrace/clrtrace/lib/logger"
	"github.com/clrtrace/clrtrace/query"
	"github.com/clrtrace/clrtrace/report"
)

type cmdTop struct {
	n      int
	metric string
}

func (*cmdTop) Name() string {
	return "top"
}

func (*cmdTop) Synopsis() string {
	return "prints the top methods of a recorded trace by a metric"
}

func (*cmdTop) Usage() string {
	return `
clrtrace top [flags...] <trace file>

Builds the method catalog for a recorded trace and prints the highest
ranking methods under the chosen metric.

flags:
`
}

func (c *cmdTop) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.n, "n", 10, "number of methods to print")
	f.StringVar(&c.metric, "metric", "size", "ranking metric, can be size, jittime or timetoreach")
}

func (c *cmdTop) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) != 1 {
		logger.Errorf(ctx, "expected exactly one trace file, got %d arguments", len(args))
		return subcommands.ExitUsage
	}
	metric, err := query.ParseMetric(c.metric)
	if err != nil {
		logger.Errorf(ctx, "%v", err)
		return subcommands.ExitUsage
	}
	cat, err := buildCatalog(ctx, args[0])
	if err != nil {
		logger.Errorf(ctx, "%v", err)
		return subcommands.ExitFailure
	}
	records, err := query.TopN(cat, c.n, metric)
	if err != nil {
		logger.Errorf(ctx, "%v", err)
		return subcommands.ExitFailure
	}
	title := fmt.Sprintf("Top %d methods by %s in %s", len(records), metric, filepath.Base(args[0]))
	fmt.Print(report.Render(records, title))
	return subcommands.ExitSuccess
}
