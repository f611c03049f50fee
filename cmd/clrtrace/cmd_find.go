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

type cmdFind struct{}

func (*cmdFind) Name() string {
	return "find"
}

func (*cmdFind) Synopsis() string {
	return "prints the methods of a recorded trace whose name matches a fragment"
}

func (*cmdFind) Usage() string {
	return `
clrtrace find <trace file> <name fragment>

Builds the method catalog for a recorded trace and prints every method
whose name or namespace contains the given fragment. Matching is
case-insensitive.
`
}

func (*cmdFind) SetFlags(_ *flag.FlagSet) {}

func (c *cmdFind) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) != 2 {
		logger.Errorf(ctx, "expected a trace file and a name fragment, got %d arguments", len(args))
		return subcommands.ExitUsage
	}
	trace, fragment := args[0], args[1]
	cat, err := buildCatalog(ctx, trace)
	if err != nil {
		logger.Errorf(ctx, "%v", err)
		return subcommands.ExitFailure
	}
	records := query.FindByName(cat, fragment)
	if len(records) == 0 {
		fmt.Printf("no methods matching %q in %s\n", fragment, filepath.Base(trace))
		return subcommands.ExitSuccess
	}
	title := fmt.Sprintf("Methods matching %q in %s", fragment, filepath.Base(trace))
	fmt.Print(report.Render(records, title))
	return subcommands.ExitSuccess
}
