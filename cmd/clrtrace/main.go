// Copyright 2025 The clrtrace Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// clrtrace records .NET EventPipe startup traces and answers queries over
// them: the top methods by size, JIT time, or time to reach, and everything
// known about methods matching a name fragment.
package main

import (
	"context"
	"flag"
	"os"
	"syscall"

	"github.com/google/subcommands"

	"github.com/clrtrace/clrtrace/lib/color"
	"github.com/clrtrace/clrtrace/lib/command"
	"github.com/clrtrace/clrtrace/lib/logger"
)

var (
	colors = color.ColorAuto
	level  = logger.InfoLevel
)

func init() {
	flag.Var(&colors, "color", "use color in output, can be never, auto, always")
	flag.Var(&level, "level", "output verbosity, can be fatal, error, warning, info, debug or trace")
}

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(&cmdRecord{}, "")
	subcommands.Register(&cmdTop{}, "")
	subcommands.Register(&cmdFind{}, "")
	subcommands.Register(&cmdStats{}, "")
	subcommands.Register(&cmdWatch{}, "")

	flag.Parse()

	l := logger.NewLogger(level, color.NewColor(colors), os.Stdout, os.Stderr, "clrtrace ")
	ctx := logger.WithLogger(context.Background(), l)
	ctx = command.CancelOnSignals(ctx, syscall.SIGTERM, syscall.SIGINT)
	os.Exit(int(subcommands.Execute(ctx)))
}
