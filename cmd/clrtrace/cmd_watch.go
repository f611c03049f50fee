// Copyright 2025 The clrtrace Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/subcommands"

	"github.com/clrtrace/clrtrace/lib/logger"
	"github.com/clrtrace/clrtrace/query"
	"github.com/clrtrace/clrtrace/report"
)

type cmdWatch struct {
	n      int
	metric string
	settle time.Duration
}

func (*cmdWatch) Name() string {
	return "watch"
}

func (*cmdWatch) Synopsis() string {
	return "watches a directory and reports on each new trace file"
}

func (*cmdWatch) Usage() string {
	return `
clrtrace watch [flags...] <directory>

Watches a directory for new .nettrace files and prints the top methods
of each one once it stops growing. Useful next to a recorder that drops
traces into a spool directory.

flags:
`
}

func (c *cmdWatch) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.n, "n", 10, "number of methods to print per trace")
	f.StringVar(&c.metric, "metric", "size", "ranking metric, can be size, jittime or timetoreach")
	f.DurationVar(&c.settle, "settle", 2*time.Second, "how long a trace must go unwritten before it is reported")
}

func (c *cmdWatch) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) != 1 {
		logger.Errorf(ctx, "expected exactly one directory to watch, got %d arguments", len(args))
		return subcommands.ExitUsage
	}
	metric, err := query.ParseMetric(c.metric)
	if err != nil {
		logger.Errorf(ctx, "%v", err)
		return subcommands.ExitUsage
	}
	if err := c.watch(ctx, args[0], metric); err != nil {
		logger.Errorf(ctx, "%v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (c *cmdWatch) watch(ctx context.Context, dir string, metric query.Metric) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	logger.Infof(ctx, "watching %s for new traces", dir)

	pending := newPendingTraces(c.settle)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 || filepath.Ext(ev.Name) != ".nettrace" {
				continue
			}
			pending.touch(ev.Name, time.Now())
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Errorf(ctx, "watching %s: %v", dir, err)
		case now := <-ticker.C:
			for _, path := range pending.ready(now) {
				c.report(ctx, path, metric)
			}
		}
	}
}

func (c *cmdWatch) report(ctx context.Context, path string, metric query.Metric) {
	cat, err := buildCatalog(ctx, path)
	if err != nil {
		logger.Warningf(ctx, "skipping %s: %v", path, err)
		return
	}
	records, err := query.TopN(cat, c.n, metric)
	if err != nil {
		logger.Errorf(ctx, "%v", err)
		return
	}
	title := fmt.Sprintf("Top %d methods by %s in %s", len(records), metric, filepath.Base(path))
	fmt.Print(report.Render(records, title))
}

// pendingTraces tracks trace files still being written. The recorder streams
// nettrace bytes, so acting on the first create would read a truncated
// container; a trace is ready once no write has touched it for one settle
// window.
type pendingTraces struct {
	settle    time.Duration
	lastWrite map[string]time.Time
}

func newPendingTraces(settle time.Duration) *pendingTraces {
	return &pendingTraces{settle: settle, lastWrite: make(map[string]time.Time)}
}

func (p *pendingTraces) touch(path string, now time.Time) {
	p.lastWrite[path] = now
}

// ready returns the traces whose last write is at least one settle window
// old, removing them from the pending set. Paths come back sorted so output
// order is stable when several traces settle on the same tick.
func (p *pendingTraces) ready(now time.Time) []string {
	var paths []string
	for path, last := range p.lastWrite {
		if now.Sub(last) >= p.settle {
			paths = append(paths, path)
		}
	}
	for _, path := range paths {
		delete(p.lastWrite, path)
	}
	sort.Strings(paths)
	return paths
}
