// Copyright 2025 The clrtrace Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"

	"github.com/kr/pretty"

	"github.com/clrtrace/clrtrace/catalog"
	"github.com/clrtrace/clrtrace/eventpipe"
	"github.com/clrtrace/clrtrace/lib/logger"
)

// buildCatalog decodes a trace file and correlates it into a catalog.
func buildCatalog(ctx context.Context, path string) (*catalog.Catalog, error) {
	events, err := eventpipe.Events(path)
	if err != nil {
		return nil, err
	}
	c := catalog.Build(events)
	logger.Debugf(ctx, "built catalog for %s: %# v", path, pretty.Formatter(c.Counters))
	if c.Counters.SkippedEvents > 0 {
		logger.Warningf(ctx, "%d events in %s were skipped for missing identifiers", c.Counters.SkippedEvents, path)
	}
	return c, nil
}
