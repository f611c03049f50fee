// Copyright 2025 The clrtrace Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestPendingTraces(t *testing.T) {
	start := time.Now()
	p := newPendingTraces(2 * time.Second)

	p.touch("/traces/b.nettrace", start)
	p.touch("/traces/a.nettrace", start)
	if got := p.ready(start.Add(time.Second)); got != nil {
		t.Errorf("ready() before the settle window = %v, want none", got)
	}

	// A write inside the window pushes b back out.
	p.touch("/traces/b.nettrace", start.Add(time.Second))
	got := p.ready(start.Add(2 * time.Second))
	want := []string{"/traces/a.nettrace"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ready() diff (-want +got):\n%s", diff)
	}

	got = p.ready(start.Add(3 * time.Second))
	want = []string{"/traces/b.nettrace"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ready() diff (-want +got):\n%s", diff)
	}
	if got := p.ready(start.Add(10 * time.Second)); got != nil {
		t.Errorf("ready() after draining = %v, want none", got)
	}
}

func TestPendingTracesSortsReadyPaths(t *testing.T) {
	start := time.Now()
	p := newPendingTraces(time.Second)
	p.touch("/traces/c.nettrace", start)
	p.touch("/traces/a.nettrace", start)
	p.touch("/traces/b.nettrace", start)
	want := []string{"/traces/a.nettrace", "/traces/b.nettrace", "/traces/c.nettrace"}
	if diff := cmp.Diff(want, p.ready(start.Add(time.Second))); diff != "" {
		t.Errorf("ready() diff (-want +got):\n%s", diff)
	}
}
