// Copyright 2025 The clrtrace Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package capture records EventPipe traces from a running .NET process over
// its diagnostics IPC socket.
package capture

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/pyroscope-io/dotnetdiag"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/clrtrace/clrtrace/lib/logger"
)

// RuntimeProvider is the in-process provider carrying loader and JIT events.
const RuntimeProvider = "Microsoft-Windows-DotNETRuntime"

// Runtime provider keyword bits and the level at which method name fields
// are included.
const (
	LoaderKeyword uint64 = 0x8
	JitKeyword    uint64 = 0x10
	VerboseLevel  uint32 = 5
)

// Stubbable in test.
var tempDir = os.TempDir

// DiagnosticSocket locates the diagnostics IPC socket of a running .NET
// process. The runtime names its socket after the pid plus a disambiguator;
// when a pid has more than one (left over from a restarted runtime), the
// newest wins.
func DiagnosticSocket(pid int) (string, error) {
	pattern := filepath.Join(tempDir(), fmt.Sprintf("dotnet-diagnostic-%d-*-socket", pid))
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return "", fmt.Errorf("globbing %q: %w", pattern, err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no diagnostics socket for pid %d; is it a running .NET process?", pid)
	}
	sort.Strings(matches)
	return matches[len(matches)-1], nil
}

// Options configures one recording session.
type Options struct {
	// Pid of the .NET process to trace.
	Pid int
	// Output is the local path the nettrace bytes are written to.
	Output string
	// Duration bounds the session; zero means record until ctx is done.
	Duration time.Duration
	// BufferMB sizes the runtime's in-process event buffer.
	BufferMB uint32
	// Providers to enable; empty means the default profile.
	Providers []ProviderConfig
}

// Record streams a live EventPipe session to opts.Output until the duration
// elapses or ctx is canceled, whichever comes first.
func Record(ctx context.Context, opts Options) (err error) {
	socket, err := DiagnosticSocket(opts.Pid)
	if err != nil {
		return err
	}
	providers := opts.Providers
	if len(providers) == 0 {
		providers = DefaultProfile().Providers
	}
	config := dotnetdiag.CollectTracingConfig{
		CircularBufferSizeMB: opts.BufferMB,
	}
	for _, p := range providers {
		config.Providers = append(config.Providers, dotnetdiag.ProviderConfig{
			ProviderName: p.Name,
			Keywords:     p.Keywords,
			LogLevel:     p.Level,
		})
	}

	client := dotnetdiag.NewClient(socket)
	session, err := client.CollectTracing(config)
	if err != nil {
		return fmt.Errorf("starting tracing session on %q: %w", socket, err)
	}
	logger.Debugf(ctx, "tracing session started on %q with %d providers", socket, len(config.Providers))

	out, err := os.Create(opts.Output)
	if err != nil {
		err = multierr.Append(err, session.Close())
		return err
	}
	defer func() {
		err = multierr.Append(err, out.Close())
	}()

	if opts.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Duration)
		defer cancel()
	}

	// The stop goroutine closes the session when the deadline hits or the
	// stream drains on its own; closing makes the runtime flush its buffer
	// and finish the stream, which in turn lets the copy goroutine see EOF.
	drained := make(chan struct{})
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(drained)
		n, err := io.Copy(out, session)
		logger.Debugf(ctx, "wrote %d trace bytes from pid %d to %s", n, opts.Pid, opts.Output)
		if err != nil {
			return fmt.Errorf("streaming trace from pid %d: %w", opts.Pid, err)
		}
		return nil
	})
	g.Go(func() error {
		select {
		case <-gctx.Done():
		case <-drained:
		}
		if cerr := session.Close(); cerr != nil {
			logger.Debugf(ctx, "stopping tracing session: %v", cerr)
		}
		return nil
	})
	return g.Wait()
}
