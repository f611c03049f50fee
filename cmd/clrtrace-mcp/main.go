// Copyright 2025 The clrtrace Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// clrtrace-mcp serves the clrtrace queries as MCP-style tools over
// HTTP+JSON so coding agents can ask questions about recorded traces.
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/clrtrace/clrtrace/lib/color"
	"github.com/clrtrace/clrtrace/lib/command"
	"github.com/clrtrace/clrtrace/lib/logger"
)

const shutdownGrace = 5 * time.Second

type serverArgs struct {
	port    int
	verbose bool
}

func parseArgs(args []string) (*serverArgs, error) {
	cmd := &serverArgs{}
	flagSet := flag.NewFlagSet("clrtrace-mcp", flag.ContinueOnError)
	flagSet.IntVar(&cmd.port, "port", 8090, "port to serve the tool API on")
	flagSet.BoolVar(&cmd.verbose, "verbose", false, "log at debug level")
	if err := flagSet.Parse(args); err != nil {
		return nil, err
	}
	if flagSet.NArg() != 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", flagSet.Args())
	}
	return cmd, nil
}

func main() {
	ctx := command.CancelOnSignals(context.Background(), syscall.SIGTERM, syscall.SIGINT)

	l := logger.NewLogger(logger.InfoLevel, color.NewColor(color.ColorAuto), os.Stdout, os.Stderr, "clrtrace-mcp ")
	ctx = logger.WithLogger(ctx, l)

	if err := mainImpl(ctx); err != nil {
		if ctx.Err() == nil {
			logger.Errorf(ctx, err.Error())
		}
		os.Exit(1)
	}
}

func mainImpl(ctx context.Context) error {
	args, err := parseArgs(os.Args[1:])
	if err != nil {
		return err
	}
	if args.verbose {
		if l := logger.LoggerFromContext(ctx); l != nil {
			l.LoggerLevel = logger.DebugLevel
		}
	}
	return serve(ctx, args.port)
}

func serve(ctx context.Context, port int) error {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return err
	}
	logger.Infof(ctx, "serving clrtrace tools on %s", listener.Addr())

	mux := newServer().routes(ctx)
	httpServer := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.Debugf(ctx, "%s %s", r.Method, r.URL.Path)
			mux.ServeHTTP(w, r)
		}),
	}

	errs := make(chan error, 1)
	go func() {
		if err := httpServer.Serve(listener); err != http.ErrServerClosed {
			errs <- err
		}
	}()
	select {
	case <-ctx.Done():
		logger.Infof(ctx, "shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errs:
		return err
	}
}
