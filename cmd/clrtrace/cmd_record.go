// Copyright 2025 The clrtrace Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/subcommands"

	"github.com/clrtrace/clrtrace/capture"
	"github.com/clrtrace/clrtrace/lib/gcsupload"
	"github.com/clrtrace/clrtrace/lib/logger"
	"github.com/clrtrace/clrtrace/target"
)

const sshTimeout = 30 * time.Second

type cmdRecord struct {
	pid        int
	duration   time.Duration
	bufferMB   uint
	output     string
	configPath string
	profile    string
	upload     string

	targetHost string
	sshUser    string
	sshKey     string
	sshPort    int
	remoteCmd  string
	keepRemote bool
}

func (*cmdRecord) Name() string {
	return "record"
}

func (*cmdRecord) Synopsis() string {
	return "records an EventPipe trace from a running .NET process"
}

func (*cmdRecord) Usage() string {
	return `
clrtrace record [flags...]

Records an EventPipe trace. With -pid the session is opened on this
machine over the process's diagnostics socket; with -target the
collection command runs on another host over SSH and the resulting
file is fetched back.

flags:
`
}

func (c *cmdRecord) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.pid, "pid", 0, "pid of the .NET process to trace")
	f.DurationVar(&c.duration, "duration", 0, "how long to record; 0 records until interrupted")
	f.UintVar(&c.bufferMB, "buffer-mb", 256, "size of the runtime's event buffer in MiB")
	f.StringVar(&c.output, "o", "", "output file (defaults to trace-<timestamp>.nettrace)")
	f.StringVar(&c.configPath, "config", "", "path to a YAML capture profiles file")
	f.StringVar(&c.profile, "profile", "", "profile to enable from the -config file")
	f.StringVar(&c.upload, "upload", "", "gs:// URL to archive the trace to after recording")
	f.StringVar(&c.targetHost, "target", "", "capture host to collect the trace on instead of this machine")
	f.StringVar(&c.sshUser, "ssh-user", "", "user to ssh into -target as")
	f.StringVar(&c.sshKey, "ssh-key", "", "private key to ssh into -target with")
	f.IntVar(&c.sshPort, "ssh-port", 22, "ssh port on -target")
	f.StringVar(&c.remoteCmd, "remote-cmd", "", "collection command to run on -target; {output} is replaced with the remote trace path")
	f.BoolVar(&c.keepRemote, "keep-remote", false, "keep the trace file on -target after fetching it")
}

func (c *cmdRecord) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if len(f.Args()) != 0 {
		logger.Errorf(ctx, "unexpected arguments: %v", f.Args())
		return subcommands.ExitUsage
	}
	if err := c.validate(); err != nil {
		logger.Errorf(ctx, "%v", err)
		return subcommands.ExitUsage
	}
	if err := c.execute(ctx); err != nil {
		logger.Errorf(ctx, "%v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (c *cmdRecord) validate() error {
	if c.targetHost != "" {
		if c.remoteCmd == "" {
			return fmt.Errorf("-remote-cmd is required with -target")
		}
		if c.sshUser == "" || c.sshKey == "" {
			return fmt.Errorf("-ssh-user and -ssh-key are required with -target")
		}
		return nil
	}
	if c.pid <= 0 {
		return fmt.Errorf("-pid is required to record a local process")
	}
	return nil
}

func (c *cmdRecord) execute(ctx context.Context) error {
	out := c.output
	if out == "" {
		out = fmt.Sprintf("trace-%s.nettrace", time.Now().Format("20060102150405"))
	}
	if c.targetHost != "" {
		if err := c.recordRemote(ctx, out); err != nil {
			return err
		}
	} else {
		providers, err := c.providers()
		if err != nil {
			return err
		}
		logger.Infof(ctx, "recording pid %d to %s", c.pid, out)
		if err := capture.Record(ctx, capture.Options{
			Pid:       c.pid,
			Output:    out,
			Duration:  c.duration,
			BufferMB:  uint32(c.bufferMB),
			Providers: providers,
		}); err != nil {
			return err
		}
	}
	logger.Infof(ctx, "wrote %s", out)

	if c.upload == "" {
		return nil
	}
	dst, err := gcsupload.ParseURL(c.upload)
	if err != nil {
		return err
	}
	url, err := gcsupload.Upload(ctx, dst, out)
	if err != nil {
		return fmt.Errorf("archiving %s: %w", out, err)
	}
	logger.Infof(ctx, "archived trace at %s", url)
	return nil
}

// providers resolves the -config and -profile flags. A nil return means the
// capture package's default profile.
func (c *cmdRecord) providers() ([]capture.ProviderConfig, error) {
	if c.configPath == "" {
		if c.profile != "" {
			return nil, fmt.Errorf("-profile needs -config")
		}
		return nil, nil
	}
	config, err := capture.LoadConfig(c.configPath)
	if err != nil {
		return nil, err
	}
	name := c.profile
	if name == "" {
		name = "default"
	}
	p, ok := config.Profile(name)
	if !ok {
		return nil, fmt.Errorf("no profile %q in %s", name, c.configPath)
	}
	return p.Providers, nil
}

func (c *cmdRecord) recordRemote(ctx context.Context, out string) error {
	conn, err := target.Connect(target.Options{
		Host:    c.targetHost,
		Port:    c.sshPort,
		User:    c.sshUser,
		KeyFile: c.sshKey,
		Timeout: sshTimeout,
	})
	if err != nil {
		return err
	}
	defer conn.Close()

	remotePath := "/tmp/" + filepath.Base(out)
	argv, err := target.ParseCommand(c.remoteCmd, remotePath)
	if err != nil {
		return err
	}
	logger.Infof(ctx, "collecting on %s: %s", c.targetHost, target.JoinCommand(argv))
	if err := conn.RunCommand(ctx, argv); err != nil {
		return err
	}
	if err := conn.GetFile(ctx, remotePath, out); err != nil {
		return err
	}
	if c.keepRemote {
		return nil
	}
	if err := conn.RemoveFile(ctx, remotePath); err != nil {
		logger.Warningf(ctx, "leaving %s behind on %s: %v", remotePath, c.targetHost, err)
	}
	return nil
}
