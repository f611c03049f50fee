// Copyright 2025 The clrtrace Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package eventpipe translates captured .NET EventPipe traces into the three
// typed runtime events the catalog correlates: assembly loads, method JIT
// starts and method JIT completions. Container decoding is delegated to the
// nettrace library; this package only parses the runtime provider payloads.
package eventpipe

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pyroscope-io/dotnetdiag/nettrace"
)

// runtimeProvider is the in-process provider carrying loader and JIT events.
const runtimeProvider = "Microsoft-Windows-DotNETRuntime"

// Runtime provider event identifiers, from the provider manifest.
const (
	methodLoadVerboseID    = 143
	methodJittingStartedID = 145
	assemblyLoadID         = 154
)

// DecodeError reports a trace artifact that is missing, unreadable, or not
// a recognized trace container.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding trace %q: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Events decodes the trace file at path into runtime events, in the order
// the capture recorded them. Blobs from other providers and other event
// types are dropped. All failures surface as a *DecodeError.
func Events(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	defer f.Close()
	events, err := decode(f)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	return events, nil
}

func decode(r io.Reader) ([]Event, error) {
	stream := nettrace.NewStream(r)
	trace, err := stream.Open()
	if err != nil {
		return nil, fmt.Errorf("opening trace container: %w", err)
	}
	clock := qpcClock{sync: int64(trace.SyncTimeQPC), frequency: int64(trace.QPCFrequency)}
	pid := int(trace.ProcessID)

	var events []Event
	metadata := map[int32]*nettrace.Metadata{}
	stream.MetadataHandler = func(md *nettrace.Metadata) error {
		metadata[md.Header.MetaID] = md
		return nil
	}
	stream.EventHandler = func(blob *nettrace.Blob) error {
		md, ok := metadata[blob.Header.MetadataID]
		if !ok || md.Header.ProviderName != runtimeProvider {
			return nil
		}
		if ev := translate(md, blob, clock, pid); ev != nil {
			events = append(events, ev)
		}
		return nil
	}
	stream.StackBlockHandler = func(*nettrace.StackBlock) error { return nil }
	stream.SequencePointBlockHandler = func(*nettrace.SequencePointBlock) error { return nil }

	for {
		if err := stream.Next(); err != nil {
			if errors.Is(err, io.EOF) {
				return events, nil
			}
			return nil, fmt.Errorf("reading trace blocks: %w", err)
		}
	}
}

// translate turns one runtime provider blob into a typed event. Malformed
// payloads come back as the zero-identifier event of their type so the
// catalog can count the skip; event types we don't correlate come back nil.
func translate(md *nettrace.Metadata, blob *nettrace.Blob, clock qpcClock, pid int) Event {
	prov := Provenance{
		ProcessID: pid,
		ThreadID:  blob.Header.ThreadID,
		Provider:  md.Header.ProviderName,
	}
	ts := clock.ms(blob.Header.TimeStamp)
	payload := blob.Payload.Bytes()

	switch md.Header.EventID {
	case assemblyLoadID:
		ev, _ := parseAssemblyLoad(payload, md.Header.Version)
		ev.TimestampMS = ts
		ev.Provenance = prov
		return ev
	case methodJittingStartedID:
		ev, _ := parseMethodJitStart(payload)
		ev.TimestampMS = ts
		ev.Provenance = prov
		return ev
	case methodLoadVerboseID:
		ev, _ := parseMethodJitComplete(payload)
		ev.TimestampMS = ts
		ev.Provenance = prov
		return ev
	}
	return nil
}

// qpcClock converts the QPC tick stamps events carry to milliseconds
// relative to the trace sync point.
type qpcClock struct {
	sync      int64
	frequency int64
}

func (c qpcClock) ms(ticks int64) float64 {
	if c.frequency == 0 {
		return 0
	}
	return float64(ticks-c.sync) / float64(c.frequency) * 1e3
}
