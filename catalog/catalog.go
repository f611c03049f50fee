// Copyright 2025 The clrtrace Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package catalog correlates a decoded runtime event stream into per-method
// and per-assembly records. A catalog is built in a single pass and is
// immutable afterwards, so any number of queries can read it concurrently.
package catalog

import (
	"github.com/clrtrace/clrtrace/eventpipe"
)

// MethodRecord accumulates everything observed about one method. Facts
// arrive on two different event types, so each optional field stays nil
// until the event that reports it shows up. Zero is a legitimate value for
// the sizes and timestamps; nil is the only "never reported" marker.
type MethodRecord struct {
	// MethodID is the catalog key. It never changes after creation.
	MethodID uint64

	// Set by the JIT start event.
	ILSize     *uint32
	JitStartMS *float64

	// Set by the JIT completion event.
	JitEndMS    *float64
	ModuleID    uint64
	MethodSize  *uint32
	Namespace   string
	Name        string
	Signature   string
	Tier        string
	TimestampMS *float64

	// Provenance, for diagnostic display only.
	ProcessID int
	ThreadID  int64
	Provider  string
}

// JitDurationMS returns the time the JIT compiler spent on the method. The
// duration is known only when both endpoints were observed and the
// difference is positive; ok reports that. Callers must not substitute zero
// for an unknown duration when ranking.
func (m *MethodRecord) JitDurationMS() (float64, bool) {
	if m.JitStartMS == nil || m.JitEndMS == nil {
		return 0, false
	}
	d := *m.JitEndMS - *m.JitStartMS
	if d <= 0 {
		return 0, false
	}
	return d, true
}

// DisplayName returns the namespace-qualified name with the signature
// appended, the form reports and searches present to users.
func (m *MethodRecord) DisplayName() string {
	return m.Namespace + "." + m.Name + "." + m.Signature
}

// AssemblyRecord holds the facts of one assembly load. A single event
// populates all of them; a re-load replaces the facts but keeps the
// record's insertion slot.
type AssemblyRecord struct {
	AssemblyID  uint64
	AppDomainID uint64
	BindingID   uint64
	Flags       uint32
	Name        string
	TimestampMS float64

	ProcessID int
	ThreadID  int64
	Provider  string
}

// Counters reports how many events of each kind went into a catalog.
type Counters struct {
	// TotalEvents counts every event handed to Build.
	TotalEvents int
	// AssemblyLoadEvents counts well-formed assembly load events.
	AssemblyLoadEvents int
	// MethodDetailsEvents counts well-formed JIT completion events.
	MethodDetailsEvents int
	// SkippedEvents counts events dropped for a missing identifier.
	SkippedEvents int
}

// Catalog is the queryable result of correlating one event stream. Records
// are kept in first-sight order so downstream consumers are deterministic.
type Catalog struct {
	methods      []*MethodRecord
	methodByID   map[uint64]*MethodRecord
	assemblies   []*AssemblyRecord
	assemblyByID map[uint64]*AssemblyRecord

	Counters Counters
}

// Build correlates events, in delivered order, into a new Catalog. Events
// with a zero identifier are skipped and counted; nothing else fails, so
// Build has no error to return.
func Build(events []eventpipe.Event) *Catalog {
	c := &Catalog{
		methodByID:   map[uint64]*MethodRecord{},
		assemblyByID: map[uint64]*AssemblyRecord{},
	}
	for _, ev := range events {
		c.Counters.TotalEvents++
		switch ev := ev.(type) {
		case eventpipe.AssemblyLoad:
			if ev.AssemblyID == 0 {
				c.Counters.SkippedEvents++
				continue
			}
			c.Counters.AssemblyLoadEvents++
			c.assembly(ev.AssemblyID).set(ev)
		case eventpipe.MethodJitStart:
			if ev.MethodID == 0 {
				c.Counters.SkippedEvents++
				continue
			}
			c.method(ev.MethodID).setStart(ev)
		case eventpipe.MethodJitComplete:
			if ev.MethodID == 0 {
				c.Counters.SkippedEvents++
				continue
			}
			c.Counters.MethodDetailsEvents++
			c.method(ev.MethodID).setComplete(ev)
		}
	}
	return c
}

// method returns the record for id, creating it on first sight. Start and
// completion events may arrive in either order; whichever comes first
// creates the record.
func (c *Catalog) method(id uint64) *MethodRecord {
	if r, ok := c.methodByID[id]; ok {
		return r
	}
	r := &MethodRecord{MethodID: id}
	c.methodByID[id] = r
	c.methods = append(c.methods, r)
	return r
}

func (c *Catalog) assembly(id uint64) *AssemblyRecord {
	if r, ok := c.assemblyByID[id]; ok {
		return r
	}
	r := &AssemblyRecord{}
	c.assemblyByID[id] = r
	c.assemblies = append(c.assemblies, r)
	return r
}

func (r *AssemblyRecord) set(ev eventpipe.AssemblyLoad) {
	*r = AssemblyRecord{
		AssemblyID:  ev.AssemblyID,
		AppDomainID: ev.AppDomainID,
		BindingID:   ev.BindingID,
		Flags:       ev.Flags,
		Name:        ev.Name,
		TimestampMS: ev.TimestampMS,
		ProcessID:   ev.ProcessID,
		ThreadID:    ev.ThreadID,
		Provider:    ev.Provider,
	}
}

func (r *MethodRecord) setStart(ev eventpipe.MethodJitStart) {
	start := ev.TimestampMS
	r.JitStartMS = &start
	// A zero IL size means "not reported" and stays unset rather than
	// being stored as a real zero.
	if ev.ILSize > 0 {
		il := ev.ILSize
		r.ILSize = &il
	}
}

func (r *MethodRecord) setComplete(ev eventpipe.MethodJitComplete) {
	end := ev.TimestampMS
	reached := ev.TimestampMS
	size := ev.MethodSize
	r.JitEndMS = &end
	r.TimestampMS = &reached
	r.ModuleID = ev.ModuleID
	r.MethodSize = &size
	r.Namespace = ev.Namespace
	r.Name = ev.Name
	r.Signature = ev.Signature
	r.Tier = ev.Tier
	r.ProcessID = ev.ProcessID
	r.ThreadID = ev.ThreadID
	r.Provider = ev.Provider
}

// Methods returns the method records in first-sight order. The returned
// slice is catalog-owned; callers must not mutate it.
func (c *Catalog) Methods() []*MethodRecord {
	return c.methods
}

// Assemblies returns the assembly records in first-sight order. The
// returned slice is catalog-owned; callers must not mutate it.
func (c *Catalog) Assemblies() []*AssemblyRecord {
	return c.assemblies
}

// Method returns the record for a method identifier.
func (c *Catalog) Method(id uint64) (*MethodRecord, bool) {
	r, ok := c.methodByID[id]
	return r, ok
}

// Assembly returns the record for an assembly identifier.
func (c *Catalog) Assembly(id uint64) (*AssemblyRecord, bool) {
	r, ok := c.assemblyByID[id]
	return r, ok
}
