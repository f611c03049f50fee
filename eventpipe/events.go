// Copyright 2025 The clrtrace Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package eventpipe

// Provenance says which process, thread and provider an event came from.
// It is kept for diagnostic display only.
type Provenance struct {
	ProcessID int
	ThreadID  int64
	Provider  string
}

// Event is one decoded runtime event. The concrete types are AssemblyLoad,
// MethodJitStart and MethodJitComplete; everything else in a trace is
// dropped by the adapter.
type Event interface {
	isEvent()
}

// AssemblyLoad records an assembly becoming available in the process.
// A single event carries all facts, so re-delivery simply replaces them.
type AssemblyLoad struct {
	AssemblyID  uint64
	AppDomainID uint64
	BindingID   uint64
	Flags       uint32
	Name        string
	TimestampMS float64
	Provenance
}

// MethodJitStart records the JIT compiler picking up a method. An ILSize of
// zero means the runtime did not report one.
type MethodJitStart struct {
	MethodID    uint64
	ILSize      uint32
	TimestampMS float64
	Provenance
}

// MethodJitComplete records a method's native code being ready. This is the
// event that names the method.
type MethodJitComplete struct {
	MethodID    uint64
	ModuleID    uint64
	MethodSize  uint32
	Namespace   string
	Name        string
	Signature   string
	Tier        string
	TimestampMS float64
	Provenance
}

func (AssemblyLoad) isEvent()      {}
func (MethodJitStart) isEvent()    {}
func (MethodJitComplete) isEvent() {}

// Optimization tier names indexed by the tier bits of a method's flags.
var tierNames = [...]string{
	"Unknown",
	"MinOptJitted",
	"Optimized",
	"QuickJitted",
	"OptimizedTier1",
	"ReadyToRun",
	"OptimizedTier1OSR",
	"QuickJittedInstrumented",
}

// TierFromFlags decodes the optimization tier the runtime packs into bits
// 7-9 of a method's flags.
func TierFromFlags(flags uint32) string {
	return tierNames[(flags>>7)&0x7]
}
