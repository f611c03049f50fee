// Copyright 2025 The clrtrace Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package eventpipe

import (
	"encoding/binary"
	"unicode/utf16"
)

// payloadReader walks the little-endian field encoding used by runtime
// provider event payloads. A read past the end marks the reader failed and
// all subsequent reads return zero values.
type payloadReader struct {
	buf    []byte
	off    int
	failed bool
}

func (r *payloadReader) uint16() uint16 {
	if r.failed || r.off+2 > len(r.buf) {
		r.failed = true
		return 0
	}
	v := binary.LittleEndian.Uint16(r.buf[r.off:])
	r.off += 2
	return v
}

func (r *payloadReader) uint32() uint32 {
	if r.failed || r.off+4 > len(r.buf) {
		r.failed = true
		return 0
	}
	v := binary.LittleEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v
}

func (r *payloadReader) uint64() uint64 {
	if r.failed || r.off+8 > len(r.buf) {
		r.failed = true
		return 0
	}
	v := binary.LittleEndian.Uint64(r.buf[r.off:])
	r.off += 8
	return v
}

// utf16String reads a NUL-terminated UTF-16LE string. A missing terminator
// fails the reader.
func (r *payloadReader) utf16String() string {
	var units []uint16
	for {
		u := r.uint16()
		if r.failed {
			return ""
		}
		if u == 0 {
			return string(utf16.Decode(units))
		}
		units = append(units, u)
	}
}

func (r *payloadReader) ok() bool {
	return !r.failed
}

// parseAssemblyLoad decodes an AssemblyLoad payload. Version 1 of the event
// inserted a binding identifier between the app domain identifier and the
// flags.
func parseAssemblyLoad(data []byte, version int32) (AssemblyLoad, bool) {
	r := payloadReader{buf: data}
	ev := AssemblyLoad{}
	ev.AssemblyID = r.uint64()
	ev.AppDomainID = r.uint64()
	if version >= 1 {
		ev.BindingID = r.uint64()
	}
	ev.Flags = r.uint32()
	ev.Name = r.utf16String()
	if !r.ok() {
		return AssemblyLoad{}, false
	}
	return ev, true
}

// parseMethodJitStart decodes a MethodJittingStarted payload up to the IL
// size; the trailing name fields are not needed here since the completion
// event repeats them.
func parseMethodJitStart(data []byte) (MethodJitStart, bool) {
	r := payloadReader{buf: data}
	ev := MethodJitStart{}
	ev.MethodID = r.uint64()
	r.uint64() // module identifier
	r.uint32() // method token
	ev.ILSize = r.uint32()
	if !r.ok() {
		return MethodJitStart{}, false
	}
	return ev, true
}

// parseMethodJitComplete decodes a MethodLoadVerbose payload.
func parseMethodJitComplete(data []byte) (MethodJitComplete, bool) {
	r := payloadReader{buf: data}
	ev := MethodJitComplete{}
	ev.MethodID = r.uint64()
	ev.ModuleID = r.uint64()
	r.uint64() // native start address
	ev.MethodSize = r.uint32()
	r.uint32() // method token
	flags := r.uint32()
	ev.Namespace = r.utf16String()
	ev.Name = r.utf16String()
	ev.Signature = r.utf16String()
	if !r.ok() {
		return MethodJitComplete{}, false
	}
	ev.Tier = TierFromFlags(flags)
	return ev, true
}
