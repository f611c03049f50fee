// Copyright 2025 The clrtrace Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package query

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/clrtrace/clrtrace/catalog"
	"github.com/clrtrace/clrtrace/eventpipe"
)

func ids(records []*catalog.MethodRecord) []uint64 {
	var out []uint64
	for _, r := range records {
		out = append(out, r.MethodID)
	}
	return out
}

func sizes(records []*catalog.MethodRecord) []uint32 {
	var out []uint32
	for _, r := range records {
		if r.MethodSize != nil {
			out = append(out, *r.MethodSize)
		} else {
			out = append(out, 0)
		}
	}
	return out
}

func TestTopNBySize(t *testing.T) {
	// Two assembly loads and four methods sized 120, 80, 200, 50.
	c := catalog.Build([]eventpipe.Event{
		eventpipe.AssemblyLoad{AssemblyID: 1, Name: "System.Runtime"},
		eventpipe.AssemblyLoad{AssemblyID: 2, Name: "App"},
		eventpipe.MethodJitComplete{MethodID: 1, MethodSize: 120, Name: "A"},
		eventpipe.MethodJitComplete{MethodID: 2, MethodSize: 80, Name: "B"},
		eventpipe.MethodJitComplete{MethodID: 3, MethodSize: 200, Name: "C"},
		eventpipe.MethodJitComplete{MethodID: 4, MethodSize: 50, Name: "D"},
	})
	got, err := TopN(c, 2, Size)
	if err != nil {
		t.Fatalf("TopN failed: %v", err)
	}
	if diff := cmp.Diff([]uint32{200, 120}, sizes(got)); diff != "" {
		t.Errorf("TopN(2, Size) diff (-want +got):\n%s", diff)
	}
}

func TestTopNDeterminism(t *testing.T) {
	// Methods 2 and 3 tie on size; insertion order must break the tie the
	// same way on every call.
	c := catalog.Build([]eventpipe.Event{
		eventpipe.MethodJitComplete{MethodID: 1, MethodSize: 10},
		eventpipe.MethodJitComplete{MethodID: 2, MethodSize: 64},
		eventpipe.MethodJitComplete{MethodID: 3, MethodSize: 64},
		eventpipe.MethodJitComplete{MethodID: 4, MethodSize: 32},
	})
	first, err := TopN(c, 4, Size)
	if err != nil {
		t.Fatalf("TopN failed: %v", err)
	}
	if diff := cmp.Diff([]uint64{2, 3, 4, 1}, ids(first)); diff != "" {
		t.Errorf("TopN tie order diff (-want +got):\n%s", diff)
	}
	second, err := TopN(c, 4, Size)
	if err != nil {
		t.Fatalf("TopN failed: %v", err)
	}
	if diff := cmp.Diff(ids(first), ids(second)); diff != "" {
		t.Errorf("repeated TopN diverged (-first +second):\n%s", diff)
	}
}

func TestTopNBounds(t *testing.T) {
	c := catalog.Build([]eventpipe.Event{
		eventpipe.MethodJitComplete{MethodID: 1, MethodSize: 10},
		eventpipe.MethodJitComplete{MethodID: 2, MethodSize: 20},
	})
	tests := []struct {
		desc    string
		n       int
		wantLen int
	}{
		{desc: "n beyond catalog size returns all", n: 100, wantLen: 2},
		{desc: "n equal to catalog size", n: 2, wantLen: 2},
		{desc: "zero n returns none", n: 0, wantLen: 0},
		{desc: "negative n returns none", n: -3, wantLen: 0},
	}
	for _, test := range tests {
		t.Run(test.desc, func(t *testing.T) {
			got, err := TopN(c, test.n, Size)
			if err != nil {
				t.Fatalf("TopN failed: %v", err)
			}
			if len(got) != test.wantLen {
				t.Errorf("TopN returned %d records, want %d", len(got), test.wantLen)
			}
		})
	}
}

func TestTopNJitTimeUnknownRanksLast(t *testing.T) {
	c := catalog.Build([]eventpipe.Event{
		// 5ms of JIT time.
		eventpipe.MethodJitStart{MethodID: 1, TimestampMS: 0},
		eventpipe.MethodJitComplete{MethodID: 1, TimestampMS: 5},
		// Unknown duration: the start event never arrived. Display
		// would say 0.00, but ranking must put this last.
		eventpipe.MethodJitComplete{MethodID: 2, TimestampMS: 1},
		// 0.25ms of JIT time, a known value below every display zero.
		eventpipe.MethodJitStart{MethodID: 3, TimestampMS: 8},
		eventpipe.MethodJitComplete{MethodID: 3, TimestampMS: 8.25},
	})
	got, err := TopN(c, 3, JitTime)
	if err != nil {
		t.Fatalf("TopN failed: %v", err)
	}
	if diff := cmp.Diff([]uint64{1, 3, 2}, ids(got)); diff != "" {
		t.Errorf("TopN(JitTime) diff (-want +got):\n%s", diff)
	}
}

func TestTopNTimeToReach(t *testing.T) {
	c := catalog.Build([]eventpipe.Event{
		eventpipe.MethodJitComplete{MethodID: 1, TimestampMS: 5},
		eventpipe.MethodJitComplete{MethodID: 2, TimestampMS: 15},
		eventpipe.MethodJitComplete{MethodID: 3, TimestampMS: 10},
		// Start-only records have no completion timestamp and rank last.
		eventpipe.MethodJitStart{MethodID: 4, TimestampMS: 99},
	})
	got, err := TopN(c, 4, TimeToReach)
	if err != nil {
		t.Fatalf("TopN failed: %v", err)
	}
	if diff := cmp.Diff([]uint64{2, 3, 1, 4}, ids(got)); diff != "" {
		t.Errorf("TopN(TimeToReach) diff (-want +got):\n%s", diff)
	}
}

func TestTopNInvalidMetric(t *testing.T) {
	c := catalog.Build(nil)
	_, err := TopN(c, 5, Metric(99))
	if err == nil {
		t.Fatal("TopN accepted an unrecognized metric")
	}
	var invalid *InvalidQueryError
	if !errors.As(err, &invalid) {
		t.Fatalf("TopN returned %T, want *InvalidQueryError", err)
	}
}

func TestParseMetric(t *testing.T) {
	tests := []struct {
		in      string
		want    Metric
		wantErr bool
	}{
		{in: "size", want: Size},
		{in: "jittime", want: JitTime},
		{in: "timetoreach", want: TimeToReach},
		{in: "Size", want: Size},
		{in: "JITTIME", want: JitTime},
		{in: "speed", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, test := range tests {
		t.Run(test.in, func(t *testing.T) {
			got, err := ParseMetric(test.in)
			if test.wantErr {
				var invalid *InvalidQueryError
				if !errors.As(err, &invalid) {
					t.Fatalf("ParseMetric(%q) = %v, %v, want *InvalidQueryError", test.in, got, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMetric(%q) failed: %v", test.in, err)
			}
			if got != test.want {
				t.Errorf("ParseMetric(%q) = %v, want %v", test.in, got, test.want)
			}
		})
	}
}

func TestFindByName(t *testing.T) {
	c := catalog.Build([]eventpipe.Event{
		eventpipe.MethodJitComplete{MethodID: 1, Namespace: "App", Name: "Startup"},
		eventpipe.MethodJitComplete{MethodID: 2, Namespace: "App.Startup", Name: "Configure"},
		eventpipe.MethodJitComplete{MethodID: 3, Namespace: "App.Services", Name: "Resolve"},
		eventpipe.MethodJitComplete{MethodID: 4, Namespace: "System.Text", Name: "Append"},
	})
	tests := []struct {
		desc     string
		fragment string
		want     []uint64
	}{
		{
			desc:     "case-insensitive name and namespace matches",
			fragment: "startup",
			want:     []uint64{1, 2},
		},
		{
			desc:     "fragment spanning the namespace and name",
			fragment: "services.resolve",
			want:     []uint64{3},
		},
		{
			desc:     "catalog order is preserved",
			fragment: "app",
			want:     []uint64{1, 2, 3, 4},
		},
		{
			desc:     "no matches is a normal empty result",
			fragment: "definitely-absent",
			want:     nil,
		},
	}
	for _, test := range tests {
		t.Run(test.desc, func(t *testing.T) {
			got := FindByName(c, test.fragment)
			if diff := cmp.Diff(test.want, ids(got)); diff != "" {
				t.Errorf("FindByName(%q) diff (-want +got):\n%s", test.fragment, diff)
			}
		})
	}
}
