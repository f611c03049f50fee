// Copyright 2025 The clrtrace Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package query answers ranked and filtered lookups over a built catalog.
// Both operations are pure reads; results reference catalog-owned records.
package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/clrtrace/clrtrace/catalog"
)

// Metric selects the ranking key used by TopN.
type Metric int

const (
	// Size ranks by native code size.
	Size Metric = iota
	// JitTime ranks by JIT duration. Methods whose duration is unknown
	// sort strictly below every known value; they are never treated as
	// zero during comparison even though reports display them as 0.00.
	JitTime
	// TimeToReach ranks by the completion timestamp, most recently
	// reached first.
	TimeToReach
)

var metricNames = map[Metric]string{
	Size:        "size",
	JitTime:     "jittime",
	TimeToReach: "timetoreach",
}

func (m Metric) String() string {
	if name, ok := metricNames[m]; ok {
		return name
	}
	return fmt.Sprintf("metric(%d)", int(m))
}

// ParseMetric maps a metric name, as accepted on command lines and in tool
// calls, to its Metric. Matching ignores case.
func ParseMetric(s string) (Metric, error) {
	for m, name := range metricNames {
		if name == strings.ToLower(s) {
			return m, nil
		}
	}
	return 0, &InvalidQueryError{Metric: s}
}

// InvalidQueryError reports an unrecognized metric selector. It is raised
// before any catalog work happens.
type InvalidQueryError struct {
	Metric string
}

func (e *InvalidQueryError) Error() string {
	return fmt.Sprintf("invalid query: unknown metric %q (valid metrics: size, jittime, timetoreach)", e.Metric)
}

// metricKeys is the comparator table for TopN. Each key returns the record's
// value under the metric and whether that value is known. The table must
// stay exhaustive over the Metric constants; TopN rejects anything missing
// from it rather than defaulting.
var metricKeys = map[Metric]func(*catalog.MethodRecord) (float64, bool){
	Size: func(r *catalog.MethodRecord) (float64, bool) {
		if r.MethodSize == nil {
			return 0, false
		}
		return float64(*r.MethodSize), true
	},
	JitTime: func(r *catalog.MethodRecord) (float64, bool) {
		return r.JitDurationMS()
	},
	TimeToReach: func(r *catalog.MethodRecord) (float64, bool) {
		if r.TimestampMS == nil {
			return 0, false
		}
		return *r.TimestampMS, true
	},
}

// TopN returns the first n method records after a stable descending sort on
// the metric key. Records with an unknown key sort below every known value,
// and ties keep catalog insertion order, so repeated calls yield identical
// output. n larger than the catalog returns every record; n <= 0 returns
// none.
func TopN(c *catalog.Catalog, n int, metric Metric) ([]*catalog.MethodRecord, error) {
	key, ok := metricKeys[metric]
	if !ok {
		return nil, &InvalidQueryError{Metric: metric.String()}
	}
	if n <= 0 {
		return nil, nil
	}
	records := append([]*catalog.MethodRecord(nil), c.Methods()...)
	sort.SliceStable(records, func(i, j int) bool {
		vi, iKnown := key(records[i])
		vj, jKnown := key(records[j])
		if iKnown != jKnown {
			return iKnown
		}
		return vi > vj
	})
	if n > len(records) {
		n = len(records)
	}
	return records[:n], nil
}

// FindByName returns the methods whose name, namespace, or namespace
// qualified name contains fragment, ignoring case. Catalog order is
// preserved and an empty result is a normal outcome, not an error.
func FindByName(c *catalog.Catalog, fragment string) []*catalog.MethodRecord {
	frag := strings.ToLower(fragment)
	var matched []*catalog.MethodRecord
	for _, r := range c.Methods() {
		name := strings.ToLower(r.Name)
		ns := strings.ToLower(r.Namespace)
		if strings.Contains(name, frag) || strings.Contains(ns, frag) || strings.Contains(ns+"."+name, frag) {
			matched = append(matched, r)
		}
	}
	return matched
}
