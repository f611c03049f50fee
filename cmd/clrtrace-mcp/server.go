// Copyright 2025 The clrtrace Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"sync"

	"github.com/clrtrace/clrtrace/catalog"
	"github.com/clrtrace/clrtrace/eventpipe"
	"github.com/clrtrace/clrtrace/lib/logger"
	"github.com/clrtrace/clrtrace/query"
)

// server answers tool calls against catalogs built from trace files on the
// local filesystem. Catalogs are immutable once built, so one per trace path
// is cached and shared across requests.
type server struct {
	mu       sync.Mutex
	catalogs map[string]*catalog.Catalog
}

func newServer() *server {
	return &server{catalogs: make(map[string]*catalog.Catalog)}
}

func (s *server) routes(ctx context.Context) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/mcp/tools", s.handleToolsList(ctx))
	mux.HandleFunc("/tools/clrtrace_top", tool(ctx, s.handleTop))
	mux.HandleFunc("/tools/clrtrace_find", tool(ctx, s.handleFind))
	mux.HandleFunc("/tools/clrtrace_stats", tool(ctx, s.handleStats))
	return mux
}

// tool wraps a tool handler with the method check shared by every tool
// endpoint.
func tool(ctx context.Context, handler func(context.Context, http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handler(ctx, w, r)
	}
}

func (s *server) catalog(ctx context.Context, path string) (*catalog.Catalog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.catalogs[path]; ok {
		return c, nil
	}
	events, err := eventpipe.Events(path)
	if err != nil {
		return nil, err
	}
	c := catalog.Build(events)
	logger.Debugf(ctx, "cached catalog for %s: %d methods, %d assemblies", path, len(c.Methods()), len(c.Assemblies()))
	s.catalogs[path] = c
	return c, nil
}

type topParams struct {
	Trace  string `json:"trace"`
	Metric string `json:"metric"`
	N      int    `json:"n"`
}

type findParams struct {
	Trace    string `json:"trace"`
	Fragment string `json:"fragment"`
}

type statsParams struct {
	Trace string `json:"trace"`
}

type methodResult struct {
	MethodID    uint64  `json:"method_id"`
	Name        string  `json:"name"`
	ILSize      uint32  `json:"il_size"`
	MethodSize  uint32  `json:"method_size"`
	TimestampMS float64 `json:"timestamp_ms"`
	JitTimeMS   float64 `json:"jit_time_ms"`
	Tier        string  `json:"tier,omitempty"`
}

type topResult struct {
	Trace   string         `json:"trace"`
	Metric  string         `json:"metric"`
	Methods []methodResult `json:"methods"`
	Total   int            `json:"total"`
}

type findResult struct {
	Trace    string         `json:"trace"`
	Fragment string         `json:"fragment"`
	Methods  []methodResult `json:"methods"`
	Total    int            `json:"total"`
}

type statsResult struct {
	Trace string `json:"trace"`
	query.Stats
}

func (s *server) handleTop(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	var params topParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if params.Trace == "" {
		writeError(w, "trace is required", http.StatusBadRequest)
		return
	}
	if params.Metric == "" {
		params.Metric = "size"
	}
	if params.N == 0 {
		params.N = 10
	}
	metric, err := query.ParseMetric(params.Metric)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	c, err := s.catalog(ctx, params.Trace)
	if err != nil {
		writeError(w, err.Error(), catalogStatus(err))
		return
	}
	records, err := query.TopN(c, params.N, metric)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(ctx, w, topResult{
		Trace:   params.Trace,
		Metric:  params.Metric,
		Methods: toMethodResults(records),
		Total:   len(records),
	})
}

func (s *server) handleFind(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	var params findParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if params.Trace == "" || params.Fragment == "" {
		writeError(w, "trace and fragment are required", http.StatusBadRequest)
		return
	}
	c, err := s.catalog(ctx, params.Trace)
	if err != nil {
		writeError(w, err.Error(), catalogStatus(err))
		return
	}
	records := query.FindByName(c, params.Fragment)
	writeJSON(ctx, w, findResult{
		Trace:    params.Trace,
		Fragment: params.Fragment,
		Methods:  toMethodResults(records),
		Total:    len(records),
	})
}

func (s *server) handleStats(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	var params statsParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if params.Trace == "" {
		writeError(w, "trace is required", http.StatusBadRequest)
		return
	}
	c, err := s.catalog(ctx, params.Trace)
	if err != nil {
		writeError(w, err.Error(), catalogStatus(err))
		return
	}
	writeJSON(ctx, w, statsResult{Trace: params.Trace, Stats: query.ExtractStats(c)})
}

func (s *server) handleToolsList(ctx context.Context) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(ctx, w, map[string]interface{}{"tools": toolList()})
	}
}

func toolList() []map[string]interface{} {
	return []map[string]interface{}{
		{
			"name":        "clrtrace_top",
			"description": "Rank the methods of a recorded trace by a metric",
			"inputSchema": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"trace":  map[string]string{"type": "string", "description": "Path to a .nettrace file on this host"},
					"metric": map[string]string{"type": "string", "description": "size, jittime or timetoreach (default size)"},
					"n":      map[string]string{"type": "integer", "description": "How many methods to return (default 10)"},
				},
				"required": []string{"trace"},
			},
		},
		{
			"name":        "clrtrace_find",
			"description": "Find methods in a recorded trace by name fragment",
			"inputSchema": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"trace":    map[string]string{"type": "string", "description": "Path to a .nettrace file on this host"},
					"fragment": map[string]string{"type": "string", "description": "Case-insensitive name or namespace fragment"},
				},
				"required": []string{"trace", "fragment"},
			},
		},
		{
			"name":        "clrtrace_stats",
			"description": "Summarize event counters and method totals for a recorded trace",
			"inputSchema": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"trace": map[string]string{"type": "string", "description": "Path to a .nettrace file on this host"},
				},
				"required": []string{"trace"},
			},
		},
	}
}

func toMethodResults(records []*catalog.MethodRecord) []methodResult {
	results := make([]methodResult, 0, len(records))
	for _, r := range records {
		m := methodResult{
			MethodID: r.MethodID,
			Name:     r.DisplayName(),
			Tier:     r.Tier,
		}
		if r.ILSize != nil {
			m.ILSize = *r.ILSize
		}
		if r.MethodSize != nil {
			m.MethodSize = *r.MethodSize
		}
		if r.TimestampMS != nil {
			m.TimestampMS = *r.TimestampMS
		}
		if d, ok := r.JitDurationMS(); ok {
			m.JitTimeMS = d
		}
		results = append(results, m)
	}
	return results
}

// catalogStatus picks the response code for a failed catalog build: a trace
// path the server cannot see is the caller's mistake.
func catalogStatus(err error) int {
	if errors.Is(err, os.ErrNotExist) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func writeJSON(ctx context.Context, w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Errorf(ctx, "encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
