// Copyright 2025 The clrtrace Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package capture

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
profiles:
  - name: startup
    providers:
      - name: Microsoft-Windows-DotNETRuntime
        keywords: 0x18
        level: 5
  - name: gc
    providers:
      - name: Microsoft-Windows-DotNETRuntime
        keywords: 0x1
        level: 4
      - name: Microsoft-DotNETCore-SampleProfiler
        level: 4
`)
	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	want := &Config{
		Profiles: []Profile{
			{
				Name: "startup",
				Providers: []ProviderConfig{
					{Name: "Microsoft-Windows-DotNETRuntime", Keywords: 0x18, Level: 5},
				},
			},
			{
				Name: "gc",
				Providers: []ProviderConfig{
					{Name: "Microsoft-Windows-DotNETRuntime", Keywords: 0x1, Level: 4},
					{Name: "Microsoft-DotNETCore-SampleProfiler", Level: 4},
				},
			},
		},
	}
	if diff := cmp.Diff(want, config); diff != "" {
		t.Errorf("LoadConfig diff (-want +got):\n%s", diff)
	}

	if p, ok := config.Profile("gc"); !ok || len(p.Providers) != 2 {
		t.Errorf("Profile(\"gc\") = %+v, %t, want the two-provider profile", p, ok)
	}
	if _, ok := config.Profile("missing"); ok {
		t.Error("Profile(\"missing\") found a profile that isn't there")
	}
}

func TestLoadConfigRejectsBadProfiles(t *testing.T) {
	tests := []struct {
		desc     string
		contents string
		wantErr  string
	}{
		{
			desc: "duplicate profile names",
			contents: `
profiles:
  - name: startup
    providers: [{name: A}]
  - name: startup
    providers: [{name: B}]
`,
			wantErr: "duplicate profile",
		},
		{
			desc: "profile with no name",
			contents: `
profiles:
  - providers: [{name: A}]
`,
			wantErr: "no name",
		},
		{
			desc: "profile with no providers",
			contents: `
profiles:
  - name: empty
`,
			wantErr: "no providers",
		},
		{
			desc: "provider with no name",
			contents: `
profiles:
  - name: startup
    providers: [{keywords: 0x18}]
`,
			wantErr: "provider with no name",
		},
		{
			desc: "unknown fields are rejected",
			contents: `
profiles:
  - name: startup
    providers: [{name: A}]
    keyword: oops
`,
			wantErr: "",
		},
	}
	for _, test := range tests {
		t.Run(test.desc, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, test.contents))
			if err == nil {
				t.Fatal("LoadConfig accepted a bad config")
			}
			if test.wantErr != "" && !strings.Contains(err.Error(), test.wantErr) {
				t.Errorf("LoadConfig error = %q, want it to mention %q", err, test.wantErr)
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("LoadConfig on a missing file should fail")
	}
}

func TestDefaultProfile(t *testing.T) {
	p := DefaultProfile()
	if len(p.Providers) != 1 {
		t.Fatalf("default profile has %d providers, want 1", len(p.Providers))
	}
	provider := p.Providers[0]
	if provider.Name != RuntimeProvider {
		t.Errorf("default provider = %q, want %q", provider.Name, RuntimeProvider)
	}
	if provider.Keywords != LoaderKeyword|JitKeyword {
		t.Errorf("default keywords = %#x, want %#x", provider.Keywords, LoaderKeyword|JitKeyword)
	}
	if provider.Level != VerboseLevel {
		t.Errorf("default level = %d, want %d", provider.Level, VerboseLevel)
	}
}

func TestDiagnosticSocket(t *testing.T) {
	dir := t.TempDir()
	restore := tempDir
	tempDir = func() string { return dir }
	defer func() { tempDir = restore }()

	if _, err := DiagnosticSocket(1234); err == nil {
		t.Fatal("DiagnosticSocket should fail when no socket exists")
	}

	for _, name := range []string{
		"dotnet-diagnostic-1234-100-socket",
		"dotnet-diagnostic-1234-250-socket",
		"dotnet-diagnostic-9999-100-socket",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	got, err := DiagnosticSocket(1234)
	if err != nil {
		t.Fatalf("DiagnosticSocket failed: %v", err)
	}
	want := filepath.Join(dir, "dotnet-diagnostic-1234-250-socket")
	if got != want {
		t.Errorf("DiagnosticSocket = %q, want %q", got, want)
	}
}
