// Copyright 2025 The clrtrace Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package capture

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// ProviderConfig names one event provider to enable and how verbosely.
type ProviderConfig struct {
	Name     string `yaml:"name"`
	Keywords uint64 `yaml:"keywords"`
	Level    uint32 `yaml:"level"`
}

// Profile is a named set of providers that can be requested together from
// the record command line.
type Profile struct {
	Name      string           `yaml:"name"`
	Providers []ProviderConfig `yaml:"providers"`
}

// Config is an optional profiles file letting users capture more than the
// default loader and JIT events.
type Config struct {
	Profiles []Profile `yaml:"profiles"`
}

// LoadConfig reads and validates a YAML profiles file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading capture config: %w", err)
	}
	var config Config
	if err := yaml.UnmarshalStrict(data, &config); err != nil {
		return nil, fmt.Errorf("parsing capture config %q: %w", path, err)
	}
	seen := map[string]bool{}
	for _, p := range config.Profiles {
		if p.Name == "" {
			return nil, fmt.Errorf("capture config %q: profile with no name", path)
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("capture config %q: duplicate profile %q", path, p.Name)
		}
		seen[p.Name] = true
		if len(p.Providers) == 0 {
			return nil, fmt.Errorf("capture config %q: profile %q has no providers", path, p.Name)
		}
		for _, provider := range p.Providers {
			if provider.Name == "" {
				return nil, fmt.Errorf("capture config %q: profile %q has a provider with no name", path, p.Name)
			}
		}
	}
	return &config, nil
}

// Profile returns the named profile.
func (c *Config) Profile(name string) (Profile, bool) {
	for _, p := range c.Profiles {
		if p.Name == name {
			return p, true
		}
	}
	return Profile{}, false
}

// DefaultProfile enables just the runtime provider events the catalog
// correlates: assembly loads and method JIT activity.
func DefaultProfile() Profile {
	return Profile{
		Name: "default",
		Providers: []ProviderConfig{
			{
				Name:     RuntimeProvider,
				Keywords: LoaderKeyword | JitKeyword,
				Level:    VerboseLevel,
			},
		},
	}
}
