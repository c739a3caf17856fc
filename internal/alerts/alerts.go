// Author: Kaviru Hapuarachchi
// GitHub: https://github.com/Kavirubc
// Created: 2026-10-18
// Last Modified: 2026-10-18

// Package alerts loads the set of currently firing monitoring alerts.
package alerts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Alert is one firing alert and the hosts it fires on.
type Alert struct {
	Name     string   `yaml:"name" json:"name"`
	Severity string   `yaml:"severity" json:"severity"`
	Hosts    []string `yaml:"hosts,omitempty" json:"hosts,omitempty"`
}

// Key identifies an alert ticket: one ticket per name and severity.
type Key struct {
	Name     string
	Severity string
}

// Key returns the alert's identity.
func (a Alert) Key() Key {
	return Key{Name: a.Name, Severity: a.Severity}
}

// File is the on-disk alerts document.
type File struct {
	Alerts []Alert `yaml:"alerts" json:"alerts"`
}

// Load reads an alerts file. Files ending in .json are decoded as JSON,
// everything else as YAML.
func Load(path string) ([]Alert, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read alerts file: %w", err)
	}
	format := "yaml"
	if strings.EqualFold(filepath.Ext(path), ".json") {
		format = "json"
	}
	return Parse(data, format)
}

// Parse decodes an alerts document and normalizes it.
func Parse(data []byte, format string) ([]Alert, error) {
	var f File
	switch format {
	case "json":
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to parse alerts JSON: %w", err)
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to parse alerts YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported alerts format %q", format)
	}
	return Normalize(f.Alerts)
}

// Normalize trims fields, rejects incomplete alerts, merges duplicates and
// returns alerts sorted by name then severity with sorted, unique hosts.
func Normalize(in []Alert) ([]Alert, error) {
	merged := make(map[Key]map[string]struct{})
	for i, a := range in {
		a.Name = strings.TrimSpace(a.Name)
		a.Severity = strings.TrimSpace(a.Severity)
		if a.Name == "" {
			return nil, fmt.Errorf("alert %d: name is required", i)
		}
		if a.Severity == "" {
			return nil, fmt.Errorf("alert %d (%s): severity is required", i, a.Name)
		}
		if strings.ContainsAny(a.Name+a.Severity, "\r\n") {
			return nil, fmt.Errorf("alert %d (%s): name and severity must be single-line", i, a.Name)
		}

		hosts, ok := merged[a.Key()]
		if !ok {
			hosts = make(map[string]struct{})
			merged[a.Key()] = hosts
		}
		for _, h := range a.Hosts {
			if h = strings.TrimSpace(h); h != "" {
				hosts[h] = struct{}{}
			}
		}
	}

	out := make([]Alert, 0, len(merged))
	for k, hostSet := range merged {
		hosts := make([]string, 0, len(hostSet))
		for h := range hostSet {
			hosts = append(hosts, h)
		}
		sort.Strings(hosts)
		out = append(out, Alert{Name: k.Name, Severity: k.Severity, Hosts: hosts})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Severity < out[j].Severity
	})
	return out, nil
}
