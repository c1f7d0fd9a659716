package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Endpoint names accepted in the backends file
var knownEndpoints = map[string]bool{
	"assistant":   true,
	"action_plan": true,
	"news":        true,
	"footprint":   true,
}

// BackendsFile is the optional YAML document named by BACKENDS_FILE.
//
//	priority: [gemini-2.5-flash, gemini-2.5-pro]
//	endpoints:
//	  news: [gemini-2.5-pro]
//	openai_models: [gpt-4o-mini]
type BackendsFile struct {
	Priority     []string            `yaml:"priority"`
	Endpoints    map[string][]string `yaml:"endpoints"`
	OpenAIModels []string            `yaml:"openai_models"`
}

// LoadBackendsFile reads and validates a backends file.
func LoadBackendsFile(path string) (*BackendsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return ParseBackendsFile(data)
}

// ParseBackendsFile decodes a backends document. Unknown keys are rejected.
func ParseBackendsFile(data []byte) (*BackendsFile, error) {
	var file BackendsFile

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse backends file: %w", err)
	}

	for endpoint := range file.Endpoints {
		if !knownEndpoints[endpoint] {
			return nil, fmt.Errorf("unknown endpoint %q in backends file", endpoint)
		}
	}

	return &file, nil
}

// Apply overlays the file onto cfg. Lists present in the file replace the
// environment values.
func (f *BackendsFile) Apply(cfg *BackendsConfig) {
	if len(f.Priority) > 0 {
		cfg.Priority = f.Priority
	}
	if len(f.OpenAIModels) > 0 {
		cfg.OpenAI.Models = f.OpenAIModels
	}
	if cfg.Endpoints == nil {
		cfg.Endpoints = map[string][]string{}
	}
	for endpoint, priority := range f.Endpoints {
		cfg.Endpoints[endpoint] = priority
	}
}
