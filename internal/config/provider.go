// SPDX-License-Identifier: MPL-2.0

package config

import "context"

// LoadOptions defines explicit configuration loading inputs.
type LoadOptions struct {
	// Dir is the configuration directory; empty means the working directory.
	Dir string
}

// Provider loads configuration from explicit options.
type Provider interface {
	Load(ctx context.Context, opts LoadOptions) (*Resolved, error)
}

type fileProvider struct{}

// NewProvider creates a configuration provider backed by JSON files.
func NewProvider() Provider {
	return &fileProvider{}
}

// Load reads configuration from the requested directory.
func (p *fileProvider) Load(ctx context.Context, opts LoadOptions) (*Resolved, error) {
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	return LoadContext(ctx, dir)
}
