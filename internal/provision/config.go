// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"os"
	"time"

	"github.com/git-sparta/git-sparta/internal/attributes"
)

// DefaultFetchTimeout bounds each network fetch.
const DefaultFetchTimeout = 10 * time.Minute

type (
	// Config holds the tunables of a Provisioner.
	Config struct {
		// Attribute is the gitattributes name holding tags.
		Attribute string

		// FetchTimeout bounds each fetch. Zero disables the bound.
		FetchTimeout time.Duration

		// TempDir creates the scratch directory used to resolve the remote
		// tip. The caller's Provisioner removes it afterwards.
		TempDir func() (string, error)
	}

	// Option is a functional option for configuring a Config.
	Option func(*Config)
)

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Attribute:    attributes.DefaultAttribute,
		FetchTimeout: DefaultFetchTimeout,
		TempDir: func() (string, error) {
			return os.MkdirTemp("", "git-sparta-")
		},
	}
}

// WithAttribute selects the attribute name. Empty keeps the default.
func WithAttribute(name string) Option {
	return func(c *Config) {
		if name != "" {
			c.Attribute = name
		}
	}
}

// WithFetchTimeout sets the fetch bound; zero disables it.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.FetchTimeout = d
	}
}

// WithTempDir overrides the scratch directory factory.
func WithTempDir(fn func() (string, error)) Option {
	return func(c *Config) {
		if fn != nil {
			c.TempDir = fn
		}
	}
}
