// SPDX-License-Identifier: MPL-2.0

// Package gitconfig reads git-config formatted files (.gitmodules and
// .git/config) and edits them through `git config --file`, running git
// only when a value actually changes.
package gitconfig

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/go-git/go-git/v5/plumbing/format/config"
)

// File is a parsed git-config file. Edits made through an Editor are
// mirrored into it, so later lookups see them.
type File struct {
	path string
	cfg  *config.Config
}

// Open loads an existing file.
func Open(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	cfg := config.New()
	if err := config.NewDecoder(bytes.NewReader(data)).Decode(cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &File{path: path, cfg: cfg}, nil
}

// OpenOrCreate loads path, or starts an empty file when it does not exist.
func OpenOrCreate(path string) (*File, error) {
	f, err := Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &File{path: path, cfg: config.New()}, nil
	}
	return f, err
}

func (f *File) Path() string {
	return f.path
}

// Value returns the last value of key. An empty subsection addresses the
// section itself.
func (f *File) Value(section, subsection, key string) (string, bool) {
	if !f.cfg.HasSection(section) {
		return "", false
	}
	s := f.cfg.Section(section)
	if subsection == "" {
		return s.Options.Get(key), s.Options.Has(key)
	}
	if !s.HasSubsection(subsection) {
		return "", false
	}
	ss := s.Subsection(subsection)
	return ss.Options.Get(key), ss.Options.Has(key)
}

func (f *File) set(section, subsection, key, value string) {
	s := f.cfg.Section(section)
	if subsection == "" {
		s.SetOption(key, value)
		return
	}
	s.Subsection(subsection).SetOption(key, value)
}

func (f *File) hasSubsection(section, subsection string) bool {
	return f.cfg.HasSection(section) && f.cfg.Section(section).HasSubsection(subsection)
}

func (f *File) dropSubsection(section, subsection string) {
	s := f.cfg.Section(section)
	s.RemoveSubsection(subsection)
	if len(s.Options) == 0 && len(s.Subsections) == 0 {
		f.cfg.RemoveSection(section)
	}
}
