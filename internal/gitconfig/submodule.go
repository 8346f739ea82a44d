// SPDX-License-Identifier: MPL-2.0

package gitconfig

import (
	"context"
	"errors"
	"io/fs"
	"os"
)

const submoduleSection = "submodule"

// Submodule is the metadata recorded for one submodule.
type Submodule struct {
	Name   string
	Path   string
	URL    string
	Branch string
}

// EnsureGitmodules upserts path, url and branch into the .gitmodules file
// at path, creating it when missing. It reports whether the file changed.
func (s Submodule) EnsureGitmodules(ctx context.Context, e *Editor, path string) (bool, error) {
	f, err := OpenOrCreate(path)
	if err != nil {
		return false, err
	}
	return s.apply(ctx, e, f, [][2]string{
		{"path", s.Path},
		{"url", s.URL},
		{"branch", s.Branch},
	})
}

// EnsureLocalConfig upserts url and branch into a repository config file,
// which must already exist.
func (s Submodule) EnsureLocalConfig(ctx context.Context, e *Editor, path string) (bool, error) {
	f, err := Open(path)
	if err != nil {
		return false, err
	}
	return s.apply(ctx, e, f, [][2]string{
		{"url", s.URL},
		{"branch", s.Branch},
	})
}

// Remove drops the submodule's section from the file at path. A missing
// file or section is not an error.
func (s Submodule) Remove(ctx context.Context, e *Editor, path string) (bool, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	f, err := Open(path)
	if err != nil {
		return false, err
	}
	return e.RemoveSubsection(ctx, f, submoduleSection, s.Name)
}

func (s Submodule) apply(ctx context.Context, e *Editor, f *File, values [][2]string) (bool, error) {
	changed := false
	for _, kv := range values {
		wrote, err := e.Set(ctx, f, submoduleSection, s.Name, kv[0], kv[1])
		if err != nil {
			return changed, err
		}
		changed = changed || wrote
	}
	return changed, nil
}
