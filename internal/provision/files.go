// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/git-sparta/git-sparta/internal/config"
	"github.com/git-sparta/git-sparta/internal/gitrepo"
)

const (
	alternatesFile = "objects/info/alternates"
	sparseFile     = "info/sparse-checkout"
)

// mirrorObjects returns the object directory of the configured mirror, which
// may be a worktree clone or a bare repository.
func mirrorObjects(cfg *config.Resolved) (string, bool) {
	if !cfg.HasMirror() {
		return "", false
	}
	candidates := []string{filepath.Join(cfg.MirrorPath, "objects")}
	if gitDir, err := gitrepo.ResolveGitDir(cfg.MirrorPath); err == nil {
		candidates = []string{filepath.Join(gitDir, "objects")}
	}
	for _, dir := range candidates {
		if fi, err := os.Stat(dir); err == nil && fi.IsDir() {
			return dir, true
		}
	}
	return "", false
}

// appendAlternate lists objects in the alternates file of gitDir unless it
// is already there.
func appendAlternate(gitDir, objects string) (bool, error) {
	path := filepath.Join(gitDir, filepath.FromSlash(alternatesFile))
	current, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}
	for line := range strings.Lines(string(current)) {
		if strings.TrimSpace(line) == objects {
			return false, nil
		}
	}

	if len(current) > 0 && !bytes.HasSuffix(current, []byte("\n")) {
		current = append(current, '\n')
	}
	current = append(current, objects...)
	current = append(current, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, err
	}
	if err := os.WriteFile(path, current, 0o644); err != nil {
		return false, fmt.Errorf("write alternates: %w", err)
	}
	return true, nil
}

// writeSparseFile writes patterns, one per line, to the sparse-checkout file
// of gitDir. It reports whether the content changed.
func writeSparseFile(gitDir string, patterns []string) (bool, error) {
	path := filepath.Join(gitDir, filepath.FromSlash(sparseFile))
	content := []byte(strings.Join(patterns, "\n") + "\n")

	if current, err := os.ReadFile(path); err == nil && bytes.Equal(current, content) {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, err
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return false, fmt.Errorf("write sparse-checkout: %w", err)
	}
	return true, nil
}
