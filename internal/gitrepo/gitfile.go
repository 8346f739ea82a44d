// SPDX-License-Identifier: MPL-2.0

package gitrepo

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const gitdirPrefix = "gitdir:"

// ResolveGitDir returns the control directory of the worktree at dir,
// following a "gitdir:" pointer file when .git is not a directory.
func ResolveGitDir(dir string) (string, error) {
	dotGit := filepath.Join(dir, DotGit)
	fi, err := os.Stat(dotGit)
	if err != nil {
		return "", err
	}
	if fi.IsDir() {
		return filepath.Abs(dotGit)
	}

	target, err := ReadGitFile(dotGit)
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(dir, target)
	}
	return filepath.Abs(target)
}

// ReadGitFile returns the raw target of a "gitdir: <path>" pointer file.
func ReadGitFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if rest, ok := strings.CutPrefix(line, gitdirPrefix); ok {
			return filepath.FromSlash(strings.TrimSpace(rest)), nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", fmt.Errorf("%s: missing %q line", path, gitdirPrefix)
}

// WriteGitFile writes a pointer file at path referencing gitDir.
func WriteGitFile(path, gitDir string) error {
	return os.WriteFile(path, []byte(gitdirPrefix+" "+filepath.ToSlash(gitDir)+"\n"), 0o644)
}
