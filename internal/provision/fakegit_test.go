// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/go-git/go-git/v5/plumbing/format/config"

	"github.com/git-sparta/git-sparta/internal/gitcmd"
)

// fakeGit scripts a gitcmd.Fake with just enough state for the setup
// pipeline to observe its own effects on a second run.
type fakeGit struct {
	*gitcmd.Fake

	t   *testing.T
	tip string

	mu       sync.Mutex
	gitlinks map[string]string
	remotes  map[string]string
	fetched  map[string]bool
	refs     map[string]map[string]string
}

func newFakeGit(t *testing.T, tip string) *fakeGit {
	t.Helper()

	f := &fakeGit{
		Fake:     &gitcmd.Fake{},
		t:        t,
		tip:      tip,
		gitlinks: make(map[string]string),
		remotes:  make(map[string]string),
		fetched:  make(map[string]bool),
		refs:     make(map[string]map[string]string),
	}

	f.On("ls-files", "--stage", "--").Do(func(inv gitcmd.Invocation) (gitcmd.Result, error) {
		rel := inv.Args[3]
		f.mu.Lock()
		defer f.mu.Unlock()
		if sha, ok := f.gitlinks[rel]; ok {
			return gitcmd.Result{Stdout: gitlinkMode + " " + sha + " 0\t" + rel + "\n"}, nil
		}
		return gitcmd.Result{}, nil
	})
	f.On("update-index", "--add", "--cacheinfo").Do(func(inv gitcmd.Invocation) (gitcmd.Result, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.gitlinks[inv.Args[5]] = inv.Args[4]
		return gitcmd.Result{}, nil
	})
	f.On("init", "--bare", "-q").Do(func(inv gitcmd.Invocation) (gitcmd.Result, error) {
		dir := inv.Args[3]
		if err := os.MkdirAll(filepath.Join(dir, "objects"), 0o755); err != nil {
			return gitcmd.Result{}, err
		}
		if err := os.WriteFile(filepath.Join(dir, "HEAD"), []byte("ref: refs/heads/master\n"), 0o644); err != nil {
			return gitcmd.Result{}, err
		}
		return gitcmd.Result{}, os.WriteFile(filepath.Join(dir, "config"), []byte("[core]\n\tbare = true\n"), 0o644)
	})
	f.On("config", "--file").Do(func(inv gitcmd.Invocation) (gitcmd.Result, error) {
		return gitcmd.Result{}, editConfigFile(inv.Args[2], inv.Args[3:])
	})
	f.On("remote", "add").Do(func(inv gitcmd.Invocation) (gitcmd.Result, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.remotes[inv.GitDir] = inv.Args[3]
		return gitcmd.Result{}, nil
	})
	f.On("remote", "set-url").Do(func(inv gitcmd.Invocation) (gitcmd.Result, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.remotes[inv.GitDir] = inv.Args[3]
		return gitcmd.Result{}, nil
	})
	f.On("remote", "get-url").Do(func(inv gitcmd.Invocation) (gitcmd.Result, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if url, ok := f.remotes[inv.GitDir]; ok {
			return gitcmd.Result{Stdout: url + "\n"}, nil
		}
		return exitWith(inv, 2, "error: No such remote 'origin'")
	})
	f.On("fetch").Do(func(inv gitcmd.Invocation) (gitcmd.Result, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.fetched[inv.GitDir] = true
		return gitcmd.Result{}, nil
	})
	f.On("rev-parse", "FETCH_HEAD").Return(tip + "\n")
	f.On("cat-file", "-e").Do(func(inv gitcmd.Invocation) (gitcmd.Result, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.fetched[inv.GitDir] {
			return gitcmd.Result{}, nil
		}
		return exitWith(inv, 1, "")
	})
	f.On("rev-parse", "--verify", "-q").Do(func(inv gitcmd.Invocation) (gitcmd.Result, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if sha, ok := f.refs[inv.GitDir][inv.Args[3]]; ok {
			return gitcmd.Result{Stdout: sha + "\n"}, nil
		}
		return exitWith(inv, 1, "")
	})
	f.On("update-ref").Do(func(inv gitcmd.Invocation) (gitcmd.Result, error) {
		f.setRef(inv.GitDir, inv.Args[1], inv.Args[2])
		return gitcmd.Result{}, nil
	})
	f.On("symbolic-ref").Do(func(inv gitcmd.Invocation) (gitcmd.Result, error) {
		f.setRef(inv.GitDir, "HEAD", inv.Args[2])
		return gitcmd.Result{}, nil
	})
	f.On("symbolic-ref", "-q", "HEAD").Do(func(inv gitcmd.Invocation) (gitcmd.Result, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if ref, ok := f.refs[inv.GitDir]["HEAD"]; ok {
			return gitcmd.Result{Stdout: ref + "\n"}, nil
		}
		return exitWith(inv, 1, "")
	})

	return f
}

func (f *fakeGit) setRef(gitDir, name, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.refs[gitDir] == nil {
		f.refs[gitDir] = make(map[string]string)
	}
	f.refs[gitDir][name] = value
}

func exitWith(inv gitcmd.Invocation, code int, stderr string) (gitcmd.Result, error) {
	return gitcmd.Result{Stderr: stderr, ExitCode: code}, &gitcmd.CommandError{
		Args: inv.Argv(), Stderr: stderr, ExitCode: code,
	}
}

// editConfigFile applies `git config --file <path> <args>` for the two forms
// the provisioner uses: "<key> <value>" and "--remove-section <name>".
func editConfigFile(path string, args []string) error {
	cfg := config.New()
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if err := config.NewDecoder(bytes.NewReader(data)).Decode(cfg); err != nil {
		return err
	}

	if args[0] == "--remove-section" {
		section, sub, _ := strings.Cut(args[1], ".")
		cfg.Section(section).RemoveSubsection(sub)
	} else {
		first := strings.Index(args[0], ".")
		last := strings.LastIndex(args[0], ".")
		section, key := args[0][:first], args[0][last+1:]
		if first == last {
			cfg.Section(section).SetOption(key, args[1])
		} else {
			cfg.Section(section).Subsection(args[0][first+1:last]).SetOption(key, args[1])
		}
	}

	var buf bytes.Buffer
	if err := config.NewEncoder(&buf).Encode(cfg); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
