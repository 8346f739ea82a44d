// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/viper"
	"github.com/tidwall/gjson"

	"github.com/git-sparta/git-sparta/internal/issue"
)

// ErrNotFound is returned (wrapped) when no JSON file in the configuration
// directory holds all required keys.
var ErrNotFound = errors.New("no submodule configuration found")

// Load resolves the configuration rooted at dir.
func Load(dir string) (*Resolved, error) {
	return LoadContext(context.Background(), dir)
}

// LoadContext is Load with cancellation checked between files.
func LoadContext(ctx context.Context, dir string) (*Resolved, error) {
	configDir, err := canonicalDir(dir)
	if err != nil {
		return nil, configError("resolve configuration directory", dir, err)
	}

	files, err := filepath.Glob(filepath.Join(configDir, "*.json"))
	if err != nil {
		return nil, configError("list configuration files", configDir, err)
	}
	slices.Sort(files)

	var (
		base     map[string]string
		baseFile string
	)
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc, err := readJSON(file)
		if err != nil {
			return nil, err
		}
		if obj := findObject(doc, RequiredKeys, KeySharedMirror); obj != nil {
			base, baseFile = obj, file
			break
		}
	}
	if base == nil {
		return nil, issue.NewErrorContext().
			WithKind(issue.KindConfig).
			WithOperation("load submodule configuration").
			WithResource(configDir).
			Wrap(fmt.Errorf("%w: no JSON file defines %s", ErrNotFound, strings.Join(RequiredKeys, ", "))).
			WithSuggestion("Create a JSON file in this directory with string values for " + strings.Join(RequiredKeys, ", ")).
			BuildError()
	}

	local, err := localOverrides(ctx, configDir)
	if err != nil {
		return nil, err
	}

	cfg := &Resolved{
		Name:       base[KeySubmoduleName],
		URL:        base[KeySubmoduleURL],
		Branch:     base[KeySubmoduleBranch],
		Tag:        base[KeyProjectTag],
		MirrorPath: base[KeySharedMirror],
		ConfigFile: baseFile,
		WorkRepo:   configDir,
	}
	local.applyTo(cfg)
	envOverrides().applyTo(cfg)

	cfg.Path = resolvePath(configDir, base[KeySubmodulePath])
	if cfg.MirrorPath != "" {
		cfg.MirrorPath = resolvePath(configDir, cfg.MirrorPath)
	}

	// The path may leave the configuration directory; whether it stays inside
	// the repository is checked by the provisioner.
	rel, err := filepath.Rel(configDir, cfg.Path)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithKind(issue.KindConfig).
			WithOperation("resolve " + KeySubmodulePath).
			WithResource(baseFile).
			Wrap(err).
			BuildError()
	}
	cfg.PathRelative = filepath.ToSlash(rel)

	return cfg, nil
}

// localOverrides merges *.local.json and .project_local.json in lexical
// order; the first file defining a key wins.
func localOverrides(ctx context.Context, configDir string) (overrides, error) {
	files, err := filepath.Glob(filepath.Join(configDir, "*"+localSuffix))
	if err != nil {
		return overrides{}, configError("list local configuration files", configDir, err)
	}
	projectLocal := filepath.Join(configDir, projectLocalFile)
	if _, statErr := os.Stat(projectLocal); statErr == nil && !slices.Contains(files, projectLocal) {
		files = append(files, projectLocal)
	}
	slices.Sort(files)

	var merged overrides
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return overrides{}, err
		}
		doc, err := readJSON(file)
		if err != nil {
			return overrides{}, err
		}
		merged.fill(overrides{
			url:    findValue(doc, KeySubmoduleURL),
			mirror: findValue(doc, KeySharedMirror),
		})
	}
	return merged, nil
}

// envOverrides reads SUBMODULE_URL and SHARED_MIRROR_PATH from the
// environment. Empty variables are ignored.
func envOverrides() overrides {
	v := viper.New()
	_ = v.BindEnv(KeySubmoduleURL)
	_ = v.BindEnv(KeySharedMirror)
	return overrides{
		url:    v.GetString(KeySubmoduleURL),
		mirror: v.GetString(KeySharedMirror),
	}
}

// readJSON parses path into a generic document. The top level may be any
// JSON value; only objects reachable from it are searched.
func readJSON(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, configError("read configuration file", path, err)
	}
	if !gjson.ValidBytes(data) {
		return nil, issue.NewErrorContext().
			WithKind(issue.KindConfig).
			WithOperation("parse configuration file").
			WithResource(path).
			Wrap(errors.New("invalid JSON")).
			WithSuggestion("Check that the file is valid JSON").
			BuildError()
	}
	return gjson.ParseBytes(data).Value(), nil
}

// findObject returns the first object, searched breadth-first, holding a
// string value for every key, plus the optional keys it also holds as
// strings. Keys compare case-insensitively.
func findObject(doc any, keys []string, optional ...string) map[string]string {
	var found map[string]string
	walkBFS(doc, func(obj map[string]any) bool {
		values := make(map[string]string, len(keys)+len(optional))
		for _, key := range keys {
			s, ok := lookupString(obj, key)
			if !ok {
				return false
			}
			values[key] = s
		}
		for _, key := range optional {
			if s, ok := lookupString(obj, key); ok {
				values[key] = s
			}
		}
		found = values
		return true
	})
	return found
}

// findValue returns the first string value for key, searched breadth-first.
func findValue(doc any, key string) string {
	var found string
	walkBFS(doc, func(obj map[string]any) bool {
		s, ok := lookupString(obj, key)
		if ok {
			found = s
		}
		return ok
	})
	return found
}

// walkBFS visits every object in doc breadth-first until visit returns true.
// Object children are queued in sorted key order, array elements in order.
func walkBFS(doc any, visit func(map[string]any) bool) {
	queue := []any{doc}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]

		switch n := node.(type) {
		case map[string]any:
			if visit(n) {
				return
			}
			keys := make([]string, 0, len(n))
			for k := range n {
				keys = append(keys, k)
			}
			slices.Sort(keys)
			for _, k := range keys {
				queue = append(queue, n[k])
			}
		case []any:
			queue = append(queue, n...)
		}
	}
}

func lookupString(obj map[string]any, key string) (string, bool) {
	for k, v := range obj {
		if strings.EqualFold(k, key) {
			s, ok := v.(string)
			return s, ok
		}
	}
	return "", false
}

func resolvePath(base, path string) string {
	if !filepath.IsAbs(path) {
		path = filepath.Join(base, path)
	}
	return canonical(path)
}

func canonicalDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", abs)
	}
	return canonical(abs), nil
}

func canonical(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	return filepath.Clean(path)
}

func configError(op, resource string, err error) error {
	return issue.NewErrorContext().
		WithKind(issue.KindConfig).
		WithOperation(op).
		WithResource(resource).
		Wrap(err).
		BuildError()
}
