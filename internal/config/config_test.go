// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/git-sparta/git-sparta/internal/issue"
	"github.com/git-sparta/git-sparta/internal/testutil"
)

const baseJSON = `{
  "submodule": {
    "SUBMODULE_NAME": "assets",
    "SUBMODULE_PATH": "vendor/assets",
    "SUBMODULE_URL": "https://example.com/assets.git",
    "SUBMODULE_BRANCH": "main",
    "PROJECT_TAG": "app"
  }
}`

// clearEnv isolates a test from override variables set in the outer
// environment. Tests using it must not run in parallel.
func clearEnv(t *testing.T) {
	t.Helper()
	t.Cleanup(testutil.MustUnsetenv(t, KeySubmoduleURL))
	t.Cleanup(testutil.MustUnsetenv(t, KeySharedMirror))
}

func newConfigDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	return dir
}

func TestLoad_Base(t *testing.T) {
	clearEnv(t)
	dir := newConfigDir(t)
	testutil.MustWriteFile(t, dir, "sparse.json", baseJSON)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "assets", cfg.Name)
	assert.Equal(t, filepath.Join(dir, "vendor", "assets"), cfg.Path)
	assert.Equal(t, "vendor/assets", cfg.PathRelative)
	assert.Equal(t, "https://example.com/assets.git", cfg.URL)
	assert.Equal(t, "main", cfg.Branch)
	assert.Equal(t, "app", cfg.Tag)
	assert.Empty(t, cfg.MirrorPath)
	assert.False(t, cfg.HasMirror())
	assert.Equal(t, filepath.Join(dir, "sparse.json"), cfg.ConfigFile)
	assert.Equal(t, dir, cfg.WorkRepo)
}

func TestLoad_FirstCompleteFileWins(t *testing.T) {
	clearEnv(t)
	dir := newConfigDir(t)
	// lexically first but incomplete
	testutil.MustWriteFile(t, dir, "a.json", `{"SUBMODULE_NAME": "partial"}`)
	testutil.MustWriteFile(t, dir, "b.json", baseJSON)
	testutil.MustWriteFile(t, dir, "c.json", `{
  "SUBMODULE_NAME": "late",
  "SUBMODULE_PATH": "late",
  "SUBMODULE_URL": "https://example.com/late.git",
  "SUBMODULE_BRANCH": "dev",
  "PROJECT_TAG": "late"
}`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "assets", cfg.Name)
	assert.Equal(t, filepath.Join(dir, "b.json"), cfg.ConfigFile)
}

func TestLoad_BreadthFirst(t *testing.T) {
	clearEnv(t)
	dir := newConfigDir(t)
	testutil.MustWriteFile(t, dir, "nested.json", `{
  "a": {"deep": {
    "SUBMODULE_NAME": "deep", "SUBMODULE_PATH": "deep",
    "SUBMODULE_URL": "u", "SUBMODULE_BRANCH": "b", "PROJECT_TAG": "t"
  }},
  "z": {
    "SUBMODULE_NAME": "shallow", "SUBMODULE_PATH": "shallow",
    "SUBMODULE_URL": "u", "SUBMODULE_BRANCH": "b", "PROJECT_TAG": "t"
  }
}`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "shallow", cfg.Name)
}

func TestLoad_TopLevelArray(t *testing.T) {
	clearEnv(t)
	dir := newConfigDir(t)
	testutil.MustWriteFile(t, dir, "sparse.json", `[
  {"unrelated": true},
  {
    "SUBMODULE_NAME": "assets", "SUBMODULE_PATH": "vendor/assets",
    "SUBMODULE_URL": "u", "SUBMODULE_BRANCH": "main", "PROJECT_TAG": "app"
  }
]`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "assets", cfg.Name)
	assert.Equal(t, "vendor/assets", cfg.PathRelative)
}

func TestLoad_SkipsNonObjectDocuments(t *testing.T) {
	clearEnv(t)
	dir := newConfigDir(t)
	// sorted before the real configuration
	testutil.MustWriteFile(t, dir, "a-list.json", `["x", "y"]`)
	testutil.MustWriteFile(t, dir, "b-scalar.json", `"just a string"`)
	testutil.MustWriteFile(t, dir, "sub.json", baseJSON)
	testutil.MustWriteFile(t, dir, "mirror.local.json", `[{"SHARED_MIRROR_PATH": "mirror"}]`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "assets", cfg.Name)
	assert.Equal(t, filepath.Join(dir, "sub.json"), cfg.ConfigFile)
	assert.Equal(t, filepath.Join(dir, "mirror"), cfg.MirrorPath)
}

func TestLoad_MirrorFromBaseFile(t *testing.T) {
	clearEnv(t)
	dir := newConfigDir(t)
	testutil.MustWriteFile(t, dir, "sparse.json", `{
  "SUBMODULE_NAME": "assets", "SUBMODULE_PATH": "vendor/assets",
  "SUBMODULE_URL": "u", "SUBMODULE_BRANCH": "main", "PROJECT_TAG": "app",
  "SHARED_MIRROR_PATH": "mirrors/assets"
}`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.True(t, cfg.HasMirror())
	assert.Equal(t, filepath.Join(dir, "mirrors", "assets"), cfg.MirrorPath)

	testutil.MustWriteFile(t, dir, "sparse.local.json", `{"SHARED_MIRROR_PATH": "local-mirror"}`)
	cfg, err = Load(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "local-mirror"), cfg.MirrorPath, "local files win over the base file")
}

func TestLoad_NonStringValuesIgnored(t *testing.T) {
	clearEnv(t)
	dir := newConfigDir(t)
	testutil.MustWriteFile(t, dir, "a.json", `{
  "SUBMODULE_NAME": "n", "SUBMODULE_PATH": "p",
  "SUBMODULE_URL": "u", "SUBMODULE_BRANCH": 3, "PROJECT_TAG": "t"
}`)

	_, err := Load(dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, issue.ErrConfig)
}

func TestLoad_NotFound(t *testing.T) {
	clearEnv(t)
	dir := newConfigDir(t)

	_, err := Load(dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)

	var ae *issue.ActionableError
	require.True(t, errors.As(err, &ae))
	assert.True(t, ae.HasSuggestions())
	assert.Equal(t, issue.KindConfig, issue.KindOf(err))
}

func TestLoad_InvalidJSON(t *testing.T) {
	clearEnv(t)
	dir := newConfigDir(t)
	testutil.MustWriteFile(t, dir, "broken.json", `{"SUBMODULE_NAME": `)

	_, err := Load(dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, issue.ErrConfig)
	assert.Contains(t, err.Error(), "broken.json")
}

func TestLoad_MissingDirectory(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.ErrorIs(t, err, issue.ErrConfig)
}

func TestLoad_LocalOverrides(t *testing.T) {
	clearEnv(t)
	dir := newConfigDir(t)
	mirror := filepath.Join(dir, "mirror")
	testutil.MustMkdirAll(t, mirror)

	testutil.MustWriteFile(t, dir, "sparse.json", baseJSON)
	testutil.MustWriteFile(t, dir, "a.local.json", `{"SUBMODULE_URL": "https://mirror.example.com/assets.git"}`)
	testutil.MustWriteFile(t, dir, "b.local.json", `{"SUBMODULE_URL": "ignored", "SHARED_MIRROR_PATH": "/ignored"}`)
	// sorts before every *.local.json file
	testutil.MustWriteFile(t, dir, projectLocalFile, `{"SHARED_MIRROR_PATH": "mirror"}`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "https://mirror.example.com/assets.git", cfg.URL)
	assert.Equal(t, mirror, cfg.MirrorPath)
	assert.True(t, cfg.HasMirror())
}

func TestLoad_ProjectLocal(t *testing.T) {
	clearEnv(t)
	dir := newConfigDir(t)
	testutil.MustWriteFile(t, dir, "sparse.json", baseJSON)
	testutil.MustWriteFile(t, dir, projectLocalFile, `{"settings": {"SHARED_MIRROR_PATH": "/srv/mirrors/assets"}}`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Clean("/srv/mirrors/assets"), cfg.MirrorPath)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	dir := newConfigDir(t)
	testutil.MustWriteFile(t, dir, "sparse.json", baseJSON)
	testutil.MustWriteFile(t, dir, "a.local.json", `{"SUBMODULE_URL": "https://local.example.com/a.git"}`)

	defer testutil.MustSetenv(t, KeySubmoduleURL, "https://env.example.com/a.git")()
	defer testutil.MustSetenv(t, KeySharedMirror, "env-mirror")()

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.com/a.git", cfg.URL)
	assert.Equal(t, filepath.Join(dir, "env-mirror"), cfg.MirrorPath)
}

func TestLoad_EmptyEnvIgnored(t *testing.T) {
	clearEnv(t)
	dir := newConfigDir(t)
	testutil.MustWriteFile(t, dir, "sparse.json", baseJSON)

	defer testutil.MustSetenv(t, KeySubmoduleURL, "")()

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/assets.git", cfg.URL)
}

func TestLoad_AbsolutePath(t *testing.T) {
	clearEnv(t)
	dir := newConfigDir(t)
	target := filepath.Join(dir, "modules", "assets")
	testutil.MustMkdirAll(t, target)
	testutil.MustWriteFile(t, dir, "sparse.json", `{
  "SUBMODULE_NAME": "assets", "SUBMODULE_PATH": "`+filepath.ToSlash(target)+`",
  "SUBMODULE_URL": "u", "SUBMODULE_BRANCH": "main", "PROJECT_TAG": "app"
}`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, target, cfg.Path)
	assert.Equal(t, "modules/assets", cfg.PathRelative)
}

func TestLoad_PathOutsideConfigDir(t *testing.T) {
	clearEnv(t)
	dir := newConfigDir(t)
	testutil.MustWriteFile(t, dir, "sparse.json", `{
  "SUBMODULE_NAME": "assets", "SUBMODULE_PATH": "../elsewhere",
  "SUBMODULE_URL": "u", "SUBMODULE_BRANCH": "main", "PROJECT_TAG": "app"
}`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(filepath.Dir(dir), "elsewhere"), cfg.Path)
	assert.Equal(t, "../elsewhere", cfg.PathRelative)
}

func TestLoad_Cancelled(t *testing.T) {
	clearEnv(t)
	dir := newConfigDir(t)
	testutil.MustWriteFile(t, dir, "sparse.json", baseJSON)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := LoadContext(ctx, dir)
	require.ErrorIs(t, err, context.Canceled)
}

func TestProvider_DefaultsToWorkingDirectory(t *testing.T) {
	clearEnv(t)
	dir := newConfigDir(t)
	testutil.MustWriteFile(t, dir, "sparse.json", baseJSON)
	defer testutil.MustChdir(t, dir)()

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.WorkRepo)

	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, dir, canonical(wd))
}
