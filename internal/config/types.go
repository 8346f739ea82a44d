// SPDX-License-Identifier: MPL-2.0

package config

const (
	KeySubmoduleName   = "SUBMODULE_NAME"
	KeySubmodulePath   = "SUBMODULE_PATH"
	KeySubmoduleURL    = "SUBMODULE_URL"
	KeySubmoduleBranch = "SUBMODULE_BRANCH"
	KeyProjectTag      = "PROJECT_TAG"
	KeySharedMirror    = "SHARED_MIRROR_PATH"

	localSuffix      = ".local.json"
	projectLocalFile = ".project_local.json"
)

// RequiredKeys lists the keys a base configuration object must contain.
var RequiredKeys = []string{
	KeySubmoduleName,
	KeySubmodulePath,
	KeySubmoduleURL,
	KeySubmoduleBranch,
	KeyProjectTag,
}

type (
	// Resolved is a fully resolved submodule configuration. All paths are
	// absolute and canonical where they exist on disk.
	Resolved struct {
		Name string
		// Path is the absolute submodule working tree.
		Path string
		// PathRelative is Path relative to WorkRepo, slash-separated.
		PathRelative string
		URL          string
		Branch       string
		Tag          string
		// MirrorPath is empty when no shared mirror is configured.
		MirrorPath string
		// ConfigFile is the base file the configuration came from.
		ConfigFile string
		// WorkRepo is the canonical configuration directory.
		WorkRepo string
	}

	// overrides holds the optional values local files and the environment
	// may replace.
	overrides struct {
		url    string
		mirror string
	}
)

// HasMirror reports whether a shared mirror is configured.
func (r *Resolved) HasMirror() bool {
	return r.MirrorPath != ""
}

func (o *overrides) fill(other overrides) {
	if o.url == "" {
		o.url = other.url
	}
	if o.mirror == "" {
		o.mirror = other.mirror
	}
}

func (o overrides) applyTo(r *Resolved) {
	if o.url != "" {
		r.URL = o.url
	}
	if o.mirror != "" {
		r.MirrorPath = o.mirror
	}
}
