// SPDX-License-Identifier: MPL-2.0

// Package config resolves the submodule configuration used by
// setup-submodule and teardown-submodule.
//
// The configuration directory is scanned for *.json files in lexical order.
// The first file containing an object (at any nesting depth, searched
// breadth-first) with all of SUBMODULE_NAME, SUBMODULE_PATH, SUBMODULE_URL,
// SUBMODULE_BRANCH and PROJECT_TAG becomes the base configuration.
//
// SUBMODULE_URL and SHARED_MIRROR_PATH can be overridden, in increasing
// precedence, by *.local.json / .project_local.json files and by environment
// variables of the same name. Files are read with Viper.
package config
