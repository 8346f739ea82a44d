// SPDX-License-Identifier: MPL-2.0

// Package attributes resolves a single git attribute for tracked paths.
//
// A value such as "backend,app/core" is a comma-separated list of project
// tags. An attribute that is set without a value (a bare "projects" in a
// .gitattributes line) stands for the Global tag, which every filter selects.
package attributes

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-git/v5/plumbing/format/gitattributes"
)

const (
	// DefaultAttribute is the attribute scanned when none is configured.
	DefaultAttribute = "projects"

	// Global is the token recorded for a set attribute without a value.
	Global = "global"

	infoAttributesPath = "info/attributes"
)

const (
	// Unset covers both unspecified and explicitly unset (-attr) attributes.
	Unset StateKind = iota
	// Set is a boolean-true attribute.
	Set
	// Value is an attribute assigned a string.
	Value
)

type (
	StateKind uint8

	// State is the resolved state of one attribute for one path.
	State struct {
		Kind StateKind
		Raw  string
	}

	// Stack is the ordered rule set of one worktree, lowest priority first.
	Stack []gitattributes.MatchAttribute

	// Evaluator answers attribute lookups for one worktree.
	Evaluator struct {
		attribute string
		matcher   gitattributes.Matcher
	}
)

// LoadStack reads every .gitattributes file below the root of worktree and,
// when gitDir is non-nil, the repository's info/attributes on top.
func LoadStack(worktree, gitDir billy.Filesystem) (Stack, error) {
	stack, err := gitattributes.ReadPatterns(worktree, nil)
	if err != nil {
		return nil, fmt.Errorf("read .gitattributes under %s: %w", worktree.Root(), err)
	}

	if gitDir == nil {
		return stack, nil
	}

	f, err := gitDir.Open(infoAttributesPath)
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, os.ErrNotExist) {
		return stack, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", gitDir.Join(gitDir.Root(), infoAttributesPath), err)
	}
	defer f.Close()

	info, err := gitattributes.ReadAttributes(f, nil, true)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", gitDir.Join(gitDir.Root(), infoAttributesPath), err)
	}
	return append(stack, info...), nil
}

// NewEvaluator builds an evaluator for attribute over stack.
func NewEvaluator(stack Stack, attribute string) *Evaluator {
	if attribute == "" {
		attribute = DefaultAttribute
	}
	return &Evaluator{
		attribute: attribute,
		matcher:   gitattributes.NewMatcher(stack),
	}
}

// Attribute returns the attribute name being resolved.
func (e *Evaluator) Attribute() string {
	return e.attribute
}

// Resolve returns the attribute state for a slash-separated path relative
// to the worktree root.
func (e *Evaluator) Resolve(path string) State {
	results, matched := e.matcher.Match(strings.Split(path, "/"), []string{e.attribute})
	if !matched {
		return State{}
	}
	attr, ok := results[e.attribute]
	if !ok {
		return State{}
	}
	switch {
	case attr.IsValueSet():
		return State{Kind: Value, Raw: attr.Value()}
	case attr.IsSet():
		return State{Kind: Set}
	default:
		return State{}
	}
}

// Tokens returns the tags carried by s. Set yields Global; Unset yields nothing.
func (s State) Tokens() []string {
	switch s.Kind {
	case Set:
		return []string{Global}
	case Value:
		var tokens []string
		for _, token := range strings.Split(s.Raw, ",") {
			if token = strings.TrimSpace(token); token != "" {
				tokens = append(tokens, token)
			}
		}
		return tokens
	default:
		return nil
	}
}

func (k StateKind) String() string {
	switch k {
	case Set:
		return "set"
	case Value:
		return "value"
	default:
		return "unset"
	}
}

// MatchesTag reports whether token is selected by the user filter tag.
// The match is a case-sensitive substring test, so "app" selects "app/core".
func MatchesTag(token, tag string) bool {
	return token == Global || strings.Contains(token, tag)
}

// DeclaresFilter reports whether any rule in stack assigns filter=name.
func DeclaresFilter(stack Stack, name string) bool {
	for _, rule := range stack {
		for _, attr := range rule.Attributes {
			if attr.Name() == "filter" && attr.IsValueSet() && attr.Value() == name {
				return true
			}
		}
	}
	return false
}
