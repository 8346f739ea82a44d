// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"cmp"
	"maps"
	"slices"

	"github.com/git-sparta/git-sparta/internal/attributes"
)

type (
	// TagCounts maps a tag to the number of tracked files carrying it.
	TagCounts map[string]int

	// TagCount is one row of a sorted TagCounts.
	TagCount struct {
		Tag   string `json:"tag"`
		Count int    `json:"count"`
	}

	// Match is a file pattern recorded under one token.
	Match struct {
		Pattern string
		Token   string
	}

	// FileTags is one row of the pattern to tag-set mapping.
	FileTags struct {
		Path string
		Tags []string
	}

	// CollectState aggregates the files selected by one tag. It is only
	// populated through RecordMatch, which keeps Patterns equal to the keys
	// of FileMap.
	CollectState struct {
		Matches   []Match
		Patterns  map[string]struct{}
		TagCounts TagCounts
		FileMap   map[string]map[string]struct{}
	}
)

// Record counts one occurrence of tag.
func (tc TagCounts) Record(tag string) {
	tc[tag]++
}

// Sorted returns the counts ordered by tag.
func (tc TagCounts) Sorted() []TagCount {
	rows := make([]TagCount, 0, len(tc))
	for _, tag := range slices.Sorted(maps.Keys(tc)) {
		rows = append(rows, TagCount{Tag: tag, Count: tc[tag]})
	}
	return rows
}

// NewCollectState returns an empty aggregate.
func NewCollectState() *CollectState {
	return &CollectState{
		Patterns:  make(map[string]struct{}),
		TagCounts: make(TagCounts),
		FileMap:   make(map[string]map[string]struct{}),
	}
}

// RecordMatch records pattern under token when token satisfies userTag,
// and reports whether it did.
func (s *CollectState) RecordMatch(pattern, token, userTag string) bool {
	if !attributes.MatchesTag(token, userTag) {
		return false
	}
	s.Matches = append(s.Matches, Match{Pattern: pattern, Token: token})
	s.Patterns[pattern] = struct{}{}
	s.TagCounts.Record(token)
	tokens, ok := s.FileMap[pattern]
	if !ok {
		tokens = make(map[string]struct{})
		s.FileMap[pattern] = tokens
	}
	tokens[token] = struct{}{}
	return true
}

// Empty reports whether nothing matched.
func (s *CollectState) Empty() bool {
	return len(s.Patterns) == 0
}

// SortedPatterns returns the unique patterns in lexical order.
func (s *CollectState) SortedPatterns() []string {
	return slices.Sorted(maps.Keys(s.Patterns))
}

// SortedTagCounts returns the per-token counts ordered by tag.
func (s *CollectState) SortedTagCounts() []TagCount {
	return s.TagCounts.Sorted()
}

// Files returns every pattern with its sorted tag set, ordered by path.
func (s *CollectState) Files() []FileTags {
	rows := make([]FileTags, 0, len(s.FileMap))
	for path, tokens := range s.FileMap {
		rows = append(rows, FileTags{Path: path, Tags: slices.Sorted(maps.Keys(tokens))})
	}
	slices.SortFunc(rows, func(a, b FileTags) int { return cmp.Compare(a.Path, b.Path) })
	return rows
}
