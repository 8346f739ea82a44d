// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"maps"
	"slices"

	"github.com/charmbracelet/glamour"
)

const (
	RepositoryNotFoundId Id = iota + 1
	BareRepositoryId
	ConfigNotFoundId
	ConfigParseErrorId
	AttributeStackFailedId
	NoMatchingPatternsId
	GitCommandFailedId
	LFSUnavailableId
	PartialSetupId
	NotInteractiveId
)

type (
	Id int

	MarkdownMsg string

	HttpLink string

	Issue struct {
		id       Id          // ID used to lookup the issue
		mdMsg    MarkdownMsg // Markdown text that will be rendered
		docLinks []HttpLink  // documentation pages about the issue type
		extLinks []HttpLink  // external links that might be useful for the user
	}
)

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n"
		extraMd += "## See also:\n"
		for _, link := range i.docLinks {
			extraMd += "- [" + string(link) + "](" + string(link) + ")\n"
		}
		for _, link := range i.extLinks {
			extraMd += "- [" + string(link) + "](" + string(link) + ")\n"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	repositoryNotFoundIssue = &Issue{
		id: RepositoryNotFoundId,
		mdMsg: `
# No git repository found!

git-sparta scans the index and the attribute stack of a repository, so it must
run inside a git working tree.

## Things you can try:
- Point the command at a repository explicitly:
~~~
$ git-sparta generate-sparse-list --repo /path/to/repo app
~~~
- When setting up a submodule, make sure SHARED_MIRROR_PATH (or the submodule
  path itself) contains a cloned repository with a working tree.`,
		extLinks: []HttpLink{"https://git-scm.com/docs/git-clone"},
	}

	bareRepositoryIssue = &Issue{
		id: BareRepositoryId,
		mdMsg: `
# Repository is bare!

Attributes are resolved against files in a working tree. A bare repository
has no working tree to evaluate.

## Things you can try:
- Clone the repository without --bare and point git-sparta at the clone.`,
	}

	configNotFoundIssue = &Issue{
		id: ConfigNotFoundId,
		mdMsg: `
# No submodule configuration found!

setup-submodule and teardown-submodule look for the first JSON file in the
configuration directory that contains all required keys.

## Required keys:
- SUBMODULE_NAME
- SUBMODULE_PATH
- SUBMODULE_URL
- SUBMODULE_BRANCH
- PROJECT_TAG

## Optional keys:
- SHARED_MIRROR_PATH

## Example:
~~~json
{
  "SUBMODULE_NAME": "vendor/lib",
  "SUBMODULE_PATH": "vendor/lib",
  "SUBMODULE_URL": "https://example.com/lib.git",
  "SUBMODULE_BRANCH": "main",
  "PROJECT_TAG": "app"
}
~~~

Local overrides may live in *.local.json or .project_local.json, and the
SUBMODULE_URL / SHARED_MIRROR_PATH environment variables win over both.`,
	}

	configParseErrorIssue = &Issue{
		id: ConfigParseErrorId,
		mdMsg: `
# Failed to parse submodule configuration!

One of the JSON files in the configuration directory is not valid JSON, or a
required key does not hold a string.

## Things you can try:
- Validate the file with a JSON linter.
- Make sure every required key maps to a string value.`,
	}

	attributeStackFailedIssue = &Issue{
		id: AttributeStackFailedId,
		mdMsg: `
# Failed to load the attribute stack!

A .gitattributes file (or .git/info/attributes) could not be read. Because
every tag decision depends on the full stack, the whole traversal stops.

## Things you can try:
- Check file permissions of the .gitattributes files in the repository.
- Run with --verbose to see which path failed.`,
		extLinks: []HttpLink{"https://git-scm.com/docs/gitattributes"},
	}

	noMatchingPatternsIssue = &Issue{
		id: NoMatchingPatternsId,
		mdMsg: `
# No files carry the requested tag!

The traversal finished, but no tracked file has the attribute set to a value
containing the tag (or to the global sentinel).

## Things you can try:
- List the tags that do exist:
~~~
$ git-sparta tags
~~~
- Tag files in .gitattributes:
~~~
src/core/** projects=app/core,backend
docs/**     projects=docs
LICENSE     projects
~~~`,
	}

	gitCommandFailedIssue = &Issue{
		id: GitCommandFailedId,
		mdMsg: `
# A git command failed!

The failing command and its stderr are shown above.

## Things you can try:
- Check that the submodule URL is reachable and the branch exists.
- Run with --verbose to log every git invocation.
- Re-run the command: every step checks its own state before acting.`,
	}

	lfsUnavailableIssue = &Issue{
		id: LFSUnavailableId,
		mdMsg: `
# Git LFS is not available!

The checked-out files declare filter=lfs but the LFS objects could not be
fetched. The sparse files are still valid; only LFS pointers are left
unsmudged.

## Things you can try:
~~~
$ git lfs install
$ git -C <submodule> lfs pull
~~~`,
		extLinks: []HttpLink{"https://git-lfs.com"},
	}

	partialSetupIssue = &Issue{
		id: PartialSetupId,
		mdMsg: `
# Submodule setup stopped halfway!

Setup does not roll back. The submodule working tree and modules repository
may be partially linked.

## Things you can try:
- Fix the reported problem and re-run setup-submodule; completed steps are skipped.
- Or remove everything and start over:
~~~
$ git-sparta teardown-submodule --yes
~~~`,
	}

	notInteractiveIssue = &Issue{
		id: NotInteractiveId,
		mdMsg: `
# Interactive picker needs a terminal!

## Things you can try:
- Pass the tag explicitly together with --yes:
~~~
$ git-sparta generate-sparse-list app --yes
~~~`,
	}

	issues = map[Id]*Issue{
		repositoryNotFoundIssue.Id():   repositoryNotFoundIssue,
		bareRepositoryIssue.Id():       bareRepositoryIssue,
		configNotFoundIssue.Id():       configNotFoundIssue,
		configParseErrorIssue.Id():     configParseErrorIssue,
		attributeStackFailedIssue.Id(): attributeStackFailedIssue,
		noMatchingPatternsIssue.Id():   noMatchingPatternsIssue,
		gitCommandFailedIssue.Id():     gitCommandFailedIssue,
		lfsUnavailableIssue.Id():       lfsUnavailableIssue,
		partialSetupIssue.Id():         partialSetupIssue,
		notInteractiveIssue.Id():       notInteractiveIssue,
	}

	kindIssues = map[Kind]Id{
		KindConfig:          ConfigNotFoundId,
		KindRepository:      RepositoryNotFoundId,
		KindAttribute:       AttributeStackFailedId,
		KindNoMatch:         NoMatchingPatternsId,
		KindExternalCommand: GitCommandFailedId,
	}
)

// Values returns every registered issue ordered by id.
func Values() []*Issue {
	values := slices.Collect(maps.Values(issues))
	slices.SortFunc(values, func(a, b *Issue) int { return int(a.id) - int(b.id) })
	return values
}

func Get(id Id) *Issue {
	return issues[id]
}

// ForKind returns the default guidance page for an error kind, or nil.
func ForKind(kind Kind) *Issue {
	id, ok := kindIssues[kind]
	if !ok {
		return nil
	}
	return issues[id]
}
