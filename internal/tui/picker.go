// SPDX-License-Identifier: MPL-2.0

package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/git-sparta/git-sparta/internal/issue"
)

const (
	// SelectionTag marks a Selection holding a TagRow.
	SelectionTag SelectionKind = iota + 1
	// SelectionFile marks a Selection holding a FileRow.
	SelectionFile

	defaultPickerWidth  = 80
	defaultPickerHeight = 15

	tagIcon = "◆"
)

type (
	// SelectionKind tells which row type a Selection holds.
	SelectionKind int

	// TagRow is one tag with the number of files carrying it.
	TagRow struct {
		Name  string
		Count int
	}

	// FileRow is one pattern with the tags that selected it.
	FileRow struct {
		Path string
		Tags []string
	}

	// Selection is the row the user accepted.
	Selection struct {
		Kind SelectionKind
		Tag  TagRow
		File FileRow
	}

	// PickerData is everything the picker shows.
	PickerData struct {
		// Context is a label rendered under the title, usually the repository root.
		Context string
		// InitialQuery pre-fills the search input.
		InitialQuery string
		// Title is the prompt shown above the input.
		Title string
		Tags  []TagRow
		Files []FileRow
	}

	// Outcome is the result of a picker session. Accepted is true when the
	// user confirmed with enter, even if no row was highlighted; Selection is
	// nil in that case and Query holds what was typed.
	Outcome struct {
		Accepted  bool
		Query     string
		Selection *Selection
	}

	pickerItem struct {
		render string
		filter string
		sel    Selection
	}

	pickerModel struct {
		input  textinput.Model
		list   list.Model
		items  []pickerItem
		header string

		done      bool
		cancelled bool
		result    Outcome
	}
)

func (i pickerItem) Title() string       { return i.render }
func (i pickerItem) Description() string { return "" }
func (i pickerItem) FilterValue() string { return i.filter }

// Pick runs the full-screen picker and returns what the user chose. It
// fails when stdin or stderr is not a terminal.
func Pick(data PickerData, cfg Config) (Outcome, error) {
	if !IsInteractive() {
		return Outcome{}, notInteractive()
	}

	m := newPickerModel(data, cfg)
	p := tea.NewProgram(m,
		tea.WithInput(getInput(cfg)),
		tea.WithOutput(getOutputWriter(cfg)),
	)
	final, err := p.Run()
	if err != nil {
		return Outcome{}, fmt.Errorf("run picker: %w", err)
	}
	return final.(pickerModel).Outcome(), nil
}

// ResolveTag turns a tag-picker outcome into a tag. A highlighted file row
// is rejected; with nothing highlighted the trimmed query is the tag.
func ResolveTag(o Outcome) (string, error) {
	if !o.Accepted {
		return "", issue.Aborted()
	}
	if o.Selection != nil {
		if o.Selection.Kind == SelectionFile {
			return "", issue.NewErrorContext().
				WithOperation("select a tag").
				WithResource(o.Selection.File.Path).
				WithSuggestion("Select a tag row instead of a file").
				Wrap(errors.New("a file was selected")).
				BuildError()
		}
		return o.Selection.Tag.Name, nil
	}
	tag := strings.TrimSpace(o.Query)
	if tag == "" {
		return "", issue.NewErrorContext().
			WithOperation("select a tag").
			WithSuggestion("Type a tag or highlight one of the listed tags").
			Wrap(errors.New("no tag selected")).
			BuildError()
	}
	return tag, nil
}

func notInteractive() error {
	return issue.NewErrorContext().
		WithOperation("open the interactive picker").
		WithSuggestions(
			"Run git-sparta in a terminal",
			"Pass the tag as an argument together with --yes",
		).
		Wrap(errors.New("stdin and stderr must be terminals")).
		BuildError()
}

func newPickerModel(data PickerData, cfg Config) pickerModel {
	items := buildItems(data)

	width := cfg.Width
	if width <= 0 {
		width = defaultPickerWidth
	}
	height := cfg.Height
	if height <= 0 {
		height = defaultPickerHeight
	}

	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false
	delegate.SetSpacing(0)

	l := list.New(nil, delegate, width, height)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetShowFilter(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)

	in := textinput.New()
	in.Prompt = "> "
	in.Placeholder = "type to filter"
	in.Width = width - len(in.Prompt)
	in.SetValue(data.InitialQuery)
	in.CursorEnd()
	in.Focus()

	m := pickerModel{
		input:  in,
		list:   l,
		items:  items,
		header: renderHeader(data),
	}
	m.refilter()
	return m
}

func buildItems(data PickerData) []pickerItem {
	items := make([]pickerItem, 0, len(data.Tags)+len(data.Files))
	for _, tag := range data.Tags {
		items = append(items, pickerItem{
			render: fmt.Sprintf("%s %s  %s", tagIcon, tag.Name, countStyle.Render(fmt.Sprintf("(%d matches)", tag.Count))),
			filter: tag.Name,
			sel:    Selection{Kind: SelectionTag, Tag: tag},
		})
	}
	for _, file := range data.Files {
		render := file.Path
		if len(file.Tags) > 0 {
			render += "  " + tagsStyle.Render("["+strings.Join(file.Tags, ", ")+"]")
		}
		items = append(items, pickerItem{
			render: render,
			filter: file.Path,
			sel:    Selection{Kind: SelectionFile, File: file},
		})
	}
	return items
}

func renderHeader(data PickerData) string {
	var lines []string
	if data.Title != "" {
		lines = append(lines, titleStyle.Render(data.Title))
	}
	if data.Context != "" {
		lines = append(lines, contextStyle.Render(data.Context))
	}
	return strings.Join(lines, "\n")
}

// refilter ranks the rows against the current query. The list's own
// filtering is disabled; it only renders what refilter hands it.
func (m *pickerModel) refilter() {
	query := m.input.Value()
	if strings.TrimSpace(query) == "" {
		rows := make([]list.Item, len(m.items))
		for i, it := range m.items {
			rows[i] = it
		}
		m.list.SetItems(rows)
		m.list.ResetSelected()
		return
	}

	targets := make([]string, len(m.items))
	for i, it := range m.items {
		targets[i] = it.filter
	}
	ranks := list.DefaultFilter(strings.TrimSpace(query), targets)
	rows := make([]list.Item, len(ranks))
	for i, r := range ranks {
		rows[i] = m.items[r.Index]
	}
	m.list.SetItems(rows)
	m.list.ResetSelected()
}

func (m pickerModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.done = true
			m.cancelled = true
			m.result = Outcome{Query: m.input.Value()}
			return m, tea.Quit
		case "enter":
			m.done = true
			m.result = Outcome{Accepted: true, Query: m.input.Value()}
			if it, ok := m.list.SelectedItem().(pickerItem); ok {
				sel := it.sel
				m.result.Selection = &sel
			}
			return m, tea.Quit
		case "up", "ctrl+p":
			m.list.CursorUp()
			return m, nil
		case "down", "ctrl+n":
			m.list.CursorDown()
			return m, nil
		case "pgup":
			m.list.PrevPage()
			return m, nil
		case "pgdown":
			m.list.NextPage()
			return m, nil
		}
	case tea.WindowSizeMsg:
		headerHeight := lipgloss.Height(m.header) + 1
		m.list.SetSize(msg.Width, max(msg.Height-headerHeight, 1))
		m.input.Width = msg.Width - len(m.input.Prompt)
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		m.refilter()
	}
	return m, cmd
}

func (m pickerModel) View() string {
	if m.done {
		return ""
	}
	parts := make([]string, 0, 3)
	if m.header != "" {
		parts = append(parts, m.header)
	}
	parts = append(parts, m.input.View(), m.list.View())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// Outcome returns the session result once the model has quit.
func (m pickerModel) Outcome() Outcome {
	return m.result
}

// Cancelled reports whether the user left with esc or ctrl+c.
func (m pickerModel) Cancelled() bool {
	return m.cancelled
}
