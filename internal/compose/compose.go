// Package compose is the draft-and-publish terminal UI: one form for
// title, tags, body and an optional image, plus toggles for the
// connected platforms.
package compose

import (
	"context"
	"strings"

	"github.com/Shub3am/PostPilot/internal/store"
	"github.com/Shub3am/PostPilot/internal/types"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	focusTitle = iota
	focusTags
	focusImage
	focusBody
	focusPlatforms
)

var (
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("69")).Bold(true)
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// Result is what the compose session produced.
type Result struct {
	Submitted bool
	Title     string
	Tags      []string
	Body      string
	ImagePath string
	Platforms []types.Platform
}

type toggle struct {
	platform types.Platform
	selected bool
}

// storeChangedMsg reports an external write to the store; the platform
// toggles refresh so a connection check finishing mid-compose shows up.
type storeChangedMsg struct{}

// Model is the compose form.
type Model struct {
	title   textinput.Model
	tags    textinput.Model
	image   textinput.Model
	body    textarea.Model
	toggles []toggle

	store  *store.Store
	watch  <-chan struct{}
	focus  int
	cursor int // platform row under the cursor
	result Result
	err    error
}

// New builds the compose form over the connected platforms. watch may be
// nil; when set, store writes refresh the platform list.
func New(st *store.Store, watch <-chan struct{}) Model {
	title := textinput.New()
	title.Placeholder = "Title"
	title.Focus()

	tags := textinput.New()
	tags.Placeholder = "tags, comma, separated"

	image := textinput.New()
	image.Placeholder = "path/to/image.png (optional)"

	body := textarea.New()
	body.Placeholder = "Write your post..."
	body.SetHeight(8)

	m := Model{
		title: title,
		tags:  tags,
		image: image,
		body:  body,
		store: st,
		watch: watch,
	}
	m.reloadPlatforms()
	return m
}

func (m *Model) reloadPlatforms() {
	connected, err := m.store.ConnectedPlatforms()
	if err != nil {
		m.err = err
		return
	}

	previous := make(map[types.Platform]bool, len(m.toggles))
	seen := make(map[types.Platform]bool, len(m.toggles))
	for _, t := range m.toggles {
		previous[t.platform] = t.selected
		seen[t.platform] = true
	}

	toggles := make([]toggle, 0, len(connected))
	for _, p := range connected {
		selected := true
		if seen[p] {
			selected = previous[p]
		}
		toggles = append(toggles, toggle{platform: p, selected: selected})
	}
	m.toggles = toggles
	if m.cursor >= len(m.toggles) {
		m.cursor = 0
	}
}

func (m Model) waitForStoreChange() tea.Cmd {
	if m.watch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-m.watch; !ok {
			return nil
		}
		return storeChangedMsg{}
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForStoreChange())
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case storeChangedMsg:
		m.reloadPlatforms()
		return m, m.waitForStoreChange()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.result = Result{}
			return m, tea.Quit

		case "ctrl+s":
			m.submit()
			if m.result.Submitted {
				return m, tea.Quit
			}
			return m, nil

		case "tab":
			m.setFocus(m.focus + 1)
			return m, nil

		case "shift+tab":
			m.setFocus(m.focus - 1)
			return m, nil
		}

		if m.focus == focusPlatforms {
			switch msg.String() {
			case "up", "k":
				if m.cursor > 0 {
					m.cursor--
				}
				return m, nil
			case "down", "j":
				if m.cursor < len(m.toggles)-1 {
					m.cursor++
				}
				return m, nil
			case " ", "enter":
				if m.cursor < len(m.toggles) {
					m.toggles[m.cursor].selected = !m.toggles[m.cursor].selected
				}
				return m, nil
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	switch m.focus {
	case focusTitle:
		m.title, cmd = m.title.Update(msg)
	case focusTags:
		m.tags, cmd = m.tags.Update(msg)
	case focusImage:
		m.image, cmd = m.image.Update(msg)
	case focusBody:
		m.body, cmd = m.body.Update(msg)
	}
	return m, cmd
}

func (m *Model) setFocus(focus int) {
	if focus < focusTitle {
		focus = focusPlatforms
	}
	if focus > focusPlatforms {
		focus = focusTitle
	}
	m.focus = focus

	m.title.Blur()
	m.tags.Blur()
	m.image.Blur()
	m.body.Blur()
	switch focus {
	case focusTitle:
		m.title.Focus()
	case focusTags:
		m.tags.Focus()
	case focusImage:
		m.image.Focus()
	case focusBody:
		m.body.Focus()
	}
}

func (m *Model) submit() {
	var selected []types.Platform
	for _, t := range m.toggles {
		if t.selected {
			selected = append(selected, t.platform)
		}
	}
	if m.title.Value() == "" || m.body.Value() == "" || len(selected) == 0 {
		return
	}

	m.result = Result{
		Submitted: true,
		Title:     m.title.Value(),
		Tags:      splitTags(m.tags.Value()),
		Body:      m.body.Value(),
		ImagePath: m.image.Value(),
		Platforms: selected,
	}
}

// View implements tea.Model.
func (m Model) View() string {
	var sections []string

	sections = append(sections,
		labelStyle.Render("Title"), m.title.View(),
		labelStyle.Render("Tags"), m.tags.View(),
		labelStyle.Render("Image"), m.image.View(),
		labelStyle.Render("Body"), m.body.View(),
		labelStyle.Render("Platforms"),
	)

	if m.err != nil {
		sections = append(sections, errorStyle.Render("  "+m.err.Error()))
	}
	if len(m.toggles) == 0 {
		sections = append(sections, dimStyle.Render("  no connected platforms - run `postpilot connect` first"))
	}
	for i, t := range m.toggles {
		mark := "[ ]"
		style := dimStyle
		if t.selected {
			mark = "[x]"
			style = selectedStyle
		}
		var row string
		if m.focus == focusPlatforms && i == m.cursor {
			row = cursorStyle.Render("> ") + style.Render(mark+" "+t.platform.DisplayName())
		} else {
			row = "  " + style.Render(mark+" "+t.platform.DisplayName())
		}
		sections = append(sections, row)
	}

	sections = append(sections, "", helpStyle.Render("tab: next field · space: toggle platform · ctrl+s: publish · esc: cancel"))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// Result returns what the session produced after the program exits.
func (m Model) Result() Result {
	return m.result
}

// Run runs the compose UI to completion and returns its result.
func Run(ctx context.Context, st *store.Store) (Result, error) {
	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	watch, err := st.Watch(watchCtx)
	if err != nil {
		// Composing still works without live refresh.
		watch = nil
	}

	program := tea.NewProgram(New(st, watch), tea.WithContext(ctx))
	final, err := program.Run()
	if err != nil {
		return Result{}, err
	}
	return final.(Model).Result(), nil
}

func splitTags(raw string) []string {
	var tags []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			tags = append(tags, part)
		}
	}
	return tags
}
