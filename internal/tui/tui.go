// Package tui is the interactive browser over chat exports: a
// filterable list on the left, the rendered markdown document in a
// viewport on the right. Enter hands the selected export back to the
// caller for conversion.
package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/YupuLu/copilot-chat-to-markdown/internal/chatlog"
	"github.com/YupuLu/copilot-chat-to-markdown/internal/markdown"
)

const debounceDelay = 200 * time.Millisecond

// Item is one selectable chat export.
type Item struct {
	Title    string // file name or chat key
	Date     string // first request date, may be empty
	Sub      string // summary / snippet line
	Status   string // "", "ok", "canceled", "error"
	FilePath string
}

// Loader resolves the current filter text into the list of items.
// Called off the update loop; it may hit disk or the index DB.
type Loader func(filter string) ([]Item, error)

// message types

type loadResultMsg struct {
	filter string
	items  []Item
	err    error
}

type debounceTickMsg struct {
	filter string
}

type previewRenderedMsg struct {
	path    string
	content string
	err     error
}

// model

type model struct {
	load        Loader
	renderOpts  markdown.Options
	filter      string
	items       []Item
	cursor      int
	listOffset  int
	filterInput textinput.Model
	preview     viewport.Model
	previewPath string // avoid duplicate renders
	width       int
	height      int
	ready       bool
	quitting    bool
	selected    *Item
}

// Run starts the browser and blocks until it exits. It returns the
// item the user selected with Enter, or nil when they quit.
func Run(load Loader, opts markdown.Options) (*Item, error) {
	ti := textinput.New()
	ti.Placeholder = "Filter..."
	ti.Focus()
	ti.Prompt = "> "
	ti.PromptStyle = styleInputPrompt
	ti.TextStyle = styleInput
	ti.CharLimit = 256

	m := model{
		load:        load,
		renderOpts:  opts,
		filterInput: ti,
		preview:     viewport.New(0, 0),
	}
	p := tea.NewProgram(m, tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("tui: %w", err)
	}
	return finalModel.(model).selected, nil
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.doLoad(""))
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		// resize in place: keep content and scroll until the re-wrapped
		// render for the new width arrives
		m.preview.Width = m.previewWidth()
		m.preview.Height = m.panelHeight()
		if len(m.items) > 0 && m.cursor < len(m.items) {
			cmds = append(cmds, m.renderPreview(m.items[m.cursor]))
		}
		return m, tea.Batch(cmds...)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, keys.Enter):
			if len(m.items) > 0 && m.cursor < len(m.items) {
				it := m.items[m.cursor]
				m.selected = &it
				m.quitting = true
				return m, tea.Quit
			}

		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
				m.adjustListScroll()
				cmds = append(cmds, m.loadCurrentPreview())
			}
			return m, tea.Batch(cmds...)

		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.items)-1 {
				m.cursor++
				m.adjustListScroll()
				cmds = append(cmds, m.loadCurrentPreview())
			}
			return m, tea.Batch(cmds...)

		case key.Matches(msg, keys.PreviewUp):
			m.preview.LineUp(m.panelHeight() / 2)
			return m, nil

		case key.Matches(msg, keys.PreviewDn):
			m.preview.LineDown(m.panelHeight() / 2)
			return m, nil

		case key.Matches(msg, keys.PageUp):
			m.preview.LineUp(m.panelHeight())
			return m, nil

		case key.Matches(msg, keys.PageDown):
			m.preview.LineDown(m.panelHeight())
			return m, nil
		}

		var tiCmd tea.Cmd
		m.filterInput, tiCmd = m.filterInput.Update(msg)
		cmds = append(cmds, tiCmd)

		if v := m.filterInput.Value(); v != m.filter {
			m.filter = v
			cmds = append(cmds, m.scheduleDebouncedLoad(v))
		}
		return m, tea.Batch(cmds...)

	case debounceTickMsg:
		if msg.filter == m.filter {
			cmds = append(cmds, m.doLoad(msg.filter))
		}
		return m, tea.Batch(cmds...)

	case loadResultMsg:
		if msg.filter != m.filter {
			return m, nil // stale
		}
		if msg.err != nil {
			m.items = nil
			m.cursor = 0
			m.listOffset = 0
			m.preview.SetContent("Error: " + msg.err.Error())
			m.previewPath = ""
			return m, nil
		}
		m.items = msg.items
		m.cursor = 0
		m.listOffset = 0
		if len(m.items) > 0 {
			cmds = append(cmds, m.loadCurrentPreview())
		} else {
			m.preview.SetContent("")
			m.previewPath = ""
		}
		return m, tea.Batch(cmds...)

	case previewRenderedMsg:
		if len(m.items) > 0 && m.cursor < len(m.items) && msg.path != m.items[m.cursor].FilePath {
			return m, nil // stale preview
		}
		if msg.err != nil {
			m.preview.SetContent("Preview error: " + msg.err.Error())
		} else {
			// a re-render of the showing chat (resize re-wrap) keeps
			// the scroll position; a new chat starts at the top
			offset := 0
			if msg.path == m.previewPath {
				offset = m.preview.YOffset
			}
			m.preview.SetContent(msg.content)
			if offset > 0 {
				m.preview.SetYOffset(offset)
			} else {
				m.preview.GotoTop()
			}
		}
		m.previewPath = msg.path
		return m, nil
	}

	return m, tea.Batch(cmds...)
}

func (m model) View() string {
	if m.quitting || !m.ready {
		return ""
	}

	listW := m.listWidth()
	previewW := m.previewWidth()
	panelH := m.panelHeight()

	inputRow := m.filterInput.View()

	listPanel := stylePanelBorder.
		Width(listW).
		Height(panelH).
		Render(m.renderList(listW, panelH))

	m.preview.Width = previewW
	m.preview.Height = panelH
	previewPanel := styleActiveBorder.
		Width(previewW).
		Height(panelH).
		Render(m.preview.View())

	panels := lipgloss.JoinHorizontal(lipgloss.Top, listPanel, previewPanel)

	return lipgloss.JoinVertical(lipgloss.Left, inputRow, panels, m.statusBar())
}

// layout helpers

func (m model) listWidth() int {
	if m.width <= 0 {
		return 40
	}
	w := m.width*40/100 - 4
	if w < 20 {
		w = 20
	}
	return w
}

func (m model) previewWidth() int {
	if m.width <= 0 {
		return 60
	}
	w := m.width*60/100 - 4
	if w < 20 {
		w = 20
	}
	return w
}

func (m model) panelHeight() int {
	if m.height <= 0 {
		return 20
	}
	// input row (1) + status bar (1) + borders (4)
	h := m.height - 6
	if h < 5 {
		h = 5
	}
	return h
}

func (m model) statusBar() string {
	parts := []string{
		fmt.Sprintf("%d chats", len(m.items)),
		"up/dn navigate",
		"C-u/C-d preview",
		"Enter convert",
		"Esc quit",
	}
	bar := ""
	for i, p := range parts {
		if i > 0 {
			bar += " | "
		}
		bar += p
	}
	return styleStatusBar.Render(bar)
}

// commands

func (m model) doLoad(filter string) tea.Cmd {
	load := m.load
	return func() tea.Msg {
		items, err := load(filter)
		return loadResultMsg{filter: filter, items: items, err: err}
	}
}

func (m model) scheduleDebouncedLoad(filter string) tea.Cmd {
	return tea.Tick(debounceDelay, func(time.Time) tea.Msg {
		return debounceTickMsg{filter: filter}
	})
}

func (m model) loadCurrentPreview() tea.Cmd {
	if len(m.items) == 0 || m.cursor >= len(m.items) {
		return nil
	}
	it := m.items[m.cursor]
	if it.FilePath == m.previewPath {
		return nil
	}
	return m.renderPreview(it)
}

// renderPreview always renders, even for the showing chat; resize uses
// it to re-wrap at the new width.
func (m model) renderPreview(it Item) tea.Cmd {
	opts := m.renderOpts
	width := m.previewWidth()
	return func() tea.Msg {
		log, err := chatlog.Load(it.FilePath)
		if err != nil {
			return previewRenderedMsg{path: it.FilePath, err: err}
		}
		doc := markdown.RenderChat(log, opts)
		return previewRenderedMsg{path: it.FilePath, content: wrapText(doc, width)}
	}
}
