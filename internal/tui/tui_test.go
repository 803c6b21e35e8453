package tui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

func previewModel() model {
	m := model{
		items: []Item{
			{Title: "a", FilePath: "/tmp/a.json"},
			{Title: "b", FilePath: "/tmp/b.json"},
		},
		preview: viewport.New(40, 10),
		ready:   true,
		width:   100,
		height:  26,
	}
	return m
}

func tallContent(lines int) string {
	var b strings.Builder
	for i := 0; i < lines; i++ {
		b.WriteString("line\n")
	}
	return b.String()
}

func TestResizeKeepsPreviewState(t *testing.T) {
	m := previewModel()
	m.preview.SetContent(tallContent(30))
	m.preview.SetYOffset(5)
	m.previewPath = m.items[0].FilePath

	next, cmd := m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	got := next.(model)

	if got.preview.Width != got.previewWidth() || got.preview.Height != got.panelHeight() {
		t.Errorf("viewport not resized in place: %dx%d", got.preview.Width, got.preview.Height)
	}
	if got.previewPath != m.previewPath {
		t.Errorf("previewPath reset on resize: %q", got.previewPath)
	}
	if got.preview.YOffset != 5 {
		t.Errorf("scroll position lost on resize: YOffset = %d", got.preview.YOffset)
	}
	if cmd == nil {
		t.Error("resize should schedule a re-wrap of the current preview")
	}
}

func TestPreviewRenderedSamePathKeepsScroll(t *testing.T) {
	m := previewModel()
	m.preview.SetContent(tallContent(30))
	m.preview.SetYOffset(3)
	m.previewPath = m.items[0].FilePath

	next, _ := m.Update(previewRenderedMsg{
		path:    m.items[0].FilePath,
		content: tallContent(40),
	})
	got := next.(model)

	if got.preview.YOffset != 3 {
		t.Errorf("re-render of the showing chat moved the scroll: YOffset = %d", got.preview.YOffset)
	}
}

func TestPreviewRenderedNewPathStartsAtTop(t *testing.T) {
	m := previewModel()
	m.cursor = 1
	m.preview.SetContent(tallContent(30))
	m.preview.SetYOffset(7)
	m.previewPath = m.items[0].FilePath

	next, _ := m.Update(previewRenderedMsg{
		path:    m.items[1].FilePath,
		content: tallContent(40),
	})
	got := next.(model)

	if got.preview.YOffset != 0 {
		t.Errorf("new chat should start at the top: YOffset = %d", got.preview.YOffset)
	}
	if got.previewPath != m.items[1].FilePath {
		t.Errorf("previewPath = %q", got.previewPath)
	}
}

func TestPreviewRenderedStaleIgnored(t *testing.T) {
	m := previewModel()
	m.cursor = 1
	m.preview.SetContent("current")
	m.previewPath = m.items[1].FilePath

	next, _ := m.Update(previewRenderedMsg{
		path:    m.items[0].FilePath,
		content: "stale",
	})
	got := next.(model)

	if got.previewPath != m.items[1].FilePath {
		t.Errorf("stale render overwrote previewPath: %q", got.previewPath)
	}
}
