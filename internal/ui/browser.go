package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/webindex/webindex/internal/search"
)

// resultItem adapts a search.ScoredHit to bubbles/list's Item interface.
type resultItem struct {
	hit search.ScoredHit
}

func (i resultItem) Title() string {
	return i.hit.PageTitle
}

func (i resultItem) Description() string {
	captured := time.UnixMilli(i.hit.Timestamp).Format("2006-01-02")
	return fmt.Sprintf("%.4f  %s  (%s)", i.hit.Score, i.hit.PageURL, captured)
}

func (i resultItem) FilterValue() string {
	return i.hit.ChunkText
}

// Model is the bubbletea model for the results browser: a ranked list on
// the left, the selected passage's full text on the right.
type Model struct {
	query  string
	list   list.Model
	detail viewport.Model
	styles Styles
	width  int
	height int
}

// NewModel builds a browser Model over a completed search's hits.
func NewModel(query string, hits []search.ScoredHit, noColor bool) Model {
	items := make([]list.Item, len(hits))
	for i, h := range hits {
		items[i] = resultItem{hit: h}
	}

	styles := DefaultStyles()
	if noColor {
		styles = NoColorStyles()
	}

	delegate := list.NewDefaultDelegate()
	l := list.New(items, delegate, 0, 0)
	l.Title = fmt.Sprintf("search: %q (%d results)", query, len(hits))
	l.Styles.Title = styles.Header

	vp := viewport.New(0, 0)

	m := Model{query: query, list: l, detail: vp, styles: styles}
	m.syncDetail()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		listWidth := m.width * 2 / 5
		m.list.SetSize(listWidth, m.height-2)
		m.detail.Width = m.width - listWidth - 4
		m.detail.Height = m.height - 2
		m.syncDetail()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	m.syncDetail()
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	return lipgloss.JoinHorizontal(lipgloss.Top,
		m.styles.Panel.Render(m.list.View()),
		m.styles.Panel.Render(m.detail.View()),
	)
}

func (m *Model) syncDetail() {
	item, ok := m.list.SelectedItem().(resultItem)
	if !ok {
		m.detail.SetContent("")
		return
	}
	var sb strings.Builder
	sb.WriteString(m.styles.Title.Render(item.hit.PageTitle))
	sb.WriteString("\n")
	sb.WriteString(m.styles.Dim.Render(item.hit.PageURL))
	sb.WriteString("\n\n")
	sb.WriteString(item.hit.ChunkText)
	m.detail.SetContent(sb.String())
}

// Run launches the interactive browser over hits and blocks until the user
// quits.
func Run(query string, hits []search.ScoredHit, noColor bool) error {
	p := tea.NewProgram(NewModel(query, hits, noColor), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
