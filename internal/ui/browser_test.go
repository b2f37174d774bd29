package ui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/webindex/webindex/internal/search"
)

func sampleHits() []search.ScoredHit {
	return []search.ScoredHit{
		{PageID: "p1", PageTitle: "Example A", PageURL: "https://ex/a", ChunkID: "chunk_0", ChunkText: "hello world", Score: 0.9, Timestamp: 1000},
		{PageID: "p2", PageTitle: "Example B", PageURL: "https://ex/b", ChunkID: "chunk_0", ChunkText: "goodbye world", Score: 0.5, Timestamp: 2000},
	}
}

func TestNewModelBuildsOneListItemPerHit(t *testing.T) {
	m := NewModel("world", sampleHits(), true)
	require.Len(t, m.list.Items(), 2)
}

func TestUpdateWindowSizeResizesPanels(t *testing.T) {
	m := NewModel("world", sampleHits(), true)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	mm := updated.(Model)
	require.Equal(t, 100, mm.width)
	require.Equal(t, 40, mm.height)
}

func TestQuitKeyReturnsQuitCommand(t *testing.T) {
	m := NewModel("world", sampleHits(), true)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	msg := cmd()
	_, isQuit := msg.(tea.QuitMsg)
	require.True(t, isQuit)
}
