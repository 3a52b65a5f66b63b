package tui

import (
	"testing"

	"github.com/theirongolddev/tbidash/internal/tui/components"

	tea "github.com/charmbracelet/bubbletea"
)

func TestTabAtXMatchesTabWidths(t *testing.T) {
	for active := range components.Tabs {
		a := App{activeTab: active}
		pos := 0

		for i, tab := range components.Tabs {
			w := components.TabVisualWidth(tab, i == active)
			x := pos + w/2 // midpoint inside this tab
			if got := a.tabAtX(x); got != i {
				t.Fatalf("active=%d x=%d -> tab=%d, want %d", active, x, got, i)
			}
			pos += w + 1 // separator
		}
		if got := a.tabAtX(pos + 5); got != -1 {
			t.Errorf("active=%d: x past last tab -> %d, want -1", active, got)
		}
	}
}

func TestMouseClickSelectsTab(t *testing.T) {
	a := loadedApp(t)
	x := components.TabVisualWidth(components.Tabs[0], true) + 1 + 2

	m, _ := a.Update(tea.MouseMsg{X: x, Y: 0, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress})
	if got := m.(App).activeTab; got != tabExplore {
		t.Errorf("activeTab = %d, want %d", got, tabExplore)
	}

	m, _ = m.(App).Update(tea.MouseMsg{X: x, Y: 3, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress})
	if got := m.(App).activeTab; got != tabExplore {
		t.Errorf("click below the tab bar changed tab to %d", got)
	}
}

func TestMouseWheelScrollsExplore(t *testing.T) {
	a := loadedApp(t)
	a.activeTab = tabExplore
	a.explore.rows = 1

	m, _ := a.Update(tea.MouseMsg{Button: tea.MouseButtonWheelDown, Action: tea.MouseActionPress})
	if got := m.(App).explore.offset; got != 1 {
		t.Errorf("offset after wheel down = %d, want 1", got)
	}
	m, _ = m.(App).Update(tea.MouseMsg{Button: tea.MouseButtonWheelUp, Action: tea.MouseActionPress})
	if got := m.(App).explore.offset; got != 0 {
		t.Errorf("offset after wheel up = %d, want 0", got)
	}
}
