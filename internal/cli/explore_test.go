package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jmalten/recgraph/pkg/source"
)

func zooModel(t *testing.T) ExploreModel {
	t.Helper()
	g, err := source.Zoo()
	if err != nil {
		t.Fatalf("Zoo: %v", err)
	}
	return newExploreModel(g)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func step(t *testing.T, m ExploreModel, keys ...string) ExploreModel {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(key(k))
		m = next.(ExploreModel)
	}
	return m
}

func TestExploreListsAllRecords(t *testing.T) {
	m := zooModel(t)

	view := m.View()
	for _, want := range []string{"zookeeper", "animal", "enclosure", "[1/3]"} {
		if !strings.Contains(view, want) {
			t.Errorf("list view missing %q", want)
		}
	}
}

func TestExploreOpensRecordDetail(t *testing.T) {
	m := step(t, zooModel(t), "enter")

	view := m.View()
	if !strings.Contains(view, "zookeeper:1") {
		t.Errorf("detail view missing record key:\n%s", view)
	}
	if !strings.Contains(view, "Christina Hill") {
		t.Errorf("detail view missing field value:\n%s", view)
	}
	if !strings.Contains(view, "animals") {
		t.Errorf("detail view missing relation:\n%s", view)
	}
}

func TestExploreFollowsRelation(t *testing.T) {
	// First record is the zookeeper; its only relation is "animals".
	m := step(t, zooModel(t), "enter", "enter")

	view := m.View()
	if !strings.Contains(view, "Heather") {
		t.Errorf("relation list missing member:\n%s", view)
	}
	if !strings.Contains(view, "zookeeper:1.animals") {
		t.Errorf("relation list missing breadcrumb label:\n%s", view)
	}
}

func TestExploreBackNavigation(t *testing.T) {
	m := step(t, zooModel(t), "enter", "enter", "esc", "esc")

	view := m.View()
	if !strings.Contains(view, "all records") {
		t.Errorf("esc should return to the full record list:\n%s", view)
	}
}

func TestExploreCursorMovement(t *testing.T) {
	m := step(t, zooModel(t), "down", "down")
	if !strings.Contains(m.View(), "[3/3]") {
		t.Errorf("cursor should be on the last record:\n%s", m.View())
	}

	// Moving past the end stays put.
	m = step(t, m, "down")
	if !strings.Contains(m.View(), "[3/3]") {
		t.Error("cursor moved past the last record")
	}
}
