// Author: Kaviru Hapuarachchi
// GitHub: https://github.com/Kavirubc
// Created: 2026-10-18
// Last Modified: 2026-10-18

package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestModelTracksStepStatus(t *testing.T) {
	ch := make(chan PipelineStatusMsg)
	m := NewModel("DO-8612", true, []string{"fetch_epic", "reconciler"}, ch)

	next, _ := m.Update(PipelineStatusMsg{Step: "fetch_epic", Status: StatusSuccess, Message: "Completed"})
	m = next.(Model)
	next, _ = m.Update(PipelineStatusMsg{Step: "reconciler", Status: StatusError, Message: "boom"})
	m = next.(Model)

	if m.current != 1 {
		t.Errorf("current = %d, want 1", m.current)
	}
	if m.err == nil || !strings.Contains(m.err.Error(), "boom") {
		t.Errorf("err = %v, want reconciler failure", m.err)
	}

	view := m.View()
	for _, want := range []string{"Alert Sync: DO-8612", "[DRY RUN]", "fetch_epic", "boom"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestModelResultQuits(t *testing.T) {
	m := NewModel("DO-1", false, nil, make(chan PipelineStatusMsg))

	next, cmd := m.Update(ResultMsg{Success: true, Output: "{}"})
	m = next.(Model)
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Errorf("cmd() did not return tea.QuitMsg")
	}
	if r := m.Result(); r == nil || !r.Success || r.Output != "{}" {
		t.Errorf("Result() = %+v", r)
	}
	if m.View() != "" {
		t.Errorf("View() after quit = %q, want empty", m.View())
	}
}

func TestModelClosedChannelEndsRun(t *testing.T) {
	ch := make(chan PipelineStatusMsg)
	close(ch)
	m := NewModel("DO-1", false, nil, ch)

	msg := m.waitForActivity()()
	res, ok := msg.(ResultMsg)
	if !ok || !res.Success {
		t.Errorf("msg = %#v, want successful ResultMsg", msg)
	}
}
