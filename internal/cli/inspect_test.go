package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/shaderflow/shaderflow/pkg/compile"
)

func TestPassSummary(t *testing.T) {
	p := &compile.RenderPass{
		ID: "trail",
		Uniforms: map[string]compile.Uniform{
			"u_trail_decay": {Type: "float"},
		},
		Inputs: map[string]string{
			"u_trail_feedback": compile.RefFeedback,
			"u_trail_tex":      "blur::v",
		},
		Feedback: &compile.FeedbackConfig{Persistent: true, Initial: compile.RefEmpty},
		Loop:     4,
	}

	lines := strings.Join(passSummary(p), "\n")
	for _, want := range []string{
		"uniforms: u_trail_decay",
		"u_trail_tex → blur::v",
		"persistent",
		"initial " + compile.RefEmpty,
		"loop: 4 iterations",
	} {
		if !strings.Contains(lines, want) {
			t.Errorf("summary missing %q:\n%s", want, lines)
		}
	}
}

func TestPassSummaryMinimal(t *testing.T) {
	if lines := passSummary(&compile.RenderPass{ID: "out"}); len(lines) != 0 {
		t.Errorf("summary for bare pass = %v, want none", lines)
	}
}

func TestIndent(t *testing.T) {
	got := indent("a\nb\n", "  ")
	if got != "  a\n  b" {
		t.Errorf("indent = %q", got)
	}
}

func TestPassBrowserNavigation(t *testing.T) {
	m := newPassBrowser([]*compile.RenderPass{
		{ID: "a"}, {ID: "b"}, {ID: "c"},
	})

	next := keyPress(t, m, "j")
	if next.cursor != 1 {
		t.Errorf("cursor = %d after j, want 1", next.cursor)
	}
	next = keyPress(t, next, "enter")
	if !next.showSource {
		t.Error("enter should toggle source view")
	}
	next = keyPress(t, next, "esc")
	if next.showSource {
		t.Error("esc should return to the list")
	}
}

func keyPress(t *testing.T, m passBrowser, key string) passBrowser {
	t.Helper()
	updated, _ := m.Update(keyMsg(key))
	next, ok := updated.(passBrowser)
	if !ok {
		t.Fatalf("Update returned %T", updated)
	}
	return next
}

func keyMsg(key string) tea.KeyMsg {
	switch key {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
}
