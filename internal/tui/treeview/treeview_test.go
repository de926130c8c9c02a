package treeview

import (
	"testing"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"

	"hubview/internal/logging"
	"hubview/internal/repotree"
	"hubview/internal/tui/helpers"
)

func buildTestForest() []*repotree.Entry {
	entries := []repotree.Entry{
		{Path: "a", Type: repotree.TypeTree},
		{Path: "a/b.md", Type: repotree.TypeBlob},
		{Path: "a/c", Type: repotree.TypeTree},
		{Path: "a/c/d.txt", Type: repotree.TypeBlob},
		{Path: "a/e", Type: repotree.TypeTree},
		{Path: "a/e/f.txt", Type: repotree.TypeBlob},
		{Path: "README.md", Type: repotree.TypeBlob},
	}
	return repotree.Build(entries)
}

func testContext() helpers.UIContext {
	logger, _ := logging.NewTestLogger()
	return helpers.NewUIContext(80, 24, nil, logger)
}

func TestInitialPathExpandsAncestors(t *testing.T) {
	m := New(buildTestForest(), "a/c/d.txt", testContext())

	if !m.Expanded("a") {
		t.Error("ancestor a should start expanded")
	}
	if !m.Expanded("a/c") {
		t.Error("ancestor a/c should start expanded")
	}
	if m.Expanded("a/e") {
		t.Error("sibling a/e should not start expanded")
	}
}

func TestInitialPathEqualToDirectory(t *testing.T) {
	m := New(buildTestForest(), "a/c", testContext())

	if !m.Expanded("a/c") {
		t.Error("a directory named by initialPath should start expanded")
	}
	if m.Expanded("a/e") {
		t.Error("unrelated directory should stay collapsed")
	}
}

func TestNoInitialPathStartsCollapsed(t *testing.T) {
	m := New(buildTestForest(), "", testContext())

	for _, path := range []string{"a", "a/c", "a/e"} {
		if m.Expanded(path) {
			t.Errorf("%s should start collapsed without an initial path", path)
		}
	}
}

func TestInitialPathPrefixIsSegmentAware(t *testing.T) {
	entries := []repotree.Entry{
		{Path: "ab", Type: repotree.TypeTree},
		{Path: "ab/x.txt", Type: repotree.TypeBlob},
		{Path: "a", Type: repotree.TypeTree},
		{Path: "a/x.txt", Type: repotree.TypeBlob},
	}
	m := New(repotree.Build(entries), "ab/x.txt", testContext())

	if !m.Expanded("ab") {
		t.Error("ab should be expanded for initial path ab/x.txt")
	}
	if m.Expanded("a") {
		t.Error("a must not be expanded: string prefix without a segment boundary")
	}
}

func TestSelectSetsPathAndEmits(t *testing.T) {
	m := New(buildTestForest(), "a/c/d.txt", testContext())

	expandedBefore := map[string]bool{
		"a": m.Expanded("a"), "a/c": m.Expanded("a/c"), "a/e": m.Expanded("a/e"),
	}

	cmd := m.Select("a/b.md")
	if cmd == nil {
		t.Fatal("selecting a blob should emit a command")
	}
	msg, ok := cmd().(FileSelectedMsg)
	if !ok {
		t.Fatalf("expected FileSelectedMsg, got %T", cmd())
	}
	if msg.Path != "a/b.md" {
		t.Errorf("selected path = %q, want a/b.md", msg.Path)
	}
	if m.SelectedPath() != "a/b.md" {
		t.Errorf("SelectedPath = %q, want a/b.md", m.SelectedPath())
	}

	for path, want := range expandedBefore {
		if m.Expanded(path) != want {
			t.Errorf("selection changed expansion of %s", path)
		}
	}
}

func TestSelectIgnoresDirectories(t *testing.T) {
	m := New(buildTestForest(), "", testContext())

	if cmd := m.Select("a"); cmd != nil {
		t.Error("selecting a directory must be a no-op")
	}
	if m.SelectedPath() != "" {
		t.Errorf("SelectedPath = %q, want empty", m.SelectedPath())
	}
}

func TestToggleFlipsDirectoriesOnly(t *testing.T) {
	m := New(buildTestForest(), "", testContext())

	m.Toggle("a")
	if !m.Expanded("a") {
		t.Error("toggle should expand a collapsed directory")
	}
	m.Toggle("a")
	if m.Expanded("a") {
		t.Error("second toggle should collapse again")
	}

	m.Toggle("README.md")
	if m.Expanded("README.md") {
		t.Error("toggling a file must be a no-op")
	}
}

func TestToggleRelativeToInitialBaseline(t *testing.T) {
	m := New(buildTestForest(), "a/c/d.txt", testContext())

	m.Toggle("a/c")
	if m.Expanded("a/c") {
		t.Error("toggle should collapse the initially-expanded directory")
	}
	m.Toggle("a/c")
	if !m.Expanded("a/c") {
		t.Error("toggle should re-expand it")
	}
}

func TestVisibleRowsOrderAndExpansion(t *testing.T) {
	m := New(buildTestForest(), "", testContext())

	rows := m.visibleRows()
	if len(rows) != 2 {
		t.Fatalf("collapsed forest should show 2 rows, got %d", len(rows))
	}
	// Directories sort before files.
	if rows[0].entry.Path != "a" || rows[1].entry.Path != "README.md" {
		t.Errorf("row order wrong: %s, %s", rows[0].entry.Path, rows[1].entry.Path)
	}

	m.Toggle("a")
	rows = m.visibleRows()
	want := []string{"a", "a/c", "a/e", "a/b.md", "README.md"}
	if len(rows) != len(want) {
		t.Fatalf("expanded forest rows = %d, want %d", len(rows), len(want))
	}
	for i, w := range want {
		if rows[i].entry.Path != w {
			t.Errorf("row %d = %s, want %s", i, rows[i].entry.Path, w)
		}
	}
}

func TestCursorStartsOnInitialFile(t *testing.T) {
	m := New(buildTestForest(), "a/c/d.txt", testContext())

	rows := m.visibleRows()
	if rows[m.cursor].entry.Path != "a/c/d.txt" {
		t.Errorf("cursor on %s, want a/c/d.txt", rows[m.cursor].entry.Path)
	}
	if m.SelectedPath() != "a/c/d.txt" {
		t.Errorf("initial file should be preselected, got %q", m.SelectedPath())
	}
}

func TestKeyboardToggleAndSelect(t *testing.T) {
	m := New(buildTestForest(), "", testContext())

	// Cursor starts on "a"; enter expands it.
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Fatal("toggling a directory must not emit a selection")
	}
	if !m.Expanded("a") {
		t.Fatal("enter on a directory should expand it")
	}

	// Move down to the first child directory and past it to a file:
	// rows are a, a/c, a/e, a/b.md, README.md.
	for range 3 {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	}
	m, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter on a file should emit a selection")
	}
	msg := cmd().(FileSelectedMsg)
	if msg.Path != "a/b.md" {
		t.Errorf("selected %q, want a/b.md", msg.Path)
	}
}

func TestCollapseKeyJumpsToParent(t *testing.T) {
	m := New(buildTestForest(), "", testContext())
	m.Toggle("a")

	// Move cursor to a/b.md (row index 3).
	for range 3 {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	}
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyLeft})

	rows := m.visibleRows()
	if rows[m.cursor].entry.Path != "a" {
		t.Errorf("collapse on a file should jump to parent, cursor on %s", rows[m.cursor].entry.Path)
	}
}

func TestNarrowPaneTruncatesOnRuneBoundaries(t *testing.T) {
	entries := []repotree.Entry{
		{Path: "документация", Type: repotree.TypeTree},
		{Path: "документация/читай-меня.md", Type: repotree.TypeBlob},
		{Path: "a-rather-long-file-name.txt", Type: repotree.TypeBlob},
	}
	m := New(repotree.Build(entries), "документация/читай-меня.md", testContext())

	// Every directory row starts with a multibyte glyph, so a byte
	// slice at these widths would split a rune.
	for width := 1; width < 8; width++ {
		m, _ = m.Update(tea.WindowSizeMsg{Width: width, Height: 24})
		out := m.View()
		if !utf8.ValidString(out) {
			t.Fatalf("width %d produced invalid UTF-8: %q", width, out)
		}
	}
}
