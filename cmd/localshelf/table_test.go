package main

import (
	"strings"
	"testing"
)

func TestRenderTable(t *testing.T) {
	out := renderTable(
		[]string{"Status", "Count"},
		[][]string{{"moved", "3"}, {"failed", "12"}},
		[]columnAlignment{alignLeft, alignRight},
	)
	for _, want := range []string{"moved", "failed", "12", "╭", "╯"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	if !strings.Contains(strings.ToLower(out), "status") {
		t.Errorf("table missing header:\n%s", out)
	}
}

func TestRenderTable_PadsShortRows(t *testing.T) {
	out := renderTable([]string{"A", "B", "C"}, [][]string{{"only"}}, nil)
	lines := strings.Split(out, "\n")
	var row string
	for _, l := range lines {
		if strings.Contains(l, "only") {
			row = l
		}
	}
	if row == "" {
		t.Fatalf("row not rendered:\n%s", out)
	}
	if got := strings.Count(row, "│"); got != 4 {
		t.Errorf("row has %d separators, want 4: %q", got, row)
	}
}

func TestRenderTable_NoHeaders(t *testing.T) {
	if out := renderTable(nil, [][]string{{"x"}}, nil); out != "" {
		t.Errorf("expected empty output, got %q", out)
	}
}
