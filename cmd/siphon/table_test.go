package main

import (
	"strings"
	"testing"
)

func TestRenderTableRightAlignsNumericColumns(t *testing.T) {
	out := renderTable(
		[]string{"Metric", "Count"},
		[][]string{{"files", "7"}, {"events", "1200"}},
		1,
	)
	if !strings.Contains(out, "COUNT") {
		t.Fatalf("header missing:\n%s", out)
	}
	if !strings.Contains(out, "│     7 │") {
		t.Errorf("count column not right-aligned:\n%s", out)
	}
	if !strings.Contains(out, "│  1200 │") {
		t.Errorf("count column not right-aligned:\n%s", out)
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable([]string{"A", "B", "C"}, [][]string{{"only"}})
	if strings.Contains(out, "<nil>") {
		t.Errorf("missing cells rendered as nil:\n%s", out)
	}
	if !strings.Contains(out, "only") {
		t.Errorf("row cell missing:\n%s", out)
	}
}

func TestRenderTableEmptyHeaders(t *testing.T) {
	if out := renderTable(nil, nil); out != "" {
		t.Errorf("renderTable(nil) = %q, want empty", out)
	}
}
