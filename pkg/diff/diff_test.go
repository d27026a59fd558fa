package diff

import (
	"strings"
	"testing"
)

func TestGetDiffIdentical(t *testing.T) {
	if d := GetDiff("a.py", "x = 1\n", "x = 1\n"); d != "" {
		t.Errorf("identical content should produce empty diff, got %q", d)
	}
}

func TestGetDiffMarksLines(t *testing.T) {
	old := "a\nb\nc\n"
	new := "a\nB\nc\n"

	d := GetDiff("file.py", old, new)

	if !strings.Contains(d, "- b") {
		t.Errorf("diff missing deletion:\n%s", d)
	}
	if !strings.Contains(d, "+ B") {
		t.Errorf("diff missing insertion:\n%s", d)
	}
	if !strings.Contains(d, "file.py") {
		t.Errorf("diff missing filename header:\n%s", d)
	}
}

func TestGetDiffCollapsesLongEqualRuns(t *testing.T) {
	lines := make([]string, 0, 12)
	for i := 0; i < 10; i++ {
		lines = append(lines, "same")
	}
	old := strings.Join(lines, "\n") + "\nend\n"
	new := strings.Join(lines, "\n") + "\nEND\n"

	d := GetDiff("file.py", old, new)

	if !strings.Contains(d, "  ...\n") {
		t.Errorf("long unchanged run should be collapsed:\n%s", d)
	}
}

func TestStatsLineCounts(t *testing.T) {
	d := GetDiff("file.py", "abc\n", "abcdef\n")

	// Three characters were added, none deleted.
	if !strings.Contains(d, "+++3") {
		t.Errorf("stats line missing addition count:\n%s", d)
	}
	if strings.Contains(d, "---") {
		t.Errorf("stats line should omit zero deletions:\n%s", d)
	}
}
