package tui

import (
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
)

func TestWrapTextBreaksAtWordBoundaries(t *testing.T) {
	lines := wrapText("the quick brown fox jumps", 10)
	want := []string{"the quick", "brown fox", "jumps"}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d: %q", len(want), len(lines), lines)
	}
	for i, line := range want {
		if lines[i] != line {
			t.Fatalf("expected line %d %q, got %q", i, line, lines[i])
		}
	}
}

func TestWrapTextRespectsWidth(t *testing.T) {
	lines := wrapText("alpha beta gamma delta epsilon zeta", 12)
	for _, line := range lines {
		if w := runewidth.StringWidth(line); w > 12 {
			t.Fatalf("line %q is %d cells wide", line, w)
		}
	}
}

func TestWrapTextHardBreaksLongWords(t *testing.T) {
	lines := wrapText(strings.Repeat("x", 25), 10)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), lines)
	}
	if lines[0] != strings.Repeat("x", 10) || lines[2] != strings.Repeat("x", 5) {
		t.Fatalf("unexpected hard break: %q", lines)
	}
}

func TestWrapTextPreservesParagraphBreaks(t *testing.T) {
	lines := wrapText("one\n\ntwo", 10)
	want := []string{"one", "", "two"}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d: %q", len(want), len(lines), lines)
	}
	for i, line := range want {
		if lines[i] != line {
			t.Fatalf("expected line %d %q, got %q", i, line, lines[i])
		}
	}
}

func TestWrapTextWideRunes(t *testing.T) {
	lines := wrapText("こんにちは 世界", 6)
	for _, line := range lines {
		if w := runewidth.StringWidth(line); w > 6 {
			t.Fatalf("line %q is %d cells wide", line, w)
		}
	}
}

func TestContentWidthForFontBounds(t *testing.T) {
	small := contentWidthFor(120, 16)
	large := contentWidthFor(120, 36)
	if large >= small {
		t.Fatalf("expected larger font to narrow content: font16=%d font36=%d", small, large)
	}
	if got := contentWidthFor(0, 24); got < 1 {
		t.Fatalf("expected a positive width for zero terminal, got %d", got)
	}
}
