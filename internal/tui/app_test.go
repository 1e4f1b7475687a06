package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/Jrmromao/costlens/internal/model"
)

func TestTabAtX(t *testing.T) {
	a := App{activeTab: 0}

	// "Overview" is active (no brackets): columns 1-8.
	if got := a.tabAtX(1); got != 0 {
		t.Errorf("tabAtX(1) = %d, want 0", got)
	}
	if got := a.tabAtX(8); got != 0 {
		t.Errorf("tabAtX(8) = %d, want 0", got)
	}
	// Gap between tabs maps to nothing.
	if got := a.tabAtX(9); got != -1 {
		t.Errorf("tabAtX(9) = %d, want -1", got)
	}
	// "Costs" with [C] brackets starts after the 2-space gap: column 11.
	if got := a.tabAtX(11); got != 1 {
		t.Errorf("tabAtX(11) = %d, want 1", got)
	}
	// Far off the bar.
	if got := a.tabAtX(500); got != -1 {
		t.Errorf("tabAtX(500) = %d, want -1", got)
	}
}

func TestModelSpendSortsByCostDesc(t *testing.T) {
	runs := []model.PromptRun{
		{Model: "deepseek-chat", Cost: 0.50},
		{Model: "gpt-4o", Cost: 2.00},
		{Model: "deepseek-chat", Cost: 0.75},
		{Model: "mistral-7b-instruct", Cost: 0.05},
	}

	split := modelSpend(runs)
	if len(split) != 3 {
		t.Fatalf("got %d models, want 3", len(split))
	}
	if split[0].Model != "gpt-4o" || split[1].Model != "deepseek-chat" {
		t.Errorf("order = [%s, %s, %s]", split[0].Model, split[1].Model, split[2].Model)
	}
	if split[1].Cost != 1.25 {
		t.Errorf("deepseek-chat cost = %v, want 1.25", split[1].Cost)
	}
}

func TestDataAge(t *testing.T) {
	if got := dataAge(time.Time{}); got != "no data" {
		t.Errorf("zero time = %q", got)
	}
	if got := dataAge(time.Now()); got != "just now" {
		t.Errorf("now = %q", got)
	}
	if got := dataAge(time.Now().Add(-30 * time.Second)); !strings.HasSuffix(got, "s ago") {
		t.Errorf("30s = %q", got)
	}
	if got := dataAge(time.Now().Add(-5 * time.Minute)); got != "5m ago" {
		t.Errorf("5m = %q", got)
	}
}

func TestPadAndTruncateHeight(t *testing.T) {
	s := "a\nb\nc"
	if got := truncateHeight(s, 2); got != "a\nb" {
		t.Errorf("truncateHeight = %q", got)
	}
	if got := truncateHeight(s, 5); got != s {
		t.Errorf("truncateHeight should be a no-op: %q", got)
	}
	padded := padHeight(s, 5)
	if lines := strings.Count(padded, "\n") + 1; lines != 5 {
		t.Errorf("padHeight produced %d lines, want 5", lines)
	}
}

func TestMaskKey(t *testing.T) {
	if got := maskKey(""); got != "—" {
		t.Errorf("empty = %q", got)
	}
	if got := maskKey("abc"); got != "••••" {
		t.Errorf("short = %q", got)
	}
	got := maskKey("bk-1234567890")
	if !strings.HasPrefix(got, "bk-") || !strings.HasSuffix(got, "890") || strings.Contains(got, "456") {
		t.Errorf("long = %q", got)
	}
}
