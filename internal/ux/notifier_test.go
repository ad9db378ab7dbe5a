package ux

import (
	"bytes"
	"strings"
	"sync"
	"testing"
)

func TestNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewNotifier(&buf, false)

	n.Success("logged in as sue")
	n.Info("delete cancelled")
	n.Warning("you do not have permission to access this page")
	n.Error("failed to delete announcement")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	want := []string{
		"✓ logged in as sue",
		"ℹ delete cancelled",
		"⚠ you do not have permission to access this page",
		"✗ failed to delete announcement",
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(lines), len(want), buf.String())
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestNotifierQuiet(t *testing.T) {
	var buf bytes.Buffer
	n := NewNotifier(&buf, true)

	n.Success("hidden")
	n.Warning("hidden")
	n.Error("shown")

	if got := strings.TrimSpace(buf.String()); got != "✗ shown" {
		t.Errorf("quiet output = %q", got)
	}
}

func TestNotifierConcurrent(t *testing.T) {
	var buf bytes.Buffer
	n := NewNotifier(&buf, false)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n.Info("tick")
		}()
	}
	wg.Wait()

	if got := strings.Count(buf.String(), "ℹ tick\n"); got != 20 {
		t.Errorf("got %d whole lines, want 20", got)
	}
}
