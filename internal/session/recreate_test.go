package session_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pgregory.net/rapid"

	"github.com/fakeyudi/ctxchat/internal/session"
)

func writeTranscript(t *testing.T, dir string, pairs ...string) string {
	t.Helper()
	path := filepath.Join(dir, "chat.txt")
	tr, err := session.NewTranscript(path)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i+1 < len(pairs); i += 2 {
		if err := tr.AddExchange(pairs[i], pairs[i+1]); err != nil {
			t.Fatal(err)
		}
	}
	return path
}

func TestRecreateWithContext(t *testing.T) {
	dir := t.TempDir()
	transcript := writeTranscript(t, dir, "q", "a")
	ctxFile := filepath.Join(dir, "notes.md")
	if err := os.WriteFile(ctxFile, []byte("background"), 0o644); err != nil {
		t.Fatal(err)
	}
	missing := filepath.Join(dir, "gone.md")
	out := filepath.Join(dir, "temp.txt")

	var buf bytes.Buffer
	got, err := session.Recreate(&buf, transcript, []string{ctxFile, missing}, out)
	if err != nil {
		t.Fatalf("Recreate: %v", err)
	}

	if buf.String() != got {
		t.Error("printed output differs from returned output")
	}
	persisted, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(persisted) != got {
		t.Error("persisted output differs from returned output")
	}

	if !strings.HasPrefix(got, "=== CONTEXT FILES ===\n") {
		t.Errorf("expected context section first, got:\n%s", got)
	}
	if !strings.Contains(got, "\n--- File: "+ctxFile+" ---\nbackground\n") {
		t.Errorf("missing context file block, got:\n%s", got)
	}
	if !strings.Contains(got, "\n--- File: "+missing+" ---\n[Error reading file: file not found: "+missing+"]\n") {
		t.Errorf("missing error marker for unreadable file, got:\n%s", got)
	}
	if strings.Index(got, ctxFile) > strings.Index(got, missing) {
		t.Error("context files out of order")
	}
	history, ok := session.HistorySection(got)
	if !ok || history != "USER:\nq\nASSISTANT:\na\n\n" {
		t.Errorf("history section = %q", history)
	}
}

func TestRecreateOverwritesOutput(t *testing.T) {
	dir := t.TempDir()
	transcript := writeTranscript(t, dir, "q", "a")
	out := filepath.Join(dir, "temp.txt")
	if err := os.WriteFile(out, []byte(strings.Repeat("old ", 1000)), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := session.Recreate(nil, transcript, nil, out)
	if err != nil {
		t.Fatal(err)
	}
	persisted, _ := os.ReadFile(out)
	if string(persisted) != got {
		t.Errorf("output not overwritten: %q", persisted)
	}
}

func TestRecreateMissingTranscript(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "temp.txt")
	if _, err := session.Recreate(nil, filepath.Join(dir, "nope.txt"), nil, out); err == nil {
		t.Fatal("expected error for missing transcript, got nil")
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("output must not be written when the transcript is missing")
	}
}

// Feature: ctxchat, Property 5: Recreated view without context files
func TestRecreateNoContextOmitsSection(t *testing.T) {
	dir := t.TempDir()

	rapid.Check(t, func(rt *rapid.T) {
		transcript := filepath.Join(dir, "chat.txt")
		raw := rapid.String().Draw(rt, "raw")
		if err := os.WriteFile(transcript, []byte(raw), 0o644); err != nil {
			rt.Fatal(err)
		}

		got, err := session.Render(transcript, nil)
		if err != nil {
			rt.Fatalf("Render: %v", err)
		}
		if strings.HasPrefix(got, "=== CONTEXT FILES ===") {
			rt.Fatalf("context section present with no context files:\n%s", got)
		}
		history, ok := session.HistorySection(got)
		if !ok {
			rt.Fatalf("chat history section missing:\n%s", got)
		}
		if history != raw {
			rt.Errorf("history = %q, want %q", history, raw)
		}
	})
}
