package contextfiles_test

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pgregory.net/rapid"

	"github.com/fakeyudi/ctxchat/internal/contextfiles"
)

func TestBuildSingleFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(p, []byte("alpha"), 0o644); err != nil {
		t.Fatal(err)
	}

	got := contextfiles.Build([]string{p})
	want := "=== File: " + p + " ===\nalpha\n"
	if got != want {
		t.Errorf("Build = %q, want %q", got, want)
	}
}

func TestBuildEmpty(t *testing.T) {
	if got := contextfiles.Build(nil); got != "" {
		t.Errorf("Build(nil) = %q, want empty", got)
	}
}

func TestBuildMissingFileDegrades(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.txt")
	if err := os.WriteFile(good, []byte("ok"), 0o644); err != nil {
		t.Fatal(err)
	}
	missing := filepath.Join(dir, "missing.txt")

	got := contextfiles.Build([]string{missing, good})

	if !strings.Contains(got, contextfiles.Header(missing)+"\nError: ") {
		t.Errorf("expected error segment for %s, got:\n%s", missing, got)
	}
	if !strings.Contains(got, "file not found: "+missing) {
		t.Errorf("expected error reason naming %s, got:\n%s", missing, got)
	}
	if !strings.Contains(got, contextfiles.Header(good)+"\nok\n") {
		t.Errorf("expected content segment for %s, got:\n%s", good, got)
	}
	if strings.Index(got, missing) > strings.Index(got, good) {
		t.Error("segments out of input order")
	}
}

func TestBuildRereadsFiles(t *testing.T) {
	p := filepath.Join(t.TempDir(), "f.txt")
	if err := os.WriteFile(p, []byte("v1"), 0o644); err != nil {
		t.Fatal(err)
	}
	first := contextfiles.Build([]string{p})
	if err := os.WriteFile(p, []byte("v2"), 0o644); err != nil {
		t.Fatal(err)
	}
	second := contextfiles.Build([]string{p})
	if first == second || !strings.Contains(second, "v2") {
		t.Errorf("expected second build to see new content, got %q then %q", first, second)
	}
}

// Feature: ctxchat, Property 1: Context block preserves order with one header per path
func TestBuildOrderAndHeaders(t *testing.T) {
	dir := t.TempDir()

	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 8).Draw(rt, "n")
		paths := make([]string, n)
		for i := range paths {
			paths[i] = filepath.Join(dir, fmt.Sprintf("f%d.txt", i))
			// Some files exist, some do not.
			if rapid.Bool().Draw(rt, "exists") {
				body := rapid.StringMatching(`[a-z ]{0,40}`).Draw(rt, "body")
				if err := os.WriteFile(paths[i], []byte(body), 0o644); err != nil {
					rt.Fatal(err)
				}
			} else {
				os.Remove(paths[i])
			}
		}

		out := contextfiles.Build(paths)

		last := -1
		for _, p := range paths {
			h := contextfiles.Header(p)
			if c := strings.Count(out, h); c != 1 {
				rt.Fatalf("header %q appears %d times, want 1", h, c)
			}
			idx := strings.Index(out, h)
			if idx < last {
				rt.Fatalf("header %q out of order", h)
			}
			last = idx
		}
	})
}
