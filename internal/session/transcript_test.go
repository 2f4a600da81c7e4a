package session_test

import (
	"os"
	"path/filepath"
	"testing"

	"pgregory.net/rapid"

	"github.com/fakeyudi/ctxchat/internal/session"
)

// transcriptText produces text that cannot be confused with a block label.
var transcriptText = rapid.StringMatching(`[a-z0-9 .,?!\n]{0,60}`)

func TestNewTranscriptTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.txt")
	if err := os.WriteFile(path, []byte("stale content"), 0o644); err != nil {
		t.Fatal(err)
	}

	tr, err := session.NewTranscript(path)
	if err != nil {
		t.Fatalf("NewTranscript: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 0 {
		t.Errorf("expected empty file after construction, got %q", data)
	}
	if len(tr.Exchanges()) != 0 {
		t.Errorf("expected no exchanges, got %d", len(tr.Exchanges()))
	}
}

func TestNewTranscriptCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chats", "2026", "chat.txt")
	if _, err := session.NewTranscript(path); err != nil {
		t.Fatalf("NewTranscript: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected transcript file to exist: %v", err)
	}
}

func TestAddExchangeFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.txt")
	tr, err := session.NewTranscript(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := tr.AddExchange("hi", "hello"); err != nil {
		t.Fatal(err)
	}
	if err := tr.AddExchange("bye", "see you"); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "USER:\nhi\nASSISTANT:\nhello\n\nUSER:\nbye\nASSISTANT:\nsee you\n\n"
	if string(data) != want {
		t.Errorf("file content = %q, want %q", data, want)
	}
}

func TestExchangesReturnsCopy(t *testing.T) {
	tr, err := session.NewTranscript(filepath.Join(t.TempDir(), "chat.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if err := tr.AddExchange("p", "r"); err != nil {
		t.Fatal(err)
	}
	got := tr.Exchanges()
	got[0].Prompt = "mutated"
	if tr.Exchanges()[0].Prompt != "p" {
		t.Error("Exchanges exposed internal state")
	}
}

// Feature: ctxchat, Property 2: Transcript round-trip
func TestTranscriptRoundTrip(t *testing.T) {
	dir := t.TempDir()

	rapid.Check(t, func(rt *rapid.T) {
		path := filepath.Join(dir, "chat.txt")
		tr, err := session.NewTranscript(path)
		if err != nil {
			rt.Fatalf("NewTranscript: %v", err)
		}

		n := rapid.IntRange(0, 10).Draw(rt, "n")
		want := make([]session.Exchange, n)
		for i := range want {
			want[i] = session.Exchange{
				Prompt:   transcriptText.Draw(rt, "prompt"),
				Response: transcriptText.Draw(rt, "response"),
			}
			if err := tr.AddExchange(want[i].Prompt, want[i].Response); err != nil {
				rt.Fatalf("AddExchange: %v", err)
			}
		}

		data, err := os.ReadFile(path)
		if err != nil {
			rt.Fatal(err)
		}
		got := session.ParseTranscript(data)
		if len(got) != n {
			rt.Fatalf("parsed %d exchanges, want %d\nfile:\n%q", len(got), n, data)
		}
		for i := range want {
			if got[i] != want[i] {
				rt.Errorf("exchange %d: got %+v, want %+v", i, got[i], want[i])
			}
		}

		mem := tr.Exchanges()
		for i := range want {
			if mem[i] != want[i] {
				rt.Errorf("in-memory exchange %d: got %+v, want %+v", i, mem[i], want[i])
			}
		}
	})
}
