package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/fakeyudi/ctxchat/internal/config"
	"github.com/fakeyudi/ctxchat/internal/llm"
	"github.com/fakeyudi/ctxchat/internal/session"
)

// executeCommand runs a cobra command with the given args and captures combined output.
func executeCommand(root *cobra.Command, args ...string) (output string, err error) {
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	_, err = root.ExecuteC()
	return buf.String(), err
}

// resetFlags restores every flag to its default so package-level flag
// variables do not leak between tests.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.PersistentFlags().VisitAll(reset)
	c.Flags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// sandbox isolates a test from real config files and the working directory.
func sandbox(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	orig, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		os.Chdir(orig)
		resetFlags(rootCmd)
		rootCmd.SetIn(nil)
	})
	resetFlags(rootCmd)
	return dir
}

// useGenerator swaps the generation client for gen.
func useGenerator(t *testing.T, gen llm.Generator) {
	t.Helper()
	orig := newGenerator
	newGenerator = func(context.Context, config.Config) (llm.Generator, error) { return gen, nil }
	t.Cleanup(func() { newGenerator = orig })
}

func echoGenerator() llm.Generator {
	return llm.GeneratorFunc(func(_ context.Context, req llm.Request) (string, error) {
		last := req.Messages[len(req.Messages)-1].Content
		return "echo: " + last[strings.LastIndex(last, "\n")+1:], nil
	})
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestReplayMissingIndex(t *testing.T) {
	sandbox(t)
	_, err := executeCommand(rootCmd, "replay", "-f", "nope.csv", "-a", "0")
	if !errors.Is(err, session.ErrIndexNotFound) {
		t.Fatalf("got %v, want ErrIndexNotFound", err)
	}
	if _, statErr := os.Stat("nope.csv"); !os.IsNotExist(statErr) {
		t.Error("replay must not create the index")
	}
}

func TestReplayOutOfRange(t *testing.T) {
	sandbox(t)
	idx, err := session.OpenIndex("idx.csv")
	if err != nil {
		t.Fatal(err)
	}
	if err := idx.AddChat("a.txt", nil); err != nil {
		t.Fatal(err)
	}

	_, err = executeCommand(rootCmd, "replay", "-f", "idx.csv", "-a", "3")
	if !errors.Is(err, session.ErrOutOfRange) {
		t.Fatalf("got %v, want ErrOutOfRange", err)
	}
	if !strings.Contains(err.Error(), "Valid range: 0-0") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestReplayPrintsAndSaves(t *testing.T) {
	dir := sandbox(t)
	writeFile(t, "notes.md", "remember the milk")
	tr, err := session.NewTranscript("chat.txt")
	if err != nil {
		t.Fatal(err)
	}
	if err := tr.AddExchange("hi", "hello"); err != nil {
		t.Fatal(err)
	}
	idx, err := session.OpenIndex("idx.csv")
	if err != nil {
		t.Fatal(err)
	}
	if err := idx.AddChat("chat.txt", []string{"notes.md"}); err != nil {
		t.Fatal(err)
	}

	out, err := executeCommand(rootCmd, "replay", "-f", "idx.csv", "-a", "0", "--out", "view.txt")
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	for _, want := range []string{
		"Loading chat from index 0...",
		"Context files: notes.md",
		"--- File: notes.md ---\nremember the milk\n",
		"USER:\nhi\nASSISTANT:\nhello\n",
		"Recreated chat saved to: view.txt",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	saved, err := os.ReadFile(filepath.Join(dir, "view.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(saved), "remember the milk") {
		t.Errorf("saved view missing context: %q", saved)
	}
}

func TestListEntries(t *testing.T) {
	sandbox(t)
	idx, err := session.OpenIndex("idx.csv")
	if err != nil {
		t.Fatal(err)
	}
	idx.AddChat("one.txt", nil)
	idx.AddChat("two.txt", []string{"a.go", "b.go"})

	out, err := executeCommand(rootCmd, "list", "-f", "idx.csv")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "  0  one.txt  [None]") || !strings.Contains(out, "  1  two.txt  [a.go, b.go]") {
		t.Errorf("unexpected list output:\n%s", out)
	}
}

func TestListMissingIndex(t *testing.T) {
	sandbox(t)
	out, err := executeCommand(rootCmd, "list", "-f", "none.csv")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "no sessions recorded") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestChatSessionRecordsTranscriptAndIndex(t *testing.T) {
	sandbox(t)
	useGenerator(t, echoGenerator())

	rootCmd.SetIn(strings.NewReader("new\nchat\nmy_chat.txt\nping\nexit\nexit\n"))
	out, err := executeCommand(rootCmd, "chat", "-f", "idx.csv")
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if !strings.Contains(out, "ASSISTANT:\necho: ping") {
		t.Errorf("missing response:\n%s", out)
	}

	data, err := os.ReadFile("my_chat.txt")
	if err != nil {
		t.Fatal(err)
	}
	if got := string(data); got != "USER:\nping\nASSISTANT:\necho: ping\n\n" {
		t.Errorf("transcript = %q", got)
	}
	entry, err := session.IndexAt("idx.csv").Get(0)
	if err != nil {
		t.Fatal(err)
	}
	if entry.TranscriptPath != "my_chat.txt" {
		t.Errorf("index entry = %+v", entry)
	}
}

func TestBatchCommand(t *testing.T) {
	sandbox(t)
	useGenerator(t, echoGenerator())
	writeFile(t, "in.csv", "first\nsecond,ctx.txt\n")

	out, err := executeCommand(rootCmd, "batch", "in.csv", "out.csv")
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if !strings.Contains(out, "Successfully wrote 2 results to out.csv") {
		t.Errorf("unexpected output:\n%s", out)
	}
	data, err := os.ReadFile("out.csv")
	if err != nil {
		t.Fatal(err)
	}
	want := "prompt,context_filepaths,response\nfirst,,echo: first\nsecond,ctx.txt,echo: second\n"
	if string(data) != want {
		t.Errorf("out.csv = %q, want %q", data, want)
	}
}

func TestBatchNoRows(t *testing.T) {
	sandbox(t)
	useGenerator(t, echoGenerator())
	writeFile(t, "in.csv", "\n")

	out, err := executeCommand(rootCmd, "batch", "in.csv", "out.csv")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "No valid prompts found") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestViewPlainUsesIndexedContextFiles(t *testing.T) {
	sandbox(t)
	writeFile(t, "chat.txt", "USER:\nq\nASSISTANT:\na\n\n")
	idx, err := session.OpenIndex("idx.csv")
	if err != nil {
		t.Fatal(err)
	}
	idx.AddChat("chat.txt", []string{"old.md"})
	idx.AddChat("chat.txt", []string{"new.md"})

	out, err := executeCommand(rootCmd, "view", "--plain", "-f", "idx.csv", "chat.txt")
	if err != nil {
		t.Fatal(err)
	}
	sections := []string{"## Summary", "## Context Files", "## Chat History"}
	last := -1
	for _, s := range sections {
		i := strings.Index(out, s)
		if i <= last {
			t.Fatalf("section %q out of order in:\n%s", s, out)
		}
		last = i
	}
	if !strings.Contains(out, "new.md") || strings.Contains(out, "old.md") {
		t.Errorf("expected the latest entry's context files:\n%s", out)
	}
	if !strings.Contains(out, "1. USER: q") {
		t.Errorf("missing exchange:\n%s", out)
	}
}

func TestViewMissingTranscript(t *testing.T) {
	sandbox(t)
	_, err := executeCommand(rootCmd, "view", "--plain", "gone.txt")
	if err == nil || !strings.Contains(err.Error(), "file not found") {
		t.Fatalf("got %v", err)
	}
}

func TestInvalidTemperatureFlag(t *testing.T) {
	sandbox(t)
	_, err := executeCommand(rootCmd, "list", "--temperature", "1.5")
	if err == nil || !strings.Contains(err.Error(), "temperature") {
		t.Fatalf("got %v, want temperature validation error", err)
	}
}

func TestFlagsOverrideConfig(t *testing.T) {
	sandbox(t)
	writeFile(t, ".ctxchat.yaml", "model: from-file\nmax_tokens: 100\n")

	if _, err := executeCommand(rootCmd, "list", "-f", "x.csv", "--model", "from-flag", "--temperature", "0"); err != nil {
		t.Fatal(err)
	}
	got := GetConfig()
	if got.Model != "from-flag" || got.MaxTokens != 100 || got.TemperatureValue() != 0 {
		t.Errorf("merged config = %+v (temperature %v)", got, got.TemperatureValue())
	}
}

func TestMissingAPIKey(t *testing.T) {
	sandbox(t)
	t.Setenv("ANTHROPIC_API_KEY", "")
	writeFile(t, "in.csv", "p\n")

	_, err := executeCommand(rootCmd, "batch", "in.csv", "out.csv")
	if !errors.Is(err, config.ErrMissingAPIKey) {
		t.Fatalf("got %v, want ErrMissingAPIKey", err)
	}
}

func TestGenerateWritesDocuments(t *testing.T) {
	dir := sandbox(t)
	var calls int
	useGenerator(t, llm.GeneratorFunc(func(_ context.Context, req llm.Request) (string, error) {
		calls++
		if !strings.Contains(req.Messages[0].Content, "base story") {
			return "", errors.New("passage missing from prompt")
		}
		return "variant " + string(rune('a'+calls-1)), nil
	}))
	writeFile(t, "base.txt", "base story\n")

	out, err := executeCommand(rootCmd, "generate", "base.txt", "-o", "docs")
	if err != nil {
		t.Fatalf("generate: %v\n%s", err, out)
	}
	if calls != 5 {
		t.Errorf("calls = %d, want 5", calls)
	}
	for _, name := range []string{"doc_a", "doc_b", "doc_c", "doc_d", "doc_e"} {
		data, err := os.ReadFile(filepath.Join(dir, "docs", name+".txt"))
		if err != nil {
			t.Fatal(err)
		}
		if want := "variant " + name[len(name)-1:]; string(data) != want {
			t.Errorf("%s = %q, want %q", name, data, want)
		}
	}
	if !strings.Contains(out, "All documents saved to docs/") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestGenerateNeedsPassage(t *testing.T) {
	sandbox(t)
	useGenerator(t, echoGenerator())
	if _, err := executeCommand(rootCmd, "generate"); err == nil {
		t.Error("expected an error without a passage")
	}
	writeFile(t, "base.txt", "x")
	if _, err := executeCommand(rootCmd, "generate", "base.txt", "--text", "y"); err == nil {
		t.Error("expected an error with both a file and --text")
	}
}
