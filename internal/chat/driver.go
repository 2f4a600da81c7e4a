package chat

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fakeyudi/ctxchat/internal/session"
)

// Driver runs the interactive command loop: start sessions, collect context
// files, and exchange prompts, persisting every exchange as it happens.
type Driver struct {
	Session *Session
	Index   *session.Index
	System  string // optional system instruction for every prompt
	In      io.Reader
	Out     io.Writer
	Logger  *zap.Logger

	// DefaultName returns the transcript filename used when the user
	// enters none. Defaults to chat-<uuid>.txt.
	DefaultName func() string

	r *bufio.Reader
}

// Run reads commands until "exit" or end of input.
func (d *Driver) Run(ctx context.Context) error {
	d.init()

	d.println("Welcome to ctxchat!")
	d.println("Type 'new' to start a new chat, or 'exit' to quit.")

	for {
		d.printf("\n> ")
		line, err := d.readLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		switch strings.ToLower(line) {
		case "exit":
			d.println("Goodbye!")
			return nil
		case "new":
			if err := d.startNewChat(ctx); err != nil {
				if errors.Is(err, io.EOF) {
					return nil
				}
				d.printf("Error starting chat: %v\n", err)
			}
		default:
			d.println("Unknown command. Type 'new' to start a chat or 'exit' to quit.")
		}
	}
}

func (d *Driver) init() {
	if d.r == nil {
		d.r = bufio.NewReader(d.In)
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.DefaultName == nil {
		d.DefaultName = func() string { return "chat-" + uuid.New().String() + ".txt" }
	}
}

func (d *Driver) startNewChat(ctx context.Context) error {
	files, err := d.collectContextFiles()
	if err != nil {
		return err
	}

	name := d.DefaultName()
	d.printf("\nEnter the filename for this chat [%s]:\n> ", name)
	entered, err := d.readLine()
	if err != nil {
		return err
	}
	if entered != "" {
		name = entered
	}

	transcript, err := session.NewTranscript(name)
	if err != nil {
		return err
	}
	// The index entry is written when the session starts, not when it ends.
	if err := d.Index.AddChat(name, files); err != nil {
		return err
	}
	d.Logger.Info("chat session started",
		zap.String("transcript", name),
		zap.Strings("context_files", files),
	)

	d.printf("\nChat session started! History will be saved to: %s\n", name)
	d.println("Enter your prompts below. Type 'exit' to end this chat.")
	d.println()

	return d.chatLoop(ctx, transcript, files)
}

func (d *Driver) collectContextFiles() ([]string, error) {
	d.println("\nEnter file paths to add to context (one per line).")
	d.println("Type 'chat' when done:")

	files := []string{}
	for {
		d.printf("> ")
		line, err := d.readLine()
		if err != nil {
			return nil, err
		}
		if strings.EqualFold(line, "chat") {
			return files, nil
		}
		if line != "" {
			files = append(files, line)
			d.printf("Added: %s\n", line)
		}
	}
}

func (d *Driver) chatLoop(ctx context.Context, transcript *session.Transcript, files []string) error {
	for {
		d.println("USER:")
		prompt, err := d.readLine()
		if err != nil {
			return err
		}
		if strings.EqualFold(prompt, "exit") {
			d.println("Ending chat session.")
			return nil
		}
		if prompt == "" {
			d.println("Error: Prompt cannot be empty.")
			continue
		}

		resp, err := d.Session.Ask(ctx, prompt, files, d.System)
		if err != nil {
			d.Logger.Warn("prompt failed", zap.Error(err))
			d.printf("Error getting response: %v\n", err)
			continue
		}

		d.printf("\nASSISTANT:\n%s\n\n", resp)

		if err := transcript.AddExchange(prompt, resp); err != nil {
			d.printf("Error saving exchange: %v\n", err)
		}
	}
}

// readLine returns the next trimmed input line. A final line without a
// trailing newline is returned before io.EOF is reported.
func (d *Driver) readLine() (string, error) {
	line, err := d.r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (d *Driver) printf(format string, args ...any) {
	fmt.Fprintf(d.Out, format, args...)
}

func (d *Driver) println(args ...any) {
	fmt.Fprintln(d.Out, args...)
}
