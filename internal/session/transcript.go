package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	userLabel      = "USER:"
	assistantLabel = "ASSISTANT:"
)

// Transcript is the append-only log of one session's exchanges. Every
// exchange is written to disk before AddExchange returns.
type Transcript struct {
	path      string
	exchanges []Exchange
}

// NewTranscript binds a transcript to path, creating parent directories and
// truncating any existing file.
func NewTranscript(path string) (*Transcript, error) {
	if path == "" {
		return nil, errors.New("transcript path must not be empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating transcript directory: %w", err)
		}
	}
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		return nil, fmt.Errorf("creating transcript %s: %w", path, err)
	}
	return &Transcript{path: path}, nil
}

// AddExchange appends prompt and response to the file and to the in-memory list.
func (t *Transcript) AddExchange(prompt, response string) error {
	f, err := os.OpenFile(t.path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("opening transcript: %w", err)
	}
	if _, err := f.WriteString(formatExchange(prompt, response)); err != nil {
		f.Close()
		return fmt.Errorf("writing transcript: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing transcript: %w", err)
	}
	t.exchanges = append(t.exchanges, Exchange{Prompt: prompt, Response: response})
	return nil
}

// Exchanges returns a copy of the exchanges added so far, in order.
func (t *Transcript) Exchanges() []Exchange {
	out := make([]Exchange, len(t.exchanges))
	copy(out, t.exchanges)
	return out
}

// Path returns the file the transcript is bound to.
func (t *Transcript) Path() string {
	return t.path
}

func formatExchange(prompt, response string) string {
	return userLabel + "\n" + prompt + "\n" + assistantLabel + "\n" + response + "\n\n"
}

// ParseTranscript splits transcript file content back into exchanges.
// A prompt or response that itself contains a line equal to a label is
// ambiguous and will be split at that line.
func ParseTranscript(data []byte) []Exchange {
	content := string(data)
	var out []Exchange
	for len(content) > 0 {
		if !strings.HasPrefix(content, userLabel+"\n") {
			break
		}
		content = content[len(userLabel)+1:]

		sep := "\n" + assistantLabel + "\n"
		i := strings.Index(content, sep)
		if i < 0 {
			break
		}
		prompt := content[:i]
		content = content[i+len(sep):]

		end := strings.Index(content, "\n\n"+userLabel+"\n")
		var response string
		if end < 0 {
			response = strings.TrimSuffix(content, "\n\n")
			content = ""
		} else {
			response = content[:end]
			content = content[end+2:]
		}
		out = append(out, Exchange{Prompt: prompt, Response: response})
	}
	return out
}
