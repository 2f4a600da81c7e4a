package session

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fakeyudi/ctxchat/internal/contextfiles"
)

// DefaultRecreateOutput is where Recreate persists its view when no path is given.
const DefaultRecreateOutput = "temp.txt"

const (
	contextSectionTitle = "=== CONTEXT FILES ==="
	historySectionTitle = "=== CHAT HISTORY ==="
)

var historySeparator = "\n" + strings.Repeat("=", 80) + "\n" + historySectionTitle + "\n\n"

// Render builds the merged view of a session: the context files (when any),
// followed by the raw transcript content. Unreadable context files degrade to
// an inline marker; an unreadable transcript is an error.
func Render(transcriptPath string, contextFiles []string) (string, error) {
	transcript, err := os.ReadFile(transcriptPath)
	if err != nil {
		return "", fmt.Errorf("reading transcript %s: %w", transcriptPath, err)
	}

	var sb strings.Builder
	if len(contextFiles) > 0 {
		sb.WriteString(contextSectionTitle + "\n")
		for _, p := range contextFiles {
			fmt.Fprintf(&sb, "\n--- File: %s ---\n", p)
			content, err := contextfiles.Read(p)
			if err != nil {
				fmt.Fprintf(&sb, "[Error reading file: %v]", err)
			} else {
				sb.WriteString(content)
			}
			sb.WriteString("\n")
		}
	}

	sb.WriteString(historySeparator)
	sb.Write(transcript)
	return sb.String(), nil
}

// Recreate renders the session, writes it to w, and persists it to
// outputPath, replacing whatever was there. An empty outputPath means
// DefaultRecreateOutput.
func Recreate(w io.Writer, transcriptPath string, contextFiles []string, outputPath string) (string, error) {
	if outputPath == "" {
		outputPath = DefaultRecreateOutput
	}
	out, err := Render(transcriptPath, contextFiles)
	if err != nil {
		return "", err
	}
	if w != nil {
		if _, err := io.WriteString(w, out); err != nil {
			return "", fmt.Errorf("writing recreated chat: %w", err)
		}
	}
	if err := writeFileAtomic(outputPath, []byte(out)); err != nil {
		return "", err
	}
	return out, nil
}

// HistorySection returns the portion of a rendered view after the chat
// history separator, which is the transcript content verbatim.
func HistorySection(rendered string) (string, bool) {
	i := strings.Index(rendered, historySeparator)
	if i < 0 {
		return "", false
	}
	return rendered[i+len(historySeparator):], true
}
