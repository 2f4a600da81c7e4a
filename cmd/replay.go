package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fakeyudi/ctxchat/internal/session"
	"github.com/fakeyudi/ctxchat/internal/tui"
)

var (
	replayIndexPath string
	replayAt        int
	replayOut       string
	replayTUI       bool
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Recreate a past session with its context files",
	Long: `Look up a session by its zero-based position in the index, print its
context files followed by the transcript, and save the same view to the
output file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		entry, err := session.IndexAt(indexPathOr(replayIndexPath)).Get(replayAt)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Loading chat from index %d...\n", replayAt)
		fmt.Fprintf(out, "Chat file: %s\n", entry.TranscriptPath)
		if len(entry.ContextFiles) > 0 {
			fmt.Fprintf(out, "Context files: %s\n", strings.Join(entry.ContextFiles, ", "))
		} else {
			fmt.Fprintln(out, "Context files: None")
		}
		fmt.Fprintln(out, "\n"+strings.Repeat("=", 80))

		outputPath := replayOut
		if outputPath == "" {
			outputPath = cfg.ReplayOutput
		}

		if replayTUI && term.IsTerminal(os.Stdout.Fd()) {
			if _, err := session.Recreate(nil, entry.TranscriptPath, entry.ContextFiles, outputPath); err != nil {
				return err
			}
			return viewTranscript(entry.TranscriptPath, entry.ContextFiles)
		}

		if _, err := session.Recreate(out, entry.TranscriptPath, entry.ContextFiles, outputPath); err != nil {
			return err
		}
		logger.Info("session recreated", zap.Int("at", replayAt), zap.String("output", outputPath))
		fmt.Fprintf(out, "\n\nRecreated chat saved to: %s\n", outputPath)
		return nil
	},
}

// viewTranscript opens the full-screen viewer for a transcript.
func viewTranscript(transcriptPath string, contextFiles []string) error {
	data, err := os.ReadFile(transcriptPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file not found: %s", transcriptPath)
		}
		return err
	}
	return tui.Run(transcriptPath, session.ParseTranscript(data), tui.LoadFiles(contextFiles))
}

func init() {
	f := replayCmd.Flags()
	f.StringVarP(&replayIndexPath, "index", "f", "", "session index CSV (default from config)")
	f.IntVarP(&replayAt, "at", "a", 0, "zero-based position of the session in the index")
	f.StringVarP(&replayOut, "out", "o", "", "file the recreated view is saved to (default from config)")
	f.BoolVar(&replayTUI, "tui", false, "open the full-screen viewer instead of printing")
	_ = replayCmd.MarkFlagRequired("at")
	rootCmd.AddCommand(replayCmd)
}
