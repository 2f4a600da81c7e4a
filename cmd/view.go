package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/ctxchat/internal/session"
	"github.com/fakeyudi/ctxchat/internal/tui"
)

var (
	plainOutput   bool
	viewIndexPath string
)

var viewCmd = &cobra.Command{
	Use:   "view <transcript>",
	Short: "Browse a transcript and its context files",
	Long: `Open a transcript in the full-screen viewer. If the transcript is recorded
in the index, its context files are shown too; when it appears more than once
the most recent entry wins.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]

		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("file not found: %s", path)
			}
			return err
		}
		exchanges := session.ParseTranscript(data)

		files, err := contextFilesFor(indexPathOr(viewIndexPath), path)
		if err != nil {
			return err
		}

		if plainOutput {
			printSession(cmd, path, exchanges, files)
			return nil
		}
		return tui.Run(path, exchanges, tui.LoadFiles(files))
	},
}

// contextFilesFor returns the context files of the last index entry for
// transcriptPath, or none when the transcript is not indexed.
func contextFilesFor(indexPath, transcriptPath string) ([]string, error) {
	entries, err := session.IndexAt(indexPath).All()
	if err != nil {
		return nil, err
	}
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].TranscriptPath == transcriptPath {
			return entries[i].ContextFiles, nil
		}
	}
	return nil, nil
}

// printSession writes a plain-text summary to the command's output.
func printSession(cmd *cobra.Command, path string, exchanges []session.Exchange, files []string) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "## Summary")
	fmt.Fprintf(out, "  Transcript:  %s\n", path)
	fmt.Fprintf(out, "  Exchanges:   %d\n", len(exchanges))
	fmt.Fprintln(out)

	fmt.Fprintln(out, "## Context Files")
	if len(files) == 0 {
		fmt.Fprintln(out, "  (none)")
	} else {
		for _, f := range files {
			fmt.Fprintf(out, "  %s\n", f)
		}
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "## Chat History")
	if len(exchanges) == 0 {
		fmt.Fprintln(out, "  (none)")
	}
	for i, ex := range exchanges {
		fmt.Fprintf(out, "  %d. USER: %s\n", i+1, ex.Prompt)
		fmt.Fprintf(out, "     ASSISTANT: %s\n", ex.Response)
	}
	fmt.Fprintln(out)
}

func init() {
	viewCmd.Flags().BoolVar(&plainOutput, "plain", false, "plain text output instead of TUI")
	viewCmd.Flags().StringVarP(&viewIndexPath, "index", "f", "", "session index CSV used to find context files (default from config)")
	rootCmd.AddCommand(viewCmd)
}
