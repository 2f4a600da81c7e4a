package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/ctxchat/internal/session"
)

var listIndexPath string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the sessions recorded in the index",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := session.IndexAt(indexPathOr(listIndexPath)).All()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(entries) == 0 {
			fmt.Fprintln(out, "no sessions recorded")
			return nil
		}
		for i, e := range entries {
			files := "None"
			if len(e.ContextFiles) > 0 {
				files = strings.Join(e.ContextFiles, ", ")
			}
			fmt.Fprintf(out, "%3d  %s  [%s]\n", i, e.TranscriptPath, files)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().StringVarP(&listIndexPath, "index", "f", "", "session index CSV (default from config)")
	rootCmd.AddCommand(listCmd)
}
