package cmd

import (
	"github.com/spf13/cobra"

	"github.com/fakeyudi/ctxchat/internal/chat"
	"github.com/fakeyudi/ctxchat/internal/session"
)

var chatIndexPath string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start the interactive chat loop",
	Long: `Start the interactive loop. Type 'new' to begin a session: enter context
file paths one per line, then 'chat', then a transcript filename. Every
exchange is appended to the transcript as it happens. Type 'exit' to leave a
session, and 'exit' again to quit.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := newSession(cmd.Context())
		if err != nil {
			return err
		}
		idx, err := session.OpenIndex(indexPathOr(chatIndexPath))
		if err != nil {
			return err
		}
		d := &chat.Driver{
			Session: sess,
			Index:   idx,
			System:  cfg.SystemPrompt,
			In:      cmd.InOrStdin(),
			Out:     cmd.OutOrStdout(),
			Logger:  logger,
		}
		return d.Run(cmd.Context())
	},
}

// indexPathOr returns flagValue, or the configured index path when empty.
func indexPathOr(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return cfg.IndexPath
}

func init() {
	chatCmd.Flags().StringVarP(&chatIndexPath, "index", "f", "", "session index CSV (default from config)")
	rootCmd.AddCommand(chatCmd)
}
