package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/ctxchat/internal/batch"
)

var batchWatch bool

var batchCmd = &cobra.Command{
	Use:   "batch <input.csv> <output.csv>",
	Short: "Run every prompt in a CSV file and write the responses to another",
	Long: `Each input row holds a prompt in its first cell and context file paths in
the remaining cells. Rows are processed in order; a failed row records an
"Error: ..." response and processing continues. With --watch the batch is
rerun every time the input file changes, until interrupted.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := newSession(cmd.Context())
		if err != nil {
			return err
		}
		runner := batch.NewRunner(sess,
			batch.WithLogger(logger),
			batch.WithProgress(cmd.OutOrStdout()),
			batch.WithSystem(cfg.SystemPrompt),
		)

		if batchWatch {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			cmd.Printf("Watching %s (Ctrl+C to stop)\n", args[0])
			return runner.Watch(ctx, args[0], args[1])
		}

		err = runner.Run(cmd.Context(), args[0], args[1])
		if errors.Is(err, batch.ErrNoRows) {
			fmt.Fprintln(cmd.OutOrStdout(), "No valid prompts found in input file.")
			return nil
		}
		return err
	},
}

func init() {
	batchCmd.Flags().BoolVarP(&batchWatch, "watch", "w", false, "rerun whenever the input file changes")
	rootCmd.AddCommand(batchCmd)
}
