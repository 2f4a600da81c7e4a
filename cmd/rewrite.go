package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fakeyudi/ctxchat/internal/wiki"
)

var (
	rewritePercent      float64
	rewriteOut          string
	rewriteShowOriginal bool
	rewriteWikiURL      string
)

var rewriteCmd = &cobra.Command{
	Use:   "rewrite <topic>",
	Short: "Fetch an encyclopedia article and write an altered copy of it",
	Long: `Find the Wikipedia article for a topic, asking the model for a better
title if the first lookup misses, then have the model change a percentage of
its facts, numbers, names and dates while keeping the subject intact.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		topic := strings.Join(args, " ")

		gen, err := newGenerator(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		client := wiki.NewClient(wiki.WithBaseURL(rewriteWikiURL), wiki.WithClientLogger(logger))
		rw := wiki.NewRewriter(gen, client, cfg.Model, wiki.WithLogger(logger))
		if err := rw.SetPercent(rewritePercent); err != nil {
			return err
		}

		res, err := rw.Process(cmd.Context(), topic)
		if err != nil {
			return err
		}
		logger.Info("article rewritten", zap.String("page", res.PageTitle), zap.Float64("percent", res.Percent))

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Topic: %s\n", res.Topic)
		fmt.Fprintf(out, "Wikipedia page: %s\n", res.PageTitle)
		fmt.Fprintf(out, "Modification: %g%%\n\n", res.Percent)
		if rewriteShowOriginal {
			fmt.Fprintln(out, "Original text:")
			fmt.Fprintln(out, res.Original)
			fmt.Fprintln(out, "\n"+strings.Repeat("=", 80)+"\n")
			fmt.Fprintln(out, "Modified text:")
		}

		if rewriteOut == "" {
			fmt.Fprintln(out, res.Modified)
			return nil
		}
		if err := os.WriteFile(rewriteOut, []byte(res.Modified), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", rewriteOut, err)
		}
		fmt.Fprintf(out, "Modified text saved to: %s\n", rewriteOut)
		return nil
	},
}

func init() {
	f := rewriteCmd.Flags()
	f.Float64VarP(&rewritePercent, "percent", "p", wiki.DefaultPercent, "approximate percentage of content to change")
	f.StringVarP(&rewriteOut, "out", "o", "", "write the modified text to this file instead of stdout")
	f.BoolVar(&rewriteShowOriginal, "show-original", false, "print the original article text first")
	f.StringVar(&rewriteWikiURL, "wiki-url", "", "Wikipedia REST API root (default "+wiki.DefaultBaseURL+")")
	rootCmd.AddCommand(rewriteCmd)
}
