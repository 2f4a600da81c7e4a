package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fakeyudi/ctxchat/internal/docgen"
)

var (
	generateText      string
	generateOutputDir string
)

var generateCmd = &cobra.Command{
	Use:   "generate [file]",
	Short: "Generate five conflicting variants of a base passage",
	Long: `Ask the model for five documents derived from one passage: one centred on
the main character, a contradictory account around another character, an
internally inconsistent version, a similar but irrelevant event, and a
misreported or meta account. Each is saved as doc_a.txt through doc_e.txt.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		passage := generateText
		switch {
		case len(args) == 1 && passage != "":
			return errors.New("pass either a file or --text, not both")
		case len(args) == 1:
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading passage: %w", err)
			}
			passage = string(data)
		case passage == "":
			return errors.New("no passage given: pass a file or --text")
		}
		passage = strings.TrimSpace(passage)

		gen, err := newGenerator(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		g := docgen.New(gen, cfg.Model,
			docgen.WithTemperature(cfg.TemperatureValue()),
			docgen.WithLogger(logger),
			docgen.WithProgress(out))

		docs, err := g.GenerateAll(cmd.Context(), passage)
		if err != nil {
			return err
		}
		paths, err := g.Save(generateOutputDir, docs)
		if err != nil {
			return err
		}
		logger.Info("documents generated", zap.Int("count", len(paths)), zap.String("dir", generateOutputDir))
		fmt.Fprintf(out, "\nAll documents saved to %s/\n", generateOutputDir)
		return nil
	},
}

func init() {
	f := generateCmd.Flags()
	f.StringVarP(&generateText, "text", "t", "", "base passage text (instead of a file)")
	f.StringVarP(&generateOutputDir, "output-dir", "o", docgen.DefaultOutputDir, "directory for the generated documents")
	rootCmd.AddCommand(generateCmd)
}
