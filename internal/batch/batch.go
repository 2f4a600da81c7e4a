// Package batch runs a CSV file of prompts through a chat session, one row at
// a time, and writes the responses to another CSV file.
package batch

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/fakeyudi/ctxchat/internal/session"
)

// ErrNoRows is returned by Run when the input file has no usable prompts.
var ErrNoRows = errors.New("no valid prompts found in input file")

// State is the runner's position in a batch run.
type State int

const (
	StateIdle State = iota
	StateReading
	StateProcessing
	StateWriting
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReading:
		return "reading"
	case StateProcessing:
		return "processing"
	case StateWriting:
		return "writing"
	case StateDone:
		return "done"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Row is one unit of work parsed from the input file.
type Row struct {
	Prompt       string
	ContextFiles []string
}

// Result is one output row. ContextFiles is the input list joined with
// session.ListSeparator; Response holds either the generated text or an
// "Error: ..." string.
type Result struct {
	Prompt       string
	ContextFiles string
	Response     string
}

// Asker is the subset of chat.Session the runner needs.
type Asker interface {
	Ask(ctx context.Context, prompt string, contextFiles []string, system string) (string, error)
}

var outputHeader = []string{"prompt", "context_filepaths", "response"}

// Runner processes batch files sequentially.
type Runner struct {
	asker  Asker
	system string
	logger *zap.Logger
	out    io.Writer
	state  State
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger used for warnings and per-row diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithProgress sets where human-readable progress is written.
func WithProgress(w io.Writer) Option {
	return func(r *Runner) {
		if w != nil {
			r.out = w
		}
	}
}

// WithSystem sets the system instruction sent with every row.
func WithSystem(system string) Option {
	return func(r *Runner) { r.system = system }
}

// NewRunner returns a Runner that sends each row to asker.
func NewRunner(asker Asker, opts ...Option) *Runner {
	r := &Runner{asker: asker, logger: zap.NewNop(), out: io.Discard}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State reports the runner's current state.
func (r *Runner) State() State {
	return r.state
}

// ReadInput parses the input file. Column 0 is the prompt; any further
// columns are context file paths. Empty rows are skipped silently and rows
// with a blank prompt are skipped with a warning naming their file line.
// Blank path cells are dropped. Bare quotes inside unquoted cells are kept
// as literal text.
func (r *Runner) ReadInput(path string) ([]Row, error) {
	r.state = StateReading

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening input: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	rows := []Row{}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading input: %w", err)
		}
		if isEmptyRecord(rec) {
			continue
		}

		// encoding/csv skips blank lines, so number rows by file line.
		line, _ := cr.FieldPos(0)
		prompt := strings.TrimSpace(rec[0])
		if prompt == "" {
			r.logger.Warn("skipping row with empty prompt", zap.Int("line", line))
			fmt.Fprintf(r.out, "Warning: Row %d has empty prompt. Skipping.\n", line)
			continue
		}

		files := []string{}
		for _, cell := range rec[1:] {
			if p := strings.TrimSpace(cell); p != "" {
				files = append(files, p)
			}
		}
		rows = append(rows, Row{Prompt: prompt, ContextFiles: files})
	}

	fmt.Fprintf(r.out, "Successfully loaded %d prompts from %s\n\n", len(rows), path)
	return rows, nil
}

// isEmptyRecord reports whether rec has no cells at all. A record of blank
// cells is not empty; it is a row whose prompt is missing.
func isEmptyRecord(rec []string) bool {
	return len(rec) == 0 || (len(rec) == 1 && rec[0] == "")
}

// Process asks each row in order. A failed row becomes an error result and
// processing continues. Once ctx is done, processing stops and ctx.Err() is
// returned with the results gathered so far.
func (r *Runner) Process(ctx context.Context, rows []Row) ([]Result, error) {
	r.state = StateProcessing

	results := make([]Result, 0, len(rows))
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		fmt.Fprintf(r.out, "[%d/%d] Processing prompt: %s...\n", i+1, len(rows), truncate(row.Prompt, 60))
		if len(row.ContextFiles) > 0 {
			fmt.Fprintf(r.out, "  Context files: %s\n", strings.Join(row.ContextFiles, ", "))
		} else {
			fmt.Fprintln(r.out, "  No context files provided")
		}

		res := Result{
			Prompt:       row.Prompt,
			ContextFiles: strings.Join(row.ContextFiles, session.ListSeparator),
		}
		resp, err := r.asker.Ask(ctx, row.Prompt, row.ContextFiles, r.system)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return results, ctxErr
		}
		if err != nil {
			res.Response = "Error: " + err.Error()
			r.logger.Warn("row failed", zap.Int("row", i+1), zap.Error(err))
			fmt.Fprintf(r.out, "  ✗ %s\n\n", res.Response)
		} else {
			res.Response = resp
			r.logger.Debug("row completed", zap.Int("row", i+1), zap.Int("response_len", len(resp)))
			fmt.Fprintf(r.out, "  ✓ Response received (%d chars)\n\n", len(resp))
		}
		results = append(results, res)
	}
	return results, nil
}

// WriteOutput writes results with a header row, replacing any existing file.
func (r *Runner) WriteOutput(path string, results []Result) error {
	r.state = StateWriting

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(outputHeader); err != nil {
		f.Close()
		return fmt.Errorf("writing output: %w", err)
	}
	for _, res := range results {
		if err := w.Write([]string{res.Prompt, res.ContextFiles, res.Response}); err != nil {
			f.Close()
			return fmt.Errorf("writing output: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("writing output: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	fmt.Fprintf(r.out, "✓ Successfully wrote %d results to %s\n", len(results), path)
	return nil
}

// Run reads inputPath, processes every row, and writes outputPath. When the
// input has no usable rows nothing is written and ErrNoRows is returned.
func (r *Runner) Run(ctx context.Context, inputPath, outputPath string) error {
	r.state = StateIdle
	r.logger.Info("batch started", zap.String("input", inputPath), zap.String("output", outputPath))

	rows, err := r.ReadInput(inputPath)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		r.state = StateDone
		return ErrNoRows
	}

	results, err := r.Process(ctx, rows)
	if err != nil {
		r.logger.Warn("batch interrupted", zap.Int("completed", len(results)), zap.Error(err))
		return fmt.Errorf("batch interrupted after %d of %d rows: %w", len(results), len(rows), err)
	}

	if err := r.WriteOutput(outputPath, results); err != nil {
		return err
	}
	r.state = StateDone
	r.logger.Info("batch complete", zap.Int("rows", len(results)))
	return nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
