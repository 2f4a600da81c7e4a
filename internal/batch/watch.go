package batch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch runs the batch once, then again every time inputPath is written or
// re-created, until ctx is cancelled. Runs never overlap: events that arrive
// during a run trigger at most one further run. A run that fails is logged
// and watching continues.
func (r *Runner) Watch(ctx context.Context, inputPath, outputPath string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory so editors that replace the file are still seen.
	absInput, err := filepath.Abs(inputPath)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(absInput)); err != nil {
		return fmt.Errorf("watching %s: %w", inputPath, err)
	}

	r.runOnce(ctx, inputPath, outputPath)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isInputChange(event, absInput) {
				continue
			}
			drain(watcher.Events)
			r.logger.Debug("input changed", zap.String("op", event.Op.String()))
			r.runOnce(ctx, inputPath, outputPath)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn("watch error", zap.Error(err))
		}
	}
}

func (r *Runner) runOnce(ctx context.Context, inputPath, outputPath string) {
	if err := r.Run(ctx, inputPath, outputPath); err != nil {
		if errors.Is(err, ErrNoRows) {
			fmt.Fprintln(r.out, "No valid prompts found in input file.")
			return
		}
		if ctx.Err() != nil {
			// Interrupted; the previous output file is left as it was.
			r.logger.Debug("batch run cancelled", zap.Error(err))
			fmt.Fprintln(r.out, "Batch run interrupted; output not written.")
			return
		}
		r.logger.Warn("batch run failed", zap.Error(err))
		fmt.Fprintf(r.out, "Batch run failed: %v\n", err)
	}
}

func isInputChange(event fsnotify.Event, absInput string) bool {
	if filepath.Clean(event.Name) != absInput {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create)
}

// drain discards already-queued events so a burst of writes causes one run.
func drain(events <-chan fsnotify.Event) {
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		default:
			return
		}
	}
}
