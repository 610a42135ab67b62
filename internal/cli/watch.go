package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

// watchDebounce coalesces the burst of events an editor save produces.
const watchDebounce = 100 * time.Millisecond

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <specs-dir>",
		Short: "Re-validate descriptors whenever a CUE file changes",
		Long: `Validate the descriptors in specs-dir, then again after every change to
a .cue file in it, until interrupted.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runWatch(ctx context.Context, opts *RootOptions, specsDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)
	logger := opts.Logger()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return commandError(formatter, ErrCodeGeneric, fmt.Sprintf("creating watcher: %v", err))
	}
	defer watcher.Close()

	if err := watcher.Add(specsDir); err != nil {
		return commandError(formatter, ErrCodeNotFound, fmt.Sprintf("watching %s: %v", specsDir, err))
	}

	validate := func() {
		ops, errs, err := ValidateSpecsDir(specsDir, logger)
		if err != nil {
			errs = []error{err}
		}
		writeValidation(formatter, ops, errs)
	}
	validate()

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if isSpecEvent(ev) {
				logger.Debug("descriptor changed", "file", ev.Name, "op", ev.Op.String())
				pending = time.After(watchDebounce)
			}
		case <-pending:
			pending = nil
			validate()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "dir", specsDir, "error", err)
		}
	}
}

// isSpecEvent reports whether ev changes the content of a .cue file.
func isSpecEvent(ev fsnotify.Event) bool {
	if filepath.Ext(ev.Name) != ".cue" {
		return false
	}
	return ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)
}

// writeValidation prints one validation pass without failing the watch.
func writeValidation(formatter *OutputFormatter, ops int, errs []error) {
	stamp := time.Now().Format(time.TimeOnly)
	if formatter.JSON() {
		result := ValidationResult{Valid: len(errs) == 0, Ops: ops}
		for _, err := range errs {
			code, message := codeOf(err)
			result.Errors = append(result.Errors, CLIError{Code: code, Message: message})
		}
		if result.Valid {
			_ = formatter.Success(result)
		} else {
			_ = formatter.Failure(result.Errors[0].Code, result.Errors[0].Message, result)
		}
		return
	}

	if len(errs) == 0 {
		fmt.Fprintf(formatter.Writer, "[%s] ✓ All descriptors valid (%d op(s))\n", stamp, ops)
		return
	}
	fmt.Fprintf(formatter.Writer, "[%s] ✗ %d problem(s)\n", stamp, len(errs))
	for _, err := range errs {
		code, message := codeOf(err)
		fmt.Fprintf(formatter.Writer, "  %s: %s\n", code, message)
	}
}
