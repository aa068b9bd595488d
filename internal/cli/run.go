package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/maintainly/fssync/internal/syncer"
)

// NewRunCommand creates the run command: one full sync, then exit.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run a full sync of every stream",
		Long: `Run customers, systems, requesters and agents in order and print the
per-stream report. A failing stream does not stop the others; the exit code
is 1 when any stream failed.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, rootOpts)
			if err != nil {
				return err
			}
			defer a.Close()

			rep := a.orch.RunFullSync(ctx)
			if err := writeReport(cmd.OutOrStdout(), rootOpts.Format, rep); err != nil {
				return err
			}
			if !rep.OK {
				return &ExitError{Code: ExitFailure, Message: "sync finished with failed streams"}
			}
			return nil
		},
	}
}

// NewStreamCommand creates the stream command for a single stream.
func NewStreamCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "stream <name>",
		Short:         "Sync one stream",
		Long:          fmt.Sprintf("Sync a single stream. Known streams: %v.", syncer.Streams),
		Args:          cobra.ExactArgs(1),
		ValidArgs:     syncer.Streams,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if !syncer.KnownStream(name) {
				return wrapExitError(ExitCommandError, name, syncer.ErrUnknownStream)
			}
			ctx := cmd.Context()
			a, err := newApp(ctx, rootOpts)
			if err != nil {
				return err
			}
			defer a.Close()

			res, runErr := a.orch.RunStream(ctx, name)
			sr := syncer.StreamReport{Stream: name, OK: runErr == nil}
			if runErr != nil {
				sr.Error = runErr.Error()
			} else {
				sr.Counts = &res
			}
			if err := writeStream(cmd.OutOrStdout(), rootOpts.Format, sr); err != nil {
				return err
			}
			if runErr != nil {
				if errors.Is(runErr, syncer.ErrUnknownStream) {
					return wrapExitError(ExitCommandError, "stream", runErr)
				}
				return wrapExitError(ExitFailure, "stream failed", runErr)
			}
			return nil
		},
	}
}

// NewCursorsCommand lists the stored high-water marks.
func NewCursorsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "cursors",
		Short:         "Show the last high-water mark of each stream",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, rootOpts)
			if err != nil {
				return err
			}
			defer a.Close()

			list, err := a.cursors.ListCursors(ctx)
			if err != nil {
				return wrapExitError(ExitCommandError, "list cursors", err)
			}
			return writeCursors(cmd.OutOrStdout(), rootOpts.Format, list)
		},
	}
}
