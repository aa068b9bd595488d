package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/maintainly/fssync/internal/model"
	"github.com/maintainly/fssync/internal/syncer"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // a sync ran but at least one stream failed
	ExitCommandError = 2 // configuration or connection problems
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error { return e.Err }

func wrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeReport(w io.Writer, format string, rep syncer.Report) error {
	if format == "json" {
		return writeJSON(w, rep)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STREAM\tSTATUS\tFETCHED\tINSERTED\tUPDATED\tDELETED\tSKIPPED")
	for _, sr := range rep.PerStream {
		writeStreamRow(tw, sr)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "finished in %s\n", rep.FinishedAt.Sub(rep.StartedAt).Round(time.Millisecond))
	return err
}

func writeStream(w io.Writer, format string, sr syncer.StreamReport) error {
	if format == "json" {
		return writeJSON(w, sr)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STREAM\tSTATUS\tFETCHED\tINSERTED\tUPDATED\tDELETED\tSKIPPED")
	writeStreamRow(tw, sr)
	return tw.Flush()
}

func writeStreamRow(w io.Writer, sr syncer.StreamReport) {
	if !sr.OK || sr.Counts == nil {
		fmt.Fprintf(w, "%s\tFAILED\t%s\n", sr.Stream, sr.Error)
		return
	}
	c := sr.Counts
	fmt.Fprintf(w, "%s\tok\t%d\t%d\t%d\t%d\t%d\n", sr.Stream, c.Fetched, c.Inserted, c.Updated, c.Deleted, c.Skipped)
}

func writeCursors(w io.Writer, format string, list []model.SyncCursor) error {
	if format == "json" {
		if list == nil {
			list = []model.SyncCursor{}
		}
		return writeJSON(w, list)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STREAM\tMARK")
	for _, c := range list {
		fmt.Fprintf(tw, "%s\t%s\n", c.Stream, c.Mark)
	}
	return tw.Flush()
}
