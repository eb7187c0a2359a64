package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	apiclient "github.com/pkravchenko/b24-dealsync/internal/api/client"
	"github.com/pkravchenko/b24-dealsync/internal/engine"
)

// tabWriter wraps tabwriter with error tracking.
type tabWriter struct {
	*tabwriter.Writer
	err error
}

func newTabWriter(w io.Writer) *tabWriter {
	return &tabWriter{Writer: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

func (tw *tabWriter) writef(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.Writer, format, args...)
}

func (tw *tabWriter) finish() error {
	if tw.err != nil {
		return tw.err
	}
	return tw.Flush()
}

func printRollResult(res *engine.RollResult) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("Value:\t%s\n", res.Value)
	tw.writef("Updated:\t%d\n", res.Updated)
	tw.writef("Failed:\t%d\n", res.Failed)
	tw.writef("Ran at:\t%s\n", res.RanAt.Format("2006-01-02 15:04:05"))
	for i := range res.Elements {
		el := &res.Elements[i]
		status := "ok"
		if !el.OK {
			status = "FAILED: " + el.Error
		}
		tw.writef("Element %s:\t%s\n", el.ElementID, status)
	}
	return tw.finish()
}

func printSyncResult(res *engine.SyncResult) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("Status:\t%s\n", res.Status)
	if res.Reason != "" {
		tw.writef("Reason:\t%s\n", res.Reason)
	}
	if res.Value != "" {
		tw.writef("Value:\t%s\n", res.Value)
	}
	tw.writef("Updated:\t%v\n", res.Updated)
	if res.Note != "" {
		tw.writef("Note:\t%s\n", res.Note)
	}
	return tw.finish()
}

func printJobsTable(status *apiclient.JobsStatus) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("NEXT\tPREV\n")
	for i := range status.Entries {
		e := &status.Entries[i]
		prev := "-"
		if !e.Prev.IsZero() {
			prev = e.Prev.Format("2006-01-02 15:04:05")
		}
		tw.writef("%s\t%s\n", e.Next.Format("2006-01-02 15:04:05"), prev)
	}
	if status.LastRoll != nil {
		tw.writef("\nLast roll:\t%s (updated %d, failed %d)\n",
			status.LastRoll.Value, status.LastRoll.Updated, status.LastRoll.Failed)
	}
	return tw.finish()
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
