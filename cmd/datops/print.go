package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/JonMunkholm/datops/internal/core"
	"github.com/JonMunkholm/datops/internal/dat"
)

// print writes a result to stdout, as indented JSON with --json.
func (a *app) print(v any) {
	if a.asJSON {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			fmt.Fprintf(a.stderr, "error: encode result: %v\n", err)
		}
		return
	}

	w := a.stdout
	switch r := v.(type) {
	case *core.ConvertResult:
		fmt.Fprintf(w, "%s: wrote %s\n", r.Operation, r.Output)
		printSummary(w, &r.Summary)
	case *core.CompareResult:
		printCompare(w, r)
	case *core.MergeResult:
		for _, g := range r.Groups {
			fmt.Fprintf(w, "merged %d files (schema %s, %d rows) into %s\n",
				len(g.Files), dat.ShortKey(g.SchemaKey), g.Rows, g.Output)
		}
		printSummary(w, &r.Summary)
	case *core.DeleteResult:
		fmt.Fprintf(w, "kept %d rows in %s\n", r.Kept, r.KeptPath)
		fmt.Fprintf(w, "removed %d rows to %s\n", r.Removed, r.RemovedPath)
		printSummary(w, &r.Summary)
	case *core.SelectResult:
		fmt.Fprintf(w, "selected %s into %s\n", strings.Join(r.Fields, ", "), r.Output)
		printSummary(w, &r.Summary)
	case *core.ReplaceHeaderResult:
		fmt.Fprintf(w, "new header: %s\n", strings.Join(r.Header, ", "))
		fmt.Fprintf(w, "wrote %s\n", r.Output)
		printSummary(w, &r.Summary)
	case *core.InspectResult:
		printInspect(w, r)
	case []core.RunRecord:
		printHistory(w, r)
	default:
		fmt.Fprintf(w, "%+v\n", v)
	}
}

// printFailure reports one failed file of a multi-file command and carries on.
func (a *app) printFailure(file string, err error) {
	fmt.Fprintf(a.stderr, "%s: %v\n", file, err)
}

func printSummary(w io.Writer, s *core.Summary) {
	fmt.Fprintf(w, "rows in %d, out %d, skipped %d (%s, run %s)\n",
		s.RowsIn, s.RowsOut, s.Skipped, s.Duration.Round(time.Millisecond), s.RunID)
	for _, f := range s.Excluded {
		fmt.Fprintf(w, "excluded %s: %s (%s)\n", f.Path, f.Reason, f.Code)
	}
	for _, warn := range s.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warn)
	}
}

func printCompare(w io.Writer, r *core.CompareResult) {
	if len(r.Diffs) > 0 {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ROW\tFIELD\tA\tB")
		for _, d := range r.Diffs {
			fmt.Fprintf(tw, "%d\t%s\t%q\t%q\n", d.Row, d.Field, d.ValueA, d.ValueB)
		}
		tw.Flush()
	}
	fmt.Fprintf(w, "%d differences in %d compared rows (%d vs %d rows)\n",
		len(r.Diffs), r.Compared, r.RowsA, r.RowsB)
	for _, p := range r.SkippedRows {
		fmt.Fprintf(w, "skipped malformed row pair: line %d / line %d\n", p.LineA, p.LineB)
	}
	if r.Report != "" {
		fmt.Fprintf(w, "report written to %s\n", r.Report)
	}
	printSummary(w, &r.Summary)
}

func printInspect(w io.Writer, r *core.InspectResult) {
	fmt.Fprintf(w, "%s\n", r.Path)
	fmt.Fprintf(w, "  encoding:   %s\n", r.Encoding)
	fmt.Fprintf(w, "  schema key: %s\n", r.SchemaKey)
	fmt.Fprintf(w, "  fields:     %d (%s)\n", len(r.Header), strings.Join(r.Header, ", "))
	fmt.Fprintf(w, "  rows:       %d\n", r.Rows)
	fmt.Fprintf(w, "  malformed:  %d\n", r.Malformed)
	for _, s := range r.Samples {
		fmt.Fprintf(w, "    line %d: %d fields, expected %d\n", s.Line, s.Actual, s.Expected)
	}
}

func printHistory(w io.Writer, runs []core.RunRecord) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "no runs recorded")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tOPERATION\tSTATUS\tROWS IN\tROWS OUT\tINPUTS")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Operation, r.Status, r.RowsIn, r.RowsOut, strings.Join(r.Inputs, " "))
	}
	tw.Flush()
}
