package core

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JonMunkholm/datops/internal/dat"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Operation names, as recorded in run history and used in log fields.
const (
	OpConvert       = "convert"
	OpCompare       = "compare"
	OpMerge         = "merge"
	OpDelete        = "delete"
	OpSelect        = "select"
	OpReplaceHeader = "replace-header"
	OpInspect       = "inspect"
)

// OutputOptions controls where and how results are written.
type OutputOptions struct {
	Dir       string `json:"out,omitempty"`       // empty = next to the input
	Format    string `json:"format,omitempty"`    // tabular format name
	Overwrite bool   `json:"overwrite,omitempty"` // replace existing outputs
}

// InputOptions controls how inputs are decoded.
type InputOptions struct {
	Encoding string `json:"encoding,omitempty"` // empty = detect per file
}

// FileIssue records an input file that was left out of an operation.
type FileIssue struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
	Code   string `json:"code"`
	Err    error  `json:"-"`
}

// RowIssue describes a record that failed the field-count check.
type RowIssue struct {
	Line     int `json:"line"`
	Expected int `json:"expected"`
	Actual   int `json:"actual"`
}

// Summary is the part of every result the CLI and API report the same way.
type Summary struct {
	RunID     string        `json:"run_id"`
	Operation string        `json:"operation"`
	Outputs   []string      `json:"outputs,omitempty"`
	RowsIn    int           `json:"rows_in"`
	RowsOut   int           `json:"rows_out"`
	Skipped   int           `json:"rows_skipped"`
	Excluded  []FileIssue   `json:"excluded,omitempty"`
	Warnings  []string      `json:"warnings,omitempty"`
	Duration  time.Duration `json:"duration_ns"`
}

// DiffRecord is one field that differs between two positionally aligned rows.
// Row is the logical line number, counting the header as line 1.
type DiffRecord struct {
	Row    int    `json:"row"`
	Field  string `json:"field"`
	ValueA string `json:"value_a"`
	ValueB string `json:"value_b"`
}

// CompareRequest names two files and how to compare them. When Report is set
// the diffs are also written to <A base>_diff.<ext>.
type CompareRequest struct {
	FileA   string         `json:"file_a"`
	FileB   string         `json:"file_b"`
	Options CompareOptions `json:"options"`
	Input   InputOptions   `json:"input"`
	Report  *OutputOptions `json:"report,omitempty"`
}

// CompareOptions adjusts equality. FieldMap maps names in A to names in B;
// when set, only mapped fields are compared and the headers may differ.
type CompareOptions struct {
	FieldMap        map[string]string `json:"field_map,omitempty"`
	TrimSpaces      bool              `json:"trim_spaces,omitempty"`
	CaseInsensitive bool              `json:"case_insensitive,omitempty"`
	Numeric         bool              `json:"numeric,omitempty"`
}

// CompareResult lists every differing field of the compared rows.
type CompareResult struct {
	Summary
	Diffs       []DiffRecord `json:"diffs"`
	RowsA       int          `json:"rows_a"`
	RowsB       int          `json:"rows_b"`
	Compared    int          `json:"compared"`
	SkippedRows []RowPair    `json:"skipped_rows,omitempty"`
	Coverage    float64      `json:"mapping_coverage,omitempty"`
	Report      string       `json:"report,omitempty"`
}

// RowPair identifies a row position skipped because either side was malformed.
type RowPair struct {
	LineA int `json:"line_a"`
	LineB int `json:"line_b"`
}

// MergeRequest lists the files to merge, in output order.
type MergeRequest struct {
	Files  []string      `json:"files"`
	Output OutputOptions `json:"output"`
	Input  InputOptions  `json:"input"`
}

// MergeGroup is one output file: all inputs sharing a schema key.
type MergeGroup struct {
	SchemaKey string     `json:"schema_key"`
	Header    dat.Header `json:"header"`
	Files     []string   `json:"files"`
	Output    string     `json:"output"`
	Rows      int        `json:"rows"`
}

// MergeResult reports the groups written and the files left out.
type MergeResult struct {
	Summary
	Groups []MergeGroup `json:"groups"`
}

// DeleteRequest removes every row whose Field value is in Values.
type DeleteRequest struct {
	File   string        `json:"file"`
	Field  string        `json:"field"`
	Values []string      `json:"values"`
	Output OutputOptions `json:"output"`
	Input  InputOptions  `json:"input"`
}

// DeleteResult reports the partition sizes and unobserved values.
type DeleteResult struct {
	Summary
	Kept        int      `json:"kept"`
	Removed     int      `json:"removed"`
	KeptPath    string   `json:"kept_path"`
	RemovedPath string   `json:"removed_path"`
	Unobserved  []string `json:"unobserved,omitempty"`
}

// SelectRequest projects a file onto a set of field names.
type SelectRequest struct {
	File   string        `json:"file"`
	Fields []string      `json:"fields"`
	Output OutputOptions `json:"output"`
	Input  InputOptions  `json:"input"`
}

// SelectResult reports the fields kept and those not found.
type SelectResult struct {
	Summary
	Fields  []string `json:"fields"`
	Ignored []string `json:"ignored,omitempty"`
	Output  string   `json:"output"`
}

// ConvertRequest rewrites a DAT file in another tabular format.
type ConvertRequest struct {
	File   string        `json:"file"`
	Output OutputOptions `json:"output"`
	Input  InputOptions  `json:"input"`
}

// ConvertResult reports the output written.
type ConvertResult struct {
	Summary
	Output string `json:"output"`
}

// ReplaceHeaderRequest renames header fields. Mapping pairs are old → new.
type ReplaceHeaderRequest struct {
	File    string        `json:"file"`
	Mapping []MappingPair `json:"mapping"`
	Output  OutputOptions `json:"output"`
	Input   InputOptions  `json:"input"`
}

// ReplaceHeaderResult reports the new header and unused mapping entries.
type ReplaceHeaderResult struct {
	Summary
	Header dat.Header `json:"header"`
	Absent []string   `json:"absent,omitempty"`
	Output string     `json:"output"`
}

// InspectRequest names a file to describe.
type InspectRequest struct {
	File  string       `json:"file"`
	Input InputOptions `json:"input"`
}

// InspectResult describes a file without changing it.
type InspectResult struct {
	Summary
	Path      string     `json:"path"`
	Encoding  string     `json:"encoding"`
	Header    dat.Header `json:"header"`
	SchemaKey string     `json:"schema_key"`
	Rows      int        `json:"rows"`
	Malformed int        `json:"malformed"`
	Samples   []RowIssue `json:"samples,omitempty"`
	Bytes     int64      `json:"bytes"`
}

// MaxInspectSamples caps InspectResult.Samples.
const MaxInspectSamples = 20
