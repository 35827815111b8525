// Package core implements the batch operations over DAT files.
//
// Every operation is a method on [Service] and follows the same two-stage
// discipline: a first pass over a freshly opened source establishes the
// header (and, for Merge and Delete, checks every record's field count), then
// a second pass over a newly reopened source streams the rows. Nothing holds a
// whole file in memory.
//
// # Operations
//
//   - [Service.Compare]: positional field-by-field diff of two files.
//   - [Service.Merge]: concatenation of files grouped by schema key.
//   - [Service.Delete]: partition of one file into kept and removed rows.
//   - [Service.Select]: projection onto a set of field names.
//   - [Service.Convert], [Service.ReplaceHeader], [Service.Inspect].
//
// Each run gets a uuid, is logged with run_id and operation fields, may be
// bounded by a [Limiter], and is recorded in a [HistoryStore].
//
// # Errors
//
// Sentinels in errors.go classify failures; [MapError] turns any of them
// into a [UserMessage] with a stable code for the CLI and HTTP API.
package core
