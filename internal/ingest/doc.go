// Package ingest reads raw batch sources into untyped records.
//
// A source is a flat file with a header row, either CSV or the first sheet of
// an XLSX workbook. Every row becomes a Record keyed by the normalised header
// name. Values are kept verbatim; typing and cleaning happen in the staging
// layer.
package ingest
