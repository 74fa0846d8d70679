// Package staging turns raw records into typed, cleaned rows.
//
// Text is trimmed, identifiers and measures are parsed, dates are accepted in
// every layout the sources are known to use, and a few columns are renamed or
// normalised. A value that cannot be parsed is an error naming the table, row
// and column; staging never guesses.
package staging
