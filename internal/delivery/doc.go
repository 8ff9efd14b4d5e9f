// Package delivery hands rendered export artifacts to their sinks: the
// clipboard for the HTML and plain-text tables, and a file sink for CSV and
// spreadsheet documents.
//
// Clipboard delivery degrades in a fixed order. A rich write carries the
// HTML table together with its plain-text form. System clipboard commands
// hold one type at a time, so their rich write is the HTML table alone. When
// a sink cannot write HTML the plain text is written instead. When no sink
// can write at all, the console sink prints the table where the operator can
// select it.
package delivery
