// Package exporter renders a filtered feedback table into the artifacts an
// operator takes away from a submission.
//
// Every renderer is a pure function of (header, rows):
//
//	HTML       styled <table> for rich clipboard paste
//	PlainText  tab separated lines for plain clipboard paste
//	CSV        fully quoted comma separated document
//	XLSX       single-sheet workbook with borders and centered cells
//
// RenderAll produces several artifacts concurrently. A renderer that fails
// records its error in the Bundle and never blocks the others.
//
// Example usage:
//
//	bundle := exporter.RenderAll(ctx, res.Header, res.Rows, exporter.DefaultOptions())
//	if art, ok := bundle.Get(exporter.FormatCSV); ok {
//		name := exporter.FileName("TEP", start, end, art.Format.Ext())
//		...
//	}
package exporter
