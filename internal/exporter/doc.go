// Package exporter renders analysis results as report files and streams.
//
// Three layers build on each other:
//
// Writer: core CSV writing under the configured reports directory, with
// UTF-8 BOM for Excel compatibility, append mode and a row-at-a-time
// StreamWriter for large exports.
//
// Table plus the render functions: format-independent report sections that
// stream as CSV, as an Excel workbook (one sheet per table) or as JSON, used
// by the report download endpoints.
//
// ReportExporter: writes the gap, fraud and migration sweeps as dated report
// files, plus per-state district slices for field distribution.
//
// Example usage:
//
//	reports := exporter.NewReportExporter(cfg.ReportsPath(), logger)
//
//	path, err := reports.ExportGapReport(result, exporter.FormatXLSX)
//
//	// Stream the same report over HTTP instead:
//	err = exporter.RenderCSV(w, exporter.GapTable(result))
package exporter
