// Package exporter writes the cleaned survey and its distributions to files.
//
// CSVWriter writes CSV with a UTF-8 BOM so that Excel opens accented
// Portuguese headers correctly. WorkbookExporter builds an .xlsx workbook with
// a "Dados" sheet holding the cleaned table and one sheet per chart with the
// counts, the percentages and a native Excel chart.
//
// Example usage:
//
//	var buf bytes.Buffer
//	err := exporter.NewWorkbookExporter().Export(&buf, table, charts)
//
//	w := exporter.NewCSVWriter(paths)
//	err = w.WriteTable("respostas.csv", table)
package exporter
