// Package xlsform models an XLSForm workbook as plain values: a Form maps sheet
// names to Tables, a Table is an ordered header plus ordered rows, and a Row
// maps normalised column names to cell Values.
//
// Every operation that changes a Table returns a new Table. The package also
// holds the fixed configuration shared by the pipeline: the recognised
// translation languages, the translatable base fields, and the structural
// group markers used in the survey sheet.
package xlsform
