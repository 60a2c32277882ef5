// Package dataprocessing turns raw subscription source files into cleaned
// SubscriptionRecord slices ready for aggregation. It owns the complete
// ingestion policy: how files are read, which rows survive, and which
// values get defaulted.
//
// # Architecture
//
// The package is organized into two components:
//
// 1. Loader: reads a CSV or XLSX source file into a raw string table
// 2. Cleaner: applies the cleaning policy and emits records plus a report
//
// # Usage
//
// Typical load-and-clean sequence:
//
//	loader := dataprocessing.NewLoader(logger)
//	table, err := loader.Load(ctx, path)
//	if err != nil {
//	    return err
//	}
//
//	cleaner := dataprocessing.NewCleaner(logger)
//	records, report, err := cleaner.Clean(ctx, table)
//
// # Data Flow
//
// The typical data flow through this package:
//
//	Source File → Loader → RawTable → Cleaner → SubscriptionRecords + CleanReport
//
// # Error Handling
//
// Load failures split into two kinds:
//
//   - SourceUnavailable: the file cannot be located or read at all. The
//     error carries the attempted path and is terminal; no partial
//     records accompany it.
//   - Parsing: the file was readable but structurally broken (malformed
//     CSV, empty workbook, missing required columns).
//
// Cell-level problems are never errors. An unparseable date is a missing
// value; rows missing required fields are dropped silently and surface
// only as counts in the CleanReport.
//
// # Testing
//
// The package includes comprehensive tests for all components.
// Use table-driven tests when adding new functionality.
package dataprocessing
