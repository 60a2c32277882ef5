// Package exporter writes aggregate bundles and cleaned records to the
// exports directory.
//
// BundleExporter produces either a single dashboard JSON document
// (snapshot metadata plus the full bundle) or one CSV per view: KPIs,
// monthly churn trend, MRR by region, churn by plan, and the score
// histogram. Dated copies keep history for scheduled report runs.
//
// RecordsExporter streams the cleaned record set back out using the
// source column contract, so an exported file loads again unchanged.
//
// Example usage:
//
//	bundles := exporter.NewBundleExporter(paths, metrics, logger)
//	result, err := bundles.Export(ctx, bundle, info, exporter.Options{
//		Format:    exporter.FormatCSV,
//		DatedCopy: true,
//	})
//
//	records := exporter.NewRecordsExporter(paths, logger)
//	rows, bytes, err := records.ExportRecords(ctx, snapshot.Records, "records.csv")
package exporter
