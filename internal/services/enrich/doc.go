// Package enrich calls the AI analysis service that derives labels, a
// summary, and a group suggestion from extracted text.
//
// Enrichment is deliberately non-fatal: Analyze degrades to a zero Analysis
// when the service is unreachable or misbehaving, and the pipeline records
// the run as successful either way.
package enrich
