// Package search provides vector similarity search over document chunks.
//
// The Searcher embeds a question with the same model used at ingestion time
// and scans stored chunk vectors for cosine similarity above a threshold.
// Results are capped and ordered best-first, ready for prompt assembly.
package search
