// Package ingestion provides pipeline orchestration for indexing documents.
//
// The Pipeline type manages the document ingestion workflow:
//   - Extracting text from the stored file
//   - Splitting the text into overlapping character windows
//   - Generating embeddings concurrently over a bounded worker pool
//   - Atomically replacing the document's chunks in storage
//
// The document status doubles as an advisory lock: a document in the
// processing state cannot be picked up by a second run. Failures move the
// document to the error state with the cause recorded, and the document can
// be re-processed afterwards.
package ingestion
