// Package watch ingests knowledge-base documents from a drop folder.
// Files copied into the watched directory are uploaded and processed once
// their writes settle, giving operators a no-UI ingestion path.
package watch
