package watch

import "errors"

var (
	// ErrDirectoryRequired indicates a Watcher was created without a
	// drop directory.
	ErrDirectoryRequired = errors.New("drop directory is required")

	// ErrUploaderRequired indicates a Watcher was created without an uploader.
	ErrUploaderRequired = errors.New("uploader is required")

	// ErrProcessorRequired indicates a Watcher was created without a processor.
	ErrProcessorRequired = errors.New("processor is required")
)
