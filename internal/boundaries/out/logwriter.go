package out

import "io"

// RunLog defines the contract for persisting raw tool output.
// This interface abstracts the storage of archiver and pull output streams.
type RunLog interface {
	// Open returns an append-only writer for the named log.
	// Name is used for the log filename.
	Open(name string) (io.WriteCloser, error)

	// Close releases all writers opened so far.
	Close() error
}
