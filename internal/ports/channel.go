package ports

// Channel is the byte-oriented endpoint shared by the sender and the
// notification watcher. Implementations serialize reads and writes.
type Channel interface {
	// ReadAvailable performs one non-blocking read of at most one frame.
	// It returns an empty slice and nil error when nothing is available.
	ReadAvailable() ([]byte, error)

	// WriteFrame writes frame, blocking until the endpoint accepts it, and
	// returns the number of bytes written.
	WriteFrame(frame []byte) (int, error)
}
