// Package ssh is the Hive transport's (§11.3) connection to one remote
// host: connect, run a command, upload an argfile. It backs
// internal/runner.HiveTransport.
package ssh

// TransportError wraps a failure from any SSHClient operation with the
// operation name and whether it is worth retrying.
type TransportError struct {
	// Op is the operation that failed (e.g. "connect", "execute", "upload").
	Op string

	// Err is the underlying error.
	Err error

	// IsTemporary indicates if the error is temporary and can be retried.
	IsTemporary bool

	// IsAuthError indicates if the error is related to authentication.
	IsAuthError bool
}

func (e *TransportError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Temporary() bool {
	return e.IsTemporary
}
