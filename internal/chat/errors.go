package chat

import "fmt"

// ValidationError reports client-correctable input problems: empty content,
// a self-targeted conversation, a sender outside the thread. The connection
// stays usable after one.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// StorageError wraps a persistence failure during resolve or append.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("chat storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
