package lock

import "errors"

// ErrLocked is returned by Acquire when another live monitor holds the lock.
// This is a sentinel error that can be checked with errors.Is().
var ErrLocked = errors.New("lock is held by another process")
