package cli

import (
	"bytes"
	"context"
	"sync"
	"sync/atomic"
)

// syncBuffer is a bytes.Buffer safe for the logger and spinner goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// fakeLogSource emits lines and then follows until ctx is done.
type fakeLogSource struct {
	lines    []string
	returned atomic.Bool
}

func (f *fakeLogSource) FollowLogs(ctx context.Context, fn func(line string)) error {
	for _, l := range f.lines {
		fn(l)
	}
	<-ctx.Done()
	f.returned.Store(true)
	return nil
}
