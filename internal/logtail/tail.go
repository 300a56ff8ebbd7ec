package logtail

import (
	"context"
	"time"

	"github.com/rileyhilliard/mcwatch/internal/logger"
)

// DefaultRetryDelay is the wait before reattaching to a log stream that
// ended on its own.
const DefaultRetryDelay = 2 * time.Second

// Source streams log lines until ctx is cancelled or the stream ends.
// compose.Project implements it.
type Source interface {
	FollowLogs(ctx context.Context, fn func(line string)) error
}

// Options configures a Tailer.
type Options struct {
	// RetryDelay is the pause before following again after the stream ends.
	// Negative disables reattaching.
	RetryDelay time.Duration
	// OnLine is called after each line is buffered.
	OnLine func(line string)
	Logger logger.Logger
}

// Tailer feeds a Source into a Buffer.
type Tailer struct {
	source Source
	buf    *Buffer
	retry  time.Duration
	onLine func(string)
	log    logger.Logger
}

// NewTailer creates a tailer writing into buf.
func NewTailer(source Source, buf *Buffer, opts Options) *Tailer {
	t := &Tailer{
		source: source,
		buf:    buf,
		retry:  opts.RetryDelay,
		onLine: opts.OnLine,
		log:    opts.Logger,
	}
	if t.retry == 0 {
		t.retry = DefaultRetryDelay
	}
	if t.log == nil {
		t.log = logger.Noop()
	}
	return t
}

// Buffer returns the buffer lines are written to.
func (t *Tailer) Buffer() *Buffer {
	return t.buf
}

// Run follows the source until ctx is done. A stream that ends early (the
// container restarted, docker was not ready yet) is followed again after
// the retry delay. Run returns nil once ctx is cancelled; with reattaching
// disabled it returns the stream's error.
func (t *Tailer) Run(ctx context.Context) error {
	for {
		err := t.source.FollowLogs(ctx, t.push)
		if ctx.Err() != nil {
			return nil
		}
		if t.retry < 0 {
			return err
		}
		if err != nil {
			t.log.Warn("Log stream ended: %v", err)
		} else {
			t.log.Debug("Log stream ended, reattaching in %s", t.retry)
		}

		timer := time.NewTimer(t.retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

func (t *Tailer) push(line string) {
	t.buf.Push(line)
	if t.onLine != nil {
		t.onLine(line)
	}
}
