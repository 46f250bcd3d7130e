package sendfile

import (
	"errors"
	"syscall"
	"time"

	"github.com/gsteemso/ten4sendfile/pkg/types"
)

// retrier bounds how often one operation may retry a transient condition,
// sleeping a fixed interval between attempts. Each spooled vector set,
// each buffer send and each chunk read gets a fresh retrier.
type retrier struct {
	sys      types.Syscalls
	max      int
	interval time.Duration
	used     int
}

func (t *transfer) newRetrier() *retrier {
	return &retrier{
		sys:      t.sys,
		max:      t.cfg.MaxRetries,
		interval: t.cfg.RetryInterval,
	}
}

// again records one more transient failure. It reports whether the caller
// should try again after the backoff sleep; false with a nil error means
// the ceiling is exhausted. An interrupted sleep surfaces as EINTR.
func (r *retrier) again() (bool, error) {
	if r.used >= r.max {
		return false, nil
	}
	r.used++
	if err := r.sys.Sleep(r.interval); err != nil {
		return false, types.ErrInterrupted
	}
	return true, nil
}

func isErrno(err error, errno syscall.Errno) bool {
	return errors.Is(err, errno)
}
