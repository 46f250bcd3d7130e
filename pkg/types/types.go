package types

import (
	"time"

	"golang.org/x/sys/unix"
)

const (
	// DefaultChunkSize bounds each file read and the first attempt of
	// each send. It is sized to fit the payload of a standard network
	// packet.
	DefaultChunkSize = 1500

	// DefaultMaxRetries bounds how often a transient failure is retried
	// before the operation gives up.
	DefaultMaxRetries = 20

	// DefaultRetryInterval is slept between retries of a transient
	// failure. One sixtieth of a second.
	DefaultRetryInterval = time.Second / 60
)

// Failure conditions surfaced by Transmit. Every value is an errno, so a
// caller may compare with errors.Is or plain equality against these or
// against the unix package constants directly.
var (
	ErrWouldBlock    error = unix.EAGAIN
	ErrBadDescriptor error = unix.EBADF
	ErrFault         error = unix.EFAULT
	ErrInterrupted   error = unix.EINTR
	ErrArgument      error = unix.EINVAL
	ErrIO            error = unix.EIO
	ErrNotConnected  error = unix.ENOTCONN
	ErrNotSocket     error = unix.ENOTSOCK
	ErrUnsupported   error = unix.ENOTSUP
	ErrBrokenPipe    error = unix.EPIPE
)

// Syscalls is the platform surface the transmission engine relies on. The
// engine issues no syscall of its own; everything it needs from the host
// goes through this interface, which keeps the errno semantics testable
// against a simulated file and socket. Implementations return errno-valued
// errors (syscall.Errno).
type Syscalls interface {
	Fstat(fd int) (unix.Stat_t, error)
	GetsockoptInt(fd, level, opt int) (int, error)
	Seek(fd int, offset int64, whence int) (int64, error)
	Read(fd int, p []byte) (int, error)
	Writev(fd int, iovs [][]byte) (int, error)
	Send(fd int, p []byte, flags int) (int, error)
	Sleep(d time.Duration) error
}
