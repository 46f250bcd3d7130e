package sendfile

import (
	"time"

	"golang.org/x/sys/unix"

	"github.com/gsteemso/ten4sendfile/pkg/types"
)

// platform binds types.Syscalls to the host kernel through golang.org/x/sys.
type platform struct{}

var _ types.Syscalls = platform{}

func (platform) Fstat(fd int) (unix.Stat_t, error) {
	var st unix.Stat_t
	err := unix.Fstat(fd, &st)
	return st, err
}

func (platform) GetsockoptInt(fd, level, opt int) (int, error) {
	return unix.GetsockoptInt(fd, level, opt)
}

func (platform) Seek(fd int, offset int64, whence int) (int64, error) {
	return unix.Seek(fd, offset, whence)
}

func (platform) Read(fd int, p []byte) (int, error) {
	return unix.Read(fd, p)
}

func (platform) Writev(fd int, iovs [][]byte) (int, error) {
	return unix.Writev(fd, iovs)
}

// Send is send(2): sendmsg with no destination, since the socket is
// expected to be connected. SendmsgN is used because Sendto discards the
// octet count and partial completion matters here.
func (platform) Send(fd int, p []byte, flags int) (int, error) {
	return unix.SendmsgN(fd, p, nil, nil, flags)
}

// Sleep is an interruptible nanosleep, so a signal delivered during retry
// backoff surfaces as EINTR instead of being absorbed.
func (platform) Sleep(d time.Duration) error {
	ts := unix.NsecToTimespec(d.Nanoseconds())
	return unix.Nanosleep(&ts, nil)
}
