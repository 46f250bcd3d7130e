// Package sendfile transmits the contents of a regular file, optionally
// bracketed by header and trailer data, to a connected stream socket. It
// reproduces the classic BSD sendfile(2) contract, errno for errno, on
// platforms without a native implementation; data is relayed through an
// intermediate buffer rather than zero-copied.
package sendfile

import (
	"io"

	"github.com/docker/go-units"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/gsteemso/ten4sendfile/pkg/iovec"
	"github.com/gsteemso/ten4sendfile/pkg/types"
)

// HdTr carries optional header and trailer data bracketing the file body,
// the shape of struct sf_hdtr. The vectors are read-only to the engine; a
// partially completed transfer never modifies them.
type HdTr struct {
	Headers  [][]byte
	Trailers [][]byte
}

const transferIDLength = 8

// transfer is the per-call state. One Transmit call owns exactly one
// transfer; nothing is shared between concurrent calls.
type transfer struct {
	cfg Config
	sys types.Syscalls
	fd  int
	sd  int
	log *logrus.Entry
}

// Transmit copies data from the regular file fd to the connected stream
// socket sd using the default configuration. See Config.Transmit.
func Transmit(fd, sd int, offset int64, length *int64, hdtr *HdTr, flags uint32) error {
	return DefaultConfig().Transmit(fd, sd, offset, length, hdtr, flags)
}

// Transmit copies data from the regular file fd, starting at offset, to
// the connected stream socket sd. On entry *length is the count of file
// octets to send, zero meaning through end of file. On return *length
// always holds the total octet count put on the wire -- headers, file
// body, and trailers combined -- on every exit path, success or failure,
// so a failed call still allows resuming by offset. Errors are the errno
// values of the sendfile contract (see pkg/types); flags is reserved and
// must be zero.
func (c Config) Transmit(fd, sd int, offset int64, length *int64, hdtr *HdTr, flags uint32) error {
	if length == nil {
		return types.ErrArgument
	}
	want := *length
	*length = 0
	if offset < 0 || want < 0 || flags != 0 {
		return types.ErrArgument
	}
	if c.ChunkSize <= 0 || c.MaxRetries < 0 || c.RetryInterval < 0 {
		return types.ErrArgument
	}

	t := &transfer{
		cfg: c,
		sys: c.sys(),
		fd:  fd,
		sd:  sd,
		log: logrus.WithFields(logrus.Fields{
			"transfer": uuid.New().String()[:transferIDLength],
			"fd":       fd,
			"socket":   sd,
		}),
	}
	return t.run(offset, want, length, hdtr)
}

func (t *transfer) run(offset, want int64, length *int64, hdtr *HdTr) error {
	st, err := t.sys.Fstat(t.fd)
	if err != nil {
		// EBADF and EFAULT are within the contract as-is.
		return err
	}
	if st.Mode&unix.S_IFMT != unix.S_IFREG {
		return types.ErrUnsupported
	}
	if offset > st.Size {
		// Nothing to do. Headers and trailers are skipped too.
		return nil
	}

	if err := t.validateSocket(); err != nil {
		return err
	}

	pos, err := t.sys.Seek(t.fd, offset, io.SeekStart)
	if err != nil || pos != offset {
		return types.ErrIO
	}

	if hdtr != nil && len(hdtr.Headers) > 0 {
		n, err := t.spoolVectors(iovec.NewSet(hdtr.Headers), "headers")
		*length += n
		if err != nil {
			return err
		}
	}

	body, err := t.relayBody(want)
	*length += body
	if err != nil {
		return err
	}

	if hdtr != nil && len(hdtr.Trailers) > 0 {
		n, err := t.spoolVectors(iovec.NewSet(hdtr.Trailers), "trailers")
		*length += n
		if err != nil {
			return err
		}
	}

	t.log.Debugf("Transmitted %v", units.HumanSize(float64(*length)))
	return nil
}

func (t *transfer) validateSocket() error {
	st, err := t.sys.Fstat(t.sd)
	if err != nil {
		return err
	}
	if st.Mode&unix.S_IFMT != unix.S_IFSOCK {
		return types.ErrNotSocket
	}
	soType, err := t.sys.GetsockoptInt(t.sd, unix.SOL_SOCKET, unix.SO_TYPE)
	if err != nil {
		if isErrno(err, unix.EDOM) || isErrno(err, unix.ENOPROTOOPT) {
			// A parameter problem the caller could have avoided.
			return types.ErrArgument
		}
		return err
	}
	if soType != unix.SOCK_STREAM {
		return types.ErrNotSocket
	}
	return nil
}

// relayBody streams the file body through the transfer buffer. want bounds
// the octet count read from the file; zero means through end of file. The
// octet count handed to the socket is reported even on failure.
func (t *transfer) relayBody(want int64) (int64, error) {
	var moved int64
	buf := make([]byte, t.cfg.ChunkSize)
	for {
		view := buf
		if want > 0 {
			rest := want - moved
			if rest == 0 {
				return moved, nil
			}
			if rest < int64(len(view)) {
				view = view[:rest]
			}
		}
		n, err := t.readChunk(view)
		if err != nil {
			return moved, err
		}
		if n == 0 {
			// End of file.
			return moved, nil
		}
		sent, err := t.reliableSend(view[:n])
		moved += int64(sent)
		if err != nil {
			return moved, err
		}
	}
}

// readChunk fills p from the file's current position, retrying transient
// failures. A read-side EINVAL surfaces as EIO; the contract reserves
// EINVAL for the caller's own argument mistakes.
func (t *transfer) readChunk(p []byte) (int, error) {
	retry := t.newRetrier()
	for {
		n, err := t.sys.Read(t.fd, p)
		if err == nil {
			return n, nil
		}
		if isErrno(err, unix.EINTR) || isErrno(err, unix.EAGAIN) {
			ok, serr := retry.again()
			if serr != nil {
				return 0, serr
			}
			if ok {
				continue
			}
			t.log.Warnf("File read still failing after %v retries, giving up", retry.used)
			return 0, types.ErrWouldBlock
		}
		if isErrno(err, unix.EINVAL) {
			return 0, types.ErrIO
		}
		return 0, err
	}
}
