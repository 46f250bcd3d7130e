package sendfile

import (
	"golang.org/x/sys/unix"

	"github.com/gsteemso/ten4sendfile/pkg/iovec"
	"github.com/gsteemso/ten4sendfile/pkg/types"
)

// spoolVectors drains an entire vector set through the vectored-write
// primitive, which may complete only part of the request per call. Partial
// completion advances the set's internal cursor; the caller's vectors are
// left untouched. The octet count actually put on the wire is reported
// even on failure.
func (t *transfer) spoolVectors(set *iovec.Set, what string) (int64, error) {
	total, err := set.Validate()
	if err != nil {
		return 0, err
	}

	var spooled int64
	retry := t.newRetrier()
	for spooled < total {
		n, err := t.sys.Writev(t.sd, set.Remaining())
		if err != nil {
			mapped := mapWritevErrno(err)
			if isErrno(mapped, unix.EAGAIN) {
				ok, serr := retry.again()
				if serr != nil {
					return spooled, serr
				}
				if ok {
					continue
				}
				t.log.WithField("spooled", spooled).Warnf("Vectored write of %v still blocking after %v retries, giving up", what, retry.used)
			}
			return spooled, mapped
		}
		set.Advance(int64(n))
		spooled += int64(n)
	}
	return spooled, nil
}

// mapWritevErrno narrows writev's error surface to what is reachable when
// the destination is a connected stream socket. Disk-only conditions and
// peer-gone conditions must not leak verbatim; the contract has no room
// for them.
func mapWritevErrno(err error) error {
	switch {
	case isErrno(err, unix.EINTR), isErrno(err, unix.EIO), isErrno(err, unix.EBADF),
		isErrno(err, unix.EFAULT), isErrno(err, unix.EINVAL), isErrno(err, unix.EAGAIN):
		return err
	case isErrno(err, unix.EFBIG), isErrno(err, unix.ENOSPC), isErrno(err, unix.EDQUOT):
		// Only possible when writing to a disk, not a socket.
		return types.ErrNotSocket
	case isErrno(err, unix.EPIPE), isErrno(err, unix.EDESTADDRREQ):
		return types.ErrNotConnected
	default:
		// Including ENOBUFS.
		return types.ErrIO
	}
}
