package sendfile

import (
	"golang.org/x/sys/unix"

	"github.com/gsteemso/ten4sendfile/pkg/types"
)

// minSendChunk is the floor for shrinking an oversized send: the payload
// of a standard network packet is assumed to always fit.
const minSendChunk = types.DefaultChunkSize

// reliableSend pushes the whole of buf to the socket, tolerating sends
// that complete partially, fail transiently, or reject the request as
// oversized. An oversized rejection shrinks the attempted chunk to three
// quarters of the previous size, floored at minSendChunk, and does not
// consume a retry. The octet count actually sent is reported even on
// failure.
func (t *transfer) reliableSend(buf []byte) (int, error) {
	var (
		sent  int
		chunk = len(buf)
		retry = t.newRetrier()
	)
	for sent < len(buf) {
		if rest := len(buf) - sent; chunk > rest {
			chunk = rest
		}
		n, err := t.sys.Send(t.sd, buf[sent:sent+chunk], 0)
		if err != nil {
			switch {
			case isErrno(err, unix.EACCES), isErrno(err, unix.EHOSTUNREACH):
				// Neither may be returned for a connected stream
				// socket.
				return sent, types.ErrNotConnected
			case isErrno(err, unix.EAGAIN), isErrno(err, unix.ENOBUFS):
				ok, serr := retry.again()
				if serr != nil {
					return sent, serr
				}
				if !ok {
					t.log.WithField("sent", sent).Warnf("Send still blocking after %v retries, giving up", retry.used)
					return sent, types.ErrWouldBlock
				}
			case isErrno(err, unix.EMSGSIZE):
				if chunk <= minSendChunk {
					// The peer rejects even a packet-sized send;
					// nothing smaller is worth attempting.
					return sent, types.ErrIO
				}
				chunk = chunk * 3 / 4
				if chunk < minSendChunk {
					chunk = minSendChunk
				}
			default:
				return sent, err
			}
			continue
		}
		sent += n
	}
	return sent, nil
}
