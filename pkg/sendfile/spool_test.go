package sendfile

import (
	"golang.org/x/sys/unix"
	. "gopkg.in/check.v1"

	"github.com/gsteemso/ten4sendfile/pkg/iovec"
	"github.com/gsteemso/ten4sendfile/pkg/types"
)

func (s *TestSuite) TestSpoolByteAtATime(c *C) {
	first := []byte("HE")
	second := []byte("LLO")

	f := newFakeSys("")
	f.acceptMax = 1
	t := f.newTransfer(DefaultConfig())

	set := iovec.NewSet([][]byte{first, second})
	spooled, err := t.spoolVectors(set, "headers")
	c.Assert(err, IsNil)
	c.Assert(spooled, Equals, int64(5))
	c.Assert(string(f.received), Equals, "HELLO")
	c.Assert(set.Drained(), Equals, true)
	c.Assert(f.writevCalls, Equals, 5)

	// The caller's vectors survive the drain untouched.
	c.Assert(string(first), Equals, "HE")
	c.Assert(string(second), Equals, "LLO")
}

func (s *TestSuite) TestSpoolPartialThenRest(c *C) {
	// 3 of a pending 10 octets complete on the first call, the
	// remaining 7 on the next.
	f := newFakeSys("")
	f.accepts = []int{3}
	t := f.newTransfer(DefaultConfig())

	set := iovec.NewSet([][]byte{[]byte("0123456789")})
	spooled, err := t.spoolVectors(set, "headers")
	c.Assert(err, IsNil)
	c.Assert(spooled, Equals, int64(10))
	c.Assert(string(f.received), Equals, "0123456789")
	c.Assert(set.Drained(), Equals, true)
	c.Assert(f.writevCalls, Equals, 2)
}

func (s *TestSuite) TestSpoolInvalidSet(c *C) {
	f := newFakeSys("")
	t := f.newTransfer(DefaultConfig())

	spooled, err := t.spoolVectors(iovec.NewSet([][]byte{[]byte("a"), {}}), "headers")
	c.Assert(err, Equals, types.ErrArgument)
	c.Assert(spooled, Equals, int64(0))

	spooled, err = t.spoolVectors(iovec.NewSet([][]byte{nil}), "headers")
	c.Assert(err, Equals, types.ErrFault)
	c.Assert(spooled, Equals, int64(0))

	// Validation failures never reach the socket.
	c.Assert(f.writevCalls, Equals, 0)
}

func (s *TestSuite) TestSpoolErrnoRemap(c *C) {
	testsets := []struct {
		errno    error
		expected error
	}{
		// Disk-only conditions cannot happen against a socket.
		{unix.EFBIG, types.ErrNotSocket},
		{unix.ENOSPC, types.ErrNotSocket},
		{unix.EDQUOT, types.ErrNotSocket},
		// Peer-gone conditions.
		{unix.EPIPE, types.ErrNotConnected},
		{unix.EDESTADDRREQ, types.ErrNotConnected},
		// Buffer exhaustion and anything unexpected.
		{unix.ENOBUFS, types.ErrIO},
		{unix.ENETDOWN, types.ErrIO},
		// Within the contract as-is.
		{unix.EBADF, types.ErrBadDescriptor},
		{unix.EFAULT, types.ErrFault},
		{unix.EINTR, types.ErrInterrupted},
		{unix.EINVAL, types.ErrArgument},
		{unix.EIO, types.ErrIO},
	}
	for _, t := range testsets {
		f := newFakeSys("")
		f.writevErrs = []error{t.errno}
		tr := f.newTransfer(DefaultConfig())

		spooled, err := tr.spoolVectors(iovec.NewSet([][]byte{[]byte("x")}), "headers")
		c.Assert(err, Equals, t.expected)
		c.Assert(spooled, Equals, int64(0))
	}
}

func (s *TestSuite) TestSpoolWouldBlockRetry(c *C) {
	f := newFakeSys("")
	f.writevErrs = []error{unix.EAGAIN, unix.EAGAIN}
	t := f.newTransfer(DefaultConfig())

	spooled, err := t.spoolVectors(iovec.NewSet([][]byte{[]byte("HELLO")}), "headers")
	c.Assert(err, IsNil)
	c.Assert(spooled, Equals, int64(5))
	c.Assert(f.sleeps, Equals, 2)
}

func (s *TestSuite) TestSpoolWouldBlockExhausted(c *C) {
	f := newFakeSys("")
	f.accepts = []int{2}
	f.writevErrs = []error{nil, unix.EAGAIN, unix.EAGAIN, unix.EAGAIN}
	cfg := DefaultConfig()
	cfg.MaxRetries = 2
	t := f.newTransfer(cfg)

	spooled, err := t.spoolVectors(iovec.NewSet([][]byte{[]byte("HELLO")}), "headers")
	c.Assert(err, Equals, types.ErrWouldBlock)
	c.Assert(spooled, Equals, int64(2))
	c.Assert(string(f.received), Equals, "HE")
	c.Assert(f.sleeps, Equals, 2)
}

func (s *TestSuite) TestSpoolInterruptedBackoff(c *C) {
	f := newFakeSys("")
	f.writevErrs = []error{unix.EAGAIN}
	f.sleepErrs = []error{unix.EINTR}
	t := f.newTransfer(DefaultConfig())

	spooled, err := t.spoolVectors(iovec.NewSet([][]byte{[]byte("HELLO")}), "headers")
	c.Assert(err, Equals, types.ErrInterrupted)
	c.Assert(spooled, Equals, int64(0))
}
