package iovec

import (
	"math"

	"github.com/gsteemso/ten4sendfile/pkg/types"
)

// Set is an ordered sequence of byte vectors together with a drain cursor.
// The vectors are views into caller-owned memory and are never written or
// resliced in place; the cursor is the only mutable state and it belongs to
// the Set alone. A Set must not be shared between concurrent drains.
type Set struct {
	vecs   [][]byte
	index  int // current vector
	offset int // octets of vecs[index] already consumed
}

func NewSet(vecs [][]byte) *Set {
	return &Set{vecs: vecs}
}

// Validate checks the set for structural validity and returns the total
// octet count across all vectors, which is strictly positive on success.
// A nil or empty set, or a nil member vector, fails with EFAULT; an empty
// member fails with EINVAL, as does a total that would overflow an int64.
func (s *Set) Validate() (int64, error) {
	if s == nil || len(s.vecs) == 0 {
		return 0, types.ErrFault
	}
	var sum int64
	for _, v := range s.vecs {
		if v == nil {
			return 0, types.ErrFault
		}
		if len(v) == 0 {
			return 0, types.ErrArgument
		}
		if sum > math.MaxInt64-int64(len(v)) {
			return 0, types.ErrArgument
		}
		sum += int64(len(v))
	}
	return sum, nil
}

// Remaining returns the cursor-adjusted view of the set: the unsent suffix
// of the current vector followed by every vector after it. The returned
// slice headers are fresh on every call; the octets themselves are shared
// with the caller's vectors and never modified.
func (s *Set) Remaining() [][]byte {
	if s.Drained() {
		return nil
	}
	out := make([][]byte, 0, len(s.vecs)-s.index)
	out = append(out, s.vecs[s.index][s.offset:])
	out = append(out, s.vecs[s.index+1:]...)
	return out
}

// Advance moves the cursor forward by n octets, skipping any vector fully
// consumed and stopping partway into a partially consumed one. Once every
// vector is consumed the set is drained and further calls are no-ops.
func (s *Set) Advance(n int64) {
	for n > 0 && s.index < len(s.vecs) {
		left := int64(len(s.vecs[s.index]) - s.offset)
		if n < left {
			s.offset += int(n)
			return
		}
		n -= left
		s.index++
		s.offset = 0
	}
}

// Drained reports whether every octet in the set has been consumed.
func (s *Set) Drained() bool {
	return s.index >= len(s.vecs)
}
