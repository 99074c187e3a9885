package wire

import (
	"fmt"

	"github.com/stewi1014/mpk/encio"
	"github.com/stewi1014/mpk/value"
)

func newSubtree(r *Reader, h Header, depth int) *Subtree {
	return &Subtree{
		r:       r,
		depth:   depth,
		pending: []int{h.Items()},
	}
}

// Subtree is a view of a Reader bounded to the items of one container.
// Reading beyond them fails with ErrSubtreeExhausted instead of consuming the parent's data.
//
// A Subtree keeps count of containers opened through its own ReadHeader,
// so a nested serializer can walk them header by header and still be held to the outer bound.
type Subtree struct {
	r *Reader
	// depth is the nesting level of the container the subtree is bound to, 1 for a top level one.
	depth int

	// pending holds the unread item count of each open container, outermost first.
	pending []int
	// pushed is set when the last ReadHeader opened a container with items.
	pushed bool
}

// take accounts for one item about to be read.
func (s *Subtree) take() error {
	s.pushed = false
	top := len(s.pending) - 1
	for top > 0 && s.pending[top] == 0 {
		s.pending = s.pending[:top]
		top--
	}
	if s.pending[top] == 0 {
		return encio.NewError(encio.ErrSubtreeExhausted, "no items left in subtree", "")
	}
	s.pending[top]--
	return nil
}

func (s *Subtree) nest() (*Reader, int) { return s.r, s.depth - 1 }

// Remaining returns the number of complete values left in the subtree, counting open nested containers.
func (s *Subtree) Remaining() int {
	n := 0
	for _, p := range s.pending {
		n += p
	}
	return n
}

// ReadHeader implements Source.
func (s *Subtree) ReadHeader() (Header, error) {
	if err := s.take(); err != nil {
		return Header{}, err
	}
	h, err := s.r.ReadHeader()
	if err != nil {
		return h, encio.MidValue(err)
	}
	if h.Items() > 0 {
		if err := s.r.checkDepth(s.depth + len(s.pending)); err != nil {
			return h, err
		}
		s.pending = append(s.pending, h.Items())
		s.pushed = true
	}
	return h, nil
}

// Skip implements Source.
func (s *Subtree) Skip() error {
	if err := s.take(); err != nil {
		return err
	}
	return encio.MidValue(s.r.Skip())
}

// ReadValue implements Source.
func (s *Subtree) ReadValue() (value.Value, error) {
	if err := s.take(); err != nil {
		return value.NilValue, err
	}
	v, err := s.r.ReadValue()
	return v, encio.MidValue(err)
}

// EnterSubtree implements Source.
// The items of h are handed over to the new Subtree and no longer counted here.
func (s *Subtree) EnterSubtree(h Header) (*Subtree, error) {
	if !h.IsContainer() {
		return nil, encio.NewError(encio.ErrBadType, fmt.Sprintf("cannot enter a subtree of %v", h.Kind), "")
	}
	if h.Items() > 0 {
		top := len(s.pending) - 1
		if !s.pushed || top == 0 || s.pending[top] != h.Items() {
			return nil, encio.NewError(encio.ErrBadConfig, "header was not the last one read from this subtree", "")
		}
		s.pending = s.pending[:top]
		s.pushed = false
	}
	depth := s.depth + len(s.pending)
	if err := s.r.checkDepth(depth); err != nil {
		return nil, err
	}
	return newSubtree(s.r, h, depth), nil
}

// Close discards whatever is left, leaving the parent positioned after the container.
func (s *Subtree) Close() error {
	n := s.Remaining()
	s.pending = s.pending[:1]
	s.pending[0] = 0
	s.pushed = false
	for i := 0; i < n; i++ {
		if err := s.r.Skip(); err != nil {
			return encio.MidValue(err)
		}
	}
	return nil
}
