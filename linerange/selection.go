package linerange

import "sort"

// Selection is the set of lines a reader has highlighted on a paste.
// The zero value is an empty selection ready to use. A Selection is not
// safe for concurrent use.
type Selection struct {
	lines  map[int]struct{}
	anchor int
}

// ParseSelection builds a Selection from a fragment.
func ParseSelection(fragment string) *Selection {
	s := &Selection{}
	for _, n := range Decode(fragment) {
		s.add(n)
	}
	return s
}

// Toggle flips line n in or out of the selection and makes it the anchor
// for a later Extend.
func (s *Selection) Toggle(n int) {
	if n < 1 {
		return
	}
	if s.Contains(n) {
		delete(s.lines, n)
	} else {
		s.add(n)
	}
	s.anchor = n
}

// Extend selects every line between the anchor and n inclusive. Without
// an anchor it behaves like selecting n alone.
func (s *Selection) Extend(n int) {
	if n < 1 {
		return
	}
	if s.anchor == 0 {
		s.add(n)
		s.anchor = n
		return
	}

	lo, hi := s.anchor, n
	if lo > hi {
		lo, hi = hi, lo
	}
	for i := lo; i <= hi; i++ {
		s.add(i)
	}
}

// Contains reports whether line n is selected.
func (s *Selection) Contains(n int) bool {
	_, ok := s.lines[n]
	return ok
}

// Clear empties the selection and forgets the anchor.
func (s *Selection) Clear() {
	s.lines = nil
	s.anchor = 0
}

// Len returns the number of selected lines.
func (s *Selection) Len() int {
	return len(s.lines)
}

// Lines returns the selected lines in ascending order.
func (s *Selection) Lines() []int {
	out := make([]int, 0, len(s.lines))
	for n := range s.lines {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// Fragment returns the canonical encoding of the selection.
func (s *Selection) Fragment() string {
	return Encode(s.Lines())
}

func (s *Selection) add(n int) {
	if s.lines == nil {
		s.lines = make(map[int]struct{})
	}
	s.lines[n] = struct{}{}
}
