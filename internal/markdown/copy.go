package markdown

import "time"

// CopiedFor is how long a block shows "Copied!" after a copy.
const CopiedFor = 1500 * time.Millisecond

// CopyState tracks the transient copied indicator of each code block.
// Every Mark returns a token; Expire only clears the indicator when the token
// is still the latest one for that block, so a second copy restarts the
// window instead of being cut short by the first.
type CopyState struct {
	tokens map[int]uint64
	next   uint64
}

// Mark turns the indicator of block index on.
func (s *CopyState) Mark(index int) uint64 {
	if s.tokens == nil {
		s.tokens = make(map[int]uint64)
	}
	s.next++
	s.tokens[index] = s.next
	return s.next
}

// Expire turns the indicator off if token is still current.
func (s *CopyState) Expire(index int, token uint64) {
	if s.tokens[index] == token {
		delete(s.tokens, index)
	}
}

// Copied reports whether block index shows the indicator.
func (s *CopyState) Copied(index int) bool {
	_, ok := s.tokens[index]
	return ok
}

// Reset drops every indicator. Pending expiries become no-ops.
func (s *CopyState) Reset() {
	s.tokens = nil
}
