package queue

import "sync/atomic"

// Sequencer hands out dispatch sequence numbers. The first call to Next
// returns 1, so a zero sequence always means "never stamped".
type Sequencer struct{ n atomic.Uint64 }

func (s *Sequencer) Next() uint64 { return s.n.Add(1) }

// Last reports the most recently issued number, or 0 before the first Next.
func (s *Sequencer) Last() uint64 { return s.n.Load() }
