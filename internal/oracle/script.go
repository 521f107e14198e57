package oracle

import (
	"context"
	"sync"
)

// Script is a deterministic Decider that replays a fixed sequence of
// decisions. Once the sequence is exhausted it keeps returning the last
// decision, or yields if the sequence was empty. Used by the test suite and
// offline runs.
type Script struct {
	mu        sync.Mutex
	decisions []Decision
	errs      []error
	next      int
}

// NewScript builds a scripted decider from a decision sequence.
func NewScript(decisions ...Decision) *Script {
	return &Script{decisions: decisions}
}

// FailWith arranges for the i-th call to return err instead of a decision.
func (s *Script) FailWith(i int, err error) *Script {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.errs) <= i {
		s.errs = append(s.errs, nil)
	}
	s.errs[i] = err
	return s
}

func (s *Script) Decide(ctx context.Context, req Request) (Decision, error) {
	if err := ctx.Err(); err != nil {
		return Decision{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.next
	s.next++

	if i < len(s.errs) && s.errs[i] != nil {
		return Decision{}, s.errs[i]
	}
	if len(s.decisions) == 0 {
		return Decision{Kind: DecideYield}, nil
	}
	if i >= len(s.decisions) {
		i = len(s.decisions) - 1
	}
	return s.decisions[i], nil
}

// Calls reports how many times Decide has been invoked.
func (s *Script) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}
