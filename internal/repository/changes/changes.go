// Package changes holds the writes staged by the repositories of one unit of
// work until the store commits them in a single transaction.
package changes

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5"
)

// Op is one staged write. Apply runs inside the commit transaction; OnCommit
// runs only after the transaction committed and is where generated values are
// copied back onto the caller's entity.
type Op struct {
	Name     string
	Apply    func(ctx context.Context, tx pgx.Tx) error
	OnCommit func()
}

// Set is the ordered list of pending writes.
type Set struct {
	mu  sync.Mutex
	ops []Op
}

func (s *Set) Stage(op Op) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = append(s.ops, op)
}

func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ops)
}

// Drain returns the pending writes in staging order and empties the set.
func (s *Set) Drain() []Op {
	s.mu.Lock()
	defer s.mu.Unlock()
	ops := s.ops
	s.ops = nil
	return ops
}
