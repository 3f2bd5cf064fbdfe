//go:build unit

package fake

import (
	"context"
	"sync"

	"order-pipeline/internal/infra"
	"order-pipeline/internal/usecase/shared"
)

// Sequences hands out per-tenant counters starting at 1.
type Sequences struct {
	mu       sync.Mutex
	counters map[string]int64
	Err      error
	// Stall makes Next wait for ctx to end, like a pool with no free conns.
	Stall bool
}

func NewSequences() *Sequences {
	return &Sequences{counters: map[string]int64{}}
}

func (s *Sequences) Next(ctx context.Context, tenantID string, name shared.SequenceName) (int64, error) {
	if s.Stall {
		<-ctx.Done()
		return 0, infra.WrapRepoErr(nil, infra.KindDBFailure, "failed to acquire connection", ctx.Err())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, infra.WrapRepoErr(nil, infra.KindDBFailure, "failed to advance sequence "+string(name), s.Err)
	}
	k := tenantID + ":" + string(name)
	s.counters[k]++
	return s.counters[k], nil
}

func (s *Sequences) Current(tenantID string, name shared.SequenceName) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters[tenantID+":"+string(name)]
}
