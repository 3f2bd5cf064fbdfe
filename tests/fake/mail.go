//go:build unit

package fake

import (
	"context"
	"sync"

	"order-pipeline/internal/infra"
	"order-pipeline/internal/usecase/shared"
)

// Mailer records enqueued jobs instead of writing them to the broker.
type Mailer struct {
	mu   sync.Mutex
	jobs []shared.OrderPlacedMail
	Err  error
}

func (m *Mailer) EnqueueOrderPlaced(_ context.Context, job shared.OrderPlacedMail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return infra.WrapRepoErr(nil, infra.KindQueueFailure, "mail job dropped", m.Err)
	}
	m.jobs = append(m.jobs, job)
	return nil
}

func (m *Mailer) Jobs() []shared.OrderPlacedMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]shared.OrderPlacedMail(nil), m.jobs...)
}
