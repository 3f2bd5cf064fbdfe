package mail

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// Handler returns nil only when the message may be committed.
type Handler func(ctx context.Context, m kafka.Message) error

// MessageReader is the part of *kafka.Reader the consumer uses.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

func NewReader(brokers []string, group, topic string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        group,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // manual commit
	})
}

const commitTimeout = 5 * time.Second

type Consumer struct {
	r       MessageReader
	workers int
	logger  *slog.Logger
}

func NewConsumer(r MessageReader, workers int, logger *slog.Logger) *Consumer {
	if workers <= 0 {
		workers = 1
	}
	return &Consumer{r: r, workers: workers, logger: logger}
}

// Run blocks until ctx is done or the reader fails. Group offsets are
// cumulative, so a partition is only committed up to its first unhandled
// message; a failed message and everything after it are redelivered.
func (c *Consumer) Run(ctx context.Context, h Handler) error {
	defer c.r.Close()

	jobs := make(chan kafka.Message, c.workers)
	acks := newAckTracker()
	var wg sync.WaitGroup

	for i := 0; i < c.workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for m := range jobs {
				if err := h(ctx, m); err != nil {
					c.logger.Warn("mail job failed",
						"worker", id,
						"partition", m.Partition,
						"offset", m.Offset,
						"error", err.Error())
					continue
				}
				err := acks.ack(m, func(upTo kafka.Message) error {
					// handled work is still committed while shutting down
					commitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), commitTimeout)
					defer cancel()
					return c.r.CommitMessages(commitCtx, upTo)
				})
				if err != nil {
					c.logger.Warn("failed to commit mail job", "worker", id, "partition", m.Partition, "offset", m.Offset, "error", err.Error())
				}
			}
		}(i)
	}

	err := c.dispatch(ctx, jobs, acks)
	close(jobs)
	wg.Wait()
	return err
}

type pending struct {
	msg  kafka.Message
	done bool
}

// ackTracker keeps fetched messages per partition in offset order and only
// lets the handled prefix through to the commit.
type ackTracker struct {
	mu         sync.Mutex
	partitions map[int][]*pending
}

func newAckTracker() *ackTracker {
	return &ackTracker{partitions: map[int][]*pending{}}
}

func (t *ackTracker) track(m kafka.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.partitions[m.Partition] = append(t.partitions[m.Partition], &pending{msg: m})
}

// ack marks m handled and commits the highest message of the handled
// prefix, if the prefix grew. The commit runs under the lock so commits of
// one partition never go backwards.
func (t *ackTracker) ack(m kafka.Message, commit func(kafka.Message) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	p := t.find(m)
	if p == nil {
		return nil
	}
	p.done = true

	queue := t.partitions[m.Partition]
	n := 0
	for n < len(queue) && queue[n].done {
		n++
	}
	if n == 0 {
		return nil
	}
	if err := commit(queue[n-1].msg); err != nil {
		return err
	}
	t.partitions[m.Partition] = queue[n:]
	return nil
}

func (t *ackTracker) find(m kafka.Message) *pending {
	for _, p := range t.partitions[m.Partition] {
		if p.msg.Offset == m.Offset {
			return p
		}
	}
	return nil
}

func (c *Consumer) dispatch(ctx context.Context, jobs chan<- kafka.Message, acks *ackTracker) error {
	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		acks.track(m)
		select {
		case jobs <- m:
		case <-ctx.Done():
			return nil
		}
	}
}

// OrderPlacedHandler logs the rendered dispatch. Delivery itself is handled
// by the mail provider behind this worker.
func OrderPlacedHandler(logger *slog.Logger) Handler {
	return func(_ context.Context, m kafka.Message) error {
		env, job, err := DecodeOrderPlaced(m.Value)
		if err != nil {
			// poison message: commit it rather than block the partition
			logger.Error("dropping undecodable mail job", "offset", m.Offset, "error", err.Error())
			return nil
		}
		if env.EventType != EventOrderPlaced {
			return nil
		}
		logger.Info("order confirmation dispatched",
			"tenant_id", job.TenantID,
			"order_id", job.OrderID.String(),
			"order_number", job.OrderNumber,
			"invoice_number", job.InvoiceNumber,
			"recipient", job.RecipientEmail,
			"queued_for", time.Since(env.OccurredAt).String())
		return nil
	}
}
