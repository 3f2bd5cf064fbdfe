package mail

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"order-pipeline/internal/infra"
	"order-pipeline/internal/pkg/clock"
	"order-pipeline/internal/pkg/errs"
	"order-pipeline/internal/usecase/shared"

	"github.com/segmentio/kafka-go"
)

var (
	ErrQueueFull       = errs.New("mail queue is full")
	ErrDispatcherClose = errs.New("mail dispatcher is closed")
)

// MessageWriter is the part of *kafka.Writer the dispatcher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
}

// Dispatcher buffers mail jobs and writes them from a single goroutine so that
// Enqueue never blocks the order path.
type Dispatcher struct {
	w      MessageWriter
	clock  clock.Clock
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
	inbox  chan kafka.Message
	done   chan struct{}
}

func NewDispatcher(w MessageWriter, buf int, clk clock.Clock, logger *slog.Logger) *Dispatcher {
	if buf <= 0 {
		buf = 1
	}
	return &Dispatcher{
		w:      w,
		clock:  clk,
		logger: logger,
		inbox:  make(chan kafka.Message, buf),
		done:   make(chan struct{}),
	}
}

func (d *Dispatcher) Start() {
	go func() {
		defer close(d.done)
		for m := range d.inbox {
			d.write(m)
		}
		if err := d.w.Close(); err != nil {
			d.logger.Warn("failed to close mail writer", "error", err.Error())
		}
	}()
}

func (d *Dispatcher) write(m kafka.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := d.w.WriteMessages(ctx, m); err != nil {
		d.logger.Error("failed to write mail job",
			"key", string(m.Key),
			"error", err.Error())
	}
}

// EnqueueOrderPlaced hands the job to the writer goroutine and returns at once.
func (d *Dispatcher) EnqueueOrderPlaced(_ context.Context, job shared.OrderPlacedMail) error {
	env, err := newOrderPlacedEnvelope(job, d.clock.Now())
	if err != nil {
		return infra.WrapRepoErr(d.logger, infra.KindQueueFailure, "failed to encode mail job", err)
	}
	value, err := json.Marshal(env)
	if err != nil {
		return infra.WrapRepoErr(d.logger, infra.KindQueueFailure, "failed to encode mail envelope", err)
	}
	msg := kafka.Message{
		Key:   []byte(job.TenantID + ":" + job.OrderID.String()),
		Value: value,
		Time:  env.OccurredAt,
		Headers: []kafka.Header{
			{Key: headerEventType, Value: []byte(EventOrderPlaced)},
			{Key: headerTenantID, Value: []byte(job.TenantID)},
		},
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return infra.WrapRepoErr(d.logger, infra.KindQueueFailure, "mail job dropped", ErrDispatcherClose)
	}
	select {
	case d.inbox <- msg:
		return nil
	default:
		return infra.WrapRepoErr(d.logger, infra.KindQueueFailure, "mail job dropped", ErrQueueFull)
	}
}

// Close flushes buffered jobs and waits for the writer to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.inbox)
	}
	d.mu.Unlock()
	<-d.done
}
