package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TopicCampaignSends carries one job per campaign recipient.
const TopicCampaignSends = "campaign_sends"

// Job identifies one outbound message to dispatch.
type Job struct {
	OutboundMessageID string `json:"outbound_message_id"`
	CampaignID        string `json:"campaign_id"`
}

// Handler processes a job. A non-nil error schedules a retry.
type Handler func(ctx context.Context, job Job) error

// Queue interface
type Queue interface {
	Publish(ctx context.Context, topic string, job Job) error
	Subscribe(topic string, handler Handler) error
}

// InMemoryQueue runs handlers on goroutines with bounded retries. Used
// when no broker is configured and in tests.
type InMemoryQueue struct {
	mu         sync.Mutex
	handlers   map[string][]Handler
	wg         sync.WaitGroup
	log        *zap.Logger
	MaxRetries int
	Backoff    time.Duration
}

// NewInMemoryQueue creates a new queue
func NewInMemoryQueue(log *zap.Logger) *InMemoryQueue {
	return &InMemoryQueue{
		handlers:   make(map[string][]Handler),
		log:        log,
		MaxRetries: 3,
		Backoff:    500 * time.Millisecond,
	}
}

// Publish sends a job to all subscribers
func (q *InMemoryQueue) Publish(ctx context.Context, topic string, job Job) error {
	q.mu.Lock()
	handlers := append([]Handler(nil), q.handlers[topic]...)
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	for _, handler := range handlers {
		q.wg.Add(1)
		go q.processJob(context.WithoutCancel(ctx), handler, job)
	}
	return nil
}

// processJob handles retries and errors
func (q *InMemoryQueue) processJob(ctx context.Context, handler Handler, job Job) {
	defer q.wg.Done()

	for attempt := 0; ; attempt++ {
		err := handler(ctx, job)
		if err == nil {
			q.log.Debug("Job processed", zap.String("outbound_message_id", job.OutboundMessageID))
			return
		}
		if attempt >= q.MaxRetries {
			q.log.Error("Job permanently failed",
				zap.String("outbound_message_id", job.OutboundMessageID),
				zap.Int("attempts", attempt+1),
				zap.Error(err),
			)
			return
		}
		q.log.Warn("Job failed, retrying",
			zap.String("outbound_message_id", job.OutboundMessageID),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
		// linear backoff
		time.Sleep(time.Duration(attempt+1) * q.Backoff)
	}
}

// Subscribe adds a handler for a topic
func (q *InMemoryQueue) Subscribe(topic string, handler Handler) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

// Wait blocks until every published job has finished, retries included.
func (q *InMemoryQueue) Wait() {
	q.wg.Wait()
}

var _ Queue = (*InMemoryQueue)(nil)
