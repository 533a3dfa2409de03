package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

const retryHeader = "x-retry-count"

// AMQPQueue publishes and consumes jobs through RabbitMQ. Every topic maps
// to a durable queue of the same name on the default exchange.
type AMQPQueue struct {
	conn       *amqp.Connection
	mu         sync.Mutex
	ch         *amqp.Channel
	log        *zap.Logger
	maxRetries int
	declared   map[string]bool
}

func NewAMQPQueue(url string, maxRetries int, log *zap.Logger) (*AMQPQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	return &AMQPQueue{
		conn:       conn,
		ch:         ch,
		log:        log,
		maxRetries: maxRetries,
		declared:   map[string]bool{},
	}, nil
}

func (q *AMQPQueue) declare(topic string) error {
	if q.declared[topic] {
		return nil
	}
	_, err := q.ch.QueueDeclare(
		topic, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", topic, err)
	}
	q.declared[topic] = true
	return nil
}

func (q *AMQPQueue) Publish(ctx context.Context, topic string, job Job) error {
	return q.publish(topic, job, 0)
}

func (q *AMQPQueue) publish(topic string, job Job, retries int) error {
	body, err := EncodeJob(job)
	if err != nil {
		return err
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.declare(topic); err != nil {
		return err
	}
	return q.ch.Publish(
		"",
		topic,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Headers:      amqp.Table{retryHeader: int32(retries)},
			Body:         body,
		},
	)
}

// Subscribe starts a consumer goroutine. Failed jobs are republished with
// a bumped retry header until the retry budget runs out.
func (q *AMQPQueue) Subscribe(topic string, handler Handler) error {
	q.mu.Lock()
	if err := q.declare(topic); err != nil {
		q.mu.Unlock()
		return err
	}
	msgs, err := q.ch.Consume(
		topic,
		"",
		false, // autoAck = false for reliability
		false,
		false,
		false,
		nil,
	)
	q.mu.Unlock()
	if err != nil {
		return fmt.Errorf("register consumer: %w", err)
	}

	go func() {
		for d := range msgs {
			q.handleDelivery(topic, d, handler)
		}
		q.log.Info("Consumer stopped", zap.String("queue", topic))
	}()
	return nil
}

func (q *AMQPQueue) handleDelivery(topic string, d amqp.Delivery, handler Handler) {
	job, err := DecodeJob(d.Body)
	if err != nil {
		q.log.Error("Invalid job", zap.Error(err))
		d.Ack(false)
		return
	}

	if err := handler(context.Background(), job); err != nil {
		retries := RetryCount(d.Headers)
		if retries < q.maxRetries {
			q.log.Warn("Job failed, requeueing",
				zap.String("outbound_message_id", job.OutboundMessageID),
				zap.Int("retry", retries+1),
				zap.Error(err),
			)
			if perr := q.publish(topic, job, retries+1); perr != nil {
				q.log.Error("Failed to requeue job", zap.Error(perr))
				d.Nack(false, true)
				return
			}
		} else {
			q.log.Error("Job permanently failed",
				zap.String("outbound_message_id", job.OutboundMessageID),
				zap.Error(err),
			)
		}
	}
	d.Ack(false)
}

func (q *AMQPQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.ch.Close(); err != nil {
		q.conn.Close()
		return err
	}
	return q.conn.Close()
}

func EncodeJob(job Job) ([]byte, error) {
	return json.Marshal(job)
}

func DecodeJob(body []byte) (Job, error) {
	var job Job
	if err := json.Unmarshal(body, &job); err != nil {
		return Job{}, err
	}
	if job.OutboundMessageID == "" {
		return Job{}, fmt.Errorf("job has no outbound_message_id")
	}
	return job, nil
}

// RetryCount reads the retry header whatever integer type the broker
// handed back.
func RetryCount(headers amqp.Table) int {
	switch v := headers[retryHeader].(type) {
	case int:
		return v
	case int16:
		return int(v)
	case int32:
		return int(v)
	case int64:
		return int(v)
	}
	return 0
}

var _ Queue = (*AMQPQueue)(nil)
