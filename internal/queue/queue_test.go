package queue

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

func TestPublishWithoutSubscribers(t *testing.T) {
	q := NewInMemoryQueue(zap.NewNop())
	if err := q.Publish(context.Background(), TopicCampaignSends, Job{OutboundMessageID: "m1"}); err == nil {
		t.Fatal("expected error publishing to a topic with no subscribers")
	}
}

func TestInMemoryQueueRetries(t *testing.T) {
	q := NewInMemoryQueue(zap.NewNop())
	q.Backoff = 0

	var calls int32
	q.Subscribe(TopicCampaignSends, func(ctx context.Context, job Job) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("transient")
		}
		return nil
	})

	if err := q.Publish(context.Background(), TopicCampaignSends, Job{OutboundMessageID: "m1"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	q.Wait()

	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestInMemoryQueueGivesUp(t *testing.T) {
	q := NewInMemoryQueue(zap.NewNop())
	q.Backoff = 0
	q.MaxRetries = 2

	var calls int32
	q.Subscribe(TopicCampaignSends, func(ctx context.Context, job Job) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("permanent")
	})
	q.Publish(context.Background(), TopicCampaignSends, Job{OutboundMessageID: "m1"})
	q.Wait()

	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("expected 1 attempt plus 2 retries, got %d", got)
	}
}

func TestJobCodec(t *testing.T) {
	body, err := EncodeJob(Job{OutboundMessageID: "m1", CampaignID: "c1"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	job, err := DecodeJob(body)
	if err != nil || job.OutboundMessageID != "m1" || job.CampaignID != "c1" {
		t.Errorf("unexpected decode %+v, %v", job, err)
	}

	if _, err := DecodeJob([]byte(`{"campaign_id":"c1"}`)); err == nil {
		t.Error("expected error for job without message id")
	}
	if _, err := DecodeJob([]byte(`not json`)); err == nil {
		t.Error("expected error for invalid body")
	}
}

func TestRetryCount(t *testing.T) {
	cases := []struct {
		headers amqp.Table
		want    int
	}{
		{nil, 0},
		{amqp.Table{retryHeader: int32(2)}, 2},
		{amqp.Table{retryHeader: int64(5)}, 5},
		{amqp.Table{retryHeader: "3"}, 0},
	}
	for _, tc := range cases {
		if got := RetryCount(tc.headers); got != tc.want {
			t.Errorf("%v: expected %d, got %d", tc.headers, tc.want, got)
		}
	}
}
