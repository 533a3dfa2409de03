package service

import (
	"context"
	"fmt"
	"math/rand"

	"go.uber.org/zap"

	"github.com/unclebandit/bidtracker-backend/internal/model"
	"github.com/unclebandit/bidtracker-backend/internal/queue"
)

// OutboundRepository defines the methods the worker needs
type OutboundRepository interface {
	GetByID(ctx context.Context, id string) (*model.OutboundMessage, error)
	Update(ctx context.Context, msg *model.OutboundMessage) error
	MarkDelivered(ctx context.Context, msg *model.OutboundMessage) (bool, error)
}

// Sender hands a rendered email to the transport.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, to, subject, body string) error

func (f SenderFunc) Send(ctx context.Context, to, subject, body string) error {
	return f(ctx, to, subject, body)
}

// MockSender simulates delivery, succeeding with probability SuccessRate.
// Real SMTP delivery is handled outside this service.
type MockSender struct {
	SuccessRate float64
}

func (m MockSender) Send(ctx context.Context, to, subject, body string) error {
	if rand.Float64() < m.SuccessRate {
		return nil
	}
	return fmt.Errorf("mock sending to %s failed", to)
}

// Worker processes campaign dispatch jobs
type Worker struct {
	OutboundRepo OutboundRepository
	Campaigns    *CampaignService
	Sender       Sender
	Log          *zap.Logger
	// MaxAttempts bounds send attempts per message before it is marked failed.
	MaxAttempts int
}

// Constructor
func NewWorker(repo OutboundRepository, campaigns *CampaignService, sender Sender, log *zap.Logger) *Worker {
	return &Worker{
		OutboundRepo: repo,
		Campaigns:    campaigns,
		Sender:       sender,
		Log:          log,
		MaxAttempts:  4,
	}
}

// HandleJob sends one outbound message. Returning an error asks the queue
// to retry; a message that ran out of attempts is settled as failed.
func (w *Worker) HandleJob(ctx context.Context, job queue.Job) error {
	msg, err := w.OutboundRepo.GetByID(ctx, job.OutboundMessageID)
	if err != nil {
		return err
	}
	if msg.Status.Settled() {
		// an earlier attempt may have settled it without finalizing
		return w.settle(ctx, msg.CampaignID)
	}
	log := w.Log.With(
		zap.String("outbound_message_id", msg.ID),
		zap.String("campaign_id", msg.CampaignID),
	)

	if err := w.Sender.Send(ctx, msg.Email, msg.RenderedSubject, msg.RenderedBody); err != nil {
		msg.RetryCount++
		msg.LastError = err.Error()
		if msg.RetryCount < w.MaxAttempts {
			if uerr := w.OutboundRepo.Update(ctx, msg); uerr != nil {
				log.Error("Failed to record send attempt", zap.Error(uerr))
			}
			log.Warn("Send failed", zap.Int("attempt", msg.RetryCount), zap.Error(err))
			return err
		}
		msg.Status = model.MessageFailed
		if err := w.OutboundRepo.Update(ctx, msg); err != nil {
			return err
		}
		log.Error("Message failed permanently", zap.String("last_error", msg.LastError))
		return w.settle(ctx, msg.CampaignID)
	}

	won, err := w.OutboundRepo.MarkDelivered(ctx, msg)
	if err != nil {
		return err
	}
	if won {
		log.Info("Message delivered")
	}
	return w.settle(ctx, msg.CampaignID)
}

func (w *Worker) settle(ctx context.Context, campaignID string) error {
	done, err := w.Campaigns.FinalizeIfSettled(ctx, campaignID)
	if err != nil {
		w.Log.Error("Failed to finalize campaign", zap.String("campaign_id", campaignID), zap.Error(err))
		return nil
	}
	if done != nil {
		w.Log.Info("Campaign completed",
			zap.String("campaign_id", campaignID),
			zap.String("status", string(done.Status)),
		)
	}
	return nil
}

// Start subscribes the worker to the campaign dispatch topic.
func (w *Worker) Start(q queue.Queue) error {
	return q.Subscribe(queue.TopicCampaignSends, w.HandleJob)
}
