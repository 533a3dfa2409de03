// internal/service/campaign_service.go
package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appErrors "github.com/unclebandit/bidtracker-backend/internal/errors"
	"github.com/unclebandit/bidtracker-backend/internal/model"
	"github.com/unclebandit/bidtracker-backend/internal/queue"
	"github.com/unclebandit/bidtracker-backend/internal/repository"
)

type CampaignService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	CustomerRepo repository.CustomerRepositoryInterface
	TemplateRepo repository.TemplateRepositoryInterface
	OutboundRepo repository.OutboundMessageRepositoryInterface
	Queue        queue.Queue
	Log          *zap.Logger
	Clock        func() time.Time
}

type CreateCampaignInput struct {
	Name        string   `json:"name"`
	TemplateID  string   `json:"template_id"`
	CustomerIDs []string `json:"customer_ids"`
	ScheduledAt *string  `json:"scheduled_at"`
}

// Result struct for SendCampaign
type SendCampaignResult struct {
	CampaignID     string               `json:"campaign_id"`
	MessagesQueued int                  `json:"messages_queued"`
	Skipped        []string             `json:"skipped,omitempty"`
	Status         model.CampaignStatus `json:"status"`
}

type CampaignDetails struct {
	model.Campaign
	TemplateName string                      `json:"template_name"`
	Recipients   []RecipientView             `json:"recipients"`
	Stats        map[model.MessageStatus]int `json:"stats"`
}

func (s *CampaignService) now() time.Time {
	if s.Clock != nil {
		return s.Clock().UTC()
	}
	return time.Now().UTC()
}

func (s *CampaignService) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

func (s *CampaignService) CreateCampaign(ctx context.Context, in CreateCampaignInput) (*model.Campaign, error) {
	var scheduledAt *time.Time
	if in.ScheduledAt != nil && strings.TrimSpace(*in.ScheduledAt) != "" {
		t, err := time.Parse(time.RFC3339, *in.ScheduledAt)
		if err != nil {
			return nil, appErrors.NewValidation("scheduled_at", "must be an RFC3339 timestamp")
		}
		t = t.UTC()
		scheduledAt = &t
	}

	c, err := model.NewCampaign(in.Name, in.TemplateID, in.CustomerIDs, scheduledAt, s.now())
	if err != nil {
		return nil, err
	}
	c.ID = uuid.NewString()

	if err := s.CampaignRepo.Create(ctx, &c); err != nil {
		s.logger().Error("Failed to create campaign", zap.Error(err))
		return nil, err
	}
	s.logger().Info("Campaign created",
		zap.String("campaign_id", c.ID),
		zap.Int("recipients", len(c.CustomerIDs)),
	)
	return &c, nil
}

// ListCampaigns fetches campaigns with pagination
func (s *CampaignService) ListCampaigns(ctx context.Context, page, pageSize int, status string) ([]model.Campaign, map[string]int, error) {
	if status != "" && !model.CampaignStatus(status).Valid() {
		return nil, nil, appErrors.NewValidation("status", "must be one of draft, sending, sent, failed")
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	ptrs, total, err := s.CampaignRepo.ListCampaigns(ctx, offset, pageSize, status)
	if err != nil {
		return nil, nil, err
	}

	campaigns := make([]model.Campaign, len(ptrs))
	for i, c := range ptrs {
		campaigns[i] = *c
	}

	totalPages := (total + pageSize - 1) / pageSize
	pagination := map[string]int{
		"page":        page,
		"page_size":   pageSize,
		"total_count": total,
		"total_pages": totalPages,
	}

	return campaigns, pagination, nil
}

// GetCampaignDetails resolves the template and recipients of a campaign.
// Deleted customers or templates show up as unknown rather than failing.
func (s *CampaignService) GetCampaignDetails(ctx context.Context, id string) (*CampaignDetails, error) {
	campaign, err := s.CampaignRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	dir, err := s.directory(ctx, campaign)
	if err != nil {
		return nil, err
	}

	stats := map[model.MessageStatus]int{}
	if s.OutboundRepo != nil {
		if stats, err = s.OutboundRepo.StatsForCampaign(ctx, id); err != nil {
			return nil, err
		}
	}

	return &CampaignDetails{
		Campaign:     *campaign,
		TemplateName: dir.TemplateName(campaign.TemplateID),
		Recipients:   dir.Recipients(campaign.CustomerIDs),
		Stats:        stats,
	}, nil
}

func (s *CampaignService) directory(ctx context.Context, c *model.Campaign) (Directory, error) {
	customers, err := s.CustomerRepo.ListByIDs(ctx, c.Recipients().IDs())
	if err != nil {
		return Directory{}, err
	}
	templates, err := s.TemplateRepo.ListByIDs(ctx, []string{c.TemplateID})
	if err != nil {
		return Directory{}, err
	}
	return NewDirectory(customers, templates), nil
}

// RenderPreview renders the campaign template for one recipient. Extra
// bindings override the customer's fields. A deleted customer yields a
// preview with the customer placeholders left in place.
func (s *CampaignService) RenderPreview(ctx context.Context, campaignID, customerID string, extra map[string]string) (*RenderedEmail, error) {
	campaign, err := s.CampaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	tpl, err := s.TemplateRepo.GetByID(ctx, campaign.TemplateID)
	if err != nil {
		return nil, err
	}

	var customer *model.Customer
	if customerID != "" {
		customer, err = s.CustomerRepo.GetByID(ctx, customerID)
		if err != nil && !appErrors.IsNotFound(err) {
			return nil, err
		}
	}

	rendered := RenderTemplate(*tpl, MergeBindings(CustomerBindings(customer), extra))
	return &rendered, nil
}

// SendCampaign moves a draft campaign to sending, renders one outbound
// message per recipient and queues it for the dispatch worker.
func (s *CampaignService) SendCampaign(ctx context.Context, campaignID string) (*SendCampaignResult, error) {
	campaign, err := s.CampaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	sending, err := campaign.BeginSend()
	if err != nil {
		return nil, err
	}
	dir, err := s.directory(ctx, campaign)
	if err != nil {
		return nil, err
	}
	tpl, ok := dir.Template(campaign.TemplateID)
	if !ok {
		return nil, appErrors.NewNotFound("template", campaign.TemplateID)
	}

	if err := s.CampaignRepo.UpdateLifecycle(ctx, &sending, model.CampaignDraft); err != nil {
		return nil, err
	}

	log := s.logger().With(zap.String("campaign_id", campaignID))
	result := &SendCampaignResult{CampaignID: campaignID, Status: sending.Status}

	// Every message exists before the first job is published, so a fast
	// worker cannot settle the campaign while recipients are still missing.
	var pending []*model.OutboundMessage
	for _, customerID := range sending.Recipients().IDs() {
		customer, ok := dir.Customer(customerID)
		msg := &model.OutboundMessage{CampaignID: campaignID, CustomerID: customerID}
		if ok {
			rendered := RenderTemplate(tpl, CustomerBindings(&customer))
			msg.Email = customer.Email
			msg.RenderedSubject = rendered.Subject
			msg.RenderedBody = rendered.Body
		} else {
			msg.Status = model.MessageFailed
			msg.LastError = "customer not found"
		}

		// Idempotent create (returns existing if already exists)
		stored, err := s.OutboundRepo.Create(ctx, msg)
		if err != nil {
			log.Warn("Failed to create outbound message", zap.String("customer_id", customerID), zap.Error(err))
			result.Skipped = append(result.Skipped, customerID)
			continue
		}
		if stored.Status.Settled() {
			result.Skipped = append(result.Skipped, customerID)
			continue
		}
		pending = append(pending, stored)
	}

	for _, msg := range pending {
		job := queue.Job{OutboundMessageID: msg.ID, CampaignID: campaignID}
		if err := s.Queue.Publish(ctx, queue.TopicCampaignSends, job); err != nil {
			log.Warn("Failed to enqueue message", zap.String("outbound_message_id", msg.ID), zap.Error(err))
			msg.Status = model.MessageFailed
			msg.LastError = "enqueue failed: " + err.Error()
			if uerr := s.OutboundRepo.Update(ctx, msg); uerr != nil {
				log.Error("Failed to mark message failed", zap.Error(uerr))
			}
			result.Skipped = append(result.Skipped, msg.CustomerID)
			continue
		}
		result.MessagesQueued++
	}

	log.Info("Campaign queued for sending",
		zap.Int("queued", result.MessagesQueued),
		zap.Int("skipped", len(result.Skipped)),
	)

	// no-op while any message is still pending
	finalized, err := s.FinalizeIfSettled(ctx, campaignID)
	if err != nil {
		return result, err
	}
	if finalized != nil {
		result.Status = finalized.Status
	}
	return result, nil
}

// RecordDelivery applies one delivery outcome to the campaign counters.
func (s *CampaignService) RecordDelivery(ctx context.Context, campaignID string, outcome model.DeliveryOutcome) (*model.Campaign, error) {
	campaign, err := s.CampaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if _, err := campaign.RecordDelivery(outcome); err != nil {
		return nil, err
	}
	// counters are bumped in SQL so concurrent workers do not lose updates
	if err := s.CampaignRepo.IncrementCounter(ctx, campaignID, outcome); err != nil {
		return nil, err
	}
	return s.CampaignRepo.GetByID(ctx, campaignID)
}

func (s *CampaignService) Finalize(ctx context.Context, campaignID string, outcome model.CampaignStatus) (*model.Campaign, error) {
	campaign, err := s.CampaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	done, err := campaign.Finalize(outcome, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.CampaignRepo.UpdateLifecycle(ctx, &done, model.CampaignSending); err != nil {
		return nil, err
	}
	s.logger().Info("Campaign finalized",
		zap.String("campaign_id", campaignID),
		zap.String("status", string(done.Status)),
	)
	return &done, nil
}

// FinalizeIfSettled finalizes a sending campaign once no message is
// pending: sent when at least one message went out, failed otherwise.
// It returns nil when the campaign is not ready or already finalized.
func (s *CampaignService) FinalizeIfSettled(ctx context.Context, campaignID string) (*model.Campaign, error) {
	stats, err := s.OutboundRepo.StatsForCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if stats[model.MessagePending] > 0 {
		return nil, nil
	}

	outcome := model.CampaignFailed
	for status, n := range stats {
		if n > 0 && status != model.MessageFailed && status != model.MessageBounced {
			outcome = model.CampaignSent
		}
	}

	done, err := s.Finalize(ctx, campaignID, outcome)
	if appErrors.IsInvalidState(err) {
		return nil, nil
	}
	return done, err
}

func (s *CampaignService) DeleteCampaign(ctx context.Context, campaignID string) error {
	campaign, err := s.CampaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return err
	}
	if err := campaign.CheckDeletable(); err != nil {
		return err
	}
	return s.CampaignRepo.Delete(ctx, campaignID)
}
