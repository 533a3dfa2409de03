// internal/model/campaign.go
package model

import (
	"strings"
	"time"

	"github.com/lib/pq"

	appErrors "github.com/unclebandit/bidtracker-backend/internal/errors"
)

type CampaignStatus string

const (
	CampaignDraft   CampaignStatus = "draft"
	CampaignSending CampaignStatus = "sending"
	CampaignSent    CampaignStatus = "sent"
	CampaignFailed  CampaignStatus = "failed"
)

func (s CampaignStatus) Valid() bool {
	switch s {
	case CampaignDraft, CampaignSending, CampaignSent, CampaignFailed:
		return true
	}
	return false
}

func (s CampaignStatus) Terminal() bool {
	return s == CampaignSent || s == CampaignFailed
}

// DeliveryOutcome is what the dispatch process learned about one email.
type DeliveryOutcome string

const (
	OutcomeDelivered DeliveryOutcome = "delivered"
	OutcomeOpened    DeliveryOutcome = "opened"
	OutcomeReplied   DeliveryOutcome = "replied"
	OutcomeBounced   DeliveryOutcome = "bounced"
)

func (o DeliveryOutcome) Valid() bool {
	switch o {
	case OutcomeDelivered, OutcomeOpened, OutcomeReplied, OutcomeBounced:
		return true
	}
	return false
}

type Campaign struct {
	ID           string         `db:"id" json:"id"`
	Name         string         `db:"name" json:"name"`
	TemplateID   string         `db:"template_id" json:"template_id"`
	CustomerIDs  pq.StringArray `db:"customer_ids" json:"customer_ids"`
	Status       CampaignStatus `db:"status" json:"status"`
	SentCount    int            `db:"sent_count" json:"sent_count"`
	OpenedCount  int            `db:"opened_count" json:"opened_count"`
	RepliedCount int            `db:"replied_count" json:"replied_count"`
	ScheduledAt  *time.Time     `db:"scheduled_at" json:"scheduled_at,omitempty"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	CompletedAt  *time.Time     `db:"completed_at" json:"completed_at,omitempty"`
}

// NewCampaign builds a draft campaign with zeroed counters. Duplicate
// customer ids are collapsed, keeping first occurrence order.
func NewCampaign(name, templateID string, customerIDs []string, scheduledAt *time.Time, now time.Time) (Campaign, error) {
	if strings.TrimSpace(name) == "" {
		return Campaign{}, appErrors.NewValidation("name", "is required")
	}
	if strings.TrimSpace(templateID) == "" {
		return Campaign{}, appErrors.NewValidation("template_id", "is required")
	}
	recipients := NewRecipientSet(customerIDs...)
	if recipients.Len() == 0 {
		return Campaign{}, appErrors.NewValidation("customer_ids", "must select at least one customer")
	}

	return Campaign{
		Name:        name,
		TemplateID:  templateID,
		CustomerIDs: pq.StringArray(recipients.IDs()),
		Status:      CampaignDraft,
		ScheduledAt: scheduledAt,
		CreatedAt:   now,
	}, nil
}

// Recipients returns the campaign audience as a RecipientSet.
func (c Campaign) Recipients() RecipientSet {
	return NewRecipientSet(c.CustomerIDs...)
}

// BeginSend moves a draft campaign to sending.
func (c Campaign) BeginSend() (Campaign, error) {
	if c.Status != CampaignDraft {
		return c, appErrors.NewInvalidState("campaign", string(c.Status), "begin sending")
	}
	if len(c.CustomerIDs) == 0 {
		return c, appErrors.NewValidation("customer_ids", "must select at least one customer")
	}
	c.Status = CampaignSending
	return c, nil
}

// RecordDelivery bumps the counter matching outcome. Bounces have no
// counter of their own. Status is unchanged.
func (c Campaign) RecordDelivery(outcome DeliveryOutcome) (Campaign, error) {
	if !outcome.Valid() {
		return c, appErrors.NewValidation("outcome", "must be one of delivered, opened, replied, bounced")
	}
	if c.Status != CampaignSending {
		return c, appErrors.NewInvalidState("campaign", string(c.Status), "record delivery for")
	}
	switch outcome {
	case OutcomeDelivered:
		c.SentCount++
	case OutcomeOpened:
		c.OpenedCount++
	case OutcomeReplied:
		c.RepliedCount++
	}
	return c, nil
}

// Finalize moves a sending campaign to sent or failed.
func (c Campaign) Finalize(outcome CampaignStatus, now time.Time) (Campaign, error) {
	if !outcome.Terminal() {
		return c, appErrors.NewValidation("outcome", "must be sent or failed")
	}
	if c.Status != CampaignSending {
		return c, appErrors.NewInvalidState("campaign", string(c.Status), "finalize")
	}
	c.Status = outcome
	c.CompletedAt = &now
	return c, nil
}

// CheckDeletable rejects deletion while the dispatch process owns the campaign.
func (c Campaign) CheckDeletable() error {
	if c.Status == CampaignSending {
		return appErrors.NewInvalidState("campaign", string(c.Status), "delete")
	}
	return nil
}
