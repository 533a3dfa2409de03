package model_test

import (
	"testing"
	"time"

	appErrors "github.com/unclebandit/bidtracker-backend/internal/errors"
	"github.com/unclebandit/bidtracker-backend/internal/model"
)

var now = time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

func draftCampaign(t *testing.T) model.Campaign {
	t.Helper()
	c, err := model.NewCampaign("Q4 bids", "tpl-1", []string{"c1", "c2"}, nil, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return c
}

func TestNewCampaignValidation(t *testing.T) {
	if _, err := model.NewCampaign("Q4", "tpl-1", nil, nil, now); !appErrors.IsValidation(err) {
		t.Errorf("expected validation error for empty recipients, got %v", err)
	}
	if _, err := model.NewCampaign("Q4", "", []string{"c1"}, nil, now); !appErrors.IsValidation(err) {
		t.Errorf("expected validation error for missing template, got %v", err)
	}
	if _, err := model.NewCampaign(" ", "tpl-1", []string{"c1"}, nil, now); !appErrors.IsValidation(err) {
		t.Errorf("expected validation error for blank name, got %v", err)
	}
}

func TestNewCampaignDefaults(t *testing.T) {
	c, err := model.NewCampaign("Q4", "tpl-1", []string{"c2", "c1", "c2"}, nil, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Status != model.CampaignDraft {
		t.Errorf("expected draft, got %s", c.Status)
	}
	if c.SentCount != 0 || c.OpenedCount != 0 || c.RepliedCount != 0 {
		t.Errorf("expected zero counters, got %+v", c)
	}
	if len(c.CustomerIDs) != 2 || c.CustomerIDs[0] != "c2" || c.CustomerIDs[1] != "c1" {
		t.Errorf("expected deduplicated ordered ids, got %v", c.CustomerIDs)
	}
}

func TestCampaignLifecycle(t *testing.T) {
	draft := draftCampaign(t)

	sending, err := draft.BeginSend()
	if err != nil {
		t.Fatalf("begin send: %v", err)
	}
	if sending.Status != model.CampaignSending {
		t.Fatalf("expected sending, got %s", sending.Status)
	}
	if draft.Status != model.CampaignDraft {
		t.Errorf("original value was mutated: %s", draft.Status)
	}

	again, err := sending.BeginSend()
	if !appErrors.IsInvalidState(err) {
		t.Errorf("expected invalid state on second begin send, got %v", err)
	}
	if again.Status != model.CampaignSending {
		t.Errorf("rejected transition changed status to %s", again.Status)
	}

	sent, err := sending.Finalize(model.CampaignSent, now)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if sent.Status != model.CampaignSent || sent.CompletedAt == nil {
		t.Errorf("expected sent with completed_at, got %+v", sent)
	}
	if _, err := sent.Finalize(model.CampaignFailed, now); !appErrors.IsInvalidState(err) {
		t.Errorf("expected invalid state on second finalize, got %v", err)
	}
}

func TestFinalizeRejectsDraftAndBadOutcome(t *testing.T) {
	draft := draftCampaign(t)
	if _, err := draft.Finalize(model.CampaignSent, now); !appErrors.IsInvalidState(err) {
		t.Errorf("expected invalid state finalizing a draft, got %v", err)
	}

	sending, _ := draft.BeginSend()
	if _, err := sending.Finalize(model.CampaignDraft, now); !appErrors.IsValidation(err) {
		t.Errorf("expected validation error for non-terminal outcome, got %v", err)
	}
}

func TestRecordDelivery(t *testing.T) {
	draft := draftCampaign(t)
	if _, err := draft.RecordDelivery(model.OutcomeDelivered); !appErrors.IsInvalidState(err) {
		t.Errorf("expected invalid state recording on draft, got %v", err)
	}

	c, _ := draft.BeginSend()
	outcomes := []model.DeliveryOutcome{
		model.OutcomeDelivered, model.OutcomeDelivered, model.OutcomeOpened,
		model.OutcomeReplied, model.OutcomeBounced,
	}
	for _, o := range outcomes {
		var err error
		if c, err = c.RecordDelivery(o); err != nil {
			t.Fatalf("record %s: %v", o, err)
		}
	}
	if c.SentCount != 2 || c.OpenedCount != 1 || c.RepliedCount != 1 {
		t.Errorf("unexpected counters: sent=%d opened=%d replied=%d", c.SentCount, c.OpenedCount, c.RepliedCount)
	}
	if c.Status != model.CampaignSending {
		t.Errorf("record delivery changed status to %s", c.Status)
	}
	if _, err := c.RecordDelivery("clicked"); !appErrors.IsValidation(err) {
		t.Errorf("expected validation error for unknown outcome, got %v", err)
	}
}

func TestCheckDeletable(t *testing.T) {
	draft := draftCampaign(t)
	sending, _ := draft.BeginSend()
	failed, _ := sending.Finalize(model.CampaignFailed, now)

	if err := draft.CheckDeletable(); err != nil {
		t.Errorf("draft should be deletable: %v", err)
	}
	if err := failed.CheckDeletable(); err != nil {
		t.Errorf("failed should be deletable: %v", err)
	}
	if err := sending.CheckDeletable(); !appErrors.IsInvalidState(err) {
		t.Errorf("expected invalid state deleting a sending campaign, got %v", err)
	}
}
