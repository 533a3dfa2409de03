package service_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/unclebandit/bidtracker-backend/internal/errors"
	"github.com/unclebandit/bidtracker-backend/internal/model"
	"github.com/unclebandit/bidtracker-backend/internal/repository"
)

var fixedNow = time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

// In-memory repositories shared by the service tests. They follow the
// guarded-write rules of the SQL repositories.

type MockCampaignRepo struct {
	mu        sync.Mutex
	campaigns map[string]model.Campaign
	order     []string
}

func NewMockCampaignRepo(seed ...model.Campaign) *MockCampaignRepo {
	r := &MockCampaignRepo{campaigns: map[string]model.Campaign{}}
	for _, c := range seed {
		r.campaigns[c.ID] = c
		r.order = append(r.order, c.ID)
	}
	return r
}

func (r *MockCampaignRepo) Create(ctx context.Context, c *model.Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.campaigns[c.ID] = *c
	r.order = append(r.order, c.ID)
	return nil
}

func (r *MockCampaignRepo) GetByID(ctx context.Context, id string) (*model.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[id]
	if !ok {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	return &c, nil
}

// ListCampaigns returns newest first, like the SQL repository.
func (r *MockCampaignRepo) ListCampaigns(ctx context.Context, offset, limit int, status string) ([]*model.Campaign, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []*model.Campaign
	for i := len(r.order) - 1; i >= 0; i-- {
		c, ok := r.campaigns[r.order[i]]
		if !ok || (status != "" && string(c.Status) != status) {
			continue
		}
		all = append(all, &c)
	}
	if offset >= len(all) {
		return []*model.Campaign{}, len(all), nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], len(all), nil
}

func (r *MockCampaignRepo) UpdateLifecycle(ctx context.Context, c *model.Campaign, from model.CampaignStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.campaigns[c.ID]
	if !ok {
		return appErrors.NewCampaignNotFound(c.ID)
	}
	if stored.Status != from {
		return appErrors.NewInvalidState("campaign", string(stored.Status), "update")
	}
	stored.Status = c.Status
	stored.CompletedAt = c.CompletedAt
	r.campaigns[c.ID] = stored
	return nil
}

func (r *MockCampaignRepo) IncrementCounter(ctx context.Context, id string, outcome model.DeliveryOutcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.campaigns[id]
	if !ok {
		return appErrors.NewCampaignNotFound(id)
	}
	next, err := stored.RecordDelivery(outcome)
	if err != nil {
		return err
	}
	r.campaigns[id] = next
	return nil
}

func (r *MockCampaignRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.campaigns[id]
	if !ok {
		return appErrors.NewCampaignNotFound(id)
	}
	if err := stored.CheckDeletable(); err != nil {
		return err
	}
	delete(r.campaigns, id)
	return nil
}

type MockCustomerRepo struct {
	mu        sync.Mutex
	customers map[string]model.Customer
	order     []string
}

func NewMockCustomerRepo(seed ...model.Customer) *MockCustomerRepo {
	r := &MockCustomerRepo{customers: map[string]model.Customer{}}
	for _, c := range seed {
		r.customers[c.ID] = c
		r.order = append(r.order, c.ID)
	}
	return r
}

func (r *MockCustomerRepo) Create(ctx context.Context, c *model.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.customers[c.ID] = *c
	r.order = append(r.order, c.ID)
	return nil
}

func (r *MockCustomerRepo) GetByID(ctx context.Context, id string) (*model.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.customers[id]
	if !ok {
		return nil, appErrors.NewNotFound("customer", id)
	}
	return &c, nil
}

func (r *MockCustomerRepo) List(ctx context.Context, f repository.CustomerFilter) ([]model.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Customer{}
	for _, id := range r.order {
		c, ok := r.customers[id]
		if !ok || (f.Status != "" && string(c.Status) != f.Status) {
			continue
		}
		out = append(out, c)
	}
	if f.Skip >= len(out) {
		return []model.Customer{}, nil
	}
	out = out[f.Skip:]
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *MockCustomerRepo) ListByIDs(ctx context.Context, ids []string) ([]model.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Customer{}
	for _, id := range ids {
		if c, ok := r.customers[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *MockCustomerRepo) Update(ctx context.Context, c *model.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.customers[c.ID]; !ok {
		return appErrors.NewNotFound("customer", c.ID)
	}
	r.customers[c.ID] = *c
	return nil
}

func (r *MockCustomerRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.customers[id]; !ok {
		return appErrors.NewNotFound("customer", id)
	}
	delete(r.customers, id)
	return nil
}

type MockTemplateRepo struct {
	mu        sync.Mutex
	templates map[string]model.Template
}

func NewMockTemplateRepo(seed ...model.Template) *MockTemplateRepo {
	r := &MockTemplateRepo{templates: map[string]model.Template{}}
	for _, t := range seed {
		r.templates[t.ID] = t
	}
	return r
}

// variables is TEXT[] NOT NULL, and a nil pq.StringArray is written as NULL.
func checkVariablesNotNull(t *model.Template) error {
	if t.Variables == nil {
		return fmt.Errorf("null value in column \"variables\" of template %s", t.ID)
	}
	return nil
}

func (r *MockTemplateRepo) Create(ctx context.Context, t *model.Template) error {
	if err := checkVariablesNotNull(t); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[t.ID] = *t
	return nil
}

func (r *MockTemplateRepo) GetByID(ctx context.Context, id string) (*model.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.templates[id]
	if !ok {
		return nil, appErrors.NewNotFound("template", id)
	}
	return &t, nil
}

func (r *MockTemplateRepo) List(ctx context.Context, templateType string) ([]model.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Template{}
	for _, t := range r.templates {
		if templateType == "" || string(t.TemplateType) == templateType {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *MockTemplateRepo) ListByIDs(ctx context.Context, ids []string) ([]model.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Template{}
	for _, id := range ids {
		if t, ok := r.templates[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *MockTemplateRepo) Update(ctx context.Context, t *model.Template) error {
	if err := checkVariablesNotNull(t); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.templates[t.ID]; !ok {
		return appErrors.NewNotFound("template", t.ID)
	}
	r.templates[t.ID] = *t
	return nil
}

func (r *MockTemplateRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.templates[id]; !ok {
		return appErrors.NewNotFound("template", id)
	}
	delete(r.templates, id)
	return nil
}

type MockOutboundRepo struct {
	mu        sync.Mutex
	messages  map[string]model.OutboundMessage
	campaigns *MockCampaignRepo
}

// NewMockOutboundRepo counts deliveries on campaigns, as the SQL
// repository does inside its MarkDelivered transaction.
func NewMockOutboundRepo(campaigns *MockCampaignRepo) *MockOutboundRepo {
	return &MockOutboundRepo{messages: map[string]model.OutboundMessage{}, campaigns: campaigns}
}

// Create is idempotent on (campaign, customer).
func (r *MockOutboundRepo) Create(ctx context.Context, msg *model.OutboundMessage) (*model.OutboundMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.messages {
		if m.CampaignID == msg.CampaignID && m.CustomerID == msg.CustomerID {
			return &m, nil
		}
	}
	stored := *msg
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if stored.Status == "" {
		stored.Status = model.MessagePending
	}
	r.messages[stored.ID] = stored
	return &stored, nil
}

func (r *MockOutboundRepo) GetByID(ctx context.Context, id string) (*model.OutboundMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.messages[id]
	if !ok {
		return nil, appErrors.NewNotFound("outbound message", id)
	}
	return &m, nil
}

func (r *MockOutboundRepo) Update(ctx context.Context, msg *model.OutboundMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.messages[msg.ID]; !ok {
		return appErrors.NewNotFound("outbound message", msg.ID)
	}
	r.messages[msg.ID] = *msg
	return nil
}

func (r *MockOutboundRepo) MarkDelivered(ctx context.Context, msg *model.OutboundMessage) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.messages[msg.ID]
	if !ok || stored.Status != model.MessagePending {
		return false, nil
	}
	stored.Status = model.MessageDelivered
	stored.LastError = ""
	stored.RetryCount = msg.RetryCount
	r.messages[msg.ID] = stored

	// the SQL counter update matches no row unless the campaign is sending
	_ = r.campaigns.IncrementCounter(ctx, msg.CampaignID, model.OutcomeDelivered)
	*msg = stored
	return true, nil
}

func (r *MockOutboundRepo) StatsForCampaign(ctx context.Context, campaignID string) (map[model.MessageStatus]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := map[model.MessageStatus]int{}
	for _, m := range r.messages {
		if m.CampaignID == campaignID {
			stats[m.Status]++
		}
	}
	return stats, nil
}

func (r *MockOutboundRepo) ForCampaign(campaignID string) []model.OutboundMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.OutboundMessage
	for _, m := range r.messages {
		if m.CampaignID == campaignID {
			out = append(out, m)
		}
	}
	return out
}

type MockFollowUpRepo struct {
	mu        sync.Mutex
	followUps map[string]model.FollowUp
}

func NewMockFollowUpRepo(seed ...model.FollowUp) *MockFollowUpRepo {
	r := &MockFollowUpRepo{followUps: map[string]model.FollowUp{}}
	for _, f := range seed {
		r.followUps[f.ID] = f
	}
	return r
}

func (r *MockFollowUpRepo) Create(ctx context.Context, f *model.FollowUp) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.followUps[f.ID] = *f
	return nil
}

func (r *MockFollowUpRepo) GetByID(ctx context.Context, id string) (*model.FollowUp, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.followUps[id]
	if !ok {
		return nil, appErrors.NewNotFound("follow-up", id)
	}
	return &f, nil
}

// List filters, sorts and pages like the SQL repository.
func (r *MockFollowUpRepo) List(ctx context.Context, flt model.FollowUpFilter, now time.Time) ([]model.FollowUp, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := []model.FollowUp{}
	for _, f := range r.followUps {
		all = append(all, f)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	out := model.SortByDueDate(model.FilterFollowUps(all, flt, now))
	if flt.Skip >= len(out) {
		return []model.FollowUp{}, nil
	}
	out = out[flt.Skip:]
	if flt.Limit > 0 && len(out) > flt.Limit {
		out = out[:flt.Limit]
	}
	return out, nil
}

func (r *MockFollowUpRepo) UpdateStatus(ctx context.Context, f *model.FollowUp, from model.FollowUpStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.followUps[f.ID]
	if !ok {
		return appErrors.NewNotFound("follow-up", f.ID)
	}
	if stored.Status != from {
		return appErrors.NewInvalidState("follow-up", string(stored.Status), "update")
	}
	r.followUps[f.ID] = *f
	return nil
}

func (r *MockFollowUpRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.followUps[id]; !ok {
		return appErrors.NewNotFound("follow-up", id)
	}
	delete(r.followUps, id)
	return nil
}

var (
	_ repository.CampaignRepositoryInterface        = (*MockCampaignRepo)(nil)
	_ repository.CustomerRepositoryInterface        = (*MockCustomerRepo)(nil)
	_ repository.TemplateRepositoryInterface        = (*MockTemplateRepo)(nil)
	_ repository.OutboundMessageRepositoryInterface = (*MockOutboundRepo)(nil)
	_ repository.FollowUpRepositoryInterface        = (*MockFollowUpRepo)(nil)
)
