// internal/controller/campaign_controller.go
package controller

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/unclebandit/bidtracker-backend/internal/model"
	"github.com/unclebandit/bidtracker-backend/internal/service"
)

// CampaignService is the part of service.CampaignService the HTTP layer uses.
type CampaignService interface {
	CreateCampaign(ctx context.Context, in service.CreateCampaignInput) (*model.Campaign, error)
	ListCampaigns(ctx context.Context, page, pageSize int, status string) ([]model.Campaign, map[string]int, error)
	GetCampaignDetails(ctx context.Context, id string) (*service.CampaignDetails, error)
	RenderPreview(ctx context.Context, campaignID, customerID string, extra map[string]string) (*service.RenderedEmail, error)
	SendCampaign(ctx context.Context, id string) (*service.SendCampaignResult, error)
	RecordDelivery(ctx context.Context, id string, outcome model.DeliveryOutcome) (*model.Campaign, error)
	Finalize(ctx context.Context, id string, outcome model.CampaignStatus) (*model.Campaign, error)
	DeleteCampaign(ctx context.Context, id string) error
}

type CampaignController struct {
	CampaignService CampaignService
	Log             *zap.Logger
}

func (c *CampaignController) Routes(r chi.Router) {
	r.Post("/", c.CreateCampaign)
	r.Get("/", c.ListCampaigns)
	r.Get("/{id}", c.GetCampaignDetails)
	r.Delete("/{id}", c.DeleteCampaign)
	r.Post("/{id}/send", c.SendCampaign)
	r.Post("/{id}/preview", c.PersonalizedPreview)
	r.Post("/{id}/deliveries", c.RecordDelivery)
	r.Post("/{id}/finalize", c.Finalize)
}

func (c *CampaignController) PersonalizedPreview(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CustomerID string            `json:"customer_id"`
		Variables  map[string]string `json:"variables"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, c.Log, r, err)
		return
	}

	rendered, err := c.CampaignService.RenderPreview(r.Context(), chi.URLParam(r, "id"), body.CustomerID, body.Variables)
	if err != nil {
		writeError(w, c.Log, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"subject":     rendered.Subject,
		"body":        rendered.Body,
		"unresolved":  rendered.Unresolved,
		"customer_id": body.CustomerID,
	})
}

func (c *CampaignController) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var body service.CreateCampaignInput
	if err := decodeBody(r, &body); err != nil {
		writeError(w, c.Log, r, err)
		return
	}

	campaign, err := c.CampaignService.CreateCampaign(r.Context(), body)
	if err != nil {
		writeError(w, c.Log, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, campaign)
}

func (c *CampaignController) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page")
	pageSize := queryInt(r, "page_size")
	status := r.URL.Query().Get("status")

	campaigns, pagination, err := c.CampaignService.ListCampaigns(r.Context(), page, pageSize, status)
	if err != nil {
		writeError(w, c.Log, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":       campaigns,
		"pagination": pagination, // page, page_size, total_count, total_pages
	})
}

func (c *CampaignController) GetCampaignDetails(w http.ResponseWriter, r *http.Request) {
	details, err := c.CampaignService.GetCampaignDetails(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, c.Log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (c *CampaignController) SendCampaign(w http.ResponseWriter, r *http.Request) {
	result, err := c.CampaignService.SendCampaign(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, c.Log, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, result)
}

func (c *CampaignController) RecordDelivery(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Outcome model.DeliveryOutcome `json:"outcome"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, c.Log, r, err)
		return
	}

	campaign, err := c.CampaignService.RecordDelivery(r.Context(), chi.URLParam(r, "id"), body.Outcome)
	if err != nil {
		writeError(w, c.Log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, campaign)
}

func (c *CampaignController) Finalize(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status model.CampaignStatus `json:"status"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, c.Log, r, err)
		return
	}

	campaign, err := c.CampaignService.Finalize(r.Context(), chi.URLParam(r, "id"), body.Status)
	if err != nil {
		writeError(w, c.Log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, campaign)
}

func (c *CampaignController) DeleteCampaign(w http.ResponseWriter, r *http.Request) {
	if err := c.CampaignService.DeleteCampaign(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, c.Log, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

var _ CampaignService = (*service.CampaignService)(nil)
