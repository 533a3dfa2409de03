package controller

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/unclebandit/bidtracker-backend/internal/model"
	"github.com/unclebandit/bidtracker-backend/internal/service"
)

type FollowUpService interface {
	Create(ctx context.Context, in service.CreateFollowUpInput) (*model.FollowUp, error)
	List(ctx context.Context, flt model.FollowUpFilter) ([]service.FollowUpView, error)
	MarkSent(ctx context.Context, id string) (*model.FollowUp, error)
	Complete(ctx context.Context, id string) (*model.FollowUp, error)
	Cancel(ctx context.Context, id string) (*model.FollowUp, error)
	Delete(ctx context.Context, id string) error
}

type FollowUpController struct {
	FollowUpService FollowUpService
	Log             *zap.Logger
}

func (c *FollowUpController) Routes(r chi.Router) {
	r.Post("/", c.Create)
	r.Get("/", c.List)
	r.Delete("/{id}", c.Delete)
	r.Post("/{id}/sent", c.transition(FollowUpService.MarkSent))
	r.Post("/{id}/complete", c.transition(FollowUpService.Complete))
	r.Post("/{id}/cancel", c.transition(FollowUpService.Cancel))
}

func (c *FollowUpController) Create(w http.ResponseWriter, r *http.Request) {
	var body service.CreateFollowUpInput
	if err := decodeBody(r, &body); err != nil {
		writeError(w, c.Log, r, err)
		return
	}
	f, err := c.FollowUpService.Create(r.Context(), body)
	if err != nil {
		writeError(w, c.Log, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

// List accepts ?status=, ?due_soon=true and ?skip=/?limit= paging.
func (c *FollowUpController) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	flt := model.FollowUpFilter{
		Status:  model.FollowUpStatus(q.Get("status")),
		DueSoon: q.Get("due_soon") == "true",
		Skip:    queryInt(r, "skip"),
		Limit:   queryInt(r, "limit"),
	}
	views, err := c.FollowUpService.List(r.Context(), flt)
	if err != nil {
		writeError(w, c.Log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

type followUpTransition func(svc FollowUpService, ctx context.Context, id string) (*model.FollowUp, error)

func (c *FollowUpController) transition(apply followUpTransition) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := apply(c.FollowUpService, r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, c.Log, r, err)
			return
		}
		writeJSON(w, http.StatusOK, f)
	}
}

func (c *FollowUpController) Delete(w http.ResponseWriter, r *http.Request) {
	if err := c.FollowUpService.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, c.Log, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

var _ FollowUpService = (*service.FollowUpService)(nil)
