package controller

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/unclebandit/bidtracker-backend/internal/model"
	"github.com/unclebandit/bidtracker-backend/internal/service"
)

type CustomerService interface {
	Create(ctx context.Context, in service.CreateCustomerInput) (*model.Customer, error)
	Get(ctx context.Context, id string) (*model.Customer, error)
	List(ctx context.Context, status string, skip, limit int) ([]model.Customer, error)
	Update(ctx context.Context, id string, in service.UpdateCustomerInput) (*model.Customer, error)
	Delete(ctx context.Context, id string) error
}

type CustomerController struct {
	CustomerService CustomerService
	Log             *zap.Logger
}

func (c *CustomerController) Routes(r chi.Router) {
	r.Post("/", c.Create)
	r.Get("/", c.List)
	r.Get("/{id}", c.Get)
	r.Put("/{id}", c.Update)
	r.Delete("/{id}", c.Delete)
}

func (c *CustomerController) Create(w http.ResponseWriter, r *http.Request) {
	var body service.CreateCustomerInput
	if err := decodeBody(r, &body); err != nil {
		writeError(w, c.Log, r, err)
		return
	}
	customer, err := c.CustomerService.Create(r.Context(), body)
	if err != nil {
		writeError(w, c.Log, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, customer)
}

func (c *CustomerController) List(w http.ResponseWriter, r *http.Request) {
	list, err := c.CustomerService.List(r.Context(), r.URL.Query().Get("status"), queryInt(r, "skip"), queryInt(r, "limit"))
	if err != nil {
		writeError(w, c.Log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (c *CustomerController) Get(w http.ResponseWriter, r *http.Request) {
	customer, err := c.CustomerService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, c.Log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, customer)
}

func (c *CustomerController) Update(w http.ResponseWriter, r *http.Request) {
	var body service.UpdateCustomerInput
	if err := decodeBody(r, &body); err != nil {
		writeError(w, c.Log, r, err)
		return
	}
	customer, err := c.CustomerService.Update(r.Context(), chi.URLParam(r, "id"), body)
	if err != nil {
		writeError(w, c.Log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, customer)
}

func (c *CustomerController) Delete(w http.ResponseWriter, r *http.Request) {
	if err := c.CustomerService.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, c.Log, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

var _ CustomerService = (*service.CustomerService)(nil)
