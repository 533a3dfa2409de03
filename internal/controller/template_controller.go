package controller

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/unclebandit/bidtracker-backend/internal/model"
	"github.com/unclebandit/bidtracker-backend/internal/service"
)

type TemplateService interface {
	Create(ctx context.Context, in service.TemplateInput) (*model.Template, error)
	Get(ctx context.Context, id string) (*model.Template, error)
	List(ctx context.Context, templateType string) ([]model.Template, error)
	Update(ctx context.Context, id string, in service.TemplateInput) (*model.Template, error)
	Delete(ctx context.Context, id string) error
	Duplicate(ctx context.Context, id string) (*model.Template, error)
	DeclareVariable(ctx context.Context, id, name string) (*model.Template, error)
	RemoveVariable(ctx context.Context, id, name string) (*model.Template, error)
	Preview(ctx context.Context, id string, bindings map[string]string) (*service.TemplatePreview, error)
}

type TemplateController struct {
	TemplateService TemplateService
	Log             *zap.Logger
}

func (c *TemplateController) Routes(r chi.Router) {
	r.Post("/", c.Create)
	r.Get("/", c.List)
	r.Get("/{id}", c.Get)
	r.Put("/{id}", c.Update)
	r.Delete("/{id}", c.Delete)
	r.Post("/{id}/duplicate", c.Duplicate)
	r.Post("/{id}/preview", c.Preview)
	r.Post("/{id}/variables", c.DeclareVariable)
	r.Delete("/{id}/variables/{name}", c.RemoveVariable)
}

func (c *TemplateController) Create(w http.ResponseWriter, r *http.Request) {
	var body service.TemplateInput
	if err := decodeBody(r, &body); err != nil {
		writeError(w, c.Log, r, err)
		return
	}
	tpl, err := c.TemplateService.Create(r.Context(), body)
	if err != nil {
		writeError(w, c.Log, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tpl)
}

func (c *TemplateController) List(w http.ResponseWriter, r *http.Request) {
	list, err := c.TemplateService.List(r.Context(), r.URL.Query().Get("template_type"))
	if err != nil {
		writeError(w, c.Log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (c *TemplateController) Get(w http.ResponseWriter, r *http.Request) {
	tpl, err := c.TemplateService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, c.Log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tpl)
}

func (c *TemplateController) Update(w http.ResponseWriter, r *http.Request) {
	var body service.TemplateInput
	if err := decodeBody(r, &body); err != nil {
		writeError(w, c.Log, r, err)
		return
	}
	tpl, err := c.TemplateService.Update(r.Context(), chi.URLParam(r, "id"), body)
	if err != nil {
		writeError(w, c.Log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tpl)
}

func (c *TemplateController) Delete(w http.ResponseWriter, r *http.Request) {
	if err := c.TemplateService.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, c.Log, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *TemplateController) Duplicate(w http.ResponseWriter, r *http.Request) {
	tpl, err := c.TemplateService.Duplicate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, c.Log, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tpl)
}

func (c *TemplateController) Preview(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Variables map[string]string `json:"variables"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, c.Log, r, err)
		return
	}
	preview, err := c.TemplateService.Preview(r.Context(), chi.URLParam(r, "id"), body.Variables)
	if err != nil {
		writeError(w, c.Log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

func (c *TemplateController) DeclareVariable(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, c.Log, r, err)
		return
	}
	tpl, err := c.TemplateService.DeclareVariable(r.Context(), chi.URLParam(r, "id"), body.Name)
	if err != nil {
		writeError(w, c.Log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tpl)
}

func (c *TemplateController) RemoveVariable(w http.ResponseWriter, r *http.Request) {
	tpl, err := c.TemplateService.RemoveVariable(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, c.Log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tpl)
}

var _ TemplateService = (*service.TemplateService)(nil)
