package service

import "github.com/unclebandit/bidtracker-backend/internal/model"

const (
	UnknownCustomer = "Unknown Customer"
	UnknownTemplate = "Unknown Template"
)

// Directory is a read-only index from ids to display names. It is built
// once per request and passed to whatever needs to resolve references.
type Directory struct {
	customers map[string]model.Customer
	templates map[string]model.Template
}

func NewDirectory(customers []model.Customer, templates []model.Template) Directory {
	d := Directory{
		customers: make(map[string]model.Customer, len(customers)),
		templates: make(map[string]model.Template, len(templates)),
	}
	for _, c := range customers {
		d.customers[c.ID] = c
	}
	for _, t := range templates {
		d.templates[t.ID] = t
	}
	return d
}

func (d Directory) Customer(id string) (model.Customer, bool) {
	c, ok := d.customers[id]
	return c, ok
}

func (d Directory) Template(id string) (model.Template, bool) {
	t, ok := d.templates[id]
	return t, ok
}

// CustomerName resolves a possibly dangling customer id.
func (d Directory) CustomerName(id string) string {
	if c, ok := d.customers[id]; ok {
		return c.Name
	}
	return UnknownCustomer
}

func (d Directory) TemplateName(id string) string {
	if t, ok := d.templates[id]; ok {
		return t.Name
	}
	return UnknownTemplate
}

// RecipientView is one campaign recipient as shown in a listing.
type RecipientView struct {
	CustomerID string `json:"customer_id"`
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	Known      bool   `json:"known"`
}

func (d Directory) Recipients(ids []string) []RecipientView {
	out := make([]RecipientView, 0, len(ids))
	for _, id := range ids {
		c, ok := d.customers[id]
		v := RecipientView{CustomerID: id, Name: UnknownCustomer, Known: ok}
		if ok {
			v.Name = c.Name
			v.Email = c.Email
		}
		out = append(out, v)
	}
	return out
}
