// internal/model/template.go
package model

import (
	"strings"
	"time"

	"github.com/lib/pq"

	appErrors "github.com/unclebandit/bidtracker-backend/internal/errors"
)

type TemplateType string

const (
	TemplateGeneral  TemplateType = "general"
	TemplateProposal TemplateType = "proposal"
	TemplateFollowUp TemplateType = "follow_up"
)

func (t TemplateType) Valid() bool {
	switch t {
	case TemplateGeneral, TemplateProposal, TemplateFollowUp:
		return true
	}
	return false
}

type Template struct {
	ID           string         `db:"id" json:"id"`
	Name         string         `db:"name" json:"name"`
	Subject      string         `db:"subject" json:"subject"`
	Body         string         `db:"body" json:"body"`
	TemplateType TemplateType   `db:"template_type" json:"template_type"`
	Variables    pq.StringArray `db:"variables" json:"variables"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// HasVariable reports whether name is declared. Matching is case-sensitive.
func (t Template) HasVariable(name string) bool {
	for _, v := range t.Variables {
		if v == name {
			return true
		}
	}
	return false
}

// DeclareVariable returns a copy of t with name appended to the declared
// variables. Declaring an existing name is a no-op.
func (t Template) DeclareVariable(name string) (Template, error) {
	if strings.TrimSpace(name) == "" {
		return t, appErrors.NewValidation("variable", "name cannot be empty")
	}
	if t.HasVariable(name) {
		return t, nil
	}
	vars := make(pq.StringArray, 0, len(t.Variables)+1)
	vars = append(vars, t.Variables...)
	t.Variables = append(vars, name)
	return t, nil
}

// RemoveVariable returns a copy of t without name in its declared
// variables. Subject and body are left as they are, so any {{name}}
// already written there becomes an unresolved placeholder.
func (t Template) RemoveVariable(name string) Template {
	vars := make(pq.StringArray, 0, len(t.Variables))
	for _, v := range t.Variables {
		if v != name {
			vars = append(vars, v)
		}
	}
	t.Variables = vars
	return t
}

// Duplicate copies every field except the identifier. The copy always
// carries a non-nil variable list, which is stored as '{}' when empty.
func (t Template) Duplicate(newID string) Template {
	dup := t
	dup.ID = newID
	dup.Variables = append(pq.StringArray{}, t.Variables...)
	return dup
}

// Validate checks the fields required at save time. Placeholders used in
// subject or body are not checked against the declared variables.
func (t Template) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return appErrors.NewValidation("name", "is required")
	}
	if strings.TrimSpace(t.Subject) == "" {
		return appErrors.NewValidation("subject", "is required")
	}
	if !t.TemplateType.Valid() {
		return appErrors.NewValidation("template_type", "must be one of general, proposal, follow_up")
	}
	return nil
}

// NormalizeVariables drops blank entries and duplicates while keeping the
// first occurrence of each name.
func NormalizeVariables(names []string) pq.StringArray {
	out := pq.StringArray{}
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if strings.TrimSpace(n) == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
