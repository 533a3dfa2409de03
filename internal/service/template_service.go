// internal/service/template_service.go
package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appErrors "github.com/unclebandit/bidtracker-backend/internal/errors"
	"github.com/unclebandit/bidtracker-backend/internal/model"
	"github.com/unclebandit/bidtracker-backend/internal/repository"
)

// placeholderPattern matches {{name}} where name is a non-empty run of
// non-brace characters. Leftmost match wins and matches never overlap.
var placeholderPattern = regexp.MustCompile(`\{\{([^{}]+)\}\}`)

// RenderedEmail is a template resolved against a set of bindings.
type RenderedEmail struct {
	Subject    string   `json:"subject"`
	Body       string   `json:"body"`
	Unresolved []string `json:"unresolved,omitempty"`
}

// RenderTemplate substitutes every bound placeholder in subject and body.
// Unbound placeholders are kept verbatim. Values are inserted as-is: no
// HTML escaping and no rescanning for placeholders.
func RenderTemplate(tpl model.Template, bindings map[string]string) RenderedEmail {
	var unresolved []string
	seen := map[string]bool{}
	render := func(text string) string {
		return placeholderPattern.ReplaceAllStringFunc(text, func(token string) string {
			name := token[2 : len(token)-2]
			if v, ok := bindings[name]; ok {
				return v
			}
			if !seen[name] {
				seen[name] = true
				unresolved = append(unresolved, name)
			}
			return token
		})
	}

	return RenderedEmail{
		Subject:    render(tpl.Subject),
		Body:       render(tpl.Body),
		Unresolved: unresolved,
	}
}

// RenderText applies the same substitution to a single string.
func RenderText(text string, bindings map[string]string) string {
	return RenderTemplate(model.Template{Body: text}, bindings).Body
}

// Placeholders lists the placeholder names used in text, first-seen order.
func Placeholders(text string) []string {
	var names []string
	seen := map[string]bool{}
	for _, m := range placeholderPattern.FindAllStringSubmatch(text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// UndeclaredPlaceholders reports names used in subject or body that are
// missing from the declared variables. Nothing enforces this at save time.
func UndeclaredPlaceholders(tpl model.Template) []string {
	var out []string
	for _, name := range Placeholders(tpl.Subject + "\n" + tpl.Body) {
		if !tpl.HasVariable(name) {
			out = append(out, name)
		}
	}
	return out
}

// InsertVariablePlaceholder splices {{name}} into text at cursor. The
// cursor counts characters, not bytes, and is clamped to [0, len].
func InsertVariablePlaceholder(text string, cursor int, name string) string {
	runes := []rune(text)
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(runes) {
		cursor = len(runes)
	}
	var b strings.Builder
	b.Grow(len(text) + len(name) + 4)
	b.WriteString(string(runes[:cursor]))
	b.WriteString("{{" + name + "}}")
	b.WriteString(string(runes[cursor:]))
	return b.String()
}

// CustomerBindings is the standard variable set filled from a customer record.
func CustomerBindings(c *model.Customer) map[string]string {
	if c == nil {
		return map[string]string{}
	}
	firstName := c.Name
	if fields := strings.Fields(c.Name); len(fields) > 0 {
		firstName = fields[0]
	}
	return map[string]string{
		"name":       c.Name,
		"first_name": firstName,
		"email":      c.Email,
		"company":    c.Company,
		"phone":      c.Phone,
		"address":    c.Address,
	}
}

// MergeBindings overlays extra on base. Extra wins on conflicts.
func MergeBindings(base, extra map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// TemplateService manages stored email templates.
type TemplateService struct {
	TemplateRepo repository.TemplateRepositoryInterface
	Log          *zap.Logger
	Clock        func() time.Time
}

type TemplateInput struct {
	Name         string             `json:"name"`
	Subject      string             `json:"subject"`
	Body         string             `json:"body"`
	TemplateType model.TemplateType `json:"template_type"`
	Variables    []string           `json:"variables"`
}

// TemplatePreview is a render plus the placeholders that are used but
// never declared.
type TemplatePreview struct {
	RenderedEmail
	Undeclared []string `json:"undeclared,omitempty"`
}

func (s *TemplateService) now() time.Time {
	if s.Clock != nil {
		return s.Clock().UTC()
	}
	return time.Now().UTC()
}

func (s *TemplateService) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

func (in TemplateInput) apply(t model.Template) model.Template {
	t.Name = in.Name
	t.Subject = in.Subject
	t.Body = in.Body
	t.TemplateType = in.TemplateType
	if t.TemplateType == "" {
		t.TemplateType = model.TemplateProposal
	}
	t.Variables = model.NormalizeVariables(in.Variables)
	return t
}

func (s *TemplateService) Create(ctx context.Context, in TemplateInput) (*model.Template, error) {
	now := s.now()
	t := in.apply(model.Template{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now})
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := s.TemplateRepo.Create(ctx, &t); err != nil {
		s.logger().Error("Failed to create template", zap.Error(err))
		return nil, err
	}
	return &t, nil
}

func (s *TemplateService) Get(ctx context.Context, id string) (*model.Template, error) {
	return s.TemplateRepo.GetByID(ctx, id)
}

func (s *TemplateService) List(ctx context.Context, templateType string) ([]model.Template, error) {
	if templateType != "" && !model.TemplateType(templateType).Valid() {
		return nil, appErrors.NewValidation("template_type", "must be one of general, proposal, follow_up")
	}
	return s.TemplateRepo.List(ctx, templateType)
}

func (s *TemplateService) Update(ctx context.Context, id string, in TemplateInput) (*model.Template, error) {
	existing, err := s.TemplateRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	t := in.apply(*existing)
	t.UpdatedAt = s.now()
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return s.save(ctx, t)
}

// Delete does not check for campaigns or follow-ups that still reference
// the template; they resolve it as unknown afterwards.
func (s *TemplateService) Delete(ctx context.Context, id string) error {
	if err := s.TemplateRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger().Info("Template deleted", zap.String("template_id", id))
	return nil
}

func (s *TemplateService) Duplicate(ctx context.Context, id string) (*model.Template, error) {
	existing, err := s.TemplateRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dup := existing.Duplicate(uuid.NewString())
	now := s.now()
	dup.CreatedAt = now
	dup.UpdatedAt = now
	if err := s.TemplateRepo.Create(ctx, &dup); err != nil {
		return nil, err
	}
	return &dup, nil
}

func (s *TemplateService) DeclareVariable(ctx context.Context, id, name string) (*model.Template, error) {
	existing, err := s.TemplateRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	t, err := existing.DeclareVariable(name)
	if err != nil {
		return nil, err
	}
	t.UpdatedAt = s.now()
	return s.save(ctx, t)
}

func (s *TemplateService) RemoveVariable(ctx context.Context, id, name string) (*model.Template, error) {
	existing, err := s.TemplateRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	t := existing.RemoveVariable(name)
	t.UpdatedAt = s.now()
	return s.save(ctx, t)
}

func (s *TemplateService) Preview(ctx context.Context, id string, bindings map[string]string) (*TemplatePreview, error) {
	t, err := s.TemplateRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &TemplatePreview{
		RenderedEmail: RenderTemplate(*t, bindings),
		Undeclared:    UndeclaredPlaceholders(*t),
	}, nil
}

func (s *TemplateService) save(ctx context.Context, t model.Template) (*model.Template, error) {
	if err := s.TemplateRepo.Update(ctx, &t); err != nil {
		return nil, err
	}
	return &t, nil
}
