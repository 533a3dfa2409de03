package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	appErrors "github.com/unclebandit/bidtracker-backend/internal/errors"
	"github.com/unclebandit/bidtracker-backend/internal/model"
)

type TemplateRepositoryInterface interface {
	Create(ctx context.Context, t *model.Template) error
	GetByID(ctx context.Context, id string) (*model.Template, error)
	List(ctx context.Context, templateType string) ([]model.Template, error)
	ListByIDs(ctx context.Context, ids []string) ([]model.Template, error)
	Update(ctx context.Context, t *model.Template) error
	Delete(ctx context.Context, id string) error
}

type TemplateRepository struct {
	DB *sqlx.DB
}

const templateColumns = `id, name, subject, body, template_type, variables, created_at, updated_at`

func (r *TemplateRepository) Create(ctx context.Context, t *model.Template) error {
	query := `
        INSERT INTO templates (` + templateColumns + `)
        VALUES (:id, :name, :subject, :body, :template_type, :variables, :created_at, :updated_at)
    `
	_, err := r.DB.NamedExecContext(ctx, query, t)
	return err
}

func (r *TemplateRepository) GetByID(ctx context.Context, id string) (*model.Template, error) {
	var t model.Template
	query := `SELECT ` + templateColumns + ` FROM templates WHERE id = $1`
	if err := r.DB.GetContext(ctx, &t, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewNotFound("template", id)
		}
		return nil, err
	}
	return &t, nil
}

func (r *TemplateRepository) List(ctx context.Context, templateType string) ([]model.Template, error) {
	templates := []model.Template{}
	query := `SELECT ` + templateColumns + ` FROM templates`
	args := []interface{}{}
	if templateType != "" {
		query += ` WHERE template_type = $1`
		args = append(args, templateType)
	}
	query += ` ORDER BY created_at DESC LIMIT 100`

	if err := r.DB.SelectContext(ctx, &templates, query, args...); err != nil {
		return nil, err
	}
	return templates, nil
}

func (r *TemplateRepository) ListByIDs(ctx context.Context, ids []string) ([]model.Template, error) {
	templates := []model.Template{}
	if len(ids) == 0 {
		return templates, nil
	}
	query := `SELECT ` + templateColumns + ` FROM templates WHERE id = ANY($1)`
	if err := r.DB.SelectContext(ctx, &templates, query, pq.Array(ids)); err != nil {
		return nil, err
	}
	return templates, nil
}

func (r *TemplateRepository) Update(ctx context.Context, t *model.Template) error {
	query := `
        UPDATE templates
        SET name = :name, subject = :subject, body = :body, template_type = :template_type,
            variables = :variables, updated_at = :updated_at
        WHERE id = :id
    `
	res, err := r.DB.NamedExecContext(ctx, query, t)
	if err != nil {
		return err
	}
	return expectRow(res, "template", t.ID)
}

func (r *TemplateRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM templates WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectRow(res, "template", id)
}

var _ TemplateRepositoryInterface = (*TemplateRepository)(nil)
