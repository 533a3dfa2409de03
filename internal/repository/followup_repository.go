package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	appErrors "github.com/unclebandit/bidtracker-backend/internal/errors"
	"github.com/unclebandit/bidtracker-backend/internal/model"
)

type FollowUpRepositoryInterface interface {
	Create(ctx context.Context, f *model.FollowUp) error
	GetByID(ctx context.Context, id string) (*model.FollowUp, error)
	// List applies the same rules as model.FollowUpFilter.Match.
	List(ctx context.Context, flt model.FollowUpFilter, now time.Time) ([]model.FollowUp, error)
	// UpdateStatus persists f only if the stored status is still from.
	UpdateStatus(ctx context.Context, f *model.FollowUp, from model.FollowUpStatus) error
	Delete(ctx context.Context, id string) error
}

type FollowUpRepository struct {
	DB *sqlx.DB
}

const followUpColumns = `id, customer_id, template_id, due_date, status, notes, created_at, completed_at`

// Mirrors the due-soon window of model.ClassifyPriority.
const dueSoonHorizon = 3 * 24 * time.Hour

func (r *FollowUpRepository) Create(ctx context.Context, f *model.FollowUp) error {
	query := `
        INSERT INTO followups (` + followUpColumns + `)
        VALUES (:id, :customer_id, :template_id, :due_date, :status, :notes, :created_at, :completed_at)
    `
	_, err := r.DB.NamedExecContext(ctx, query, f)
	return err
}

func (r *FollowUpRepository) GetByID(ctx context.Context, id string) (*model.FollowUp, error) {
	var f model.FollowUp
	if err := r.DB.GetContext(ctx, &f, `SELECT `+followUpColumns+` FROM followups WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewNotFound("follow-up", id)
		}
		return nil, err
	}
	return &f, nil
}

func (r *FollowUpRepository) List(ctx context.Context, flt model.FollowUpFilter, now time.Time) ([]model.FollowUp, error) {
	query := `SELECT ` + followUpColumns + ` FROM followups WHERE 1=1`
	args := []interface{}{}

	if flt.Status != "" {
		args = append(args, flt.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if flt.DueSoon {
		args = append(args, model.FollowUpPending, model.FollowUpSent, now.Add(dueSoonHorizon))
		query += fmt.Sprintf(" AND status IN ($%d, $%d) AND due_date < $%d", len(args)-2, len(args)-1, len(args))
	}
	query += fmt.Sprintf(" ORDER BY due_date ASC, id ASC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, flt.Limit, flt.Skip)

	followUps := []model.FollowUp{}
	if err := r.DB.SelectContext(ctx, &followUps, query, args...); err != nil {
		return nil, err
	}
	return followUps, nil
}

func (r *FollowUpRepository) UpdateStatus(ctx context.Context, f *model.FollowUp, from model.FollowUpStatus) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE followups SET status = $1, completed_at = $2 WHERE id = $3 AND status = $4`,
		f.Status, f.CompletedAt, f.ID, from)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	current, err := r.GetByID(ctx, f.ID)
	if err != nil {
		return err
	}
	return appErrors.NewInvalidState("follow-up", string(current.Status), "update")
}

// Delete is allowed at any status.
func (r *FollowUpRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM followups WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectRow(res, "follow-up", id)
}

var _ FollowUpRepositoryInterface = (*FollowUpRepository)(nil)
