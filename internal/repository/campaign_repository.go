package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	appErrors "github.com/unclebandit/bidtracker-backend/internal/errors"
	"github.com/unclebandit/bidtracker-backend/internal/model"
)

type CampaignRepositoryInterface interface {
	ListCampaigns(ctx context.Context, offset, limit int, status string) ([]*model.Campaign, int, error)
	GetByID(ctx context.Context, id string) (*model.Campaign, error)
	Create(ctx context.Context, c *model.Campaign) error
	// UpdateLifecycle persists the status and completion time of c only if
	// the stored status is still from. Counters are left untouched.
	UpdateLifecycle(ctx context.Context, c *model.Campaign, from model.CampaignStatus) error
	// IncrementCounter adds one to the counter for outcome while sending.
	IncrementCounter(ctx context.Context, id string, outcome model.DeliveryOutcome) error
	Delete(ctx context.Context, id string) error
}

type CampaignRepository struct {
	DB *sqlx.DB
}

const campaignColumns = `id, name, template_id, customer_ids, status, sent_count, opened_count, replied_count, scheduled_at, created_at, completed_at`

// ====================== Campaign CRUD ======================

func (r *CampaignRepository) Create(ctx context.Context, c *model.Campaign) error {
	query := `
        INSERT INTO campaigns (` + campaignColumns + `)
        VALUES (:id, :name, :template_id, :customer_ids, :status, :sent_count, :opened_count, :replied_count,
                :scheduled_at, :created_at, :completed_at)
    `
	_, err := r.DB.NamedExecContext(ctx, query, c)
	return err
}

func (r *CampaignRepository) GetByID(ctx context.Context, id string) (*model.Campaign, error) {
	var c model.Campaign
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = $1`
	if err := r.DB.GetContext(ctx, &c, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, err
	}
	return &c, nil
}

func (r *CampaignRepository) ListCampaigns(ctx context.Context, offset, limit int, status string) ([]*model.Campaign, int, error) {
	campaigns := []*model.Campaign{}
	where := ` WHERE 1=1`
	args := []interface{}{}
	if status != "" {
		args = append(args, status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}

	query := `SELECT ` + campaignColumns + ` FROM campaigns` + where +
		fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	if err := r.DB.SelectContext(ctx, &campaigns, query, append(args, limit, offset)...); err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.DB.GetContext(ctx, &total, `SELECT COUNT(*) FROM campaigns`+where, args...); err != nil {
		return nil, 0, err
	}
	return campaigns, total, nil
}

func (r *CampaignRepository) UpdateLifecycle(ctx context.Context, c *model.Campaign, from model.CampaignStatus) error {
	// counters are owned by IncrementCounter and MarkDelivered
	res, err := r.DB.ExecContext(ctx, `
        UPDATE campaigns
        SET status = $1, completed_at = $2
        WHERE id = $3 AND status = $4
    `, c.Status, c.CompletedAt, c.ID, from)
	if err != nil {
		return err
	}
	return r.guarded(ctx, res, c.ID, "update")
}

var counterColumns = map[model.DeliveryOutcome]string{
	model.OutcomeDelivered: "sent_count",
	model.OutcomeOpened:    "opened_count",
	model.OutcomeReplied:   "replied_count",
}

func (r *CampaignRepository) IncrementCounter(ctx context.Context, id string, outcome model.DeliveryOutcome) error {
	if !outcome.Valid() {
		return appErrors.NewValidation("outcome", "unknown delivery outcome")
	}
	column, ok := counterColumns[outcome]
	if !ok {
		// bounces have no counter; only confirm the campaign is still sending
		var status model.CampaignStatus
		err := r.DB.GetContext(ctx, &status, `SELECT status FROM campaigns WHERE id = $1`, id)
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.NewCampaignNotFound(id)
		}
		if err != nil {
			return err
		}
		if status != model.CampaignSending {
			return appErrors.NewInvalidState("campaign", string(status), "record delivery for")
		}
		return nil
	}

	query := fmt.Sprintf(`UPDATE campaigns SET %[1]s = %[1]s + 1 WHERE id = $1 AND status = $2`, column)
	res, err := r.DB.ExecContext(ctx, query, id, model.CampaignSending)
	if err != nil {
		return err
	}
	return r.guarded(ctx, res, id, "record delivery for")
}

// Delete removes a campaign unless it is sending.
func (r *CampaignRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM campaigns WHERE id = $1 AND status <> $2`, id, model.CampaignSending)
	if err != nil {
		return err
	}
	return r.guarded(ctx, res, id, "delete")
}

// guarded explains a zero-row conditional write: either the campaign is
// gone or another writer moved it to a different status.
func (r *CampaignRepository) guarded(ctx context.Context, res sql.Result, id, action string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var status string
	err = r.DB.GetContext(ctx, &status, `SELECT status FROM campaigns WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.NewCampaignNotFound(id)
	}
	if err != nil {
		return err
	}
	return appErrors.NewInvalidState("campaign", status, action)
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
