package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/unclebandit/bidtracker-backend/internal/model"
)

// DashboardStats are the headline counts shown on the dashboard.
type DashboardStats struct {
	Customers struct {
		Total  int `json:"total"`
		Active int `json:"active"`
	} `json:"customers"`
	Campaigns struct {
		Total  int `json:"total"`
		Active int `json:"active"`
	} `json:"campaigns"`
	FollowUps struct {
		Pending int `json:"pending"`
		Overdue int `json:"overdue"`
	} `json:"followups"`
	Templates struct {
		Total int `json:"total"`
	} `json:"templates"`
}

type StatsRepositoryInterface interface {
	Dashboard(ctx context.Context, now time.Time) (*DashboardStats, error)
}

type StatsRepository struct {
	DB *sqlx.DB
}

func (r *StatsRepository) Dashboard(ctx context.Context, now time.Time) (*DashboardStats, error) {
	var row struct {
		CustomersTotal   int `db:"customers_total"`
		CustomersActive  int `db:"customers_active"`
		CampaignsTotal   int `db:"campaigns_total"`
		CampaignsActive  int `db:"campaigns_active"`
		FollowUpsPending int `db:"followups_pending"`
		FollowUpsOverdue int `db:"followups_overdue"`
		TemplatesTotal   int `db:"templates_total"`
	}
	query := `
        SELECT
            (SELECT COUNT(*) FROM customers) AS customers_total,
            (SELECT COUNT(*) FROM customers WHERE status = $1) AS customers_active,
            (SELECT COUNT(*) FROM campaigns) AS campaigns_total,
            (SELECT COUNT(*) FROM campaigns WHERE status IN ($2, $3)) AS campaigns_active,
            (SELECT COUNT(*) FROM followups WHERE status = $4) AS followups_pending,
            (SELECT COUNT(*) FROM followups WHERE status = $4 AND due_date < $5) AS followups_overdue,
            (SELECT COUNT(*) FROM templates) AS templates_total
    `
	err := r.DB.GetContext(ctx, &row, query,
		model.CustomerActive, model.CampaignDraft, model.CampaignSending, model.FollowUpPending, now)
	if err != nil {
		return nil, err
	}

	stats := &DashboardStats{}
	stats.Customers.Total = row.CustomersTotal
	stats.Customers.Active = row.CustomersActive
	stats.Campaigns.Total = row.CampaignsTotal
	stats.Campaigns.Active = row.CampaignsActive
	stats.FollowUps.Pending = row.FollowUpsPending
	stats.FollowUps.Overdue = row.FollowUpsOverdue
	stats.Templates.Total = row.TemplatesTotal
	return stats, nil
}

var _ StatsRepositoryInterface = (*StatsRepository)(nil)
