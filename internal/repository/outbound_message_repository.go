package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	appErrors "github.com/unclebandit/bidtracker-backend/internal/errors"
	"github.com/unclebandit/bidtracker-backend/internal/model"
)

type OutboundMessageRepositoryInterface interface {
	// Create is idempotent per (campaign, customer): an existing row is returned as-is.
	Create(ctx context.Context, msg *model.OutboundMessage) (*model.OutboundMessage, error)
	GetByID(ctx context.Context, id string) (*model.OutboundMessage, error)
	Update(ctx context.Context, msg *model.OutboundMessage) error
	// MarkDelivered settles a pending message as delivered and counts it on
	// its campaign. It reports false when the message was no longer pending.
	MarkDelivered(ctx context.Context, msg *model.OutboundMessage) (bool, error)
	StatsForCampaign(ctx context.Context, campaignID string) (map[model.MessageStatus]int, error)
}

type OutboundMessageRepository struct {
	DB *sqlx.DB
}

const outboundColumns = `id, campaign_id, customer_id, email, status, rendered_subject, rendered_body, last_error, retry_count, created_at, updated_at`

func (r *OutboundMessageRepository) Create(ctx context.Context, msg *model.OutboundMessage) (*model.OutboundMessage, error) {
	now := time.Now().UTC()
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Status == "" {
		msg.Status = model.MessagePending
	}
	msg.CreatedAt = now
	msg.UpdatedAt = now

	query := `
        INSERT INTO outbound_messages (` + outboundColumns + `)
        VALUES (:id, :campaign_id, :customer_id, :email, :status, :rendered_subject, :rendered_body,
                :last_error, :retry_count, :created_at, :updated_at)
        ON CONFLICT (campaign_id, customer_id) DO NOTHING
    `
	if _, err := r.DB.NamedExecContext(ctx, query, msg); err != nil {
		return nil, err
	}

	var stored model.OutboundMessage
	err := r.DB.GetContext(ctx, &stored,
		`SELECT `+outboundColumns+` FROM outbound_messages WHERE campaign_id = $1 AND customer_id = $2`,
		msg.CampaignID, msg.CustomerID)
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *OutboundMessageRepository) GetByID(ctx context.Context, id string) (*model.OutboundMessage, error) {
	var msg model.OutboundMessage
	err := r.DB.GetContext(ctx, &msg, `SELECT `+outboundColumns+` FROM outbound_messages WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewNotFound("outbound message", id)
		}
		return nil, err
	}
	return &msg, nil
}

// Update writes status, rendered content, last_error and retry_count.
func (r *OutboundMessageRepository) Update(ctx context.Context, msg *model.OutboundMessage) error {
	msg.UpdatedAt = time.Now().UTC()
	query := `
        UPDATE outbound_messages
        SET status = :status, rendered_subject = :rendered_subject, rendered_body = :rendered_body,
            last_error = :last_error, retry_count = :retry_count, updated_at = :updated_at
        WHERE id = :id
    `
	res, err := r.DB.NamedExecContext(ctx, query, msg)
	if err != nil {
		return err
	}
	return expectRow(res, "outbound message", msg.ID)
}

// MarkDelivered flips the message from pending to delivered and bumps the
// campaign's sent_count in one transaction, so a retried job can neither
// count a delivery twice nor leave a delivered message uncounted. The
// counter only moves while the campaign is sending.
func (r *OutboundMessageRepository) MarkDelivered(ctx context.Context, msg *model.OutboundMessage) (bool, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() // no-op once committed

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, `
        UPDATE outbound_messages
        SET status = $1, last_error = '', retry_count = $2, updated_at = $3
        WHERE id = $4 AND status = $5
    `, model.MessageDelivered, msg.RetryCount, now, msg.ID, model.MessagePending)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE campaigns SET sent_count = sent_count + 1 WHERE id = $1 AND status = $2`,
		msg.CampaignID, model.CampaignSending); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit delivery: %w", err)
	}

	msg.Status = model.MessageDelivered
	msg.LastError = ""
	msg.UpdatedAt = now
	return true, nil
}

func (r *OutboundMessageRepository) StatsForCampaign(ctx context.Context, campaignID string) (map[model.MessageStatus]int, error) {
	rows, err := r.DB.QueryxContext(ctx,
		`SELECT status, COUNT(*) FROM outbound_messages WHERE campaign_id = $1 GROUP BY status`, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := map[model.MessageStatus]int{}
	for rows.Next() {
		var status model.MessageStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

var _ OutboundMessageRepositoryInterface = (*OutboundMessageRepository)(nil)
