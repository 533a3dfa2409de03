// internal/model/outbound_message.go
package model

import "time"

type MessageStatus string

const (
	MessagePending   MessageStatus = "pending"
	MessageDelivered MessageStatus = "delivered"
	MessageOpened    MessageStatus = "opened"
	MessageReplied   MessageStatus = "replied"
	MessageBounced   MessageStatus = "bounced"
	MessageFailed    MessageStatus = "failed"
)

// Settled is true once the dispatch process is done with the message.
func (s MessageStatus) Settled() bool {
	return s != MessagePending
}

// OutboundMessage tracks one campaign email to one customer.
type OutboundMessage struct {
	ID              string        `db:"id" json:"id"`
	CampaignID      string        `db:"campaign_id" json:"campaign_id"`
	CustomerID      string        `db:"customer_id" json:"customer_id"`
	Email           string        `db:"email" json:"email"`
	Status          MessageStatus `db:"status" json:"status"`
	RenderedSubject string        `db:"rendered_subject" json:"rendered_subject"`
	RenderedBody    string        `db:"rendered_body" json:"rendered_body"`
	LastError       string        `db:"last_error" json:"last_error,omitempty"`
	RetryCount      int           `db:"retry_count" json:"retry_count"`
	CreatedAt       time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time     `db:"updated_at" json:"updated_at"`
}
