// internal/model/customer.go
package model

import (
	"time"

	"github.com/lib/pq"
)

type CustomerStatus string

const (
	CustomerActive   CustomerStatus = "active"
	CustomerInactive CustomerStatus = "inactive"
	CustomerProspect CustomerStatus = "prospect"
)

func (s CustomerStatus) Valid() bool {
	switch s {
	case CustomerActive, CustomerInactive, CustomerProspect:
		return true
	}
	return false
}

type Customer struct {
	ID          string         `db:"id" json:"id"`
	Name        string         `db:"name" json:"name"`
	Email       string         `db:"email" json:"email"`
	Company     string         `db:"company" json:"company"`
	Phone       string         `db:"phone" json:"phone"`
	Address     string         `db:"address" json:"address"`
	Status      CustomerStatus `db:"status" json:"status"`
	Notes       string         `db:"notes" json:"notes"`
	Tags        pq.StringArray `db:"tags" json:"tags"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
	LastContact *time.Time     `db:"last_contact" json:"last_contact,omitempty"`
}
