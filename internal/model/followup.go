// internal/model/followup.go
package model

import (
	"sort"
	"strings"
	"time"

	appErrors "github.com/unclebandit/bidtracker-backend/internal/errors"
)

type FollowUpStatus string

const (
	FollowUpPending   FollowUpStatus = "pending"
	FollowUpSent      FollowUpStatus = "sent"
	FollowUpCompleted FollowUpStatus = "completed"
	FollowUpCancelled FollowUpStatus = "cancelled"
)

func (s FollowUpStatus) Valid() bool {
	switch s {
	case FollowUpPending, FollowUpSent, FollowUpCompleted, FollowUpCancelled:
		return true
	}
	return false
}

func (s FollowUpStatus) Terminal() bool {
	return s == FollowUpCompleted || s == FollowUpCancelled
}

type Priority string

const (
	PriorityOverdue  Priority = "overdue"
	PriorityDueToday Priority = "due_today"
	PriorityDueSoon  Priority = "due_soon"
	PriorityFuture   Priority = "future"
)

const (
	dueTodayWindow = 24 * time.Hour
	dueSoonWindow  = 3 * 24 * time.Hour
)

type FollowUp struct {
	ID          string         `db:"id" json:"id"`
	CustomerID  string         `db:"customer_id" json:"customer_id"`
	TemplateID  string         `db:"template_id" json:"template_id"`
	DueDate     time.Time      `db:"due_date" json:"due_date"`
	Status      FollowUpStatus `db:"status" json:"status"`
	Notes       string         `db:"notes" json:"notes"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	CompletedAt *time.Time     `db:"completed_at" json:"completed_at,omitempty"`
}

var dueDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDueDate accepts RFC3339, a zone-less date-time (read as UTC) or a
// bare date (midnight UTC).
func ParseDueDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, appErrors.NewValidation("due_date", "is required")
	}
	for _, layout := range dueDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, appErrors.NewValidation("due_date", "is not a valid date")
}

// NewFollowUp builds a pending follow-up.
func NewFollowUp(customerID, templateID string, dueDate time.Time, notes string, now time.Time) (FollowUp, error) {
	if strings.TrimSpace(customerID) == "" {
		return FollowUp{}, appErrors.NewValidation("customer_id", "is required")
	}
	if strings.TrimSpace(templateID) == "" {
		return FollowUp{}, appErrors.NewValidation("template_id", "is required")
	}
	if dueDate.IsZero() {
		return FollowUp{}, appErrors.NewValidation("due_date", "is not a valid date")
	}
	return FollowUp{
		CustomerID: customerID,
		TemplateID: templateID,
		DueDate:    dueDate,
		Status:     FollowUpPending,
		Notes:      notes,
		CreatedAt:  now,
	}, nil
}

// MarkSent is driven by the dispatch process once the email went out.
func (f FollowUp) MarkSent() (FollowUp, error) {
	if f.Status != FollowUpPending {
		return f, appErrors.NewInvalidState("follow-up", string(f.Status), "mark sent")
	}
	f.Status = FollowUpSent
	return f, nil
}

func (f FollowUp) Complete(now time.Time) (FollowUp, error) {
	if f.Status.Terminal() {
		return f, appErrors.NewInvalidState("follow-up", string(f.Status), "complete")
	}
	f.Status = FollowUpCompleted
	f.CompletedAt = &now
	return f, nil
}

func (f FollowUp) Cancel() (FollowUp, error) {
	if f.Status.Terminal() {
		return f, appErrors.NewInvalidState("follow-up", string(f.Status), "cancel")
	}
	f.Status = FollowUpCancelled
	return f, nil
}

// Priority classifies f against now. See ClassifyPriority.
func (f FollowUp) Priority(now time.Time) Priority {
	return ClassifyPriority(f.DueDate, now)
}

// ClassifyPriority buckets a due date into half-open windows starting at now:
// before now is overdue, [now, now+1d) due today, [now+1d, now+3d) due soon.
func ClassifyPriority(due, now time.Time) Priority {
	switch {
	case due.Before(now):
		return PriorityOverdue
	case due.Before(now.Add(dueTodayWindow)):
		return PriorityDueToday
	case due.Before(now.Add(dueSoonWindow)):
		return PriorityDueSoon
	default:
		return PriorityFuture
	}
}

// FollowUpFilter selects follow-ups for listing. The zero value selects all.
// Skip and Limit page the sorted result and are ignored by Match.
type FollowUpFilter struct {
	Status  FollowUpStatus
	DueSoon bool
	Skip    int
	Limit   int
}

// Match applies the filter to one follow-up. DueSoon keeps non-terminal
// follow-ups that are overdue or due within the next three days.
func (flt FollowUpFilter) Match(f FollowUp, now time.Time) bool {
	if flt.Status != "" && f.Status != flt.Status {
		return false
	}
	if flt.DueSoon {
		if f.Status.Terminal() || f.Priority(now) == PriorityFuture {
			return false
		}
	}
	return true
}

func FilterFollowUps(followUps []FollowUp, flt FollowUpFilter, now time.Time) []FollowUp {
	out := []FollowUp{}
	for _, f := range followUps {
		if flt.Match(f, now) {
			out = append(out, f)
		}
	}
	return out
}

// SortByDueDate orders follow-ups earliest first, without touching the input.
func SortByDueDate(followUps []FollowUp) []FollowUp {
	out := append([]FollowUp(nil), followUps...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DueDate.Before(out[j].DueDate)
	})
	return out
}
