package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appErrors "github.com/unclebandit/bidtracker-backend/internal/errors"
	"github.com/unclebandit/bidtracker-backend/internal/model"
	"github.com/unclebandit/bidtracker-backend/internal/repository"
)

type FollowUpService struct {
	FollowUpRepo repository.FollowUpRepositoryInterface
	CustomerRepo repository.CustomerRepositoryInterface
	TemplateRepo repository.TemplateRepositoryInterface
	Log          *zap.Logger
	Clock        func() time.Time
}

type CreateFollowUpInput struct {
	CustomerID string `json:"customer_id"`
	TemplateID string `json:"template_id"`
	DueDate    string `json:"due_date"`
	Notes      string `json:"notes"`
}

// FollowUpView is a follow-up with its references resolved for display.
type FollowUpView struct {
	model.FollowUp
	Priority     model.Priority `json:"priority"`
	CustomerName string         `json:"customer_name"`
	TemplateName string         `json:"template_name"`
}

func (s *FollowUpService) now() time.Time {
	if s.Clock != nil {
		return s.Clock().UTC()
	}
	return time.Now().UTC()
}

func (s *FollowUpService) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

func (s *FollowUpService) Create(ctx context.Context, in CreateFollowUpInput) (*model.FollowUp, error) {
	due, err := model.ParseDueDate(in.DueDate)
	if err != nil {
		return nil, err
	}
	f, err := model.NewFollowUp(in.CustomerID, in.TemplateID, due, in.Notes, s.now())
	if err != nil {
		return nil, err
	}
	f.ID = uuid.NewString()
	if err := s.FollowUpRepo.Create(ctx, &f); err != nil {
		s.logger().Error("Failed to create follow-up", zap.Error(err))
		return nil, err
	}
	s.logger().Info("Follow-up scheduled",
		zap.String("followup_id", f.ID),
		zap.Time("due_date", f.DueDate),
	)
	return &f, nil
}

// List returns one page of the follow-ups selected by flt, earliest due
// first, each with its priority and resolved names. Pages hold at most 100.
func (s *FollowUpService) List(ctx context.Context, flt model.FollowUpFilter) ([]FollowUpView, error) {
	if flt.Status != "" && !flt.Status.Valid() {
		return nil, appErrors.NewValidation("status", "must be one of pending, sent, completed, cancelled")
	}
	if flt.Skip < 0 {
		flt.Skip = 0
	}
	if flt.Limit < 1 || flt.Limit > 100 {
		flt.Limit = 100
	}
	now := s.now()
	list, err := s.FollowUpRepo.List(ctx, flt, now)
	if err != nil {
		return nil, err
	}
	list = model.SortByDueDate(model.FilterFollowUps(list, flt, now))

	dir, err := s.directory(ctx, list)
	if err != nil {
		return nil, err
	}
	views := make([]FollowUpView, 0, len(list))
	for _, f := range list {
		views = append(views, FollowUpView{
			FollowUp:     f,
			Priority:     f.Priority(now),
			CustomerName: dir.CustomerName(f.CustomerID),
			TemplateName: dir.TemplateName(f.TemplateID),
		})
	}
	return views, nil
}

func (s *FollowUpService) directory(ctx context.Context, list []model.FollowUp) (Directory, error) {
	customerIDs := make([]string, 0, len(list))
	templateIDs := make([]string, 0, len(list))
	for _, f := range list {
		customerIDs = append(customerIDs, f.CustomerID)
		templateIDs = append(templateIDs, f.TemplateID)
	}
	customers, err := s.CustomerRepo.ListByIDs(ctx, customerIDs)
	if err != nil {
		return Directory{}, err
	}
	templates, err := s.TemplateRepo.ListByIDs(ctx, templateIDs)
	if err != nil {
		return Directory{}, err
	}
	return NewDirectory(customers, templates), nil
}

func (s *FollowUpService) MarkSent(ctx context.Context, id string) (*model.FollowUp, error) {
	return s.transition(ctx, id, func(f model.FollowUp) (model.FollowUp, error) {
		return f.MarkSent()
	})
}

func (s *FollowUpService) Complete(ctx context.Context, id string) (*model.FollowUp, error) {
	now := s.now()
	return s.transition(ctx, id, func(f model.FollowUp) (model.FollowUp, error) {
		return f.Complete(now)
	})
}

func (s *FollowUpService) Cancel(ctx context.Context, id string) (*model.FollowUp, error) {
	return s.transition(ctx, id, model.FollowUp.Cancel)
}

func (s *FollowUpService) transition(ctx context.Context, id string, apply func(model.FollowUp) (model.FollowUp, error)) (*model.FollowUp, error) {
	current, err := s.FollowUpRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	next, err := apply(*current)
	if err != nil {
		return nil, err
	}
	if err := s.FollowUpRepo.UpdateStatus(ctx, &next, current.Status); err != nil {
		return nil, err
	}
	s.logger().Info("Follow-up updated",
		zap.String("followup_id", id),
		zap.String("from", string(current.Status)),
		zap.String("to", string(next.Status)),
	)
	return &next, nil
}

func (s *FollowUpService) Delete(ctx context.Context, id string) error {
	return s.FollowUpRepo.Delete(ctx, id)
}
