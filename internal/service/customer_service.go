package service

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appErrors "github.com/unclebandit/bidtracker-backend/internal/errors"
	"github.com/unclebandit/bidtracker-backend/internal/model"
	"github.com/unclebandit/bidtracker-backend/internal/repository"
)

type CustomerService struct {
	CustomerRepo repository.CustomerRepositoryInterface
	Log          *zap.Logger
	Clock        func() time.Time
}

type CreateCustomerInput struct {
	Name    string               `json:"name"`
	Email   string               `json:"email"`
	Company string               `json:"company"`
	Phone   string               `json:"phone"`
	Address string               `json:"address"`
	Status  model.CustomerStatus `json:"status"`
	Notes   string               `json:"notes"`
	Tags    []string             `json:"tags"`
}

// UpdateCustomerInput is a partial update; nil fields are left alone.
type UpdateCustomerInput struct {
	Name        *string               `json:"name"`
	Email       *string               `json:"email"`
	Company     *string               `json:"company"`
	Phone       *string               `json:"phone"`
	Address     *string               `json:"address"`
	Status      *model.CustomerStatus `json:"status"`
	Notes       *string               `json:"notes"`
	Tags        []string              `json:"tags"`
	LastContact *time.Time            `json:"last_contact"`
}

func (s *CustomerService) now() time.Time {
	if s.Clock != nil {
		return s.Clock().UTC()
	}
	return time.Now().UTC()
}

func (s *CustomerService) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

func validateCustomer(c *model.Customer) error {
	if strings.TrimSpace(c.Name) == "" {
		return appErrors.NewValidation("name", "is required")
	}
	if strings.TrimSpace(c.Email) == "" {
		return appErrors.NewValidation("email", "is required")
	}
	if _, err := mail.ParseAddress(c.Email); err != nil {
		return appErrors.NewValidation("email", "is not a valid address")
	}
	if !c.Status.Valid() {
		return appErrors.NewValidation("status", "must be one of active, inactive, prospect")
	}
	return nil
}

func (s *CustomerService) Create(ctx context.Context, in CreateCustomerInput) (*model.Customer, error) {
	now := s.now()
	c := model.Customer{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(in.Name),
		Email:     strings.TrimSpace(in.Email),
		Company:   in.Company,
		Phone:     in.Phone,
		Address:   in.Address,
		Status:    in.Status,
		Notes:     in.Notes,
		Tags:      model.NormalizeVariables(in.Tags),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if c.Status == "" {
		c.Status = model.CustomerActive
	}
	if err := validateCustomer(&c); err != nil {
		return nil, err
	}
	if err := s.CustomerRepo.Create(ctx, &c); err != nil {
		s.logger().Error("Failed to create customer", zap.Error(err))
		return nil, err
	}
	return &c, nil
}

func (s *CustomerService) Get(ctx context.Context, id string) (*model.Customer, error) {
	return s.CustomerRepo.GetByID(ctx, id)
}

func (s *CustomerService) List(ctx context.Context, status string, skip, limit int) ([]model.Customer, error) {
	if status != "" && !model.CustomerStatus(status).Valid() {
		return nil, appErrors.NewValidation("status", "must be one of active, inactive, prospect")
	}
	if skip < 0 {
		skip = 0
	}
	if limit < 1 || limit > 100 {
		limit = 100
	}
	return s.CustomerRepo.List(ctx, repository.CustomerFilter{Status: status, Skip: skip, Limit: limit})
}

func (s *CustomerService) Update(ctx context.Context, id string, in UpdateCustomerInput) (*model.Customer, error) {
	c, err := s.CustomerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		c.Name = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		c.Email = strings.TrimSpace(*in.Email)
	}
	if in.Company != nil {
		c.Company = *in.Company
	}
	if in.Phone != nil {
		c.Phone = *in.Phone
	}
	if in.Address != nil {
		c.Address = *in.Address
	}
	if in.Status != nil {
		c.Status = *in.Status
	}
	if in.Notes != nil {
		c.Notes = *in.Notes
	}
	if in.Tags != nil {
		c.Tags = model.NormalizeVariables(in.Tags)
	}
	if in.LastContact != nil {
		lc := in.LastContact.UTC()
		c.LastContact = &lc
	}
	if err := validateCustomer(c); err != nil {
		return nil, err
	}
	c.UpdatedAt = s.now()
	if err := s.CustomerRepo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Delete leaves campaigns and follow-ups that reference the customer in
// place; they show the customer as unknown from then on.
func (s *CustomerService) Delete(ctx context.Context, id string) error {
	if err := s.CustomerRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger().Info("Customer deleted", zap.String("customer_id", id))
	return nil
}
