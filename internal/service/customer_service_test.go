package service_test

import (
	"context"
	"testing"

	"go.uber.org/zap"

	appErrors "github.com/unclebandit/bidtracker-backend/internal/errors"
	"github.com/unclebandit/bidtracker-backend/internal/model"
	"github.com/unclebandit/bidtracker-backend/internal/service"
)

func newCustomerService() *service.CustomerService {
	return &service.CustomerService{
		CustomerRepo: NewMockCustomerRepo(),
		Log:          zap.NewNop(),
		Clock:        fixedClock,
	}
}

func TestCreateCustomerDefaults(t *testing.T) {
	svc := newCustomerService()
	c, err := svc.Create(context.Background(), service.CreateCustomerInput{
		Name:  " Dana Reyes ",
		Email: "dana@reyesgc.test",
		Tags:  []string{"gc", "gc", ""},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.Name != "Dana Reyes" || c.Status != model.CustomerActive {
		t.Errorf("customer = %+v", c)
	}
	if len(c.Tags) != 1 || c.Tags[0] != "gc" {
		t.Errorf("tags = %v", c.Tags)
	}
}

func TestCreateCustomerValidation(t *testing.T) {
	svc := newCustomerService()
	cases := map[string]service.CreateCustomerInput{
		"no name":    {Email: "a@b.test"},
		"no email":   {Name: "A"},
		"bad email":  {Name: "A", Email: "not-an-address"},
		"bad status": {Name: "A", Email: "a@b.test", Status: "vip"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := svc.Create(context.Background(), in); !appErrors.IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestUpdateCustomerPartial(t *testing.T) {
	ctx := context.Background()
	svc := newCustomerService()
	c, err := svc.Create(ctx, service.CreateCustomerInput{Name: "Dana", Email: "dana@reyesgc.test", Company: "Reyes GC"})
	if err != nil {
		t.Fatal(err)
	}

	status := model.CustomerProspect
	updated, err := svc.Update(ctx, c.ID, service.UpdateCustomerInput{Status: &status})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Status != status || updated.Company != "Reyes GC" {
		t.Errorf("updated = %+v", updated)
	}

	bad := "nope"
	if _, err := svc.Update(ctx, c.ID, service.UpdateCustomerInput{Email: &bad}); !appErrors.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
	if _, err := svc.Update(ctx, "missing", service.UpdateCustomerInput{}); !appErrors.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestListCustomers(t *testing.T) {
	ctx := context.Background()
	svc := newCustomerService()
	for _, in := range []service.CreateCustomerInput{
		{Name: "A", Email: "a@x.test"},
		{Name: "B", Email: "b@x.test", Status: model.CustomerInactive},
		{Name: "C", Email: "c@x.test"},
	} {
		if _, err := svc.Create(ctx, in); err != nil {
			t.Fatal(err)
		}
	}

	active, err := svc.List(ctx, "active", 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 2 {
		t.Errorf("active = %d, want 2", len(active))
	}
	page, _ := svc.List(ctx, "", 1, 1)
	if len(page) != 1 || page[0].Name != "B" {
		t.Errorf("page = %+v", page)
	}
	if _, err := svc.List(ctx, "vip", 0, 10); !appErrors.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}
