package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	appErrors "github.com/unclebandit/bidtracker-backend/internal/errors"
	"github.com/unclebandit/bidtracker-backend/internal/model"
)

// CustomerFilter mirrors the listing query of the customers screen.
type CustomerFilter struct {
	Status string
	Skip   int
	Limit  int
}

// CustomerRepositoryInterface defines methods used by service
type CustomerRepositoryInterface interface {
	Create(ctx context.Context, c *model.Customer) error
	GetByID(ctx context.Context, id string) (*model.Customer, error)
	List(ctx context.Context, f CustomerFilter) ([]model.Customer, error)
	ListByIDs(ctx context.Context, ids []string) ([]model.Customer, error)
	Update(ctx context.Context, c *model.Customer) error
	Delete(ctx context.Context, id string) error
}

// CustomerRepository is the concrete implementation
type CustomerRepository struct {
	DB *sqlx.DB
}

const customerColumns = `id, name, email, company, phone, address, status, notes, tags, created_at, updated_at, last_contact`

func (r *CustomerRepository) Create(ctx context.Context, c *model.Customer) error {
	query := `
        INSERT INTO customers (` + customerColumns + `)
        VALUES (:id, :name, :email, :company, :phone, :address, :status, :notes, :tags, :created_at, :updated_at, :last_contact)
    `
	_, err := r.DB.NamedExecContext(ctx, query, c)
	return err
}

// GetByID fetches a customer by ID
func (r *CustomerRepository) GetByID(ctx context.Context, id string) (*model.Customer, error) {
	var c model.Customer
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`
	if err := r.DB.GetContext(ctx, &c, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewNotFound("customer", id)
		}
		return nil, err
	}
	return &c, nil
}

func (r *CustomerRepository) List(ctx context.Context, f CustomerFilter) ([]model.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE 1=1`
	args := []interface{}{}

	if f.Status != "" {
		args = append(args, f.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, f.Limit, f.Skip)

	customers := []model.Customer{}
	if err := r.DB.SelectContext(ctx, &customers, query, args...); err != nil {
		return nil, err
	}
	return customers, nil
}

// ListByIDs returns the customers that still exist among ids.
func (r *CustomerRepository) ListByIDs(ctx context.Context, ids []string) ([]model.Customer, error) {
	customers := []model.Customer{}
	if len(ids) == 0 {
		return customers, nil
	}
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = ANY($1)`
	if err := r.DB.SelectContext(ctx, &customers, query, pq.Array(ids)); err != nil {
		return nil, err
	}
	return customers, nil
}

func (r *CustomerRepository) Update(ctx context.Context, c *model.Customer) error {
	c.UpdatedAt = time.Now().UTC()
	query := `
        UPDATE customers
        SET name = :name, email = :email, company = :company, phone = :phone, address = :address,
            status = :status, notes = :notes, tags = :tags, updated_at = :updated_at, last_contact = :last_contact
        WHERE id = :id
    `
	res, err := r.DB.NamedExecContext(ctx, query, c)
	if err != nil {
		return err
	}
	return expectRow(res, "customer", c.ID)
}

func (r *CustomerRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectRow(res, "customer", id)
}

// expectRow turns a zero-row write into a NotFoundError.
func expectRow(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return appErrors.NewNotFound(entity, id)
	}
	return nil
}

var _ CustomerRepositoryInterface = (*CustomerRepository)(nil)
