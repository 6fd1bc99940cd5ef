package customer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	database "github.com/sebuszqo/PayBillsWithUs/internal/db"
)

var ErrCustomerNotFound = errors.New("customer not found")

type Repository interface {
	Search(ctx context.Context, search string) ([]Summary, error)
	GetProfile(ctx context.Context, id uuid.UUID) (*Profile, error)
}

type customerRepository struct {
	db *sql.DB
}

func NewCustomerRepository(db *sql.DB) Repository {
	return &customerRepository{db: db}
}

// Search matches name, email, phone and customer number case-insensitively, newest customers first.
func (r *customerRepository) Search(ctx context.Context, search string) ([]Summary, error) {
	query := `
		SELECT id, first_name, last_name, email, phone, customer_number, created_at
		FROM users`
	var args []interface{}
	if search = strings.TrimSpace(search); search != "" {
		query += `
		WHERE first_name ILIKE $1
		   OR last_name ILIKE $1
		   OR email ILIKE $1
		   OR phone ILIKE $1
		   OR customer_number ILIKE $1`
		args = append(args, database.ContainsPattern(search))
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("could not search customers: %w", err)
	}
	defer rows.Close()

	customers := []Summary{}
	for rows.Next() {
		var (
			c     Summary
			phone sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &phone, &c.CustomerNumber, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("could not scan customer: %w", err)
		}
		if phone.Valid {
			c.Phone = &phone.String
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func (r *customerRepository) GetProfile(ctx context.Context, id uuid.UUID) (*Profile, error) {
	var (
		p            Profile
		phone, line2 sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, first_name, last_name, email, phone, address_line1, address_line2, city, state, postal_code,
		       customer_number, created_at
		FROM users
		WHERE id = $1`, id).Scan(&p.ID, &p.FirstName, &p.LastName, &p.Email, &phone, &p.AddressLine1, &line2,
		&p.City, &p.State, &p.PostalCode, &p.CustomerNumber, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("could not find customer: %w", err)
	}
	if phone.Valid {
		p.Phone = &phone.String
	}
	if line2.Valid {
		p.AddressLine2 = &line2.String
	}
	return &p, nil
}
