package agent

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	database "github.com/sebuszqo/PayBillsWithUs/internal/db"
)

var (
	ErrAgentNotFound         = errors.New("agent not found")
	ErrCustomerNotFound      = errors.New("customer not found")
	ErrUsernameAlreadyExists = errors.New("agent username already exists")
)

type Repository interface {
	List(ctx context.Context) ([]View, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Agent, error)
	GetByUsername(ctx context.Context, username string) (*Agent, error)
	Create(ctx context.Context, agent *Agent) error
	Update(ctx context.Context, agent *Agent) error
	Delete(ctx context.Context, id uuid.UUID) error
	Assign(ctx context.Context, agentID, customerID uuid.UUID) error
	Unassign(ctx context.Context, agentID, customerID uuid.UUID) error
}

type agentRepository struct {
	db *sql.DB
}

func NewAgentRepository(db *sql.DB) Repository {
	return &agentRepository{db: db}
}

const selectAgent = `
	SELECT id, username, password_hash, full_name, email, phone, created_at, updated_at
	FROM agents`

func scanAgent(row interface{ Scan(dest ...interface{}) error }) (*Agent, error) {
	var (
		a            Agent
		email, phone sql.NullString
	)
	if err := row.Scan(&a.ID, &a.Username, &a.PasswordHash, &a.FullName, &email, &phone, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	if email.Valid {
		a.Email = &email.String
	}
	if phone.Valid {
		a.Phone = &phone.String
	}
	return &a, nil
}

// List returns every agent, newest first, with the customers assigned to each.
func (r *agentRepository) List(ctx context.Context) ([]View, error) {
	rows, err := r.db.QueryContext(ctx, selectAgent+` ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("could not list agents: %w", err)
	}
	defer rows.Close()

	views := []View{}
	index := map[uuid.UUID]int{}
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan agent: %w", err)
		}
		view := a.View()
		view.Customers = []AssignedCustomer{}
		index[a.ID] = len(views)
		views = append(views, view)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	assignments, err := r.db.QueryContext(ctx, `
		SELECT ac.agent_id, u.id, u.first_name, u.last_name, u.email, u.phone, u.customer_number
		FROM agent_customers ac
		JOIN users u ON u.id = ac.user_id
		ORDER BY ac.assigned_at, u.id`)
	if err != nil {
		return nil, fmt.Errorf("could not list agent customers: %w", err)
	}
	defer assignments.Close()

	for assignments.Next() {
		var (
			agentID uuid.UUID
			c       AssignedCustomer
			phone   sql.NullString
		)
		if err := assignments.Scan(&agentID, &c.ID, &c.FirstName, &c.LastName, &c.Email, &phone, &c.CustomerNumber); err != nil {
			return nil, fmt.Errorf("could not scan agent customer: %w", err)
		}
		if phone.Valid {
			c.Phone = &phone.String
		}
		if i, ok := index[agentID]; ok {
			views[i].Customers = append(views[i].Customers, c)
		}
	}
	return views, assignments.Err()
}

func (r *agentRepository) GetByID(ctx context.Context, id uuid.UUID) (*Agent, error) {
	a, err := scanAgent(r.db.QueryRowContext(ctx, selectAgent+` WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAgentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("could not find agent: %w", err)
	}
	return a, nil
}

func (r *agentRepository) GetByUsername(ctx context.Context, username string) (*Agent, error) {
	a, err := scanAgent(r.db.QueryRowContext(ctx, selectAgent+` WHERE username = $1`, username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAgentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("could not find agent: %w", err)
	}
	return a, nil
}

func (r *agentRepository) Create(ctx context.Context, a *Agent) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO agents (id, username, password_hash, full_name, email, phone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.Username, a.PasswordHash, a.FullName, a.Email, a.Phone, a.CreatedAt, a.UpdatedAt)
	if database.IsUniqueViolation(err) {
		return ErrUsernameAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("could not create agent: %w", err)
	}
	return nil
}

func (r *agentRepository) Update(ctx context.Context, a *Agent) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE agents
		SET password_hash = $1, full_name = $2, email = $3, phone = $4, updated_at = $5
		WHERE id = $6`,
		a.PasswordHash, a.FullName, a.Email, a.Phone, a.UpdatedAt, a.ID)
	if err != nil {
		return fmt.Errorf("could not update agent: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return ErrAgentNotFound
	}
	return nil
}

func (r *agentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM agents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("could not delete agent: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return ErrAgentNotFound
	}
	return nil
}

// Assign is idempotent. It reports which side is missing when the agent or customer does not exist.
func (r *agentRepository) Assign(ctx context.Context, agentID, customerID uuid.UUID) error {
	var agentExists, customerExists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM agents WHERE id = $1), EXISTS (SELECT 1 FROM users WHERE id = $2)`,
		agentID, customerID).Scan(&agentExists, &customerExists)
	if err != nil {
		return fmt.Errorf("could not check assignment: %w", err)
	}
	if !agentExists {
		return ErrAgentNotFound
	}
	if !customerExists {
		return ErrCustomerNotFound
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO agent_customers (agent_id, user_id, assigned_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (agent_id, user_id) DO NOTHING`, agentID, customerID)
	if err != nil {
		return fmt.Errorf("could not assign customer: %w", err)
	}
	return nil
}

func (r *agentRepository) Unassign(ctx context.Context, agentID, customerID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM agent_customers WHERE agent_id = $1 AND user_id = $2`, agentID, customerID)
	if err != nil {
		return fmt.Errorf("could not unassign customer: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return ErrCustomerNotFound
	}
	return nil
}
