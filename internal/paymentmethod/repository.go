package paymentmethod

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrPaymentMethodNotFound = errors.New("payment method not found")

type Repository interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]PaymentMethod, error)
	// WithinTx runs fn in one database transaction, committing only when fn returns nil.
	WithinTx(ctx context.Context, fn func(tx TxRepository) error) error
}

// TxRepository holds the operations that take part in default-flag transitions.
type TxRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*PaymentMethod, error)
	HasDefault(ctx context.Context, userID uuid.UUID) (bool, error)
	ClearDefault(ctx context.Context, userID uuid.UUID) error
	SetDefault(ctx context.Context, id uuid.UUID) error
	FindEarliestExcept(ctx context.Context, userID, excludeID uuid.UUID) (*PaymentMethod, error)
	Insert(ctx context.Context, pm *PaymentMethod) error
	Update(ctx context.Context, pm *PaymentMethod) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type paymentMethodRepository struct {
	db *sql.DB
}

func NewPaymentMethodRepository(db *sql.DB) Repository {
	return &paymentMethodRepository{db: db}
}

const selectColumns = `
	SELECT id, user_id, type, provider, account_number, routing_number, cardholder_name, nickname,
	       exp_month, exp_year, brand, last4, security_code,
	       billing_address_line1, billing_address_line2, billing_city, billing_state, billing_postal_code,
	       is_default, created_at, updated_at
	FROM payment_methods`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPaymentMethod(row rowScanner) (*PaymentMethod, error) {
	var (
		pm                              PaymentMethod
		expMonth, expYear               sql.NullInt32
		line1, city, state, postalCode  sql.NullString
		routing, holder, nickname       sql.NullString
		brand, securityCode, line2Value sql.NullString
	)
	err := row.Scan(&pm.ID, &pm.UserID, &pm.Type, &pm.Provider, &pm.AccountNumber, &routing, &holder, &nickname,
		&expMonth, &expYear, &brand, &pm.Last4, &securityCode,
		&line1, &line2Value, &city, &state, &postalCode,
		&pm.IsDefault, &pm.CreatedAt, &pm.UpdatedAt)
	if err != nil {
		return nil, err
	}

	pm.RoutingNumber = nullableString(routing)
	pm.CardholderName = nullableString(holder)
	pm.Nickname = nullableString(nickname)
	pm.Brand = nullableString(brand)
	pm.SecurityCode = nullableString(securityCode)
	pm.ExpMonth = nullableInt(expMonth)
	pm.ExpYear = nullableInt(expYear)
	if line1.Valid {
		pm.Billing = &BillingAddress{
			Line1:      line1.String,
			Line2:      nullableString(line2Value),
			City:       city.String,
			State:      state.String,
			PostalCode: postalCode.String,
		}
	}
	return &pm, nil
}

func nullableString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullableInt(v sql.NullInt32) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int32)
	return &i
}

func billingColumns(b *BillingAddress) (line1, line2, city, state, postal interface{}) {
	if b == nil {
		return nil, nil, nil, nil, nil
	}
	return b.Line1, b.Line2, b.City, b.State, b.PostalCode
}

func (r *paymentMethodRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]PaymentMethod, error) {
	query := selectColumns + `
	WHERE user_id = $1
	ORDER BY is_default DESC, created_at DESC, id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("could not list payment methods: %w", err)
	}
	defer rows.Close()

	methods := []PaymentMethod{}
	for rows.Next() {
		pm, err := scanPaymentMethod(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan payment method: %w", err)
		}
		methods = append(methods, *pm)
	}
	return methods, rows.Err()
}

func (r *paymentMethodRepository) WithinTx(ctx context.Context, fn func(tx TxRepository) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}

	if err := fn(&txRepository{q: tx}); err != nil {
		safeRollback(tx)
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}
	return nil
}

func safeRollback(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		zap.L().Error("error during transaction rollback", zap.Error(err))
	}
}

type txRepository struct {
	q querier
}

func (r *txRepository) FindByID(ctx context.Context, id uuid.UUID) (*PaymentMethod, error) {
	pm, err := scanPaymentMethod(r.q.QueryRowContext(ctx, selectColumns+` WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentMethodNotFound
		}
		return nil, fmt.Errorf("could not find payment method: %w", err)
	}
	return pm, nil
}

func (r *txRepository) HasDefault(ctx context.Context, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM payment_methods WHERE user_id = $1 AND is_default)`, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("could not check default payment method: %w", err)
	}
	return exists, nil
}

func (r *txRepository) ClearDefault(ctx context.Context, userID uuid.UUID) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE payment_methods SET is_default = FALSE, updated_at = NOW() WHERE user_id = $1 AND is_default`, userID)
	if err != nil {
		return fmt.Errorf("could not clear default payment method: %w", err)
	}
	return nil
}

func (r *txRepository) SetDefault(ctx context.Context, id uuid.UUID) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE payment_methods SET is_default = TRUE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("could not set default payment method: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return ErrPaymentMethodNotFound
	}
	return nil
}

func (r *txRepository) FindEarliestExcept(ctx context.Context, userID, excludeID uuid.UUID) (*PaymentMethod, error) {
	query := selectColumns + `
	WHERE user_id = $1 AND id <> $2
	ORDER BY created_at ASC, id
	LIMIT 1`

	pm, err := scanPaymentMethod(r.q.QueryRowContext(ctx, query, userID, excludeID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentMethodNotFound
		}
		return nil, fmt.Errorf("could not find replacement payment method: %w", err)
	}
	return pm, nil
}

func (r *txRepository) Insert(ctx context.Context, pm *PaymentMethod) error {
	line1, line2, city, state, postal := billingColumns(pm.Billing)
	query := `
		INSERT INTO payment_methods (id, user_id, type, provider, account_number, routing_number, cardholder_name,
		                             nickname, exp_month, exp_year, brand, last4, security_code,
		                             billing_address_line1, billing_address_line2, billing_city, billing_state,
		                             billing_postal_code, is_default, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`

	_, err := r.q.ExecContext(ctx, query, pm.ID, pm.UserID, pm.Type, pm.Provider, pm.AccountNumber, pm.RoutingNumber,
		pm.CardholderName, pm.Nickname, pm.ExpMonth, pm.ExpYear, pm.Brand, pm.Last4, pm.SecurityCode,
		line1, line2, city, state, postal, pm.IsDefault, pm.CreatedAt, pm.UpdatedAt)
	if err != nil {
		return fmt.Errorf("could not create payment method: %w", err)
	}
	return nil
}

func (r *txRepository) Update(ctx context.Context, pm *PaymentMethod) error {
	line1, line2, city, state, postal := billingColumns(pm.Billing)
	query := `
		UPDATE payment_methods
		SET provider = $1, account_number = $2, routing_number = $3, cardholder_name = $4, nickname = $5,
		    exp_month = $6, exp_year = $7, brand = $8, last4 = $9, security_code = $10,
		    billing_address_line1 = $11, billing_address_line2 = $12, billing_city = $13, billing_state = $14,
		    billing_postal_code = $15, is_default = $16, updated_at = $17
		WHERE id = $18`

	result, err := r.q.ExecContext(ctx, query, pm.Provider, pm.AccountNumber, pm.RoutingNumber, pm.CardholderName,
		pm.Nickname, pm.ExpMonth, pm.ExpYear, pm.Brand, pm.Last4, pm.SecurityCode,
		line1, line2, city, state, postal, pm.IsDefault, pm.UpdatedAt, pm.ID)
	if err != nil {
		return fmt.Errorf("could not update payment method: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return ErrPaymentMethodNotFound
	}
	return nil
}

func (r *txRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM payment_methods WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("could not delete payment method: %w", err)
	}
	return nil
}
