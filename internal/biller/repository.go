package biller

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	database "github.com/sebuszqo/PayBillsWithUs/internal/db"
)

var (
	ErrBillerNotFound   = errors.New("biller not found")
	ErrCustomerNotFound = errors.New("customer not found")
)

const recentReceiptLimit = 3

type Repository interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]WithReceipts, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Biller, error)
	Create(ctx context.Context, biller *Biller) error
	Update(ctx context.Context, biller *Biller) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListWithOwners(ctx context.Context, search string) ([]WithOwner, error)
}

type billerRepository struct {
	db *sql.DB
}

func NewBillerRepository(db *sql.DB) Repository {
	return &billerRepository{db: db}
}

const selectBiller = `
	SELECT id, user_id, name, category, account_id, contact_info, created_at, updated_at
	FROM billers`

func scanBiller(row interface{ Scan(dest ...interface{}) error }) (*Biller, error) {
	var (
		b           Biller
		contactInfo sql.NullString
	)
	if err := row.Scan(&b.ID, &b.UserID, &b.Name, &b.Category, &b.AccountID, &contactInfo, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	if contactInfo.Valid {
		b.ContactInfo = &contactInfo.String
	}
	return &b, nil
}

func nullableString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

// ListByUser returns the customer's billers by name, each with its most recent receipts.
func (r *billerRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]WithReceipts, error) {
	rows, err := r.db.QueryContext(ctx, selectBiller+` WHERE user_id = $1 ORDER BY name, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("could not list billers: %w", err)
	}
	defer rows.Close()

	billers := []WithReceipts{}
	index := map[uuid.UUID]int{}
	for rows.Next() {
		b, err := scanBiller(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan biller: %w", err)
		}
		index[b.ID] = len(billers)
		billers = append(billers, WithReceipts{Biller: *b, Receipts: []RecentReceipt{}})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(billers) == 0 {
		return billers, nil
	}

	receipts, err := r.db.QueryContext(ctx, `
		SELECT biller_id, id, amount, paid_on, confirmation, download_url, notes, created_at
		FROM (
			SELECT r.*, ROW_NUMBER() OVER (PARTITION BY r.biller_id ORDER BY r.paid_on DESC, r.id) AS rn
			FROM receipts r
			WHERE r.user_id = $1
		) ranked
		WHERE rn <= $2
		ORDER BY biller_id, paid_on DESC, id`, userID, recentReceiptLimit)
	if err != nil {
		return nil, fmt.Errorf("could not list recent receipts: %w", err)
	}
	defer receipts.Close()

	for receipts.Next() {
		var (
			billerID           uuid.UUID
			rr                 RecentReceipt
			downloadURL, notes sql.NullString
		)
		if err := receipts.Scan(&billerID, &rr.ID, &rr.Amount, &rr.PaidOn, &rr.Confirmation, &downloadURL, &notes, &rr.CreatedAt); err != nil {
			return nil, fmt.Errorf("could not scan receipt: %w", err)
		}
		rr.DownloadURL = nullableString(downloadURL)
		rr.Notes = nullableString(notes)
		if i, ok := index[billerID]; ok {
			billers[i].Receipts = append(billers[i].Receipts, rr)
		}
	}
	return billers, receipts.Err()
}

func (r *billerRepository) GetByID(ctx context.Context, id uuid.UUID) (*Biller, error) {
	b, err := scanBiller(r.db.QueryRowContext(ctx, selectBiller+` WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBillerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("could not find biller: %w", err)
	}
	return b, nil
}

func (r *billerRepository) Create(ctx context.Context, b *Biller) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO billers (id, user_id, name, category, account_id, contact_info, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		b.ID, b.UserID, b.Name, b.Category, b.AccountID, b.ContactInfo, b.CreatedAt, b.UpdatedAt)
	if database.IsForeignKeyViolation(err) {
		return ErrCustomerNotFound
	}
	if err != nil {
		return fmt.Errorf("could not create biller: %w", err)
	}
	return nil
}

func (r *billerRepository) Update(ctx context.Context, b *Biller) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE billers
		SET name = $1, category = $2, account_id = $3, contact_info = $4, updated_at = $5
		WHERE id = $6`,
		b.Name, b.Category, b.AccountID, b.ContactInfo, b.UpdatedAt, b.ID)
	if err != nil {
		return fmt.Errorf("could not update biller: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return ErrBillerNotFound
	}
	return nil
}

func (r *billerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM billers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("could not delete biller: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return ErrBillerNotFound
	}
	return nil
}

// ListWithOwners matches search against the biller name and account id. An empty search lists everything.
func (r *billerRepository) ListWithOwners(ctx context.Context, search string) ([]WithOwner, error) {
	query := `
		SELECT b.id, b.name, b.category, b.account_id, b.contact_info,
		       u.id, u.first_name, u.last_name, u.email, u.phone, u.customer_number
		FROM billers b
		JOIN users u ON u.id = b.user_id`
	var args []interface{}
	if search = strings.TrimSpace(search); search != "" {
		query += ` WHERE b.name ILIKE $1 OR b.account_id ILIKE $1`
		args = append(args, database.ContainsPattern(search))
	}
	query += ` ORDER BY b.name, b.id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("could not list billers: %w", err)
	}
	defer rows.Close()

	billers := []WithOwner{}
	for rows.Next() {
		var (
			b                  WithOwner
			contactInfo, phone sql.NullString
		)
		err := rows.Scan(&b.ID, &b.Name, &b.Category, &b.AccountID, &contactInfo,
			&b.User.ID, &b.User.FirstName, &b.User.LastName, &b.User.Email, &phone, &b.User.CustomerNumber)
		if err != nil {
			return nil, fmt.Errorf("could not scan biller: %w", err)
		}
		b.ContactInfo = nullableString(contactInfo)
		b.User.Phone = nullableString(phone)
		billers = append(billers, b)
	}
	return billers, rows.Err()
}
