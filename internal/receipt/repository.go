package receipt

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	database "github.com/sebuszqo/PayBillsWithUs/internal/db"
)

type Repository interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Receipt, error)
	Search(ctx context.Context, search string) ([]Transaction, error)
}

type receiptRepository struct {
	db *sql.DB
}

func NewReceiptRepository(db *sql.DB) Repository {
	return &receiptRepository{db: db}
}

func nullableString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

func (r *receiptRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]Receipt, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT r.id, r.user_id, r.amount, r.paid_on, r.confirmation, r.download_url, r.notes, r.created_at,
		       b.id, b.name, b.category
		FROM receipts r
		JOIN billers b ON b.id = r.biller_id
		WHERE r.user_id = $1
		ORDER BY r.paid_on DESC, r.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("could not list receipts: %w", err)
	}
	defer rows.Close()

	receipts := []Receipt{}
	for rows.Next() {
		var (
			rc                 Receipt
			downloadURL, notes sql.NullString
		)
		err := rows.Scan(&rc.ID, &rc.UserID, &rc.Amount, &rc.PaidOn, &rc.Confirmation, &downloadURL, &notes, &rc.CreatedAt,
			&rc.Biller.ID, &rc.Biller.Name, &rc.Biller.Category)
		if err != nil {
			return nil, fmt.Errorf("could not scan receipt: %w", err)
		}
		rc.DownloadURL = nullableString(downloadURL)
		rc.Notes = nullableString(notes)
		receipts = append(receipts, rc)
	}
	return receipts, rows.Err()
}

// Search matches the confirmation code or the paying customer's name, email, phone or customer number.
func (r *receiptRepository) Search(ctx context.Context, search string) ([]Transaction, error) {
	query := `
		SELECT r.id, r.amount, r.paid_on, r.confirmation, r.notes,
		       b.id, b.name,
		       u.id, u.first_name, u.last_name, u.email, u.phone, u.customer_number
		FROM receipts r
		JOIN billers b ON b.id = r.biller_id
		JOIN users u ON u.id = r.user_id`
	var args []interface{}
	if search = strings.TrimSpace(search); search != "" {
		query += `
		WHERE r.confirmation ILIKE $1
		   OR u.first_name ILIKE $1
		   OR u.last_name ILIKE $1
		   OR u.email ILIKE $1
		   OR u.phone ILIKE $1
		   OR u.customer_number ILIKE $1`
		args = append(args, database.ContainsPattern(search))
	}
	query += ` ORDER BY r.paid_on DESC, r.id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("could not search transactions: %w", err)
	}
	defer rows.Close()

	transactions := []Transaction{}
	for rows.Next() {
		var (
			t            Transaction
			notes, phone sql.NullString
		)
		err := rows.Scan(&t.ID, &t.Amount, &t.PaidOn, &t.Confirmation, &notes,
			&t.Biller.ID, &t.Biller.Name,
			&t.User.ID, &t.User.FirstName, &t.User.LastName, &t.User.Email, &phone, &t.User.CustomerNumber)
		if err != nil {
			return nil, fmt.Errorf("could not scan transaction: %w", err)
		}
		t.Notes = nullableString(notes)
		t.User.Phone = nullableString(phone)
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}
