package escrow

import (
	"context"
	"database/sql"
	"time"
)

// PostgresStore persists escrow payments in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL-backed escrow store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const paymentColumns = `id, contract_id, authority, amount, status,
		       payer_name, payer_email, payer_mobile, ref_id,
		       created_at, paid_at, released_at`

func (p *PostgresStore) Create(ctx context.Context, pay *Payment) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO escrow_payments (
			id, contract_id, authority, amount, status,
			payer_name, payer_email, payer_mobile, ref_id,
			created_at, paid_at, released_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		pay.ID, pay.ContractID, nullString(pay.Authority), pay.Amount, string(pay.Status),
		nullString(pay.PayerName), nullString(pay.PayerEmail), nullString(pay.PayerMobile),
		nullString(pay.RefID), pay.CreatedAt, nullTime(pay.PaidAt), nullTime(pay.ReleasedAt),
	)
	return err
}

func (p *PostgresStore) Get(ctx context.Context, id string) (*Payment, error) {
	row := p.db.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM escrow_payments WHERE id = $1`, id)
	return scanPayment(row)
}

func (p *PostgresStore) GetByContract(ctx context.Context, contractID string) (*Payment, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT `+paymentColumns+` FROM escrow_payments
		WHERE contract_id = $1
		ORDER BY created_at
		LIMIT 1`, contractID)
	return scanPayment(row)
}

func (p *PostgresStore) GetByAuthority(ctx context.Context, authority string) (*Payment, error) {
	row := p.db.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM escrow_payments WHERE authority = $1`, authority)
	return scanPayment(row)
}

func (p *PostgresStore) Update(ctx context.Context, pay *Payment) error {
	result, err := p.db.ExecContext(ctx, `
		UPDATE escrow_payments SET
			authority = $1, status = $2,
			payer_name = $3, payer_email = $4, payer_mobile = $5,
			ref_id = $6, paid_at = $7, released_at = $8
		WHERE id = $9`,
		nullString(pay.Authority), string(pay.Status),
		nullString(pay.PayerName), nullString(pay.PayerEmail), nullString(pay.PayerMobile),
		nullString(pay.RefID), nullTime(pay.PaidAt), nullTime(pay.ReleasedAt),
		pay.ID,
	)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrPaymentNotFound
	}
	return nil
}

func (p *PostgresStore) List(ctx context.Context) ([]*Payment, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT `+paymentColumns+` FROM escrow_payments ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var result []*Payment
	for rows.Next() {
		pay, err := scanPaymentRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, pay)
	}
	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayment(row *sql.Row) (*Payment, error) {
	pay, err := scanPaymentRow(row)
	if err == sql.ErrNoRows {
		return nil, ErrPaymentNotFound
	}
	return pay, err
}

func scanPaymentRow(row rowScanner) (*Payment, error) {
	var pay Payment
	var authority, payerName, payerEmail, payerMobile, refID sql.NullString
	var paidAt, releasedAt sql.NullTime
	var status string

	err := row.Scan(
		&pay.ID, &pay.ContractID, &authority, &pay.Amount, &status,
		&payerName, &payerEmail, &payerMobile, &refID,
		&pay.CreatedAt, &paidAt, &releasedAt,
	)
	if err != nil {
		return nil, err
	}

	pay.Status = Status(status)
	pay.Authority = authority.String
	pay.PayerName = payerName.String
	pay.PayerEmail = payerEmail.String
	pay.PayerMobile = payerMobile.String
	pay.RefID = refID.String
	if paidAt.Valid {
		t := paidAt.Time
		pay.PaidAt = &t
	}
	if releasedAt.Valid {
		t := releasedAt.Time
		pay.ReleasedAt = &t
	}
	return &pay, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
