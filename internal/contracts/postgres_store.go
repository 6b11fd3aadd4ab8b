package contracts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// PostgresStore is a Postgres-backed Store.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a contract store backed by the given database.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const contractColumns = `id, title, type, party1_name, party1_email, party2_name, party2_email,
	start_date, end_date, text, payment_option, payment_amount, payment_deadline,
	payment_description, payer_party, payee_party, link_token, status, signature_code,
	signer_name, payment_ref_id, version, signed_at, created_at, updated_at`

func (p *PostgresStore) Create(ctx context.Context, c *Contract) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO contracts (`+contractColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25)`,
		c.ID, c.Title, c.Type, c.Party1Name, c.Party1Email, c.Party2Name, nullString(c.Party2Email),
		nullString(c.StartDate), nullString(c.EndDate), c.Text, c.PaymentOption, c.PaymentAmount,
		nullString(c.PaymentDeadline), nullString(c.PaymentDescription), nullString(c.PayerParty),
		nullString(c.PayeeParty), c.LinkToken, string(c.Status), nullString(c.SignatureCode),
		nullString(c.SignerName), nullString(c.PaymentRefID), c.Version, nullTime(c.SignedAt),
		c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert contract: %w", err)
	}
	return nil
}

func (p *PostgresStore) Get(ctx context.Context, id string) (*Contract, error) {
	row := p.db.QueryRowContext(ctx,
		`SELECT `+contractColumns+` FROM contracts WHERE id = $1`, id)
	return scanContract(row)
}

func (p *PostgresStore) GetByLinkToken(ctx context.Context, linkToken string) (*Contract, error) {
	row := p.db.QueryRowContext(ctx,
		`SELECT `+contractColumns+` FROM contracts WHERE link_token = $1`, linkToken)
	return scanContract(row)
}

func (p *PostgresStore) Update(ctx context.Context, c *Contract) error {
	res, err := p.db.ExecContext(ctx, `
		UPDATE contracts SET
			title = $2, type = $3, party1_name = $4, party1_email = $5,
			party2_name = $6, party2_email = $7, start_date = $8, end_date = $9,
			text = $10, payment_option = $11, payment_amount = $12,
			payment_deadline = $13, payment_description = $14, payer_party = $15,
			payee_party = $16, link_token = $17, status = $18, signature_code = $19,
			signer_name = $20, payment_ref_id = $21, version = $22, signed_at = $23,
			updated_at = $24
		WHERE id = $1`,
		c.ID, c.Title, c.Type, c.Party1Name, c.Party1Email, c.Party2Name,
		nullString(c.Party2Email), nullString(c.StartDate), nullString(c.EndDate),
		c.Text, c.PaymentOption, c.PaymentAmount, nullString(c.PaymentDeadline),
		nullString(c.PaymentDescription), nullString(c.PayerParty), nullString(c.PayeeParty),
		c.LinkToken, string(c.Status), nullString(c.SignatureCode), nullString(c.SignerName),
		nullString(c.PaymentRefID), c.Version, nullTime(c.SignedAt), c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update contract: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update contract: %w", err)
	}
	if n == 0 {
		return ErrContractNotFound
	}
	return nil
}

func (p *PostgresStore) List(ctx context.Context, status string, limit int) ([]*Contract, error) {
	query := `SELECT ` + contractColumns + ` FROM contracts`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += fmt.Sprintf(` ORDER BY created_at ASC LIMIT %d`, limit)

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list contracts: %w", err)
	}
	defer rows.Close()

	out := []*Contract{}
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (p *PostgresStore) CreateVersion(ctx context.Context, v *ContractVersion) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO contract_versions (id, contract_id, number, text, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		v.ID, v.ContractID, v.Number, v.Text, nullString(v.Note), v.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert contract version: %w", err)
	}
	return nil
}

func (p *PostgresStore) ListVersions(ctx context.Context, contractID string) ([]*ContractVersion, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, contract_id, number, text, note, created_at
		FROM contract_versions WHERE contract_id = $1 ORDER BY number ASC`,
		contractID,
	)
	if err != nil {
		return nil, fmt.Errorf("list contract versions: %w", err)
	}
	defer rows.Close()

	out := []*ContractVersion{}
	for rows.Next() {
		var v ContractVersion
		var note sql.NullString
		if err := rows.Scan(&v.ID, &v.ContractID, &v.Number, &v.Text, &note, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan contract version: %w", err)
		}
		v.Note = note.String
		out = append(out, &v)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContract(row rowScanner) (*Contract, error) {
	var c Contract
	var status string
	var party2Email, startDate, endDate, deadline, description sql.NullString
	var payerParty, payeeParty, sigCode, signerName, refID sql.NullString
	var signedAt sql.NullTime

	err := row.Scan(
		&c.ID, &c.Title, &c.Type, &c.Party1Name, &c.Party1Email, &c.Party2Name, &party2Email,
		&startDate, &endDate, &c.Text, &c.PaymentOption, &c.PaymentAmount, &deadline,
		&description, &payerParty, &payeeParty, &c.LinkToken, &status, &sigCode,
		&signerName, &refID, &c.Version, &signedAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrContractNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan contract: %w", err)
	}

	c.Status = Status(status)
	c.Party2Email = party2Email.String
	c.StartDate = startDate.String
	c.EndDate = endDate.String
	c.PaymentDeadline = deadline.String
	c.PaymentDescription = description.String
	c.PayerParty = payerParty.String
	c.PayeeParty = payeeParty.String
	c.SignatureCode = sigCode.String
	c.SignerName = signerName.String
	c.PaymentRefID = refID.String
	if signedAt.Valid {
		t := signedAt.Time
		c.SignedAt = &t
	}
	return &c, nil
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
