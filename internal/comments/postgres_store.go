package comments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PostgresStore is a Postgres-backed Store.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a comment store backed by the given database.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (p *PostgresStore) Create(ctx context.Context, c *Comment) error {
	var parent sql.NullString
	if c.ParentID != "" {
		parent = sql.NullString{String: c.ParentID, Valid: true}
	}
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO comments (id, contract_id, text, type, author_name, parent_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.ContractID, c.Text, string(c.Type), c.AuthorName, parent, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

func (p *PostgresStore) Get(ctx context.Context, id string) (*Comment, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT id, contract_id, text, type, author_name, parent_id, created_at
		FROM comments WHERE id = $1`, id)
	return scanComment(row)
}

func (p *PostgresStore) ListByContract(ctx context.Context, contractID string, limit int) ([]*Comment, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, contract_id, text, type, author_name, parent_id, created_at
		FROM comments WHERE contract_id = $1 ORDER BY created_at ASC LIMIT $2`,
		contractID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	out := []*Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanComment(row rowScanner) (*Comment, error) {
	var c Comment
	var ctype string
	var parent sql.NullString

	err := row.Scan(&c.ID, &c.ContractID, &c.Text, &ctype, &c.AuthorName, &parent, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCommentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan comment: %w", err)
	}

	c.Type = CommentType(ctype)
	c.ParentID = parent.String
	return &c, nil
}
