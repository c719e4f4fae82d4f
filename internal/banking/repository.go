package banking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fernbooks/fernbooks/internal/documents"
)

const transactionColumns = `id, account_id, tx_date, amount, description,
	is_reconciled, category, created_at, updated_at`

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (Transaction, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM bank_transactions WHERE id = $1`, id)
	return scanTransaction(row)
}

func (r *PostgresRepository) List(ctx context.Context, filter ListTransactionsFilter) ([]Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM bank_transactions WHERE 1=1`
	var args []any
	if filter.AccountID != nil {
		args = append(args, *filter.AccountID)
		query += fmt.Sprintf(" AND account_id = $%d", len(args))
	}
	if filter.Reconciled != nil {
		args = append(args, *filter.Reconciled)
		query += fmt.Sprintf(" AND is_reconciled = $%d", len(args))
	}
	query += " ORDER BY tx_date DESC, created_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Insert(ctx context.Context, tx *Transaction) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO bank_transactions (`+transactionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		tx.ID, tx.AccountID, tx.Date, tx.Amount, tx.Description,
		tx.IsReconciled, tx.Category, tx.CreatedAt, tx.UpdatedAt)
	return err
}

func (r *PostgresRepository) InsertBatch(ctx context.Context, txs []Transaction) error {
	batch := &pgx.Batch{}
	for _, tx := range txs {
		batch.Queue(`
			INSERT INTO bank_transactions (`+transactionColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			tx.ID, tx.AccountID, tx.Date, tx.Amount, tx.Description,
			tx.IsReconciled, tx.Category, tx.CreatedAt, tx.UpdatedAt)
	}
	return r.pool.SendBatch(ctx, batch).Close()
}

func (r *PostgresRepository) SetReconciled(ctx context.Context, id uuid.UUID, category *string, when time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE bank_transactions
		SET is_reconciled = TRUE, category = COALESCE($2, category), updated_at = $3
		WHERE id = $1 AND is_reconciled = FALSE`,
		id, category, when)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyReconciled
	}
	return nil
}

func (r *PostgresRepository) ListCandidates(ctx context.Context, t documents.Type) ([]Candidate, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, doc_type, number, contact_name, doc_date, amount_due
		FROM documents
		WHERE doc_type = $1 AND status = $2 AND amount_due > 0`,
		t, documents.StatusApproved)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	var out []Candidate
	for rows.Next() {
		var c Candidate
		if err := rows.Scan(&c.ID, &c.Type, &c.Number, &c.ContactName,
			&c.Date, &c.AmountDue); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanTransaction(row pgx.Row) (Transaction, error) {
	var t Transaction
	err := row.Scan(&t.ID, &t.AccountID, &t.Date, &t.Amount, &t.Description,
		&t.IsReconciled, &t.Category, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, ErrTransactionNotFound
		}
		return Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	return t, nil
}
