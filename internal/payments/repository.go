package payments

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fernbooks/fernbooks/internal/documents"
	"github.com/fernbooks/fernbooks/internal/platform/db"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// WithTx runs fn within one RepeatableRead transaction. Document access goes
// through the documents package so balances and payment rows commit together.
func (r *PostgresRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx, docs: documents.NewTxRepository(tx)})
	})
}

const paymentColumns = `id, invoice_id, bill_id, amount, payment_date, reference, created_at`

func (r *PostgresRepository) ListPayments(ctx context.Context, filter ListPaymentsFilter) ([]Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments`
	var args []any
	if filter.DocumentID != nil {
		query += ` WHERE invoice_id = $1 OR bill_id = $1`
		args = append(args, *filter.DocumentID)
	}
	query += ` ORDER BY payment_date, created_at`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var out []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.InvoiceID, &p.BillID, &p.Amount,
			&p.Date, &p.Reference, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type txRepository struct {
	tx   pgx.Tx
	docs documents.TxRepository
}

func (t *txRepository) GetDocumentForUpdate(ctx context.Context, id uuid.UUID) (documents.Document, error) {
	return t.docs.GetForUpdate(ctx, id)
}

func (t *txRepository) ListAllocatable(ctx context.Context, docType documents.Type, contactID uuid.UUID) ([]documents.Document, error) {
	return t.docs.ListOpen(ctx, docType, contactID)
}

func (t *txRepository) UpdateDocumentState(ctx context.Context, doc *documents.Document, expectedVersion int64) error {
	return t.docs.UpdateState(ctx, doc, expectedVersion)
}

func (t *txRepository) InsertPayment(ctx context.Context, p *Payment) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO payments (`+paymentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.InvoiceID, p.BillID, p.Amount, p.Date, p.Reference, p.CreatedAt)
	return err
}
