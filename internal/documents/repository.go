package documents

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fernbooks/fernbooks/internal/platform/db"
	"github.com/fernbooks/fernbooks/internal/shared"
)

// PostgresRepository provides pgx-backed persistence for documents.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const documentColumns = `
	id, doc_type, number, contact_id, contact_name, status, amount_type,
	currency, doc_date, due_date, reference, notes,
	sub_total, total_tax, total, amount_paid, amount_due,
	credit_kind, remaining_credit, converted_document_id,
	version, created_at, updated_at`

func scanDocument(row pgx.Row) (Document, error) {
	var d Document
	err := row.Scan(
		&d.ID, &d.Type, &d.Number, &d.ContactID, &d.ContactName, &d.Status, &d.AmountType,
		&d.Currency, &d.Date, &d.DueDate, &d.Reference, &d.Notes,
		&d.SubTotal, &d.TotalTax, &d.Total, &d.AmountPaid, &d.AmountDue,
		&d.CreditKind, &d.RemainingCredit, &d.ConvertedDocumentID,
		&d.Version, &d.CreatedAt, &d.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Document{}, ErrDocumentNotFound
	}
	return d, err
}

// WithTx runs fn within one RepeatableRead transaction.
func (r *PostgresRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

// Get fetches a document and its line items.
func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	doc, err := scanDocument(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return Document{}, err
	}
	doc.LineItems, err = loadLineItems(ctx, r.pool, id)
	return doc, err
}

// List returns documents of a family, newest first.
func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) ([]Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE doc_type = $1`
	args := []any{filter.Type}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.ContactID != nil {
		args = append(args, *filter.ContactID)
		query += fmt.Sprintf(" AND contact_id = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func loadLineItems(ctx context.Context, q querier, docID uuid.UUID) ([]LineItem, error) {
	rows, err := q.Query(ctx, `
		SELECT id, document_id, product_id, description, quantity, unit_price,
		       discount, tax_rate, line_amount, tax_amount
		FROM line_items WHERE document_id = $1 ORDER BY position`, docID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []LineItem
	for rows.Next() {
		var li LineItem
		if err := rows.Scan(&li.ID, &li.DocumentID, &li.ProductID, &li.Description,
			&li.Quantity, &li.UnitPrice, &li.Discount, &li.TaxRate,
			&li.LineAmount, &li.TaxAmount); err != nil {
			return nil, err
		}
		items = append(items, li)
	}
	return items, rows.Err()
}

type txRepository struct {
	tx pgx.Tx
}

// NewTxRepository wraps an existing transaction so settlement operations in
// other packages can read and write documents atomically with their own rows.
func NewTxRepository(tx pgx.Tx) TxRepository {
	return &txRepository{tx: tx}
}

func (t *txRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1 FOR UPDATE`
	doc, err := scanDocument(t.tx.QueryRow(ctx, query, id))
	if err != nil {
		return Document{}, err
	}
	doc.LineItems, err = loadLineItems(ctx, t.tx, id)
	return doc, err
}

func (t *txRepository) Insert(ctx context.Context, doc *Document) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
		        $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)`,
		doc.ID, doc.Type, doc.Number, doc.ContactID, doc.ContactName, doc.Status, doc.AmountType,
		doc.Currency, doc.Date, doc.DueDate, doc.Reference, doc.Notes,
		doc.SubTotal, doc.TotalTax, doc.Total, doc.AmountPaid, doc.AmountDue,
		doc.CreditKind, doc.RemainingCredit, doc.ConvertedDocumentID,
		doc.Version, doc.CreatedAt, doc.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("document number %s: %w", doc.Number, shared.ErrConflict)
	}
	if err != nil {
		return err
	}
	return t.insertLineItems(ctx, doc)
}

func (t *txRepository) insertLineItems(ctx context.Context, doc *Document) error {
	for i, li := range doc.LineItems {
		if _, err := t.tx.Exec(ctx, `
			INSERT INTO line_items (id, document_id, product_id, description, quantity,
			                        unit_price, discount, tax_rate, line_amount, tax_amount, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			li.ID, li.DocumentID, li.ProductID, li.Description, li.Quantity,
			li.UnitPrice, li.Discount, li.TaxRate, li.LineAmount, li.TaxAmount, i,
		); err != nil {
			return err
		}
	}
	return nil
}

// ReplaceLineItems deletes and reinserts the document's lines. Line items are
// owned by their parent: replacement destroys the previous set.
func (t *txRepository) ReplaceLineItems(ctx context.Context, doc *Document) error {
	if _, err := t.tx.Exec(ctx, `DELETE FROM line_items WHERE document_id = $1`, doc.ID); err != nil {
		return err
	}
	return t.insertLineItems(ctx, doc)
}

func (t *txRepository) UpdateState(ctx context.Context, doc *Document, expectedVersion int64) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE documents SET
			contact_id = $1, contact_name = $2, status = $3, amount_type = $4,
			currency = $5, doc_date = $6, due_date = $7, reference = $8, notes = $9,
			sub_total = $10, total_tax = $11, total = $12,
			amount_paid = $13, amount_due = $14, remaining_credit = $15,
			converted_document_id = $16, updated_at = $17, version = version + 1
		WHERE id = $18 AND version = $19`,
		doc.ContactID, doc.ContactName, doc.Status, doc.AmountType,
		doc.Currency, doc.Date, doc.DueDate, doc.Reference, doc.Notes,
		doc.SubTotal, doc.TotalTax, doc.Total,
		doc.AmountPaid, doc.AmountDue, doc.RemainingCredit,
		doc.ConvertedDocumentID, doc.UpdatedAt,
		doc.ID, expectedVersion,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	doc.Version = expectedVersion + 1
	return nil
}

// NextNumber reserves the next sequence value for the family inside the
// caller's transaction, so concurrent creates cannot collide and a rolled
// back create never reuses a number against a committed one.
func (t *txRepository) NextNumber(ctx context.Context, docType Type) (string, error) {
	var next int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO document_sequences (doc_type, next_value)
		VALUES ($1, 1)
		ON CONFLICT (doc_type)
		DO UPDATE SET next_value = document_sequences.next_value + 1
		RETURNING next_value`, docType).Scan(&next)
	if err != nil {
		return "", fmt.Errorf("documents: reserve number: %w", err)
	}
	return fmt.Sprintf("%s-%04d", docType.NumberPrefix(), next), nil
}

func (t *txRepository) ListOpen(ctx context.Context, docType Type, contactID uuid.UUID) ([]Document, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT `+documentColumns+` FROM documents
		WHERE doc_type = $1 AND contact_id = $2
		  AND status = $3 AND amount_due > 0
		ORDER BY doc_date, created_at
		FOR UPDATE`, docType, contactID, StatusApproved)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
