package recurring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const templateColumns = `id, name, doc_type, contact_id, amount_type, currency,
	frequency, next_run_date, end_date, days_until_due, status,
	times_generated, line_items, created_at, updated_at`

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (Template, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+templateColumns+` FROM recurring_templates WHERE id = $1`, id)
	return scanTemplate(row)
}

func (r *PostgresRepository) List(ctx context.Context, filter ListTemplatesFilter) ([]Template, error) {
	query := `SELECT ` + templateColumns + ` FROM recurring_templates`
	var args []any
	if filter.Status != nil {
		query += ` WHERE status = $1`
		args = append(args, *filter.Status)
	}
	query += ` ORDER BY next_run_date`
	return r.queryTemplates(ctx, query, args...)
}

func (r *PostgresRepository) ListDue(ctx context.Context, now time.Time) ([]Template, error) {
	return r.queryTemplates(ctx, `
		SELECT `+templateColumns+` FROM recurring_templates
		WHERE status = $1 AND next_run_date <= $2
		ORDER BY next_run_date`, StatusActive, now)
}

func (r *PostgresRepository) Insert(ctx context.Context, tpl *Template) error {
	lines, err := json.Marshal(tpl.LineItems)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO recurring_templates (`+templateColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		tpl.ID, tpl.Name, tpl.DocumentType, tpl.ContactID, tpl.AmountType, tpl.Currency,
		tpl.Frequency, tpl.NextRunDate, tpl.EndDate, tpl.DaysUntilDue, tpl.Status,
		tpl.TimesGenerated, lines, tpl.CreatedAt, tpl.UpdatedAt)
	return err
}

func (r *PostgresRepository) Update(ctx context.Context, tpl *Template) error {
	lines, err := json.Marshal(tpl.LineItems)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE recurring_templates SET
			name = $2, frequency = $3, next_run_date = $4, end_date = $5,
			days_until_due = $6, status = $7, times_generated = $8,
			line_items = $9, updated_at = $10
		WHERE id = $1`,
		tpl.ID, tpl.Name, tpl.Frequency, tpl.NextRunDate, tpl.EndDate,
		tpl.DaysUntilDue, tpl.Status, tpl.TimesGenerated, lines, tpl.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTemplateNotFound
	}
	return nil
}

func (r *PostgresRepository) queryTemplates(ctx context.Context, query string, args ...any) ([]Template, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var out []Template
	for rows.Next() {
		tpl, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tpl)
	}
	return out, rows.Err()
}

func scanTemplate(row pgx.Row) (Template, error) {
	var tpl Template
	var lines []byte
	err := row.Scan(&tpl.ID, &tpl.Name, &tpl.DocumentType, &tpl.ContactID,
		&tpl.AmountType, &tpl.Currency, &tpl.Frequency, &tpl.NextRunDate,
		&tpl.EndDate, &tpl.DaysUntilDue, &tpl.Status, &tpl.TimesGenerated,
		&lines, &tpl.CreatedAt, &tpl.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Template{}, ErrTemplateNotFound
		}
		return Template{}, fmt.Errorf("scan template: %w", err)
	}
	if len(lines) > 0 {
		if err := json.Unmarshal(lines, &tpl.LineItems); err != nil {
			return Template{}, fmt.Errorf("decode template lines: %w", err)
		}
	}
	return tpl, nil
}
