package journals

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (Journal, error) {
	var j Journal
	err := r.pool.QueryRow(ctx, `
		SELECT id, journal_date, narration, created_at, updated_at
		FROM journals WHERE id = $1`, id).
		Scan(&j.ID, &j.Date, &j.Narration, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Journal{}, ErrJournalNotFound
		}
		return Journal{}, fmt.Errorf("get journal: %w", err)
	}
	j.Lines, err = r.loadLines(ctx, id)
	return j, err
}

func (r *PostgresRepository) List(ctx context.Context) ([]Journal, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, journal_date, narration, created_at, updated_at
		FROM journals ORDER BY journal_date DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list journals: %w", err)
	}
	defer rows.Close()

	var out []Journal
	for rows.Next() {
		var j Journal
		if err := rows.Scan(&j.ID, &j.Date, &j.Narration, &j.CreatedAt, &j.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Lines, err = r.loadLines(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Insert writes the journal and its lines in one transaction.
func (r *PostgresRepository) Insert(ctx context.Context, j *Journal) error {
	return pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO journals (id, journal_date, narration, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5)`,
			j.ID, j.Date, j.Narration, j.CreatedAt, j.UpdatedAt); err != nil {
			return err
		}
		return insertLines(ctx, tx, j)
	})
}

// Replace rewrites the journal header and its full line set atomically.
func (r *PostgresRepository) Replace(ctx context.Context, j *Journal) error {
	return pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE journals SET journal_date = $2, narration = $3, updated_at = $4
			WHERE id = $1`,
			j.ID, j.Date, j.Narration, j.UpdatedAt)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrJournalNotFound
		}
		if _, err := tx.Exec(ctx, `DELETE FROM journal_lines WHERE journal_id = $1`, j.ID); err != nil {
			return err
		}
		return insertLines(ctx, tx, j)
	})
}

func insertLines(ctx context.Context, tx pgx.Tx, j *Journal) error {
	for i, line := range j.Lines {
		if _, err := tx.Exec(ctx, `
			INSERT INTO journal_lines (id, journal_id, account_code, description, debit, credit, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			line.ID, line.JournalID, line.AccountCode, line.Description,
			line.Debit, line.Credit, i); err != nil {
			return err
		}
	}
	return nil
}

func (r *PostgresRepository) loadLines(ctx context.Context, journalID uuid.UUID) ([]JournalLine, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, journal_id, account_code, description, debit, credit
		FROM journal_lines WHERE journal_id = $1 ORDER BY position`, journalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []JournalLine
	for rows.Next() {
		var line JournalLine
		if err := rows.Scan(&line.ID, &line.JournalID, &line.AccountCode,
			&line.Description, &line.Debit, &line.Credit); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}
