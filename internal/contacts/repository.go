package contacts

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const contactColumns = `id, name, email, phone, tax_number, address, city,
	postal_code, country, is_customer, is_supplier, is_active, notes,
	created_at, updated_at`

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (Contact, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE id = $1`, id)
	return scanContact(row)
}

func (r *PostgresRepository) List(ctx context.Context, filter ListContactsFilter) ([]Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE 1=1`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.IsCustomer != nil {
		query += ` AND is_customer = ` + arg(*filter.IsCustomer)
	}
	if filter.IsSupplier != nil {
		query += ` AND is_supplier = ` + arg(*filter.IsSupplier)
	}
	if filter.IsActive != nil {
		query += ` AND is_active = ` + arg(*filter.IsActive)
	}
	if filter.Search != "" {
		p := arg("%" + filter.Search + "%")
		query += ` AND (name ILIKE ` + p + ` OR email ILIKE ` + p + `)`
	}
	query += ` ORDER BY name`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	var out []Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Insert(ctx context.Context, c *Contact) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO contacts (`+contactColumns+`)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		c.ID, c.Name, c.Email, c.Phone, c.TaxNumber, c.Address, c.City,
		c.PostalCode, c.Country, c.IsCustomer, c.IsSupplier, c.IsActive,
		c.Notes, c.CreatedAt, c.UpdatedAt)
	return err
}

func (r *PostgresRepository) Update(ctx context.Context, c *Contact) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE contacts SET name=$2, email=$3, phone=$4, tax_number=$5,
			address=$6, city=$7, postal_code=$8, country=$9, is_customer=$10,
			is_supplier=$11, is_active=$12, notes=$13, updated_at=$14
		 WHERE id = $1`,
		c.ID, c.Name, c.Email, c.Phone, c.TaxNumber, c.Address, c.City,
		c.PostalCode, c.Country, c.IsCustomer, c.IsSupplier, c.IsActive,
		c.Notes, c.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrContactNotFound
	}
	return nil
}

func scanContact(row pgx.Row) (Contact, error) {
	var c Contact
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.TaxNumber,
		&c.Address, &c.City, &c.PostalCode, &c.Country, &c.IsCustomer,
		&c.IsSupplier, &c.IsActive, &c.Notes, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Contact{}, ErrContactNotFound
		}
		return Contact{}, fmt.Errorf("scan contact: %w", err)
	}
	return c, nil
}
