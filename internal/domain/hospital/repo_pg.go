package hospital

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medibed/medibed/internal/platform/apperror"
	"github.com/medibed/medibed/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const hospitalCols = `id, name, admin_name, admin_email, status, total_beds, occupied_beds,
	address, city, state, district, postal_code, created_at, updated_at`

func scanHospital(row pgx.Row) (*Hospital, error) {
	var h Hospital
	err := row.Scan(&h.ID, &h.Name, &h.AdminName, &h.AdminEmail, &h.Status,
		&h.TotalBeds, &h.OccupiedBeds,
		&h.Address, &h.City, &h.State, &h.District, &h.PostalCode,
		&h.CreatedAt, &h.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("hospital not found")
	}
	return &h, err
}

func (r *repoPG) Create(ctx context.Context, h *Hospital) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO hospitals (id, name, admin_name, admin_email, status, total_beds, occupied_beds,
			address, city, state, district, postal_code)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		h.ID, h.Name, h.AdminName, h.AdminEmail, h.Status, h.TotalBeds, h.OccupiedBeds,
		h.Address, h.City, h.State, h.District, h.PostalCode)
	if db.IsUniqueViolation(err) {
		return apperror.Conflict("hospital already registered")
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Hospital, error) {
	return scanHospital(r.pool.QueryRow(ctx, `SELECT `+hospitalCols+` FROM hospitals WHERE id = $1`, id))
}

func (r *repoPG) UpdateProfile(ctx context.Context, id uuid.UUID, p *Profile) (*Hospital, error) {
	return scanHospital(r.pool.QueryRow(ctx, `
		UPDATE hospitals SET name=$2, admin_name=$3, admin_email=$4,
			address=$5, city=$6, state=$7, district=$8, postal_code=$9, updated_at=NOW()
		WHERE id = $1
		RETURNING `+hospitalCols,
		id, p.Name, p.AdminName, p.AdminEmail,
		p.Address, p.City, p.State, p.District, p.PostalCode))
}

func (r *repoPG) SetStatus(ctx context.Context, id uuid.UUID, status string) (*Hospital, error) {
	return scanHospital(r.pool.QueryRow(ctx, `
		UPDATE hospitals SET status=$2, updated_at=NOW()
		WHERE id = $1
		RETURNING `+hospitalCols,
		id, status))
}

func (r *repoPG) List(ctx context.Context, params map[string]string, limit, offset int) ([]*Hospital, int, error) {
	query := `SELECT ` + hospitalCols + ` FROM hospitals WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM hospitals WHERE 1=1`
	var args []interface{}
	idx := 1

	if p, ok := params["status"]; ok {
		query += fmt.Sprintf(` AND status = $%d`, idx)
		countQuery += fmt.Sprintf(` AND status = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["state"]; ok {
		query += fmt.Sprintf(` AND state = $%d`, idx)
		countQuery += fmt.Sprintf(` AND state = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["district"]; ok {
		query += fmt.Sprintf(` AND district = $%d`, idx)
		countQuery += fmt.Sprintf(` AND district = $%d`, idx)
		args = append(args, p)
		idx++
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY name ASC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Hospital
	for rows.Next() {
		h, err := scanHospital(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, h)
	}
	return items, total, nil
}
