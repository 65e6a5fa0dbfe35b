package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medibed/medibed/internal/domain/hospital"
	"github.com/medibed/medibed/internal/platform/apperror"
	"github.com/medibed/medibed/internal/platform/db"
)

// storePG realizes the Store contract over Postgres. Every operation runs in
// one transaction via db.RunInTx and starts by locking the owning hospital
// row: that serializes counter updates per hospital, makes the approval check
// authoritative for the life of the transaction, and gives a stable lock
// order (hospital, then department, then bed) across all operations.
type storePG struct {
	pool       *pgxpool.Pool
	maxRetries int
}

func NewStorePG(pool *pgxpool.Pool, maxRetries int) Store {
	return &storePG{pool: pool, maxRetries: maxRetries}
}

const bedCols = `id, hospital_id, department_id, bed_id, type, status, patient_id, notes, created_at, updated_at`

func scanBed(row pgx.Row) (*Bed, error) {
	var b Bed
	err := row.Scan(&b.ID, &b.HospitalID, &b.DepartmentID, &b.Code, &b.Type, &b.Status,
		&b.PatientID, &b.Notes, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("bed not found")
	}
	return &b, err
}

// lockHospital takes the hospital row lock all mutations serialize on.
func lockHospital(ctx context.Context, tx pgx.Tx, hospitalID uuid.UUID) (string, error) {
	var status string
	err := tx.QueryRow(ctx, `SELECT status FROM hospitals WHERE id = $1 FOR UPDATE`, hospitalID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", apperror.NotFound("hospital not found")
	}
	return status, err
}

// requireStaffHospital gates staff mutations: the hospital must exist and be
// approved.
func requireStaffHospital(ctx context.Context, tx pgx.Tx, hospitalID uuid.UUID) error {
	status, err := lockHospital(ctx, tx, hospitalID)
	if err != nil {
		return err
	}
	if status != hospital.StatusApproved {
		return apperror.PermissionDenied("hospital is not approved")
	}
	return nil
}

func departmentExists(ctx context.Context, tx pgx.Tx, hospitalID, departmentID uuid.UUID) error {
	var exists bool
	err := tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM departments WHERE id = $1 AND hospital_id = $2)`,
		departmentID, hospitalID).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return apperror.NotFound("department not found")
	}
	return nil
}

func (s *storePG) CreateDepartment(ctx context.Context, d *Department) error {
	return db.RunInTx(ctx, s.pool, s.maxRetries, func(tx pgx.Tx) error {
		if err := requireStaffHospital(ctx, tx, d.HospitalID); err != nil {
			return err
		}
		return insertDepartment(ctx, tx, d)
	})
}

func insertDepartment(ctx context.Context, tx pgx.Tx, d *Department) error {
	d.ID = uuid.New()
	err := tx.QueryRow(ctx, `
		INSERT INTO departments (id, hospital_id, name, description, default_bed_type)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at, updated_at`,
		d.ID, d.HospitalID, d.Name, d.Description, d.DefaultBedType).
		Scan(&d.CreatedAt, &d.UpdatedAt)
	if db.IsUniqueViolation(err) {
		return apperror.Conflict("department %q already exists", d.Name)
	}
	return err
}

func (s *storePG) CreateDepartmentWithBeds(ctx context.Context, d *Department, bedCount int) ([]*Bed, error) {
	var beds []*Bed
	err := db.RunInTx(ctx, s.pool, s.maxRetries, func(tx pgx.Tx) error {
		beds = beds[:0]
		if err := requireStaffHospital(ctx, tx, d.HospitalID); err != nil {
			return err
		}
		if err := insertDepartment(ctx, tx, d); err != nil {
			return err
		}
		prefix := BedPrefix(d.Name)
		for i := 0; i < bedCount; i++ {
			b := &Bed{
				HospitalID:   d.HospitalID,
				DepartmentID: d.ID,
				Code:         FormatBedCode(prefix, i+1),
				Type:         d.DefaultBedType,
				Status:       StatusAvailable,
			}
			if err := insertBed(ctx, tx, b); err != nil {
				return err
			}
			beds = append(beds, b)
		}
		_, err := tx.Exec(ctx, `
			UPDATE hospitals SET total_beds = total_beds + $2, updated_at = NOW()
			WHERE id = $1`, d.HospitalID, bedCount)
		return err
	})
	if err != nil {
		return nil, err
	}
	return beds, nil
}

func insertBed(ctx context.Context, tx pgx.Tx, b *Bed) error {
	b.ID = uuid.New()
	err := tx.QueryRow(ctx, `
		INSERT INTO beds (id, hospital_id, department_id, bed_id, type, status, patient_id, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at, updated_at`,
		b.ID, b.HospitalID, b.DepartmentID, b.Code, b.Type, b.Status, b.PatientID, b.Notes).
		Scan(&b.CreatedAt, &b.UpdatedAt)
	if db.IsUniqueViolation(err) {
		return apperror.Conflict("bed id %q already exists in department", b.Code)
	}
	return err
}

func (s *storePG) CreateBed(ctx context.Context, b *Bed) error {
	return db.RunInTx(ctx, s.pool, s.maxRetries, func(tx pgx.Tx) error {
		if err := requireStaffHospital(ctx, tx, b.HospitalID); err != nil {
			return err
		}
		if err := departmentExists(ctx, tx, b.HospitalID, b.DepartmentID); err != nil {
			return err
		}
		if err := insertBed(ctx, tx, b); err != nil {
			return err
		}
		occ := 0
		if b.Status == StatusOccupied {
			occ = 1
		}
		_, err := tx.Exec(ctx, `
			UPDATE hospitals SET total_beds = total_beds + 1, occupied_beds = occupied_beds + $2, updated_at = NOW()
			WHERE id = $1`, b.HospitalID, occ)
		return err
	})
}

func (s *storePG) CreateBeds(ctx context.Context, hospitalID, departmentID uuid.UUID, count int, bedType string) ([]*Bed, error) {
	var beds []*Bed
	err := db.RunInTx(ctx, s.pool, s.maxRetries, func(tx pgx.Tx) error {
		beds = beds[:0]
		if err := requireStaffHospital(ctx, tx, hospitalID); err != nil {
			return err
		}

		// The department row lock serializes numbering: two concurrent bulk
		// calls cannot both read the same highest suffix.
		var name, defaultType string
		err := tx.QueryRow(ctx, `
			SELECT name, default_bed_type FROM departments
			WHERE id = $1 AND hospital_id = $2 FOR UPDATE`,
			departmentID, hospitalID).Scan(&name, &defaultType)
		if errors.Is(err, pgx.ErrNoRows) {
			return apperror.NotFound("department not found")
		}
		if err != nil {
			return err
		}

		typ := bedType
		if typ == "" {
			typ = defaultType
		}

		rows, err := tx.Query(ctx, `SELECT bed_id FROM beds WHERE department_id = $1`, departmentID)
		if err != nil {
			return err
		}
		var codes []string
		for rows.Next() {
			var code string
			if err := rows.Scan(&code); err != nil {
				rows.Close()
				return err
			}
			codes = append(codes, code)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		prefix := BedPrefix(name)
		seq := NextBedSequence(codes)
		for i := 0; i < count; i++ {
			b := &Bed{
				HospitalID:   hospitalID,
				DepartmentID: departmentID,
				Code:         FormatBedCode(prefix, seq+i),
				Type:         typ,
				Status:       StatusAvailable,
			}
			if err := insertBed(ctx, tx, b); err != nil {
				return err
			}
			beds = append(beds, b)
		}

		_, err = tx.Exec(ctx, `
			UPDATE hospitals SET total_beds = total_beds + $2, updated_at = NOW()
			WHERE id = $1`, hospitalID, count)
		return err
	})
	if err != nil {
		return nil, err
	}
	return beds, nil
}

func (s *storePG) UpdateBedStatus(ctx context.Context, hospitalID, departmentID uuid.UUID, bedCode, status string, notes *string) (*Bed, error) {
	var updated *Bed
	err := db.RunInTx(ctx, s.pool, s.maxRetries, func(tx pgx.Tx) error {
		if err := requireStaffHospital(ctx, tx, hospitalID); err != nil {
			return err
		}

		cur, err := scanBed(tx.QueryRow(ctx, `
			SELECT `+bedCols+` FROM beds
			WHERE hospital_id = $1 AND department_id = $2 AND bed_id = $3 FOR UPDATE`,
			hospitalID, departmentID, bedCode))
		if err != nil {
			return err
		}

		// Delta rule: the counter moves only when exactly one side of the
		// transition is Occupied.
		delta := 0
		if cur.Status != status {
			switch {
			case status == StatusOccupied:
				delta = 1
			case cur.Status == StatusOccupied:
				delta = -1
			}
		}

		// Staff edits never assign a patient; leaving Occupied releases one.
		patientID := cur.PatientID
		if status != StatusOccupied {
			patientID = nil
		}
		newNotes := cur.Notes
		if notes != nil {
			newNotes = notes
		}

		updated, err = scanBed(tx.QueryRow(ctx, `
			UPDATE beds SET status = $4, patient_id = $5, notes = $6, updated_at = NOW()
			WHERE hospital_id = $1 AND department_id = $2 AND bed_id = $3
			RETURNING `+bedCols,
			hospitalID, departmentID, bedCode, status, patientID, newNotes))
		if err != nil {
			return err
		}

		if delta != 0 {
			if _, err := tx.Exec(ctx, `
				UPDATE hospitals SET occupied_beds = occupied_beds + $2, updated_at = NOW()
				WHERE id = $1`, hospitalID, delta); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *storePG) DeleteBed(ctx context.Context, hospitalID, departmentID uuid.UUID, bedCode string) error {
	return db.RunInTx(ctx, s.pool, s.maxRetries, func(tx pgx.Tx) error {
		if err := requireStaffHospital(ctx, tx, hospitalID); err != nil {
			return err
		}

		var status string
		err := tx.QueryRow(ctx, `
			DELETE FROM beds
			WHERE hospital_id = $1 AND department_id = $2 AND bed_id = $3
			RETURNING status`,
			hospitalID, departmentID, bedCode).Scan(&status)
		if errors.Is(err, pgx.ErrNoRows) {
			return apperror.NotFound("bed not found")
		}
		if err != nil {
			return err
		}

		occ := 0
		if status == StatusOccupied {
			occ = 1
		}
		_, err = tx.Exec(ctx, `
			UPDATE hospitals SET total_beds = total_beds - 1, occupied_beds = occupied_beds - $2, updated_at = NOW()
			WHERE id = $1`, hospitalID, occ)
		return err
	})
}

func (s *storePG) BookBed(ctx context.Context, hospitalID, departmentID uuid.UUID, bedCode string, patientID uuid.UUID) (*Bed, error) {
	var booked *Bed
	err := db.RunInTx(ctx, s.pool, s.maxRetries, func(tx pgx.Tx) error {
		status, err := lockHospital(ctx, tx, hospitalID)
		if err != nil {
			return err
		}
		// Patients cannot see non-approved hospitals, so booking against one
		// is NotFound rather than PermissionDenied.
		if status != hospital.StatusApproved {
			return apperror.NotFound("hospital not found")
		}
		if err := departmentExists(ctx, tx, hospitalID, departmentID); err != nil {
			return err
		}

		// Compare-and-swap: the write lands only if the status read under the
		// row lock is still Available.
		booked, err = scanBed(tx.QueryRow(ctx, `
			UPDATE beds SET status = $5, patient_id = $4, updated_at = NOW()
			WHERE hospital_id = $1 AND department_id = $2 AND bed_id = $3 AND status = $6
			RETURNING `+bedCols,
			hospitalID, departmentID, bedCode, patientID, StatusOccupied, StatusAvailable))
		if apperror.IsKind(err, apperror.KindNotFound) {
			var cur string
			err2 := tx.QueryRow(ctx, `
				SELECT status FROM beds
				WHERE hospital_id = $1 AND department_id = $2 AND bed_id = $3`,
				hospitalID, departmentID, bedCode).Scan(&cur)
			if errors.Is(err2, pgx.ErrNoRows) {
				return apperror.NotFound("bed not found")
			}
			if err2 != nil {
				return err2
			}
			return apperror.Conflict("bed no longer available")
		}
		if err != nil {
			return fmt.Errorf("book bed: %w", err)
		}

		_, err = tx.Exec(ctx, `
			UPDATE hospitals SET occupied_beds = occupied_beds + 1, updated_at = NOW()
			WHERE id = $1`, hospitalID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return booked, nil
}

// =========== Department read repository ===========

type departmentRepoPG struct{ pool *pgxpool.Pool }

func NewDepartmentRepoPG(pool *pgxpool.Pool) DepartmentRepository {
	return &departmentRepoPG{pool: pool}
}

const deptCols = `id, hospital_id, name, description, default_bed_type, created_at, updated_at`

func scanDepartment(row pgx.Row) (*Department, error) {
	var d Department
	err := row.Scan(&d.ID, &d.HospitalID, &d.Name, &d.Description, &d.DefaultBedType,
		&d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("department not found")
	}
	return &d, err
}

func (r *departmentRepoPG) GetByID(ctx context.Context, hospitalID, departmentID uuid.UUID) (*Department, error) {
	return scanDepartment(r.pool.QueryRow(ctx,
		`SELECT `+deptCols+` FROM departments WHERE id = $1 AND hospital_id = $2`,
		departmentID, hospitalID))
}

func (r *departmentRepoPG) ListByHospital(ctx context.Context, hospitalID uuid.UUID, limit, offset int) ([]*Department, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM departments WHERE hospital_id = $1`, hospitalID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+deptCols+` FROM departments WHERE hospital_id = $1 ORDER BY name ASC LIMIT $2 OFFSET $3`,
		hospitalID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Department
	for rows.Next() {
		d, err := scanDepartment(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, d)
	}
	return items, total, nil
}

// Occupancy is computed by scanning the department's beds at read time.
// Department bed counts are small, so no maintained counter is needed here.
func (r *departmentRepoPG) Occupancy(ctx context.Context, hospitalID, departmentID uuid.UUID) (*DepartmentOccupancy, error) {
	var occ DepartmentOccupancy
	err := r.pool.QueryRow(ctx, `
		SELECT d.id,
			COUNT(b.id),
			COUNT(b.id) FILTER (WHERE b.status = $3)
		FROM departments d
		LEFT JOIN beds b ON b.department_id = d.id
		WHERE d.id = $1 AND d.hospital_id = $2
		GROUP BY d.id`,
		departmentID, hospitalID, StatusOccupied).
		Scan(&occ.DepartmentID, &occ.TotalBeds, &occ.OccupiedBeds)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("department not found")
	}
	if err != nil {
		return nil, err
	}
	occ.Available = occ.TotalBeds - occ.OccupiedBeds
	return &occ, nil
}

// =========== Bed read repository ===========

type bedRepoPG struct{ pool *pgxpool.Pool }

func NewBedRepoPG(pool *pgxpool.Pool) BedRepository { return &bedRepoPG{pool: pool} }

func (r *bedRepoPG) Get(ctx context.Context, hospitalID, departmentID uuid.UUID, bedCode string) (*Bed, error) {
	return scanBed(r.pool.QueryRow(ctx,
		`SELECT `+bedCols+` FROM beds WHERE hospital_id = $1 AND department_id = $2 AND bed_id = $3`,
		hospitalID, departmentID, bedCode))
}

func (r *bedRepoPG) ListByDepartment(ctx context.Context, hospitalID, departmentID uuid.UUID, limit, offset int) ([]*Bed, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM beds WHERE hospital_id = $1 AND department_id = $2`,
		hospitalID, departmentID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+bedCols+` FROM beds WHERE hospital_id = $1 AND department_id = $2 ORDER BY bed_id ASC LIMIT $3 OFFSET $4`,
		hospitalID, departmentID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Bed
	for rows.Next() {
		b, err := scanBed(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, b)
	}
	return items, total, nil
}

func (r *bedRepoPG) ListAvailable(ctx context.Context, hospitalID uuid.UUID, departmentID *uuid.UUID, limit, offset int) ([]*Bed, int, error) {
	// Only approved hospitals are searchable by patients.
	var status string
	err := r.pool.QueryRow(ctx, `SELECT status FROM hospitals WHERE id = $1`, hospitalID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) || (err == nil && status != hospital.StatusApproved) {
		return nil, 0, apperror.NotFound("hospital not found")
	}
	if err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + bedCols + ` FROM beds WHERE hospital_id = $1 AND status = $2`
	countQuery := `SELECT COUNT(*) FROM beds WHERE hospital_id = $1 AND status = $2`
	args := []interface{}{hospitalID, StatusAvailable}
	idx := 3

	if departmentID != nil {
		query += fmt.Sprintf(` AND department_id = $%d`, idx)
		countQuery += fmt.Sprintf(` AND department_id = $%d`, idx)
		args = append(args, *departmentID)
		idx++
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY department_id, bed_id ASC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Bed
	for rows.Next() {
		b, err := scanBed(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, b)
	}
	return items, total, nil
}
