package inventory

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/medibed/medibed/internal/platform/apperror"
)

// Engine is the single entry point for every operation that changes the shape
// or status of the bed inventory. Validation that needs no storage happens
// here, before any write is attempted; the transactional discipline itself
// lives in the Store. No caller mutates beds or hospital counters any other
// way.
type Engine struct {
	store       Store
	departments DepartmentRepository
	beds        BedRepository
	bulkLimit   int
}

// DefaultBulkLimit caps how many beds one bulk call may generate.
const DefaultBulkLimit = 100

func NewEngine(store Store, departments DepartmentRepository, beds BedRepository, bulkLimit int) *Engine {
	if bulkLimit <= 0 {
		bulkLimit = DefaultBulkLimit
	}
	return &Engine{store: store, departments: departments, beds: beds, bulkLimit: bulkLimit}
}

// -- Write operations --

func (e *Engine) CreateDepartment(ctx context.Context, hospitalID uuid.UUID, name, description, defaultBedType string) (*Department, error) {
	name = strings.TrimSpace(name)
	if len(name) < 2 {
		return nil, apperror.Invalid("department name must be at least 2 characters")
	}
	d := &Department{
		HospitalID:     hospitalID,
		Name:           name,
		Description:    strings.TrimSpace(description),
		DefaultBedType: strings.TrimSpace(defaultBedType),
	}
	if err := e.store.CreateDepartment(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// CreateDepartmentWithBeds seeds a department from a template and generates
// its initial beds as one atomic unit.
func (e *Engine) CreateDepartmentWithBeds(ctx context.Context, hospitalID uuid.UUID, tpl DepartmentTemplate, bedCount int) (*Department, []*Bed, error) {
	name := strings.TrimSpace(tpl.Name)
	if len(name) < 2 {
		return nil, nil, apperror.Invalid("department name must be at least 2 characters")
	}
	if bedCount < 1 || bedCount > e.bulkLimit {
		return nil, nil, apperror.Invalid("bed count must be between 1 and %d", e.bulkLimit)
	}
	d := &Department{
		HospitalID:     hospitalID,
		Name:           name,
		Description:    strings.TrimSpace(tpl.Description),
		DefaultBedType: strings.TrimSpace(tpl.DefaultBedType),
	}
	beds, err := e.store.CreateDepartmentWithBeds(ctx, d, bedCount)
	if err != nil {
		return nil, nil, err
	}
	return d, beds, nil
}

func (e *Engine) CreateBed(ctx context.Context, hospitalID, departmentID uuid.UUID, spec BedSpec) (*Bed, error) {
	code := strings.TrimSpace(spec.Code)
	if code == "" {
		return nil, apperror.Invalid("bed id is required")
	}
	if strings.TrimSpace(spec.Type) == "" {
		return nil, apperror.Invalid("bed type is required")
	}
	status := spec.Status
	if status == "" {
		status = StatusAvailable
	}
	if !ValidStatus(status) {
		return nil, apperror.Invalid("invalid bed status: %s", status)
	}

	b := &Bed{
		HospitalID:   hospitalID,
		DepartmentID: departmentID,
		Code:         code,
		Type:         strings.TrimSpace(spec.Type),
		Status:       status,
		Notes:        spec.Notes,
	}
	if err := e.store.CreateBed(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (e *Engine) CreateBedsBulk(ctx context.Context, hospitalID, departmentID uuid.UUID, count int, bedType string) ([]*Bed, error) {
	if count < 1 || count > e.bulkLimit {
		return nil, apperror.Invalid("bed count must be between 1 and %d", e.bulkLimit)
	}
	return e.store.CreateBeds(ctx, hospitalID, departmentID, count, strings.TrimSpace(bedType))
}

func (e *Engine) UpdateBedStatus(ctx context.Context, hospitalID, departmentID uuid.UUID, bedCode, status string, notes *string) (*Bed, error) {
	if !ValidStatus(status) {
		return nil, apperror.Invalid("invalid bed status: %s", status)
	}
	return e.store.UpdateBedStatus(ctx, hospitalID, departmentID, bedCode, status, notes)
}

func (e *Engine) DeleteBed(ctx context.Context, hospitalID, departmentID uuid.UUID, bedCode string) error {
	return e.store.DeleteBed(ctx, hospitalID, departmentID, bedCode)
}

// BookBed lets a patient claim an Available bed. Conflict means another
// claimant won; the caller may pick a different bed but retrying the same one
// will keep failing until it frees up.
func (e *Engine) BookBed(ctx context.Context, hospitalID, departmentID uuid.UUID, bedCode string, patientID uuid.UUID) (*Bed, error) {
	if patientID == uuid.Nil {
		return nil, apperror.Invalid("patient identity is required")
	}
	return e.store.BookBed(ctx, hospitalID, departmentID, bedCode, patientID)
}

// -- Read projections --

func (e *Engine) GetDepartment(ctx context.Context, hospitalID, departmentID uuid.UUID) (*Department, error) {
	return e.departments.GetByID(ctx, hospitalID, departmentID)
}

func (e *Engine) ListDepartments(ctx context.Context, hospitalID uuid.UUID, limit, offset int) ([]*Department, int, error) {
	return e.departments.ListByHospital(ctx, hospitalID, limit, offset)
}

func (e *Engine) DepartmentOccupancy(ctx context.Context, hospitalID, departmentID uuid.UUID) (*DepartmentOccupancy, error) {
	return e.departments.Occupancy(ctx, hospitalID, departmentID)
}

func (e *Engine) GetBed(ctx context.Context, hospitalID, departmentID uuid.UUID, bedCode string) (*Bed, error) {
	return e.beds.Get(ctx, hospitalID, departmentID, bedCode)
}

func (e *Engine) ListBeds(ctx context.Context, hospitalID, departmentID uuid.UUID, limit, offset int) ([]*Bed, int, error) {
	return e.beds.ListByDepartment(ctx, hospitalID, departmentID, limit, offset)
}

func (e *Engine) SearchAvailable(ctx context.Context, hospitalID uuid.UUID, departmentID *uuid.UUID, limit, offset int) ([]*Bed, int, error) {
	return e.beds.ListAvailable(ctx, hospitalID, departmentID, limit, offset)
}
